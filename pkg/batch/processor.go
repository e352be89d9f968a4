package batch

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/wp2pdf/wp2pdf/pkg/extract"
	"github.com/wp2pdf/wp2pdf/pkg/images"
	"github.com/wp2pdf/wp2pdf/pkg/wordpress"
)

// PostLister pages through a site's posts.
type PostLister interface {
	Posts(ctx context.Context, page, perPage int) ([]wordpress.Post, wordpress.Pagination, error)
}

// ImageFetcher downloads one post image.
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) (*images.Decoded, error)
}

// DocumentRenderer writes PDFs for posts.
type DocumentRenderer interface {
	RenderDocument(ctx context.Context, post wordpress.Post, imgs []*images.Decoded) (string, error)
	RenderErrorDocument(post wordpress.Post, errMsg string) (string, error)
}

// Options configures a Processor.
type Options struct {
	Client   PostLister
	Images   ImageFetcher
	Renderer DocumentRenderer
	Journal  *Journal
	Logger   *log.Logger

	BatchSize     int           // posts per page
	Workers       int           // concurrent image downloads per post
	Limit         int           // stop after this many posts; 0 means all
	Refresh       bool          // re-render posts already marked processed
	RetryDelay    time.Duration // initial page fetch retry delay
	MaxRetryDelay time.Duration // backoff cap
}

// Summary aggregates one run.
type Summary struct {
	RunID     string
	Processed int // posts attempted this run
	Succeeded int
	Failed    int
	Skipped   int // already processed in earlier runs
}

// Processor drives one batch run: page, filter, download, render, record.
type Processor struct {
	opts  Options
	runID string
}

// New creates a Processor with defaults filled in.
func New(opts Options) *Processor {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 10
	}
	if opts.Workers <= 0 {
		opts.Workers = 5
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 30 * time.Second
	}
	if opts.MaxRetryDelay <= 0 {
		opts.MaxRetryDelay = 5 * time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Processor{opts: opts, runID: uuid.NewString()}
}

// RunID identifies this run in the results log.
func (p *Processor) RunID() string { return p.runID }

// Run processes posts until the listing is exhausted, the limit is hit, or
// the context is canceled. Page fetch failures back off and retry the same
// page; post-level failures produce an error document and the run
// continues.
func (p *Processor) Run(ctx context.Context) (Summary, error) {
	summary := Summary{RunID: p.runID}
	page := 1
	delay := p.opts.RetryDelay

	for {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		posts, pg, err := p.opts.Client.Posts(ctx, page, p.opts.BatchSize)
		if err != nil {
			p.opts.Logger.Warn("page fetch failed, backing off",
				"page", page, "delay", delay, "err", err)
			if err := sleep(ctx, delay); err != nil {
				return summary, err
			}
			delay *= 2
			if delay > p.opts.MaxRetryDelay {
				delay = p.opts.MaxRetryDelay
			}
			continue
		}
		delay = p.opts.RetryDelay

		if len(posts) == 0 {
			break
		}

		for _, post := range posts {
			if p.opts.Limit > 0 && summary.Processed >= p.opts.Limit {
				return summary, nil
			}
			if !p.opts.Refresh && p.opts.Journal.Processed(post.ID) {
				summary.Skipped++
				continue
			}
			summary.Processed++
			if p.process(ctx, post) {
				summary.Succeeded++
			} else {
				summary.Failed++
			}
			if err := ctx.Err(); err != nil {
				return summary, err
			}
		}

		if pg.TotalPages > 0 && page >= pg.TotalPages {
			break
		}
		page++
	}
	return summary, nil
}

// process renders one post, falling back to an error document when the
// render fails. Returns true on success.
func (p *Processor) process(ctx context.Context, post wordpress.Post) bool {
	title := extract.Text(post.Title.Rendered)
	logger := p.opts.Logger.With("post", post.ID, "title", title)

	imgs := p.downloadImages(ctx, post, logger)

	result := Result{
		RunID:       p.runID,
		PostID:      post.ID,
		Title:       title,
		Date:        post.Date,
		ProcessedAt: time.Now().UTC(),
	}

	path, err := p.opts.Renderer.RenderDocument(ctx, post, imgs)
	if err != nil {
		logger.Error("render failed", "err", err)
		result.ErrorMessage = err.Error()
		if errPath, errDocErr := p.opts.Renderer.RenderErrorDocument(post, err.Error()); errDocErr != nil {
			logger.Error("error document failed", "err", errDocErr)
		} else {
			result.PDFPath = errPath
		}
		p.record(result, logger)
		return false
	}

	result.Success = true
	result.PDFPath = path
	if err := p.opts.Journal.MarkProcessed(post.ID); err != nil {
		logger.Error("journal update failed", "err", err)
	}
	p.record(result, logger)
	logger.Info("rendered", "pdf", path)
	return true
}

// downloadImages fetches the post's images concurrently, preserving
// document order. A failed download leaves a nil slot; the renderer skips
// those.
func (p *Processor) downloadImages(ctx context.Context, post wordpress.Post, logger *log.Logger) []*images.Decoded {
	urls := extract.ImageURLs(post.Content.Rendered)
	if len(urls) == 0 || p.opts.Images == nil {
		return nil
	}

	imgs := make([]*images.Decoded, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)
	for i, url := range urls {
		i, url := i, url
		g.Go(func() error {
			img, err := p.opts.Images.Fetch(gctx, url)
			if err != nil {
				logger.Warn("image skipped", "url", url, "err", err)
				return nil
			}
			imgs[i] = img
			return nil
		})
	}
	g.Wait() // workers never return errors
	return imgs
}

func (p *Processor) record(r Result, logger *log.Logger) {
	if err := p.opts.Journal.Append(r); err != nil {
		logger.Error("result log failed", "err", err)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
