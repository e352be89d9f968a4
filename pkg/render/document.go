package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/wp2pdf/wp2pdf/pkg/errors"
	"github.com/wp2pdf/wp2pdf/pkg/extract"
	"github.com/wp2pdf/wp2pdf/pkg/glyphcache"
	"github.com/wp2pdf/wp2pdf/pkg/images"
	"github.com/wp2pdf/wp2pdf/pkg/wordpress"
)

// Options configures a Renderer.
type Options struct {
	Fonts     Fonts
	Glyphs    *glyphcache.Cache // nil disables emoji images
	OutputDir string
	ErrorsDir string // defaults to OutputDir/errors
	Logger    *log.Logger
}

// Renderer turns posts into PDF files on disk. It tracks the filenames
// produced during its lifetime so two posts sharing a date and slug within
// one run do not overwrite each other.
type Renderer struct {
	fonts     Fonts
	glyphs    *glyphcache.Cache
	outputDir string
	errorsDir string
	logger    *log.Logger
	written   map[string]int // filename → post ID that claimed it
}

// NewRenderer validates opts and creates the output directories.
func NewRenderer(opts Options) (*Renderer, error) {
	if opts.OutputDir == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "output directory is required")
	}
	if opts.Fonts.family == "" {
		return nil, errors.New(errors.ErrCodeFontUnavailable, "no font family configured")
	}
	errorsDir := opts.ErrorsDir
	if errorsDir == "" {
		errorsDir = filepath.Join(opts.OutputDir, "errors")
	}
	for _, dir := range []string{opts.OutputDir, errorsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "create %s", dir)
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Renderer{
		fonts:     opts.Fonts,
		glyphs:    opts.Glyphs,
		outputDir: opts.OutputDir,
		errorsDir: errorsDir,
		logger:    logger,
		written:   make(map[string]int),
	}, nil
}

// RenderDocument composes the full document for a post and writes it to the
// output directory, returning the file path. A nil entry in imgs is skipped;
// it stands for an image that failed to download.
func (r *Renderer) RenderDocument(ctx context.Context, post wordpress.Post, imgs []*images.Decoded) (string, error) {
	c, err := newComposer(r.fonts, r.glyphs, r.logger)
	if err != nil {
		return "", err
	}

	title := extract.Text(post.Title.Rendered)
	c.header(ctx, title, post.Date, post.Terms())
	c.body(ctx, extract.Paragraphs(post.Content.Rendered))
	for _, img := range imgs {
		if img == nil {
			continue
		}
		c.imagePage(img)
	}

	path := filepath.Join(r.outputDir, r.claimName(post.ID, DocumentName(post.ID, title, post.Date)))
	if err := c.pdf.OutputFileAndClose(path); err != nil {
		return "", errors.Wrap(errors.ErrCodeRenderFailed, err, "write %s", path)
	}
	return path, nil
}

// RenderErrorDocument writes a degraded document recording why a post could
// not be rendered, so failures leave a visible artifact next to the normal
// output.
func (r *Renderer) RenderErrorDocument(post wordpress.Post, errMsg string) (string, error) {
	c, err := newComposer(r.fonts, r.glyphs, r.logger)
	if err != nil {
		return "", err
	}

	title := extract.Text(post.Title.Rendered)
	c.pdf.SetFont(r.fonts.family, "B", 16)
	c.pdf.CellFormat(0, 10, "Error Processing Post", "", 1, "C", false, 0, "")
	c.rule()

	c.pdf.SetFont(r.fonts.family, "", 12)
	c.pdf.CellFormat(0, 8, fmt.Sprintf("Post ID: %d", post.ID), "", 1, "L", false, 0, "")
	c.pdf.MultiCell(0, 8, "Title: "+title, "", "L", false)
	c.pdf.CellFormat(0, 8, "Date: "+longDate(r.logger, post.Date), "", 1, "L", false, 0, "")
	c.pdf.Ln(4)

	c.pdf.SetFont(r.fonts.family, "B", 12)
	c.pdf.CellFormat(0, 8, "Error:", "", 1, "L", false, 0, "")
	c.pdf.SetFont(r.fonts.family, "", 11)
	c.pdf.MultiCell(0, 6, errMsg, "", "L", false)

	path := filepath.Join(r.errorsDir, ErrorDocumentName(post.ID, title))
	if err := c.pdf.OutputFileAndClose(path); err != nil {
		return "", errors.Wrap(errors.ErrCodeRenderFailed, err, "write %s", path)
	}
	return path, nil
}

// claimName reserves name for post id, appending the post ID when a
// different post already produced the same filename in this run.
func (r *Renderer) claimName(id int, name string) string {
	if owner, taken := r.written[name]; taken && owner != id {
		ext := filepath.Ext(name)
		name = fmt.Sprintf("%s_%d%s", name[:len(name)-len(ext)], id, ext)
	}
	r.written[name] = id
	return name
}

// longDate formats a post date for error documents. An unparseable date is
// logged and kept raw.
func longDate(logger *log.Logger, date string) string {
	t, err := ParseDate(date)
	if err != nil {
		logger.Warn("unparseable post date", "date", date, "err", err)
		return date
	}
	return t.Format("January 2, 2006 at 15:04")
}
