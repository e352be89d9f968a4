package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wp2pdf/wp2pdf/pkg/batch"
	"github.com/wp2pdf/wp2pdf/pkg/config"
	"github.com/wp2pdf/wp2pdf/pkg/glyphcache"
	"github.com/wp2pdf/wp2pdf/pkg/httputil"
	"github.com/wp2pdf/wp2pdf/pkg/images"
	"github.com/wp2pdf/wp2pdf/pkg/render"
	"github.com/wp2pdf/wp2pdf/pkg/wordpress"
)

// runCommand creates the "run" command driving a full batch.
func (c *CLI) runCommand() *cobra.Command {
	var (
		configPath string
		limit      int
		refresh    bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch posts from the configured site and render them as PDFs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			client, err := wordpress.NewClient(wordpress.Options{
				SiteURL:    cfg.SiteURL,
				Username:   cfg.Username,
				Password:   cfg.Password,
				Timeout:    cfg.Timeout.Std(),
				MaxRetries: cfg.MaxRetries,
			})
			if err != nil {
				return err
			}

			renderer, err := c.newRenderer(cfg)
			if err != nil {
				return err
			}

			journal, err := batch.OpenJournal(cfg.OutputDir)
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}

			fetcher := images.NewFetcher(images.Options{
				Timeout: cfg.Timeout.Std(),
				MaxSize: cfg.ImageMaxSize,
				Cache:   c.newHTTPCache(cfg),
				Logger:  c.Logger,
			})

			processor := batch.New(batch.Options{
				Client:        client,
				Images:        fetcher,
				Renderer:      renderer,
				Journal:       journal,
				Logger:        c.Logger,
				BatchSize:     cfg.BatchSize,
				Workers:       cfg.Workers,
				Limit:         limit,
				Refresh:       refresh,
				RetryDelay:    cfg.RetryDelay.Std(),
				MaxRetryDelay: cfg.MaxRetryDelay.Std(),
			})

			printInfo("Processing posts from %s", cfg.SiteURL)
			summary, err := processor.Run(cmd.Context())
			if err != nil {
				printError("Run aborted after %d posts", summary.Processed)
				return err
			}

			printSuccess("Processed %d posts", summary.Processed)
			printRunSummary(summary.Succeeded, summary.Failed, summary.Skipped)
			printDetail("Output: %s", cfg.OutputDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to TOML config file")
	cmd.Flags().IntVar(&limit, "limit", 0, "stop after this many posts (0 = all)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "re-render posts already processed")

	return cmd
}

// newRenderer builds the document renderer from config: fonts, glyph cache,
// output directories. An empty fonts_dir selects the built-in core font,
// which has no emoji or extended Unicode coverage.
func (c *CLI) newRenderer(cfg config.Config) (*render.Renderer, error) {
	fonts := render.Builtin()
	if cfg.FontsDir != "" {
		var err error
		fonts, err = render.FromDir(cfg.FontsDir)
		if err != nil {
			return nil, err
		}
	} else {
		printWarning("No fonts_dir configured, using built-in fonts (limited character support)")
	}

	glyphs, err := glyphcache.New(
		cfg.EmojiCacheDir(),
		glyphcache.NewTwemojiFetcher(cfg.EmojiBaseURL, cfg.Timeout.Std()),
		c.Logger,
	)
	if err != nil {
		return nil, fmt.Errorf("open glyph cache: %w", err)
	}

	return render.NewRenderer(render.Options{
		Fonts:     fonts,
		Glyphs:    glyphs,
		OutputDir: cfg.OutputDir,
		ErrorsDir: cfg.ErrorsDir(),
		Logger:    c.Logger,
	})
}

// newHTTPCache opens the response cache; a cache failure degrades to
// uncached fetching rather than failing the run.
func (c *CLI) newHTTPCache(cfg config.Config) *httputil.Cache {
	cache, err := httputil.NewCache(cfg.HTTPCacheDir(), 0)
	if err != nil {
		c.Logger.Warn("http cache unavailable", "err", err)
		return nil
	}
	return cache
}
