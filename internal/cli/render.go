package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wp2pdf/wp2pdf/pkg/config"
	"github.com/wp2pdf/wp2pdf/pkg/errors"
	"github.com/wp2pdf/wp2pdf/pkg/extract"
	"github.com/wp2pdf/wp2pdf/pkg/images"
	"github.com/wp2pdf/wp2pdf/pkg/wordpress"
)

// renderCommand creates the "render" command, which renders a single post
// from a JSON file. Useful for inspecting layout changes without touching
// the site.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		configPath string
		outputDir  string
		withImages bool
	)

	cmd := &cobra.Command{
		Use:   "render <post.json>",
		Short: "Render one post from a JSON file",
		Long:  `Render reads a single post in the WordPress REST shape (id, date, title.rendered, content.rendered) from a JSON file and writes the PDF without fetching anything from the site.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if outputDir != "" {
				cfg.OutputDir = outputDir
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read post: %w", err)
			}
			var post wordpress.Post
			if err := json.Unmarshal(data, &post); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidPost, err, "parse %s", args[0])
			}

			renderer, err := c.newRenderer(cfg)
			if err != nil {
				return err
			}

			var imgs []*images.Decoded
			if withImages {
				fetcher := images.NewFetcher(images.Options{
					Timeout: cfg.Timeout.Std(),
					MaxSize: cfg.ImageMaxSize,
					Cache:   c.newHTTPCache(cfg),
					Logger:  c.Logger,
				})
				for _, url := range extract.ImageURLs(post.Content.Rendered) {
					img, err := fetcher.Fetch(cmd.Context(), url)
					if err != nil {
						c.Logger.Warn("image skipped", "url", url, "err", err)
						imgs = append(imgs, nil)
						continue
					}
					imgs = append(imgs, img)
				}
			}

			sp := newSpinner(cmd.Context(), fmt.Sprintf("Rendering post %d...", post.ID))
			path, err := renderer.RenderDocument(cmd.Context(), post, imgs)
			sp.Stop()
			if err != nil {
				return err
			}

			printSuccess("Rendered post %d", post.ID)
			printFile(path)
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to TOML config file")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (overrides config)")
	cmd.Flags().BoolVar(&withImages, "images", false, "download and embed the post's images")

	return cmd
}
