// Package cli implements the wp2pdf command-line interface.
//
// The main commands are:
//   - run: fetch posts from the configured WordPress site and render them
//   - render: render a single post from a JSON file, without the network
//   - cache: manage the emoji and HTTP response cache
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/wp2pdf/wp2pdf/pkg/buildinfo"
)

// appName is the application name used for directories and display.
const appName = "wp2pdf"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance logging to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "wp2pdf renders WordPress posts as PDF documents",
		Long:         `wp2pdf pages through a WordPress site's posts and renders each one as a paginated A4 PDF, with emoji images, embedded photos, and resumable batch state.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.runCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.cacheCommand())

	return root
}
