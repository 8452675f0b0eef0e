// Package cli implements the slocmap command-line interface.
package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/slocmap/pkg/buildinfo"
	"github.com/matzehuels/slocmap/pkg/cache"
	"github.com/matzehuels/slocmap/pkg/pipeline"
	"github.com/matzehuels/slocmap/pkg/source"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "slocmap"

	// defaultBase names outputs when the source has no file name.
	defaultBase = "treemap"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// configPath overrides the default config file location.
	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "slocmap draws source trees as zoomable treemaps",
		Long: `slocmap turns a tree of source files with line counts into a squarified
treemap. Each rectangle is a file or directory sized by its lines of code and
colored by language. Outputs are interactive SVG and HTML (click to zoom),
PNG, layout JSON and node-link diagrams, or a treemap browser in the terminal.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: "+displayConfigPath()+")")

	root.AddCommand(c.buildCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.versionCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	cache, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cache, nil, c.Logger), nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/slocmap/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// basePath derives the output path prefix. An explicit output keeps its
// name minus a known format extension. Otherwise a local source lends its
// path ("src/tree.json" → "src/tree.treemap"), and URLs or stdin fall back
// to "treemap".
func basePath(output, src string) string {
	if output != "" {
		for _, f := range outputFormats {
			if ext := "." + pipeline.Extension(f); strings.HasSuffix(output, ext) {
				return strings.TrimSuffix(output, ext)
			}
		}
		return output
	}
	if src == "" || src == source.Stdin || strings.Contains(src, "://") {
		return defaultBase
	}
	return strings.TrimSuffix(src, filepath.Ext(src)) + "." + defaultBase
}

// outputFormats lists formats with the longest extension first so that
// "x.nodelink.svg" is not mistaken for an SVG.
var outputFormats = []string{
	pipeline.FormatNodelink,
	pipeline.FormatHTML,
	pipeline.FormatJSON,
	pipeline.FormatSVG,
	pipeline.FormatPNG,
	pipeline.FormatDOT,
}
