package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/slocmap/pkg/pipeline"
	"github.com/matzehuels/slocmap/pkg/source"
)

// renderFlags are the flags shared by render, layout and browse that do
// not map one-to-one onto pipeline options.
type renderFlags struct {
	output  string
	formats string
	noCache bool
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var flags renderFlags
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "render [source]",
		Short: "Render a source tree to SVG, HTML, PNG, JSON or DOT",
		Long: `Render a source tree as a treemap.

The source is a tree JSON or YAML file, a gocloc JSON report, an http(s) URL
or "-" for stdin. Without a source the config file's render.source is used,
and without that the public sample tree.

SVG and HTML outputs are interactive: clicking a rectangle zooms into it and
clicking the header zooms back out. PNG is a static image of the focused
directory (--focus). JSON exports the layout, DOT and nodelink the directory
structure as a node-link diagram.

Layouts and rendered outputs are cached locally for faster subsequent runs.`,
		Example: `  slocmap render tree.json
  slocmap render tree.json -f svg,png --focus src/pkg
  gocloc --by-file --output-type=json . | slocmap render - --input-format gocloc -f html -o repo.html`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if err := flags.resolve(cmd, cfg.Render, &opts); err != nil {
				return err
			}
			opts.Source = cfg.Render.sourceArg(args)
			return c.runRender(cmd.Context(), opts, flags)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&flags.formats, "format", "f", pipeline.FormatSVG, "output format(s): svg, html, png, json, dot, nodelink (comma-separated)")
	addLoadFlags(cmd, &opts)
	addLayoutFlags(cmd, &opts)
	addRenderFlags(cmd, &opts)

	return cmd
}

func (f *renderFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
}

// resolve parses the format list and layers config values under flags.
func (f *renderFlags) resolve(cmd *cobra.Command, rc RenderConfig, opts *pipeline.Options) error {
	if f.formats != "" {
		formats, err := pipeline.ParseFormats(f.formats)
		if err != nil {
			return err
		}
		opts.Formats = formats
	}
	rc.apply(cmd, opts, &f.noCache)
	if len(opts.Formats) == 0 {
		opts.Formats = []string{pipeline.FormatSVG}
	}
	return nil
}

func addLoadFlags(cmd *cobra.Command, opts *pipeline.Options) {
	cmd.Flags().StringVar(&opts.InputFormat, "input-format", "", "input format: json, yaml, gocloc (default: detect from extension)")
	cmd.Flags().StringVar(&opts.RootName, "root-name", "", "root directory name for gocloc input")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "refetch remote sources instead of using the cache")
}

func addLayoutFlags(cmd *cobra.Command, opts *pipeline.Options) {
	cmd.Flags().Float64Var(&opts.Width, "width", pipeline.DefaultWidth, "frame width")
	cmd.Flags().Float64Var(&opts.Height, "height", pipeline.DefaultHeight, "frame height (without header and footer margins)")
	cmd.Flags().Float64Var(&opts.PaddingInner, "padding", 0, "gap between sibling rectangles")
	cmd.Flags().BoolVar(&opts.Round, "round", false, "snap rectangles to whole pixels")
}

func addRenderFlags(cmd *cobra.Command, opts *pipeline.Options) {
	cmd.Flags().StringVar(&opts.Focus, "focus", "", "directory shown first, as a slash-separated path (e.g. src/pkg)")
	cmd.Flags().Int64Var(&opts.Seed, "seed", pipeline.DefaultSeed, "seed for language colors")
	cmd.Flags().StringToStringVar(&opts.Colors, "color", nil, "fixed language colors (e.g. --color Go=#00add8)")
	cmd.Flags().StringVar(&opts.Separator, "separator", "", `breadcrumb separator (default "\")`)
	cmd.Flags().BoolVar(&opts.Bars, "bars", false, "draw blank/comment/code bars in each rectangle")
	cmd.Flags().BoolVar(&opts.Panels, "panels", false, "show detail panels on hover")
	cmd.Flags().BoolVar(&opts.Static, "static", false, "omit the zoom script")
	cmd.Flags().DurationVar(&opts.Duration, "duration", pipeline.DefaultDuration, "zoom animation length")
	cmd.Flags().BoolVar(&opts.Legend, "legend", false, "add a language legend (html)")
	cmd.Flags().StringVar(&opts.Title, "title", "", "page title (html)")
	cmd.Flags().Float64Var(&opts.Scale, "scale", pipeline.DefaultScale, "resolution multiplier (png)")
	cmd.Flags().IntVar(&opts.NodelinkDepth, "depth", 0, "maximum depth of node-link diagrams (0 = unlimited)")
}

// runRender executes the pipeline and writes each artifact.
func (c *CLI) runRender(ctx context.Context, opts pipeline.Options, flags renderFlags) error {
	runner, err := c.newRunner(flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = loggerFromContext(ctx)
	if opts.Source == source.Stdin {
		opts.Stdin = os.Stdin
	}

	spinner := newSpinnerWithContext(ctx, "Rendering treemap...")
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	took := spinner.Elapsed()
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	paths, err := writeArtifacts(result.Artifacts, opts.Formats, flags.output, opts.Source, os.Stdout)
	if err != nil || flags.output == "-" {
		return err
	}

	printSuccess("Rendered %d output(s) in %s", len(result.Artifacts), took.Round(time.Millisecond))
	for _, p := range paths {
		printFile(p)
	}
	printStats(result.Stats.Files, result.Stats.Dirs, result.Stats.Code, result.CacheInfo.RenderHit)
	printNewline()
	printNextStep("Browse in the terminal", strings.TrimSpace(appName+" browse "+opts.Source))
	return nil
}

// writeArtifacts writes one file per format. A single format written to
// "-" goes to stdout; a single format with an explicit output uses that
// path unchanged.
func writeArtifacts(artifacts map[string][]byte, formats []string, output, src string, stdout io.Writer) ([]string, error) {
	if output == "-" {
		if len(formats) != 1 {
			return nil, fmt.Errorf("output to stdout needs exactly one format, got %d", len(formats))
		}
		_, err := stdout.Write(artifacts[formats[0]])
		return nil, err
	}

	base := basePath(output, src)
	var paths []string
	for _, f := range formats {
		path := base + "." + pipeline.Extension(f)
		if len(formats) == 1 && output != "" {
			path = output
		}
		if err := os.WriteFile(path, artifacts[f], 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
