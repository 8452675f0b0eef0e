package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/slocmap/pkg/pipeline"
	"github.com/matzehuels/slocmap/pkg/source"
)

// layoutCommand creates the layout command for exporting computed layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	var flags renderFlags
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "layout [source]",
		Short: "Compute the treemap layout and export it as JSON",
		Long: `Compute the treemap layout of a source tree and export it as JSON.

Every cell is listed with its path, rectangle, value, line counts and fill
color, in the frame's coordinates. With --focus, rectangles are projected
relative to that directory, the way the zoomed view shows them.

Results are cached locally for faster subsequent runs.`,
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
			opts.Formats = []string{pipeline.FormatJSON}
			opts.AllCells = true
			return c.runLayout(cmd.Context(), opts, flags)
		},
	}

	flags.register(cmd)
	addLoadFlags(cmd, &opts)
	addLayoutFlags(cmd, &opts)
	cmd.Flags().StringVar(&opts.Focus, "focus", "", "project rectangles relative to this directory")
	cmd.Flags().Int64Var(&opts.Seed, "seed", pipeline.DefaultSeed, "seed for language colors")
	cmd.Flags().StringToStringVar(&opts.Colors, "color", nil, "fixed language colors (e.g. --color Go=#00add8)")

	return cmd
}

// runLayout computes the layout and writes the JSON export.
func (c *CLI) runLayout(ctx context.Context, opts pipeline.Options, flags renderFlags) error {
	runner, err := c.newRunner(flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = loggerFromContext(ctx)
	if opts.Source == source.Stdin {
		opts.Stdin = os.Stdin
	}

	spinner := newSpinnerWithContext(ctx, "Computing layout...")
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	data := result.Artifacts[pipeline.FormatJSON]
	if flags.output == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}

	outputPath := flags.output
	if outputPath == "" {
		outputPath = layoutPath(opts.Source)
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(result.Stats.Files, result.Stats.Dirs, result.Stats.Code, result.CacheInfo.LayoutHit)
	printNewline()
	printNextStep("Render", strings.TrimSpace(appName+" render "+opts.Source))

	return nil
}

// layoutPath is the default output: <source>.layout.json next to a local
// source, layout.json otherwise.
func layoutPath(src string) string {
	if src == "" || src == source.Stdin || strings.Contains(src, "://") {
		return "layout.json"
	}
	return strings.TrimSuffix(src, filepath.Ext(src)) + ".layout.json"
}
