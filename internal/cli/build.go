package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/slocmap/pkg/source"
	"github.com/matzehuels/slocmap/pkg/tree"
)

// buildCommand creates the build command, which turns a gocloc report into
// a source tree document.
func (c *CLI) buildCommand() *cobra.Command {
	var (
		output   string
		rootName string
		asYAML   bool
	)

	cmd := &cobra.Command{
		Use:   "build [gocloc.json]",
		Short: "Build a source tree from a gocloc report",
		Long: `Build a source tree document from the per-file output of gocloc.

File paths are split on "/" into directories. Directory counts are the sums
of their files. Reads stdin when no file (or "-") is given.`,
		Example: `  gocloc --by-file --output-type=json . > gocloc.json
  slocmap build gocloc.json -o tree.json
  gocloc --by-file --output-type=json . | slocmap build --root myrepo > tree.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := source.Stdin
			if len(args) > 0 {
				input = args[0]
			}
			return c.runBuild(cmd.Context(), input, output, rootName, asYAML, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&rootName, "root", tree.DefaultRootName, "name of the root directory")
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "write YAML instead of JSON")

	return cmd
}

// runBuild reads the gocloc report and writes the tree.
func (c *CLI) runBuild(ctx context.Context, input, output, rootName string, asYAML bool, stdin io.Reader, stdout io.Writer) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	r := stdin
	if input != source.Stdin {
		f, err := os.Open(input)
		if err != nil {
			return fmt.Errorf("open %s: %w", input, err)
		}
		defer f.Close()
		r = f
	}

	root, err := tree.FromGocloc(r, rootName)
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	files, dirs := root.Stats()
	logger.Debug("built tree", "files", files, "dirs", dirs, "code", root.Value())

	if asYAML || strings.HasSuffix(output, ".yaml") || strings.HasSuffix(output, ".yml") {
		asYAML = true
	}
	var buf bytes.Buffer
	if asYAML {
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(root); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		enc.Close()
	} else if err := tree.WriteJSON(&buf, root, true); err != nil {
		return err
	}

	if output == "" || output == "-" {
		_, err := stdout.Write(buf.Bytes())
		return err
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	prog.done("built tree", "files", files, "dirs", dirs)
	printSuccess("Tree written")
	printFile(output)
	printStats(files, dirs, root.Value(), false)
	printNewline()
	printNextStep("Render", appName+" render "+output)
	return nil
}
