package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/slocmap/pkg/render/palette"
	"github.com/matzehuels/slocmap/pkg/tree"
)

// rootID names the root node in DOT output; other nodes use their path.
const rootID = "."

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds code/blank/comment totals to node labels.
	// When false, only the name is shown.
	Detailed bool
	// MaxDepth limits how many levels below the root are drawn.
	// Zero draws the whole tree.
	MaxDepth int
	// Palette colors file nodes by language. Nil leaves them white.
	Palette *palette.Palette
}

// ToDOT converts a source tree to Graphviz DOT format. Directories are drawn
// as folders, files as boxes; edges point from a directory to its entries.
func ToDOT(root *tree.Node, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.2;\n")
	buf.WriteString("\n")

	var edges []string
	_ = root.Walk(func(n *tree.Node, path []string) error {
		if opts.MaxDepth > 0 && len(path) > opts.MaxDepth {
			return nil
		}
		id := nodeID(path)
		fmt.Fprintf(&buf, "  %q [%s];\n", id, strings.Join(fmtAttrs(n, opts), ", "))
		if len(path) > 0 {
			edges = append(edges, fmt.Sprintf("  %q -> %q;\n", nodeID(path[:len(path)-1]), id))
		}
		return nil
	})

	buf.WriteString("\n")
	for _, e := range edges {
		buf.WriteString(e)
	}
	buf.WriteString("}\n")
	return buf.String()
}

func nodeID(path []string) string {
	if len(path) == 0 {
		return rootID
	}
	return strings.Join(path, tree.PathSeparator)
}

func fmtLabel(n *tree.Node, detailed bool) string {
	if !detailed {
		return n.Name
	}
	t := n.Totals()
	return fmt.Sprintf("%s\ncode: %s\nblank: %s\ncomment: %s", n.Name,
		humanize.Comma(int64(t.Code)), humanize.Comma(int64(t.Blank)), humanize.Comma(int64(t.Comment)))
}

func fmtAttrs(n *tree.Node, opts Options) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(n, opts.Detailed))}
	if !n.IsLeaf() {
		return append(attrs, "shape=folder", "style=filled", fmt.Sprintf("fillcolor=%q", palette.Neutral))
	}
	if opts.Palette != nil && n.Language != "" {
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", opts.Palette.Color(n.Language)))
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	out, err := render(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG renders a DOT graph to PNG using Graphviz's built-in rasterizer.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return render(ctx, dot, graphviz.PNG)
}

func render(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
