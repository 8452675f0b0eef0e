package pipeline

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	slerrors "github.com/matzehuels/slocmap/pkg/errors"
	"github.com/matzehuels/slocmap/pkg/render/nodelink"
	"github.com/matzehuels/slocmap/pkg/render/palette"
	"github.com/matzehuels/slocmap/pkg/render/sink"
	"github.com/matzehuels/slocmap/pkg/treemap"
)

// NewPalette returns the palette described by opts, with colors already
// assigned to every language in root so that all formats agree.
func NewPalette(root *treemap.Cell, opts Options) *palette.Palette {
	pal := palette.New(opts.Seed)
	for lang, hex := range opts.Colors {
		pal.Set(lang, hex)
	}
	pal.Assign(root)
	return pal
}

// Render generates the requested formats in parallel.
func Render(ctx context.Context, root *treemap.Cell, opts Options) (map[string][]byte, error) {
	focus, ok := ResolveFocus(root, opts.Focus)
	if !ok {
		return nil, slerrors.New(slerrors.ErrCodeInvalidFocus, "focus %q not found", opts.Focus)
	}
	pal := NewPalette(root, opts)
	svgOpts := buildSVGOptions(focus, pal, opts)

	var (
		mu        sync.Mutex
		artifacts = make(map[string][]byte, len(opts.Formats))
	)
	g, ctx := errgroup.WithContext(ctx)
	for _, format := range opts.Formats {
		g.Go(func() error {
			data, err := renderFormat(ctx, format, root, focus, pal, svgOpts, opts)
			if err != nil {
				return fmt.Errorf("render %s: %w", format, err)
			}
			mu.Lock()
			artifacts[format] = data
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return artifacts, nil
}

func renderFormat(ctx context.Context, format string, root, focus *treemap.Cell, pal *palette.Palette, svgOpts []sink.SVGOption, opts Options) ([]byte, error) {
	switch format {
	case FormatSVG:
		return sink.RenderSVG(root, svgOpts...), nil
	case FormatHTML:
		htmlOpts := []sink.HTMLOption{sink.WithHTMLSVGOptions(svgOpts...)}
		if opts.Title != "" {
			htmlOpts = append(htmlOpts, sink.WithTitle(opts.Title))
		}
		if opts.Legend {
			htmlOpts = append(htmlOpts, sink.WithLegend())
		}
		return sink.RenderHTML(root, htmlOpts...)
	case FormatPNG:
		return sink.RenderPNG(root, sink.WithPNGSVGOptions(svgOpts...), sink.WithScale(opts.Scale))
	case FormatJSON:
		jsonOpts := []sink.JSONOption{sink.WithJSONSVGOptions(svgOpts...), sink.WithJSONIndent()}
		if opts.AllCells {
			jsonOpts = append(jsonOpts, sink.WithJSONAllCells())
		}
		return sink.RenderJSON(root, jsonOpts...)
	case FormatDOT:
		return []byte(nodelink.ToDOT(focus.Node, nodelinkOptions(pal, opts))), nil
	case FormatNodelink:
		return nodelink.RenderSVG(ctx, nodelink.ToDOT(focus.Node, nodelinkOptions(pal, opts)))
	default:
		return nil, slerrors.New(slerrors.ErrCodeUnsupported, "unsupported format: %s", format)
	}
}

func nodelinkOptions(pal *palette.Palette, opts Options) nodelink.Options {
	return nodelink.Options{Detailed: true, MaxDepth: opts.NodelinkDepth, Palette: pal}
}

// buildSVGOptions builds SVG rendering options shared by all treemap formats.
func buildSVGOptions(focus *treemap.Cell, pal *palette.Palette, opts Options) []sink.SVGOption {
	svgOpts := []sink.SVGOption{
		sink.WithFocus(focus),
		sink.WithPalette(pal),
		sink.WithSeparator(opts.Separator),
		sink.WithDuration(opts.Duration),
	}
	if opts.Margins != nil {
		svgOpts = append(svgOpts, sink.WithMargins(*opts.Margins))
	}
	if opts.Bars {
		svgOpts = append(svgOpts, sink.WithStackedBars())
	}
	if opts.Panels {
		svgOpts = append(svgOpts, sink.WithPanels())
	}
	if !opts.Static {
		svgOpts = append(svgOpts, sink.WithInteraction())
	}
	return svgOpts
}
