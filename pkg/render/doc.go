// Package render groups the renderers for treemap layouts.
//
// # Overview
//
// Rendering is split by concern:
//
//   - [palette]: language colors shared by every output
//   - [sink]: treemap outputs (interactive SVG, HTML, PNG, JSON)
//   - [nodelink]: directory structure as a Graphviz diagram
//
// # Treemaps
//
// The [sink] renderers take a laid-out [treemap.Cell] hierarchy. The SVG
// carries every directory level and a small script that animates zooms, so
// the file works on its own in a browser.
//
//	l := treemap.Layout(root, 960, 500)
//	pal := palette.New(42)
//	svg := sink.RenderSVG(l, sink.WithPalette(pal), sink.WithInteraction())
//	png, err := sink.RenderPNG(l, sink.WithScale(2))
//
// # Node-Link Diagrams
//
//	dot := nodelink.ToDOT(root, nodelink.Options{MaxDepth: 3})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// [palette]: github.com/matzehuels/slocmap/pkg/render/palette
// [sink]: github.com/matzehuels/slocmap/pkg/render/sink
// [nodelink]: github.com/matzehuels/slocmap/pkg/render/nodelink
// [treemap.Cell]: github.com/matzehuels/slocmap/pkg/treemap#Cell
package render
