// Package pkg provides the core libraries for slocmap source-tree treemaps.
//
// # Overview
//
// slocmap turns line counts of a source tree into a zoomable treemap: every
// directory is a rectangle tiled by its children, sized by lines of code and
// colored by language. The pkg directory is organized into these areas:
//
//  1. [tree] - The source tree model and its JSON, YAML and gocloc codecs
//  2. [treemap] - Squarified layout, viewports and scales
//  3. [view] - Zoom navigation state and transitions
//  4. [render] - Output formats (SVG, HTML, PNG, JSON, DOT)
//  5. [pipeline] - Orchestration (load → layout → render)
//
// # Architecture
//
// The typical data flow:
//
//	gocloc report / tree.json
//	         ↓
//	    [source] package (load and cache the tree)
//	         ↓
//	    [treemap] package (tile rectangles)
//	         ↓
//	    [render/sink] package (SVG/HTML/PNG/JSON)
//
// # Quick Start
//
//	f, _ := os.Open("tree.json")
//	root, _ := tree.ReadJSON(f)
//
//	l := treemap.Layout(root, 960, 500)
//	svg := sink.RenderSVG(l, sink.WithInteraction())
//
// # Main Packages
//
// [tree] - Nodes with blank, comment and code counts. [tree.FromGocloc]
// builds a tree from a gocloc JSON report.
//
// [treemap] - [treemap.Layout] computes the squarified tiling once; zooming
// only changes the [treemap.Viewport] the cells are projected through.
//
// [view] - A [view.State] tracks the displayed directory and refuses a second
// zoom while one is animating. Breadcrumbs and labels live here as well.
//
// [render/palette] - Language colors, random but stable for a seed.
//
// [render/sink] - Self-contained interactive SVG, an HTML page around it,
// PNG rasters and JSON geometry.
//
// [render/nodelink] - The directory structure as a Graphviz diagram.
//
// ## Infrastructure
//
// [pipeline] - The load → layout → render pipeline shared by the CLI and
// the HTTP server, with layout and artifact caching.
//
// [source] - Resolves file, stdin and URL sources into trees.
//
// [cache] - File, in-memory LRU, Redis and tiered caches.
//
// [store] - Snapshot storage in memory, on disk or in MongoDB.
//
// [server] - HTTP routes serving treemaps and snapshots.
//
// [httputil], [errors], [observability], [buildinfo] - Shared plumbing.
//
// # Testing
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/treemap/...            # Specific package
//	go test -run Example                 # Examples only
//
// [tree]: https://pkg.go.dev/github.com/matzehuels/slocmap/pkg/tree
// [tree.FromGocloc]: https://pkg.go.dev/github.com/matzehuels/slocmap/pkg/tree#FromGocloc
// [treemap]: https://pkg.go.dev/github.com/matzehuels/slocmap/pkg/treemap
// [treemap.Layout]: https://pkg.go.dev/github.com/matzehuels/slocmap/pkg/treemap#Layout
// [treemap.Viewport]: https://pkg.go.dev/github.com/matzehuels/slocmap/pkg/treemap#Viewport
// [view]: https://pkg.go.dev/github.com/matzehuels/slocmap/pkg/view
// [view.State]: https://pkg.go.dev/github.com/matzehuels/slocmap/pkg/view#State
// [render]: https://pkg.go.dev/github.com/matzehuels/slocmap/pkg/render
// [render/palette]: https://pkg.go.dev/github.com/matzehuels/slocmap/pkg/render/palette
// [render/sink]: https://pkg.go.dev/github.com/matzehuels/slocmap/pkg/render/sink
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/slocmap/pkg/render/nodelink
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/slocmap/pkg/pipeline
// [source]: https://pkg.go.dev/github.com/matzehuels/slocmap/pkg/source
// [cache]: https://pkg.go.dev/github.com/matzehuels/slocmap/pkg/cache
// [store]: https://pkg.go.dev/github.com/matzehuels/slocmap/pkg/store
// [server]: https://pkg.go.dev/github.com/matzehuels/slocmap/pkg/server
// [httputil]: https://pkg.go.dev/github.com/matzehuels/slocmap/pkg/httputil
// [errors]: https://pkg.go.dev/github.com/matzehuels/slocmap/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/slocmap/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/slocmap/pkg/buildinfo
package pkg
