// Package nodelink renders source trees as node-link diagrams.
//
// Where the treemap shows one directory level at a time, the node-link view
// shows the directory structure itself: folders and files as boxes connected
// by edges from parent to child, laid out left to right by Graphviz.
//
//	dot := nodelink.ToDOT(root, nodelink.Options{MaxDepth: 3})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// [ToDOT] output can also be saved and processed with external Graphviz
// tools. Rendering happens in-process via [github.com/goccy/go-graphviz].
package nodelink
