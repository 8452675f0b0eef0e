// Package sink renders treemap layouts to output formats.
//
// [RenderSVG] produces a self-contained interactive SVG: every directory of
// the hierarchy is pre-rendered as one "depth" layer, only the focused layer
// is visible, and an embedded script animates zoom transitions between
// layers. [RenderHTML] wraps that SVG in a page. [RenderPNG] rasterizes the
// focused level, and [RenderJSON] exports the computed geometry.
//
// The markup uses a fixed set of CSS classes that stylesheets can target:
//
//	grandparent  header bar with breadcrumb; click to zoom out
//	depth        one displayed level
//	children     a child that has children of its own; click to zoom in
//	child        rectangles of the grandchildren (or the leaf itself)
//	parent       outline rectangle of a child, carries its title
//	foreignobj   foreignObject holding the label
//	textdiv      label contents
package sink
