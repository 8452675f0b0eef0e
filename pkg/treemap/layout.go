package treemap

import "github.com/matzehuels/slocmap/pkg/tree"

// Options configures [Layout].
type Options struct {
	// PaddingInner is the gap between sibling cells.
	PaddingInner float64
	// Round snaps every coordinate to whole pixels.
	Round bool
	// Ratio is the target aspect ratio for squarified rows.
	Ratio float64
}

// Option mutates [Options].
type Option func(*Options)

// WithPaddingInner sets the gap between siblings. Defaults to 0.
func WithPaddingInner(p float64) Option {
	return func(o *Options) { o.PaddingInner = max(p, 0) }
}

// WithRound enables pixel rounding. Disabled by default.
func WithRound(round bool) Option {
	return func(o *Options) { o.Round = round }
}

// WithRatio sets the squarify target aspect ratio. Values below 1 are
// ignored and [Phi] is used.
func WithRatio(r float64) Option {
	return func(o *Options) {
		if r >= 1 {
			o.Ratio = r
		}
	}
}

// Layout builds the hierarchy for root and tiles it into a width×height frame.
func Layout(root *tree.Node, width, height float64, opts ...Option) *Cell {
	c := NewHierarchy(root)
	Tile(c, width, height, opts...)
	return c
}

// Tile assigns rectangles to root and all of its descendants.
func Tile(root *Cell, width, height float64, opts ...Option) {
	o := Options{Ratio: Phi}
	for _, opt := range opts {
		opt(&o)
	}
	root.Rect = Rect{X1: width, Y1: height}

	// padding[d] is half the inner padding applied to cells at depth d.
	padding := map[int]float64{0: 0}
	root.Each(func(c *Cell) {
		p := padding[c.Depth]
		c.X0, c.X1 = clampPair(c.X0+p, c.X1-p)
		c.Y0, c.Y1 = clampPair(c.Y0+p, c.Y1-p)
		if c.IsLeaf() {
			return
		}
		p = o.PaddingInner / 2
		padding[c.Depth+1] = p
		x0, x1 := clampPair(c.X0-p, c.X1+p)
		y0, y1 := clampPair(c.Y0-p, c.Y1+p)
		squarify(o.Ratio, c, x0, y0, x1, y1)
	})
	if o.Round {
		root.Each(func(c *Cell) { c.Rect = c.Rect.round() })
	}
}

// clampPair collapses an inverted interval to its midpoint.
func clampPair(a, b float64) (float64, float64) {
	if b < a {
		m := (a + b) / 2
		return m, m
	}
	return a, b
}
