package pipeline

import (
	"github.com/matzehuels/slocmap/pkg/tree"
	"github.com/matzehuels/slocmap/pkg/treemap"
)

// ComputeLayout tiles root into a width × height frame.
func ComputeLayout(root *tree.Node, opts Options) *treemap.Cell {
	return treemap.Layout(root, opts.Width, opts.Height, layoutOptions(opts)...)
}

func layoutOptions(opts Options) []treemap.Option {
	lo := []treemap.Option{treemap.WithRatio(opts.Ratio)}
	if opts.PaddingInner > 0 {
		lo = append(lo, treemap.WithPaddingInner(opts.PaddingInner))
	}
	if opts.Round {
		lo = append(lo, treemap.WithRound(true))
	}
	return lo
}

// ResolveFocus returns the directory cell named by opts.Focus. A focus on a
// file resolves to its directory.
func ResolveFocus(root *treemap.Cell, focus string) (*treemap.Cell, bool) {
	c, ok := root.Find(focus)
	if !ok {
		return nil, false
	}
	if c.IsLeaf() && c.Parent != nil {
		c = c.Parent
	}
	return c, true
}
