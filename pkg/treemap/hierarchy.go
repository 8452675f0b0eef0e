// Package treemap computes squarified treemap layouts for source trees.
//
// A layout is a hierarchy of [Cell] values mirroring a [tree.Node] tree. Each
// cell carries the aggregate value of its subtree (the sum of leaf code
// counts) and a [Rect] whose area is proportional to that value. Sibling
// rectangles partition their parent's rectangle.
//
// Zooming does not recompute the tiling: a [Viewport] maps the focused cell's
// rectangle onto the frame, and every other cell is projected through it.
package treemap

import (
	"cmp"
	"slices"
	"strings"

	"github.com/matzehuels/slocmap/pkg/tree"
)

// Cell is one node of a laid-out hierarchy.
type Cell struct {
	Rect

	Node     *tree.Node
	Parent   *Cell
	Children []*Cell

	// Depth is the distance from the root (root = 0).
	Depth int
	// Levels is the distance to the deepest leaf below (leaves = 0). The
	// pixel height of the cell is Rect.Height.
	Levels int
	// Value is the sum of code counts of the leaves below.
	Value float64
}

// NewHierarchy wraps root in cells, computes values and heights, and sorts
// every child list: larger height first, then larger value, then name.
func NewHierarchy(root *tree.Node) *Cell {
	return newCell(root, nil, 0)
}

func newCell(n *tree.Node, parent *Cell, depth int) *Cell {
	c := &Cell{Node: n, Parent: parent, Depth: depth}
	if n.IsLeaf() {
		c.Value = float64(n.Code)
		return c
	}
	c.Children = make([]*Cell, 0, len(n.Children))
	for _, child := range n.Children {
		cc := newCell(child, c, depth+1)
		c.Value += cc.Value
		c.Levels = max(c.Levels, cc.Levels+1)
		c.Children = append(c.Children, cc)
	}
	slices.SortStableFunc(c.Children, compareCells)
	return c
}

func compareCells(a, b *Cell) int {
	if d := cmp.Compare(b.Levels, a.Levels); d != 0 {
		return d
	}
	if d := cmp.Compare(b.Value, a.Value); d != 0 {
		return d
	}
	return strings.Compare(a.Node.Name, b.Node.Name)
}

// Name returns the name of the underlying node.
func (c *Cell) Name() string { return c.Node.Name }

// IsLeaf reports whether c has no children.
func (c *Cell) IsLeaf() bool { return len(c.Children) == 0 }

// Ancestors returns c, its parent, and so on up to the root.
func (c *Cell) Ancestors() []*Cell {
	var out []*Cell
	for a := c; a != nil; a = a.Parent {
		out = append(out, a)
	}
	return out
}

// Segments returns the names from below the root down to c.
// The root has no segments.
func (c *Cell) Segments() []string {
	anc := c.Ancestors()
	segs := make([]string, 0, len(anc)-1)
	for i := len(anc) - 2; i >= 0; i-- {
		segs = append(segs, anc[i].Name())
	}
	return segs
}

// Path returns the focus path of c ("pkg/tree"); the root's path is empty.
func (c *Cell) Path() string {
	return strings.Join(c.Segments(), tree.PathSeparator)
}

// Root returns the topmost ancestor of c.
func (c *Cell) Root() *Cell {
	r := c
	for r.Parent != nil {
		r = r.Parent
	}
	return r
}

// Find resolves a focus path relative to c.
func (c *Cell) Find(path string) (*Cell, bool) {
	cur := c
	for _, seg := range tree.SplitPath(path) {
		var next *Cell
		for _, ch := range cur.Children {
			if ch.Name() == seg {
				next = ch
				break
			}
		}
		if next == nil {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Each visits c and its descendants in pre-order.
func (c *Cell) Each(fn func(*Cell)) {
	fn(c)
	for _, ch := range c.Children {
		ch.Each(fn)
	}
}

// Leaves returns the leaf cells below c in pre-order.
func (c *Cell) Leaves() []*Cell {
	var out []*Cell
	c.Each(func(x *Cell) {
		if x.IsLeaf() {
			out = append(out, x)
		}
	})
	return out
}

// Directories returns c and every non-leaf descendant in pre-order.
func (c *Cell) Directories() []*Cell {
	var out []*Cell
	c.Each(func(x *Cell) {
		if !x.IsLeaf() {
			out = append(out, x)
		}
	})
	return out
}
