// Package tree defines the source tree that slocmap visualizes.
//
// A tree is a recursive [Node]: directories carry children, files (leaves)
// carry line statistics and a language tag. Directory counts in the input are
// informational; the value used for area proportioning is always recomputed
// from the leaves with [Node.Value].
//
// Trees are read from JSON or YAML ([ReadJSON], [ReadYAML], [ReadFile]) or
// built from gocloc reports ([FromGocloc]).
package tree

import (
	"fmt"
	"strings"

	"github.com/matzehuels/slocmap/pkg/errors"
)

// PathSeparator separates segments of a focus path ("src/pkg/render").
const PathSeparator = "/"

// MaxDepth bounds the nesting accepted by [Node.Validate].
const MaxDepth = 512

// Node is a directory or a source file.
type Node struct {
	Name     string  `json:"name" yaml:"name" bson:"name"`
	Code     int     `json:"code" yaml:"code" bson:"code"`
	Blank    int     `json:"blank" yaml:"blank" bson:"blank"`
	Comment  int     `json:"comment" yaml:"comment" bson:"comment"`
	Language string  `json:"language,omitempty" yaml:"language,omitempty" bson:"language,omitempty"`
	Children []*Node `json:"children,omitempty" yaml:"children,omitempty" bson:"children,omitempty"`
}

// Counts holds line statistics summed over the leaves of a subtree.
type Counts struct {
	Code    int `json:"code"`
	Blank   int `json:"blank"`
	Comment int `json:"comment"`
}

// Lines returns the total number of lines.
func (c Counts) Lines() int { return c.Code + c.Blank + c.Comment }

// Fractions returns the blank, comment and code shares of all lines.
// All three are zero when the subtree has no lines.
func (c Counts) Fractions() (blank, comment, code float64) {
	total := float64(c.Lines())
	if total == 0 {
		return 0, 0, 0
	}
	return float64(c.Blank) / total, float64(c.Comment) / total, float64(c.Code) / total
}

func (c Counts) add(o Counts) Counts {
	return Counts{Code: c.Code + o.Code, Blank: c.Blank + o.Blank, Comment: c.Comment + o.Comment}
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }

// Value returns the sum of the code counts of all leaves below n.
// For a leaf it is the leaf's own code count.
func (n *Node) Value() int {
	if n.IsLeaf() {
		return n.Code
	}
	sum := 0
	for _, c := range n.Children {
		sum += c.Value()
	}
	return sum
}

// Totals sums code, blank and comment counts over the leaves below n.
func (n *Node) Totals() Counts {
	if n.IsLeaf() {
		return Counts{Code: n.Code, Blank: n.Blank, Comment: n.Comment}
	}
	var total Counts
	for _, c := range n.Children {
		total = total.add(c.Totals())
	}
	return total
}

// Height returns the length of the longest downward path to a leaf.
// Leaves have height 0.
func (n *Node) Height() int {
	h := 0
	for _, c := range n.Children {
		h = max(h, c.Height()+1)
	}
	return h
}

// Stats counts files (leaves) and directories (internal nodes, root included).
func (n *Node) Stats() (files, dirs int) {
	_ = n.Walk(func(m *Node, _ []string) error {
		if m.IsLeaf() {
			files++
		} else {
			dirs++
		}
		return nil
	})
	return files, dirs
}

// Walk visits n and its descendants depth-first in child order.
// path holds the names from n's first child level down to the visited node;
// it is empty for n itself and must not be retained by fn.
// Walk stops at the first error returned by fn.
func (n *Node) Walk(fn func(node *Node, path []string) error) error {
	return n.walk(nil, fn)
}

func (n *Node) walk(path []string, fn func(*Node, []string) error) error {
	if err := fn(n, path); err != nil {
		return err
	}
	for _, c := range n.Children {
		if err := c.walk(append(path, c.Name), fn); err != nil {
			return err
		}
	}
	return nil
}

// Find resolves a focus path relative to n. The empty path resolves to n.
// Segments are separated by [PathSeparator]; a leading or trailing separator
// is ignored. When siblings share a name the first one wins.
func (n *Node) Find(path string) (*Node, bool) {
	cur := n
	for _, seg := range SplitPath(path) {
		next := cur.child(seg)
		if next == nil {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func (n *Node) child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// SplitPath splits a focus path into its non-empty segments.
func SplitPath(path string) []string {
	var segs []string
	for _, s := range strings.Split(path, PathSeparator) {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	out := *n
	if n.Children != nil {
		out.Children = make([]*Node, len(n.Children))
		for i, c := range n.Children {
			out.Children[i] = c.Clone()
		}
	}
	return &out
}

// Validate checks that the tree is well-formed: counts are non-negative,
// every node below the root is named, no node is referenced twice and the
// nesting stays within [MaxDepth].
func (n *Node) Validate() error {
	seen := make(map[*Node]bool)
	return n.validate(seen, 0, "")
}

func (n *Node) validate(seen map[*Node]bool, depth int, path string) error {
	if depth > MaxDepth {
		return errors.New(errors.ErrCodeInvalidTree, "tree deeper than %d levels at %q", MaxDepth, path)
	}
	if seen[n] {
		return errors.New(errors.ErrCodeInvalidTree, "node %q appears more than once", path)
	}
	seen[n] = true
	if depth > 0 && n.Name == "" {
		return errors.New(errors.ErrCodeInvalidTree, "unnamed node below %q", path)
	}
	if n.Code < 0 || n.Blank < 0 || n.Comment < 0 {
		return errors.New(errors.ErrCodeInvalidTree, "node %q has negative counts", path)
	}
	for i, c := range n.Children {
		if c == nil {
			return errors.New(errors.ErrCodeInvalidTree, "node %q has nil child at index %d", path, i)
		}
		if err := c.validate(seen, depth+1, joinPath(path, c.Name)); err != nil {
			return err
		}
	}
	return nil
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + PathSeparator + name
}

// String returns a one-line summary used in logs.
func (n *Node) String() string {
	files, dirs := n.Stats()
	return fmt.Sprintf("%s (%d files, %d dirs, %d code lines)", n.Name, files, dirs, n.Value())
}
