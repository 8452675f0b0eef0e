package treemap

import (
	"encoding/json"
	"fmt"
)

// MarshalRects encodes the rectangles of root and its descendants in
// pre-order. Together with the tree they were computed from, they restore
// the layout through [ApplyRects] without tiling again.
func MarshalRects(root *Cell) ([]byte, error) {
	var rects [][4]float64
	root.Each(func(c *Cell) {
		rects = append(rects, [4]float64{c.X0, c.Y0, c.X1, c.Y1})
	})
	return json.Marshal(rects)
}

// ApplyRects assigns rectangles encoded by [MarshalRects] to root's cells.
// It fails when the number of rectangles does not match the hierarchy.
func ApplyRects(root *Cell, data []byte) error {
	var rects [][4]float64
	if err := json.Unmarshal(data, &rects); err != nil {
		return fmt.Errorf("decode rects: %w", err)
	}
	n := 0
	root.Each(func(*Cell) { n++ })
	if n != len(rects) {
		return fmt.Errorf("decode rects: have %d, hierarchy has %d cells", len(rects), n)
	}
	i := 0
	root.Each(func(c *Cell) {
		r := rects[i]
		c.Rect = Rect{X0: r[0], Y0: r[1], X1: r[2], Y1: r[3]}
		i++
	})
	return nil
}
