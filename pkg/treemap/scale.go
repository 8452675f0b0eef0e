package treemap

// Scale is a linear mapping from a domain interval onto a range interval.
type Scale struct {
	D0, D1 float64
	R0, R1 float64
}

// NewScale returns the scale mapping [d0,d1] onto [r0,r1].
func NewScale(d0, d1, r0, r1 float64) Scale {
	return Scale{D0: d0, D1: d1, R0: r0, R1: r1}
}

// Apply maps v from the domain into the range. A degenerate domain maps
// everything to the middle of the range.
func (s Scale) Apply(v float64) float64 {
	if s.D1 == s.D0 {
		return (s.R0 + s.R1) / 2
	}
	return s.R0 + (v-s.D0)*(s.R1-s.R0)/(s.D1-s.D0)
}

// Invert maps v from the range back into the domain.
func (s Scale) Invert(v float64) float64 {
	if s.R1 == s.R0 {
		return (s.D0 + s.D1) / 2
	}
	return s.D0 + (v-s.R0)*(s.D1-s.D0)/(s.R1-s.R0)
}

// Viewport projects layout coordinates onto the display frame so that the
// focused rectangle fills it.
type Viewport struct {
	X, Y   Scale
	Width  float64
	Height float64
}

// NewViewport returns the viewport focusing on r within a width×height frame.
func NewViewport(r Rect, width, height float64) Viewport {
	return Viewport{
		X:      NewScale(r.X0, r.X1, 0, width),
		Y:      NewScale(r.Y0, r.Y1, 0, height),
		Width:  width,
		Height: height,
	}
}

// Focus returns the viewport that makes c fill the frame.
func (v Viewport) Focus(c *Cell) Viewport {
	return NewViewport(c.Rect, v.Width, v.Height)
}

// Project maps r into display coordinates.
func (v Viewport) Project(r Rect) Rect {
	return Rect{
		X0: v.X.Apply(r.X0),
		Y0: v.Y.Apply(r.Y0),
		X1: v.X.Apply(r.X1),
		Y1: v.Y.Apply(r.Y1),
	}
}

// Visible reports whether r, once projected, intersects the frame.
func (v Viewport) Visible(r Rect) bool {
	frame := Rect{X1: v.Width, Y1: v.Height}
	return frame.Overlap(v.Project(r)) > Epsilon
}
