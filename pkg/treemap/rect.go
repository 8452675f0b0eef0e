package treemap

import "math"

// Epsilon is the tolerance used when comparing layout coordinates.
const Epsilon = 1e-6

// Rect is an axis-aligned rectangle in screen space. Y grows downwards.
type Rect struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Width returns the horizontal span of the rectangle.
func (r Rect) Width() float64 { return r.X1 - r.X0 }

// Height returns the vertical span of the rectangle.
func (r Rect) Height() float64 { return r.Y1 - r.Y0 }

// Area returns Width × Height.
func (r Rect) Area() float64 { return r.Width() * r.Height() }

// CenterX returns the horizontal center point of the rectangle.
func (r Rect) CenterX() float64 { return (r.X0 + r.X1) / 2 }

// CenterY returns the vertical center point of the rectangle.
func (r Rect) CenterY() float64 { return (r.Y0 + r.Y1) / 2 }

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool { return r.Width() <= Epsilon || r.Height() <= Epsilon }

// Contains reports whether o lies inside r, within [Epsilon].
func (r Rect) Contains(o Rect) bool {
	return o.X0 >= r.X0-Epsilon && o.Y0 >= r.Y0-Epsilon &&
		o.X1 <= r.X1+Epsilon && o.Y1 <= r.Y1+Epsilon
}

// Overlap returns the area shared by r and o.
func (r Rect) Overlap(o Rect) float64 {
	w := math.Min(r.X1, o.X1) - math.Max(r.X0, o.X0)
	h := math.Min(r.Y1, o.Y1) - math.Max(r.Y0, o.Y0)
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// Lerp interpolates linearly between r (t=0) and o (t=1).
func (r Rect) Lerp(o Rect, t float64) Rect {
	return Rect{
		X0: r.X0 + (o.X0-r.X0)*t,
		Y0: r.Y0 + (o.Y0-r.Y0)*t,
		X1: r.X1 + (o.X1-r.X1)*t,
		Y1: r.Y1 + (o.Y1-r.Y1)*t,
	}
}

func (r Rect) round() Rect {
	return Rect{X0: math.Round(r.X0), Y0: math.Round(r.Y0), X1: math.Round(r.X1), Y1: math.Round(r.Y1)}
}
