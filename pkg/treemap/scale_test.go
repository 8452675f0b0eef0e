package treemap

import (
	"math"
	"testing"
)

func TestScale(t *testing.T) {
	tests := []struct {
		name  string
		scale Scale
		in    float64
		want  float64
	}{
		{"identity", NewScale(0, 100, 0, 100), 42, 42},
		{"zoom", NewScale(50, 100, 0, 400), 75, 200},
		{"outside domain", NewScale(50, 100, 0, 400), 0, -400},
		{"degenerate domain", NewScale(5, 5, 0, 10), 99, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.scale.Apply(tt.in); math.Abs(got-tt.want) > Epsilon {
				t.Errorf("Apply(%v) = %v, want %v", tt.in, got, tt.want)
			}
			if tt.scale.D0 != tt.scale.D1 {
				if back := tt.scale.Invert(tt.scale.Apply(tt.in)); math.Abs(back-tt.in) > Epsilon {
					t.Errorf("Invert(Apply(%v)) = %v", tt.in, back)
				}
			}
		})
	}
}

func TestViewportFocus(t *testing.T) {
	root := Layout(dir("/", leaf("a", 1), leaf("b", 3)), 400, 300)
	a, _ := root.Find("a")

	vp := NewViewport(root.Rect, 400, 300).Focus(a)
	got := vp.Project(a.Rect)
	want := Rect{X1: 400, Y1: 300}
	if math.Abs(got.X0-want.X0) > Epsilon || math.Abs(got.X1-want.X1) > Epsilon ||
		math.Abs(got.Y0-want.Y0) > Epsilon || math.Abs(got.Y1-want.Y1) > Epsilon {
		t.Errorf("Project(focus) = %+v, want %+v", got, want)
	}

	b, _ := root.Find("b")
	if vp.Visible(b.Rect) {
		t.Error("sibling should be pushed out of the frame")
	}
	if !vp.Visible(a.Rect) {
		t.Error("focus should be visible")
	}
}
