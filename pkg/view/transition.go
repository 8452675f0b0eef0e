package view

import (
	"math"
	"time"

	"github.com/matzehuels/slocmap/pkg/treemap"
)

// Frame is one child rectangle of a displayed layer at a point in time.
type Frame struct {
	Cell *treemap.Cell
	Rect treemap.Rect
	// Opacity applies to the label; rectangles are always drawn.
	Opacity float64
}

// Transition animates a zoom from one displayed cell to another.
//
// Both layers are projected through the viewport interpolated between the
// old and new focus: the outgoing children grow (or shrink) away while the
// incoming children move into the frame and their labels fade in.
type Transition struct {
	From     *treemap.Cell
	To       *treemap.Cell
	Duration time.Duration

	from, to treemap.Viewport
}

// Progress maps elapsed time onto [0,1].
func (t *Transition) Progress(elapsed time.Duration) float64 {
	if t.Duration <= 0 {
		return 1
	}
	return math.Min(math.Max(float64(elapsed)/float64(t.Duration), 0), 1)
}

// Done reports whether the animation window has passed.
func (t *Transition) Done(elapsed time.Duration) bool {
	return t.Progress(elapsed) >= 1
}

// Outgoing returns the layer being zoomed away from at progress p.
func (t *Transition) Outgoing(p float64) []Frame {
	e := Ease(p)
	return project(t.From, t.from, t.to, e, 1, 0)
}

// Incoming returns the layer being zoomed into at progress p.
func (t *Transition) Incoming(p float64) []Frame {
	e := Ease(p)
	return project(t.To, t.from, t.to, e, 0, 1)
}

// ZoomingIn reports whether the target lies below the origin.
func (t *Transition) ZoomingIn() bool { return t.To.Depth > t.From.Depth }

func project(c *treemap.Cell, from, to treemap.Viewport, e, op0, op1 float64) []Frame {
	frames := make([]Frame, 0, len(c.Children))
	for _, ch := range c.Children {
		a, b := from.Project(ch.Rect), to.Project(ch.Rect)
		frames = append(frames, Frame{
			Cell:    ch,
			Rect:    a.Lerp(b, e),
			Opacity: op0 + (op1-op0)*e,
		})
	}
	return frames
}

// Ease is the cubic in-out easing curve.
func Ease(t float64) float64 {
	t = math.Min(math.Max(t, 0), 1) * 2
	if t <= 1 {
		return t * t * t / 2
	}
	t -= 2
	return (t*t*t + 2) / 2
}
