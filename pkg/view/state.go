package view

import (
	"errors"
	"time"

	"github.com/matzehuels/slocmap/pkg/treemap"
)

// DefaultDuration is the length of a zoom animation.
const DefaultDuration = 650 * time.Millisecond

var (
	// ErrTransitioning is returned when a zoom is requested while another
	// one is still animating.
	ErrTransitioning = errors.New("view: transition in progress")
	// ErrNoTarget is returned when there is nothing to zoom to, such as
	// zooming out from the root.
	ErrNoTarget = errors.New("view: no zoom target")
	// ErrLeaf is returned when zooming into a cell without children.
	ErrLeaf = errors.New("view: cannot zoom into a leaf")
	// ErrStale is returned by Complete for a transition that is not active.
	ErrStale = errors.New("view: transition is not active")
)

// State is the zoom state of one display. It is not safe for concurrent use.
type State struct {
	root     *treemap.Cell
	current  *treemap.Cell
	viewport treemap.Viewport
	duration time.Duration

	transitioning bool
	active        *Transition
}

// Option configures a [State].
type Option func(*State)

// WithDuration overrides [DefaultDuration]. Non-positive values make
// transitions complete immediately.
func WithDuration(d time.Duration) Option {
	return func(s *State) { s.duration = max(d, 0) }
}

// New returns a state displaying root. The frame size is taken from the
// root's rectangle.
func New(root *treemap.Cell, opts ...Option) *State {
	s := &State{
		root:     root,
		current:  root,
		viewport: treemap.NewViewport(root.Rect, root.Width(), root.Height()),
		duration: DefaultDuration,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the hierarchy root.
func (s *State) Root() *treemap.Cell { return s.root }

// Current returns the displayed cell. During a transition this is still the
// cell being zoomed away from.
func (s *State) Current() *treemap.Cell { return s.current }

// Viewport returns the projection for the displayed cell.
func (s *State) Viewport() treemap.Viewport { return s.viewport }

// Transitioning reports whether a zoom animation is running.
func (s *State) Transitioning() bool { return s.transitioning }

// Active returns the running transition, or nil.
func (s *State) Active() *Transition { return s.active }

// ZoomIn starts a transition into target, which must have children.
func (s *State) ZoomIn(target *treemap.Cell) (*Transition, error) {
	if target != nil && target.IsLeaf() {
		return nil, ErrLeaf
	}
	return s.Begin(target)
}

// ZoomOut starts a transition to the parent of the displayed cell.
func (s *State) ZoomOut() (*Transition, error) {
	return s.Begin(s.current.Parent)
}

// Begin starts a transition to target. It fails with [ErrTransitioning]
// while another transition runs and with [ErrNoTarget] when target is nil or
// belongs to another hierarchy. On success the guard stays set until
// [State.Complete] is called with the returned transition.
func (s *State) Begin(target *treemap.Cell) (*Transition, error) {
	if s.transitioning {
		return nil, ErrTransitioning
	}
	if target == nil || target.Root() != s.root {
		return nil, ErrNoTarget
	}
	s.transitioning = true
	s.active = &Transition{
		From:     s.current,
		To:       target,
		Duration: s.duration,
		from:     s.viewport,
		to:       s.viewport.Focus(target),
	}
	return s.active, nil
}

// Complete finishes t: the incoming layer becomes the display, the outgoing
// layer is dropped and the guard is cleared.
func (s *State) Complete(t *Transition) error {
	if t == nil || t != s.active {
		return ErrStale
	}
	s.current = t.To
	s.viewport = t.to
	s.active = nil
	s.transitioning = false
	return nil
}

// Jump displays target without animating. It fails while a transition is
// running.
func (s *State) Jump(target *treemap.Cell) error {
	if s.transitioning {
		return ErrTransitioning
	}
	if target == nil || target.Root() != s.root {
		return ErrNoTarget
	}
	s.current = target
	s.viewport = s.viewport.Focus(target)
	return nil
}

// Layer returns the frames of the displayed cell at rest.
func (s *State) Layer() []Frame {
	return project(s.current, s.viewport, s.viewport, 1, 1, 1)
}
