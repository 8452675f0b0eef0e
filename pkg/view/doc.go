// Package view holds the zoom state of a treemap display.
//
// A [State] tracks which cell of a laid-out hierarchy is currently displayed
// and whether a zoom animation is running. Zooming is split in two steps so
// that any front end (the terminal browser, a server-side frame renderer)
// can drive the animation on its own clock:
//
//	t, err := st.ZoomIn(cell)
//	if err != nil {
//		return // already animating, or nothing to zoom into
//	}
//	for !t.Done(elapsed) {
//		draw(t.Outgoing(t.Progress(elapsed)), t.Incoming(t.Progress(elapsed)))
//	}
//	st.Complete(t)
//
// While a transition is active, further zoom requests fail with
// [ErrTransitioning]. Both the outgoing and incoming layers are available
// for the whole animation window.
package view
