package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestSpinnerNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinnerTo(context.Background(), &buf, "Loading tree...")
	s.Start()
	s.Start()
	s.Stop()

	if got := strings.Count(buf.String(), "Loading tree..."); got != 1 {
		t.Errorf("message written %d times, want 1: %q", got, buf.String())
	}
	if strings.Contains(buf.String(), "\r") {
		t.Error("non-terminal output must not redraw lines")
	}
}

func TestSpinnerContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := newSpinnerTo(ctx, &bytes.Buffer{}, "Rendering treemap...")
	s.Start()
	cancel()

	if !s.Cancelled() {
		t.Error("spinner should be cancelled with its parent context")
	}
	s.Stop()
}

func TestSpinnerTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	s := newSpinnerTo(ctx, &bytes.Buffer{}, "Fetching source...")
	s.Start()

	select {
	case <-s.ctx.Done():
	case <-time.After(time.Second):
	}
	if !s.Cancelled() {
		t.Error("spinner should be cancelled after the timeout")
	}
}

func TestSpinnerStop(t *testing.T) {
	t.Run("before start", func(t *testing.T) {
		s := newSpinnerTo(context.Background(), &bytes.Buffer{}, "x")
		s.Stop()
		s.Start()
		if s.Elapsed() != 0 {
			t.Error("a stopped spinner must not start")
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		s := newSpinnerTo(context.Background(), &bytes.Buffer{}, "x")
		s.Start()
		s.Stop()
		s.Stop()
		s.Stop()
	})

	t.Run("animated", func(t *testing.T) {
		var buf bytes.Buffer
		s := newSpinnerTo(context.Background(), &buf, "Computing layout...")
		s.animate = true
		s.Start()
		time.Sleep(3 * spinnerInterval)
		s.Stop()
		if !strings.Contains(buf.String(), "Computing layout...") {
			t.Errorf("no frame drawn: %q", buf.String())
		}
		if !strings.HasSuffix(buf.String(), "\r") {
			t.Error("line should be cleared on stop")
		}
	})
}

func TestSpinnerElapsed(t *testing.T) {
	s := newSpinnerTo(context.Background(), &bytes.Buffer{}, "x")
	if s.Elapsed() != 0 {
		t.Error("elapsed before start should be zero")
	}
	s.Start()
	time.Sleep(5 * time.Millisecond)
	if s.Elapsed() <= 0 {
		t.Error("elapsed should grow after start")
	}
	s.Stop()
}

func TestSpinnerStopWithStatus(t *testing.T) {
	var out bytes.Buffer
	captureStatus(t, &out)

	newSpinnerTo(context.Background(), &bytes.Buffer{}, "x").StopWithSuccess("Layout complete")
	newSpinnerTo(context.Background(), &bytes.Buffer{}, "x").StopWithError("Render failed")

	for _, want := range []string{iconSuccess + " Layout complete", iconError + " Render failed"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("status output %q lacks %q", out.String(), want)
		}
	}
}

// captureStatus redirects status lines to w for the duration of the test.
func captureStatus(t *testing.T, w *bytes.Buffer) {
	t.Helper()
	prev := statusOut
	statusOut = w
	t.Cleanup(func() { statusOut = prev })
}

func TestStatsLine(t *testing.T) {
	tests := []struct {
		name              string
		files, dirs, code int
		cached            bool
		want              []string
		absent            []string
	}{
		{"full", 1234, 5, 98765, false, []string{"1,234 files", "5 dirs", "98,765 lines of code", "fresh"}, nil},
		{"cached", 1, 0, 10, true, []string{"1 files", "10 lines of code", "cached"}, []string{"dirs"}},
		{"empty", 0, 0, 0, false, []string{"0 lines of code"}, []string{"files", "dirs"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := statsLine(tt.files, tt.dirs, tt.code, tt.cached)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("statsLine() = %q, missing %q", got, w)
				}
			}
			for _, a := range tt.absent {
				if strings.Contains(got, a) {
					t.Errorf("statsLine() = %q, should not contain %q", got, a)
				}
			}
		})
	}
}
