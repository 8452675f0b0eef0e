package cli

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/matzehuels/slocmap/pkg/pipeline"
	"github.com/matzehuels/slocmap/pkg/tree"
)

func browseTree() *tree.Node {
	return &tree.Node{Name: "/", Children: []*tree.Node{
		{Name: "main.go", Code: 20, Language: "Go"},
		{Name: "src", Children: []*tree.Node{
			{Name: "a.go", Code: 10, Language: "Go"},
			{Name: "b.go", Code: 30, Language: "Go"},
		}},
		{Name: "docs", Children: []*tree.Node{
			{Name: "readme.md", Code: 5, Language: "Markdown"},
		}},
	}}
}

func newTestBrowser(t *testing.T, focus string) browseModel {
	t.Helper()
	opts := pipeline.Options{Focus: focus}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	m, err := newBrowseModel(browseTree(), opts)
	if err != nil {
		t.Fatal(err)
	}
	return update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
}

func update(t *testing.T, m browseModel, msg tea.Msg) browseModel {
	t.Helper()
	next, _ := m.Update(msg)
	bm, ok := next.(browseModel)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return bm
}

func key(k tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: k} }

// finish delivers a frame after the animation window.
func finish(t *testing.T, m browseModel) browseModel {
	t.Helper()
	return update(t, m, browseFrameMsg{seq: m.seq, at: m.started.Add(time.Hour)})
}

func TestBrowseSelectionOrder(t *testing.T) {
	m := newTestBrowser(t, "")
	// Directories first (greater height), then by value.
	if got := m.selected().Name(); got != "src" {
		t.Fatalf("initial selection = %q, want src", got)
	}
	m = update(t, m, key(tea.KeyDown))
	if got := m.selected().Name(); got != "docs" {
		t.Errorf("after down = %q, want docs", got)
	}
	m = update(t, m, key(tea.KeyUp))
	m = update(t, m, key(tea.KeyUp))
	if got := m.selected().Name(); got != "main.go" {
		t.Errorf("selection should wrap, got %q", got)
	}
}

func TestBrowseZoomIn(t *testing.T) {
	m := newTestBrowser(t, "")

	m = update(t, m, key(tea.KeyEnter))
	if m.anim == nil || !m.state.Transitioning() {
		t.Fatal("enter should start a zoom")
	}
	first, seq := m.anim, m.seq

	// A second zoom while animating is ignored.
	m = update(t, m, key(tea.KeyEnter))
	if m.anim != first || m.seq != seq {
		t.Error("second enter during transition must be a no-op")
	}

	// An intermediate frame keeps both layers.
	m = update(t, m, browseFrameMsg{seq: m.seq, at: m.started.Add(m.opts.Duration / 2)})
	if m.anim == nil || m.progress <= 0 || m.progress >= 1 {
		t.Fatalf("progress = %v mid-animation", m.progress)
	}
	if view := m.View(); view == "" {
		t.Error("empty view during transition")
	}

	m = finish(t, m)
	if m.anim != nil || m.state.Transitioning() {
		t.Error("transition should be complete")
	}
	if got := m.state.Current().Path(); got != "src" {
		t.Errorf("current = %q, want src", got)
	}
	if !strings.Contains(m.View(), "src") {
		t.Error("header should show the breadcrumb")
	}
}

func TestBrowseStaleFrameIgnored(t *testing.T) {
	m := newTestBrowser(t, "")
	m = update(t, m, key(tea.KeyEnter))
	m = update(t, m, browseFrameMsg{seq: m.seq - 1, at: m.started.Add(time.Hour)})
	if m.anim == nil {
		t.Error("frame of another animation completed the zoom")
	}
}

func TestBrowseZoomOut(t *testing.T) {
	m := newTestBrowser(t, "")

	m = update(t, m, key(tea.KeyBackspace))
	if m.anim != nil {
		t.Fatal("zoom out at the root must be a no-op")
	}

	m = update(t, m, key(tea.KeyDown)) // docs
	m = update(t, m, key(tea.KeyEnter))
	m = finish(t, m)
	m = update(t, m, key(tea.KeyBackspace))
	if m.anim == nil {
		t.Fatal("backspace below the root should start a zoom")
	}
	m = finish(t, m)
	if m.state.Current().Parent != nil {
		t.Error("expected to be back at the root")
	}
	if got := m.selected().Name(); got != "docs" {
		t.Errorf("selection after zoom out = %q, want docs", got)
	}
}

func TestBrowseLeaf(t *testing.T) {
	m := newTestBrowser(t, "")
	m = update(t, m, key(tea.KeyUp)) // main.go
	m = update(t, m, key(tea.KeyEnter))
	if m.anim != nil {
		t.Fatal("zooming into a file must not animate")
	}
	if !strings.Contains(m.status, "main.go") {
		t.Errorf("status = %q", m.status)
	}
}

func TestBrowseResizeKeepsFocus(t *testing.T) {
	m := newTestBrowser(t, "src/a.go")
	if got := m.state.Current().Path(); got != "src" {
		t.Fatalf("focus on a file should show its directory, got %q", got)
	}
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	if got := m.state.Current().Path(); got != "src" {
		t.Errorf("current after resize = %q, want src", got)
	}
	if w := m.state.Root().Width(); w != 120 {
		t.Errorf("layout width = %v, want 120", w)
	}
}

func TestBrowseQuit(t *testing.T) {
	m := newTestBrowser(t, "")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestBrowseMissingFocus(t *testing.T) {
	opts := pipeline.Options{Focus: "nope"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if _, err := newBrowseModel(browseTree(), opts); err == nil {
		t.Error("expected error for unknown focus")
	}
}

func TestCanvas(t *testing.T) {
	m := newTestBrowser(t, "")
	cols, rows := m.mapSize()
	if cols != 80 || rows != 24-browseChrome {
		t.Fatalf("map size = %dx%d", cols, rows)
	}
	cv := newCanvas(cols, rows)
	cv.drawLayer(m.state.Layer(), m.selected(), m.pal)
	out := cv.String()
	if got := strings.Count(out, "\n"); got != rows-1 {
		t.Errorf("canvas has %d line breaks, want %d", got, rows-1)
	}
	for _, name := range []string{"src", "docs", "main.go"} {
		if !strings.Contains(out, name) {
			t.Errorf("canvas lacks label %q", name)
		}
	}
}

func TestCanvasText(t *testing.T) {
	cv := newCanvas(5, 1)
	cv.text(1, 0, 4, "abcdef", false)
	var got strings.Builder
	for _, c := range cv.cells {
		got.WriteRune(c.r)
	}
	if got.String() != " abc " {
		t.Errorf("text = %q, want %q", got.String(), " abc ")
	}
}

func plainRow(cv *canvas, y int) string {
	var b strings.Builder
	for _, c := range cv.cells[y*cv.w : (y+1)*cv.w] {
		if c.r != 0 {
			b.WriteRune(c.r)
		}
	}
	return b.String()
}

func TestCanvasWideText(t *testing.T) {
	tests := []struct {
		name  string
		draw  func(cv *canvas)
		want  string
		width int
	}{
		{
			name:  "stops before a rune that does not fit",
			draw:  func(cv *canvas) { cv.text(0, 0, 5, "日本語.go", false) },
			want:  "日本  ",
			width: 6,
		},
		{
			name:  "mixed",
			draw:  func(cv *canvas) { cv.text(1, 0, 6, "a日b", false) },
			want:  " a日b ",
			width: 6,
		},
		{
			name: "narrow over wide",
			draw: func(cv *canvas) {
				cv.text(0, 0, 6, "日本", false)
				cv.text(1, 0, 6, "x", false)
			},
			want:  " x本  ",
			width: 6,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cv := newCanvas(6, 1)
			tt.draw(cv)
			got := plainRow(cv, 0)
			if got != tt.want {
				t.Errorf("row = %q, want %q", got, tt.want)
			}
			if w := runewidth.StringWidth(got); w != tt.width {
				t.Errorf("row width = %d, want %d", w, tt.width)
			}
		})
	}
}
