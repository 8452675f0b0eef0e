package nodelink

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/slocmap/pkg/render/palette"
	"github.com/matzehuels/slocmap/pkg/tree"
)

func sample() *tree.Node {
	return &tree.Node{Name: "repo", Children: []*tree.Node{
		{Name: "pkg", Children: []*tree.Node{
			{Name: "a.go", Code: 1200, Blank: 3, Language: "Go"},
		}},
		{Name: "README.md", Code: 4, Language: "Markdown"},
	}}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(sample(), Options{})

	for _, want := range []string{
		"digraph G {",
		`"." [label="repo", shape=folder`,
		`"pkg/a.go" [label="a.go"]`,
		`"." -> "pkg";`,
		`"pkg" -> "pkg/a.go";`,
		`"." -> "README.md";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("missing %q in:\n%s", want, dot)
		}
	}
}

func TestToDOTOptions(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		want    []string
		notWant []string
	}{
		{
			name: "detailed",
			opts: Options{Detailed: true},
			want: []string{`label="a.go\ncode: 1,200\nblank: 3\ncomment: 0"`},
		},
		{
			name:    "max depth",
			opts:    Options{MaxDepth: 1},
			want:    []string{`"." -> "pkg";`},
			notWant: []string{"a.go"},
		},
		{
			name: "palette",
			opts: Options{Palette: func() *palette.Palette {
				p := palette.New(1)
				p.Set("Go", "#00add8")
				return p
			}()},
			want: []string{`fillcolor="#00add8"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dot := ToDOT(sample(), tt.opts)
			for _, w := range tt.want {
				if !strings.Contains(dot, w) {
					t.Errorf("missing %q in:\n%s", w, dot)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(dot, w) {
					t.Errorf("unexpected %q in:\n%s", w, dot)
				}
			}
		})
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(sample(), Options{}))
	if err != nil {
		t.Fatalf("RenderSVG() error = %v", err)
	}
	if !strings.Contains(string(svg), `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 `) {
		t.Errorf("viewBox not normalized: %.200s", svg)
	}
}

func TestRenderSVGInvalid(t *testing.T) {
	if _, err := RenderSVG(context.Background(), "digraph {"); err == nil {
		t.Error("expected parse error")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 10.00 20.00" xmlns="x"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10.00 20.00" width="10" height="20"><g/></svg>`
	if got != want {
		t.Errorf("normalizeViewBox() = %q, want %q", got, want)
	}
}
