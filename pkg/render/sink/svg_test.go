package sink

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/slocmap/pkg/tree"
	"github.com/matzehuels/slocmap/pkg/treemap"
)

func TestRenderSVGClassContract(t *testing.T) {
	svg := string(RenderSVG(sampleLayout(), WithStackedBars(), WithPanels(), WithInteraction()))

	for _, want := range []string{
		`class="grandparent"`,
		`class="depth"`,
		`class="children"`,
		`class="child"`,
		`class="parent"`,
		`class="foreignobj"`,
		`class="textdiv"`,
		`class="bar"`,
		`class="panel"`,
		"<![CDATA[",
	} {
		if !strings.Contains(svg, want) {
			t.Errorf("missing %s", want)
		}
	}
}

func TestRenderSVGLayers(t *testing.T) {
	root := sampleLayout()
	svg := string(RenderSVG(root))

	// One layer per directory: repo, pkg, pkg/tree, cmd, cmd/tree.
	if got := strings.Count(svg, `class="depth"`); got != 5 {
		t.Errorf("depth layers = %d, want 5", got)
	}
	if got := strings.Count(svg, `display="none"`); got != 4 {
		t.Errorf("hidden layers = %d, want 4", got)
	}
	if !strings.Contains(svg, `repo  Click inside square to zoom in`) {
		t.Error("root header missing")
	}
	if strings.Contains(svg, "<script") {
		t.Error("script emitted without WithInteraction")
	}
}

func TestRenderSVGFocus(t *testing.T) {
	root := sampleLayout()
	pkg, _ := root.Find("pkg")
	leaf, _ := root.Find("README.md")

	tests := []struct {
		name   string
		focus  *treemap.Cell
		header string
	}{
		{"directory", pkg, `repo/pkg  -  Click to zoom out`},
		{"leaf falls back to root", leaf, `repo  Click inside square to zoom in`},
		{"foreign cell falls back to root", sampleLayout().Children[0], `repo  Click inside square to zoom in`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svg := string(RenderSVG(root, WithFocus(tt.focus), WithSeparator("/")))
			if !strings.Contains(svg, tt.header) {
				t.Errorf("header %q not found", tt.header)
			}
		})
	}
}

var parentRect = regexp.MustCompile(`<g data-path="([^"]+)">\s*<rect class="child"[^>]*/>\s*<rect class="parent" data-b="[^"]+" x="([-\d.]+)" y="([-\d.]+)" width="([\d.]+)" height="([\d.]+)"`)

func TestRenderSVGAreaRatio(t *testing.T) {
	root := treemap.Layout(&tree.Node{Name: "/", Children: []*tree.Node{
		{Name: "a", Code: 10},
		{Name: "b", Code: 30},
	}}, 400, 300)
	svg := string(RenderSVG(root))

	areas := map[string]float64{}
	for _, m := range parentRect.FindAllStringSubmatch(svg, -1) {
		w, _ := strconv.ParseFloat(m[4], 64)
		h, _ := strconv.ParseFloat(m[5], 64)
		areas[m[1]] = w * h
	}
	if len(areas) != 2 {
		t.Fatalf("found %d leaf rects, want 2", len(areas))
	}
	if ratio := areas["b"] / areas["a"]; math.Abs(ratio-3) > 0.01 {
		t.Errorf("area ratio b:a = %v, want 3", ratio)
	}
}

func TestRenderSVGEscapes(t *testing.T) {
	root := treemap.Layout(&tree.Node{Name: "/", Children: []*tree.Node{
		{Name: `<a&"b>.go`, Code: 1},
	}}, 100, 100)
	svg := string(RenderSVG(root, WithPanels()))
	if strings.Contains(svg, `<a&"b>`) {
		t.Error("unescaped name in output")
	}
	if !strings.Contains(svg, "&lt;a&amp;&#34;b&gt;.go") {
		t.Error("escaped name missing")
	}
}

func TestRenderSVGInteractionConfig(t *testing.T) {
	root := sampleLayout()
	pkg, _ := root.Find("pkg")
	svg := string(RenderSVG(root, WithInteraction(), WithFocus(pkg), WithDuration(900*time.Millisecond)))

	if !strings.Contains(svg, `"duration":900`) {
		t.Error("duration not passed to script")
	}
	if !strings.Contains(svg, `"focus":"pkg"`) {
		t.Error("focus not passed to script")
	}
	if !strings.Contains(svg, "transitioning = true") {
		t.Error("transition guard missing from script")
	}
}

func TestRenderSVGMargins(t *testing.T) {
	svg := string(RenderSVG(sampleLayout(), WithMargins(Margins{Top: 40, Right: 5, Bottom: 10, Left: 5})))
	if !strings.Contains(svg, `width="410.00" height="350.00"`) {
		t.Errorf("unexpected svg size in %q", svg[:120])
	}
	if !strings.Contains(svg, `translate(5.00,40.00)`) {
		t.Error("canvas not translated by margins")
	}
}

func TestPanelID(t *testing.T) {
	root := sampleLayout()
	pkgTree, _ := root.Find("pkg/tree")
	cmdTree, _ := root.Find("cmd/tree")

	if PanelID(pkgTree) != PanelID(pkgTree) {
		t.Error("PanelID not deterministic")
	}
	if PanelID(pkgTree) == PanelID(cmdTree) {
		t.Error("same-named directories under different parents share a panel id")
	}
	if again, _ := sampleLayout().Find("pkg/tree"); PanelID(again) != PanelID(pkgTree) {
		t.Error("PanelID differs across layouts of the same tree")
	}
}

func TestPanelLines(t *testing.T) {
	root := sampleLayout()
	pkg, _ := root.Find("pkg")
	lines := panelLines(pkg)
	want := []string{"pkg", "files: 2, directories: 1", "code: 120", "blank: 10", "comment: 25"}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Errorf("panelLines() = %q, want %q", lines, want)
	}
}

func TestTruncateLabel(t *testing.T) {
	tests := []struct {
		label string
		width float64
		want  string
	}{
		{"main.go", 200, "main.go"},
		{"a_very_long_file_name.go", 80, "a_very_lon.."},
		{"abc", 10, ""},
	}
	for _, tt := range tests {
		if got := truncateLabel(tt.label, tt.width, 10); got != tt.want {
			t.Errorf("truncateLabel(%q, %v) = %q, want %q", tt.label, tt.width, got, tt.want)
		}
	}
}
