package sink

import (
	"bytes"
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/slocmap/pkg/render/palette"
	"github.com/matzehuels/slocmap/pkg/treemap"
	"github.com/matzehuels/slocmap/pkg/view"
)

// Margins surround the treemap frame. The top margin holds the header.
type Margins struct {
	Top    float64 `json:"top" toml:"top"`
	Right  float64 `json:"right" toml:"right"`
	Bottom float64 `json:"bottom" toml:"bottom"`
	Left   float64 `json:"left" toml:"left"`
}

// DefaultMargins leave room for the header above the frame.
var DefaultMargins = Margins{Top: 30, Right: 0, Bottom: 20, Left: 0}

const (
	headerTextInset = 6
	barFraction     = 0.08
)

// Stacked bar colors, in blank, comment, code order.
var barColors = [3]string{"#e8e8e8", "#9ccc9c", "#4f86b8"}

type SVGOption func(*svgRenderer)

type svgRenderer struct {
	focus       *treemap.Cell
	margins     Margins
	palette     *palette.Palette
	separator   string
	bars        bool
	panels      bool
	interactive bool
	duration    time.Duration
}

// WithFocus selects the initially displayed directory. Leaves and cells from
// other hierarchies are ignored.
func WithFocus(c *treemap.Cell) SVGOption { return func(r *svgRenderer) { r.focus = c } }

func WithMargins(m Margins) SVGOption          { return func(r *svgRenderer) { r.margins = m } }
func WithPalette(p *palette.Palette) SVGOption { return func(r *svgRenderer) { r.palette = p } }
func WithSeparator(sep string) SVGOption       { return func(r *svgRenderer) { r.separator = sep } }
func WithStackedBars() SVGOption               { return func(r *svgRenderer) { r.bars = true } }
func WithPanels() SVGOption                    { return func(r *svgRenderer) { r.panels = true } }
func WithInteraction() SVGOption               { return func(r *svgRenderer) { r.interactive = true } }

// WithDuration sets the zoom animation length used by the embedded script.
func WithDuration(d time.Duration) SVGOption {
	return func(r *svgRenderer) { r.duration = d }
}

// RenderSVG renders a laid-out hierarchy. The frame size is taken from the
// root rectangle.
func RenderSVG(root *treemap.Cell, opts ...SVGOption) []byte {
	r := newSVGRenderer(root, opts...)
	w, h := root.Width(), root.Height()
	m := r.margins
	totalW, totalH := w+m.Left+m.Right, h+m.Top+m.Bottom

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %s %s" width="%s" height="%s">`+"\n",
		num(totalW), num(totalH), num(totalW), num(totalH))
	renderStyle(&buf)
	fmt.Fprintf(&buf, `  <g class="canvas" transform="translate(%s,%s)" style="shape-rendering: crispEdges">`+"\n",
		num(m.Left), num(m.Top))

	dirs := root.Directories()
	sortByDepth(dirs)
	for _, d := range dirs {
		r.renderLayer(&buf, d, w, h)
	}
	r.renderGrandparent(&buf, w)
	buf.WriteString("  </g>\n")

	if r.panels {
		for _, d := range dirs {
			for _, c := range d.Children {
				renderPanel(&buf, c, r.palette)
			}
		}
	}
	if r.interactive {
		renderInteraction(&buf, &r, w, h)
	}
	if r.panels {
		renderPanelScript(&buf)
	}
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func newSVGRenderer(root *treemap.Cell, opts ...SVGOption) svgRenderer {
	r := svgRenderer{
		margins:   DefaultMargins,
		separator: view.DefaultSeparator,
		duration:  view.DefaultDuration,
	}
	for _, opt := range opts {
		opt(&r)
	}
	if r.focus == nil || r.focus.IsLeaf() || r.focus.Root() != root {
		r.focus = root
	}
	if r.palette == nil {
		r.palette = palette.New(1)
		r.palette.Assign(root)
	}
	return r
}

func (r *svgRenderer) renderLayer(buf *bytes.Buffer, d *treemap.Cell, w, h float64) {
	vp := treemap.NewViewport(d.Rect, w, h)

	fmt.Fprintf(buf, `    <g class="depth" data-path="%s" data-depth="%d" data-b="%s" data-header="%s"`,
		EscapeXML(d.Path()), d.Depth, bounds(d.Rect), EscapeXML(view.Header(d, r.separator)))
	if d.Parent != nil {
		fmt.Fprintf(buf, ` data-parent="%s"`, EscapeXML(d.Parent.Path()))
	}
	if d != r.focus {
		buf.WriteString(` display="none"`)
	}
	buf.WriteString(">\n")

	for _, c := range d.Children {
		r.renderChild(buf, c, vp, d == r.focus)
	}
	buf.WriteString("    </g>\n")
}

func (r *svgRenderer) renderChild(buf *bytes.Buffer, c *treemap.Cell, vp treemap.Viewport, visible bool) {
	buf.WriteString("      <g")
	if !c.IsLeaf() {
		buf.WriteString(` class="children"`)
	}
	fmt.Fprintf(buf, ` data-path="%s"`, EscapeXML(c.Path()))
	if r.panels {
		fmt.Fprintf(buf, ` data-panel="%s"`, PanelID(c))
	}
	buf.WriteString(">\n")

	kids := c.Children
	if c.IsLeaf() {
		kids = []*treemap.Cell{c}
	}
	for _, k := range kids {
		writeRect(buf, "child", k.Rect, vp, r.palette.Fill(k))
		buf.WriteString("/>\n")
	}

	writeRect(buf, "parent", c.Rect, vp, r.palette.Fill(c))
	fmt.Fprintf(buf, "><title>%s</title></rect>\n", EscapeXML(c.Name()))

	if r.bars {
		renderBar(buf, c, vp)
	}

	p := vp.Project(c.Rect)
	display := "block"
	if !visible {
		display = "none"
	}
	fmt.Fprintf(buf, `        <foreignObject class="foreignobj" data-b="%s" x="%s" y="%s" width="%s" height="%s">`,
		bounds(c.Rect), num(p.X0), num(p.Y0), num(max(p.Width(), 0)), num(max(p.Height(), 0)))
	fmt.Fprintf(buf, `<div xmlns="http://www.w3.org/1999/xhtml" class="textdiv" style="display: %s">`, display)
	for i, line := range view.Label(c) {
		if i == 0 {
			fmt.Fprintf(buf, `<p class="title">%s</p>`, EscapeXML(line))
			continue
		}
		fmt.Fprintf(buf, `<p>%s</p>`, EscapeXML(line))
	}
	buf.WriteString("</div></foreignObject>\n")
	buf.WriteString("      </g>\n")
}

// renderBar draws the blank/comment/code proportions of c's subtree along
// its bottom edge.
func renderBar(buf *bytes.Buffer, c *treemap.Cell, vp treemap.Viewport) {
	blank, comment, code := c.Node.Totals().Fractions()
	top := c.Y1 - c.Height()*barFraction
	x := c.X0
	buf.WriteString(`        <g class="bar">` + "\n")
	for i, f := range [3]float64{blank, comment, code} {
		seg := treemap.Rect{X0: x, Y0: top, X1: x + c.Width()*f, Y1: c.Y1}
		x = seg.X1
		writeRect(buf, "bar-"+barNames[i], seg, vp, barColors[i])
		fmt.Fprintf(buf, "><title>%s %.0f%%</title></rect>\n", barNames[i], f*100)
	}
	buf.WriteString("        </g>\n")
}

var barNames = [3]string{"blank", "comment", "code"}

func (r *svgRenderer) renderGrandparent(buf *bytes.Buffer, w float64) {
	m := r.margins
	buf.WriteString(`    <g class="grandparent">` + "\n")
	fmt.Fprintf(buf, `      <rect y="%s" width="%s" height="%s" fill="%s"/>`+"\n",
		num(-m.Top), num(w), num(m.Top), palette.Neutral)
	fmt.Fprintf(buf, `      <text x="%d" y="%s" dy=".75em">%s</text>`+"\n",
		headerTextInset, num(headerTextInset-m.Top), EscapeXML(view.Header(r.focus, r.separator)))
	buf.WriteString("    </g>\n")
}

// writeRect writes an unterminated <rect> so callers can close it or nest a
// title.
func writeRect(buf *bytes.Buffer, class string, b treemap.Rect, vp treemap.Viewport, fill string) {
	p := vp.Project(b)
	fmt.Fprintf(buf, `        <rect class="%s" data-b="%s" x="%s" y="%s" width="%s" height="%s" fill="%s"`,
		class, bounds(b), num(p.X0), num(p.Y0), num(max(p.Width(), 0)), num(max(p.Height(), 0)), fill)
}

// bounds encodes layout coordinates for the zoom script.
func bounds(r treemap.Rect) string {
	return strings.Join([]string{num(r.X0), num(r.Y0), num(r.X1), num(r.Y1)}, " ")
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func sortByDepth(cells []*treemap.Cell) {
	slices.SortStableFunc(cells, func(a, b *treemap.Cell) int {
		return cmp.Compare(a.Depth, b.Depth)
	})
}
