package sink

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/matzehuels/slocmap/pkg/render/palette"
	"github.com/matzehuels/slocmap/pkg/treemap"
)

const (
	panelCSS = `
    .panel { pointer-events: none; transition: opacity 0.15s ease; }
    .panel[visibility="hidden"] { opacity: 0; }
    .panel[visibility="visible"] { opacity: 1; }
    .panel rect { stroke: #333; stroke-width: 1px; }
    .panel .panel-title { font-weight: bold; }`

	panelJS = `
    (function () {
      const svg = (document.currentScript && document.currentScript.closest('svg')) || document.querySelector('svg');
      const pt = svg.createSVGPoint();
      svg.querySelectorAll('g[data-panel]').forEach(g => {
        const panel = svg.getElementById('panel-' + g.dataset.panel);
        if (!panel) return;
        g.addEventListener('mouseenter', () => panel.setAttribute('visibility', 'visible'));
        g.addEventListener('mouseleave', () => panel.setAttribute('visibility', 'hidden'));
        g.addEventListener('mousemove', ev => {
          pt.x = ev.clientX; pt.y = ev.clientY;
          const p = pt.matrixTransform(svg.getScreenCTM().inverse());
          const box = panel.getBBox(), vb = svg.viewBox.baseVal;
          const x = Math.max(4, Math.min(p.x + 12, vb.width - box.width - 4));
          const y = Math.max(4, Math.min(p.y + 12, vb.height - box.height - 4));
          panel.setAttribute('transform', 'translate(' + x.toFixed(1) + ',' + y.toFixed(1) + ')');
        });
      });
    })();`

	panelLineHeight = 16.0
	panelPadding    = 8.0
	panelCharWidth  = 6.6
	panelMinWidth   = 140.0
)

// panelNamespace scopes panel ids so they do not collide with other UUIDv5
// users of the same names.
var panelNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/matzehuels/slocmap/panel"))

// PanelID returns a stable id for the detail panel of c. It is derived from
// the cell's path and counts, so equally named cells under different parents
// get different ids.
func PanelID(c *treemap.Cell) string {
	t := c.Node.Totals()
	key := strings.Join([]string{
		c.Path(),
		c.Name(),
		c.Node.Language,
		strconv.Itoa(t.Code),
		strconv.Itoa(t.Blank),
		strconv.Itoa(t.Comment),
	}, "\x00")
	return uuid.NewSHA1(panelNamespace, []byte(key)).String()
}

// panelLines returns the detail panel text of c.
func panelLines(c *treemap.Cell) []string {
	t := c.Node.Totals()
	lines := []string{c.Name()}
	if p := c.Path(); p != c.Name() {
		lines = append(lines, p)
	}
	if c.Node.Language != "" {
		lines = append(lines, "language: "+c.Node.Language)
	}
	if !c.IsLeaf() {
		files, dirs := c.Node.Stats()
		lines = append(lines, fmt.Sprintf("files: %s, directories: %s",
			humanize.Comma(int64(files)), humanize.Comma(int64(dirs-1))))
	}
	lines = append(lines,
		"code: "+humanize.Comma(int64(t.Code)),
		"blank: "+humanize.Comma(int64(t.Blank)),
		"comment: "+humanize.Comma(int64(t.Comment)),
	)
	return lines
}

func renderPanel(buf *bytes.Buffer, c *treemap.Cell, pal *palette.Palette) {
	lines := panelLines(c)
	longest := 0
	for _, l := range lines {
		longest = max(longest, len(l))
	}
	w := max(panelMinWidth, float64(longest)*panelCharWidth+2*panelPadding)
	h := float64(len(lines))*panelLineHeight + panelPadding

	fmt.Fprintf(buf, `  <g class="panel" id="panel-%s" visibility="hidden">`+"\n", PanelID(c))
	fmt.Fprintf(buf, `    <rect width="%s" height="%s" rx="4" fill="#fff"/>`+"\n", num(w), num(h))
	fmt.Fprintf(buf, `    <rect width="4" height="%s" fill="%s"/>`+"\n", num(h), pal.Fill(c))
	for i, l := range lines {
		class := ""
		if i == 0 {
			class = ` class="panel-title"`
		}
		fmt.Fprintf(buf, `    <text%s x="%s" y="%s">%s</text>`+"\n",
			class, num(panelPadding+2), num(float64(i+1)*panelLineHeight), EscapeXML(l))
	}
	buf.WriteString("  </g>\n")
}

func renderPanelScript(buf *bytes.Buffer) {
	fmt.Fprintf(buf, "  <script type=\"text/javascript\"><![CDATA[%s\n  ]]></script>\n", panelJS)
}
