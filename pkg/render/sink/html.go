package sink

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/matzehuels/slocmap/pkg/treemap"
)

// ChartID is the id of the element the treemap is mounted in.
const ChartID = "chart"

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
  body { margin: 0; padding: 16px; font-family: sans-serif; background: #fafafa; }
  h1 { font-size: 18px; margin: 0 0 12px; }
  #{{.ChartID}} { width: 100%; }
  #{{.ChartID}} svg { display: block; background: #fff; }
  .legend { display: flex; flex-wrap: wrap; gap: 8px 16px; margin-top: 12px; font-size: 12px; }
  .legend span { display: inline-block; width: 10px; height: 10px; margin-right: 4px; vertical-align: middle; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<div id="{{.ChartID}}">
{{.SVG}}
</div>
{{- if .Legend}}
<div class="legend">
{{- range .Legend}}
  <div><span style="background: {{.Color}}"></span>{{.Language}}</div>
{{- end}}
</div>
{{- end}}
</body>
</html>
`))

// HTMLOption configures [RenderHTML].
type HTMLOption func(*htmlRenderer)

type htmlRenderer struct {
	title   string
	legend  bool
	svgOpts []SVGOption
}

// WithTitle sets the page title.
func WithTitle(title string) HTMLOption { return func(r *htmlRenderer) { r.title = title } }

// WithLegend lists the language colors below the chart.
func WithLegend() HTMLOption { return func(r *htmlRenderer) { r.legend = true } }

// WithHTMLSVGOptions passes options through to the embedded SVG.
func WithHTMLSVGOptions(opts ...SVGOption) HTMLOption {
	return func(r *htmlRenderer) { r.svgOpts = opts }
}

type legendEntry struct {
	Language string
	Color    template.CSS
}

// RenderHTML renders a standalone page with the interactive SVG mounted in
// the #chart element.
func RenderHTML(root *treemap.Cell, opts ...HTMLOption) ([]byte, error) {
	r := htmlRenderer{title: root.Name()}
	for _, opt := range opts {
		opt(&r)
	}

	svgOpts := append([]SVGOption{WithInteraction()}, r.svgOpts...)
	sr := newSVGRenderer(root, svgOpts...)
	svg := RenderSVG(root, append(svgOpts, WithPalette(sr.palette))...)

	var legend []legendEntry
	if r.legend {
		for _, e := range sr.palette.Legend() {
			legend = append(legend, legendEntry{Language: e.Language, Color: template.CSS(e.Color)})
		}
	}

	var buf bytes.Buffer
	err := pageTemplate.Execute(&buf, struct {
		Title   string
		ChartID string
		SVG     template.HTML
		Legend  []legendEntry
	}{
		Title:   r.title,
		ChartID: ChartID,
		SVG:     template.HTML(svg),
		Legend:  legend,
	})
	if err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return buf.Bytes(), nil
}
