package sink

import (
	"encoding/json"
	"fmt"

	"github.com/matzehuels/slocmap/pkg/treemap"
	"github.com/matzehuels/slocmap/pkg/view"
)

// JSONOption configures JSON rendering via [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	svg    svgRenderer
	all    bool
	indent bool
}

// WithJSONSVGOptions applies focus, palette and separator options.
func WithJSONSVGOptions(opts ...SVGOption) JSONOption {
	return func(r *jsonRenderer) {
		for _, opt := range opts {
			opt(&r.svg)
		}
	}
}

// WithJSONAllCells exports every cell of the hierarchy instead of only the
// focused level.
func WithJSONAllCells() JSONOption { return func(r *jsonRenderer) { r.all = true } }

// WithJSONIndent pretty-prints the output.
func WithJSONIndent() JSONOption { return func(r *jsonRenderer) { r.indent = true } }

type jsonOutput struct {
	Width   float64    `json:"width"`
	Height  float64    `json:"height"`
	Margins Margins    `json:"margins"`
	Focus   string     `json:"focus"`
	Header  string     `json:"header"`
	Value   float64    `json:"value"`
	Legend  []jsonLang `json:"legend,omitempty"`
	Cells   []jsonCell `json:"cells"`
}

type jsonLang struct {
	Language string `json:"language"`
	Color    string `json:"color"`
}

type jsonCell struct {
	Path     string       `json:"path"`
	Name     string       `json:"name"`
	Depth    int          `json:"depth"`
	Leaf     bool         `json:"leaf"`
	Value    float64      `json:"value"`
	Code     int          `json:"code"`
	Blank    int          `json:"blank"`
	Comment  int          `json:"comment"`
	Language string       `json:"language,omitempty"`
	Color    string       `json:"color"`
	PanelID  string       `json:"panel_id"`
	Layout   treemap.Rect `json:"layout"`
	Display  treemap.Rect `json:"display"`
}

// RenderJSON exports the layout. Layout rectangles are in root frame
// coordinates; display rectangles are projected for the focused level.
func RenderJSON(root *treemap.Cell, opts ...JSONOption) ([]byte, error) {
	r := jsonRenderer{svg: svgRenderer{margins: DefaultMargins, separator: view.DefaultSeparator}}
	for _, opt := range opts {
		opt(&r)
	}
	sr := newSVGRenderer(root, func(s *svgRenderer) { *s = r.svg })
	vp := treemap.NewViewport(sr.focus.Rect, root.Width(), root.Height())

	out := jsonOutput{
		Width:   root.Width(),
		Height:  root.Height(),
		Margins: sr.margins,
		Focus:   sr.focus.Path(),
		Header:  view.Header(sr.focus, sr.separator),
		Value:   sr.focus.Value,
	}

	cells := sr.focus.Children
	if r.all {
		cells = nil
		root.Each(func(c *treemap.Cell) { cells = append(cells, c) })
	}
	for _, c := range cells {
		t := c.Node.Totals()
		out.Cells = append(out.Cells, jsonCell{
			Path:     c.Path(),
			Name:     c.Name(),
			Depth:    c.Depth,
			Leaf:     c.IsLeaf(),
			Value:    c.Value,
			Code:     t.Code,
			Blank:    t.Blank,
			Comment:  t.Comment,
			Language: c.Node.Language,
			Color:    sr.palette.Fill(c),
			PanelID:  PanelID(c),
			Layout:   c.Rect,
			Display:  vp.Project(c.Rect),
		})
	}
	for _, e := range sr.palette.Legend() {
		out.Legend = append(out.Legend, jsonLang{Language: e.Language, Color: e.Color})
	}

	var (
		data []byte
		err  error
	)
	if r.indent {
		data, err = json.MarshalIndent(out, "", "  ")
	} else {
		data, err = json.Marshal(out)
	}
	if err != nil {
		return nil, fmt.Errorf("marshal layout: %w", err)
	}
	return data, nil
}
