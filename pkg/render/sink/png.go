package sink

import (
	"bytes"
	"fmt"
	"math"

	"github.com/fogleman/gg"

	slerrors "github.com/matzehuels/slocmap/pkg/errors"
	"github.com/matzehuels/slocmap/pkg/render/palette"
	"github.com/matzehuels/slocmap/pkg/treemap"
	"github.com/matzehuels/slocmap/pkg/view"
)

// MaxPNGPixels bounds the raster size of a PNG (256 MiB of RGBA).
const MaxPNGPixels = 1 << 26

// PNGSize returns the raster size of a w×h frame with margins m at the
// given scale. It fails for non-finite sizes and for images larger than
// [MaxPNGPixels].
func PNGSize(w, h float64, m Margins, scale float64) (int, int, error) {
	pw := (w + m.Left + m.Right) * scale
	ph := (h + m.Top + m.Bottom) * scale
	if !finite(pw) || !finite(ph) || pw < 1 || ph < 1 {
		return 0, 0, slerrors.New(slerrors.ErrCodeInvalidInput, "invalid png size %gx%g", pw, ph)
	}
	if pw*ph > MaxPNGPixels {
		return 0, 0, slerrors.New(slerrors.ErrCodeInvalidInput,
			"png of %.0fx%.0f pixels exceeds the limit of %d; lower the size or scale", pw, ph, MaxPNGPixels)
	}
	return int(pw + 0.5), int(ph + 0.5), nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// PNGOption configures PNG rendering.
type PNGOption func(*pngRenderer)

type pngRenderer struct {
	svg   svgRenderer
	scale float64
}

// WithPNGSVGOptions applies SVG options (focus, margins, palette, bars,
// separator) to the raster output. Interaction options have no effect.
func WithPNGSVGOptions(opts ...SVGOption) PNGOption {
	return func(r *pngRenderer) {
		for _, opt := range opts {
			opt(&r.svg)
		}
	}
}

// WithScale sets the PNG scale factor (default 2.0 for 2x resolution).
func WithScale(s float64) PNGOption {
	return func(r *pngRenderer) {
		if s > 0 {
			r.scale = s
		}
	}
}

// RenderPNG rasterizes the focused level: header, child rectangles with
// their grandchildren, stacked bars and names.
func RenderPNG(root *treemap.Cell, opts ...PNGOption) ([]byte, error) {
	r := pngRenderer{
		svg:   svgRenderer{margins: DefaultMargins, separator: view.DefaultSeparator},
		scale: 2.0,
	}
	for _, opt := range opts {
		opt(&r)
	}
	sr := newSVGRenderer(root, func(s *svgRenderer) { *s = r.svg })

	w, h := root.Width(), root.Height()
	m := sr.margins
	pw, ph, err := PNGSize(w, h, m, r.scale)
	if err != nil {
		return nil, err
	}
	dc := gg.NewContext(pw, ph)
	dc.Scale(r.scale, r.scale)
	dc.SetHexColor("#ffffff")
	dc.Clear()

	dc.Translate(m.Left, m.Top)
	vp := treemap.NewViewport(sr.focus.Rect, w, h)
	for _, c := range sr.focus.Children {
		drawChild(dc, &sr, c, vp)
	}

	dc.SetHexColor(palette.Neutral)
	dc.DrawRectangle(0, -m.Top, w, m.Top)
	dc.Fill()
	dc.SetHexColor("#000000")
	header := truncateLabel(view.Header(sr.focus, sr.separator), w, 13)
	dc.DrawStringAnchored(header, headerTextInset, -m.Top/2, 0, 0.35)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func drawChild(dc *gg.Context, sr *svgRenderer, c *treemap.Cell, vp treemap.Viewport) {
	kids := c.Children
	if c.IsLeaf() {
		kids = []*treemap.Cell{c}
	}
	for _, k := range kids {
		p := vp.Project(k.Rect)
		dc.DrawRectangle(p.X0, p.Y0, p.Width(), p.Height())
		dc.SetHexColor(sr.palette.Fill(k))
		dc.FillPreserve()
		dc.SetHexColor("#ffffff")
		dc.SetLineWidth(0.5)
		dc.Stroke()
	}

	p := vp.Project(c.Rect)
	if sr.bars {
		blank, comment, code := c.Node.Totals().Fractions()
		bh := p.Height() * barFraction
		x := p.X0
		for i, f := range [3]float64{blank, comment, code} {
			dc.DrawRectangle(x, p.Y1-bh, p.Width()*f, bh)
			dc.SetHexColor(barColors[i])
			dc.Fill()
			x += p.Width() * f
		}
	}

	dc.DrawRectangle(p.X0, p.Y0, p.Width(), p.Height())
	dc.SetHexColor("#ffffff")
	dc.SetLineWidth(2)
	dc.Stroke()

	if p.Height() < 16 {
		return
	}
	if label := truncateLabel(c.Name(), p.Width(), 13); label != "" {
		dc.SetHexColor("#000000")
		dc.DrawString(label, p.X0+labelInset, p.Y0+labelInset+10)
	}
}
