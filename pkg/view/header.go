package view

import (
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/matzehuels/slocmap/pkg/treemap"
)

// DefaultSeparator joins breadcrumb segments.
const DefaultSeparator = `\`

// Header hints appended to the breadcrumb.
const (
	ZoomOutHint = "  -  Click to zoom out"
	ZoomInHint  = "  Click inside square to zoom in"
)

// Breadcrumb returns the names from the root down to c joined by sep.
// Names are split on sep and empty segments dropped, so a root named like
// the separator does not double it. An empty result renders as sep.
func Breadcrumb(c *treemap.Cell, sep string) string {
	if sep == "" {
		sep = DefaultSeparator
	}
	anc := c.Ancestors()
	var segs []string
	for i := len(anc) - 1; i >= 0; i-- {
		for _, s := range strings.Split(anc[i].Name(), sep) {
			if s != "" {
				segs = append(segs, s)
			}
		}
	}
	if len(segs) == 0 {
		return sep
	}
	return strings.Join(segs, sep)
}

// Header returns the breadcrumb of c followed by the zoom hint.
func Header(c *treemap.Cell, sep string) string {
	if c.Parent != nil {
		return Breadcrumb(c, sep) + ZoomOutHint
	}
	return Breadcrumb(c, sep) + ZoomInHint
}

// Label returns the text lines shown inside a cell. Directory counts are
// summed over their leaves.
func Label(c *treemap.Cell) []string {
	t := c.Node.Totals()
	return []string{
		c.Name(),
		"value: " + humanize.Comma(int64(c.Value)) + " (total)",
		"code: " + humanize.Comma(int64(t.Code)),
		"blank: " + humanize.Comma(int64(t.Blank)),
		"comment: " + humanize.Comma(int64(t.Comment)),
	}
}
