package sink

import (
	"bytes"
	"encoding/xml"
)

const (
	fontCharWidth = 0.55
	labelInset    = 6.0
)

// EscapeXML escapes s for use in XML text and attribute values.
func EscapeXML(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// truncateLabel shortens label to fit width at the given font size.
func truncateLabel(label string, width, fontSize float64) string {
	maxChars := int((width - 2*labelInset) / (fontSize * fontCharWidth))
	r := []rune(label)
	if len(r) <= maxChars {
		return label
	}
	if maxChars < 3 {
		return ""
	}
	return string(r[:maxChars-2]) + ".."
}
