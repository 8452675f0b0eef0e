// Package palette assigns fill colors to treemap cells by language.
//
// The first time a language is seen it gets a random light color from the
// palette's random source; later lookups return the cached color. With a
// fixed seed, a palette hands out the same colors for the same sequence of
// languages, which keeps rendered output reproducible.
package palette

import (
	"math/rand"
	"sort"
	"strings"
	"sync"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/slocmap/pkg/treemap"
)

// Neutral is the fill for directories, headers and cells without a language.
const Neutral = "#bbbbbb"

// Palette is a concurrency-safe language → color cache.
type Palette struct {
	mu     sync.Mutex
	rng    *rand.Rand
	colors map[string]string
}

// New returns a palette drawing colors from a source seeded with seed.
func New(seed int64) *Palette {
	return &Palette{
		rng:    rand.New(rand.NewSource(seed)),
		colors: make(map[string]string),
	}
}

// Set pins the color for a language. Invalid hex colors are ignored.
func (p *Palette) Set(language, hex string) bool {
	c, err := colorful.Hex(hex)
	if err != nil || language == "" {
		return false
	}
	p.mu.Lock()
	p.colors[key(language)] = c.Hex()
	p.mu.Unlock()
	return true
}

// ValidColor reports whether hex parses as a #rrggbb color.
func ValidColor(hex string) bool {
	_, err := colorful.Hex(hex)
	return err == nil
}

// Color returns the color for language, assigning one on first use.
// An empty language maps to [Neutral].
func (p *Palette) Color(language string) string {
	if language == "" {
		return Neutral
	}
	k := key(language)
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.colors[k]; ok {
		return c
	}
	c := p.random().Hex()
	p.colors[k] = c
	return c
}

// random returns a light, saturated color that keeps dark label text legible.
func (p *Palette) random() colorful.Color {
	h := p.rng.Float64() * 360
	s := 0.45 + p.rng.Float64()*0.3
	v := 0.75 + p.rng.Float64()*0.2
	return colorful.Hsv(h, s, v)
}

// Fill returns the fill for a cell: language colors for files, [Neutral]
// for directories.
func (p *Palette) Fill(c *treemap.Cell) string {
	if !c.IsLeaf() {
		return Neutral
	}
	return p.Color(c.Node.Language)
}

// Assign walks the hierarchy in pre-order and assigns colors to every
// language found, so that color order depends only on the tree.
func (p *Palette) Assign(root *treemap.Cell) {
	root.Each(func(c *treemap.Cell) {
		if c.IsLeaf() {
			p.Color(c.Node.Language)
		}
	})
}

// Entry is one legend row.
type Entry struct {
	Language string `json:"language"`
	Color    string `json:"color"`
}

// Legend returns the assigned colors sorted by language.
func (p *Palette) Legend() []Entry {
	p.mu.Lock()
	out := make([]Entry, 0, len(p.colors))
	for lang, c := range p.colors {
		out = append(out, Entry{Language: lang, Color: c})
	}
	p.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Language < out[j].Language })
	return out
}

// RGB returns the components of a hex color in [0,1], falling back to
// [Neutral] for invalid input.
func RGB(hex string) (r, g, b float64) {
	c, err := colorful.Hex(hex)
	if err != nil {
		c, _ = colorful.Hex(Neutral)
	}
	return c.R, c.G, c.B
}

func key(language string) string { return strings.TrimSpace(language) }
