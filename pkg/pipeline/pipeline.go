// Package pipeline provides the load → layout → render pipeline shared by
// the CLI and the server.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Resolve the source tree from a URL, a file or a gocloc report
//  2. Layout: Tile the tree into a squarified treemap
//  3. Render: Generate output in the requested formats (SVG, HTML, PNG,
//     JSON, DOT, node-link SVG), in parallel
//
// Each stage can be run independently or as part of the complete pipeline,
// and each stage caches its result when the [Runner] has a cache.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Source:  "tree.json",
//	    Formats: []string{"svg", "png"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"io"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/slocmap/pkg/cache"
	slerrors "github.com/matzehuels/slocmap/pkg/errors"
	"github.com/matzehuels/slocmap/pkg/render/palette"
	"github.com/matzehuels/slocmap/pkg/render/sink"
	"github.com/matzehuels/slocmap/pkg/source"
	"github.com/matzehuels/slocmap/pkg/tree"
	"github.com/matzehuels/slocmap/pkg/treemap"
	"github.com/matzehuels/slocmap/pkg/view"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultWidth is the default frame width in pixels.
	DefaultWidth = 960.0

	// DefaultHeight is the default frame height in pixels, excluding margins.
	DefaultHeight = 550.0

	// DefaultSeed seeds the language palette.
	DefaultSeed = int64(1)

	// DefaultScale is the PNG resolution multiplier.
	DefaultScale = 2.0

	// MaxDimension bounds width and height.
	MaxDimension = 20000.0

	// MaxScale bounds the PNG resolution multiplier.
	MaxScale = 4.0
)

// DefaultDuration is the zoom animation length of interactive outputs.
const DefaultDuration = view.DefaultDuration

// Format constants for output formats.
const (
	FormatSVG      = "svg"
	FormatHTML     = "html"
	FormatPNG      = "png"
	FormatJSON     = "json"
	FormatDOT      = "dot"
	FormatNodelink = "nodelink"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:      true,
	FormatHTML:     true,
	FormatPNG:      true,
	FormatJSON:     true,
	FormatDOT:      true,
	FormatNodelink: true,
}

// Extension returns the file extension written for format.
func Extension(format string) string {
	if format == FormatNodelink {
		return "nodelink.svg"
	}
	return format
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Load options
	Source      string `json:"source,omitempty"`
	InputFormat string `json:"input_format,omitempty"` // json, yaml or gocloc; empty detects
	RootName    string `json:"root_name,omitempty"`    // Root name for gocloc input
	Refresh     bool   `json:"refresh,omitempty"`

	// Layout options
	Width        float64 `json:"width,omitempty"`
	Height       float64 `json:"height,omitempty"`
	PaddingInner float64 `json:"padding_inner,omitempty"`
	Round        bool    `json:"round,omitempty"`
	Ratio        float64 `json:"ratio,omitempty"`

	// Render options
	Formats       []string          `json:"formats,omitempty"`
	Focus         string            `json:"focus,omitempty"`
	Seed          int64             `json:"seed,omitempty"`
	Colors        map[string]string `json:"colors,omitempty"` // language → hex color
	Separator     string            `json:"separator,omitempty"`
	Margins       *sink.Margins     `json:"margins,omitempty"`
	Bars          bool              `json:"bars,omitempty"`
	Panels        bool              `json:"panels,omitempty"`
	Static        bool              `json:"static,omitempty"` // omit the zoom script
	Duration      time.Duration     `json:"duration,omitempty"`
	Legend        bool              `json:"legend,omitempty"`
	Title         string            `json:"title,omitempty"`
	Scale         float64           `json:"scale,omitempty"`
	AllCells      bool              `json:"all_cells,omitempty"` // JSON export of every cell
	NodelinkDepth int               `json:"nodelink_depth,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
	Stdin  io.Reader   `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Tree is the loaded source tree.
	Tree *tree.Node

	// TreeHash is the content hash of the tree.
	TreeHash string

	// Layout is the laid-out hierarchy.
	Layout *treemap.Cell

	// LayoutHash identifies the layout in artifact cache keys.
	LayoutHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Files      int
	Dirs       int
	Code       int
	LoadTime   time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LoadHit   bool // Whether the source document came from cache
	LayoutHit bool // Whether layout result came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return slerrors.New(slerrors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: svg, html, png, json, dot, nodelink)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ParseFormats splits a comma-separated format list.
func ParseFormats(s string) ([]string, error) {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(strings.ToLower(f)); f != "" {
			out = append(out, f)
		}
	}
	return out, ValidateFormats(out)
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func validateDimension(name string, v float64) error {
	if !finite(v) || v < 0 || v > MaxDimension {
		return slerrors.New(slerrors.ErrCodeInvalidInput, "%s must be between 0 and %g", name, MaxDimension)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks all fields and applies defaults for the full
// pipeline. Calling it more than once has no further effect.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks load options and applies defaults.
func (o *Options) ValidateForLoad() error {
	if o.Source == "" {
		o.Source = source.DefaultURL
	}
	if _, err := source.ParseFormat(o.InputFormat); err != nil {
		return err
	}
	o.setLogger()
	return nil
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.Ratio == 0 {
		o.Ratio = treemap.Phi
	}
	o.setLogger()
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	if err := validateDimension("width", o.Width); err != nil {
		return err
	}
	if err := validateDimension("height", o.Height); err != nil {
		return err
	}
	if !finite(o.PaddingInner) || o.PaddingInner < 0 {
		return slerrors.New(slerrors.ErrCodeInvalidInput, "padding must not be negative")
	}
	if !finite(o.Ratio) || o.Ratio < 1 {
		return slerrors.New(slerrors.ErrCodeInvalidInput, "ratio must be at least 1")
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.Separator == "" {
		o.Separator = view.DefaultSeparator
	}
	if o.Margins == nil {
		m := sink.DefaultMargins
		o.Margins = &m
	}
	if o.Duration == 0 {
		o.Duration = DefaultDuration
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	o.setLogger()
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetLayoutDefaults()
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if err := slerrors.ValidateFocus(o.Focus); err != nil {
		return err
	}
	for lang, hex := range o.Colors {
		if !palette.ValidColor(hex) {
			return slerrors.New(slerrors.ErrCodeInvalidInput, "invalid color %q for %s", hex, lang)
		}
	}
	if o.Duration < 0 {
		return slerrors.New(slerrors.ErrCodeInvalidInput, "duration must not be negative")
	}
	if !finite(o.Scale) || o.Scale <= 0 || o.Scale > MaxScale {
		return slerrors.New(slerrors.ErrCodeInvalidInput, "scale must be greater than 0 and at most %g", MaxScale)
	}
	if slices.Contains(o.Formats, FormatPNG) {
		if _, _, err := sink.PNGSize(o.Width, o.Height, *o.Margins, o.Scale); err != nil {
			return err
		}
	}
	return nil
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// SourceSpec returns the loader input for these options.
func (o *Options) SourceSpec() source.Spec {
	return source.Spec{
		Location: o.Source,
		Format:   source.Format(strings.ToLower(o.InputFormat)),
		RootName: o.RootName,
		Stdin:    o.Stdin,
		Refresh:  o.Refresh,
	}
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Width:        o.Width,
		Height:       o.Height,
		PaddingInner: o.PaddingInner,
		Round:        o.Round,
		Ratio:        o.Ratio,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{
		Format:      format,
		Focus:       o.Focus,
		Separator:   o.Separator,
		Seed:        o.Seed,
		Bars:        o.Bars,
		Panels:      o.Panels,
		Interactive: !o.Static,
		Legend:      o.Legend,
		Scale:       o.Scale,
		Title:       o.Title,

		Colors:        o.Colors,
		DurationMS:    o.Duration.Milliseconds(),
		AllCells:      o.AllCells,
		NodelinkDepth: o.NodelinkDepth,
	}
	if o.Margins != nil {
		k.Margins = fmt.Sprintf("%g,%g,%g,%g", o.Margins.Top, o.Margins.Right, o.Margins.Bottom, o.Margins.Left)
	}
	return k
}
