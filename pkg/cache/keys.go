package cache

// Keyer derives cache keys for each pipeline stage.
type Keyer interface {
	// SourceKey identifies a fetched source document.
	SourceKey(url string) string
	// LayoutKey identifies a layout of the tree with the given content hash.
	LayoutKey(treeHash string, opts LayoutKeyOpts) string
	// ArtifactKey identifies a rendered output of a layout.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts lists the inputs that change a layout.
type LayoutKeyOpts struct {
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	PaddingInner float64 `json:"padding_inner"`
	Round        bool    `json:"round"`
	Ratio        float64 `json:"ratio"`
}

// ArtifactKeyOpts lists the inputs that change a rendered output.
type ArtifactKeyOpts struct {
	Format      string  `json:"format"`
	Focus       string  `json:"focus"`
	Separator   string  `json:"separator"`
	Seed        int64   `json:"seed"`
	Bars        bool    `json:"bars"`
	Panels      bool    `json:"panels"`
	Interactive bool    `json:"interactive"`
	Legend      bool    `json:"legend"`
	Scale       float64 `json:"scale"`
	Margins     string  `json:"margins"`
	Title       string  `json:"title"`
	// Less common inputs, omitted from the key when unset.
	Colors        map[string]string `json:"colors,omitempty"`
	DurationMS    int64             `json:"duration_ms,omitempty"`
	AllCells      bool              `json:"all_cells,omitempty"`
	NodelinkDepth int               `json:"nodelink_depth,omitempty"`
}

// DefaultKeyer produces unprefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default [Keyer].
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) SourceKey(url string) string {
	return hashKey("source", url)
}

func (DefaultKeyer) LayoutKey(treeHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", treeHash, opts)
}

func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}
