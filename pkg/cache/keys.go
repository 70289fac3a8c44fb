package cache

// Keyer builds cache keys. Swap it out to namespace keys per tenant, see
// [ScopedKeyer].
type Keyer interface {
	// SourceKey identifies the PDF converted from an input with the given
	// content hash.
	SourceKey(inputHash string, opts SourceKeyOpts) string

	// ArtifactKey identifies one rendered output of a source.
	ArtifactKey(sourceHash string, opts ArtifactKeyOpts) string
}

// SourceKeyOpts holds the conversion settings that change the converted PDF.
type SourceKeyOpts struct {
	Kind      string `json:"kind"`
	Extension string `json:"ext"`
	Converter string `json:"converter,omitempty"`
}

// ArtifactKeyOpts holds every render setting that changes output bytes.
type ArtifactKeyOpts struct {
	Format    string  `json:"format"`
	Rows      int     `json:"rows"`
	Cols      int     `json:"cols"`
	Anchor    string  `json:"anchor"`
	Label     string  `json:"label"`
	Font      string  `json:"font"`
	FontSize  float64 `json:"font_size"`
	Color     string  `json:"color"`
	Scale     float64 `json:"scale,omitempty"`
	Title     string  `json:"title,omitempty"`
	Optimized bool    `json:"optimized,omitempty"`
}

// DefaultKeyer produces "source:<hash>" and "artifact:<hash>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// SourceKey implements [Keyer].
func (DefaultKeyer) SourceKey(inputHash string, opts SourceKeyOpts) string {
	return hashKey("source", inputHash, opts)
}

// ArtifactKey implements [Keyer].
func (DefaultKeyer) ArtifactKey(sourceHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", sourceHash, opts)
}
