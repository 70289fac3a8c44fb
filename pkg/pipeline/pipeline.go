// Package pipeline provides the merge pipeline shared by the CLI and the
// HTTP server.
//
// # Architecture
//
// A run has three stages:
//
//  1. Open: detect the input format and convert it to a paginated source
//  2. Layout: derive the grid geometry from the source page size
//  3. Render: assemble one document per requested format
//
// Each stage can be run on its own or through [Runner.Execute], which adds
// caching of converted sources and rendered outputs.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	opts := pipeline.Options{
//	    Inputs:  []source.Input{{Name: "slides.pptx", Data: data}},
//	    Rows:    2,
//	    Cols:    2,
//	    Formats: []string{"pdf"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	merged := result.Artifacts[render.FormatPDF]
package pipeline

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pagestack/pkg/assemble"
	"github.com/matzehuels/pagestack/pkg/cache"
	"github.com/matzehuels/pagestack/pkg/errors"
	"github.com/matzehuels/pagestack/pkg/layout"
	"github.com/matzehuels/pagestack/pkg/render"
	"github.com/matzehuels/pagestack/pkg/source"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, Config and Server
// =============================================================================

const (
	// DefaultRows is the number of grid rows per sheet.
	DefaultRows = 2

	// DefaultCols is the number of grid columns per sheet.
	DefaultCols = 2

	// DefaultLabel is the label template: the bare page number.
	DefaultLabel = "{n}"

	// DefaultScale is the PNG preview scale in pixels per point.
	DefaultScale = 0.5

	// OutputSuffix is appended to the input stem to name merged output.
	OutputSuffix = "_merged"
)

// DefaultAnchor is the default label corner.
const DefaultAnchor = layout.TopLeft

// DefaultFormat is the default output format.
const DefaultFormat = render.FormatPDF

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one merge. Zero values select
// defaults; the struct supports JSON and is what the server decodes form
// fields into.
type Options struct {
	// Input documents. Several inputs are only allowed for images.
	Inputs []source.Input `json:"-"`

	// Layout options
	Rows   int    `json:"rows,omitempty"`
	Cols   int    `json:"cols,omitempty"`
	Anchor string `json:"anchor,omitempty"`

	// Label options
	Label    string  `json:"label,omitempty"` // Template, "{n}" is the page number
	Font     string  `json:"font,omitempty"`
	FontSize float64 `json:"font_size,omitempty"`
	Color    string  `json:"color,omitempty"`

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Title    string   `json:"title,omitempty"`
	Scale    float64  `json:"scale,omitempty"`
	Optimize bool     `json:"optimize,omitempty"`
	Refresh  bool     `json:"refresh,omitempty"` // Bypass cached outputs

	// Runtime options (not serialized)
	Password  string                `json:"-"`
	Converter source.Converter      `json:"-"`
	Progress  assemble.ProgressFunc `json:"-"`
	Logger    *log.Logger           `json:"-"`

	// Parsed during validation.
	anchor  layout.Anchor
	formats []render.Format
	style   render.LabelStyle

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Kind is the detected input kind.
	Kind source.Kind

	// SourceHash identifies the input content.
	SourceHash string

	// Pages and Sheets count source pages and output sheets.
	Pages  int
	Sheets int

	// Geometry is the grid used for every output.
	Geometry layout.Geometry

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[render.Format][]byte

	// Stats contains timing information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	OpenTime   time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	SourceHit bool // Converted PDF came from cache
	RenderHit bool // All artifacts came from cache
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks every field, fills in defaults and parses the
// string-typed settings. It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if len(o.Inputs) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "no input document")
	}
	for _, in := range o.Inputs {
		if _, err := source.Detect(in.Name); err != nil {
			return err
		}
	}
	if err := o.validateLayout(); err != nil {
		return err
	}
	if err := o.validateRender(); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	o.validated = true
	return nil
}

func (o *Options) validateLayout() error {
	if o.Rows == 0 {
		o.Rows = DefaultRows
	}
	if o.Cols == 0 {
		o.Cols = DefaultCols
	}
	if o.Rows < 1 || o.Cols < 1 {
		return errors.New(errors.ErrCodeInvalidGeometry, "grid must be at least 1x1, got %dx%d", o.Rows, o.Cols)
	}

	o.anchor = DefaultAnchor
	if o.Anchor != "" {
		a, err := layout.ParseAnchor(o.Anchor)
		if err != nil {
			return err
		}
		o.anchor = a
	}
	o.Anchor = o.anchor.String()
	return nil
}

func (o *Options) validateRender() error {
	if o.Label == "" {
		o.Label = DefaultLabel
	}
	if err := errors.ValidateLabelTemplate(o.Label); err != nil {
		return err
	}

	style := render.DefaultLabelStyle()
	if o.Font != "" {
		style.Font = o.Font
	}
	if o.FontSize != 0 {
		style.Size = o.FontSize
	}
	if o.Color != "" {
		var err error
		if style, err = style.WithColor(o.Color); err != nil {
			return err
		}
	}
	style, err := style.Validate()
	if err != nil {
		return err
	}
	o.style = style
	o.Font, o.FontSize, o.Color = style.Font, style.Size, render.HexColor(style.Color)

	formats, err := render.ParseFormats(o.Formats)
	if err != nil {
		return err
	}
	if len(formats) == 0 {
		formats = []render.Format{DefaultFormat}
	}
	o.formats = formats
	o.Formats = make([]string, 0, len(formats))
	for _, f := range formats {
		o.Formats = append(o.Formats, string(f))
	}

	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if !(o.Scale > 0 && o.Scale <= 4) {
		return errors.New(errors.ErrCodeInvalidInput, "preview scale must be in (0, 4], got %v", o.Scale)
	}
	return nil
}

// AnchorValue returns the parsed label anchor. Valid after
// ValidateAndSetDefaults.
func (o *Options) AnchorValue() layout.Anchor { return o.anchor }

// FormatValues returns the parsed output formats in request order.
func (o *Options) FormatValues() []render.Format { return o.formats }

// LabelStyle returns the validated label style.
func (o *Options) LabelStyle() render.LabelStyle { return o.style }

// Labeler returns the label text function for the template.
func (o *Options) Labeler() layout.Labeler { return layout.Template(o.Label) }

// InputName returns the name used for output naming and the JSON plan: the
// first input, plus a count when several images are combined.
func (o *Options) InputName() string {
	switch len(o.Inputs) {
	case 0:
		return ""
	case 1:
		return o.Inputs[0].Name
	}
	return fmt.Sprintf("%s (+%d)", o.Inputs[0].Name, len(o.Inputs)-1)
}

// ArtifactKeyOpts returns cache key options for one output format.
func (o *Options) ArtifactKeyOpts(format render.Format) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{
		Format:   string(format),
		Rows:     o.Rows,
		Cols:     o.Cols,
		Anchor:   o.Anchor,
		Label:    o.Label,
		Font:     o.Font,
		FontSize: o.FontSize,
		Color:    o.Color,
		Title:    o.Title,
	}
	switch format {
	case render.FormatPNG:
		k.Scale = o.Scale
	case render.FormatPDF:
		k.Optimized = o.Optimize
	}
	return k
}

// OutputName returns the file name for a merged output of input, e.g.
// "lecture.pptx" and pdf give "lecture_merged.pdf".
func OutputName(input string, format render.Format) string {
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." || stem == string(filepath.Separator) {
		stem = "document"
	}
	return stem + OutputSuffix + format.Extension()
}
