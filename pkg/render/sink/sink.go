package sink

import (
	"bytes"
	"io"

	"github.com/matzehuels/pagestack/pkg/assemble"
	"github.com/matzehuels/pagestack/pkg/errors"
	"github.com/matzehuels/pagestack/pkg/render"
	"github.com/matzehuels/pagestack/pkg/source"
)

// Option configures a renderer built with [New].
type Option func(*config)

type config struct {
	style render.LabelStyle
	title string
	scale float64
	meta  PlanMeta
}

// WithLabelStyle sets the label font, size and color.
func WithLabelStyle(s render.LabelStyle) Option {
	return func(c *config) { c.style = s }
}

// WithTitle sets the PDF document title.
func WithTitle(title string) Option { return func(c *config) { c.title = title } }

// WithScale sets the PNG pixels-per-point factor (default 0.5).
func WithScale(s float64) Option { return func(c *config) { c.scale = s } }

// WithPlanMeta records extra fields in the JSON plan.
func WithPlanMeta(m PlanMeta) Option { return func(c *config) { c.meta = m } }

func newConfig(opts []Option) config {
	c := config{style: render.DefaultLabelStyle(), scale: 0.5}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// New returns a renderer for format drawing pages from src.
func New(format render.Format, src source.Source, opts ...Option) (assemble.Renderer, error) {
	if src == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "page source is required")
	}
	c := newConfig(opts)
	style, err := c.style.Validate()
	if err != nil {
		return nil, err
	}
	c.style = style

	switch format {
	case render.FormatPDF:
		return newPDFRenderer(src, c), nil
	case render.FormatPNG:
		if !(c.scale > 0 && c.scale <= 4) {
			return nil, errors.New(errors.ErrCodeInvalidInput, "PNG scale must be in (0, 4], got %v", c.scale)
		}
		return newPNGRenderer(src, c), nil
	case render.FormatJSON:
		return newJSONRenderer(src, c), nil
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown output format %q", format)
}

// bytesDocument is a finished in-memory document.
type bytesDocument struct {
	data        []byte
	sheets      int
	contentType string
}

func (d *bytesDocument) Sheets() int         { return d.sheets }
func (d *bytesDocument) ContentType() string { return d.contentType }
func (d *bytesDocument) Bytes() []byte       { return d.data }

func (d *bytesDocument) WriteTo(w io.Writer) (int64, error) {
	return bytes.NewReader(d.data).WriteTo(w)
}

// Bytes returns the serialized form of doc.
func Bytes(doc assemble.Document) ([]byte, error) {
	if b, ok := doc.(interface{ Bytes() []byte }); ok {
		return b.Bytes(), nil
	}
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// checkSheet validates sheet against the count announced in Begin.
func checkSheet(sheet, sheets int) error {
	if sheet < 0 || sheet >= sheets {
		return errors.New(errors.ErrCodeRender, "sheet %d out of range [0, %d)", sheet, sheets)
	}
	return nil
}

// fit returns the largest rectangle with aspect w:h centered in dest.
func fit(w, h float64, x0, y0, dw, dh float64) (x, y, fw, fh float64) {
	if w <= 0 || h <= 0 {
		return x0, y0, dw, dh
	}
	scale := min(dw/w, dh/h)
	fw, fh = w*scale, h*scale
	return x0 + (dw-fw)/2, y0 + (dh-fh)/2, fw, fh
}
