package assemble

import (
	"context"
	"io"
	"math"

	"github.com/matzehuels/pagestack/pkg/errors"
	"github.com/matzehuels/pagestack/pkg/layout"
)

// UniformTolerance is the largest difference in points between two page
// sizes that still counts as the same size.
const UniformTolerance = 0.01

// A4 dimensions in points, used as the cell size of an empty source.
const (
	A4Width  = 595.28
	A4Height = 841.89
)

// Source is the part of a page source the assembler needs.
type Source interface {
	NumPages() int
	PageSize(index int) (width, height float64, err error)
}

// Label is a page-number label ready to be stamped.
type Label struct {
	Text  string
	At    layout.Point
	Align layout.Align
}

// Renderer draws placed pages onto output sheets.
//
// Calls arrive in a fixed order: one Begin, then for every placement a
// DrawPage followed by a DrawLabel for the same sheet, then one Finish.
// Sheet and page indices are 0-based. Any error aborts the run.
type Renderer interface {
	Begin(sheets int, width, height float64) error
	DrawPage(sheet, page int, dest layout.Rect) error
	DrawLabel(sheet int, label Label) error
	Finish() (Document, error)
}

// Document is a finished output document.
type Document interface {
	io.WriterTo
	// Sheets returns the number of output sheets.
	Sheets() int
	// ContentType returns the MIME type of the serialized document.
	ContentType() string
}

// State is the lifecycle state of an Assembler.
type State int

const (
	StateNew State = iota
	StatePlacing
	StateAssembled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StatePlacing:
		return "placing"
	case StateAssembled:
		return "assembled"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// ProgressFunc is called after each placed page with the number of pages
// placed so far and the total page count.
type ProgressFunc func(done, total int)

// Option configures an Assembler.
type Option func(*Assembler)

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(a *Assembler) { a.progress = fn }
}

// WithLabeler sets the label text function. See [layout.Template].
func WithLabeler(fn layout.Labeler) Option {
	return func(a *Assembler) { a.labeler = fn }
}

// Assembler places every page of a source onto renderer sheets.
type Assembler struct {
	src      Source
	geom     layout.Geometry
	anchor   layout.Anchor
	renderer Renderer

	progress ProgressFunc
	labeler  layout.Labeler

	state State
}

// New returns an Assembler in StateNew.
func New(src Source, g layout.Geometry, anchor layout.Anchor, r Renderer, opts ...Option) *Assembler {
	a := &Assembler{src: src, geom: g, anchor: anchor, renderer: r}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// State returns the current lifecycle state.
func (a *Assembler) State() State { return a.state }

// Assemble is shorthand for New(...).Run(ctx).
func Assemble(ctx context.Context, src Source, g layout.Geometry, anchor layout.Anchor, r Renderer, opts ...Option) (Document, error) {
	return New(src, g, anchor, r, opts...).Run(ctx)
}

// Run validates the inputs, draws every placement and returns the finished
// document. Validation failures leave the assembler in StateNew so that the
// caller can inspect it; renderer and cancellation failures move it to
// StateFailed.
func (a *Assembler) Run(ctx context.Context) (Document, error) {
	if a.state != StateNew {
		return nil, errors.New(errors.ErrCodeInvalidInput, "assembler already ran (state %s)", a.state)
	}
	if err := a.validate(); err != nil {
		return nil, err
	}

	a.state = StatePlacing
	doc, err := a.place(ctx)
	if err != nil {
		a.state = StateFailed
		return nil, err
	}
	a.state = StateAssembled
	return doc, nil
}

func (a *Assembler) validate() error {
	if a.src == nil {
		return errors.New(errors.ErrCodeInvalidInput, "page source is required")
	}
	if a.renderer == nil {
		return errors.New(errors.ErrCodeInvalidInput, "renderer is required")
	}
	if a.geom.IsZero() {
		return errors.New(errors.ErrCodeInvalidGeometry, "geometry is not initialized")
	}
	if !a.anchor.Valid() {
		return errors.New(errors.ErrCodeInvalidAnchor, "invalid label anchor %d", int(a.anchor))
	}
	_, _, err := CheckUniform(a.src)
	return err
}

func (a *Assembler) place(ctx context.Context) (Document, error) {
	total := a.src.NumPages()
	sheets := a.geom.TotalSheets(total)

	if err := a.renderer.Begin(sheets, a.geom.SheetWidth(), a.geom.SheetHeight()); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "begin %d sheets", sheets)
	}

	done := 0
	for p := range layout.Pack(total, a.geom, a.anchor, layout.WithLabeler(a.labeler)) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := a.renderer.DrawPage(p.SheetIndex, p.SourceIndex, p.Dest); err != nil {
			return nil, errors.Wrap(errors.ErrCodeRender, err, "draw page %d on sheet %d", p.SourceIndex+1, p.SheetIndex+1)
		}
		label := Label{Text: p.LabelText, At: p.Label, Align: p.LabelAlign}
		if err := a.renderer.DrawLabel(p.SheetIndex, label); err != nil {
			return nil, errors.Wrap(errors.ErrCodeRender, err, "draw label for page %d", p.SourceIndex+1)
		}
		done++
		if a.progress != nil {
			a.progress(done, total)
		}
	}

	doc, err := a.renderer.Finish()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "finish document")
	}
	return doc, nil
}

// CheckUniform returns the page size shared by every page of src.
// It fails with NON_UNIFORM_PAGE_SIZE on the first page whose size differs
// from page 1 by more than UniformTolerance. An empty source returns 0, 0.
func CheckUniform(src Source) (width, height float64, err error) {
	n := src.NumPages()
	if n == 0 {
		return 0, 0, nil
	}
	width, height, err = src.PageSize(0)
	if err != nil {
		return 0, 0, errors.Wrap(errors.ErrCodeInvalidInput, err, "read size of page 1")
	}
	for i := 1; i < n; i++ {
		w, h, err := src.PageSize(i)
		if err != nil {
			return 0, 0, errors.Wrap(errors.ErrCodeInvalidInput, err, "read size of page %d", i+1)
		}
		if math.Abs(w-width) > UniformTolerance || math.Abs(h-height) > UniformTolerance {
			return 0, 0, errors.New(errors.ErrCodeNonUniformPageSize,
				"page %d is %.2fx%.2f pt but page 1 is %.2fx%.2f pt", i+1, w, h, width, height)
		}
	}
	return width, height, nil
}

// GeometryFor builds a rows × cols geometry whose cells match the page size
// of src. An empty source gets A4 portrait cells.
func GeometryFor(src Source, rows, cols int) (layout.Geometry, error) {
	w, h, err := CheckUniform(src)
	if err != nil {
		return layout.Geometry{}, err
	}
	if src.NumPages() == 0 {
		w, h = A4Width, A4Height
	}
	return layout.NewGeometry(rows, cols, w, h)
}
