package layout

import (
	"iter"
	"strconv"
	"strings"

	"github.com/matzehuels/pagestack/pkg/errors"
)

// Placement maps one source page to one cell of one sheet.
type Placement struct {
	SourceIndex int    `json:"page"`  // 0-based index into the source
	SheetIndex  int    `json:"sheet"` // 0-based output sheet
	Row         int    `json:"row"`
	Col         int    `json:"col"`
	Dest        Rect   `json:"dest"`
	Label       Point  `json:"label"`
	LabelText   string `json:"label_text"`
	LabelAlign  Align  `json:"label_align"`
}

// Labeler returns the label text for a 1-based page number.
type Labeler func(page int) string

// PageNumber is the default labeler: the bare decimal page number.
func PageNumber(page int) string { return strconv.Itoa(page) }

// Template returns a labeler that replaces every "{n}" in tmpl with the page
// number, e.g. Template("Page {n}")(3) == "Page 3".
func Template(tmpl string) Labeler {
	if tmpl == "" || tmpl == "{n}" {
		return PageNumber
	}
	return func(page int) string {
		return strings.ReplaceAll(tmpl, "{n}", strconv.Itoa(page))
	}
}

// Option configures [Pack] and [Place].
type Option func(*packConfig)

type packConfig struct {
	labeler Labeler
}

// WithLabeler sets the label text function. A nil labeler keeps the default.
func WithLabeler(fn Labeler) Option {
	return func(c *packConfig) {
		if fn != nil {
			c.labeler = fn
		}
	}
}

func newPackConfig(opts []Option) packConfig {
	c := packConfig{labeler: PageNumber}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Place returns the placement of source page pageIndex. It fails with
// INVALID_GEOMETRY for a zero-value geometry and INVALID_INPUT for a
// negative index.
func Place(pageIndex int, g Geometry, a Anchor, opts ...Option) (Placement, error) {
	if g.IsZero() {
		return Placement{}, errors.New(errors.ErrCodeInvalidGeometry, "geometry is not initialized")
	}
	if pageIndex < 0 {
		return Placement{}, errors.New(errors.ErrCodeInvalidInput, "page index must not be negative, got %d", pageIndex)
	}
	return place(pageIndex, g, a, newPackConfig(opts)), nil
}

func place(i int, g Geometry, a Anchor, c packConfig) Placement {
	n := g.CellsPerSheet()
	pos := i % n
	row, col := pos/g.cols, pos%g.cols
	dest := g.CellRect(row, col)
	return Placement{
		SourceIndex: i,
		SheetIndex:  i / n,
		Row:         row,
		Col:         col,
		Dest:        dest,
		Label:       ResolveLabelPoint(a, dest),
		LabelText:   c.labeler(i + 1),
		LabelAlign:  a.Align(),
	}
}

// Pack yields one placement per source page in ascending page order.
// Sheet indices never decrease. Negative page counts and zero-value
// geometries yield nothing. The sequence can be ranged over any number of
// times and each pass produces identical values.
func Pack(numPages int, g Geometry, a Anchor, opts ...Option) iter.Seq[Placement] {
	c := newPackConfig(opts)
	return func(yield func(Placement) bool) {
		if g.IsZero() {
			return
		}
		for i := 0; i < numPages; i++ {
			if !yield(place(i, g, a, c)) {
				return
			}
		}
	}
}

// Collect drains a placement sequence into a slice.
func Collect(seq iter.Seq[Placement]) []Placement {
	var out []Placement
	for p := range seq {
		out = append(out, p)
	}
	return out
}

// Sheets groups a placement sequence by sheet index. Sheet i of the result
// holds the placements with SheetIndex == i in page order.
func Sheets(seq iter.Seq[Placement]) [][]Placement {
	var out [][]Placement
	for p := range seq {
		for len(out) <= p.SheetIndex {
			out = append(out, nil)
		}
		out[p.SheetIndex] = append(out[p.SheetIndex], p)
	}
	return out
}
