package layout

import (
	"strings"

	"github.com/matzehuels/pagestack/pkg/errors"
)

// Anchor names the cell corner a page-number label is attached to.
type Anchor int

const (
	TopLeft Anchor = iota
	TopRight
	BottomLeft
	BottomRight
)

// Anchors lists every anchor in declaration order.
var Anchors = []Anchor{TopLeft, TopRight, BottomLeft, BottomRight}

var anchorNames = [...]string{
	TopLeft:     "top-left",
	TopRight:    "top-right",
	BottomLeft:  "bottom-left",
	BottomRight: "bottom-right",
}

// Inset is the label offset from its anchor corner towards the cell interior.
// DX is horizontal, DY vertical, both in points and never negative.
type Inset struct {
	DX, DY float64
}

// Label offsets per corner. Top insets are larger because the point is a text
// baseline and the glyphs extend above it.
var insets = [...]Inset{
	TopLeft:     {DX: 10, DY: 20},
	TopRight:    {DX: 10, DY: 20},
	BottomLeft:  {DX: 10, DY: 10},
	BottomRight: {DX: 10, DY: 10},
}

// Align tells a renderer how label text relates to its point.
type Align int

const (
	// AlignLeft starts the text at the label point.
	AlignLeft Align = iota
	// AlignRight ends the text at the label point.
	AlignRight
)

func (a Align) String() string {
	if a == AlignRight {
		return "right"
	}
	return "left"
}

// MarshalText implements encoding.TextMarshaler.
func (a Align) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Align) UnmarshalText(b []byte) error {
	switch string(b) {
	case "left":
		*a = AlignLeft
	case "right":
		*a = AlignRight
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown label alignment %q", b)
	}
	return nil
}

// ParseAnchor parses an anchor name such as "top-left". Matching ignores case
// and accepts underscores or spaces in place of the hyphen.
func ParseAnchor(s string) (Anchor, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("_", "-", " ", "-").Replace(norm)
	for i, name := range anchorNames {
		if norm == name {
			return Anchor(i), nil
		}
	}
	return 0, errors.New(errors.ErrCodeInvalidAnchor,
		"unknown label anchor %q (valid: %s)", s, strings.Join(anchorNames[:], ", "))
}

// Valid reports whether a is one of the declared anchors.
func (a Anchor) Valid() bool { return a >= TopLeft && a <= BottomRight }

func (a Anchor) String() string {
	if !a.Valid() {
		return "invalid"
	}
	return anchorNames[a]
}

// Inset returns the anchor's fixed offset.
func (a Anchor) Inset() Inset {
	if !a.Valid() {
		return Inset{}
	}
	return insets[a]
}

// Align returns the text alignment used for labels at this anchor.
func (a Anchor) Align() Align {
	if a == TopRight || a == BottomRight {
		return AlignRight
	}
	return AlignLeft
}

// MarshalText implements encoding.TextMarshaler.
func (a Anchor) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, errors.New(errors.ErrCodeInvalidAnchor, "invalid label anchor %d", int(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Anchor) UnmarshalText(b []byte) error {
	v, err := ParseAnchor(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// ResolveLabelPoint returns the label point for anchor a inside cell.
// The point is the anchor's corner moved inward by the anchor's inset, so
// TopLeft yields exactly (cell.X0+dx, cell.Y0+dy).
func ResolveLabelPoint(a Anchor, cell Rect) Point {
	in := a.Inset()
	switch a {
	case TopRight:
		return Point{X: cell.X1 - in.DX, Y: cell.Y0 + in.DY}
	case BottomLeft:
		return Point{X: cell.X0 + in.DX, Y: cell.Y1 - in.DY}
	case BottomRight:
		return Point{X: cell.X1 - in.DX, Y: cell.Y1 - in.DY}
	default:
		return Point{X: cell.X0 + in.DX, Y: cell.Y0 + in.DY}
	}
}
