package source

import (
	"bytes"
	"strings"

	"codeberg.org/go-pdf/fpdf"
)

// Page formats used for converted documents, in points. Pages are always
// added in "P" orientation with explicit dimensions; fpdf swaps width and
// height for "L".
var (
	pageA4          = fpdf.SizeType{Wd: 595.28, Ht: 841.89}
	pageA4Landscape = fpdf.SizeType{Wd: 841.89, Ht: 595.28}
	pageSlide       = fpdf.SizeType{Wd: 720, Ht: 405}
)

// typesetter lays out plain text on fixed-size pages. Text is encoded to
// Windows-1252 for the core PDF fonts.
type typesetter struct {
	pdf      *fpdf.Fpdf
	tr       func(string) string
	size     fpdf.SizeType
	family   string
	fontSize float64
	lineH    float64
	margin   float64
	started  bool
}

func newTypesetter(size fpdf.SizeType, family string, fontSize float64) *typesetter {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           size,
	})
	margin := 56.0
	if size.Ht < 500 {
		margin = 36
	}
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.SetFont(family, "", fontSize)

	return &typesetter{
		pdf:      pdf,
		tr:       pdf.UnicodeTranslatorFromDescriptor(""),
		size:     size,
		family:   family,
		fontSize: fontSize,
		lineH:    fontSize * 1.3,
		margin:   margin,
	}
}

// newPage starts a fresh page unless the current one is still empty.
func (t *typesetter) newPage() {
	if t.started && t.pdf.GetY() <= t.margin {
		return
	}
	t.addPage()
}

// addPage always starts a new page.
func (t *typesetter) addPage() {
	t.pdf.AddPageFormat("P", t.size)
	t.started = true
}

func (t *typesetter) ensurePage() {
	if !t.started {
		t.newPage()
	}
}

func (t *typesetter) width() float64 {
	return t.size.Wd - 2*t.margin
}

// heading writes a bold line in a larger size.
func (t *typesetter) heading(s string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	t.ensurePage()
	t.pdf.SetFont(t.family, "B", t.fontSize*1.4)
	t.pdf.MultiCell(t.width(), t.lineH*1.4, t.tr(s), "", "L", false)
	t.pdf.SetFont(t.family, "", t.fontSize)
	t.pdf.Ln(t.lineH / 2)
}

// text writes s with line wrapping. A form feed starts a new page.
func (t *typesetter) text(s string) {
	t.ensurePage()
	for i, chunk := range strings.Split(s, "\f") {
		if i > 0 {
			t.newPage()
		}
		if chunk == "" {
			continue
		}
		t.pdf.MultiCell(t.width(), t.lineH, t.tr(chunk), "", "L", false)
	}
}

// indented writes s as a list item at the given level.
func (t *typesetter) indented(level int, bullet, s string) {
	t.ensurePage()
	indent := float64(level+1) * t.fontSize * 1.5
	t.pdf.SetX(t.margin + indent)
	t.pdf.MultiCell(t.width()-indent, t.lineH, t.tr(bullet+" "+s), "", "L", false)
}

func (t *typesetter) bytes() ([]byte, error) {
	t.ensurePage()
	var buf bytes.Buffer
	if err := t.pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
