package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"

	"codeberg.org/go-pdf/fpdf"

	"github.com/matzehuels/pagestack/pkg/assemble"
	"github.com/matzehuels/pagestack/pkg/errors"
	"github.com/matzehuels/pagestack/pkg/layout"
	"github.com/matzehuels/pagestack/pkg/render"
	"github.com/matzehuels/pagestack/pkg/source"
)

func pdfSource(t *testing.T, pages int, w, h float64) *source.PDFSource {
	t.Helper()
	size := fpdf.SizeType{Wd: w, Ht: h}
	pdf := fpdf.NewCustom(&fpdf.InitType{OrientationStr: "P", UnitStr: "pt", Size: size})
	pdf.SetFont("Helvetica", "", 20)
	for i := range pages {
		pdf.AddPageFormat("P", size)
		pdf.Rect(10, 10, w-20, h-20, "D")
		pdf.Text(30, 50, string(rune('A'+i)))
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatal(err)
	}
	src, err := source.OpenPDF(buf.Bytes(), "")
	if err != nil {
		t.Fatalf("OpenPDF: %v", err)
	}
	return src
}

func imageSource(t *testing.T, pages, w, h int) *source.ImageSource {
	t.Helper()
	var ins []source.Input
	for i := range pages {
		img := image.NewRGBA(image.Rect(0, 0, w, h))
		for y := range h {
			for x := range w {
				img.Set(x, y, color.RGBA{R: uint8(40 * i), G: 100, B: 200, A: 255})
			}
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			t.Fatal(err)
		}
		ins = append(ins, source.Input{Name: "p.png", Data: buf.Bytes()})
	}
	src, err := source.OpenImages(ins)
	if err != nil {
		t.Fatal(err)
	}
	return src
}

func run(t *testing.T, format render.Format, src source.Source, rows, cols int, opts ...Option) assemble.Document {
	t.Helper()
	g, err := assemble.GeometryFor(src, rows, cols)
	if err != nil {
		t.Fatal(err)
	}
	r, err := New(format, src, opts...)
	if err != nil {
		t.Fatal(err)
	}
	doc, err := assemble.Assemble(context.Background(), src, g, layout.TopLeft, r)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	return doc
}

func docBytes(t *testing.T, doc assemble.Document) []byte {
	t.Helper()
	data, err := Bytes(doc)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestPDFRendererFromPDF(t *testing.T) {
	src := pdfSource(t, 5, 300, 400)
	doc := run(t, render.FormatPDF, src, 2, 2, WithTitle("merged"))

	if doc.Sheets() != 2 {
		t.Errorf("Sheets() = %d, want 2", doc.Sheets())
	}
	if doc.ContentType() != "application/pdf" {
		t.Errorf("ContentType() = %q", doc.ContentType())
	}

	out, err := source.OpenPDF(docBytes(t, doc), "")
	if err != nil {
		t.Fatalf("output is not a readable PDF: %v", err)
	}
	if out.NumPages() != 2 {
		t.Fatalf("output has %d pages, want 2", out.NumPages())
	}
	w, h, _ := out.PageSize(1)
	if math.Abs(w-600) > 0.01 || math.Abs(h-800) > 0.01 {
		t.Errorf("sheet size = %vx%v, want 600x800", w, h)
	}
}

func TestPDFRendererFromImages(t *testing.T) {
	doc := run(t, render.FormatPDF, imageSource(t, 3, 60, 40), 1, 2)
	n, err := PageCount(docBytes(t, doc))
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 || doc.Sheets() != 2 {
		t.Errorf("got %d pages / %d sheets, want 2", n, doc.Sheets())
	}
}

func TestPDFRendererEmptySource(t *testing.T) {
	src, err := source.OpenImages(nil)
	if err != nil {
		t.Fatal(err)
	}
	doc := run(t, render.FormatPDF, src, 2, 2)
	if doc.Sheets() != 0 {
		t.Errorf("Sheets() = %d, want 0", doc.Sheets())
	}
	n, err := PageCount(docBytes(t, doc))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("empty document has %d pages, want a single blank page", n)
	}
}

func TestOptimize(t *testing.T) {
	doc := run(t, render.FormatPDF, pdfSource(t, 4, 200, 200), 2, 2)
	opt, err := Optimize(docBytes(t, doc))
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	n, err := PageCount(opt)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("optimized PDF has %d pages, want 1", n)
	}
}

func TestPNGRenderer(t *testing.T) {
	doc := run(t, render.FormatPNG, imageSource(t, 3, 40, 30), 1, 2, WithScale(1))
	if doc.Sheets() != 2 {
		t.Errorf("Sheets() = %d, want 2", doc.Sheets())
	}

	img, err := png.Decode(bytes.NewReader(docBytes(t, doc)))
	if err != nil {
		t.Fatal(err)
	}
	b := img.Bounds()
	wantW := 80 + 2*previewGap
	wantH := 2*30 + 3*previewGap
	if b.Dx() != wantW || b.Dy() != wantH {
		t.Errorf("preview = %dx%d, want %dx%d", b.Dx(), b.Dy(), wantW, wantH)
	}

	// Center of the first cell shows the first image.
	got := color.RGBAModel.Convert(img.At(previewGap+30, previewGap+25)).(color.RGBA)
	if off(got.R, 0) || off(got.G, 100) || off(got.B, 200) {
		t.Errorf("cell pixel = %v, want about 0,100,200", got)
	}
}

// off reports whether got is off from want by more than rounding.
func off(got, want uint8) bool {
	return math.Abs(float64(got)-float64(want)) > 2
}

func TestPNGRendererPlaceholder(t *testing.T) {
	doc := run(t, render.FormatPNG, pdfSource(t, 1, 100, 100), 1, 1, WithScale(1))
	img, err := png.Decode(bytes.NewReader(docBytes(t, doc)))
	if err != nil {
		t.Fatal(err)
	}
	got := color.RGBAModel.Convert(img.At(previewGap+50, previewGap+60)).(color.RGBA)
	if got != placeholderFill {
		t.Errorf("placeholder pixel = %v, want %v", got, placeholderFill)
	}
}

func TestPNGRendererEmpty(t *testing.T) {
	src, _ := source.OpenImages(nil)
	doc := run(t, render.FormatPNG, src, 2, 2)
	if _, err := png.Decode(bytes.NewReader(docBytes(t, doc))); err != nil {
		t.Errorf("empty preview is not a PNG: %v", err)
	}
}

func TestJSONRenderer(t *testing.T) {
	src := imageSource(t, 3, 10, 20)
	style := render.DefaultLabelStyle()
	style.Color = color.RGBA{R: 0xcc, A: 0xff}

	doc := run(t, render.FormatJSON, src, 1, 2,
		WithLabelStyle(style),
		WithPlanMeta(PlanMeta{Input: "photos", Rows: 1, Cols: 2}))

	var plan Plan
	if err := json.Unmarshal(docBytes(t, doc), &plan); err != nil {
		t.Fatalf("invalid JSON plan: %v", err)
	}
	if plan.Sheets != 2 || plan.Pages != 3 || plan.Kind != "image" {
		t.Errorf("plan header = %d sheets, %d pages, kind %q", plan.Sheets, plan.Pages, plan.Kind)
	}
	if plan.SheetWidth != 20 || plan.SheetHeight != 20 {
		t.Errorf("sheet size = %vx%v, want 20x20", plan.SheetWidth, plan.SheetHeight)
	}
	if plan.Label.Color != "#cc0000" || plan.Input != "photos" {
		t.Errorf("label color %q input %q", plan.Label.Color, plan.Input)
	}
	if len(plan.Placements) != 3 {
		t.Fatalf("got %d placements, want 3", len(plan.Placements))
	}
	last := plan.Placements[2]
	if last.Sheet != 1 || last.Page != 2 || last.Label == nil || last.Label.Text != "3" {
		t.Errorf("last placement = %+v", last)
	}
}

func TestNewErrors(t *testing.T) {
	src := imageSource(t, 1, 2, 2)

	tests := []struct {
		name   string
		format render.Format
		src    source.Source
		opts   []Option
		code   errors.Code
	}{
		{"unknown format", "svg", src, nil, errors.ErrCodeInvalidFormat},
		{"nil source", render.FormatPDF, nil, nil, errors.ErrCodeInvalidInput},
		{"bad font", render.FormatPDF, src, []Option{WithLabelStyle(render.LabelStyle{Font: "Papyrus", Size: 12})}, errors.ErrCodeInvalidLabel},
		{"bad scale", render.FormatPNG, src, []Option{WithScale(0)}, errors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.format, tt.src, tt.opts...)
			if !errors.Is(err, tt.code) {
				t.Errorf("New() error = %v, want %v", err, tt.code)
			}
		})
	}
}

func TestRendererRejectsBadSheet(t *testing.T) {
	for _, f := range render.Formats {
		r, err := New(f, imageSource(t, 1, 2, 2))
		if err != nil {
			t.Fatal(err)
		}
		if err := r.Begin(1, 10, 10); err != nil {
			t.Fatal(err)
		}
		if err := r.DrawPage(3, 0, layout.Rect{X1: 10, Y1: 10}); !errors.Is(err, errors.ErrCodeRender) {
			t.Errorf("%s: DrawPage on sheet 3 error = %v, want RENDER_FAILED", f, err)
		}
	}
}

func TestFit(t *testing.T) {
	tests := []struct {
		w, h, dw, dh float64
		x, y, fw, fh float64
	}{
		{100, 50, 200, 200, 0, 50, 200, 100},
		{50, 100, 200, 200, 50, 0, 100, 200},
		{10, 10, 30, 30, 0, 0, 30, 30},
		{0, 10, 30, 30, 0, 0, 30, 30},
	}

	for _, tt := range tests {
		x, y, fw, fh := fit(tt.w, tt.h, 0, 0, tt.dw, tt.dh)
		if x != tt.x || y != tt.y || fw != tt.fw || fh != tt.fh {
			t.Errorf("fit(%v,%v in %vx%v) = %v,%v %vx%v, want %v,%v %vx%v",
				tt.w, tt.h, tt.dw, tt.dh, x, y, fw, fh, tt.x, tt.y, tt.fw, tt.fh)
		}
	}
}
