package sink

import (
	"bytes"
	"fmt"
	"io"

	"codeberg.org/go-pdf/fpdf"
	"codeberg.org/go-pdf/fpdf/contrib/gofpdi"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/matzehuels/pagestack/pkg/assemble"
	"github.com/matzehuels/pagestack/pkg/errors"
	"github.com/matzehuels/pagestack/pkg/layout"
	"github.com/matzehuels/pagestack/pkg/render"
	"github.com/matzehuels/pagestack/pkg/source"
)

// PDFRenderer writes N-up sheets as a PDF document.
type PDFRenderer struct {
	src   source.Source
	style render.LabelStyle
	title string

	pdf    *fpdf.Fpdf
	tr     func(string) string
	size   fpdf.SizeType
	sheets int
	added  int

	imp *gofpdi.Importer
	rs  io.ReadSeeker
}

func newPDFRenderer(src source.Source, c config) *PDFRenderer {
	return &PDFRenderer{src: src, style: c.style, title: c.title}
}

// Begin implements [assemble.Renderer].
func (r *PDFRenderer) Begin(sheets int, width, height float64) error {
	if r.pdf != nil {
		return errors.New(errors.ErrCodeRender, "PDF renderer already started")
	}
	r.size = fpdf.SizeType{Wd: width, Ht: height}
	r.sheets = sheets

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           r.size,
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetCreator("pagestack", false)
	if r.title != "" {
		pdf.SetTitle(r.title, true)
	}
	pdf.SetFont(r.style.Font, "", r.style.Size)
	pdf.SetTextColor(int(r.style.Color.R), int(r.style.Color.G), int(r.style.Color.B))
	r.pdf = pdf
	r.tr = pdf.UnicodeTranslatorFromDescriptor("")

	if pb, ok := r.src.(source.PDFBacked); ok {
		r.imp = gofpdi.NewImporter()
		r.rs = bytes.NewReader(pb.PDF())
	}
	return nil
}

// gotoSheet adds pages until sheet exists. Placements arrive in ascending
// sheet order, so the current page is always the last one.
func (r *PDFRenderer) gotoSheet(sheet int) error {
	if r.pdf == nil {
		return errors.New(errors.ErrCodeRender, "PDF renderer not started")
	}
	if err := checkSheet(sheet, r.sheets); err != nil {
		return err
	}
	if sheet < r.added-1 {
		return errors.New(errors.ErrCodeRender, "sheet %d drawn after sheet %d", sheet, r.added-1)
	}
	for r.added <= sheet {
		r.pdf.AddPageFormat("P", r.size)
		r.added++
	}
	return nil
}

// DrawPage implements [assemble.Renderer].
func (r *PDFRenderer) DrawPage(sheet, page int, dest layout.Rect) error {
	if err := r.gotoSheet(sheet); err != nil {
		return err
	}

	switch src := r.src.(type) {
	case source.PDFBacked:
		tpl := r.imp.ImportPageFromStream(r.pdf, &r.rs, page+1, "/MediaBox")
		r.imp.UseImportedTemplate(r.pdf, tpl, dest.X0, dest.Y0, dest.Width(), dest.Height())
	case source.ImageBacked:
		data, format, err := src.Encoded(page)
		if err != nil {
			return err
		}
		name := fmt.Sprintf("page-%d", page)
		opts := fpdf.ImageOptions{ImageType: format}
		info := r.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
		if info == nil || r.pdf.Err() {
			return errors.Wrap(errors.ErrCodeRender, r.pdf.Error(), "embed image of page %d", page+1)
		}
		x, y, w, h := fit(info.Width(), info.Height(), dest.X0, dest.Y0, dest.Width(), dest.Height())
		r.pdf.ImageOptions(name, x, y, w, h, false, opts, 0, "")
	default:
		return errors.New(errors.ErrCodeRender, "%s source cannot be embedded in a PDF", r.src.Kind())
	}
	return r.err("draw page %d", page+1)
}

// DrawLabel implements [assemble.Renderer].
func (r *PDFRenderer) DrawLabel(sheet int, label assemble.Label) error {
	if err := r.gotoSheet(sheet); err != nil {
		return err
	}
	text := r.tr(label.Text)
	x := label.At.X
	if label.Align == layout.AlignRight {
		x -= r.pdf.GetStringWidth(text)
	}
	r.pdf.Text(x, label.At.Y, text)
	return r.err("draw label %q", label.Text)
}

// Finish implements [assemble.Renderer].
func (r *PDFRenderer) Finish() (assemble.Document, error) {
	if r.pdf == nil {
		return nil, errors.New(errors.ErrCodeRender, "PDF renderer not started")
	}
	for r.added < r.sheets {
		r.pdf.AddPageFormat("P", r.size)
		r.added++
	}

	var buf bytes.Buffer
	if err := r.pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "write PDF")
	}
	return &bytesDocument{data: buf.Bytes(), sheets: r.sheets, contentType: render.FormatPDF.ContentType()}, nil
}

func (r *PDFRenderer) err(format string, args ...any) error {
	if r.pdf.Err() {
		return errors.Wrap(errors.ErrCodeRender, r.pdf.Error(), format, args...)
	}
	return nil
}

// Optimize rewrites a PDF with pdfcpu, sharing duplicate fonts, images and
// imported page resources.
func Optimize(data []byte) ([]byte, error) {
	conf := model.NewDefaultConfiguration()
	var out bytes.Buffer
	if err := api.Optimize(bytes.NewReader(data), &out, conf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "optimize PDF")
	}
	return out.Bytes(), nil
}

// PageCount returns the number of pages in a PDF.
func PageCount(data []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidInput, err, "count PDF pages")
	}
	return n, nil
}
