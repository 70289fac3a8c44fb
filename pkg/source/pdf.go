package source

import (
	"bytes"
	stderrors "errors"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/matzehuels/pagestack/pkg/errors"
)

// PDFSource is a PDF-backed source.
type PDFSource struct {
	kind  Kind
	data  []byte
	sizes [][2]float64
}

// OpenPDF parses, decrypts and normalizes a PDF document.
func OpenPDF(data []byte, password string) (*PDFSource, error) {
	return OpenPDFAs(KindPDF, data, password)
}

// OpenPDFAs is like OpenPDF but reports kind from Kind(). It is used for
// PDFs produced by conversion.
func OpenPDFAs(kind Kind, data []byte, password string) (*PDFSource, error) {
	norm, sizes, err := normalizePDF(data, password)
	if err != nil {
		return nil, err
	}
	return &PDFSource{kind: kind, data: norm, sizes: sizes}, nil
}

// normalizePDF rewrites data without encryption, object streams or xref
// streams so that the page importer can read it, and collects page sizes.
func normalizePDF(data []byte, password string) ([]byte, [][2]float64, error) {
	conf := model.NewDefaultConfiguration()
	if password != "" {
		conf.UserPW = password
		conf.OwnerPW = password
	}
	conf.WriteObjectStream = false
	conf.WriteXRefStream = false

	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		if stderrors.Is(err, pdfcpu.ErrWrongPassword) {
			return nil, nil, errors.New(errors.ErrCodeWrongPassword, "the PDF password is missing or incorrect")
		}
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read PDF")
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "count PDF pages")
	}

	sizes := make([][2]float64, 0, ctx.PageCount)
	for i := 1; i <= ctx.PageCount; i++ {
		_, _, inh, err := ctx.PageDict(i, false)
		if err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read page %d", i)
		}
		if inh == nil || inh.MediaBox == nil {
			return nil, nil, errors.New(errors.ErrCodeInvalidInput, "page %d has no media box", i)
		}
		w, h := inh.MediaBox.Width(), inh.MediaBox.Height()
		if inh.Rotate%180 != 0 {
			w, h = h, w
		}
		sizes = append(sizes, [2]float64{w, h})
	}

	if ctx.Encrypt != nil {
		ctx.Cmd = model.DECRYPT
	}
	var out bytes.Buffer
	if err := api.WriteContext(ctx, &out); err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "rewrite PDF")
	}
	return out.Bytes(), sizes, nil
}

func (s *PDFSource) Kind() Kind    { return s.kind }
func (s *PDFSource) NumPages() int { return len(s.sizes) }
func (s *PDFSource) PDF() []byte   { return s.data }
func (s *PDFSource) Close() error  { return nil }

// PageSize returns the displayed size of page index in points.
func (s *PDFSource) PageSize(index int) (float64, float64, error) {
	if index < 0 || index >= len(s.sizes) {
		return 0, 0, errors.New(errors.ErrCodeInvalidInput, "page index %d out of range [0, %d)", index, len(s.sizes))
	}
	return s.sizes[index][0], s.sizes[index][1], nil
}
