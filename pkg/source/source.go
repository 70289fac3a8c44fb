package source

import (
	"context"
	"image"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pagestack/pkg/errors"
)

// Kind identifies the input format family of a source.
type Kind int

const (
	KindPDF Kind = iota
	KindImage
	KindText
	KindDocument
	KindSlideDeck
	KindEBook
	KindSpreadsheet
	KindOffice
)

var kindNames = [...]string{
	KindPDF:         "pdf",
	KindImage:       "image",
	KindText:        "text",
	KindDocument:    "document",
	KindSlideDeck:   "slides",
	KindEBook:       "ebook",
	KindSpreadsheet: "spreadsheet",
	KindOffice:      "office",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// NeedsConversion reports whether inputs of this kind are converted to PDF
// before they can be opened.
func (k Kind) NeedsConversion() bool {
	return k != KindPDF && k != KindImage
}

var extKinds = map[string]Kind{
	".pdf": KindPDF,

	".png":  KindImage,
	".jpg":  KindImage,
	".jpeg": KindImage,
	".gif":  KindImage,
	".bmp":  KindImage,
	".tif":  KindImage,
	".tiff": KindImage,
	".webp": KindImage,

	".txt":  KindText,
	".text": KindText,
	".md":   KindText,
	".csv":  KindText,
	".log":  KindText,

	".docx": KindDocument,
	".odt":  KindDocument,
	".html": KindDocument,
	".htm":  KindDocument,

	".pptx": KindSlideDeck,

	".epub": KindEBook,

	".xlsx": KindSpreadsheet,
	".xlsm": KindSpreadsheet,

	".doc": KindOffice,
	".ppt": KindOffice,
	".pps": KindOffice,
	".xls": KindOffice,
	".rtf": KindOffice,
	".odp": KindOffice,
	".ods": KindOffice,
}

// Detect returns the kind of a file from its extension.
func Detect(name string) (Kind, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if k, ok := extKinds[ext]; ok {
		return k, nil
	}
	if ext == "" {
		return 0, errors.New(errors.ErrCodeUnsupportedFormat, "cannot detect format of %q: no file extension", name)
	}
	return 0, errors.New(errors.ErrCodeUnsupportedFormat, "unsupported input format %q", ext)
}

// Extensions returns the supported file extensions, sorted.
func Extensions() []string {
	exts := make([]string, 0, len(extKinds))
	for ext := range extKinds {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}

// Source is an ordered, finite, indexable sequence of pages.
// Indices are 0-based.
type Source interface {
	Kind() Kind
	NumPages() int
	PageSize(index int) (width, height float64, err error)
	io.Closer
}

// PDFBacked is a source whose pages live in a PDF document.
type PDFBacked interface {
	Source
	// PDF returns the normalized PDF bytes. Page i of the source is page
	// i+1 of the document.
	PDF() []byte
}

// ImageBacked is a source whose pages are raster images.
type ImageBacked interface {
	Source
	// Image returns the decoded image of page index.
	Image(index int) (image.Image, error)
	// Encoded returns the page image as PNG or JPEG bytes together with its
	// format name ("png" or "jpg").
	Encoded(index int) (data []byte, format string, err error)
}

// Input is one named input document held in memory.
type Input struct {
	Name string
	Data []byte
}

// Options configures how inputs are opened and converted.
type Options struct {
	// Password decrypts encrypted PDF input.
	Password string

	// Converter turns legacy Office formats into PDF. Defaults to a
	// [LibreOffice] converter using "soffice" from PATH.
	Converter Converter

	// Logger receives debug output. Defaults to a discarding logger.
	Logger *log.Logger
}

func (o Options) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.New(io.Discard)
}

func (o Options) converter() Converter {
	if o.Converter != nil {
		return o.Converter
	}
	return &LibreOffice{Logger: o.logger()}
}

// Open detects the format of in and returns the matching source variant.
// Inputs that need conversion are converted to PDF first.
func Open(ctx context.Context, in Input, opts Options) (Source, error) {
	kind, err := Detect(in.Name)
	if err != nil {
		return nil, err
	}
	if len(in.Data) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "%s is empty", in.Name)
	}

	switch kind {
	case KindPDF:
		return asSource(OpenPDF(in.Data, opts.Password))
	case KindImage:
		return asSource(OpenImages([]Input{in}))
	}

	pdf, err := Convert(ctx, kind, in, opts)
	if err != nil {
		return nil, err
	}
	return asSource(OpenPDFAs(kind, pdf, ""))
}

// asSource converts a concrete open result to a Source, keeping a failed
// open a nil interface rather than a typed nil pointer.
func asSource[S Source](src S, err error) (Source, error) {
	if err != nil {
		return nil, err
	}
	return src, nil
}

// OpenAll opens several inputs as one source. Only images can be combined;
// a single input of any kind is passed to [Open].
func OpenAll(ctx context.Context, ins []Input, opts Options) (Source, error) {
	switch len(ins) {
	case 0:
		return nil, errors.New(errors.ErrCodeInvalidInput, "no input documents")
	case 1:
		return Open(ctx, ins[0], opts)
	}
	for _, in := range ins {
		kind, err := Detect(in.Name)
		if err != nil {
			return nil, err
		}
		if kind != KindImage {
			return nil, errors.New(errors.ErrCodeInvalidInput,
				"only images can be combined into one document, %s is %s", in.Name, kind)
		}
	}
	return asSource(OpenImages(ins))
}

// Convert turns a text-like input into PDF bytes.
func Convert(ctx context.Context, kind Kind, in Input, opts Options) ([]byte, error) {
	opts.logger().Debug("converting input", "name", in.Name, "kind", kind, "bytes", len(in.Data))

	var (
		pdf []byte
		err error
	)
	switch kind {
	case KindText:
		pdf, err = convertText(in.Data)
	case KindDocument:
		pdf, err = convertDocument(in)
	case KindSlideDeck:
		pdf, err = convertSlides(in)
	case KindEBook:
		pdf, err = convertEBook(in)
	case KindSpreadsheet:
		pdf, err = convertSpreadsheet(in)
	case KindOffice:
		pdf, err = opts.converter().ConvertToPDF(ctx, in)
	default:
		return nil, errors.New(errors.ErrCodeInternal, "%s input does not need conversion", kind)
	}
	if err != nil {
		if errors.GetCode(err) != "" {
			return nil, err
		}
		return nil, errors.Wrap(errors.ErrCodeConversion, err, "convert %s", in.Name)
	}
	return pdf, nil
}
