package source

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tsawler/tabula/docx"
	"github.com/tsawler/tabula/epubdoc"
	"github.com/tsawler/tabula/htmldoc"
	"github.com/tsawler/tabula/odt"
	"github.com/tsawler/tabula/pptx"
	"github.com/xuri/excelize/v2"

	"github.com/matzehuels/pagestack/pkg/errors"
)

// withTempFile writes data under a temporary directory and calls fn with the
// path. The tabula DOCX, ODT and PPTX readers only open files by name.
func withTempFile(name string, data []byte, fn func(path string) error) error {
	dir, err := os.MkdirTemp("", "pagestack-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "input"+strings.ToLower(filepath.Ext(name)))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	return fn(path)
}

// textReader is the part of the tabula readers used for documents.
type textReader interface {
	Text() (string, error)
	Close() error
}

func convertDocument(in Input) ([]byte, error) {
	var text string
	err := func() error {
		ext := strings.ToLower(filepath.Ext(in.Name))
		if ext == ".html" || ext == ".htm" {
			r, err := htmldoc.OpenReader(bytes.NewReader(in.Data))
			if err != nil {
				return err
			}
			text, err = readText(r)
			return err
		}
		return withTempFile(in.Name, in.Data, func(path string) error {
			var (
				r   textReader
				err error
			)
			if ext == ".odt" {
				r, err = odt.Open(path)
			} else {
				r, err = docx.Open(path)
			}
			if err != nil {
				return err
			}
			text, err = readText(r)
			return err
		})
	}()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConversion, err, "extract text from %s", in.Name)
	}

	ts := newTypesetter(pageA4, "Helvetica", 11)
	ts.text(text)
	return ts.bytes()
}

func readText(r textReader) (string, error) {
	defer r.Close()
	return r.Text()
}

func convertSlides(in Input) ([]byte, error) {
	ts := newTypesetter(pageSlide, "Helvetica", 16)
	err := withTempFile(in.Name, in.Data, func(path string) error {
		r, err := pptx.Open(path)
		if err != nil {
			return err
		}
		defer r.Close()

		for i := range r.SlideCount() {
			slide, err := r.Slide(i)
			if err != nil {
				return fmt.Errorf("slide %d: %w", i+1, err)
			}
			writeSlide(ts, slide)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConversion, err, "read slides from %s", in.Name)
	}
	return ts.bytes()
}

func writeSlide(ts *typesetter, slide *pptx.Slide) {
	ts.addPage()
	ts.heading(slide.Title)
	for _, block := range slide.Content {
		if block.IsTitle {
			continue
		}
		if len(block.Paragraphs) == 0 {
			if block.Text != "" {
				ts.text(block.Text)
			}
			continue
		}
		for _, para := range block.Paragraphs {
			if para.Text == "" {
				continue
			}
			switch {
			case para.IsBullet:
				bullet := para.BulletChar
				if bullet == "" {
					bullet = "•"
				}
				ts.indented(para.Level, bullet, para.Text)
			case para.IsNumbered:
				ts.indented(para.Level, "-", para.Text)
			default:
				ts.text(para.Text)
			}
		}
	}
}

func convertEBook(in Input) ([]byte, error) {
	r, err := epubdoc.OpenReader(bytes.NewReader(in.Data), int64(len(in.Data)))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConversion, err, "open e-book %s", in.Name)
	}
	defer r.Close()

	ts := newTypesetter(pageA4, "Times", 12)
	for _, ch := range r.Chapters() {
		hr, err := htmldoc.OpenReader(bytes.NewReader(ch.Content))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeConversion, err, "parse chapter %d of %s", ch.Index+1, in.Name)
		}
		text, err := readText(hr)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeConversion, err, "extract chapter %d of %s", ch.Index+1, in.Name)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		ts.newPage()
		ts.heading(ch.Title)
		ts.text(text)
	}
	return ts.bytes()
}

func convertSpreadsheet(in Input) ([]byte, error) {
	f, err := excelize.OpenReader(bytes.NewReader(in.Data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConversion, err, "open spreadsheet %s", in.Name)
	}
	defer f.Close()

	ts := newTypesetter(pageA4Landscape, "Courier", 9)
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeConversion, err, "read sheet %q of %s", sheet, in.Name)
		}
		ts.newPage()
		ts.heading(sheet)
		ts.text(formatRows(rows))
	}
	return ts.bytes()
}

// formatRows renders rows as fixed-width columns separated by " | ".
func formatRows(rows [][]string) string {
	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], len([]rune(cell)))
		}
	}

	var b strings.Builder
	for _, row := range rows {
		for i, cell := range row {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(cell)
			if i < len(row)-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-len([]rune(cell))))
			}
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}
