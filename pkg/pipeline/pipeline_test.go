package pipeline

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/pagestack/pkg/errors"
	"github.com/matzehuels/pagestack/pkg/layout"
	"github.com/matzehuels/pagestack/pkg/render"
	"github.com/matzehuels/pagestack/pkg/source"
)

func textInput(body string) []source.Input {
	return []source.Input{{Name: "notes.txt", Data: []byte(body)}}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{Inputs: textInput("hello")}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("valid options should pass: %v", err)
	}

	type settings struct {
		Rows, Cols                 int
		Anchor, Label, Font, Color string
		FontSize, Scale            float64
		Formats                    []string
	}
	got := settings{opts.Rows, opts.Cols, opts.Anchor, opts.Label, opts.Font, opts.Color, opts.FontSize, opts.Scale, opts.Formats}
	want := settings{2, 2, "top-left", "{n}", "Helvetica", "#000000", 12, 0.5, []string{"pdf"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
	if opts.AnchorValue() != layout.TopLeft {
		t.Errorf("AnchorValue() = %v", opts.AnchorValue())
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discarding logger")
	}
}

func TestOptionsNormalize(t *testing.T) {
	opts := Options{
		Inputs:  textInput("x"),
		Anchor:  "Bottom_Right",
		Font:    "arial",
		Color:   "#F00",
		Formats: []string{"png, json", "pdf", "png"},
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if opts.Anchor != "bottom-right" || opts.AnchorValue() != layout.BottomRight {
		t.Errorf("Anchor = %q", opts.Anchor)
	}
	if opts.Font != "Helvetica" || opts.Color != "#ff0000" {
		t.Errorf("Font = %q, Color = %q", opts.Font, opts.Color)
	}
	want := []render.Format{render.FormatPNG, render.FormatJSON, render.FormatPDF}
	if diff := cmp.Diff(want, opts.FormatValues()); diff != "" {
		t.Errorf("formats mismatch (-want +got):\n%s", diff)
	}
}

func TestOptionsValidation(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"no inputs", Options{}, errors.ErrCodeInvalidInput},
		{"unknown extension", Options{Inputs: []source.Input{{Name: "a.xyz", Data: []byte("x")}}}, errors.ErrCodeUnsupportedFormat},
		{"negative rows", Options{Inputs: textInput("x"), Rows: -1}, errors.ErrCodeInvalidGeometry},
		{"bad anchor", Options{Inputs: textInput("x"), Anchor: "middle"}, errors.ErrCodeInvalidAnchor},
		{"label without number", Options{Inputs: textInput("x"), Label: "Page"}, errors.ErrCodeInvalidLabel},
		{"bad color", Options{Inputs: textInput("x"), Color: "red"}, errors.ErrCodeInvalidColor},
		{"bad font size", Options{Inputs: textInput("x"), FontSize: -3}, errors.ErrCodeInvalidLabel},
		{"bad format", Options{Inputs: textInput("x"), Formats: []string{"svg"}}, errors.ErrCodeInvalidFormat},
		{"bad scale", Options{Inputs: textInput("x"), Scale: 9}, errors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if !errors.Is(err, tt.code) {
				t.Errorf("ValidateAndSetDefaults() = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestOptionsValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{Inputs: textInput("x"), Formats: []string{"pdf,png"}}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	before := opts.Formats
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(before, opts.Formats); diff != "" {
		t.Errorf("second call changed formats:\n%s", diff)
	}
}

func TestArtifactKeyOpts(t *testing.T) {
	opts := Options{Inputs: textInput("x"), Scale: 2, Optimize: true}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	pdf := opts.ArtifactKeyOpts(render.FormatPDF)
	png := opts.ArtifactKeyOpts(render.FormatPNG)
	if pdf.Scale != 0 || !pdf.Optimized {
		t.Errorf("pdf key opts = %+v, want optimized without scale", pdf)
	}
	if png.Scale != 2 || png.Optimized {
		t.Errorf("png key opts = %+v, want scale without optimized", png)
	}
}

func TestOutputName(t *testing.T) {
	tests := []struct {
		input  string
		format render.Format
		want   string
	}{
		{"lecture.pptx", render.FormatPDF, "lecture_merged.pdf"},
		{"/tmp/scores/sonata.pdf", render.FormatPNG, "sonata_merged.png"},
		{"archive.tar.gz", render.FormatJSON, "archive.tar_merged.json"},
		{"README", render.FormatPDF, "README_merged.pdf"},
		{"", render.FormatPDF, "document_merged.pdf"},
	}
	for _, tt := range tests {
		if got := OutputName(tt.input, tt.format); got != tt.want {
			t.Errorf("OutputName(%q, %s) = %q, want %q", tt.input, tt.format, got, tt.want)
		}
	}
}

func TestInputName(t *testing.T) {
	one := Options{Inputs: []source.Input{{Name: "a.png"}}}
	many := Options{Inputs: []source.Input{{Name: "a.png"}, {Name: "b.png"}, {Name: "c.png"}}}
	if got := one.InputName(); got != "a.png" {
		t.Errorf("InputName() = %q", got)
	}
	if got := many.InputName(); got != "a.png (+2)" {
		t.Errorf("InputName() = %q", got)
	}
}

func TestInputHash(t *testing.T) {
	a := []source.Input{{Name: "x.txt", Data: []byte("same")}}
	b := []source.Input{{Name: "renamed.txt", Data: []byte("same")}}
	if InputHash(a) != InputHash(b) {
		t.Error("renaming an input should keep its hash")
	}
	upper := []source.Input{{Name: "X.TXT", Data: []byte("same")}}
	if InputHash(a) != InputHash(upper) {
		t.Error("extension case should not change the hash")
	}
	html := []source.Input{{Name: "x.html", Data: []byte("same")}}
	if InputHash(a) == InputHash(html) {
		t.Error("the same bytes under another extension should change the hash")
	}
	pair := []source.Input{{Name: "1.png", Data: []byte("a")}, {Name: "2.png", Data: []byte("b")}}
	swapped := []source.Input{pair[1], pair[0]}
	if InputHash(pair) == InputHash(swapped) {
		t.Error("input order should change the hash")
	}
}
