package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/pagestack/pkg/errors"
	"github.com/matzehuels/pagestack/pkg/render"
	"github.com/matzehuels/pagestack/pkg/render/sink"
)

func TestMerge(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	input := writeFile(t, dir, "notes.txt", fivePages)

	out, _, err := run(t, "merge", "--no-cache", input)
	if err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "notes_merged.pdf"))
	if err != nil {
		t.Fatalf("merged PDF not written: %v", err)
	}
	if n, err := sink.PageCount(data); err != nil || n != 2 {
		t.Errorf("merged PDF has %d pages (err %v), want 2", n, err)
	}
	for _, want := range []string{"Merged notes.txt", "5 pages", "2 sheets", "2x2", "notes_merged.pdf"} {
		if !strings.Contains(out, want) {
			t.Errorf("output is missing %q:\n%s", want, out)
		}
	}
}

func TestMergeAlias(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	input := writeFile(t, dir, "notes.txt", fivePages)
	output := filepath.Join(dir, "handout.pdf")

	if _, _, err := run(t, "combine", "--no-cache", "--rows", "1", "--cols", "1", "-o", output, input); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if n, _ := sink.PageCount(data); n != 5 {
		t.Errorf("1x1 merge has %d sheets, want 5", n)
	}
}

func TestMergeFormats(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	input := writeFile(t, dir, "notes.txt", fivePages)

	_, _, err := run(t, "merge", "--no-cache", "-f", "pdf,png,json", "-o", filepath.Join(dir, "out.pdf"), input)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"out.pdf", "out.png", "out.json"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
}

// mergePlan merges input as JSON to stdout and decodes the plan.
func mergePlan(t *testing.T, args ...string) sink.Plan {
	t.Helper()
	args = append([]string{"merge", "--no-cache", "-f", "json", "-o", "-"}, args...)
	out, _, err := run(t, args...)
	if err != nil {
		t.Fatal(err)
	}
	var plan sink.Plan
	if err := json.Unmarshal([]byte(out), &plan); err != nil {
		t.Fatalf("stdout is not a plan: %v\n%s", err, out)
	}
	return plan
}

func TestMergeStdout(t *testing.T) {
	isolate(t)
	input := writeFile(t, t.TempDir(), "notes.txt", fivePages)

	plan := mergePlan(t, "--anchor", "bottom-right", "--label", "Page {n}", "--color", "#C00", input)
	if plan.Sheets != 2 || plan.Anchor.String() != "bottom-right" || plan.Label.Color != "#cc0000" {
		t.Errorf("plan = %d sheets, anchor %s, color %s", plan.Sheets, plan.Anchor, plan.Label.Color)
	}
	if got := plan.Placements[4].Label.Text; got != "Page 5" {
		t.Errorf("last label = %q, want %q", got, "Page 5")
	}
}

func TestMergeConfig(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	input := writeFile(t, dir, "notes.txt", fivePages)
	cfgPath := writeFile(t, dir, "pagestack.toml", `
[grid]
rows = 1
cols = 1

[label]
template = "p{n}"
`)

	plan := mergePlan(t, "--config", cfgPath, input)
	if plan.Sheets != 5 || plan.Placements[0].Label.Text != "p1" {
		t.Errorf("config not applied: %d sheets, label %q", plan.Sheets, plan.Placements[0].Label.Text)
	}

	// Flags win over the file.
	plan = mergePlan(t, "--config", cfgPath, "--cols", "5", input)
	if plan.Sheets != 1 {
		t.Errorf("--cols 5 should override the config, got %d sheets", plan.Sheets)
	}
}

func TestMergeErrors(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	input := writeFile(t, dir, "notes.txt", fivePages)
	badConfig := writeFile(t, dir, "bad.toml", "[grid]\nrowz = 2\n")

	tests := []struct {
		name string
		args []string
		want errors.Code
	}{
		{"negative rows", []string{"--rows", "-1", input}, errors.ErrCodeInvalidGeometry},
		{"bad anchor", []string{"--anchor", "middle", input}, errors.ErrCodeInvalidAnchor},
		{"bad format", []string{"-f", "svg", input}, errors.ErrCodeInvalidFormat},
		{"bad color", []string{"--color", "red", input}, errors.ErrCodeInvalidColor},
		{"missing input", []string{filepath.Join(dir, "nope.pdf")}, errors.ErrCodeFileNotFound},
		{"unsupported input", []string{writeFile(t, dir, "clip.mp4", "x")}, errors.ErrCodeUnsupportedFormat},
		{"stdout with two formats", []string{"-f", "pdf,json", "-o", "-", input}, errors.ErrCodeInvalidInput},
		{"overwrite input", []string{"-o", input, input}, errors.ErrCodeInvalidInput},
		{"missing config", []string{"--config", filepath.Join(dir, "none.toml"), input}, errors.ErrCodeFileNotFound},
		{"unknown config key", []string{"--config", badConfig, input}, errors.ErrCodeInvalidInput},
		{"no input", nil, errors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, append([]string{"merge", "--no-cache"}, tt.args...)...)
			if got := errors.GetCode(err); got != tt.want {
				t.Errorf("error code = %q, want %q (err %v)", got, tt.want, err)
			}
		})
	}
}

func TestOutputPaths(t *testing.T) {
	pdf, png, js := render.FormatPDF, render.FormatPNG, render.FormatJSON

	tests := []struct {
		name    string
		inputs  []string
		output  string
		formats []render.Format
		want    map[render.Format]string
	}{
		{
			name:    "next to input",
			inputs:  []string{filepath.Join("docs", "slides.pptx")},
			formats: []render.Format{pdf, png},
			want: map[render.Format]string{
				pdf: filepath.Join("docs", "slides_merged.pdf"),
				png: filepath.Join("docs", "slides_merged.png"),
			},
		},
		{
			name:    "single format keeps output",
			inputs:  []string{"a.pdf"},
			output:  "handout.bin",
			formats: []render.Format{pdf},
			want:    map[render.Format]string{pdf: "handout.bin"},
		},
		{
			name:    "base path replaces format extension",
			inputs:  []string{"a.pdf"},
			output:  "out/handout.PDF",
			formats: []render.Format{pdf, js},
			want:    map[render.Format]string{pdf: "out/handout.pdf", js: "out/handout.json"},
		},
		{
			name:    "base path keeps other extensions",
			inputs:  []string{"a.pdf"},
			output:  "v1.2",
			formats: []render.Format{pdf, js},
			want:    map[render.Format]string{pdf: "v1.2.pdf", js: "v1.2.json"},
		},
		{
			name:    "stdout",
			inputs:  []string{"a.pdf"},
			output:  "-",
			formats: []render.Format{js},
			want:    map[render.Format]string{js: "-"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := outputPaths(tt.inputs, tt.output, tt.formats)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("outputPaths() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReadInputs(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.png", "A")
	b := writeFile(t, dir, "b.png", "B")

	inputs, err := readInputs([]string{a, b})
	if err != nil {
		t.Fatal(err)
	}
	if len(inputs) != 2 || inputs[0].Name != "a.png" || string(inputs[1].Data) != "B" {
		t.Errorf("readInputs() = %+v", inputs)
	}

	_, err = readInputs([]string{a, filepath.Join(dir, "c.png")})
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file error = %v, want FILE_NOT_FOUND", err)
	}
}
