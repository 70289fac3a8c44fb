package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pagestack/pkg/errors"
	"github.com/matzehuels/pagestack/pkg/pipeline"
	"github.com/matzehuels/pagestack/pkg/render"
	"github.com/matzehuels/pagestack/pkg/source"
)

// stdoutPath as --output writes the single requested format to stdout.
const stdoutPath = "-"

// mergeFlags holds the flags shared by merge and plan. Zero values mean
// "not given" so that config file values and pipeline defaults apply.
type mergeFlags struct {
	rows     int
	cols     int
	anchor   string
	label    string
	password string
	noCache  bool

	font     string
	size     float64
	color    string
	formats  string
	output   string
	title    string
	scale    float64
	optimize bool
	refresh  bool
}

// addLayoutFlags registers the grid and label flags.
func (f *mergeFlags) addLayoutFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.rows, "rows", "r", 0, "grid rows per sheet (default 2)")
	cmd.Flags().IntVarP(&f.cols, "cols", "c", 0, "grid columns per sheet (default 2)")
	cmd.Flags().StringVarP(&f.anchor, "anchor", "a", "", "label corner: top-left (default), top-right, bottom-left, bottom-right")
	cmd.Flags().StringVarP(&f.label, "label", "l", "", `label template, "{n}" is the page number (default "{n}")`)
	cmd.Flags().StringVar(&f.password, "password", "", "password for encrypted PDF input")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the conversion and output cache")
}

// addRenderFlags registers the output flags of merge.
func (f *mergeFlags) addRenderFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.font, "font", "", "label font: helvetica (default), times, courier")
	cmd.Flags().Float64Var(&f.size, "size", 0, "label font size in points (default 12)")
	cmd.Flags().StringVar(&f.color, "color", "", "label color as #rrggbb (default #000000)")
	cmd.Flags().StringVarP(&f.formats, "format", "f", "", "output format(s): pdf (default), png, json (comma-separated)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", `output file, or base path for several formats ("-" for stdout)`)
	cmd.Flags().StringVar(&f.title, "title", "", "PDF document title")
	cmd.Flags().Float64Var(&f.scale, "scale", 0, "PNG preview pixels per point (default 0.5)")
	cmd.Flags().BoolVar(&f.optimize, "optimize", false, "optimize the merged PDF")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "ignore cached outputs")
}

// options converts the flags into pipeline options for inputs.
func (f *mergeFlags) options(inputs []source.Input) pipeline.Options {
	opts := pipeline.Options{
		Inputs:   inputs,
		Rows:     f.rows,
		Cols:     f.cols,
		Anchor:   f.anchor,
		Label:    f.label,
		Font:     f.font,
		FontSize: f.size,
		Color:    f.color,
		Title:    f.title,
		Scale:    f.scale,
		Optimize: f.optimize,
		Refresh:  f.refresh,
		Password: f.password,
	}
	if f.formats != "" {
		opts.Formats = []string{f.formats}
	}
	return opts
}

// mergeCommand creates the merge command.
func (c *CLI) mergeCommand() *cobra.Command {
	var flags mergeFlags

	cmd := &cobra.Command{
		Use:     "merge [file...]",
		Aliases: []string{"combine"},
		Short:   "Merge document pages onto N-up sheets",
		Long: `Merge lays the pages of a document out on sheets of rows x cols cells and
stamps every page with its number.

Inputs may be PDF, text, Markdown, Word, PowerPoint, OpenDocument, EPUB or
Excel files, or any number of images that become one page each. Legacy
Office formats (doc, ppt, xls, rtf) need LibreOffice.

Run without arguments in a terminal to pick a document from the current
directory.`,
		Example: `  pagestack merge slides.pdf
  pagestack merge --rows 3 --cols 2 --anchor bottom-right --label "Page {n}" notes.docx
  pagestack merge -f pdf,png -o scans.pdf scan-*.png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				if !c.interactive {
					return errors.New(errors.ErrCodeInvalidInput, "no input files given")
				}
				picked, err := pickDocument(".")
				if err != nil {
					return err
				}
				if picked == "" {
					printInfo("Nothing selected")
					return nil
				}
				args = []string{picked}
			}
			return c.runMerge(cmd.Context(), args, &flags)
		},
	}

	flags.addLayoutFlags(cmd)
	flags.addRenderFlags(cmd)
	return cmd
}

func (c *CLI) runMerge(ctx context.Context, args []string, flags *mergeFlags) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	inputs, err := readInputs(args)
	if err != nil {
		return err
	}

	opts := flags.options(inputs)
	cfg.Apply(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	formats := opts.FormatValues()
	paths, err := outputPaths(args, flags.output, formats)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, cfg.CacheSpec(), flags.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	spin := newSpinner(ctx, c.spinnerWriter(), "Merging "+opts.InputName())
	opts.Progress = spin.Progress
	p := newProgress(c.Logger)

	spin.Start()
	res, err := runner.Execute(ctx, opts)
	spin.Stop()
	if err != nil {
		return err
	}

	if flags.output == stdoutPath {
		_, err := stdout.Write(res.Artifacts[formats[0]])
		return err
	}
	for _, f := range formats {
		if err := writeOutput(paths[f], res.Artifacts[f]); err != nil {
			return err
		}
	}

	printSuccess("Merged %s", opts.InputName())
	printStats(res.Pages, res.Sheets, res.Geometry.Rows(), res.Geometry.Cols(), res.CacheInfo.RenderHit)
	for _, f := range formats {
		printFile(paths[f])
	}
	printDetail("took %s", p.elapsed())
	return nil
}

// spinnerWriter returns where the spinner draws, or nil when it should not.
func (c *CLI) spinnerWriter() io.Writer {
	if !c.interactive {
		return nil
	}
	return os.Stderr
}

// readInputs loads every path as a pipeline input named by its base name.
func readInputs(paths []string) ([]source.Input, error) {
	inputs := make([]source.Input, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeFileNotFound, "%s does not exist", path)
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", path)
		}
		inputs = append(inputs, source.Input{Name: filepath.Base(path), Data: data})
	}
	return inputs, nil
}

// outputPaths decides where each format is written.
//
// Without --output every file lands next to the first input as
// "<stem>_merged.<ext>". With one format --output is the file itself; with
// several it is a base path whose format extension, if any, is replaced.
func outputPaths(inputs []string, output string, formats []render.Format) (map[render.Format]string, error) {
	if output == stdoutPath && len(formats) != 1 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "--output - needs exactly one format, got %d", len(formats))
	}

	paths := make(map[render.Format]string, len(formats))
	for _, f := range formats {
		switch {
		case output == "":
			dir := filepath.Dir(inputs[0])
			paths[f] = filepath.Join(dir, pipeline.OutputName(filepath.Base(inputs[0]), f))
		case len(formats) == 1:
			paths[f] = output
		default:
			paths[f] = trimFormatExt(output) + f.Extension()
		}
	}

	for f, path := range paths {
		for _, in := range inputs {
			if path != stdoutPath && sameFile(path, in) {
				return nil, errors.New(errors.ErrCodeInvalidInput, "%s output would overwrite input %s", f, in)
			}
		}
	}
	return paths, nil
}

func trimFormatExt(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	for _, f := range render.Formats {
		if ext == f.Extension() {
			return strings.TrimSuffix(path, filepath.Ext(path))
		}
	}
	return path
}

func sameFile(a, b string) bool {
	if filepath.Clean(a) == filepath.Clean(b) {
		return true
	}
	sa, errA := os.Stat(a)
	sb, errB := os.Stat(b)
	return errA == nil && errB == nil && os.SameFile(sa, sb)
}

func writeOutput(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
