package server

import (
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/matzehuels/pagestack/pkg/buildinfo"
	"github.com/matzehuels/pagestack/pkg/errors"
	"github.com/matzehuels/pagestack/pkg/pipeline"
	"github.com/matzehuels/pagestack/pkg/render"
	"github.com/matzehuels/pagestack/pkg/source"
)

// Response headers describing a merge.
const (
	PagesHeader  = "X-Pagestack-Pages"
	SheetsHeader = "X-Pagestack-Sheets"
)

// memoryLimit is the part of a multipart body kept in memory; the rest
// spills to temp files.
const memoryLimit = 16 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
}

func (s *Server) handleFormats(w http.ResponseWriter, r *http.Request) {
	outputs := make([]string, len(render.Formats))
	for i, f := range render.Formats {
		outputs[i] = string(f)
	}
	writeJSON(w, http.StatusOK, map[string][]string{
		"inputs":  source.Extensions(),
		"outputs": outputs,
	})
}

func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	opts, err := s.parseRequest(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.merge(w, r, opts)
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	opts, err := s.parseRequest(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts.Formats = []string{string(render.FormatJSON)}
	s.merge(w, r, opts)
}

func (s *Server) merge(w http.ResponseWriter, r *http.Request, opts pipeline.Options) {
	if s.cfg.Defaults != nil {
		s.cfg.Defaults(&opts)
	}
	// The config may list several formats; a response carries the first.
	if len(opts.Formats) > 1 {
		opts.Formats = opts.Formats[:1]
	}
	opts.Logger = s.logger.With("id", RequestID(r.Context()))
	if err := opts.ValidateAndSetDefaults(); err != nil {
		s.writeError(w, r, err)
		return
	}
	if n := len(opts.FormatValues()); n != 1 {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidFormat, "a merge returns exactly one format, got %d", n))
		return
	}

	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	format := opts.FormatValues()[0]
	data := res.Artifacts[format]
	name := pipeline.OutputName(opts.Inputs[0].Name, format)

	h := w.Header()
	h.Set("Content-Type", format.ContentType())
	h.Set("Content-Length", strconv.Itoa(len(data)))
	h.Set("Content-Disposition", contentDisposition(format, name))
	h.Set(PagesHeader, strconv.Itoa(res.Pages))
	h.Set(SheetsHeader, strconv.Itoa(res.Sheets))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func contentDisposition(format render.Format, name string) string {
	kind := "attachment"
	if format == render.FormatJSON {
		kind = "inline"
	}
	return kind + `; filename="` + strings.ReplaceAll(name, `"`, "_") + `"`
}

// parseRequest reads the multipart upload and form fields into options.
// Unset fields stay zero so that server defaults and pipeline defaults apply.
func (s *Server) parseRequest(w http.ResponseWriter, r *http.Request) (pipeline.Options, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(memoryLimit); err != nil {
		return pipeline.Options{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "expected a multipart/form-data upload")
	}
	defer r.MultipartForm.RemoveAll()

	inputs, err := readFiles(r.MultipartForm.File["file"])
	if err != nil {
		return pipeline.Options{}, err
	}

	f := form{r: r}
	opts := pipeline.Options{
		Inputs:   inputs,
		Rows:     f.int("rows"),
		Cols:     f.int("cols"),
		Anchor:   f.string("anchor"),
		Label:    f.string("label"),
		Font:     f.string("font"),
		FontSize: f.float("font_size"),
		Color:    f.string("color"),
		Title:    f.string("title"),
		Scale:    f.float("scale"),
		Optimize: f.bool("optimize"),
		Refresh:  f.bool("refresh"),
		Password: r.FormValue("password"),
	}
	if v := f.string("format"); v != "" {
		opts.Formats = []string{v}
	}
	return opts, f.err
}

func readFiles(headers []*multipart.FileHeader) ([]source.Input, error) {
	if len(headers) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, `missing "file" upload`)
	}
	inputs := make([]source.Input, 0, len(headers))
	for _, fh := range headers {
		name := filepath.Base(strings.ReplaceAll(fh.Filename, `\`, "/"))
		if err := errors.ValidateFilename(name); err != nil {
			return nil, err
		}
		file, err := fh.Open()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read upload %s", name)
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read upload %s", name)
		}
		inputs = append(inputs, source.Input{Name: name, Data: data})
	}
	return inputs, nil
}

// form reads typed form fields, keeping the first parse error.
type form struct {
	r   *http.Request
	err error
}

func (f *form) string(key string) string {
	return strings.TrimSpace(f.r.FormValue(key))
}

func (f *form) int(key string) int {
	v := f.string(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		f.fail(key, v, "an integer")
	}
	return n
}

func (f *form) float(key string) float64 {
	v := f.string(key)
	if v == "" {
		return 0
	}
	x, err := strconv.ParseFloat(v, 64)
	if err != nil {
		f.fail(key, v, "a number")
	}
	return x
}

func (f *form) bool(key string) bool {
	v := f.string(key)
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		f.fail(key, v, "true or false")
	}
	return b
}

func (f *form) fail(key, value, want string) {
	if f.err == nil {
		f.err = errors.New(errors.ErrCodeInvalidInput, "form field %s=%q must be %s", key, value, want)
	}
}
