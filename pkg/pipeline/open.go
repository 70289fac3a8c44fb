package pipeline

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/matzehuels/pagestack/pkg/cache"
	"github.com/matzehuels/pagestack/pkg/source"
)

// Open opens the inputs as one page source, converting them when needed.
func Open(ctx context.Context, opts Options) (source.Source, error) {
	return source.OpenAll(ctx, opts.Inputs, opts.sourceOptions())
}

func (o *Options) sourceOptions() source.Options {
	return source.Options{Password: o.Password, Converter: o.Converter, Logger: o.Logger}
}

// InputHash identifies the content of ins. Names only contribute their
// extension, so renaming a file keeps its cache entries while the same bytes
// under another extension, which open through another source variant, do not
// share them.
func InputHash(ins []source.Input) string {
	var b strings.Builder
	for _, in := range ins {
		b.WriteString(strings.ToLower(filepath.Ext(in.Name)))
		b.WriteByte(':')
		b.WriteString(cache.Hash(in.Data))
		b.WriteByte('\n')
	}
	return cache.Hash([]byte(b.String()))
}

// convertible returns the single input that is converted to PDF before
// merging, if any. Converted PDFs are what the source cache stores.
func convertible(ins []source.Input) (source.Input, source.Kind, bool) {
	if len(ins) != 1 {
		return source.Input{}, 0, false
	}
	kind, err := source.Detect(ins[0].Name)
	if err != nil || !kind.NeedsConversion() {
		return source.Input{}, 0, false
	}
	return ins[0], kind, true
}
