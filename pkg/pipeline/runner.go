package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pagestack/pkg/cache"
	"github.com/matzehuels/pagestack/pkg/layout"
	"github.com/matzehuels/pagestack/pkg/observability"
	"github.com/matzehuels/pagestack/pkg/render"
	"github.com/matzehuels/pagestack/pkg/render/sink"
	"github.com/matzehuels/pagestack/pkg/source"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use it so the caching logic lives in one place.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	warnOnce sync.Once
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete open → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	result := &Result{SourceHash: InputHash(opts.Inputs)}

	// Stage 1: Open
	openStart := time.Now()
	src, sourceHit, err := r.OpenWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	result.Kind = src.Kind()
	result.Pages = src.NumPages()
	result.Stats.OpenTime = time.Since(openStart)
	result.CacheInfo.SourceHit = sourceHit

	r.Logger.Info("opened input",
		"name", opts.InputName(),
		"kind", result.Kind,
		"pages", result.Pages,
		"cached", sourceHit,
		"duration", result.Stats.OpenTime)

	// Stage 2: Layout
	g, err := Layout(src, opts)
	if err != nil {
		return nil, err
	}
	result.Geometry = g
	result.Sheets = g.TotalSheets(result.Pages)

	r.Logger.Debug("computed layout",
		"grid", fmt.Sprintf("%dx%d", g.Rows(), g.Cols()),
		"sheet", fmt.Sprintf("%.0fx%.0fpt", g.SheetWidth(), g.SheetHeight()),
		"sheets", result.Sheets)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, src, g, result.SourceHash, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"sheets", result.Sheets,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// OpenWithCacheInfo opens the inputs and reports whether a converted PDF was
// served from the cache. Only converted inputs are cached; PDFs and images
// open directly.
func (r *Runner) OpenWithCacheInfo(ctx context.Context, opts Options) (source.Source, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	start := time.Now()
	kindName := ""
	if k, err := source.Detect(opts.Inputs[0].Name); err == nil {
		kindName = k.String()
	}
	observability.Pipeline().OnConvertStart(ctx, kindName, opts.InputName())

	src, hit, err := r.open(ctx, opts)
	pages := 0
	if src != nil {
		pages = src.NumPages()
	}
	observability.Pipeline().OnConvertComplete(ctx, kindName, pages, time.Since(start), err)
	return src, hit, err
}

func (r *Runner) open(ctx context.Context, opts Options) (source.Source, bool, error) {
	in, kind, ok := convertible(opts.Inputs)
	if !ok {
		src, err := Open(ctx, opts)
		return src, false, err
	}

	key := r.Keyer.SourceKey(cache.Hash(in.Data), cache.SourceKeyOpts{
		Kind:      kind.String(),
		Extension: extension(in.Name),
	})
	if data, hit := r.get(ctx, "source", key); hit {
		if src, err := source.OpenPDFAs(kind, data, ""); err == nil {
			return src, true, nil
		}
		// Unreadable entry, convert again.
		r.Logger.Debug("dropping unreadable cached source", "key", key)
		_ = r.Cache.Delete(ctx, key)
	}

	pdf, err := source.Convert(ctx, kind, in, opts.sourceOptions())
	if err != nil {
		return nil, false, err
	}
	src, err := source.OpenPDFAs(kind, pdf, "")
	if err != nil {
		return nil, false, err
	}
	r.set(ctx, "source", key, src.PDF(), cache.TTLSource)
	return src, false, nil
}

// RenderWithCacheInfo renders every requested format and reports whether all
// of them came from the cache. PDF output is optimized with pdfcpu when
// opts.Optimize is set.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, src source.Source, g layout.Geometry, sourceHash string, opts Options) (map[render.Format][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	artifacts := make(map[render.Format][]byte, len(opts.formats))
	allHit := true
	for _, f := range opts.formats {
		key := r.Keyer.ArtifactKey(sourceHash, opts.ArtifactKeyOpts(f))
		if !opts.Refresh {
			if data, hit := r.get(ctx, "artifact", key); hit {
				artifacts[f] = data
				continue
			}
		}
		allHit = false

		data, err := r.renderFormat(ctx, src, g, f, opts)
		if err != nil {
			return nil, false, err
		}
		artifacts[f] = data
		r.set(ctx, "artifact", key, data, cache.TTLArtifact)
	}
	return artifacts, allHit, nil
}

func (r *Runner) renderFormat(ctx context.Context, src source.Source, g layout.Geometry, f render.Format, opts Options) ([]byte, error) {
	hooks := observability.Pipeline()
	start := time.Now()
	hooks.OnAssembleStart(ctx, string(f), src.NumPages(), g.TotalSheets(src.NumPages()))

	data, err := RenderFormat(ctx, src, g, f, opts)
	hooks.OnAssembleComplete(ctx, string(f), len(data), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	if f == render.FormatPDF && opts.Optimize {
		start := time.Now()
		opt, err := sink.Optimize(data)
		hooks.OnOptimize(ctx, len(data), len(opt), time.Since(start), err)
		if err != nil {
			// The unoptimized document is still valid output.
			r.Logger.Warn("pdf optimization failed", "err", err)
			return data, nil
		}
		r.Logger.Debug("optimized pdf", "before", len(data), "after", len(opt))
		data = opt
	}
	return data, nil
}

// get reads key from the cache, treating backend errors as misses.
func (r *Runner) get(ctx context.Context, keyType, key string) ([]byte, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.cacheError(err)
		hit = false
	}
	if hit {
		observability.Cache().OnCacheHit(ctx, keyType)
	} else {
		observability.Cache().OnCacheMiss(ctx, keyType)
	}
	return data, hit
}

func (r *Runner) set(ctx context.Context, keyType, key string, data []byte, ttl time.Duration) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.cacheError(err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

// cacheError logs backend outages once per runner and entry errors at debug.
func (r *Runner) cacheError(err error) {
	if cache.IsUnavailable(err) {
		r.warnOnce.Do(func() {
			r.Logger.Warn("cache unavailable, continuing without it", "err", err)
		})
		return
	}
	r.Logger.Debug("cache error", "err", err)
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func extension(name string) string {
	return strings.ToLower(filepath.Ext(name))
}
