package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks implements every hook interface by writing debug records to a
// logger. The CLI registers it for --verbose runs.
type LogHooks struct {
	Logger *log.Logger
}

// NewLogHooks returns hooks writing to logger.
func NewLogHooks(logger *log.Logger) *LogHooks {
	return &LogHooks{Logger: logger}
}

func (h *LogHooks) OnConvertStart(_ context.Context, kind, name string) {
	h.Logger.Debug("opening input", "kind", kind, "name", name)
}

func (h *LogHooks) OnConvertComplete(_ context.Context, kind string, pages int, d time.Duration, err error) {
	if err != nil {
		h.Logger.Debug("open failed", "kind", kind, "duration", d, "err", err)
		return
	}
	h.Logger.Debug("opened input", "kind", kind, "pages", pages, "duration", d)
}

func (h *LogHooks) OnAssembleStart(_ context.Context, format string, pages, sheets int) {
	h.Logger.Debug("assembling", "format", format, "pages", pages, "sheets", sheets)
}

func (h *LogHooks) OnAssembleComplete(_ context.Context, format string, size int, d time.Duration, err error) {
	if err != nil {
		h.Logger.Debug("assemble failed", "format", format, "duration", d, "err", err)
		return
	}
	h.Logger.Debug("assembled", "format", format, "bytes", size, "duration", d)
}

func (h *LogHooks) OnOptimize(_ context.Context, before, after int, d time.Duration, err error) {
	h.Logger.Debug("optimized pdf", "before", before, "after", after, "duration", d, "err", err)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.Logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.Logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.Logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, path string) {
	h.Logger.Debug("request", "method", method, "path", path)
}

func (h *LogHooks) OnResponse(_ context.Context, method, path string, status int, d time.Duration) {
	h.Logger.Info("response", "method", method, "path", path, "status", status, "duration", d)
}

var (
	_ PipelineHooks = (*LogHooks)(nil)
	_ CacheHooks    = (*LogHooks)(nil)
	_ ServerHooks   = (*LogHooks)(nil)
)
