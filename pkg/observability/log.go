package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks implements every hook interface by writing debug-level log lines.
// The CLI installs it when --verbose is set.
type LogHooks struct {
	Logger *log.Logger
}

// NewLogHooks returns hooks that log through l, or log.Default() if l is nil.
func NewLogHooks(l *log.Logger) *LogHooks {
	if l == nil {
		l = log.Default()
	}
	return &LogHooks{Logger: l}
}

// Install registers h for every hook category.
func (h *LogHooks) Install() {
	SetRenderHooks(h)
	SetSessionHooks(h)
	SetCacheHooks(h)
	SetHTTPHooks(h)
}

func (h *LogHooks) OnRenderStart(_ context.Context, backend, format string) {
	h.Logger.Debug("render start", "backend", backend, "format", format)
}

func (h *LogHooks) OnRenderComplete(_ context.Context, backend, format string, size int, d time.Duration, err error) {
	if err != nil {
		h.Logger.Debug("render failed", "backend", backend, "format", format, "took", d.Round(time.Millisecond), "err", err)
		return
	}
	h.Logger.Debug("render done", "backend", backend, "format", format, "bytes", size, "took", d.Round(time.Millisecond))
}

func (h *LogHooks) OnStateChange(_ context.Context, from, to string) {
	h.Logger.Debug("session state", "from", from, "to", to)
}

func (h *LogHooks) OnRefresh(_ context.Context, view string, blocks int, d time.Duration) {
	h.Logger.Debug("refresh", "view", view, "blocks", blocks, "took", d.Round(time.Millisecond))
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

func (h *LogHooks) OnResponse(_ context.Context, method, path string, status int, d time.Duration) {
	h.Logger.Debug("http", "method", method, "path", path, "status", status, "took", d.Round(time.Millisecond))
}
