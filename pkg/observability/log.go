package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks writes every event to a logger at debug level. It implements
// all hook interfaces.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks creates hooks logging to logger with an "event" prefix.
func NewLogHooks(logger *log.Logger) *LogHooks {
	return &LogHooks{logger: logger.WithPrefix("event")}
}

func (h *LogHooks) OnRenderStart(_ context.Context, passID string, chars int) {
	h.logger.Debug("render start", "pass", passID, "chars", chars)
}

func (h *LogHooks) OnLayoutComplete(_ context.Context, passID string, placements int, truncated bool, d time.Duration) {
	h.logger.Debug("layout", "pass", passID, "placements", placements, "truncated", truncated, "took", d)
}

func (h *LogHooks) OnPickComplete(_ context.Context, passID string, picked, fallbacks int, d time.Duration) {
	h.logger.Debug("pick", "pass", passID, "picked", picked, "fallbacks", fallbacks, "took", d)
}

func (h *LogHooks) OnExportComplete(_ context.Context, passID, format string, size int, d time.Duration, err error) {
	h.logger.Debug("export", "pass", passID, "format", format, "bytes", size, "took", d, "err", err)
}

func (h *LogHooks) OnRenderComplete(_ context.Context, passID string, d time.Duration, err error) {
	h.logger.Debug("render done", "pass", passID, "took", d, "err", err)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, route string) {
	h.logger.Debug("request", "method", method, "route", route)
}

func (h *LogHooks) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	h.logger.Debug("response", "method", method, "route", route, "status", status, "took", d)
}

var (
	_ PipelineHooks = (*LogHooks)(nil)
	_ CacheHooks    = (*LogHooks)(nil)
	_ ServerHooks   = (*LogHooks)(nil)
)
