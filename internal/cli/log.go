// Package cli implements the stagegraph command-line interface.
//
// The CLI reads pipeline stage files (JSON, YAML or TOML), computes their
// layout and renders it, or hosts the graph interactively in the terminal
// or over HTTP. Commands are built with cobra on a shared [CLI] value and
// log through charmbracelet/log.
//
// # Commands
//
// The main commands are:
//   - layout: Compute a layout and write it as layout.json
//   - render: Lay out and render stages to SVG, PNG, PDF, JSON or DOT
//   - visualize: Render a previously computed layout.json
//   - browse: Walk the graph in the terminal and click nodes
//   - serve: Host the clickable graph over HTTP
//   - cache: Inspect and clear the layout and artifact cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// logs layout, render, cache and click events through the observability
// hooks.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stagegraph/pkg/observability"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// Example output: "Rendered 3 artifacts (12ms)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// =============================================================================
// Hook Logging
// =============================================================================

// EnableHookLogging logs every observability event at debug level.
func (c *CLI) EnableHookLogging() {
	h := &logHooks{logger: c.Logger}
	observability.SetLayoutHooks(h)
	observability.SetRenderHooks(h)
	observability.SetCacheHooks(h)
	observability.SetSelectionHooks(h)
	observability.SetHTTPHooks(h)
}

type logHooks struct {
	logger *log.Logger
}

func (h *logHooks) OnStagesLoaded(_ context.Context, source string, stageCount int, err error) {
	h.logger.Debug("stages loaded", "source", source, "stages", stageCount, "error", err)
}

func (h *logHooks) OnLayoutStart(_ context.Context, stageCount int) {
	h.logger.Debug("layout start", "stages", stageCount)
}

func (h *logHooks) OnLayoutComplete(_ context.Context, nodeCount int, d time.Duration, err error) {
	h.logger.Debug("layout complete", "nodes", nodeCount, "duration", d, "error", err)
}

func (h *logHooks) OnRenderStart(_ context.Context, formats []string) {
	h.logger.Debug("render start", "formats", formats)
}

func (h *logHooks) OnRenderComplete(_ context.Context, formats []string, d time.Duration, err error) {
	h.logger.Debug("render complete", "formats", formats, "duration", d, "error", err)
}

func (h *logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *logHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *logHooks) OnClick(_ context.Context, nodeKey string, dispatched bool) {
	h.logger.Debug("click", "key", nodeKey, "dispatched", dispatched)
}

func (h *logHooks) OnSelectionChanged(_ context.Context, from, to string) {
	h.logger.Debug("selection changed", "from", from, "to", to)
}

func (h *logHooks) OnRequest(_ context.Context, method, path string) {}

func (h *logHooks) OnResponse(_ context.Context, method, path string, status int, d time.Duration) {
	h.logger.Debug("http", "method", method, "path", path, "status", status, "duration", d)
}
