// Package cli implements the vulnpack command-line interface.
//
// The CLI is built using cobra and logs through charmbracelet/log.
//
// # Commands
//
// The main commands are:
//   - scan: Build a manifest from a technology report, install it and audit it
//   - technologies: Show the confidence-100 technologies of a report
//   - findings: Normalize a captured npm audit report
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// reports per-stage timings through the pipeline hooks.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
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
// Example output: "Scan complete (12.345s)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// logHooks reports pipeline stage timings at debug level.
type logHooks struct {
	logger *log.Logger
}

func (h logHooks) OnResolveStart(_ context.Context, technologies int) {
	h.logger.Debug("resolve started", "technologies", technologies)
}

func (h logHooks) OnResolveComplete(_ context.Context, resolved, skipped int, d time.Duration) {
	h.logger.Debug("resolve finished", "resolved", resolved, "skipped", skipped, "duration", d)
}

func (h logHooks) OnToolStart(_ context.Context, step string) {
	h.logger.Debug("npm step started", "step", step)
}

func (h logHooks) OnToolComplete(_ context.Context, step string, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("npm step failed", "step", step, "duration", d, "err", err)
		return
	}
	h.logger.Debug("npm step finished", "step", step, "duration", d)
}

func (h logHooks) OnNormalizeComplete(_ context.Context, findings int, d time.Duration) {
	h.logger.Debug("normalized audit report", "findings", findings, "duration", d)
}

// httpLogHooks reports registry requests at debug level.
type httpLogHooks struct {
	logger *log.Logger
}

func (h httpLogHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("registry request", "method", method, "host", host, "path", path)
}

func (h httpLogHooks) OnResponse(_ context.Context, _, host, path string, status int, d time.Duration) {
	h.logger.Debug("registry response", "host", host, "path", path, "status", status, "duration", d)
}

func (h httpLogHooks) OnError(_ context.Context, _, host, path string, err error) {
	h.logger.Debug("registry error", "host", host, "path", path, "err", err)
}
