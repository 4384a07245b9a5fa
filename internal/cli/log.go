// Package cli implements the axiom-profiler command-line interface.
//
// Every command takes a trace facts document (JSON, optionally gzip or
// zstd compressed) and works on the instantiation graph built from it.
//
// # Commands
//
// The main commands are:
//   - stats: Print node counts and the most instantiated quantifiers
//   - filter: Apply a filter chain and disablers, list what stays visible
//   - inspect: Describe one node and its visible edges
//   - reach: Show what a node depends on and what depends on it
//   - render: Write the visible graph as DOT, SVG, PNG or JSON
//   - explore: Interactive filter and disabler editing in the terminal
//   - serve: Serve a trace over HTTP
//   - cache: Manage the result cache
//
// # Logging
//
// Logs go to stderr. Loading a trace and applying a view each log one info
// line with per-stage timings. --verbose (-v) switches to debug level, which
// adds the individual stages, engine debug output and caller locations.
// Loggers are passed through context.Context.
//
// # Configuration
//
// Defaults for the filter chain, disablers and cache backend come from
// $XDG_CONFIG_HOME/axiom-profiler/config.toml or the file named by --config.
// Flags override it.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger returns the command logger. Debug level also reports the
// calling file and line.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.000",
		ReportCaller:    level <= log.DebugLevel,
		Level:           level,
	})
}

// timings measures the stages of loading a trace or applying a view and
// reports them as one line when the work is done.
type timings struct {
	logger *log.Logger
	start  time.Time
	last   time.Time
	stages []any
}

func startTimings(l *log.Logger) *timings {
	now := time.Now()
	return &timings{logger: l, start: now, last: now}
}

// stage closes the stage that ran since the previous call.
func (t *timings) stage(name string) {
	now := time.Now()
	d := now.Sub(t.last).Round(time.Microsecond)
	t.last = now
	t.stages = append(t.stages, name, d)
	t.logger.Debug("stage finished", "stage", name, "elapsed", d)
}

// done logs msg with kv, each stage's duration and the total.
func (t *timings) done(msg string, kv ...any) {
	kv = append(kv, t.stages...)
	kv = append(kv, "total", time.Since(t.start).Round(time.Millisecond))
	t.logger.Info(msg, kv...)
}

type loggerKey struct{}

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// loggerFromContext returns the logger set by withLogger, or log.Default.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
