package cli

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a logger writing timestamped lines to w. Plain drops
// the styled text formatter for logfmt, for log files and NO_COLOR.
func newLogger(w io.Writer, level log.Level, plain bool) *log.Logger {
	opts := log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	}
	if plain {
		opts.Formatter = log.LogfmtFormatter
	}
	return log.NewWithOptions(w, opts)
}

// logLevel maps the verbosity flags to a level. Quiet wins over verbose.
func logLevel(verbose, quiet bool) log.Level {
	switch {
	case quiet:
		return log.ErrorLevel
	case verbose:
		return log.DebugLevel
	default:
		return log.InfoLevel
	}
}

// progress logs the elapsed time of one operation.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// logWarner sends render warnings to a logger. Workers share one.
type logWarner struct {
	logger *log.Logger
	count  atomic.Int64
}

func newLogWarner(l *log.Logger) *logWarner {
	return &logWarner{logger: l}
}

func (w *logWarner) Warn(msg string, line int, file string) {
	w.count.Add(1)
	w.logger.Warn(msg, "line", line, "file", file)
}

func (w *logWarner) Count() int64 { return w.count.Load() }

type ctxKey int

const (
	loggerKey ctxKey = iota
	appKey
)

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext falls back to log.Default so commands run outside the
// root command still log somewhere.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
