// SPDX-License-Identifier: MPL-2.0

// Package rlog builds the leveled logger shared by every build component.
//
// Levels run Debug < Trace < Info < Warn < Error < Fatal. Trace sits
// between charmbracelet/log's Debug and Info levels and is used for
// per-step progress that is too noisy for normal runs.
package rlog

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// TraceLevel is logged with Trace and Tracef.
const TraceLevel log.Level = -2

// Prefix labels output from the tool.
const Prefix = "releasebuilder"

var traceColor = lipgloss.Color("#9CA3AF")

// Options configures New.
type Options struct {
	Level     log.Level
	Prefix    string
	Timestamp bool
}

// New creates a logger writing to w with a styled Trace level.
func New(w io.Writer, opts Options) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		Level:           opts.Level,
		Prefix:          opts.Prefix,
		ReportTimestamp: opts.Timestamp,
	})
	styles := log.DefaultStyles()
	styles.Levels[TraceLevel] = lipgloss.NewStyle().
		SetString("TRACE").
		Bold(true).
		MaxWidth(4).
		Foreground(traceColor)
	logger.SetStyles(styles)
	return logger
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

// LevelForVerbosity maps the repeatable -v flag to a threshold: none is
// Info, one is Trace and two or more is Debug.
func LevelForVerbosity(n int) log.Level {
	switch {
	case n <= 0:
		return log.InfoLevel
	case n == 1:
		return TraceLevel
	default:
		return log.DebugLevel
	}
}

// Trace logs msg at TraceLevel.
func Trace(l *log.Logger, msg string, keyvals ...any) {
	l.Log(TraceLevel, msg, keyvals...)
}

// Tracef logs a formatted message at TraceLevel.
func Tracef(l *log.Logger, format string, args ...any) {
	l.Logf(TraceLevel, format, args...)
}

// Fatal logs msg at FatalLevel without exiting the process.
func Fatal(l *log.Logger, msg string, keyvals ...any) {
	l.Log(log.FatalLevel, msg, keyvals...)
}
