// Package logging wraps github.com/charmbracelet/log behind a narrow
// interface so the synthesis and parsing packages depend on a logging
// contract rather than a concrete library. It is used only outside the
// render path: SoundFont loading and synthesizer construction log at
// Info/Warn level; nothing in Channel.Render, Voice.Update, or Voice.Render
// logs, since that would violate the real-time per-sample budget.
package logging

import (
	"io"
	"os"

	charmlog "github.com/charmbracelet/log"
)

// Logger is the logging contract core packages accept. A nil Logger is not
// valid; use Nop for a caller that wants to discard all output.
type Logger interface {
	Debug(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
	With(keyvals ...any) Logger
}

// charmLogger adapts *charmlog.Logger to Logger.
type charmLogger struct {
	l *charmlog.Logger
}

// New returns a Logger that writes human-readable, leveled output to w.
func New(w io.Writer) Logger {
	return charmLogger{l: charmlog.NewWithOptions(w, charmlog.Options{ReportTimestamp: true})}
}

// Default returns a Logger writing to stderr at Info level.
func Default() Logger {
	return New(os.Stderr)
}

func (c charmLogger) Debug(msg string, keyvals ...any) { c.l.Debug(msg, keyvals...) }
func (c charmLogger) Info(msg string, keyvals ...any)  { c.l.Info(msg, keyvals...) }
func (c charmLogger) Warn(msg string, keyvals ...any)  { c.l.Warn(msg, keyvals...) }
func (c charmLogger) Error(msg string, keyvals ...any) { c.l.Error(msg, keyvals...) }
func (c charmLogger) With(keyvals ...any) Logger {
	return charmLogger{l: c.l.With(keyvals...)}
}

// nopLogger discards everything. Useful for tests and library callers that
// don't want log output.
type nopLogger struct{}

// Nop is a Logger that discards every call.
var Nop Logger = nopLogger{}

func (nopLogger) Debug(string, ...any)  {}
func (nopLogger) Info(string, ...any)   {}
func (nopLogger) Warn(string, ...any)   {}
func (nopLogger) Error(string, ...any)  {}
func (nopLogger) With(...any) Logger    { return nopLogger{} }
