package logger

import corelogger "github.com/kilianp07/clover/core/logger"

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger implements Logger with no-op methods.
type NopLogger = corelogger.Nop

// New returns an info-level Logger for the given component writing to
// stdout. The format is picked from the APP_ENV variable.
func New(component string) Logger {
	l, _ := NewZerologLogger(Options{Component: component})
	return l
}
