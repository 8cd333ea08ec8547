package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures a ZerologLogger.
type Options struct {
	Component string
	// Verbose lowers the level from info to debug.
	Verbose bool
	// File, when set, receives a JSON copy of every line, e.g. logs/<location>.log.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	// Console defaults to stdout.
	Console io.Writer
}

// ZerologLogger implements Logger using rs/zerolog.
type ZerologLogger struct {
	base zerolog.Logger
	log  zerolog.Logger
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewZerologLogger builds a logger from opts. The console output is human
// readable when APP_ENV=dev and JSON otherwise. The returned Closer releases
// the log file and must be called once logging is over.
func NewZerologLogger(opts Options) (*ZerologLogger, io.Closer) {
	console := opts.Console
	if console == nil {
		console = os.Stdout
	}
	if strings.ToLower(os.Getenv("APP_ENV")) == "dev" {
		console = zerolog.ConsoleWriter{Out: console, TimeFormat: time.RFC3339}
	}

	var closer io.Closer = nopCloser{}
	out := console
	if opts.File != "" {
		_ = os.MkdirAll(filepath.Dir(opts.File), 0o755)
		file := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
		}
		out = zerolog.MultiLevelWriter(console, file)
		closer = file
	}

	level := zerolog.InfoLevel
	if opts.Verbose {
		level = zerolog.DebugLevel
	}
	base := zerolog.New(out).Level(level).With().Timestamp().Logger()
	return &ZerologLogger{base: base, log: base.With().Str("component", opts.Component).Logger()}, closer
}

// With returns a logger sharing the outputs and level of l with another
// component name.
func (l *ZerologLogger) With(component string) Logger {
	return &ZerologLogger{base: l.base, log: l.base.With().Str("component", component).Logger()}
}

func (l *ZerologLogger) Debugf(format string, args ...any) {
	l.log.Debug().Msgf(format, args...)
}

func (l *ZerologLogger) Debugw(msg string, fields map[string]any) {
	ev := l.log.Debug()
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

func (l *ZerologLogger) Infof(format string, args ...any) {
	l.log.Info().Msgf(format, args...)
}

func (l *ZerologLogger) Warnf(format string, args ...any) {
	l.log.Warn().Msgf(format, args...)
}

func (l *ZerologLogger) Errorf(format string, args ...any) {
	l.log.Error().Msgf(format, args...)
}
