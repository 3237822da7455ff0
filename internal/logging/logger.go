// Package logging builds the zerolog loggers used across sidekick.
// Every component logs through a Sub logger named after itself.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is a zerolog logger with a subsystem field.
type Logger struct {
	zl zerolog.Logger
}

// New logs to w at level; a nil w means the pretty stderr console.
// "silent" disables output entirely.
func New(w io.Writer, level string) *Logger {
	if w == nil {
		w = Console("pretty")
	}
	return &Logger{zl: zerolog.New(w).Level(parseLevel(level)).With().Timestamp().Logger()}
}

// Console returns a stderr writer in the given style: "pretty", "compact"
// (no colours, no timestamps) or "json".
func Console(style string) io.Writer {
	switch style {
	case "json":
		return os.Stderr
	case "compact":
		return zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true, PartsExclude: []string{zerolog.TimestampFieldName}}
	default:
		return zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
}

// FileOptions configures the rotating log file.
type FileOptions struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// RotatingFile returns a size-rotated file writer. Zero limits use 10 MB,
// 5 backups and 30 days.
func RotatingFile(opts FileOptions) io.WriteCloser {
	if opts.MaxSizeMB == 0 {
		opts.MaxSizeMB = 10
	}
	if opts.MaxBackups == 0 {
		opts.MaxBackups = 5
	}
	if opts.MaxAgeDays == 0 {
		opts.MaxAgeDays = 30
	}
	return &lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   opts.Compress,
	}
}

// NewWithFile logs to console at consoleLevel and, as JSON, to a rotating
// file at level. The returned closer releases the file.
func NewWithFile(level, consoleLevel, consoleStyle string, file FileOptions) (*Logger, io.Closer) {
	rotating := RotatingFile(file)
	out := zerolog.MultiLevelWriter(
		levelWriter{w: Console(consoleStyle), min: parseLevel(consoleLevel)},
		levelWriter{w: rotating, min: parseLevel(level)},
	)
	zl := zerolog.New(out).With().Timestamp().Logger()
	zl = zl.Level(minLevel(parseLevel(level), parseLevel(consoleLevel)))
	return &Logger{zl: zl}, rotating
}

// levelWriter drops events below min.
type levelWriter struct {
	w   io.Writer
	min zerolog.Level
}

func (lw levelWriter) Write(p []byte) (int, error) { return lw.w.Write(p) }

func (lw levelWriter) WriteLevel(l zerolog.Level, p []byte) (int, error) {
	if l < lw.min || lw.min == zerolog.Disabled {
		return len(p), nil
	}
	return lw.w.Write(p)
}

func minLevel(a, b zerolog.Level) zerolog.Level {
	if a == zerolog.Disabled {
		return b
	}
	if b == zerolog.Disabled {
		return a
	}
	return min(a, b)
}

// Sub returns a child logger tagged with a subsystem name.
func (l *Logger) Sub(subsystem string) *Logger {
	return &Logger{zl: l.zl.With().Str("subsystem", subsystem).Logger()}
}

func (l *Logger) Trace() *zerolog.Event { return l.zl.Trace() }
func (l *Logger) Debug() *zerolog.Event { return l.zl.Debug() }
func (l *Logger) Info() *zerolog.Event  { return l.zl.Info() }
func (l *Logger) Warn() *zerolog.Event  { return l.zl.Warn() }
func (l *Logger) Error() *zerolog.Event { return l.zl.Error() }

// Fatal exits the process once the event is sent.
func (l *Logger) Fatal() *zerolog.Event { return l.zl.Fatal() }

// Zerolog exposes the underlying logger, e.g. for libraries that take one.
func (l *Logger) Zerolog() zerolog.Logger { return l.zl }

// parseLevel accepts zerolog level names in any case plus "silent".
// Anything unrecognised logs at info.
func parseLevel(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "silent" {
		return zerolog.Disabled
	}
	l, err := zerolog.ParseLevel(s)
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}
