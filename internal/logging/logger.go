// Package logging provides structured logging for the CLI, TUI and GUI front ends.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/pminternship/alloc-admin/internal/constants"
)

// Mode selects where console output goes.
type Mode string

const (
	// ModeCLI writes to stdout; stderr is reserved for progress output.
	ModeCLI Mode = "cli"
	// ModeGUI writes to stderr so the window owns stdout.
	ModeGUI Mode = "gui"
	// ModeTUI writes only to the log file; the terminal belongs to the TUI.
	ModeTUI Mode = "tui"
)

// Logger wraps zerolog with mode-specific behavior.
type Logger struct {
	zlog   zerolog.Logger
	mode   Mode
	output io.Writer // current console writer
	file   io.WriteCloser
}

// Options configures a Logger.
type Options struct {
	Mode    Mode
	Level   string // trace|debug|info|warn|error; empty means info
	LogFile string // optional rotated JSON log file
}

// New creates a logger for the given options.
func New(opts Options) (*Logger, error) {
	if opts.Mode == "" {
		opts.Mode = ModeCLI
	}

	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	SetGlobalLevel(level)

	l := &Logger{mode: opts.Mode}

	if opts.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(opts.LogFile), 0700); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		l.file = &lumberjack.Logger{
			Filename:   opts.LogFile,
			MaxSize:    constants.LogFileMaxSizeMB,
			MaxBackups: constants.LogFileMaxBackups,
			MaxAge:     constants.LogFileMaxAgeDays,
		}
	}

	l.rebuild(consoleFor(opts.Mode))
	return l, nil
}

// NewLogger creates a console-only logger for the specified mode.
func NewLogger(mode Mode) *Logger {
	l := &Logger{mode: mode}
	l.rebuild(consoleFor(mode))
	return l
}

// NewDefaultCLILogger creates a default CLI logger.
func NewDefaultCLILogger() *Logger {
	return NewLogger(ModeCLI)
}

// NewNopLogger creates a logger that discards everything.
func NewNopLogger() *Logger {
	return &Logger{zlog: zerolog.Nop(), mode: ModeCLI}
}

// NewTestLogger creates a logger that writes plain JSON to w.
func NewTestLogger(w io.Writer) *Logger {
	return &Logger{
		zlog:   zerolog.New(w).With().Timestamp().Logger(),
		mode:   ModeCLI,
		output: w,
	}
}

func consoleFor(mode Mode) io.Writer {
	switch mode {
	case ModeGUI:
		return zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	case ModeTUI:
		return nil
	default:
		return zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
	}
}

func (l *Logger) rebuild(console io.Writer) {
	l.output = console

	var w io.Writer
	switch {
	case console != nil && l.file != nil:
		w = zerolog.MultiLevelWriter(console, l.file)
	case console != nil:
		w = console
	case l.file != nil:
		w = l.file
	default:
		w = io.Discard
	}

	l.zlog = zerolog.New(w).With().Timestamp().Logger()
}

// Info returns an info level event.
func (l *Logger) Info() *zerolog.Event {
	return l.zlog.Info()
}

// Error returns an error level event.
func (l *Logger) Error() *zerolog.Event {
	return l.zlog.Error()
}

// Debug returns a debug level event.
func (l *Logger) Debug() *zerolog.Event {
	return l.zlog.Debug()
}

// Warn returns a warn level event.
func (l *Logger) Warn() *zerolog.Event {
	return l.zlog.Warn()
}

// With creates a child logger context with additional fields.
func (l *Logger) With() zerolog.Context {
	return l.zlog.With()
}

// Named returns a child logger tagged with a component name.
func (l *Logger) Named(component string) *Logger {
	return &Logger{
		zlog:   l.zlog.With().Str("component", component).Logger(),
		mode:   l.mode,
		output: l.output,
		file:   l.file,
	}
}

// Zerolog returns the underlying zerolog logger for libraries that take one.
func (l *Logger) Zerolog() zerolog.Logger {
	return l.zlog
}

// SetOutput changes the console writer for the logger.
// Used to route log lines through progress bars.
func (l *Logger) SetOutput(w io.Writer) {
	if w == nil {
		l.rebuild(nil)
		return
	}
	l.rebuild(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"})
}

// Output returns the current console writer.
func (l *Logger) Output() io.Writer {
	return l.output
}

// Mode returns the logger's front-end mode.
func (l *Logger) Mode() Mode {
	return l.mode
}

// Close flushes and closes the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Debugf logs a debug message with printf-style formatting.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.zlog.Debug().Msgf(format, args...)
}

// Infof logs an info message with printf-style formatting.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.zlog.Info().Msgf(format, args...)
}

// Errorf logs an error message with printf-style formatting.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.zlog.Error().Msgf(format, args...)
}

// Warnf logs a warning message with printf-style formatting.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.zlog.Warn().Msgf(format, args...)
}

// ParseLevel maps a level name to a zerolog level. Empty means info.
func ParseLevel(s string) (zerolog.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	if s == "warning" {
		s = "warn"
	}
	level, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.InfoLevel, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// SetGlobalLevel sets the global log level.
func SetGlobalLevel(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
}

func init() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	})
}
