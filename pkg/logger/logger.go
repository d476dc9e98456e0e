// Package logger is the structured logging layer shared by the importer
// packages. It wraps logrus behind a small interface so components derive
// child loggers carrying their own fields.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger is implemented by every logger handed to importer components
type Logger interface {
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	WithField(key string, value interface{}) Logger
	WithFields(fields Fields) Logger
	WithError(err error) Logger
	WithComponent(component string) Logger
}

// Fields are structured key-value pairs attached to a log line
type Fields map[string]interface{}

// Level is a minimum severity
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// IsValid reports whether l is one of the supported levels
func (l Level) IsValid() bool {
	switch l {
	case DebugLevel, InfoLevel, WarnLevel, ErrorLevel:
		return true
	}
	return false
}

func (l Level) logrusLevel() logrus.Level {
	switch l {
	case DebugLevel:
		return logrus.DebugLevel
	case WarnLevel:
		return logrus.WarnLevel
	case ErrorLevel:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// Format selects the line encoding
type Format string

const (
	JSONFormat Format = "json"
	TextFormat Format = "text"
)

// IsValid reports whether f is a supported format
func (f Format) IsValid() bool {
	return f == JSONFormat || f == TextFormat
}

// Output selects where lines are written
type Output string

const (
	StdoutOutput Output = "stdout"
	StderrOutput Output = "stderr"
	FileOutput   Output = "file"
)

// IsValid reports whether o is a supported destination
func (o Output) IsValid() bool {
	switch o {
	case StdoutOutput, StderrOutput, FileOutput:
		return true
	}
	return false
}

// Config describes how a logger writes
type Config struct {
	Level            Level  `json:"level" mapstructure:"level"`
	Format           Format `json:"format" mapstructure:"format"`
	Output           Output `json:"output" mapstructure:"output"`
	File             string `json:"file,omitempty" mapstructure:"file"`
	DisableTimestamp bool   `json:"disable_timestamp,omitempty" mapstructure:"disable_timestamp"`
	CallerInfo       bool   `json:"caller_info,omitempty" mapstructure:"caller_info"`

	// Writer takes precedence over Output and File.
	Writer io.Writer `json:"-" mapstructure:"-"`
}

// DefaultConfig logs info and above as text to stderr, keeping stdout free
// for command output
func DefaultConfig() *Config {
	return &Config{Level: InfoLevel, Format: TextFormat, Output: StderrOutput}
}

// DebugConfig is DefaultConfig at debug level with caller locations
func DebugConfig() *Config {
	config := DefaultConfig()
	config.Level = DebugLevel
	config.CallerInfo = true
	return config
}

// Validate checks the level, format and destination
func (c *Config) Validate() error {
	if !c.Level.IsValid() {
		return fmt.Errorf("invalid log level: %q", c.Level)
	}
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid log format: %q", c.Format)
	}
	if c.Writer != nil {
		return nil
	}
	if !c.Output.IsValid() {
		return fmt.Errorf("invalid log output: %q", c.Output)
	}
	if c.Output == FileOutput && strings.TrimSpace(c.File) == "" {
		return fmt.Errorf("log file path is required for file output")
	}
	return nil
}

func (c *Config) writer() (io.Writer, error) {
	if c.Writer != nil {
		return c.Writer, nil
	}
	switch c.Output {
	case StdoutOutput:
		return os.Stdout, nil
	case FileOutput:
		if dir := filepath.Dir(c.File); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create log directory %s: %w", dir, err)
			}
		}
		f, err := os.OpenFile(c.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file %s: %w", c.File, err)
		}
		return f, nil
	default:
		return os.Stderr, nil
	}
}

// shortCaller renders the caller as file:line
func shortCaller(f *runtime.Frame) (string, string) {
	return "", fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)
}

func (c *Config) formatter() logrus.Formatter {
	if c.Format == JSONFormat {
		return &logrus.JSONFormatter{
			DisableTimestamp: c.DisableTimestamp,
			TimestampFormat:  time.RFC3339,
			CallerPrettyfier: shortCaller,
		}
	}
	return &logrus.TextFormatter{
		DisableTimestamp: c.DisableTimestamp,
		FullTimestamp:    !c.DisableTimestamp,
		TimestampFormat:  time.DateTime,
		CallerPrettyfier: shortCaller,
	}
}

// NewLogger builds a logrus-backed logger. A nil config means DefaultConfig.
func NewLogger(config *Config) (Logger, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid logger configuration: %w", err)
	}

	out, err := config.writer()
	if err != nil {
		return nil, err
	}

	base := logrus.New()
	base.SetOutput(out)
	base.SetLevel(config.Level.logrusLevel())
	base.SetFormatter(config.formatter())
	base.SetReportCaller(config.CallerInfo)

	return entryLogger{entry: logrus.NewEntry(base)}, nil
}

// entryLogger carries its fields in a logrus entry, so every With* call
// returns an independent child
type entryLogger struct {
	entry *logrus.Entry
}

func (l entryLogger) Debug(args ...interface{})                 { l.entry.Debug(args...) }
func (l entryLogger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l entryLogger) Info(args ...interface{})                  { l.entry.Info(args...) }
func (l entryLogger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l entryLogger) Warn(args ...interface{})                  { l.entry.Warn(args...) }
func (l entryLogger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l entryLogger) Error(args ...interface{})                 { l.entry.Error(args...) }
func (l entryLogger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

func (l entryLogger) WithField(key string, value interface{}) Logger {
	return entryLogger{entry: l.entry.WithField(key, value)}
}

func (l entryLogger) WithFields(fields Fields) Logger {
	return entryLogger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

func (l entryLogger) WithError(err error) Logger {
	return entryLogger{entry: l.entry.WithError(err)}
}

func (l entryLogger) WithComponent(component string) Logger {
	return l.WithField("component", component)
}

var (
	globalMu     sync.RWMutex
	globalLogger Logger
)

// SetGlobalLogger replaces the logger components fall back to. The CLI sets
// it once after loading configuration.
func SetGlobalLogger(l Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = l
}

// GetGlobalLogger returns the process logger, creating a DefaultConfig one on
// first use
func GetGlobalLogger() Logger {
	globalMu.RLock()
	l := globalLogger
	globalMu.RUnlock()
	if l != nil {
		return l
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		// DefaultConfig always validates and writes to stderr.
		globalLogger, _ = NewLogger(DefaultConfig())
	}
	return globalLogger
}
