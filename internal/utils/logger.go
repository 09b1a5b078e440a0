// internal/utils/logger.go

package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger defines the interface for logging throughout the application.
type Logger interface {
	Debug(msg string)
	Debugf(format string, args ...interface{})
	Info(msg string)
	Infof(format string, args ...interface{})
	Warn(msg string)
	Warnf(format string, args ...interface{})
	Error(msg string)
	Errorf(format string, args ...interface{})
	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
}

// LogConfig controls the process-wide logger.
type LogConfig struct {
	Level      string `yaml:"level" json:"level"`
	File       string `yaml:"file,omitempty" json:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb,omitempty" json:"max_size_mb,omitempty"`
	MaxBackups int    `yaml:"max_backups,omitempty" json:"max_backups,omitempty"`
	MaxAgeDays int    `yaml:"max_age_days,omitempty" json:"max_age_days,omitempty"`
	NoColor    bool   `yaml:"no_color" json:"no_color"`
}

// DefaultLogConfig returns console-only logging at info level.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:      "info",
		MaxSizeMB:  10,
		MaxBackups: 3,
		MaxAgeDays: 28,
	}
}

var (
	rootMu sync.RWMutex
	root   = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.DateTime}).
		With().Timestamp().Logger()
)

// InitLogger configures the root logger. Loggers obtained afterwards write
// to the console and, when File is set, to a rotating log file.
func InitLogger(cfg LogConfig) error {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	writers := []io.Writer{zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.DateTime,
		NoColor:    cfg.NoColor,
	}}

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		})
	}

	rootMu.Lock()
	root = zerolog.New(zerolog.MultiLevelWriter(writers...)).Level(level).
		With().Timestamp().Logger()
	rootMu.Unlock()
	return nil
}

// ZeroLogger adapts a zerolog.Logger to the Logger interface.
type ZeroLogger struct {
	zl zerolog.Logger
}

// NewLogger returns a logger writing through the root logger.
func NewLogger() Logger {
	rootMu.RLock()
	defer rootMu.RUnlock()
	return &ZeroLogger{zl: root}
}

// NewComponentLogger returns a root logger tagged with a component name.
func NewComponentLogger(component string) Logger {
	return NewLogger().WithField("component", component)
}

// NewWriterLogger builds a logger that writes JSON lines to w.
func NewWriterLogger(w io.Writer) Logger {
	return &ZeroLogger{zl: zerolog.New(w).With().Timestamp().Logger()}
}

// NewNopLogger discards everything.
func NewNopLogger() Logger {
	return &ZeroLogger{zl: zerolog.Nop()}
}

func (l *ZeroLogger) Debug(msg string) { l.zl.Debug().Msg(msg) }

func (l *ZeroLogger) Debugf(format string, args ...interface{}) {
	l.zl.Debug().Msgf(format, args...)
}

func (l *ZeroLogger) Info(msg string) { l.zl.Info().Msg(msg) }

func (l *ZeroLogger) Infof(format string, args ...interface{}) {
	l.zl.Info().Msgf(format, args...)
}

func (l *ZeroLogger) Warn(msg string) { l.zl.Warn().Msg(msg) }

func (l *ZeroLogger) Warnf(format string, args ...interface{}) {
	l.zl.Warn().Msgf(format, args...)
}

func (l *ZeroLogger) Error(msg string) { l.zl.Error().Msg(msg) }

func (l *ZeroLogger) Errorf(format string, args ...interface{}) {
	l.zl.Error().Msgf(format, args...)
}

func (l *ZeroLogger) WithField(key string, value interface{}) Logger {
	return &ZeroLogger{zl: l.zl.With().Interface(key, value).Logger()}
}

func (l *ZeroLogger) WithFields(fields map[string]interface{}) Logger {
	return &ZeroLogger{zl: l.zl.With().Fields(fields).Logger()}
}
