/*
Package logging builds the structured loggers used across the tools,
writing to the standard error or to a rotated log file.
*/
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds the log level, format and output of a logger. An empty
// File logs to the standard error, otherwise the file is rotated once it
// reaches MaxSize megabytes.
type Config struct {
	Level      string `mapstructure:"level"       yaml:"level"       validate:"omitempty,oneof=debug info warn error"`
	Format     string `mapstructure:"format"      yaml:"format"      validate:"omitempty,oneof=json text"`
	File       string `mapstructure:"file"        yaml:"file"`
	MaxSize    int    `mapstructure:"max_size"    yaml:"max_size"    validate:"min=0"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups" validate:"min=0"`
	MaxAge     int    `mapstructure:"max_age"     yaml:"max_age"     validate:"min=0"`
	Compress   bool   `mapstructure:"compress"    yaml:"compress"`
}

// ParseLevel returns the slog.Level named by s, info for an empty string.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

/*
New takes a Config and returns a logger built from it along with a
function to release its output, or an error if the config is invalid.
*/
func New(cfg Config) (*slog.Logger, func() error, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	var w io.Writer = os.Stderr
	closer := func() error { return nil }
	if cfg.File != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		w, closer = lj, lj.Close
	}
	logger, err := NewWithWriter(w, cfg.Format, level)
	if err != nil {
		closer()
		return nil, nil, err
	}
	return logger, closer, nil
}

// NewWithWriter returns a logger writing records of at least the given
// level to w in the given format, text if empty.
func NewWithWriter(w io.Writer, format string, level slog.Level) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("unknown log format %q", format)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
