// Package logging installs the process-wide slog logger.
package logging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where log records go
type Options struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	Stderr     io.Writer
}

// ParseLevel maps a settings level name onto a slog level
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup builds the logger, makes it the slog default and returns a closer
// for the rotating file. Text goes to stderr; when File is set the same
// records are also written as JSON through lumberjack.
func Setup(opts Options) (*slog.Logger, io.Closer) {
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}

	var handler slog.Handler = slog.NewTextHandler(stderr, handlerOpts)
	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		rotating := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			Compress:   true,
		}
		handler = fanout{handler, slog.NewJSONHandler(rotating, handlerOpts)}
		closer = rotating
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// fanout sends every record to each handler
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
