// Package logging holds the process-wide slog logger and helpers to carry a
// logger through a context.
package logging

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/m-mizutani/clog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/masq"
)

type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
)

var (
	defaultMu     sync.RWMutex
	defaultLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
)

type ctxKey struct{}

// Default returns the process-wide logger. It discards everything until
// SetDefault is called.
func Default() *slog.Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

func SetDefault(logger *slog.Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = logger
}

// From returns the logger stored in ctx, or Default.
func From(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && logger != nil {
			return logger
		}
	}
	return Default()
}

func With(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// New builds a logger writing to w. Values tagged `masq:"secret"` and
// attributes named in secretFields are redacted in both formats.
func New(w io.Writer, level slog.Level, format Format, secretFields ...string) (*slog.Logger, error) {
	opts := []masq.Option{
		masq.WithTag("secret"),
	}
	for _, name := range secretFields {
		opts = append(opts, masq.WithFieldName(name))
	}
	filter := masq.New(opts...)

	var handler slog.Handler
	switch format {
	case FormatConsole:
		handler = clog.New(
			clog.WithWriter(w),
			clog.WithLevel(level),
			clog.WithReplaceAttr(filter),
			clog.WithSource(true),
		)
	case FormatJSON:
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			AddSource:   true,
			Level:       level,
			ReplaceAttr: filter,
		})
	default:
		return nil, goerr.New("unsupported log format", goerr.V("format", format))
	}

	return slog.New(handler), nil
}
