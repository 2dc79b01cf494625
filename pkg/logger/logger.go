// Package logger sets up the process-wide slog logger and its gin middlewares.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

const redacted = "[redacted]"

// Attribute keys whose values grant access to paid files or operator routes.
var secretKeys = map[string]struct{}{
	"token":          {},
	"download_token": {},
	"admin_key":      {},
	"authorization":  {},
}

type Options struct {
	Level   string // debug, info, warn, error
	Console bool   // text output for local runs (LOG_FORMAT=console)
	Output  io.Writer
}

// Setup installs the default logger and returns it. Records pick up the
// correlation id from their context.
func Setup(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	handlerOpts := &slog.HandlerOptions{
		Level:       ParseLevel(opts.Level),
		AddSource:   true,
		ReplaceAttr: redact,
	}

	var handler slog.Handler
	if opts.Console {
		handler = slog.NewTextHandler(out, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(out, handlerOpts)
	}

	l := slog.New(NewCorrelationHandler(handler))
	slog.SetDefault(l)
	return l
}

// ParseLevel falls back to info for unknown names.
func ParseLevel(level string) slog.Level {
	if strings.EqualFold(level, "warning") {
		return slog.LevelWarn
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func isSecretKey(key string) bool {
	_, ok := secretKeys[strings.ToLower(key)]
	return ok
}

func redact(_ []string, a slog.Attr) slog.Attr {
	if isSecretKey(a.Key) {
		return slog.String(a.Key, redacted)
	}
	return a
}
