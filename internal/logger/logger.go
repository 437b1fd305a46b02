// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// Logger wraps slog.Logger so components can share a single logging type.
type Logger struct {
	*slog.Logger
}

// New returns a text logger writing to stderr.
func New(level slog.Level) *Logger {
	return NewLogger(level, os.Stderr)
}

// NewLogger returns a text logger writing to the given output.
func NewLogger(level slog.Level, output io.Writer) *Logger {
	return &Logger{slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: level}))}
}

// NewWithFormat returns a logger for the given handler format. Unknown formats fall back
// to text output.
func NewWithFormat(format string, level slog.Level, output io.Writer) *Logger {
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(format) {
	case FormatJSON:
		return &Logger{slog.New(slog.NewJSONHandler(output, opts))}
	default:
		return &Logger{slog.New(slog.NewTextHandler(output, opts))}
	}
}

// With returns a Logger that includes the given attributes in each output operation.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{l.Logger.With(args...)}
}

// Err returns the error as a slog attribute.
func Err(err error) slog.Attr {
	return slog.Any("error", err)
}
