// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("new should successfully create a logger", func(t *testing.T) {
		l := New(slog.LevelInfo)
		if l == nil {
			t.Fatal("expected logger to be non-nil")
		}
	})
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name        string
		level       slog.Level
		shouldDebug bool
		shouldInfo  bool
		shouldWarn  bool
	}{
		{"DEBUG", slog.LevelDebug, true, true, true},
		{"INFO", slog.LevelInfo, false, true, true},
		{"WARN", slog.LevelWarn, false, false, true},
		{"ERROR", slog.LevelError, false, false, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			buf := bytes.NewBuffer(nil)
			l := NewLogger(tc.level, buf)
			l.Debug("dbg-message")
			l.Info("inf-message")
			l.Warn("wrn-message")
			l.Error("err-message")

			checks := map[string]bool{
				"dbg-message": tc.shouldDebug,
				"inf-message": tc.shouldInfo,
				"wrn-message": tc.shouldWarn,
				"err-message": true,
			}
			for msg, want := range checks {
				if got := bytes.Contains(buf.Bytes(), []byte(msg)); got != want {
					t.Errorf("message %q logged: %t, want: %t", msg, got, want)
				}
			}
		})
	}
}

func TestNewWithFormat(t *testing.T) {
	t.Run("json format produces JSON lines", func(t *testing.T) {
		buf := bytes.NewBuffer(nil)
		l := NewWithFormat(FormatJSON, slog.LevelInfo, buf)
		l.Info("record stored", slog.Int("index", 3))

		var line map[string]any
		if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
			t.Fatalf("expected JSON output, got %q: %s", buf.String(), err)
		}
		if line["msg"] != "record stored" {
			t.Errorf("expected msg to be %q, got %v", "record stored", line["msg"])
		}
		if line["index"] != float64(3) {
			t.Errorf("expected index attribute to be 3, got %v", line["index"])
		}
	})
	t.Run("unknown format falls back to text", func(t *testing.T) {
		buf := bytes.NewBuffer(nil)
		l := NewWithFormat("xml", slog.LevelInfo, buf)
		l.Info("fallback")
		if !bytes.Contains(buf.Bytes(), []byte("msg=fallback")) {
			t.Errorf("expected text output, got %q", buf.String())
		}
	})
}

func TestLogger_With(t *testing.T) {
	buf := bytes.NewBuffer(nil)
	l := NewLogger(slog.LevelInfo, buf).With(slog.String("session", "abc"))
	l.Info("hello")
	if !bytes.Contains(buf.Bytes(), []byte("session=abc")) {
		t.Errorf("expected session attribute in output, got %q", buf.String())
	}
}

func TestErr(t *testing.T) {
	t.Run("error attributes should be logged", func(t *testing.T) {
		buf := bytes.NewBuffer(nil)
		l := NewLogger(slog.LevelDebug, buf)
		want := "intentionally failing"
		l.Error("this is a test", Err(errors.New(want)))

		if !bytes.Contains(buf.Bytes(), []byte(`error="`+want+`"`)) {
			t.Errorf("expected error message to contain %q, got: %q", want, buf.String())
		}
	})
}
