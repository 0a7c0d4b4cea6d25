package observability

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestFieldConstructors(t *testing.T) {
	err := errors.New("boom")
	tests := []struct {
		field Field
		key   string
		value any
	}{
		{String("profile", "sRGB"), "profile", "sRGB"},
		{Int("rows", 4), "rows", 4},
		{Bool("proxy", true), "proxy", true},
		{Error("err", err), "err", err},
	}
	for _, tt := range tests {
		if tt.field.Key() != tt.key || tt.field.Value() != tt.value {
			t.Errorf("field = (%q, %v), want (%q, %v)", tt.field.Key(), tt.field.Value(), tt.key, tt.value)
		}
	}
}

func TestNopLogger(t *testing.T) {
	var l Logger = NopLogger{}
	l.Debug("x")
	l.Info("x", String("k", "v"))
	l.Warn("x")
	l.Error("x")
	if _, ok := l.With(Int("n", 1)).(NopLogger); !ok {
		t.Error("NopLogger.With did not return a NopLogger")
	}
}

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	l := NewSlogLogger(slog.New(h)).With(String("op", "convert"))

	l.Debug("hidden")
	l.Warn("transform failed", Int("row", 3))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug message logged below level: %q", out)
	}
	for _, want := range []string{"transform failed", "op=convert", "row=3", "level=WARN"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}
