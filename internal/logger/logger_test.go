package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBuildStdoutLogger(t *testing.T) {
	lg, closer := Config{}.Build()
	if lg == nil {
		t.Fatalf("expected logger")
	}
	if err := closer.Close(); err != nil {
		t.Fatalf("stdout closer: %v", err)
	}
}

func TestBuildFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portald.log")
	lg, closer := Config{File: FileConfig{Path: path}}.Build()
	if closer == nil {
		t.Fatalf("expected closer for file logger")
	}
	lg.Info("hello", "k", "v")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not created: %v", err)
	}
	if !strings.Contains(string(b), "hello") {
		t.Fatalf("log line missing: %q", string(b))
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestColorTextHandlerAddsLevelColor(t *testing.T) {
	var buf bytes.Buffer
	lg := slog.New(newColorTextHandler(&buf, nil))
	lg.Warn("careful")
	out := buf.String()
	if !strings.Contains(out, "\033[33m") {
		t.Fatalf("expected yellow escape in %q", out)
	}
	if !strings.Contains(out, "careful") {
		t.Fatalf("message missing in %q", out)
	}
}
