package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tc := range tests {
		if got := ParseLevel(tc.in); got != tc.want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestSetupWritesFileAndStderr(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	path := filepath.Join(t.TempDir(), "logs", "relnotes.log")
	var stderr bytes.Buffer

	logger, closer, err := Setup(Options{File: path, Level: "info", Stderr: &stderr})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	logger.Info("fetched items", "prs", 3)
	logger.Debug("hidden")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "fetched items") {
		t.Fatalf("log file missing record: %q", data)
	}
	if strings.Contains(string(data), "hidden") {
		t.Fatalf("debug record leaked at info level: %q", data)
	}
	if !strings.Contains(stderr.String(), "prs=3") {
		t.Fatalf("stderr missing record: %q", stderr.String())
	}
}

func TestSetupQuietSkipsStderr(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relnotes.log")
	var stderr bytes.Buffer

	logger, closer, err := Setup(Options{File: path, Level: "debug", Quiet: true, Stderr: &stderr})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	defer closer.Close()

	logger.Warn("compare failed")
	if stderr.Len() != 0 {
		t.Fatalf("expected nothing on stderr in quiet mode, got %q", stderr.String())
	}
}

func TestMultiHandlerRespectsPerHandlerLevel(t *testing.T) {
	var low, high bytes.Buffer
	h := NewMultiHandler(
		slog.NewTextHandler(&low, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&high, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	logger := slog.New(h).With("repo", "acme/widgets")

	logger.Debug("page fetched")
	if !strings.Contains(low.String(), "repo=acme/widgets") {
		t.Fatalf("expected debug record with attrs, got %q", low.String())
	}
	if high.Len() != 0 {
		t.Fatalf("error-level handler received debug record: %q", high.String())
	}
}
