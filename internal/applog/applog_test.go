package applog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFormat(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	got := format(now, LevelError, "pin.failed", errors.New("no tab"), []any{"tab", 42, "url", "https://a/ b"})
	want := `2024-03-01T12:30:00.000Z ERROR pin.failed err="no tab" tab=42 url="https://a/ b"` + "\n"
	if got != want {
		t.Errorf("got  %q\nwant %q", got, want)
	}
}

func TestQuoteTruncates(t *testing.T) {
	got := quote(strings.Repeat("x", 300))
	if !strings.HasSuffix(got, truncSuffix) || len(got) != maxValueLen+len(truncSuffix) {
		t.Errorf("quote did not truncate: len %d", len(got))
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"warning": LevelWarn,
		"error":   LevelError,
		"":        LevelInfo,
		"bogus":   LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestInitWritesAndFilters(t *testing.T) {
	dir := t.TempDir()
	if err := Init(dir); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() {
		Close()
		SetLevel(LevelInfo)
	})

	SetLevel(LevelInfo)
	Debug("hidden.event")
	Info("shown.event", "k", "v")
	Close()

	data, err := os.ReadFile(filepath.Join(dir, fileName))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "hidden.event") {
		t.Error("debug line written at info level")
	}
	if !strings.Contains(string(data), "INFO shown.event k=v") {
		t.Errorf("log = %q", data)
	}
}

func TestUninitialisedIsNoop(t *testing.T) {
	Close()
	Info("nothing") // must not panic
}
