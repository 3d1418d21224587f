package applog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	fileName    = "autopin.log"
	maxFileSize = 5 << 20 // 5 MB
	maxValueLen = 200
	truncSuffix = "…"
)

// Level orders log severities.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[Level]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
}

// ParseLevel maps "debug", "info", "warn" and "error" to a Level,
// defaulting to LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

var (
	mu    sync.Mutex
	out   io.WriteCloser
	level = LevelInfo
)

// Init opens dir/autopin.log for appending. A file over 5 MB is rotated
// to autopin.log.1 first. Logging is a no-op until Init succeeds.
func Init(dir string) error {
	path := filepath.Join(dir, fileName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if info, err := os.Stat(path); err == nil && info.Size() > maxFileSize {
		os.Rename(path, path+".1")
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	SetOutput(f)
	return nil
}

// SetOutput directs log lines to w, closing any previous output.
// A nil w disables logging.
func SetOutput(w io.WriteCloser) {
	mu.Lock()
	defer mu.Unlock()
	if out != nil {
		out.Close()
	}
	out = w
}

// SetLevel drops events below l.
func SetLevel(l Level) {
	mu.Lock()
	level = l
	mu.Unlock()
}

// Close flushes and closes the log output.
func Close() {
	SetOutput(nil)
}

// Debug logs a verbose event.
func Debug(event string, kv ...any) {
	write(LevelDebug, event, nil, kv)
}

// Info logs a structured event line.
//
//	applog.Info("ws.connected", "remote", addr)
//	applog.Info("pin.send", "tab", 42)
func Info(event string, kv ...any) {
	write(LevelInfo, event, nil, kv)
}

// Warn logs a recoverable problem.
func Warn(event string, kv ...any) {
	write(LevelWarn, event, nil, kv)
}

// Error logs an event with an error.
//
//	applog.Error("move.failed", err, "tabs", ids)
func Error(event string, err error, kv ...any) {
	write(LevelError, event, err, kv)
}

func write(l Level, event string, err error, kv []any) {
	mu.Lock()
	w, threshold := out, level
	mu.Unlock()
	if w == nil || l < threshold {
		return
	}
	line := format(time.Now(), l, event, err, kv)

	mu.Lock()
	defer mu.Unlock()
	if out != nil {
		io.WriteString(out, line)
	}
}

func format(now time.Time, l Level, event string, err error, kv []any) string {
	var b strings.Builder
	b.WriteString(now.UTC().Format("2006-01-02T15:04:05.000Z"))
	b.WriteByte(' ')
	b.WriteString(levelNames[l])
	b.WriteByte(' ')
	b.WriteString(event)

	if err != nil {
		b.WriteString(" err=")
		b.WriteString(quote(err.Error()))
	}
	for i := 0; i+1 < len(kv); i += 2 {
		b.WriteByte(' ')
		b.WriteString(fmt.Sprint(kv[i]))
		b.WriteByte('=')
		b.WriteString(quote(fmt.Sprint(kv[i+1])))
	}
	b.WriteByte('\n')
	return b.String()
}

func quote(s string) string {
	if len(s) > maxValueLen {
		s = s[:maxValueLen] + truncSuffix
	}
	if strings.ContainsAny(s, " \t\n\"") {
		return "\"" + strings.ReplaceAll(s, "\"", "\\\"") + "\""
	}
	return s
}
