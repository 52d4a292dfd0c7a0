// Package diag is the best-effort diagnostic log hooks write to instead of stdout.
package diag

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// MaxBytes caps the diagnostic log. Past it the oldest half is dropped.
const MaxBytes = 256 << 10

const envLogLevel = "MEMHOOK_LOG_LEVEL"

// Writer appends to a size-capped file. Each Write opens and closes the file
// so concurrent hook processes interleave whole records.
type Writer struct {
	mu   sync.Mutex
	path string
	max  int64
}

// NewWriter returns a Writer for path capped at max bytes.
func NewWriter(path string, max int64) *Writer {
	return &Writer{path: path, max: max}
}

// Path returns the log file location.
func (w *Writer) Path() string { return w.path }

func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(w.path), 0o750); err != nil {
		return 0, err
	}
	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600) //nolint:gosec // G304: fixed path inside the flag dir
	if err != nil {
		return 0, err
	}
	n, err := f.Write(p)
	info, statErr := f.Stat()
	_ = f.Close()
	if err != nil {
		return n, err
	}
	if statErr == nil && w.max > 0 && info.Size() > w.max {
		_ = Trim(w.path, w.max)
	}
	return n, nil
}

// Trim drops the oldest half of the file once it exceeds max bytes. The cut
// lands on a line boundary so no record is left partial.
func Trim(path string, max int64) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: fixed path inside the flag dir
	if err != nil {
		return err
	}
	if int64(len(data)) <= max {
		return nil
	}

	rest := data[len(data)/2:]
	if i := bytes.IndexByte(rest, '\n'); i >= 0 {
		rest = rest[i+1:]
	} else {
		rest = nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-log-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(rest); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// LevelFromEnv reads MEMHOOK_LOG_LEVEL, defaulting to warn.
func LevelFromEnv() slog.Level {
	var level slog.Level
	v := strings.TrimSpace(os.Getenv(envLogLevel))
	if v == "" || level.UnmarshalText([]byte(v)) != nil {
		return slog.LevelWarn
	}
	return level
}

// NewLogger returns a JSON logger that writes to path.
func NewLogger(path string, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(NewWriter(path, MaxBytes), &slog.HandlerOptions{Level: level}))
}
