package diag

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriter_CreatesDirectoryAndAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "errors.log")
	w := NewWriter(path, MaxBytes)

	_, err := w.Write([]byte("one\n"))
	require.NoError(t, err)
	_, err = w.Write([]byte("two\n"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "one\ntwo\n", string(data))
}

func TestWriter_TrimsOldestHalfAtLineBoundary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "errors.log")
	w := NewWriter(path, 1000)

	for i := 0; i < 60; i++ {
		_, err := w.Write([]byte(strings.Repeat("x", 19) + "\n"))
		require.NoError(t, err)
	}
	_, err := w.Write([]byte("newest\n"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.LessOrEqual(t, len(data), 1000)
	require.True(t, bytes.HasSuffix(data, []byte("newest\n")))
	for _, line := range strings.Split(strings.TrimSuffix(string(data), "\n"), "\n") {
		require.True(t, line == "newest" || len(line) == 19, "partial line %q", line)
	}
}

func TestTrim_NoopUnderCap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "errors.log")
	require.NoError(t, os.WriteFile(path, []byte("a\nb\n"), 0o600))
	require.NoError(t, Trim(path, 100))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "a\nb\n", string(data))
}

func TestNewLogger_WritesJSONRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "errors.log")
	logger := NewLogger(path, slog.LevelWarn)
	logger.Info("dropped")
	logger.Warn("kept", "hook", "stop")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	require.Equal(t, "kept", rec["msg"])
	require.Equal(t, "stop", rec["hook"])
}

func TestLevelFromEnv(t *testing.T) {
	t.Setenv(envLogLevel, "")
	require.Equal(t, slog.LevelWarn, LevelFromEnv())
	t.Setenv(envLogLevel, "debug")
	require.Equal(t, slog.LevelDebug, LevelFromEnv())
	t.Setenv(envLogLevel, "bogus")
	require.Equal(t, slog.LevelWarn, LevelFromEnv())
}
