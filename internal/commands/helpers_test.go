package commands

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// testEnv points every resolver at temp locations. Env vars take precedence
// over config.yaml, so the process-wide settings cache cannot leak between tests.
func testEnv(t *testing.T, apiURL string) string {
	t.Helper()
	home := t.TempDir()
	flagDir := filepath.Join(home, "flags")
	t.Setenv("HOME", home)
	t.Setenv("MEMHOOK_FLAG_DIR", flagDir)
	t.Setenv("MEMHOOK_FLAG_BACKEND", "file")
	t.Setenv("MEMHOOK_API_URL", apiURL)
	t.Setenv("MEMHOOK_API_KEY", "")
	if apiURL != "" {
		t.Setenv("MEMHOOK_API_KEY", "test-key")
	}
	t.Setenv("MEMHOOK_PRETTY_JSON", "")
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	return flagDir
}

func newService(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	original := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w
	defer func() { os.Stdout = original }()

	fn()

	require.NoError(t, w.Close())
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	return string(b)
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var runErr error
	out := captureStdout(t, func() {
		root := NewRootCmd("test")
		root.SetArgs(args)
		runErr = root.Execute()
	})
	return out, runErr
}
