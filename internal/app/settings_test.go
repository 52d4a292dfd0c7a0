package app

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func resetSettingsStateForTest() {
	settingsOnce = sync.Once{}
	settings = Settings{}
	settingsErr = nil
}

func writeUserConfig(t *testing.T, home, content string) {
	t.Helper()
	p := filepath.Join(home, ".config", "memhook", "config.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
}

func TestLoadSettings_PrefersUserConfigOverLocal(t *testing.T) {
	resetSettingsStateForTest()
	t.Cleanup(resetSettingsStateForTest)

	home := t.TempDir()
	t.Setenv("HOME", home)

	workdir := t.TempDir()
	oldwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(workdir))
	t.Cleanup(func() { _ = os.Chdir(oldwd) })

	writeUserConfig(t, home, "api_url: http://from-user\n")
	require.NoError(t, os.WriteFile(filepath.Join(workdir, "config.yaml"), []byte("api_url: http://from-local\n"), 0o600))

	s, err := LoadSettings()
	require.NoError(t, err)
	require.Equal(t, "http://from-user", s.APIURL)
}

func TestLoadSettings_InvalidYAMLReturnsError(t *testing.T) {
	resetSettingsStateForTest()
	t.Cleanup(resetSettingsStateForTest)

	home := t.TempDir()
	t.Setenv("HOME", home)
	writeUserConfig(t, home, "api_url: [")

	_, err := LoadSettings()
	require.Error(t, err)
}

func TestLoadSettingsFile_ReadsNestedTunables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "recall:\n  cooldown_seconds: 60\n  min_score: 1.5\n" +
		"summary:\n  cooldown_seconds: 900\n" +
		"session:\n  expiry_hours: 8\n" +
		"extract:\n  max_blob_chars: 1000\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	s, err := loadSettingsFile(path)
	require.NoError(t, err)
	require.Equal(t, 60, s.Recall.CooldownSeconds)
	require.InDelta(t, 1.5, s.Recall.MinScore, 0.0001)
	require.Equal(t, 900, s.Summary.CooldownSeconds)
	require.Equal(t, 8, s.Session.ExpiryHours)
	require.Equal(t, 1000, s.Extract.MaxBlobChars)
}

func TestResolveCredentials_EnvWinsOverConfig(t *testing.T) {
	resetSettingsStateForTest()
	t.Cleanup(resetSettingsStateForTest)

	home := t.TempDir()
	t.Setenv("HOME", home)
	writeUserConfig(t, home, "api_url: http://config/\napi_key: from-config\n")
	t.Setenv(envAPIKey, "from-env")
	t.Setenv(envAPIURL, "")

	c, err := ResolveCredentials()
	require.NoError(t, err)
	require.Equal(t, "from-env", c.Key)
	require.Equal(t, "env(MEMHOOK_API_KEY)", c.KeySource)
	require.Equal(t, "http://config", c.URL)
	require.Equal(t, "config", c.URLSource)
}

func TestResolveCredentials_FallsBackToHostSettings(t *testing.T) {
	resetSettingsStateForTest()
	t.Cleanup(resetSettingsStateForTest)

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(envAPIKey, "")
	t.Setenv(envAPIURL, "")

	hostPath := filepath.Join(home, ".claude", "settings.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(hostPath), 0o755))
	require.NoError(t, os.WriteFile(hostPath,
		[]byte(`{"env":{"MEMHOOK_API_KEY":"host-key","MEMHOOK_API_URL":"http://host"}}`), 0o600))

	c, err := ResolveCredentials()
	require.NoError(t, err)
	require.Equal(t, "host-key", c.Key)
	require.Equal(t, "host_settings", c.KeySource)
}

func TestResolveCredentials_MissingKeyIsNotConfigured(t *testing.T) {
	resetSettingsStateForTest()
	t.Cleanup(resetSettingsStateForTest)

	t.Setenv("HOME", t.TempDir())
	t.Setenv(envAPIKey, "")
	t.Setenv(envAPIURL, "http://somewhere")

	_, err := ResolveCredentials()
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestFlagDir_Precedence(t *testing.T) {
	resetSettingsStateForTest()
	t.Cleanup(resetSettingsStateForTest)

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(envFlagDir, "")

	dir, err := FlagDir()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".config", "memhook", "flags"), dir)

	t.Setenv(envFlagDir, "~/custom-flags")
	dir, err = FlagDir()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, "custom-flags"), dir)
}

func TestFlagBackend_DefaultsToFile(t *testing.T) {
	resetSettingsStateForTest()
	t.Cleanup(resetSettingsStateForTest)

	t.Setenv("HOME", t.TempDir())
	t.Setenv(envFlagBackend, "")
	require.Equal(t, BackendFile, FlagBackend())

	t.Setenv(envFlagBackend, "SQLite")
	require.Equal(t, BackendSQLite, FlagBackend())
}

func TestProjectRoot_FindsEnclosingRepo(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	require.Equal(t, root, ProjectRoot(nested))
	require.Equal(t, "", ProjectRoot(""))
}
