package app

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const (
	envAPIURL      = "MEMHOOK_API_URL"
	envAPIKey      = "MEMHOOK_API_KEY"
	envFlagDir     = "MEMHOOK_FLAG_DIR"
	envFlagBackend = "MEMHOOK_FLAG_BACKEND"

	// BackendFile stores each flag as its own JSON file.
	BackendFile = "file"
	// BackendSQLite stores flags as rows in a single sqlite database.
	BackendSQLite = "sqlite"
)

// ErrNotConfigured is returned when no API URL or key can be resolved.
var ErrNotConfigured = errors.New("memory service not configured: set MEMHOOK_API_URL and MEMHOOK_API_KEY")

// Credentials is the resolved remote endpoint plus where each value came from.
type Credentials struct {
	URL       string `json:"url"`
	URLSource string `json:"url_source"`
	Key       string `json:"-"`
	KeySource string `json:"key_source"`
}

// ResolveCredentials resolves the API URL and key.
// Order of precedence for each value:
// 1) Environment variable
// 2) config.yaml
// 3) Host settings file (~/.claude/settings.json "env" block)
// Returns ErrNotConfigured if either value is missing.
func ResolveCredentials() (Credentials, error) {
	var c Credentials
	s, _ := LoadSettings()
	hostEnv := hostSettingsEnv()

	c.URL, c.URLSource = firstNonEmpty(
		sourced{os.Getenv(envAPIURL), "env(" + envAPIURL + ")"},
		sourced{s.APIURL, "config"},
		sourced{hostEnv[envAPIURL], "host_settings"},
	)
	c.Key, c.KeySource = firstNonEmpty(
		sourced{os.Getenv(envAPIKey), "env(" + envAPIKey + ")"},
		sourced{s.APIKey, "config"},
		sourced{hostEnv[envAPIKey], "host_settings"},
	)
	c.URL = strings.TrimRight(c.URL, "/")
	if c.URL == "" || c.Key == "" {
		return c, ErrNotConfigured
	}
	return c, nil
}

type sourced struct {
	value  string
	source string
}

func firstNonEmpty(candidates ...sourced) (string, string) {
	for _, c := range candidates {
		if v := strings.TrimSpace(c.value); v != "" {
			return v, c.source
		}
	}
	return "", ""
}

// HostSettingsPath returns the host assistant's user settings file.
func HostSettingsPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".claude", "settings.json")
}

// hostSettingsEnv reads the "env" object from the host settings file.
// Any read or parse failure yields an empty map.
func hostSettingsEnv() map[string]string {
	data, err := os.ReadFile(HostSettingsPath())
	if err != nil {
		return map[string]string{}
	}
	var doc struct {
		Env map[string]string `json:"env"`
	}
	if err := json.Unmarshal(data, &doc); err != nil || doc.Env == nil {
		return map[string]string{}
	}
	return doc.Env
}

// FlagDir resolves the coordination flag directory.
// Order of precedence: MEMHOOK_FLAG_DIR, config.yaml flag_dir, ~/.config/memhook/flags.
func FlagDir() (string, error) {
	if v := strings.TrimSpace(os.Getenv(envFlagDir)); v != "" {
		return expandHome(v), nil
	}
	if s, err := LoadSettings(); err == nil && s.FlagDir != "" {
		return expandHome(s.FlagDir), nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "flags"), nil
}

// FlagBackend returns the configured flag backend, defaulting to BackendFile.
func FlagBackend() string {
	v := strings.TrimSpace(os.Getenv(envFlagBackend))
	if v == "" {
		if s, err := LoadSettings(); err == nil {
			v = s.FlagBackend
		}
	}
	if strings.EqualFold(v, BackendSQLite) {
		return BackendSQLite
	}
	return BackendFile
}

// ProjectRoot walks upward from cwd to the nearest directory containing .git.
// Falls back to cwd itself when no repository is found.
func ProjectRoot(cwd string) string {
	if cwd == "" {
		return ""
	}
	dir := filepath.Clean(cwd)
	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return filepath.Clean(cwd)
		}
		dir = parent
	}
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
