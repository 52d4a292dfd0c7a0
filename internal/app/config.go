package app

import (
	"os"
	"path/filepath"
)

// ConfigDir returns ~/.config/memhook/ on all platforms.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "memhook"), nil
}

// EnsureConfigDir creates the config directory and default config.yaml if missing.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	configFile := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return os.WriteFile(configFile, []byte(defaultConfig), 0600)
	}
	return nil
}

const defaultConfig = `# memhook configuration
# Run: memhook doctor

# Memory service endpoint and key.
# Can also be set via MEMHOOK_API_URL / MEMHOOK_API_KEY.
# api_url: https://memory.example.internal/v1
# api_key: mk_...

# Coordination flag storage: "file" (default) or "sqlite".
# flag_dir: ~/.config/memhook/flags
# flag_backend: file

# Tunables (defaults shown).
# session:
#   expiry_hours: 4
#   compaction_max_age_minutes: 60
#   sweep_max_age_hours: 24
# recall:
#   cooldown_seconds: 180
#   min_message_chars: 30
#   min_score: 2
#   max_chars: 1500
# summary:
#   cooldown_seconds: 1800
# extract:
#   cooldown_seconds: 900
`
