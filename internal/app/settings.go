package app

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Settings represents configuration loaded from config.yaml.
// Field names match snake_case YAML keys. Zero values mean "use the default".
type Settings struct {
	APIURL      string          `yaml:"api_url"`
	APIKey      string          `yaml:"api_key"`
	FlagDir     string          `yaml:"flag_dir"`
	FlagBackend string          `yaml:"flag_backend"`
	Session     SessionSettings `yaml:"session"`
	Recall      RecallSettings  `yaml:"recall"`
	Summary     SummarySettings `yaml:"summary"`
	Extract     ExtractSettings `yaml:"extract"`
}

// SessionSettings tune the prompt-submit classifier and full context loads.
type SessionSettings struct {
	ExpiryHours             int `yaml:"expiry_hours"`
	CompactionMaxAgeMinutes int `yaml:"compaction_max_age_minutes"`
	SweepMaxAgeHours        int `yaml:"sweep_max_age_hours"`
	CompactionLimit         int `yaml:"compaction_limit"`
	CompactionMaxChars      int `yaml:"compaction_max_chars"`
	NewSessionLimit         int `yaml:"new_session_limit"`
	NewSessionMaxChars      int `yaml:"new_session_max_chars"`
}

// RecallSettings tune mid-session smart recall.
type RecallSettings struct {
	CooldownSeconds       int     `yaml:"cooldown_seconds"`
	MinMessageChars       int     `yaml:"min_message_chars"`
	MinKeywords           int     `yaml:"min_keywords"`
	MinScore              float64 `yaml:"min_score"`
	Limit                 int     `yaml:"limit"`
	MaxChars              int     `yaml:"max_chars"`
	MaxTopics             int     `yaml:"max_topics"`
	TopicCacheMaxAgeHours int     `yaml:"topic_cache_max_age_hours"`
}

// SummarySettings tune session summary saves.
type SummarySettings struct {
	CooldownSeconds int `yaml:"cooldown_seconds"`
	MinLines        int `yaml:"min_lines"`
	MinUserMessages int `yaml:"min_user_messages"`
	MaxChars        int `yaml:"max_chars"`
}

// ExtractSettings tune the auto-extraction trigger.
type ExtractSettings struct {
	CooldownSeconds int `yaml:"cooldown_seconds"`
	MinUserTurns    int `yaml:"min_user_turns"`
	MinTurnChars    int `yaml:"min_turn_chars"`
	MaxBlobChars    int `yaml:"max_blob_chars"`
}

// settingsOnce, settings, settingsErr implement the sync.Once lazy-load singleton for config.
//
//nolint:gochecknoglobals // sync.Once singleton is intentional process-wide state
var (
	settingsOnce sync.Once
	settings     Settings
	settingsErr  error
)

// LoadSettings loads configuration once using the documented lookup order.
// Lookup order (first found wins):
// 1) ~/.config/memhook/config.yaml
// 2) /etc/memhook/config.yaml
// 3) ./config.yaml (lowest priority; allows repo-local overrides if desired)
// Environment variables are handled separately.
func LoadSettings() (Settings, error) {
	settingsOnce.Do(func() {
		settings = Settings{}

		paths, err := settingsPaths()
		if err != nil {
			settingsErr = err
			return
		}
		for _, p := range paths {
			s, err := loadSettingsFile(p)
			if err == nil {
				settings = s
				return
			}
			if !errors.Is(err, os.ErrNotExist) {
				settingsErr = err
				return
			}
		}
	})

	return settings, settingsErr
}

// ResolveSettingsPath returns the config file LoadSettings would use, or "" if none exists.
func ResolveSettingsPath() string {
	paths, err := settingsPaths()
	if err != nil {
		return ""
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func settingsPaths() ([]string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	return []string{
		filepath.Join(dir, "config.yaml"),
		filepath.Join(string(os.PathSeparator), "etc", "memhook", "config.yaml"),
		"config.yaml",
	}, nil
}

func loadSettingsFile(path string) (Settings, error) {
	b, err := os.ReadFile(path) //nolint:gosec // G304: path from fixed lookup list
	if err != nil {
		return Settings{}, err
	}

	var s Settings
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Settings{}, err
	}
	return s, nil
}
