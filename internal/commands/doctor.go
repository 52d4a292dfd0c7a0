package commands

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/dotcommander/memhook/internal/app"
	"github.com/dotcommander/memhook/internal/commands/hookcmd"
	"github.com/dotcommander/memhook/internal/flags"
	"github.com/dotcommander/memhook/internal/output"
	"github.com/dotcommander/memhook/internal/remote"
)

type doctorReport struct {
	ConfigPath   string   `json:"config_path,omitempty"`
	ConfigErr    string   `json:"config_error,omitempty"`
	APIURL       string   `json:"api_url,omitempty"`
	URLSource    string   `json:"url_source,omitempty"`
	KeySource    string   `json:"key_source,omitempty"`
	Configured   bool     `json:"configured"`
	FlagDir      string   `json:"flag_dir"`
	FlagBackend  string   `json:"flag_backend"`
	StoreOK      bool     `json:"store_ok"`
	StoreErr     string   `json:"store_error,omitempty"`
	FlagCount    int      `json:"flag_count"`
	DiagLog      string   `json:"diag_log"`
	Hooks        []string `json:"hooks_installed"`
	HooksMissing []string `json:"hooks_missing,omitempty"`
	Reachable    bool     `json:"reachable"`
	ReachErr     string   `json:"reach_error,omitempty"`
	Hint         string   `json:"hint,omitempty"`
}

// NewDoctorCmd creates the doctor command.
func NewDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, flag storage, hook registration and service reachability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			offline, _ := cmd.Flags().GetBool("offline")
			return output.PrintSuccess(runDoctor(cmd.Context(), !offline))
		},
	}
	cmd.Flags().Bool("offline", false, "Skip the reachability check")
	return cmd
}

func runDoctor(ctx context.Context, ping bool) doctorReport {
	var r doctorReport
	r.ConfigPath = app.ResolveSettingsPath()
	if _, err := app.LoadSettings(); err != nil {
		r.ConfigErr = err.Error()
	}

	creds, credErr := app.ResolveCredentials()
	r.APIURL, r.URLSource, r.KeySource = creds.URL, creds.URLSource, creds.KeySource
	r.Configured = credErr == nil

	r.FlagBackend = app.FlagBackend()
	store, dir, err := openFlagStore()
	r.FlagDir = dir
	if dir != "" {
		r.DiagLog = filepath.Join(dir, flags.LogFile)
	}
	if err != nil {
		r.StoreErr = err.Error()
	} else {
		r.StoreOK = true
		r.FlagCount = len(store.List())
		_ = store.Close()
	}

	r.Hooks = nonNil(hookcmd.Installed(hookcmd.SettingsPath(false)))
	have := map[string]bool{}
	for _, e := range r.Hooks {
		have[e] = true
	}
	for _, e := range hookcmd.EventNames() {
		if !have[e] {
			r.HooksMissing = append(r.HooksMissing, e)
		}
	}

	switch {
	case !r.Configured:
		r.ReachErr = credErr.Error()
	case ping:
		r.Reachable, r.ReachErr = pingService(ctx, creds)
	}

	switch {
	case !r.Configured:
		r.Hint = "Set MEMHOOK_API_URL and MEMHOOK_API_KEY, or api_url/api_key in config.yaml."
	case len(r.HooksMissing) > 0:
		r.Hint = "Run 'memhook hook install' to register the missing hooks."
	case !r.StoreOK:
		r.Hint = "Set flag_dir to a writable location or use flag_backend: file."
	}
	return r
}

// pingService issues a minimal context load on the hook tier so the check
// reflects the budget hooks actually run under.
func pingService(ctx context.Context, creds app.Credentials) (bool, string) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client := remote.New(creds.URL, creds.Key, remote.HookTier(), remote.WithLogger(slog.Default()))
	if _, err := client.Context(ctx, remote.ContextQuery{Limit: 1}); err != nil {
		var apiErr *remote.APIError
		if errors.As(err, &apiErr) {
			return false, apiErr.ErrorCode() + ": " + apiErr.Error()
		}
		return false, err.Error()
	}
	return true, ""
}
