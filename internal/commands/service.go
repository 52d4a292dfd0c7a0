package commands

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dotcommander/memhook/internal/app"
	"github.com/dotcommander/memhook/internal/flags"
	"github.com/dotcommander/memhook/internal/hooks"
	"github.com/dotcommander/memhook/internal/remote"
)

// interactiveClient resolves credentials and returns a client on the
// interactive retry tier.
func interactiveClient() (*remote.Client, error) {
	creds, err := app.ResolveCredentials()
	if err != nil {
		return nil, err
	}
	return remote.New(creds.URL, creds.Key, remote.InteractiveTier(), remote.WithLogger(slog.Default())), nil
}

// resolveProject returns --project when set, else the id derived from --cwd
// or the working directory.
func resolveProject(cmd *cobra.Command) string {
	if id, _ := cmd.Flags().GetString("project"); id != "" {
		return flags.Sanitize(id)
	}
	cwd, _ := cmd.Flags().GetString("cwd")
	if cwd == "" {
		cwd, _ = os.Getwd()
	}
	return hooks.ProjectID(cwd)
}

func addProjectFlags(cmd *cobra.Command) {
	cmd.Flags().String("project", "", "Project id (default: derived from the git root of --cwd)")
	cmd.Flags().String("cwd", "", "Directory used to derive the project id (default: working directory)")
}

// openFlagStore opens the configured flag store.
func openFlagStore() (flags.Store, string, error) {
	dir, err := app.FlagDir()
	if err != nil {
		return nil, "", err
	}
	store, err := flags.Open(app.FlagBackend(), dir)
	if err != nil {
		return nil, dir, err
	}
	return store, dir, nil
}

func currentPolicy() hooks.Policy {
	settings, err := app.LoadSettings()
	if err != nil {
		slog.Warn("config unreadable, using defaults", "error", err)
	}
	return hooks.PolicyFrom(settings)
}
