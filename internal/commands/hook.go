package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/dotcommander/memhook/internal/app"
	"github.com/dotcommander/memhook/internal/commands/hookcmd"
	"github.com/dotcommander/memhook/internal/diag"
	"github.com/dotcommander/memhook/internal/flags"
	"github.com/dotcommander/memhook/internal/hooks"
	"github.com/dotcommander/memhook/internal/remote"
)

// NewHookCmd creates the hook parent command.
func NewHookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hook",
		Short: "Hook handlers and installers",
		Args:  cobra.NoArgs,
	}

	cmd.AddCommand(hookcmd.NewInstallCmd())
	cmd.AddCommand(hookcmd.NewUninstallCmd())

	// Handlers are called by the host, not by people.
	for _, sub := range []*cobra.Command{
		newHookEventCmd(hooks.EventPreCompact, "Record compaction and save a pre-compaction snapshot"),
		newHookEventCmd(hooks.EventPrompt, "Inject memory context or smart recall for the next prompt"),
		newHookEventCmd(hooks.EventStop, "Save a session summary and trigger auto-extraction"),
	} {
		sub.Hidden = true
		cmd.AddCommand(sub)
	}

	namespaceIndex(cmd)
	return cmd
}

func newHookEventCmd(event, short string) *cobra.Command {
	return &cobra.Command{
		Use:         event,
		Short:       short,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfigInit: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			runHook(cmd.Context(), event, hookStdin(os.Stdin), cmd.OutOrStdout())
			return nil
		},
	}
}

// hookStdin returns f unless it is an interactive terminal, in which case
// there is no payload and reading would block.
func hookStdin(f *os.File) io.Reader {
	if f == nil || isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
		return strings.NewReader("")
	}
	return f
}

// runHook decodes the payload, wires dependencies and dispatches. It never fails.
func runHook(ctx context.Context, event string, stdin io.Reader, stdout io.Writer) {
	if ctx == nil {
		ctx = context.Background()
	}
	in := hooks.ReadInput(stdin)
	deps, closeDeps := hookDeps(stdout)
	defer closeDeps()
	deps.Dispatch(ctx, event, in)
}

// hookDeps builds hook dependencies from config. Every failure degrades:
// an unusable sqlite backend falls back to files, missing credentials leave
// Client nil.
func hookDeps(stdout io.Writer) (*hooks.Deps, func()) {
	dir, err := app.FlagDir()
	if err != nil {
		dir = filepath.Join(os.TempDir(), "memhook-flags")
	}
	logger := diag.NewLogger(filepath.Join(dir, flags.LogFile), diag.LevelFromEnv())
	slog.SetDefault(logger)

	store, err := flags.Open(app.FlagBackend(), dir)
	if err != nil {
		logger.Warn("flag store unavailable, using files", "backend", app.FlagBackend(), "error", err)
		store = flags.NewFileStore(dir)
	}

	settings, err := app.LoadSettings()
	if err != nil {
		logger.Warn("config unreadable, using defaults", "error", err)
	}

	deps := &hooks.Deps{
		Store:  store,
		Policy: hooks.PolicyFrom(settings),
		Logger: logger,
		Out:    stdout,
	}
	creds, err := app.ResolveCredentials()
	if err == nil {
		deps.Client = remote.New(creds.URL, creds.Key, remote.HookTier(), remote.WithLogger(logger))
	} else {
		logger.Debug("memory service not configured", "error", err)
	}

	return deps, func() {
		if err := store.Close(); err != nil {
			logger.Warn("close flag store", "error", err)
		}
	}
}
