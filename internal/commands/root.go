package commands

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dotcommander/memhook/internal/app"
	"github.com/dotcommander/memhook/internal/output"
)

// skipConfigInit marks commands that must not touch the config directory.
// Hook entry points run inside the host and stay read-only until they need a flag.
const skipConfigInit = "memhook/skip-config-init"

// NewRootCmd builds the full command tree.
func NewRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:           "memhook",
		Short:         "Connect assistant session hooks to a remote memory service",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			showVersion, _ := cmd.Flags().GetBool("version")
			if showVersion {
				type resp struct {
					Version string `json:"version"`
				}
				return output.PrintSuccess(resp{Version: version})
			}
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if _, skip := cmd.Annotations[skipConfigInit]; skip {
				return nil
			}
			return app.EnsureConfigDir()
		},
	}
	root.Flags().BoolP("version", "v", false, "version for memhook")

	root.AddCommand(NewHookCmd())
	root.AddCommand(NewContextCmd())
	root.AddCommand(NewRecallCmd())
	root.AddCommand(NewFlagsCmd())
	root.AddCommand(NewDoctorCmd())
	root.AddCommand(NewSchemaCmd(root))
	return root
}

// Execute runs the CLI application.
func Execute(version string) error {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	err := NewRootCmd(version).Execute()
	if err != nil {
		var pe printedError
		if !errors.As(err, &pe) {
			slog.Error("command failed", "error", err.Error())
			_ = output.PrintError(err)
		}
	}
	return err
}
