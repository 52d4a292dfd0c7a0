package commands

import (
	"github.com/spf13/cobra"

	"github.com/dotcommander/memhook/internal/output"
)

// namespaceIndex makes a bare parent command (e.g. `memhook flags`) print its
// visible subcommands as JSON instead of help text.
func namespaceIndex(cmd *cobra.Command) {
	cmd.RunE = func(c *cobra.Command, args []string) error {
		type subCmd struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		}
		type resp struct {
			Namespace   string   `json:"namespace"`
			Subcommands []subCmd `json:"subcommands"`
		}
		subs := []subCmd{}
		for _, child := range c.Commands() {
			if !child.Hidden {
				subs = append(subs, subCmd{Name: child.Name(), Description: child.Short})
			}
		}
		return output.PrintSuccess(resp{Namespace: c.CommandPath(), Subcommands: subs})
	}
}
