package commands

import (
	"github.com/spf13/cobra"

	"github.com/dotcommander/memhook/internal/hooks"
	"github.com/dotcommander/memhook/internal/output"
	"github.com/dotcommander/memhook/internal/remote"
)

// NewContextCmd creates the context command: a full context load, as the
// prompt hook performs at the start of a session.
func NewContextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "context",
		Short: "Load the memory context for a project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			policy := currentPolicy()
			limit, _ := cmd.Flags().GetInt("limit")
			if limit <= 0 {
				limit = policy.NewSessionLoad.Limit
			}
			maxChars, _ := cmd.Flags().GetInt("max-chars")
			if maxChars <= 0 {
				maxChars = policy.NewSessionLoad.MaxChars
			}
			global, _ := cmd.Flags().GetBool("global")

			client, err := interactiveClient()
			if err != nil {
				return cmdErr(err)
			}
			projectID := resolveProject(cmd)
			resp, err := client.Context(cmd.Context(), remote.ContextQuery{
				Limit:         limit,
				ProjectID:     projectID,
				IncludeGlobal: global,
			})
			if err != nil {
				return cmdErr(err)
			}

			type result struct {
				ProjectID  string `json:"project_id"`
				TotalCount int    `json:"total_count"`
				Topics     int    `json:"topics"`
				Context    string `json:"context"`
			}
			return output.PrintSuccess(result{
				ProjectID:  projectID,
				TotalCount: resp.TotalCount,
				Topics:     len(resp.TopicIndex),
				Context:    hooks.FormatContext(resp, maxChars, false),
			})
		},
	}
	cmd.Flags().Int("limit", 0, "Maximum memories to load (default from config)")
	cmd.Flags().Int("max-chars", 0, "Clip the rendered context to this many characters (default from config)")
	cmd.Flags().Bool("global", true, "Include global memories")
	addProjectFlags(cmd)
	return cmd
}
