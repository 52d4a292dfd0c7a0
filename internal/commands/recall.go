package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/dotcommander/memhook/internal/flags"
	"github.com/dotcommander/memhook/internal/hooks"
	"github.com/dotcommander/memhook/internal/models"
	"github.com/dotcommander/memhook/internal/output"
	"github.com/dotcommander/memhook/internal/remote"
	"github.com/dotcommander/memhook/internal/topics"
)

// NewRecallCmd creates the recall command. Unlike the prompt hook it ignores
// cooldowns and novelty; the cached topic index only annotates the result.
func NewRecallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recall <message...>",
		Short: "Run a smart recall for a message",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message := strings.TrimSpace(strings.Join(args, " "))
			policy := currentPolicy().Recall
			limit, _ := cmd.Flags().GetInt("limit")
			if limit <= 0 {
				limit = policy.Limit
			}
			maxChars, _ := cmd.Flags().GetInt("max-chars")
			if maxChars <= 0 {
				maxChars = policy.MaxChars
			}

			projectID := resolveProject(cmd)
			local := cachedTopics(projectID, message, policy.MaxTopics)

			client, err := interactiveClient()
			if err != nil {
				return cmdErr(err)
			}
			resp, err := client.SmartRecall(cmd.Context(), remote.RecallRequest{
				Message:   message,
				ProjectID: projectID,
				Limit:     limit,
			})
			if err != nil {
				return cmdErr(err)
			}

			type result struct {
				ProjectID     string   `json:"project_id"`
				Keywords      []string `json:"keywords"`
				LocalTopics   []string `json:"local_topics"`
				MatchedTopics []string `json:"matched_topics"`
				Count         int      `json:"count"`
				Context       string   `json:"context"`
			}
			return output.PrintSuccess(result{
				ProjectID:     projectID,
				Keywords:      topics.Keywords(message),
				LocalTopics:   local,
				MatchedTopics: nonNil(resp.MatchedTopics),
				Count:         len(resp.Memories),
				Context:       hooks.FormatRecall(resp, local, maxChars),
			})
		},
	}
	cmd.Flags().Int("limit", 0, "Maximum memories to return (default from config)")
	cmd.Flags().Int("max-chars", 0, "Clip the rendered result to this many characters (default from config)")
	addProjectFlags(cmd)
	return cmd
}

// cachedTopics scores message against the project's cached topic index.
// A missing store or cache yields no topics.
func cachedTopics(projectID, message string, n int) []string {
	store, _, err := openFlagStore()
	if err != nil {
		return []string{}
	}
	defer func() { _ = store.Close() }()

	cache, ok := flags.Get[models.TopicCache](store, flags.TopicsKey(projectID))
	if !ok {
		return []string{}
	}
	return nonNil(topics.TopSubjects(topics.Score(topics.Keywords(message), cache.Topics), n))
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
