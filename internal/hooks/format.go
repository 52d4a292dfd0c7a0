package hooks

import (
	"fmt"
	"strings"

	"github.com/dotcommander/memhook/internal/models"
	"github.com/dotcommander/memhook/internal/remote"
	"github.com/dotcommander/memhook/internal/textutil"
)

const (
	contextTruncated = "\n\n[... more memories available; search memory for details]"
	recallTruncated  = "\n[... more related memories; search memory for details]"
)

// FormatContext renders a full context load within maxChars. The service's
// own rendering wins; otherwise memories are listed project first.
func FormatContext(resp remote.ContextResponse, maxChars int, afterCompaction bool) string {
	body := strings.TrimSpace(resp.FormattedContext)
	if body == "" {
		body = renderMemories(resp.ProjectMemories, resp.GlobalMemories)
	}
	if body == "" {
		return ""
	}

	heading := "# Memory context"
	if afterCompaction {
		heading = "# Memory context (reloaded after compaction)"
	}
	return textutil.Clip(heading+"\n\n"+body, maxChars, contextTruncated)
}

func renderMemories(project, global []models.Memory) string {
	var b strings.Builder
	write := func(title string, ms []models.Memory) {
		if len(ms) == 0 {
			return
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "## %s\n", title)
		for _, m := range ms {
			writeMemory(&b, m)
		}
	}
	write("Project memories", project)
	write("Global memories", global)
	return strings.TrimRight(b.String(), "\n")
}

func writeMemory(b *strings.Builder, m models.Memory) {
	content := textutil.OneLine(m.Content)
	if content == "" {
		return
	}
	if m.MemoryType != "" {
		fmt.Fprintf(b, "- [%s] %s\n", m.MemoryType, content)
		return
	}
	fmt.Fprintf(b, "- %s\n", content)
}

// FormatRecall renders a smart-recall reply within maxChars.
func FormatRecall(resp remote.RecallResponse, topics []string, maxChars int) string {
	var b strings.Builder
	for _, m := range resp.Memories {
		writeMemory(&b, m)
	}
	if b.Len() == 0 {
		return ""
	}

	shown := resp.MatchedTopics
	if len(shown) == 0 {
		shown = topics
	}
	heading := "# Related memories"
	if len(shown) > 0 {
		heading += " (" + strings.Join(shown, ", ") + ")"
	}
	return textutil.Clip(heading+"\n"+strings.TrimRight(b.String(), "\n"), maxChars, recallTruncated)
}
