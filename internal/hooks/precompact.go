package hooks

import (
	"context"
	"fmt"

	"github.com/dotcommander/memhook/internal/flags"
	"github.com/dotcommander/memhook/internal/models"
	"github.com/dotcommander/memhook/internal/summary"
)

// PreCompact flags the session for a context reload and posts a snapshot of
// the conversation before the host discards it.
func (d *Deps) PreCompact(ctx context.Context, in models.HookInput) error {
	if d.Client == nil || in.SessionID == "" {
		return nil
	}
	now := d.now()

	flag := models.CompactionFlag{Timestamp: now.Unix(), SessionID: in.SessionID}
	if err := flags.Put(d.Store, flags.CompactionKey(in.SessionID), flag); err != nil {
		return fmt.Errorf("write compaction flag: %w", err)
	}

	text := summary.Build(summary.PreCompact, summary.Input{
		TranscriptPath: in.TranscriptPath,
		CWD:            in.CWD,
		Now:            now,
	}, d.Policy.Summary)
	if text == "" {
		return nil
	}

	// Fire-and-forget: a lost snapshot only costs recall quality.
	if res := d.Client.PostSummary(ctx, text); !res.OK() {
		d.logger().Warn("post pre-compaction summary failed", "session_id", in.SessionID, "error", res.Err)
	}
	return nil
}
