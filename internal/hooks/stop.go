package hooks

import (
	"context"

	"github.com/dotcommander/memhook/internal/extract"
	"github.com/dotcommander/memhook/internal/flags"
	"github.com/dotcommander/memhook/internal/models"
	"github.com/dotcommander/memhook/internal/remote"
	"github.com/dotcommander/memhook/internal/summary"
	"github.com/dotcommander/memhook/internal/transcript"
)

// StopAck is printed by every stop invocation so the host is never blocked.
const StopAck = "{}"

// Stop saves a session summary and opportunistically triggers fact
// extraction. Callers print StopAck regardless of the outcome.
func (d *Deps) Stop(ctx context.Context, in models.HookInput) error {
	if d.Client == nil || in.SessionID == "" || in.StopHookActive {
		return nil
	}
	d.saveSummary(ctx, in)
	d.autoExtract(ctx, in)
	return nil
}

func (d *Deps) saveSummary(ctx context.Context, in models.HookInput) {
	log := d.logger().With("hook", "stop", "session_id", in.SessionID)
	now := d.now()

	if !transcript.IsSubstantial(in.TranscriptPath, d.Policy.SubstantialMinLines, d.Policy.SubstantialMinUsers) {
		log.Debug("summary skipped", "reason", "not_substantial")
		return
	}
	key := flags.SummaryKey(in.SessionID)
	if last, ok := flags.Get[models.SummaryFlag](d.Store, key); ok && flags.Fresh(last, now, d.Policy.SummaryCooldown) {
		log.Debug("summary skipped", "reason", "cooldown")
		return
	}

	text := summary.Build(summary.SessionStop, summary.Input{
		TranscriptPath: in.TranscriptPath,
		CWD:            in.CWD,
		FinalMessage:   in.LastAssistantMessage,
		Now:            now,
	}, d.Policy.Summary)
	if text == "" {
		return
	}

	if res := d.Client.PostSummary(ctx, text); !res.OK() {
		log.Warn("post session summary failed", "error", res.Err)
	}
	// Written either way so a down service is not retried on every stop.
	if err := flags.Put(d.Store, key, models.SummaryFlag{Timestamp: now.Unix(), SessionID: in.SessionID}); err != nil {
		log.Warn("write summary flag failed", "error", err)
	}
}

func (d *Deps) autoExtract(ctx context.Context, in models.HookInput) {
	log := d.logger().With("hook", "stop", "session_id", in.SessionID)
	now := d.now()
	p := d.Policy.Extract

	var last *models.ExtractCooldown
	if c, ok := flags.Get[models.ExtractCooldown](d.Store, flags.ExtractKey); ok {
		last = &c
	}
	if !extract.Due(last, now, p) {
		log.Debug("extract skipped", "reason", "cooldown")
		return
	}

	payload, ok := extract.Build(in.TranscriptPath, ProjectID(in.CWD), p)
	if !ok {
		log.Debug("extract skipped", "reason", "not_enough_substance")
		return
	}

	if res := d.Client.Extract(ctx, remote.ExtractRequest(payload)); !res.OK() {
		log.Warn("auto extract failed", "error", res.Err)
	}
	// A failed attempt still consumes the window.
	if err := flags.Put(d.Store, flags.ExtractKey, models.ExtractCooldown{Timestamp: now.Unix()}); err != nil {
		log.Warn("write extract cooldown failed", "error", err)
	}
}
