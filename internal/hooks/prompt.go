package hooks

import (
	"context"
	"fmt"
	"strings"

	"github.com/dotcommander/memhook/internal/flags"
	"github.com/dotcommander/memhook/internal/models"
	"github.com/dotcommander/memhook/internal/remote"
	"github.com/dotcommander/memhook/internal/session"
	"github.com/dotcommander/memhook/internal/topics"
	"github.com/dotcommander/memhook/internal/transcript"
)

// PromptSubmit injects memory context when a session starts or was just
// compacted, and runs smart recall for ongoing sessions.
func (d *Deps) PromptSubmit(ctx context.Context, in models.HookInput) error {
	if d.Client == nil || in.SessionID == "" {
		return nil
	}
	now := d.now()
	log := d.logger().With("hook", "prompt", "session_id", in.SessionID)

	if n := d.Store.Sweep(d.Policy.SweepMaxAge, now); n > 0 {
		log.Debug("swept stale flags", "removed", n)
	}

	compactionKey := flags.CompactionKey(in.SessionID)
	compaction, compactionPresent := readCompaction(d.Store, compactionKey)
	var marker *models.SessionMarker
	if m, ok := flags.Get[models.SessionMarker](d.Store, flags.MarkerKey(in.SessionID)); ok {
		marker = &m
	}

	decision := session.Classify(session.Input{
		SessionID:  in.SessionID,
		Compaction: compaction,
		Marker:     marker,
	}, now, d.Policy.Session)
	if decision.DiscardCompaction || (compactionPresent && compaction == nil) {
		d.Store.Delete(compactionKey)
	}
	log.Debug("classified", "state", decision.State.String())

	projectID := ProjectID(in.CWD)
	switch decision.State {
	case session.StatePostCompaction:
		return d.loadContext(ctx, in, projectID, marker, true)
	case session.StateNewSession:
		return d.loadContext(ctx, in, projectID, nil, false)
	case session.StateOngoing:
		return d.smartRecall(ctx, in, projectID, marker)
	default:
		return nil
	}
}

// readCompaction reports the parsed flag and whether any record exists at all,
// so a corrupt record can be cleared.
func readCompaction(s flags.Store, key string) (*models.CompactionFlag, bool) {
	data, ok := s.Read(key)
	if !ok {
		return nil, false
	}
	if f, ok := flags.Decode[models.CompactionFlag](data); ok {
		return &f, true
	}
	return nil, true
}

// loadContext fetches and injects a full context block. On failure nothing is
// written, so the next prompt retries.
func (d *Deps) loadContext(ctx context.Context, in models.HookInput, projectID string, prev *models.SessionMarker, afterCompaction bool) error {
	budget := d.Policy.NewSessionLoad
	if afterCompaction {
		budget = d.Policy.CompactionLoad
	}

	resp, err := d.Client.Context(ctx, remote.ContextQuery{
		Limit:         budget.Limit,
		ProjectID:     projectID,
		IncludeGlobal: true,
	})
	if err != nil {
		return fmt.Errorf("load context: %w", err)
	}

	now := d.now()
	marker := models.SessionMarker{
		Timestamp: now.Unix(),
		SessionID: in.SessionID,
		ProjectID: projectID,
	}
	if prev != nil {
		marker.LastSmartRecall = prev.LastSmartRecall
		marker.LastSmartTopics = prev.LastSmartTopics
	}
	if err := flags.Put(d.Store, flags.MarkerKey(in.SessionID), marker); err != nil {
		d.logger().Warn("write session marker failed", "error", err)
	}
	if afterCompaction {
		d.Store.Delete(flags.CompactionKey(in.SessionID))
	}
	if len(resp.TopicIndex) > 0 {
		cache := models.TopicCache{Timestamp: now.Unix(), ProjectID: projectID, Topics: resp.TopicIndex}
		if err := flags.Put(d.Store, flags.TopicsKey(projectID), cache); err != nil {
			d.logger().Warn("write topic cache failed", "error", err)
		}
	}

	return d.emit(FormatContext(resp, budget.MaxChars, afterCompaction))
}

// smartRecall runs the topic gates and, when they all pass, a narrow recall.
func (d *Deps) smartRecall(ctx context.Context, in models.HookInput, projectID string, marker *models.SessionMarker) error {
	now := d.now()
	log := d.logger().With("hook", "prompt", "session_id", in.SessionID)
	p := d.Policy.Recall

	// Cooldown first: it needs no transcript read.
	if skip := topics.CheckCooldown(marker, now, p); skip != "" {
		log.Debug("smart recall skipped", "reason", string(skip))
		return nil
	}

	message := strings.TrimSpace(in.Prompt)
	if message == "" {
		message = transcript.LastUserMessage(in.TranscriptPath, d.Policy.RecallScanLines)
	}

	var cache *models.TopicCache
	if c, ok := flags.Get[models.TopicCache](d.Store, flags.TopicsKey(projectID)); ok {
		cache = &c
	}

	plan, skip := topics.Evaluate(marker, message, cache, now, p)
	if skip != "" {
		log.Debug("smart recall skipped", "reason", string(skip))
		return nil
	}

	resp, err := d.Client.SmartRecall(ctx, remote.RecallRequest{
		Message:   plan.Query,
		ProjectID: projectID,
		Limit:     p.Limit,
	})
	if err != nil {
		return fmt.Errorf("smart recall: %w", err)
	}

	updated := *marker
	updated.LastSmartRecall = now.Unix()
	updated.LastSmartTopics = plan.Topics
	if err := flags.Put(d.Store, flags.MarkerKey(in.SessionID), updated); err != nil {
		log.Warn("write session marker failed", "error", err)
	}

	return d.emit(FormatRecall(resp, plan.Topics, p.MaxChars))
}
