package hooks

import (
	"time"

	"github.com/dotcommander/memhook/internal/app"
	"github.com/dotcommander/memhook/internal/extract"
	"github.com/dotcommander/memhook/internal/session"
	"github.com/dotcommander/memhook/internal/summary"
	"github.com/dotcommander/memhook/internal/topics"
)

// Budget bounds one full context load.
type Budget struct {
	Limit    int
	MaxChars int
}

// Policy gathers every threshold the entry points apply.
type Policy struct {
	// Deadline bounds a whole hook invocation; it sits below the host's own timeout.
	Deadline    time.Duration
	SweepMaxAge time.Duration

	Session        session.Policy
	CompactionLoad Budget
	NewSessionLoad Budget

	Recall          topics.Policy
	RecallScanLines int

	Summary             summary.Policy
	SummaryCooldown     time.Duration
	SubstantialMinLines int
	SubstantialMinUsers int

	Extract extract.Policy
}

// DefaultPolicy returns the stock thresholds.
func DefaultPolicy() Policy {
	return Policy{
		Deadline:            9 * time.Second,
		SweepMaxAge:         24 * time.Hour,
		Session:             session.DefaultPolicy(),
		CompactionLoad:      Budget{Limit: 15, MaxChars: 4000},
		NewSessionLoad:      Budget{Limit: 20, MaxChars: 6000},
		Recall:              topics.DefaultPolicy(),
		RecallScanLines:     50,
		Summary:             summary.DefaultPolicy(),
		SummaryCooldown:     30 * time.Minute,
		SubstantialMinLines: 8,
		SubstantialMinUsers: 2,
		Extract:             extract.DefaultPolicy(),
	}
}

// PolicyFrom overlays config.yaml tunables on the defaults. Non-positive
// values keep the default; the rest are clamped to sane ranges.
func PolicyFrom(s app.Settings) Policy {
	p := DefaultPolicy()

	ss := s.Session
	p.Session.SessionExpiry = hours(ss.ExpiryHours, p.Session.SessionExpiry, 1, 72)
	p.Session.CompactionMaxAge = minutes(ss.CompactionMaxAgeMinutes, p.Session.CompactionMaxAge, 5, 24*60)
	p.SweepMaxAge = hours(ss.SweepMaxAgeHours, p.SweepMaxAge, 1, 24*30)
	p.CompactionLoad.Limit = clampInt(ss.CompactionLimit, p.CompactionLoad.Limit, 1, 100)
	p.CompactionLoad.MaxChars = clampInt(ss.CompactionMaxChars, p.CompactionLoad.MaxChars, 200, 50_000)
	p.NewSessionLoad.Limit = clampInt(ss.NewSessionLimit, p.NewSessionLoad.Limit, 1, 100)
	p.NewSessionLoad.MaxChars = clampInt(ss.NewSessionMaxChars, p.NewSessionLoad.MaxChars, 200, 50_000)

	rs := s.Recall
	p.Recall.Cooldown = seconds(rs.CooldownSeconds, p.Recall.Cooldown, 10, 24*3600)
	p.Recall.MinMessageChars = clampInt(rs.MinMessageChars, p.Recall.MinMessageChars, 1, 1000)
	p.Recall.MinKeywords = clampInt(rs.MinKeywords, p.Recall.MinKeywords, 1, 20)
	if rs.MinScore > 0 {
		p.Recall.MinScore = rs.MinScore
	}
	p.Recall.Limit = clampInt(rs.Limit, p.Recall.Limit, 1, 20)
	p.Recall.MaxChars = clampInt(rs.MaxChars, p.Recall.MaxChars, 200, 20_000)
	p.Recall.MaxTopics = clampInt(rs.MaxTopics, p.Recall.MaxTopics, 1, 20)
	p.Recall.CacheMaxAge = hours(rs.TopicCacheMaxAgeHours, p.Recall.CacheMaxAge, 1, 24*30)

	sm := s.Summary
	p.SummaryCooldown = seconds(sm.CooldownSeconds, p.SummaryCooldown, 60, 24*3600)
	p.SubstantialMinLines = clampInt(sm.MinLines, p.SubstantialMinLines, 1, 10_000)
	p.SubstantialMinUsers = clampInt(sm.MinUserMessages, p.SubstantialMinUsers, 1, 1000)
	p.Summary.MaxChars = clampInt(sm.MaxChars, p.Summary.MaxChars, 200, 20_000)

	es := s.Extract
	p.Extract.Cooldown = seconds(es.CooldownSeconds, p.Extract.Cooldown, 60, 7*24*3600)
	p.Extract.MinUserTurns = clampInt(es.MinUserTurns, p.Extract.MinUserTurns, 1, 100)
	p.Extract.MinTurnChars = clampInt(es.MinTurnChars, p.Extract.MinTurnChars, 1, 1000)
	p.Extract.MaxBlobChars = clampInt(es.MaxBlobChars, p.Extract.MaxBlobChars, 200, 50_000)

	return p
}

func clampInt(v, def, lo, hi int) int {
	if v <= 0 {
		return def
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func seconds(v int, def time.Duration, lo, hi int) time.Duration {
	if v <= 0 {
		return def
	}
	return time.Duration(clampInt(v, 0, lo, hi)) * time.Second
}

func minutes(v int, def time.Duration, lo, hi int) time.Duration {
	if v <= 0 {
		return def
	}
	return time.Duration(clampInt(v, 0, lo, hi)) * time.Minute
}

func hours(v int, def time.Duration, lo, hi int) time.Duration {
	if v <= 0 {
		return def
	}
	return time.Duration(clampInt(v, 0, lo, hi)) * time.Hour
}
