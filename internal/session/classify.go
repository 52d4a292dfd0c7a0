// Package session decides which lifecycle situation a prompt-submit invocation is in.
package session

import (
	"time"

	"github.com/dotcommander/memhook/internal/models"
)

// State is the classification of one prompt-submit invocation.
type State int

const (
	// StateNone means the invocation cannot be keyed to a session; do nothing.
	StateNone State = iota
	// StatePostCompaction: a fresh compaction flag exists; reload context.
	StatePostCompaction
	// StateNewSession: no fresh marker; load full context.
	StateNewSession
	// StateOngoing: context already injected; only smart recall may run.
	StateOngoing
)

func (s State) String() string {
	switch s {
	case StatePostCompaction:
		return "post_compaction"
	case StateNewSession:
		return "new_session"
	case StateOngoing:
		return "ongoing"
	default:
		return "none"
	}
}

// Policy holds the freshness thresholds the classifier applies.
type Policy struct {
	// SessionExpiry is how long a marker keeps a session "ongoing".
	SessionExpiry time.Duration
	// CompactionMaxAge is how long a compaction flag stays actionable.
	CompactionMaxAge time.Duration
}

// DefaultPolicy returns the stock thresholds.
func DefaultPolicy() Policy {
	return Policy{
		SessionExpiry:    4 * time.Hour,
		CompactionMaxAge: time.Hour,
	}
}

// Input is the raw coordination state read for one session.
// A nil pointer means the record was absent or failed to parse.
type Input struct {
	SessionID  string
	Compaction *models.CompactionFlag
	Marker     *models.SessionMarker
}

// Decision is the classifier's output.
type Decision struct {
	State State
	// DiscardCompaction is set when a compaction flag exists but is stale;
	// the caller should delete it.
	DiscardCompaction bool
}

// Classify applies the priority order post-compaction > new session > ongoing.
// It performs no I/O and is recomputed from the raw flags on every invocation.
func Classify(in Input, now time.Time, p Policy) Decision {
	if in.SessionID == "" {
		return Decision{State: StateNone}
	}

	var d Decision
	if in.Compaction != nil {
		if age := now.Sub(time.Unix(in.Compaction.Timestamp, 0)); age <= p.CompactionMaxAge {
			d.State = StatePostCompaction
			return d
		}
		d.DiscardCompaction = true
	}

	if in.Marker == nil || now.Sub(time.Unix(in.Marker.Timestamp, 0)) > p.SessionExpiry {
		d.State = StateNewSession
		return d
	}
	d.State = StateOngoing
	return d
}
