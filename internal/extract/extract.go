// Package extract gates and assembles the payload for remote fact extraction.
package extract

import (
	"strings"
	"time"

	"github.com/dotcommander/memhook/internal/models"
	"github.com/dotcommander/memhook/internal/textutil"
	"github.com/dotcommander/memhook/internal/transcript"
)

// Separator sits between consecutive turns inside a blob.
const Separator = "\n\n---\n\n"

// Policy holds the extraction thresholds.
type Policy struct {
	// Cooldown is global across sessions.
	Cooldown     time.Duration
	MinUserTurns int
	MinTurnChars int
	MaxBlobChars int
	ScanLines    int
}

// DefaultPolicy returns the stock thresholds.
func DefaultPolicy() Policy {
	return Policy{
		Cooldown:     15 * time.Minute,
		MinUserTurns: 3,
		MinTurnChars: 30,
		MaxBlobChars: 3500,
		ScanLines:    400,
	}
}

// Payload is the body of the remote extract call.
type Payload struct {
	UserMessage       string `json:"user_message"`
	AssistantResponse string `json:"assistant_response"`
	ProjectID         string `json:"project_id"`
}

// Due reports whether the global cooldown has elapsed. A nil record means
// extraction never ran.
func Due(last *models.ExtractCooldown, now time.Time, p Policy) bool {
	if last == nil {
		return true
	}
	return now.Sub(time.Unix(last.Timestamp, 0)) >= p.Cooldown
}

// Build reads the tail of the transcript and returns the payload, or false
// when there are not enough substantive user turns.
func Build(path, projectID string, p Policy) (Payload, bool) {
	lines, err := transcript.TailLines(path, p.ScanLines)
	if err != nil {
		return Payload{}, false
	}
	return FromTurns(transcript.Turns(lines), projectID, p)
}

// FromTurns assembles the payload from already-parsed turns.
func FromTurns(turns []transcript.Turn, projectID string, p Policy) (Payload, bool) {
	var users, assistants []string
	for _, t := range turns {
		text := strings.TrimSpace(t.Text)
		if text == "" {
			continue
		}
		switch t.Role {
		case transcript.RoleUser:
			if len([]rune(text)) > p.MinTurnChars && !transcript.IsNoise(text) {
				users = append(users, text)
			}
		case transcript.RoleAssistant:
			assistants = append(assistants, text)
		}
	}
	if len(users) < p.MinUserTurns {
		return Payload{}, false
	}
	return Payload{
		UserMessage:       blob(users, p.MaxBlobChars),
		AssistantResponse: blob(assistants, p.MaxBlobChars),
		ProjectID:         projectID,
	}, true
}

func blob(parts []string, max int) string {
	return textutil.Clip(strings.Join(parts, Separator), max, textutil.Ellipsis)
}
