// Package flags is the cross-invocation coordination store used by the hooks.
//
// Every hook runs as a fresh process, so the only shared state is a set of small
// JSON records keyed by a sanitized session or project identifier. All state is
// advisory: a missing, unreadable, or corrupt record is indistinguishable from
// "not written yet", and no operation surfaces I/O failures as fatal.
package flags

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/dotcommander/memhook/internal/models"
)

const (
	// LogFile is the diagnostic log kept alongside the flags; Sweep never removes it.
	LogFile = "errors.log"

	// ExtractKey is the global auto-extraction cooldown record.
	ExtractKey = "last-extract"

	// maxKeyLen bounds a sanitized identifier.
	maxKeyLen = 64
	hashLen   = 8
)

// Store is the key-value interface every caller goes through, so the backing
// mechanism (plain files or an embedded database) is swappable.
type Store interface {
	// Write stores data under key, overwriting unconditionally.
	Write(key string, data []byte) error
	// Read returns the stored bytes, or false if absent or unreadable.
	Read(key string) ([]byte, bool)
	// Delete removes key. Failures are swallowed.
	Delete(key string)
	// Sweep removes entries last modified before now-maxAge and returns how many were removed.
	Sweep(maxAge time.Duration, now time.Time) int
	// List returns every entry currently stored.
	List() []Entry
	Close() error
}

// Entry describes one stored record.
type Entry struct {
	Key     string    `json:"key"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// CompactionKey is written by the pre-compaction hook and consumed by prompt-submit.
func CompactionKey(sessionID string) string { return "compacted-" + Sanitize(sessionID) }

// MarkerKey tracks context injection and smart-recall state for a session.
func MarkerKey(sessionID string) string { return "session-" + Sanitize(sessionID) }

// SummaryKey tracks the last stop-hook summary for a session.
func SummaryKey(sessionID string) string { return "summary-" + Sanitize(sessionID) }

// TopicsKey holds the cached topic index for a project.
func TopicsKey(projectID string) string { return "topics-" + Sanitize(projectID) + ".json" }

// Sanitize maps an arbitrary identifier to [A-Za-z0-9_-]{1,64}.
// Clean identifiers that fit are returned unchanged, so Sanitize is idempotent.
// Any other input is rewritten and suffixed with a short hash of the original
// so ids differing only in disallowed characters stay distinct.
func Sanitize(raw string) string {
	if raw == "" {
		return "unknown"
	}
	clean := true
	b := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
			b = append(b, c)
		default:
			clean = false
			b = append(b, '_')
		}
	}
	if clean && len(b) <= maxKeyLen {
		return raw
	}

	sum := sha256.Sum256([]byte(raw))
	suffix := hex.EncodeToString(sum[:])[:hashLen]
	if limit := maxKeyLen - hashLen - 1; len(b) > limit {
		b = b[:limit]
	}
	return string(b) + "-" + suffix
}

// Put serializes rec as JSON and writes it under key.
func Put[T any](s Store, key string, rec T) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.Write(key, data)
}

// Get reads and decodes the record stored under key.
// Parse failure is reported exactly like absence.
func Get[T any](s Store, key string) (T, bool) {
	data, ok := s.Read(key)
	if !ok {
		var zero T
		return zero, false
	}
	return Decode[T](data)
}

// Decode parses a raw record. An empty or malformed payload reports false.
func Decode[T any](data []byte) (T, bool) {
	var rec T
	if len(data) == 0 || json.Unmarshal(data, &rec) != nil {
		var zero T
		return zero, false
	}
	return rec, true
}

// Age returns how long ago rec was stamped.
func Age(rec models.Stamped, now time.Time) time.Duration {
	return now.Sub(time.Unix(rec.Stamp(), 0))
}

// Fresh reports whether rec is younger than maxAge.
func Fresh(rec models.Stamped, now time.Time, maxAge time.Duration) bool {
	return Age(rec, now) < maxAge
}
