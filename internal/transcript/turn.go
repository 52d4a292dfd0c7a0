// Package transcript reads the host's line-delimited JSON conversation log.
//
// The log format is owned by the host and varies between versions: a line may
// carry role/content at the top level or nested under "message". Every reader
// here is best-effort and never fails a scan because of one bad line.
package transcript

import (
	"encoding/json"
	"strings"
)

// Role is the speaker of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleOther     Role = "other"
)

// Turn is one normalized transcript entry.
type Turn struct {
	Role      Role
	Text      string
	FilePaths []string
}

// shape identifies which of the known line layouts a raw entry uses.
type shape int

const (
	shapeUnrecognized shape = iota
	// shapeDirect: {"role": ..., "content": ...}
	shapeDirect
	// shapeNested: {"type": ..., "message": {"role": ..., "content": ...}}
	shapeNested
)

type nestedMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

type rawLine struct {
	Type    string          `json:"type"`
	IsMeta  bool            `json:"isMeta"`
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
	Message *nestedMessage  `json:"message"`
}

func (r rawLine) shape() shape {
	switch {
	case r.Message != nil && r.Message.Role != "" && len(r.Message.Content) > 0:
		return shapeNested
	case r.Role != "" && len(r.Content) > 0:
		return shapeDirect
	default:
		return shapeUnrecognized
	}
}

// ParseTurn parses one line. It returns false for malformed JSON and for
// entries without a role and content, so callers can skip and keep scanning.
func ParseTurn(line string) (Turn, bool) {
	line = strings.TrimSpace(line)
	if line == "" || line[0] != '{' {
		return Turn{}, false
	}
	var raw rawLine
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Turn{}, false
	}

	var role string
	var content json.RawMessage
	switch raw.shape() {
	case shapeNested:
		role, content = raw.Message.Role, raw.Message.Content
	case shapeDirect:
		role, content = raw.Role, raw.Content
	default:
		return Turn{}, false
	}
	if string(content) == "null" {
		return Turn{}, false
	}

	t := Turn{
		Role:      normalizeRole(role),
		Text:      ExtractText(content),
		FilePaths: ExtractFilePaths(content),
	}
	// Host-injected entries (caveats, command echoes) are not the user speaking.
	if raw.IsMeta {
		t.Role = RoleOther
	}
	return t, true
}

func normalizeRole(role string) Role {
	switch strings.ToLower(role) {
	case "user", "human":
		return RoleUser
	case "assistant":
		return RoleAssistant
	default:
		return RoleOther
	}
}

type segment struct {
	Type  string         `json:"type"`
	Text  string         `json:"text"`
	Input map[string]any `json:"input"`
}

// pathKeys are tool input fields that name a file.
var pathKeys = []string{"file_path", "path", "notebook_path"}

func decodeSegments(content json.RawMessage) ([]segment, string, bool) {
	var s string
	if err := json.Unmarshal(content, &s); err == nil {
		return nil, s, true
	}
	var segs []segment
	if err := json.Unmarshal(content, &segs); err == nil {
		return segs, "", true
	}
	// Arrays with oddly-typed members: decode element by element.
	var items []json.RawMessage
	if err := json.Unmarshal(content, &items); err != nil {
		return nil, "", false
	}
	// segs may hold a partial decode from the failed attempt above.
	kept := make([]segment, 0, len(items))
	for _, item := range items {
		var seg segment
		if json.Unmarshal(item, &seg) == nil {
			kept = append(kept, seg)
		}
	}
	return kept, "", true
}

// ExtractText flattens a content field. Plain strings are returned as-is; for
// segment lists only "text" segments contribute, joined by newlines.
func ExtractText(content json.RawMessage) string {
	segs, plain, ok := decodeSegments(content)
	if !ok {
		return ""
	}
	if segs == nil {
		return strings.TrimSpace(plain)
	}
	var parts []string
	for _, seg := range segs {
		if seg.Type == "text" {
			if t := strings.TrimSpace(seg.Text); t != "" {
				parts = append(parts, t)
			}
		}
	}
	return strings.Join(parts, "\n")
}

// ExtractFilePaths collects path-like inputs of tool_use segments in first-seen order.
func ExtractFilePaths(content json.RawMessage) []string {
	segs, _, ok := decodeSegments(content)
	if !ok || len(segs) == 0 {
		return nil
	}
	var out []string
	seen := map[string]struct{}{}
	for _, seg := range segs {
		if seg.Type != "tool_use" || seg.Input == nil {
			continue
		}
		for _, k := range pathKeys {
			p, _ := seg.Input[k].(string)
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

// hostMarkup prefixes identify user-role text the host generated itself.
var hostMarkup = []string{
	"<command-name>",
	"<command-message>",
	"<local-command-stdout>",
	"<system-reminder>",
	"[Request interrupted",
}

// IsNoise reports whether a user utterance carries no task signal: short
// acknowledgements such as "ok" and host-generated markup.
func IsNoise(text string) bool {
	text = strings.TrimSpace(text)
	if len([]rune(text)) <= noiseChars {
		return true
	}
	for _, p := range hostMarkup {
		if strings.HasPrefix(text, p) {
			return true
		}
	}
	return false
}
