// Package summary builds the bounded session snapshot posted to the memory
// service before a compaction and when a session stops.
package summary

import (
	"fmt"
	"strings"
	"time"

	"github.com/dotcommander/memhook/internal/textutil"
	"github.com/dotcommander/memhook/internal/transcript"
)

// Kind selects which trigger a summary is built for.
type Kind int

const (
	// PreCompact captures the session right before the host compacts it.
	PreCompact Kind = iota
	// SessionStop captures the session when the assistant stops responding.
	SessionStop
)

func (k Kind) label() string {
	if k == PreCompact {
		return "Session snapshot (before context compaction)"
	}
	return "Session summary"
}

// Policy holds the scan windows and caps used while building a summary.
type Policy struct {
	MainTaskLines       int
	MainTaskMinChars    int
	LastRequestLines    int
	LastRequestMinChars int
	FileLines           int
	MaxFiles            int
	RecentLines         int
	RecentMinChars      int
	RecentTurnChars     int
	MaxRecentTurns      int
	FinalMessageChars   int
	MaxChars            int
}

// DefaultPolicy returns the stock windows.
func DefaultPolicy() Policy {
	return Policy{
		MainTaskLines:       100,
		MainTaskMinChars:    20,
		LastRequestLines:    60,
		LastRequestMinChars: 10,
		FileLines:           150,
		MaxFiles:            15,
		RecentLines:         40,
		RecentMinChars:      20,
		RecentTurnChars:     200,
		MaxRecentTurns:      8,
		FinalMessageChars:   500,
		MaxChars:            2000,
	}
}

// Input is what the hook knows when it asks for a summary.
type Input struct {
	TranscriptPath string
	CWD            string
	// FinalMessage is the host-supplied last assistant message (stop only).
	FinalMessage string
	Now          time.Time
}

// Sections are the pieces a summary is assembled from. Empty fields are omitted.
type Sections struct {
	MainTask    string
	LastRequest string
	Files       []string
	Recent      []transcript.Turn
	Final       string
}

// Empty reports whether no section carries content.
func (s Sections) Empty() bool {
	return s.MainTask == "" && s.LastRequest == "" && len(s.Files) == 0 && len(s.Recent) == 0 && s.Final == ""
}

// Collect scans the transcript windows for kind and returns the raw sections.
// Unreadable transcripts yield empty sections.
func Collect(kind Kind, in Input, p Policy) Sections {
	var s Sections

	if head, err := transcript.HeadLines(in.TranscriptPath, p.MainTaskLines); err == nil {
		s.MainTask = firstUserTurn(transcript.Turns(head), p.MainTaskMinChars)
	}

	if kind == PreCompact {
		if tail, err := transcript.TailLines(in.TranscriptPath, p.LastRequestLines); err == nil {
			last := lastUserTurn(transcript.Turns(tail), p.LastRequestMinChars)
			if last != s.MainTask {
				s.LastRequest = last
			}
		}
		if tail, err := transcript.TailLines(in.TranscriptPath, p.RecentLines); err == nil {
			s.Recent = recentTurns(transcript.Turns(tail), p)
		}
	}

	if tail, err := transcript.TailLines(in.TranscriptPath, p.FileLines); err == nil {
		s.Files = filePaths(transcript.Turns(tail))
	}

	if kind == SessionStop {
		if msg := strings.TrimSpace(in.FinalMessage); msg != "" {
			s.Final = textutil.Clip(msg, p.FinalMessageChars, textutil.Ellipsis)
		}
	}
	return s
}

// Build collects and renders a summary. It returns "" when nothing worth
// saving was found.
func Build(kind Kind, in Input, p Policy) string {
	s := Collect(kind, in, p)
	if s.Empty() {
		return ""
	}
	return Render(kind, s, in, p)
}

// Render formats sections under a labeled header and caps the total size.
func Render(kind Kind, s Sections, in Input, p Policy) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n", kind.label())
	fmt.Fprintf(&b, "Time: %s\n", in.Now.UTC().Format("2006-01-02 15:04 UTC"))
	if in.CWD != "" {
		fmt.Fprintf(&b, "Directory: %s\n", in.CWD)
	}

	if s.MainTask != "" {
		fmt.Fprintf(&b, "\nMain task: %s\n", textutil.OneLine(s.MainTask))
	}
	if s.LastRequest != "" {
		fmt.Fprintf(&b, "\nLast request: %s\n", textutil.OneLine(s.LastRequest))
	}
	if len(s.Files) > 0 {
		shown := s.Files
		if p.MaxFiles > 0 && len(shown) > p.MaxFiles {
			shown = shown[:p.MaxFiles]
		}
		fmt.Fprintf(&b, "\nFiles touched (%d):\n", len(s.Files))
		for _, f := range shown {
			fmt.Fprintf(&b, "- %s\n", f)
		}
		if hidden := len(s.Files) - len(shown); hidden > 0 {
			fmt.Fprintf(&b, "- ... and %d more\n", hidden)
		}
	}
	if len(s.Recent) > 0 {
		b.WriteString("\nRecent conversation:\n")
		for _, t := range s.Recent {
			fmt.Fprintf(&b, "- %s: %s\n", t.Role, t.Text)
		}
	}
	if s.Final != "" {
		fmt.Fprintf(&b, "\nFinal response: %s\n", textutil.OneLine(s.Final))
	}

	return textutil.Clip(strings.TrimRight(b.String(), "\n"), p.MaxChars, textutil.Ellipsis)
}

func substantial(t transcript.Turn, minChars int) bool {
	return len([]rune(strings.TrimSpace(t.Text))) > minChars && !transcript.IsNoise(t.Text)
}

func firstUserTurn(turns []transcript.Turn, minChars int) string {
	for _, t := range turns {
		if t.Role == transcript.RoleUser && substantial(t, minChars) {
			return strings.TrimSpace(t.Text)
		}
	}
	return ""
}

func lastUserTurn(turns []transcript.Turn, minChars int) string {
	for i := len(turns) - 1; i >= 0; i-- {
		t := turns[i]
		if t.Role == transcript.RoleUser && substantial(t, minChars) {
			return strings.TrimSpace(t.Text)
		}
	}
	return ""
}

func recentTurns(turns []transcript.Turn, p Policy) []transcript.Turn {
	var out []transcript.Turn
	for _, t := range turns {
		if t.Role == transcript.RoleOther || !substantial(t, p.RecentMinChars) {
			continue
		}
		out = append(out, transcript.Turn{
			Role: t.Role,
			Text: textutil.Clip(textutil.OneLine(t.Text), p.RecentTurnChars, textutil.Ellipsis),
		})
	}
	if p.MaxRecentTurns > 0 && len(out) > p.MaxRecentTurns {
		out = out[len(out)-p.MaxRecentTurns:]
	}
	return out
}

func filePaths(turns []transcript.Turn) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, t := range turns {
		for _, p := range t.FilePaths {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}
