package models

// HookInput is the JSON object the host writes to a hook's stdin.
// All fields are optional; different events populate different subsets.
type HookInput struct {
	SessionID      string `json:"session_id"`
	TranscriptPath string `json:"transcript_path"`
	CWD            string `json:"cwd"`
	HookEventName  string `json:"hook_event_name,omitempty"`

	// UserPromptSubmit
	Prompt string `json:"prompt,omitempty"`

	// PreCompact
	Trigger string `json:"trigger,omitempty"`

	// Stop
	StopHookActive       bool   `json:"stop_hook_active,omitempty"`
	LastAssistantMessage string `json:"last_assistant_message,omitempty"`
}

// HookOutput is printed at most once per invocation when there is context to inject.
type HookOutput struct {
	Result            string `json:"result"`
	AdditionalContext string `json:"additionalContext,omitempty"`
}

// Stamped is implemented by every persisted flag record.
type Stamped interface {
	Stamp() int64
}

// CompactionFlag records that the host just compacted the conversation.
type CompactionFlag struct {
	Timestamp int64  `json:"timestamp"`
	SessionID string `json:"session_id"`
}

func (f CompactionFlag) Stamp() int64 { return f.Timestamp }

// SessionMarker records that context was already injected for a session,
// plus the smart-recall cooldown and novelty baseline.
type SessionMarker struct {
	Timestamp       int64    `json:"timestamp"`
	SessionID       string   `json:"session_id"`
	ProjectID       string   `json:"project_id"`
	LastSmartRecall int64    `json:"last_smart_recall"`
	LastSmartTopics []string `json:"last_smart_topics"`
}

func (m SessionMarker) Stamp() int64 { return m.Timestamp }

// SummaryFlag records the last session summary save for cooldown purposes.
type SummaryFlag struct {
	Timestamp int64  `json:"timestamp"`
	SessionID string `json:"session_id"`
}

func (f SummaryFlag) Stamp() int64 { return f.Timestamp }

// TopicIndexEntry describes one remote memory cluster.
type TopicIndexEntry struct {
	Subject       string   `json:"subject"`
	Keywords      []string `json:"keywords"`
	Count         int      `json:"count"`
	AvgImportance float64  `json:"avg_importance"`
}

// TopicCache is a per-project snapshot of the remote topic index.
type TopicCache struct {
	Timestamp int64             `json:"timestamp"`
	ProjectID string            `json:"project_id"`
	Topics    []TopicIndexEntry `json:"topics"`
}

func (c TopicCache) Stamp() int64 { return c.Timestamp }

// ExtractCooldown is the global throttle for remote fact extraction.
type ExtractCooldown struct {
	Timestamp int64 `json:"timestamp"`
}

func (c ExtractCooldown) Stamp() int64 { return c.Timestamp }

// Memory is a single memory returned by the remote service.
type Memory struct {
	ID         string  `json:"id,omitempty"`
	Content    string  `json:"content"`
	Subject    string  `json:"subject,omitempty"`
	Importance float64 `json:"importance,omitempty"`
	MemoryType string  `json:"memory_type,omitempty"`
}
