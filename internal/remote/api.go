package remote

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dotcommander/memhook/internal/models"
)

// Result carries the outcome of a call whose failure the caller may ignore.
type Result[T any] struct {
	Value T
	Err   error
}

// OK reports whether the call succeeded.
func (r Result[T]) OK() bool { return r.Err == nil }

func resultOf[T any](v T, err error) Result[T] {
	return Result[T]{Value: v, Err: err}
}

// Ack is the acknowledgement body of write endpoints. Services may omit it.
type Ack struct {
	Success bool   `json:"success,omitempty"`
	ID      string `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
}

// ContextQuery selects what a full context load returns.
type ContextQuery struct {
	Limit         int
	ProjectID     string
	IncludeGlobal bool
}

// ContextResponse is the body of GET context.
type ContextResponse struct {
	FormattedContext string                   `json:"formatted_context,omitempty"`
	TotalCount       int                      `json:"total_count,omitempty"`
	ProjectMemories  []models.Memory          `json:"project_memories,omitempty"`
	GlobalMemories   []models.Memory          `json:"global_memories,omitempty"`
	TopicIndex       []models.TopicIndexEntry `json:"topic_index,omitempty"`
}

// RecallRequest is the body of POST smart-recall.
type RecallRequest struct {
	Message   string `json:"message"`
	ProjectID string `json:"project_id,omitempty"`
	Limit     int    `json:"limit"`
}

// RecallResponse is the body returned by smart-recall.
type RecallResponse struct {
	Memories      []models.Memory `json:"memories"`
	MatchedTopics []string        `json:"matched_topics,omitempty"`
}

// ExtractRequest is the body of POST extract.
type ExtractRequest struct {
	UserMessage       string `json:"user_message"`
	AssistantResponse string `json:"assistant_response"`
	ProjectID         string `json:"project_id"`
}

type summaryRequest struct {
	Summary string `json:"summary"`
}

// Context fetches the most important memories for a project.
func (c *Client) Context(ctx context.Context, q ContextQuery) (ContextResponse, error) {
	v := url.Values{}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.ProjectID != "" {
		v.Set("project_id", q.ProjectID)
	}
	v.Set("include_global", strconv.FormatBool(q.IncludeGlobal))

	var out ContextResponse
	err := c.do(ctx, http.MethodGet, "context", v, nil, &out)
	return out, err
}

// SmartRecall runs a narrowly scoped recall for one message.
func (c *Client) SmartRecall(ctx context.Context, req RecallRequest) (RecallResponse, error) {
	var out RecallResponse
	err := c.do(ctx, http.MethodPost, "smart-recall", nil, req, &out)
	return out, err
}

// PostSummary saves a session summary.
func (c *Client) PostSummary(ctx context.Context, summary string) Result[Ack] {
	var out Ack
	err := c.do(ctx, http.MethodPost, "session-summary", nil, summaryRequest{Summary: summary}, &out)
	return resultOf(out, err)
}

// Extract asks the service to mine durable facts from a conversation.
func (c *Client) Extract(ctx context.Context, req ExtractRequest) Result[Ack] {
	var out Ack
	err := c.do(ctx, http.MethodPost, "extract", nil, req, &out)
	return resultOf(out, err)
}
