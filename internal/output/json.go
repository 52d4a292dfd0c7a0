// Package output prints JSON for both CLI envelopes and hook replies.
package output

import (
	"encoding/json"
	"errors"
	"io"
	"os"
)

const prettyEnv = "MEMHOOK_PRETTY_JSON"

// recoverableError mirrors models.RecoverableError without importing models.
type recoverableError interface {
	error
	ErrorCode() string
	Context() map[string]string
	SuggestedAction() string
}

// Response represents a standard JSON response
type Response struct {
	SchemaVersion   string            `json:"schema_version"`
	Success         bool              `json:"success"`
	Data            any               `json:"data,omitempty"`
	Error           string            `json:"error,omitempty"`
	ErrorCode       string            `json:"error_code,omitempty"`
	ErrorContext    map[string]string `json:"error_context,omitempty"`
	SuggestedAction string            `json:"suggested_action,omitempty"`
}

// Success wraps a successful response with data
func Success(data any) Response {
	return Response{
		SchemaVersion: "v1",
		Success:       true,
		Data:          data,
	}
}

// Error wraps an error in a response. Recoverable errors also carry their
// code, context and suggested next step.
func Error(err error) Response {
	resp := Response{
		SchemaVersion: "v1",
		Success:       false,
		Error:         err.Error(),
	}
	var re recoverableError
	if errors.As(err, &re) {
		resp.ErrorCode = re.ErrorCode()
		resp.ErrorContext = re.Context()
		resp.SuggestedAction = re.SuggestedAction()
	}
	return resp
}

// Config selects where and how JSON is written.
type Config struct {
	Writer io.Writer
	Pretty bool
}

// DefaultConfig writes compact JSON to stdout unless MEMHOOK_PRETTY_JSON is set.
func DefaultConfig() Config {
	v := os.Getenv(prettyEnv)
	return Config{Writer: os.Stdout, Pretty: v == "1" || v == "true"}
}

// PrintWith encodes v using cfg.
func PrintWith(cfg Config, v any) error {
	enc := json.NewEncoder(cfg.Writer)
	if cfg.Pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// Print prints a value as JSON to stdout
func Print(v any) error {
	return PrintWith(DefaultConfig(), v)
}

// Fprint writes one compact JSON document to w. Hook replies always use it:
// the host parses a single line.
func Fprint(w io.Writer, v any) error {
	return PrintWith(Config{Writer: w}, v)
}

// PrintSuccess prints a success response
func PrintSuccess(data any) error {
	return Print(Success(data))
}

// PrintError prints an error response
func PrintError(err error) error {
	return Print(Error(err))
}
