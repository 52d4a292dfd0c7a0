// Package hooks runs the three lifecycle entry points: pre-compaction,
// prompt-submit and stop. Every entry point is best-effort; failures are
// logged to the diagnostic log and never reach the host.
package hooks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/dotcommander/memhook/internal/app"
	"github.com/dotcommander/memhook/internal/flags"
	"github.com/dotcommander/memhook/internal/models"
	"github.com/dotcommander/memhook/internal/output"
	"github.com/dotcommander/memhook/internal/remote"
)

// Remote is the subset of the memory service the hooks call.
type Remote interface {
	Context(ctx context.Context, q remote.ContextQuery) (remote.ContextResponse, error)
	SmartRecall(ctx context.Context, req remote.RecallRequest) (remote.RecallResponse, error)
	PostSummary(ctx context.Context, summary string) remote.Result[remote.Ack]
	Extract(ctx context.Context, req remote.ExtractRequest) remote.Result[remote.Ack]
}

// Deps is everything an entry point touches.
type Deps struct {
	Store flags.Store
	// Client is nil when no API key or URL could be resolved; hooks then do nothing.
	Client Remote
	Now    func() time.Time
	Policy Policy
	Logger *slog.Logger
	Out    io.Writer
}

func (d *Deps) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}

func (d *Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return d.Logger
}

// Run executes fn under an overall deadline and swallows its errors and panics.
func (d *Deps) Run(ctx context.Context, name string, fn func(context.Context) error) {
	log := d.logger().With("hook", name)
	defer func() {
		if r := recover(); r != nil {
			log.Error("hook panicked", "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
		}
	}()

	if d.Policy.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Policy.Deadline)
		defer cancel()
	}
	if err := fn(ctx); err != nil {
		log.Warn("hook failed", "error", err)
	}
}

// emit prints the injected-context object. Empty text prints nothing.
func (d *Deps) emit(text string) error {
	if strings.TrimSpace(text) == "" || d.Out == nil {
		return nil
	}
	return output.Fprint(d.Out, models.HookOutput{Result: "success", AdditionalContext: text})
}

// ProjectID names the project a working directory belongs to: the sanitized,
// lowercase base name of the enclosing git root, or of cwd itself.
func ProjectID(cwd string) string {
	root := app.ProjectRoot(strings.TrimSpace(cwd))
	if root == "" {
		return ""
	}
	base := filepath.Base(root)
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return flags.Sanitize(strings.ToLower(base))
}

// Entry point names, as used on the command line.
const (
	EventPreCompact = "precompact"
	EventPrompt     = "prompt"
	EventStop       = "stop"
)

// Dispatch runs the named entry point. The stop acknowledgement is printed
// even when the body fails or panics.
func (d *Deps) Dispatch(ctx context.Context, event string, in models.HookInput) {
	switch event {
	case EventPreCompact:
		d.Run(ctx, event, func(ctx context.Context) error { return d.PreCompact(ctx, in) })
	case EventPrompt:
		d.Run(ctx, event, func(ctx context.Context) error { return d.PromptSubmit(ctx, in) })
	case EventStop:
		if d.Out != nil {
			defer fmt.Fprintln(d.Out, StopAck)
		}
		d.Run(ctx, event, func(ctx context.Context) error { return d.Stop(ctx, in) })
	default:
		d.logger().Warn("unknown hook event", "event", event)
	}
}
