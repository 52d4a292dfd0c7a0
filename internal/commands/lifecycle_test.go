package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dotcommander/memhook/internal/flags"
	"github.com/dotcommander/memhook/internal/models"
)

// recordingService answers every endpoint the hooks call and records the paths hit.
type recordingService struct {
	mu    sync.Mutex
	paths []string
}

func (s *recordingService) handler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.paths = append(s.paths, r.URL.Path)
	s.mu.Unlock()

	switch r.URL.Path {
	case "/context":
		_, _ = w.Write([]byte(`{"formatted_context":"- [decision] payments use idempotency keys",
			"topic_index":[{"subject":"stripe-webhooks","keywords":["stripe","webhook","signature"],"count":4,"avg_importance":1}]}`))
	case "/smart-recall":
		_, _ = w.Write([]byte(`{"memories":[{"memory_type":"bug","content":"rotate the webhook signing secret"}],"matched_topics":["stripe-webhooks"]}`))
	default:
		_, _ = w.Write([]byte(`{"success":true}`))
	}
}

func (s *recordingService) take() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.paths
	s.paths = nil
	return out
}

func writeSessionTranscript(t *testing.T, dir string) string {
	t.Helper()
	var lines []string
	for i := 0; i < 5; i++ {
		u, _ := json.Marshal(map[string]any{"type": "user", "message": map[string]any{
			"role": "user", "content": fmt.Sprintf("wire the stripe webhook signature check into step %d", i),
		}})
		a, _ := json.Marshal(map[string]any{"type": "assistant", "message": map[string]any{
			"role": "assistant", "content": []map[string]any{{"type": "text", "text": "done with that step"}},
		}})
		lines = append(lines, string(u), string(a))
	}
	path := filepath.Join(dir, "session.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600))
	return path
}

// TestSessionLifecycle drives one session through every hook as separate
// invocations sharing only the flag directory, the way the host runs them.
func TestSessionLifecycle(t *testing.T) {
	svc := &recordingService{}
	srv := newService(t, svc.handler)
	flagDir := testEnv(t, srv.URL)

	cwd := filepath.Join(t.TempDir(), "payments")
	require.NoError(t, os.MkdirAll(cwd, 0o755))
	transcriptPath := writeSessionTranscript(t, t.TempDir())

	hook := func(event string, in models.HookInput) string {
		in.SessionID = "sess-life"
		in.CWD = cwd
		in.TranscriptPath = transcriptPath
		b, err := json.Marshal(in)
		require.NoError(t, err)
		var out bytes.Buffer
		runHook(context.Background(), event, bytes.NewReader(b), &out)
		return out.String()
	}
	store := flags.NewFileStore(flagDir)
	question := "the stripe webhook signature check keeps failing in staging"

	t.Run("first prompt loads full context", func(t *testing.T) {
		out := hook("prompt", models.HookInput{Prompt: "hi"})
		require.Contains(t, out, "payments use idempotency keys")
		require.NotContains(t, out, "reloaded after compaction")
		require.Equal(t, []string{"/context"}, svc.take())
	})

	t.Run("on-topic prompt triggers smart recall", func(t *testing.T) {
		out := hook("prompt", models.HookInput{Prompt: question})
		require.Contains(t, out, "rotate the webhook signing secret")
		require.Equal(t, []string{"/smart-recall"}, svc.take())
	})

	t.Run("repeat within cooldown is silent", func(t *testing.T) {
		require.Empty(t, hook("prompt", models.HookInput{Prompt: question}))
		require.Empty(t, svc.take())
	})

	t.Run("pre-compaction flags the session and posts a snapshot", func(t *testing.T) {
		require.Empty(t, hook("precompact", models.HookInput{}))
		require.Equal(t, []string{"/session-summary"}, svc.take())
		_, ok := flags.Get[models.CompactionFlag](store, flags.CompactionKey("sess-life"))
		require.True(t, ok)
	})

	t.Run("prompt after compaction reloads context once", func(t *testing.T) {
		out := hook("prompt", models.HookInput{Prompt: "continue"})
		require.Contains(t, out, "reloaded after compaction")
		require.Equal(t, []string{"/context"}, svc.take())
		_, ok := flags.Get[models.CompactionFlag](store, flags.CompactionKey("sess-life"))
		require.False(t, ok)
	})

	t.Run("stop saves a summary and extracts", func(t *testing.T) {
		require.Equal(t, "{}\n", hook("stop", models.HookInput{LastAssistantMessage: "all green"}))
		require.Equal(t, []string{"/session-summary", "/extract"}, svc.take())
	})

	t.Run("second stop is throttled", func(t *testing.T) {
		require.Equal(t, "{}\n", hook("stop", models.HookInput{}))
		require.Empty(t, svc.take())
	})

	t.Run("stop loop guard", func(t *testing.T) {
		require.NoError(t, flags.Put(store, flags.SummaryKey("sess-life"), models.SummaryFlag{Timestamp: 1}))
		require.Equal(t, "{}\n", hook("stop", models.HookInput{StopHookActive: true}))
		require.Empty(t, svc.take())
	})
}
