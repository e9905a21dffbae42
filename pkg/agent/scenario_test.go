package agent

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// toolServer answers post-call with a fixed post and 404 for everything else.
func toolServer(t *testing.T, calls *atomic.Int32, bodies chan<- string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /post-call", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		b, _ := io.ReadAll(r.Body)
		select {
		case bodies <- string(b):
		default:
		}
		w.Write([]byte(`{"id":2,"title":"X"}`))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func scenarioOrchestrator(t *testing.T, modelURL, toolURL string, modelTimeout time.Duration) *Orchestrator {
	t.Helper()
	o, err := NewOrchestrator(OrchestratorConfig{
		SystemPrompt: "only JSON",
		Model:        NewOllamaClient(modelURL, "mistral", modelTimeout),
		Registry:     NewRegistry(DefaultEntries()),
		Dispatcher:   NewHTTPDispatcher(toolURL, time.Second),
		Logger:       zerolog.Nop(),
	})
	require.NoError(t, err)
	return o
}

func TestScenarios(t *testing.T) {
	t.Run("A: should return the tool result unchanged", func(t *testing.T) {
		var calls atomic.Int32
		bodies := make(chan string, 1)
		tools := toolServer(t, &calls, bodies)

		model := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"message":{"content":"{\"tool\": \"post_call\", \"args\": {\"post_id\": 2}}"}}` + "\n"))
		}))
		defer model.Close()

		result, err := scenarioOrchestrator(t, model.URL, tools.URL, time.Second).Run(context.Background(), "Show me post 2")

		require.NoError(t, err)
		assert.Equal(t, `{"id":2,"title":"X"}`, string(result))
		assert.JSONEq(t, `{"post_id":2}`, <-bodies)
	})

	t.Run("B: should fail with a response error on an empty stream", func(t *testing.T) {
		var calls atomic.Int32
		tools := toolServer(t, &calls, nil)

		model := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		defer model.Close()

		_, err := scenarioOrchestrator(t, model.URL, tools.URL, time.Second).Run(context.Background(), "q")

		require.Error(t, err)
		assert.Equal(t, KindResponse, KindOf(err))
		assert.Contains(t, err.Error(), "empty")
		assert.Zero(t, calls.Load())
	})

	t.Run("C: should fail with a dispatch error naming an unknown tool", func(t *testing.T) {
		var calls atomic.Int32
		tools := toolServer(t, &calls, nil)

		model := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"message":{"content":"{\"tool\":\"weather_call\",\"args\":{}}"}}` + "\n"))
		}))
		defer model.Close()

		_, err := scenarioOrchestrator(t, model.URL, tools.URL, time.Second).Run(context.Background(), "q")

		require.Error(t, err)
		assert.Equal(t, KindDispatch, KindOf(err))
		assert.ErrorIs(t, err, ErrToolNotFound)
		assert.Contains(t, err.Error(), "weather_call")
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("D: should fail with a connection error before any tool call", func(t *testing.T) {
		var calls atomic.Int32
		tools := toolServer(t, &calls, nil)

		release := make(chan struct{})
		model := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer model.Close()
		defer close(release)

		_, err := scenarioOrchestrator(t, model.URL, tools.URL, 50*time.Millisecond).Run(context.Background(), "q")

		require.Error(t, err)
		assert.Equal(t, KindConnection, KindOf(err))
		assert.Zero(t, calls.Load())
	})
}
