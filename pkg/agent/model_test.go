package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModelClient(t *testing.T) {
	tests := []struct {
		provider string
		want     string
	}{
		{"", "ollama"},
		{"ollama", "ollama"},
		{"openai", "openai"},
		{"anthropic", "anthropic"},
	}
	for _, tt := range tests {
		client, err := NewModelClient(ModelOptions{Provider: tt.provider, BaseURL: "http://localhost:1", Model: "m"})
		require.NoError(t, err)
		assert.Equal(t, tt.want, client.Provider())
	}

	_, err := NewModelClient(ModelOptions{Provider: "gemini"})
	assert.ErrorContains(t, err, "unsupported provider")
}

func TestOllamaClient(t *testing.T) {
	t.Run("should post a streaming chat request and return the raw body", func(t *testing.T) {
		var got chatRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/chat", r.URL.Path)
			assert.Equal(t, http.MethodPost, r.Method)
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			fmt.Fprintln(w, `{"message":{"content":"{\"tool\":"}}`)
			fmt.Fprintln(w, `{"message":{"content":"\"post_call\",\"args\":{}}"}}`)
		}))
		defer srv.Close()

		client := NewOllamaClient(srv.URL+"/", "mistral", time.Second)
		raw, err := client.Chat(context.Background(), NewPrompt("sys", "Show me post 1"))

		require.NoError(t, err)
		assert.Equal(t, "mistral", got.Model)
		assert.True(t, got.Stream)
		assert.Equal(t, []Message{{Role: "system", Content: "sys"}, {Role: "user", Content: "Show me post 1"}}, got.Messages)

		asm, err := Assemble(raw)
		require.NoError(t, err)
		assert.Equal(t, `{"tool":"post_call","args":{}}`, asm.Text)
	})

	t.Run("should return a status error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model not found", http.StatusNotFound)
		}))
		defer srv.Close()

		_, err := NewOllamaClient(srv.URL, "missing", time.Second).Chat(context.Background(), NewPrompt("", "q"))

		var statusErr *ModelStatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
		assert.Equal(t, "model not found", statusErr.Body)
	})

	t.Run("should time out", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)

		_, err := NewOllamaClient(srv.URL, "m", 50*time.Millisecond).Chat(context.Background(), NewPrompt("", "q"))

		require.Error(t, err)
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
		assert.Equal(t, KindConnection, classifyModelError(err).Kind)
	})
}

func TestEncodeChunk(t *testing.T) {
	asm, err := Assemble(append(encodeChunk(`{"a":`), encodeChunk(`"b\n"}`)...))

	require.NoError(t, err)
	assert.Equal(t, `{"a":"b\n"}`, asm.Text)
}
