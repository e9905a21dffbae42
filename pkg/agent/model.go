package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/harun/mcpgate/internal/tracing"
)

// ModelClient sends a prompt to a chat model and returns the raw streamed body:
// newline-delimited JSON chunks shaped {"message":{"content":"..."}}.
type ModelClient interface {
	// Chat performs exactly one model call.
	Chat(ctx context.Context, prompt Prompt) ([]byte, error)

	// Provider returns the provider name
	Provider() string
}

// ModelOptions selects and configures a model client.
type ModelOptions struct {
	Provider string // ollama, openai, anthropic
	BaseURL  string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

// NewModelClient creates a model client for opts.Provider.
func NewModelClient(opts ModelOptions) (ModelClient, error) {
	switch opts.Provider {
	case "", "ollama":
		return NewOllamaClient(opts.BaseURL, opts.Model, opts.Timeout), nil
	case "openai":
		return NewOpenAIClient(opts.BaseURL, opts.APIKey, opts.Model, opts.Timeout), nil
	case "anthropic":
		return NewAnthropicClient(opts.BaseURL, opts.APIKey, opts.Model, opts.Timeout), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", opts.Provider)
	}
}

// ModelStatusError is returned when the model endpoint answers with a
// non-success status.
type ModelStatusError struct {
	StatusCode int
	Body       string
}

func (e *ModelStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("model endpoint returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("model endpoint returned status %d: %s", e.StatusCode, e.Body)
}

// chatRequest is the body of an Ollama /api/chat call.
type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

// chatChunk is one line of a streamed chat response. Other fields are ignored.
type chatChunk struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

// encodeChunk renders a text fragment as one stream line, so providers that do
// not speak NDJSON natively feed the same assembler.
func encodeChunk(content string) []byte {
	var c chatChunk
	c.Message.Content = content
	line, _ := json.Marshal(c)
	return append(line, '\n')
}

// OllamaClient talks to an Ollama-compatible /api/chat endpoint.
type OllamaClient struct {
	baseURL    string
	model      string
	timeout    time.Duration
	httpClient *http.Client
}

// NewOllamaClient creates a client for baseURL. A non-positive timeout
// defaults to 60 seconds.
func NewOllamaClient(baseURL, model string, timeout time.Duration) *OllamaClient {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OllamaClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		timeout:    timeout,
		httpClient: &http.Client{},
	}
}

// Provider returns the provider name
func (c *OllamaClient) Provider() string {
	return "ollama"
}

// Chat posts the prompt and reads the whole NDJSON body.
func (c *OllamaClient) Chat(ctx context.Context, prompt Prompt) ([]byte, error) {
	body, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: prompt.Messages(),
		Stream:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode chat request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	tracing.InjectHeaders(ctx, req.Header)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("timeout after %v: %w", c.timeout, err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := readLimited(resp.Body)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("timeout after %v while reading stream: %w", c.timeout, err)
		}
		return nil, fmt.Errorf("failed to read chat stream: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ModelStatusError{StatusCode: resp.StatusCode, Body: excerpt(raw)}
	}

	return raw, nil
}

// maxResponseSize caps model streams and tool results read into memory.
const maxResponseSize = 4 << 20

// readLimited reads r up to maxResponseSize and fails on anything longer.
func readLimited(r io.Reader) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(r, maxResponseSize+1))
	if err != nil {
		return nil, err
	}
	if len(raw) > maxResponseSize {
		return nil, fmt.Errorf("response exceeds %d bytes", maxResponseSize)
	}
	return raw, nil
}

// excerpt shortens a body for inclusion in error details.
func excerpt(b []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(b))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
