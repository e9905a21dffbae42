package agent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicMaxTokens = 1024

// AnthropicClient implements ModelClient for the Anthropic Messages API.
type AnthropicClient struct {
	client  anthropic.Client
	model   string
	timeout time.Duration
}

// NewAnthropicClient creates a new Anthropic client. An empty baseURL uses the
// public endpoint.
func NewAnthropicClient(baseURL, apiKey, model string, timeout time.Duration) *AnthropicClient {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(baseURL, "/")+"/"))
	}
	return &AnthropicClient{
		client:  anthropic.NewClient(opts...),
		model:   model,
		timeout: timeout,
	}
}

// Provider returns the provider name
func (c *AnthropicClient) Provider() string {
	return "anthropic"
}

// Chat sends one message and emits every text block as a stream line.
func (c *AnthropicClient) Chat(ctx context.Context, prompt Prompt) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: anthropicMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt.User)),
		},
	}
	if prompt.System != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: prompt.System},
		}
	}

	response, err := c.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return nil, &ModelStatusError{StatusCode: apiErr.StatusCode, Body: excerpt([]byte(apiErr.RawJSON()))}
		}
		return nil, fmt.Errorf("anthropic call failed: %w", err)
	}

	var buf bytes.Buffer
	for _, block := range response.Content {
		if b, ok := block.AsAny().(anthropic.TextBlock); ok && b.Text != "" {
			buf.Write(encodeChunk(b.Text))
		}
	}

	return buf.Bytes(), nil
}
