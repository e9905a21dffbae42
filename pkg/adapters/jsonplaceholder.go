package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/harun/mcpgate/pkg/toolexecutor"
)

// Tool names served by the JSONPlaceholder adapters.
const (
	PostTool     = "post_call"
	CommentsTool = "comments_call"
)

// DefaultJSONPlaceholderURL is the public JSONPlaceholder API.
const DefaultJSONPlaceholderURL = "https://jsonplaceholder.typicode.com"

// JSONPlaceholder fetches posts and their comments.
type JSONPlaceholder struct {
	baseURL  string
	upstream *upstream
}

// NewJSONPlaceholder creates the adapter. An empty baseURL uses the public
// API; a nil httpClient uses a fresh http.Client.
func NewJSONPlaceholder(baseURL string, timeout time.Duration, httpClient *http.Client) *JSONPlaceholder {
	if baseURL == "" {
		baseURL = DefaultJSONPlaceholderURL
	}
	return &JSONPlaceholder{
		baseURL:  strings.TrimRight(baseURL, "/"),
		upstream: newUpstream("jsonplaceholder", timeout, httpClient),
	}
}

// HandlePost returns the post named by post_id as the upstream JSON object.
func (j *JSONPlaceholder) HandlePost(ctx context.Context, params map[string]any) (any, error) {
	id, err := postID(PostTool, params)
	if err != nil {
		return nil, err
	}

	resp, err := j.upstream.do(ctx, http.MethodGet, fmt.Sprintf("%s/posts/%d", j.baseURL, id), nil, nil)
	if err != nil {
		return nil, fetchError(ctx, err, fmt.Sprintf("timeout while fetching post %d", id))
	}

	switch {
	case resp.status == http.StatusNotFound:
		return nil, &Error{Kind: ErrNotFound, Message: fmt.Sprintf("post %d not found", id), StatusCode: resp.status}
	case resp.status < 200 || resp.status >= 300:
		return nil, &Error{Kind: ErrUpstream, Message: describeStatus(resp.status), StatusCode: resp.status}
	}

	var post map[string]json.RawMessage
	if err := json.Unmarshal(resp.body, &post); err != nil || post == nil {
		return nil, &Error{Kind: ErrUpstream, Message: "expected a post object", Err: err}
	}
	return json.RawMessage(resp.body), nil
}

// HandleComments returns the comments of the post named by post_id. An empty
// list is a valid answer.
func (j *JSONPlaceholder) HandleComments(ctx context.Context, params map[string]any) (any, error) {
	id, err := postID(CommentsTool, params)
	if err != nil {
		return nil, err
	}

	resp, err := j.upstream.do(ctx, http.MethodGet, fmt.Sprintf("%s/comments?postId=%d", j.baseURL, id), nil, nil)
	if err != nil {
		return nil, fetchError(ctx, err, fmt.Sprintf("timeout while fetching comments for post %d", id))
	}

	switch {
	case resp.status == http.StatusNotFound:
		return nil, &Error{Kind: ErrNotFound, Message: fmt.Sprintf("comments for post %d not found", id), StatusCode: resp.status}
	case resp.status < 200 || resp.status >= 300:
		return nil, &Error{Kind: ErrUpstream, Message: describeStatus(resp.status), StatusCode: resp.status}
	}

	var comments []json.RawMessage
	if err := json.Unmarshal(resp.body, &comments); err != nil || comments == nil {
		return nil, &Error{Kind: ErrUpstream, Message: "expected a list of comments", Err: err}
	}
	return json.RawMessage(resp.body), nil
}

// Definitions returns the tool definitions of both handlers.
func (j *JSONPlaceholder) Definitions() []toolexecutor.ToolDefinition {
	return []toolexecutor.ToolDefinition{
		{
			Name:        PostTool,
			Description: "Fetch a post by id.",
			Args:        PostArgs{},
			FieldErrors: postFieldErrors(),
			Handler:     j.HandlePost,
		},
		{
			Name:        CommentsTool,
			Description: "Fetch the comments of a post.",
			Args:        PostArgs{},
			FieldErrors: postFieldErrors(),
			Handler:     j.HandleComments,
		},
	}
}

func fetchError(ctx context.Context, err error, timeoutMsg string) error {
	if _, ok := err.(*Error); ok {
		return err
	}
	if isTimeout(ctx, err) {
		return &Error{Kind: ErrTimeout, Message: timeoutMsg, Err: err}
	}
	return &Error{Kind: ErrUpstream, Message: fmt.Sprintf("request failed: %v", err), Err: err}
}
