// Package toolexecutor registers and executes the tools served by this process.
//
// Invariants:
// - Tool names are unique.
// - Arguments are validated against a schema reflected from the tool's
//   argument struct before the handler runs.
// - Every execution is bounded by a timeout.
//
// Usage:
//
//	type echoArgs struct {
//		Text string `json:"text"`
//	}
//
//	exec := toolexecutor.New()
//	_ = exec.RegisterTool(toolexecutor.ToolDefinition{
//		Name:        "echo",
//		Description: "Echo input",
//		Args:        echoArgs{},
//		Handler: func(ctx context.Context, params map[string]any) (any, error) {
//			return params["text"], nil
//		},
//	})
//	out, err := exec.Execute(ctx, "echo", map[string]any{"text": "hi"}, nil)
package toolexecutor
