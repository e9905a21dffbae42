package toolexecutor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xeipuuv/gojsonschema"
)

var (
	// ErrToolNotFound is returned by Execute for an unregistered name.
	ErrToolNotFound = errors.New("tool not found")
	// ErrTimeout is returned when a handler outlives its execution timeout.
	ErrTimeout = errors.New("tool execution timeout")
)

// DefaultTimeout bounds a handler when the execution context sets none.
const DefaultTimeout = 30 * time.Second

// ToolHandler is the function signature for tool execution
type ToolHandler func(ctx context.Context, params map[string]any) (any, error)

// ToolDefinition defines a tool's metadata and handler
type ToolDefinition struct {
	Name        string `json:"name"`
	Description string `json:"description"`

	// Args is a value of the tool's argument struct. Its JSON schema is
	// reflected at registration and enforced before every execution.
	Args any `json:"-"`

	// FieldErrors replaces schema messages for a failing argument,
	// e.g. "post_id" -> "post_id must be a positive integer".
	FieldErrors map[string]string `json:"-"`

	Handler ToolHandler `json:"-"`
}

// Observer is notified after every execution.
type Observer interface {
	ObserveToolExecution(tool string, err error)
}

// ToolExecutor manages and executes tools
type ToolExecutor struct {
	tools    map[string]*ToolDefinition
	schemas  map[string]*gojsonschema.Schema
	observer Observer
	mu       sync.RWMutex
}

// New creates a new ToolExecutor
func New() *ToolExecutor {
	return &ToolExecutor{
		tools:   make(map[string]*ToolDefinition),
		schemas: make(map[string]*gojsonschema.Schema),
	}
}

// SetObserver installs an execution observer. Passing nil removes it.
func (te *ToolExecutor) SetObserver(o Observer) {
	te.mu.Lock()
	defer te.mu.Unlock()
	te.observer = o
}

// RegisterTool validates def, compiles its argument schema and registers it.
// Registering a name twice is an error.
func (te *ToolExecutor) RegisterTool(def ToolDefinition) error {
	if err := validateToolDefinition(def); err != nil {
		return fmt.Errorf("invalid tool definition: %w", err)
	}

	var schema *gojsonschema.Schema
	if def.Args != nil {
		var err error
		schema, err = compileSchema(def.Args)
		if err != nil {
			return fmt.Errorf("failed to generate schema for %s: %w", def.Name, err)
		}
	}

	te.mu.Lock()
	defer te.mu.Unlock()

	if _, exists := te.tools[def.Name]; exists {
		return fmt.Errorf("tool %s is already registered", def.Name)
	}
	te.tools[def.Name] = &def
	te.schemas[def.Name] = schema

	log.Debug().Str("tool", def.Name).Msg("Tool registered")

	return nil
}

// GetTool returns a tool definition by name
func (te *ToolExecutor) GetTool(name string) *ToolDefinition {
	te.mu.RLock()
	defer te.mu.RUnlock()

	return te.tools[name]
}

// ListTools returns the registered tool names in sorted order
func (te *ToolExecutor) ListTools() []string {
	te.mu.RLock()
	defer te.mu.RUnlock()

	tools := make([]string, 0, len(te.tools))
	for name := range te.tools {
		tools = append(tools, name)
	}
	sort.Strings(tools)

	return tools
}

// Execute validates params against the tool's schema and runs its handler
// under the execution timeout. Errors are ErrToolNotFound, *ValidationError,
// ErrTimeout (wrapped) or whatever the handler returned.
func (te *ToolExecutor) Execute(ctx context.Context, toolName string, params map[string]any, execCtx *ExecutionContext) (result any, err error) {
	startTime := time.Now()

	te.mu.RLock()
	tool := te.tools[toolName]
	schema := te.schemas[toolName]
	observer := te.observer
	te.mu.RUnlock()

	logger := log.Ctx(ctx).With().Str("tool", toolName).Logger()

	if tool == nil {
		logger.Warn().Msg("Tool not found")
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, toolName)
	}

	defer func() {
		if observer != nil {
			observer.ObserveToolExecution(toolName, err)
		}
	}()

	if params == nil {
		params = map[string]any{}
	}
	if err := validateParameters(tool, schema, params); err != nil {
		logger.Debug().Err(err).Msg("Parameter validation failed")
		return nil, err
	}

	timeout := DefaultTimeout
	if execCtx != nil && execCtx.Timeout > 0 {
		timeout = execCtx.Timeout
	}

	timeoutCtx, cancel := context.WithTimeout(ContextWithExecContext(ctx, execCtx), timeout)
	defer cancel()

	type outcome struct {
		result any
		err    error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("tool %s panicked: %v", toolName, r)}
			}
		}()
		res, err := tool.Handler(timeoutCtx, params)
		done <- outcome{result: res, err: err}
	}()

	select {
	case out := <-done:
		duration := time.Since(startTime)
		if out.err != nil {
			logger.Warn().Dur("duration", duration).Err(out.err).Msg("Tool execution failed")
			if errors.Is(out.err, context.DeadlineExceeded) && ctx.Err() == nil && timeoutCtx.Err() != nil {
				return nil, fmt.Errorf("%w after %v: %w", ErrTimeout, timeout, out.err)
			}
			return nil, out.err
		}
		logger.Debug().Dur("duration", duration).Msg("Tool execution completed")
		return out.result, nil

	case <-timeoutCtx.Done():
		logger.Warn().Dur("duration", time.Since(startTime)).Msg("Tool execution timeout")
		if errors.Is(timeoutCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %v", ErrTimeout, timeout)
		}
		return nil, timeoutCtx.Err()
	}
}

func validateToolDefinition(def ToolDefinition) error {
	if def.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if def.Description == "" {
		return fmt.Errorf("tool description cannot be empty")
	}
	if def.Handler == nil {
		return fmt.Errorf("tool handler cannot be nil")
	}
	return nil
}
