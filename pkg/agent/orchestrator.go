package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/harun/mcpgate/internal/tracing"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Stage is a pipeline state. Stages only move forward; StageFailed is
// reachable from any of them.
type Stage string

const (
	StageStart       Stage = "start"
	StagePrompting   Stage = "prompting"
	StageModelCalled Stage = "model_called"
	StageAssembled   Stage = "assembled"
	StageParsed      Stage = "parsed"
	StageDispatched  Stage = "dispatched"
	StageDone        Stage = "done"
	StageFailed      Stage = "failed"
)

// Recorder receives pipeline measurements. internal/metrics implements it.
type Recorder interface {
	ObserveModelCall(provider string, d time.Duration, err error)
	RecordStreamLines(valid, invalid int)
	ObserveDispatch(tool string, d time.Duration, err error)
	ObserveRequest(kind string, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveModelCall(string, time.Duration, error) {}
func (nopRecorder) RecordStreamLines(int, int)                    {}
func (nopRecorder) ObserveDispatch(string, time.Duration, error)  {}
func (nopRecorder) ObserveRequest(string, time.Duration)          {}

// OrchestratorConfig holds the collaborators of an Orchestrator.
type OrchestratorConfig struct {
	SystemPrompt string
	Model        ModelClient
	Registry     *Registry
	Dispatcher   Dispatcher
	Logger       zerolog.Logger
	Recorder     Recorder
}

// Orchestrator runs the dispatch pipeline for one query at a time per call.
// It holds no per-request state and may be shared across goroutines.
type Orchestrator struct {
	systemPrompt string
	model        ModelClient
	registry     *Registry
	dispatcher   Dispatcher
	logger       zerolog.Logger
	recorder     Recorder
}

// NewOrchestrator validates cfg and creates an Orchestrator.
func NewOrchestrator(cfg OrchestratorConfig) (*Orchestrator, error) {
	if cfg.Model == nil {
		return nil, fmt.Errorf("model client is required")
	}
	if cfg.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if cfg.Registry == nil {
		cfg.Registry = NewRegistry(DefaultEntries())
	}
	if cfg.Recorder == nil {
		cfg.Recorder = nopRecorder{}
	}

	return &Orchestrator{
		systemPrompt: cfg.SystemPrompt,
		model:        cfg.Model,
		registry:     cfg.Registry,
		dispatcher:   cfg.Dispatcher,
		logger:       cfg.Logger.With().Str("component", "agent").Logger(),
		recorder:     cfg.Recorder,
	}, nil
}

// Run processes one query: one model call, one tool dispatch. The tool's JSON
// result is returned unmodified. Every error is an *Error.
func (o *Orchestrator) Run(ctx context.Context, query string) (result json.RawMessage, err error) {
	startTime := time.Now()
	ctx, span := tracing.StartStage(ctx, "run",
		attribute.String("model.provider", o.model.Provider()),
	)
	defer span.End()

	logger := tracing.LoggerFromContext(ctx, o.logger)
	stage := StageStart

	defer func() {
		if r := recover(); r != nil {
			logger.Error().
				Interface("panic", r).
				Str("stage", string(stage)).
				Str("stack", string(debug.Stack())).
				Msg("Panic in agent pipeline")
			result = nil
			err = internalError(fmt.Sprintf("panic during %s", stage))
		}

		kind := "success"
		if err != nil {
			var ae *Error
			if !errors.As(err, &ae) {
				logger.Error().Err(err).Str("stage", string(stage)).Msg("Unclassified pipeline error")
				err = internalError(err.Error())
			}
			kind = string(KindOf(err))
			tracing.FailStage(span, err, kind)
			logger.Warn().
				Err(err).
				Str("stage", string(stage)).
				Str("error_type", kind).
				Dur("duration", time.Since(startTime)).
				Msg("Agent request failed")
		} else {
			span.SetStatus(codes.Ok, "")
			logger.Info().
				Dur("duration", time.Since(startTime)).
				Msg("Agent request completed")
		}
		o.recorder.ObserveRequest(kind, time.Since(startTime))
	}()

	stage = StagePrompting
	prompt := NewPrompt(o.systemPrompt, query)
	logger.Debug().Str("stage", string(stage)).Int("query_length", len(query)).Msg("Prompt built")

	raw, err := o.callModel(ctx, prompt)
	if err != nil {
		return nil, err
	}
	stage = StageModelCalled
	logger.Debug().Str("stage", string(stage)).Int("bytes", len(raw)).Msg("Model call completed")

	asm, err := Assemble(raw)
	o.recorder.RecordStreamLines(asm.ValidLines, asm.InvalidLines)
	logger.Debug().
		Int("valid_lines", asm.ValidLines).
		Int("invalid_lines", asm.InvalidLines).
		Msg("Stream assembled")
	if err != nil {
		return nil, err
	}
	stage = StageAssembled

	instr, err := ParseInstruction(asm.Text)
	if err != nil {
		logger.Debug().Str("assembled", asm.Text).Msg("Model output is not a valid instruction")
		return nil, err
	}
	stage = StageParsed
	logger.Debug().Str("stage", string(stage)).Str("tool", instr.Tool).Msg("Instruction parsed")

	result, err = o.dispatch(ctx, instr)
	if err != nil {
		return nil, err
	}
	stage = StageDispatched
	logger.Debug().Str("stage", string(stage)).Str("tool", instr.Tool).Msg("Tool dispatched")

	stage = StageDone
	return result, nil
}

func (o *Orchestrator) callModel(ctx context.Context, prompt Prompt) ([]byte, error) {
	ctx, span := tracing.StartStage(ctx, "model_call",
		attribute.String("model.provider", o.model.Provider()),
	)
	defer span.End()

	startTime := time.Now()
	raw, err := o.model.Chat(ctx, prompt)
	o.recorder.ObserveModelCall(o.model.Provider(), time.Since(startTime), err)
	if err != nil {
		tracing.FailStage(span, err, err.Error())
		return nil, classifyModelError(err)
	}
	return raw, nil
}

func (o *Orchestrator) dispatch(ctx context.Context, instr Instruction) (json.RawMessage, error) {
	path := o.registry.Resolve(instr.Tool)
	ctx, span := tracing.StartStage(ctx, "dispatch",
		attribute.String("tool.name", instr.Tool),
		attribute.String("tool.path", path),
	)
	defer span.End()

	startTime := time.Now()
	result, err := o.dispatcher.Dispatch(ctx, instr.Tool, path, instr.Args)
	o.recorder.ObserveDispatch(instr.Tool, time.Since(startTime), err)
	if err != nil {
		tracing.FailStage(span, err, err.Error())
		var ae *Error
		if errors.As(err, &ae) && ae.Kind == KindDispatch {
			return nil, ae
		}
		return nil, &Error{
			Kind:    KindDispatch,
			Message: ErrToolInvocation.Error(),
			Details: err.Error(),
			Tool:    instr.Tool,
			Path:    path,
			Err:     fmt.Errorf("%w: %w", ErrToolInvocation, err),
		}
	}
	return result, nil
}

func classifyModelError(err error) *Error {
	var statusErr *ModelStatusError
	switch {
	case errors.As(err, &statusErr):
		e := connectionError("model endpoint returned an error status", err)
		e.StatusCode = statusErr.StatusCode
		return e
	case errors.Is(err, context.DeadlineExceeded):
		return connectionError("timeout connecting to model endpoint", err)
	case errors.Is(err, context.Canceled):
		return connectionError("model call cancelled", err)
	default:
		return connectionError("failed to connect to model endpoint", err)
	}
}
