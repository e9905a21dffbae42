// Package agent turns one natural-language query into one tool dispatch.
//
// Invariants:
// - Stages run strictly in order: prompt, model call, assembly, parse, dispatch.
// - Every external call (model, tool) is attempted exactly once per request.
// - Every failure surfaces as an *Error carrying one Kind: connection, response,
//   dispatch or internal.
// - Orchestrator, Registry and HTTPDispatcher are immutable after construction and
//   safe for concurrent use.
//
// Usage:
//
//	orch, _ := agent.NewOrchestrator(agent.OrchestratorConfig{
//		SystemPrompt: cfg.SystemPrompt(),
//		Model:        agent.NewOllamaClient(cfg.LLM.BaseURL, cfg.LLM.Model, cfg.LLM.TimeoutDuration()),
//		Registry:     agent.NewRegistry(cfg.ToolPaths()),
//		Dispatcher:   agent.NewHTTPDispatcher(cfg.Server.LocalBase+"/tools", cfg.Tools.TimeoutDuration()),
//		Logger:       logger,
//	})
//	result, err := orch.Run(ctx, "get me post number two")
package agent
