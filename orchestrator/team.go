// Copyright 2025 FinSight
// SPDX-License-Identifier: Apache-2.0

package orchestrator

import (
	"context"
	"fmt"
	"time"

	"finsight/platform/connectors/base"
	"finsight/platform/connectors/findata"
	"finsight/platform/connectors/websearch"
	"finsight/platform/orchestrator/llm/gemini"
	"finsight/platform/shared/logger"
)

// DefaultMaxTurns caps the tool-calling loop for a single task. Each turn is
// one model call; a typical analysis uses three to six.
const DefaultMaxTurns = 10

// Orchestrator produces an analysis for a task. The HTTP layer depends on
// this interface only, so tests can substitute the whole reasoning engine.
type Orchestrator interface {
	Invoke(ctx context.Context, task string) (string, error)
}

// ChatClient is the LLM surface the team runs on.
type ChatClient interface {
	Chat(ctx context.Context, req gemini.ChatRequest) (*gemini.ChatResponse, error)
}

// costEstimator is implemented by providers that can price token usage.
type costEstimator interface {
	EstimateCost(tokens int) float64
}

// toolBinding pairs a function declaration with its executor.
type toolBinding struct {
	decl gemini.FunctionDeclaration
	run  func(ctx context.Context, args map[string]any) string
}

// TeamRunner drives the analyst team. The hosted model does all reasoning
// and tool selection; the runner is mechanical transport. It composes the
// system prompt from the team configuration, declares the granted tools,
// executes the function calls the model returns, and loops until the model
// answers in plain text or the turn cap trips.
type TeamRunner struct {
	llm      ChatClient
	config   *TeamConfig
	bindings map[string]toolBinding
	decls    []gemini.FunctionDeclaration
	logger   *logger.Logger
	maxTurns int
	now      func() time.Time
}

// TeamRunnerConfig contains configuration for a TeamRunner.
type TeamRunnerConfig struct {
	LLM       ChatClient          // Required: chat client
	Team      *TeamConfig         // Required: team definition
	Financial *findata.Registry   // Financial data tools; nil disables them
	Search    *websearch.Client   // Web search tool; nil disables it
	Logger    *logger.Logger      // Optional: structured logger (default: component "team")
	MaxTurns  int                 // Optional: turn cap (default: DefaultMaxTurns)
	Now       func() time.Time    // Optional: clock override for tests
}

// NewTeamRunner creates a team runner and resolves the team's tool grants
// against the available connectors.
func NewTeamRunner(cfg TeamRunnerConfig) (*TeamRunner, error) {
	if cfg.LLM == nil {
		return nil, fmt.Errorf("team runner requires a chat client")
	}
	if cfg.Team == nil {
		return nil, fmt.Errorf("team runner requires a team config")
	}
	if err := cfg.Team.Validate(); err != nil {
		return nil, err
	}

	log := cfg.Logger
	if log == nil {
		log = logger.New("team")
	}

	maxTurns := cfg.MaxTurns
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	runner := &TeamRunner{
		llm:      cfg.LLM,
		config:   cfg.Team,
		bindings: make(map[string]toolBinding),
		logger:   log,
		maxTurns: maxTurns,
		now:      now,
	}

	for _, name := range cfg.Team.ToolNames() {
		binding, ok := resolveTool(name, cfg.Financial, cfg.Search)
		if !ok {
			log.Warn("", "Team config grants unknown tool, skipping", map[string]interface{}{
				"tool": name,
			})
			continue
		}
		runner.bindings[name] = binding
		runner.decls = append(runner.decls, binding.decl)
	}

	return runner, nil
}

// resolveTool binds a granted tool name to a connector.
func resolveTool(name string, financial *findata.Registry, search *websearch.Client) (toolBinding, bool) {
	if name == "web_search" && search != nil {
		return toolBinding{
			decl: gemini.FunctionDeclaration{
				Name:        "web_search",
				Description: "Search the web for recent news, articles and general information. Returns a list of results with sources.",
				Parameters: &gemini.Schema{
					Type: gemini.TypeObject,
					Properties: map[string]*gemini.Schema{
						"query":       {Type: gemini.TypeString, Description: "Search query."},
						"max_results": {Type: gemini.TypeInteger, Description: "Maximum number of results."},
					},
					Required: []string{"query"},
				},
			},
			run: func(ctx context.Context, args map[string]any) string {
				query := stringArg(args, "query")
				return search.Search(ctx, query, intArg(args, "max_results"))
			},
		}, true
	}

	if financial != nil {
		if def, ok := financial.Lookup(name); ok {
			return toolBinding{
				decl: declarationFor(def),
				run: func(ctx context.Context, args map[string]any) string {
					return financial.Call(ctx, def.Name, args)
				},
			}, true
		}
	}

	return toolBinding{}, false
}

// declarationFor converts a financial tool definition into the Gemini
// function declaration format.
func declarationFor(def findata.ToolDef) gemini.FunctionDeclaration {
	schema := &gemini.Schema{
		Type:       gemini.TypeObject,
		Properties: make(map[string]*gemini.Schema, len(def.Params)),
	}
	for _, p := range def.Params {
		schema.Properties[p.Name] = &gemini.Schema{
			Type:        schemaType(p.Type),
			Description: p.Description,
		}
		if p.Required {
			schema.Required = append(schema.Required, p.Name)
		}
	}
	return gemini.FunctionDeclaration{
		Name:        def.Name,
		Description: def.Description,
		Parameters:  schema,
	}
}

// schemaType maps connector parameter types onto Gemini schema types.
func schemaType(t string) string {
	switch t {
	case findata.TypeInteger:
		return gemini.TypeInteger
	case findata.TypeNumber:
		return gemini.TypeNumber
	default:
		return gemini.TypeString
	}
}

// Invoke runs the team on a task and returns the final analysis text.
func (t *TeamRunner) Invoke(ctx context.Context, task string) (string, error) {
	start := time.Now()
	systemPrompt := t.config.SystemPrompt(t.now())
	messages := []gemini.Message{{Role: gemini.RoleUser, Text: task}}

	for turn := 1; turn <= t.maxTurns; turn++ {
		resp, err := t.llm.Chat(ctx, gemini.ChatRequest{
			Messages:     messages,
			SystemPrompt: systemPrompt,
			Tools:        t.decls,
		})
		if err != nil {
			llmCallsTotal.WithLabelValues(modelLabel(resp), "error").Inc()
			return "", fmt.Errorf("llm call failed on turn %d: %w", turn, err)
		}
		llmCallsTotal.WithLabelValues(resp.Model, "success").Inc()

		fields := map[string]interface{}{
			"turn":          turn,
			"model":         resp.Model,
			"input_tokens":  resp.Usage.InputTokens,
			"output_tokens": resp.Usage.OutputTokens,
			"stop_reason":   resp.StopReason,
		}
		if estimator, ok := t.llm.(costEstimator); ok {
			fields["estimated_cost_usd"] = estimator.EstimateCost(resp.Usage.TotalTokens)
		}
		t.logger.Debug("", "LLM turn complete", fields)

		if len(resp.FunctionCalls) == 0 {
			t.logger.InfoWithDuration("", "Team analysis complete", float64(time.Since(start).Milliseconds()), map[string]interface{}{
				"turns": turn,
			})
			return resp.Text, nil
		}

		messages = append(messages, gemini.Message{
			Role:          gemini.RoleModel,
			Text:          resp.Text,
			FunctionCalls: resp.FunctionCalls,
		})

		results := make([]gemini.FunctionResponse, 0, len(resp.FunctionCalls))
		for _, call := range resp.FunctionCalls {
			output := t.execute(ctx, call)
			results = append(results, gemini.FunctionResponse{
				Name:     call.Name,
				Response: map[string]any{"content": output},
			})
		}
		// Function results ride a user-role turn, per the Gemini API.
		messages = append(messages, gemini.Message{
			Role:              gemini.RoleUser,
			FunctionResponses: results,
		})
	}

	return "", fmt.Errorf("team did not produce a final answer within %d turns", t.maxTurns)
}

// execute runs one tool call and classifies the outcome for metrics.
func (t *TeamRunner) execute(ctx context.Context, call gemini.FunctionCall) string {
	binding, ok := t.bindings[call.Name]
	if !ok {
		toolCallsTotal.WithLabelValues(call.Name, "error").Inc()
		t.logger.Warn("", "Model requested undeclared tool", map[string]interface{}{
			"tool": call.Name,
		})
		return base.ErrorPayload{
			Kind:    base.KindRequestFailed,
			Message: "unknown tool: " + call.Name,
		}.JSON()
	}

	toolStart := time.Now()
	output := binding.run(ctx, call.Args)

	status := "success"
	if _, failed := base.IsErrorPayload(output); failed {
		status = "error"
	}
	toolCallsTotal.WithLabelValues(call.Name, status).Inc()

	t.logger.InfoWithDuration("", "Tool call complete", float64(time.Since(toolStart).Milliseconds()), map[string]interface{}{
		"tool":   call.Name,
		"status": status,
	})

	return output
}

// modelLabel is a nil-safe accessor used on error paths where the response
// may be absent.
func modelLabel(r *gemini.ChatResponse) string {
	if r == nil {
		return "unknown"
	}
	return r.Model
}

// stringArg extracts a string argument, tolerating generic JSON decoding.
func stringArg(args map[string]any, key string) string {
	if v, ok := args[key]; ok {
		return fmt.Sprintf("%v", v)
	}
	return ""
}

// intArg extracts an integer argument. JSON numbers decode as float64.
func intArg(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}
