// Package engine drives the tool-augmented conversation loop: it owns
// per-session histories, the bounded request/execute/append cycle against
// the backend, and the translation of backend failures into user-facing
// text.
package engine

import (
	"context"
	"io"
	"log/slog"
	"math"

	"github.com/mpujadas/gridchat/llm"
	"github.com/mpujadas/gridchat/session"
	"github.com/mpujadas/gridchat/tools"
	"github.com/mpujadas/gridchat/tools/registry"
)

// DefaultMaxToolRounds bounds how many backend rounds one turn may take.
// It is a policy constant: it prevents unbounded cost and latency when a
// model keeps requesting tools without converging.
const DefaultMaxToolRounds = 5

// LimitNotice is returned when a turn exhausts its round bound. It is a
// normal result, not an error: the model simply never stopped asking for
// tools.
const LimitNotice = "I could not finish answering: the tool iteration limit was reached. Please try rephrasing your request."

// DefaultSystemPrompt seeds new sessions. It frames the assistant for
// the energy self-consumption domain and tells the model how to use the
// built-in tools.
const DefaultSystemPrompt = `You are an expert assistant for an energy self-consumption platform. ` +
	`You help users understand and configure their solar generation, battery storage and device optimization. ` +
	`Answer in a friendly, clear and professional tone, and explain concepts simply when the user is unfamiliar with them.

When the user asks for an optimization configuration recommendation:
1. Use the get_available_device_types tool to see which device types exist and which parameters each one needs.
2. Optionally use get_optimization_configs to inspect the user's current configurations.
3. Based on the user's situation, recommend a device type and concrete values for each parameter.
4. Always explain the reasoning behind every choice and how it will affect the optimization.
5. If you lack the information for a precise recommendation, ask the user for the missing data.`

// Engine orchestrates turns. Construct one with New, register tools
// before serving traffic, then call HandleTurn once per user message.
// Turns against the same session id serialize; distinct ids run
// concurrently.
type Engine struct {
	client       llm.Client
	sessions     *session.Store
	registry     *registry.Registry
	logger       *slog.Logger
	model        string
	systemPrompt string
	maxRounds    int
}

// Option configures an Engine.
type Option func(*Engine)

// WithSessionStore injects a session store with a custom lifecycle
// policy.
func WithSessionStore(s *session.Store) Option {
	return func(e *Engine) { e.sessions = s }
}

// WithRegistry injects a pre-populated tool registry.
func WithRegistry(r *registry.Registry) Option {
	return func(e *Engine) { e.registry = r }
}

// WithLogger injects the structured logger used for turn diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithModel sets the model identifier submitted to the backend.
func WithModel(model string) Option {
	return func(e *Engine) { e.model = model }
}

// WithSystemPrompt overrides the prompt seeded into new sessions.
func WithSystemPrompt(prompt string) Option {
	return func(e *Engine) { e.systemPrompt = prompt }
}

// WithMaxToolRounds overrides the per-turn round bound.
func WithMaxToolRounds(n int) Option {
	return func(e *Engine) { e.maxRounds = n }
}

// New creates an engine around a backend client.
func New(client llm.Client, opts ...Option) *Engine {
	e := &Engine{
		client:       client,
		logger:       slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)})),
		systemPrompt: DefaultSystemPrompt,
		maxRounds:    DefaultMaxToolRounds,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.sessions == nil {
		e.sessions = session.NewStore()
	}
	if e.registry == nil {
		e.registry = registry.New()
	}
	return e
}

// RegisterTool adds a tool to the advertisement. Registration must
// complete before traffic begins; a duplicate name is a configuration
// error.
func (e *Engine) RegisterTool(t tools.Tool) error {
	return e.registry.Register(t)
}

// ToolNames returns the registered tool names in advertisement order.
func (e *Engine) ToolNames() []string {
	return e.registry.Names()
}

// HandleTurn processes one user message and returns the reply text.
//
// Backend failures never surface as Go errors: they are classified into
// a short user-facing message that becomes the turn's result, with the
// underlying cause logged. Tool failures are fed back to the model as
// data. The only panics out of this method are programmer errors.
func (e *Engine) HandleTurn(ctx context.Context, sessionID, userText string) string {
	sess := e.sessions.Acquire(sessionID)
	defer sess.Release()

	sess.Seed(e.systemPrompt)
	sess.Append(llm.Message{Role: llm.RoleUser, Content: userText})

	for round := 0; round < e.maxRounds; round++ {
		req := &llm.ChatRequest{
			Model:    e.model,
			Messages: sess.History(),
			Tools:    e.registry.Specs(),
		}

		e.logger.Debug("submitting round",
			"session", sessionID,
			"round", round+1,
			"messages", len(req.Messages),
			"tools", len(req.Tools),
		)

		reply, err := e.client.Chat(ctx, req)
		if err != nil {
			return e.describeBackendError(sessionID, err)
		}

		// The raw assistant message is recorded even when its content is
		// empty: providers expect a tools-only turn to be present in the
		// replayed history on the next round.
		sess.Append(reply.Message)

		if len(reply.ToolCalls) == 0 {
			e.logger.Info("turn complete", "session", sessionID, "rounds", round+1)
			return reply.Content
		}

		for _, call := range reply.ToolCalls {
			res := e.registry.Dispatch(ctx, call)
			if res.Err != nil {
				e.logger.Warn("tool call failed",
					"session", sessionID,
					"tool", res.Name,
					"error", res.Err,
				)
			} else {
				e.logger.Info("tool call executed", "session", sessionID, "tool", res.Name)
			}
			sess.Append(llm.Message{
				Role:       llm.RoleTool,
				Content:    res.Content,
				Name:       res.Name,
				ToolCallID: res.ID,
			})
		}
	}

	e.logger.Warn("tool round limit exhausted", "session", sessionID, "rounds", e.maxRounds)
	return LimitNotice
}

// ClearSession resets a session to its seeded system message and reports
// whether the session existed.
func (e *Engine) ClearSession(sessionID string) bool {
	return e.sessions.Clear(sessionID)
}

// VisibleHistory returns the session's user and assistant messages with
// non-empty content, for external display.
func (e *Engine) VisibleHistory(sessionID string) []llm.Message {
	return e.sessions.Visible(sessionID)
}
