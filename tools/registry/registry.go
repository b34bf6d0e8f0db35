// Package registry maps tool names to implementations and builds the
// advertisement sent to the backend.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/mpujadas/gridchat/internal/schema"
	"github.com/mpujadas/gridchat/internal/validator"
	"github.com/mpujadas/gridchat/llm"
	"github.com/mpujadas/gridchat/tools"
)

// ErrDuplicate is returned when a tool name is registered twice.
// Registration rejects duplicates rather than silently overwriting.
var ErrDuplicate = errors.New("tool already registered")

// ErrNotFound is returned when dispatch names an unregistered tool.
var ErrNotFound = errors.New("tool not found")

// Registry owns the name-to-tool mapping. It is read-heavy: registration
// happens at startup, before traffic, and dispatch afterwards.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]tools.Tool
	order []string
}

// Result is the outcome of dispatching one tool call. Content always
// holds the text to feed back to the model; on failure it carries an
// error string and Err records the cause for logging.
type Result struct {
	ID      string
	Name    string
	Content string
	Err     error
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{tools: make(map[string]tools.Tool)}
}

// Register adds a tool. Duplicate names fail with ErrDuplicate.
func (r *Registry) Register(t tools.Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := t.Name()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("%q: %w", name, ErrDuplicate)
	}
	r.tools[name] = t
	r.order = append(r.order, name)
	return nil
}

// Names returns the registered tool names in insertion order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Specs returns the tool advertisements in insertion order. Order is
// stable across calls because some backends are sensitive to
// prompt-adjacent ordering.
func (r *Registry) Specs() []map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.order) == 0 {
		return nil
	}
	specs := make([]map[string]any, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		specs = append(specs, schema.Function(t.Name(), t.Description(), t.Parameters()))
	}
	return specs
}

// Dispatch looks up and executes one backend-issued tool call. Failures
// of any kind (unknown tool, bad arguments, tool error, tool panic) are
// local and recoverable: they come back as an error string in
// Result.Content so the model can adapt, never as a Go error that would
// abort the round.
func (r *Registry) Dispatch(ctx context.Context, call llm.ToolCall) Result {
	res := Result{ID: call.ID, Name: call.Function.Name}

	r.mu.RLock()
	t, ok := r.tools[call.Function.Name]
	r.mu.RUnlock()
	if !ok {
		res.Err = fmt.Errorf("%q: %w", call.Function.Name, ErrNotFound)
		res.Content = fmt.Sprintf("Error: tool %q is not registered", call.Function.Name)
		return res
	}

	args := llm.CanonicalArguments(call.Function.Arguments)

	params := t.Parameters()
	if err := json.Unmarshal(args, params); err != nil {
		res.Err = fmt.Errorf("parse arguments: %w", err)
		res.Content = fmt.Sprintf("Error: invalid arguments: %v", err)
		return res
	}
	if err := validator.Validate(params); err != nil {
		res.Err = fmt.Errorf("validate arguments: %w", err)
		res.Content = fmt.Sprintf("Error: invalid arguments: %v", err)
		return res
	}

	out, err := execute(ctx, t, args)
	if err != nil {
		res.Err = err
		res.Content = fmt.Sprintf("Error: %v", err)
		return res
	}
	res.Content = out
	return res
}

// execute isolates tool panics so a misbehaving callable cannot take the
// turn down with it.
func execute(ctx context.Context, t tools.Tool, args json.RawMessage) (out string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("tool panic: %v", rec)
		}
	}()
	return t.Execute(ctx, args)
}
