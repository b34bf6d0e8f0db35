// Package tools defines the tool contract and the built-in domain tools.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// Tool is a named, schema-described callable the model may request to
// have executed, with results fed back into the conversation.
type Tool interface {
	// Name returns the unique tool name.
	Name() string

	// Description returns what the tool does, advertised to the model.
	Description() string

	// Parameters returns a pointer to the parameter struct. Its fields
	// drive schema generation and pre-dispatch validation.
	Parameters() any

	// Execute runs the tool with the given JSON arguments.
	Execute(ctx context.Context, params json.RawMessage) (string, error)
}

type funcTool[P any] struct {
	name        string
	description string
	fn          func(ctx context.Context, params P) (string, error)
}

// NewFunc wraps a plain function as a Tool. The parameter struct P
// supplies the advertised schema through its json, description and
// schema tags.
func NewFunc[P any](name, description string, fn func(ctx context.Context, params P) (string, error)) Tool {
	return &funcTool[P]{name: name, description: description, fn: fn}
}

func (t *funcTool[P]) Name() string        { return t.name }
func (t *funcTool[P]) Description() string { return t.description }
func (t *funcTool[P]) Parameters() any     { return new(P) }

func (t *funcTool[P]) Execute(ctx context.Context, params json.RawMessage) (string, error) {
	var p P
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return "", fmt.Errorf("parse parameters: %w", err)
		}
	}
	return t.fn(ctx, p)
}
