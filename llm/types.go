package llm

import (
	"encoding/json"
	"time"
)

// Role identifies who produced a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry in a session history. Histories are replayed to the
// backend verbatim, so Content stays present even when empty: providers
// expect an assistant turn that only carried tool calls to appear in the
// transcript on the next round.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	Name       string     `json:"name,omitempty"`         // tool messages
	ToolCallID string     `json:"tool_call_id,omitempty"` // tool messages, when the provider correlates
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`   // assistant messages
}

// ToolCall is a backend request to execute one tool. ID is an opaque
// correlation token; adapters synthesize one for providers that do not
// issue ids of their own.
type ToolCall struct {
	ID       string       `json:"id,omitempty"`
	Type     string       `json:"type,omitempty"`
	Function FunctionCall `json:"function"`
}

// FunctionCall carries the tool name and its raw JSON arguments. Arguments
// are always a canonical JSON object after adapter normalization, but they
// remain backend-controlled data and are validated again before dispatch.
type FunctionCall struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ChatRequest is the neutral request submitted to a backend adapter.
type ChatRequest struct {
	Model    string           `json:"model"`
	Messages []Message        `json:"messages"`
	Stream   bool             `json:"stream"`
	Tools    []map[string]any `json:"tools,omitempty"`
}

// Reply is the adapter-neutral result of one backend round. Message holds
// the raw assistant message exactly as it must be appended to the history.
type Reply struct {
	Content   string
	ToolCalls []ToolCall
	Message   Message
}

// ClientOptions configures a backend adapter.
type ClientOptions struct {
	APIKey       string
	BaseURL      string
	Timeout      time.Duration
	DefaultModel string
	Headers      map[string]string
}

// ClientOption is a functional option for configuring adapters.
type ClientOption func(*ClientOptions)

// WithAPIKey sets the bearer credential for providers that require one.
func WithAPIKey(key string) ClientOption {
	return func(o *ClientOptions) {
		o.APIKey = key
	}
}

// WithBaseURL overrides the provider base URL.
func WithBaseURL(url string) ClientOption {
	return func(o *ClientOptions) {
		o.BaseURL = url
	}
}

// WithTimeout bounds each backend call. Defaults are long because LLM
// inference latency is high and unpredictable.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(o *ClientOptions) {
		o.Timeout = timeout
	}
}

// WithModel sets the model used when a request does not name one.
func WithModel(model string) ClientOption {
	return func(o *ClientOptions) {
		o.DefaultModel = model
	}
}

// WithHeaders adds extra HTTP headers to every request.
func WithHeaders(headers map[string]string) ClientOption {
	return func(o *ClientOptions) {
		if o.Headers == nil {
			o.Headers = make(map[string]string)
		}
		for k, v := range headers {
			o.Headers[k] = v
		}
	}
}
