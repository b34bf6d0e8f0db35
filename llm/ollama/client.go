// Package ollama implements the backend adapter for Ollama's /api/chat
// endpoint. Ollama nests the assistant message at the top level of the
// reply and encodes tool-call arguments as a structured object.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mpujadas/gridchat/llm"
)

const (
	defaultBaseURL = "http://localhost:11434"
	defaultTimeout = 120 * time.Second // local models load and infer slowly
	defaultModel   = "llama3.1:latest"
)

// Client talks to an Ollama server. Ollama requires no authentication.
type Client struct {
	options    llm.ClientOptions
	httpClient *http.Client
}

type wireFunction struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type wireToolCall struct {
	Function wireFunction `json:"function"`
}

type wireMessage struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Name      string         `json:"name,omitempty"`
	ToolCalls []wireToolCall `json:"tool_calls,omitempty"`
}

type wireRequest struct {
	Model    string           `json:"model"`
	Messages []wireMessage    `json:"messages"`
	Stream   bool             `json:"stream"`
	Tools    []map[string]any `json:"tools,omitempty"`
}

type wireResponse struct {
	Model   string       `json:"model"`
	Message *wireMessage `json:"message"`
	Done    bool         `json:"done"`
}

// NewClient creates an Ollama adapter.
func NewClient(opts ...llm.ClientOption) *Client {
	options := llm.ClientOptions{
		BaseURL:      defaultBaseURL,
		Timeout:      defaultTimeout,
		DefaultModel: defaultModel,
		Headers:      make(map[string]string),
	}
	for _, opt := range opts {
		opt(&options)
	}

	return &Client{
		options:    options,
		httpClient: &http.Client{Timeout: options.Timeout},
	}
}

// Chat submits the history and tool advertisement and decodes the reply.
func (c *Client) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.Reply, error) {
	body, err := json.Marshal(c.convertRequest(req))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.options.BaseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range c.options.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, llm.WrapTransport(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, llm.WrapTransport(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &llm.HTTPError{Status: resp.StatusCode, Body: string(respBody)}
	}

	var wire wireResponse
	if err := json.Unmarshal(respBody, &wire); err != nil {
		return nil, &llm.ProtocolError{Reason: "invalid JSON", Err: err}
	}
	if wire.Message == nil {
		return nil, &llm.ProtocolError{Reason: "missing message object"}
	}

	return c.convertReply(wire.Message), nil
}

func (c *Client) convertRequest(req *llm.ChatRequest) *wireRequest {
	out := &wireRequest{
		Model:  req.Model,
		Stream: false,
		Tools:  req.Tools,
	}
	if out.Model == "" {
		out.Model = c.options.DefaultModel
	}

	for _, msg := range req.Messages {
		wm := wireMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
			Name:    msg.Name,
		}
		for _, tc := range msg.ToolCalls {
			var args map[string]any
			if err := json.Unmarshal(llm.CanonicalArguments(tc.Function.Arguments), &args); err != nil {
				args = map[string]any{}
			}
			wm.ToolCalls = append(wm.ToolCalls, wireToolCall{
				Function: wireFunction{Name: tc.Function.Name, Arguments: args},
			})
		}
		out.Messages = append(out.Messages, wm)
	}

	return out
}

func (c *Client) convertReply(msg *wireMessage) *llm.Reply {
	assistant := llm.Message{
		Role:    llm.RoleAssistant,
		Content: msg.Content,
	}

	for i, tc := range msg.ToolCalls {
		raw, err := json.Marshal(tc.Function.Arguments)
		if err != nil {
			raw = []byte("{}")
		}
		assistant.ToolCalls = append(assistant.ToolCalls, llm.ToolCall{
			// Ollama issues no correlation ids; synthesize one so the
			// loop can pair results with calls uniformly.
			ID:   fmt.Sprintf("call_%d_%d", time.Now().UnixNano(), i),
			Type: "function",
			Function: llm.FunctionCall{
				Name:      tc.Function.Name,
				Arguments: llm.CanonicalArguments(raw),
			},
		})
	}

	return &llm.Reply{
		Content:   msg.Content,
		ToolCalls: assistant.ToolCalls,
		Message:   assistant,
	}
}
