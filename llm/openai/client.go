// Package openai implements the backend adapter for OpenAI-compatible
// /chat/completions endpoints. The assistant message is nested under
// choices[0].message and tool-call arguments travel as a JSON-encoded
// string. Pointing BaseURL at another host serves any provider that
// speaks the same protocol.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mpujadas/gridchat/llm"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultTimeout = 60 * time.Second
	defaultModel   = "gpt-4o-mini"
)

// Client talks to an OpenAI-compatible server using bearer auth.
type Client struct {
	options    llm.ClientOptions
	httpClient *http.Client
}

// Outgoing wire types: arguments are string-encoded.

type outFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type outToolCall struct {
	ID       string      `json:"id"`
	Type     string      `json:"type"`
	Function outFunction `json:"function"`
}

type outMessage struct {
	Role       string        `json:"role"`
	Content    string        `json:"content"`
	Name       string        `json:"name,omitempty"`
	ToolCallID string        `json:"tool_call_id,omitempty"`
	ToolCalls  []outToolCall `json:"tool_calls,omitempty"`
}

type outRequest struct {
	Model    string           `json:"model"`
	Messages []outMessage     `json:"messages"`
	Stream   bool             `json:"stream"`
	Tools    []map[string]any `json:"tools,omitempty"`
}

// Incoming wire types: arguments are decoded leniently, since some
// compatible hosts send a structured object instead of a string.

type inFunction struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type inToolCall struct {
	ID       string     `json:"id"`
	Type     string     `json:"type"`
	Function inFunction `json:"function"`
}

type inMessage struct {
	Role      string       `json:"role"`
	Content   string       `json:"content"`
	ToolCalls []inToolCall `json:"tool_calls"`
}

type inResponse struct {
	Choices []struct {
		Message      inMessage `json:"message"`
		FinishReason string    `json:"finish_reason"`
	} `json:"choices"`
}

// NewClient creates an OpenAI adapter. A missing API key is a
// configuration error and fails fast.
func NewClient(opts ...llm.ClientOption) (*Client, error) {
	options := llm.ClientOptions{
		BaseURL:      defaultBaseURL,
		Timeout:      defaultTimeout,
		DefaultModel: defaultModel,
		Headers:      make(map[string]string),
	}
	for _, opt := range opts {
		opt(&options)
	}

	if options.APIKey == "" {
		return nil, errors.New("openai: API key is required")
	}

	return &Client{
		options:    options,
		httpClient: &http.Client{Timeout: options.Timeout},
	}, nil
}

// Chat submits the history and tool advertisement and decodes the reply.
func (c *Client) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.Reply, error) {
	body, err := json.Marshal(c.convertRequest(req))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.options.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.options.APIKey)
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

	var wire inResponse
	if err := json.Unmarshal(respBody, &wire); err != nil {
		return nil, &llm.ProtocolError{Reason: "invalid JSON", Err: err}
	}
	if len(wire.Choices) == 0 {
		return nil, &llm.ProtocolError{Reason: "no choices in reply"}
	}

	return convertReply(&wire.Choices[0].Message), nil
}

func (c *Client) convertRequest(req *llm.ChatRequest) *outRequest {
	out := &outRequest{
		Model:  req.Model,
		Stream: false,
		Tools:  req.Tools,
	}
	if out.Model == "" {
		out.Model = c.options.DefaultModel
	}

	for _, msg := range req.Messages {
		om := outMessage{
			Role:       string(msg.Role),
			Content:    msg.Content,
			Name:       msg.Name,
			ToolCallID: msg.ToolCallID,
		}
		for _, tc := range msg.ToolCalls {
			om.ToolCalls = append(om.ToolCalls, outToolCall{
				ID:   tc.ID,
				Type: "function",
				Function: outFunction{
					Name:      tc.Function.Name,
					Arguments: string(llm.CanonicalArguments(tc.Function.Arguments)),
				},
			})
		}
		out.Messages = append(out.Messages, om)
	}

	return out
}

func convertReply(msg *inMessage) *llm.Reply {
	assistant := llm.Message{
		Role:    llm.RoleAssistant,
		Content: msg.Content,
	}

	for i, tc := range msg.ToolCalls {
		id := tc.ID
		if id == "" {
			id = fmt.Sprintf("call_%d_%d", time.Now().UnixNano(), i)
		}
		assistant.ToolCalls = append(assistant.ToolCalls, llm.ToolCall{
			ID:   id,
			Type: "function",
			Function: llm.FunctionCall{
				Name:      tc.Function.Name,
				Arguments: llm.CanonicalArguments(tc.Function.Arguments),
			},
		})
	}

	return &llm.Reply{
		Content:   msg.Content,
		ToolCalls: assistant.ToolCalls,
		Message:   assistant,
	}
}
