package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mpujadas/gridchat/llm"
)

func request(tools []map[string]any) *llm.ChatRequest {
	return &llm.ChatRequest{
		Model: "test-model",
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: "be helpful"},
			{Role: llm.RoleUser, Content: "hello"},
		},
		Tools: tools,
	}
}

func TestChatDecodesTopLevelMessage(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &gotBody); err != nil {
			t.Errorf("request body is not JSON: %v", err)
		}
		io.WriteString(w, `{"model":"test-model","message":{"role":"assistant","content":"hola"},"done":true}`)
	}))
	defer srv.Close()

	client := NewClient(llm.WithBaseURL(srv.URL))
	reply, err := client.Chat(context.Background(), request(nil))
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	if reply.Content != "hola" {
		t.Fatalf("expected content hola, got %q", reply.Content)
	}
	if reply.Message.Role != llm.RoleAssistant {
		t.Fatalf("expected assistant raw message, got %s", reply.Message.Role)
	}
	if len(reply.ToolCalls) != 0 {
		t.Fatalf("expected no tool calls, got %d", len(reply.ToolCalls))
	}

	if gotBody["stream"] != false {
		t.Fatalf("expected stream:false on the wire, got %v", gotBody["stream"])
	}
	if _, present := gotBody["tools"]; present {
		t.Fatal("tools must be omitted from the request when none are registered")
	}
}

func TestChatAdvertisesTools(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &gotBody)
		io.WriteString(w, `{"message":{"role":"assistant","content":"ok"}}`)
	}))
	defer srv.Close()

	specs := []map[string]any{{"type": "function", "function": map[string]any{"name": "lookup"}}}
	client := NewClient(llm.WithBaseURL(srv.URL))
	if _, err := client.Chat(context.Background(), request(specs)); err != nil {
		t.Fatalf("Chat: %v", err)
	}

	advertised, ok := gotBody["tools"].([]any)
	if !ok || len(advertised) != 1 {
		t.Fatalf("expected 1 advertised tool, got %v", gotBody["tools"])
	}
}

func TestChatDecodesToolCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"message":{"role":"assistant","content":"","tool_calls":[{"function":{"name":"get_available_device_types","arguments":{"kind":"battery"}}}]}}`)
	}))
	defer srv.Close()

	client := NewClient(llm.WithBaseURL(srv.URL))
	reply, err := client.Chat(context.Background(), request(nil))
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	if len(reply.ToolCalls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(reply.ToolCalls))
	}
	call := reply.ToolCalls[0]
	if call.Function.Name != "get_available_device_types" {
		t.Fatalf("unexpected tool name %q", call.Function.Name)
	}
	if call.ID == "" {
		t.Fatal("adapter must synthesize a correlation id")
	}

	var args map[string]any
	if err := json.Unmarshal(call.Function.Arguments, &args); err != nil {
		t.Fatalf("arguments are not a canonical object: %v", err)
	}
	if args["kind"] != "battery" {
		t.Fatalf("expected kind=battery, got %v", args["kind"])
	}

	if len(reply.Message.ToolCalls) != 1 {
		t.Fatal("the raw assistant message must carry the tool calls for replay")
	}
}

func TestChatReplaysToolCallsStructured(t *testing.T) {
	var gotBody struct {
		Messages []struct {
			Role      string `json:"role"`
			Name      string `json:"name"`
			ToolCalls []struct {
				Function struct {
					Name      string         `json:"name"`
					Arguments map[string]any `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &gotBody)
		io.WriteString(w, `{"message":{"role":"assistant","content":"done"}}`)
	}))
	defer srv.Close()

	req := &llm.ChatRequest{
		Messages: []llm.Message{
			{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{{
				ID:       "call_1",
				Function: llm.FunctionCall{Name: "lookup", Arguments: json.RawMessage(`{"q":"soc"}`)},
			}}},
			{Role: llm.RoleTool, Content: "result", Name: "lookup"},
		},
	}

	client := NewClient(llm.WithBaseURL(srv.URL))
	if _, err := client.Chat(context.Background(), req); err != nil {
		t.Fatalf("Chat: %v", err)
	}

	if len(gotBody.Messages) != 2 {
		t.Fatalf("expected 2 replayed messages, got %d", len(gotBody.Messages))
	}
	tc := gotBody.Messages[0].ToolCalls
	if len(tc) != 1 || tc[0].Function.Arguments["q"] != "soc" {
		t.Fatalf("tool-call arguments must replay as a structured object, got %+v", tc)
	}
	if gotBody.Messages[1].Name != "lookup" {
		t.Fatalf("tool result must carry the tool name, got %+v", gotBody.Messages[1])
	}
}

func TestChatHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(llm.WithBaseURL(srv.URL))
	_, err := client.Chat(context.Background(), request(nil))

	var httpErr *llm.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *llm.HTTPError, got %v", err)
	}
	if httpErr.Status != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", httpErr.Status)
	}
}

func TestChatAcceptsNon200Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		io.WriteString(w, `{"message":{"role":"assistant","content":"queued"}}`)
	}))
	defer srv.Close()

	client := NewClient(llm.WithBaseURL(srv.URL))
	reply, err := client.Chat(context.Background(), request(nil))
	if err != nil {
		t.Fatalf("a 2xx status must not be treated as a failure: %v", err)
	}
	if reply.Content != "queued" {
		t.Fatalf("expected the reply decoded, got %q", reply.Content)
	}
}

func TestChatProtocolError(t *testing.T) {
	cases := map[string]string{
		"invalid JSON":    `this is not json`,
		"missing message": `{"model":"m","done":true}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, body)
			}))
			defer srv.Close()

			client := NewClient(llm.WithBaseURL(srv.URL))
			_, err := client.Chat(context.Background(), request(nil))

			var protoErr *llm.ProtocolError
			if !errors.As(err, &protoErr) {
				t.Fatalf("expected *llm.ProtocolError, got %v", err)
			}
		})
	}
}

func TestChatTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		io.WriteString(w, `{"message":{"role":"assistant","content":"late"}}`)
	}))
	defer srv.Close()

	client := NewClient(llm.WithBaseURL(srv.URL), llm.WithTimeout(20*time.Millisecond))
	_, err := client.Chat(context.Background(), request(nil))

	var timeoutErr *llm.TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("expected *llm.TimeoutError, got %v", err)
	}
}

func TestChatConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	client := NewClient(llm.WithBaseURL(srv.URL))
	_, err := client.Chat(context.Background(), request(nil))

	var connErr *llm.ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected *llm.ConnectionError, got %v", err)
	}
}
