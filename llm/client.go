package llm

import "context"

// Client is the uniform interface over one LLM provider's wire contract.
// Chat submits the full history plus the current tool advertisement and
// decodes the provider reply into the neutral Reply shape. Implementations
// do not mutate session state; their only side effect is the network call.
//
// Errors are drawn from the taxonomy in errors.go: *HTTPError for non-2xx
// responses, *TimeoutError, *ConnectionError, and *ProtocolError for
// replies that cannot be decoded.
type Client interface {
	Chat(ctx context.Context, req *ChatRequest) (*Reply, error)
}
