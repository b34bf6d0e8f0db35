package engine

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/mpujadas/gridchat/llm"
)

const maxBodyExcerpt = 200

// describeBackendError maps an adapter failure to a short, actionable,
// non-technical message returned as the turn's result. The full cause
// goes to the log; stack traces and raw errors never reach the user.
func (e *Engine) describeBackendError(sessionID string, err error) string {
	e.logger.Error("backend request failed", "session", sessionID, "error", err)

	var (
		connErr    *llm.ConnectionError
		timeoutErr *llm.TimeoutError
		httpErr    *llm.HTTPError
		protoErr   *llm.ProtocolError
	)

	switch {
	case errors.As(err, &connErr):
		return "I cannot reach the model backend. Please verify the endpoint URL and the network connection."
	case errors.As(err, &timeoutErr):
		return "The model backend took too long to answer. The model may be too large for the server, or the server may be overloaded."
	case errors.As(err, &httpErr):
		switch httpErr.Status {
		case 404:
			return "The requested model was not found on the backend. Check that it is deployed and that the model name is correct."
		case 405:
			return "The backend rejected the request. The endpoint or protocol version is probably wrong."
		default:
			return fmt.Sprintf("The backend returned HTTP %d: %s", httpErr.Status, excerpt(httpErr.Body))
		}
	case errors.As(err, &protoErr):
		return "The backend answered in an unexpected format. It may not be a compatible chat endpoint."
	default:
		return "An unexpected error occurred while contacting the model backend."
	}
}

// excerpt truncates the body on a rune boundary so the user-facing
// message never carries a split multibyte character.
func excerpt(body string) string {
	if len(body) <= maxBodyExcerpt {
		return body
	}
	cut := maxBodyExcerpt
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return body[:cut] + "..."
}
