package llm

import (
	"bytes"
	"encoding/json"
)

var emptyArgs = json.RawMessage(`{}`)

// CanonicalArguments normalizes backend-supplied tool arguments to a JSON
// object. Providers disagree on the encoding: some send a structured
// object, others a JSON-encoded string containing one. Anything that does
// not decode to an object becomes the empty object, so a malformed
// advertisement never crashes dispatch.
func CanonicalArguments(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return emptyArgs
	}

	// String-encoded arguments get unquoted exactly once.
	if trimmed[0] == '"' {
		var inner string
		if err := json.Unmarshal(trimmed, &inner); err != nil {
			return emptyArgs
		}
		trimmed = bytes.TrimSpace([]byte(inner))
		if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
			return emptyArgs
		}
	}

	var obj map[string]any
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return emptyArgs
	}
	out, err := json.Marshal(obj)
	if err != nil {
		return emptyArgs
	}
	return out
}
