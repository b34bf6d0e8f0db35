package llm

import (
	"encoding/json"
	"testing"
)

func TestCanonicalArgumentsObject(t *testing.T) {
	got := CanonicalArguments(json.RawMessage(`{"device_type":"battery","count":2}`))

	var check map[string]any
	if err := json.Unmarshal(got, &check); err != nil {
		t.Fatalf("result is not a valid JSON object: %v", err)
	}
	if check["device_type"] != "battery" {
		t.Fatalf("expected device_type=battery, got %v", check["device_type"])
	}
}

func TestCanonicalArgumentsStringEncoded(t *testing.T) {
	got := CanonicalArguments(json.RawMessage(`"{\"device_type\":\"battery\"}"`))
	if string(got) != `{"device_type":"battery"}` {
		t.Fatalf("unexpected normalization of string-encoded arguments: %s", got)
	}
}

func TestCanonicalArgumentsEmptyAndNull(t *testing.T) {
	for _, raw := range []string{"", "null", `""`, `"null"`, "   "} {
		if got := CanonicalArguments(json.RawMessage(raw)); string(got) != "{}" {
			t.Fatalf("input %q: expected {}, got %s", raw, got)
		}
	}
}

func TestCanonicalArgumentsRejectsNonObjects(t *testing.T) {
	for _, raw := range []string{`not-json`, `[1,2]`, `42`, `"\"quoted scalar\""`} {
		if got := CanonicalArguments(json.RawMessage(raw)); string(got) != "{}" {
			t.Fatalf("input %q: expected {}, got %s", raw, got)
		}
	}
}
