package schema

import (
	"reflect"
	"testing"
)

type queryParams struct {
	DeviceType string   `json:"device_type" schema:"enum:battery|inverter" description:"Device family to query"`
	Limit      int      `json:"limit,omitempty" schema:"min:1"`
	Tags       []string `json:"tags,omitempty"`
	Verbose    bool     `json:"verbose,omitempty"`
	hidden     string
	Skipped    string   `json:"-"`
}

func TestFunctionWrapsObjectSchema(t *testing.T) {
	spec := Function("list_devices", "List known devices", queryParams{})

	if spec["type"] != "function" {
		t.Fatalf("expected type function, got %v", spec["type"])
	}
	fn, ok := spec["function"].(map[string]any)
	if !ok {
		t.Fatalf("missing function block: %v", spec)
	}
	if fn["name"] != "list_devices" || fn["description"] != "List known devices" {
		t.Fatalf("unexpected function metadata: %v", fn)
	}
	if _, ok := fn["parameters"].(map[string]any); !ok {
		t.Fatalf("missing parameters schema: %v", fn)
	}
}

func TestObjectFieldNamesAndTypes(t *testing.T) {
	obj := Object(queryParams{})

	props := obj["properties"].(map[string]any)
	if len(props) != 4 {
		t.Fatalf("expected 4 properties, got %d: %v", len(props), props)
	}

	device := props["device_type"].(map[string]any)
	if device["type"] != "string" {
		t.Fatalf("expected string type for device_type, got %v", device)
	}
	if device["description"] != "Device family to query" {
		t.Fatalf("description tag not carried over: %v", device)
	}
	if !reflect.DeepEqual(device["enum"], []string{"battery", "inverter"}) {
		t.Fatalf("unexpected enum: %v", device["enum"])
	}

	if props["limit"].(map[string]any)["type"] != "integer" {
		t.Fatalf("expected integer type for limit, got %v", props["limit"])
	}
	if props["verbose"].(map[string]any)["type"] != "boolean" {
		t.Fatalf("expected boolean type for verbose, got %v", props["verbose"])
	}

	tags := props["tags"].(map[string]any)
	if tags["type"] != "array" || tags["items"].(map[string]any)["type"] != "string" {
		t.Fatalf("unexpected array schema: %v", tags)
	}

	if _, leaked := props["hidden"]; leaked {
		t.Fatal("unexported fields must not appear in the schema")
	}
	if _, leaked := props["Skipped"]; leaked {
		t.Fatal("json:\"-\" fields must not appear in the schema")
	}
}

func TestObjectRequiredFields(t *testing.T) {
	obj := Object(queryParams{})

	required, ok := obj["required"].([]string)
	if !ok {
		t.Fatalf("expected a required list, got %v", obj["required"])
	}
	if !reflect.DeepEqual(required, []string{"device_type"}) {
		t.Fatalf("expected only device_type required, got %v", required)
	}
}

func TestObjectExplicitRequiredTag(t *testing.T) {
	type params struct {
		Mode string `json:"mode,omitempty" schema:"required"`
	}

	obj := Object(params{})
	required, _ := obj["required"].([]string)
	if !reflect.DeepEqual(required, []string{"mode"}) {
		t.Fatalf("schema:\"required\" must override omitempty, got %v", required)
	}
}

func TestObjectEmptyStruct(t *testing.T) {
	obj := Object(struct{}{})

	if obj["type"] != "object" {
		t.Fatalf("expected object type, got %v", obj["type"])
	}
	if len(obj["properties"].(map[string]any)) != 0 {
		t.Fatalf("expected no properties, got %v", obj["properties"])
	}
	if _, present := obj["required"]; present {
		t.Fatal("empty struct must not emit a required list")
	}
}

func TestObjectNilAndNonStruct(t *testing.T) {
	for _, params := range []any{nil, 42, "text"} {
		obj := Object(params)
		if obj["type"] != "object" || len(obj["properties"].(map[string]any)) != 0 {
			t.Fatalf("input %v: expected an empty object schema, got %v", params, obj)
		}
	}
}

func TestObjectNestedStruct(t *testing.T) {
	type window struct {
		Start string `json:"start"`
		End   string `json:"end,omitempty"`
	}
	type params struct {
		Window window `json:"window"`
	}

	obj := Object(params{})
	nested := obj["properties"].(map[string]any)["window"].(map[string]any)
	if nested["type"] != "object" {
		t.Fatalf("expected nested object schema, got %v", nested)
	}
	nestedProps := nested["properties"].(map[string]any)
	if nestedProps["start"].(map[string]any)["type"] != "string" {
		t.Fatalf("nested fields not generated: %v", nestedProps)
	}
}
