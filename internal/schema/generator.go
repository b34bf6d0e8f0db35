// Package schema derives JSON schemas from Go parameter structs.
package schema

import (
	"reflect"
	"strings"
)

// Function builds the provider-neutral tool advertisement for a tool:
// the "type":"function" wrapper around name, description and the
// parameter schema generated from params.
func Function(name, description string, params any) map[string]any {
	return map[string]any{
		"type": "function",
		"function": map[string]any{
			"name":        name,
			"description": description,
			"parameters":  Object(params),
		},
	}
}

// Object generates a JSON object schema from a struct (or pointer to
// one). Fields are named by their json tag; fields without omitempty, or
// tagged schema:"required", are listed as required. The description tag
// becomes the property description.
func Object(params any) map[string]any {
	out := map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
	if params == nil {
		return out
	}

	t := reflect.TypeOf(params)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return out
	}

	properties := out["properties"].(map[string]any)
	var required []string

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}
		name := fieldName(field, jsonTag)

		schemaTag := field.Tag.Get("schema")
		if strings.Contains(schemaTag, "required") || !strings.Contains(jsonTag, "omitempty") {
			required = append(required, name)
		}

		prop := typeSchema(field.Type)
		if desc := field.Tag.Get("description"); desc != "" {
			prop["description"] = desc
		}
		if enum := tagValue(schemaTag, "enum:"); enum != "" {
			prop["enum"] = strings.Split(enum, "|")
		}
		properties[name] = prop
	}

	if len(required) > 0 {
		out["required"] = required
	}
	return out
}

func typeSchema(t reflect.Type) map[string]any {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.String:
		return map[string]any{"type": "string"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return map[string]any{"type": "integer"}
	case reflect.Float32, reflect.Float64:
		return map[string]any{"type": "number"}
	case reflect.Bool:
		return map[string]any{"type": "boolean"}
	case reflect.Slice, reflect.Array:
		return map[string]any{"type": "array", "items": typeSchema(t.Elem())}
	case reflect.Struct:
		return Object(reflect.New(t).Interface())
	case reflect.Map:
		return map[string]any{"type": "object"}
	default:
		return map[string]any{"type": "string"}
	}
}

func tagValue(tag, prefix string) string {
	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		if strings.HasPrefix(part, prefix) {
			return part[len(prefix):]
		}
	}
	return ""
}

func fieldName(field reflect.StructField, jsonTag string) string {
	if jsonTag == "" {
		return field.Name
	}
	name := strings.TrimSpace(strings.Split(jsonTag, ",")[0])
	if name == "" {
		return field.Name
	}
	return name
}
