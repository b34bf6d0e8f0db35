// Package validator checks decoded tool parameters against their schema
// tags. Tool arguments arrive as backend-controlled data, so they are
// validated before any tool runs.
package validator

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Validate checks a parameter struct (or pointer to one) against its
// schema tags: required, enum:a|b, min:n, max:n. min and max bound
// numeric values and string lengths.
func Validate(params any) error {
	v := reflect.ValueOf(params)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("expected struct, got %s", v.Kind())
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() || field.Tag.Get("json") == "-" {
			continue
		}

		tag := field.Tag.Get("schema")
		if tag == "" {
			continue
		}

		name := fieldName(field)
		value := v.Field(i)

		if value.IsZero() {
			if strings.Contains(tag, "required") {
				return fmt.Errorf("parameter %q is required", name)
			}
			continue
		}

		for _, part := range strings.Split(tag, ",") {
			part = strings.TrimSpace(part)
			var err error
			switch {
			case strings.HasPrefix(part, "enum:"):
				err = checkEnum(value, part[len("enum:"):], name)
			case strings.HasPrefix(part, "min:"):
				err = checkBound(value, part[len("min:"):], name, false)
			case strings.HasPrefix(part, "max:"):
				err = checkBound(value, part[len("max:"):], name, true)
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func checkEnum(value reflect.Value, allowed, name string) error {
	current := fmt.Sprintf("%v", value.Interface())
	options := strings.Split(allowed, "|")
	for _, opt := range options {
		if current == opt {
			return nil
		}
	}
	return fmt.Errorf("parameter %q must be one of: %s", name, strings.Join(options, ", "))
}

func checkBound(value reflect.Value, boundStr, name string, isMax bool) error {
	bound, err := strconv.ParseFloat(boundStr, 64)
	if err != nil {
		return fmt.Errorf("invalid bound for parameter %q: %s", name, boundStr)
	}

	var current float64
	switch value.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		current = float64(value.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		current = float64(value.Uint())
	case reflect.Float32, reflect.Float64:
		current = value.Float()
	case reflect.String:
		current = float64(len(value.String()))
	default:
		return nil
	}

	if isMax && current > bound {
		return fmt.Errorf("parameter %q must be at most %s", name, boundStr)
	}
	if !isMax && current < bound {
		return fmt.Errorf("parameter %q must be at least %s", name, boundStr)
	}
	return nil
}

func fieldName(field reflect.StructField) string {
	jsonTag := field.Tag.Get("json")
	if jsonTag == "" {
		return field.Name
	}
	name := strings.TrimSpace(strings.Split(jsonTag, ",")[0])
	if name == "" {
		return field.Name
	}
	return name
}
