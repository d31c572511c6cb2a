package tools

import (
	"fmt"
	"strings"

	"github.com/the-erin-collective/comrade-sub004/internal/agent/ports"
)

// validateArguments checks a call's arguments against the tool's declared
// ParameterSchema. Required fields must be present and non-nil; provided
// fields must match their declared type. Lenient in two ways: JSON numbers
// arriving as float64 satisfy integer parameters, and extra fields without a
// schema entry are allowed.
func validateArguments(schema ports.ParameterSchema, args map[string]any) error {
	if len(schema.Properties) == 0 && len(schema.Required) == 0 {
		return nil
	}

	for _, req := range schema.Required {
		val, ok := args[req]
		if !ok || val == nil {
			return fmt.Errorf("missing required parameter %q", req)
		}
	}

	for key, val := range args {
		prop, ok := schema.Properties[key]
		if !ok {
			continue // extra fields allowed
		}
		if val == nil {
			continue // nil values skip the type check
		}
		if err := checkType(key, prop.Type, val); err != nil {
			return err
		}
	}

	return nil
}

func checkType(key, expectedType string, val any) error {
	if expectedType == "" {
		return nil
	}

	switch strings.ToLower(expectedType) {
	case "string":
		if _, ok := val.(string); !ok {
			return fmt.Errorf("parameter %q: expected string, got %T", key, val)
		}
	case "number", "integer":
		switch val.(type) {
		case float64, float32, int, int32, int64:
			// JSON numbers unmarshal as float64
		default:
			return fmt.Errorf("parameter %q: expected number, got %T", key, val)
		}
	case "boolean":
		if _, ok := val.(bool); !ok {
			return fmt.Errorf("parameter %q: expected boolean, got %T", key, val)
		}
	case "array":
		switch val.(type) {
		case []any, []string:
		default:
			return fmt.Errorf("parameter %q: expected array, got %T", key, val)
		}
	case "object":
		if _, ok := val.(map[string]any); !ok {
			return fmt.Errorf("parameter %q: expected object, got %T", key, val)
		}
	}

	return nil
}
