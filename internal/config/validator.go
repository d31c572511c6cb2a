package config

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"

	comerrors "github.com/the-erin-collective/comrade-sub004/internal/errors"
)

// Schema describes one field of a loosely-typed configuration value. Nested
// objects use Fields, arrays use Items. A nil constraint is simply not
// checked.
type Schema struct {
	Type     string             `json:"type" yaml:"type"` // string, number, integer, boolean, object, array
	Required bool               `json:"required,omitempty" yaml:"required,omitempty"`
	Default  any                `json:"default,omitempty" yaml:"default,omitempty"`
	Enum     []any              `json:"enum,omitempty" yaml:"enum,omitempty"`
	Pattern  string             `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Min      *float64           `json:"min,omitempty" yaml:"min,omitempty"`
	Max      *float64           `json:"max,omitempty" yaml:"max,omitempty"`
	Fields   map[string]*Schema `json:"fields,omitempty" yaml:"fields,omitempty"`
	Items    *Schema            `json:"items,omitempty" yaml:"items,omitempty"`
}

// Validate walks value against the schema and returns every violation as a
// structured issue. An empty slice means the value is valid.
func (s *Schema) Validate(value any) []comerrors.ValidationIssue {
	return s.validateAt(value, "")
}

func joinPath(base, field string) string {
	if base == "" {
		return field
	}
	return base + "." + field
}

func (s *Schema) validateAt(value any, path string) []comerrors.ValidationIssue {
	var issues []comerrors.ValidationIssue

	if value == nil {
		if s.Required {
			issues = append(issues, comerrors.ValidationIssue{
				Path: path, Message: "value is required", Code: "required",
			})
		}
		return issues
	}

	if issue, ok := s.checkType(value, path); !ok {
		return append(issues, issue)
	}

	if len(s.Enum) > 0 && !enumContains(s.Enum, value) {
		issues = append(issues, comerrors.ValidationIssue{
			Path: path, Message: fmt.Sprintf("value %v is not one of the allowed values", value), Code: "enum",
		})
	}

	switch s.Type {
	case "string":
		str := value.(string)
		if s.Pattern != "" {
			pattern, err := regexp.Compile(s.Pattern)
			if err != nil {
				issues = append(issues, comerrors.ValidationIssue{
					Path: path, Message: fmt.Sprintf("schema pattern %q does not compile", s.Pattern), Code: "pattern_invalid",
				})
			} else if !pattern.MatchString(str) {
				issues = append(issues, comerrors.ValidationIssue{
					Path: path, Message: fmt.Sprintf("value %q does not match pattern %s", str, s.Pattern), Code: "pattern",
				})
			}
		}
	case "number", "integer":
		num, _ := asNumber(value)
		if s.Min != nil && num < *s.Min {
			issues = append(issues, comerrors.ValidationIssue{
				Path: path, Message: fmt.Sprintf("value %v is below minimum %v", num, *s.Min), Code: "min",
			})
		}
		if s.Max != nil && num > *s.Max {
			issues = append(issues, comerrors.ValidationIssue{
				Path: path, Message: fmt.Sprintf("value %v is above maximum %v", num, *s.Max), Code: "max",
			})
		}
	case "object":
		obj := value.(map[string]any)
		names := make([]string, 0, len(s.Fields))
		for name := range s.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			field := s.Fields[name]
			child, present := obj[name]
			if !present {
				if field.Required {
					issues = append(issues, comerrors.ValidationIssue{
						Path: joinPath(path, name), Message: "field is required", Code: "required",
					})
				}
				continue
			}
			issues = append(issues, field.validateAt(child, joinPath(path, name))...)
		}
	case "array":
		arr := value.([]any)
		if s.Items != nil {
			for i, item := range arr {
				issues = append(issues, s.Items.validateAt(item, fmt.Sprintf("%s[%d]", path, i))...)
			}
		}
	}

	return issues
}

// checkType verifies the Go representation of a JSON-like value against the
// declared type. Whole-valued floats pass as integers, matching how JSON
// decoding represents all numbers.
func (s *Schema) checkType(value any, path string) (comerrors.ValidationIssue, bool) {
	ok := false
	switch s.Type {
	case "", "any":
		ok = true
	case "string":
		_, ok = value.(string)
	case "boolean":
		_, ok = value.(bool)
	case "number":
		_, ok = asNumber(value)
	case "integer":
		if num, isNum := asNumber(value); isNum {
			ok = num == float64(int64(num))
		}
	case "object":
		_, ok = value.(map[string]any)
	case "array":
		_, ok = value.([]any)
	}
	if ok {
		return comerrors.ValidationIssue{}, true
	}
	return comerrors.ValidationIssue{
		Path:    path,
		Message: fmt.Sprintf("expected %s, got %T", s.Type, value),
		Code:    "type",
	}, false
}

func asNumber(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func enumContains(enum []any, value any) bool {
	for _, allowed := range enum {
		if valuesEqual(allowed, value) {
			return true
		}
	}
	return false
}

// valuesEqual compares JSON-like scalars, treating numeric types uniformly so
// an int default matches a float64 decoded value.
func valuesEqual(a, b any) bool {
	if an, ok := asNumber(a); ok {
		bn, ok := asNumber(b)
		return ok && an == bn
	}
	return a == b
}

// ApplyDefaults returns value with schema-declared defaults filled in for
// missing fields, recursively for nested objects and array items. The input
// is never mutated, and applying defaults to an already-defaulted value
// returns an equal value.
func (s *Schema) ApplyDefaults(value any) any {
	if value == nil {
		if s.Default != nil {
			return deepCopyValue(s.Default)
		}
		if s.Type == "object" && len(s.Fields) > 0 {
			// Materialize an object so nested defaults have a home.
			return s.applyObjectDefaults(map[string]any{})
		}
		return nil
	}

	switch s.Type {
	case "object":
		obj, ok := value.(map[string]any)
		if !ok {
			return value
		}
		return s.applyObjectDefaults(obj)
	case "array":
		arr, ok := value.([]any)
		if !ok || s.Items == nil {
			return value
		}
		out := make([]any, len(arr))
		for i, item := range arr {
			out[i] = s.Items.ApplyDefaults(item)
		}
		return out
	default:
		return value
	}
}

func (s *Schema) applyObjectDefaults(obj map[string]any) map[string]any {
	out := make(map[string]any, len(obj))
	for key, val := range obj {
		if field, known := s.Fields[key]; known {
			out[key] = field.ApplyDefaults(val)
		} else {
			out[key] = val
		}
	}
	for name, field := range s.Fields {
		if _, present := out[name]; present {
			continue
		}
		if defaulted := field.ApplyDefaults(nil); defaulted != nil {
			out[name] = defaulted
		}
	}
	return out
}

func deepCopyValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			out[key] = deepCopyValue(val)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = deepCopyValue(val)
		}
		return out
	default:
		return v
	}
}

// CheckDuplicateIDs scans a collection of objects for repeated "id" values.
// Duplicates are warnings, not hard failures: both entries stay individually
// valid, but the collection is flagged so the caller can surface it.
func CheckDuplicateIDs(items []map[string]any) []comerrors.ValidationIssue {
	seen := make(map[string]int)
	var warnings []comerrors.ValidationIssue
	for i, item := range items {
		id, ok := item["id"].(string)
		if !ok || id == "" {
			continue
		}
		if first, dup := seen[id]; dup {
			warnings = append(warnings, comerrors.ValidationIssue{
				Path:    fmt.Sprintf("[%d].id", i),
				Message: fmt.Sprintf("duplicate id %q, first seen at index %d", id, first),
				Code:    "duplicate_id",
			})
			continue
		}
		seen[id] = i
	}
	return warnings
}
