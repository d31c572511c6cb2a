package builtin

import (
	"fmt"
	"strings"

	"github.com/the-erin-collective/comrade-sub004/internal/agent/ports"
)

// stringArg fetches a string-like argument from the call map, returning an
// empty string when the key is absent or nil.
func stringArg(args map[string]any, key string) string {
	if args == nil {
		return ""
	}
	value, ok := args[key]
	if !ok || value == nil {
		return ""
	}
	return fmt.Sprint(value)
}

// boolArg fetches a boolean argument, defaulting to false.
func boolArg(args map[string]any, key string) bool {
	if args == nil {
		return false
	}
	value, _ := args[key].(bool)
	return value
}

// intArg parses an integer-ish argument, returning 0 on missing or invalid
// inputs. JSON numbers arrive as float64.
func intArg(args map[string]any, key string) int {
	if args == nil {
		return 0
	}
	switch value := args[key].(type) {
	case int:
		return value
	case int64:
		return int(value)
	case float64:
		return int(value)
	}
	return 0
}

// missingArg builds the standard failed result for an absent required argument.
func missingArg(call ports.ToolCall, key string) *ports.ToolResult {
	return &ports.ToolResult{
		CallID: call.ID,
		Error:  fmt.Errorf("missing required parameter %q", key),
	}
}

// failed builds a failed result carrying err.
func failed(call ports.ToolCall, err error) *ports.ToolResult {
	return &ports.ToolResult{CallID: call.ID, Error: err}
}

// countLines counts newline-terminated lines, treating a trailing partial
// line as a line.
func countLines(output string) int {
	if output == "" {
		return 0
	}
	return strings.Count(output, "\n") + 1
}
