package ports

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

// ToolExecutor executes a single tool call.
type ToolExecutor interface {
	// Execute runs the tool with the given arguments. Tool-level failures are
	// reported through ToolResult.Error; the Go error return is reserved for
	// infrastructure failures.
	Execute(ctx context.Context, call ToolCall) (*ToolResult, error)

	// Definition returns the tool's schema for LLM function calling.
	Definition() ToolDefinition

	// Metadata returns tool metadata.
	Metadata() ToolMetadata
}

// ToolRegistry manages available tools.
type ToolRegistry interface {
	// Register adds a tool to the registry. Registering a tool under an
	// existing name replaces the previous tool.
	Register(tool ToolExecutor) error

	// Get retrieves a tool by name.
	Get(name string) (ToolExecutor, error)

	// List returns definitions for all available tools, sorted by name.
	List() []ToolDefinition

	// Unregister removes a tool.
	Unregister(name string) error
}

// ToolCall represents a request to execute a tool. The ID is caller-assigned
// and must be unique within a batch.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// Metadata keys populated by the registry and executor on every result.
const (
	MetaToolName      = "tool_name"
	MetaArguments     = "arguments"
	MetaExecutionTime = "execution_time_ms"
	MetaTimestamp     = "timestamp"
	MetaAttempts      = "attempts"
	MetaCancelled     = "cancelled"
)

// ToolResult is the normalized outcome of a tool invocation.
type ToolResult struct {
	CallID   string         `json:"call_id"`
	Content  string         `json:"content"`
	Error    error          `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Success reports whether the invocation completed without a tool-level error.
func (r *ToolResult) Success() bool {
	return r != nil && r.Error == nil
}

// Cancelled reports whether the result was synthesized for a cancelled task.
func (r *ToolResult) Cancelled() bool {
	if r == nil || r.Metadata == nil {
		return false
	}
	cancelled, _ := r.Metadata[MetaCancelled].(bool)
	return cancelled
}

// SetMeta stores a metadata value, allocating the map on first use.
func (r *ToolResult) SetMeta(key string, value any) {
	if r.Metadata == nil {
		r.Metadata = make(map[string]any)
	}
	r.Metadata[key] = value
}

// MarshalJSON encodes the error as its message string.
func (r ToolResult) MarshalJSON() ([]byte, error) {
	type alias struct {
		CallID   string         `json:"call_id"`
		Content  string         `json:"content"`
		Error    string         `json:"error,omitempty"`
		Metadata map[string]any `json:"metadata,omitempty"`
	}
	out := alias{CallID: r.CallID, Content: r.Content, Metadata: r.Metadata}
	if r.Error != nil {
		out.Error = r.Error.Error()
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts both string and object error representations.
func (r *ToolResult) UnmarshalJSON(data []byte) error {
	type alias struct {
		CallID   string          `json:"call_id"`
		Content  string          `json:"content"`
		Error    json.RawMessage `json:"error"`
		Metadata map[string]any  `json:"metadata,omitempty"`
	}
	var aux alias
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.CallID = aux.CallID
	r.Content = aux.Content
	r.Metadata = aux.Metadata
	r.Error = nil

	raw := strings.TrimSpace(string(aux.Error))
	if raw == "" || raw == "null" {
		return nil
	}
	var msg string
	if err := json.Unmarshal(aux.Error, &msg); err == nil {
		if msg != "" {
			r.Error = errors.New(msg)
		}
		return nil
	}
	var obj map[string]any
	if err := json.Unmarshal(aux.Error, &obj); err == nil {
		if m, ok := obj["message"].(string); ok && m != "" {
			r.Error = errors.New(m)
			return nil
		}
	}
	r.Error = errors.New(raw)
	return nil
}

// ToolDefinition describes a tool for the LLM.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  ParameterSchema `json:"parameters"`
}

// ToolMetadata contains tool information.
type ToolMetadata struct {
	Name      string   `json:"name"`
	Version   string   `json:"version"`
	Category  string   `json:"category"`
	Tags      []string `json:"tags,omitempty"`
	Dangerous bool     `json:"dangerous"`
}

// ParameterSchema defines tool parameters (JSON Schema object form).
type ParameterSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required"`
}

// Property defines a single parameter.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Enum        []any  `json:"enum,omitempty"`
}
