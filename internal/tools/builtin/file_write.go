package builtin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/the-erin-collective/comrade-sub004/internal/agent/ports"
)

type fileWrite struct {
	ws *Workspace
}

// NewFileWrite returns the file_write tool. It overwrites existing files and
// creates parent directories as needed.
func NewFileWrite(ws *Workspace) ports.ToolExecutor {
	return &fileWrite{ws: ws}
}

func (t *fileWrite) Execute(_ context.Context, call ports.ToolCall) (*ports.ToolResult, error) {
	path := stringArg(call.Arguments, "path")
	if path == "" {
		return missingArg(call, "path"), nil
	}
	content, ok := call.Arguments["content"].(string)
	if !ok {
		return missingArg(call, "content"), nil
	}
	resolved, err := t.ws.Resolve(path)
	if err != nil {
		return failed(call, err), nil
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return failed(call, fmt.Errorf("create parent directory: %w", err)), nil
	}
	if err := os.WriteFile(resolved, []byte(content), 0o644); err != nil {
		return failed(call, err), nil
	}

	result := &ports.ToolResult{
		CallID:  call.ID,
		Content: fmt.Sprintf("wrote %d bytes to %s", len(content), path),
	}
	result.SetMeta("path", resolved)
	result.SetMeta("size_bytes", len(content))
	return result, nil
}

func (t *fileWrite) Definition() ports.ToolDefinition {
	return ports.ToolDefinition{
		Name:        "file_write",
		Description: "Write content to a file inside the workspace, overwriting it if it exists",
		Parameters: ports.ParameterSchema{
			Type: "object",
			Properties: map[string]ports.Property{
				"path":    {Type: "string", Description: "File path, relative to the workspace root"},
				"content": {Type: "string", Description: "Content to write"},
			},
			Required: []string{"path", "content"},
		},
	}
}

func (t *fileWrite) Metadata() ports.ToolMetadata {
	return ports.ToolMetadata{Name: "file_write", Version: "1.0.0", Category: "file_operations", Dangerous: true}
}

type fileCreate struct {
	ws *Workspace
}

// NewFileCreate returns the file_create tool. Unlike file_write it refuses to
// replace an existing file.
func NewFileCreate(ws *Workspace) ports.ToolExecutor {
	return &fileCreate{ws: ws}
}

func (t *fileCreate) Execute(_ context.Context, call ports.ToolCall) (*ports.ToolResult, error) {
	path := stringArg(call.Arguments, "path")
	if path == "" {
		return missingArg(call, "path"), nil
	}
	content := stringArg(call.Arguments, "content")
	resolved, err := t.ws.Resolve(path)
	if err != nil {
		return failed(call, err), nil
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return failed(call, fmt.Errorf("create parent directory: %w", err)), nil
	}
	f, err := os.OpenFile(resolved, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return failed(call, fmt.Errorf("file '%s' already exists", path)), nil
		}
		return failed(call, err), nil
	}
	defer f.Close()

	if _, err := f.WriteString(content); err != nil {
		return failed(call, err), nil
	}

	result := &ports.ToolResult{
		CallID:  call.ID,
		Content: fmt.Sprintf("created %s (%d bytes)", path, len(content)),
	}
	result.SetMeta("path", resolved)
	result.SetMeta("size_bytes", len(content))
	return result, nil
}

func (t *fileCreate) Definition() ports.ToolDefinition {
	return ports.ToolDefinition{
		Name:        "file_create",
		Description: "Create a new file inside the workspace; fails if the file already exists",
		Parameters: ports.ParameterSchema{
			Type: "object",
			Properties: map[string]ports.Property{
				"path":    {Type: "string", Description: "File path, relative to the workspace root"},
				"content": {Type: "string", Description: "Initial content, empty when omitted"},
			},
			Required: []string{"path"},
		},
	}
}

func (t *fileCreate) Metadata() ports.ToolMetadata {
	return ports.ToolMetadata{Name: "file_create", Version: "1.0.0", Category: "file_operations", Dangerous: true}
}
