package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/the-erin-collective/comrade-sub004/internal/agent/ports"
)

type fileDelete struct {
	ws *Workspace
}

// NewFileDelete returns the file_delete tool. Directories are only removed
// when empty.
func NewFileDelete(ws *Workspace) ports.ToolExecutor {
	return &fileDelete{ws: ws}
}

func (t *fileDelete) Execute(_ context.Context, call ports.ToolCall) (*ports.ToolResult, error) {
	path := stringArg(call.Arguments, "path")
	if path == "" {
		return missingArg(call, "path"), nil
	}
	resolved, err := t.ws.Resolve(path)
	if err != nil {
		return failed(call, err), nil
	}
	if resolved == t.ws.Root() {
		return failed(call, fmt.Errorf("Access denied: refusing to delete the workspace root")), nil
	}

	if _, err := os.Stat(resolved); err != nil {
		if os.IsNotExist(err) {
			return failed(call, fmt.Errorf("file '%s' not found", path)), nil
		}
		return failed(call, err), nil
	}
	if err := os.Remove(resolved); err != nil {
		return failed(call, err), nil
	}

	result := &ports.ToolResult{CallID: call.ID, Content: fmt.Sprintf("deleted %s", path)}
	result.SetMeta("path", resolved)
	return result, nil
}

func (t *fileDelete) Definition() ports.ToolDefinition {
	return ports.ToolDefinition{
		Name:        "file_delete",
		Description: "Delete a file or empty directory inside the workspace",
		Parameters: ports.ParameterSchema{
			Type: "object",
			Properties: map[string]ports.Property{
				"path": {Type: "string", Description: "Path to delete, relative to the workspace root"},
			},
			Required: []string{"path"},
		},
	}
}

func (t *fileDelete) Metadata() ports.ToolMetadata {
	return ports.ToolMetadata{Name: "file_delete", Version: "1.0.0", Category: "file_operations", Dangerous: true}
}

type fileInfo struct {
	ws *Workspace
}

// NewFileInfo returns the file_info tool.
func NewFileInfo(ws *Workspace) ports.ToolExecutor {
	return &fileInfo{ws: ws}
}

func (t *fileInfo) Execute(_ context.Context, call ports.ToolCall) (*ports.ToolResult, error) {
	path := stringArg(call.Arguments, "path")
	if path == "" {
		return missingArg(call, "path"), nil
	}
	resolved, err := t.ws.Resolve(path)
	if err != nil {
		return failed(call, err), nil
	}

	info, err := os.Stat(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return failed(call, fmt.Errorf("file '%s' not found", path)), nil
		}
		return failed(call, err), nil
	}

	payload := map[string]any{
		"name":     info.Name(),
		"path":     resolved,
		"size":     info.Size(),
		"mode":     info.Mode().String(),
		"modified": info.ModTime().UTC().Format("2006-01-02T15:04:05Z07:00"),
		"is_dir":   info.IsDir(),
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return failed(call, err), nil
	}

	result := &ports.ToolResult{CallID: call.ID, Content: string(encoded)}
	result.SetMeta("path", resolved)
	result.SetMeta("is_dir", info.IsDir())
	return result, nil
}

func (t *fileInfo) Definition() ports.ToolDefinition {
	return ports.ToolDefinition{
		Name:        "file_info",
		Description: "Return size, mode and modification time for a file or directory",
		Parameters: ports.ParameterSchema{
			Type: "object",
			Properties: map[string]ports.Property{
				"path": {Type: "string", Description: "Path to inspect, relative to the workspace root"},
			},
			Required: []string{"path"},
		},
	}
}

func (t *fileInfo) Metadata() ports.ToolMetadata {
	return ports.ToolMetadata{Name: "file_info", Version: "1.0.0", Category: "file_operations"}
}
