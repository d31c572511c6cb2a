package builtin

import (
	"context"
	"fmt"
	"os"

	"github.com/the-erin-collective/comrade-sub004/internal/agent/ports"
)

type fileRead struct {
	ws *Workspace
}

// NewFileRead returns the file_read tool.
func NewFileRead(ws *Workspace) ports.ToolExecutor {
	return &fileRead{ws: ws}
}

func (t *fileRead) Execute(_ context.Context, call ports.ToolCall) (*ports.ToolResult, error) {
	path := stringArg(call.Arguments, "path")
	if path == "" {
		return missingArg(call, "path"), nil
	}
	resolved, err := t.ws.Resolve(path)
	if err != nil {
		return failed(call, err), nil
	}

	content, err := os.ReadFile(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return failed(call, fmt.Errorf("file '%s' not found", path)), nil
		}
		return failed(call, err), nil
	}

	result := &ports.ToolResult{CallID: call.ID, Content: string(content)}
	result.SetMeta("path", resolved)
	result.SetMeta("size_bytes", len(content))
	result.SetMeta("lines", countLines(string(content)))
	return result, nil
}

func (t *fileRead) Definition() ports.ToolDefinition {
	return ports.ToolDefinition{
		Name:        "file_read",
		Description: "Read the contents of a file inside the workspace",
		Parameters: ports.ParameterSchema{
			Type: "object",
			Properties: map[string]ports.Property{
				"path": {Type: "string", Description: "File path, relative to the workspace root"},
			},
			Required: []string{"path"},
		},
	}
}

func (t *fileRead) Metadata() ports.ToolMetadata {
	return ports.ToolMetadata{Name: "file_read", Version: "1.0.0", Category: "file_operations"}
}
