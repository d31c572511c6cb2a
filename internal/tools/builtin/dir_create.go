package builtin

import (
	"context"
	"fmt"
	"os"

	"github.com/the-erin-collective/comrade-sub004/internal/agent/ports"
)

type dirCreate struct {
	ws *Workspace
}

// NewDirCreate returns the dir_create tool. Creates intermediate directories
// like mkdir -p.
func NewDirCreate(ws *Workspace) ports.ToolExecutor {
	return &dirCreate{ws: ws}
}

func (t *dirCreate) Execute(_ context.Context, call ports.ToolCall) (*ports.ToolResult, error) {
	path := stringArg(call.Arguments, "path")
	if path == "" {
		return missingArg(call, "path"), nil
	}
	resolved, err := t.ws.Resolve(path)
	if err != nil {
		return failed(call, err), nil
	}

	if info, err := os.Stat(resolved); err == nil && !info.IsDir() {
		return failed(call, fmt.Errorf("'%s' already exists and is not a directory", path)), nil
	}
	if err := os.MkdirAll(resolved, 0o755); err != nil {
		return failed(call, err), nil
	}

	result := &ports.ToolResult{CallID: call.ID, Content: fmt.Sprintf("created directory %s", path)}
	result.SetMeta("path", resolved)
	return result, nil
}

func (t *dirCreate) Definition() ports.ToolDefinition {
	return ports.ToolDefinition{
		Name:        "dir_create",
		Description: "Create a directory (and parents) inside the workspace",
		Parameters: ports.ParameterSchema{
			Type: "object",
			Properties: map[string]ports.Property{
				"path": {Type: "string", Description: "Directory path, relative to the workspace root"},
			},
			Required: []string{"path"},
		},
	}
}

func (t *dirCreate) Metadata() ports.ToolMetadata {
	return ports.ToolMetadata{Name: "dir_create", Version: "1.0.0", Category: "file_operations", Dangerous: true}
}

type workdir struct {
	ws *Workspace
}

// NewWorkdir returns the workdir tool, reporting the workspace root. It takes
// no parameters.
func NewWorkdir(ws *Workspace) ports.ToolExecutor {
	return &workdir{ws: ws}
}

func (t *workdir) Execute(_ context.Context, call ports.ToolCall) (*ports.ToolResult, error) {
	result := &ports.ToolResult{CallID: call.ID, Content: t.ws.Root()}
	result.SetMeta("path", t.ws.Root())
	return result, nil
}

func (t *workdir) Definition() ports.ToolDefinition {
	return ports.ToolDefinition{
		Name:        "workdir",
		Description: "Return the absolute path of the workspace root",
		Parameters: ports.ParameterSchema{
			Type:       "object",
			Properties: map[string]ports.Property{},
			Required:   []string{},
		},
	}
}

func (t *workdir) Metadata() ports.ToolMetadata {
	return ports.ToolMetadata{Name: "workdir", Version: "1.0.0", Category: "file_operations"}
}
