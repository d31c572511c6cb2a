package builtin

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/the-erin-collective/comrade-sub004/internal/agent/ports"
)

type listFiles struct {
	ws *Workspace
}

// NewListFiles returns the list_files tool. Flat by default, recursive when
// asked.
func NewListFiles(ws *Workspace) ports.ToolExecutor {
	return &listFiles{ws: ws}
}

func (t *listFiles) Execute(_ context.Context, call ports.ToolCall) (*ports.ToolResult, error) {
	path := stringArg(call.Arguments, "path")
	if path == "" {
		path = "."
	}
	recursive := boolArg(call.Arguments, "recursive")

	resolved, err := t.ws.Resolve(path)
	if err != nil {
		return failed(call, err), nil
	}

	var entries []string
	if recursive {
		entries, err = walkTree(resolved)
	} else {
		entries, err = listFlat(resolved)
	}
	if err != nil {
		if os.IsNotExist(err) {
			return failed(call, fmt.Errorf("directory '%s' not found", path)), nil
		}
		return failed(call, err), nil
	}

	result := &ports.ToolResult{CallID: call.ID, Content: strings.Join(entries, "\n")}
	result.SetMeta("path", resolved)
	result.SetMeta("entries", len(entries))
	result.SetMeta("recursive", recursive)
	return result, nil
}

func listFlat(dir string) ([]string, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	entries := make([]string, 0, len(dirEntries))
	for _, entry := range dirEntries {
		name := entry.Name()
		if entry.IsDir() {
			name += "/"
		}
		entries = append(entries, name)
	}
	sort.Strings(entries)
	return entries, nil
}

func walkTree(root string) ([]string, error) {
	var entries []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		// Version-control internals add noise without value for listings.
		if d.IsDir() && d.Name() == ".git" {
			return filepath.SkipDir
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		if d.IsDir() {
			rel += "/"
		}
		entries = append(entries, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(entries)
	return entries, nil
}

func (t *listFiles) Definition() ports.ToolDefinition {
	return ports.ToolDefinition{
		Name:        "list_files",
		Description: "List directory contents inside the workspace, flat or recursive",
		Parameters: ports.ParameterSchema{
			Type: "object",
			Properties: map[string]ports.Property{
				"path":      {Type: "string", Description: "Directory to list, workspace root when omitted"},
				"recursive": {Type: "boolean", Description: "Walk the whole tree instead of one level"},
			},
			Required: []string{},
		},
	}
}

func (t *listFiles) Metadata() ports.ToolMetadata {
	return ports.ToolMetadata{Name: "list_files", Version: "1.0.0", Category: "file_operations"}
}

type findFiles struct {
	ws *Workspace
}

// NewFindFiles returns the find_files tool, matching base names against a
// glob pattern.
func NewFindFiles(ws *Workspace) ports.ToolExecutor {
	return &findFiles{ws: ws}
}

func (t *findFiles) Execute(_ context.Context, call ports.ToolCall) (*ports.ToolResult, error) {
	pattern := stringArg(call.Arguments, "pattern")
	if pattern == "" {
		return missingArg(call, "pattern"), nil
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return failed(call, fmt.Errorf("invalid pattern %q: %w", pattern, err)), nil
	}
	path := stringArg(call.Arguments, "path")
	if path == "" {
		path = "."
	}
	resolved, err := t.ws.Resolve(path)
	if err != nil {
		return failed(call, err), nil
	}

	var matches []string
	walkErr := filepath.WalkDir(resolved, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if ok, _ := filepath.Match(pattern, d.Name()); ok {
			rel, relErr := filepath.Rel(resolved, p)
			if relErr != nil {
				return relErr
			}
			matches = append(matches, rel)
		}
		return nil
	})
	if walkErr != nil {
		if os.IsNotExist(walkErr) {
			return failed(call, fmt.Errorf("directory '%s' not found", path)), nil
		}
		return failed(call, walkErr), nil
	}
	sort.Strings(matches)

	result := &ports.ToolResult{CallID: call.ID, Content: strings.Join(matches, "\n")}
	result.SetMeta("pattern", pattern)
	result.SetMeta("matches", len(matches))
	return result, nil
}

func (t *findFiles) Definition() ports.ToolDefinition {
	return ports.ToolDefinition{
		Name:        "find_files",
		Description: "Find files by glob pattern under a workspace directory",
		Parameters: ports.ParameterSchema{
			Type: "object",
			Properties: map[string]ports.Property{
				"pattern": {Type: "string", Description: "Glob pattern matched against file names, e.g. *.go"},
				"path":    {Type: "string", Description: "Directory to search, workspace root when omitted"},
			},
			Required: []string{"pattern"},
		},
	}
}

func (t *findFiles) Metadata() ports.ToolMetadata {
	return ports.ToolMetadata{Name: "find_files", Version: "1.0.0", Category: "file_operations"}
}
