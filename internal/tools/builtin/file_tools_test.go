package builtin

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/the-erin-collective/comrade-sub004/internal/agent/ports"
)

func testWorkspace(t *testing.T) *Workspace {
	t.Helper()
	ws, err := NewWorkspace(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return ws
}

func run(t *testing.T, tool ports.ToolExecutor, args map[string]any) *ports.ToolResult {
	t.Helper()
	result, err := tool.Execute(context.Background(), ports.ToolCall{ID: "t1", Name: tool.Metadata().Name, Arguments: args})
	if err != nil {
		t.Fatalf("%s returned an infrastructure error: %v", tool.Metadata().Name, err)
	}
	if result == nil {
		t.Fatalf("%s returned a nil result", tool.Metadata().Name)
	}
	return result
}

func TestFileWriteThenRead(t *testing.T) {
	ws := testWorkspace(t)
	write := NewFileWrite(ws)
	read := NewFileRead(ws)

	result := run(t, write, map[string]any{"path": "notes/hello.txt", "content": "line one\nline two"})
	if !result.Success() {
		t.Fatalf("write failed: %v", result.Error)
	}

	result = run(t, read, map[string]any{"path": "notes/hello.txt"})
	if !result.Success() {
		t.Fatalf("read failed: %v", result.Error)
	}
	if result.Content != "line one\nline two" {
		t.Fatalf("content = %q", result.Content)
	}
	if result.Metadata["lines"] != 2 {
		t.Fatalf("lines metadata = %v, want 2", result.Metadata["lines"])
	}
}

func TestFileReadMissingFile(t *testing.T) {
	read := NewFileRead(testWorkspace(t))

	result := run(t, read, map[string]any{"path": "nope.txt"})
	if result.Success() {
		t.Fatal("expected failure for missing file")
	}
	if !strings.Contains(result.Error.Error(), "not found") {
		t.Fatalf("error %q should mention not found", result.Error)
	}
}

func TestFileCreateRefusesExisting(t *testing.T) {
	ws := testWorkspace(t)
	create := NewFileCreate(ws)

	if result := run(t, create, map[string]any{"path": "once.txt", "content": "v1"}); !result.Success() {
		t.Fatalf("first create failed: %v", result.Error)
	}
	result := run(t, create, map[string]any{"path": "once.txt", "content": "v2"})
	if result.Success() {
		t.Fatal("second create should fail")
	}
	if !strings.Contains(result.Error.Error(), "already exists") {
		t.Fatalf("unexpected error: %v", result.Error)
	}

	data, err := os.ReadFile(filepath.Join(ws.Root(), "once.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "v1" {
		t.Fatalf("file content = %q, want the original v1", data)
	}
}

func TestFileDelete(t *testing.T) {
	ws := testWorkspace(t)
	path := filepath.Join(ws.Root(), "gone.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	del := NewFileDelete(ws)
	if result := run(t, del, map[string]any{"path": "gone.txt"}); !result.Success() {
		t.Fatalf("delete failed: %v", result.Error)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("file should be gone")
	}

	// Deleting the workspace root itself is refused.
	result := run(t, del, map[string]any{"path": "."})
	if result.Success() {
		t.Fatal("deleting the workspace root should fail")
	}
}

func TestListFilesFlatAndRecursive(t *testing.T) {
	ws := testWorkspace(t)
	mustWrite(t, ws, "a.txt", "a")
	mustWrite(t, ws, "sub/b.txt", "b")
	mustWrite(t, ws, ".git/config", "noise")

	list := NewListFiles(ws)

	result := run(t, list, nil)
	if !result.Success() {
		t.Fatalf("flat list failed: %v", result.Error)
	}
	flat := strings.Split(result.Content, "\n")
	if len(flat) != 3 { // .git/, a.txt, sub/
		t.Fatalf("flat entries = %v", flat)
	}

	result = run(t, list, map[string]any{"recursive": true})
	if !result.Success() {
		t.Fatalf("recursive list failed: %v", result.Error)
	}
	if strings.Contains(result.Content, ".git") {
		t.Fatalf("recursive listing should skip .git: %q", result.Content)
	}
	if !strings.Contains(result.Content, filepath.Join("sub", "b.txt")) {
		t.Fatalf("recursive listing missing nested file: %q", result.Content)
	}
}

func TestFindFilesByGlob(t *testing.T) {
	ws := testWorkspace(t)
	mustWrite(t, ws, "main.go", "package main")
	mustWrite(t, ws, "pkg/util.go", "package pkg")
	mustWrite(t, ws, "README.md", "docs")

	find := NewFindFiles(ws)

	result := run(t, find, map[string]any{"pattern": "*.go"})
	if !result.Success() {
		t.Fatalf("find failed: %v", result.Error)
	}
	matches := strings.Split(result.Content, "\n")
	if len(matches) != 2 {
		t.Fatalf("matches = %v, want the two .go files", matches)
	}

	result = run(t, find, map[string]any{})
	if result.Success() {
		t.Fatal("find without a pattern should fail")
	}
}

func TestDirCreateAndWorkdir(t *testing.T) {
	ws := testWorkspace(t)

	mkdir := NewDirCreate(ws)
	if result := run(t, mkdir, map[string]any{"path": "deep/nested/dir"}); !result.Success() {
		t.Fatalf("dir_create failed: %v", result.Error)
	}
	info, err := os.Stat(filepath.Join(ws.Root(), "deep", "nested", "dir"))
	if err != nil || !info.IsDir() {
		t.Fatalf("directory not created: %v", err)
	}

	wd := NewWorkdir(ws)
	result := run(t, wd, nil)
	if !result.Success() || result.Content != ws.Root() {
		t.Fatalf("workdir = %q, want %q", result.Content, ws.Root())
	}
}

func TestRegisterAllWiresEveryTool(t *testing.T) {
	reg := &collectingRegistrar{}
	err := RegisterAll(reg, Config{WorkspaceRoot: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}

	want := []string{
		"file_read", "file_write", "file_create", "file_delete", "file_info",
		"list_files", "find_files", "dir_create", "workdir", "shell_exec",
	}
	if len(reg.names) != len(want) {
		t.Fatalf("registered %d tools, want %d: %v", len(reg.names), len(want), reg.names)
	}
	for _, name := range want {
		found := false
		for _, got := range reg.names {
			if got == name {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("tool %s not registered", name)
		}
	}
}

type collectingRegistrar struct {
	names []string
}

func (c *collectingRegistrar) Register(tool ports.ToolExecutor) error {
	c.names = append(c.names, tool.Metadata().Name)
	return nil
}

func mustWrite(t *testing.T, ws *Workspace, rel, content string) {
	t.Helper()
	path := filepath.Join(ws.Root(), rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
