package builtin

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWorkspaceResolve(t *testing.T) {
	root := t.TempDir()
	ws, err := NewWorkspace(root)
	if err != nil {
		t.Fatal(err)
	}

	resolved, err := ws.Resolve("sub/file.txt")
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(ws.Root(), "sub", "file.txt"); resolved != want {
		t.Fatalf("resolved = %q, want %q", resolved, want)
	}

	// Absolute paths inside the root pass through.
	inside := filepath.Join(ws.Root(), "inside.txt")
	resolved, err = ws.Resolve(inside)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != inside {
		t.Fatalf("resolved = %q, want %q", resolved, inside)
	}
}

func TestWorkspaceResolveRejectsEscapes(t *testing.T) {
	ws, err := NewWorkspace(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{
		"../outside.txt",
		"sub/../../outside.txt",
		"/etc/passwd",
		"..",
	} {
		if _, err := ws.Resolve(path); err == nil {
			t.Fatalf("Resolve(%q) should be denied", path)
		} else if !strings.Contains(err.Error(), "Access denied") {
			t.Fatalf("Resolve(%q) error %q should mention access denial", path, err)
		}
	}
}

func TestWorkspaceResolveSymlinks(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	ws, err := NewWorkspace(root)
	if err != nil {
		t.Fatal(err)
	}

	escape := filepath.Join(root, "escape")
	if err := os.Symlink(outside, escape); err != nil {
		t.Skipf("cannot create symlinks: %v", err)
	}

	if _, err := ws.Resolve("escape/secret.txt"); err == nil {
		t.Fatal("symlink pointing outside the workspace should be denied")
	} else if !strings.Contains(err.Error(), "Access denied") {
		t.Fatalf("error %q should mention access denial", err)
	}

	// A link that stays inside the workspace is fine.
	if err := os.Mkdir(filepath.Join(root, "data"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(root, "data"), filepath.Join(root, "alias")); err != nil {
		t.Fatal(err)
	}
	if _, err := ws.Resolve("alias/file.txt"); err != nil {
		t.Fatalf("internal symlink should resolve: %v", err)
	}
}

func TestWorkspaceResolveEmptyPath(t *testing.T) {
	ws, err := NewWorkspace(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ws.Resolve("  "); err == nil {
		t.Fatal("empty path should be rejected")
	}
}

func TestNewWorkspaceRequiresRoot(t *testing.T) {
	if _, err := NewWorkspace(""); err == nil {
		t.Fatal("empty workspace root should be rejected")
	}
}
