package builtin

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Workspace confines file tools to a single directory tree. Every built-in
// that touches the filesystem resolves paths through it.
type Workspace struct {
	root string
}

// NewWorkspace creates a workspace rooted at dir.
func NewWorkspace(dir string) (*Workspace, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("workspace root cannot be empty")
	}
	abs, err := filepath.Abs(filepath.Clean(dir))
	if err != nil {
		return nil, fmt.Errorf("resolve workspace root: %w", err)
	}
	return &Workspace{root: abs}, nil
}

// Root returns the absolute workspace root.
func (w *Workspace) Root() string {
	return w.root
}

// Resolve turns raw into an absolute path and enforces the workspace
// boundary. Relative paths are joined onto the root; absolute paths must
// already live under it.
func (w *Workspace) Resolve(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	resolved := trimmed
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(w.root, resolved)
	}
	resolved = filepath.Clean(resolved)

	if !pathWithin(w.root, resolved) {
		return "", fmt.Errorf("Access denied: path %s escapes the workspace", raw)
	}
	if !w.realPathWithin(resolved) {
		return "", fmt.Errorf("Access denied: path %s escapes the workspace", raw)
	}
	return resolved, nil
}

// realPathWithin checks the boundary again with symlinks resolved, so a link
// inside the workspace cannot point file tools outside it. The path itself
// may not exist yet; the check follows the longest existing prefix.
func (w *Workspace) realPathWithin(resolved string) bool {
	realRoot, err := filepath.EvalSymlinks(w.root)
	if err != nil {
		return true
	}

	current := resolved
	remainder := ""
	for {
		real, err := filepath.EvalSymlinks(current)
		if err == nil {
			return pathWithin(realRoot, filepath.Join(real, remainder))
		}
		if !os.IsNotExist(err) {
			return true
		}
		parent := filepath.Dir(current)
		if parent == current {
			return true
		}
		remainder = filepath.Join(filepath.Base(current), remainder)
		current = parent
	}
}

func pathWithin(base, target string) bool {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
