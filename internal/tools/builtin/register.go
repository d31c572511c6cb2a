// Package builtin provides the standard workspace tools: file access, listing
// and search, and filtered shell execution. All paths are confined to a single
// workspace root.
package builtin

import (
	"fmt"
	"regexp"

	"github.com/the-erin-collective/comrade-sub004/internal/agent/ports"
	"github.com/the-erin-collective/comrade-sub004/internal/shared/logging"
)

// Config carries what the built-in tools need to operate.
type Config struct {
	// WorkspaceRoot confines every file tool and the shell working
	// directory.
	WorkspaceRoot string
	// ExtraDenyPatterns and ExtraAllowCommands extend the shell command
	// filter defaults.
	ExtraDenyPatterns  []string
	ExtraAllowCommands []string
	Logger             logging.Logger
}

// Registrar is the subset of the tool registry the built-ins need.
type Registrar interface {
	Register(tool ports.ToolExecutor) error
}

// RegisterAll wires the full built-in tool set into reg.
func RegisterAll(reg Registrar, cfg Config) error {
	ws, err := NewWorkspace(cfg.WorkspaceRoot)
	if err != nil {
		return fmt.Errorf("resolve workspace: %w", err)
	}

	extraDeny := make([]*regexp.Regexp, 0, len(cfg.ExtraDenyPatterns))
	for _, raw := range cfg.ExtraDenyPatterns {
		compiled, err := regexp.Compile(raw)
		if err != nil {
			return fmt.Errorf("compile deny pattern %q: %w", raw, err)
		}
		extraDeny = append(extraDeny, compiled)
	}
	filter := NewCommandFilterWith(extraDeny, cfg.ExtraAllowCommands)

	toolset := []ports.ToolExecutor{
		NewFileRead(ws),
		NewFileWrite(ws),
		NewFileCreate(ws),
		NewFileDelete(ws),
		NewFileInfo(ws),
		NewListFiles(ws),
		NewFindFiles(ws),
		NewDirCreate(ws),
		NewWorkdir(ws),
		NewShellExec(ws, filter),
	}

	logger := logging.OrNop(cfg.Logger)
	for _, tool := range toolset {
		if err := reg.Register(tool); err != nil {
			return fmt.Errorf("register %s: %w", tool.Metadata().Name, err)
		}
		logger.Debug("registered builtin tool: %s", tool.Metadata().Name)
	}
	return nil
}
