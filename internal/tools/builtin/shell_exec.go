package builtin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/the-erin-collective/comrade-sub004/internal/agent/ports"
)

// shellOutputLimit truncates captured streams so one noisy command cannot
// blow up a result payload.
const shellOutputLimit = 64 * 1024

type shellExec struct {
	ws     *Workspace
	filter *CommandFilter
}

// NewShellExec returns the shell_exec tool. Commands run through bash -c in
// the workspace root after passing the command filter.
func NewShellExec(ws *Workspace, filter *CommandFilter) ports.ToolExecutor {
	if filter == nil {
		filter = NewCommandFilter()
	}
	return &shellExec{ws: ws, filter: filter}
}

func (t *shellExec) Execute(ctx context.Context, call ports.ToolCall) (*ports.ToolResult, error) {
	command := stringArg(call.Arguments, "command")
	if command == "" {
		return missingArg(call, "command"), nil
	}
	if err := t.filter.Check(command); err != nil {
		return failed(call, err), nil
	}

	workDir := t.ws.Root()
	if sub := stringArg(call.Arguments, "cwd"); sub != "" {
		resolved, err := t.ws.Resolve(sub)
		if err != nil {
			return failed(call, err), nil
		}
		workDir = resolved
	}

	cmd := exec.CommandContext(ctx, "bash", "-c", command)
	cmd.Dir = workDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	exitCode := 0
	var failure error
	switch {
	case runErr == nil:
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		failure = fmt.Errorf("command timed out after %s", elapsed.Round(time.Millisecond))
		exitCode = -1
	case errors.Is(ctx.Err(), context.Canceled):
		failure = fmt.Errorf("command was cancelled")
		exitCode = -1
	default:
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			exitCode = exitErr.ExitCode()
			if exitCode == -1 {
				failure = fmt.Errorf("command terminated by signal")
			} else {
				failure = fmt.Errorf("command exited with status %d", exitCode)
			}
		} else {
			return failed(call, fmt.Errorf("start command: %w", runErr)), nil
		}
	}

	payload := map[string]any{
		"command":   command,
		"stdout":    truncate(stdout.String(), shellOutputLimit),
		"stderr":    truncate(stderr.String(), shellOutputLimit),
		"exit_code": exitCode,
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return failed(call, err), nil
	}

	result := &ports.ToolResult{CallID: call.ID, Content: string(encoded), Error: failure}
	result.SetMeta("exit_code", exitCode)
	result.SetMeta("duration_ms", elapsed.Milliseconds())
	result.SetMeta("cwd", workDir)
	return result, nil
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "\n... [output truncated]"
}

func (t *shellExec) Definition() ports.ToolDefinition {
	return ports.ToolDefinition{
		Name:        "shell_exec",
		Description: "Run a shell command in the workspace; destructive commands are blocked",
		Parameters: ports.ParameterSchema{
			Type: "object",
			Properties: map[string]ports.Property{
				"command": {Type: "string", Description: "Command line passed to bash -c"},
				"cwd":     {Type: "string", Description: "Working directory relative to the workspace root, root when omitted"},
			},
			Required: []string{"command"},
		},
	}
}

func (t *shellExec) Metadata() ports.ToolMetadata {
	return ports.ToolMetadata{Name: "shell_exec", Version: "1.0.0", Category: "system", Dangerous: true}
}
