package main

import (
	"strings"
	"testing"

	"github.com/the-erin-collective/comrade-sub004/internal/agent/ports"
)

func TestFormatToolDefinition(t *testing.T) {
	def := ports.ToolDefinition{
		Name:        "file_read",
		Description: "Read a file from the workspace",
		Parameters: ports.ParameterSchema{
			Type: "object",
			Properties: map[string]ports.Property{
				"path":     {Type: "string", Description: "file path relative to the workspace"},
				"encoding": {Type: "string", Description: "text encoding"},
			},
			Required: []string{"path"},
		},
	}

	out := formatToolDefinition(def)
	if !strings.Contains(out, "file_read") || !strings.Contains(out, "Read a file from the workspace") {
		t.Fatalf("output missing the tool header:\n%s", out)
	}
	if !strings.Contains(out, "path: string (required) - file path relative to the workspace") {
		t.Fatalf("output missing the required parameter line:\n%s", out)
	}
	if !strings.Contains(out, "encoding: string - text encoding") {
		t.Fatalf("output missing the optional parameter line:\n%s", out)
	}
	if strings.Contains(out, "—") {
		t.Fatalf("output should use a plain separator:\n%s", out)
	}
	if strings.Index(out, "encoding:") > strings.Index(out, "path:") {
		t.Fatalf("parameters should be sorted by name:\n%s", out)
	}
}
