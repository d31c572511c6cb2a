package tools

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/the-erin-collective/comrade-sub004/internal/agent/ports"
	comerrors "github.com/the-erin-collective/comrade-sub004/internal/errors"
)

// stubTool is a scriptable tool for registry and executor tests.
type stubTool struct {
	name        string
	description string
	params      ports.ParameterSchema
	dangerous   bool
	execute     func(ctx context.Context, call ports.ToolCall) (*ports.ToolResult, error)
}

func (s *stubTool) Execute(ctx context.Context, call ports.ToolCall) (*ports.ToolResult, error) {
	if s.execute == nil {
		return &ports.ToolResult{CallID: call.ID, Content: "ok"}, nil
	}
	return s.execute(ctx, call)
}

func (s *stubTool) Definition() ports.ToolDefinition {
	return ports.ToolDefinition{Name: s.name, Description: s.description, Parameters: s.params}
}

func (s *stubTool) Metadata() ports.ToolMetadata {
	return ports.ToolMetadata{Name: s.name, Version: "1.0.0", Dangerous: s.dangerous}
}

func newStub(name string) *stubTool {
	return &stubTool{name: name, description: "stub tool " + name}
}

func TestExecuteUnknownTool(t *testing.T) {
	r := NewRegistry()

	result := r.Execute(context.Background(), ports.ToolCall{ID: "c1", Name: "nonexistent"})
	if result == nil {
		t.Fatal("expected a result, got nil")
	}
	if result.Success() {
		t.Fatal("expected failure for unknown tool")
	}
	if got := result.Error.Error(); got != "Tool 'nonexistent' not found" {
		t.Fatalf("unexpected error message: %q", got)
	}
	if !comerrors.IsNotFound(result.Error) {
		t.Fatalf("expected NotFoundError, got %T", result.Error)
	}
	if got := result.Metadata[ports.MetaToolName]; got != "nonexistent" {
		t.Fatalf("metadata tool name = %v, want nonexistent", got)
	}
}

func TestExecuteMissingRequiredParameter(t *testing.T) {
	r := NewRegistry()
	tool := newStub("echo")
	tool.params = ports.ParameterSchema{
		Type: "object",
		Properties: map[string]ports.Property{
			"required_param": {Type: "string"},
		},
		Required: []string{"required_param"},
	}
	if err := r.Register(tool); err != nil {
		t.Fatal(err)
	}

	result := r.Execute(context.Background(), ports.ToolCall{ID: "c1", Name: "echo", Arguments: map[string]any{}})
	if result.Success() {
		t.Fatal("expected failure for missing required parameter")
	}
	if !strings.Contains(result.Error.Error(), "required_param") {
		t.Fatalf("error %q should mention the missing parameter", result.Error)
	}
}

func TestExecuteWrongParameterType(t *testing.T) {
	r := NewRegistry()
	tool := newStub("echo")
	tool.params = ports.ParameterSchema{
		Type:       "object",
		Properties: map[string]ports.Property{"count": {Type: "number"}},
	}
	if err := r.Register(tool); err != nil {
		t.Fatal(err)
	}

	result := r.Execute(context.Background(), ports.ToolCall{
		ID: "c1", Name: "echo", Arguments: map[string]any{"count": "three"},
	})
	if result.Success() {
		t.Fatal("expected type mismatch failure")
	}
	if !strings.Contains(result.Error.Error(), "expected number") {
		t.Fatalf("unexpected error: %v", result.Error)
	}
}

func TestRegisterReplacesSameName(t *testing.T) {
	r := NewRegistry()
	first := newStub("dup")
	first.description = "first registration"
	second := newStub("dup")
	second.description = "second registration"

	if err := r.Register(first); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(second); err != nil {
		t.Fatal(err)
	}

	if r.Size() != 1 {
		t.Fatalf("size = %d, want 1", r.Size())
	}
	tool, err := r.Get("dup")
	if err != nil {
		t.Fatal(err)
	}
	if got := tool.Definition().Description; got != "second registration" {
		t.Fatalf("description = %q, want the second registration", got)
	}
}

func TestRegisterRejectsInvalidTools(t *testing.T) {
	r := NewRegistry()

	if err := r.Register(nil); !comerrors.IsRegistration(err) {
		t.Fatalf("nil tool: got %v, want RegistrationError", err)
	}
	unnamed := &stubTool{description: "has no name"}
	if err := r.Register(unnamed); !comerrors.IsRegistration(err) {
		t.Fatalf("unnamed tool: got %v, want RegistrationError", err)
	}
	undescribed := &stubTool{name: "bare"}
	if err := r.Register(undescribed); !comerrors.IsRegistration(err) {
		t.Fatalf("undescribed tool: got %v, want RegistrationError", err)
	}
	if r.Size() != 0 {
		t.Fatalf("size = %d after rejected registrations, want 0", r.Size())
	}
}

func TestListNormalizesAndSorts(t *testing.T) {
	r := NewRegistry()
	bare := newStub("zeta")
	if err := r.Register(bare); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(newStub("alpha")); err != nil {
		t.Fatal(err)
	}

	defs := r.List()
	if len(defs) != 2 {
		t.Fatalf("len(defs) = %d, want 2", len(defs))
	}
	if defs[0].Name != "alpha" || defs[1].Name != "zeta" {
		t.Fatalf("definitions not sorted by name: %s, %s", defs[0].Name, defs[1].Name)
	}
	for _, def := range defs {
		if def.Parameters.Type != "object" {
			t.Fatalf("%s: parameters type = %q, want object", def.Name, def.Parameters.Type)
		}
		if def.Parameters.Properties == nil {
			t.Fatalf("%s: properties must be non-nil", def.Name)
		}
		if def.Parameters.Required == nil {
			t.Fatalf("%s: required must be non-nil", def.Name)
		}
	}
}

func TestListReturnsIndependentCopies(t *testing.T) {
	r := NewRegistry()
	tool := newStub("alpha")
	tool.params = ports.ParameterSchema{
		Type: "object",
		Properties: map[string]ports.Property{
			"path": {Type: "string", Description: "a path"},
		},
		Required: []string{"path"},
	}
	if err := r.Register(tool); err != nil {
		t.Fatal(err)
	}

	first := r.List()
	first[0].Name = "mangled"
	first[0].Parameters.Properties["path"] = ports.Property{Type: "boolean"}
	first[0].Parameters.Required[0] = "mangled"

	second := r.List()
	if second[0].Name != "alpha" {
		t.Fatalf("name = %q, caller mutation leaked into the registry", second[0].Name)
	}
	if got := second[0].Parameters.Properties["path"].Type; got != "string" {
		t.Fatalf("property type = %q, caller mutation leaked into the registry", got)
	}
	if got := second[0].Parameters.Required[0]; got != "path" {
		t.Fatalf("required = %q, caller mutation leaked into the registry", got)
	}
}

func TestExecutionTimeCoversToolBody(t *testing.T) {
	r := NewRegistry()
	tool := newStub("sleepy")
	tool.execute = func(_ context.Context, call ports.ToolCall) (*ports.ToolResult, error) {
		time.Sleep(40 * time.Millisecond)
		return &ports.ToolResult{CallID: call.ID, Content: "done"}, nil
	}
	if err := r.Register(tool); err != nil {
		t.Fatal(err)
	}

	result := r.Execute(context.Background(), ports.ToolCall{ID: "c1", Name: "sleepy"})
	if !result.Success() {
		t.Fatalf("unexpected failure: %v", result.Error)
	}
	ms, ok := result.Metadata[ports.MetaExecutionTime].(int64)
	if !ok {
		t.Fatalf("execution time metadata has type %T", result.Metadata[ports.MetaExecutionTime])
	}
	if ms < 35 {
		t.Fatalf("execution time = %dms, should cover the 40ms tool body", ms)
	}
}

func TestExecuteRecoversFromPanic(t *testing.T) {
	r := NewRegistry()
	tool := newStub("bomb")
	tool.execute = func(context.Context, ports.ToolCall) (*ports.ToolResult, error) {
		panic("kaboom")
	}
	if err := r.Register(tool); err != nil {
		t.Fatal(err)
	}

	result := r.Execute(context.Background(), ports.ToolCall{ID: "c1", Name: "bomb"})
	if result.Success() {
		t.Fatal("expected failure from panicking tool")
	}
	if !strings.Contains(result.Error.Error(), "kaboom") {
		t.Fatalf("unexpected error: %v", result.Error)
	}
	if got := result.Metadata[ports.MetaToolName]; got != "bomb" {
		t.Fatalf("metadata tool name = %v, want bomb", got)
	}
}

func TestExecuteToolErrorBecomesResult(t *testing.T) {
	r := NewRegistry()
	tool := newStub("flaky")
	tool.execute = func(_ context.Context, call ports.ToolCall) (*ports.ToolResult, error) {
		return nil, errors.New("disk on fire")
	}
	if err := r.Register(tool); err != nil {
		t.Fatal(err)
	}

	result := r.Execute(context.Background(), ports.ToolCall{ID: "c1", Name: "flaky"})
	if result.Success() {
		t.Fatal("expected failure")
	}
	if !strings.Contains(result.Error.Error(), "disk on fire") {
		t.Fatalf("unexpected error: %v", result.Error)
	}
}

func TestResultCacheSkipsSecondInvocation(t *testing.T) {
	cache, err := NewResultCache(CacheConfig{MaxSize: 8, TTL: 0})
	if err != nil {
		t.Fatal(err)
	}
	r := NewRegistry(WithResultCache(cache))

	var invocations atomic.Int32
	tool := newStub("lookup")
	tool.execute = func(_ context.Context, call ports.ToolCall) (*ports.ToolResult, error) {
		invocations.Add(1)
		return &ports.ToolResult{CallID: call.ID, Content: "data"}, nil
	}
	if err := r.Register(tool); err != nil {
		t.Fatal(err)
	}

	args := map[string]any{"key": "value"}
	first := r.Execute(context.Background(), ports.ToolCall{ID: "c1", Name: "lookup", Arguments: args})
	second := r.Execute(context.Background(), ports.ToolCall{ID: "c2", Name: "lookup", Arguments: args})

	if !first.Success() || !second.Success() {
		t.Fatal("both executions should succeed")
	}
	if got := invocations.Load(); got != 1 {
		t.Fatalf("tool invoked %d times, want 1", got)
	}
	if second.CallID != "c2" {
		t.Fatalf("cached result call id = %q, want c2", second.CallID)
	}
	if second.Metadata["cache_hit"] != true {
		t.Fatal("second result should be marked as a cache hit")
	}
}

func TestUnregisterAndClear(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(newStub("a")); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(newStub("b")); err != nil {
		t.Fatal(err)
	}

	if err := r.Unregister("a"); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Get("a"); !comerrors.IsNotFound(err) {
		t.Fatalf("expected NotFoundError after unregister, got %v", err)
	}
	if r.Size() != 1 {
		t.Fatalf("size = %d, want 1", r.Size())
	}

	r.Clear()
	if r.Size() != 0 {
		t.Fatalf("size = %d after clear, want 0", r.Size())
	}
	if defs := r.List(); len(defs) != 0 {
		t.Fatalf("list should be empty after clear, got %d", len(defs))
	}
}
