package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/the-erin-collective/comrade-sub004/internal/agent/ports"
	comerrors "github.com/the-erin-collective/comrade-sub004/internal/errors"
	"github.com/the-erin-collective/comrade-sub004/internal/shared/logging"
)

// Registry implements ports.ToolRegistry backed by a name-keyed map. It owns
// per-call argument validation and normalizes every execution outcome into a
// ToolResult; its Execute entry point never returns a Go error and never
// panics.
type Registry struct {
	mu         sync.RWMutex
	tools      map[string]ports.ToolExecutor
	cachedDefs []ports.ToolDefinition
	defsDirty  bool
	cache      *ResultCache
	logger     logging.Logger
}

// RegistryOption customizes a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(logger logging.Logger) RegistryOption {
	return func(r *Registry) { r.logger = logger }
}

// WithResultCache enables LRU caching of read-only tool results.
func WithResultCache(cache *ResultCache) RegistryOption {
	return func(r *Registry) { r.cache = cache }
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		tools:     make(map[string]ports.ToolExecutor),
		defsDirty: true,
		logger:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.OrNop(r.logger)
	return r
}

// Register adds a tool, replacing any existing tool with the same name
// (last-write-wins, registry size unchanged on replacement).
func (r *Registry) Register(tool ports.ToolExecutor) error {
	if tool == nil {
		return comerrors.NewRegistration("tool must not be nil")
	}
	def := tool.Definition()
	name := strings.TrimSpace(def.Name)
	if name == "" {
		name = strings.TrimSpace(tool.Metadata().Name)
	}
	if name == "" {
		return comerrors.NewRegistration("tool name must not be empty")
	}
	if strings.TrimSpace(def.Description) == "" {
		return comerrors.NewRegistration("tool %s: description must not be empty", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[name]; exists {
		r.logger.Debug("replacing tool %s", name)
	}
	r.tools[name] = tool
	r.defsDirty = true
	return nil
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (ports.ToolExecutor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	if !ok {
		return nil, comerrors.NewNotFound("Tool", name)
	}
	return tool, nil
}

// Unregister removes a tool. Removing an unknown name is a no-op.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tools, name)
	r.defsDirty = true
	return nil
}

// Size returns the number of registered tools.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Clear removes every registered tool.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools = make(map[string]ports.ToolExecutor)
	r.cachedDefs = nil
	r.defsDirty = true
}

// List returns definitions for all registered tools, sorted by name. Each
// definition is normalized into the stable schema shape: type "object", a
// non-nil properties map and a non-nil required list. The returned slice is
// an independent copy; mutating it cannot corrupt the registry.
func (r *Registry) List() []ports.ToolDefinition {
	r.mu.RLock()
	if !r.defsDirty && r.cachedDefs != nil {
		defs := copyDefinitions(r.cachedDefs)
		r.mu.RUnlock()
		return defs
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.defsDirty && r.cachedDefs != nil {
		return copyDefinitions(r.cachedDefs)
	}
	defs := make([]ports.ToolDefinition, 0, len(r.tools))
	for _, tool := range r.tools {
		defs = append(defs, normalizeDefinition(tool.Definition()))
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	r.cachedDefs = defs
	r.defsDirty = false
	return copyDefinitions(defs)
}

// Schemas is an alias for List, named for AI function-calling consumers.
func (r *Registry) Schemas() []ports.ToolDefinition {
	return r.List()
}

// copyDefinitions clones the definition list deeply enough that callers
// cannot reach the cached maps and slices.
func copyDefinitions(defs []ports.ToolDefinition) []ports.ToolDefinition {
	out := make([]ports.ToolDefinition, len(defs))
	for i, def := range defs {
		props := make(map[string]ports.Property, len(def.Parameters.Properties))
		for name, prop := range def.Parameters.Properties {
			if len(prop.Enum) > 0 {
				prop.Enum = append([]any(nil), prop.Enum...)
			}
			props[name] = prop
		}
		def.Parameters.Properties = props
		required := make([]string, len(def.Parameters.Required))
		copy(required, def.Parameters.Required)
		def.Parameters.Required = required
		out[i] = def
	}
	return out
}

func normalizeDefinition(def ports.ToolDefinition) ports.ToolDefinition {
	if def.Parameters.Type == "" {
		def.Parameters.Type = "object"
	}
	if def.Parameters.Properties == nil {
		def.Parameters.Properties = map[string]ports.Property{}
	}
	if def.Parameters.Required == nil {
		def.Parameters.Required = []string{}
	}
	return def
}

// Execute runs a single tool call. All failure modes (unknown tool, invalid
// arguments, tool error, panic) come back as a failed ToolResult; the method
// itself never fails.
func (r *Registry) Execute(ctx context.Context, call ports.ToolCall) *ports.ToolResult {
	tool, err := r.Get(call.Name)
	if err != nil {
		return r.finishResult(&ports.ToolResult{CallID: call.ID, Error: err}, call, time.Now())
	}

	if err := validateArguments(tool.Definition().Parameters, call.Arguments); err != nil {
		return r.finishResult(&ports.ToolResult{CallID: call.ID, Error: err}, call, time.Now())
	}

	if r.cache != nil {
		if cached, ok := r.cache.Get(call.Name, call.Arguments); ok {
			cached.CallID = call.ID
			return r.finishResult(cached, call, time.Now())
		}
	}

	// Execution time counts the tool body only, not lookup or validation.
	start := time.Now()
	result := r.invoke(ctx, tool, call)
	if result == nil {
		result = &ports.ToolResult{
			CallID: call.ID,
			Error:  fmt.Errorf("tool %s returned no result", call.Name),
		}
	}
	result = r.finishResult(result, call, start)

	if r.cache != nil && result.Success() {
		r.cache.Put(call.Name, call.Arguments, result)
	}
	return result
}

// invoke calls the tool with panic recovery so a misbehaving tool body cannot
// crash the batch.
func (r *Registry) invoke(ctx context.Context, tool ports.ToolExecutor, call ports.ToolCall) (result *ports.ToolResult) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("tool %s panicked: %v", call.Name, rec)
			result = &ports.ToolResult{
				CallID: call.ID,
				Error:  fmt.Errorf("tool %s panicked: %v", call.Name, rec),
			}
		}
	}()

	result, err := tool.Execute(ctx, call)
	if err != nil {
		if result == nil {
			result = &ports.ToolResult{CallID: call.ID}
		}
		if result.Error == nil {
			result.Error = err
		}
	}
	return result
}

// finishResult stamps the invariant metadata fields on every outcome: the
// invoked tool name, the arguments, the wall-clock execution time and a
// timestamp. Tool-specific metadata set by the tool itself is preserved.
func (r *Registry) finishResult(result *ports.ToolResult, call ports.ToolCall, start time.Time) *ports.ToolResult {
	if result.CallID == "" {
		result.CallID = call.ID
	}
	result.SetMeta(ports.MetaToolName, call.Name)
	result.SetMeta(ports.MetaArguments, call.Arguments)
	result.SetMeta(ports.MetaExecutionTime, time.Since(start).Milliseconds())
	result.SetMeta(ports.MetaTimestamp, time.Now().UTC().Format(time.RFC3339Nano))
	return result
}

var _ ports.ToolRegistry = (*Registry)(nil)
