package tools

import (
	"encoding/json"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/the-erin-collective/comrade-sub004/internal/agent/ports"
)

const (
	defaultCacheMaxSize = 256
	defaultCacheTTL     = 5 * time.Minute
)

// CacheConfig configures the tool result cache.
type CacheConfig struct {
	// MaxSize is the maximum number of entries in the LRU cache.
	MaxSize int
	// TTL is how long a cached result remains valid.
	TTL time.Duration
	// ExcludeTools lists tool names whose results must never be cached
	// (anything with side effects).
	ExcludeTools []string
}

// DefaultCacheConfig returns defaults that exclude every mutating built-in.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		MaxSize: defaultCacheMaxSize,
		TTL:     defaultCacheTTL,
		ExcludeTools: []string{
			"file_write",
			"file_create",
			"file_delete",
			"dir_create",
			"shell_exec",
		},
	}
}

type cacheEntry struct {
	result   ports.ToolResult
	metadata map[string]any
	storedAt time.Time
}

// ResultCache is an LRU cache with TTL over successful read-only tool
// results, keyed by tool name plus canonicalized arguments.
type ResultCache struct {
	entries *lru.Cache[string, cacheEntry]
	ttl     time.Duration
	exclude map[string]struct{}
}

// NewResultCache creates a ResultCache from the given configuration.
func NewResultCache(cfg CacheConfig) (*ResultCache, error) {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = defaultCacheMaxSize
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultCacheTTL
	}
	entries, err := lru.New[string, cacheEntry](cfg.MaxSize)
	if err != nil {
		return nil, fmt.Errorf("create result cache: %w", err)
	}
	exclude := make(map[string]struct{}, len(cfg.ExcludeTools))
	for _, name := range cfg.ExcludeTools {
		exclude[name] = struct{}{}
	}
	return &ResultCache{entries: entries, ttl: cfg.TTL, exclude: exclude}, nil
}

func (c *ResultCache) cacheable(toolName string) bool {
	_, excluded := c.exclude[toolName]
	return !excluded
}

func cacheKey(toolName string, args map[string]any) (string, bool) {
	// encoding/json sorts map keys, so the key is canonical.
	encoded, err := json.Marshal(args)
	if err != nil {
		return "", false
	}
	return toolName + ":" + string(encoded), true
}

// Get returns a copy of a fresh cached result for the given call shape.
func (c *ResultCache) Get(toolName string, args map[string]any) (*ports.ToolResult, bool) {
	if c == nil || !c.cacheable(toolName) {
		return nil, false
	}
	key, ok := cacheKey(toolName, args)
	if !ok {
		return nil, false
	}
	entry, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	if time.Since(entry.storedAt) > c.ttl {
		c.entries.Remove(key)
		return nil, false
	}
	result := entry.result
	result.Metadata = make(map[string]any, len(entry.metadata)+1)
	for k, v := range entry.metadata {
		result.Metadata[k] = v
	}
	result.Metadata["cache_hit"] = true
	return &result, true
}

// Put stores a successful result. Failed results are never cached.
func (c *ResultCache) Put(toolName string, args map[string]any, result *ports.ToolResult) {
	if c == nil || result == nil || !result.Success() || !c.cacheable(toolName) {
		return
	}
	key, ok := cacheKey(toolName, args)
	if !ok {
		return
	}
	metadata := make(map[string]any, len(result.Metadata))
	for k, v := range result.Metadata {
		metadata[k] = v
	}
	c.entries.Add(key, cacheEntry{
		result:   *result,
		metadata: metadata,
		storedAt: time.Now(),
	})
}

// Len returns the number of cached entries.
func (c *ResultCache) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}

// Purge drops every cached entry.
func (c *ResultCache) Purge() {
	if c == nil {
		return
	}
	c.entries.Purge()
}
