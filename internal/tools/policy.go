package tools

import "time"

// Defaults for batch execution policy.
const (
	DefaultMaxConcurrent  = 3
	DefaultAttemptTimeout = 30 * time.Second
	DefaultMaxRetries     = 1
	DefaultInitialBackoff = 1 * time.Second
	DefaultMaxBackoff     = 30 * time.Second
	DefaultBackoffFactor  = 2.0
)

// ToolRetryConfig controls retry behavior for tool executions. MaxRetries is
// the number of retries after the initial attempt.
type ToolRetryConfig struct {
	MaxRetries     int           `yaml:"max_retries" json:"max_retries"`
	InitialBackoff time.Duration `yaml:"initial_backoff" json:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff" json:"max_backoff"`
	BackoffFactor  float64       `yaml:"backoff_factor" json:"backoff_factor"`
}

// ToolTimeoutConfig controls per-attempt timeouts with optional per-tool overrides.
type ToolTimeoutConfig struct {
	Default time.Duration            `yaml:"default" json:"default"`
	PerTool map[string]time.Duration `yaml:"per_tool" json:"per_tool"`
}

// ToolPolicyConfig combines timeout and retry configuration for tool execution.
type ToolPolicyConfig struct {
	Timeout ToolTimeoutConfig `yaml:"timeout" json:"timeout"`
	Retry   ToolRetryConfig   `yaml:"retry" json:"retry"`
}

// DefaultToolPolicyConfig returns the stock policy: 30s attempt timeout, one
// retry with exponential backoff starting at 1s and doubling per attempt.
func DefaultToolPolicyConfig() ToolPolicyConfig {
	return ToolPolicyConfig{
		Timeout: ToolTimeoutConfig{
			Default: DefaultAttemptTimeout,
			PerTool: map[string]time.Duration{},
		},
		Retry: ToolRetryConfig{
			MaxRetries:     DefaultMaxRetries,
			InitialBackoff: DefaultInitialBackoff,
			MaxBackoff:     DefaultMaxBackoff,
			BackoffFactor:  DefaultBackoffFactor,
		},
	}
}

// ToolPolicy determines timeout and retry behavior per tool.
type ToolPolicy interface {
	// TimeoutFor returns the per-attempt timeout for the named tool.
	TimeoutFor(toolName string) time.Duration

	// RetryConfigFor returns the retry configuration for the named tool.
	// Dangerous tools receive zero retries to avoid repeating side effects.
	RetryConfigFor(toolName string, dangerous bool) ToolRetryConfig
}

type configToolPolicy struct {
	cfg ToolPolicyConfig
}

// NewToolPolicy creates a ToolPolicy backed by the given configuration.
func NewToolPolicy(cfg ToolPolicyConfig) ToolPolicy {
	return &configToolPolicy{cfg: cfg}
}

func (p *configToolPolicy) TimeoutFor(toolName string) time.Duration {
	if d, ok := p.cfg.Timeout.PerTool[toolName]; ok && d > 0 {
		return d
	}
	if p.cfg.Timeout.Default > 0 {
		return p.cfg.Timeout.Default
	}
	return DefaultAttemptTimeout
}

func (p *configToolPolicy) RetryConfigFor(toolName string, dangerous bool) ToolRetryConfig {
	cfg := normalizeRetryConfig(p.cfg.Retry)
	if dangerous {
		cfg.MaxRetries = 0
	}
	return cfg
}

func normalizeRetryConfig(cfg ToolRetryConfig) ToolRetryConfig {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = DefaultInitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = cfg.InitialBackoff
	}
	if cfg.BackoffFactor <= 0 {
		cfg.BackoffFactor = DefaultBackoffFactor
	}
	return cfg
}

// backoffDelay computes the sleep before retrying a failed attempt. Attempts
// are zero-indexed: delay = InitialBackoff * BackoffFactor^attempt, capped at
// MaxBackoff.
func backoffDelay(attempt int, cfg ToolRetryConfig) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	delay := float64(cfg.InitialBackoff)
	for i := 0; i < attempt; i++ {
		delay *= cfg.BackoffFactor
	}
	if max := float64(cfg.MaxBackoff); max > 0 && delay > max {
		delay = max
	}
	return time.Duration(delay)
}
