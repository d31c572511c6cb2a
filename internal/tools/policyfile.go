package tools

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadToolPolicyConfig reads a YAML policy file, layering it over the
// defaults. Durations use Go syntax ("30s", "500ms").
func LoadToolPolicyConfig(path string) (ToolPolicyConfig, error) {
	cfg := DefaultToolPolicyConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read policy file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse policy file %s: %w", path, err)
	}
	return cfg, nil
}

// UnmarshalYAML parses duration fields from Go duration strings, which
// yaml.v3 does not do for time.Duration on its own.
func (c *ToolTimeoutConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Default string            `yaml:"default"`
		PerTool map[string]string `yaml:"per_tool"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.Default != "" {
		d, err := time.ParseDuration(raw.Default)
		if err != nil {
			return fmt.Errorf("timeout.default: %w", err)
		}
		c.Default = d
	}
	if len(raw.PerTool) > 0 {
		if c.PerTool == nil {
			c.PerTool = make(map[string]time.Duration, len(raw.PerTool))
		}
		for name, s := range raw.PerTool {
			d, err := time.ParseDuration(s)
			if err != nil {
				return fmt.Errorf("timeout.per_tool.%s: %w", name, err)
			}
			c.PerTool[name] = d
		}
	}
	return nil
}

func (c *ToolRetryConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		MaxRetries     *int     `yaml:"max_retries"`
		InitialBackoff string   `yaml:"initial_backoff"`
		MaxBackoff     string   `yaml:"max_backoff"`
		BackoffFactor  *float64 `yaml:"backoff_factor"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.MaxRetries != nil {
		c.MaxRetries = *raw.MaxRetries
	}
	if raw.InitialBackoff != "" {
		d, err := time.ParseDuration(raw.InitialBackoff)
		if err != nil {
			return fmt.Errorf("retry.initial_backoff: %w", err)
		}
		c.InitialBackoff = d
	}
	if raw.MaxBackoff != "" {
		d, err := time.ParseDuration(raw.MaxBackoff)
		if err != nil {
			return fmt.Errorf("retry.max_backoff: %w", err)
		}
		c.MaxBackoff = d
	}
	if raw.BackoffFactor != nil {
		c.BackoffFactor = *raw.BackoffFactor
	}
	return nil
}
