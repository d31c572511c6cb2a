// Package config persists provider and agent configuration and enforces the
// lifecycle invariants between them: an agent always references an existing,
// active provider, and provider deactivation or deletion cascades over its
// agents.
package config

import "time"

// ProviderType distinguishes hosted APIs from endpoints on the local network.
type ProviderType string

const (
	ProviderCloud        ProviderType = "cloud"
	ProviderLocalNetwork ProviderType = "local-network"
)

// Provider is a persisted model-provider configuration. Credentials never
// live on this record; they go through the SecretStore keyed by the provider
// id. Local-network fields are empty for cloud providers.
type Provider struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Type     ProviderType `json:"type"`
	Vendor   string       `json:"provider"`
	IsActive bool         `json:"isActive"`

	Endpoint string `json:"endpoint,omitempty"`
	Host     string `json:"host,omitempty"`
	Port     int    `json:"port,omitempty"`
	Protocol string `json:"protocol,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AgentCapabilities describes what an agent configuration is suited for.
type AgentCapabilities struct {
	HasVision      bool   `json:"hasVision"`
	HasToolUse     bool   `json:"hasToolUse"`
	ReasoningDepth string `json:"reasoningDepth,omitempty"`
	Speed          string `json:"speed,omitempty"`
	CostTier       string `json:"costTier,omitempty"`
}

// Agent is a persisted agent configuration bound to exactly one provider by
// id. The reference is lookup-only; the provider does not own its agents.
type Agent struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	ProviderID   string            `json:"providerId"`
	Model        string            `json:"model"`
	Temperature  float64           `json:"temperature"`
	MaxTokens    int               `json:"maxTokens"`
	Timeout      time.Duration     `json:"timeout"`
	SystemPrompt string            `json:"systemPrompt,omitempty"`
	Capabilities AgentCapabilities `json:"capabilities"`
	IsActive     bool              `json:"isActive"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
