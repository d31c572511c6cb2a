package config

import "github.com/google/uuid"

// NewProviderID returns a fresh provider identifier.
func NewProviderID() string {
	return "provider-" + uuid.NewString()
}

// NewAgentID returns a fresh agent identifier.
func NewAgentID() string {
	return "agent-" + uuid.NewString()
}

// secretKey is where a provider's credential lives in the secret store.
func secretKey(providerID string) string {
	return "apiKey:" + providerID
}
