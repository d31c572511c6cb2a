package config

import (
	"testing"

	"github.com/stretchr/testify/require"

	comerrors "github.com/the-erin-collective/comrade-sub004/internal/errors"
)

func newTestManager(t *testing.T) (*Manager, *MemorySecretStore) {
	t.Helper()
	secrets := NewMemorySecretStore()
	return NewManager(NewMemoryStore(), secrets), secrets
}

func createProvider(t *testing.T, m *Manager, name string) *Provider {
	t.Helper()
	provider, err := m.CreateProvider(NewProviderParams{
		Name:   name,
		Type:   ProviderCloud,
		Vendor: "openai",
		APIKey: "sk-test-" + name,
	})
	require.NoError(t, err)
	return provider
}

func createAgent(t *testing.T, m *Manager, name, providerID string) *Agent {
	t.Helper()
	agent, err := m.CreateAgent(NewAgentParams{
		Name:       name,
		ProviderID: providerID,
		Model:      "gpt-4o",
	})
	require.NoError(t, err)
	return agent
}

func TestCreateProviderStoresSecret(t *testing.T) {
	m, secrets := newTestManager(t)
	provider := createProvider(t, m, "main")

	require.True(t, provider.IsActive)

	key, ok, err := secrets.Get(secretKey(provider.ID))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "sk-test-main", key)

	// The persisted record never carries the credential.
	listed, err := m.ListProviders()
	require.NoError(t, err)
	require.Len(t, listed, 1)
}

func TestCreateProviderValidation(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.CreateProvider(NewProviderParams{Name: "  ", Type: ProviderCloud, APIKey: "k"})
	require.True(t, comerrors.IsValidation(err))

	_, err = m.CreateProvider(NewProviderParams{Name: "x", Type: "mainframe"})
	require.True(t, comerrors.IsValidation(err))

	_, err = m.CreateProvider(NewProviderParams{Name: "x", Type: ProviderLocalNetwork})
	require.True(t, comerrors.IsValidation(err))

	_, err = m.CreateProvider(NewProviderParams{
		Name: "ollama", Type: ProviderLocalNetwork, Host: "127.0.0.1", Port: 11434, Protocol: "http",
	})
	require.NoError(t, err)
}

func TestCreateAgentRequiresExistingActiveProvider(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.CreateAgent(NewAgentParams{Name: "a", ProviderID: "provider-missing", Model: "m"})
	require.True(t, comerrors.IsNotFound(err))

	provider := createProvider(t, m, "dormant")
	require.NoError(t, m.ToggleProviderStatus(provider.ID, false))

	_, err = m.CreateAgent(NewAgentParams{Name: "a", ProviderID: provider.ID, Model: "m"})
	require.True(t, comerrors.IsConflict(err))
	require.Contains(t, err.Error(), "inactive")

	// The rejected create must leave no record behind.
	agents, listErr := m.ListAgents()
	require.NoError(t, listErr)
	require.Empty(t, agents)
}

func TestCreateAgentValidation(t *testing.T) {
	m, _ := newTestManager(t)
	provider := createProvider(t, m, "main")

	_, err := m.CreateAgent(NewAgentParams{Name: "", ProviderID: provider.ID, Model: "m"})
	require.True(t, comerrors.IsValidation(err))

	_, err = m.CreateAgent(NewAgentParams{Name: "a", ProviderID: provider.ID, Model: ""})
	require.True(t, comerrors.IsValidation(err))

	_, err = m.CreateAgent(NewAgentParams{Name: "a", ProviderID: provider.ID, Model: "m", Temperature: 3.5})
	require.True(t, comerrors.IsValidation(err))

	agent, err := m.CreateAgent(NewAgentParams{Name: "a", ProviderID: provider.ID, Model: "m"})
	require.NoError(t, err)
	require.True(t, agent.IsActive)
	require.Equal(t, defaultAgentMaxTokens, agent.MaxTokens)
	require.Equal(t, defaultAgentTimeout, agent.Timeout)
}

func TestProviderDeactivationCascades(t *testing.T) {
	m, _ := newTestManager(t)
	p := createProvider(t, m, "P")
	q := createProvider(t, m, "Q")
	a1 := createAgent(t, m, "A1", p.ID)
	a2 := createAgent(t, m, "A2", p.ID)
	a3 := createAgent(t, m, "A3", q.ID)

	require.NoError(t, m.ToggleProviderStatus(p.ID, false))
	require.NoError(t, m.HandleProviderDeactivation(p.ID))

	for _, id := range []string{a1.ID, a2.ID} {
		agent, err := m.GetAgent(id)
		require.NoError(t, err)
		require.False(t, agent.IsActive, "agent %s should be deactivated", id)
	}

	unrelated, err := m.GetAgent(a3.ID)
	require.NoError(t, err)
	require.True(t, unrelated.IsActive, "agent of another provider must be untouched")
}

func TestProviderDeletionCascades(t *testing.T) {
	m, secrets := newTestManager(t)
	p := createProvider(t, m, "P")
	q := createProvider(t, m, "Q")
	a1 := createAgent(t, m, "A1", p.ID)
	a2 := createAgent(t, m, "A2", p.ID)
	a3 := createAgent(t, m, "A3", q.ID)

	require.NoError(t, m.DeleteProvider(p.ID))
	require.NoError(t, m.HandleProviderDeletion(p.ID))

	for _, id := range []string{a1.ID, a2.ID} {
		_, err := m.GetAgent(id)
		require.True(t, comerrors.IsNotFound(err), "agent %s should be gone", id)
	}
	_, err := m.GetAgent(a3.ID)
	require.NoError(t, err)

	_, err = m.GetProvider(p.ID)
	require.True(t, comerrors.IsNotFound(err))

	_, ok, err := secrets.Get(secretKey(p.ID))
	require.NoError(t, err)
	require.False(t, ok, "deleted provider's credential should be removed")
}

func TestToggleAgentStatus(t *testing.T) {
	m, _ := newTestManager(t)
	p := createProvider(t, m, "P")
	agent := createAgent(t, m, "A", p.ID)

	require.NoError(t, m.ToggleAgentStatus(agent.ID, false))
	got, err := m.GetAgent(agent.ID)
	require.NoError(t, err)
	require.False(t, got.IsActive)

	require.True(t, comerrors.IsNotFound(m.ToggleAgentStatus("agent-missing", true)))
}

func TestUpdateAgentReassignsProvider(t *testing.T) {
	m, _ := newTestManager(t)
	p := createProvider(t, m, "P")
	q := createProvider(t, m, "Q")
	agent := createAgent(t, m, "A", p.ID)

	// Reassigning to an inactive provider is rejected and leaves the agent
	// unchanged.
	require.NoError(t, m.ToggleProviderStatus(q.ID, false))
	_, err := m.UpdateAgent(agent.ID, AgentUpdate{ProviderID: &q.ID})
	require.True(t, comerrors.IsConflict(err))

	unchanged, err := m.GetAgent(agent.ID)
	require.NoError(t, err)
	require.Equal(t, p.ID, unchanged.ProviderID)

	// After activating Q the reassignment goes through.
	require.NoError(t, m.ToggleProviderStatus(q.ID, true))
	name := "renamed"
	updated, err := m.UpdateAgent(agent.ID, AgentUpdate{ProviderID: &q.ID, Name: &name})
	require.NoError(t, err)
	require.Equal(t, q.ID, updated.ProviderID)
	require.Equal(t, "renamed", updated.Name)
}

func TestValidateAgentWithProvider(t *testing.T) {
	m, _ := newTestManager(t)
	p := createProvider(t, m, "P")
	agent := createAgent(t, m, "A", p.ID)

	report, err := m.ValidateAgentWithProvider(agent.ID)
	require.NoError(t, err)
	require.True(t, report.IsValid)
	require.Empty(t, report.Errors)

	require.NoError(t, m.ToggleProviderStatus(p.ID, false))
	report, err = m.ValidateAgentWithProvider(agent.ID)
	require.NoError(t, err)
	require.False(t, report.IsValid)
	require.NotEmpty(t, report.Errors)
	require.Contains(t, report.Errors[0], "not active")

	report, err = m.ValidateAgentWithProvider("agent-missing")
	require.NoError(t, err)
	require.False(t, report.IsValid)
	require.Contains(t, report.Errors[0], "not found")
}
