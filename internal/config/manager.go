package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	comerrors "github.com/the-erin-collective/comrade-sub004/internal/errors"
	"github.com/the-erin-collective/comrade-sub004/internal/shared/logging"
)

const (
	providersKey = "providers"
	agentsKey    = "agents"
)

// Manager enforces the referential and lifecycle invariants between
// providers and agents, and cascades provider changes over dependent agents.
//
// It is constructed once and passed by reference to consumers; there is no
// package-level instance. All reads and writes of the persisted collections
// are serialized by an internal mutex, so concurrent calls on one Manager are
// safe but last-write-wins across distinct entities.
type Manager struct {
	mu      sync.Mutex
	store   Store
	secrets SecretStore
	logger  logging.Logger
	now     func() time.Time
}

// ManagerOption customizes a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger attaches a logger.
func WithManagerLogger(logger logging.Logger) ManagerOption {
	return func(m *Manager) { m.logger = logger }
}

// NewManager creates a Manager over the given store and secret store. The
// stored collections are audited against their schemas on construction;
// findings are logged as warnings, never fatal.
func NewManager(store Store, secrets SecretStore, opts ...ManagerOption) *Manager {
	m := &Manager{store: store, secrets: secrets, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = logging.OrNop(m.logger)
	if issues, err := m.audit(); err != nil {
		m.logger.Warn("configuration audit skipped: %v", err)
	} else if len(issues) > 0 {
		m.logger.Warn("configuration audit found %d issue(s)", len(issues))
	}
	return m
}

func (m *Manager) loadProviders() ([]Provider, error) {
	var providers []Provider
	if _, err := m.store.Get(providersKey, &providers); err != nil {
		return nil, err
	}
	return providers, nil
}

func (m *Manager) loadAgents() ([]Agent, error) {
	var agents []Agent
	if _, err := m.store.Get(agentsKey, &agents); err != nil {
		return nil, err
	}
	return agents, nil
}

// NewProviderParams carries the caller-supplied fields for CreateProvider.
type NewProviderParams struct {
	Name     string
	Type     ProviderType
	Vendor   string
	APIKey   string
	Endpoint string
	Host     string
	Port     int
	Protocol string
	// Inactive creates the provider deactivated. Providers default to
	// active.
	Inactive bool
}

// CreateProvider validates params, stores the credential in the secret store
// and appends the provider record.
func (m *Manager) CreateProvider(params NewProviderParams) (*Provider, error) {
	if strings.TrimSpace(params.Name) == "" {
		return nil, comerrors.NewValidation("name", "provider name cannot be empty", "required")
	}
	switch params.Type {
	case ProviderCloud:
		if params.APIKey == "" {
			return nil, comerrors.NewValidation("apiKey", "cloud providers require an API key", "required")
		}
	case ProviderLocalNetwork:
		if params.Endpoint == "" && params.Host == "" {
			return nil, comerrors.NewValidation("endpoint", "local-network providers require an endpoint or host", "required")
		}
	default:
		return nil, comerrors.NewValidation("type", fmt.Sprintf("unknown provider type %q", params.Type), "enum")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	providers, err := m.loadProviders()
	if err != nil {
		return nil, err
	}

	now := m.now().UTC()
	provider := Provider{
		ID:        NewProviderID(),
		Name:      params.Name,
		Type:      params.Type,
		Vendor:    params.Vendor,
		IsActive:  !params.Inactive,
		Endpoint:  params.Endpoint,
		Host:      params.Host,
		Port:      params.Port,
		Protocol:  params.Protocol,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if params.APIKey != "" {
		if err := m.secrets.Store(secretKey(provider.ID), params.APIKey); err != nil {
			return nil, fmt.Errorf("store provider credential: %w", err)
		}
	}

	providers = append(providers, provider)
	if err := m.store.Update(providersKey, providers); err != nil {
		return nil, err
	}
	m.logger.Info("created provider %s (%s)", provider.ID, provider.Name)
	return &provider, nil
}

// ListProviders returns every persisted provider.
func (m *Manager) ListProviders() ([]Provider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadProviders()
}

// GetProvider returns the provider with the given id.
func (m *Manager) GetProvider(id string) (*Provider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	providers, err := m.loadProviders()
	if err != nil {
		return nil, err
	}
	for i := range providers {
		if providers[i].ID == id {
			return &providers[i], nil
		}
	}
	return nil, comerrors.NewNotFound("Provider", id)
}

// ProviderAPIKey returns the stored credential for a provider.
func (m *Manager) ProviderAPIKey(id string) (string, bool, error) {
	return m.secrets.Get(secretKey(id))
}

// ToggleProviderStatus flips a provider's isActive flag. It does not cascade;
// callers deactivating a provider follow up with HandleProviderDeactivation.
func (m *Manager) ToggleProviderStatus(id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	providers, err := m.loadProviders()
	if err != nil {
		return err
	}
	for i := range providers {
		if providers[i].ID == id {
			providers[i].IsActive = active
			providers[i].UpdatedAt = m.now().UTC()
			return m.store.Update(providersKey, providers)
		}
	}
	return comerrors.NewNotFound("Provider", id)
}

// DeleteProvider removes the provider record and its stored credential.
// Dependent agents are removed by HandleProviderDeletion.
func (m *Manager) DeleteProvider(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	providers, err := m.loadProviders()
	if err != nil {
		return err
	}
	kept := providers[:0]
	found := false
	for _, provider := range providers {
		if provider.ID == id {
			found = true
			continue
		}
		kept = append(kept, provider)
	}
	if !found {
		return comerrors.NewNotFound("Provider", id)
	}
	if err := m.store.Update(providersKey, kept); err != nil {
		return err
	}
	if err := m.secrets.Delete(secretKey(id)); err != nil {
		return fmt.Errorf("delete provider credential: %w", err)
	}
	m.logger.Info("deleted provider %s", id)
	return nil
}

// HandleProviderDeactivation forces every agent of the given provider to
// inactive. Agents of other providers are untouched.
func (m *Manager) HandleProviderDeactivation(providerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	agents, err := m.loadAgents()
	if err != nil {
		return err
	}
	changed := 0
	now := m.now().UTC()
	for i := range agents {
		if agents[i].ProviderID == providerID && agents[i].IsActive {
			agents[i].IsActive = false
			agents[i].UpdatedAt = now
			changed++
		}
	}
	if changed == 0 {
		return nil
	}
	if err := m.store.Update(agentsKey, agents); err != nil {
		return err
	}
	m.logger.Info("deactivated %d agent(s) of provider %s", changed, providerID)
	return nil
}

// HandleProviderDeletion removes every agent of the given provider from the
// persisted collection. Agents of other providers are untouched.
func (m *Manager) HandleProviderDeletion(providerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	agents, err := m.loadAgents()
	if err != nil {
		return err
	}
	kept := agents[:0]
	removed := 0
	for _, agent := range agents {
		if agent.ProviderID == providerID {
			removed++
			continue
		}
		kept = append(kept, agent)
	}
	if removed == 0 {
		return nil
	}
	if err := m.store.Update(agentsKey, kept); err != nil {
		return err
	}
	m.logger.Info("removed %d agent(s) of deleted provider %s", removed, providerID)
	return nil
}

// NewAgentParams carries the caller-supplied fields for CreateAgent.
type NewAgentParams struct {
	Name         string
	ProviderID   string
	Model        string
	Temperature  float64
	MaxTokens    int
	Timeout      time.Duration
	SystemPrompt string
	Capabilities AgentCapabilities
	// Inactive creates the agent deactivated. Agents default to active.
	Inactive bool
}

const (
	defaultAgentMaxTokens = 4096
	defaultAgentTimeout   = 60 * time.Second
)

func validateAgentFields(name, model string, temperature float64, maxTokens int, timeout time.Duration) *comerrors.ValidationError {
	var issues []comerrors.ValidationIssue
	if strings.TrimSpace(name) == "" {
		issues = append(issues, comerrors.ValidationIssue{Path: "name", Message: "agent name cannot be empty", Code: "required"})
	}
	if strings.TrimSpace(model) == "" {
		issues = append(issues, comerrors.ValidationIssue{Path: "model", Message: "model cannot be empty", Code: "required"})
	}
	if temperature < 0 || temperature > 2 {
		issues = append(issues, comerrors.ValidationIssue{Path: "temperature", Message: "temperature must be between 0 and 2", Code: "range"})
	}
	if maxTokens < 0 {
		issues = append(issues, comerrors.ValidationIssue{Path: "maxTokens", Message: "maxTokens cannot be negative", Code: "range"})
	}
	if timeout < 0 {
		issues = append(issues, comerrors.ValidationIssue{Path: "timeout", Message: "timeout cannot be negative", Code: "range"})
	}
	if len(issues) == 0 {
		return nil
	}
	return &comerrors.ValidationError{Issues: issues}
}

// requireActiveProvider resolves providerID and checks it is active. Caller
// holds m.mu.
func (m *Manager) requireActiveProvider(providerID string) error {
	providers, err := m.loadProviders()
	if err != nil {
		return err
	}
	for _, provider := range providers {
		if provider.ID != providerID {
			continue
		}
		if !provider.IsActive {
			return comerrors.NewConflict("provider '%s' is inactive; activate it before assigning agents", providerID)
		}
		return nil
	}
	return comerrors.NewNotFound("Provider", providerID)
}

// CreateAgent validates params against the referenced provider and appends
// the agent record. The provider must exist and be active.
func (m *Manager) CreateAgent(params NewAgentParams) (*Agent, error) {
	if err := validateAgentFields(params.Name, params.Model, params.Temperature, params.MaxTokens, params.Timeout); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireActiveProvider(params.ProviderID); err != nil {
		return nil, err
	}

	agents, err := m.loadAgents()
	if err != nil {
		return nil, err
	}

	maxTokens := params.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultAgentMaxTokens
	}
	timeout := params.Timeout
	if timeout == 0 {
		timeout = defaultAgentTimeout
	}

	now := m.now().UTC()
	agent := Agent{
		ID:           NewAgentID(),
		Name:         params.Name,
		ProviderID:   params.ProviderID,
		Model:        params.Model,
		Temperature:  params.Temperature,
		MaxTokens:    maxTokens,
		Timeout:      timeout,
		SystemPrompt: params.SystemPrompt,
		Capabilities: params.Capabilities,
		IsActive:     !params.Inactive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	agents = append(agents, agent)
	if err := m.store.Update(agentsKey, agents); err != nil {
		return nil, err
	}
	m.logger.Info("created agent %s (%s) on provider %s", agent.ID, agent.Name, agent.ProviderID)
	return &agent, nil
}

// ListAgents returns every persisted agent.
func (m *Manager) ListAgents() ([]Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadAgents()
}

// GetAgent returns the agent with the given id.
func (m *Manager) GetAgent(id string) (*Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	agents, err := m.loadAgents()
	if err != nil {
		return nil, err
	}
	for i := range agents {
		if agents[i].ID == id {
			return &agents[i], nil
		}
	}
	return nil, comerrors.NewNotFound("Agent", id)
}

// AgentUpdate carries partial updates for UpdateAgent; nil fields are left
// unchanged.
type AgentUpdate struct {
	Name         *string
	ProviderID   *string
	Model        *string
	Temperature  *float64
	MaxTokens    *int
	Timeout      *time.Duration
	SystemPrompt *string
	Capabilities *AgentCapabilities
}

// UpdateAgent applies a partial update. Reassigning the provider re-runs the
// existence and active checks against the new provider id.
func (m *Manager) UpdateAgent(id string, update AgentUpdate) (*Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	agents, err := m.loadAgents()
	if err != nil {
		return nil, err
	}
	idx := -1
	for i := range agents {
		if agents[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, comerrors.NewNotFound("Agent", id)
	}

	updated := agents[idx]
	if update.Name != nil {
		updated.Name = *update.Name
	}
	if update.Model != nil {
		updated.Model = *update.Model
	}
	if update.Temperature != nil {
		updated.Temperature = *update.Temperature
	}
	if update.MaxTokens != nil {
		updated.MaxTokens = *update.MaxTokens
	}
	if update.Timeout != nil {
		updated.Timeout = *update.Timeout
	}
	if update.SystemPrompt != nil {
		updated.SystemPrompt = *update.SystemPrompt
	}
	if update.Capabilities != nil {
		updated.Capabilities = *update.Capabilities
	}
	if update.ProviderID != nil && *update.ProviderID != updated.ProviderID {
		if err := m.requireActiveProvider(*update.ProviderID); err != nil {
			return nil, err
		}
		updated.ProviderID = *update.ProviderID
	}

	if err := validateAgentFields(updated.Name, updated.Model, updated.Temperature, updated.MaxTokens, updated.Timeout); err != nil {
		return nil, err
	}

	updated.UpdatedAt = m.now().UTC()
	agents[idx] = updated
	if err := m.store.Update(agentsKey, agents); err != nil {
		return nil, err
	}
	return &updated, nil
}

// ToggleAgentStatus flips an agent's isActive flag. The flip is independent
// of provider state; activation against an inactive provider is caught by
// ValidateAgentWithProvider, not here.
func (m *Manager) ToggleAgentStatus(id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	agents, err := m.loadAgents()
	if err != nil {
		return err
	}
	for i := range agents {
		if agents[i].ID == id {
			agents[i].IsActive = active
			agents[i].UpdatedAt = m.now().UTC()
			return m.store.Update(agentsKey, agents)
		}
	}
	return comerrors.NewNotFound("Agent", id)
}

// DeleteAgent removes a single agent record.
func (m *Manager) DeleteAgent(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	agents, err := m.loadAgents()
	if err != nil {
		return err
	}
	kept := agents[:0]
	found := false
	for _, agent := range agents {
		if agent.ID == id {
			found = true
			continue
		}
		kept = append(kept, agent)
	}
	if !found {
		return comerrors.NewNotFound("Agent", id)
	}
	return m.store.Update(agentsKey, kept)
}

// ValidationReport is the result of ValidateAgentWithProvider.
type ValidationReport struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// ValidateAgentWithProvider checks that the agent exists, its provider
// exists, and both are active. Failures are reported as human-readable
// reasons rather than an error return.
func (m *Manager) ValidateAgentWithProvider(agentID string) (ValidationReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	report := ValidationReport{}

	agents, err := m.loadAgents()
	if err != nil {
		return report, err
	}
	var agent *Agent
	for i := range agents {
		if agents[i].ID == agentID {
			agent = &agents[i]
			break
		}
	}
	if agent == nil {
		report.Errors = append(report.Errors, fmt.Sprintf("Agent '%s' not found", agentID))
		return report, nil
	}
	if !agent.IsActive {
		report.Errors = append(report.Errors, fmt.Sprintf("agent '%s' is not active", agentID))
	}

	providers, err := m.loadProviders()
	if err != nil {
		return report, err
	}
	var provider *Provider
	for i := range providers {
		if providers[i].ID == agent.ProviderID {
			provider = &providers[i]
			break
		}
	}
	switch {
	case provider == nil:
		report.Errors = append(report.Errors, fmt.Sprintf("Provider '%s' not found", agent.ProviderID))
	case !provider.IsActive:
		report.Errors = append(report.Errors, fmt.Sprintf("provider '%s' is not active", provider.ID))
	}

	report.IsValid = len(report.Errors) == 0
	return report, nil
}
