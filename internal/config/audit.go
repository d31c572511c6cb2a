package config

import (
	"fmt"

	comerrors "github.com/the-erin-collective/comrade-sub004/internal/errors"
)

func floatPtr(f float64) *float64 { return &f }

// providerSchema describes the persisted provider document shape. It checks
// raw documents, not the typed Provider struct, so hand-edited or migrated
// configuration gets the same scrutiny as manager-created records.
func providerSchema() *Schema {
	return &Schema{
		Type: "object",
		Fields: map[string]*Schema{
			"id":        {Type: "string", Required: true},
			"name":      {Type: "string", Required: true},
			"type":      {Type: "string", Required: true, Enum: []any{string(ProviderCloud), string(ProviderLocalNetwork)}},
			"provider":  {Type: "string"},
			"isActive":  {Type: "boolean", Default: true},
			"endpoint":  {Type: "string"},
			"host":      {Type: "string"},
			"port":      {Type: "integer", Min: floatPtr(1), Max: floatPtr(65535)},
			"protocol":  {Type: "string"},
			"createdAt": {Type: "string"},
			"updatedAt": {Type: "string"},
		},
	}
}

// agentSchema describes the persisted agent document shape. Timeout is stored
// as nanoseconds, hence plain integer.
func agentSchema() *Schema {
	return &Schema{
		Type: "object",
		Fields: map[string]*Schema{
			"id":           {Type: "string", Required: true},
			"name":         {Type: "string", Required: true},
			"providerId":   {Type: "string", Required: true},
			"model":        {Type: "string", Required: true},
			"temperature":  {Type: "number", Min: floatPtr(0), Max: floatPtr(2)},
			"maxTokens":    {Type: "integer", Min: floatPtr(0), Default: defaultAgentMaxTokens},
			"timeout":      {Type: "integer", Min: floatPtr(0)},
			"systemPrompt": {Type: "string"},
			"capabilities": {
				Type: "object",
				Fields: map[string]*Schema{
					"hasVision":      {Type: "boolean", Default: false},
					"hasToolUse":     {Type: "boolean", Default: false},
					"reasoningDepth": {Type: "string"},
					"speed":          {Type: "string"},
					"costTier":       {Type: "string"},
				},
			},
			"isActive":  {Type: "boolean", Default: true},
			"createdAt": {Type: "string"},
			"updatedAt": {Type: "string"},
		},
	}
}

// AuditStoredConfig validates the raw provider and agent documents in the
// store against their schemas, with defaults applied, and scans both
// collections for duplicate ids. Every finding is logged as a warning and
// returned; an audit never fails the manager, it only surfaces what is wrong.
func (m *Manager) AuditStoredConfig() ([]comerrors.ValidationIssue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.audit()
}

// audit is AuditStoredConfig without the lock. Caller holds m.mu.
func (m *Manager) audit() ([]comerrors.ValidationIssue, error) {
	var issues []comerrors.ValidationIssue

	providerIssues, err := m.auditCollection(providersKey, providerSchema())
	if err != nil {
		return nil, err
	}
	issues = append(issues, providerIssues...)

	agentIssues, err := m.auditCollection(agentsKey, agentSchema())
	if err != nil {
		return nil, err
	}
	issues = append(issues, agentIssues...)

	for _, issue := range issues {
		m.logger.Warn("config audit: %s", issue.String())
	}
	return issues, nil
}

func (m *Manager) auditCollection(key string, schema *Schema) ([]comerrors.ValidationIssue, error) {
	var items []map[string]any
	if _, err := m.store.Get(key, &items); err != nil {
		return nil, fmt.Errorf("audit %s: %w", key, err)
	}

	var issues []comerrors.ValidationIssue
	for i, item := range items {
		effective := schema.ApplyDefaults(item)
		for _, issue := range schema.Validate(effective) {
			issues = append(issues, prefixIssue(issue, fmt.Sprintf("%s[%d]", key, i)))
		}
	}
	for _, warning := range CheckDuplicateIDs(items) {
		issues = append(issues, prefixIssue(warning, key))
	}
	return issues, nil
}

// prefixIssue anchors an item-relative path under its collection:
// "name" becomes "providers[0].name", "[1].id" becomes "providers[1].id".
func prefixIssue(issue comerrors.ValidationIssue, prefix string) comerrors.ValidationIssue {
	switch {
	case issue.Path == "":
		issue.Path = prefix
	case issue.Path[0] == '[':
		issue.Path = prefix + issue.Path
	default:
		issue.Path = prefix + "." + issue.Path
	}
	return issue
}
