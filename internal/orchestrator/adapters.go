package orchestrator

import (
	"context"

	"github.com/sdamache/konveyor/internal/command"
	"github.com/sdamache/konveyor/internal/gateway"
	"github.com/sdamache/konveyor/internal/provider"
	"github.com/sdamache/konveyor/internal/rag"
	"github.com/sdamache/konveyor/internal/skill"
	"github.com/sdamache/konveyor/internal/store"
)

// PreferenceAdapter satisfies command.PreferenceStore by storing
// preferences in a conversation's metadata map, matching the original
// bot's per-user key/value preference store without a dedicated service.
type PreferenceAdapter struct {
	Store store.ConversationStore
}

func (a *PreferenceAdapter) SetPreference(ctx context.Context, conversationID, key, value string) error {
	return a.Store.UpdateMetadata(ctx, conversationID, map[string]string{key: value})
}

func (a *PreferenceAdapter) GetPreferences(ctx context.Context, conversationID string) (map[string]string, error) {
	convo, err := a.Store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return convo.Metadata, nil
}

// RAGSearchAdapter satisfies command.RAGSearcher for the /search command.
type RAGSearchAdapter struct {
	Engine *rag.Engine
}

func (a *RAGSearchAdapter) Query(ctx context.Context, query string, topK int) ([]command.RAGSearchResult, error) {
	results, err := a.Engine.Query(ctx, query, []string{rag.CollDocuments}, topK)
	if err != nil {
		return nil, err
	}
	out := make([]command.RAGSearchResult, len(results))
	for i, r := range results {
		out[i] = command.RAGSearchResult{Content: r.Content, Source: r.Source, Score: r.Score, Citation: r.Source}
	}
	return out, nil
}

// StatusAdapter satisfies command.StatusProvider from the gateway's
// per-platform adapter statuses.
type StatusAdapter struct {
	Gateway *gateway.Gateway
}

func (a *StatusAdapter) StatusAll() []command.AdapterStatus {
	statuses := a.Gateway.Statuses()
	out := make([]command.AdapterStatus, 0, len(statuses))
	for platform, s := range statuses {
		out = append(out, command.AdapterStatus{Platform: platform, Connected: s.Connected})
	}
	return out
}

// SkillListAdapter satisfies command.SkillLister.
type SkillListAdapter struct {
	Skills *skill.Manager
}

func (a *SkillListAdapter) ListSkills() []command.SkillInfo {
	skills := a.Skills.All()
	out := make([]command.SkillInfo, len(skills))
	for i, s := range skills {
		out[i] = command.SkillInfo{Name: s.Name, Description: s.Description, Keywords: s.Keywords}
	}
	return out
}

// ProviderSwitchAdapter satisfies command.ProviderSwitcher.
type ProviderSwitchAdapter struct {
	Router *provider.Router
}

func (a *ProviderSwitchAdapter) SetDefault(providerID string) { a.Router.SetDefault(providerID) }

func (a *ProviderSwitchAdapter) ListProviders() []command.ProviderInfo {
	defaultID := a.Router.DefaultID()
	providers := a.Router.ListProviders()
	out := make([]command.ProviderInfo, len(providers))
	for i, p := range providers {
		pType := "unknown"
		switch p.(type) {
		case *provider.OpenAIProvider:
			pType = "openai"
		case *provider.AnthropicProvider:
			pType = "anthropic"
		}
		out[i] = command.ProviderInfo{ID: p.ID(), Name: p.Name(), Type: pType, IsDefault: p.ID() == defaultID}
	}
	return out
}
