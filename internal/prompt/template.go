// Package prompt assembles system and user messages for the completion
// client from named templates, filling in retrieved context and the
// incoming query.
package prompt

import "strings"

// Template pairs a system message with a user message shaped with {context}
// and {query} placeholders.
type Template struct {
	SystemMessage string
	UserMessage   string
}

// Filled holds a template after its placeholders have been substituted.
type Filled struct {
	System string
	User   string
}

// Format substitutes context and query into the template's messages.
func (t Template) Format(context, query string) Filled {
	replacer := strings.NewReplacer("{context}", context, "{query}", query)
	return Filled{
		System: replacer.Replace(t.SystemMessage),
		User:   replacer.Replace(t.UserMessage),
	}
}

var knowledgeTemplate = Template{
	SystemMessage: "You are a knowledgeable assistant that helps answer questions based on " +
		"the provided context. Always cite your sources and be direct in your responses.",
	UserMessage: "Context: {context}\n\nQuestion: {query}\n\nPlease provide a clear and " +
		"concise answer based on the context above. If you cannot find the answer in the " +
		"context, say so explicitly.",
}

var codeTemplate = Template{
	SystemMessage: "You are a technical assistant that helps explain code and development " +
		"concepts based on the provided context. Always reference specific code examples " +
		"when available.",
	UserMessage: "Code Context: {context}\n\nQuestion: {query}\n\nPlease explain the relevant " +
		"code aspects from the context above. If the context doesn't contain relevant " +
		"information, state that explicitly.",
}

var chatTemplate = Template{
	SystemMessage: "You are a helpful, conversational assistant for a team messaging platform. " +
		"Keep responses concise and friendly.",
	UserMessage: "{query}",
}

// Manager holds the named templates used to build completion requests,
// one per skill.
type Manager struct {
	templates map[string]Template
}

// NewManager returns a manager preloaded with the knowledge, code, and chat
// templates.
func NewManager() *Manager {
	return &Manager{
		templates: map[string]Template{
			"knowledge": knowledgeTemplate,
			"code":      codeTemplate,
			"chat":      chatTemplate,
		},
	}
}

// Get returns the template for name, and whether it was found.
func (m *Manager) Get(name string) (Template, bool) {
	t, ok := m.templates[name]
	return t, ok
}

// Add registers or replaces a named template.
func (m *Manager) Add(name string, t Template) {
	m.templates[name] = t
}

// FormatFor fills the named template with context and query, falling back
// to the chat template when name is unrecognized.
func (m *Manager) FormatFor(name, context, query string) Filled {
	t, ok := m.templates[name]
	if !ok {
		t = chatTemplate
	}
	return t.Format(context, query)
}
