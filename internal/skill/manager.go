package skill

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Manager holds the skill pool. Skills are registered once at startup;
// re-registering a name replaces it, matching the registry this is
// grounded on (last registration wins). A skill's tie-breaking order is
// fixed at its first registration and does not move on replacement.
type Manager struct {
	mu      sync.RWMutex
	skills  map[string]*Skill
	order   map[string]int
	nextSeq int
}

// NewManager creates an empty Manager ready for use.
func NewManager() *Manager {
	return &Manager{skills: make(map[string]*Skill), order: make(map[string]int)}
}

// Register adds or replaces a skill in the pool.
func (m *Manager) Register(s *Skill) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.skills[s.Name] = s
	if _, ok := m.order[s.Name]; !ok {
		m.order[s.Name] = m.nextSeq
		m.nextSeq++
	}
}

// Get returns a skill by name, or nil if not found.
func (m *Manager) Get(name string) *Skill {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.skills[name]
}

// All returns every registered skill.
func (m *Manager) All() []*Skill {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Skill, 0, len(m.skills))
	for _, s := range m.skills {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// FindByKeywords scores every skill by keyword overlap with the query and
// returns skill names ordered by descending score, dropping zero-overlap
// skills entirely.
func (m *Manager) FindByKeywords(query string) []string {
	words := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(query)) {
		words[w] = struct{}{}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	type scored struct {
		name  string
		score int
		seq   int
	}
	var matches []scored
	for name, s := range m.skills {
		overlap := 0
		for _, kw := range s.Keywords {
			if _, ok := words[strings.ToLower(kw)]; ok {
				overlap++
			}
		}
		if overlap > 0 {
			matches = append(matches, scored{name, overlap, m.order[name]})
		}
	}
	// Ties in score are broken by registration order: the skill registered
	// earlier wins.
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].seq < matches[j].seq
	})

	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = m.name
	}
	return names
}

// FormatSkillPrompt formats a slice of skills into a markdown block suitable
// for injection into a system prompt.
func FormatSkillPrompt(skills []*Skill) string {
	if len(skills) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("## Available Skills\n")
	for _, s := range skills {
		fmt.Fprintf(&b, "\n### %s\n%s\n", s.Name, s.Description)
		if s.PromptFragment != "" {
			fmt.Fprintf(&b, "\n%s\n", s.PromptFragment)
		}
	}
	return b.String()
}
