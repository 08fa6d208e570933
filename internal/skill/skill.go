// Package skill holds the capability registry: named skills, the functions
// they expose, and the keywords that let the router recognize a request as
// belonging to one.
package skill

// FunctionDescriptor documents a single callable entry point a skill
// exposes, analogous to a Semantic Kernel function description.
type FunctionDescriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Skill is a registered capability: a name, a set of functions it can be
// asked to run, and the keywords that identify a request as belonging to it.
type Skill struct {
	Name           string                `json:"name"`
	Description    string                `json:"description"`
	Functions      []FunctionDescriptor  `json:"functions"`
	Keywords       []string              `json:"keywords"`
	PromptFragment string                `json:"prompt_fragment,omitempty"`
	Source         string                `json:"source"` // "builtin", "plugin"
}

// HasFunction reports whether the skill exposes a function with the given
// name.
func (s *Skill) HasFunction(name string) bool {
	for _, f := range s.Functions {
		if f.Name == name {
			return true
		}
	}
	return false
}
