package skill

// RegisterBuiltins adds the default built-in skills to the manager: chat
// (the fallback conversational skill), knowledge (documentation retrieval),
// and code (source-level explanation).
func RegisterBuiltins(mgr *Manager) {
	builtins := []*Skill{
		{
			Name:        "chat",
			Description: "General conversation and greetings",
			Functions: []FunctionDescriptor{
				{Name: "chat", Description: "Hold a general conversation"},
				{Name: "greet", Description: "Respond to a greeting"},
				{Name: "format_as_bullet_list", Description: "Reformat content as a bullet list"},
			},
			Keywords: []string{"hello", "hi", "hey", "thanks", "chat"},
			Source:   "builtin",
		},
		{
			Name:        "knowledge",
			Description: "Search documentation and answer questions from indexed content",
			Functions: []FunctionDescriptor{
				{Name: "answer_question", Description: "Answer a question using retrieved context"},
				{Name: "run", Description: "Search documentation for a topic"},
			},
			Keywords: []string{"docs", "documentation", "guide", "reference"},
			Source:   "builtin",
		},
		{
			Name:        "code",
			Description: "Explain and analyze source code",
			Functions: []FunctionDescriptor{
				{Name: "answer_question", Description: "Answer a question about code"},
				{Name: "run", Description: "Explain or analyze a piece of code"},
			},
			Keywords: []string{"explain", "code", "analyze", "function", "bug"},
			Source:   "builtin",
		},
	}
	for _, s := range builtins {
		mgr.Register(s)
	}
}
