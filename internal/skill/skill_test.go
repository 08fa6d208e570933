package skill

import "testing"

func TestManagerRegisterAndGet(t *testing.T) {
	mgr := NewManager()
	mgr.Register(&Skill{Name: "knowledge", Description: "docs", Keywords: []string{"docs"}})
	mgr.Register(&Skill{Name: "code", Description: "code", Keywords: []string{"code"}})

	if mgr.Get("knowledge") == nil {
		t.Fatal("expected knowledge skill to be registered")
	}
	if len(mgr.All()) != 2 {
		t.Fatalf("got %d skills, want 2", len(mgr.All()))
	}
}

func TestManagerRegisterReplaces(t *testing.T) {
	mgr := NewManager()
	mgr.Register(&Skill{Name: "chat", Description: "v1"})
	mgr.Register(&Skill{Name: "chat", Description: "v2"})

	if len(mgr.All()) != 1 {
		t.Fatalf("expected re-registration to replace, got %d skills", len(mgr.All()))
	}
	if mgr.Get("chat").Description != "v2" {
		t.Errorf("expected latest registration to win, got %q", mgr.Get("chat").Description)
	}
}

func TestFindByKeywordsOrdersByOverlap(t *testing.T) {
	mgr := NewManager()
	RegisterBuiltins(mgr)

	matches := mgr.FindByKeywords("can you explain this code function")
	if len(matches) == 0 || matches[0] != "code" {
		t.Fatalf("expected code skill to rank first, got %v", matches)
	}
}

func TestFindByKeywordsNoOverlap(t *testing.T) {
	mgr := NewManager()
	RegisterBuiltins(mgr)

	matches := mgr.FindByKeywords("xyzzy plugh")
	if len(matches) != 0 {
		t.Fatalf("expected no matches, got %v", matches)
	}
}

func TestFormatSkillPrompt(t *testing.T) {
	skills := []*Skill{
		{Name: "knowledge", Description: "Docs search", PromptFragment: "You can search docs."},
	}
	prompt := FormatSkillPrompt(skills)
	if prompt == "" {
		t.Error("expected non-empty prompt")
	}
}
