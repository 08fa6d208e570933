package command

import (
	"context"
	"strings"
	"testing"
)

type fakeStatusProvider struct{ statuses []AdapterStatus }

func (f fakeStatusProvider) StatusAll() []AdapterStatus { return f.statuses }

type fakeSkillLister struct{ skills []SkillInfo }

func (f fakeSkillLister) ListSkills() []SkillInfo { return f.skills }

func TestStatusCommandReportsConnection(t *testing.T) {
	reg := NewRegistry()
	RegisterBuiltins(reg, fakeStatusProvider{statuses: []AdapterStatus{
		{Platform: "slack", Connected: true},
		{Platform: "discord", Connected: false},
	}}, fakeSkillLister{})

	result, err := reg.Dispatch(context.Background(), "/status", &CommandContext{})
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(result.Content, "slack: connected") {
		t.Errorf("expected connected slack entry, got %q", result.Content)
	}
	if !strings.Contains(result.Content, "discord: disconnected") {
		t.Errorf("expected disconnected discord entry, got %q", result.Content)
	}
}

func TestSkillsCommandListsKeywords(t *testing.T) {
	reg := NewRegistry()
	RegisterBuiltins(reg, fakeStatusProvider{}, fakeSkillLister{skills: []SkillInfo{
		{Name: "docs", Description: "search documentation", Keywords: []string{"docs", "how do i"}},
	}})

	result, err := reg.Dispatch(context.Background(), "/skills", &CommandContext{})
	if err != nil {
		t.Fatalf("skills: %v", err)
	}
	if !strings.Contains(result.Content, "docs") || !strings.Contains(result.Content, "how do i") {
		t.Errorf("expected skill and keywords listed, got %q", result.Content)
	}
}
