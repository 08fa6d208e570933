package prompt

import (
	"strings"
	"testing"
)

func TestFormatSubstitutesPlaceholders(t *testing.T) {
	filled := knowledgeTemplate.Format("docs about deploys", "how do I deploy?")
	if !strings.Contains(filled.User, "docs about deploys") {
		t.Errorf("expected context substituted, got %q", filled.User)
	}
	if !strings.Contains(filled.User, "how do I deploy?") {
		t.Errorf("expected query substituted, got %q", filled.User)
	}
}

func TestManagerGetKnownTemplate(t *testing.T) {
	mgr := NewManager()
	if _, ok := mgr.Get("code"); !ok {
		t.Fatal("expected code template to be registered")
	}
}

func TestManagerFormatForFallsBackToChat(t *testing.T) {
	mgr := NewManager()
	filled := mgr.FormatFor("unknown", "", "hello")
	if filled.User != "hello" {
		t.Errorf("expected chat template fallback, got %q", filled.User)
	}
}

func TestManagerAddOverridesTemplate(t *testing.T) {
	mgr := NewManager()
	mgr.Add("chat", Template{SystemMessage: "custom", UserMessage: "{query}!"})
	filled := mgr.FormatFor("chat", "", "hi")
	if filled.User != "hi!" {
		t.Errorf("got %q, want hi!", filled.User)
	}
}
