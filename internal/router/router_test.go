package router

import (
	"testing"

	"github.com/sdamache/konveyor/internal/skill"
)

func newTestRegistry() *skill.Manager {
	mgr := skill.NewManager()
	skill.RegisterBuiltins(mgr)
	return mgr
}

func TestRouteKeywordOverride(t *testing.T) {
	reg := newTestRegistry()
	d := Route(reg, "please explain this thing")
	if d.SkillName != "code" || d.FunctionName != "run" {
		t.Fatalf("got %+v, want code/run", d)
	}
}

func TestRouteQuestionPattern(t *testing.T) {
	reg := newTestRegistry()
	d := Route(reg, "what is the deployment process")
	if d.FunctionName != "answer_question" {
		t.Fatalf("got %+v, want answer_question", d)
	}
}

func TestRouteGreeting(t *testing.T) {
	reg := newTestRegistry()
	d := Route(reg, "hello there")
	if d.FunctionName != "greet" && d.FunctionName != "chat" {
		t.Fatalf("got %+v, want greet or chat", d)
	}
}

func TestRouteFormatBulletList(t *testing.T) {
	reg := newTestRegistry()
	d := Route(reg, "please format this as a bullet list")
	if d.FunctionName != "format_as_bullet_list" {
		t.Fatalf("got %+v, want format_as_bullet_list", d)
	}
}

func TestRouteDefaultsToChat(t *testing.T) {
	reg := newTestRegistry()
	d := Route(reg, "nice weather today")
	if d.SkillName != DefaultSkill || d.FunctionName != "chat" {
		t.Fatalf("got %+v, want chat/chat", d)
	}
}

// An utterance matching more than one route keyword ("explain" -> code,
// "docs" -> knowledge) must resolve to the same skill on every call.
func TestRouteMultiKeywordUtteranceIsDeterministic(t *testing.T) {
	reg := newTestRegistry()
	const utterance = "explain the docs"

	first := Route(reg, utterance)
	for i := 0; i < 20; i++ {
		d := Route(reg, utterance)
		if d != first {
			t.Fatalf("route %d differed: got %+v, want %+v", i, d, first)
		}
	}
	if first.SkillName != "knowledge" {
		t.Fatalf("got skill %q, want \"knowledge\" (first matching keyword wins)", first.SkillName)
	}
}
