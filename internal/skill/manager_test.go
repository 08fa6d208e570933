package skill

import "testing"

func TestFindByKeywordsBreaksTiesByRegistrationOrder(t *testing.T) {
	mgr := NewManager()
	mgr.Register(&Skill{Name: "zeta", Keywords: []string{"docs"}})
	mgr.Register(&Skill{Name: "alpha", Keywords: []string{"docs"}})

	names := mgr.FindByKeywords("docs")
	if len(names) != 2 || names[0] != "zeta" {
		t.Fatalf("expected registration order [zeta alpha] on a score tie, got %v", names)
	}
}

func TestFindByKeywordsTieOrderSurvivesReplacement(t *testing.T) {
	mgr := NewManager()
	mgr.Register(&Skill{Name: "zeta", Keywords: []string{"docs"}})
	mgr.Register(&Skill{Name: "alpha", Keywords: []string{"docs"}})
	// Re-registering "zeta" replaces its content but must not move it to
	// the back of the tie-break order.
	mgr.Register(&Skill{Name: "zeta", Keywords: []string{"docs"}, Description: "updated"})

	names := mgr.FindByKeywords("docs")
	if len(names) != 2 || names[0] != "zeta" {
		t.Fatalf("expected zeta to keep its original registration order, got %v", names)
	}
	if mgr.Get("zeta").Description != "updated" {
		t.Fatalf("expected replacement to update skill content")
	}
}

func TestFindByKeywordsHigherScoreWinsOverOrder(t *testing.T) {
	mgr := NewManager()
	mgr.Register(&Skill{Name: "first", Keywords: []string{"docs"}})
	mgr.Register(&Skill{Name: "second", Keywords: []string{"docs", "documentation"}})

	names := mgr.FindByKeywords("docs documentation")
	if len(names) != 2 || names[0] != "second" {
		t.Fatalf("expected higher-scoring skill first regardless of order, got %v", names)
	}
}
