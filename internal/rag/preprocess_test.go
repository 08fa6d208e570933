package rag

import (
	"strings"
	"testing"
)

func TestPreprocessQueryStripsFillerWords(t *testing.T) {
	got := PreprocessQuery("What is the API rate limit?")
	if strings.Contains(got, "what") || strings.Contains(got, "the") {
		t.Fatalf("expected filler/question words stripped, got %q", got)
	}
	if !strings.Contains(got, "api") {
		t.Fatalf("expected technical term preserved, got %q", got)
	}
}

func TestPreprocessQueryExpandsOnboarding(t *testing.T) {
	got := PreprocessQuery("onboarding steps")
	if !strings.Contains(got, "orientation") {
		t.Fatalf("expected onboarding expansion terms, got %q", got)
	}
}

func TestPreprocessQueryFallsBackWhenTooMuchRemoved(t *testing.T) {
	got := PreprocessQuery("is a the of")
	if got != "is a the of" {
		t.Fatalf("expected fallback to original query, got %q", got)
	}
}

func TestEnhanceQueryWithContextAddsNewTerms(t *testing.T) {
	got := EnhanceQueryWithContext("deploy it", []string{"how do I configure kubernetes"})
	if !strings.Contains(got, "kubernetes") {
		t.Fatalf("expected kubernetes term folded in, got %q", got)
	}
}

func TestEnhanceQueryWithContextNoPreviousQueries(t *testing.T) {
	got := EnhanceQueryWithContext("deploy it", nil)
	if got != "deploy it" {
		t.Fatalf("expected unchanged query, got %q", got)
	}
}

func TestPreprocessQueryIsIdempotent(t *testing.T) {
	for _, q := range []string{
		"onboarding steps",
		"What is the API for this?",
		"orientation schedule for this week",
	} {
		once := PreprocessQuery(q)
		twice := PreprocessQuery(once)
		if once != twice {
			t.Fatalf("expected idempotent output for %q: once=%q twice=%q", q, once, twice)
		}
	}
}
