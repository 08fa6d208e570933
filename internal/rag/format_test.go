package rag

import (
	"strings"
	"testing"
)

func TestFormatContextEmpty(t *testing.T) {
	if got := FormatContext(nil); got != "No relevant context found." {
		t.Fatalf("got %q", got)
	}
}

func TestFormatContextIncludesCitations(t *testing.T) {
	results := []Result{
		{Content: "Use the CLI to deploy.", Source: "Document doc-1, Chunk 0", Score: 0.82},
	}
	got := FormatContext(results)
	if !strings.Contains(got, "[1]") || !strings.Contains(got, "Document doc-1, Chunk 0") {
		t.Fatalf("expected citation in output, got %q", got)
	}
}

func TestFormatAnswerWithCitationsEmpty(t *testing.T) {
	got := FormatAnswerWithCitations(nil)
	if !strings.Contains(got, "couldn't find") {
		t.Fatalf("expected no-results message, got %q", got)
	}
}

func TestFormatAnswerWithCitationsIncludesSources(t *testing.T) {
	results := []Result{
		{Content: "Short answer.", Source: "Document doc-1, Chunk 0", Score: 0.9},
		{Content: "Another chunk.", Source: "Document doc-2, Chunk 1", Score: 0.75},
	}
	got := FormatAnswerWithCitations(results)
	if !strings.Contains(got, "[1]") || !strings.Contains(got, "[2]") {
		t.Fatalf("expected inline citation markers, got %q", got)
	}
	if !strings.Contains(got, "**Sources:**") {
		t.Fatalf("expected sources section, got %q", got)
	}
}

func TestFormatAnswerWithSourcesKeepsModelAnswer(t *testing.T) {
	results := []Result{
		{Content: "Use the CLI to deploy.", Source: "Document doc-1, Chunk 0", Score: 0.82},
	}
	got := FormatAnswerWithSources("Run `deploy.sh` from the repo root.", results)
	if !strings.Contains(got, "Run `deploy.sh` from the repo root.") {
		t.Fatalf("expected model answer preserved, got %q", got)
	}
	if !strings.Contains(got, "**Sources:**") || !strings.Contains(got, "Document doc-1, Chunk 0") {
		t.Fatalf("expected sources footer, got %q", got)
	}
}

func TestFormatAnswerWithSourcesNoResultsReturnsAnswerUnchanged(t *testing.T) {
	got := FormatAnswerWithSources("Just chatting, no retrieval involved.", nil)
	if got != "Just chatting, no retrieval involved." {
		t.Fatalf("expected answer untouched when there are no results, got %q", got)
	}
}

func TestFormatAnswerWithSourcesFallsBackWhenAnswerBlank(t *testing.T) {
	results := []Result{
		{Content: "Short answer.", Source: "Document doc-1, Chunk 0", Score: 0.9},
	}
	got := FormatAnswerWithSources("   ", results)
	if !strings.Contains(got, "couldn't find") && !strings.Contains(got, "Based on the documentation") {
		t.Fatalf("expected citation-dump fallback for blank answer, got %q", got)
	}
}

func TestTruncateShort(t *testing.T) {
	if got := truncate("short", 300); got != "short" {
		t.Fatalf("expected unchanged, got %q", got)
	}
}

func TestTruncateAtSentenceBoundary(t *testing.T) {
	content := strings.Repeat("a", 250) + ". " + strings.Repeat("b", 100)
	got := truncate(content, 300)
	if !strings.HasSuffix(got, ".") {
		t.Fatalf("expected truncation at sentence boundary, got %q", got)
	}
}
