package rag

import "testing"

func TestLexicalScoreFullOverlap(t *testing.T) {
	score := lexicalScore("deploy kubernetes", "how to deploy kubernetes clusters")
	if score != 1.0 {
		t.Fatalf("expected full overlap score 1.0, got %v", score)
	}
}

func TestLexicalScoreNoOverlap(t *testing.T) {
	score := lexicalScore("deploy kubernetes", "a recipe for bread")
	if score != 0 {
		t.Fatalf("expected zero overlap, got %v", score)
	}
}

func TestLexicalScoreEmptyQuery(t *testing.T) {
	if score := lexicalScore("", "anything"); score != 0 {
		t.Fatalf("expected zero score for empty query, got %v", score)
	}
}

func TestBlendScoreWeightsVectorMore(t *testing.T) {
	withLexical := blendScore(0.5, 1.0)
	withoutLexical := blendScore(0.5, 0.0)
	if withLexical <= withoutLexical {
		t.Fatalf("expected lexical overlap to raise blended score")
	}
}
