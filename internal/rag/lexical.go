package rag

import "strings"

// lexicalScore returns a crude term-overlap score between a query and a
// document, normalized to [0, 1] by the query's term count. It forms the
// lexical half of hybrid search: Qdrant alone only supplies the vector half,
// so this in-process step finds literal keyword matches the embedding might
// miss.
func lexicalScore(query, content string) float32 {
	queryTerms := strings.Fields(strings.ToLower(query))
	if len(queryTerms) == 0 {
		return 0
	}
	lowerContent := strings.ToLower(content)

	var hits int
	seen := make(map[string]struct{}, len(queryTerms))
	for _, term := range queryTerms {
		if _, already := seen[term]; already {
			continue
		}
		seen[term] = struct{}{}
		if strings.Contains(lowerContent, term) {
			hits++
		}
	}
	return float32(hits) / float32(len(seen))
}

// blendScore combines a vector similarity score with a lexical overlap score.
// Vector similarity dominates since it captures semantic relevance that
// literal term matching cannot.
func blendScore(vectorScore, lexical float32) float32 {
	return 0.7*vectorScore + 0.3*lexical
}
