package rag

import (
	"regexp"
	"strings"
)

// domainExpansion pairs a keyword found in a query with additional terms
// that widen the search, mirroring the onboarding-query enhancement used by
// the original documentation search skill.
type domainExpansion struct {
	keyword    string
	expansions []string
}

// domainExpansions drives a single expansion per query: the keyword that
// occurs earliest in the query wins, with slice order breaking ties. A
// fixed slice (rather than a map) keeps PreprocessQuery deterministic when a
// query contains more than one keyword, e.g. "new employee handbook"
// matches both "new employee" and "handbook" and expands "new employee".
var domainExpansions = []domainExpansion{
	{"onboarding", []string{"onboarding process", "employee onboarding", "new hire", "orientation"}},
	{"new employee", []string{"onboarding process", "first day", "getting started"}},
	{"getting started", []string{"onboarding", "setup guide", "initial steps"}},
	{"first day", []string{"onboarding", "orientation", "welcome"}},
	{"orientation", []string{"onboarding", "introduction", "welcome"}},
	{"setup", []string{"configuration", "installation", "environment setup"}},
	{"training", []string{"learning", "courses", "education", "onboarding"}},
	{"mentor", []string{"buddy", "coach", "onboarding support"}},
	{"benefits", []string{"employee benefits", "perks", "hr", "onboarding"}},
	{"handbook", []string{"employee handbook", "guide", "manual", "policies"}},
}

// technicalTerms are preserved even though they would otherwise match a
// question or filler word (e.g. "ui", "as").
var technicalTerms = map[string]struct{}{
	"api": {}, "sdk": {}, "cli": {}, "ui": {}, "ux": {}, "git": {},
	"docker": {}, "kubernetes": {}, "k8s": {}, "azure": {}, "aws": {}, "gcp": {},
	"cloud": {}, "devops": {}, "ci/cd": {}, "pipeline": {}, "llm": {}, "openai": {},
	"gpt": {}, "embedding": {}, "vector": {}, "database": {}, "storage": {},
	"memory": {}, "cache": {}, "index": {}, "search": {}, "authentication": {},
	"authorization": {}, "security": {}, "encryption": {}, "documentation": {},
	"markdown": {}, "slack": {}, "teams": {}, "chat": {}, "bot": {}, "function": {},
	"method": {}, "class": {}, "object": {}, "interface": {}, "skill": {},
}

var questionWords = map[string]struct{}{
	"what": {}, "how": {}, "why": {}, "when": {}, "where": {}, "who": {},
	"is": {}, "are": {}, "can": {}, "could": {}, "would": {}, "should": {},
}

var fillerWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "in": {}, "on": {}, "at": {}, "to": {},
	"for": {}, "with": {}, "by": {}, "about": {}, "like": {}, "as": {}, "of": {},
}

var punctuation = regexp.MustCompile(`[^\w\s]`)

// PreprocessQuery narrows a natural-language query down to the terms most
// useful for retrieval: it expands a handful of onboarding-adjacent keywords
// with related terms, then strips question and filler words while keeping
// technical terms intact. If stripping removes more than half the words, the
// original query is returned unchanged rather than risking an empty or
// over-pruned search.
func PreprocessQuery(query string) string {
	processed := strings.ToLower(query)

	// Choosing by position rather than slice order keeps a second pass from
	// picking a keyword out of the terms the first pass appended.
	chosen, chosenPos := -1, -1
	for i, de := range domainExpansions {
		if pos := strings.Index(processed, de.keyword); pos >= 0 && (chosen < 0 || pos < chosenPos) {
			chosen, chosenPos = i, pos
		}
	}

	for i, de := range domainExpansions {
		if i != chosen {
			continue
		}
		var newTerms []string
		for _, term := range de.expansions {
			if strings.Contains(processed, term) {
				continue
			}
			newTerms = append(newTerms, term)
		}
		if len(newTerms) > 0 {
			processed = processed + " " + strings.Join(newTerms, " ")
		}
		break
	}

	words := strings.Fields(processed)
	filtered := make([]string, 0, len(words))
	for _, word := range words {
		clean := punctuation.ReplaceAllString(word, "")
		if _, ok := technicalTerms[clean]; ok {
			filtered = append(filtered, word)
			continue
		}
		_, isQuestion := questionWords[clean]
		_, isFiller := fillerWords[clean]
		if !isQuestion && !isFiller {
			filtered = append(filtered, word)
		}
	}

	if len(filtered)*2 < len(words) {
		return query
	}
	return strings.Join(filtered, " ")
}

// maxPreviousQueries bounds how many prior turns contribute context terms.
const maxPreviousQueries = 2

// maxAdditionalTerms bounds how many context terms are appended, to avoid
// query explosion on long conversations.
const maxAdditionalTerms = 5

// EnhanceQueryWithContext folds key terms from the most recent previous
// queries into a follow-up query, skipping terms the follow-up already
// contains.
func EnhanceQueryWithContext(query string, previousQueries []string) string {
	if len(previousQueries) == 0 {
		return query
	}

	recent := previousQueries
	if len(recent) > maxPreviousQueries {
		recent = recent[len(recent)-maxPreviousQueries:]
	}

	keyTerms := make(map[string]struct{})
	for _, prev := range recent {
		for _, term := range strings.Fields(PreprocessQuery(prev)) {
			keyTerms[term] = struct{}{}
		}
	}

	current := make(map[string]struct{})
	for _, term := range strings.Fields(strings.ToLower(query)) {
		current[term] = struct{}{}
	}

	var additional []string
	for term := range keyTerms {
		if _, ok := current[term]; !ok {
			additional = append(additional, term)
		}
	}
	if len(additional) == 0 {
		return query
	}
	if len(additional) > maxAdditionalTerms {
		additional = additional[:maxAdditionalTerms]
	}

	return query + " " + strings.Join(additional, " ")
}
