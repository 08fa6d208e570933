// Package router resolves which skill and function should handle an
// incoming request, given the registered skill pool.
package router

import (
	"strings"

	"github.com/sdamache/konveyor/internal/skill"
)

// routeKeyword pairs a literal keyword with the skill name it forces,
// overriding keyword-overlap scoring entirely when present.
type routeKeyword struct {
	keyword   string
	skillName string
}

// routeKeywords is checked in order; the first match wins. A fixed slice
// (rather than a map) keeps Route deterministic when an utterance matches
// more than one keyword, e.g. "explain the docs" matches both "explain"
// and "docs".
var routeKeywords = []routeKeyword{
	{"docs", "knowledge"},
	{"documentation", "knowledge"},
	{"explain", "code"},
	{"code", "code"},
	{"analyze", "code"},
}

var questionPatterns = []string{"what", "how", "why", "when", "where", "who", "can you explain"}
var questionKeywords = []string{"what", "how", "why", "when", "where", "who"}
var greetingPatterns = []string{"hello", "hi ", "hey", "greetings"}

// DefaultSkill is used when nothing in the request matches any skill.
const DefaultSkill = "chat"

// Decision is the outcome of routing: which skill and which function on it
// should handle the request.
type Decision struct {
	SkillName    string
	FunctionName string
}

// Route determines the skill and function for a request, applying a fixed
// precedence: a route keyword forces a skill; failing that, a question
// pattern or mark selects answer_question; failing that, a greeting
// pattern selects greet (if the matched skill exposes it); failing that, a
// bullet-list formatting request selects format_as_bullet_list; otherwise
// the default chat function is used. Keyword-overlap scoring against the
// registry only picks the skill when no route keyword applies.
func Route(reg *skill.Manager, request string) Decision {
	lower := strings.ToLower(request)

	skillName := bestSkill(reg, lower)
	functionName := "chat"

	if overridden, ok := matchRouteKeyword(reg, lower); ok {
		skillName = overridden
		functionName = "run"
		return Decision{SkillName: skillName, FunctionName: functionName}
	}

	switch {
	case startsWithAny(lower, questionPatterns) || strings.Contains(lower, "?") || containsAnyWord(lower, questionKeywords):
		functionName = "answer_question"
	case containsAny(lower, greetingPatterns):
		if s := reg.Get(skillName); s != nil && s.HasFunction("greet") {
			functionName = "greet"
		} else {
			functionName = "chat"
		}
	case strings.Contains(lower, "format") && strings.Contains(lower, "bullet"):
		functionName = "format_as_bullet_list"
	}

	return Decision{SkillName: skillName, FunctionName: functionName}
}

func bestSkill(reg *skill.Manager, lower string) string {
	matches := reg.FindByKeywords(lower)
	if len(matches) > 0 {
		return matches[0]
	}
	return DefaultSkill
}

func matchRouteKeyword(reg *skill.Manager, lower string) (string, bool) {
	for _, rk := range routeKeywords {
		if strings.Contains(lower, rk.keyword) && reg.Get(rk.skillName) != nil {
			return rk.skillName, true
		}
	}
	return "", false
}

func startsWithAny(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func containsAnyWord(s string, words []string) bool {
	fields := strings.Fields(s)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	for _, w := range words {
		if _, ok := set[w]; ok {
			return true
		}
	}
	return false
}
