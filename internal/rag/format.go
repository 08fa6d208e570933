package rag

import (
	"fmt"
	"strings"
)

// FormatContext renders retrieval results into a prompt-friendly block with
// a numbered citation and source line per result.
func FormatContext(results []Result) string {
	if len(results) == 0 {
		return "No relevant context found."
	}

	var chunks []string
	for i, r := range results {
		citation := fmt.Sprintf("[%d] Source: %s, Relevance: %.2f", i+1, r.Source, r.Score)
		chunks = append(chunks, fmt.Sprintf("%s\n%s", r.Content, citation))
	}
	return strings.Join(chunks, "\n\n")
}

// FormatAnswerWithCitations builds a final answer string from ranked
// results: an introduction, each chunk inline-cited by number, and a
// trailing sources section with document identifiers.
func FormatAnswerWithCitations(results []Result) string {
	if len(results) == 0 {
		return "I couldn't find any relevant information to answer your question."
	}

	var b strings.Builder
	b.WriteString("Based on the documentation, here's what I found:\n\n")

	for i, r := range results {
		content := truncate(r.Content, 300)
		fmt.Fprintf(&b, "%s [%d]\n\n", content, i+1)
	}

	b.WriteString("---\n\n**Sources:**\n")
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r.Source)
	}

	return b.String()
}

// FormatAnswerWithSources appends a numbered sources footer to a completion
// answer, grounding it in the retrieval results it was prompted with
// without discarding what the model actually generated. If answer is blank
// (the completion call returned no text), it falls back to
// FormatAnswerWithCitations so the reply is never empty.
func FormatAnswerWithSources(answer string, results []Result) string {
	answer = strings.TrimSpace(answer)
	if len(results) == 0 {
		return answer
	}
	if answer == "" {
		return FormatAnswerWithCitations(results)
	}

	var b strings.Builder
	b.WriteString(answer)
	b.WriteString("\n\n---\n\n**Sources:**\n")
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r.Source)
	}
	return b.String()
}

// truncate shortens content to at most max characters, preferring to cut at
// a sentence boundary when one falls in the final third of the limit.
func truncate(content string, max int) string {
	if len(content) <= max {
		return content
	}
	head := content[:max]
	if last := strings.LastIndex(head, "."); last > max*2/3 {
		return head[:last+1]
	}
	return head + "..."
}
