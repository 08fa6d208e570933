// Package format turns a Markdown-ish reply into the two surfaces a
// messaging platform needs: plain text for clients that don't render rich
// content, and a block structure for clients that do.
package format

import "strings"

// Text carries a platform-rendering hint alongside literal content.
type Text struct {
	Type string `json:"type"` // "plain_text" or "mrkdwn"
	Text string `json:"text"`
}

// Block is a single structured UI element.
type Block struct {
	Type string `json:"type"` // "header", "section", "divider", "context"
	Text *Text  `json:"text,omitempty"`
}

// Result is the {text, blocks[]?} pair a response carries to the platform.
type Result struct {
	Text   string  `json:"text"`
	Blocks []Block `json:"blocks,omitempty"`
}

// Format splits a Markdown-ish string on header lines (#, ##, ###) into
// blocks. Each header opens a section, emitted as a header block followed by
// a section block for the body that precedes the next header. Sections are
// separated by a divider; a trailing divider is never emitted. When
// includeBlocks is false, Blocks is left nil.
func Format(markdown string, includeBlocks bool) Result {
	res := Result{Text: markdown}
	if !includeBlocks {
		return res
	}

	var blocks []Block
	var body []string

	flushBody := func() {
		text := strings.TrimSpace(strings.Join(body, "\n"))
		if text != "" {
			blocks = append(blocks, sectionBlock(text))
		}
		body = nil
	}

	for _, line := range strings.Split(markdown, "\n") {
		if level, heading, ok := headerLine(line); ok {
			_ = level
			flushBody()
			if len(blocks) > 0 {
				blocks = append(blocks, Block{Type: "divider"})
			}
			blocks = append(blocks, headerBlock(heading))
			continue
		}
		body = append(body, line)
	}
	flushBody()

	if len(blocks) > 0 && blocks[len(blocks)-1].Type == "divider" {
		blocks = blocks[:len(blocks)-1]
	}

	res.Blocks = blocks
	return res
}

// FormatError produces the standard error presentation: a single "Error"
// header followed by the message as a section.
func FormatError(message string) Result {
	return Result{
		Text: message,
		Blocks: []Block{
			headerBlock("Error"),
			sectionBlock(message),
		},
	}
}

func headerBlock(text string) Block {
	return Block{Type: "header", Text: &Text{Type: "plain_text", Text: text}}
}

func sectionBlock(text string) Block {
	return Block{Type: "section", Text: &Text{Type: "mrkdwn", Text: text}}
}

// headerLine reports whether line is a Markdown header, its level (1-3),
// and its trimmed heading text.
func headerLine(line string) (level int, heading string, ok bool) {
	trimmed := strings.TrimSpace(line)
	for l := 3; l >= 1; l-- {
		prefix := strings.Repeat("#", l) + " "
		if strings.HasPrefix(trimmed, prefix) {
			return l, strings.TrimSpace(trimmed[len(prefix):]), true
		}
	}
	return 0, "", false
}
