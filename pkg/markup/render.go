// Package markup turns the raw text of a chat message into a flat list of
// display blocks.
//
// It understands a small, line-oriented subset of markdown: three heading
// levels, ordered and unordered list items, blank lines and **bold** runs
// inside paragraphs. Anything else is a paragraph. Render never fails.
package markup

import (
	"regexp"
	"strings"
)

const emphasisMarker = "**"

var orderedMarker = regexp.MustCompile(`^\d+\.\s`)

var headingPrefixes = []struct {
	prefix string
	level  int
}{
	{"### ", 3},
	{"## ", 2},
	{"# ", 1},
}

// Render classifies every line of content. Empty content yields no blocks.
func Render(content string) []Block {
	if content == "" {
		return nil
	}

	lines := strings.Split(content, "\n")
	blocks := make([]Block, 0, len(lines))
	for _, line := range lines {
		blocks = append(blocks, renderLine(strings.TrimSuffix(line, "\r")))
	}
	return blocks
}

func renderLine(line string) Block {
	for _, h := range headingPrefixes {
		if strings.HasPrefix(line, h.prefix) {
			return Heading{Level: h.level, Text: line[len(h.prefix):]}
		}
	}

	if loc := orderedMarker.FindStringIndex(line); loc != nil {
		return ListItem{Ordered: true, Text: line[loc[1]:]}
	}

	if strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") {
		return ListItem{Ordered: false, Text: line[2:]}
	}

	if strings.TrimSpace(line) == "" {
		return Blank{}
	}

	return Paragraph{Text: line, Spans: splitEmphasis(line)}
}

// splitEmphasis pairs up ** markers from left to right. An unpaired trailing
// marker stays in the last plain span.
func splitEmphasis(s string) []Span {
	var spans []Span
	appendSpan := func(text string, emphasis bool) {
		if text != "" {
			spans = append(spans, Span{Text: text, Emphasis: emphasis})
		}
	}

	rest := s
	for {
		open := strings.Index(rest, emphasisMarker)
		if open < 0 {
			break
		}
		inner := rest[open+len(emphasisMarker):]
		end := strings.Index(inner, emphasisMarker)
		if end < 0 {
			break
		}
		appendSpan(rest[:open], false)
		appendSpan(inner[:end], true)
		rest = inner[end+len(emphasisMarker):]
	}
	appendSpan(rest, false)

	return spans
}
