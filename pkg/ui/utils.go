package ui

import (
	"strconv"
	"strings"

	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"

	"github.com/go-go-golems/pleader/pkg/markup"
)

// RenderBlocks lays out markup blocks for a terminal of the given width.
func RenderBlocks(blocks []markup.Block, width int, style *Style) string {
	lines := make([]string, 0, len(blocks))
	ordinal := 0
	for _, b := range blocks {
		switch v := b.(type) {
		case markup.Heading:
			lines = append(lines, style.Heading.Render(wrap(v.Text, width)))
		case markup.ListItem:
			prefix := "• "
			if v.Ordered {
				ordinal++
				prefix = strconv.Itoa(ordinal) + ". "
			}
			lines = append(lines, hangingIndent(style.Bullet.Render(prefix), wrap(v.Text, width-len([]rune(prefix))), len([]rune(prefix))))
			continue
		case markup.Paragraph:
			lines = append(lines, wrap(renderSpans(v.Spans, style), width))
		case markup.Blank:
			lines = append(lines, "")
		}
		ordinal = 0
	}
	return strings.Join(lines, "\n")
}

// RenderContent renders raw message content.
func RenderContent(content string, width int, style *Style) string {
	return RenderBlocks(markup.Render(content), width, style)
}

func renderSpans(spans []markup.Span, style *Style) string {
	var sb strings.Builder
	for _, s := range spans {
		if s.Emphasis {
			sb.WriteString(style.Emphasis.Render(s.Text))
		} else {
			sb.WriteString(s.Text)
		}
	}
	return sb.String()
}

func wrap(s string, width int) string {
	if width <= 0 {
		return s
	}
	return wordwrap.String(s, width)
}

// hangingIndent puts prefix in front of the first line and aligns the
// following lines under the text.
func hangingIndent(prefix string, body string, width int) string {
	first, rest, found := strings.Cut(body, "\n")
	if !found {
		return prefix + first
	}
	return prefix + first + "\n" + indent.String(rest, uint(width))
}
