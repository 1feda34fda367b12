package markup

import (
	"strconv"
	"strings"
)

type BlockKind string

const (
	BlockKindHeading   BlockKind = "heading"
	BlockKindListItem  BlockKind = "list-item"
	BlockKindParagraph BlockKind = "paragraph"
	BlockKindBlank     BlockKind = "blank"
)

// Block is one display unit produced by Render. The concrete types are
// Heading, ListItem, Paragraph and Blank.
type Block interface {
	Kind() BlockKind
	isBlock()
}

type Heading struct {
	// Level is 1, 2 or 3.
	Level int
	Text  string
}

func (Heading) Kind() BlockKind { return BlockKindHeading }
func (Heading) isBlock()        {}

type ListItem struct {
	Ordered bool
	Text    string
}

func (ListItem) Kind() BlockKind { return BlockKindListItem }
func (ListItem) isBlock()        {}

// Span is a run of paragraph text, either plain or emphasized.
type Span struct {
	Text     string
	Emphasis bool
}

type Paragraph struct {
	// Text is the unmodified source line.
	Text  string
	Spans []Span
}

func (Paragraph) Kind() BlockKind { return BlockKindParagraph }
func (Paragraph) isBlock()        {}

type Blank struct{}

func (Blank) Kind() BlockKind { return BlockKindBlank }
func (Blank) isBlock()        {}

// PlainText flattens blocks back into undecorated text, one line per block.
// Emphasis markers are dropped, list items get a bullet or their position.
func PlainText(blocks []Block) string {
	var sb strings.Builder
	ordinal := 0
	for i, b := range blocks {
		if i > 0 {
			sb.WriteString("\n")
		}
		switch v := b.(type) {
		case Heading:
			sb.WriteString(v.Text)
		case ListItem:
			if v.Ordered {
				ordinal++
				sb.WriteString(strconv.Itoa(ordinal))
				sb.WriteString(". ")
			} else {
				sb.WriteString("• ")
			}
			sb.WriteString(v.Text)
			continue
		case Paragraph:
			for _, s := range v.Spans {
				sb.WriteString(s.Text)
			}
		case Blank:
		}
		ordinal = 0
	}
	return sb.String()
}
