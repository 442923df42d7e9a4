package notion

import (
	"context"
	"fmt"
	"strings"

	"github.com/jomei/notionapi"
)

// Service reads case documents hosted on Notion
type Service interface {
	// GetPageText returns the content of a page rendered as Markdown
	GetPageText(ctx context.Context, pageID string) (string, error)
}

// Block is a page block with its nested children
type Block struct {
	Type     notionapi.BlockType
	Text     string
	Checked  bool
	Language string
	Children Blocks
}

// Blocks is a sequence of sibling blocks
type Blocks []Block

// ToMarkdown renders blocks as Markdown. Nested blocks are indented by two
// spaces per level.
func (b Blocks) ToMarkdown() string {
	var sb strings.Builder
	b.render(&sb, 0)
	return sb.String()
}

func (b Blocks) render(sb *strings.Builder, depth int) {
	indent := strings.Repeat("  ", depth)
	number := 0

	for _, block := range b {
		if block.Type == notionapi.BlockTypeNumberedListItem {
			number++
		} else {
			number = 0
		}

		switch block.Type {
		case notionapi.BlockTypeHeading1:
			fmt.Fprintf(sb, "%s# %s\n", indent, block.Text)
		case notionapi.BlockTypeHeading2:
			fmt.Fprintf(sb, "%s## %s\n", indent, block.Text)
		case notionapi.BlockTypeHeading3:
			fmt.Fprintf(sb, "%s### %s\n", indent, block.Text)
		case notionapi.BlockTypeBulletedListItem:
			fmt.Fprintf(sb, "%s- %s\n", indent, block.Text)
		case notionapi.BlockTypeNumberedListItem:
			fmt.Fprintf(sb, "%s%d. %s\n", indent, number, block.Text)
		case notionapi.BlockTypeToDo:
			mark := " "
			if block.Checked {
				mark = "x"
			}
			fmt.Fprintf(sb, "%s- [%s] %s\n", indent, mark, block.Text)
		case notionapi.BlockTypeQuote, notionapi.BlockTypeCallout:
			fmt.Fprintf(sb, "%s> %s\n", indent, block.Text)
		case notionapi.BlockTypeCode:
			fmt.Fprintf(sb, "%s```%s\n%s%s\n%s```\n", indent, block.Language, indent, block.Text, indent)
		case notionapi.BlockTypeDivider:
			fmt.Fprintf(sb, "%s---\n", indent)
		default:
			if block.Text != "" {
				fmt.Fprintf(sb, "%s%s\n", indent, block.Text)
			}
		}

		if len(block.Children) > 0 {
			block.Children.render(sb, depth+1)
		}
	}
}

// plainText joins rich text segments. Links are kept next to their label.
func plainText(rt []notionapi.RichText) string {
	var sb strings.Builder
	for _, t := range rt {
		sb.WriteString(t.PlainText)
		if t.Href != "" && t.Href != t.PlainText {
			fmt.Fprintf(&sb, " (%s)", t.Href)
		}
	}
	return sb.String()
}
