package notion

import (
	"context"
	"regexp"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/m-mizutani/goerr/v2"
)

// client implements Service interface
type client struct {
	api *notionapi.Client
}

// New creates a new Notion service with the provided integration token
func New(token string) (Service, error) {
	if token == "" {
		return nil, goerr.New("Notion API token is required")
	}

	return &client{
		api: notionapi.NewClient(
			notionapi.Token(token),
			notionapi.WithRetry(3), // Retry up to 3 times on rate limit (HTTP 429)
		),
	}, nil
}

func (c *client) GetPageText(ctx context.Context, pageID string) (string, error) {
	blocks, err := c.fetchBlocks(ctx, pageID)
	if err != nil {
		return "", goerr.Wrap(err, "failed to fetch page blocks", goerr.V("page_id", pageID))
	}
	return blocks.ToMarkdown(), nil
}

// fetchBlocks retrieves all children of a page or block, descending into
// nested blocks
func (c *client) fetchBlocks(ctx context.Context, blockID string) (Blocks, error) {
	var blocks Blocks
	var cursor notionapi.Cursor

	for {
		resp, err := c.api.Block.GetChildren(ctx, notionapi.BlockID(blockID), &notionapi.Pagination{
			StartCursor: cursor,
			PageSize:    100,
		})
		if err != nil {
			return nil, goerr.Wrap(err, "failed to get block children", goerr.V("block_id", blockID))
		}

		for _, obj := range resp.Results {
			block := convertBlock(obj)
			if obj.GetHasChildren() {
				children, err := c.fetchBlocks(ctx, obj.GetID().String())
				if err != nil {
					return nil, err
				}
				block.Children = children
			}
			blocks = append(blocks, block)
		}

		if !resp.HasMore {
			break
		}
		cursor = notionapi.Cursor(resp.NextCursor)
	}

	return blocks, nil
}

func convertBlock(obj notionapi.Block) Block {
	block := Block{Type: obj.GetType()}

	switch b := obj.(type) {
	case *notionapi.ParagraphBlock:
		block.Text = plainText(b.Paragraph.RichText)
	case *notionapi.Heading1Block:
		block.Text = plainText(b.Heading1.RichText)
	case *notionapi.Heading2Block:
		block.Text = plainText(b.Heading2.RichText)
	case *notionapi.Heading3Block:
		block.Text = plainText(b.Heading3.RichText)
	case *notionapi.BulletedListItemBlock:
		block.Text = plainText(b.BulletedListItem.RichText)
	case *notionapi.NumberedListItemBlock:
		block.Text = plainText(b.NumberedListItem.RichText)
	case *notionapi.ToDoBlock:
		block.Text = plainText(b.ToDo.RichText)
		block.Checked = b.ToDo.Checked
	case *notionapi.QuoteBlock:
		block.Text = plainText(b.Quote.RichText)
	case *notionapi.CalloutBlock:
		block.Text = plainText(b.Callout.RichText)
	case *notionapi.ToggleBlock:
		block.Text = plainText(b.Toggle.RichText)
	case *notionapi.CodeBlock:
		block.Text = plainText(b.Code.RichText)
		block.Language = b.Code.Language
	}

	return block
}

var (
	uuidPattern    = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)
	compactPattern = regexp.MustCompile(`[0-9a-fA-F]{32}`)
)

// ParsePageID extracts the page ID from a Notion URL such as
// https://www.notion.so/team/Case-0123456789abcdef0123456789abcdef?pvs=4
func ParsePageID(url string) (string, bool) {
	path := url
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}

	if m := uuidPattern.FindAllString(path, -1); len(m) > 0 {
		return strings.ReplaceAll(strings.ToLower(m[len(m)-1]), "-", ""), true
	}
	if m := compactPattern.FindAllString(path, -1); len(m) > 0 {
		return strings.ToLower(m[len(m)-1]), true
	}
	return "", false
}

// IsPageURL reports whether url is hosted on Notion
func IsPageURL(url string) bool {
	return strings.Contains(url, "notion.so") || strings.Contains(url, "notion.site")
}
