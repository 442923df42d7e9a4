package slack

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/intake/pkg/domain/model"
	"github.com/slack-go/slack"
)

// webhook implements Notifier with an incoming webhook
type webhook struct {
	url     string
	mention string
	baseURL string
}

// WebhookOption configures the webhook notifier
type WebhookOption func(*webhook)

// WithMention prefixes notifications with a mention such as
// "<!subteam^S0123456>" or "<!channel>"
func WithMention(mention string) WebhookOption {
	return func(w *webhook) {
		w.mention = mention
	}
}

// WithBaseURL sets the dashboard URL used for the case link button
func WithBaseURL(baseURL string) WebhookOption {
	return func(w *webhook) {
		w.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// NewWebhook creates a Notifier posting to an incoming webhook URL
func NewWebhook(url string, opts ...WebhookOption) (Notifier, error) {
	if url == "" {
		return nil, goerr.New("Slack webhook URL is required")
	}

	w := &webhook{url: url}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

func (w *webhook) NotifyNewCase(ctx context.Context, c *model.Case) error {
	msg := NewCaseMessage(c, w.mention, w.caseURL(c.ID))
	if err := slack.PostWebhookContext(ctx, w.url, msg); err != nil {
		return goerr.Wrap(err, "failed to post Slack notification", goerr.V(model.CaseIDKey, c.ID))
	}
	return nil
}

func (w *webhook) caseURL(id model.CaseID) string {
	if w.baseURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/cases/%s", w.baseURL, id)
}

// NewCaseMessage builds the Block Kit announcement of a new case. The link
// button is omitted when caseURL is empty.
func NewCaseMessage(c *model.Case, mention, caseURL string) *slack.WebhookMessage {
	lead := "新しい相談案件が登録されました。"
	text := fmt.Sprintf("🆕 新規相談: %s様", c.Name)
	if mention != "" {
		lead = mention + " " + lead
		text = mention + " " + text
	}

	blocks := []slack.Block{
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, lead, false, false), nil, nil),
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, "📝 相談内容の詳細", true, false)),
		slack.NewSectionBlock(nil, []*slack.TextBlockObject{
			slack.NewTextBlockObject(slack.MarkdownType,
				fmt.Sprintf("*相談者:*\n%s 様 (%s)", c.Name, c.ConsulteeType.Label()), false, false),
			slack.NewTextBlockObject(slack.MarkdownType,
				fmt.Sprintf("*概要:*\n%s", c.Summary), false, false),
		}, nil),
	}

	if caseURL != "" {
		btn := slack.NewButtonBlockElement("open_case", c.ID.String(),
			slack.NewTextBlockObject(slack.PlainTextType, "👉 ダッシュボードで確認する", true, false))
		btn.URL = caseURL
		btn.Style = slack.StylePrimary
		blocks = append(blocks, slack.NewActionBlock("case_actions", btn))
	}

	return &slack.WebhookMessage{
		Text:   text,
		Blocks: &slack.Blocks{BlockSet: blocks},
	}
}
