package config

import (
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/intake/pkg/domain/interfaces"
	"github.com/secmon-lab/intake/pkg/service/slack"
	"github.com/secmon-lab/intake/pkg/service/worker"
	"github.com/urfave/cli/v3"
)

type Slack struct {
	botToken        string
	webhookURL      string
	mention         string
	refreshInterval time.Duration
}

func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack Bot User OAuth Token (for the staff directory)",
			Category:    "Slack",
			Destination: &x.botToken,
			Sources:     cli.EnvVars("INTAKE_SLACK_BOT_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "slack-webhook-url",
			Usage:       "Slack incoming webhook URL for new case notifications",
			Category:    "Slack",
			Destination: &x.webhookURL,
			Sources:     cli.EnvVars("INTAKE_SLACK_WEBHOOK_URL"),
		},
		&cli.StringFlag{
			Name:        "slack-mention",
			Usage:       "Mention put in front of notifications, e.g. <!channel> or <!subteam^S0123>",
			Category:    "Slack",
			Destination: &x.mention,
			Sources:     cli.EnvVars("INTAKE_SLACK_MENTION"),
		},
		&cli.DurationFlag{
			Name:        "slack-refresh-interval",
			Usage:       "Interval of the staff directory refresh",
			Category:    "Slack",
			Value:       10 * time.Minute,
			Destination: &x.refreshInterval,
			Sources:     cli.EnvVars("INTAKE_SLACK_REFRESH_INTERVAL"),
		},
	}
}

func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("bot-token.len", len(x.botToken)),
		slog.Bool("webhook", x.webhookURL != ""),
		slog.String("mention", x.mention),
		slog.Duration("refresh-interval", x.refreshInterval),
	)
}

// IsNotifierConfigured checks if the webhook notifier can be built
func (x *Slack) IsNotifierConfigured() bool {
	return x.webhookURL != ""
}

// IsDirectoryConfigured checks if the staff directory can be synced
func (x *Slack) IsDirectoryConfigured() bool {
	return x.botToken != ""
}

// ConfigureNotifier builds the new case notifier. It returns nil when no
// webhook URL is set. --slack-mention wins over the config file mention.
func (x *Slack) ConfigureNotifier(app *AppConfig) (slack.Notifier, error) {
	if x.webhookURL == "" {
		return nil, nil
	}

	mention := x.mention
	var baseURL string
	if app != nil {
		if mention == "" {
			mention = app.SlackMention
		}
		baseURL = app.BaseURL
	}

	n, err := slack.NewWebhook(x.webhookURL,
		slack.WithMention(mention),
		slack.WithBaseURL(baseURL),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to configure Slack notifier")
	}
	return n, nil
}

// ConfigureWorker builds the staff directory refresh worker. It returns nil
// when no bot token is set.
func (x *Slack) ConfigureWorker(repo interfaces.StaffRepository, domains []string) (*worker.StaffRefreshWorker, error) {
	if x.botToken == "" {
		return nil, nil
	}
	if x.refreshInterval <= 0 {
		return nil, goerr.Wrap(ErrInvalidConfig, "slack-refresh-interval must be positive",
			goerr.V(FlagKey, "slack-refresh-interval"), goerr.V("value", x.refreshInterval))
	}

	svc, err := slack.New(x.botToken)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize slack service")
	}
	return worker.NewStaffRefreshWorker(repo, svc, x.refreshInterval, domains), nil
}
