package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/intake/pkg/service/gcal"
	"github.com/secmon-lab/intake/pkg/service/gdocs"
	"github.com/secmon-lab/intake/pkg/service/notion"
	"github.com/secmon-lab/intake/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// Google holds the Workspace integrations: case documents generated from a
// template and interview blocks on a shared calendar. Documents hosted on
// Notion are read with the Notion token.
type Google struct {
	templateID  string
	folderID    string
	readDocs    bool
	calendarID  string
	notionToken string
}

func (x *Google) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "docs-template-id",
			Usage:       "Google Docs ID of the case document template",
			Category:    "Google",
			Sources:     cli.EnvVars("INTAKE_DOCS_TEMPLATE_ID"),
			Destination: &x.templateID,
		},
		&cli.StringFlag{
			Name:        "docs-folder-id",
			Usage:       "Google Drive folder ID receiving generated case documents",
			Category:    "Google",
			Sources:     cli.EnvVars("INTAKE_DOCS_FOLDER_ID"),
			Destination: &x.folderID,
		},
		&cli.BoolFlag{
			Name:        "docs-read",
			Usage:       "Read Google Docs for the assistant even when no template is configured",
			Category:    "Google",
			Sources:     cli.EnvVars("INTAKE_DOCS_READ"),
			Destination: &x.readDocs,
		},
		&cli.StringFlag{
			Name:        "calendar-id",
			Usage:       "Google Calendar ID for interview schedules",
			Category:    "Google",
			Sources:     cli.EnvVars("INTAKE_CALENDAR_ID"),
			Destination: &x.calendarID,
		},
		&cli.StringFlag{
			Name:        "notion-api-token",
			Usage:       "Notion API token for case documents hosted on Notion",
			Category:    "Google",
			Sources:     cli.EnvVars("INTAKE_NOTION_API_TOKEN"),
			Destination: &x.notionToken,
		},
	}
}

func (x Google) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("template_id", x.templateID),
		slog.String("folder_id", x.folderID),
		slog.Bool("read_docs", x.readDocs),
		slog.String("calendar_id", x.calendarID),
		slog.Int("notion-token.len", len(x.notionToken)),
	)
}

// Configure returns the use case options of every configured integration.
// Unconfigured integrations are left out and the matching side effects
// become no-ops.
func (x *Google) Configure(ctx context.Context) ([]usecase.Option, error) {
	var opts []usecase.Option

	switch {
	case x.templateID != "" || x.folderID != "":
		docs, err := gdocs.New(ctx, x.templateID, x.folderID)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize document service")
		}
		opts = append(opts, usecase.WithDocs(docs))

	case x.readDocs:
		reader, err := gdocs.New(ctx, "", "")
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize document reader")
		}
		opts = append(opts, usecase.WithDocumentReader(reader))
	}

	if x.calendarID != "" {
		cal, err := gcal.New(ctx, x.calendarID)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize calendar service")
		}
		opts = append(opts, usecase.WithCalendar(cal))
	}

	if x.notionToken != "" {
		svc, err := notion.New(x.notionToken)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize notion service")
		}
		opts = append(opts, usecase.WithNotion(svc))
	}

	return opts, nil
}
