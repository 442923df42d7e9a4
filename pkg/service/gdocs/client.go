package gdocs

import (
	"context"
	"regexp"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/intake/pkg/domain/model"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// Service generates case documents from a Google Docs template and reads
// documents back as plain text
type Service interface {
	// CreateFromTemplate copies the template into the output folder, replaces
	// the placeholders and returns the web view URL of the copy
	CreateFromTemplate(ctx context.Context, doc *model.CaseDocument) (string, error)

	// ExtractText returns the text runs of the document body
	ExtractText(ctx context.Context, documentID string) (string, error)
}

// client implements Service interface
type client struct {
	drive      *drive.Service
	docs       *docs.Service
	templateID string
	folderID   string
}

// ErrNoTemplate is returned by CreateFromTemplate when the service was
// created without a template
var ErrNoTemplate = goerr.New("document template is not configured")

// New creates a Google Docs service. templateID is the document copied for
// every case and folderID the Drive folder receiving the copies. Both may be
// empty for a read-only service, but not only one of them.
func New(ctx context.Context, templateID, folderID string, opts ...option.ClientOption) (Service, error) {
	if (templateID == "") != (folderID == "") {
		return nil, goerr.New("template document ID and output folder ID must be set together",
			goerr.V("template_id", templateID),
			goerr.V("folder_id", folderID))
	}

	driveSvc, err := drive.NewService(ctx, append([]option.ClientOption{option.WithScopes(drive.DriveScope)}, opts...)...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Drive client")
	}
	docsSvc, err := docs.NewService(ctx, append([]option.ClientOption{option.WithScopes(docs.DocumentsScope)}, opts...)...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Docs client")
	}

	return &client{
		drive:      driveSvc,
		docs:       docsSvc,
		templateID: templateID,
		folderID:   folderID,
	}, nil
}

// CreateFromTemplate copies the template and substitutes the placeholders.
// Placeholders missing from the template are left untouched by the API.
func (c *client) CreateFromTemplate(ctx context.Context, doc *model.CaseDocument) (string, error) {
	if c.templateID == "" {
		return "", goerr.Wrap(ErrNoTemplate, "cannot create document", goerr.V("name", doc.Name))
	}

	file, err := c.drive.Files.Copy(c.templateID, &drive.File{
		Name:    doc.Name,
		Parents: []string{c.folderID},
	}).SupportsAllDrives(true).Fields("id", "webViewLink").Context(ctx).Do()
	if err != nil {
		return "", goerr.Wrap(err, "failed to copy template",
			goerr.V("template_id", c.templateID),
			goerr.V("folder_id", c.folderID),
			goerr.V("name", doc.Name))
	}
	if file.Id == "" {
		return file.WebViewLink, nil
	}

	requests := make([]*docs.Request, 0, len(doc.Placeholders))
	for _, p := range doc.Placeholders {
		requests = append(requests, &docs.Request{
			ReplaceAllText: &docs.ReplaceAllTextRequest{
				ContainsText: &docs.SubstringMatchCriteria{
					Text:      p.Key,
					MatchCase: true,
				},
				ReplaceText: p.Value,
				// empty values must still be sent to clear the placeholder
				ForceSendFields: []string{"ReplaceText"},
			},
		})
	}

	if _, err := c.docs.Documents.BatchUpdate(file.Id, &docs.BatchUpdateDocumentRequest{
		Requests: requests,
	}).Context(ctx).Do(); err != nil {
		return "", goerr.Wrap(err, "failed to replace placeholders",
			goerr.V("document_id", file.Id),
			goerr.V("url", file.WebViewLink))
	}

	return file.WebViewLink, nil
}

// ExtractText concatenates every text run of the document, including the
// ones inside tables
func (c *client) ExtractText(ctx context.Context, documentID string) (string, error) {
	doc, err := c.docs.Documents.Get(documentID).Context(ctx).Do()
	if err != nil {
		return "", goerr.Wrap(err, "failed to get document", goerr.V("document_id", documentID))
	}
	if doc.Body == nil {
		return "", nil
	}

	var sb strings.Builder
	writeElements(&sb, doc.Body.Content)
	return sb.String(), nil
}

func writeElements(sb *strings.Builder, elements []*docs.StructuralElement) {
	for _, el := range elements {
		switch {
		case el.Paragraph != nil:
			for _, pe := range el.Paragraph.Elements {
				if pe.TextRun != nil {
					sb.WriteString(pe.TextRun.Content)
				}
			}
		case el.Table != nil:
			for _, row := range el.Table.TableRows {
				for _, cell := range row.TableCells {
					writeElements(sb, cell.Content)
				}
			}
		}
	}
}

var documentIDPattern = regexp.MustCompile(`/d/([a-zA-Z0-9_-]+)`)

// ParseDocumentID extracts the document ID from a Google Docs URL such as
// https://docs.google.com/document/d/<id>/edit
func ParseDocumentID(url string) (string, bool) {
	m := documentIDPattern.FindStringSubmatch(url)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// IsDocumentURL reports whether url points to Google Docs
func IsDocumentURL(url string) bool {
	return strings.Contains(url, "docs.google.com")
}
