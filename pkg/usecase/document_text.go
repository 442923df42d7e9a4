package usecase

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/intake/pkg/service/gdocs"
	"github.com/secmon-lab/intake/pkg/service/notion"
	"github.com/secmon-lab/intake/pkg/utils/logging"
)

const (
	// NoDocumentText stands in for the document when the case has none
	NoDocumentText = "（ドキュメントはありません）"

	// DocumentFailureText stands in for a document that could not be read
	DocumentFailureText = "（ドキュメントの読み込みに失敗しました。権限などを確認してください）"
)

// DocumentReader reads a Google Docs document as text
type DocumentReader interface {
	ExtractText(ctx context.Context, documentID string) (string, error)
}

// DocumentTextUseCase turns the document linked to a case into prompt text
type DocumentTextUseCase struct {
	docs   DocumentReader
	notion notion.Service
}

func NewDocumentTextUseCase(docs DocumentReader, notionSvc notion.Service) *DocumentTextUseCase {
	return &DocumentTextUseCase{docs: docs, notion: notionSvc}
}

// Extract returns the text behind documentURL. It never fails: a missing
// document or an unsupported host gives NoDocumentText and any read error
// gives DocumentFailureText.
func (uc *DocumentTextUseCase) Extract(ctx context.Context, documentURL string) string {
	documentURL = strings.TrimSpace(documentURL)
	if documentURL == "" {
		return NoDocumentText
	}

	text, err := uc.read(ctx, documentURL)
	if err != nil {
		logging.From(ctx).Warn("failed to read case document",
			"url", documentURL,
			"error", err.Error())
		return DocumentFailureText
	}
	if text == "" {
		return NoDocumentText
	}
	return text
}

func (uc *DocumentTextUseCase) read(ctx context.Context, url string) (string, error) {
	switch {
	case gdocs.IsDocumentURL(url):
		if uc.docs == nil {
			return "", goerr.New("Google Docs access is not configured")
		}
		id, ok := gdocs.ParseDocumentID(url)
		if !ok {
			return "", goerr.New("no document ID in URL")
		}
		return uc.docs.ExtractText(ctx, id)

	case notion.IsPageURL(url):
		if uc.notion == nil {
			return "", goerr.New("Notion access is not configured")
		}
		id, ok := notion.ParsePageID(url)
		if !ok {
			return "", goerr.New("no page ID in URL")
		}
		return uc.notion.GetPageText(ctx, id)

	default:
		return "", nil
	}
}
