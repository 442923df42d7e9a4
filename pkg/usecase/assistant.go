package usecase

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"strings"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/intake/pkg/domain/interfaces"
	"github.com/secmon-lab/intake/pkg/domain/model"
	"github.com/secmon-lab/intake/pkg/domain/types"
	"github.com/secmon-lab/intake/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

//go:embed prompt/assistant.md
var assistantPromptTmpl string

var assistantPrompt = template.Must(template.New("assistant").Parse(assistantPromptTmpl))

// AssistantConfig tunes the context given to the model
type AssistantConfig struct {
	Organization      string
	PastCaseLimit     int
	DocumentTextLimit int
}

// AssistantUseCase answers staff questions about a case with an LLM, using
// the case, its records, its document and completed cases as context
type AssistantUseCase struct {
	repo      interfaces.Repository
	documents *DocumentTextUseCase
	llmClient gollem.LLMClient
	cfg       AssistantConfig
}

func NewAssistantUseCase(repo interfaces.Repository, documents *DocumentTextUseCase, llmClient gollem.LLMClient, cfg AssistantConfig) *AssistantUseCase {
	if cfg.Organization == "" {
		cfg.Organization = DefaultOrganization
	}
	if cfg.PastCaseLimit <= 0 {
		cfg.PastCaseLimit = DefaultPastCaseLimit
	}
	if cfg.DocumentTextLimit <= 0 {
		cfg.DocumentTextLimit = DefaultDocumentTextLimit
	}
	return &AssistantUseCase{
		repo:      repo,
		documents: documents,
		llmClient: llmClient,
		cfg:       cfg,
	}
}

type assistantPromptData struct {
	Organization string
	Case         *model.Case
	Document     string
	Records      []*model.Record
	PastCases    []*model.Case
	Question     string
}

// Ask sends the question with the case context to the model. The exchange
// is stored only when the model answered.
func (uc *AssistantUseCase) Ask(ctx context.Context, caseID model.CaseID, question string) (*model.AIExchange, error) {
	if uc.llmClient == nil {
		return nil, goerr.Wrap(ErrAssistantDisabled, "cannot ask assistant")
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, goerr.Wrap(ErrInvalidInput, "question is required", goerr.V(FieldKey, "question"))
	}

	prompt, err := uc.buildPrompt(ctx, caseID, question)
	if err != nil {
		return nil, err
	}

	session, err := uc.llmClient.NewSession(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create LLM session", goerr.V(model.CaseIDKey, caseID))
	}
	resp, err := session.GenerateContent(ctx, gollem.Text(prompt))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate answer", goerr.V(model.CaseIDKey, caseID))
	}

	answer := strings.TrimSpace(strings.Join(resp.Texts, ""))
	if answer == "" {
		return nil, goerr.New("assistant returned an empty answer", goerr.V(model.CaseIDKey, caseID))
	}

	exchange, err := uc.repo.AIExchange().Create(ctx, &model.AIExchange{
		CaseID:   caseID,
		Prompt:   question,
		Response: answer,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to save AI exchange", goerr.V(model.CaseIDKey, caseID))
	}
	return exchange, nil
}

// ListExchanges returns the conversation of a case, oldest first
func (uc *AssistantUseCase) ListExchanges(ctx context.Context, caseID model.CaseID) ([]*model.AIExchange, error) {
	exchanges, err := uc.repo.AIExchange().List(ctx, caseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list AI exchanges", goerr.V(model.CaseIDKey, caseID))
	}
	return exchanges, nil
}

func (uc *AssistantUseCase) buildPrompt(ctx context.Context, caseID model.CaseID, question string) (string, error) {
	c, err := uc.repo.Case().Get(ctx, caseID)
	if errors.Is(err, model.ErrNotFound) {
		return "", goerr.Wrap(ErrCaseNotFound, "case not found", goerr.V(model.CaseIDKey, caseID))
	}
	if err != nil {
		return "", goerr.Wrap(err, "failed to get case", goerr.V(model.CaseIDKey, caseID))
	}

	data := assistantPromptData{
		Organization: uc.cfg.Organization,
		Case:         c,
		Question:     question,
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		records, err := uc.repo.Record().List(egCtx, caseID)
		if err != nil {
			return goerr.Wrap(err, "failed to list records", goerr.V(model.CaseIDKey, caseID))
		}
		data.Records = records
		return nil
	})
	eg.Go(func() error {
		past, err := uc.repo.Case().List(egCtx,
			interfaces.WithStatus(types.CaseStatusCompleted),
			interfaces.WithSort(types.CaseSortByCreatedAt),
			interfaces.WithLimit(uc.cfg.PastCaseLimit),
		)
		if err != nil {
			// past cases only enrich the answer
			logging.From(ctx).Warn("failed to list past cases", "error", err.Error())
			return nil
		}
		for _, p := range past {
			if p.ID != caseID {
				data.PastCases = append(data.PastCases, p)
			}
		}
		return nil
	})
	eg.Go(func() error {
		data.Document = truncateRunes(uc.documents.Extract(egCtx, c.DocumentURL), uc.cfg.DocumentTextLimit)
		return nil
	})
	if err := eg.Wait(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := assistantPrompt.Execute(&buf, data); err != nil {
		return "", goerr.Wrap(err, "failed to execute assistant prompt template")
	}
	return buf.String(), nil
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
