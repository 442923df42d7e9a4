package usecase

import (
	"time"

	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/intake/pkg/domain/interfaces"
	"github.com/secmon-lab/intake/pkg/service/gcal"
	"github.com/secmon-lab/intake/pkg/service/gdocs"
	"github.com/secmon-lab/intake/pkg/service/notion"
	"github.com/secmon-lab/intake/pkg/service/slack"
	"github.com/secmon-lab/intake/pkg/service/storage"
	"github.com/secmon-lab/intake/pkg/utils/async"
)

const (
	DefaultPastCaseLimit     = 20
	DefaultDocumentTextLimit = 10000
	DefaultOrganization      = "NPO法人School Liberty Network"
)

type UseCases struct {
	repo interfaces.Repository

	docs      gdocs.Service
	docReader DocumentReader
	calendar  gcal.Service
	notion    notion.Service
	notifier  slack.Notifier
	storage   storage.Service
	llmClient gollem.LLMClient
	async     async.Func
	location  *time.Location

	organization      string
	pastCaseLimit     int
	documentTextLimit int

	Case         *CaseUseCase
	Dispatch     *DispatchUseCase
	Record       *RecordUseCase
	Staff        *StaffUseCase
	DocumentText *DocumentTextUseCase
	Assistant    *AssistantUseCase
	Import       *ImportUseCase
	Auth         Authenticator
}

type Option func(*UseCases)

// WithDocs enables document generation from the template. The service is
// also used to read documents back.
func WithDocs(svc gdocs.Service) Option {
	return func(uc *UseCases) {
		uc.docs = svc
	}
}

// WithDocumentReader enables reading Google Docs without generating them
func WithDocumentReader(r DocumentReader) Option {
	return func(uc *UseCases) {
		uc.docReader = r
	}
}

func WithCalendar(svc gcal.Service) Option {
	return func(uc *UseCases) {
		uc.calendar = svc
	}
}

func WithNotion(svc notion.Service) Option {
	return func(uc *UseCases) {
		uc.notion = svc
	}
}

func WithNotifier(n slack.Notifier) Option {
	return func(uc *UseCases) {
		uc.notifier = n
	}
}

func WithStorage(svc storage.Service) Option {
	return func(uc *UseCases) {
		uc.storage = svc
	}
}

func WithLLMClient(client gollem.LLMClient) Option {
	return func(uc *UseCases) {
		uc.llmClient = client
	}
}

// WithAsync replaces the runner of side effects. Tests pass async.Sync.
func WithAsync(fn async.Func) Option {
	return func(uc *UseCases) {
		uc.async = fn
	}
}

// WithLocation sets the time zone used for document dates and import
func WithLocation(loc *time.Location) Option {
	return func(uc *UseCases) {
		uc.location = loc
	}
}

// WithOrganization sets the organisation name the assistant speaks for
func WithOrganization(name string) Option {
	return func(uc *UseCases) {
		uc.organization = name
	}
}

func WithPastCaseLimit(n int) Option {
	return func(uc *UseCases) {
		uc.pastCaseLimit = n
	}
}

func WithDocumentTextLimit(n int) Option {
	return func(uc *UseCases) {
		uc.documentTextLimit = n
	}
}

func WithAuth(auth Authenticator) Option {
	return func(uc *UseCases) {
		uc.Auth = auth
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:              repo,
		async:             async.Dispatch,
		location:          time.UTC,
		organization:      DefaultOrganization,
		pastCaseLimit:     DefaultPastCaseLimit,
		documentTextLimit: DefaultDocumentTextLimit,
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Dispatch = NewDispatchUseCase(repo, uc.docs, uc.calendar, uc.location)
	uc.Case = NewCaseUseCase(repo, uc.Dispatch, uc.notifier, uc.async)
	uc.Staff = NewStaffUseCase(repo)
	uc.Record = NewRecordUseCase(repo, uc.Staff, uc.storage)
	reader := uc.docReader
	if reader == nil && uc.docs != nil {
		reader = uc.docs
	}
	uc.DocumentText = NewDocumentTextUseCase(reader, uc.notion)
	uc.Assistant = NewAssistantUseCase(repo, uc.DocumentText, uc.llmClient, AssistantConfig{
		Organization:      uc.organization,
		PastCaseLimit:     uc.pastCaseLimit,
		DocumentTextLimit: uc.documentTextLimit,
	})
	uc.Import = NewImportUseCase(repo, uc.Dispatch, uc.async, uc.location)

	return uc
}
