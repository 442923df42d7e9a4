package usecase_test

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/intake/pkg/domain/interfaces"
	"github.com/secmon-lab/intake/pkg/domain/model"
	"github.com/secmon-lab/intake/pkg/repository/memory"
)

// mockDocs is a mock gdocs.Service
type mockDocs struct {
	mu        sync.Mutex
	created   []*model.CaseDocument
	createFn  func(ctx context.Context, doc *model.CaseDocument) (string, error)
	extractFn func(ctx context.Context, documentID string) (string, error)
}

func (m *mockDocs) CreateFromTemplate(ctx context.Context, doc *model.CaseDocument) (string, error) {
	m.mu.Lock()
	m.created = append(m.created, doc)
	m.mu.Unlock()

	if m.createFn != nil {
		return m.createFn(ctx, doc)
	}
	return "https://docs.google.com/document/d/doc-1/edit", nil
}

func (m *mockDocs) ExtractText(ctx context.Context, documentID string) (string, error) {
	if m.extractFn != nil {
		return m.extractFn(ctx, documentID)
	}
	return "", nil
}

func (m *mockDocs) createCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.created)
}

// mockCalendar is a mock gcal.Service
type mockCalendar struct {
	mu       sync.Mutex
	inserted []*model.CalendarEvent
	updated  map[string]*model.CalendarEvent
	insertFn func(ctx context.Context, ev *model.CalendarEvent) (string, error)
	updateFn func(ctx context.Context, eventID string, ev *model.CalendarEvent) error
}

func (m *mockCalendar) InsertEvent(ctx context.Context, ev *model.CalendarEvent) (string, error) {
	m.mu.Lock()
	m.inserted = append(m.inserted, ev)
	m.mu.Unlock()

	if m.insertFn != nil {
		return m.insertFn(ctx, ev)
	}
	return "event-1", nil
}

func (m *mockCalendar) UpdateEvent(ctx context.Context, eventID string, ev *model.CalendarEvent) error {
	m.mu.Lock()
	if m.updated == nil {
		m.updated = make(map[string]*model.CalendarEvent)
	}
	m.updated[eventID] = ev
	m.mu.Unlock()

	if m.updateFn != nil {
		return m.updateFn(ctx, eventID, ev)
	}
	return nil
}

// mockNotifier is a mock slack.Notifier
type mockNotifier struct {
	mu       sync.Mutex
	notified []*model.Case
	err      error
}

func (m *mockNotifier) NotifyNewCase(ctx context.Context, c *model.Case) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notified = append(m.notified, c)
	return m.err
}

// mockStorage is a mock storage.Service
type mockStorage struct {
	objectName  string
	contentType string
	body        string
	err         error
}

func (m *mockStorage) Upload(ctx context.Context, objectName, contentType string, r io.Reader) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.objectName = objectName
	m.contentType = contentType
	m.body = string(data)
	return "https://storage.googleapis.com/bucket/" + objectName, nil
}

// mockNotion is a mock notion.Service
type mockNotion struct {
	pageID string
	text   string
	err    error
}

func (m *mockNotion) GetPageText(ctx context.Context, pageID string) (string, error) {
	m.pageID = pageID
	return m.text, m.err
}

// mockLLMSession is a mock gollem Session for testing
type mockLLMSession struct {
	generateContentFn func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error)
}

func (s *mockLLMSession) GenerateContent(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
	if s.generateContentFn != nil {
		return s.generateContentFn(ctx, input...)
	}
	return &gollem.Response{
		Texts: []string{"まずは話を聞きましょう。"},
	}, nil
}

func (s *mockLLMSession) GenerateStream(ctx context.Context, input ...gollem.Input) (<-chan *gollem.Response, error) {
	return nil, nil
}

func (s *mockLLMSession) History() (*gollem.History, error) {
	return nil, nil
}

func (s *mockLLMSession) AppendHistory(*gollem.History) error {
	return nil
}

func (s *mockLLMSession) CountToken(ctx context.Context, input ...gollem.Input) (int, error) {
	return 0, nil
}

// mockLLMClient is a mock gollem LLMClient for testing
type mockLLMClient struct {
	newSessionFn func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error)
}

func (c *mockLLMClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	if c.newSessionFn != nil {
		return c.newSessionFn(ctx, options...)
	}
	return &mockLLMSession{}, nil
}

func (c *mockLLMClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	return nil, nil
}

// partialImportRepository commits only the first commit rows of an import
// and then fails, as a storage backend does when a later chunk is rejected
type partialImportRepository struct {
	*memory.Memory
	commit int
}

func (r *partialImportRepository) Case() interfaces.CaseRepository {
	return &partialImportCases{CaseRepository: r.Memory.Case(), commit: r.commit}
}

type partialImportCases struct {
	interfaces.CaseRepository
	commit int
}

func (r *partialImportCases) Import(ctx context.Context, cases []*model.Case) ([]*model.Case, error) {
	committed, err := r.CaseRepository.Import(ctx, cases[:r.commit])
	if err != nil {
		return nil, err
	}
	return committed, errors.New("deadline exceeded")
}
