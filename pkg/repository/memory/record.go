package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/secmon-lab/intake/pkg/domain/model"
)

type recordRepository struct {
	mu      sync.RWMutex
	records map[model.CaseID][]*model.Record
}

func newRecordRepository() *recordRepository {
	return &recordRepository{
		records: make(map[model.CaseID][]*model.Record),
	}
}

func (r *recordRepository) Create(ctx context.Context, record *model.Record) (*model.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := *record
	if created.ID == "" {
		created.ID = model.RecordID(uuid.NewString())
	}
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}
	r.records[created.CaseID] = append(r.records[created.CaseID], &created)

	result := created
	return &result, nil
}

func (r *recordRepository) List(ctx context.Context, caseID model.CaseID) ([]*model.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]*model.Record, 0, len(r.records[caseID]))
	for _, rec := range r.records[caseID] {
		copied := *rec
		records = append(records, &copied)
	}
	slices.SortStableFunc(records, func(a, b *model.Record) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return records, nil
}

type aiExchangeRepository struct {
	mu        sync.RWMutex
	exchanges map[model.CaseID][]*model.AIExchange
}

func newAIExchangeRepository() *aiExchangeRepository {
	return &aiExchangeRepository{
		exchanges: make(map[model.CaseID][]*model.AIExchange),
	}
}

func (r *aiExchangeRepository) Create(ctx context.Context, exchange *model.AIExchange) (*model.AIExchange, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := *exchange
	if created.ID == "" {
		created.ID = model.AIExchangeID(uuid.NewString())
	}
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}
	r.exchanges[created.CaseID] = append(r.exchanges[created.CaseID], &created)

	result := created
	return &result, nil
}

func (r *aiExchangeRepository) List(ctx context.Context, caseID model.CaseID) ([]*model.AIExchange, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exchanges := make([]*model.AIExchange, 0, len(r.exchanges[caseID]))
	for _, ex := range r.exchanges[caseID] {
		copied := *ex
		exchanges = append(exchanges, &copied)
	}
	slices.SortStableFunc(exchanges, func(a, b *model.AIExchange) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return exchanges, nil
}
