package memory

import (
	"github.com/secmon-lab/intake/pkg/domain/interfaces"
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

// Memory is an in-process repository for development and tests. A single
// mutex per collection stands in for storage transactions.
type Memory struct {
	caseRepo   *caseRepository
	record     *recordRepository
	aiExchange *aiExchangeRepository
	staff      *staffRepository
}

var _ interfaces.Repository = &Memory{}

type Option func(*Memory)

// WithInitialCounter provisions the case counter at value, as the migrate
// command does for Firestore.
func WithInitialCounter(value int64) Option {
	return func(m *Memory) {
		m.caseRepo.counter = &value
	}
}

// WithAllocationConflict makes the allocation transaction of Create see a
// concurrent commit on every attempt for which conflict returns true, the
// way contention on the counter looks to a storage backend. Create gives up
// after maxAttempts attempts.
func WithAllocationConflict(maxAttempts int, conflict func(attempt int) bool) Option {
	return func(m *Memory) {
		m.caseRepo.maxAttempts = maxAttempts
		m.caseRepo.conflict = conflict
	}
}

func New(opts ...Option) *Memory {
	m := &Memory{
		caseRepo:   newCaseRepository(),
		record:     newRecordRepository(),
		aiExchange: newAIExchangeRepository(),
		staff:      newStaffRepository(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) Case() interfaces.CaseRepository {
	return m.caseRepo
}

func (m *Memory) Record() interfaces.RecordRepository {
	return m.record
}

func (m *Memory) AIExchange() interfaces.AIExchangeRepository {
	return m.aiExchange
}

func (m *Memory) Staff() interfaces.StaffRepository {
	return m.staff
}

func (m *Memory) Close() error {
	return nil
}
