package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/intake/pkg/domain/interfaces"
)

// DefaultMaxAttempts is the retry budget of the allocation transaction
const DefaultMaxAttempts = 5

type Firestore struct {
	client     *firestore.Client
	caseRepo   *caseRepository
	record     *recordRepository
	aiExchange *aiExchangeRepository
	staff      *staffRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

// WithCollectionPrefix prefixes every top-level collection. Tests use it to
// isolate runs sharing one database.
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.caseRepo.collectionPrefix = prefix
		f.record.collectionPrefix = prefix
		f.aiExchange.collectionPrefix = prefix
		f.staff.collectionPrefix = prefix
	}
}

// WithMaxAttempts sets how many times a contended transaction is retried
// before giving up
func WithMaxAttempts(n int) Option {
	return func(f *Firestore) {
		f.caseRepo.maxAttempts = n
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID),
			goerr.V("databaseID", databaseID))
	}

	f := &Firestore{
		client:     client,
		caseRepo:   newCaseRepository(client),
		record:     newRecordRepository(client),
		aiExchange: newAIExchangeRepository(client),
		staff:      newStaffRepository(client),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) Case() interfaces.CaseRepository {
	return f.caseRepo
}

func (f *Firestore) Record() interfaces.RecordRepository {
	return f.record
}

func (f *Firestore) AIExchange() interfaces.AIExchangeRepository {
	return f.aiExchange
}

func (f *Firestore) Staff() interfaces.StaffRepository {
	return f.staff
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

func prefixed(prefix, name string) string {
	if prefix != "" {
		return prefix + "_" + name
	}
	return name
}
