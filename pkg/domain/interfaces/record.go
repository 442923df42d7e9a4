package interfaces

import (
	"context"

	"github.com/secmon-lab/intake/pkg/domain/model"
)

// RecordRepository stores progress notes under a case. Records are
// append-only.
type RecordRepository interface {
	Create(ctx context.Context, record *model.Record) (*model.Record, error)

	// List returns records of the case, newest first
	List(ctx context.Context, caseID model.CaseID) ([]*model.Record, error)
}

// AIExchangeRepository stores assistant question/answer pairs under a case
type AIExchangeRepository interface {
	Create(ctx context.Context, exchange *model.AIExchange) (*model.AIExchange, error)

	// List returns exchanges of the case, oldest first
	List(ctx context.Context, caseID model.CaseID) ([]*model.AIExchange, error)
}
