package interfaces

import (
	"context"

	"github.com/secmon-lab/intake/pkg/domain/model"
	"github.com/secmon-lab/intake/pkg/domain/types"
)

// CaseRepository defines the interface for Case data access
type CaseRepository interface {
	// Create stores a new case. When manualNumber is nil, the next number is
	// taken from the counter in the same transaction that inserts the case;
	// a missing counter or an exhausted retry budget fails with
	// model.ErrAllocation and nothing is written. When manualNumber is set it
	// is used verbatim and the counter is left untouched. Manual numbers are
	// not checked for uniqueness.
	Create(ctx context.Context, c *model.Case, manualNumber *int64) (*model.Case, error)

	// Get retrieves a case by ID
	Get(ctx context.Context, id model.CaseID) (*model.Case, error)

	// List retrieves cases, ordered by caseNumber descending unless another
	// sort key is given
	List(ctx context.Context, opts ...ListCaseOption) ([]*model.Case, error)

	// Update merges the given fields into the case and returns both the
	// previous and the new version. CaseNumber and CreatedAt never change.
	Update(ctx context.Context, id model.CaseID, update *model.CaseUpdate) (*model.CaseChange, error)

	// ClaimProvisioning atomically moves systemStatus from one of the
	// allowed states to provisioning. It returns model.ErrProvisioningClaimed
	// when the current status is not in from.
	ClaimProvisioning(ctx context.Context, id model.CaseID, from ...types.SystemStatus) (*model.Case, error)

	// Import stores already numbered cases in bulk without touching the
	// counter. Returned cases carry their new IDs. On error, the returned
	// slice holds the cases that were committed before the failure.
	Import(ctx context.Context, cases []*model.Case) ([]*model.Case, error)

	// GetCounter returns the last allocated case number.
	GetCounter(ctx context.Context) (int64, error)

	// InitCounter provisions the counter record. An existing counter is only
	// overwritten when force is set.
	InitCounter(ctx context.Context, value int64, force bool) error
}
