package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/intake/pkg/domain/interfaces"
	"github.com/secmon-lab/intake/pkg/domain/model"
	"github.com/secmon-lab/intake/pkg/domain/types"
)

type caseRepository struct {
	mu      sync.Mutex
	cases   map[model.CaseID]*model.Case
	counter *int64 // nil until provisioned

	maxAttempts int
	conflict    func(attempt int) bool
}

var errAllocationConflict = goerr.New("counter changed during allocation")

func newCaseRepository() *caseRepository {
	return &caseRepository{
		cases:       make(map[model.CaseID]*model.Case),
		maxAttempts: 1,
	}
}

func (r *caseRepository) Create(ctx context.Context, c *model.Case, manualNumber *int64) (*model.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if manualNumber != nil {
		return r.insert(c, *manualNumber), nil
	}

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		if r.counter == nil {
			return nil, model.NewAllocationError(model.ErrCounterNotFound, "counter is not provisioned")
		}
		number := *r.counter + 1

		if r.conflict != nil && r.conflict(attempt) {
			continue
		}

		// commit: counter and case together
		*r.counter = number
		return r.insert(c, number), nil
	}

	return nil, model.NewAllocationError(errAllocationConflict, "allocation transaction failed",
		goerr.V("max_attempts", r.maxAttempts))
}

func (r *caseRepository) insert(c *model.Case, number int64) *model.Case {
	now := time.Now().UTC()
	created := c.Clone()
	created.ID = model.CaseID(uuid.NewString())
	created.CaseNumber = number
	created.CreatedAt = now
	created.UpdatedAt = now
	r.cases[created.ID] = created
	return created.Clone()
}

func (r *caseRepository) Get(ctx context.Context, id model.CaseID) (*model.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.cases[id]
	if !ok {
		return nil, goerr.Wrap(model.ErrNotFound, "case not found", goerr.V(model.CaseIDKey, id))
	}
	return c.Clone(), nil
}

func (r *caseRepository) List(ctx context.Context, opts ...interfaces.ListCaseOption) ([]*model.Case, error) {
	cfg := interfaces.BuildListCaseConfig(opts...)

	r.mu.Lock()
	cases := make([]*model.Case, 0, len(r.cases))
	for _, c := range r.cases {
		if s := cfg.Status(); s != nil && c.Status != *s {
			continue
		}
		if a := cfg.Assignee(); a != "" && !c.IsAssigned(a) {
			continue
		}
		cases = append(cases, c.Clone())
	}
	r.mu.Unlock()

	slices.SortFunc(cases, func(a, b *model.Case) int {
		if cfg.SortKey() == types.CaseSortByCreatedAt {
			return b.CreatedAt.Compare(a.CreatedAt)
		}
		if n := cmp.Compare(b.CaseNumber, a.CaseNumber); n != 0 {
			return n
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	if limit := cfg.Limit(); limit > 0 && len(cases) > limit {
		cases = cases[:limit]
	}
	return cases, nil
}

func (r *caseRepository) Update(ctx context.Context, id model.CaseID, update *model.CaseUpdate) (*model.CaseChange, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.cases[id]
	if !ok {
		return nil, goerr.Wrap(model.ErrNotFound, "case not found", goerr.V(model.CaseIDKey, id))
	}

	before := current.Clone()
	after := current.Clone()
	update.Apply(after)
	after.UpdatedAt = time.Now().UTC()
	r.cases[id] = after

	return &model.CaseChange{Before: before, After: after.Clone()}, nil
}

func (r *caseRepository) ClaimProvisioning(ctx context.Context, id model.CaseID, from ...types.SystemStatus) (*model.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.cases[id]
	if !ok {
		return nil, goerr.Wrap(model.ErrNotFound, "case not found", goerr.V(model.CaseIDKey, id))
	}
	if !slices.Contains(from, current.SystemStatus) {
		return nil, goerr.Wrap(model.ErrProvisioningClaimed, "case is not claimable",
			goerr.V(model.CaseIDKey, id),
			goerr.V("system_status", current.SystemStatus))
	}

	current.SystemStatus = types.SystemStatusProvisioning
	current.SystemError = ""
	current.UpdatedAt = time.Now().UTC()
	return current.Clone(), nil
}

func (r *caseRepository) Import(ctx context.Context, cases []*model.Case) ([]*model.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	result := make([]*model.Case, 0, len(cases))
	for _, c := range cases {
		created := c.Clone()
		created.ID = model.CaseID(uuid.NewString())
		if created.CreatedAt.IsZero() {
			created.CreatedAt = now
		}
		created.UpdatedAt = now
		r.cases[created.ID] = created
		result = append(result, created.Clone())
	}
	return result, nil
}

func (r *caseRepository) GetCounter(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.counter == nil {
		return 0, goerr.Wrap(model.ErrCounterNotFound, "counter is not provisioned")
	}
	return *r.counter, nil
}

func (r *caseRepository) InitCounter(ctx context.Context, value int64, force bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.counter != nil && !force {
		return goerr.Wrap(model.ErrCounterExists, "counter already provisioned", goerr.V("count", *r.counter))
	}
	r.counter = &value
	return nil
}
