package firestore

import (
	"context"
	"errors"
	"slices"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/intake/pkg/domain/interfaces"
	"github.com/secmon-lab/intake/pkg/domain/model"
	"github.com/secmon-lab/intake/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	casesCollection    = "cases"
	metadataCollection = "metadata"
	caseCounterDoc     = "caseCounter"
	counterField       = "count"
)

type caseRepository struct {
	client           *firestore.Client
	collectionPrefix string
	maxAttempts      int
}

var _ interfaces.CaseRepository = &caseRepository{}

func newCaseRepository(client *firestore.Client) *caseRepository {
	return &caseRepository{
		client:      client,
		maxAttempts: DefaultMaxAttempts,
	}
}

func (r *caseRepository) cases() *firestore.CollectionRef {
	return r.client.Collection(prefixed(r.collectionPrefix, casesCollection))
}

func (r *caseRepository) counterRef() *firestore.DocumentRef {
	return r.client.Collection(prefixed(r.collectionPrefix, metadataCollection)).Doc(caseCounterDoc)
}

func counterValue(snap *firestore.DocumentSnapshot) (int64, error) {
	v, err := snap.DataAt(counterField)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to get counter value")
	}
	switch n := v.(type) {
	case int64:
		return n, nil
	case float64:
		// written by a JavaScript client
		return int64(n), nil
	default:
		return 0, goerr.New("counter value is not a number", goerr.V("value", v))
	}
}

// Create inserts the case. Without a manual number, the counter read, the
// counter increment and the insert share one transaction, so a committed
// case always holds a number no other committed case holds and the counter
// equals the highest number handed out.
func (r *caseRepository) Create(ctx context.Context, c *model.Case, manualNumber *int64) (*model.Case, error) {
	ref := r.cases().NewDoc()
	now := time.Now().UTC()

	var created *model.Case
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		var number int64
		if manualNumber != nil {
			number = *manualNumber
		} else {
			snap, err := tx.Get(r.counterRef())
			if err != nil {
				if status.Code(err) == codes.NotFound {
					return model.NewAllocationError(model.ErrCounterNotFound, "counter is not provisioned",
						goerr.V("path", r.counterRef().Path))
				}
				return goerr.Wrap(err, "failed to read counter")
			}
			current, err := counterValue(snap)
			if err != nil {
				return err
			}
			number = current + 1

			if err := tx.Update(r.counterRef(), []firestore.Update{
				{Path: counterField, Value: number},
			}); err != nil {
				return goerr.Wrap(err, "failed to increment counter")
			}
		}

		// the closure may run several times; rebuild from the input each time
		created = c.Clone()
		created.ID = model.CaseID(ref.ID)
		created.CaseNumber = number
		created.CreatedAt = now
		created.UpdatedAt = now

		return tx.Create(ref, toCaseDoc(created))
	}, firestore.MaxAttempts(r.maxAttempts))

	if err != nil {
		return nil, createError(err, manualNumber, r.maxAttempts)
	}

	return created, nil
}

// createError classifies a failed create transaction. Only contention that
// outlasted the retry budget is an allocation failure the caller may retry;
// anything else, such as a denied permission or a cancelled context, passes
// through as is.
func createError(err error, manualNumber *int64, maxAttempts int) error {
	if errors.Is(err, model.ErrAllocation) {
		return err
	}
	if manualNumber != nil {
		return goerr.Wrap(err, "failed to create case", goerr.V(model.CaseNumberKey, *manualNumber))
	}
	if status.Code(err) == codes.Aborted {
		return model.NewAllocationError(err, "allocation transaction failed",
			goerr.V("max_attempts", maxAttempts))
	}
	return goerr.Wrap(err, "allocation transaction failed", goerr.V("max_attempts", maxAttempts))
}

func (r *caseRepository) Get(ctx context.Context, id model.CaseID) (*model.Case, error) {
	snap, err := r.cases().Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrNotFound, "case not found", goerr.V(model.CaseIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get case", goerr.V(model.CaseIDKey, id))
	}

	return decodeCase(snap)
}

func decodeCase(snap *firestore.DocumentSnapshot) (*model.Case, error) {
	var doc caseDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode case", goerr.V(model.CaseIDKey, snap.Ref.ID))
	}
	return fromCaseDoc(snap.Ref.ID, &doc), nil
}

func (r *caseRepository) List(ctx context.Context, opts ...interfaces.ListCaseOption) ([]*model.Case, error) {
	cfg := interfaces.BuildListCaseConfig(opts...)

	sortField := "caseNumber"
	if cfg.SortKey() == types.CaseSortByCreatedAt {
		sortField = "createdAt"
	}

	// Filtered listings are ordered here rather than in the query so that
	// every query is served by automatic single-field indexes and no
	// composite index has to be provisioned per collection.
	q := r.cases().Query
	sortLocally := false
	if s := cfg.Status(); s != nil {
		q = q.Where("status", "==", string(*s))
		sortLocally = true
	}
	if a := cfg.Assignee(); a != "" {
		q = q.Where("assignedTo", "array-contains", a)
		sortLocally = true
	}
	if !sortLocally {
		q = q.OrderBy(sortField, firestore.Desc)
		if cfg.Limit() > 0 {
			q = q.Limit(cfg.Limit())
		}
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var cases []*model.Case
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate cases")
		}

		c, err := decodeCase(snap)
		if err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}

	if sortLocally {
		slices.SortFunc(cases, func(a, b *model.Case) int {
			if sortField == "createdAt" {
				return b.CreatedAt.Compare(a.CreatedAt)
			}
			switch {
			case a.CaseNumber > b.CaseNumber:
				return -1
			case a.CaseNumber < b.CaseNumber:
				return 1
			}
			return b.CreatedAt.Compare(a.CreatedAt)
		})
		if limit := cfg.Limit(); limit > 0 && len(cases) > limit {
			cases = cases[:limit]
		}
	}

	return cases, nil
}

func (r *caseRepository) Update(ctx context.Context, id model.CaseID, update *model.CaseUpdate) (*model.CaseChange, error) {
	ref := r.cases().Doc(string(id))

	var change *model.CaseChange
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(model.ErrNotFound, "case not found", goerr.V(model.CaseIDKey, id))
			}
			return goerr.Wrap(err, "failed to get case", goerr.V(model.CaseIDKey, id))
		}

		before, err := decodeCase(snap)
		if err != nil {
			return err
		}
		after := before.Clone()
		update.Apply(after)
		after.UpdatedAt = time.Now().UTC()

		if err := tx.Update(ref, caseUpdates(update, after)); err != nil {
			return goerr.Wrap(err, "failed to update case", goerr.V(model.CaseIDKey, id))
		}

		change = &model.CaseChange{Before: before, After: after}
		return nil
	}, firestore.MaxAttempts(r.maxAttempts))
	if err != nil {
		return nil, err
	}

	return change, nil
}

func (r *caseRepository) ClaimProvisioning(ctx context.Context, id model.CaseID, from ...types.SystemStatus) (*model.Case, error) {
	ref := r.cases().Doc(string(id))

	var claimed *model.Case
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(model.ErrNotFound, "case not found", goerr.V(model.CaseIDKey, id))
			}
			return goerr.Wrap(err, "failed to get case", goerr.V(model.CaseIDKey, id))
		}

		current, err := decodeCase(snap)
		if err != nil {
			return err
		}
		if !slices.Contains(from, current.SystemStatus) {
			return goerr.Wrap(model.ErrProvisioningClaimed, "case is not claimable",
				goerr.V(model.CaseIDKey, id),
				goerr.V("system_status", current.SystemStatus))
		}

		current.SystemStatus = types.SystemStatusProvisioning
		current.SystemError = ""
		current.UpdatedAt = time.Now().UTC()
		claimed = current

		return tx.Update(ref, []firestore.Update{
			{Path: "systemStatus", Value: string(types.SystemStatusProvisioning)},
			{Path: "systemError", Value: ""},
			{Path: "updatedAt", Value: current.UpdatedAt},
		})
	}, firestore.MaxAttempts(r.maxAttempts))
	if err != nil {
		return nil, err
	}

	return claimed, nil
}

// importChunkSize is the write limit of a single Firestore transaction
const importChunkSize = 500

// Import writes numbered cases in transactions of up to importChunkSize
// documents, so each chunk commits completely or not at all. The counter is
// not read or written. When a chunk fails, the cases of the chunks already
// committed are returned together with the error.
func (r *caseRepository) Import(ctx context.Context, cases []*model.Case) ([]*model.Case, error) {
	if len(cases) == 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	result := make([]*model.Case, 0, len(cases))

	for chunk := range slices.Chunk(cases, importChunkSize) {
		prepared := make([]*model.Case, 0, len(chunk))
		refs := make([]*firestore.DocumentRef, 0, len(chunk))
		for _, c := range chunk {
			ref := r.cases().NewDoc()
			created := c.Clone()
			created.ID = model.CaseID(ref.ID)
			if created.CreatedAt.IsZero() {
				created.CreatedAt = now
			}
			created.UpdatedAt = now
			prepared = append(prepared, created)
			refs = append(refs, ref)
		}

		err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
			for i, ref := range refs {
				if err := tx.Create(ref, toCaseDoc(prepared[i])); err != nil {
					return goerr.Wrap(err, "failed to add case to import transaction",
						goerr.V(model.CaseNumberKey, prepared[i].CaseNumber))
				}
			}
			return nil
		}, firestore.MaxAttempts(r.maxAttempts))
		if err != nil {
			return result, goerr.Wrap(err, "failed to import cases",
				goerr.V("committed", len(result)),
				goerr.V("first_case_number", prepared[0].CaseNumber),
				goerr.V("chunk_size", len(prepared)))
		}

		result = append(result, prepared...)
	}

	return result, nil
}

func (r *caseRepository) GetCounter(ctx context.Context) (int64, error) {
	snap, err := r.counterRef().Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return 0, goerr.Wrap(model.ErrCounterNotFound, "counter is not provisioned")
		}
		return 0, goerr.Wrap(err, "failed to get counter")
	}
	return counterValue(snap)
}

func (r *caseRepository) InitCounter(ctx context.Context, value int64, force bool) error {
	data := map[string]any{counterField: value}

	if force {
		if _, err := r.counterRef().Set(ctx, data); err != nil {
			return goerr.Wrap(err, "failed to set counter", goerr.V("count", value))
		}
		return nil
	}

	if _, err := r.counterRef().Create(ctx, data); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return goerr.Wrap(model.ErrCounterExists, "counter already provisioned")
		}
		return goerr.Wrap(err, "failed to create counter", goerr.V("count", value))
	}
	return nil
}
