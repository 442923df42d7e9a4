package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/secmon-lab/intake/pkg/domain/model"
)

type staffRepository struct {
	mu    sync.RWMutex
	staff map[string]*model.Staff
}

func newStaffRepository() *staffRepository {
	return &staffRepository{
		staff: make(map[string]*model.Staff),
	}
}

func (r *staffRepository) GetAll(ctx context.Context) ([]*model.Staff, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.Staff, 0, len(r.staff))
	for _, s := range r.staff {
		copied := *s
		result = append(result, &copied)
	}
	slices.SortFunc(result, func(a, b *model.Staff) int {
		return cmp.Compare(a.Email, b.Email)
	})
	return result, nil
}

func (r *staffRepository) GetByEmail(ctx context.Context, email string) (*model.Staff, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.staff[email]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (r *staffRepository) SaveMany(ctx context.Context, staff []*model.Staff) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range staff {
		copied := *s
		r.staff[s.Email] = &copied
	}
	return nil
}

func (r *staffRepository) DeleteAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.staff = make(map[string]*model.Staff)
	return nil
}
