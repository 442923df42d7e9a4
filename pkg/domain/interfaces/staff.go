package interfaces

import (
	"context"

	"github.com/secmon-lab/intake/pkg/domain/model"
)

// StaffRepository provides access to the staff directory.
//
// The directory is replaced as a whole by the refresh worker
// (DeleteAll → SaveMany), so there is no single-record write.
type StaffRepository interface {
	GetAll(ctx context.Context) ([]*model.Staff, error)

	// GetByEmail returns nil, nil when the email is unknown
	GetByEmail(ctx context.Context, email string) (*model.Staff, error)

	// SaveMany upserts staff, keyed by email
	SaveMany(ctx context.Context, staff []*model.Staff) error

	DeleteAll(ctx context.Context) error
}
