package usecase

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/intake/pkg/domain/interfaces"
	"github.com/secmon-lab/intake/pkg/domain/model"
	"github.com/secmon-lab/intake/pkg/domain/model/auth"
)

// fallbackAuthor labels a record when nobody could be identified
const fallbackAuthor = "担当者"

type StaffUseCase struct {
	repo interfaces.Repository
}

func NewStaffUseCase(repo interfaces.Repository) *StaffUseCase {
	return &StaffUseCase{repo: repo}
}

func (uc *StaffUseCase) ListStaff(ctx context.Context) ([]*model.Staff, error) {
	staff, err := uc.repo.Staff().GetAll(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list staff")
	}
	return staff, nil
}

// DisplayName resolves how the authenticated user is shown on records: the
// staff directory name, else the email, else a fixed label
func (uc *StaffUseCase) DisplayName(ctx context.Context) (string, error) {
	user, err := auth.UserFromContext(ctx)
	if err != nil || user.Email == "" {
		return fallbackAuthor, nil
	}

	staff, err := uc.repo.Staff().GetByEmail(ctx, strings.ToLower(user.Email))
	if err != nil {
		return "", goerr.Wrap(err, "failed to look up staff", goerr.V("email", user.Email))
	}
	if staff != nil && staff.Name != "" {
		return staff.Name, nil
	}
	return user.Email, nil
}
