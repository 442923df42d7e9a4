package usecase

import (
	"context"
	"strings"

	"github.com/secmon-lab/intake/pkg/domain/model/auth"
)

// NoAuthnUseCase authenticates every request as one fixed user (for
// development/testing)
type NoAuthnUseCase struct {
	user *auth.User
}

// NewNoAuthnUseCase creates a NoAuthnUseCase acting as email
func NewNoAuthnUseCase(email string) *NoAuthnUseCase {
	email = strings.ToLower(strings.TrimSpace(email))
	return &NoAuthnUseCase{
		user: &auth.User{
			Subject: email,
			Email:   email,
		},
	}
}

// Authenticate ignores the token and returns the configured user
func (uc *NoAuthnUseCase) Authenticate(ctx context.Context, rawToken string) (*auth.User, error) {
	copied := *uc.user
	return &copied, nil
}

// IsNoAuthn returns true for NoAuthnUseCase
func (uc *NoAuthnUseCase) IsNoAuthn() bool {
	return true
}
