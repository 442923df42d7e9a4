package auth

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
)

// User is the authenticated staff member of a request
type User struct {
	Subject string
	Email   string
	Name    string
}

var ErrNoUser = goerr.New("no authenticated user in context")

type ctxUserKey struct{}

// ContextWithUser returns a new context carrying user
func ContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, ctxUserKey{}, user)
}

// UserFromContext returns the authenticated user
func UserFromContext(ctx context.Context) (*User, error) {
	user, ok := ctx.Value(ctxUserKey{}).(*User)
	if !ok || user == nil {
		return nil, ErrNoUser
	}
	return user, nil
}
