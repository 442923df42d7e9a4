package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/secmon-lab/intake/pkg/domain/model/auth"
	"github.com/secmon-lab/intake/pkg/usecase"
	"github.com/secmon-lab/intake/pkg/utils/errutil"
	"github.com/secmon-lab/intake/pkg/utils/logging"
)

// authMiddleware resolves the bearer token to a staff member and stores it
// in the request context
func authMiddleware(authn usecase.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := authn.Authenticate(r.Context(), bearerToken(r))
			if err != nil {
				status := http.StatusUnauthorized
				if errors.Is(err, usecase.ErrForbidden) {
					status = http.StatusForbidden
				}
				if !errors.Is(err, usecase.ErrUnauthorized) && !errors.Is(err, usecase.ErrForbidden) {
					// key fetch or other infrastructure failure
					errutil.Handle(r.Context(), err, "authentication failed")
				}
				errutil.HandleHTTP(r.Context(), w, errors.New(http.StatusText(status)), status)
				return
			}

			ctx := auth.ContextWithUser(r.Context(), user)
			ctx = logging.With(ctx, logging.From(ctx).With("user", user.Email))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}
