package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/intake/pkg/domain/model/auth"
	"github.com/secmon-lab/intake/pkg/utils/logging"
)

const (
	GoogleJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"
)

var googleIssuers = []string{"https://accounts.google.com", "accounts.google.com"}

// Authenticator resolves the staff member behind a bearer token
type Authenticator interface {
	Authenticate(ctx context.Context, rawToken string) (*auth.User, error)
	IsNoAuthn() bool
}

// AuthUseCase verifies Google ID tokens issued to the web client
type AuthUseCase struct {
	audience string
	domains  []string
	jwksURL  string
	issuers  []string
	cache    *authCache
}

// AuthOption is a functional option for AuthUseCase
type AuthOption func(*AuthUseCase)

// WithAllowedDomains restricts sign-in to emails of the given domains
func WithAllowedDomains(domains ...string) AuthOption {
	return func(uc *AuthUseCase) {
		for _, d := range domains {
			d = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(d), "@"))
			if d != "" {
				uc.domains = append(uc.domains, d)
			}
		}
	}
}

// WithJWKSURL replaces the Google key endpoint
func WithJWKSURL(url string) AuthOption {
	return func(uc *AuthUseCase) {
		uc.jwksURL = url
	}
}

// WithIssuers replaces the accepted iss claims
func WithIssuers(issuers ...string) AuthOption {
	return func(uc *AuthUseCase) {
		uc.issuers = issuers
	}
}

// NewAuthUseCase creates an authenticator. audience is the OAuth client ID
// of the web application.
func NewAuthUseCase(audience string, options ...AuthOption) *AuthUseCase {
	uc := &AuthUseCase{
		audience: audience,
		jwksURL:  GoogleJWKSURL,
		issuers:  googleIssuers,
		cache:    newAuthCache(),
	}

	for _, opt := range options {
		opt(uc)
	}

	return uc
}

// IsNoAuthn returns false for AuthUseCase
func (uc *AuthUseCase) IsNoAuthn() bool {
	return false
}

// Authenticate verifies the ID token and returns its user. Verified tokens
// are cached until they expire or for authCacheTTL, whichever comes first.
func (uc *AuthUseCase) Authenticate(ctx context.Context, rawToken string) (*auth.User, error) {
	if rawToken == "" {
		return nil, goerr.Wrap(ErrUnauthorized, "missing token")
	}

	if user, ok := uc.cache.get(rawToken); ok {
		return user, nil
	}

	user, expiresAt, err := uc.verify(ctx, rawToken)
	if err != nil {
		return nil, err
	}

	uc.cache.set(rawToken, user, expiresAt)
	return user, nil
}

func (uc *AuthUseCase) verify(ctx context.Context, rawToken string) (*auth.User, time.Time, error) {
	keySet, err := jwk.Fetch(ctx, uc.jwksURL)
	if err != nil {
		return nil, time.Time{}, goerr.Wrap(err, "failed to fetch public keys", goerr.V("jwks_url", uc.jwksURL))
	}

	// Allow 10 seconds of clock skew
	token, err := jwt.Parse([]byte(rawToken), jwt.WithKeySet(keySet), jwt.WithValidate(true), jwt.WithAudience(uc.audience), jwt.WithAcceptableSkew(10*time.Second))
	if err != nil {
		logging.From(ctx).Debug("token verification failed", "error", err)
		return nil, time.Time{}, goerr.Wrap(ErrUnauthorized, "invalid token", goerr.V("reason", err.Error()))
	}

	if !uc.validIssuer(token.Issuer()) {
		return nil, time.Time{}, goerr.Wrap(ErrUnauthorized, "unexpected issuer", goerr.V("iss", token.Issuer()))
	}

	email, _ := stringClaim(token, "email")
	if email == "" {
		return nil, time.Time{}, goerr.Wrap(ErrUnauthorized, "email claim not found in token")
	}
	email = strings.ToLower(email)

	if v, ok := token.Get("email_verified"); ok {
		if verified, ok := v.(bool); ok && !verified {
			return nil, time.Time{}, goerr.Wrap(ErrForbidden, "email is not verified", goerr.V("email", email))
		}
	}

	if !uc.allowedEmail(email) {
		return nil, time.Time{}, goerr.Wrap(ErrForbidden, "email domain is not allowed", goerr.V("email", email))
	}

	name, _ := stringClaim(token, "name")
	user := &auth.User{
		Subject: token.Subject(),
		Email:   email,
		Name:    name,
	}
	return user, token.Expiration(), nil
}

func (uc *AuthUseCase) validIssuer(iss string) bool {
	for _, allowed := range uc.issuers {
		if iss == allowed {
			return true
		}
	}
	return false
}

func (uc *AuthUseCase) allowedEmail(email string) bool {
	if len(uc.domains) == 0 {
		return true
	}
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	domain := email[at+1:]
	for _, d := range uc.domains {
		if domain == d {
			return true
		}
	}
	return false
}

func stringClaim(token jwt.Token, name string) (string, bool) {
	v, ok := token.Get(name)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
