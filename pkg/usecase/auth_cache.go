package usecase

import (
	"sync"
	"time"

	"github.com/secmon-lab/intake/pkg/domain/model/auth"
)

const (
	authCacheTTL = 5 * time.Minute
)

type cachedUser struct {
	user      *auth.User
	expiresAt time.Time
}

type authCache struct {
	cache sync.Map
}

func newAuthCache() *authCache {
	return &authCache{}
}

func (c *authCache) get(rawToken string) (*auth.User, bool) {
	val, ok := c.cache.Load(rawToken)
	if !ok {
		return nil, false
	}

	cached := val.(*cachedUser)
	if time.Now().After(cached.expiresAt) {
		c.cache.Delete(rawToken)
		return nil, false
	}

	return cached.user, true
}

// set keeps the user until the token expires, at most authCacheTTL
func (c *authCache) set(rawToken string, user *auth.User, tokenExpiry time.Time) {
	expiresAt := time.Now().Add(authCacheTTL)
	if !tokenExpiry.IsZero() && tokenExpiry.Before(expiresAt) {
		expiresAt = tokenExpiry
	}
	c.cache.Store(rawToken, &cachedUser{
		user:      user,
		expiresAt: expiresAt,
	})
}
