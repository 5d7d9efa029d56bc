// Package token provides the access-token source the sync engine consults
// before touching the network. An empty token means "no valid grant":
// the engine must surface needs-reauth instead of attempting a call.
package token

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Source yields the current access token for the remote store. Returning
// "" (with nil error) signals that re-authentication is required.
type Source interface {
	Token(ctx context.Context) (string, error)
}

// Static is a fixed token, useful for tests and non-expiring grants.
type Static string

func (s Static) Token(context.Context) (string, error) { return string(s), nil }

// expiryLeeway avoids handing out a token that dies mid-request.
const expiryLeeway = 30 * time.Second

// Cached wraps a token-fetching callback and memoizes the result. JWT
// expiry is pre-checked locally with an unverified parse (the claim is
// only a hint; the store still enforces the real expiry), so an expired
// token is refetched without burning a round-trip on a guaranteed 401.
type Cached struct {
	fetch func(ctx context.Context) (string, error)

	mu      sync.Mutex
	current string
}

func NewCached(fetch func(ctx context.Context) (string, error)) *Cached {
	return &Cached{fetch: fetch}
}

func (c *Cached) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != "" && !isExpired(c.current, time.Now()) {
		return c.current, nil
	}

	tok, err := c.fetch(ctx)
	if err != nil {
		return "", err
	}
	c.current = tok
	return tok, nil
}

// Invalidate drops the cached token, forcing a refetch on next use.
// Called by the engine after the store rejects a request.
func (c *Cached) Invalidate() {
	c.mu.Lock()
	c.current = ""
	c.mu.Unlock()
}

func isExpired(raw string, now time.Time) bool {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		// Not a JWT: no local expiry hint, assume still valid.
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return now.Add(expiryLeeway).After(exp.Time)
}
