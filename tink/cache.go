package tink

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// tokenCache holds the most recent client credentials token. It's a single
// slot: fetching a token for a different scope set replaces the previous
// entry.
//
// The mutex is held across the network fetch on purpose. Concurrent callers
// requesting overlapping scopes against an empty or expired cache must not
// each trigger their own fetch; serializing check-then-fetch-then-store means
// late arrivers observe the freshly stored token instead.
type tokenCache struct {
	mu    sync.Mutex
	tok   *Token
	fetch func(ctx context.Context, scope string) (Token, error)
}

func newTokenCache(fetch func(ctx context.Context, scope string) (Token, error)) *tokenCache {
	return &tokenCache{fetch: fetch}
}

// getValid returns the cached token if it is unexpired at now and covers all
// required scopes, fetching and storing a new one otherwise. Scopes are
// joined comma-separated in caller order for the fetch.
func (c *tokenCache) getValid(ctx context.Context, now time.Time, requiredScopes []string) (Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tok != nil && !c.tok.ExpiredAt(now) && c.tok.HasAllScopes(requiredScopes...) {
		return *c.tok, nil
	}

	scope := strings.Join(requiredScopes, ",")
	log.Debug().Str("scope", scope).Msg("fetching client credentials token")

	tok, err := c.fetch(ctx, scope)
	if err != nil {
		return Token{}, err
	}
	c.tok = &tok
	return tok, nil
}

// invalidate clears the cached token. Called after a 401 is observed while
// using it.
func (c *tokenCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tok = nil
}
