package tink

import (
	"strings"
	"time"
)

// Scopes used by the client. Tink scope identifiers are case-sensitive and
// comma-joined on the wire.
const (
	ScopeAuthorizationGrant = "authorization:grant"
	ScopeUserCreate         = "user:create"
	ScopeUserRead           = "user:read"
	ScopeUserDelete         = "user:delete"
	ScopeAccountsRead       = "accounts:read"
	ScopeTransactionsRead   = "transactions:read"
)

// Token is an issued OAuth access token. It is a plain value: expiry is
// always derived from CreatedAt and ExpiresIn, never mutated after
// construction.
type Token struct {
	AccessToken string
	TokenType   string
	ExpiresIn   int // seconds
	Scope       string
	CreatedAt   time.Time
}

// newToken builds a Token from a token endpoint response, stamping it with
// the current time.
func newToken(r tokenResponse, now time.Time) Token {
	return Token{
		AccessToken: r.AccessToken,
		TokenType:   r.TokenType,
		ExpiresIn:   r.ExpiresIn,
		Scope:       r.Scope,
		CreatedAt:   now,
	}
}

// Scopes returns the token's granted scopes parsed from the comma-separated
// scope string.
func (t Token) Scopes() []string {
	if t.Scope == "" {
		return nil
	}
	return strings.Split(t.Scope, ",")
}

func (t Token) scopeSet() map[string]struct{} {
	set := make(map[string]struct{})
	for _, s := range t.Scopes() {
		set[s] = struct{}{}
	}
	return set
}

// ExpiresAt returns the exact expiry time.
func (t Token) ExpiresAt() time.Time {
	return t.CreatedAt.Add(time.Duration(t.ExpiresIn) * time.Second)
}

// ExpiredAt reports whether the token is expired at the given instant.
func (t Token) ExpiredAt(now time.Time) bool {
	return !now.Before(t.ExpiresAt())
}

// Expired reports whether the token is expired now.
func (t Token) Expired() bool {
	return t.ExpiredAt(time.Now())
}

// ExpiringSoonAt reports whether the token expires within buffer of the
// given instant.
func (t Token) ExpiringSoonAt(now time.Time, buffer time.Duration) bool {
	return t.ExpiresAt().Sub(now) <= buffer
}

// ExpiringSoon reports whether the token expires within buffer of now.
func (t Token) ExpiringSoon(buffer time.Duration) bool {
	return t.ExpiringSoonAt(time.Now(), buffer)
}

// HasScope reports whether the token was granted the given scope.
func (t Token) HasScope(scope string) bool {
	_, ok := t.scopeSet()[scope]
	return ok
}

// HasAnyScope reports whether the token was granted at least one of the
// given scopes.
func (t Token) HasAnyScope(scopes ...string) bool {
	set := t.scopeSet()
	for _, s := range scopes {
		if _, ok := set[s]; ok {
			return true
		}
	}
	return false
}

// HasAllScopes reports whether the token's scopes are a superset of the
// given scopes.
func (t Token) HasAllScopes(scopes ...string) bool {
	set := t.scopeSet()
	for _, s := range scopes {
		if _, ok := set[s]; !ok {
			return false
		}
	}
	return true
}

// AuthorizationHeader returns the value for the Authorization header, e.g.
// "Bearer <access_token>". The token type is capitalized the way the API
// expects ("bearer" -> "Bearer").
func (t Token) AuthorizationHeader() string {
	tt := t.TokenType
	if tt == "" {
		tt = "bearer"
	}
	tt = strings.ToUpper(tt[:1]) + strings.ToLower(tt[1:])
	return tt + " " + t.AccessToken
}
