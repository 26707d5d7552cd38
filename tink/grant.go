package tink

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// Subject identifies a Tink user by exactly one of the two identifiers.
// Supplying neither or both is an error.
type Subject struct {
	UserID         string
	ExternalUserID string
}

func (s Subject) validate() error {
	if s.UserID == "" && s.ExternalUserID == "" {
		return fmt.Errorf("either UserID or ExternalUserID must be set: %w", ErrInvalidArgument)
	}
	if s.UserID != "" && s.ExternalUserID != "" {
		return fmt.Errorf("cannot set both UserID and ExternalUserID: %w", ErrInvalidArgument)
	}
	return nil
}

// formValue returns the form field name and value for the set identifier.
func (s Subject) formValue() (string, string) {
	if s.UserID != "" {
		return "user_id", s.UserID
	}
	return "external_user_id", s.ExternalUserID
}

// AuthorizationGrant is a one-time code authorizing exchange for a
// user-scoped token. It is tied to one subject and one scope set and is
// consumed by exactly one ExchangeUserToken call.
type AuthorizationGrant struct {
	Code string `json:"code"`
}

// GrantUserAccess obtains an authorization grant for the subject with the
// given scopes. The grant request is authenticated with an app-level token;
// if the API rejects that token, the cache is invalidated and the identical
// request is retried once with a fresh token.
func (c *Client) GrantUserAccess(ctx context.Context, subject Subject, scopes []string) (AuthorizationGrant, error) {
	if err := subject.validate(); err != nil {
		return AuthorizationGrant{}, err
	}
	if len(scopes) == 0 {
		return AuthorizationGrant{}, fmt.Errorf("at least one scope is required: %w", ErrInvalidArgument)
	}

	field, value := subject.formValue()
	form := map[string]string{
		field:   value,
		"scope": strings.Join(scopes, ","),
	}

	result := &AuthorizationGrant{}
	_, err := c.doWithAppToken(ctx, userCreationScopes, func(tok Token) (*resty.Response, error) {
		return c.httpClient.R().
			SetContext(ctx).
			SetHeader("Authorization", tok.AuthorizationHeader()).
			SetFormData(form).
			SetResult(result).
			Post(authorizationGrantEndpoint)
	})
	if err != nil {
		return AuthorizationGrant{}, err
	}

	log.Debug().Str(field, value).Str("scope", form["scope"]).Msg("authorization grant issued")
	return *result, nil
}

// ExchangeUserToken exchanges a one-time authorization code for a user
// token. The token is scoped to a single operation and must not be cached or
// reused.
func (c *Client) ExchangeUserToken(ctx context.Context, code string) (Token, error) {
	if c.closed.Load() {
		return Token{}, ErrClosed
	}
	return c.fetchUserToken(ctx, code)
}
