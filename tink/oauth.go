package tink

import (
	"context"
	"net/http"
)

// tokenResponse is the body returned by the token endpoint for both grant
// types.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope"`
}

// fetchClientCredentialsToken performs the client_credentials grant for the
// given comma-joined scope string. No retry happens at this layer; that is
// the request executor's job.
func (c *Client) fetchClientCredentialsToken(ctx context.Context, scope string) (Token, error) {
	return c.fetchToken(ctx, map[string]string{
		"client_id":     c.clientID,
		"client_secret": c.clientSecret,
		"grant_type":    "client_credentials",
		"scope":         scope,
	}, "invalid client credentials")
}

// fetchUserToken exchanges a one-time authorization code for a user-scoped
// token. The result is never cached.
func (c *Client) fetchUserToken(ctx context.Context, authorizationCode string) (Token, error) {
	return c.fetchToken(ctx, map[string]string{
		"client_id":     c.clientID,
		"client_secret": c.clientSecret,
		"grant_type":    "authorization_code",
		"code":          authorizationCode,
	}, "invalid authorization code")
}

func (c *Client) fetchToken(ctx context.Context, form map[string]string, authFailureReason string) (Token, error) {
	result := &tokenResponse{}

	res, err := c.httpClient.R().
		SetContext(ctx).
		SetFormData(form).
		SetResult(result).
		Post(tokenEndpoint)
	if err != nil {
		return Token{}, transportError(err)
	}
	if res.StatusCode() == http.StatusUnauthorized {
		return Token{}, &AuthError{Reason: authFailureReason}
	}
	if res.IsError() {
		return Token{}, &APIError{StatusCode: res.StatusCode(), Body: string(res.Body())}
	}

	return newToken(*result, c.now()), nil
}
