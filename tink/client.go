// Package tink implements a client for the Tink financial data API.
// It manages OAuth client credentials tokens with caching and handles the
// delegated access flow (authorization grant -> user token) required for
// user-scoped operations.
package tink

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

const (
	ApiBaseUrl = "https://api.tink.com/api/v1"

	DefaultTimeout = 30 * time.Second

	tokenEndpoint              = "/oauth/token"
	authorizationGrantEndpoint = "/oauth/authorization-grant"
	userEndpoint               = "/user"
	createUserEndpoint         = "/user/create"
	deleteUserEndpoint         = "/user/delete"
	accountsEndpoint           = "/data/v2/accounts"
	transactionsEndpoint       = "/data/v2/transactions"
)

// userCreationScopes is the app-level scope set needed to create users and
// issue authorization grants.
var userCreationScopes = []string{ScopeAuthorizationGrant, ScopeUserCreate}

type ClientOpts struct {
	ClientID     string
	ClientSecret string
	// BaseURL overrides the production API base URL. Mostly useful in tests.
	BaseURL string
	// Timeout is the per-request timeout. Defaults to DefaultTimeout.
	Timeout time.Duration
}

// Client is a Tink API client. It owns the underlying HTTP transport and a
// single-slot cache for the app-level client credentials token. A Client is
// safe for concurrent use; Close releases the transport, after which every
// operation fails with ErrClosed.
type Client struct {
	httpClient   *resty.Client
	clientID     string
	clientSecret string
	cache        *tokenCache
	now          func() time.Time
	closed       atomic.Bool
}

func NewClient(opts ClientOpts) (*Client, error) {
	if opts.ClientID == "" {
		return nil, fmt.Errorf("client id is required: %w", ErrInvalidArgument)
	}
	if opts.ClientSecret == "" {
		return nil, fmt.Errorf("client secret is required: %w", ErrInvalidArgument)
	}

	baseURL := ApiBaseUrl
	if opts.BaseURL != "" {
		baseURL = opts.BaseURL
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	c := &Client{
		clientID:     opts.ClientID,
		clientSecret: opts.ClientSecret,
		now:          time.Now,
	}
	c.httpClient = resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	c.cache = newTokenCache(c.fetchClientCredentialsToken)

	return c, nil
}

// Close releases the underlying transport. Safe to call once; operations
// attempted after Close fail fast with ErrClosed.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	c.httpClient.GetClient().CloseIdleConnections()
	return nil
}

// appToken returns a valid app-level token for the required scopes, from the
// cache or freshly fetched.
func (c *Client) appToken(ctx context.Context, scopes []string) (Token, error) {
	return c.cache.getValid(ctx, c.now(), scopes)
}

// userToken mints a fresh user-scoped token for the subject by running the
// full delegation sequence: authorization grant, then code exchange. The
// result is meant for exactly one downstream call and is never cached.
func (c *Client) userToken(ctx context.Context, subject Subject, scopes []string) (Token, error) {
	grant, err := c.GrantUserAccess(ctx, subject, scopes)
	if err != nil {
		return Token{}, err
	}
	return c.fetchUserToken(ctx, grant.Code)
}

// sendFunc issues one HTTP request authenticated with the given token.
type sendFunc func(tok Token) (*resty.Response, error)

// doAuthenticated is the request executor shared by every endpoint method.
// It obtains a token from source, sends the request, and on a 401 invalidates
// and re-obtains the token and retries exactly once. A second 401 surfaces as
// an AuthError; there is never more than one retry for any reason.
func (c *Client) doAuthenticated(ctx context.Context, source func(ctx context.Context) (Token, error), invalidate func(), send sendFunc) (*resty.Response, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}

	tok, err := source(ctx)
	if err != nil {
		return nil, err
	}

	res, err := send(tok)
	if err != nil {
		return nil, transportError(err)
	}

	if res.StatusCode() == http.StatusUnauthorized {
		log.Warn().
			Str("url", res.Request.URL).
			Msg("token rejected, retrying once with a fresh token")
		invalidate()

		tok, err = source(ctx)
		if err != nil {
			return nil, err
		}
		res, err = send(tok)
		if err != nil {
			return nil, transportError(err)
		}
		if res.StatusCode() == http.StatusUnauthorized {
			return nil, &AuthError{Reason: "token rejected after refresh"}
		}
	}

	if res.IsError() {
		return nil, &APIError{StatusCode: res.StatusCode(), Body: string(res.Body())}
	}

	return res, nil
}

// doWithAppToken executes send under a cached app-level token with the usual
// single retry on 401.
func (c *Client) doWithAppToken(ctx context.Context, scopes []string, send sendFunc) (*resty.Response, error) {
	source := func(ctx context.Context) (Token, error) {
		return c.appToken(ctx, scopes)
	}
	return c.doAuthenticated(ctx, source, c.cache.invalidate, send)
}

// doWithUserToken executes send under a freshly minted user token. On 401 the
// whole delegation sequence reruns once with the identical subject and
// scopes; only the app token behind the grant is cached, so that is what gets
// invalidated.
func (c *Client) doWithUserToken(ctx context.Context, subject Subject, scopes []string, send sendFunc) (*resty.Response, error) {
	source := func(ctx context.Context) (Token, error) {
		return c.userToken(ctx, subject, scopes)
	}
	return c.doAuthenticated(ctx, source, c.cache.invalidate, send)
}
