package tink

import (
	"context"

	"github.com/go-resty/resty/v2"
)

type CreateUserRequest struct {
	Market         string `json:"market"`
	Locale         string `json:"locale"`
	ExternalUserID string `json:"external_user_id,omitempty"`
}

type CreateUserResponse struct {
	UserID string `json:"user_id"`
}

// UserProfile is the profile section of a user response.
type UserProfile struct {
	Currency string `json:"currency"`
	Locale   string `json:"locale"`
	Market   string `json:"market"`
	TimeZone string `json:"timeZone"`
}

// User is a Tink user record.
type User struct {
	AppID          string      `json:"appId"`
	Created        string      `json:"created"`
	ExternalUserID string      `json:"externalUserId,omitempty"`
	Flags          []string    `json:"flags"`
	ID             string      `json:"id"`
	NationalID     string      `json:"nationalId,omitempty"`
	Profile        UserProfile `json:"profile"`
	Username       string      `json:"username,omitempty"`
}

// CreateUser creates a new user. Market and Locale are required by the API;
// ExternalUserID is optional and links the Tink user to the caller's own
// identifier.
func (c *Client) CreateUser(ctx context.Context, req CreateUserRequest) (CreateUserResponse, error) {
	result := &CreateUserResponse{}

	_, err := c.doWithAppToken(ctx, userCreationScopes, func(tok Token) (*resty.Response, error) {
		return c.httpClient.R().
			SetContext(ctx).
			SetHeader("Authorization", tok.AuthorizationHeader()).
			SetBody(req).
			SetResult(result).
			Post(createUserEndpoint)
	})
	if err != nil {
		return CreateUserResponse{}, err
	}

	return *result, nil
}

// GetUser fetches the user identified by subject. This runs the full
// delegated access sequence: an authorization grant scoped to user:read is
// exchanged for a user token, which authenticates the single read call.
func (c *Client) GetUser(ctx context.Context, subject Subject) (User, error) {
	if err := subject.validate(); err != nil {
		return User{}, err
	}

	result := &User{}
	_, err := c.doWithUserToken(ctx, subject, []string{ScopeUserRead}, func(tok Token) (*resty.Response, error) {
		return c.httpClient.R().
			SetContext(ctx).
			SetHeader("Authorization", tok.AuthorizationHeader()).
			SetResult(result).
			Get(userEndpoint)
	})
	if err != nil {
		return User{}, err
	}

	return *result, nil
}

// DeleteUser deletes the user identified by subject and all associated data.
func (c *Client) DeleteUser(ctx context.Context, subject Subject) error {
	if err := subject.validate(); err != nil {
		return err
	}

	_, err := c.doWithUserToken(ctx, subject, []string{ScopeUserDelete}, func(tok Token) (*resty.Response, error) {
		return c.httpClient.R().
			SetContext(ctx).
			SetHeader("Authorization", tok.AuthorizationHeader()).
			Post(deleteUserEndpoint)
	})
	return err
}
