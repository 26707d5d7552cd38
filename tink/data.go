package tink

import (
	"context"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/errgroup"
)

// Account is a thin view of an account as returned by the data API.
type Account struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Type          string   `json:"type"`
	Balance       float64  `json:"balance"`
	CurrencyCode  string   `json:"currencyCode"`
	Status        string   `json:"status"`
	AccountNumber string   `json:"accountNumber,omitempty"`
	IBAN          string   `json:"iban,omitempty"`
	Flags         []string `json:"flags,omitempty"`
}

type accountsResponse struct {
	Accounts []Account `json:"accounts"`
}

// Transaction is a thin view of a transaction as returned by the data API.
type Transaction struct {
	ID           string  `json:"id"`
	AccountID    string  `json:"accountId"`
	Amount       float64 `json:"amount"`
	CurrencyCode string  `json:"currencyCode"`
	Description  string  `json:"description,omitempty"`
	Date         string  `json:"date"`
	Status       string  `json:"status"`
	Pending      bool    `json:"pending"`
}

// TransactionsPage is one page of transactions. An empty NextPageToken means
// there are no further pages.
type TransactionsPage struct {
	Transactions  []Transaction `json:"transactions"`
	NextPageToken string        `json:"nextPageToken"`
}

// ListAccounts fetches the accounts of the user identified by subject under
// a delegated accounts:read token.
func (c *Client) ListAccounts(ctx context.Context, subject Subject) ([]Account, error) {
	if err := subject.validate(); err != nil {
		return nil, err
	}

	result := &accountsResponse{}
	_, err := c.doWithUserToken(ctx, subject, []string{ScopeAccountsRead}, func(tok Token) (*resty.Response, error) {
		return c.httpClient.R().
			SetContext(ctx).
			SetHeader("Authorization", tok.AuthorizationHeader()).
			SetResult(result).
			Get(accountsEndpoint)
	})
	if err != nil {
		return nil, err
	}

	return result.Accounts, nil
}

// ListTransactions fetches one page of the user's transactions. Pass an
// empty pageToken for the first page.
func (c *Client) ListTransactions(ctx context.Context, subject Subject, pageToken string) (TransactionsPage, error) {
	if err := subject.validate(); err != nil {
		return TransactionsPage{}, err
	}

	result := &TransactionsPage{}
	_, err := c.doWithUserToken(ctx, subject, []string{ScopeTransactionsRead}, func(tok Token) (*resty.Response, error) {
		req := c.httpClient.R().
			SetContext(ctx).
			SetHeader("Authorization", tok.AuthorizationHeader()).
			SetResult(result)
		if pageToken != "" {
			req.SetQueryParam("pageToken", pageToken)
		}
		return req.Get(transactionsEndpoint)
	})
	if err != nil {
		return TransactionsPage{}, err
	}

	return *result, nil
}

// UserData bundles a user's accounts and first page of transactions.
type UserData struct {
	Accounts     []Account
	Transactions []Transaction
}

// FetchUserData fetches accounts and transactions concurrently. Each call
// runs its own delegation, so the two requests are independent and a failure
// in either cancels the other.
func (c *Client) FetchUserData(ctx context.Context, subject Subject) (UserData, error) {
	if err := subject.validate(); err != nil {
		return UserData{}, err
	}

	var data UserData
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		accounts, err := c.ListAccounts(ctx, subject)
		if err != nil {
			return err
		}
		data.Accounts = accounts
		return nil
	})
	g.Go(func() error {
		page, err := c.ListTransactions(ctx, subject, "")
		if err != nil {
			return err
		}
		data.Transactions = page.Transactions
		return nil
	})

	if err := g.Wait(); err != nil {
		return UserData{}, err
	}
	return data, nil
}
