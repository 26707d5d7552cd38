package tink

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dataHandler serves the token, grant, accounts and transactions endpoints.
// It is safe for concurrent requests since FetchUserData runs two delegated
// calls in parallel.
func dataHandler(t *testing.T, grantCount *int) http.Handler {
	var mu sync.Mutex
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/token":
			require.NoError(t, r.ParseForm())
			if r.PostFormValue("grant_type") == "authorization_code" {
				writeTokenResponse(t, w, "user-token", "accounts:read,transactions:read")
			} else {
				writeTokenResponse(t, w, "app-token", r.PostFormValue("scope"))
			}
		case "/oauth/authorization-grant":
			mu.Lock()
			*grantCount++
			mu.Unlock()
			writeJSON(t, w, AuthorizationGrant{Code: "data-code"})
		case "/data/v2/accounts":
			assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
			writeJSON(t, w, map[string]any{
				"accounts": []Account{{ID: "a1", Name: "Checking", Balance: 12.5, CurrencyCode: "EUR"}},
			})
		case "/data/v2/transactions":
			assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
			writeJSON(t, w, TransactionsPage{
				Transactions: []Transaction{{ID: "t1", AccountID: "a1", Amount: -4.2, CurrencyCode: "EUR"}},
			})
		default:
			t.Error("unexpected url " + r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func TestListAccounts(t *testing.T) {
	grants := 0
	client, _ := newTestClient(t, dataHandler(t, &grants))

	accounts, err := client.ListAccounts(context.Background(), Subject{UserID: "u1"})
	require.NoError(t, err)

	require.Len(t, accounts, 1)
	assert.Equal(t, "a1", accounts[0].ID)
	assert.Equal(t, "EUR", accounts[0].CurrencyCode)
}

func TestListTransactionsPageToken(t *testing.T) {
	var gotPageToken string

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/token":
			require.NoError(t, r.ParseForm())
			if r.PostFormValue("grant_type") == "authorization_code" {
				writeTokenResponse(t, w, "user-token", "transactions:read")
			} else {
				writeTokenResponse(t, w, "app-token", r.PostFormValue("scope"))
			}
		case "/oauth/authorization-grant":
			writeJSON(t, w, AuthorizationGrant{Code: "c"})
		case "/data/v2/transactions":
			gotPageToken = r.URL.Query().Get("pageToken")
			writeJSON(t, w, TransactionsPage{NextPageToken: "page-2"})
		default:
			t.Fatal("unexpected url " + r.URL.Path)
		}
	}))

	page, err := client.ListTransactions(context.Background(), Subject{UserID: "u1"}, "page-1")
	require.NoError(t, err)

	assert.Equal(t, "page-1", gotPageToken)
	assert.Equal(t, "page-2", page.NextPageToken)
}

func TestFetchUserData(t *testing.T) {
	grants := 0
	client, _ := newTestClient(t, dataHandler(t, &grants))

	data, err := client.FetchUserData(context.Background(), Subject{ExternalUserID: "ext-1"})
	require.NoError(t, err)

	require.Len(t, data.Accounts, 1)
	require.Len(t, data.Transactions, 1)
	assert.Equal(t, "a1", data.Accounts[0].ID)
	assert.Equal(t, "t1", data.Transactions[0].ID)

	// each downstream call runs its own delegation
	assert.Equal(t, 2, grants)
}

func TestFetchUserDataSubjectValidation(t *testing.T) {
	grants := 0
	client, _ := newTestClient(t, dataHandler(t, &grants))

	_, err := client.FetchUserData(context.Background(), Subject{})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, 0, grants)
}
