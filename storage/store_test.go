package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "registry.db"), DeriveKey("test-passphrase"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func TestStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)

	record := &UserRecord{
		UserID:         "u-123",
		ExternalUserID: "ext-1",
		Market:         "ES",
		Locale:         "es_ES",
		CredentialsID:  "cred-abc",
	}
	require.NoError(t, store.Save(record))

	got, err := store.Get("ext-1")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "u-123", got.UserID)
	assert.Equal(t, "ES", got.Market)
	assert.Equal(t, "es_ES", got.Locale)
	assert.Equal(t, "cred-abc", got.CredentialsID)
	assert.WithinDuration(t, time.Now(), got.CreatedAt, time.Minute)
}

func TestStoreGetMissing(t *testing.T) {
	store := newTestStore(t)

	got, err := store.Get("nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStoreSaveRequiresExternalID(t *testing.T) {
	store := newTestStore(t)
	assert.Error(t, store.Save(&UserRecord{UserID: "u-1"}))
}

func TestStoreUpsert(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save(&UserRecord{UserID: "u-1", ExternalUserID: "ext-1", Market: "ES", Locale: "es_ES"}))
	require.NoError(t, store.Save(&UserRecord{UserID: "u-2", ExternalUserID: "ext-1", Market: "SE", Locale: "sv_SE"}))

	got, err := store.Get("ext-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "u-2", got.UserID)
	assert.Equal(t, "SE", got.Market)

	all, err := store.GetAll()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestStoreDelete(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save(&UserRecord{UserID: "u-1", ExternalUserID: "ext-1", Market: "ES", Locale: "es_ES"}))
	require.NoError(t, store.Delete("ext-1"))

	got, err := store.Get("ext-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStoreSetCredentialsID(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save(&UserRecord{UserID: "u-1", ExternalUserID: "ext-1", Market: "ES", Locale: "es_ES"}))
	require.NoError(t, store.SetCredentialsID("ext-1", "cred-xyz"))

	got, err := store.Get("ext-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "cred-xyz", got.CredentialsID)

	assert.Error(t, store.SetCredentialsID("missing", "cred"))
}

func TestStoreCredentialsEncryptedAtRest(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save(&UserRecord{UserID: "u-1", ExternalUserID: "ext-1", Market: "ES", Locale: "es_ES", CredentialsID: "cred-abc"}))

	var stored string
	err := store.db.QueryRow("SELECT encrypted_credentials_id FROM users WHERE external_user_id = ?", "ext-1").Scan(&stored)
	require.NoError(t, err)
	assert.NotEmpty(t, stored)
	assert.NotContains(t, stored, "cred-abc")
}
