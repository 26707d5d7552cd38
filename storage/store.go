// Package storage persists a local registry of provisioned Tink users.
// Credential identifiers obtained from Tink Link callbacks are encrypted at
// rest. The registry is a convenience for tooling; the client's token logic
// never consults it.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// UserRecord is one provisioned user.
type UserRecord struct {
	UserID         string // Tink user id
	ExternalUserID string // caller's own identifier, unique per record
	Market         string
	Locale         string
	CredentialsID  string // from the Tink Link callback, may be empty
	CreatedAt      time.Time
}

// UserStore defines the interface for user registry persistence.
type UserStore interface {
	Get(externalUserID string) (*UserRecord, error)
	Save(record *UserRecord) error
	Delete(externalUserID string) error
	GetAll() ([]UserRecord, error)
	SetCredentialsID(externalUserID, credentialsID string) error
	Close() error
}

// SQLiteStore implements UserStore using SQLite with encrypted credential
// identifiers.
type SQLiteStore struct {
	db            *sql.DB
	encryptionKey []byte
	mu            sync.RWMutex
}

// NewSQLiteStore opens (or creates) the registry database at dbPath. The
// encryptionKey protects stored credential identifiers; derive it with
// DeriveKey.
func NewSQLiteStore(dbPath string, encryptionKey []byte) (*SQLiteStore, error) {
	// WAL mode and a busy timeout for concurrent CLI invocations
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := os.Chmod(dbPath, 0600); err != nil && !os.IsNotExist(err) {
		// Ignore error if file doesn't exist yet
	}

	store := &SQLiteStore{
		db:            db,
		encryptionKey: encryptionKey,
	}

	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) init() error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		external_user_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		market TEXT NOT NULL,
		locale TEXT NOT NULL,
		encrypted_credentials_id TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	return nil
}

// Get retrieves a user by external user id. Returns nil, nil if the record
// doesn't exist.
func (s *SQLiteStore) Get(externalUserID string) (*UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record := UserRecord{ExternalUserID: externalUserID}
	var encryptedCredentials string

	err := s.db.QueryRow(
		"SELECT user_id, market, locale, encrypted_credentials_id, created_at FROM users WHERE external_user_id = ?",
		externalUserID,
	).Scan(&record.UserID, &record.Market, &record.Locale, &encryptedCredentials, &record.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	if encryptedCredentials != "" {
		plaintext, err := Decrypt(encryptedCredentials, s.encryptionKey)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt credentials id: %w", err)
		}
		record.CredentialsID = string(plaintext)
	}

	return &record, nil
}

// Save stores or updates a user record.
func (s *SQLiteStore) Save(record *UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record.ExternalUserID == "" {
		return fmt.Errorf("external user id is required")
	}

	encryptedCredentials := ""
	if record.CredentialsID != "" {
		var err error
		encryptedCredentials, err = Encrypt([]byte(record.CredentialsID), s.encryptionKey)
		if err != nil {
			return fmt.Errorf("failed to encrypt credentials id: %w", err)
		}
	}

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	_, err := s.db.Exec(`
		INSERT INTO users (external_user_id, user_id, market, locale, encrypted_credentials_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(external_user_id) DO UPDATE SET
			user_id = excluded.user_id,
			market = excluded.market,
			locale = excluded.locale,
			encrypted_credentials_id = excluded.encrypted_credentials_id
	`, record.ExternalUserID, record.UserID, record.Market, record.Locale, encryptedCredentials, record.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}

	return nil
}

// Delete removes a user record by external user id.
func (s *SQLiteStore) Delete(externalUserID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM users WHERE external_user_id = ?", externalUserID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return nil
}

// GetAll retrieves all user records.
func (s *SQLiteStore) GetAll() ([]UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query("SELECT external_user_id, user_id, market, locale, encrypted_credentials_id, created_at FROM users ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var records []UserRecord
	for rows.Next() {
		var record UserRecord
		var encryptedCredentials string

		if err := rows.Scan(&record.ExternalUserID, &record.UserID, &record.Market, &record.Locale, &encryptedCredentials, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		if encryptedCredentials != "" {
			plaintext, err := Decrypt(encryptedCredentials, s.encryptionKey)
			if err != nil {
				return nil, fmt.Errorf("failed to decrypt credentials id for %s: %w", record.ExternalUserID, err)
			}
			record.CredentialsID = string(plaintext)
		}

		records = append(records, record)
	}

	return records, rows.Err()
}

// SetCredentialsID updates the stored credentials id for a user.
func (s *SQLiteStore) SetCredentialsID(externalUserID, credentialsID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	encrypted, err := Encrypt([]byte(credentialsID), s.encryptionKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt credentials id: %w", err)
	}

	res, err := s.db.Exec(
		"UPDATE users SET encrypted_credentials_id = ? WHERE external_user_id = ?",
		encrypted, externalUserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update credentials id: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("no such user: %s", externalUserID)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
