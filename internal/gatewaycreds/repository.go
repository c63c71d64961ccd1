package gatewaycreds

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"missedcall/pkg/utils"
)

// platform_settings keys.
const (
	keyAccountSID = "twilio_account_sid"
	keyAuthToken  = "twilio_auth_token"
	keyFromNumber = "twilio_from_number"
)

// Store persists the operator-managed platform credentials.
type Store interface {
	Load(ctx context.Context) (Credentials, error)
	Save(ctx context.Context, c Credentials) error
}

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Load(ctx context.Context) (Credentials, error) {
	const q = `SELECT key, value FROM platform_settings WHERE key IN ($1, $2, $3)`
	rows, err := utils.Conn(ctx, s.db).QueryContext(ctx, q, keyAccountSID, keyAuthToken, keyFromNumber)
	if err != nil {
		return Credentials{}, fmt.Errorf("gatewaycreds: load: %w", err)
	}
	defer rows.Close()

	var c Credentials
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return Credentials{}, err
		}
		switch k {
		case keyAccountSID:
			c.AccountSID = v
		case keyAuthToken:
			c.AuthToken = v
		case keyFromNumber:
			c.FromNumber = v
		}
	}
	return c, rows.Err()
}

func (s *PostgresStore) Save(ctx context.Context, c Credentials) error {
	const q = `
INSERT INTO platform_settings (key, value, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
`
	now := time.Now().UTC()
	return utils.WithTx(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		for k, v := range map[string]string{
			keyAccountSID: c.AccountSID,
			keyAuthToken:  c.AuthToken,
			keyFromNumber: c.FromNumber,
		} {
			if _, err := tx.ExecContext(ctx, q, k, strings.TrimSpace(v), now); err != nil {
				return fmt.Errorf("gatewaycreds: save %s: %w", k, err)
			}
		}
		return nil
	})
}

type MemoryStore struct {
	mu    sync.Mutex
	creds Credentials
	loads int
}

func NewMemoryStore(c Credentials) *MemoryStore {
	return &MemoryStore{creds: c}
}

func (s *MemoryStore) Load(ctx context.Context) (Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	return s.creds, nil
}

func (s *MemoryStore) Save(ctx context.Context, c Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = c
	return nil
}

// Loads reports how many times Load was called.
func (s *MemoryStore) Loads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads
}

// StoreLoader reads the store and fills any empty field from fallback (env config).
func StoreLoader(store Store, fallback Credentials) Loader {
	return func(ctx context.Context) (Credentials, error) {
		c, err := store.Load(ctx)
		if err != nil {
			return Credentials{}, err
		}
		if c.AccountSID == "" {
			c.AccountSID = fallback.AccountSID
		}
		if c.AuthToken == "" {
			c.AuthToken = fallback.AuthToken
		}
		if c.FromNumber == "" {
			c.FromNumber = fallback.FromNumber
		}
		if !c.Complete() {
			return c, ErrNotConfigured
		}
		return c, nil
	}
}

// Updater saves new credentials and drops the cached copy before returning.
type Updater struct {
	Store Store
	Cache *Cache
}

func (u Updater) Update(ctx context.Context, c Credentials) error {
	if err := u.Store.Save(ctx, c); err != nil {
		return err
	}
	u.Cache.Invalidate()
	return nil
}
