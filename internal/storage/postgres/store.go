package postgres

import (
	"context"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
)

// Store keeps the values of one profile in table client_state.
type Store struct {
	db      *DB
	profile string
}

// NewStore binds a store to profile. An empty profile means "default".
func NewStore(db *DB, profile string) *Store {
	if profile == "" {
		profile = "default"
	}
	return &Store{db: db, profile: profile}
}

// Get selects the requested keys of the profile.
func (s *Store) Get(ctx context.Context, keys ...string) (map[string]string, error) {
	const q = `SELECT key, value FROM client_state WHERE profile=$1 AND key = ANY($2)`
	rows, err := s.db.Pool.Query(ctx, q, s.profile, keys)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string, len(keys))
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

// Put upserts every pair in one transaction.
func (s *Store) Put(ctx context.Context, kv map[string]string) (err error) {
	if len(kv) == 0 {
		return nil
	}
	tx, err := s.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	const q = `
INSERT INTO client_state (profile, key, value, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (profile, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`

	// deterministic order keeps lock acquisition stable across writers
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, err = tx.Exec(ctx, q, s.profile, k, kv[k]); err != nil {
			return fmt.Errorf("put %q: %w", k, err)
		}
	}
	return nil
}

// Delete removes the keys in a single statement.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	const q = `DELETE FROM client_state WHERE profile=$1 AND key = ANY($2)`
	_, err := s.db.Pool.Exec(ctx, q, s.profile, keys)
	return err
}
