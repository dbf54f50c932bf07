// Package credstore persists the single bearer credential across process
// restarts. Storage is a sqlite key-value table managed by embedded goose
// migrations, matching the rest of the client's local persistence.
//
// The token is treated as an opaque string; it may or may not already carry
// an auth-scheme prefix. At most one token is stored at a time.
package credstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/dbarkov/feedline/internal/client/credstore/migrations"
	"github.com/dbarkov/feedline/internal/dbx"
)

const tokenKey = "token"

// Store is the durable credential store.
type Store struct {
	db *sql.DB
}

// New wraps an already-open database handle. The credentials table must
// exist (see Open).
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open opens (creating if needed) the sqlite database at dsn, applies
// migrations, and returns a ready Store plus the handle for closing.
func Open(ctx context.Context, dsn string) (*Store, *sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open credential db: %w", err)
	}

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrate credential db: %w", err)
	}

	return New(db), db, nil
}

// Save overwrites any existing token with the given value. The delete and
// insert run in one transaction so the at-most-one-token invariant holds
// even across a crash between the two statements.
func (s *Store) Save(ctx context.Context, token string) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM credentials WHERE key = ?`, tokenKey); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO credentials (key, value) VALUES (?, ?)`, tokenKey, token)
		return err
	})
	if err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// Load returns the stored token. ok is false when no token is persisted.
func (s *Store) Load(ctx context.Context) (token string, ok bool, err error) {
	err = s.db.QueryRowContext(ctx, `SELECT value FROM credentials WHERE key = ?`, tokenKey).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load token: %w", err)
	}
	return token, true, nil
}

// Clear removes the stored token. Clearing an empty store is not an error.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM credentials WHERE key = ?`, tokenKey)
	if err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}
