package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// postgresLock serializes writers so a default flip is never observed half-applied.
const postgresLock = `LOCK TABLE webhooks IN SHARE ROW EXCLUSIVE MODE`

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	sqlStore
}

// NewPostgresStore creates a new Postgres store and applies migrations
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := newPostgresStore(db)
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

func newPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{sqlStore{db: db, bind: bindDollar, prelude: postgresLock}}
}

func (s *PostgresStore) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS webhooks (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			url TEXT NOT NULL,
			is_default BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TEXT NOT NULL
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_webhooks_single_default ON webhooks(is_default) WHERE is_default;`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return err
		}
	}
	return nil
}
