package db

import (
	"fmt"
	"strings"
)

// DefaultSQLitePath is used when no SQLite path is configured.
const DefaultSQLitePath = "webhooks.db"

// StoreConfig holds configuration for the storage backend
type StoreConfig struct {
	Type             string // "sqlite" or "postgres"
	ConnectionString string // File path for SQLite, DSN for Postgres
}

// NewStore creates a new Store instance based on the provided configuration
func NewStore(config StoreConfig) (Store, error) {
	switch strings.ToLower(config.Type) {
	case "postgres", "postgresql":
		if config.ConnectionString == "" {
			return nil, fmt.Errorf("postgres connection string is required")
		}
		return NewPostgresStore(config.ConnectionString)
	case "sqlite", "sqlite3", "":
		if config.ConnectionString == "" {
			config.ConnectionString = DefaultSQLitePath
		}
		return NewSQLiteStore(config.ConnectionString)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", config.Type)
	}
}
