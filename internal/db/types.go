package db

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Tx lookups when no endpoint matches.
var ErrNotFound = errors.New("record not found")

// Endpoint is a named webhook URL as persisted in the webhooks table.
type Endpoint struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
}

// Tx is the set of record operations available inside a transaction.
type Tx interface {
	Get(name string) (*Endpoint, error)
	Default() (*Endpoint, error)
	List() ([]Endpoint, error)
	Insert(ep Endpoint) error
	ClearDefaults() error
	MarkDefault(name string) error
	Delete(name string) error
}

// Store interface defines the methods for persistent storage.
// Update commits only when fn returns nil; every other exit path rolls back.
type Store interface {
	View(ctx context.Context, fn func(Tx) error) error
	Update(ctx context.Context, fn func(Tx) error) error
	Close() error
}
