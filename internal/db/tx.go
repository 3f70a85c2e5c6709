package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const endpointColumns = `id, name, url, is_default, created_at`

// sqlStore holds the transaction plumbing shared by the SQLite and Postgres stores.
type sqlStore struct {
	db *sql.DB
	// bind rewrites '?' placeholders for the driver in use.
	bind func(string) string
	// prelude runs first inside every write transaction.
	prelude string
}

// Close closes the database connection
func (s *sqlStore) Close() error {
	return s.db.Close()
}

// View runs fn in a transaction that is always rolled back.
func (s *sqlStore) View(ctx context.Context, fn func(Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	return fn(&sqlTx{ctx: ctx, tx: tx, bind: s.bind})
}

// Update runs fn in a single transaction and commits it if fn succeeds.
func (s *sqlStore) Update(ctx context.Context, fn func(Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if s.prelude != "" {
		if _, err = tx.ExecContext(ctx, s.prelude); err != nil {
			return fmt.Errorf("failed to lock webhooks: %w", err)
		}
	}

	if err = fn(&sqlTx{ctx: ctx, tx: tx, bind: s.bind}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type sqlTx struct {
	ctx  context.Context
	tx   *sql.Tx
	bind func(string) string
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEndpoint(row rowScanner) (*Endpoint, error) {
	var ep Endpoint
	var created string
	if err := row.Scan(&ep.ID, &ep.Name, &ep.URL, &ep.IsDefault, &created); err != nil {
		return nil, err
	}

	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return nil, fmt.Errorf("invalid created_at for webhook %q: %w", ep.Name, err)
	}
	ep.CreatedAt = t
	return &ep, nil
}

func (t *sqlTx) queryOne(query string, args ...any) (*Endpoint, error) {
	ep, err := scanEndpoint(t.tx.QueryRowContext(t.ctx, t.bind(query), args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return ep, err
}

// Get returns the endpoint with the given name.
func (t *sqlTx) Get(name string) (*Endpoint, error) {
	return t.queryOne(`SELECT `+endpointColumns+` FROM webhooks WHERE name = ?`, name)
}

// Default returns the endpoint flagged as default.
func (t *sqlTx) Default() (*Endpoint, error) {
	return t.queryOne(`SELECT `+endpointColumns+` FROM webhooks WHERE is_default = ? ORDER BY id LIMIT 1`, true)
}

// List returns all endpoints in insertion order.
func (t *sqlTx) List() ([]Endpoint, error) {
	rows, err := t.tx.QueryContext(t.ctx, `SELECT `+endpointColumns+` FROM webhooks ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []Endpoint{}
	for rows.Next() {
		ep, err := scanEndpoint(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *ep)
	}
	return results, rows.Err()
}

// Insert stores a new endpoint. CreatedAt defaults to now.
func (t *sqlTx) Insert(ep Endpoint) error {
	if ep.CreatedAt.IsZero() {
		ep.CreatedAt = time.Now()
	}
	query := `INSERT INTO webhooks (name, url, is_default, created_at) VALUES (?, ?, ?, ?)`
	_, err := t.tx.ExecContext(t.ctx, t.bind(query), ep.Name, ep.URL, ep.IsDefault, ep.CreatedAt.UTC().Format(time.RFC3339Nano))
	return err
}

// ClearDefaults unsets is_default on every endpoint.
func (t *sqlTx) ClearDefaults() error {
	_, err := t.tx.ExecContext(t.ctx, t.bind(`UPDATE webhooks SET is_default = ? WHERE is_default = ?`), false, true)
	return err
}

// MarkDefault sets is_default on the named endpoint.
func (t *sqlTx) MarkDefault(name string) error {
	res, err := t.tx.ExecContext(t.ctx, t.bind(`UPDATE webhooks SET is_default = ? WHERE name = ?`), true, name)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// Delete removes the named endpoint.
func (t *sqlTx) Delete(name string) error {
	res, err := t.tx.ExecContext(t.ctx, t.bind(`DELETE FROM webhooks WHERE name = ?`), name)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func bindQuestion(query string) string {
	return query
}

// bindDollar converts '?' placeholders to $1, $2, ... for lib/pq.
func bindDollar(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
