package db

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func withMockStore(t *testing.T, fn func(*PostgresStore, sqlmock.Sqlmock)) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	store := newPostgresStore(db)
	fn(store, mock)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func endpointRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "url", "is_default", "created_at"})
}

func TestPostgresStore_Mocked(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	createdText := created.Format(time.RFC3339Nano)

	t.Run("Get Success", func(t *testing.T) {
		withMockStore(t, func(store *PostgresStore, mock sqlmock.Sqlmock) {
			mock.ExpectBegin()
			mock.ExpectQuery(regexp.QuoteMeta(`FROM webhooks WHERE name = $1`)).
				WithArgs("ops").
				WillReturnRows(endpointRows().AddRow(1, "ops", "https://discord.example/hook", true, createdText))
			mock.ExpectRollback()

			err := store.View(ctx, func(tx Tx) error {
				ep, err := tx.Get("ops")
				if err != nil {
					return err
				}
				assert.Equal(t, "ops", ep.Name)
				assert.True(t, ep.IsDefault)
				assert.True(t, created.Equal(ep.CreatedAt))
				return nil
			})
			assert.NoError(t, err)
		})
	})

	t.Run("Get Not Found", func(t *testing.T) {
		withMockStore(t, func(store *PostgresStore, mock sqlmock.Sqlmock) {
			mock.ExpectBegin()
			mock.ExpectQuery(regexp.QuoteMeta(`FROM webhooks WHERE name = $1`)).
				WithArgs("missing").
				WillReturnRows(endpointRows())
			mock.ExpectRollback()

			err := store.View(ctx, func(tx Tx) error {
				_, err := tx.Get("missing")
				return err
			})
			assert.ErrorIs(t, err, ErrNotFound)
		})
	})

	t.Run("Default Flip Commits", func(t *testing.T) {
		withMockStore(t, func(store *PostgresStore, mock sqlmock.Sqlmock) {
			mock.ExpectBegin()
			mock.ExpectExec(regexp.QuoteMeta(postgresLock)).WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectExec(regexp.QuoteMeta(`UPDATE webhooks SET is_default = $1 WHERE is_default = $2`)).
				WithArgs(false, true).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectExec(regexp.QuoteMeta(`UPDATE webhooks SET is_default = $1 WHERE name = $2`)).
				WithArgs(true, "alerts").
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectCommit()

			err := store.Update(ctx, func(tx Tx) error {
				if err := tx.ClearDefaults(); err != nil {
					return err
				}
				return tx.MarkDefault("alerts")
			})
			assert.NoError(t, err)
		})
	})

	t.Run("Mark Missing Rolls Back", func(t *testing.T) {
		withMockStore(t, func(store *PostgresStore, mock sqlmock.Sqlmock) {
			mock.ExpectBegin()
			mock.ExpectExec(regexp.QuoteMeta(postgresLock)).WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectExec(regexp.QuoteMeta(`UPDATE webhooks SET is_default = $1 WHERE is_default = $2`)).
				WithArgs(false, true).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectExec(regexp.QuoteMeta(`UPDATE webhooks SET is_default = $1 WHERE name = $2`)).
				WithArgs(true, "ghost").
				WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectRollback()

			err := store.Update(ctx, func(tx Tx) error {
				if err := tx.ClearDefaults(); err != nil {
					return err
				}
				return tx.MarkDefault("ghost")
			})
			assert.ErrorIs(t, err, ErrNotFound)
		})
	})

	t.Run("Insert", func(t *testing.T) {
		withMockStore(t, func(store *PostgresStore, mock sqlmock.Sqlmock) {
			mock.ExpectBegin()
			mock.ExpectExec(regexp.QuoteMeta(postgresLock)).WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO webhooks (name, url, is_default, created_at) VALUES ($1, $2, $3, $4)`)).
				WithArgs("ops", "https://discord.example/hook", false, createdText).
				WillReturnResult(sqlmock.NewResult(1, 1))
			mock.ExpectCommit()

			err := store.Update(ctx, func(tx Tx) error {
				return tx.Insert(Endpoint{Name: "ops", URL: "https://discord.example/hook", CreatedAt: created})
			})
			assert.NoError(t, err)
		})
	})

	t.Run("List", func(t *testing.T) {
		withMockStore(t, func(store *PostgresStore, mock sqlmock.Sqlmock) {
			mock.ExpectBegin()
			mock.ExpectQuery(regexp.QuoteMeta(`FROM webhooks ORDER BY id`)).
				WillReturnRows(endpointRows().
					AddRow(1, "ops", "u1", true, createdText).
					AddRow(2, "alerts", "u2", false, createdText))
			mock.ExpectRollback()

			var got []Endpoint
			err := store.View(ctx, func(tx Tx) error {
				var err error
				got, err = tx.List()
				return err
			})
			assert.NoError(t, err)
			assert.Len(t, got, 2)
			assert.Equal(t, "alerts", got[1].Name)
		})
	})

	t.Run("Lock Error", func(t *testing.T) {
		withMockStore(t, func(store *PostgresStore, mock sqlmock.Sqlmock) {
			mock.ExpectBegin()
			mock.ExpectExec(regexp.QuoteMeta(postgresLock)).WillReturnError(errors.New("lock timeout"))
			mock.ExpectRollback()

			called := false
			err := store.Update(ctx, func(tx Tx) error {
				called = true
				return nil
			})
			assert.Error(t, err)
			assert.False(t, called)
		})
	})

	t.Run("Commit Error", func(t *testing.T) {
		withMockStore(t, func(store *PostgresStore, mock sqlmock.Sqlmock) {
			mock.ExpectBegin()
			mock.ExpectExec(regexp.QuoteMeta(postgresLock)).WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM webhooks WHERE name = $1`)).
				WithArgs("ops").
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectCommit().WillReturnError(errors.New("commit failed"))

			err := store.Update(ctx, func(tx Tx) error {
				return tx.Delete("ops")
			})
			assert.Error(t, err)
			assert.Contains(t, err.Error(), "failed to commit")
		})
	})
}
