// Package registry manages named webhook endpoints and the single-default invariant.
package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"goblin/internal/db"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrDuplicateName is returned by Save when the name is already taken.
	ErrDuplicateName = errors.New("webhook already exists")
	// ErrNotFound is returned when no webhook matches the requested name.
	ErrNotFound = errors.New("webhook not found")
	// ErrNoDefault is returned by Resolve when no name is given and no default is set.
	ErrNoDefault = errors.New("no default webhook set")
	// ErrInvalid is returned by Save for a malformed name or URL.
	ErrInvalid = errors.New("invalid webhook")
)

var validate = validator.New()

// NameError ties a registry failure to the webhook name involved.
type NameError struct {
	Name string
	Err  error
}

func (e *NameError) Error() string {
	switch {
	case errors.Is(e.Err, ErrDuplicateName):
		return fmt.Sprintf("webhook '%s' already exists", e.Name)
	case errors.Is(e.Err, ErrNotFound):
		return fmt.Sprintf("webhook '%s' not found", e.Name)
	default:
		return fmt.Sprintf("webhook '%s': %v", e.Name, e.Err)
	}
}

func (e *NameError) Unwrap() error { return e.Err }

type saveRequest struct {
	Name string `validate:"required"`
	URL  string `validate:"required,url"`
}

// Registry enforces name uniqueness and at most one default over a db.Store.
type Registry struct {
	store db.Store
}

// New creates a Registry backed by store.
func New(store db.Store) *Registry {
	return &Registry{store: store}
}

// Save inserts a new endpoint. With setDefault, every other endpoint loses its
// default flag in the same transaction.
func (r *Registry) Save(ctx context.Context, name, url string, setDefault bool) (string, error) {
	name = strings.TrimSpace(name)
	if err := validate.Struct(saveRequest{Name: name, URL: url}); err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalid, describe(err))
	}

	err := r.store.Update(ctx, func(tx db.Tx) error {
		if _, err := tx.Get(name); err == nil {
			return &NameError{Name: name, Err: ErrDuplicateName}
		} else if !errors.Is(err, db.ErrNotFound) {
			return err
		}

		if setDefault {
			if err := tx.ClearDefaults(); err != nil {
				return fmt.Errorf("failed to clear default: %w", err)
			}
		}

		return tx.Insert(db.Endpoint{Name: name, URL: url, IsDefault: setDefault})
	})
	if err != nil {
		return "", err
	}
	return name, nil
}

// List returns all endpoints in storage order. An empty slice is not an error.
func (r *Registry) List(ctx context.Context) ([]db.Endpoint, error) {
	var endpoints []db.Endpoint
	err := r.store.View(ctx, func(tx db.Tx) error {
		var err error
		endpoints, err = tx.List()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list webhooks: %w", err)
	}
	return endpoints, nil
}

// Delete removes the named endpoint. Deleting the default leaves no default.
func (r *Registry) Delete(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	return r.store.Update(ctx, func(tx db.Tx) error {
		return notFound(tx.Delete(name), name)
	})
}

// SetDefault makes name the only default endpoint.
func (r *Registry) SetDefault(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	return r.store.Update(ctx, func(tx db.Tx) error {
		if _, err := tx.Get(name); err != nil {
			return notFound(err, name)
		}
		if err := tx.ClearDefaults(); err != nil {
			return fmt.Errorf("failed to clear default: %w", err)
		}
		return notFound(tx.MarkDefault(name), name)
	})
}

// Resolve looks up the named endpoint, or the default one when name is empty.
func (r *Registry) Resolve(ctx context.Context, name string) (*db.Endpoint, error) {
	name = strings.TrimSpace(name)
	var ep *db.Endpoint
	err := r.store.View(ctx, func(tx db.Tx) error {
		var err error
		if name != "" {
			ep, err = tx.Get(name)
			return notFound(err, name)
		}
		ep, err = tx.Default()
		if errors.Is(err, db.ErrNotFound) {
			return ErrNoDefault
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return ep, nil
}

func notFound(err error, name string) error {
	if errors.Is(err, db.ErrNotFound) {
		return &NameError{Name: name, Err: ErrNotFound}
	}
	return err
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, strings.ToLower(fe.Field())+" is required")
		case "url":
			msgs = append(msgs, "url must be an absolute URL")
		default:
			msgs = append(msgs, fe.Error())
		}
	}
	return strings.Join(msgs, ", ")
}
