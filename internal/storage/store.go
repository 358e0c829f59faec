// Package storage persists the lift record table and the settings table.
// Every backend exchanges the untyped models.Sheet; typing and coercion
// happen once, in the session, whatever the backend.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/meltforce/madcow/internal/models"
)

// ErrTransport marks any failure to read or write the backing store.
var ErrTransport = errors.New("record store unavailable")

// TransportError records which backend operation failed.
type TransportError struct {
	Backend string
	Op      string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Backend, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// Store loads and saves the whole sheet. Save replaces the stored content.
type Store interface {
	Name() string
	Load(ctx context.Context) (*models.Sheet, error)
	Save(ctx context.Context, sheet *models.Sheet) error
	Close() error
}

func transportErr(backend, op string, err error) error {
	if err == nil {
		return nil
	}
	var te *TransportError
	if errors.As(err, &te) {
		return err
	}
	return &TransportError{Backend: backend, Op: op, Err: err}
}
