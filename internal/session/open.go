package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/meltforce/madcow/internal/config"
	"github.com/meltforce/madcow/internal/metrics"
	"github.com/meltforce/madcow/internal/storage"
)

// Open connects the configured store and loads the working copy from it.
// m may be nil.
func Open(ctx context.Context, cfg *config.Config, log *slog.Logger, m *metrics.Manager) (*State, error) {
	store, err := storage.Open(ctx, cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	s := New(Options{
		Store:            store,
		Log:              log,
		Metrics:          m,
		Base:             cfg.Program.Settings(time.Now()),
		DefaultIncrement: cfg.Program.DefaultIncrement,
		Plates:           cfg.Program.PlateSet(),
		Program:          cfg.Program.Madcow(),
	})
	if _, err := s.Reload(ctx, true); err != nil {
		_ = store.Close()
		return nil, err
	}
	return s, nil
}

// Store returns the backing store.
func (s *State) Store() storage.Store {
	return s.store
}

// Close releases the store. Unsaved edits are lost.
func (s *State) Close() error {
	return s.store.Close()
}
