package session

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/meltforce/madcow/internal/config"
	"github.com/meltforce/madcow/internal/models"
)

// TestOpenSQLite verifies a configured sqlite store opens, loads empty and
// keeps a saved edit across reopening.
func TestOpenSQLite(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Path = filepath.Join(t.TempDir(), "madcow.db")
	cfg.Program.Week = 2
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	s, err := Open(ctx, cfg, log, nil)
	if err != nil {
		t.Fatal(err)
	}
	if s.Status().Backend != "sqlite" || len(s.Lifters()) != 0 {
		t.Fatalf("status = %+v, want an empty sqlite copy", s.Status())
	}
	if s.CurrentWeek() != 2 {
		t.Errorf("week = %d, want the configured 2", s.CurrentWeek())
	}
	if _, err := s.SetRecord("Dylan", models.Squat, 225, 2.5); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = Open(ctx, cfg, log, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if rec, err := s.Record("dylan", models.Squat); err != nil || rec.Max != 225 {
		t.Errorf("reopened squat = %+v, %v", rec, err)
	}
}

// TestOpenUnknownBackend verifies a bad backend is reported.
func TestOpenUnknownBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Backend = "floppy"
	if _, err := Open(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), nil); err == nil {
		t.Error("unknown backend accepted")
	}
}
