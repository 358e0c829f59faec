package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/meltforce/madcow/internal/config"
)

// Open constructs the configured backend. Postgres migrations run first.
func Open(ctx context.Context, cfg config.StorageConfig, log *slog.Logger) (Store, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		log.Warn("using in-memory store, nothing will persist")
		return NewMemory(nil), nil

	case config.BackendCSV:
		s := NewCSV(cfg.Path, cfg.SettingsPath)
		log.Info("using csv store", "records", s.recordsPath, "settings", s.settingsPath)
		return s, nil

	case config.BackendXLSX:
		log.Info("using xlsx store", "path", cfg.Path)
		return NewXLSX(cfg.Path, cfg.Sheets.RecordsSheet, cfg.Sheets.SettingsSheet), nil

	case config.BackendSQLite:
		s, err := OpenSQLite(cfg.Path)
		if err != nil {
			return nil, transportErr("sqlite", "open", err)
		}
		log.Info("using sqlite store", "path", cfg.Path)
		return s, nil

	case config.BackendPostgres:
		dsn := cfg.Database.DSN()
		if err := RunMigrations(dsn); err != nil {
			return nil, transportErr("postgres", "migrate", err)
		}
		log.Info("migrations applied")
		s, err := NewPostgres(ctx, dsn)
		if err != nil {
			return nil, transportErr("postgres", "open", err)
		}
		log.Info("using postgres store", "host", cfg.Database.Host, "database", cfg.Database.Name)
		return s, nil

	case config.BackendSheets:
		s, err := NewSheets(ctx, cfg.Sheets.CredentialsFile, cfg.Sheets.SpreadsheetID,
			cfg.Sheets.RecordsSheet, cfg.Sheets.SettingsSheet)
		if err != nil {
			return nil, transportErr("sheets", "open", err)
		}
		log.Info("using google sheets store", "spreadsheet", cfg.Sheets.SpreadsheetID)
		return s, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}
