package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/meltforce/madcow/internal/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS lift_records (
	position  INTEGER PRIMARY KEY,
	lifter    TEXT NOT NULL,
	lift      TEXT NOT NULL,
	five_rm   TEXT NOT NULL,
	increment TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS settings (
	position  INTEGER PRIMARY KEY,
	attribute TEXT NOT NULL,
	value     TEXT NOT NULL
);`

// SQLite stores the tables in an embedded database file. Cells are kept as
// text so rows the session could not type survive a round trip.
type SQLite struct {
	db *sql.DB
}

var _ Store = (*SQLite)(nil)

// OpenSQLite opens (or creates) the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// One connection serialises writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Name() string { return "sqlite" }

func (s *SQLite) Load(ctx context.Context) (*models.Sheet, error) {
	sheet, err := loadSQL(ctx, s.db)
	if err != nil {
		return nil, transportErr(s.Name(), "load", err)
	}
	return sheet, nil
}

func (s *SQLite) Save(ctx context.Context, sheet *models.Sheet) error {
	return transportErr(s.Name(), "save", saveSQL(ctx, s.db, sheet))
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func loadSQL(ctx context.Context, db *sql.DB) (*models.Sheet, error) {
	records, err := loadRecordRows(ctx, db)
	if err != nil {
		return nil, err
	}
	settings, err := loadSettingRows(ctx, db)
	if err != nil {
		return nil, err
	}
	return &models.Sheet{Records: records, Settings: settings}, nil
}

func loadRecordRows(ctx context.Context, db *sql.DB) ([]models.RecordRow, error) {
	rows, err := db.QueryContext(ctx, `SELECT lifter, lift, five_rm, increment FROM lift_records ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var out []models.RecordRow
	for rows.Next() {
		var r models.RecordRow
		if err := rows.Scan(&r.Lifter, &r.Lift, &r.Max, &r.Increment); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}
	return out, nil
}

func loadSettingRows(ctx context.Context, db *sql.DB) ([]models.SettingRow, error) {
	rows, err := db.QueryContext(ctx, `SELECT attribute, value FROM settings ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("querying settings: %w", err)
	}
	defer rows.Close()

	var out []models.SettingRow
	for rows.Next() {
		var r models.SettingRow
		if err := rows.Scan(&r.Attribute, &r.Value); err != nil {
			return nil, fmt.Errorf("scanning setting: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	return out, nil
}

func saveSQL(ctx context.Context, db *sql.DB, sheet *models.Sheet) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM lift_records`); err != nil {
		return fmt.Errorf("clearing records: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM settings`); err != nil {
		return fmt.Errorf("clearing settings: %w", err)
	}
	for i, r := range sheet.Records {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO lift_records (position, lifter, lift, five_rm, increment) VALUES (?, ?, ?, ?, ?)`,
			i+1, r.Lifter, r.Lift, r.Max, r.Increment,
		); err != nil {
			return fmt.Errorf("inserting record %d: %w", i+1, err)
		}
	}
	for i, r := range sheet.Settings {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO settings (position, attribute, value) VALUES (?, ?, ?)`,
			i+1, r.Attribute, r.Value,
		); err != nil {
			return fmt.Errorf("inserting setting %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	return nil
}
