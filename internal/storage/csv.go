package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/meltforce/madcow/internal/models"
)

// CSV stores the records and the settings as two CSV files. Missing files
// load as empty tables so a first save creates them.
type CSV struct {
	recordsPath  string
	settingsPath string
}

var _ Store = (*CSV)(nil)

// NewCSV returns a store for the records file at path. An empty
// settingsPath places the settings next to it as <name>.settings.csv.
func NewCSV(path, settingsPath string) *CSV {
	if settingsPath == "" {
		ext := filepath.Ext(path)
		settingsPath = strings.TrimSuffix(path, ext) + ".settings" + ext
		if ext == "" {
			settingsPath += ".csv"
		}
	}
	return &CSV{recordsPath: path, settingsPath: settingsPath}
}

func (c *CSV) Name() string { return "csv" }

func (c *CSV) Load(ctx context.Context) (*models.Sheet, error) {
	if err := ctx.Err(); err != nil {
		return nil, transportErr(c.Name(), "load", err)
	}
	records, err := readCSV(c.recordsPath)
	if err != nil {
		return nil, transportErr(c.Name(), "load", err)
	}
	settings, err := readCSV(c.settingsPath)
	if err != nil {
		return nil, transportErr(c.Name(), "load", err)
	}
	return &models.Sheet{
		Records:  recordsFromGrid(records),
		Settings: settingsFromGrid(settings),
	}, nil
}

func (c *CSV) Save(ctx context.Context, sheet *models.Sheet) error {
	if err := ctx.Err(); err != nil {
		return transportErr(c.Name(), "save", err)
	}
	if err := writeCSV(c.recordsPath, recordsToGrid(sheet.Records)); err != nil {
		return transportErr(c.Name(), "save", err)
	}
	if err := writeCSV(c.settingsPath, settingsToGrid(sheet.Settings)); err != nil {
		return transportErr(c.Name(), "save", err)
	}
	return nil
}

func (c *CSV) Close() error { return nil }

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	grid, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return grid, nil
}

// writeCSV replaces path atomically through a temp file in the same directory.
func writeCSV(path string, grid [][]string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.WriteAll(grid); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
