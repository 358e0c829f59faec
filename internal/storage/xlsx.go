package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/meltforce/madcow/internal/models"
)

// XLSX stores the tables as two sheets of one workbook. Other sheets in
// the workbook are left alone on save.
type XLSX struct {
	path          string
	recordsSheet  string
	settingsSheet string
}

var _ Store = (*XLSX)(nil)

// NewXLSX returns a store for the workbook at path.
func NewXLSX(path, recordsSheet, settingsSheet string) *XLSX {
	if recordsSheet == "" {
		recordsSheet = "Lifts"
	}
	if settingsSheet == "" {
		settingsSheet = "Settings"
	}
	return &XLSX{path: path, recordsSheet: recordsSheet, settingsSheet: settingsSheet}
}

func (x *XLSX) Name() string { return "xlsx" }

func (x *XLSX) Load(ctx context.Context) (*models.Sheet, error) {
	if err := ctx.Err(); err != nil {
		return nil, transportErr(x.Name(), "load", err)
	}
	f, err := excelize.OpenFile(x.path)
	if errors.Is(err, fs.ErrNotExist) {
		return &models.Sheet{}, nil
	}
	if err != nil {
		return nil, transportErr(x.Name(), "load", fmt.Errorf("opening %s: %w", x.path, err))
	}
	defer f.Close()

	records, err := sheetRows(f, x.recordsSheet)
	if err != nil {
		return nil, transportErr(x.Name(), "load", err)
	}
	settings, err := sheetRows(f, x.settingsSheet)
	if err != nil {
		return nil, transportErr(x.Name(), "load", err)
	}
	return &models.Sheet{
		Records:  recordsFromGrid(records),
		Settings: settingsFromGrid(settings),
	}, nil
}

func (x *XLSX) Save(ctx context.Context, sheet *models.Sheet) error {
	if err := ctx.Err(); err != nil {
		return transportErr(x.Name(), "save", err)
	}
	f, err := x.openOrCreate()
	if err != nil {
		return transportErr(x.Name(), "save", err)
	}
	defer f.Close()

	if err := replaceSheet(f, x.recordsSheet, recordsToGrid(sheet.Records)); err != nil {
		return transportErr(x.Name(), "save", err)
	}
	if err := replaceSheet(f, x.settingsSheet, settingsToGrid(sheet.Settings)); err != nil {
		return transportErr(x.Name(), "save", err)
	}

	// excelize picks the format from the extension, so the temp file keeps it.
	tmp := filepath.Join(filepath.Dir(x.path), "."+filepath.Base(x.path)+".tmp.xlsx")
	if err := f.SaveAs(tmp); err != nil {
		os.Remove(tmp)
		return transportErr(x.Name(), "save", fmt.Errorf("writing %s: %w", x.path, err))
	}
	if err := os.Rename(tmp, x.path); err != nil {
		os.Remove(tmp)
		return transportErr(x.Name(), "save", fmt.Errorf("replacing %s: %w", x.path, err))
	}
	return nil
}

func (x *XLSX) Close() error { return nil }

func (x *XLSX) openOrCreate() (*excelize.File, error) {
	f, err := excelize.OpenFile(x.path)
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("opening %s: %w", x.path, err)
	}
	if err := os.MkdirAll(filepath.Dir(x.path), 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", filepath.Dir(x.path), err)
	}
	f = excelize.NewFile()
	if err := f.SetSheetName("Sheet1", x.recordsSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("naming sheet %s: %w", x.recordsSheet, err)
	}
	return f, nil
}

// sheetRows returns the sheet's cells, or nothing when the sheet is absent.
func sheetRows(f *excelize.File, name string) ([][]string, error) {
	idx, err := f.GetSheetIndex(name)
	if err != nil {
		return nil, fmt.Errorf("finding sheet %s: %w", name, err)
	}
	if idx < 0 {
		return nil, nil
	}
	rows, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", name, err)
	}
	return rows, nil
}

// replaceSheet clears the sheet, creating it if needed, and writes grid
// from A1.
func replaceSheet(f *excelize.File, name string, grid [][]string) error {
	idx, err := f.GetSheetIndex(name)
	if err != nil {
		return fmt.Errorf("finding sheet %s: %w", name, err)
	}
	if idx < 0 {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("creating sheet %s: %w", name, err)
		}
	} else {
		old, err := f.GetRows(name)
		if err != nil {
			return fmt.Errorf("reading sheet %s: %w", name, err)
		}
		for r := len(old); r >= 1; r-- {
			if err := f.RemoveRow(name, r); err != nil {
				return fmt.Errorf("clearing sheet %s: %w", name, err)
			}
		}
	}

	for i, row := range grid {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		if err := f.SetSheetRow(name, fmt.Sprintf("A%d", i+1), &cells); err != nil {
			return fmt.Errorf("writing sheet %s row %d: %w", name, i+1, err)
		}
	}
	return nil
}
