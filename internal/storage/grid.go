package storage

import (
	"strings"

	"github.com/meltforce/madcow/internal/models"
)

// A grid is a table as rows of text cells with a header row first. CSV
// files, workbook sheets and Google Sheets ranges all reduce to one.

var (
	recordColumns = [][]string{
		{"user", "lifter", "name"},
		{"lift", "exercise"},
		{"max", "5rm", "five rep max"},
		{"increment", "inc", "increment %", "weekly increment"},
	}
	settingColumns = [][]string{
		{"attribute", "setting", "key"},
		{"value"},
	}
)

// columnIndex maps each wanted column to its position in header, matching
// names case-insensitively in any order. Columns absent from the header map
// to -1. When no header cell is recognised at all, ok is false and the
// caller should treat the first row as data in the default column order.
func columnIndex(header []string, columns [][]string) (idx []int, ok bool) {
	idx = make([]int, len(columns))
	for i := range idx {
		idx[i] = -1
	}
	for pos, cell := range header {
		name := strings.ToLower(strings.TrimSpace(cell))
		for c, aliases := range columns {
			if idx[c] >= 0 {
				continue
			}
			for _, a := range aliases {
				if name == a {
					idx[c] = pos
					ok = true
				}
			}
		}
	}
	if !ok {
		for i := range idx {
			idx[i] = i
		}
	}
	return idx, ok
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// dataRows splits off the header and returns the column mapping.
func dataRows(grid [][]string, columns [][]string) ([][]string, []int) {
	if len(grid) == 0 {
		return nil, nil
	}
	idx, hasHeader := columnIndex(grid[0], columns)
	if hasHeader {
		return grid[1:], idx
	}
	return grid, idx
}

func recordsFromGrid(grid [][]string) []models.RecordRow {
	rows, idx := dataRows(grid, recordColumns)
	var out []models.RecordRow
	for _, r := range rows {
		if blank(r) {
			continue
		}
		out = append(out, models.RecordRow{
			Lifter:    cell(r, idx[0]),
			Lift:      cell(r, idx[1]),
			Max:       cell(r, idx[2]),
			Increment: cell(r, idx[3]),
		})
	}
	return out
}

func recordsToGrid(rows []models.RecordRow) [][]string {
	grid := make([][]string, 0, len(rows)+1)
	grid = append(grid, append([]string(nil), models.RecordHeader...))
	for _, r := range rows {
		grid = append(grid, []string{r.Lifter, r.Lift, r.Max, r.Increment})
	}
	return grid
}

func settingsFromGrid(grid [][]string) []models.SettingRow {
	rows, idx := dataRows(grid, settingColumns)
	var out []models.SettingRow
	for _, r := range rows {
		if blank(r) {
			continue
		}
		out = append(out, models.SettingRow{
			Attribute: cell(r, idx[0]),
			Value:     cell(r, idx[1]),
		})
	}
	return out
}

func settingsToGrid(rows []models.SettingRow) [][]string {
	grid := make([][]string, 0, len(rows)+1)
	grid = append(grid, append([]string(nil), models.SettingHeader...))
	for _, r := range rows {
		grid = append(grid, []string{r.Attribute, r.Value})
	}
	return grid
}
