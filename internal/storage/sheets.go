package storage

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/meltforce/madcow/internal/models"
)

// Sheets stores the tables in two tabs of a Google spreadsheet, which must
// already exist. Cells are written RAW so numbers keep their text form, and
// read unformatted so display formats such as digit grouping never reach
// the decoder.
type Sheets struct {
	srv           *sheets.Service
	spreadsheetID string
	recordsSheet  string
	settingsSheet string
}

var _ Store = (*Sheets)(nil)

// NewSheets authenticates with a service account key file.
func NewSheets(ctx context.Context, credentialsFile, spreadsheetID, recordsSheet, settingsSheet string) (*Sheets, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("reading credentials: %w", err)
	}
	conf, err := google.JWTConfigFromJSON(data, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parsing credentials: %w", err)
	}
	srv, err := sheets.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}
	return NewSheetsWithService(srv, spreadsheetID, recordsSheet, settingsSheet), nil
}

// NewSheetsWithService uses an already configured service.
func NewSheetsWithService(srv *sheets.Service, spreadsheetID, recordsSheet, settingsSheet string) *Sheets {
	if recordsSheet == "" {
		recordsSheet = "Lifts"
	}
	if settingsSheet == "" {
		settingsSheet = "Settings"
	}
	return &Sheets{
		srv:           srv,
		spreadsheetID: spreadsheetID,
		recordsSheet:  recordsSheet,
		settingsSheet: settingsSheet,
	}
}

func (s *Sheets) Name() string { return "sheets" }

func (s *Sheets) recordsRange() string  { return a1Range(s.recordsSheet, "A:D") }
func (s *Sheets) settingsRange() string { return a1Range(s.settingsSheet, "A:B") }

func (s *Sheets) Load(ctx context.Context) (*models.Sheet, error) {
	resp, err := s.srv.Spreadsheets.Values.BatchGet(s.spreadsheetID).
		Ranges(s.recordsRange(), s.settingsRange()).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).
		Do()
	if err != nil {
		return nil, transportErr(s.Name(), "load", fmt.Errorf("reading spreadsheet: %w", err))
	}
	if len(resp.ValueRanges) != 2 {
		return nil, transportErr(s.Name(), "load", fmt.Errorf("expected 2 ranges, got %d", len(resp.ValueRanges)))
	}
	return &models.Sheet{
		Records:  recordsFromGrid(gridFromValues(resp.ValueRanges[0].Values)),
		Settings: settingsFromGrid(gridFromValues(resp.ValueRanges[1].Values)),
	}, nil
}

// Save writes both tabs from A1, then clears the rows below what was written.
// A failed write leaves the previous content in place.
func (s *Sheets) Save(ctx context.Context, sheet *models.Sheet) error {
	records := recordsToGrid(sheet.Records)
	settings := settingsToGrid(sheet.Settings)

	_, err := s.srv.Spreadsheets.Values.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data: []*sheets.ValueRange{
			{Range: a1Range(s.recordsSheet, "A1"), Values: valuesFromGrid(records)},
			{Range: a1Range(s.settingsSheet, "A1"), Values: valuesFromGrid(settings)},
		},
	}).Context(ctx).Do()
	if err != nil {
		return transportErr(s.Name(), "save", fmt.Errorf("writing spreadsheet: %w", err))
	}

	_, err = s.srv.Spreadsheets.Values.BatchClear(s.spreadsheetID, &sheets.BatchClearValuesRequest{
		Ranges: []string{
			a1Range(s.recordsSheet, fmt.Sprintf("A%d:D", len(records)+1)),
			a1Range(s.settingsSheet, fmt.Sprintf("A%d:B", len(settings)+1)),
		},
	}).Context(ctx).Do()
	if err != nil {
		return transportErr(s.Name(), "save", fmt.Errorf("clearing trailing rows: %w", err))
	}
	return nil
}

func (s *Sheets) Close() error { return nil }

// a1Range quotes the sheet name when it is not a bare identifier.
func a1Range(sheet, cells string) string {
	if strings.ContainsAny(sheet, " '!:") {
		sheet = "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
	}
	return sheet + "!" + cells
}

func gridFromValues(values [][]interface{}) [][]string {
	grid := make([][]string, len(values))
	for i, row := range values {
		grid[i] = make([]string, len(row))
		for j, v := range row {
			switch v := v.(type) {
			case nil:
			case float64:
				grid[i][j] = strconv.FormatFloat(v, 'f', -1, 64)
			default:
				grid[i][j] = fmt.Sprint(v)
			}
		}
	}
	return grid
}

func valuesFromGrid(grid [][]string) [][]interface{} {
	values := make([][]interface{}, len(grid))
	for i, row := range grid {
		values[i] = make([]interface{}, len(row))
		for j, v := range row {
			values[i][j] = v
		}
	}
	return values
}
