package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/meltforce/madcow/internal/models"
)

func sampleSheet() *models.Sheet {
	return &models.Sheet{
		Records: []models.RecordRow{
			{Lifter: "Dylan", Lift: "Squat", Max: "225", Increment: "2.5"},
			{Lifter: "Dylan", Lift: "Bench", Max: "182.5", Increment: "2"},
			{Lifter: "Sam", Lift: "Overhead Press", Max: "95", Increment: ""},
			{Lifter: "Sam", Lift: "Clean", Max: "135", Increment: "1"},
		},
		Settings: []models.SettingRow{
			{Attribute: "start_date", Value: "2026-03-02"},
			{Attribute: "rounding_increment", Value: "2.5"},
			{Attribute: "theme", Value: "dark"},
		},
	}
}

// roundTrip saves the sample through store and checks that a load returns it
// unchanged, including rows the session would not type.
func roundTrip(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	want := sampleSheet()

	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("%s save: %v", store.Name(), err)
	}
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("%s load: %v", store.Name(), err)
	}
	if !reflect.DeepEqual(got.Records, want.Records) {
		t.Errorf("%s records = %+v, want %+v", store.Name(), got.Records, want.Records)
	}
	if !reflect.DeepEqual(got.Settings, want.Settings) {
		t.Errorf("%s settings = %+v, want %+v", store.Name(), got.Settings, want.Settings)
	}

	// A second, shorter save replaces rather than appends.
	short := &models.Sheet{Records: want.Records[:1]}
	if err := store.Save(ctx, short); err != nil {
		t.Fatalf("%s second save: %v", store.Name(), err)
	}
	got, err = store.Load(ctx)
	if err != nil {
		t.Fatalf("%s second load: %v", store.Name(), err)
	}
	if len(got.Records) != 1 || len(got.Settings) != 0 {
		t.Errorf("%s after shorter save = %d records, %d settings, want 1 and 0", store.Name(), len(got.Records), len(got.Settings))
	}
}

// TestMemoryRoundTrip verifies the in-process store and that it keeps its own copy.
func TestMemoryRoundTrip(t *testing.T) {
	m := NewMemory(nil)
	roundTrip(t, m)

	sheet, _ := m.Load(context.Background())
	sheet.Records[0].Max = "999"
	again, _ := m.Load(context.Background())
	if again.Records[0].Max == "999" {
		t.Error("mutating a loaded sheet changed the store")
	}
	if m.Saves() != 2 {
		t.Errorf("Saves() = %d, want 2", m.Saves())
	}
}

// TestMemoryFailure verifies injected failures surface as transport errors.
func TestMemoryFailure(t *testing.T) {
	m := NewMemory(sampleSheet())
	m.SetFailure(errors.New("offline"))

	_, err := m.Load(context.Background())
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("load err = %v, want ErrTransport", err)
	}
	var te *TransportError
	if !errors.As(err, &te) || te.Backend != "memory" || te.Op != "load" {
		t.Errorf("transport error = %+v", te)
	}
	if err := m.Save(context.Background(), &models.Sheet{}); !errors.Is(err, ErrTransport) {
		t.Errorf("save err = %v, want ErrTransport", err)
	}

	m.SetFailure(nil)
	got, err := m.Load(context.Background())
	if err != nil || len(got.Records) != 4 {
		t.Errorf("after clearing failure = %v, %v", got, err)
	}
}

// TestCSVRoundTrip verifies both CSV files are written and read back.
func TestCSVRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewCSV(filepath.Join(dir, "lifts.csv"), "")
	roundTrip(t, store)

	if _, err := os.Stat(filepath.Join(dir, "lifts.settings.csv")); err != nil {
		t.Errorf("settings file not created next to records: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 2 {
		t.Errorf("dir has %d entries, want 2 with no temp files left", len(entries))
	}
}

// TestCSVMissingFiles verifies a fresh path loads as an empty sheet.
func TestCSVMissingFiles(t *testing.T) {
	store := NewCSV(filepath.Join(t.TempDir(), "none.csv"), "")
	sheet, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(sheet.Records) != 0 || len(sheet.Settings) != 0 {
		t.Errorf("sheet = %+v, want empty", sheet)
	}
}

// TestCSVHeaderOrder verifies columns are matched by header name, in any
// order and case, and that blank lines are skipped.
func TestCSVHeaderOrder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lifts.csv")
	content := "increment,LIFT,User,Max\n2.5,Squat,Dylan,225\n,,,\n1, Deadlift ,Sam,315\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	sheet, err := NewCSV(path, "").Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []models.RecordRow{
		{Lifter: "Dylan", Lift: "Squat", Max: "225", Increment: "2.5"},
		{Lifter: "Sam", Lift: "Deadlift", Max: "315", Increment: "1"},
	}
	if !reflect.DeepEqual(sheet.Records, want) {
		t.Errorf("records = %+v, want %+v", sheet.Records, want)
	}
}

// TestCSVReadError verifies a malformed file is a transport error.
func TestCSVReadError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lifts.csv")
	if err := os.WriteFile(path, []byte("User,Lift\n\"Dylan,Squat\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewCSV(path, "").Load(context.Background()); !errors.Is(err, ErrTransport) {
		t.Errorf("err = %v, want ErrTransport", err)
	}
}

// TestXLSXRoundTrip verifies the workbook store, including a fresh file.
func TestXLSXRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "madcow.xlsx")
	roundTrip(t, NewXLSX(path, "", ""))
}

// TestXLSXMissingFile verifies a missing workbook loads as empty.
func TestXLSXMissingFile(t *testing.T) {
	sheet, err := NewXLSX(filepath.Join(t.TempDir(), "none.xlsx"), "", "").Load(context.Background())
	if err != nil || len(sheet.Records) != 0 {
		t.Errorf("load = %+v, %v, want empty sheet", sheet, err)
	}
}

// TestSQLiteRoundTrip verifies the embedded database store and reopening it.
func TestSQLiteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "madcow.db")
	store, err := OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	roundTrip(t, store)
	if err := store.Save(context.Background(), sampleSheet()); err != nil {
		t.Fatal(err)
	}
	store.Close()

	reopened, err := OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	sheet, err := reopened.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(sheet.Records) != 4 || sheet.Records[3].Lift != "Clean" {
		t.Errorf("reopened records = %+v", sheet.Records)
	}
}

// TestSQLiteCanceledContext verifies a canceled save is a transport error
// and leaves the previous content in place.
func TestSQLiteCanceledContext(t *testing.T) {
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "madcow.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	if err := store.Save(context.Background(), sampleSheet()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := store.Save(ctx, &models.Sheet{}); !errors.Is(err, ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}
	sheet, err := store.Load(context.Background())
	if err != nil || len(sheet.Records) != 4 {
		t.Errorf("after canceled save = %d records, %v", len(sheet.Records), err)
	}
}

// TestGridWithoutHeader verifies a headerless grid is read in default column order.
func TestGridWithoutHeader(t *testing.T) {
	rows := recordsFromGrid([][]string{{"Dylan", "Row", "155", "2"}})
	want := []models.RecordRow{{Lifter: "Dylan", Lift: "Row", Max: "155", Increment: "2"}}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("rows = %+v, want %+v", rows, want)
	}

	settings := settingsFromGrid([][]string{{"Value", "Attribute"}, {"45", "bar_weight"}})
	if len(settings) != 1 || settings[0].Attribute != "bar_weight" || settings[0].Value != "45" {
		t.Errorf("settings = %+v", settings)
	}
}
