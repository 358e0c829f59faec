package importer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/meltforce/madcow/internal/models"
	"github.com/meltforce/madcow/internal/storage"
)

func discardLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sourceSheet() *models.Sheet {
	return &models.Sheet{
		Records: []models.RecordRow{
			{Lifter: "Dylan", Lift: "Squat", Max: "235", Increment: "2.5"},
			{Lifter: "Dylan", Lift: "Bench", Max: "185", Increment: "2.5"},
			{Lifter: "Sam", Lift: "Deadlift", Max: "315", Increment: "abc"},
			{Lifter: "Sam", Lift: "Curl", Max: "60", Increment: "1"},
		},
		Settings: []models.SettingRow{
			{Attribute: "week", Value: "7"},
			{Attribute: "bar_weight", Value: "35"},
		},
	}
}

func destSheet() *models.Sheet {
	return &models.Sheet{
		Records: []models.RecordRow{
			{Lifter: "dylan", Lift: "Squat", Max: "225", Increment: "2.5"},
			{Lifter: "Dylan", Lift: "Bench", Max: "185", Increment: "2.5"},
		},
		Settings: []models.SettingRow{{Attribute: "week", Value: "3"}},
	}
}

// TestImportMerges verifies that source records replace or extend the
// destination, and that destination settings win over source settings.
func TestImportMerges(t *testing.T) {
	ctx := context.Background()
	dst := storage.NewMemory(destSheet())

	stats, err := New(dst, discardLog(), 2.5, false).Import(ctx, storage.NewMemory(sourceSheet()))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	if stats.RecordsRead != 3 {
		t.Errorf("RecordsRead = %d, want 3", stats.RecordsRead)
	}
	if stats.RecordsInserted != 1 || stats.RecordsUpdated != 1 || stats.RecordsUnchanged != 1 {
		t.Errorf("inserted/updated/unchanged = %d/%d/%d, want 1/1/1",
			stats.RecordsInserted, stats.RecordsUpdated, stats.RecordsUnchanged)
	}
	if stats.PassthroughKept != 1 {
		t.Errorf("PassthroughKept = %d, want 1", stats.PassthroughKept)
	}
	if stats.SettingsInserted != 1 {
		t.Errorf("SettingsInserted = %d, want 1", stats.SettingsInserted)
	}
	if len(stats.Issues) != 2 {
		t.Errorf("got %d issues, want 2: %v", len(stats.Issues), stats.Issues)
	}

	out, _ := dst.Load(ctx)
	table, _ := models.DecodeTable(out.Records, 2.5)
	sq, err := table.Record("Dylan", models.Squat)
	if err != nil || sq.Max != 235 {
		t.Errorf("squat = %+v, %v; want max 235", sq, err)
	}
	dl, err := table.Record("sam", models.Deadlift)
	if err != nil || dl.Max != 315 || dl.Increment != 2.5 {
		t.Errorf("deadlift = %+v, %v; want 315 at 2.5", dl, err)
	}
	if v, _ := out.Setting("week"); v != "3" {
		t.Errorf("week setting = %q, want destination value 3", v)
	}
	if v, _ := out.Setting("bar_weight"); v != "35" {
		t.Errorf("bar_weight setting = %q, want 35", v)
	}
	if dst.Saves() != 1 {
		t.Errorf("saves = %d, want 1", dst.Saves())
	}
}

// TestImportSettingKeysNormalized verifies a source attribute differing only
// in case or spacing does not override the destination's setting.
func TestImportSettingKeysNormalized(t *testing.T) {
	ctx := context.Background()
	dst := storage.NewMemory(&models.Sheet{
		Settings: []models.SettingRow{{Attribute: "start_date", Value: "2026-01-05"}},
	})
	src := storage.NewMemory(&models.Sheet{
		Settings: []models.SettingRow{
			{Attribute: " Start_Date ", Value: "2025-06-02"},
			{Attribute: "WEEK", Value: "5"},
		},
	})

	stats, err := New(dst, discardLog(), 2.5, false).Import(ctx, src)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if stats.SettingsInserted != 1 {
		t.Errorf("SettingsInserted = %d, want 1 (week only)", stats.SettingsInserted)
	}

	out, _ := dst.Load(ctx)
	if len(out.Settings) != 2 {
		t.Fatalf("settings = %v, want start_date and week", out.Settings)
	}
	applied, _ := models.ApplySettingRows(models.DefaultSettings(time.Now()), out.Settings, time.Now())
	if got := applied.StartDate.String(); got != "2026-01-05" {
		t.Errorf("start date = %s, want the destination's 2026-01-05", got)
	}
	if applied.Week != 5 {
		t.Errorf("week = %d, want 5", applied.Week)
	}
}

// TestImportIdempotent verifies that importing the same source twice adds
// nothing the second time.
func TestImportIdempotent(t *testing.T) {
	ctx := context.Background()
	dst := storage.NewMemory(nil)

	if _, err := New(dst, discardLog(), 2.5, false).Import(ctx, storage.NewMemory(sourceSheet())); err != nil {
		t.Fatalf("first Import: %v", err)
	}
	stats, err := New(dst, discardLog(), 2.5, false).Import(ctx, storage.NewMemory(sourceSheet()))
	if err != nil {
		t.Fatalf("second Import: %v", err)
	}
	if stats.RecordsInserted != 0 || stats.RecordsUpdated != 0 || stats.RecordsUnchanged != 3 {
		t.Errorf("second run inserted/updated/unchanged = %d/%d/%d, want 0/0/3",
			stats.RecordsInserted, stats.RecordsUpdated, stats.RecordsUnchanged)
	}
	if stats.PassthroughKept != 0 || stats.SettingsInserted != 0 {
		t.Errorf("second run kept %d passthrough and %d settings, want none",
			stats.PassthroughKept, stats.SettingsInserted)
	}
}

// TestImportDryRun verifies that a dry run counts changes without writing.
func TestImportDryRun(t *testing.T) {
	ctx := context.Background()
	dst := storage.NewMemory(destSheet())

	stats, err := New(dst, discardLog(), 2.5, true).Import(ctx, storage.NewMemory(sourceSheet()))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if stats.RecordsInserted != 1 {
		t.Errorf("RecordsInserted = %d, want 1", stats.RecordsInserted)
	}
	if dst.Saves() != 0 {
		t.Errorf("dry run saved %d times", dst.Saves())
	}
}

// TestImportTransportError verifies that store failures surface as
// transport errors.
func TestImportTransportError(t *testing.T) {
	ctx := context.Background()
	src := storage.NewMemory(sourceSheet())
	src.SetFailure(errors.New("offline"))

	_, err := New(storage.NewMemory(nil), discardLog(), 2.5, false).Import(ctx, src)
	if !errors.Is(err, storage.ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}

	dst := storage.NewMemory(nil)
	dst.SetFailure(errors.New("read only"))
	_, err = New(dst, discardLog(), 2.5, false).Import(ctx, storage.NewMemory(sourceSheet()))
	if !errors.Is(err, storage.ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}
}
