// Package importer copies lift records and settings from one record store
// into another, merging by (lifter, lift).
package importer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/meltforce/madcow/internal/models"
	"github.com/meltforce/madcow/internal/storage"
)

// Stats tracks import progress.
type Stats struct {
	RecordsRead      int
	RecordsInserted  int
	RecordsUpdated   int
	RecordsUnchanged int

	SettingsInserted int
	PassthroughKept  int

	Issues []models.Issue
}

// Importer merges a source store into a destination store.
type Importer struct {
	dst              storage.Store
	log              *slog.Logger
	dryRun           bool
	defaultIncrement float64
	stats            Stats
}

// New creates a new Importer. Source increments that do not parse fall
// back to defaultIncrement.
func New(dst storage.Store, log *slog.Logger, defaultIncrement float64, dryRun bool) *Importer {
	return &Importer{dst: dst, log: log, defaultIncrement: defaultIncrement, dryRun: dryRun}
}

// Import reads src and merges it into the destination. Source records
// replace destination records for the same lifter and lift. Settings
// attributes already present in the destination are left alone. Untyped
// source rows are appended unless the destination already holds an equal
// row. Nothing is written in dry-run mode.
func (imp *Importer) Import(ctx context.Context, src storage.Store) (*Stats, error) {
	in, err := src.Load(ctx)
	if err != nil {
		return &imp.stats, fmt.Errorf("loading %s: %w", src.Name(), err)
	}
	cur, err := imp.dst.Load(ctx)
	if err != nil {
		return &imp.stats, fmt.Errorf("loading %s: %w", imp.dst.Name(), err)
	}

	srcTable, issues := models.DecodeTable(in.Records, imp.defaultIncrement)
	imp.stats.Issues = issues
	dstTable, _ := models.DecodeTable(cur.Records, imp.defaultIncrement)

	for _, r := range srcTable.All() {
		imp.stats.RecordsRead++
		existing, err := dstTable.Record(r.Lifter, r.Lift)
		switch {
		case err != nil:
			imp.stats.RecordsInserted++
			imp.log.Info("insert record", "lifter", r.Lifter, "lift", r.Lift, "max", r.Max)
		case existing.Max == r.Max && existing.Increment == r.Increment:
			imp.stats.RecordsUnchanged++
			continue
		default:
			imp.stats.RecordsUpdated++
			imp.log.Info("update record", "lifter", r.Lifter, "lift", r.Lift,
				"old_max", existing.Max, "max", r.Max)
		}
		dstTable.Put(r)
	}

	out := &models.Sheet{
		Records:  dstTable.Rows(),
		Settings: append([]models.SettingRow(nil), cur.Settings...),
	}

	for _, row := range srcTable.Passthrough() {
		if containsRow(out.Records, row) {
			continue
		}
		out.Records = append(out.Records, row)
		imp.stats.PassthroughKept++
	}

	for _, s := range in.Settings {
		if _, ok := out.Setting(s.Attribute); ok {
			continue
		}
		out.Settings = append(out.Settings, s)
		imp.stats.SettingsInserted++
	}

	if imp.dryRun {
		imp.log.Info("dry run, destination not written", "store", imp.dst.Name())
		return &imp.stats, nil
	}
	if err := imp.dst.Save(ctx, out); err != nil {
		return &imp.stats, fmt.Errorf("saving %s: %w", imp.dst.Name(), err)
	}
	return &imp.stats, nil
}

func containsRow(rows []models.RecordRow, row models.RecordRow) bool {
	for _, r := range rows {
		if r == row {
			return true
		}
	}
	return false
}
