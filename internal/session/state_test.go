package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/meltforce/madcow/internal/madcow"
	"github.com/meltforce/madcow/internal/metrics"
	"github.com/meltforce/madcow/internal/models"
	"github.com/meltforce/madcow/internal/storage"
)

var testNow = time.Date(2026, 3, 18, 10, 0, 0, 0, time.UTC)

func testSheet() *models.Sheet {
	return &models.Sheet{
		Records: []models.RecordRow{
			{Lifter: "Dylan", Lift: "Squat", Max: "225", Increment: "2.5"},
			{Lifter: "Dylan", Lift: "Bench", Max: "185", Increment: "2"},
			{Lifter: "Dylan", Lift: "Row", Max: "155", Increment: "two"},
			{Lifter: "Sam", Lift: "Deadlift", Max: "", Increment: "1,5"},
			{Lifter: "Sam", Lift: "Snatch", Max: "95", Increment: "1"},
		},
		Settings: []models.SettingRow{
			{Attribute: "start_date", Value: "2026-03-02"},
			{Attribute: "theme", Value: "dark"},
		},
	}
}

func newTestState(t *testing.T, store storage.Store) (*State, *metrics.Manager) {
	t.Helper()
	m := metrics.NewTestManager()
	s := New(Options{
		Store:   store,
		Log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics: m,
		Base:    models.Settings{RoundingIncrement: 5, BarWeight: 45},
		Now:     func() time.Time { return testNow },
	})
	return s, m
}

func loaded(t *testing.T, store storage.Store) (*State, *metrics.Manager) {
	t.Helper()
	s, m := newTestState(t, store)
	if _, err := s.Reload(context.Background(), false); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	return s, m
}

// TestReloadCoerces verifies coercion defaults, issue reporting and the
// overlay of persisted settings onto the configured ones.
func TestReloadCoerces(t *testing.T) {
	s, m := newTestState(t, storage.NewMemory(testSheet()))
	issues, err := s.Reload(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}
	if len(issues) != 3 {
		t.Errorf("issues = %v, want 3 (increment, max, unknown lift)", issues)
	}
	if got := testutil.ToFloat64(m.CounterLoadIssues); got != 3 {
		t.Errorf("load issue counter = %v, want 3", got)
	}

	row, err := s.Record("dylan", models.Row)
	if err != nil || row.Increment != models.DefaultIncrementPct {
		t.Errorf("row = %+v, %v, want default increment", row, err)
	}
	dl, err := s.Record("Sam", models.Deadlift)
	if err != nil || dl.Max != 0 || dl.Increment != 1.5 {
		t.Errorf("deadlift = %+v, %v, want max 0 and increment 1.5", dl, err)
	}

	if got := s.Settings().StartDate.String(); got != "2026-03-02" {
		t.Errorf("start date = %q, want 2026-03-02", got)
	}
	if got := s.CurrentWeek(); got != 3 {
		t.Errorf("current week = %d, want 3", got)
	}
	if s.Dirty() {
		t.Error("fresh load is dirty")
	}
}

// TestEditsStayInMemory verifies edits mark the copy dirty and reach the
// store only on Save, which keeps untyped rows and unknown settings.
func TestEditsStayInMemory(t *testing.T) {
	store := storage.NewMemory(testSheet())
	s, _ := loaded(t, store)

	if _, err := s.SetRecord("Dylan", models.Squat, 230.04, 2.5); err != nil {
		t.Fatal(err)
	}
	if !s.Dirty() {
		t.Fatal("edit did not mark the copy dirty")
	}
	if store.Saves() != 0 {
		t.Fatal("edit was persisted implicitly")
	}

	if err := s.Save(context.Background()); err != nil {
		t.Fatal(err)
	}
	if s.Dirty() {
		t.Error("still dirty after save")
	}

	sheet, _ := store.Load(context.Background())
	if sheet.Records[0].Max != "230" {
		t.Errorf("saved squat max = %q, want 230", sheet.Records[0].Max)
	}
	var snatch bool
	for _, r := range sheet.Records {
		if r.Lift == "Snatch" {
			snatch = true
		}
	}
	if !snatch {
		t.Error("untyped Snatch row dropped on save")
	}
	if v, ok := sheet.Setting("theme"); !ok || v != "dark" {
		t.Errorf("theme setting = %q, %v, want kept", v, ok)
	}
	if v, _ := sheet.Setting("rounding_increment"); v != "5" {
		t.Errorf("rounding setting = %q, want 5", v)
	}
}

// TestSaveFailure verifies a failed save keeps the copy dirty and unchanged.
func TestSaveFailure(t *testing.T) {
	store := storage.NewMemory(testSheet())
	s, m := loaded(t, store)

	if _, err := s.SetRecord("Dylan", models.Bench, 190, 2); err != nil {
		t.Fatal(err)
	}
	store.SetFailure(errors.New("network down"))

	err := s.Save(context.Background())
	if !errors.Is(err, storage.ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}
	if !s.Dirty() {
		t.Error("failed save cleared the dirty flag")
	}
	if rec, _ := s.Record("Dylan", models.Bench); rec.Max != 190 {
		t.Errorf("bench = %v, want the unsaved 190", rec.Max)
	}
	if got := testutil.ToFloat64(m.CounterSaves.WithLabelValues("error")); got != 1 {
		t.Errorf("failed save counter = %v, want 1", got)
	}

	store.SetFailure(nil)
	if err := s.Save(context.Background()); err != nil {
		t.Fatal(err)
	}
	if s.Dirty() {
		t.Error("dirty after retry")
	}
}

// TestReloadWhileDirty verifies unsaved edits block a plain reload but not a
// forced one, and that a failed reload keeps the copy.
func TestReloadWhileDirty(t *testing.T) {
	store := storage.NewMemory(testSheet())
	s, _ := loaded(t, store)
	if _, err := s.SetRecord("Dylan", models.Squat, 300, 2.5); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Reload(context.Background(), false); !errors.Is(err, ErrDirty) {
		t.Fatalf("err = %v, want ErrDirty", err)
	}

	store.SetFailure(errors.New("timeout"))
	if _, err := s.Reload(context.Background(), true); !errors.Is(err, storage.ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}
	if rec, _ := s.Record("Dylan", models.Squat); rec.Max != 300 {
		t.Errorf("failed reload changed the copy: squat = %v", rec.Max)
	}

	store.SetFailure(nil)
	if _, err := s.Reload(context.Background(), true); err != nil {
		t.Fatal(err)
	}
	if rec, _ := s.Record("Dylan", models.Squat); rec.Max != 225 {
		t.Errorf("forced reload kept the edit: squat = %v", rec.Max)
	}
	if s.Dirty() {
		t.Error("dirty after forced reload")
	}
}

// TestSetRecordValidation verifies rejected edits leave the copy clean.
func TestSetRecordValidation(t *testing.T) {
	s, _ := loaded(t, storage.NewMemory(testSheet()))
	tests := []struct {
		name     string
		lifter   string
		lift     models.Lift
		max, inc float64
	}{
		{"no lifter", " ", models.Squat, 100, 2},
		{"unknown lift", "Dylan", models.Lift("Curl"), 100, 2},
		{"negative max", "Dylan", models.Squat, -5, 2},
		{"collapse", "Dylan", models.Squat, 100, -100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.SetRecord(tt.lifter, tt.lift, tt.max, tt.inc); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
	if s.Dirty() {
		t.Error("rejected edits marked the copy dirty")
	}
}

// TestUpdateSettings verifies patching, week mode switching and validation.
func TestUpdateSettings(t *testing.T) {
	s, _ := loaded(t, storage.NewMemory(testSheet()))

	week := 6
	got, err := s.UpdateSettings(SettingsPatch{Week: &week})
	if err != nil {
		t.Fatal(err)
	}
	if got.Week != 6 || s.CurrentWeek() != 6 || !s.Dirty() {
		t.Errorf("settings = %+v, current week %d, dirty %v", got, s.CurrentWeek(), s.Dirty())
	}

	start := models.DateOf(testNow.AddDate(0, 0, -14))
	got, err = s.UpdateSettings(SettingsPatch{StartDate: &start})
	if err != nil {
		t.Fatal(err)
	}
	if got.Week != 0 || s.CurrentWeek() != 3 {
		t.Errorf("after start date: week field %d, current week %d, want 0 and 3", got.Week, s.CurrentWeek())
	}

	bad := 3.0
	if _, err := s.UpdateSettings(SettingsPatch{RoundingIncrement: &bad}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
	if s.Settings().RoundingIncrement != 5 {
		t.Error("rejected patch changed the settings")
	}
}

// TestPlan verifies plans use the session settings and current week.
func TestPlan(t *testing.T) {
	s, m := loaded(t, storage.NewMemory(testSheet()))
	week := 4
	if _, err := s.UpdateSettings(SettingsPatch{Week: &week}); err != nil {
		t.Fatal(err)
	}

	plan, err := s.Plan("Dylan", 0)
	if err != nil {
		t.Fatal(err)
	}
	if plan.Week != 4 {
		t.Errorf("week = %d, want 4", plan.Week)
	}
	mon, _ := plan.Day(madcow.DayVolume)
	if mon.Cards[0].Top.Weight != 225 {
		t.Errorf("squat top = %v, want 225", mon.Cards[0].Top.Weight)
	}

	if _, err := s.Plan("Dylan", -1); !errors.Is(err, madcow.ErrInvalidWeek) {
		t.Errorf("err = %v, want ErrInvalidWeek", err)
	}
	if _, err := s.Plan("Nobody", 1); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if got := testutil.ToFloat64(m.CounterPlans.WithLabelValues("ok")); got != 1 {
		t.Errorf("plan counter = %v, want 1", got)
	}

	if b := s.Plates(135, 0); b.Bar != 45 || b.PlateText != "1x45" {
		t.Errorf("plates = %+v, want 1x45 on the session bar", b)
	}

	projected, err := s.Projection("Dylan", models.Squat, 5)
	if err != nil || projected.CurrentMax <= 225 || projected.Week != 5 {
		t.Errorf("week 5 squat = %+v, %v", projected, err)
	}
	if current, err := s.Projection("Dylan", models.Squat, 0); err != nil || current.Week != 4 {
		t.Errorf("current squat = %+v, %v, want week 4", current, err)
	}
	if _, err := s.Projection("Dylan", models.Deadlift, 5); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

// TestRecordsNotFound verifies unknown lifters are NOT_FOUND, not empty.
func TestRecordsNotFound(t *testing.T) {
	s, _ := loaded(t, storage.NewMemory(testSheet()))
	if _, err := s.Records("Nobody"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	recs, err := s.Records("")
	if err != nil || len(recs) != 4 {
		t.Errorf("all records = %d, %v, want 4", len(recs), err)
	}
}

// TestConcurrentAccess exercises readers and writers together under -race.
func TestConcurrentAccess(t *testing.T) {
	s, _ := loaded(t, storage.NewMemory(testSheet()))
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				switch i % 4 {
				case 0:
					s.SetRecord("Dylan", models.Squat, float64(200+j), 2.5)
				case 1:
					s.Plan("Dylan", 0)
				case 2:
					s.Save(context.Background())
				default:
					s.Status()
				}
			}
		}(i)
	}
	wg.Wait()
}

// TestPlanCollapsingIncrementFromStore verifies a stored increment of -100
// is replaced at load, so early weeks still build and encode.
func TestPlanCollapsingIncrementFromStore(t *testing.T) {
	s, _ := loaded(t, storage.NewMemory(&models.Sheet{Records: []models.RecordRow{
		{Lifter: "Dylan", Lift: "Squat", Max: "200", Increment: "-100"},
	}}))

	rec, err := s.Record("Dylan", models.Squat)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Increment != models.DefaultIncrementPct {
		t.Errorf("increment = %v, want the default", rec.Increment)
	}

	plan, err := s.Plan("Dylan", 1)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	mon, _ := plan.Day(madcow.DayVolume)
	if mon.Cards[0].Failed() {
		t.Errorf("squat card failed: %v", mon.Cards[0].Err)
	}
	if _, err := json.Marshal(plan); err != nil {
		t.Errorf("plan does not encode: %v", err)
	}
}
