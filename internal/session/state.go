// Package session holds the editable working copy of the record and
// settings tables between explicit loads and saves.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/meltforce/madcow/internal/madcow"
	"github.com/meltforce/madcow/internal/metrics"
	"github.com/meltforce/madcow/internal/models"
	"github.com/meltforce/madcow/internal/storage"
)

var (
	// ErrDirty is returned by a reload that would discard unsaved edits.
	ErrDirty = errors.New("working copy has unsaved changes")
	// ErrInvalidInput is returned for edits that cannot be applied.
	ErrInvalidInput = errors.New("invalid input")
)

// Options configures a State. Store and Log are required.
type Options struct {
	Store            storage.Store
	Log              *slog.Logger
	Metrics          *metrics.Manager
	Base             models.Settings
	DefaultIncrement float64
	Plates           madcow.PlateSet
	Program          madcow.Program
	Now              func() time.Time
}

// State is the working copy. Edits stay in memory until Save; the store is
// only touched by Reload and Save. Safe for concurrent use.
type State struct {
	store            storage.Store
	log              *slog.Logger
	metrics          *metrics.Manager
	base             models.Settings
	defaultIncrement float64
	plates           madcow.PlateSet
	program          madcow.Program
	now              func() time.Time

	mu          sync.RWMutex
	table       *models.Table
	settings    models.Settings
	settingRows []models.SettingRow
	issues      []models.Issue
	dirty       bool
	version     uint64
	loadedAt    time.Time
	savedAt     time.Time
}

// New returns an empty working copy with the base settings. Call Reload to
// fill it from the store.
func New(opts Options) *State {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewManager("madcow", "session", prometheus.NewRegistry())
	}
	if len(opts.Plates) == 0 {
		opts.Plates = madcow.StandardPlates
	}
	if len(opts.Program.PrimaryLifts) == 0 {
		opts.Program = madcow.DefaultProgram()
	}
	if opts.DefaultIncrement == 0 {
		opts.DefaultIncrement = models.DefaultIncrementPct
	}
	settings := opts.Base
	if settings.StartDate.IsZero() {
		settings.StartDate = models.DateOf(opts.Now())
	}
	return &State{
		store:            opts.Store,
		log:              opts.Log,
		metrics:          opts.Metrics,
		base:             opts.Base,
		defaultIncrement: opts.DefaultIncrement,
		plates:           opts.Plates,
		program:          opts.Program,
		now:              opts.Now,
		table:            models.NewTable(),
		settings:         settings,
	}
}

// Reload replaces the working copy with the store's content. With unsaved
// edits it fails with ErrDirty unless force is set. On a store failure the
// working copy is left as it was.
func (s *State) Reload(ctx context.Context, force bool) ([]models.Issue, error) {
	if !force && s.Dirty() {
		return nil, ErrDirty
	}

	start := time.Now()
	sheet, err := s.store.Load(ctx)
	s.metrics.HistStoreDuration.WithLabelValues("load").Observe(time.Since(start).Seconds())
	s.metrics.CounterLoads.WithLabelValues(metrics.StatusLabel(err)).Inc()
	if err != nil {
		s.log.Error("loading records", "store", s.store.Name(), "error", err)
		return nil, fmt.Errorf("loading records: %w", err)
	}

	table, issues := models.DecodeTable(sheet.Records, s.defaultIncrement)
	settings, settingIssues := models.ApplySettingRows(s.base, sheet.Settings, s.now())
	issues = append(issues, settingIssues...)
	if err := settings.Validate(); err != nil {
		s.log.Warn("stored settings invalid, using configured defaults", "error", err)
		settings = s.base
		if settings.StartDate.IsZero() {
			settings.StartDate = models.DateOf(s.now())
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !force && s.dirty {
		// Edited while the load was in flight.
		return nil, ErrDirty
	}
	s.table = table
	s.settings = settings
	s.settingRows = sheet.Settings
	s.issues = issues
	s.dirty = false
	s.version++
	s.loadedAt = s.now()

	s.metrics.CounterLoadIssues.Add(float64(len(issues)))
	s.metrics.GaugeDirty.Set(0)
	s.metrics.GaugeLifters.Set(float64(len(table.Lifters())))
	for _, is := range issues {
		s.log.Warn("record table issue", "row", is.Row, "field", is.Field, "value", is.Value, "reason", is.Reason)
	}
	s.log.Info("records loaded", "store", s.store.Name(), "records", table.Len(), "issues", len(issues))
	return issues, nil
}

// Save writes the working copy to the store. On failure the working copy
// stays dirty and nothing in memory changes.
func (s *State) Save(ctx context.Context) error {
	s.mu.RLock()
	sheet := &models.Sheet{
		Records:  s.table.Rows(),
		Settings: models.MergeSettingRows(s.settingRows, s.settings),
	}
	version := s.version
	s.mu.RUnlock()

	start := time.Now()
	err := s.store.Save(ctx, sheet)
	s.metrics.HistStoreDuration.WithLabelValues("save").Observe(time.Since(start).Seconds())
	s.metrics.CounterSaves.WithLabelValues(metrics.StatusLabel(err)).Inc()
	if err != nil {
		s.log.Error("saving records", "store", s.store.Name(), "error", err)
		return fmt.Errorf("saving records: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.settingRows = sheet.Settings
	s.savedAt = s.now()
	// Edits made during the save are not covered by it.
	if s.version == version {
		s.dirty = false
		s.metrics.GaugeDirty.Set(0)
	}
	s.log.Info("records saved", "store", s.store.Name(), "rows", len(sheet.Records))
	return nil
}

// Dirty reports whether there are unsaved edits.
func (s *State) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

func (s *State) markDirty() {
	s.dirty = true
	s.version++
	s.metrics.GaugeDirty.Set(1)
}

// Table returns a copy of the record table.
func (s *State) Table() *models.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.Clone()
}

// Lifters returns the lifter names in table order.
func (s *State) Lifters() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.Lifters()
}

// Records returns one lifter's records, or all records for an empty name.
// An unknown lifter matches models.ErrNotFound.
func (s *State) Records(lifter string) ([]models.LiftRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if strings.TrimSpace(lifter) == "" {
		return s.table.All(), nil
	}
	if !s.table.HasLifter(lifter) {
		return nil, &models.NotFoundError{Lifter: lifter}
	}
	return s.table.Records(lifter), nil
}

// Record returns one (lifter, lift) record.
func (s *State) Record(lifter string, lift models.Lift) (models.LiftRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.Record(lifter, lift)
}

// SetRecord inserts or replaces a record in the working copy. Values are
// rounded to one decimal like loaded cells.
func (s *State) SetRecord(lifter string, lift models.Lift, fiveRM, increment float64) (models.LiftRecord, error) {
	lifter = strings.TrimSpace(lifter)
	if lifter == "" {
		return models.LiftRecord{}, fmt.Errorf("%w: lifter is required", ErrInvalidInput)
	}
	lift, err := models.ParseLift(string(lift))
	if err != nil {
		return models.LiftRecord{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !finite(fiveRM) || fiveRM < 0 {
		return models.LiftRecord{}, fmt.Errorf("%w: max must be a non-negative number", ErrInvalidInput)
	}
	if !models.ValidIncrement(increment) {
		return models.LiftRecord{}, fmt.Errorf("%w: increment must be above -100%%", ErrInvalidInput)
	}

	rec := models.LiftRecord{
		Lifter:    lifter,
		Lift:      lift,
		Max:       models.RoundTenth(fiveRM),
		Increment: models.RoundTenth(increment),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.table.Put(rec)
	s.markDirty()
	s.metrics.GaugeLifters.Set(float64(len(s.table.Lifters())))
	return rec, nil
}

// Settings returns the session settings.
func (s *State) Settings() models.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// SettingsPatch changes the given fields only. Setting a start date without
// a week switches to date-derived weeks; a week of 0 does the same.
type SettingsPatch struct {
	RoundingIncrement *float64     `json:"rounding_increment,omitempty"`
	BarWeight         *float64     `json:"bar_weight,omitempty"`
	Week              *int         `json:"week,omitempty"`
	StartDate         *models.Date `json:"start_date,omitempty"`
}

// UpdateSettings applies patch to the working copy.
func (s *State) UpdateSettings(patch SettingsPatch) (models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.settings
	if patch.RoundingIncrement != nil {
		next.RoundingIncrement = *patch.RoundingIncrement
	}
	if patch.BarWeight != nil {
		next.BarWeight = *patch.BarWeight
	}
	if patch.StartDate != nil {
		next.StartDate = *patch.StartDate
		if next.StartDate.IsZero() {
			next.StartDate = models.DateOf(s.now())
		}
		next.Week = 0
	}
	if patch.Week != nil {
		next.Week = *patch.Week
	}
	if err := next.Validate(); err != nil {
		return s.settings, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if next != s.settings {
		s.settings = next
		s.markDirty()
	}
	return next, nil
}

// CurrentWeek is the explicit week or the one derived from the start date.
func (s *State) CurrentWeek() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.CurrentWeek(s.now())
}

// Builder returns a plan builder for the current settings.
func (s *State) Builder() *madcow.Builder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return madcow.NewBuilder(s.settings, s.plates, s.program)
}

// Plan builds the lifter's week. A week of 0 uses the current week. A lifter
// without any records matches models.ErrNotFound.
func (s *State) Plan(lifter string, week int) (*madcow.WeekPlan, error) {
	s.mu.RLock()
	settings := s.settings
	table := s.table.Clone()
	s.mu.RUnlock()

	if !table.HasLifter(lifter) {
		s.metrics.CounterPlans.WithLabelValues("error").Inc()
		return nil, &models.NotFoundError{Lifter: lifter}
	}
	if week == 0 {
		week = settings.CurrentWeek(s.now())
	}
	plan, err := madcow.NewBuilder(settings, s.plates, s.program).Build(table, lifter, week)
	if err != nil {
		s.metrics.CounterPlans.WithLabelValues("error").Inc()
		return nil, err
	}
	s.metrics.CounterPlans.WithLabelValues("ok").Inc()
	return plan, nil
}

// Projection is the lifter's projected max for week, 0 meaning the current week.
func (s *State) Projection(lifter string, lift models.Lift, week int) (madcow.Projection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if week == 0 {
		week = s.settings.CurrentWeek(s.now())
	}
	return madcow.Project(s.table, lifter, lift, week)
}

// Plates breaks a barbell weight into plates per side. A bar of 0 uses the
// session bar weight.
func (s *State) Plates(weight, bar float64) madcow.PlateBreakdown {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if bar <= 0 {
		bar = s.settings.BarWeight
	}
	return s.plates.Breakdown(weight, bar)
}

// Status summarises the working copy.
type Status struct {
	Backend  string          `json:"backend"`
	Dirty    bool            `json:"dirty"`
	Lifters  int             `json:"lifters"`
	Records  int             `json:"records"`
	Week     int             `json:"week"`
	Settings models.Settings `json:"settings"`
	Issues   []models.Issue  `json:"issues,omitempty"`
	LoadedAt *time.Time      `json:"loaded_at,omitempty"`
	SavedAt  *time.Time      `json:"saved_at,omitempty"`
}

func (s *State) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Status{
		Backend:  s.store.Name(),
		Dirty:    s.dirty,
		Lifters:  len(s.table.Lifters()),
		Records:  s.table.Len(),
		Week:     s.settings.CurrentWeek(s.now()),
		Settings: s.settings,
		Issues:   append([]models.Issue(nil), s.issues...),
	}
	if !s.loadedAt.IsZero() {
		t := s.loadedAt
		st.LoadedAt = &t
	}
	if !s.savedAt.IsZero() {
		t := s.savedAt
		st.SavedAt = &t
	}
	return st
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
