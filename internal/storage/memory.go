package storage

import (
	"context"
	"sync"

	"github.com/meltforce/madcow/internal/models"
)

// Memory keeps the sheet in process. It serves tests and dry runs.
type Memory struct {
	mu      sync.Mutex
	sheet   *models.Sheet
	failure error
	saves   int
}

var _ Store = (*Memory)(nil)

// NewMemory returns a store holding a copy of sheet, which may be nil.
func NewMemory(sheet *models.Sheet) *Memory {
	return &Memory{sheet: sheet.Clone()}
}

func (m *Memory) Name() string { return "memory" }

func (m *Memory) Load(ctx context.Context) (*models.Sheet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, "load"); err != nil {
		return nil, err
	}
	return m.sheet.Clone(), nil
}

func (m *Memory) Save(ctx context.Context, sheet *models.Sheet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, "save"); err != nil {
		return err
	}
	m.sheet = sheet.Clone()
	m.saves++
	return nil
}

func (m *Memory) Close() error { return nil }

// SetFailure makes every following Load and Save fail with err until it is
// cleared with nil.
func (m *Memory) SetFailure(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failure = err
}

// Saves returns how many saves have succeeded.
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (m *Memory) check(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return transportErr(m.Name(), op, err)
	}
	return transportErr(m.Name(), op, m.failure)
}
