// Package history keeps past comparisons behind a Repository so handlers
// never touch process-wide state.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("history record not found")

// Record is one saved comparison.
type Record struct {
	ID          uuid.UUID       `json:"id"`
	Label       string          `json:"label"`
	Destination string          `json:"destination"`
	Mode        string          `json:"mode"`
	WeightKg    float64         `json:"weight"`
	Comparison  json.RawMessage `json:"comparison"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Repository persists comparison records.
type Repository interface {
	Create(ctx context.Context, rec Record) (Record, error)
	List(ctx context.Context, limit int) ([]Record, error)
	Get(ctx context.Context, id uuid.UUID) (Record, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// prepare fills ID, timestamp and an empty comparison when missing.
func prepare(rec Record, now time.Time) Record {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now.UTC()
	}
	if len(rec.Comparison) == 0 {
		rec.Comparison = json.RawMessage("{}")
	}
	return rec
}

// MemoryRepository keeps records in process. Each instance owns its own data.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]Record
	now     func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[uuid.UUID]Record), now: time.Now}
}

func (m *MemoryRepository) Create(_ context.Context, rec Record) (Record, error) {
	rec = prepare(rec, m.now())
	m.mu.Lock()
	m.records[rec.ID] = rec
	m.mu.Unlock()
	return rec, nil
}

// List returns records newest first. limit <= 0 returns everything.
func (m *MemoryRepository) List(_ context.Context, limit int) ([]Record, error) {
	m.mu.RLock()
	out := make([]Record, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, rec)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryRepository) Get(_ context.Context, id uuid.UUID) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (m *MemoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return ErrNotFound
	}
	delete(m.records, id)
	return nil
}
