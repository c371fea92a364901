package persistence

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory ScoreRepo for tests and offline runs.
type MemoryRepo struct {
	mu      sync.RWMutex
	records []ScoreRecord
}

// NewMemoryRepo creates an empty in-memory repository.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

// Insert stores a record.
func (m *MemoryRepo) Insert(_ context.Context, rec ScoreRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	m.records = append(m.records, rec)
	return nil
}

// Latest returns the most recent record for a symbol, or nil.
func (m *MemoryRepo) Latest(_ context.Context, symbol string) (*ScoreRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest *ScoreRecord
	for i := range m.records {
		rec := m.records[i]
		if rec.Symbol != symbol {
			continue
		}
		if latest == nil || rec.Timestamp.After(latest.Timestamp) {
			latest = &rec
		}
	}
	return latest, nil
}

// History returns records within [from, to), newest first.
func (m *MemoryRepo) History(_ context.Context, symbol string, from, to time.Time, limit int) ([]ScoreRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}

	var out []ScoreRecord
	for _, rec := range m.records {
		if rec.Symbol != symbol {
			continue
		}
		if rec.Timestamp.Before(from) || !rec.Timestamp.Before(to) {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
