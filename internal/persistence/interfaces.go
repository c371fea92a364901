// Package persistence defines storage contracts for the monitoring pipeline.
// The scoring engine itself never persists anything; the dispatcher stores
// each ScoringResult as a metrics-history row through these interfaces.
package persistence

import (
	"context"
	"time"
)

// ScoreRecord is one stored scoring run for one asset.
type ScoreRecord struct {
	ID                string    `json:"id" db:"id"`
	Timestamp         time.Time `json:"ts" db:"ts"`
	Symbol            string    `json:"symbol" db:"symbol"`
	Qualified         bool      `json:"qualified" db:"qualified"`
	Status            string    `json:"status" db:"status"`
	Score             *float64  `json:"score,omitempty" db:"score"`
	Grade             *string   `json:"grade,omitempty" db:"grade"`
	TriggeredBreakers []string  `json:"triggered_breakers" db:"-"`
	ResultJSON        []byte    `json:"result" db:"result_json"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

// ScoreRepo persists and retrieves scoring runs.
type ScoreRepo interface {
	// Insert stores a new scoring run.
	Insert(ctx context.Context, rec ScoreRecord) error

	// Latest returns the most recent run for a symbol, or nil if none exist.
	Latest(ctx context.Context, symbol string) (*ScoreRecord, error)

	// History returns runs for a symbol within [from, to), newest first.
	History(ctx context.Context, symbol string, from, to time.Time, limit int) ([]ScoreRecord, error)
}
