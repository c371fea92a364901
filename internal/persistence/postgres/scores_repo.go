package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/protocolchecker/riskframe/internal/persistence"
)

// Schema is the metrics-history table backing the monitoring pipeline.
const Schema = `
CREATE TABLE IF NOT EXISTS score_history (
	id          UUID PRIMARY KEY,
	ts          TIMESTAMPTZ NOT NULL,
	symbol      TEXT NOT NULL,
	qualified   BOOLEAN NOT NULL,
	status      TEXT NOT NULL,
	score       DOUBLE PRECISION,
	grade       TEXT,
	breakers    TEXT[] NOT NULL DEFAULT '{}',
	result_json JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_score_history_symbol_ts ON score_history (symbol, ts DESC);
`

// scoresRepo implements ScoreRepo for PostgreSQL.
type scoresRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewScoresRepo creates a PostgreSQL score repository.
func NewScoresRepo(db *sqlx.DB, timeout time.Duration) persistence.ScoreRepo {
	return &scoresRepo{db: db, timeout: timeout}
}

// Insert stores one scoring run.
func (r *scoresRepo) Insert(ctx context.Context, rec persistence.ScoreRecord) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO score_history
		(id, ts, symbol, qualified, status, score, grade, breakers, result_json)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.Timestamp, rec.Symbol, rec.Qualified, rec.Status,
		rec.Score, rec.Grade, pq.Array(rec.TriggeredBreakers), rec.ResultJSON)
	if err != nil {
		return fmt.Errorf("failed to insert score record for %s: %w", rec.Symbol, err)
	}
	return nil
}

// Latest returns the most recent run for a symbol.
func (r *scoresRepo) Latest(ctx context.Context, symbol string) (*persistence.ScoreRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT id, ts, symbol, qualified, status, score, grade, breakers, result_json, created_at
		FROM score_history
		WHERE symbol = $1
		ORDER BY ts DESC
		LIMIT 1`

	rec, err := scanRecord(r.db.QueryRowxContext(ctx, query, symbol))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query latest score for %s: %w", symbol, err)
	}
	return rec, nil
}

// History returns runs for a symbol within [from, to), newest first.
func (r *scoresRepo) History(ctx context.Context, symbol string, from, to time.Time, limit int) ([]persistence.ScoreRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, ts, symbol, qualified, status, score, grade, breakers, result_json, created_at
		FROM score_history
		WHERE symbol = $1 AND ts >= $2 AND ts < $3
		ORDER BY ts DESC
		LIMIT $4`

	rows, err := r.db.QueryxContext(ctx, query, symbol, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query score history for %s: %w", symbol, err)
	}
	defer rows.Close()

	var records []persistence.ScoreRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan score record: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*persistence.ScoreRecord, error) {
	var rec persistence.ScoreRecord
	var breakerNames pq.StringArray
	err := row.Scan(&rec.ID, &rec.Timestamp, &rec.Symbol, &rec.Qualified, &rec.Status,
		&rec.Score, &rec.Grade, &breakerNames, &rec.ResultJSON, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	rec.TriggeredBreakers = []string(breakerNames)
	return &rec, nil
}
