// Package postgres stores the prediction history in PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"westwise/internal/model"
)

// PredictionRepository implements repository.PredictionRepository on a pgx pool.
type PredictionRepository struct {
	pool *pgxpool.Pool
}

// New connects to connString and ensures the schema is initialized.
func New(ctx context.Context, connString string) (*PredictionRepository, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	return &PredictionRepository{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	query := `
		CREATE TABLE IF NOT EXISTS predictions (
			id BIGSERIAL PRIMARY KEY,
			request_id TEXT NOT NULL UNIQUE,
			filename TEXT NOT NULL,
			file_size BIGINT DEFAULT 0,
			label TEXT NOT NULL,
			confidence REAL NOT NULL,
			probabilities REAL[] NOT NULL,
			processing_ms BIGINT DEFAULT 0,
			model_version TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS predictions_label_idx ON predictions (label);
		CREATE INDEX IF NOT EXISTS predictions_created_at_idx ON predictions (created_at);
	`
	_, err := pool.Exec(ctx, query)
	return err
}

const insertPrediction = `
	INSERT INTO predictions (request_id, filename, file_size, label, confidence, probabilities, processing_ms, model_version, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING id
`

const selectPrediction = `
	SELECT id, request_id, filename, file_size, label, confidence, probabilities, processing_ms, model_version, created_at
	FROM predictions
`

// Insert saves a prediction and returns its id.
func (r *PredictionRepository) Insert(ctx context.Context, p *model.Prediction) (int64, error) {
	var id int64
	if err := r.pool.QueryRow(ctx, insertPrediction, insertArgs(p)...).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to insert prediction: %w", err)
	}
	return id, nil
}

// InsertBatch sends all inserts in one round trip inside a transaction.
func (r *PredictionRepository) InsertBatch(ctx context.Context, predictions []model.Prediction) error {
	if len(predictions) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for i := range predictions {
		batch.Queue(insertPrediction, insertArgs(&predictions[i])...)
	}

	br := tx.SendBatch(ctx, batch)
	for i := range predictions {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("failed to insert prediction %s: %w", predictions[i].RequestID, err)
		}
	}
	if err := br.Close(); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// GetByID returns nil when no prediction has the id.
func (r *PredictionRepository) GetByID(ctx context.Context, id int64) (*model.Prediction, error) {
	p, err := scanPrediction(r.pool.QueryRow(ctx, selectPrediction+" WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prediction: %w", err)
	}
	return p, nil
}

// GetAll lists predictions matching filter, newest first.
func (r *PredictionRepository) GetAll(ctx context.Context, filter *model.PredictionFilter) ([]model.Prediction, error) {
	where, args := buildWhere(filter)
	query := selectPrediction + where + " ORDER BY created_at DESC, id DESC"

	if filter != nil && filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
		if filter.Offset > 0 {
			args = append(args, filter.Offset)
			query += fmt.Sprintf(" OFFSET $%d", len(args))
		}
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	var predictions []model.Prediction
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		predictions = append(predictions, *p)
	}
	return predictions, rows.Err()
}

// GetTotalCount counts predictions matching filter, ignoring pagination.
func (r *PredictionRepository) GetTotalCount(ctx context.Context, filter *model.PredictionFilter) (int, error) {
	where, args := buildWhere(filter)

	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM predictions"+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count predictions: %w", err)
	}
	return count, nil
}

// GetStats aggregates the history.
func (r *PredictionRepository) GetStats(ctx context.Context) (*model.PredictionStats, error) {
	stats := &model.PredictionStats{
		PerLabel: make(map[string]int),
	}

	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(AVG(confidence), 0)::DOUBLE PRECISION FROM predictions`,
	).Scan(&stats.TotalPredictions, &stats.AverageConfidence); err != nil {
		return nil, fmt.Errorf("failed to aggregate predictions: %w", err)
	}

	rows, err := r.pool.Query(ctx, `SELECT label, COUNT(*) FROM predictions GROUP BY label`)
	if err != nil {
		return nil, fmt.Errorf("failed to group predictions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var label string
		var count int
		if err := rows.Scan(&label, &count); err != nil {
			return nil, err
		}
		stats.PerLabel[label] = count
	}
	return stats, rows.Err()
}

// DeleteAll removes every prediction.
func (r *PredictionRepository) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, "DELETE FROM predictions")
	if err != nil {
		return 0, fmt.Errorf("failed to delete predictions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Close releases the pool.
func (r *PredictionRepository) Close() error {
	r.pool.Close()
	return nil
}

func insertArgs(p *model.Prediction) []any {
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	return []any{
		p.RequestID,
		p.Filename,
		p.FileSize,
		p.Label.String(),
		p.Confidence,
		p.Probabilities[:],
		p.ProcessingTime.Milliseconds(),
		p.ModelVersion,
		createdAt,
	}
}

func scanPrediction(row pgx.Row) (*model.Prediction, error) {
	var (
		p            model.Prediction
		label        string
		probs        []float32
		processingMs int64
	)
	if err := row.Scan(&p.ID, &p.RequestID, &p.Filename, &p.FileSize, &label, &p.Confidence,
		&probs, &processingMs, &p.ModelVersion, &p.CreatedAt); err != nil {
		return nil, err
	}

	c, ok := model.ParseCategory(label)
	if !ok {
		return nil, fmt.Errorf("unknown label %q in row %d", label, p.ID)
	}
	p.Label = c

	if len(probs) != model.NumCategories {
		return nil, fmt.Errorf("row %d has %d probabilities", p.ID, len(probs))
	}
	copy(p.Probabilities[:], probs)
	p.ProcessingTime = time.Duration(processingMs) * time.Millisecond
	return &p, nil
}

func buildWhere(filter *model.PredictionFilter) (string, []any) {
	if filter == nil {
		return "", nil
	}

	where := " WHERE 1=1"
	var args []any

	if filter.Label != nil {
		args = append(args, filter.Label.String())
		where += fmt.Sprintf(" AND label = $%d", len(args))
	}
	if filter.MinConfidence > 0 {
		args = append(args, filter.MinConfidence)
		where += fmt.Sprintf(" AND confidence >= $%d", len(args))
	}
	if !filter.DateAfter.IsZero() {
		args = append(args, filter.DateAfter)
		where += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if !filter.DateBefore.IsZero() {
		args = append(args, filter.DateBefore)
		where += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}

	return where, args
}
