package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"westwise/internal/model"
)

// PredictionRepository implements repository.PredictionRepository for SQLite.
type PredictionRepository struct {
	db *DB
}

// NewPredictionRepository creates a new SQLite prediction repository.
func NewPredictionRepository(db *DB) *PredictionRepository {
	return &PredictionRepository{db: db}
}

const insertPrediction = `
	INSERT INTO predictions (request_id, filename, file_size, label, confidence, probabilities, processing_ms, model_version, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const selectPrediction = `
	SELECT id, request_id, filename, file_size, label, confidence, probabilities, processing_ms, model_version, created_at
	FROM predictions
`

// Insert adds a new prediction record to the database.
func (r *PredictionRepository) Insert(ctx context.Context, p *model.Prediction) (int64, error) {
	args, err := insertArgs(p)
	if err != nil {
		return 0, err
	}

	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().ExecContext(ctx, insertPrediction, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert prediction: %w", err)
	}

	return result.LastInsertId()
}

// InsertBatch inserts several predictions in a single transaction.
func (r *PredictionRepository) InsertBatch(ctx context.Context, predictions []model.Prediction) error {
	if len(predictions) == 0 {
		return nil
	}

	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertPrediction)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range predictions {
		args, err := insertArgs(&predictions[i])
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert prediction %s: %w", predictions[i].RequestID, err)
		}
	}

	return tx.Commit()
}

// GetByID retrieves a prediction by its ID. It returns nil when none exists.
func (r *PredictionRepository) GetByID(ctx context.Context, id int64) (*model.Prediction, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	row := r.db.Conn().QueryRowContext(ctx, selectPrediction+" WHERE id = ?", id)
	p, err := scanPrediction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prediction: %w", err)
	}
	return p, nil
}

// GetAll retrieves predictions based on filter criteria, newest first.
func (r *PredictionRepository) GetAll(ctx context.Context, filter *model.PredictionFilter) ([]model.Prediction, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := buildWhere(filter)
	query := selectPrediction + where + " ORDER BY created_at DESC, id DESC"

	if filter != nil && filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := r.db.Conn().QueryContext(ctx, query, args...)
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

// GetTotalCount returns the total count of predictions matching the filter.
func (r *PredictionRepository) GetTotalCount(ctx context.Context, filter *model.PredictionFilter) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := buildWhere(filter)

	var count int
	if err := r.db.Conn().QueryRowContext(ctx, "SELECT COUNT(*) FROM predictions"+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count predictions: %w", err)
	}

	return count, nil
}

// GetStats returns statistics about stored predictions.
func (r *PredictionRepository) GetStats(ctx context.Context) (*model.PredictionStats, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	stats := &model.PredictionStats{
		PerLabel: make(map[string]int),
	}

	if err := r.db.Conn().QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(AVG(confidence), 0) FROM predictions`,
	).Scan(&stats.TotalPredictions, &stats.AverageConfidence); err != nil {
		return nil, fmt.Errorf("failed to aggregate predictions: %w", err)
	}

	rows, err := r.db.Conn().QueryContext(ctx, `SELECT label, COUNT(*) FROM predictions GROUP BY label`)
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

// DeleteAll removes every prediction and returns how many were deleted.
func (r *PredictionRepository) DeleteAll(ctx context.Context) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().ExecContext(ctx, `DELETE FROM predictions`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete predictions: %w", err)
	}
	return result.RowsAffected()
}

// Close closes the underlying database.
func (r *PredictionRepository) Close() error {
	return r.db.Close()
}

func insertArgs(p *model.Prediction) ([]any, error) {
	probs, err := json.Marshal(p.Probabilities)
	if err != nil {
		return nil, fmt.Errorf("failed to encode probabilities: %w", err)
	}
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
		string(probs),
		p.ProcessingTime.Milliseconds(),
		p.ModelVersion,
		createdAt.UTC(),
	}, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPrediction(s scanner) (*model.Prediction, error) {
	var (
		p            model.Prediction
		label, probs string
		processingMs int64
	)
	if err := s.Scan(&p.ID, &p.RequestID, &p.Filename, &p.FileSize, &label, &p.Confidence,
		&probs, &processingMs, &p.ModelVersion, &p.CreatedAt); err != nil {
		return nil, err
	}

	c, ok := model.ParseCategory(label)
	if !ok {
		return nil, fmt.Errorf("unknown label %q in row %d", label, p.ID)
	}
	p.Label = c

	if err := json.Unmarshal([]byte(probs), &p.Probabilities); err != nil {
		return nil, fmt.Errorf("failed to decode probabilities of row %d: %w", p.ID, err)
	}
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
		where += " AND label = ?"
		args = append(args, filter.Label.String())
	}

	if filter.MinConfidence > 0 {
		where += " AND confidence >= ?"
		args = append(args, filter.MinConfidence)
	}

	if !filter.DateAfter.IsZero() {
		where += " AND created_at >= ?"
		args = append(args, filter.DateAfter.UTC())
	}

	if !filter.DateBefore.IsZero() {
		where += " AND created_at <= ?"
		args = append(args, filter.DateBefore.UTC())
	}

	return where, args
}
