package repository

import (
	"context"

	"westwise/internal/model"
)

// PredictionRepository stores the classification history.
type PredictionRepository interface {
	// Create operations
	Insert(ctx context.Context, p *model.Prediction) (int64, error)
	InsertBatch(ctx context.Context, predictions []model.Prediction) error

	// Read operations
	GetByID(ctx context.Context, id int64) (*model.Prediction, error)
	GetAll(ctx context.Context, filter *model.PredictionFilter) ([]model.Prediction, error)
	GetTotalCount(ctx context.Context, filter *model.PredictionFilter) (int, error)
	GetStats(ctx context.Context) (*model.PredictionStats, error)

	// Delete operations
	DeleteAll(ctx context.Context) (int64, error)

	Close() error
}
