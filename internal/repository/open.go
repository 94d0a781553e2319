package repository

import (
	"context"
	"fmt"
	"strings"

	"westwise/internal/repository/postgres"
	"westwise/internal/repository/sqlite"
)

var (
	_ PredictionRepository = (*sqlite.PredictionRepository)(nil)
	_ PredictionRepository = (*postgres.PredictionRepository)(nil)
)

// Options selects and locates the history store.
type Options struct {
	Driver       string // "sqlite" or "postgres"
	DatabasePath string
	DatabaseURL  string
}

// Open returns the repository for opts.Driver.
func Open(ctx context.Context, opts Options) (PredictionRepository, error) {
	switch strings.ToLower(opts.Driver) {
	case "", "sqlite", "sqlite3":
		db, err := sqlite.New(opts.DatabasePath)
		if err != nil {
			return nil, err
		}
		return sqlite.NewPredictionRepository(db), nil
	case "postgres", "postgresql", "pgx":
		if opts.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
		repo, err := postgres.New(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}
}
