package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"westwise/internal/config"
	"westwise/internal/repository"
)

var (
	// repo is the history store shared by subcommands
	repo repository.PredictionRepository

	driver      string
	dbPath      string
	databaseURL string
)

var rootCmd = &cobra.Command{
	Use:          "history",
	Short:        "Inspect and manage the prediction history",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		applyConfigDefaults(cmd, config.Load())
		if driver == "none" {
			return fmt.Errorf("prediction history is disabled (DB_DRIVER=none)")
		}

		var err error
		repo, err = repository.Open(cmd.Context(), repository.Options{
			Driver:       driver,
			DatabasePath: dbPath,
			DatabaseURL:  databaseURL,
		})
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		return nil
	},
}

// applyConfigDefaults fills flags the user did not set from the environment.
func applyConfigDefaults(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if !flags.Changed("driver") {
		driver = cfg.DBDriver
	}
	if !flags.Changed("db") {
		dbPath = cfg.DatabasePath
	}
	if !flags.Changed("database-url") {
		databaseURL = cfg.DatabaseURL
	}
}

// closeRepo releases the store opened by PersistentPreRunE, if any.
func closeRepo() {
	if repo != nil {
		repo.Close()
		repo = nil
	}
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	closeRepo()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&driver, "driver", "", "History store: sqlite or postgres (default $DB_DRIVER or sqlite)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (default $DB_PATH)")
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "PostgreSQL connection string (default $DATABASE_URL)")
}
