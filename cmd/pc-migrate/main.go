package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/tuanvumaihuynh/product-catalog/internal/config"
	"github.com/tuanvumaihuynh/product-catalog/internal/log"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/db"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("error running migrate application: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	time.Local = time.UTC

	type Config struct {
		Log      config.Log
		Postgres config.Postgres
	}
	cfg, err := config.New[Config]()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	logger := log.NewSlogLogger(cfg.Log)

	pgxPool, err := db.NewPgxPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("error creating pgx pool: %w", err)
	}
	defer pgxPool.Close()

	logger.InfoContext(ctx, "starting database migration")

	results, err := db.Migrate(ctx, pgxPool)
	if err != nil {
		return fmt.Errorf("error migrating database: %w", err)
	}

	for _, res := range results {
		logger.InfoContext(ctx, "migration applied",
			slog.Int64("version", res.Source.Version),
			slog.String("path", res.Source.Path),
			slog.Duration("duration", res.Duration),
		)
	}

	logger.InfoContext(ctx, "database migration completed successfully", slog.Int("applied", len(results)))

	return nil
}
