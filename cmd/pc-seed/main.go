package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/tuanvumaihuynh/product-catalog/internal/config"
	"github.com/tuanvumaihuynh/product-catalog/internal/log"
	"github.com/tuanvumaihuynh/product-catalog/internal/repository"
	"github.com/tuanvumaihuynh/product-catalog/internal/seed"
	"github.com/tuanvumaihuynh/product-catalog/internal/service"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/cache"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/db"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("error running seed application: %v\n", err)
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
		Redis    config.Redis
		Seed     config.Seed
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

	dbClient := db.NewClient(pgxPool)

	var productCache cache.ProductCache = cache.NopProductCache{}
	if cfg.Redis.Addr != "" {
		redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("error creating redis client: %w", err)
		}
		defer redisClient.Close()

		productCache = cache.NewRedisProductCache(redisClient, cfg.Redis.TTL)
	}

	productService := service.NewProductService(
		logger,
		dbClient,
		repository.NewProductRepository(dbClient),
		repository.NewOutboxMsgRepository(dbClient),
		productCache,
	)

	logger.InfoContext(ctx, "seeding product catalog", slog.Bool("wipe", cfg.Seed.Wipe))

	inserted, err := seed.NewService(cfg.Seed, logger, productService).Run(ctx)
	if err != nil {
		return fmt.Errorf("error seeding catalog: %w", err)
	}

	logger.InfoContext(ctx, "product catalog seeded", slog.Int("inserted", inserted))

	return nil
}
