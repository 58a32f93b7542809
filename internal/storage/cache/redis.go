package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tuanvumaihuynh/product-catalog/internal/config"
	"github.com/tuanvumaihuynh/product-catalog/internal/model"
)

const productPagePrefix = "products:page:"

var _ ProductCache = (*RedisProductCache)(nil)

type RedisProductCache struct {
	cl  redis.UniversalClient
	ttl time.Duration
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, cfg config.Redis) (*redis.Client, error) {
	cl := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := cl.Ping(pingCtx).Err(); err != nil {
		cl.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return cl, nil
}

func NewRedisProductCache(cl redis.UniversalClient, ttl time.Duration) *RedisProductCache {
	return &RedisProductCache{cl: cl, ttl: ttl}
}

func (c *RedisProductCache) GetProductPage(ctx context.Context, limit, offset int32) ([]model.Product, bool, error) {
	b, err := c.cl.Get(ctx, pageKey(limit, offset)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get product page: %w", err)
	}

	var products []model.Product
	if err := json.Unmarshal(b, &products); err != nil {
		return nil, false, fmt.Errorf("unmarshal product page: %w", err)
	}

	return products, true, nil
}

func (c *RedisProductCache) SetProductPage(ctx context.Context, limit, offset int32, products []model.Product) error {
	b, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("marshal product page: %w", err)
	}

	if err := c.cl.Set(ctx, pageKey(limit, offset), b, c.ttl).Err(); err != nil {
		return fmt.Errorf("set product page: %w", err)
	}

	return nil
}

func (c *RedisProductCache) InvalidateProducts(ctx context.Context) error {
	iter := c.cl.Scan(ctx, 0, productPagePrefix+"*", 100).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan product pages: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}

	if err := c.cl.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete product pages: %w", err)
	}

	return nil
}

func pageKey(limit, offset int32) string {
	return fmt.Sprintf("%sl%d:o%d", productPagePrefix, limit, offset)
}
