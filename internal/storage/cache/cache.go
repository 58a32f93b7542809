package cache

import (
	"context"

	"github.com/tuanvumaihuynh/product-catalog/internal/model"
)

// ProductCache caches product list pages.
type ProductCache interface {
	// GetProductPage returns the cached page and true on a hit.
	GetProductPage(ctx context.Context, limit, offset int32) ([]model.Product, bool, error)
	SetProductPage(ctx context.Context, limit, offset int32, products []model.Product) error
	// InvalidateProducts drops every cached page.
	InvalidateProducts(ctx context.Context) error
}

var _ ProductCache = NopProductCache{}

// NopProductCache never hits. It is used when no Redis address is configured.
type NopProductCache struct{}

func (NopProductCache) GetProductPage(context.Context, int32, int32) ([]model.Product, bool, error) {
	return nil, false, nil
}

func (NopProductCache) SetProductPage(context.Context, int32, int32, []model.Product) error {
	return nil
}

func (NopProductCache) InvalidateProducts(context.Context) error {
	return nil
}
