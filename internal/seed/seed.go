package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/product-catalog/internal/config"
	"github.com/tuanvumaihuynh/product-catalog/internal/model"
	"github.com/tuanvumaihuynh/product-catalog/internal/service"
	"github.com/tuanvumaihuynh/product-catalog/pkg/ptr"
)

// Service fills the catalog with demo products.
type Service struct {
	cfg        config.Seed
	logger     *slog.Logger
	productSvc service.ProductService
}

func NewService(cfg config.Seed, logger *slog.Logger, productSvc service.ProductService) *Service {
	return &Service{
		cfg:        cfg,
		logger:     logger.With(slog.String("service", "seed")),
		productSvc: productSvc,
	}
}

// Run optionally wipes the catalog and inserts every demo product. It returns
// the number of products inserted.
func (s *Service) Run(ctx context.Context) (int, error) {
	if s.cfg.Wipe {
		deleted, err := s.productSvc.DeleteAllProducts(ctx)
		if err != nil {
			return 0, fmt.Errorf("delete all products: %w", err)
		}
		s.logger.InfoContext(ctx, "catalog wiped", slog.Int64("deleted", deleted))
	}

	products := Products()
	for i, params := range products {
		if _, err := s.productSvc.CreateProduct(ctx, params); err != nil {
			return i, fmt.Errorf("create product %q: %w", params.Title, err)
		}
	}

	s.logger.InfoContext(ctx, "catalog seeded", slog.Int("inserted", len(products)))
	return len(products), nil
}

// Products returns the demo catalog.
func Products() []service.CreateProductParams {
	return []service.CreateProductParams{
		{
			Title:       "Men's Chill Crew Neck Sweatshirt",
			Price:       decimal.RequireFromString("75.00"),
			Description: ptr.New("Relaxed crew neck sweatshirt in a heavyweight cotton blend."),
			Stock:       7,
			Sizes:       []string{"XS", "S", "M", "L", "XL", "XXL"},
			Gender:      model.GenderMen,
			Tags:        []string{"sweatshirt"},
			Images:      []string{"1740176-00-A_0_2000.jpg", "1740176-00-A_1.jpg"},
		},
		{
			Title:       "Men's Quilted Shirt Jacket",
			Price:       decimal.RequireFromString("200.00"),
			Description: ptr.New("Quilted shirt jacket with a water repellent shell."),
			Stock:       5,
			Sizes:       []string{"XS", "S", "M", "XL", "XXL"},
			Gender:      model.GenderMen,
			Tags:        []string{"jacket"},
			Images:      []string{"1740507-00-A_0_2000.jpg", "1740507-00-A_1.jpg"},
		},
		{
			Title:       "Women's Cropped Puffer Hoodie",
			Price:       decimal.RequireFromString("135.00"),
			Description: ptr.New("Cropped puffer hoodie with a removable hood."),
			Stock:       10,
			Sizes:       []string{"XS", "S", "M"},
			Gender:      model.GenderWomen,
			Tags:        []string{"hoodie"},
			Images:      []string{"1740280-00-A_0_2000.jpg", "1740280-00-A_1.jpg"},
		},
		{
			Title:       "Women's Raven Slouchy Crew Sweatshirt",
			Price:       decimal.RequireFromString("110.00"),
			Description: ptr.New("Slouchy crew sweatshirt with dropped shoulders."),
			Stock:       9,
			Sizes:       []string{"XS", "S", "M", "L", "XL"},
			Gender:      model.GenderWomen,
			Tags:        []string{"sweatshirt"},
			Images:      []string{"1740255-00-A_0_2000.jpg"},
		},
		{
			Title:       "Kids Cybertruck Long Sleeve Tee",
			Price:       decimal.RequireFromString("30.00"),
			Description: ptr.New("Long sleeve cotton tee with a screen printed graphic."),
			Stock:       10,
			Sizes:       []string{"XS", "S", "M"},
			Gender:      model.GenderKid,
			Tags:        []string{"shirt"},
			Images:      []string{"1742694-00-A_1_2000.jpg"},
		},
		{
			Title:  "Unisex Logo Cap",
			Price:  decimal.RequireFromString("25.50"),
			Stock:  20,
			Gender: model.GenderUnisex,
			Tags:   []string{"hat", "cap"},
		},
	}
}
