package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tuanvumaihuynh/product-catalog/internal/apperr"
	"github.com/tuanvumaihuynh/product-catalog/internal/event"
	"github.com/tuanvumaihuynh/product-catalog/internal/model"
	"github.com/tuanvumaihuynh/product-catalog/internal/repository"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/cache"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/db"
	"github.com/tuanvumaihuynh/product-catalog/pkg/outbox"
	"github.com/tuanvumaihuynh/product-catalog/pkg/slug"
)

var tracer = otel.Tracer("internal/service")

// errEmptySlug rejects titles or slugs made only of apostrophes.
var errEmptySlug = apperr.ValidationErr.WithMsg("slug is empty after normalization")

const (
	DefaultLimit  = 10
	DefaultOffset = 0
)

type CreateProductParams struct {
	Title string
	// Slug is normalized when set; otherwise it is derived from Title.
	Slug        *string
	Price       decimal.Decimal
	Description *string
	Stock       int
	Sizes       []string
	Gender      model.Gender
	Tags        []string
	Images      []string
}

type ListProductsParams struct {
	Limit  *int
	Offset *int
}

// UpdateProductParams is a partial update. A nil Images keeps the stored
// images; a non-nil one, even empty, replaces them.
type UpdateProductParams struct {
	Title       *string
	Slug        *string
	Price       *decimal.Decimal
	Description *string
	Stock       *int
	Sizes       []string
	Gender      *model.Gender
	Tags        []string
	Images      []string
}

type ProductService interface {
	CreateProduct(ctx context.Context, params CreateProductParams) (model.Product, error)
	ListProducts(ctx context.Context, params ListProductsParams) ([]model.Product, error)
	// FindProduct looks a product up by id when term is a UUID, otherwise by
	// exact title or slug.
	FindProduct(ctx context.Context, term string) (model.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, params UpdateProductParams) (model.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	DeleteAllProducts(ctx context.Context) (int64, error)
}

type productService struct {
	logger        *slog.Logger
	db            db.DB
	productRepo   repository.ProductRepository
	outboxMsgRepo repository.OutboxMsgRepository
	productCache  cache.ProductCache
	metrics       *metrics
}

func NewProductService(
	logger *slog.Logger,
	db db.DB,
	productRepo repository.ProductRepository,
	outboxMsgRepo repository.OutboxMsgRepository,
	productCache cache.ProductCache,
) ProductService {
	return &productService{
		logger:        logger.With(slog.String("service", "product")),
		db:            db,
		productRepo:   productRepo,
		outboxMsgRepo: outboxMsgRepo,
		productCache:  productCache,
		metrics:       newMetrics(),
	}
}

func (s *productService) CreateProduct(ctx context.Context, params CreateProductParams) (_ model.Product, err error) {
	ctx, span := tracer.Start(ctx, "ProductService.CreateProduct")
	defer func() { s.finish(ctx, span, "create", err) }()

	id, err := uuid.NewV7()
	if err != nil {
		return model.Product{}, s.translateError(ctx, "create", fmt.Errorf("generate uuid v7: %w", err))
	}

	now := time.Now()
	product := model.Product{
		ID:          id,
		Title:       params.Title,
		Slug:        slug.FromTitle(params.Title, params.Slug),
		Price:       params.Price,
		Description: params.Description,
		Stock:       params.Stock,
		Sizes:       nonNil(params.Sizes),
		Gender:      params.Gender,
		Tags:        nonNil(params.Tags),
		Images:      nonNil(slices.Clone(params.Images)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if product.Slug == "" {
		return model.Product{}, errEmptySlug
	}

	images, err := newProductImages(product.ID, product.Images)
	if err != nil {
		return model.Product{}, s.translateError(ctx, "create", err)
	}

	if err := s.db.WithTx(ctx, func(db db.DB) error {
		productRepo := s.productRepo.WithDB(db)

		if err := productRepo.CreateProduct(ctx, product); err != nil {
			return fmt.Errorf("product repository create product: %w", err)
		}

		if err := productRepo.CreateProductImages(ctx, images); err != nil {
			return fmt.Errorf("product repository create product images: %w", err)
		}

		return s.createOutboxMsg(ctx, db, event.TopicProductCreated, &product.ID, event.ProductCreatedEvent{
			ProductID: product.ID.String(),
			Title:     product.Title,
			Slug:      product.Slug,
			Price:     product.Price.String(),
			Stock:     product.Stock,
			Images:    product.Images,
		})
	}); err != nil {
		return model.Product{}, s.translateError(ctx, "create", fmt.Errorf("db with tx: %w", err))
	}

	s.invalidateCache(ctx)
	span.SetAttributes(attribute.String("product.id", product.ID.String()))

	return product, nil
}

func (s *productService) ListProducts(ctx context.Context, params ListProductsParams) (_ []model.Product, err error) {
	ctx, span := tracer.Start(ctx, "ProductService.ListProducts")
	defer func() { s.finish(ctx, span, "list", err) }()

	limit, offset := paginate(params)
	span.SetAttributes(attribute.Int("limit", int(limit)), attribute.Int("offset", int(offset)))

	cached, ok, err := s.productCache.GetProductPage(ctx, limit, offset)
	if err != nil {
		s.logger.WarnContext(ctx, "error reading product page from cache", slog.Any("error", err))
	}
	if ok {
		return cached, nil
	}

	products, err := s.productRepo.ListProducts(ctx, repository.ListProductsParams{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, s.translateError(ctx, "list", fmt.Errorf("product repository list products: %w", err))
	}

	if err := s.productCache.SetProductPage(ctx, limit, offset, products); err != nil {
		s.logger.WarnContext(ctx, "error writing product page to cache", slog.Any("error", err))
	}

	return products, nil
}

func (s *productService) FindProduct(ctx context.Context, term string) (_ model.Product, err error) {
	ctx, span := tracer.Start(ctx, "ProductService.FindProduct")
	defer func() { s.finish(ctx, span, "find", err) }()

	var product model.Product
	if id, ok := parseUUID(term); ok {
		product, err = s.productRepo.GetProductByID(ctx, id)
		if err != nil {
			return model.Product{}, s.translateError(ctx, "find",
				fmt.Errorf("product repository get product by id: %w", err),
				notFoundMsg("product with id: %s not found", term))
		}
		return product, nil
	}

	product, err = s.productRepo.FindProductByTerm(ctx, term)
	if err != nil {
		return model.Product{}, s.translateError(ctx, "find",
			fmt.Errorf("product repository find product by term: %w", err),
			notFoundMsg("product with term: %s not found", term))
	}

	return product, nil
}

func (s *productService) UpdateProduct(ctx context.Context, id uuid.UUID, params UpdateProductParams) (_ model.Product, err error) {
	ctx, span := tracer.Start(ctx, "ProductService.UpdateProduct",
		withProductID(id),
	)
	defer func() { s.finish(ctx, span, "update", err) }()

	if params.Slug != nil {
		normalized := slug.Normalize(*params.Slug)
		if normalized == "" {
			return model.Product{}, errEmptySlug
		}
		params.Slug = &normalized
	}

	var images []model.ProductImage
	if params.Images != nil {
		images, err = newProductImages(id, params.Images)
		if err != nil {
			return model.Product{}, s.translateError(ctx, "update", err)
		}
	}

	var product model.Product
	if err := s.db.WithTx(ctx, func(db db.DB) error {
		productRepo := s.productRepo.WithDB(db)

		// The row update runs first so an unknown id fails before any
		// image is written.
		updated, err := productRepo.UpdateProduct(ctx, id, repository.UpdateProductParams{
			Title:       params.Title,
			Slug:        params.Slug,
			Price:       params.Price,
			Description: params.Description,
			Stock:       params.Stock,
			Sizes:       params.Sizes,
			Gender:      params.Gender,
			Tags:        params.Tags,
			UpdatedAt:   time.Now(),
		})
		if err != nil {
			return fmt.Errorf("product repository update product: %w", err)
		}

		if params.Images != nil {
			if _, err := productRepo.DeleteProductImages(ctx, id); err != nil {
				return fmt.Errorf("product repository delete product images: %w", err)
			}

			if err := productRepo.CreateProductImages(ctx, images); err != nil {
				return fmt.Errorf("product repository create product images: %w", err)
			}

			updated.Images = nonNil(slices.Clone(params.Images))
		} else {
			urls, err := productRepo.ListProductImageURLs(ctx, id)
			if err != nil {
				return fmt.Errorf("product repository list product image urls: %w", err)
			}

			updated.Images = urls
		}

		if err := s.createOutboxMsg(ctx, db, event.TopicProductUpdated, &updated.ID, event.ProductUpdatedEvent{
			ProductID:      updated.ID.String(),
			Title:          updated.Title,
			Slug:           updated.Slug,
			Price:          updated.Price.String(),
			Stock:          updated.Stock,
			Images:         updated.Images,
			ImagesReplaced: params.Images != nil,
		}); err != nil {
			return err
		}

		product = updated
		return nil
	}); err != nil {
		return model.Product{}, s.translateError(ctx, "update",
			fmt.Errorf("db with tx: %w", err),
			notFoundMsg("product with id: %s not found", id.String()))
	}

	s.invalidateCache(ctx)

	return product, nil
}

func (s *productService) DeleteProduct(ctx context.Context, id uuid.UUID) (err error) {
	ctx, span := tracer.Start(ctx, "ProductService.DeleteProduct",
		withProductID(id),
	)
	defer func() { s.finish(ctx, span, "delete", err) }()

	if err := s.db.WithTx(ctx, func(db db.DB) error {
		deleted, err := s.productRepo.
			WithDB(db).
			DeleteProduct(ctx, id)
		if err != nil {
			return fmt.Errorf("product repository delete product: %w", err)
		}

		return s.createOutboxMsg(ctx, db, event.TopicProductDeleted, &deleted.ID, event.ProductDeletedEvent{
			ProductID: deleted.ID.String(),
			Slug:      deleted.Slug,
		})
	}); err != nil {
		return s.translateError(ctx, "delete",
			fmt.Errorf("db with tx: %w", err),
			notFoundMsg("product with id: %s not found", id.String()))
	}

	s.invalidateCache(ctx)

	return nil
}

func (s *productService) DeleteAllProducts(ctx context.Context) (_ int64, err error) {
	ctx, span := tracer.Start(ctx, "ProductService.DeleteAllProducts")
	defer func() { s.finish(ctx, span, "delete_all", err) }()

	var deleted int64
	if err := s.db.WithTx(ctx, func(db db.DB) error {
		n, err := s.productRepo.
			WithDB(db).
			DeleteAllProducts(ctx)
		if err != nil {
			return fmt.Errorf("product repository delete all products: %w", err)
		}
		deleted = n

		return s.createOutboxMsg(ctx, db, event.TopicProductsPurged, nil, event.ProductsPurgedEvent{
			Deleted: n,
		})
	}); err != nil {
		return 0, s.translateError(ctx, "delete_all", fmt.Errorf("db with tx: %w", err))
	}

	s.invalidateCache(ctx)
	span.SetAttributes(attribute.Int64("products.deleted", deleted))

	return deleted, nil
}

func (s *productService) createOutboxMsg(ctx context.Context, db db.DB, topic string, productID *uuid.UUID, ev any) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}

	var partitionKey *string
	if productID != nil {
		key := productID.String()
		partitionKey = &key
	}

	if err := s.outboxMsgRepo.
		WithDB(db).
		CreateOutboxMsg(ctx, repository.CreateOutboxMsgParams{
			Topic:        topic,
			Headers:      outbox.BuildHeaders(ctx),
			Payload:      payload,
			PartitionKey: partitionKey,
		}); err != nil {
		return fmt.Errorf("outbox msg repository create outbox msg: %w", err)
	}

	return nil
}

func (s *productService) invalidateCache(ctx context.Context) {
	if err := s.productCache.InvalidateProducts(ctx); err != nil {
		s.logger.WarnContext(ctx, "error invalidating product cache", slog.Any("error", err))
	}
}

func newProductImages(productID uuid.UUID, urls []string) ([]model.ProductImage, error) {
	images := make([]model.ProductImage, 0, len(urls))
	for i, url := range urls {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("generate uuid v7: %w", err)
		}

		images = append(images, model.ProductImage{
			ID:        id,
			ProductID: productID,
			URL:       url,
			Position:  i,
		})
	}
	return images, nil
}

func paginate(params ListProductsParams) (limit, offset int32) {
	limit, offset = DefaultLimit, DefaultOffset
	if params.Limit != nil && *params.Limit > 0 {
		limit = int32(min(*params.Limit, maxPageSize))
	}
	if params.Offset != nil && *params.Offset > 0 {
		offset = int32(min(*params.Offset, maxOffset))
	}
	return limit, offset
}

const (
	maxPageSize = 1 << 16
	maxOffset   = 1<<31 - 1
)

// parseUUID accepts only the canonical 36 character form.
func parseUUID(term string) (uuid.UUID, bool) {
	if len(term) != 36 {
		return uuid.UUID{}, false
	}
	id, err := uuid.Parse(term)
	return id, err == nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
