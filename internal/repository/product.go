package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/product-catalog/internal/model"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/db"
)

var (
	// ErrNotFound is returned when a product lookup or mutation matches no row.
	ErrNotFound = errors.New("not found")
	// ErrOutOfRange is returned when a value does not fit its column.
	ErrOutOfRange = errors.New("value out of range")
)

type ListProductsParams struct {
	Limit  int32
	Offset int32
}

// UpdateProductParams holds the columns to change. Nil fields keep their
// stored value.
type UpdateProductParams struct {
	Title       *string
	Slug        *string
	Price       *decimal.Decimal
	Description *string
	Stock       *int
	Sizes       []string
	Gender      *model.Gender
	Tags        []string
	UpdatedAt   time.Time
}

type ProductRepository interface {
	WithDB(db db.DB) ProductRepository
	CreateProduct(ctx context.Context, product model.Product) error
	CreateProductImages(ctx context.Context, images []model.ProductImage) error
	ListProducts(ctx context.Context, params ListProductsParams) ([]model.Product, error)
	GetProductByID(ctx context.Context, id uuid.UUID) (model.Product, error)
	FindProductByTerm(ctx context.Context, term string) (model.Product, error)
	ListProductImageURLs(ctx context.Context, productID uuid.UUID) ([]string, error)
	DeleteProductImages(ctx context.Context, productID uuid.UUID) (int64, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, params UpdateProductParams) (model.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) (model.Product, error)
	DeleteAllProducts(ctx context.Context) (int64, error)
}

type productRepository struct {
	db db.DB
}

func NewProductRepository(db db.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r productRepository) WithDB(db db.DB) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `p.id, p.title, p.slug, p.price, p.description, p.stock, p.sizes, p.gender, p.tags, p.created_at, p.updated_at`

const productImagesColumn = `COALESCE(
	(SELECT array_agg(i.url ORDER BY i.position) FROM product_images AS i WHERE i.product_id = p.id),
	'{}'::text[]
) AS images`

type productRow struct {
	ID          uuid.UUID      `db:"id"`
	Title       string         `db:"title"`
	Slug        string         `db:"slug"`
	Price       pgtype.Numeric `db:"price"`
	Description *string        `db:"description"`
	Stock       int32          `db:"stock"`
	Sizes       []string       `db:"sizes"`
	Gender      string         `db:"gender"`
	Tags        []string       `db:"tags"`
	Images      []string       `db:"images"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (r productRepository) CreateProduct(ctx context.Context, product model.Product) error {
	stock, err := toInt4(product.Stock)
	if err != nil {
		return fmt.Errorf("stock: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO products (id, title, slug, price, description, stock, sizes, gender, tags, created_at, updated_at)
		VALUES (@id, @title, @slug, @price, @description, @stock, @sizes, @gender, @tags, @created_at, @updated_at)
	`, pgx.NamedArgs{
		"id":          product.ID,
		"title":       product.Title,
		"slug":        product.Slug,
		"price":       decimalToNumeric(product.Price),
		"description": product.Description,
		"stock":       stock,
		"sizes":       nonNil(product.Sizes),
		"gender":      string(product.Gender),
		"tags":        nonNil(product.Tags),
		"created_at":  product.CreatedAt,
		"updated_at":  product.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

// CreateProductImages pipelines one insert per image in a single batch.
func (r productRepository) CreateProductImages(ctx context.Context, images []model.ProductImage) error {
	if len(images) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, img := range images {
		batch.Queue(`
			INSERT INTO product_images (id, product_id, url, position)
			VALUES ($1, $2, $3, $4)
		`, img.ID, img.ProductID, img.URL, int32(img.Position))
	}

	if err := r.db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert product images: %w", err)
	}

	return nil
}

func (r productRepository) ListProducts(ctx context.Context, params ListProductsParams) ([]model.Product, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+productColumns+`, `+productImagesColumn+`
		FROM products AS p
		ORDER BY p.created_at, p.id
		LIMIT $1 OFFSET $2
	`, params.Limit, params.Offset)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}

	productRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[productRow])
	if err != nil {
		return nil, fmt.Errorf("collect products: %w", err)
	}

	products := make([]model.Product, 0, len(productRows))
	for _, row := range productRows {
		product, err := rowToModelProduct(row)
		if err != nil {
			return nil, fmt.Errorf("convert product row: %w", err)
		}
		products = append(products, product)
	}

	return products, nil
}

func (r productRepository) GetProductByID(ctx context.Context, id uuid.UUID) (model.Product, error) {
	return r.getOne(ctx, `
		SELECT `+productColumns+`, `+productImagesColumn+`
		FROM products AS p
		WHERE p.id = $1
	`, id)
}

// FindProductByTerm returns the earliest product whose title or slug equals term.
func (r productRepository) FindProductByTerm(ctx context.Context, term string) (model.Product, error) {
	return r.getOne(ctx, `
		SELECT `+productColumns+`, `+productImagesColumn+`
		FROM products AS p
		WHERE p.title = $1 OR p.slug = $1
		ORDER BY p.created_at, p.id
		LIMIT 1
	`, term)
}

func (r productRepository) ListProductImageURLs(ctx context.Context, productID uuid.UUID) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT url
		FROM product_images
		WHERE product_id = $1
		ORDER BY position
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("query product images: %w", err)
	}

	urls, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect product images: %w", err)
	}

	return nonNil(urls), nil
}

func (r productRepository) DeleteProductImages(ctx context.Context, productID uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM product_images WHERE product_id = $1`, productID)
	if err != nil {
		return 0, fmt.Errorf("delete product images: %w", err)
	}

	return tag.RowsAffected(), nil
}

// UpdateProduct returns the updated row without images.
func (r productRepository) UpdateProduct(ctx context.Context, id uuid.UUID, params UpdateProductParams) (model.Product, error) {
	args := pgx.NamedArgs{
		"id":          id,
		"title":       params.Title,
		"slug":        params.Slug,
		"price":       pgtype.Numeric{},
		"description": params.Description,
		"stock":       nil,
		"sizes":       params.Sizes,
		"gender":      nil,
		"tags":        params.Tags,
		"updated_at":  params.UpdatedAt,
	}
	if params.Price != nil {
		args["price"] = decimalToNumeric(*params.Price)
	}
	if params.Stock != nil {
		stock, err := toInt4(*params.Stock)
		if err != nil {
			return model.Product{}, fmt.Errorf("stock: %w", err)
		}
		args["stock"] = stock
	}
	if params.Gender != nil {
		args["gender"] = string(*params.Gender)
	}

	return r.getOne(ctx, `
		UPDATE products AS p SET
			title       = COALESCE(@title, p.title),
			slug        = COALESCE(@slug, p.slug),
			price       = COALESCE(@price, p.price),
			description = COALESCE(@description, p.description),
			stock       = COALESCE(@stock, p.stock),
			sizes       = COALESCE(@sizes, p.sizes),
			gender      = COALESCE(@gender, p.gender),
			tags        = COALESCE(@tags, p.tags),
			updated_at  = @updated_at
		WHERE p.id = @id
		RETURNING `+productColumns+`
	`, args)
}

// DeleteProduct removes the product and, through the cascade, its images.
// It returns the removed row without images.
func (r productRepository) DeleteProduct(ctx context.Context, id uuid.UUID) (model.Product, error) {
	return r.getOne(ctx, `
		DELETE FROM products AS p
		WHERE p.id = $1
		RETURNING `+productColumns+`
	`, id)
}

func (r productRepository) DeleteAllProducts(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM products`)
	if err != nil {
		return 0, fmt.Errorf("delete all products: %w", err)
	}

	return tag.RowsAffected(), nil
}

func (r productRepository) getOne(ctx context.Context, query string, args ...any) (model.Product, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return model.Product{}, fmt.Errorf("query product: %w", err)
	}

	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[productRow])
	if err != nil {
		if db.IsNoRows(err) {
			return model.Product{}, fmt.Errorf("collect product: %w", errors.Join(ErrNotFound, err))
		}
		return model.Product{}, fmt.Errorf("collect product: %w", err)
	}

	product, err := rowToModelProduct(row)
	if err != nil {
		return model.Product{}, fmt.Errorf("convert product row: %w", err)
	}

	return product, nil
}

func rowToModelProduct(row productRow) (model.Product, error) {
	price, err := numericToDecimal(row.Price)
	if err != nil {
		return model.Product{}, fmt.Errorf("convert price: %w", err)
	}

	return model.Product{
		ID:          row.ID,
		Title:       row.Title,
		Slug:        row.Slug,
		Price:       price,
		Description: row.Description,
		Stock:       int(row.Stock),
		Sizes:       nonNil(row.Sizes),
		Gender:      model.Gender(row.Gender),
		Tags:        nonNil(row.Tags),
		Images:      nonNil(row.Images),
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}, nil
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{
		Int:   d.Coefficient(),
		Exp:   d.Exponent(),
		Valid: true,
	}
}

func numericToDecimal(n pgtype.Numeric) (decimal.Decimal, error) {
	if !n.Valid {
		return decimal.Zero, nil
	}
	if n.NaN || n.InfinityModifier != pgtype.Finite {
		return decimal.Decimal{}, fmt.Errorf("non-finite numeric")
	}
	return decimal.NewFromBigInt(n.Int, n.Exp), nil
}

// toInt4 narrows n to a postgres integer.
func toInt4(n int) (int32, error) {
	if n > math.MaxInt32 || n < math.MinInt32 {
		return 0, fmt.Errorf("%d: %w", n, ErrOutOfRange)
	}
	return int32(n), nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
