package http

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/product-catalog/internal/model"
	"github.com/tuanvumaihuynh/product-catalog/internal/service"
)

// priceScale matches the numeric(12,2) price column.
const priceScale = 2

type CreateProductRequest struct {
	Title string `json:"title" validate:"required,notblank,max=255"`
	// Slug is derived from Title when absent or empty.
	Slug        *string      `json:"slug" validate:"omitempty,max=255"`
	Price       *float64     `json:"price" validate:"omitempty,gte=0,lte=9999999999.99"`
	Description *string      `json:"description"`
	Stock       *int         `json:"stock" validate:"omitempty,gte=0,max=2147483647"`
	Sizes       []string     `json:"sizes" validate:"omitempty,unique,dive,notblank,alphanumspace"`
	Gender      model.Gender `json:"gender" validate:"required,enum"`
	Tags        []string     `json:"tags" validate:"omitempty,dive,notblank"`
	Images      []string     `json:"images" validate:"omitempty,dive,notblank"`
}

func (req CreateProductRequest) toParams() service.CreateProductParams {
	params := service.CreateProductParams{
		Title:       req.Title,
		Slug:        req.Slug,
		Price:       decimal.Zero,
		Description: req.Description,
		Sizes:       req.Sizes,
		Gender:      req.Gender,
		Tags:        req.Tags,
		Images:      req.Images,
	}
	if req.Price != nil {
		params.Price = decimal.NewFromFloat(*req.Price).Round(priceScale)
	}
	if req.Stock != nil {
		params.Stock = *req.Stock
	}
	return params
}

// UpdateProductRequest is a partial update. Images replaces the stored list
// whenever it is present, even when empty.
type UpdateProductRequest struct {
	Title       *string       `json:"title" validate:"omitempty,notblank,max=255"`
	Slug        *string       `json:"slug" validate:"omitempty,notblank,max=255"`
	Price       *float64      `json:"price" validate:"omitempty,gte=0,lte=9999999999.99"`
	Description *string       `json:"description"`
	Stock       *int          `json:"stock" validate:"omitempty,gte=0,max=2147483647"`
	Sizes       []string      `json:"sizes" validate:"omitempty,unique,dive,notblank,alphanumspace"`
	Gender      *model.Gender `json:"gender" validate:"omitempty,enum"`
	Tags        []string      `json:"tags" validate:"omitempty,dive,notblank"`
	Images      []string      `json:"images" validate:"omitempty,dive,notblank"`
}

func (req UpdateProductRequest) toParams() service.UpdateProductParams {
	params := service.UpdateProductParams{
		Title:       req.Title,
		Slug:        req.Slug,
		Description: req.Description,
		Stock:       req.Stock,
		Sizes:       req.Sizes,
		Gender:      req.Gender,
		Tags:        req.Tags,
		Images:      req.Images,
	}
	if req.Price != nil {
		price := decimal.NewFromFloat(*req.Price).Round(priceScale)
		params.Price = &price
	}
	return params
}

type ProductResponse struct {
	// ID is left out of the create response.
	ID          *uuid.UUID `json:"id,omitempty"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Price       float64    `json:"price"`
	Description *string    `json:"description"`
	Stock       int        `json:"stock"`
	Sizes       []string   `json:"sizes"`
	Gender      string     `json:"gender"`
	Tags        []string   `json:"tags"`
	Images      []string   `json:"images"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func newProductResponse(p model.Product) ProductResponse {
	id := p.ID
	return ProductResponse{
		ID:          &id,
		Title:       p.Title,
		Slug:        p.Slug,
		Price:       p.Price.InexactFloat64(),
		Description: p.Description,
		Stock:       p.Stock,
		Sizes:       nonNil(p.Sizes),
		Gender:      string(p.Gender),
		Tags:        nonNil(p.Tags),
		Images:      nonNil(p.Images),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type DeleteAllProductsResponse struct {
	Deleted int64 `json:"deleted"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
