package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Gender string

const (
	GenderMen    Gender = "men"
	GenderWomen  Gender = "women"
	GenderKid    Gender = "kid"
	GenderUnisex Gender = "unisex"
)

// Validate reports whether g is a known gender label.
func (g Gender) Validate() error {
	switch g {
	case GenderMen, GenderWomen, GenderKid, GenderUnisex:
		return nil
	default:
		return fmt.Errorf("unknown gender: %q", string(g))
	}
}

type Product struct {
	ID          uuid.UUID       `json:"id"`
	Title       string          `json:"title"`
	Slug        string          `json:"slug"`
	Price       decimal.Decimal `json:"price"`
	Description *string         `json:"description"`
	Stock       int             `json:"stock"`
	Sizes       []string        `json:"sizes"`
	Gender      Gender          `json:"gender"`
	Tags        []string        `json:"tags"`
	// Images holds image URLs in their stored order.
	Images    []string  `json:"images"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ProductImage struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	URL       string
	Position  int
}
