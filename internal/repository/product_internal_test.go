package repository

import (
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/product-catalog/internal/model"
)

func TestDecimalNumericRoundTrip(t *testing.T) {
	for _, s := range []string{"19.99", "0", "75.00", "9999999999.99", "0.01"} {
		t.Run("Should round trip "+s, func(t *testing.T) {
			want := decimal.RequireFromString(s)

			n := decimalToNumeric(want)
			assert.True(t, n.Valid)

			got, err := numericToDecimal(n)
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "want %s, got %s", want, got)
		})
	}

	t.Run("Should keep the scale of the coefficient", func(t *testing.T) {
		n := decimalToNumeric(decimal.RequireFromString("19.99"))

		assert.Equal(t, int64(1999), n.Int.Int64())
		assert.Equal(t, int32(-2), n.Exp)
	})
}

func TestNumericToDecimal(t *testing.T) {
	t.Run("Should read positive exponent", func(t *testing.T) {
		got, err := numericToDecimal(pgtype.Numeric{Int: big.NewInt(12), Exp: 2, Valid: true})
		require.NoError(t, err)
		assert.Equal(t, "1200", got.String())
	})

	t.Run("Should read null as zero", func(t *testing.T) {
		got, err := numericToDecimal(pgtype.Numeric{})
		require.NoError(t, err)
		assert.True(t, got.IsZero())
	})

	t.Run("Should reject NaN", func(t *testing.T) {
		_, err := numericToDecimal(pgtype.Numeric{NaN: true, Valid: true})
		assert.Error(t, err)
	})

	t.Run("Should reject infinity", func(t *testing.T) {
		for _, inf := range []pgtype.InfinityModifier{pgtype.Infinity, pgtype.NegativeInfinity} {
			_, err := numericToDecimal(pgtype.Numeric{InfinityModifier: inf, Valid: true})
			assert.Error(t, err)
		}
	})
}

func TestToInt4(t *testing.T) {
	t.Run("Should accept the int4 range", func(t *testing.T) {
		for _, n := range []int{0, 7, math.MaxInt32, math.MinInt32} {
			got, err := toInt4(n)
			require.NoError(t, err)
			assert.Equal(t, int32(n), got)
		}
	})

	t.Run("Should reject values outside the int4 range", func(t *testing.T) {
		for _, n := range []int{math.MaxInt32 + 1, math.MinInt32 - 1, 3000000000} {
			_, err := toInt4(n)
			assert.ErrorIs(t, err, ErrOutOfRange)
		}
	})
}

func TestRowToModelProduct(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	id := uuid.MustParse("0199f1a2-7c3e-7d41-9a8b-3c2d1e0f4a5b")

	t.Run("Should map every column", func(t *testing.T) {
		desc := "soft"
		p, err := rowToModelProduct(productRow{
			ID:          id,
			Title:       "Women's Tee",
			Slug:        "womens_tee",
			Price:       decimalToNumeric(decimal.RequireFromString("19.99")),
			Description: &desc,
			Stock:       3,
			Sizes:       []string{"S", "M"},
			Gender:      "women",
			Tags:        []string{"shirt"},
			Images:      []string{"a.png", "b.png"},
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		require.NoError(t, err)

		assert.Equal(t, id, p.ID)
		assert.Equal(t, "womens_tee", p.Slug)
		assert.Equal(t, "19.99", p.Price.StringFixed(2))
		assert.Equal(t, &desc, p.Description)
		assert.Equal(t, 3, p.Stock)
		assert.Equal(t, model.GenderWomen, p.Gender)
		assert.Equal(t, []string{"a.png", "b.png"}, p.Images)
		assert.Equal(t, now, p.CreatedAt)
	})

	t.Run("Should turn nil arrays into empty slices", func(t *testing.T) {
		p, err := rowToModelProduct(productRow{
			ID:    id,
			Price: decimalToNumeric(decimal.Zero),
		})
		require.NoError(t, err)

		assert.NotNil(t, p.Sizes)
		assert.NotNil(t, p.Tags)
		assert.NotNil(t, p.Images)
		assert.Empty(t, p.Images)
	})

	t.Run("Should fail on non-finite price", func(t *testing.T) {
		_, err := rowToModelProduct(productRow{Price: pgtype.Numeric{NaN: true, Valid: true}})
		assert.ErrorContains(t, err, "convert price")
	})
}
