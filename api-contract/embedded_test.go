package apicontract_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apicontract "github.com/tuanvumaihuynh/product-catalog/api-contract"
)

func TestLoad(t *testing.T) {
	t.Run("Should load and validate embedded api contract", func(t *testing.T) {
		doc, err := apicontract.Load(context.Background())
		require.NoError(t, err)

		assert.NotNil(t, doc.Paths.Find("/api/products"))
		assert.NotNil(t, doc.Paths.Find("/api/products/{id}"))
	})
}
