package validator_test

import (
	"errors"
	"testing"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/product-catalog/pkg/validator"
)

type sample struct {
	Title string   `json:"title" validate:"required,notblank"`
	Sizes []string `json:"sizes" validate:"unique"`
	Stock int      `json:"stock" validate:"gte=0"`
	Note  string   `validate:"omitempty,alphanumspace"`
}

func TestDefaultValidator(t *testing.T) {
	v, err := validator.NewDefaultValidator()
	require.NoError(t, err)

	t.Run("Should accept a valid struct", func(t *testing.T) {
		assert.NoError(t, v.Validate(sample{Title: "Tee", Sizes: []string{"S", "M"}, Note: "ok 1"}))
	})

	t.Run("Should report json field names", func(t *testing.T) {
		err := v.Validate(sample{Title: "  ", Sizes: []string{"S", "S"}, Stock: -1, Note: "no!"})
		require.Error(t, err)
		assert.True(t, validator.IsValidationError(err))

		var verrs govalidator.ValidationErrors
		require.True(t, errors.As(err, &verrs))

		got := map[string]string{}
		for _, fe := range verrs {
			got[fe.Field()] = validator.ValidationErrorMessage(fe)
		}
		assert.Equal(t, map[string]string{
			"title": "must not be blank",
			"sizes": "must not contain duplicates",
			"stock": "must be greater than or equal to 0",
			"Note":  "must contain only alphanumeric characters and spaces",
		}, got)
	})
}
