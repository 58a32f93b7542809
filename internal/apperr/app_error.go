package apperr

import "github.com/tuanvumaihuynh/product-catalog/pkg/zerror"

const (
	ValidationErrorCode = "VALIDATION_FAILED"
	ProductNotFoundCode = "PRODUCT_NOT_FOUND"
	ProductConflictCode = "PRODUCT_CONFLICT"
	InternalErrorCode   = "INTERNAL_ERROR"
)

var (
	ValidationErr      = zerror.NewValidationFailed(ValidationErrorCode, "validation error")
	ProductNotFoundErr = zerror.NewNotFound(ProductNotFoundCode, "product not found")
	// ProductConflictErr is a client error: the request collides with an
	// existing product on a unique field.
	ProductConflictErr = zerror.NewBadRequest(ProductConflictCode, "unique constraint failed")
	InternalErr        = zerror.NewInternalServerError(InternalErrorCode, "unexpected error, check server logs")
)
