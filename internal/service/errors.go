package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tuanvumaihuynh/product-catalog/internal/apperr"
	"github.com/tuanvumaihuynh/product-catalog/internal/repository"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/db"
	"github.com/tuanvumaihuynh/product-catalog/pkg/zerror"
)

type translateOption func(*translateOptions)

type translateOptions struct {
	notFoundMsg string
}

func notFoundMsg(format string, args ...any) translateOption {
	return func(o *translateOptions) {
		o.notFoundMsg = fmt.Sprintf(format, args...)
	}
}

// translateError maps store failures to application errors. Missing rows and
// foreign key violations on the owning product become not found, unique
// violations a conflict and out of range values a validation error. Anything
// else is logged and hidden behind apperr.InternalErr.
func (s *productService) translateError(ctx context.Context, op string, err error, opts ...translateOption) error {
	var o translateOptions
	for _, opt := range opts {
		opt(&o)
	}

	var zErr zerror.ZError
	if errors.As(err, &zErr) {
		return err
	}

	if errors.Is(err, repository.ErrNotFound) || db.IsForeignKeyViolation(err) {
		notFound := apperr.ProductNotFoundErr
		if o.notFoundMsg != "" {
			notFound = notFound.WithMsg(o.notFoundMsg)
		}
		return notFound.WrapParent(err)
	}

	if v, ok := db.AsUniqueViolation(err); ok {
		msg := "unique constraint failed"
		if len(v.Columns) > 0 {
			msg = fmt.Sprintf("unique constraint failed on the fields: %s", strings.Join(v.Columns, ", "))
		}
		return apperr.ProductConflictErr.WithMsg(msg).WrapParent(err)
	}

	if errors.Is(err, repository.ErrOutOfRange) || db.IsNumericOutOfRange(err) {
		return apperr.ValidationErr.WithMsg("value out of range").WrapParent(err)
	}

	s.logger.ErrorContext(ctx, "unexpected product error",
		slog.String("operation", op),
		slog.Any("error", err),
	)

	return apperr.InternalErr.WrapParent(err)
}
