package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/tuanvumaihuynh/product-catalog/pkg/zerror"
)

var meter = otel.Meter("internal/service")

type metrics struct {
	operations metric.Int64Counter
}

func newMetrics() *metrics {
	operations, err := meter.Int64Counter(
		"products.operations",
		metric.WithDescription("Total number of product operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		otel.Handle(err)
		operations = noop.Int64Counter{}
	}

	return &metrics{operations: operations}
}

// finish records the outcome of op on the span and the operations counter,
// then ends the span.
func (s *productService) finish(ctx context.Context, span trace.Span, op string, err error) {
	defer span.End()

	result := "success"
	if err != nil {
		result = "failure"

		var zErr zerror.ZError
		isZErr := errors.As(err, &zErr)
		if isZErr {
			result = zErr.Code()
		}
		if !isZErr || zErr.Status() == zerror.StatusInternalServerError {
			span.RecordError(err)
			span.SetStatus(codes.Error, op+" failed")
		}
	}

	s.metrics.operations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("result", result),
	))
}

func withProductID(id uuid.UUID) trace.SpanStartOption {
	return trace.WithAttributes(attribute.String("product.id", id.String()))
}
