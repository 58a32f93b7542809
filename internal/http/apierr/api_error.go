package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	govalidator "github.com/go-playground/validator/v10"

	"github.com/tuanvumaihuynh/product-catalog/internal/apperr"
	"github.com/tuanvumaihuynh/product-catalog/pkg/validator"
	"github.com/tuanvumaihuynh/product-catalog/pkg/zerror"
)

// FieldError describes why a single request field was rejected.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorResponse is the error response for the API.
type ErrorResponse struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`

	// StatusCode is the status code for the error response.
	StatusCode int `json:"-"`
}

func New(err error) ErrorResponse {
	return errorToErrorResponse(err)
}

var InternalServerErr = ErrorResponse{
	Code:       apperr.InternalErrorCode,
	Message:    "an unknown error occurred",
	StatusCode: http.StatusInternalServerError,
}

// errorToErrorResponse never exposes the parent of an error, only its code,
// message and, for validation failures, the offending fields.
func errorToErrorResponse(err error) ErrorResponse {
	var zErr zerror.ZError
	if errors.As(err, &zErr) {
		res := ErrorResponse{
			Code:       zErr.Code(),
			Message:    zErr.Msg(),
			StatusCode: ZErrorStatusToHTTPStatus(zErr.Status()),
		}
		if zErr.Status() == zerror.StatusValidationFailed {
			res.Details = fieldErrors(zErr.Parent())
		}
		return res
	}

	if details := fieldErrors(err); details != nil {
		return ErrorResponse{
			Code:       apperr.ValidationErrorCode,
			Message:    apperr.ValidationErr.Msg(),
			Details:    details,
			StatusCode: http.StatusBadRequest,
		}
	}

	return InternalServerErr
}

func fieldErrors(err error) []FieldError {
	if err == nil {
		return nil
	}

	var validationErrs govalidator.ValidationErrors
	if errors.As(err, &validationErrs) {
		details := make([]FieldError, len(validationErrs))
		for i, fe := range validationErrs {
			details[i] = FieldError{
				Field:   fieldPath(fe.Namespace()),
				Message: validator.ValidationErrorMessage(fe),
			}
		}
		return details
	}

	var reqErr *openapi3filter.RequestError
	if errors.As(err, &reqErr) {
		return []FieldError{requestFieldError(reqErr)}
	}

	return nil
}

func requestFieldError(reqErr *openapi3filter.RequestError) FieldError {
	fe := FieldError{Field: "body", Message: reqErr.Reason}
	if reqErr.Parameter != nil {
		fe.Field = reqErr.Parameter.Name
	}

	var schemaErr *openapi3.SchemaError
	if errors.As(reqErr.Err, &schemaErr) {
		if pointer := schemaErr.JSONPointer(); reqErr.Parameter == nil && len(pointer) > 0 {
			fe.Field = strings.Join(pointer, ".")
		}
		fe.Message = schemaErr.Reason
	}

	if fe.Message == "" && reqErr.Err != nil {
		fe.Message = reqErr.Err.Error()
	}
	if fe.Message == "" {
		fe.Message = fmt.Sprintf("invalid %s", fe.Field)
	}

	return fe
}

// fieldPath drops the struct name validator puts in front of every namespace.
func fieldPath(namespace string) string {
	_, path, ok := strings.Cut(namespace, ".")
	if !ok {
		return namespace
	}
	return path
}

func ZErrorStatusToHTTPStatus(status zerror.Status) int {
	switch status {
	case zerror.StatusUnauthorized:
		return http.StatusUnauthorized
	case zerror.StatusForbidden:
		return http.StatusForbidden
	case zerror.StatusNotFound:
		return http.StatusNotFound
	case zerror.StatusUnprocessableEntity:
		return http.StatusUnprocessableEntity
	case zerror.StatusConflict:
		return http.StatusConflict
	case zerror.StatusTooManyRequests:
		return http.StatusTooManyRequests
	case zerror.StatusBadRequest:
		return http.StatusBadRequest
	case zerror.StatusValidationFailed:
		return http.StatusBadRequest
	case zerror.StatusUnknown, zerror.StatusInternalServerError:
		return http.StatusInternalServerError
	case zerror.StatusTimeout:
		return http.StatusGatewayTimeout
	case zerror.StatusNotImplemented:
		return http.StatusNotImplemented
	case zerror.StatusBadGateway:
		return http.StatusBadGateway
	case zerror.StatusServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
