package middleware

import (
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers/gorillamux"
)

// OpenAPIValidator rejects requests that do not match the contract in doc.
// Requests for routes the contract does not describe are passed through
// untouched.
func OpenAPIValidator(doc *openapi3.T, onError func(http.ResponseWriter, *http.Request, error)) (func(http.Handler) http.Handler, error) {
	// match on path only, whatever host the server is reached through
	routed := *doc
	routed.Servers = nil

	router, err := gorillamux.NewRouter(&routed)
	if err != nil {
		return nil, fmt.Errorf("create openapi router: %w", err)
	}

	opts := &openapi3filter.Options{
		AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, pathParams, err := router.FindRoute(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			input := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: pathParams,
				Route:      route,
				Options:    opts,
			}
			if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
				onError(w, r, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}, nil
}
