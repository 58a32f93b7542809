package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apicontract "github.com/tuanvumaihuynh/product-catalog/api-contract"
	"github.com/tuanvumaihuynh/product-catalog/internal/http/apierr"
	"github.com/tuanvumaihuynh/product-catalog/internal/http/metric"
	"github.com/tuanvumaihuynh/product-catalog/internal/http/middleware"
	"github.com/tuanvumaihuynh/product-catalog/pkg/correlationid"
)

func TestRecoverer(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	t.Run("Should return internal error on panic", func(t *testing.T) {
		h := middleware.Recoverer(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("boom")
		}))

		resp := httptest.NewRecorder()
		h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/products", nil))

		assert.Equal(t, http.StatusInternalServerError, resp.Code)

		var body apierr.ErrorResponse
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		assert.Equal(t, apierr.InternalServerErr.Code, body.Code)
		assert.Contains(t, buf.String(), "boom")
		assert.Contains(t, buf.String(), "/api/products")
	})

	t.Run("Should re-panic on abort handler", func(t *testing.T) {
		h := middleware.Recoverer(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic(http.ErrAbortHandler)
		}))

		assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		})
	})
}

func TestCorrelationID(t *testing.T) {
	var seen string
	h := middleware.CorrelationID()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen, _ = correlationid.FromContext(r.Context())
	}))

	t.Run("Should reuse incoming id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(correlationid.Header, "abc-123")
		resp := httptest.NewRecorder()

		h.ServeHTTP(resp, req)

		assert.Equal(t, "abc-123", seen)
		assert.Equal(t, "abc-123", resp.Header().Get(correlationid.Header))
	})

	t.Run("Should mint id when missing", func(t *testing.T) {
		resp := httptest.NewRecorder()

		h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, resp.Header().Get(correlationid.Header))
	})
}

func TestCors(t *testing.T) {
	h := middleware.Cors([]string{"https://shop.example.com"})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("Should answer preflight for allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/products", nil)
		req.Header.Set("Origin", "https://shop.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
		resp := httptest.NewRecorder()

		h.ServeHTTP(resp, req)

		assert.Equal(t, "https://shop.example.com", resp.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, resp.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch)
	})

	t.Run("Should not allow unknown origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		resp := httptest.NewRecorder()

		h.ServeHTTP(resp, req)

		assert.Empty(t, resp.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestMetrics(t *testing.T) {
	t.Run("Should label requests by route pattern", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		m := metric.New(reg)

		r := chi.NewRouter()
		r.Use(middleware.Metrics(m))
		r.Get("/api/products/{id}", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		for _, id := range []string{"a", "b"} {
			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/products/"+id, nil))
		}

		assert.Equal(t, 2.0, testutil.ToFloat64(
			m.RequestsTotal.WithLabelValues(http.MethodGet, "/api/products/{id}", "404")))
		assert.Equal(t, 0.0, testutil.ToFloat64(m.InflightRequests))
	})
}

func TestLogging(t *testing.T) {
	t.Run("Should log request with warn level on client error", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))

		h := middleware.Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/products", nil))

		assert.Contains(t, buf.String(), `"level":"WARN"`)
		assert.Contains(t, buf.String(), `"status":400`)
	})

	t.Run("Should skip health checks", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))

		h := middleware.Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Empty(t, buf.String())
	})
}

func TestOpenAPIValidator(t *testing.T) {
	doc, err := apicontract.Load(context.Background())
	require.NoError(t, err)
	servers := doc.Servers

	var gotErr error
	validate, err := middleware.OpenAPIValidator(doc, func(w http.ResponseWriter, _ *http.Request, err error) {
		gotErr = err
		w.WriteHeader(http.StatusBadRequest)
	})
	require.NoError(t, err)
	assert.Equal(t, servers, doc.Servers)

	var reached bool
	h := validate(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("Should reject body missing required field", func(t *testing.T) {
		reached, gotErr = false, nil
		req := httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(`{"gender":"men"}`))
		req.Header.Set("Content-Type", "application/json")
		resp := httptest.NewRecorder()

		h.ServeHTTP(resp, req)

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.False(t, reached)
		assert.Error(t, gotErr)
	})

	t.Run("Should pass valid request", func(t *testing.T) {
		reached, gotErr = false, nil
		req := httptest.NewRequest(http.MethodGet, "/api/products?limit=5", nil)
		resp := httptest.NewRecorder()

		h.ServeHTTP(resp, req)

		assert.True(t, reached)
		assert.NoError(t, gotErr)
	})

	t.Run("Should pass routes outside the contract", func(t *testing.T) {
		reached = false
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.True(t, reached)
	})
}
