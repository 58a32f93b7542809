package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"

	apicontract "github.com/tuanvumaihuynh/product-catalog/api-contract"
	"github.com/tuanvumaihuynh/product-catalog/internal/apperr"
	"github.com/tuanvumaihuynh/product-catalog/internal/config"
	"github.com/tuanvumaihuynh/product-catalog/internal/http/apierr"
	"github.com/tuanvumaihuynh/product-catalog/internal/http/metric"
	"github.com/tuanvumaihuynh/product-catalog/internal/http/middleware"
	"github.com/tuanvumaihuynh/product-catalog/internal/http/swagger"
	"github.com/tuanvumaihuynh/product-catalog/internal/service"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/db"
	"github.com/tuanvumaihuynh/product-catalog/pkg/validator"
)

var tracer = otel.Tracer("internal/http")

const healthPath = "/healthz"

// Service represents the HTTP service.
type Service struct {
	cfg      config.HTTP
	logger   *slog.Logger
	metrics  *metric.Metrics
	gatherer prometheus.Gatherer

	productSvc    service.ProductService
	healthChecker db.HealthChecker
}

type CleanupFunc func(ctx context.Context) error

type Option func(*Service)

// WithRegistry registers the HTTP metrics on reg and serves reg on /metrics
// instead of the default Prometheus registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Service) {
		s.metrics = metric.New(reg)
		s.gatherer = reg
	}
}

func New(
	cfg config.HTTP,
	log *slog.Logger,
	productSvc service.ProductService,
	healthChecker db.HealthChecker,
	opts ...Option,
) *Service {
	s := &Service{
		cfg:           cfg,
		logger:        log.With(slog.String("service", "http")),
		productSvc:    productSvc,
		healthChecker: healthChecker,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.metrics == nil {
		s.metrics = metric.New(prometheus.DefaultRegisterer)
		s.gatherer = prometheus.DefaultGatherer
	}

	return s
}

func (s *Service) Run(ctx context.Context) (CleanupFunc, error) {
	handler, err := s.Handler(ctx)
	if err != nil {
		return nil, err
	}

	return s.RunWithServer(ctx, handler)
}

// Handler builds the router with every middleware and route registered.
func (s *Service) Handler(ctx context.Context) (http.Handler, error) {
	doc, err := apicontract.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load api contract: %w", err)
	}

	r := chi.NewRouter()
	s.RegisterMiddlewares(r)

	if s.cfg.Swagger {
		if err := swagger.Register(r, doc); err != nil {
			return nil, fmt.Errorf("register swagger: %w", err)
		}
	}

	if err := s.RegisterHandlers(r, doc); err != nil {
		return nil, err
	}

	return r, nil
}

func (s *Service) RunWithServer(ctx context.Context, handler http.Handler) (CleanupFunc, error) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 16, // 64 KB
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			panic(err)
		}
	}()

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}, nil
}

func (s *Service) RegisterMiddlewares(r chi.Router) {
	r.Use(
		middleware.Recoverer(s.logger),
		middleware.Trace(tracer),
		middleware.Metrics(s.metrics),
		middleware.CorrelationID(),
		middleware.Cors(s.cfg.AllowedOrigins),
		middleware.Logging(s.logger),
	)
}

func (s *Service) RegisterHandlers(r chi.Router, doc *openapi3.T) error {
	contractValidator, err := middleware.OpenAPIValidator(doc, s.handleRequestError)
	if err != nil {
		return fmt.Errorf("create api contract validator: %w", err)
	}

	v, err := validator.NewDefaultValidator()
	if err != nil {
		return fmt.Errorf("create validator: %w", err)
	}

	h := newProductHandler(s.productSvc, v)

	r.Route("/api", func(r chi.Router) {
		r.Use(contractValidator)

		r.Route("/products", func(r chi.Router) {
			r.Post("/", s.handle(h.CreateProduct))
			r.Get("/", s.handle(h.ListProducts))
			r.Delete("/", s.handle(h.DeleteAllProducts))
			r.Get("/{id}", s.handle(h.FindProduct))
			r.Patch("/{id}", s.handle(h.UpdateProduct))
			r.Delete("/{id}", s.handle(h.DeleteProduct))
		})
	})

	r.Get(healthPath, s.handle(s.healthz))

	r.Handle(middleware.MetricsPath, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{
		ErrorLog: log.Default(),
	}))

	return nil
}

type handlerFunc func(w http.ResponseWriter, r *http.Request) error

func (s *Service) handle(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			s.handleResponseError(w, r, err)
		}
	}
}

func (s *Service) healthz(w http.ResponseWriter, r *http.Request) error {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	ok, err := s.healthChecker.IsHealthy(ctx)
	if err != nil || !ok {
		s.logger.WarnContext(r.Context(), "database is unhealthy", slog.Any("error", err))
		return writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
	}

	return writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Service) handleRequestError(w http.ResponseWriter, r *http.Request, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)

	err = apperr.ValidationErr.WrapParent(err)
	res := apierr.New(err)

	if err := json.NewEncoder(w).Encode(res); err != nil {
		s.logger.WarnContext(r.Context(), "error encoding error request",
			slog.Any("error", err))
	}
}

func (s *Service) handleResponseError(w http.ResponseWriter, r *http.Request, err error) {
	res := apierr.New(err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.StatusCode)

	logLevel := slog.LevelInfo
	if res.StatusCode >= 500 {
		logLevel = slog.LevelError
	} else if res.StatusCode >= 400 {
		logLevel = slog.LevelWarn
	}
	s.logger.Log(r.Context(), logLevel, "http response error", slog.Any("error", err))

	if err := json.NewEncoder(w).Encode(res); err != nil {
		s.logger.ErrorContext(r.Context(), "error encoding error response",
			slog.Any("error", err))
	}
}
