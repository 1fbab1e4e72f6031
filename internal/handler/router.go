package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/vengleap/rateworks/internal/infra/observability"
	"github.com/vengleap/rateworks/internal/port"
	"github.com/vengleap/rateworks/internal/service"
)

var tracer = otel.Tracer("handler")

// Services bundles the service layer the router dispatches to.
type Services struct {
	Onboarding *service.Onboarding
	Pricing    *service.Pricing
	Benchmark  *service.Benchmark
	Portfolio  *service.Portfolio
}

// NewRouter creates the HTTP router with all routes and middleware.
// Every /v1 rate route requires a Bearer token; health and metrics are open.
func NewRouter(svcs Services, categories port.CategoryStore, metrics *observability.Metrics, logger *zap.Logger, jwtSecret string) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(categories, logger))
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Get("/metrics/research", researchMetricsHandler(metrics))

		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(jwtSecret, logger))

			// Guided onboarding questionnaire
			r.Post("/onboarding/start", onboardingStartHandler(svcs.Onboarding, logger))
			r.Post("/onboarding/answer", onboardingAnswerHandler(svcs.Onboarding, logger))
			r.Get("/onboarding/sessions/{sessionId}", onboardingGetHandler(svcs.Onboarding, logger))

			// Rate calculation
			r.Post("/rates/base", baseRateHandler(svcs.Pricing, logger))
			r.Post("/rates/project", projectRateHandler(svcs.Pricing, logger))

			// Market benchmarks
			r.Get("/benchmarks", getBenchmarksHandler(svcs.Benchmark, logger))
			r.Post("/benchmarks", upsertBenchmarkHandler(svcs.Benchmark, logger))
			r.Get("/benchmarks/lookup", benchmarkLookupHandler(svcs.Benchmark, logger))

			// Portfolio-assisted pricing
			r.Post("/portfolio/assist", portfolioAssistHandler(svcs.Portfolio, logger))
			r.Post("/portfolio/accept", portfolioAcceptHandler(svcs.Portfolio, logger))
		})
	})

	return r
}
