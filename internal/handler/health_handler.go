package handler

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/vengleap/rateworks/internal/domain"
	"github.com/vengleap/rateworks/internal/infra/observability"
	"github.com/vengleap/rateworks/internal/port"
)

// healthzHandler probes the category catalog as a cheap liveness check of
// the backing store.
func healthzHandler(categories port.CategoryStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "rateworks-api", Status: "healthy", LatencyMs: 0, LastChecked: now},
		}

		if categories != nil {
			start := time.Now()
			_, err := categories.ListCategories(ctx)
			latency := time.Since(start).Milliseconds()
			status := "healthy"
			if err != nil {
				status = "degraded"
				logger.Warn("store health probe failed", zap.Error(err))
			}
			services = append(services, domain.ServiceHealth{
				Name: "supabase", Status: status, LatencyMs: latency, LastChecked: now,
			})
		}

		overall := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overall = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overall = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overall,
			Services: services,
		})
	}
}

func researchMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetResearchSnapshot())
	}
}
