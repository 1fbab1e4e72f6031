package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/vengleap/rateworks/internal/domain"
	"github.com/vengleap/rateworks/internal/service"
)

// parseCategoryIDs reads a comma-separated ?category_ids= query value.
func parseCategoryIDs(r *http.Request) []int64 {
	raw := r.URL.Query().Get("category_ids")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		if id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64); err == nil && id > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

func getBenchmarksHandler(svc *service.Benchmark, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/benchmarks")
		defer span.End()

		userID := UserIDFromContext(ctx)
		span.SetAttributes(attribute.String("user.id", userID))

		overview, err := svc.GetBenchmarks(ctx, userID,
			parseCategoryIDs(r),
			r.URL.Query().Get("seniority"),
			r.URL.Query().Get("region"),
		)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, overview)
	}
}

func benchmarkLookupHandler(svc *service.Benchmark, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/benchmarks/lookup")
		defer span.End()

		category := r.URL.Query().Get("category")
		seniority := r.URL.Query().Get("seniority")
		if seniority == "" {
			seniority = string(domain.SeniorityMid)
		}
		region := r.URL.Query().Get("region")
		span.SetAttributes(attribute.String("category.query", category))

		result, err := svc.Lookup(ctx, category, seniority, region)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func upsertBenchmarkHandler(svc *service.Benchmark, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/benchmarks")
		defer span.End()

		var bm domain.MarketBenchmark
		if err := json.NewDecoder(r.Body).Decode(&bm); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		span.SetAttributes(attribute.Int64("benchmark.category_id", bm.CategoryID))

		if err := svc.UpsertBenchmark(ctx, &bm); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, bm)
	}
}
