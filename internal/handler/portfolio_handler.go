package handler

import (
	"encoding/json"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/vengleap/rateworks/internal/service"
)

func portfolioAssistHandler(svc *service.Portfolio, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/portfolio/assist")
		defer span.End()

		userID := UserIDFromContext(ctx)
		span.SetAttributes(attribute.String("user.id", userID))

		var req service.PortfolioRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		rec, err := svc.Recommend(ctx, userID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func portfolioAcceptHandler(svc *service.Portfolio, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/portfolio/accept")
		defer span.End()

		userID := UserIDFromContext(ctx)
		span.SetAttributes(attribute.String("user.id", userID))

		var req service.AcceptRateInput
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		result, err := svc.AcceptRate(ctx, userID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		status := http.StatusOK
		if result.Action == "created" {
			status = http.StatusCreated
		}
		writeJSON(w, status, result)
	}
}
