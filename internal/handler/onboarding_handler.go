package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/vengleap/rateworks/internal/service"
)

// onboardingStartResponse is the payload for a freshly opened session.
type onboardingStartResponse struct {
	SessionID     string `json:"session_id"`
	Status        string `json:"status"`
	FirstQuestion any    `json:"first_question"`
	Progress      any    `json:"progress"`
}

func onboardingStartHandler(svc *service.Onboarding, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/onboarding/start")
		defer span.End()

		userID := UserIDFromContext(ctx)
		span.SetAttributes(attribute.String("user.id", userID))

		session, err := svc.StartSession(ctx, userID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, onboardingStartResponse{
			SessionID:     session.SessionID,
			Status:        string(session.Status),
			FirstQuestion: session.CurrentQuestion(),
			Progress:      session.GetProgress(),
		})
	}
}

type onboardingAnswerRequest struct {
	SessionID string `json:"session_id"`
	Answer    string `json:"answer"`
}

type onboardingAnswerResponse struct {
	IsValid       bool   `json:"is_valid"`
	Error         string `json:"error,omitempty"`
	SessionStatus string `json:"session_status"`
	Complete      bool   `json:"complete"`
	NextQuestion  any    `json:"next_question,omitempty"`
	Progress      any    `json:"progress"`
	CollectedData any    `json:"collected_data,omitempty"`
}

func onboardingAnswerHandler(svc *service.Onboarding, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/onboarding/answer")
		defer span.End()

		var req onboardingAnswerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.SessionID == "" {
			writeError(w, http.StatusBadRequest, "session_id is required")
			return
		}
		span.SetAttributes(attribute.String("session.id", req.SessionID))

		userID := UserIDFromContext(ctx)
		outcome, err := svc.AnswerQuestion(ctx, req.SessionID, userID, req.Answer)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		resp := onboardingAnswerResponse{
			IsValid:       outcome.Accepted,
			SessionStatus: string(outcome.SessionStatus),
			Complete:      outcome.Completed,
			Progress:      outcome.Progress,
		}
		if !outcome.Accepted {
			resp.Error = outcome.Feedback
		}
		if outcome.NextQuestion != nil {
			resp.NextQuestion = outcome.NextQuestion
		}
		if outcome.Completed {
			resp.CollectedData = outcome.CollectedData
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func onboardingGetHandler(svc *service.Onboarding, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/onboarding/sessions/{sessionId}")
		defer span.End()

		sessionID := chi.URLParam(r, "sessionId")
		if sessionID == "" {
			writeError(w, http.StatusBadRequest, "sessionId is required")
			return
		}
		span.SetAttributes(attribute.String("session.id", sessionID))

		session, err := svc.GetSession(ctx, sessionID, UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, session)
	}
}
