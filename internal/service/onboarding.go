package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/vengleap/rateworks/internal/domain"
	"github.com/vengleap/rateworks/internal/infra/observability"
	"github.com/vengleap/rateworks/internal/port"
)

var onboardingTracer = otel.Tracer("service/onboarding")

// maxAnswerLength caps raw questionnaire answers before any processing.
const maxAnswerLength = 500

// numericJunk strips everything that cannot be part of a number, so
// answers like "$1,200 per month" still parse.
var numericJunk = regexp.MustCompile(`[^0-9.\-]`)

// arraySeparators splits list answers on commas, semicolons and newlines.
var arraySeparators = regexp.MustCompile(`[,;\n]`)

// Onboarding drives the guided questionnaire that collects rate inputs.
type Onboarding struct {
	sessions    port.OnboardingSessionStore
	interpreter port.AnswerInterpreter
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// NewOnboarding creates the onboarding service with all dependencies injected.
func NewOnboarding(
	sessions port.OnboardingSessionStore,
	interpreter port.AnswerInterpreter,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Onboarding {
	return &Onboarding{
		sessions:    sessions,
		interpreter: interpreter,
		metrics:     metrics,
		logger:      logger,
	}
}

// AnswerOutcome reports what happened to one submitted answer.
type AnswerOutcome struct {
	Accepted      bool                       `json:"accepted"`
	Feedback      string                     `json:"feedback,omitempty"`
	SessionStatus domain.SessionStatus       `json:"session_status"`
	Completed     bool                       `json:"completed"`
	NextQuestion  *domain.OnboardingQuestion `json:"next_question,omitempty"`
	Progress      domain.Progress            `json:"progress"`
	CollectedData map[string]any             `json:"collected_data,omitempty"`
}

// StartSession opens a fresh questionnaire session for the user. Any
// in_progress session the user still has is abandoned first, so at most
// one active session exists per user.
func (o *Onboarding) StartSession(ctx context.Context, userID string) (*domain.OnboardingSession, error) {
	ctx, span := onboardingTracer.Start(ctx, "Onboarding.StartSession")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	start := time.Now()
	defer func() {
		o.metrics.RecordRequestDuration("onboarding_start", time.Since(start))
	}()

	if userID == "" {
		return nil, &domain.ErrValidation{Field: "user_id", Message: "is required"}
	}

	existing, err := o.sessions.FindActiveSession(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find active session: %w", err)
	}
	if existing != nil {
		existing.MarkAbandoned()
		if err := o.sessions.UpdateSession(ctx, existing); err != nil {
			return nil, fmt.Errorf("abandon previous session: %w", err)
		}
		o.logger.Info("abandoned previous onboarding session",
			zap.String("user_id", userID),
			zap.String("session_id", existing.SessionID),
		)
	}

	session := domain.NewOnboardingSession(uuid.NewString(), userID)
	if err := o.sessions.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	o.logger.Info("onboarding session started",
		zap.String("user_id", userID),
		zap.String("session_id", session.SessionID),
	)
	return session, nil
}

// GetSession loads a session for its owner.
func (o *Onboarding) GetSession(ctx context.Context, sessionID, userID string) (*domain.OnboardingSession, error) {
	ctx, span := onboardingTracer.Start(ctx, "Onboarding.GetSession")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", sessionID))

	session, err := o.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, &domain.ErrForbidden{Action: "access onboarding session"}
	}
	return session, nil
}

// AnswerQuestion validates one answer against the current question,
// stores it, and advances the session. Invalid answers leave the session
// on the same question with feedback for the user.
func (o *Onboarding) AnswerQuestion(ctx context.Context, sessionID, userID, rawAnswer string) (*AnswerOutcome, error) {
	ctx, span := onboardingTracer.Start(ctx, "Onboarding.AnswerQuestion")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", sessionID))

	start := time.Now()
	defer func() {
		o.metrics.RecordRequestDuration("onboarding_answer", time.Since(start))
	}()

	if len(rawAnswer) > maxAnswerLength {
		return nil, &domain.ErrValidation{
			Field:   "answer",
			Message: fmt.Sprintf("must be at most %d characters", maxAnswerLength),
		}
	}

	session, err := o.GetSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.SessionInProgress {
		return nil, &domain.ErrValidation{
			Field:   "session",
			Message: fmt.Sprintf("session is %s, not in_progress", session.Status),
		}
	}
	question := session.CurrentQuestion()
	if question == nil {
		return nil, &domain.ErrValidation{Field: "session", Message: "no question left to answer"}
	}

	interpretation := o.interpretAnswer(ctx, question, rawAnswer)
	if !interpretation.IsValid {
		return &AnswerOutcome{
			Accepted:      false,
			Feedback:      interpretation.Feedback,
			SessionStatus: session.Status,
			NextQuestion:  question,
			Progress:      session.GetProgress(),
		}, nil
	}

	// The interpreter's value is re-checked against the question rules;
	// model output is not trusted to enforce them.
	if feedback, ok := checkRules(question, interpretation.NormalizedValue); !ok {
		return &AnswerOutcome{
			Accepted:      false,
			Feedback:      feedback,
			SessionStatus: session.Status,
			NextQuestion:  question,
			Progress:      session.GetProgress(),
		}, nil
	}

	if err := session.AnswerCurrent(interpretation.NormalizedValue); err != nil {
		return nil, err
	}
	session.Advance()

	outcome := &AnswerOutcome{
		Accepted: true,
		Feedback: interpretation.Feedback,
	}
	if session.IsComplete() {
		session.MarkCompleted()
		outcome.Completed = true
		outcome.CollectedData = session.CollectedData
	} else {
		outcome.NextQuestion = session.CurrentQuestion()
	}
	outcome.SessionStatus = session.Status
	outcome.Progress = session.GetProgress()

	if err := o.sessions.UpdateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	return outcome, nil
}

// interpretAnswer asks the AI interpreter to normalize the answer and
// falls back to deterministic parsing when the interpreter is down.
func (o *Onboarding) interpretAnswer(ctx context.Context, q *domain.OnboardingQuestion, rawAnswer string) *domain.AnswerInterpretation {
	req := &domain.AnswerInterpretationRequest{
		QuestionKey:  q.Key,
		ExpectedType: q.ExpectedType,
		UserAnswer:   rawAnswer,
		Rules:        q.Rules,
	}
	result, err := o.interpreter.InterpretAnswer(ctx, req)
	if err != nil {
		o.logger.Warn("answer interpreter unavailable, using basic validation",
			zap.String("question_key", q.Key),
			zap.Error(err),
		)
		o.metrics.IncrExternalError("research")
		return basicValidation(q, rawAnswer)
	}
	return result
}

// basicValidation is the deterministic fallback parser used when the AI
// interpreter cannot be reached.
func basicValidation(q *domain.OnboardingQuestion, rawAnswer string) *domain.AnswerInterpretation {
	switch q.ExpectedType {
	case domain.QuestionNumber:
		cleaned := numericJunk.ReplaceAllString(rawAnswer, "")
		value, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return &domain.AnswerInterpretation{
				IsValid:  false,
				Feedback: "Please provide a number.",
			}
		}
		return &domain.AnswerInterpretation{IsValid: true, NormalizedValue: value}

	case domain.QuestionArray:
		parts := arraySeparators.Split(rawAnswer, -1)
		items := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				items = append(items, trimmed)
			}
		}
		if len(items) == 0 {
			return &domain.AnswerInterpretation{
				IsValid:  false,
				Feedback: "Please list at least one item.",
			}
		}
		return &domain.AnswerInterpretation{IsValid: true, NormalizedValue: items}

	default:
		trimmed := strings.TrimSpace(rawAnswer)
		if trimmed == "" {
			return &domain.AnswerInterpretation{
				IsValid:  false,
				Feedback: "Please provide an answer.",
			}
		}
		return &domain.AnswerInterpretation{IsValid: true, NormalizedValue: trimmed}
	}
}

// checkRules enforces the question's validation rules on a normalized
// value. Returns user-facing feedback when the value is out of bounds.
func checkRules(q *domain.OnboardingQuestion, value any) (string, bool) {
	if q.Rules == nil {
		return "", true
	}

	switch v := value.(type) {
	case float64:
		if q.Rules.Min != nil && v < *q.Rules.Min {
			return fmt.Sprintf("Value must be at least %v.", *q.Rules.Min), false
		}
		if q.Rules.Max != nil && v > *q.Rules.Max {
			return fmt.Sprintf("Value must be at most %v.", *q.Rules.Max), false
		}
	case string:
		if q.Rules.Required && strings.TrimSpace(v) == "" {
			return "An answer is required.", false
		}
		if q.Rules.Pattern != "" {
			re, err := regexp.Compile("^(" + q.Rules.Pattern + ")$")
			if err != nil || !re.MatchString(strings.ToLower(strings.TrimSpace(v))) {
				return fmt.Sprintf("Answer must match one of: %s.", q.Rules.Pattern), false
			}
		}
	case []string:
		if q.Rules.Required && len(v) == 0 {
			return "At least one item is required.", false
		}
	default:
		if q.Rules.Required && value == nil {
			return "An answer is required.", false
		}
	}
	return "", true
}
