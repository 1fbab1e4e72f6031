package supabase

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/vengleap/rateworks/internal/domain"
	"github.com/vengleap/rateworks/internal/infra/resilience"
)

// --- Onboarding session API (implements port.OnboardingSessionStore) ---

// supabaseSession maps the onboarding_sessions table. Questions and
// collected data are stored as JSONB columns.
type supabaseSession struct {
	ID                   string                      `json:"id"`
	UserID               string                      `json:"user_id"`
	Status               string                      `json:"status"`
	CurrentQuestionIndex int                         `json:"current_question_index"`
	Questions            []domain.OnboardingQuestion `json:"questions"`
	CollectedData        map[string]any              `json:"collected_data"`
	StartedAt            string                      `json:"started_at"`
	CompletedAt          *string                     `json:"completed_at,omitempty"`
}

func (r supabaseSession) toDomain() *domain.OnboardingSession {
	started, _ := time.Parse(time.RFC3339, r.StartedAt)
	s := &domain.OnboardingSession{
		SessionID:            r.ID,
		UserID:               r.UserID,
		Status:               domain.SessionStatus(r.Status),
		CurrentQuestionIndex: r.CurrentQuestionIndex,
		Questions:            r.Questions,
		CollectedData:        r.CollectedData,
		StartedAt:            started,
	}
	if s.CollectedData == nil {
		s.CollectedData = make(map[string]any)
	}
	if r.CompletedAt != nil {
		if t, err := time.Parse(time.RFC3339, *r.CompletedAt); err == nil {
			s.CompletedAt = &t
		}
	}
	return s
}

func sessionRow(s *domain.OnboardingSession) supabaseSession {
	row := supabaseSession{
		ID:                   s.SessionID,
		UserID:               s.UserID,
		Status:               string(s.Status),
		CurrentQuestionIndex: s.CurrentQuestionIndex,
		Questions:            s.Questions,
		CollectedData:        s.CollectedData,
		StartedAt:            s.StartedAt.UTC().Format(time.RFC3339),
	}
	if s.CompletedAt != nil {
		v := s.CompletedAt.UTC().Format(time.RFC3339)
		row.CompletedAt = &v
	}
	return row
}

// CreateSession persists a freshly started session.
func (c *Client) CreateSession(ctx context.Context, s *domain.OnboardingSession) error {
	ctx, span := tracer.Start(ctx, "Supabase.CreateSession")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", s.SessionID))

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			_, err := c.doPost(ctx, "onboarding_sessions", sessionRow(s))
			return err
		})
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/onboarding_sessions", Err: err}
	}
	return nil
}

// GetSession fetches a session by its ID.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*domain.OnboardingSession, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetSession")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", sessionID))

	var session *domain.OnboardingSession

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("onboarding_sessions?id=eq.%s&limit=1", sessionID)
			body, err := c.doRequest(ctx, http.MethodGet, path, nil)
			if err != nil {
				return err
			}

			rows, err := decodeRows[supabaseSession](body)
			if err != nil {
				return fmt.Errorf("failed to decode session: %w", err)
			}
			if len(rows) == 0 {
				session = nil
				return nil
			}
			session = rows[0].toDomain()
			return nil
		})
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/onboarding_sessions", Err: err}
	}
	if session == nil {
		return nil, &domain.ErrNotFound{Resource: "onboarding_session", ID: sessionID}
	}
	return session, nil
}

// FindActiveSession returns the user's in_progress session, or nil when
// none exists.
func (c *Client) FindActiveSession(ctx context.Context, userID string) (*domain.OnboardingSession, error) {
	ctx, span := tracer.Start(ctx, "Supabase.FindActiveSession")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	var session *domain.OnboardingSession

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("onboarding_sessions?user_id=eq.%s&status=eq.in_progress&limit=1", userID)
			body, err := c.doRequest(ctx, http.MethodGet, path, nil)
			if err != nil {
				return err
			}

			rows, err := decodeRows[supabaseSession](body)
			if err != nil {
				return fmt.Errorf("failed to decode session: %w", err)
			}
			if len(rows) == 0 {
				session = nil
				return nil
			}
			session = rows[0].toDomain()
			return nil
		})
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/onboarding_sessions", Err: err}
	}
	return session, nil
}

// UpdateSession overwrites the stored session state.
func (c *Client) UpdateSession(ctx context.Context, s *domain.OnboardingSession) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateSession")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", s.SessionID))

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("onboarding_sessions?id=eq.%s", s.SessionID)
			return c.doPatch(ctx, path, sessionRow(s))
		})
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/onboarding_sessions", Err: err}
	}
	return nil
}
