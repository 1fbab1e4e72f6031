package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/vengleap/rateworks/internal/domain"
	"github.com/vengleap/rateworks/internal/infra/observability"
	"github.com/vengleap/rateworks/internal/service"
)

func newOnboarding(sessions *mockSessionStore, interpreter *mockInterpreter) *service.Onboarding {
	return service.NewOnboarding(sessions, interpreter, observability.NewMetrics(), zap.NewNop())
}

func TestStartSession_AbandonsExistingActiveSession(t *testing.T) {
	store := newMockSessionStore()
	previous := domain.NewOnboardingSession("sess-old", "user-1")
	store.sessions[previous.SessionID] = previous
	store.active = previous

	svc := newOnboarding(store, &mockInterpreter{})

	session, err := svc.StartSession(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if previous.Status != domain.SessionAbandoned {
		t.Errorf("expected previous session abandoned, got %q", previous.Status)
	}
	if session.SessionID == previous.SessionID {
		t.Error("expected a fresh session id")
	}
	if session.Status != domain.SessionInProgress {
		t.Errorf("expected new session in_progress, got %q", session.Status)
	}
	if len(session.Questions) != 10 {
		t.Errorf("expected 10 questions, got %d", len(session.Questions))
	}
}

func TestStartSession_RequiresUserID(t *testing.T) {
	svc := newOnboarding(newMockSessionStore(), &mockInterpreter{})

	_, err := svc.StartSession(context.Background(), "")
	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestAnswerQuestion_AcceptsAndAdvances(t *testing.T) {
	store := newMockSessionStore()
	session := domain.NewOnboardingSession("sess-1", "user-1")
	store.sessions[session.SessionID] = session

	interpreter := &mockInterpreter{
		result: &domain.AnswerInterpretation{IsValid: true, NormalizedValue: 150.0},
	}
	svc := newOnboarding(store, interpreter)

	outcome, err := svc.AnswerQuestion(context.Background(), "sess-1", "user-1", "about 150 dollars")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !outcome.Accepted {
		t.Fatalf("expected answer accepted, feedback: %s", outcome.Feedback)
	}
	if outcome.NextQuestion == nil || outcome.NextQuestion.Key != "fixed_costs_equipment" {
		t.Errorf("expected next question fixed_costs_equipment, got %+v", outcome.NextQuestion)
	}
	if got := session.CollectedData["fixed_costs_rent"]; got != 150.0 {
		t.Errorf("expected collected rent 150, got %v", got)
	}
	if store.updates != 1 {
		t.Errorf("expected 1 session update, got %d", store.updates)
	}
}

func TestAnswerQuestion_InvalidStaysOnQuestion(t *testing.T) {
	store := newMockSessionStore()
	session := domain.NewOnboardingSession("sess-1", "user-1")
	store.sessions[session.SessionID] = session

	interpreter := &mockInterpreter{
		result: &domain.AnswerInterpretation{IsValid: false, Feedback: "Please provide a number."},
	}
	svc := newOnboarding(store, interpreter)

	outcome, err := svc.AnswerQuestion(context.Background(), "sess-1", "user-1", "no idea")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Accepted {
		t.Fatal("expected answer rejected")
	}
	if outcome.Feedback == "" {
		t.Error("expected feedback for the user")
	}
	if session.CurrentQuestionIndex != 0 {
		t.Errorf("expected session to stay on question 0, got %d", session.CurrentQuestionIndex)
	}
	if store.updates != 0 {
		t.Errorf("expected no session update on rejection, got %d", store.updates)
	}
}

func TestAnswerQuestion_FallsBackWhenInterpreterDown(t *testing.T) {
	store := newMockSessionStore()
	session := domain.NewOnboardingSession("sess-1", "user-1")
	store.sessions[session.SessionID] = session

	interpreter := &mockInterpreter{err: errors.New("research service unavailable")}
	svc := newOnboarding(store, interpreter)

	// Basic validation should strip currency noise and still parse.
	outcome, err := svc.AnswerQuestion(context.Background(), "sess-1", "user-1", "$1,200 per month")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !outcome.Accepted {
		t.Fatalf("expected fallback validation to accept, feedback: %s", outcome.Feedback)
	}
	if got := session.CollectedData["fixed_costs_rent"]; got != 1200.0 {
		t.Errorf("expected collected rent 1200, got %v", got)
	}
}

func TestAnswerQuestion_EnforcesRulesOverInterpreter(t *testing.T) {
	store := newMockSessionStore()
	session := domain.NewOnboardingSession("sess-1", "user-1")
	// Jump to billable_hours, which has a 40-200 range.
	for session.CurrentQuestion().Key != "billable_hours" {
		_ = session.AnswerCurrent(1.0)
		session.Advance()
	}
	store.sessions[session.SessionID] = session

	// Interpreter claims validity but the value breaks the rule.
	interpreter := &mockInterpreter{
		result: &domain.AnswerInterpretation{IsValid: true, NormalizedValue: 300.0},
	}
	svc := newOnboarding(store, interpreter)

	outcome, err := svc.AnswerQuestion(context.Background(), "sess-1", "user-1", "300")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Accepted {
		t.Fatal("expected out-of-range answer rejected despite interpreter verdict")
	}
}

func TestAnswerQuestion_CompletesSession(t *testing.T) {
	store := newMockSessionStore()
	session := domain.NewOnboardingSession("sess-1", "user-1")
	// Answer everything but the last question.
	for i := 0; i < 9; i++ {
		_ = session.AnswerCurrent(50.0)
		session.Advance()
	}
	store.sessions[session.SessionID] = session

	interpreter := &mockInterpreter{
		result: &domain.AnswerInterpretation{IsValid: true, NormalizedValue: "senior"},
	}
	svc := newOnboarding(store, interpreter)

	outcome, err := svc.AnswerQuestion(context.Background(), "sess-1", "user-1", "senior")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !outcome.Completed {
		t.Fatal("expected session completed")
	}
	if outcome.SessionStatus != domain.SessionCompleted {
		t.Errorf("expected status completed, got %q", outcome.SessionStatus)
	}
	if outcome.CollectedData == nil {
		t.Error("expected collected data on completion")
	}
	if outcome.Progress.Percentage != 100 {
		t.Errorf("expected 100%% progress, got %d", outcome.Progress.Percentage)
	}
}

func TestAnswerQuestion_RejectsOversizedAnswer(t *testing.T) {
	svc := newOnboarding(newMockSessionStore(), &mockInterpreter{})

	_, err := svc.AnswerQuestion(context.Background(), "sess-1", "user-1", strings.Repeat("a", 501))
	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestAnswerQuestion_ForbiddenForOtherUser(t *testing.T) {
	store := newMockSessionStore()
	session := domain.NewOnboardingSession("sess-1", "user-1")
	store.sessions[session.SessionID] = session

	svc := newOnboarding(store, &mockInterpreter{})

	_, err := svc.AnswerQuestion(context.Background(), "sess-1", "user-2", "42")
	var ferr *domain.ErrForbidden
	if !errors.As(err, &ferr) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}
