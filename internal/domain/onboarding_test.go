package domain_test

import (
	"testing"

	"github.com/vengleap/rateworks/internal/domain"
)

func TestNewOnboardingSession_SeedsTenQuestions(t *testing.T) {
	s := domain.NewOnboardingSession("sess-1", "user-1")

	if s.Status != domain.SessionInProgress {
		t.Errorf("expected status in_progress, got %q", s.Status)
	}
	if s.CurrentQuestionIndex != 0 {
		t.Errorf("expected index 0, got %d", s.CurrentQuestionIndex)
	}
	if len(s.Questions) != 10 {
		t.Fatalf("expected 10 questions, got %d", len(s.Questions))
	}
	if s.Questions[0].Key != "fixed_costs_rent" {
		t.Errorf("expected first question fixed_costs_rent, got %q", s.Questions[0].Key)
	}
	if s.Questions[9].Key != "seniority_level" {
		t.Errorf("expected last question seniority_level, got %q", s.Questions[9].Key)
	}
}

func TestOnboardingSession_AnswerAndAdvance(t *testing.T) {
	s := domain.NewOnboardingSession("sess-1", "user-1")

	if err := s.AnswerCurrent(200.0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.Questions[0].Answered {
		t.Error("expected first question marked answered")
	}
	if got := s.CollectedData["fixed_costs_rent"]; got != 200.0 {
		t.Errorf("expected collected_data[fixed_costs_rent]=200, got %v", got)
	}

	if !s.Advance() {
		t.Fatal("expected more questions after advancing from index 0")
	}
	if s.CurrentQuestionIndex != 1 {
		t.Errorf("expected index 1, got %d", s.CurrentQuestionIndex)
	}
}

func TestOnboardingSession_Progress(t *testing.T) {
	s := domain.NewOnboardingSession("sess-1", "user-1")

	p := s.GetProgress()
	if p.Current != 0 || p.Total != 10 || p.Percentage != 0 {
		t.Errorf("fresh session progress = %+v", p)
	}

	for i := 0; i < 3; i++ {
		if err := s.AnswerCurrent(float64(i)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		s.Advance()
	}

	p = s.GetProgress()
	if p.Current != 3 || p.Percentage != 30 {
		t.Errorf("expected 3/10 = 30%%, got %+v", p)
	}
}

func TestOnboardingSession_CompletionFlow(t *testing.T) {
	s := domain.NewOnboardingSession("sess-1", "user-1")

	for s.CurrentQuestion() != nil {
		if err := s.AnswerCurrent("x"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		s.Advance()
	}

	if !s.IsComplete() {
		t.Fatal("expected session complete after answering all questions")
	}
	if err := s.AnswerCurrent("extra"); err == nil {
		t.Fatal("expected error answering past the last question")
	}

	s.MarkCompleted()
	if s.Status != domain.SessionCompleted {
		t.Errorf("expected status completed, got %q", s.Status)
	}
	if s.CompletedAt == nil {
		t.Error("expected completion timestamp")
	}
}

func TestOnboardingSession_MarkAbandoned(t *testing.T) {
	s := domain.NewOnboardingSession("sess-1", "user-1")
	s.MarkAbandoned()
	if s.Status != domain.SessionAbandoned {
		t.Errorf("expected status abandoned, got %q", s.Status)
	}
}
