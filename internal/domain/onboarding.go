package domain

import (
	"math"
	"time"
)

// QuestionType is the expected answer type of an onboarding question.
type QuestionType string

const (
	QuestionNumber QuestionType = "number"
	QuestionString QuestionType = "string"
	QuestionArray  QuestionType = "array"
)

// ValidationRules constrain a question's normalized answer.
type ValidationRules struct {
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	Required bool     `json:"required,omitempty"`
	Pattern  string   `json:"pattern,omitempty"`
}

// OnboardingQuestion is one step of the guided questionnaire.
type OnboardingQuestion struct {
	Key          string           `json:"question_key"`
	Text         string           `json:"question_text"`
	ExpectedType QuestionType     `json:"expected_type"`
	Answered     bool             `json:"answered"`
	Answer       any              `json:"answer,omitempty"`
	Rules        *ValidationRules `json:"validation_rules,omitempty"`
}

// SessionStatus is the lifecycle state of an onboarding session.
// completed and abandoned are terminal.
type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionAbandoned  SessionStatus = "abandoned"
)

// Progress summarizes how far a session has advanced.
type Progress struct {
	Current    int `json:"current"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// OnboardingSession is the ephemeral state of one user's guided
// questionnaire. At most one in_progress session exists per user.
type OnboardingSession struct {
	SessionID            string               `json:"session_id"`
	UserID               string               `json:"user_id"`
	Status               SessionStatus        `json:"status"`
	CurrentQuestionIndex int                  `json:"current_question_index"`
	Questions            []OnboardingQuestion `json:"questions"`
	CollectedData        map[string]any       `json:"collected_data"`
	StartedAt            time.Time            `json:"started_at"`
	CompletedAt          *time.Time           `json:"completed_at,omitempty"`
}

// NewOnboardingSession seeds a fresh in_progress session at index 0 with
// the default question list.
func NewOnboardingSession(sessionID, userID string) *OnboardingSession {
	return &OnboardingSession{
		SessionID:            sessionID,
		UserID:               userID,
		Status:               SessionInProgress,
		CurrentQuestionIndex: 0,
		Questions:            DefaultQuestions(),
		CollectedData:        make(map[string]any),
		StartedAt:            time.Now().UTC(),
	}
}

// CurrentQuestion returns the question at the current index, or nil if
// the list is exhausted.
func (s *OnboardingSession) CurrentQuestion() *OnboardingQuestion {
	if s.CurrentQuestionIndex >= len(s.Questions) {
		return nil
	}
	return &s.Questions[s.CurrentQuestionIndex]
}

// AnswerCurrent stores a validated answer on the current question and in
// the collected data map.
func (s *OnboardingSession) AnswerCurrent(answer any) error {
	q := s.CurrentQuestion()
	if q == nil {
		return &ErrValidation{Field: "session", Message: "no current question to answer"}
	}
	q.Answer = answer
	q.Answered = true
	s.CollectedData[q.Key] = answer
	return nil
}

// Advance moves to the next question and reports whether one remains.
func (s *OnboardingSession) Advance() bool {
	s.CurrentQuestionIndex++
	return s.CurrentQuestionIndex < len(s.Questions)
}

// IsComplete reports whether every question has been answered.
func (s *OnboardingSession) IsComplete() bool {
	for _, q := range s.Questions {
		if !q.Answered {
			return false
		}
	}
	return true
}

// MarkCompleted transitions the session to its completed terminal state.
// Not idempotent: callers must only invoke it once per completion.
func (s *OnboardingSession) MarkCompleted() {
	now := time.Now().UTC()
	s.Status = SessionCompleted
	s.CompletedAt = &now
}

// MarkAbandoned transitions the session to its abandoned terminal state.
func (s *OnboardingSession) MarkAbandoned() {
	s.Status = SessionAbandoned
}

// GetProgress returns answered/total counts and a rounded percentage.
func (s *OnboardingSession) GetProgress() Progress {
	answered := 0
	for _, q := range s.Questions {
		if q.Answered {
			answered++
		}
	}
	total := len(s.Questions)
	pct := 0
	if total > 0 {
		pct = int(math.Round(float64(answered) / float64(total) * 100))
	}
	return Progress{Current: answered, Total: total, Percentage: pct}
}

func floatPtr(v float64) *float64 { return &v }

// DefaultQuestions is the fixed ordered questionnaire that collects every
// input of the cost-recovery rate formula.
func DefaultQuestions() []OnboardingQuestion {
	return []OnboardingQuestion{
		{
			Key:          "fixed_costs_rent",
			Text:         "Let's calculate your sustainable hourly rate! First, what's your monthly rent or workspace cost in USD?",
			ExpectedType: QuestionNumber,
			Rules:        &ValidationRules{Min: floatPtr(0), Required: true},
		},
		{
			Key:          "fixed_costs_equipment",
			Text:         "How much do you spend monthly on equipment, software, and tools (e.g., Adobe subscription, laptop maintenance)?",
			ExpectedType: QuestionNumber,
			Rules:        &ValidationRules{Min: floatPtr(0), Required: true},
		},
		{
			Key:          "fixed_costs_utilities_insurance_taxes",
			Text:         "What about insurance, utilities, and taxes per month? (Combined amount)",
			ExpectedType: QuestionNumber,
			Rules:        &ValidationRules{Min: floatPtr(0), Required: true},
		},
		{
			Key:          "variable_costs_materials",
			Text:         "How much do you spend monthly on materials like stock photos, fonts, or plugins?",
			ExpectedType: QuestionNumber,
			Rules:        &ValidationRules{Min: floatPtr(0), Required: true},
		},
		{
			Key:          "desired_income",
			Text:         "What's your desired monthly take-home income (after all costs)?",
			ExpectedType: QuestionNumber,
			Rules:        &ValidationRules{Min: floatPtr(1), Required: true},
		},
		{
			Key:          "billable_hours",
			Text:         "How many hours per month can you realistically bill to clients? (Most freelancers bill 80-120 hours/month)",
			ExpectedType: QuestionNumber,
			Rules:        &ValidationRules{Min: floatPtr(40), Max: floatPtr(200), Required: true},
		},
		{
			Key:          "profit_margin",
			Text:         "What profit margin do you want? (e.g., 15% for sustainability, enter as decimal like 0.15)",
			ExpectedType: QuestionNumber,
			Rules:        &ValidationRules{Min: floatPtr(0.05), Max: floatPtr(0.50), Required: true},
		},
		{
			Key:          "experience_years",
			Text:         "How many years of experience do you have in graphic design?",
			ExpectedType: QuestionNumber,
			Rules:        &ValidationRules{Min: floatPtr(0), Max: floatPtr(50), Required: true},
		},
		{
			Key:          "skills",
			Text:         "What services do you offer? (e.g., logo design, branding, web design - comma separated)",
			ExpectedType: QuestionString,
			Rules:        &ValidationRules{Required: true},
		},
		{
			Key:          "seniority_level",
			Text:         "Finally, how would you describe your skill level: junior, mid, senior, or expert?",
			ExpectedType: QuestionString,
			Rules:        &ValidationRules{Required: true, Pattern: "junior|mid|senior|expert"},
		},
	}
}
