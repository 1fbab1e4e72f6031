package service_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"go.uber.org/zap"

	"github.com/vengleap/rateworks/internal/domain"
	"github.com/vengleap/rateworks/internal/infra/observability"
	"github.com/vengleap/rateworks/internal/service"
)

func newPricingService(profiles *mockProfileStore, sessions *mockSessionStore, categories *mockCategoryStore) *service.Pricing {
	return service.NewPricing(profiles, sessions, categories, observability.NewMetrics(), zap.NewNop())
}

func TestCalculateBaseRate_DirectInput(t *testing.T) {
	profiles := &mockProfileStore{}
	svc := newPricingService(profiles, newMockSessionStore(), &mockCategoryStore{})

	input := &service.BaseRateInput{
		FixedCosts:            &domain.FixedCosts{Rent: 200, Equipment: 100, Insurance: 50, Utilities: 30, Taxes: 20},
		VariableCosts:         &domain.VariableCosts{Materials: 50, Marketing: 30},
		DesiredMonthlyIncome:  1000,
		BillableHoursPerMonth: 100,
		ProfitMargin:          0.15,
		SeniorityLevel:        "mid",
	}

	result, err := svc.CalculateBaseRate(context.Background(), "user-1", input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.BaseRate != 17.02 {
		t.Errorf("base rate = %v, want 17.02", result.BaseRate)
	}
	if result.BaseRateKHR != 68080 {
		t.Errorf("KHR rate = %v, want 68080", result.BaseRateKHR)
	}
	if result.MonthlyRevenue != 1702 {
		t.Errorf("monthly revenue = %v, want 1702", result.MonthlyRevenue)
	}
	if profiles.creates != 1 {
		t.Errorf("expected profile created once, got %d", profiles.creates)
	}
	if profiles.lastProfile.BaseHourlyRate != 17.02 {
		t.Errorf("committed rate = %v, want 17.02", profiles.lastProfile.BaseHourlyRate)
	}
}

func TestCalculateBaseRate_UpdatesExistingProfile(t *testing.T) {
	profiles := &mockProfileStore{
		profile: &domain.PricingProfile{
			ID:                    "profile-1",
			UserID:                "user-1",
			DesiredMonthlyIncome:  800,
			BillableHoursPerMonth: 100,
			ProfitMargin:          0.15,
			SeniorityLevel:        domain.SeniorityMid,
		},
	}
	svc := newPricingService(profiles, newMockSessionStore(), &mockCategoryStore{})

	input := &service.BaseRateInput{
		FixedCosts:            &domain.FixedCosts{Rent: 100},
		VariableCosts:         &domain.VariableCosts{},
		DesiredMonthlyIncome:  1000,
		BillableHoursPerMonth: 100,
		ProfitMargin:          0.1,
		SeniorityLevel:        "senior",
	}

	result, err := svc.CalculateBaseRate(context.Background(), "user-1", input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profiles.creates != 0 || profiles.updates != 1 {
		t.Errorf("expected update not create, creates=%d updates=%d", profiles.creates, profiles.updates)
	}
	if result.Profile.ID != "profile-1" {
		t.Errorf("expected profile id preserved, got %q", result.Profile.ID)
	}
}

func TestCalculateBaseRate_FromCompletedSession(t *testing.T) {
	sessions := newMockSessionStore()
	session := domain.NewOnboardingSession("sess-1", "user-1")
	answers := map[string]any{
		"fixed_costs_rent":                      200.0,
		"fixed_costs_equipment":                 100.0,
		"fixed_costs_utilities_insurance_taxes": 100.0,
		"variable_costs_materials":              80.0,
		"desired_income":                        1000.0,
		"billable_hours":                        100.0,
		"profit_margin":                         0.15,
		"experience_years":                      6.0,
		"skills":                                "logo design, branding",
		"seniority_level":                       "senior",
	}
	for q := session.CurrentQuestion(); q != nil; q = session.CurrentQuestion() {
		_ = session.AnswerCurrent(answers[q.Key])
		session.Advance()
	}
	session.MarkCompleted()
	sessions.sessions[session.SessionID] = session

	categories := &mockCategoryStore{categories: []domain.Category{
		{ID: 1, Name: "Logo Design"},
		{ID: 2, Name: "Branding"},
	}}
	profiles := &mockProfileStore{}
	svc := newPricingService(profiles, sessions, categories)

	result, err := svc.CalculateBaseRate(context.Background(), "user-1", &service.BaseRateInput{SessionID: "sess-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// (400 + 80 + 1000) * 1.15 / 100 = 17.02
	if result.BaseRate != 17.02 {
		t.Errorf("base rate = %v, want 17.02", result.BaseRate)
	}
	// Combined utilities/insurance/taxes answer split 40/30/30.
	if got := profiles.lastProfile.FixedCosts.Utilities; math.Abs(got-40) > 1e-9 {
		t.Errorf("utilities = %v, want 40", got)
	}
	if got := profiles.lastProfile.FixedCosts.Insurance; math.Abs(got-30) > 1e-9 {
		t.Errorf("insurance = %v, want 30", got)
	}
	if profiles.lastProfile.SeniorityLevel != domain.SenioritySenior {
		t.Errorf("seniority = %q, want senior", profiles.lastProfile.SeniorityLevel)
	}
	if len(result.SkillCategories) != 2 {
		t.Errorf("expected 2 matched categories, got %d", len(result.SkillCategories))
	}
}

func TestCalculateBaseRate_RejectsIncompleteSession(t *testing.T) {
	sessions := newMockSessionStore()
	session := domain.NewOnboardingSession("sess-1", "user-1")
	sessions.sessions[session.SessionID] = session

	svc := newPricingService(&mockProfileStore{}, sessions, &mockCategoryStore{})

	_, err := svc.CalculateBaseRate(context.Background(), "user-1", &service.BaseRateInput{SessionID: "sess-1"})
	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Fatalf("expected ErrValidation for in_progress session, got %v", err)
	}
}

func TestCalculateBaseRate_ForbiddenForOtherUsersSession(t *testing.T) {
	sessions := newMockSessionStore()
	session := domain.NewOnboardingSession("sess-1", "user-1")
	sessions.sessions[session.SessionID] = session

	svc := newPricingService(&mockProfileStore{}, sessions, &mockCategoryStore{})

	_, err := svc.CalculateBaseRate(context.Background(), "user-2", &service.BaseRateInput{SessionID: "sess-1"})
	var ferr *domain.ErrForbidden
	if !errors.As(err, &ferr) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestCalculateProjectRate_RequiresCommittedBaseRate(t *testing.T) {
	profiles := &mockProfileStore{
		profile: &domain.PricingProfile{
			ID:             "profile-1",
			UserID:         "user-1",
			SeniorityLevel: domain.SeniorityMid,
		},
	}
	svc := newPricingService(profiles, newMockSessionStore(), &mockCategoryStore{})

	_, err := svc.CalculateProjectRate(context.Background(), "user-1", &service.ProjectRateInput{})
	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Fatalf("expected ErrValidation without base rate, got %v", err)
	}
}

func TestCalculateProjectRate_AppliesMultipliersAndBuffer(t *testing.T) {
	profiles := &mockProfileStore{
		profile: &domain.PricingProfile{
			ID:                    "profile-1",
			UserID:                "user-1",
			BaseHourlyRate:        20,
			BillableHoursPerMonth: 100,
			SeniorityLevel:        domain.SeniorityMid,
		},
	}
	svc := newPricingService(profiles, newMockSessionStore(), &mockCategoryStore{})

	result, err := svc.CalculateProjectRate(context.Background(), "user-1", &service.ProjectRateInput{
		EstimatedHours: 40,
		ClientType:     "corporate",
		ClientRegion:   "global",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 20 * 1.0 * 1.2 * 1.3 = 31.2
	if result.Breakdown.FinalHourlyRate != 31.2 {
		t.Errorf("final rate = %v, want 31.2", result.Breakdown.FinalHourlyRate)
	}
	// 31.2 * 40 * 1.15 = 1435.2
	if result.ProjectPrice != 1435.2 {
		t.Errorf("project price = %v, want 1435.2", result.ProjectPrice)
	}
	if result.Sustainability == "" {
		t.Error("expected sustainability classification")
	}
}

func TestCalculateProjectRate_RejectsUnknownClientType(t *testing.T) {
	profiles := &mockProfileStore{
		profile: &domain.PricingProfile{
			ID:             "profile-1",
			UserID:         "user-1",
			BaseHourlyRate: 20,
			SeniorityLevel: domain.SeniorityMid,
		},
	}
	svc := newPricingService(profiles, newMockSessionStore(), &mockCategoryStore{})

	_, err := svc.CalculateProjectRate(context.Background(), "user-1", &service.ProjectRateInput{
		ClientType: "enterprise",
	})
	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
