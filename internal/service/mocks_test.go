package service_test

import (
	"context"

	"github.com/vengleap/rateworks/internal/domain"
)

// --- Shared mocks for the service tests ---

type mockSessionStore struct {
	sessions   map[string]*domain.OnboardingSession
	active     *domain.OnboardingSession
	createErr  error
	updateErr  error
	updates    int
	lastUpdate *domain.OnboardingSession
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{sessions: make(map[string]*domain.OnboardingSession)}
}

func (m *mockSessionStore) CreateSession(_ context.Context, s *domain.OnboardingSession) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.sessions[s.SessionID] = s
	return nil
}

func (m *mockSessionStore) GetSession(_ context.Context, sessionID string) (*domain.OnboardingSession, error) {
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "onboarding_session", ID: sessionID}
	}
	return s, nil
}

func (m *mockSessionStore) FindActiveSession(_ context.Context, userID string) (*domain.OnboardingSession, error) {
	if m.active != nil && m.active.UserID == userID && m.active.Status == domain.SessionInProgress {
		return m.active, nil
	}
	return nil, nil
}

func (m *mockSessionStore) UpdateSession(_ context.Context, s *domain.OnboardingSession) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updates++
	m.lastUpdate = s
	m.sessions[s.SessionID] = s
	return nil
}

type mockInterpreter struct {
	result *domain.AnswerInterpretation
	err    error
	calls  int
}

func (m *mockInterpreter) InterpretAnswer(_ context.Context, _ *domain.AnswerInterpretationRequest) (*domain.AnswerInterpretation, error) {
	m.calls++
	return m.result, m.err
}

type mockProfileStore struct {
	profile     *domain.PricingProfile
	getErr      error
	creates     int
	updates     int
	replaceErr  error
	replaced    [][]int64
	lastProfile *domain.PricingProfile
}

func (m *mockProfileStore) GetPricingProfile(_ context.Context, userID string) (*domain.PricingProfile, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.profile == nil {
		return nil, &domain.ErrNotFound{Resource: "pricing_profile", ID: userID}
	}
	return m.profile, nil
}

func (m *mockProfileStore) CreatePricingProfile(_ context.Context, p *domain.PricingProfile) error {
	m.creates++
	p.ID = "profile-1"
	m.profile = p
	m.lastProfile = p
	return nil
}

func (m *mockProfileStore) UpdatePricingProfile(_ context.Context, p *domain.PricingProfile) error {
	m.updates++
	m.profile = p
	m.lastProfile = p
	return nil
}

func (m *mockProfileStore) ReplaceSkillCategories(_ context.Context, _ string, categoryIDs []int64) error {
	if m.replaceErr != nil {
		return m.replaceErr
	}
	m.replaced = append(m.replaced, categoryIDs)
	return nil
}

func (m *mockProfileStore) LoadSkillCategories(_ context.Context, _ string) ([]int64, error) {
	if m.profile != nil {
		return m.profile.SkillCategories, nil
	}
	return nil, nil
}

type mockBenchmarkStore struct {
	benchmark  *domain.MarketBenchmark
	benchmarks []domain.MarketBenchmark
	findCalls  int
	allCalls   int
	upserts    int
	lastRegion string
	err        error
}

func (m *mockBenchmarkStore) FindBenchmark(_ context.Context, _ int64, _ domain.Seniority, region string) (*domain.MarketBenchmark, error) {
	m.findCalls++
	m.lastRegion = region
	return m.benchmark, m.err
}

func (m *mockBenchmarkStore) FindBenchmarksBatch(_ context.Context, _ []int64, _ domain.Seniority, region string) ([]domain.MarketBenchmark, error) {
	m.lastRegion = region
	return m.benchmarks, m.err
}

func (m *mockBenchmarkStore) FindAllBenchmarks(_ context.Context, region string) ([]domain.MarketBenchmark, error) {
	m.allCalls++
	m.lastRegion = region
	return m.benchmarks, m.err
}

func (m *mockBenchmarkStore) UpsertBenchmark(_ context.Context, _ *domain.MarketBenchmark) error {
	m.upserts++
	return m.err
}

type mockCategoryStore struct {
	categories []domain.Category
	err        error
	calls      int
}

func (m *mockCategoryStore) ListCategories(_ context.Context) ([]domain.Category, error) {
	m.calls++
	return m.categories, m.err
}

type mockAnalyzer struct {
	payload map[string]any
	err     error
	calls   int
}

func (m *mockAnalyzer) AnalyzePortfolio(_ context.Context, _ *domain.PortfolioAnalysisRequest) (map[string]any, error) {
	m.calls++
	return m.payload, m.err
}
