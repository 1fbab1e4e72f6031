// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/vengleap/rateworks/internal/domain"
)

// PricingProfileStore persists pricing profiles and their skill
// category links. Implemented by the Supabase adapter.
type PricingProfileStore interface {
	GetPricingProfile(ctx context.Context, userID string) (*domain.PricingProfile, error)
	CreatePricingProfile(ctx context.Context, p *domain.PricingProfile) error
	UpdatePricingProfile(ctx context.Context, p *domain.PricingProfile) error

	// ReplaceSkillCategories swaps a profile's category links atomically
	// from the caller's point of view. Returns ErrInconsistent when the
	// compensating rollback also fails.
	ReplaceSkillCategories(ctx context.Context, profileID string, categoryIDs []int64) error
	LoadSkillCategories(ctx context.Context, profileID string) ([]int64, error)
}

// OnboardingSessionStore persists questionnaire sessions.
type OnboardingSessionStore interface {
	CreateSession(ctx context.Context, s *domain.OnboardingSession) error
	GetSession(ctx context.Context, sessionID string) (*domain.OnboardingSession, error)

	// FindActiveSession returns the user's in_progress session, or nil
	// when none exists.
	FindActiveSession(ctx context.Context, userID string) (*domain.OnboardingSession, error)
	UpdateSession(ctx context.Context, s *domain.OnboardingSession) error
}

// MarketBenchmarkStore reads and writes market benchmark rows.
type MarketBenchmarkStore interface {
	// FindBenchmark returns nil (no error) when the combination has no
	// market data.
	FindBenchmark(ctx context.Context, categoryID int64, seniority domain.Seniority, region string) (*domain.MarketBenchmark, error)
	FindBenchmarksBatch(ctx context.Context, categoryIDs []int64, seniority domain.Seniority, region string) ([]domain.MarketBenchmark, error)
	FindAllBenchmarks(ctx context.Context, region string) ([]domain.MarketBenchmark, error)
	UpsertBenchmark(ctx context.Context, b *domain.MarketBenchmark) error
}

// CategoryStore reads the service category catalog.
type CategoryStore interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
}

// PortfolioAnalyzer invokes the AI research service for portfolio
// analysis. The returned payload is raw, untrusted model output.
type PortfolioAnalyzer interface {
	AnalyzePortfolio(ctx context.Context, req *domain.PortfolioAnalysisRequest) (map[string]any, error)
}

// AnswerInterpreter invokes the AI research service to normalize a
// free-form questionnaire answer.
type AnswerInterpreter interface {
	InterpretAnswer(ctx context.Context, req *domain.AnswerInterpretationRequest) (*domain.AnswerInterpretation, error)
}

// Cache provides generic caching with TTL and prefix invalidation.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
	InvalidatePrefix(prefix string)
}
