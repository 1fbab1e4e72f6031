package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/vengleap/rateworks/internal/domain"
	"github.com/vengleap/rateworks/internal/infra/cache"
	"github.com/vengleap/rateworks/internal/infra/observability"
	"github.com/vengleap/rateworks/internal/service"
)

func newBenchmarkService(t *testing.T, benchmarks *mockBenchmarkStore, categories *mockCategoryStore, profiles *mockProfileStore) *service.Benchmark {
	t.Helper()
	c := cache.New[any](5*time.Minute, 100)
	t.Cleanup(c.Close)
	return service.NewBenchmark(benchmarks, categories, profiles, c, "cambodia", observability.NewMetrics(), zap.NewNop())
}

func designCatalog() []domain.Category {
	return []domain.Category{
		{ID: 1, Name: "Logo Design"},
		{ID: 2, Name: "Web Design"},
		{ID: 3, Name: "Social Media Graphics"},
	}
}

func TestResolveCategory_FuzzyMatchesTypo(t *testing.T) {
	svc := newBenchmarkService(t, &mockBenchmarkStore{}, &mockCategoryStore{categories: designCatalog()}, &mockProfileStore{})

	category, err := svc.ResolveCategory(context.Background(), "logo desgin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if category.ID != 1 {
		t.Errorf("resolved category %d (%s), want Logo Design", category.ID, category.Name)
	}
}

func TestResolveCategory_RejectsNoise(t *testing.T) {
	svc := newBenchmarkService(t, &mockBenchmarkStore{}, &mockCategoryStore{categories: designCatalog()}, &mockProfileStore{})

	_, err := svc.ResolveCategory(context.Background(), "quantum physics tutoring")
	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected ErrNotFound for unmatchable query, got %v", err)
	}
}

func TestLookup_CachesBenchmarkRows(t *testing.T) {
	store := &mockBenchmarkStore{
		benchmark: &domain.MarketBenchmark{
			CategoryID:       1,
			SeniorityLevel:   domain.SeniorityMid,
			MedianHourlyRate: 10,
			Percentile75Rate: 15,
			SampleSize:       40,
			Region:           "cambodia",
		},
	}
	svc := newBenchmarkService(t, store, &mockCategoryStore{categories: designCatalog()}, &mockProfileStore{})

	for i := 0; i < 2; i++ {
		result, err := svc.Lookup(context.Background(), "logo design", "mid", "cambodia")
		if err != nil {
			t.Fatalf("lookup %d: unexpected error: %v", i, err)
		}
		if !result.HasData {
			t.Fatalf("lookup %d: expected benchmark data", i)
		}
		if result.Confidence != domain.ConfidenceHigh {
			t.Errorf("lookup %d: confidence = %q, want high", i, result.Confidence)
		}
	}
	if store.findCalls != 1 {
		t.Errorf("expected 1 store read across 2 lookups, got %d", store.findCalls)
	}
}

func TestLookup_NegativelyCachesMissingData(t *testing.T) {
	store := &mockBenchmarkStore{} // no benchmark rows
	svc := newBenchmarkService(t, store, &mockCategoryStore{categories: designCatalog()}, &mockProfileStore{})

	for i := 0; i < 2; i++ {
		result, err := svc.Lookup(context.Background(), "web design", "senior", "cambodia")
		if err != nil {
			t.Fatalf("lookup %d: unexpected error: %v", i, err)
		}
		if result.HasData {
			t.Fatalf("lookup %d: expected no market data", i)
		}
		if result.Benchmark != nil {
			t.Fatalf("lookup %d: expected nil benchmark", i)
		}
	}
	// The miss itself must be cached.
	if store.findCalls != 1 {
		t.Errorf("expected 1 store read across 2 lookups, got %d", store.findCalls)
	}
}

func TestUpsertBenchmark_InvalidatesCache(t *testing.T) {
	store := &mockBenchmarkStore{
		benchmark: &domain.MarketBenchmark{
			CategoryID:       1,
			SeniorityLevel:   domain.SeniorityMid,
			MedianHourlyRate: 10,
			Percentile75Rate: 15,
			SampleSize:       20,
			Region:           "cambodia",
		},
	}
	svc := newBenchmarkService(t, store, &mockCategoryStore{categories: designCatalog()}, &mockProfileStore{})

	if _, err := svc.Lookup(context.Background(), "logo design", "mid", "cambodia"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.findCalls != 1 {
		t.Fatalf("expected 1 store read, got %d", store.findCalls)
	}

	err := svc.UpsertBenchmark(context.Background(), &domain.MarketBenchmark{
		CategoryID:       1,
		SeniorityLevel:   domain.SeniorityMid,
		MedianHourlyRate: 12,
		Percentile75Rate: 18,
		SampleSize:       25,
		Region:           "cambodia",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.upserts != 1 {
		t.Errorf("expected 1 upsert, got %d", store.upserts)
	}

	if _, err := svc.Lookup(context.Background(), "logo design", "mid", "cambodia"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.findCalls != 2 {
		t.Errorf("expected fresh store read after upsert, got %d calls", store.findCalls)
	}
}

func TestUpsertBenchmark_RejectsInvalidRow(t *testing.T) {
	svc := newBenchmarkService(t, &mockBenchmarkStore{}, &mockCategoryStore{categories: designCatalog()}, &mockProfileStore{})

	// p75 below median breaks the benchmark invariant.
	err := svc.UpsertBenchmark(context.Background(), &domain.MarketBenchmark{
		CategoryID:       1,
		SeniorityLevel:   domain.SeniorityMid,
		MedianHourlyRate: 15,
		Percentile75Rate: 10,
		SampleSize:       20,
	})
	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestGetBenchmarks_ComparesUserRate(t *testing.T) {
	store := &mockBenchmarkStore{
		benchmarks: []domain.MarketBenchmark{
			{CategoryID: 1, SeniorityLevel: domain.SeniorityMid, MedianHourlyRate: 10, Percentile75Rate: 15, SampleSize: 40},
		},
	}
	profiles := &mockProfileStore{
		profile: &domain.PricingProfile{
			ID:              "profile-1",
			UserID:          "user-1",
			BaseHourlyRate:  10.5,
			SeniorityLevel:  domain.SeniorityMid,
			SkillCategories: []int64{1},
		},
	}
	svc := newBenchmarkService(t, store, &mockCategoryStore{categories: designCatalog()}, profiles)

	overview, err := svc.GetBenchmarks(context.Background(), "user-1", nil, "", "cambodia")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !overview.HasPricingProfile {
		t.Fatal("expected pricing profile flag set")
	}
	if len(overview.Benchmarks) != 1 {
		t.Fatalf("expected 1 comparison, got %d", len(overview.Benchmarks))
	}

	comparison := overview.Benchmarks[0]
	if comparison.CategoryName != "Logo Design" {
		t.Errorf("category name = %q, want Logo Design", comparison.CategoryName)
	}
	if comparison.YourRatePosition != domain.PositionAtMedian {
		t.Errorf("rate position = %q, want at_median", comparison.YourRatePosition)
	}
	if overview.MarketAnalysis == nil {
		t.Fatal("expected market analysis")
	}
	// 10.5 sits within 10% of the average median of 10.
	if got := overview.MarketAnalysis.YourPositionSummary; got != "At market average - competitive positioning" {
		t.Errorf("position summary = %q", got)
	}
}

func TestGetBenchmarks_NoProfileFallsBackToFullScan(t *testing.T) {
	store := &mockBenchmarkStore{
		benchmarks: []domain.MarketBenchmark{
			{CategoryID: 1, SeniorityLevel: domain.SeniorityMid, MedianHourlyRate: 10, Percentile75Rate: 15, SampleSize: 5},
			{CategoryID: 2, SeniorityLevel: domain.SenioritySenior, MedianHourlyRate: 18, Percentile75Rate: 25, SampleSize: 12},
		},
	}
	svc := newBenchmarkService(t, store, &mockCategoryStore{categories: designCatalog()}, &mockProfileStore{})

	for i := 0; i < 2; i++ {
		overview, err := svc.GetBenchmarks(context.Background(), "user-1", nil, "mid", "cambodia")
		if err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
		if overview.HasPricingProfile {
			t.Fatalf("call %d: expected no pricing profile", i)
		}
		if len(overview.Benchmarks) != 1 {
			t.Fatalf("call %d: expected only mid-level rows, got %d", i, len(overview.Benchmarks))
		}
		if got := overview.MarketAnalysis.YourPositionSummary; got != "No pricing profile set" {
			t.Errorf("call %d: position summary = %q", i, got)
		}
	}
	// The full region scan is cached between calls.
	if store.allCalls != 1 {
		t.Errorf("expected 1 full scan across 2 calls, got %d", store.allCalls)
	}
}

func TestLookup_EmptyRegionUsesDefault(t *testing.T) {
	store := &mockBenchmarkStore{
		benchmark: &domain.MarketBenchmark{
			CategoryID:       1,
			SeniorityLevel:   domain.SeniorityMid,
			MedianHourlyRate: 10,
			Percentile75Rate: 15,
			SampleSize:       40,
			Region:           "cambodia",
		},
	}
	svc := newBenchmarkService(t, store, &mockCategoryStore{categories: designCatalog()}, &mockProfileStore{})

	result, err := svc.Lookup(context.Background(), "logo design", "mid", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.HasData {
		t.Fatal("expected benchmark data")
	}
	if store.lastRegion != "cambodia" {
		t.Errorf("store queried region %q, want the default region", store.lastRegion)
	}
}

func TestGetBenchmarks_EmptyRegionUsesDefault(t *testing.T) {
	store := &mockBenchmarkStore{
		benchmarks: []domain.MarketBenchmark{
			{CategoryID: 1, SeniorityLevel: domain.SeniorityMid, MedianHourlyRate: 10, Percentile75Rate: 15, SampleSize: 40},
		},
	}
	svc := newBenchmarkService(t, store, &mockCategoryStore{categories: designCatalog()}, &mockProfileStore{})

	overview, err := svc.GetBenchmarks(context.Background(), "user-1", nil, "mid", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(overview.Benchmarks) != 1 {
		t.Fatalf("expected 1 benchmark row, got %d", len(overview.Benchmarks))
	}
	if store.lastRegion != "cambodia" {
		t.Errorf("store queried region %q, want the default region", store.lastRegion)
	}
}

func TestLookup_RejectsUnknownSeniority(t *testing.T) {
	svc := newBenchmarkService(t, &mockBenchmarkStore{}, &mockCategoryStore{categories: designCatalog()}, &mockProfileStore{})

	_, err := svc.Lookup(context.Background(), "logo design", "wizard", "cambodia")
	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
