package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vengleap/rateworks/internal/domain"
	"github.com/vengleap/rateworks/internal/infra/observability"
	"github.com/vengleap/rateworks/internal/match"
	"github.com/vengleap/rateworks/internal/port"
)

var benchmarkTracer = otel.Tracer("service/benchmark")

// benchmarkKeyPrefix scopes every benchmark-related cache entry so a
// single prefix invalidation clears them all after an upsert.
const benchmarkKeyPrefix = "benchmark:"

// Benchmark resolves market rate benchmarks with fuzzy category
// matching and a read-through cache.
type Benchmark struct {
	benchmarks port.MarketBenchmarkStore
	categories port.CategoryStore
	profiles   port.PricingProfileStore
	cache      port.Cache[any]
	region     string
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewBenchmark creates the benchmark service with all dependencies
// injected. defaultRegion is used when a caller passes no region.
func NewBenchmark(
	benchmarks port.MarketBenchmarkStore,
	categories port.CategoryStore,
	profiles port.PricingProfileStore,
	cache port.Cache[any],
	defaultRegion string,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Benchmark {
	return &Benchmark{
		benchmarks: benchmarks,
		categories: categories,
		profiles:   profiles,
		cache:      cache,
		region:     defaultRegion,
		metrics:    metrics,
		logger:     logger,
	}
}

// ResolveCategory fuzzy-matches a free-text label against the category
// catalog. Queries too far from any category return ErrNotFound rather
// than a bad guess.
func (b *Benchmark) ResolveCategory(ctx context.Context, query string) (*domain.Category, error) {
	ctx, span := benchmarkTracer.Start(ctx, "Benchmark.ResolveCategory")
	defer span.End()
	span.SetAttributes(attribute.String("category.query", query))

	if query == "" {
		return nil, &domain.ErrValidation{Field: "category", Message: "is required"}
	}

	catalog, err := b.listCategories(ctx)
	if err != nil {
		return nil, err
	}
	candidates := make([]match.Candidate[domain.Category], 0, len(catalog))
	for _, c := range catalog {
		candidates = append(candidates, match.Candidate[domain.Category]{Label: c.Name, Value: c})
	}

	m := match.BestMatch(query, candidates, match.DefaultMinScore)
	if m == nil {
		return nil, &domain.ErrNotFound{Resource: "category", ID: query}
	}
	category := m.Value
	return &category, nil
}

// LookupResult is one resolved benchmark with its reliability bucket.
type LookupResult struct {
	Category   domain.Category         `json:"category"`
	Benchmark  *domain.MarketBenchmark `json:"benchmark,omitempty"`
	Confidence domain.Confidence       `json:"confidence_level,omitempty"`
	HasData    bool                    `json:"has_data"`
}

// Lookup resolves a category query and returns its benchmark for the
// given seniority and region. Missing market data is a valid outcome,
// reported with HasData false, and is negatively cached.
func (b *Benchmark) Lookup(ctx context.Context, categoryQuery, seniority, region string) (*LookupResult, error) {
	ctx, span := benchmarkTracer.Start(ctx, "Benchmark.Lookup")
	defer span.End()
	span.SetAttributes(attribute.String("category.query", categoryQuery))

	start := time.Now()
	defer func() {
		b.metrics.RecordRequestDuration("benchmark_lookup", time.Since(start))
	}()

	if region == "" {
		region = b.region
	}
	level, err := domain.ParseSeniority(seniority)
	if err != nil {
		return nil, err
	}
	category, err := b.ResolveCategory(ctx, categoryQuery)
	if err != nil {
		return nil, err
	}

	benchmark, err := b.findCached(ctx, category.ID, level, region)
	if err != nil {
		return nil, err
	}

	result := &LookupResult{Category: *category}
	if benchmark != nil {
		result.Benchmark = benchmark
		result.Confidence = benchmark.ConfidenceLevel()
		result.HasData = true
	}
	return result, nil
}

// BenchmarkComparison is one benchmark row annotated with the user's
// position against it.
type BenchmarkComparison struct {
	CategoryID       int64               `json:"category_id"`
	CategoryName     string              `json:"category_name,omitempty"`
	SeniorityLevel   domain.Seniority    `json:"seniority_level"`
	MedianRate       float64             `json:"median_rate"`
	Percentile75Rate float64             `json:"percentile_75_rate"`
	SampleSize       int                 `json:"sample_size"`
	Confidence       domain.Confidence   `json:"confidence_level"`
	YourRate         float64             `json:"your_rate,omitempty"`
	YourRatePosition domain.RatePosition `json:"your_rate_position,omitempty"`
}

// MarketAnalysis aggregates the compared benchmarks into one verdict.
type MarketAnalysis struct {
	AverageMedianRate     float64 `json:"average_median_rate"`
	Average75thPercentile float64 `json:"average_75th_percentile"`
	YourPositionSummary   string  `json:"your_position_summary"`
}

// MarketOverview is the full benchmark comparison for one user.
type MarketOverview struct {
	Benchmarks        []BenchmarkComparison `json:"benchmarks"`
	UserBaseRate      float64               `json:"user_base_rate,omitempty"`
	HasPricingProfile bool                  `json:"has_pricing_profile"`
	MarketAnalysis    *MarketAnalysis       `json:"market_analysis,omitempty"`
}

// GetBenchmarks compares the user's committed rate against market data
// for their skill categories. Without categories it falls back to every
// benchmark at the seniority level. Profile and benchmark reads run
// concurrently.
func (b *Benchmark) GetBenchmarks(ctx context.Context, userID string, categoryIDs []int64, seniority, region string) (*MarketOverview, error) {
	ctx, span := benchmarkTracer.Start(ctx, "Benchmark.GetBenchmarks")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	start := time.Now()
	defer func() {
		b.metrics.RecordRequestDuration("benchmark_overview", time.Since(start))
	}()

	if region == "" {
		region = b.region
	}

	var (
		profile *domain.PricingProfile
		catalog []domain.Category
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := b.profiles.GetPricingProfile(gCtx, userID)
		if err != nil {
			var nf *domain.ErrNotFound
			if errors.As(err, &nf) {
				return nil // comparison still works without a profile
			}
			return fmt.Errorf("profile fetch: %w", err)
		}
		profile = p
		return nil
	})
	g.Go(func() error {
		c, err := b.listCategories(gCtx)
		if err != nil {
			return fmt.Errorf("category fetch: %w", err)
		}
		catalog = c
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	level := domain.SeniorityMid
	if seniority != "" {
		parsed, err := domain.ParseSeniority(seniority)
		if err != nil {
			return nil, err
		}
		level = parsed
	} else if profile != nil {
		level = profile.SeniorityLevel
	}
	if len(categoryIDs) == 0 && profile != nil {
		categoryIDs = profile.SkillCategories
	}

	rows, err := b.fetchBenchmarkRows(ctx, categoryIDs, level, region)
	if err != nil {
		return nil, err
	}

	names := make(map[int64]string, len(catalog))
	for _, c := range catalog {
		names[c.ID] = c.Name
	}

	overview := &MarketOverview{
		Benchmarks:        make([]BenchmarkComparison, 0, len(rows)),
		HasPricingProfile: profile != nil,
	}
	for _, row := range rows {
		comparison := BenchmarkComparison{
			CategoryID:       row.CategoryID,
			CategoryName:     names[row.CategoryID],
			SeniorityLevel:   row.SeniorityLevel,
			MedianRate:       row.MedianHourlyRate,
			Percentile75Rate: row.Percentile75Rate,
			SampleSize:       row.SampleSize,
			Confidence:       row.ConfidenceLevel(),
		}
		if profile != nil && profile.BaseHourlyRate > 0 {
			comparison.YourRate = profile.BaseHourlyRate
			comparison.YourRatePosition = row.CompareRate(profile.BaseHourlyRate)
		}
		overview.Benchmarks = append(overview.Benchmarks, comparison)
	}
	if profile != nil {
		overview.UserBaseRate = profile.BaseHourlyRate
	}
	overview.MarketAnalysis = marketAnalysis(overview.Benchmarks, profile)

	return overview, nil
}

// UpsertBenchmark writes a benchmark row and invalidates every cached
// benchmark entry.
func (b *Benchmark) UpsertBenchmark(ctx context.Context, bm *domain.MarketBenchmark) error {
	ctx, span := benchmarkTracer.Start(ctx, "Benchmark.UpsertBenchmark")
	defer span.End()
	span.SetAttributes(attribute.Int64("benchmark.category_id", bm.CategoryID))

	if err := bm.Validate(); err != nil {
		return err
	}
	if !bm.SeniorityLevel.Valid() {
		return &domain.ErrValidation{Field: "seniority_level", Message: "unknown seniority level"}
	}
	if err := b.benchmarks.UpsertBenchmark(ctx, bm); err != nil {
		return err
	}

	b.cache.InvalidatePrefix(benchmarkKeyPrefix)
	b.logger.Info("benchmark upserted, cache invalidated",
		zap.Int64("category_id", bm.CategoryID),
		zap.String("seniority", string(bm.SeniorityLevel)),
	)
	return nil
}

// findCached is the read-through cache for single benchmark rows. A nil
// row (no market data) is cached too, so repeated misses stay cheap.
func (b *Benchmark) findCached(ctx context.Context, categoryID int64, level domain.Seniority, region string) (*domain.MarketBenchmark, error) {
	key := fmt.Sprintf("%s%d:%s:%s", benchmarkKeyPrefix, categoryID, level, region)
	if cached, ok := b.cache.Get(key); ok {
		b.metrics.IncrCacheHit("benchmark")
		bm, _ := cached.(*domain.MarketBenchmark)
		return bm, nil
	}
	b.metrics.IncrCacheMiss("benchmark")

	benchmark, err := b.benchmarks.FindBenchmark(ctx, categoryID, level, region)
	if err != nil {
		return nil, err
	}
	b.cache.Set(key, benchmark)
	return benchmark, nil
}

// fetchBenchmarkRows reads the rows for an overview, preferring the
// batch query and falling back to the full region scan. The full scan
// is cached under its own key.
func (b *Benchmark) fetchBenchmarkRows(ctx context.Context, categoryIDs []int64, level domain.Seniority, region string) ([]domain.MarketBenchmark, error) {
	if len(categoryIDs) > 0 {
		return b.benchmarks.FindBenchmarksBatch(ctx, categoryIDs, level, region)
	}

	key := fmt.Sprintf("%sall:%s", benchmarkKeyPrefix, region)
	var all []domain.MarketBenchmark
	if cached, ok := b.cache.Get(key); ok {
		b.metrics.IncrCacheHit("benchmark")
		all, _ = cached.([]domain.MarketBenchmark)
	} else {
		b.metrics.IncrCacheMiss("benchmark")
		rows, err := b.benchmarks.FindAllBenchmarks(ctx, region)
		if err != nil {
			return nil, err
		}
		b.cache.Set(key, rows)
		all = rows
	}

	filtered := make([]domain.MarketBenchmark, 0, len(all))
	for _, row := range all {
		if row.SeniorityLevel == level {
			filtered = append(filtered, row)
		}
	}
	return filtered, nil
}

// listCategories reads the category catalog through the cache.
func (b *Benchmark) listCategories(ctx context.Context) ([]domain.Category, error) {
	const key = "categories:all"
	if cached, ok := b.cache.Get(key); ok {
		if catalog, ok := cached.([]domain.Category); ok {
			b.metrics.IncrCacheHit("categories")
			return catalog, nil
		}
	}
	b.metrics.IncrCacheMiss("categories")

	catalog, err := b.categories.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	b.cache.Set(key, catalog)
	return catalog, nil
}

// marketAnalysis aggregates compared benchmarks and situates the user's
// rate against the market averages.
func marketAnalysis(benchmarks []BenchmarkComparison, profile *domain.PricingProfile) *MarketAnalysis {
	if len(benchmarks) == 0 {
		return nil
	}

	var sumMedian, sum75th float64
	for _, b := range benchmarks {
		sumMedian += b.MedianRate
		sum75th += b.Percentile75Rate
	}
	avgMedian := sumMedian / float64(len(benchmarks))
	avg75th := sum75th / float64(len(benchmarks))

	summary := "No pricing profile set"
	if profile != nil && profile.BaseHourlyRate > 0 {
		rate := profile.BaseHourlyRate
		switch {
		case rate < avgMedian*0.9:
			summary = "Below market average - consider increasing your rates"
		case rate < avgMedian*1.1:
			summary = "At market average - competitive positioning"
		case rate < avg75th:
			summary = "Above market average - good positioning"
		default:
			summary = "Premium pricing - top tier positioning"
		}
	}

	return &MarketAnalysis{
		AverageMedianRate:     math.Round(avgMedian*100) / 100,
		Average75thPercentile: math.Round(avg75th*100) / 100,
		YourPositionSummary:   summary,
	}
}
