package supabase

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/vengleap/rateworks/internal/domain"
	"github.com/vengleap/rateworks/internal/infra/resilience"
)

// --- Market benchmark API (implements port.MarketBenchmarkStore) ---

// supabaseBenchmark maps the market_benchmarks table columns.
type supabaseBenchmark struct {
	CategoryID       int64   `json:"category_id"`
	SeniorityLevel   string  `json:"seniority_level"`
	MedianHourlyRate float64 `json:"median_hourly_rate"`
	Percentile75Rate float64 `json:"percentile_75_rate"`
	SampleSize       int     `json:"sample_size"`
	Region           string  `json:"region"`
	LastUpdated      string  `json:"last_updated,omitempty"`
}

func (r supabaseBenchmark) toDomain() *domain.MarketBenchmark {
	updated, _ := time.Parse(time.RFC3339, r.LastUpdated)
	return &domain.MarketBenchmark{
		CategoryID:       r.CategoryID,
		SeniorityLevel:   domain.Seniority(r.SeniorityLevel),
		MedianHourlyRate: r.MedianHourlyRate,
		Percentile75Rate: r.Percentile75Rate,
		SampleSize:       r.SampleSize,
		Region:           r.Region,
		LastUpdated:      updated,
	}
}

// FindBenchmark fetches one benchmark row, or nil when the combination
// has no market data.
func (c *Client) FindBenchmark(ctx context.Context, categoryID int64, seniority domain.Seniority, region string) (*domain.MarketBenchmark, error) {
	ctx, span := tracer.Start(ctx, "Supabase.FindBenchmark")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("benchmark.category_id", categoryID),
		attribute.String("benchmark.seniority", string(seniority)),
	)

	var benchmark *domain.MarketBenchmark

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("market_benchmarks?category_id=eq.%d&seniority_level=eq.%s&region=eq.%s&limit=1",
				categoryID, seniority, region)
			body, err := c.doRequest(ctx, http.MethodGet, path, nil)
			if err != nil {
				return err
			}

			rows, err := decodeRows[supabaseBenchmark](body)
			if err != nil {
				return fmt.Errorf("failed to decode benchmark: %w", err)
			}
			if len(rows) == 0 {
				benchmark = nil
				return nil
			}
			benchmark = rows[0].toDomain()
			return nil
		})
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/market_benchmarks", Err: err}
	}
	return benchmark, nil
}

// FindBenchmarksBatch fetches benchmarks for several categories at one
// seniority level in a single query using a PostgREST in.() filter.
func (c *Client) FindBenchmarksBatch(ctx context.Context, categoryIDs []int64, seniority domain.Seniority, region string) ([]domain.MarketBenchmark, error) {
	ctx, span := tracer.Start(ctx, "Supabase.FindBenchmarksBatch")
	defer span.End()
	span.SetAttributes(attribute.Int("benchmark.categories", len(categoryIDs)))

	if len(categoryIDs) == 0 {
		return []domain.MarketBenchmark{}, nil
	}
	ids := make([]string, 0, len(categoryIDs))
	for _, id := range categoryIDs {
		ids = append(ids, strconv.FormatInt(id, 10))
	}

	var benchmarks []domain.MarketBenchmark

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("market_benchmarks?category_id=in.(%s)&seniority_level=eq.%s&region=eq.%s",
				strings.Join(ids, ","), seniority, region)
			body, err := c.doRequest(ctx, http.MethodGet, path, nil)
			if err != nil {
				return err
			}

			rows, err := decodeRows[supabaseBenchmark](body)
			if err != nil {
				return fmt.Errorf("failed to decode benchmarks: %w", err)
			}
			benchmarks = make([]domain.MarketBenchmark, 0, len(rows))
			for _, r := range rows {
				benchmarks = append(benchmarks, *r.toDomain())
			}
			return nil
		})
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/market_benchmarks", Err: err}
	}
	return benchmarks, nil
}

// FindAllBenchmarks fetches every benchmark row for a region, ordered by
// category.
func (c *Client) FindAllBenchmarks(ctx context.Context, region string) ([]domain.MarketBenchmark, error) {
	ctx, span := tracer.Start(ctx, "Supabase.FindAllBenchmarks")
	defer span.End()
	span.SetAttributes(attribute.String("benchmark.region", region))

	var benchmarks []domain.MarketBenchmark

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("market_benchmarks?region=eq.%s&order=category_id.asc", region)
			body, err := c.doRequest(ctx, http.MethodGet, path, nil)
			if err != nil {
				return err
			}

			rows, err := decodeRows[supabaseBenchmark](body)
			if err != nil {
				return fmt.Errorf("failed to decode benchmarks: %w", err)
			}
			benchmarks = make([]domain.MarketBenchmark, 0, len(rows))
			for _, r := range rows {
				benchmarks = append(benchmarks, *r.toDomain())
			}
			return nil
		})
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/market_benchmarks", Err: err}
	}
	return benchmarks, nil
}

// UpsertBenchmark inserts or replaces the benchmark row keyed by
// (category, seniority, region).
func (c *Client) UpsertBenchmark(ctx context.Context, b *domain.MarketBenchmark) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpsertBenchmark")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("benchmark.category_id", b.CategoryID),
		attribute.String("benchmark.seniority", string(b.SeniorityLevel)),
	)

	row := supabaseBenchmark{
		CategoryID:       b.CategoryID,
		SeniorityLevel:   string(b.SeniorityLevel),
		MedianHourlyRate: b.MedianHourlyRate,
		Percentile75Rate: b.Percentile75Rate,
		SampleSize:       b.SampleSize,
		Region:           b.Region,
		LastUpdated:      time.Now().UTC().Format(time.RFC3339),
	}

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			table := "market_benchmarks?on_conflict=category_id,seniority_level,region"
			_, err := c.doUpsert(ctx, table, row)
			return err
		})
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/market_benchmarks", Err: err}
	}
	return nil
}
