package supabase_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/vengleap/rateworks/internal/domain"
	"github.com/vengleap/rateworks/internal/infra/resilience"
	"github.com/vengleap/rateworks/internal/infra/supabase"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *supabase.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := resilience.Config{MaxRetries: 1, InitialBackoff: time.Millisecond}
	return supabase.NewClient(srv.Client(), srv.URL, "anon-key", "service-key",
		resilience.NewCircuitBreaker("supabase-test"), cfg, zap.NewNop())
}

func TestUpsertBenchmark_SendsMergeDuplicatesPrefer(t *testing.T) {
	var gotPrefer, gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPrefer = r.Header.Get("Prefer")
		gotQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`[]`))
	})

	err := c.UpsertBenchmark(context.Background(), &domain.MarketBenchmark{
		CategoryID:       1,
		SeniorityLevel:   domain.SeniorityMid,
		MedianHourlyRate: 10,
		Percentile75Rate: 15,
		SampleSize:       20,
		Region:           "cambodia",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Without merge-duplicates PostgREST treats the POST as a plain
	// insert and 409s when the conflict key already exists.
	if !strings.Contains(gotPrefer, "resolution=merge-duplicates") {
		t.Errorf("Prefer = %q, want resolution=merge-duplicates", gotPrefer)
	}
	if !strings.Contains(gotQuery, "on_conflict=category_id,seniority_level,region") {
		t.Errorf("query = %q, want on_conflict key", gotQuery)
	}
}

func TestFindBenchmark_ReadsUseRepresentationPreferOnly(t *testing.T) {
	var gotPrefer string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPrefer = r.Header.Get("Prefer")
		w.Write([]byte(`[]`))
	})

	bm, err := c.FindBenchmark(context.Background(), 1, domain.SeniorityMid, "cambodia")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bm != nil {
		t.Errorf("expected nil benchmark for empty result, got %+v", bm)
	}
	if gotPrefer != "return=representation" {
		t.Errorf("Prefer = %q, want return=representation", gotPrefer)
	}
}
