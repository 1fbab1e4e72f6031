package supabase

import (
	"context"
	"fmt"
	"net/http"

	"github.com/vengleap/rateworks/internal/domain"
	"github.com/vengleap/rateworks/internal/infra/resilience"
)

// --- Category API (implements port.CategoryStore) ---

type supabaseCategory struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ListCategories returns the full service category catalog.
func (c *Client) ListCategories(ctx context.Context) ([]domain.Category, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListCategories")
	defer span.End()

	var categories []domain.Category

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := c.doRequest(ctx, http.MethodGet, "skill_categories?order=name.asc", nil)
			if err != nil {
				return err
			}

			rows, err := decodeRows[supabaseCategory](body)
			if err != nil {
				return fmt.Errorf("failed to decode categories: %w", err)
			}
			categories = make([]domain.Category, 0, len(rows))
			for _, r := range rows {
				categories = append(categories, domain.Category{ID: r.ID, Name: r.Name})
			}
			return nil
		})
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/skill_categories", Err: err}
	}
	return categories, nil
}
