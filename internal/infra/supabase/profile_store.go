package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/vengleap/rateworks/internal/domain"
	"github.com/vengleap/rateworks/internal/infra/resilience"
)

// --- Pricing profile API (implements port.PricingProfileStore) ---

// supabaseProfile maps the pricing_profiles table columns to our domain.
type supabaseProfile struct {
	ID                    string  `json:"id,omitempty"`
	UserID                string  `json:"user_id"`
	RentCost              float64 `json:"rent_cost"`
	EquipmentCost         float64 `json:"equipment_cost"`
	InsuranceCost         float64 `json:"insurance_cost"`
	UtilitiesCost         float64 `json:"utilities_cost"`
	TaxCost               float64 `json:"tax_cost"`
	MaterialsCost         float64 `json:"materials_cost"`
	OutsourcingCost       float64 `json:"outsourcing_cost"`
	MarketingCost         float64 `json:"marketing_cost"`
	DesiredMonthlyIncome  float64 `json:"desired_monthly_income"`
	BillableHoursPerMonth float64 `json:"billable_hours_per_month"`
	ProfitMargin          float64 `json:"profit_margin"`
	ExperienceYears       int     `json:"experience_years"`
	SeniorityLevel        string  `json:"seniority_level"`
	BaseHourlyRate        float64 `json:"base_hourly_rate"`
	CreatedAt             string  `json:"created_at,omitempty"`
	UpdatedAt             string  `json:"updated_at,omitempty"`
}

type skillCategoryRow struct {
	ProfileID  string `json:"profile_id"`
	CategoryID int64  `json:"category_id"`
}

func (r supabaseProfile) toDomain() *domain.PricingProfile {
	created, _ := time.Parse(time.RFC3339, r.CreatedAt)
	updated, _ := time.Parse(time.RFC3339, r.UpdatedAt)
	return &domain.PricingProfile{
		ID:     r.ID,
		UserID: r.UserID,
		FixedCosts: domain.FixedCosts{
			Rent:      r.RentCost,
			Equipment: r.EquipmentCost,
			Insurance: r.InsuranceCost,
			Utilities: r.UtilitiesCost,
			Taxes:     r.TaxCost,
		},
		VariableCosts: domain.VariableCosts{
			Materials:   r.MaterialsCost,
			Outsourcing: r.OutsourcingCost,
			Marketing:   r.MarketingCost,
		},
		DesiredMonthlyIncome:  r.DesiredMonthlyIncome,
		BillableHoursPerMonth: r.BillableHoursPerMonth,
		ProfitMargin:          r.ProfitMargin,
		ExperienceYears:       r.ExperienceYears,
		SeniorityLevel:        domain.Seniority(r.SeniorityLevel),
		BaseHourlyRate:        r.BaseHourlyRate,
		CreatedAt:             created,
		UpdatedAt:             updated,
	}
}

func profileRow(p *domain.PricingProfile) supabaseProfile {
	return supabaseProfile{
		UserID:                p.UserID,
		RentCost:              p.FixedCosts.Rent,
		EquipmentCost:         p.FixedCosts.Equipment,
		InsuranceCost:         p.FixedCosts.Insurance,
		UtilitiesCost:         p.FixedCosts.Utilities,
		TaxCost:               p.FixedCosts.Taxes,
		MaterialsCost:         p.VariableCosts.Materials,
		OutsourcingCost:       p.VariableCosts.Outsourcing,
		MarketingCost:         p.VariableCosts.Marketing,
		DesiredMonthlyIncome:  p.DesiredMonthlyIncome,
		BillableHoursPerMonth: p.BillableHoursPerMonth,
		ProfitMargin:          p.ProfitMargin,
		ExperienceYears:       p.ExperienceYears,
		SeniorityLevel:        string(p.SeniorityLevel),
		BaseHourlyRate:        p.BaseHourlyRate,
	}
}

// GetPricingProfile fetches a user's pricing profile, skill categories
// included.
func (c *Client) GetPricingProfile(ctx context.Context, userID string) (*domain.PricingProfile, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetPricingProfile")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	var profile *domain.PricingProfile

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("pricing_profiles?user_id=eq.%s&limit=1", userID)
			body, err := c.doRequest(ctx, http.MethodGet, path, nil)
			if err != nil {
				return err
			}

			rows, err := decodeRows[supabaseProfile](body)
			if err != nil {
				return fmt.Errorf("failed to decode pricing profile: %w", err)
			}
			if len(rows) == 0 {
				profile = nil
				return nil
			}

			profile = rows[0].toDomain()
			return nil
		})
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/pricing_profiles", Err: err}
	}
	if profile == nil {
		return nil, &domain.ErrNotFound{Resource: "pricing_profile", ID: userID}
	}

	categories, err := c.LoadSkillCategories(ctx, profile.ID)
	if err != nil {
		return nil, err
	}
	profile.SkillCategories = categories
	return profile, nil
}

// CreatePricingProfile inserts a new profile and fills in the generated
// ID and timestamps.
func (c *Client) CreatePricingProfile(ctx context.Context, p *domain.PricingProfile) error {
	ctx, span := tracer.Start(ctx, "Supabase.CreatePricingProfile")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", p.UserID))

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := c.doPost(ctx, "pricing_profiles", profileRow(p))
			if err != nil {
				return err
			}

			rows, err := decodeRows[supabaseProfile](body)
			if err != nil {
				return fmt.Errorf("failed to decode created profile: %w", err)
			}
			if len(rows) == 0 {
				return fmt.Errorf("insert returned no representation")
			}

			created := rows[0].toDomain()
			p.ID = created.ID
			p.CreatedAt = created.CreatedAt
			p.UpdatedAt = created.UpdatedAt
			return nil
		})
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/pricing_profiles", Err: err}
	}

	if len(p.SkillCategories) > 0 {
		return c.ReplaceSkillCategories(ctx, p.ID, p.SkillCategories)
	}
	return nil
}

// UpdatePricingProfile overwrites the stored profile fields for an
// existing profile ID.
func (c *Client) UpdatePricingProfile(ctx context.Context, p *domain.PricingProfile) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdatePricingProfile")
	defer span.End()
	span.SetAttributes(attribute.String("profile.id", p.ID))

	row := profileRow(p)
	row.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("pricing_profiles?id=eq.%s", p.ID)
			return c.doPatch(ctx, path, row)
		})
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/pricing_profiles", Err: err}
	}

	return c.ReplaceSkillCategories(ctx, p.ID, p.SkillCategories)
}

// LoadSkillCategories returns the category IDs linked to a profile.
func (c *Client) LoadSkillCategories(ctx context.Context, profileID string) ([]int64, error) {
	ctx, span := tracer.Start(ctx, "Supabase.LoadSkillCategories")
	defer span.End()

	var ids []int64

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("profile_skill_categories?profile_id=eq.%s", profileID)
			body, err := c.doRequest(ctx, http.MethodGet, path, nil)
			if err != nil {
				return err
			}

			rows, err := decodeRows[skillCategoryRow](body)
			if err != nil {
				return fmt.Errorf("failed to decode skill categories: %w", err)
			}
			ids = make([]int64, 0, len(rows))
			for _, r := range rows {
				ids = append(ids, r.CategoryID)
			}
			return nil
		})
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/profile_skill_categories", Err: err}
	}
	return ids, nil
}

// ReplaceSkillCategories swaps a profile's category links for a new set.
// PostgREST offers no multi-statement transaction, so this runs as a
// compensated sequence: back up current rows, delete, insert, and
// re-insert the backup if the insert fails. A failed re-insert leaves
// the store without the original links and is reported as
// ErrInconsistent.
func (c *Client) ReplaceSkillCategories(ctx context.Context, profileID string, categoryIDs []int64) error {
	ctx, span := tracer.Start(ctx, "Supabase.ReplaceSkillCategories")
	defer span.End()
	span.SetAttributes(attribute.String("profile.id", profileID))

	backup, err := c.LoadSkillCategories(ctx, profileID)
	if err != nil {
		return err
	}

	deletePath := fmt.Sprintf("profile_skill_categories?profile_id=eq.%s", profileID)
	if err := c.doDelete(ctx, deletePath); err != nil {
		return &domain.ErrExternalService{Service: "supabase/profile_skill_categories", Err: err}
	}

	if err := c.insertSkillCategories(ctx, profileID, categoryIDs); err == nil {
		return nil
	} else if rbErr := c.insertSkillCategories(ctx, profileID, backup); rbErr != nil {
		c.logger.Error("supabase: skill category rollback failed",
			zap.String("profile_id", profileID),
			zap.NamedError("insert_error", err),
			zap.NamedError("rollback_error", rbErr),
		)
		return &domain.ErrInconsistent{
			Resource: "profile_skill_categories",
			Err:      errors.Join(err, rbErr),
		}
	} else {
		c.logger.Warn("supabase: skill category update rolled back",
			zap.String("profile_id", profileID),
			zap.Error(err),
		)
		return &domain.ErrExternalService{Service: "supabase/profile_skill_categories", Err: err}
	}
}

func (c *Client) insertSkillCategories(ctx context.Context, profileID string, categoryIDs []int64) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	rows := make([]skillCategoryRow, 0, len(categoryIDs))
	for _, id := range categoryIDs {
		rows = append(rows, skillCategoryRow{ProfileID: profileID, CategoryID: id})
	}
	_, err := c.doPost(ctx, "profile_skill_categories", rows)
	return err
}
