package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/vengleap/rateworks/internal/domain"
	"github.com/vengleap/rateworks/internal/infra/observability"
	"github.com/vengleap/rateworks/internal/match"
	"github.com/vengleap/rateworks/internal/port"
	"github.com/vengleap/rateworks/internal/pricing"
)

var pricingTracer = otel.Tracer("service/pricing")

// Split of the combined "insurance, utilities and taxes" questionnaire
// answer into its cost components.
const (
	combinedUtilitiesShare = 0.4
	combinedInsuranceShare = 0.3
	combinedTaxesShare     = 0.3
)

// Questionnaire fallbacks for users who skipped optional inputs.
const (
	defaultProfitMargin  = 0.15
	defaultBillableHours = 100
)

// Pricing computes and persists sustainable rates.
type Pricing struct {
	profiles   port.PricingProfileStore
	sessions   port.OnboardingSessionStore
	categories port.CategoryStore
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewPricing creates the pricing service with all dependencies injected.
func NewPricing(
	profiles port.PricingProfileStore,
	sessions port.OnboardingSessionStore,
	categories port.CategoryStore,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Pricing {
	return &Pricing{
		profiles:   profiles,
		sessions:   sessions,
		categories: categories,
		metrics:    metrics,
		logger:     logger,
	}
}

// BaseRateInput carries the rate formula inputs, either inline or by
// reference to a completed onboarding session.
type BaseRateInput struct {
	SessionID             string                `json:"session_id,omitempty"`
	FixedCosts            *domain.FixedCosts    `json:"fixed_costs,omitempty"`
	VariableCosts         *domain.VariableCosts `json:"variable_costs,omitempty"`
	DesiredMonthlyIncome  float64               `json:"desired_monthly_income,omitempty"`
	BillableHoursPerMonth float64               `json:"billable_hours_per_month,omitempty"`
	ProfitMargin          float64               `json:"profit_margin,omitempty"`
	ExperienceYears       *float64              `json:"experience_years,omitempty"`
	SeniorityLevel        string                `json:"seniority_level,omitempty"`
	Skills                []string              `json:"skills,omitempty"`
}

// BaseRateResult is the committed outcome of a base-rate calculation.
type BaseRateResult struct {
	BaseRate        float64                `json:"base_hourly_rate"`
	BaseRateKHR     float64                `json:"base_hourly_rate_khr"`
	Breakdown       *pricing.Breakdown     `json:"breakdown"`
	MonthlyRevenue  float64                `json:"estimated_monthly_revenue"`
	AnnualRevenue   float64                `json:"estimated_annual_revenue"`
	Profile         *domain.PricingProfile `json:"profile"`
	SkillCategories []domain.Category      `json:"skill_categories,omitempty"`
}

// CalculateBaseRate runs the cost-recovery formula and commits the
// result to the user's pricing profile, creating the profile when
// needed.
func (p *Pricing) CalculateBaseRate(ctx context.Context, userID string, input *BaseRateInput) (*BaseRateResult, error) {
	ctx, span := pricingTracer.Start(ctx, "Pricing.CalculateBaseRate")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	start := time.Now()
	defer func() {
		p.metrics.RecordRequestDuration("base_rate", time.Since(start))
	}()

	if userID == "" {
		return nil, &domain.ErrValidation{Field: "user_id", Message: "is required"}
	}

	profile := &domain.PricingProfile{UserID: userID}
	var skills []string

	if input.SessionID != "" {
		session, err := p.sessions.GetSession(ctx, input.SessionID)
		if err != nil {
			return nil, err
		}
		if session.UserID != userID {
			return nil, &domain.ErrForbidden{Action: "use onboarding session"}
		}
		if session.Status != domain.SessionCompleted {
			return nil, &domain.ErrValidation{
				Field:   "session_id",
				Message: "session is not completed",
			}
		}
		skills = fillProfileFromSession(profile, session.CollectedData)
	} else {
		if err := fillProfileFromInput(profile, input); err != nil {
			return nil, err
		}
		skills = input.Skills
	}

	if err := profile.Validate(); err != nil {
		return nil, err
	}

	rate, breakdown, err := pricing.RateWithBreakdown(
		profile.FixedCosts,
		profile.VariableCosts,
		profile.DesiredMonthlyIncome,
		profile.ProfitMargin,
		profile.BillableHoursPerMonth,
	)
	if err != nil {
		return nil, err
	}
	profile.BaseHourlyRate = rate

	matched, err := p.resolveSkillCategories(ctx, skills)
	if err != nil {
		// Category resolution is best effort; the rate itself stands.
		p.logger.Warn("skill category resolution failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		matched = nil
	}
	for _, c := range matched {
		profile.SkillCategories = append(profile.SkillCategories, c.ID)
	}

	if err := p.saveProfile(ctx, profile); err != nil {
		return nil, err
	}

	p.logger.Info("base rate committed",
		zap.String("user_id", userID),
		zap.Float64("base_rate", rate),
	)
	p.metrics.IncrRequest("success")

	return &BaseRateResult{
		BaseRate:        rate,
		BaseRateKHR:     pricing.ConvertToKHR(rate, pricing.DefaultKHRRate),
		Breakdown:       breakdown,
		MonthlyRevenue:  pricing.EstimateMonthlyRevenue(rate, profile.BillableHoursPerMonth),
		AnnualRevenue:   pricing.EstimateAnnualRevenue(rate, profile.BillableHoursPerMonth, 12),
		Profile:         profile,
		SkillCategories: matched,
	}, nil
}

// ProjectRateInput shapes one project quote request.
type ProjectRateInput struct {
	EstimatedHours   float64  `json:"estimated_hours,omitempty"`
	ClientType       string   `json:"client_type,omitempty"`
	ClientRegion     string   `json:"client_region,omitempty"`
	BufferPercentage *float64 `json:"buffer_percentage,omitempty"`
}

// ProjectRateResult is a client-adjusted quote derived from the user's
// committed base rate.
type ProjectRateResult struct {
	Breakdown      *pricing.ProjectBreakdown    `json:"breakdown"`
	HourlyRateKHR  float64                      `json:"hourly_rate_khr"`
	ProjectPrice   float64                      `json:"project_price,omitempty"`
	EstimatedHours float64                      `json:"estimated_hours,omitempty"`
	Buffer         float64                      `json:"buffer_percentage"`
	MonthlyRevenue float64                      `json:"estimated_monthly_revenue"`
	AnnualRevenue  float64                      `json:"estimated_annual_revenue"`
	Sustainability pricing.SustainabilityStatus `json:"sustainability"`
}

// CalculateProjectRate quotes a project from the user's stored base rate
// with seniority and client-context multipliers applied.
func (p *Pricing) CalculateProjectRate(ctx context.Context, userID string, input *ProjectRateInput) (*ProjectRateResult, error) {
	ctx, span := pricingTracer.Start(ctx, "Pricing.CalculateProjectRate")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	start := time.Now()
	defer func() {
		p.metrics.RecordRequestDuration("project_rate", time.Since(start))
	}()

	profile, err := p.profiles.GetPricingProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile.BaseHourlyRate <= 0 {
		return nil, &domain.ErrValidation{
			Field:   "base_hourly_rate",
			Message: "no base rate calculated yet; run the base rate calculation first",
		}
	}

	var clientCtx *domain.ClientContext
	if input.ClientType != "" || input.ClientRegion != "" {
		region := input.ClientRegion
		if region == "" {
			region = string(domain.RegionCambodia)
		}
		clientType := input.ClientType
		if clientType == "" {
			clientType = string(domain.ClientSME)
		}
		cc, err := domain.NewClientContext(clientType, region)
		if err != nil {
			return nil, err
		}
		clientCtx = &cc
	}

	breakdown, err := pricing.ProjectRateWithBreakdown(profile.BaseHourlyRate, profile.SeniorityLevel, clientCtx)
	if err != nil {
		return nil, err
	}

	buffer := pricing.DefaultProjectBuffer
	if input.BufferPercentage != nil {
		if *input.BufferPercentage < 0 || *input.BufferPercentage > 1 {
			return nil, &domain.ErrValidation{Field: "buffer_percentage", Message: "must be between 0 and 1"}
		}
		buffer = *input.BufferPercentage
	}

	result := &ProjectRateResult{
		Breakdown:      breakdown,
		HourlyRateKHR:  pricing.ConvertToKHR(breakdown.FinalHourlyRate, pricing.DefaultKHRRate),
		Buffer:         buffer,
		MonthlyRevenue: pricing.EstimateMonthlyRevenue(breakdown.FinalHourlyRate, profile.BillableHoursPerMonth),
		AnnualRevenue:  pricing.EstimateAnnualRevenue(breakdown.FinalHourlyRate, profile.BillableHoursPerMonth, 12),
		Sustainability: pricing.Sustainability(breakdown.FinalHourlyRate, profile.BaseHourlyRate),
	}
	if input.EstimatedHours > 0 {
		result.EstimatedHours = input.EstimatedHours
		result.ProjectPrice = pricing.ToProjectPrice(breakdown.FinalHourlyRate, input.EstimatedHours, buffer)
	}

	p.metrics.IncrRequest("success")
	return result, nil
}

// saveProfile creates or updates the user's profile, preserving the
// single-profile-per-user invariant.
func (p *Pricing) saveProfile(ctx context.Context, profile *domain.PricingProfile) error {
	existing, err := p.profiles.GetPricingProfile(ctx, profile.UserID)
	if err != nil {
		var nf *domain.ErrNotFound
		if errors.As(err, &nf) {
			return p.profiles.CreatePricingProfile(ctx, profile)
		}
		return err
	}
	profile.ID = existing.ID
	profile.CreatedAt = existing.CreatedAt
	return p.profiles.UpdatePricingProfile(ctx, profile)
}

// resolveSkillCategories fuzzy-matches free-text skill labels against
// the category catalog.
func (p *Pricing) resolveSkillCategories(ctx context.Context, skills []string) ([]domain.Category, error) {
	if len(skills) == 0 {
		return nil, nil
	}
	catalog, err := p.categories.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	candidates := make([]match.Candidate[domain.Category], 0, len(catalog))
	for _, c := range catalog {
		candidates = append(candidates, match.Candidate[domain.Category]{Label: c.Name, Value: c})
	}

	seen := make(map[int64]bool)
	var matched []domain.Category
	for _, skill := range skills {
		m := match.BestMatch(skill, candidates, match.DefaultMinScore)
		if m == nil || seen[m.Value.ID] {
			continue
		}
		seen[m.Value.ID] = true
		matched = append(matched, m.Value)
	}
	return matched, nil
}

// fillProfileFromSession maps questionnaire answers onto profile fields
// and returns the raw skill labels for category resolution.
func fillProfileFromSession(profile *domain.PricingProfile, data map[string]any) []string {
	combined := toFloat(data["fixed_costs_utilities_insurance_taxes"])
	profile.FixedCosts = domain.FixedCosts{
		Rent:      toFloat(data["fixed_costs_rent"]),
		Equipment: toFloat(data["fixed_costs_equipment"]),
		Utilities: combined * combinedUtilitiesShare,
		Insurance: combined * combinedInsuranceShare,
		Taxes:     combined * combinedTaxesShare,
	}
	profile.VariableCosts = domain.VariableCosts{
		Materials: toFloat(data["variable_costs_materials"]),
	}
	profile.DesiredMonthlyIncome = toFloat(data["desired_income"])

	profile.BillableHoursPerMonth = toFloat(data["billable_hours"])
	if profile.BillableHoursPerMonth == 0 {
		profile.BillableHoursPerMonth = defaultBillableHours
	}
	profile.ProfitMargin = toFloat(data["profit_margin"])
	if profile.ProfitMargin == 0 {
		profile.ProfitMargin = defaultProfitMargin
	}

	experience := toFloat(data["experience_years"])
	profile.ExperienceYears = int(experience)
	if raw, ok := data["seniority_level"].(string); ok {
		if level, err := domain.ParseSeniority(raw); err == nil {
			profile.SeniorityLevel = level
		}
	}
	if profile.SeniorityLevel == "" {
		profile.SeniorityLevel = domain.SeniorityFromExperience(experience)
	}

	return toStrings(data["skills"])
}

// fillProfileFromInput maps an inline request onto profile fields.
func fillProfileFromInput(profile *domain.PricingProfile, input *BaseRateInput) error {
	if input.FixedCosts == nil || input.VariableCosts == nil {
		return &domain.ErrValidation{
			Field:   "fixed_costs",
			Message: "fixed_costs and variable_costs are required without a session_id",
		}
	}
	fixed, err := domain.NewFixedCosts(
		input.FixedCosts.Rent,
		input.FixedCosts.Equipment,
		input.FixedCosts.Insurance,
		input.FixedCosts.Utilities,
		input.FixedCosts.Taxes,
	)
	if err != nil {
		return err
	}
	variable, err := domain.NewVariableCosts(
		input.VariableCosts.Materials,
		input.VariableCosts.Outsourcing,
		input.VariableCosts.Marketing,
	)
	if err != nil {
		return err
	}
	profile.FixedCosts = fixed
	profile.VariableCosts = variable
	profile.DesiredMonthlyIncome = input.DesiredMonthlyIncome
	profile.BillableHoursPerMonth = input.BillableHoursPerMonth
	profile.ProfitMargin = input.ProfitMargin

	experience := float64(0)
	if input.ExperienceYears != nil {
		experience = *input.ExperienceYears
		profile.ExperienceYears = int(experience)
	}
	if input.SeniorityLevel != "" {
		level, err := domain.ParseSeniority(input.SeniorityLevel)
		if err != nil {
			return err
		}
		profile.SeniorityLevel = level
	} else {
		profile.SeniorityLevel = domain.SeniorityFromExperience(experience)
	}
	return nil
}

// toFloat coerces questionnaire answers, which arrive as JSON numbers or
// strings, into float64. Unparseable values become 0.
func toFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// toStrings coerces a collected answer into a string slice, splitting
// comma-separated text.
func toStrings(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	case string:
		parts := strings.Split(t, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out
	default:
		return nil
	}
}
