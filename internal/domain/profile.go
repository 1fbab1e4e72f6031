package domain

import "time"

// PricingProfile is the persisted rate profile of one user.
// At most one profile exists per user; it is created on the first
// successful base-rate calculation or accepted AI rate and updated on
// every recalculation afterwards.
type PricingProfile struct {
	ID                    string        `json:"pricing_profile_id"`
	UserID                string        `json:"user_id"`
	FixedCosts            FixedCosts    `json:"fixed_costs"`
	VariableCosts         VariableCosts `json:"variable_costs"`
	DesiredMonthlyIncome  float64       `json:"desired_monthly_income"`
	BillableHoursPerMonth float64       `json:"billable_hours_per_month"`
	ProfitMargin          float64       `json:"profit_margin"`
	ExperienceYears       int           `json:"experience_years"`
	SeniorityLevel        Seniority     `json:"seniority_level"`
	SkillCategories       []int64       `json:"skill_categories"`
	// BaseHourlyRate is 0 until the first calculation commits a rate.
	BaseHourlyRate float64   `json:"base_hourly_rate"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Validate enforces the profile invariants.
func (p *PricingProfile) Validate() error {
	if p.UserID == "" {
		return &ErrValidation{Field: "user_id", Message: "is required"}
	}
	if p.DesiredMonthlyIncome <= 0 {
		return &ErrValidation{Field: "desired_monthly_income", Message: "must be greater than 0"}
	}
	if p.BillableHoursPerMonth <= 0 || p.BillableHoursPerMonth > 744 {
		return &ErrValidation{Field: "billable_hours_per_month", Message: "must be in (0, 744]"}
	}
	if p.ProfitMargin < 0 || p.ProfitMargin > 1 {
		return &ErrValidation{Field: "profit_margin", Message: "must be between 0 and 1"}
	}
	if p.ExperienceYears < 0 {
		return &ErrValidation{Field: "experience_years", Message: "must not be negative"}
	}
	if !p.SeniorityLevel.Valid() {
		return &ErrValidation{Field: "seniority_level", Message: "unknown seniority level"}
	}
	return nil
}
