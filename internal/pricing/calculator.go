// Package pricing holds the pure cost-recovery rate math.
// No I/O, no side effects.
//
// Base Rate = (Fixed Costs + Variable Costs + Desired Income) * (1 + Profit Margin) / Billable Hours
package pricing

import (
	"math"

	"github.com/vengleap/rateworks/internal/domain"
)

const (
	// DefaultProjectBuffer pads project prices against scope creep.
	DefaultProjectBuffer = 0.15
	// DefaultKHRRate is the USD to Cambodian riel exchange rate used when
	// no live rate is supplied.
	DefaultKHRRate = 4000
)

// round2 rounds to 2 decimals for display values.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Rate computes the sustainable base hourly rate.
func Rate(fixed domain.FixedCosts, variable domain.VariableCosts, desiredIncome, profitMargin, billableHours float64) (float64, error) {
	if billableHours <= 0 {
		return 0, &domain.ErrValidation{Field: "billable_hours", Message: "must be greater than 0"}
	}
	if profitMargin < 0 || profitMargin > 1 {
		return 0, &domain.ErrValidation{Field: "profit_margin", Message: "must be between 0 and 1"}
	}

	totalMonthlyCosts := fixed.Total() + variable.Total() + desiredIncome
	profit := totalMonthlyCosts * profitMargin
	return (totalMonthlyCosts + profit) / billableHours, nil
}

// Breakdown shows every intermediate of the base-rate calculation.
// Each field is rounded to 2 decimals independently for display; the
// rounded fields are not guaranteed to re-sum exactly to the rounded
// totals.
type Breakdown struct {
	FixedCostsTotal        float64 `json:"fixed_costs_total"`
	VariableCostsTotal     float64 `json:"variable_costs_total"`
	DesiredIncome          float64 `json:"desired_income"`
	TotalMonthlyCosts      float64 `json:"total_monthly_costs"`
	ProfitMarginPercentage float64 `json:"profit_margin_percentage"`
	ProfitAmount           float64 `json:"profit_amount"`
	TotalRequired          float64 `json:"total_required"`
	BillableHours          float64 `json:"billable_hours"`
}

// RateWithBreakdown computes the base rate plus its full breakdown.
func RateWithBreakdown(fixed domain.FixedCosts, variable domain.VariableCosts, desiredIncome, profitMargin, billableHours float64) (float64, *Breakdown, error) {
	if _, err := Rate(fixed, variable, desiredIncome, profitMargin, billableHours); err != nil {
		return 0, nil, err
	}

	fixedTotal := fixed.Total()
	variableTotal := variable.Total()
	totalMonthlyCosts := fixedTotal + variableTotal + desiredIncome
	profitAmount := totalMonthlyCosts * profitMargin
	totalRequired := totalMonthlyCosts + profitAmount
	baseRate := totalRequired / billableHours

	return round2(baseRate), &Breakdown{
		FixedCostsTotal:        round2(fixedTotal),
		VariableCostsTotal:     round2(variableTotal),
		DesiredIncome:          round2(desiredIncome),
		TotalMonthlyCosts:      round2(totalMonthlyCosts),
		ProfitMarginPercentage: math.Round(profitMargin * 100),
		ProfitAmount:           round2(profitAmount),
		TotalRequired:          round2(totalRequired),
		BillableHours:          billableHours,
	}, nil
}

// ApplyMultipliers adjusts a base rate by seniority and optional client
// context. A nil context means multiplier 1.0.
func ApplyMultipliers(baseRate float64, seniority domain.Seniority, clientCtx *domain.ClientContext) (float64, error) {
	if baseRate <= 0 {
		return 0, &domain.ErrValidation{Field: "base_rate", Message: "must be positive"}
	}
	contextMultiplier := 1.0
	if clientCtx != nil {
		contextMultiplier = clientCtx.Multiplier()
	}
	return baseRate * seniority.Multiplier() * contextMultiplier, nil
}

// ProjectBreakdown shows how a project rate was derived from the base
// rate and its multipliers.
type ProjectBreakdown struct {
	BaseRate            float64             `json:"base_rate"`
	SeniorityLevel      domain.Seniority    `json:"seniority_level"`
	SeniorityMultiplier float64             `json:"seniority_multiplier"`
	ClientType          domain.ClientType   `json:"client_type,omitempty"`
	ClientRegion        domain.ClientRegion `json:"client_region,omitempty"`
	ContextMultiplier   float64             `json:"context_multiplier"`
	FinalHourlyRate     float64             `json:"final_hourly_rate"`
}

// ProjectRateWithBreakdown applies multipliers and reports each factor.
func ProjectRateWithBreakdown(baseRate float64, seniority domain.Seniority, clientCtx *domain.ClientContext) (*ProjectBreakdown, error) {
	finalRate, err := ApplyMultipliers(baseRate, seniority, clientCtx)
	if err != nil {
		return nil, err
	}

	contextMultiplier := 1.0
	b := &ProjectBreakdown{
		BaseRate:            round2(baseRate),
		SeniorityLevel:      seniority,
		SeniorityMultiplier: seniority.Multiplier(),
	}
	if clientCtx != nil {
		contextMultiplier = clientCtx.Multiplier()
		b.ClientType = clientCtx.Type
		b.ClientRegion = clientCtx.Region
	}
	b.ContextMultiplier = round2(contextMultiplier)
	b.FinalHourlyRate = round2(finalRate)
	return b, nil
}

// SustainabilityStatus buckets a rate against its sustainable baseline.
type SustainabilityStatus string

const (
	Unsustainable SustainabilityStatus = "unsustainable"
	Sustainable   SustainabilityStatus = "sustainable"
	Excellent     SustainabilityStatus = "excellent"
)

// Sustainability classifies currentRate against the sustainable baseline.
func Sustainability(currentRate, sustainabilityRate float64) SustainabilityStatus {
	ratio := currentRate / sustainabilityRate
	switch {
	case ratio < 1.0:
		return Unsustainable
	case ratio < 1.2:
		return Sustainable
	default:
		return Excellent
	}
}

// ToProjectPrice converts an hourly rate into a fixed project price with
// a scope-creep buffer.
func ToProjectPrice(hourlyRate, estimatedHours, buffer float64) float64 {
	basePrice := hourlyRate * estimatedHours
	return round2(basePrice * (1 + buffer))
}

// EstimateMonthlyRevenue projects revenue for one month of billable work.
func EstimateMonthlyRevenue(hourlyRate, billableHours float64) float64 {
	return round2(hourlyRate * billableHours)
}

// EstimateAnnualRevenue projects revenue across working months.
func EstimateAnnualRevenue(hourlyRate, billableHoursPerMonth float64, monthsPerYear int) float64 {
	return round2(hourlyRate * billableHoursPerMonth * float64(monthsPerYear))
}

// ConvertToKHR converts a USD amount to Cambodian riel, rounded to a
// whole riel.
func ConvertToKHR(usdAmount, exchangeRate float64) float64 {
	return math.Round(usdAmount * exchangeRate)
}
