package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/vengleap/rateworks/internal/domain"
	"github.com/vengleap/rateworks/internal/infra/observability"
	"github.com/vengleap/rateworks/internal/port"
)

var portfolioTracer = otel.Tracer("service/portfolio")

// Signal sanitation caps. Raw AI output is clipped to these before it
// touches any domain type.
const (
	maxSkillAreaLength      = 80
	maxSkillAreas           = 20
	maxEvidenceLength       = 200
	maxEvidenceItems        = 10
	maxFollowUpLength       = 200
	maxFollowUps            = 5
	maxSpecializationLength = 100
	maxCategoryLength       = 100
	maxSummaryLength        = 300
)

// skillAreaJunk strips characters that have no business in a skill label.
var skillAreaJunk = regexp.MustCompile(`[^\w\s\-.&/()]`)

// defaultMarketRates are the last-resort rate estimates per seniority
// when neither the AI nor a benchmark can supply one.
var defaultMarketRates = map[domain.Seniority]struct{ median, p75 float64 }{
	domain.SeniorityJunior: {5, 8},
	domain.SeniorityMid:    {10, 15},
	domain.SenioritySenior: {18, 25},
	domain.SeniorityExpert: {25, 40},
}

// Portfolio runs the portfolio-assisted rate recommendation cascade.
type Portfolio struct {
	profiles  port.PricingProfileStore
	analyzer  port.PortfolioAnalyzer
	benchmark *Benchmark
	region    string
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewPortfolio creates the portfolio service with all dependencies injected.
// region is the default market region for benchmark lookups.
func NewPortfolio(
	profiles port.PricingProfileStore,
	analyzer port.PortfolioAnalyzer,
	benchmark *Benchmark,
	region string,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Portfolio {
	return &Portfolio{
		profiles:  profiles,
		analyzer:  analyzer,
		benchmark: benchmark,
		region:    region,
		metrics:   metrics,
		logger:    logger,
	}
}

// PortfolioRequest is one recommendation request. At least one portfolio
// input is needed for the AI step to run.
type PortfolioRequest struct {
	PortfolioURL    string                  `json:"portfolio_url,omitempty"`
	PortfolioText   string                  `json:"portfolio_text,omitempty"`
	PortfolioPDF    []byte                  `json:"portfolio_pdf,omitempty"`
	UseAI           *bool                   `json:"use_ai,omitempty"`
	ExperienceYears *float64                `json:"experience_years,omitempty"`
	Skills          string                  `json:"skills,omitempty"`
	HoursPerWeek    *float64                `json:"hours_per_week,omitempty"`
	ClientType      string                  `json:"client_type,omitempty"`
	ClientRegion    string                  `json:"client_region,omitempty"`
	Overrides       *domain.SignalOverrides `json:"overrides,omitempty"`
}

// aiResearch is the tolerant decode target for the non-signal blocks of
// the AI payload. Blocks that fail to decode are dropped individually.
type aiResearch struct {
	RecommendedRate      *domain.AIRecommendedRate    `json:"recommended_rate"`
	ResearchedCosts      *domain.ResearchedCosts      `json:"researched_costs"`
	IncomeResearch       *domain.IncomeResearch       `json:"income_research"`
	MarketResearch       *domain.MarketResearch       `json:"market_research"`
	CalculationBreakdown *domain.CalculationBreakdown `json:"calculation_breakdown"`
}

// Recommend runs the full cascade: AI analysis, override merge, category
// and benchmark resolution, and the three-tier rate reconciliation.
// Every outcome carries explainability; AI failure degrades the result,
// it never fails the request.
func (p *Portfolio) Recommend(ctx context.Context, userID string, req *PortfolioRequest) (*domain.RateRecommendation, error) {
	ctx, span := portfolioTracer.Start(ctx, "Portfolio.Recommend")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	start := time.Now()
	defer func() {
		p.metrics.RecordRequestDuration("portfolio_recommend", time.Since(start))
	}()

	region := req.ClientRegion
	if region == "" {
		region = p.region
	}

	// --- Step 1: AI analysis ---
	aiStatus := domain.AIStatusSkipped
	var (
		signals  *domain.PortfolioSignals
		research aiResearch
		aiErrMsg string
	)

	hasPortfolio := req.PortfolioURL != "" || req.PortfolioText != "" || len(req.PortfolioPDF) > 0
	if (req.UseAI == nil || *req.UseAI) && hasPortfolio {
		raw, err := p.analyzer.AnalyzePortfolio(ctx, &domain.PortfolioAnalysisRequest{
			PortfolioURL:    req.PortfolioURL,
			PortfolioText:   req.PortfolioText,
			PortfolioPDF:    req.PortfolioPDF,
			ExperienceYears: req.ExperienceYears,
			Skills:          req.Skills,
			HoursPerWeek:    req.HoursPerWeek,
			ClientType:      req.ClientType,
			Region:          region,
		})
		if err != nil {
			aiStatus = domain.AIStatusFailed
			aiErrMsg = err.Error()
			p.logger.Warn("portfolio analysis failed, degrading to benchmark tier",
				zap.String("user_id", userID),
				zap.Error(err),
			)
		} else {
			aiStatus = domain.AIStatusUsed
			signals = normalizeSignals(raw)
			research = decodeResearch(raw, p.logger)
		}
	}
	span.SetAttributes(attribute.String("ai.status", string(aiStatus)))

	// --- Step 2: merge signals with explicit overrides ---
	confirmed, overridesApplied := mergeOverrides(signals, req.Overrides)

	// --- Step 3: category and benchmark resolution ---
	var (
		category  *domain.Category
		benchmark *domain.MarketBenchmark
	)
	if confirmed.BenchmarkCategory != nil && confirmed.BenchmarkCategory.CategoryName != "" {
		resolved, err := p.benchmark.ResolveCategory(ctx, confirmed.BenchmarkCategory.CategoryName)
		if err != nil {
			var nf *domain.ErrNotFound
			if !errors.As(err, &nf) {
				return nil, err
			}
			// No category close enough; the cascade falls through to defaults.
		} else {
			category = resolved
			confirmed.BenchmarkCategory.CategoryID = resolved.ID
			confirmed.BenchmarkCategory.CategoryName = resolved.Name
			benchmark, err = p.benchmark.findCached(ctx, resolved.ID, confirmed.SeniorityLevel, region)
			if err != nil {
				return nil, err
			}
		}
	}

	// --- Step 4: rate reconciliation cascade ---
	seniorityMultiplier := confirmed.SeniorityLevel.Multiplier()
	suggested := reconcileRate(research, benchmark, category, confirmed.SeniorityLevel, seniorityMultiplier)
	p.metrics.IncrRateSource(suggested.RateSource)
	span.SetAttributes(attribute.String("rate.source", string(suggested.RateSource)))

	// --- Step 5: follow-up questions on low confidence ---
	var followUps []string
	if confirmed.Confidence == domain.ConfidenceLow {
		if signals != nil && len(signals.FollowUpQuestions) > 0 {
			followUps = signals.FollowUpQuestions
		} else {
			followUps = []string{
				"How many years of experience do you have?",
				"What is your primary type of design work (logo, banner, social media, UI, etc.)?",
			}
		}
	}

	// --- Step 6: explainability ---
	explain := buildExplainability(signals, confirmed, aiStatus, aiErrMsg)

	rec := &domain.RateRecommendation{
		AIStatus:             aiStatus,
		PortfolioSignals:     signals,
		OverridesApplied:     overridesApplied,
		ConfirmedValues:      *confirmed,
		SeniorityMultiplier:  seniorityMultiplier,
		SuggestedRate:        suggested,
		AIRecommendedRate:    research.RecommendedRate,
		ResearchedCosts:      research.ResearchedCosts,
		IncomeResearch:       research.IncomeResearch,
		MarketResearch:       research.MarketResearch,
		CalculationBreakdown: research.CalculationBreakdown,
		FollowUpQuestions:    followUps,
		Explainability:       explain,
	}
	if benchmark != nil && category != nil {
		rec.MarketBenchmark = &domain.BenchmarkSummary{
			CategoryID:       benchmark.CategoryID,
			CategoryName:     category.Name,
			SeniorityLevel:   benchmark.SeniorityLevel,
			MedianRate:       benchmark.MedianHourlyRate,
			Percentile75Rate: benchmark.Percentile75Rate,
			SampleSize:       benchmark.SampleSize,
		}
	}

	p.metrics.IncrRequest("success")
	return rec, nil
}

// ResearchedCostsInput is the optional cost breakdown accompanying an
// accepted rate.
type ResearchedCostsInput struct {
	Workspace *float64 `json:"workspace,omitempty"`
	Equipment *float64 `json:"equipment,omitempty"`
	Utilities *float64 `json:"utilities,omitempty"`
	Materials *float64 `json:"materials,omitempty"`
}

// AcceptRateInput commits a recommended rate to the user's profile.
type AcceptRateInput struct {
	HourlyRate            float64               `json:"hourly_rate"`
	SeniorityLevel        string                `json:"seniority_level,omitempty"`
	SkillCategories       []int64               `json:"skill_categories,omitempty"`
	ExperienceYears       *int                  `json:"experience_years,omitempty"`
	ResearchedCosts       *ResearchedCostsInput `json:"researched_costs,omitempty"`
	DesiredMonthlyIncome  *float64              `json:"desired_monthly_income,omitempty"`
	BillableHoursPerMonth *float64              `json:"billable_hours_per_month,omitempty"`
	ProfitMargin          *float64              `json:"profit_margin,omitempty"`
}

// AcceptRateResult reports whether accepting created or updated the
// profile.
type AcceptRateResult struct {
	Profile *domain.PricingProfile `json:"pricing_profile"`
	Action  string                 `json:"action"`
	Message string                 `json:"message"`
}

// AcceptRate saves an accepted recommendation as the user's committed
// base rate. A missing profile is created from researched costs or
// defaults, with income back-calculated from the accepted rate.
func (p *Portfolio) AcceptRate(ctx context.Context, userID string, input *AcceptRateInput) (*AcceptRateResult, error) {
	ctx, span := portfolioTracer.Start(ctx, "Portfolio.AcceptRate")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	start := time.Now()
	defer func() {
		p.metrics.RecordRequestDuration("portfolio_accept", time.Since(start))
	}()

	if input.HourlyRate <= 0 {
		return nil, &domain.ErrValidation{Field: "hourly_rate", Message: "must be greater than 0"}
	}
	seniority := domain.SeniorityMid
	if input.SeniorityLevel != "" {
		parsed, err := domain.ParseSeniority(input.SeniorityLevel)
		if err != nil {
			return nil, err
		}
		seniority = parsed
	}

	existing, err := p.profiles.GetPricingProfile(ctx, userID)
	if err != nil {
		var nf *domain.ErrNotFound
		if !errors.As(err, &nf) {
			return nil, err
		}
		existing = nil
	}

	if existing != nil {
		applyAcceptedRate(existing, input, seniority)
		if err := p.profiles.UpdatePricingProfile(ctx, existing); err != nil {
			return nil, err
		}
		p.logger.Info("accepted rate committed to existing profile",
			zap.String("user_id", userID),
			zap.Float64("hourly_rate", input.HourlyRate),
		)
		return &AcceptRateResult{
			Profile: existing,
			Action:  "updated",
			Message: "Pricing profile updated successfully with accepted rate",
		}, nil
	}

	profile := newProfileFromAcceptedRate(userID, input, seniority)
	if err := p.profiles.CreatePricingProfile(ctx, profile); err != nil {
		return nil, err
	}
	p.logger.Info("accepted rate committed to new profile",
		zap.String("user_id", userID),
		zap.Float64("hourly_rate", input.HourlyRate),
	)
	return &AcceptRateResult{
		Profile: profile,
		Action:  "created",
		Message: "Pricing profile created successfully with accepted rate",
	}, nil
}

// applyAcceptedRate folds the accepted rate into an existing profile,
// preserving stored costs unless researched figures replace them.
func applyAcceptedRate(profile *domain.PricingProfile, input *AcceptRateInput, seniority domain.Seniority) {
	profile.BaseHourlyRate = input.HourlyRate
	profile.SeniorityLevel = seniority
	if input.ExperienceYears != nil {
		profile.ExperienceYears = *input.ExperienceYears
	}
	if input.SkillCategories != nil {
		profile.SkillCategories = input.SkillCategories
	}
	if rc := input.ResearchedCosts; rc != nil {
		if rc.Workspace != nil {
			profile.FixedCosts.Rent = *rc.Workspace
		}
		if rc.Equipment != nil {
			profile.FixedCosts.Equipment = *rc.Equipment
		}
		if rc.Utilities != nil {
			profile.FixedCosts.Utilities = *rc.Utilities
		}
		if rc.Materials != nil {
			profile.VariableCosts.Materials = *rc.Materials
		}
	}
	if input.DesiredMonthlyIncome != nil {
		profile.DesiredMonthlyIncome = *input.DesiredMonthlyIncome
	}
	if input.BillableHoursPerMonth != nil {
		profile.BillableHoursPerMonth = *input.BillableHoursPerMonth
	}
	if input.ProfitMargin != nil {
		profile.ProfitMargin = *input.ProfitMargin
	}
}

// newProfileFromAcceptedRate builds a first profile around an accepted
// rate, back-calculating a plausible desired income from it.
func newProfileFromAcceptedRate(userID string, input *AcceptRateInput, seniority domain.Seniority) *domain.PricingProfile {
	fixed := domain.FixedCosts{
		Rent:      50, // coworking desk
		Equipment: 30,
		Insurance: 10,
		Utilities: 30,
		Taxes:     0,
	}
	variable := domain.VariableCosts{
		Materials: 20,
		Marketing: 10,
	}
	if rc := input.ResearchedCosts; rc != nil {
		if rc.Workspace != nil {
			fixed.Rent = *rc.Workspace
		}
		if rc.Equipment != nil {
			fixed.Equipment = *rc.Equipment
		}
		if rc.Utilities != nil {
			fixed.Utilities = *rc.Utilities
		}
		if rc.Materials != nil {
			variable.Materials = *rc.Materials
		}
	}

	billableHours := 80.0
	if input.BillableHoursPerMonth != nil {
		billableHours = *input.BillableHoursPerMonth
	}
	profitMargin := 0.15
	if input.ProfitMargin != nil {
		profitMargin = *input.ProfitMargin
	}

	// Reverse of the rate formula: income the accepted rate would fund
	// after costs and profit, floored at a subsistence minimum.
	totalCosts := fixed.Total() + variable.Total()
	desiredIncome := math.Max(300, input.HourlyRate*billableHours-totalCosts-totalCosts*profitMargin)
	if input.DesiredMonthlyIncome != nil {
		desiredIncome = *input.DesiredMonthlyIncome
	}

	experience := estimateExperienceFromRate(input.HourlyRate)
	if input.ExperienceYears != nil {
		experience = *input.ExperienceYears
	}

	return &domain.PricingProfile{
		UserID:                userID,
		FixedCosts:            fixed,
		VariableCosts:         variable,
		DesiredMonthlyIncome:  desiredIncome,
		BillableHoursPerMonth: billableHours,
		ProfitMargin:          profitMargin,
		ExperienceYears:       experience,
		SeniorityLevel:        seniority,
		SkillCategories:       input.SkillCategories,
		BaseHourlyRate:        input.HourlyRate,
	}
}

// estimateExperienceFromRate guesses experience years from the accepted
// rate when the user gave none.
func estimateExperienceFromRate(rate float64) int {
	switch {
	case rate < 8:
		return 1
	case rate < 15:
		return 3
	case rate < 25:
		return 6
	default:
		return 10
	}
}

// reconcileRate picks the rate from the highest available tier:
// AI recommendation, then market benchmark, then hard-coded defaults.
func reconcileRate(research aiResearch, benchmark *domain.MarketBenchmark, category *domain.Category, seniority domain.Seniority, seniorityMultiplier float64) *domain.SuggestedRate {
	if ai := research.RecommendedRate; ai != nil && ai.HourlyRate > 0 {
		baseRate := ai.HourlyRate
		multiplier := seniorityMultiplier
		if cb := research.CalculationBreakdown; cb != nil {
			if cb.BaseRate > 0 {
				baseRate = cb.BaseRate
			}
			if cb.SeniorityMultiplier > 0 {
				multiplier = cb.SeniorityMultiplier
			}
		}
		return &domain.SuggestedRate{
			HourlyRate:          ai.HourlyRate,
			RateRange:           ai.RateRange,
			BaseRate:            baseRate,
			SeniorityMultiplier: multiplier,
			RateSource:          domain.RateSourceAI,
			Note:                strings.TrimSpace("AI-researched rate based on Cambodia market data and the cost-recovery formula. " + ai.Reasoning),
		}
	}

	if benchmark != nil {
		baseRate := benchmark.MedianHourlyRate
		hourlyRate := math.Round(baseRate*seniorityMultiplier*100) / 100
		highRate := math.Round(benchmark.Percentile75Rate*seniorityMultiplier*100) / 100
		categoryName := "market"
		if category != nil {
			categoryName = category.Name
		}
		return &domain.SuggestedRate{
			HourlyRate:          hourlyRate,
			RateRange:           domain.RateRange{Low: hourlyRate, High: highRate},
			BaseRate:            baseRate,
			SeniorityMultiplier: math.Round(seniorityMultiplier*100) / 100,
			RateSource:          domain.RateSourceBenchmark,
			Note:                fmt.Sprintf("Based on %s benchmark for %s-level designers in Cambodia", categoryName, seniority),
		}
	}

	defaults, ok := defaultMarketRates[seniority]
	if !ok {
		defaults = defaultMarketRates[domain.SeniorityMid]
	}
	return &domain.SuggestedRate{
		HourlyRate:          defaults.median,
		RateRange:           domain.RateRange{Low: defaults.median, High: defaults.p75},
		BaseRate:            defaults.median,
		SeniorityMultiplier: 1.0, // already baked into the defaults
		RateSource:          domain.RateSourceDefault,
		Note:                fmt.Sprintf("Estimated from Cambodia market defaults for %s-level designers (no matching benchmark category found)", seniority),
	}
}

// mergeOverrides applies explicit user overrides on top of AI signals
// and reports which fields were overridden.
func mergeOverrides(signals *domain.PortfolioSignals, overrides *domain.SignalOverrides) (*domain.ConfirmedValues, []string) {
	confirmed := &domain.ConfirmedValues{
		SeniorityLevel: domain.SeniorityMid,
		SkillAreas:     []string{},
		Confidence:     domain.ConfidenceLow,
	}
	if signals != nil {
		confirmed.SeniorityLevel = signals.SeniorityLevel
		confirmed.SkillAreas = signals.SkillAreas
		confirmed.Specialization = signals.Specialization
		confirmed.QualityTier = signals.QualityTier
		confirmed.Confidence = signals.Confidence
		if signals.BenchmarkCategory != "" {
			confirmed.BenchmarkCategory = &domain.BenchmarkCategoryRef{CategoryName: signals.BenchmarkCategory}
		}
		if confirmed.SkillAreas == nil {
			confirmed.SkillAreas = []string{}
		}
	}

	applied := []string{}
	if overrides == nil {
		return confirmed, applied
	}
	if overrides.SeniorityLevel != nil {
		if level, err := domain.ParseSeniority(*overrides.SeniorityLevel); err == nil {
			confirmed.SeniorityLevel = level
			applied = append(applied, "seniority_level")
		}
	}
	if overrides.SkillAreas != nil {
		confirmed.SkillAreas = overrides.SkillAreas
		applied = append(applied, "skill_areas")
	}
	if overrides.Specialization != nil {
		confirmed.Specialization = truncate(*overrides.Specialization, maxSpecializationLength)
		applied = append(applied, "specialization")
	}
	if overrides.QualityTier != nil {
		if tier, ok := normalizeQualityTier(*overrides.QualityTier); ok {
			confirmed.QualityTier = tier
			applied = append(applied, "portfolio_quality_tier")
		}
	}
	if overrides.Confidence != nil {
		if conf, ok := normalizeConfidence(*overrides.Confidence); ok {
			confirmed.Confidence = conf
			applied = append(applied, "confidence")
		}
	}
	if overrides.BenchmarkCategory != nil {
		confirmed.BenchmarkCategory = &domain.BenchmarkCategoryRef{
			CategoryName: truncate(*overrides.BenchmarkCategory, maxCategoryLength),
		}
		applied = append(applied, "market_benchmark_category")
	}
	return confirmed, applied
}

// buildExplainability guarantees a populated explanation regardless of
// how the AI step ended.
func buildExplainability(signals *domain.PortfolioSignals, confirmed *domain.ConfirmedValues, aiStatus domain.AIStatus, aiErrMsg string) domain.Explainability {
	summary := ""
	evidence := []string{}
	var limitations []string

	if signals != nil {
		summary = signals.Summary
		if signals.Evidence != nil {
			evidence = signals.Evidence
		}
		limitations = signals.Limitations
	}
	if summary == "" {
		parts := []string{fmt.Sprintf("Seniority: %s", confirmed.SeniorityLevel)}
		if confirmed.QualityTier != "" {
			parts = append(parts, fmt.Sprintf("Quality: %s", confirmed.QualityTier))
		}
		summary = strings.Join(parts, ". ") + "."
	}
	if limitations == nil {
		switch aiStatus {
		case domain.AIStatusFailed:
			limitations = []string{"AI analysis unavailable: " + aiErrMsg}
		case domain.AIStatusSkipped:
			limitations = []string{"AI analysis skipped by request or missing portfolio input"}
		default:
			limitations = []string{}
		}
	}
	return domain.Explainability{Summary: summary, Evidence: evidence, Limitations: limitations}
}

// normalizeSignals clips raw AI output onto the closed signal shape.
// Unknown enum values fall back, strings are trimmed and truncated, and
// lists are capped. Nothing from the raw payload passes through intact.
func normalizeSignals(raw map[string]any) *domain.PortfolioSignals {
	signals := &domain.PortfolioSignals{
		SeniorityLevel: domain.SeniorityMid,
		Confidence:     domain.ConfidenceLow,
	}

	if s, ok := raw["seniority_level"].(string); ok {
		if level, err := domain.ParseSeniority(s); err == nil {
			signals.SeniorityLevel = level
		}
	}
	if s, ok := raw["confidence"].(string); ok {
		if conf, valid := normalizeConfidence(s); valid {
			signals.Confidence = conf
		}
	}
	if s, ok := raw["portfolio_quality_tier"].(string); ok {
		if tier, valid := normalizeQualityTier(s); valid {
			signals.QualityTier = tier
		}
	}
	if s, ok := raw["specialization"].(string); ok {
		signals.Specialization = truncate(strings.TrimSpace(s), maxSpecializationLength)
	}
	if s, ok := raw["market_benchmark_category"].(string); ok {
		signals.BenchmarkCategory = truncate(strings.TrimSpace(s), maxCategoryLength)
	}
	if s, ok := raw["summary"].(string); ok {
		signals.Summary = truncate(strings.TrimSpace(s), maxSummaryLength)
	}

	signals.SkillAreas = sanitizeList(raw["skill_areas"], maxSkillAreaLength, maxSkillAreas, true)
	signals.Evidence = sanitizeList(raw["evidence"], maxEvidenceLength, maxEvidenceItems, false)
	signals.Limitations = sanitizeList(raw["limitations"], maxEvidenceLength, maxEvidenceItems, false)
	signals.FollowUpQuestions = sanitizeList(raw["follow_up_questions"], maxFollowUpLength, maxFollowUps, false)
	return signals
}

// decodeResearch extracts the research blocks block by block, so one
// malformed block does not discard the rest.
func decodeResearch(raw map[string]any, logger *zap.Logger) aiResearch {
	var out aiResearch
	decodeBlock(raw, "recommended_rate", &out.RecommendedRate, logger)
	decodeBlock(raw, "researched_costs", &out.ResearchedCosts, logger)
	decodeBlock(raw, "income_research", &out.IncomeResearch, logger)
	decodeBlock(raw, "market_research", &out.MarketResearch, logger)
	decodeBlock(raw, "calculation_breakdown", &out.CalculationBreakdown, logger)
	return out
}

func decodeBlock[T any](raw map[string]any, key string, target **T, logger *zap.Logger) {
	block, ok := raw[key]
	if !ok || block == nil {
		return
	}
	encoded, err := json.Marshal(block)
	if err != nil {
		return
	}
	var decoded T
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		logger.Debug("dropping malformed research block",
			zap.String("block", key),
			zap.Error(err),
		)
		return
	}
	*target = &decoded
}

func normalizeConfidence(s string) (domain.Confidence, bool) {
	normalized := domain.Confidence(strings.ToLower(strings.TrimSpace(s)))
	for _, c := range domain.ConfidenceLevels {
		if normalized == c {
			return c, true
		}
	}
	return "", false
}

func normalizeQualityTier(s string) (domain.QualityTier, bool) {
	normalized := domain.QualityTier(strings.ToLower(strings.TrimSpace(s)))
	for _, t := range domain.QualityTiers {
		if normalized == t {
			return t, true
		}
	}
	return "", false
}

// sanitizeList filters a raw list to clean, bounded strings.
func sanitizeList(v any, maxLength, maxItems int, stripJunk bool) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if stripJunk {
			s = skillAreaJunk.ReplaceAllString(s, "")
		}
		s = truncate(s, maxLength)
		if s == "" {
			continue
		}
		out = append(out, s)
		if len(out) == maxItems {
			break
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
