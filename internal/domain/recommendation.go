package domain

// RateSource identifies which cascade tier produced a suggested rate.
// The set is closed: exactly one tier applies per recommendation.
type RateSource string

const (
	RateSourceAI        RateSource = "ai_recommendation"
	RateSourceBenchmark RateSource = "market_benchmark"
	RateSourceDefault   RateSource = "default_estimate"
)

// AIStatus records how the AI research step ended for one cascade run.
type AIStatus string

const (
	AIStatusUsed    AIStatus = "used"
	AIStatusSkipped AIStatus = "skipped"
	AIStatusFailed  AIStatus = "failed"
)

// QualityTier is the closed set of portfolio quality classifications.
type QualityTier string

const (
	QualityBudget  QualityTier = "budget"
	QualityMid     QualityTier = "mid"
	QualityPremium QualityTier = "premium"
)

// QualityTiers lists all valid tiers.
var QualityTiers = []QualityTier{QualityBudget, QualityMid, QualityPremium}

// ConfidenceLevels lists all valid confidence buckets.
var ConfidenceLevels = []Confidence{ConfidenceLow, ConfidenceMedium, ConfidenceHigh}

// RateRange is a low/high dollar band around a suggested rate.
type RateRange struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// SuggestedRate is the single rate the reconciliation cascade settles on,
// with provenance.
type SuggestedRate struct {
	HourlyRate          float64    `json:"hourly_rate"`
	RateRange           RateRange  `json:"rate_range"`
	BaseRate            float64    `json:"base_rate"`
	SeniorityMultiplier float64    `json:"seniority_multiplier"`
	RateSource          RateSource `json:"rate_source"`
	Note                string     `json:"note"`
}

// PortfolioSignals are the normalized, allow-listed attributes extracted
// from the AI analysis of submitted portfolio material. Never populated
// directly from raw AI output.
type PortfolioSignals struct {
	SeniorityLevel    Seniority   `json:"seniority_level"`
	SkillAreas        []string    `json:"skill_areas"`
	Specialization    string      `json:"specialization,omitempty"`
	QualityTier       QualityTier `json:"portfolio_quality_tier,omitempty"`
	Confidence        Confidence  `json:"confidence"`
	BenchmarkCategory string      `json:"market_benchmark_category,omitempty"`
	Summary           string      `json:"summary,omitempty"`
	Evidence          []string    `json:"evidence,omitempty"`
	Limitations       []string    `json:"limitations,omitempty"`
	FollowUpQuestions []string    `json:"follow_up_questions,omitempty"`
}

// AIRecommendedRate is the AI collaborator's own rate proposal.
type AIRecommendedRate struct {
	HourlyRate float64   `json:"hourly_rate"`
	RateRange  RateRange `json:"rate_range"`
	Reasoning  string    `json:"reasoning,omitempty"`
}

// ResearchedCosts are monthly cost figures researched by the AI.
type ResearchedCosts struct {
	Workspace    float64  `json:"workspace"`
	Software     float64  `json:"software"`
	Equipment    float64  `json:"equipment"`
	Utilities    float64  `json:"utilities"`
	Materials    float64  `json:"materials"`
	TotalMonthly float64  `json:"total_monthly"`
	Sources      []string `json:"sources,omitempty"`
}

// IncomeResearch is AI-researched income data for the market.
type IncomeResearch struct {
	MedianIncome float64   `json:"median_income"`
	IncomeRange  RateRange `json:"income_range"`
	Sources      []string  `json:"sources,omitempty"`
}

// MarketResearch is AI-researched market rate data.
type MarketResearch struct {
	MarketRateRange RateRange `json:"market_rate_range"`
	Sources         []string  `json:"sources,omitempty"`
}

// CalculationBreakdown shows how the AI derived its recommended rate.
type CalculationBreakdown struct {
	MonthlyExpenses     float64 `json:"monthly_expenses"`
	DesiredIncome       float64 `json:"desired_income"`
	BillableHours       float64 `json:"billable_hours"`
	BaseRate            float64 `json:"base_rate"`
	SeniorityMultiplier float64 `json:"seniority_multiplier"`
	ClientMultiplier    float64 `json:"client_multiplier"`
	FinalRate           float64 `json:"final_rate"`
}

// Explainability is always populated on a recommendation so the user can
// see how the rate was derived and what its limits are.
type Explainability struct {
	Summary     string   `json:"summary"`
	Evidence    []string `json:"evidence"`
	Limitations []string `json:"limitations"`
}

// BenchmarkCategoryRef names the category a recommendation was matched to.
type BenchmarkCategoryRef struct {
	CategoryID   int64  `json:"category_id,omitempty"`
	CategoryName string `json:"category_name,omitempty"`
}

// ConfirmedValues are the post-precedence field values the cascade worked
// with: explicit override > AI signal > hard default.
type ConfirmedValues struct {
	SeniorityLevel    Seniority             `json:"seniority_level"`
	SkillAreas        []string              `json:"skill_areas"`
	Specialization    string                `json:"specialization,omitempty"`
	QualityTier       QualityTier           `json:"portfolio_quality_tier,omitempty"`
	Confidence        Confidence            `json:"confidence"`
	BenchmarkCategory *BenchmarkCategoryRef `json:"market_benchmark_category,omitempty"`
}

// BenchmarkSummary is the benchmark slice surfaced on a recommendation.
type BenchmarkSummary struct {
	CategoryID       int64     `json:"category_id"`
	CategoryName     string    `json:"category_name"`
	SeniorityLevel   Seniority `json:"seniority_level"`
	MedianRate       float64   `json:"median_rate"`
	Percentile75Rate float64   `json:"percentile_75_rate"`
	SampleSize       int       `json:"sample_size"`
}

// RateRecommendation is the full output of the rate reconciliation
// cascade. Derived per request; never persisted as its own entity.
type RateRecommendation struct {
	AIStatus             AIStatus              `json:"ai_status"`
	PortfolioSignals     *PortfolioSignals     `json:"portfolio_signals,omitempty"`
	OverridesApplied     []string              `json:"overrides_applied"`
	ConfirmedValues      ConfirmedValues       `json:"confirmed_values"`
	SeniorityMultiplier  float64               `json:"seniority_multiplier"`
	MarketBenchmark      *BenchmarkSummary     `json:"market_benchmark,omitempty"`
	SuggestedRate        *SuggestedRate        `json:"suggested_rate,omitempty"`
	AIRecommendedRate    *AIRecommendedRate    `json:"ai_recommended_rate,omitempty"`
	ResearchedCosts      *ResearchedCosts      `json:"ai_researched_costs,omitempty"`
	IncomeResearch       *IncomeResearch       `json:"ai_income_research,omitempty"`
	MarketResearch       *MarketResearch       `json:"ai_market_research,omitempty"`
	CalculationBreakdown *CalculationBreakdown `json:"ai_calculation_breakdown,omitempty"`
	FollowUpQuestions    []string              `json:"follow_up_questions,omitempty"`
	Explainability       Explainability        `json:"explainability"`
}

// SignalOverrides are explicit user-supplied values that take precedence
// over AI signals in the cascade.
type SignalOverrides struct {
	SeniorityLevel    *string  `json:"seniority_level,omitempty"`
	SkillAreas        []string `json:"skill_areas,omitempty"`
	Specialization    *string  `json:"specialization,omitempty"`
	QualityTier       *string  `json:"portfolio_quality_tier,omitempty"`
	Confidence        *string  `json:"confidence,omitempty"`
	BenchmarkCategory *string  `json:"market_benchmark_category,omitempty"`
}

// PortfolioAnalysisRequest is the input to the AI research collaborator.
type PortfolioAnalysisRequest struct {
	PortfolioURL    string   `json:"portfolio_url,omitempty"`
	PortfolioText   string   `json:"portfolio_text,omitempty"`
	PortfolioPDF    []byte   `json:"portfolio_pdf,omitempty"`
	ExperienceYears *float64 `json:"experience_years,omitempty"`
	Skills          string   `json:"skills,omitempty"`
	HoursPerWeek    *float64 `json:"hours_per_week,omitempty"`
	ClientType      string   `json:"client_type,omitempty"`
	Region          string   `json:"region,omitempty"`
}

// AnswerInterpretationRequest asks the AI to normalize a free-form
// questionnaire answer into its expected type.
type AnswerInterpretationRequest struct {
	QuestionKey  string           `json:"question_key"`
	ExpectedType QuestionType     `json:"expected_type"`
	UserAnswer   string           `json:"user_answer"`
	Rules        *ValidationRules `json:"validation_rules,omitempty"`
}

// AnswerInterpretation is the AI's verdict on a questionnaire answer.
type AnswerInterpretation struct {
	IsValid         bool   `json:"is_valid"`
	NormalizedValue any    `json:"normalized_value,omitempty"`
	Feedback        string `json:"feedback,omitempty"`
}
