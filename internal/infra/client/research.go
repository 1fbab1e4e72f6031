// Package client holds HTTP clients for external collaborators.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/vengleap/rateworks/internal/domain"
	"github.com/vengleap/rateworks/internal/infra/observability"
	"github.com/vengleap/rateworks/internal/infra/resilience"
)

var tracer = otel.Tracer("client")

// researchUsage is the token accounting block the research service
// attaches to every response.
type researchUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// ResearchClient calls the AI research service (Python/LangGraph).
// A bulkhead caps in-flight research calls so a slow model cannot pin
// every server goroutine.
type ResearchClient struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	bulkhead   *resilience.Bulkhead
	cfg        resilience.Config
	metrics    *observability.Metrics
}

// NewResearchClient creates a new ResearchClient.
func NewResearchClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, metrics *observability.Metrics) *ResearchClient {
	return &ResearchClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		bulkhead:   resilience.NewBulkhead(cfg.MaxConcurrency),
		cfg:        cfg,
		metrics:    metrics,
	}
}

// AnalyzePortfolio submits portfolio material for analysis and returns
// the raw signal payload. The payload is untrusted model output; callers
// must normalize it before use.
func (c *ResearchClient) AnalyzePortfolio(ctx context.Context, req *domain.PortfolioAnalysisRequest) (map[string]any, error) {
	ctx, span := tracer.Start(ctx, "ResearchClient.AnalyzePortfolio")
	defer span.End()
	span.SetAttributes(attribute.Bool("portfolio.has_url", req.PortfolioURL != ""))

	if err := c.bulkhead.Acquire(ctx); err != nil {
		return nil, &domain.ErrAIService{Operation: "analyze_portfolio", Err: err}
	}
	defer c.bulkhead.Release()

	var envelope struct {
		Signals map[string]any `json:"signals"`
		Usage   *researchUsage `json:"usage,omitempty"`
	}

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			return c.post(ctx, "/v1/research/portfolio", req, &envelope)
		})
	})
	if err != nil {
		c.metrics.IncrExternalError("research")
		return nil, &domain.ErrAIService{Operation: "analyze_portfolio", Err: err}
	}

	if envelope.Usage != nil {
		c.metrics.RecordTokens(envelope.Usage.PromptTokens, envelope.Usage.CompletionTokens)
	}
	if envelope.Signals == nil {
		return nil, &domain.ErrAIService{Operation: "analyze_portfolio", Err: fmt.Errorf("response carried no signals")}
	}
	return envelope.Signals, nil
}

// InterpretAnswer asks the research service to normalize a free-form
// questionnaire answer against the question's expected type and rules.
func (c *ResearchClient) InterpretAnswer(ctx context.Context, req *domain.AnswerInterpretationRequest) (*domain.AnswerInterpretation, error) {
	ctx, span := tracer.Start(ctx, "ResearchClient.InterpretAnswer")
	defer span.End()
	span.SetAttributes(attribute.String("question.key", req.QuestionKey))

	if err := c.bulkhead.Acquire(ctx); err != nil {
		return nil, &domain.ErrAIService{Operation: "interpret_answer", Err: err}
	}
	defer c.bulkhead.Release()

	var envelope struct {
		domain.AnswerInterpretation
		Usage *researchUsage `json:"usage,omitempty"`
	}

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			return c.post(ctx, "/v1/research/interpret", req, &envelope)
		})
	})
	if err != nil {
		c.metrics.IncrExternalError("research")
		return nil, &domain.ErrAIService{Operation: "interpret_answer", Err: err}
	}

	if envelope.Usage != nil {
		c.metrics.RecordTokens(envelope.Usage.PromptTokens, envelope.Usage.CompletionTokens)
	}
	return &envelope.AnswerInterpretation, nil
}

func (c *ResearchClient) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := c.baseURL + path
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("research API returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
