package domain

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
}

// ResearchMetrics is returned by GET /v1/metrics/research.
type ResearchMetrics struct {
	TotalRequests       int64   `json:"totalRequests"`
	ErrorRate           float64 `json:"errorRate"`
	AvgTokensPerRequest float64 `json:"avgTokensPerRequest"`
	EstimatedCostUsd    float64 `json:"estimatedCostUsd"`
	CacheHitRate        float64 `json:"cacheHitRate"`
	Period              string  `json:"period"`
}
