package models

import "time"

// UsageRecord is one logged fact about a completed (or simulated) model
// invocation. Records are append-only; corrections are new records.
type UsageRecord struct {
	ID           int64     `json:"id"`
	Model        string    `json:"model"`
	Department   string    `json:"department"`
	Project      string    `json:"project"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	Cost         float64   `json:"cost"`
	LatencyMs    float64   `json:"latency_ms"`
	CreatedAt    time.Time `json:"created_at"`
}

// CostSummary aggregates usage for one entity (a department, project, or
// model, depending on the query that produced it).
type CostSummary struct {
	Entity            string  `json:"entity"`
	TotalCost         float64 `json:"total_cost"`
	RequestCount      int64   `json:"request_count"`
	TotalInputTokens  int64   `json:"total_input_tokens"`
	TotalOutputTokens int64   `json:"total_output_tokens"`
	AvgCostPerRequest float64 `json:"avg_cost_per_request"`
	AvgLatencyMs      float64 `json:"avg_latency_ms"`
}

// DailyCost is one day's spend in a trend series.
type DailyCost struct {
	Date         string  `json:"date"`
	TotalCost    float64 `json:"total_cost"`
	RequestCount int64   `json:"request_count"`
}
