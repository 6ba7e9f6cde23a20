// Package analytics computes savings counterfactuals and efficiency
// breakdowns from the usage ledger.
package analytics

import (
	"context"
	"errors"
	"fmt"

	"github.com/tierline-ai/tierline/pkg/ledger"
	"github.com/tierline-ai/tierline/pkg/registry"
)

// ErrNoBaseline is returned when no baseline model can be resolved for the
// savings counterfactual.
var ErrNoBaseline = errors.New("no baseline model")

// Engine derives read-only analytics from the ledger and registry.
type Engine struct {
	ledger   ledger.Ledger
	registry *registry.Registry
}

// New creates an analytics Engine.
func New(l ledger.Ledger, reg *registry.Registry) *Engine {
	return &Engine{ledger: l, registry: reg}
}

// SavingsReport compares actual routed cost against a single-model
// counterfactual. Savings may be negative: routing can cost more than the
// baseline for some token distributions.
type SavingsReport struct {
	ActualCost    float64 `json:"actual_cost"`
	BaselineCost  float64 `json:"baseline_cost"`
	Savings       float64 `json:"savings"`
	SavingsPct    float64 `json:"savings_pct"`
	BaselineModel string  `json:"baseline_model"`
}

// Savings computes the counterfactual cost of sending every logged request
// to a single baseline model at that model's rates, applied to the same
// token counts. An empty baselineID selects the most expensive registered
// model.
func (e *Engine) Savings(ctx context.Context, baselineID string) (SavingsReport, error) {
	baseline, ok := e.registry.Get(baselineID)
	if baselineID == "" {
		baseline, ok = e.registry.MostExpensive()
	}
	if !ok {
		return SavingsReport{}, fmt.Errorf("%w: %q", ErrNoBaseline, baselineID)
	}

	actual, err := e.ledger.TotalCost(ctx, ledger.Filter{})
	if err != nil {
		return SavingsReport{}, fmt.Errorf("savings: %w", err)
	}

	summaries, err := e.ledger.CostsByModel(ctx, ledger.Filter{})
	if err != nil {
		return SavingsReport{}, fmt.Errorf("savings: %w", err)
	}

	var baselineCost float64
	for _, s := range summaries {
		baselineCost += baseline.EstimateCost(int(s.TotalInputTokens), int(s.TotalOutputTokens))
	}

	savings := baselineCost - actual
	var pct float64
	if baselineCost > 0 {
		pct = savings / baselineCost * 100
	}

	return SavingsReport{
		ActualCost:    actual,
		BaselineCost:  baselineCost,
		Savings:       savings,
		SavingsPct:    pct,
		BaselineModel: baseline.ID,
	}, nil
}

// EfficiencyMetric describes the unit economics of one model actually used.
type EfficiencyMetric struct {
	Model              string  `json:"model"`
	CostPerOutputToken float64 `json:"cost_per_output_token"`
	CostPerTotalToken  float64 `json:"cost_per_total_token"`
	CostPerRequest     float64 `json:"cost_per_request"`
	AvgLatencyMs       float64 `json:"avg_latency_ms"`
	TotalCost          float64 `json:"total_cost"`
	RequestCount       int64   `json:"request_count"`
}

// Efficiency returns per-model unit costs over the whole ledger.
func (e *Engine) Efficiency(ctx context.Context) ([]EfficiencyMetric, error) {
	summaries, err := e.ledger.CostsByModel(ctx, ledger.Filter{})
	if err != nil {
		return nil, fmt.Errorf("efficiency: %w", err)
	}

	out := make([]EfficiencyMetric, 0, len(summaries))
	for _, s := range summaries {
		m := EfficiencyMetric{
			Model:        s.Entity,
			AvgLatencyMs: s.AvgLatencyMs,
			TotalCost:    s.TotalCost,
			RequestCount: s.RequestCount,
		}
		if s.TotalOutputTokens > 0 {
			m.CostPerOutputToken = s.TotalCost / float64(s.TotalOutputTokens)
		}
		if total := s.TotalInputTokens + s.TotalOutputTokens; total > 0 {
			m.CostPerTotalToken = s.TotalCost / float64(total)
		}
		if s.RequestCount > 0 {
			m.CostPerRequest = s.TotalCost / float64(s.RequestCount)
		}
		out = append(out, m)
	}
	return out, nil
}

// UtilizationRate attributes a share of total requests and cost to one
// model.
type UtilizationRate struct {
	Model        string  `json:"model"`
	RequestCount int64   `json:"request_count"`
	RequestPct   float64 `json:"request_pct"`
	Cost         float64 `json:"cost"`
	CostPct      float64 `json:"cost_pct"`
}

// Utilization returns per-model shares of requests and cost. Over a
// non-empty ledger the percentages sum to 100 within rounding; an empty
// ledger yields an empty result.
func (e *Engine) Utilization(ctx context.Context) ([]UtilizationRate, error) {
	summaries, err := e.ledger.CostsByModel(ctx, ledger.Filter{})
	if err != nil {
		return nil, fmt.Errorf("utilization: %w", err)
	}
	if len(summaries) == 0 {
		return nil, nil
	}

	var totalRequests int64
	var totalCost float64
	for _, s := range summaries {
		totalRequests += s.RequestCount
		totalCost += s.TotalCost
	}

	out := make([]UtilizationRate, 0, len(summaries))
	for _, s := range summaries {
		r := UtilizationRate{
			Model:        s.Entity,
			RequestCount: s.RequestCount,
			Cost:         s.TotalCost,
		}
		if totalRequests > 0 {
			r.RequestPct = float64(s.RequestCount) / float64(totalRequests) * 100
		}
		if totalCost > 0 {
			r.CostPct = s.TotalCost / totalCost * 100
		}
		out = append(out, r)
	}
	return out, nil
}

// TrendPoint is one day in a cumulative cost series.
type TrendPoint struct {
	Date           string  `json:"date"`
	DailyCost      float64 `json:"daily_cost"`
	RequestCount   int64   `json:"request_count"`
	CumulativeCost float64 `json:"cumulative_cost"`
}

// Trends returns the daily cost series for the past days with a running
// cumulative total, optionally filtered by department.
func (e *Engine) Trends(ctx context.Context, days int, department string) ([]TrendPoint, error) {
	daily, err := e.ledger.DailyCosts(ctx, days, department)
	if err != nil {
		return nil, fmt.Errorf("trends: %w", err)
	}

	out := make([]TrendPoint, 0, len(daily))
	var cumulative float64
	for _, d := range daily {
		cumulative += d.TotalCost
		out = append(out, TrendPoint{
			Date:           d.Date,
			DailyCost:      d.TotalCost,
			RequestCount:   d.RequestCount,
			CumulativeCost: cumulative,
		})
	}
	return out, nil
}

// Summary is a high-level snapshot of ledger contents.
type Summary struct {
	TotalCost         float64 `json:"total_cost"`
	TotalRequests     int64   `json:"total_requests"`
	AvgCostPerRequest float64 `json:"avg_cost_per_request"`
	ModelsUsed        int     `json:"models_used"`
	Departments       int     `json:"departments"`
}

// Stats returns summary statistics over the whole ledger.
func (e *Engine) Stats(ctx context.Context) (Summary, error) {
	total, err := e.ledger.TotalCost(ctx, ledger.Filter{})
	if err != nil {
		return Summary{}, fmt.Errorf("stats: %w", err)
	}
	count, err := e.ledger.RecordCount(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("stats: %w", err)
	}
	byModel, err := e.ledger.CostsByModel(ctx, ledger.Filter{})
	if err != nil {
		return Summary{}, fmt.Errorf("stats: %w", err)
	}
	byDept, err := e.ledger.CostsByDepartment(ctx, ledger.Filter{})
	if err != nil {
		return Summary{}, fmt.Errorf("stats: %w", err)
	}

	s := Summary{
		TotalCost:     total,
		TotalRequests: count,
		ModelsUsed:    len(byModel),
		Departments:   len(byDept),
	}
	if count > 0 {
		s.AvgCostPerRequest = total / float64(count)
	}
	return s, nil
}
