package analytics

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/tierline-ai/tierline/pkg/ledger"
	"github.com/tierline-ai/tierline/pkg/models"
	"github.com/tierline-ai/tierline/pkg/registry"
)

func setup(t *testing.T) (*Engine, ledger.Ledger, context.Context) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "analytics_test.db")
	led, err := ledger.New(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = led.Close() })

	reg, err := registry.New([]models.Model{
		{ID: "flash", Tier: models.TierEconomy, InputCostPer1K: 0.001, OutputCostPer1K: 0.004},
		{ID: "opus", Tier: models.TierPremium, InputCostPer1K: 0.015, OutputCostPer1K: 0.075},
	})
	if err != nil {
		t.Fatal(err)
	}

	return New(led, reg), led, context.Background()
}

func log(t *testing.T, led ledger.Ledger, ctx context.Context, model string, in, out int, cost float64) {
	t.Helper()
	_, err := led.Log(ctx, models.UsageRecord{
		Model:        model,
		Department:   "eng",
		InputTokens:  in,
		OutputTokens: out,
		Cost:         cost,
		LatencyMs:    200,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestSavingsAgainstMostExpensiveBaseline(t *testing.T) {
	eng, led, ctx := setup(t)

	// 10K in / 5K out routed to flash for 0.03; opus would have charged
	// 10*0.015 + 5*0.075 = 0.525.
	log(t, led, ctx, "flash", 10000, 5000, 0.03)

	report, err := eng.Savings(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if report.BaselineModel != "opus" {
		t.Errorf("expected opus baseline, got %s", report.BaselineModel)
	}
	if math.Abs(report.ActualCost-0.03) > 1e-9 {
		t.Errorf("expected actual 0.03, got %v", report.ActualCost)
	}
	if math.Abs(report.BaselineCost-0.525) > 1e-9 {
		t.Errorf("expected baseline 0.525, got %v", report.BaselineCost)
	}
	if math.Abs(report.Savings-0.495) > 1e-9 {
		t.Errorf("expected savings 0.495, got %v", report.Savings)
	}
	wantPct := 0.495 / 0.525 * 100
	if math.Abs(report.SavingsPct-wantPct) > 1e-9 {
		t.Errorf("expected savings pct %v, got %v", wantPct, report.SavingsPct)
	}
}

func TestSavingsCanBeNegative(t *testing.T) {
	eng, led, ctx := setup(t)

	// Actual spend above what the baseline would have charged: savings
	// must come back negative, not clamped.
	log(t, led, ctx, "opus", 1000, 1000, 1.00)

	report, err := eng.Savings(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if report.Savings >= 0 {
		t.Errorf("expected negative savings, got %v", report.Savings)
	}
}

func TestSavingsExplicitBaseline(t *testing.T) {
	eng, led, ctx := setup(t)
	log(t, led, ctx, "opus", 1000, 1000, 0.09)

	report, err := eng.Savings(ctx, "flash")
	if err != nil {
		t.Fatal(err)
	}
	if report.BaselineModel != "flash" {
		t.Errorf("expected flash baseline, got %s", report.BaselineModel)
	}

	if _, err := eng.Savings(ctx, "missing"); !errors.Is(err, ErrNoBaseline) {
		t.Errorf("expected ErrNoBaseline, got %v", err)
	}
}

func TestEfficiency(t *testing.T) {
	eng, led, ctx := setup(t)

	log(t, led, ctx, "flash", 1000, 500, 0.003)
	log(t, led, ctx, "flash", 1000, 500, 0.003)

	metrics, err := eng.Efficiency(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(metrics) != 1 {
		t.Fatalf("expected 1 model, got %d", len(metrics))
	}
	m := metrics[0]
	if math.Abs(m.CostPerOutputToken-0.006/1000) > 1e-12 {
		t.Errorf("expected cost/output token %v, got %v", 0.006/1000, m.CostPerOutputToken)
	}
	if math.Abs(m.CostPerRequest-0.003) > 1e-9 {
		t.Errorf("expected cost/request 0.003, got %v", m.CostPerRequest)
	}
	if m.AvgLatencyMs != 200 {
		t.Errorf("expected avg latency 200, got %v", m.AvgLatencyMs)
	}
}

func TestUtilizationSumsToHundred(t *testing.T) {
	eng, led, ctx := setup(t)

	log(t, led, ctx, "flash", 1000, 500, 0.003)
	log(t, led, ctx, "flash", 1000, 500, 0.003)
	log(t, led, ctx, "opus", 1000, 500, 0.05)

	rates, err := eng.Utilization(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(rates) != 2 {
		t.Fatalf("expected 2 models, got %d", len(rates))
	}

	var reqPct, costPct float64
	for _, r := range rates {
		reqPct += r.RequestPct
		costPct += r.CostPct
	}
	if math.Abs(reqPct-100) > 1e-9 {
		t.Errorf("request percentages sum to %v, want 100", reqPct)
	}
	if math.Abs(costPct-100) > 1e-9 {
		t.Errorf("cost percentages sum to %v, want 100", costPct)
	}
}

func TestUtilizationEmptyLedger(t *testing.T) {
	eng, _, ctx := setup(t)

	rates, err := eng.Utilization(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(rates) != 0 {
		t.Errorf("expected empty result, got %d rates", len(rates))
	}
}

func TestTrendsCumulative(t *testing.T) {
	eng, led, ctx := setup(t)
	now := time.Now().UTC()

	for i := 2; i >= 0; i-- {
		_, err := led.Log(ctx, models.UsageRecord{
			Model:      "flash",
			Department: "eng",
			Cost:       0.10,
			CreatedAt:  now.AddDate(0, 0, -i),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	trends, err := eng.Trends(ctx, 7, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(trends) != 3 {
		t.Fatalf("expected 3 days, got %d", len(trends))
	}
	if math.Abs(trends[2].CumulativeCost-0.30) > 1e-9 {
		t.Errorf("expected cumulative 0.30, got %v", trends[2].CumulativeCost)
	}
	if trends[0].CumulativeCost >= trends[2].CumulativeCost {
		t.Error("cumulative cost should be non-decreasing")
	}
}

func TestStats(t *testing.T) {
	eng, led, ctx := setup(t)

	log(t, led, ctx, "flash", 1000, 500, 0.01)
	log(t, led, ctx, "opus", 1000, 500, 0.05)

	s, err := eng.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if s.TotalRequests != 2 {
		t.Errorf("expected 2 requests, got %d", s.TotalRequests)
	}
	if math.Abs(s.TotalCost-0.06) > 1e-9 {
		t.Errorf("expected total 0.06, got %v", s.TotalCost)
	}
	if math.Abs(s.AvgCostPerRequest-0.03) > 1e-9 {
		t.Errorf("expected avg 0.03, got %v", s.AvgCostPerRequest)
	}
	if s.ModelsUsed != 2 || s.Departments != 1 {
		t.Errorf("unexpected counts: %+v", s)
	}
}
