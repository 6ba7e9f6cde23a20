package registry

import (
	"math"
	"testing"

	"github.com/tierline-ai/tierline/pkg/models"
)

func testModels() []models.Model {
	return []models.Model{
		{ID: "flash", Tier: models.TierEconomy, InputCostPer1K: 0.001, OutputCostPer1K: 0.004},
		{ID: "flash-lite", Tier: models.TierEconomy, InputCostPer1K: 0.0001, OutputCostPer1K: 0.0004},
		{ID: "sonnet", Tier: models.TierStandard, InputCostPer1K: 0.003, OutputCostPer1K: 0.015},
		{ID: "opus", Tier: models.TierPremium, InputCostPer1K: 0.015, OutputCostPer1K: 0.075},
	}
}

func TestByTierSortedByInputCost(t *testing.T) {
	r, err := New(testModels())
	if err != nil {
		t.Fatal(err)
	}

	economy := r.ByTier(models.TierEconomy)
	if len(economy) != 2 {
		t.Fatalf("expected 2 economy models, got %d", len(economy))
	}
	if economy[0].ID != "flash-lite" {
		t.Errorf("expected flash-lite first (cheapest), got %s", economy[0].ID)
	}
}

func TestEqualCostKeepsDeclarationOrder(t *testing.T) {
	r, err := New([]models.Model{
		{ID: "a", Tier: models.TierEconomy, InputCostPer1K: 0.001},
		{ID: "b", Tier: models.TierEconomy, InputCostPer1K: 0.001},
	})
	if err != nil {
		t.Fatal(err)
	}
	economy := r.ByTier(models.TierEconomy)
	if economy[0].ID != "a" || economy[1].ID != "b" {
		t.Errorf("equal-cost models reordered: %s, %s", economy[0].ID, economy[1].ID)
	}
}

func TestGet(t *testing.T) {
	r, _ := New(testModels())
	m, ok := r.Get("opus")
	if !ok || m.Tier != models.TierPremium {
		t.Errorf("unexpected lookup result: %+v, %v", m, ok)
	}
	if _, ok := r.Get("missing"); ok {
		t.Error("expected lookup miss")
	}
}

func TestMostExpensive(t *testing.T) {
	r, _ := New(testModels())
	m, ok := r.MostExpensive()
	if !ok || m.ID != "opus" {
		t.Errorf("expected opus as baseline, got %+v", m)
	}

	empty, _ := New(nil)
	if _, ok := empty.MostExpensive(); ok {
		t.Error("expected no baseline in empty registry")
	}
}

func TestNewRejects(t *testing.T) {
	cases := []struct {
		name string
		list []models.Model
	}{
		{"empty id", []models.Model{{Tier: models.TierEconomy}}},
		{"unknown tier", []models.Model{{ID: "x", Tier: "ultra"}}},
		{"negative rate", []models.Model{{ID: "x", Tier: models.TierEconomy, OutputCostPer1K: -1}}},
		{"duplicate id", []models.Model{
			{ID: "x", Tier: models.TierEconomy},
			{ID: "x", Tier: models.TierPremium},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.list); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestEstimateCost(t *testing.T) {
	m := models.Model{InputCostPer1K: 0.01, OutputCostPer1K: 0.03}
	got := m.EstimateCost(1000, 2000)
	want := 0.01 + 0.06
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("expected %v, got %v", want, got)
	}
}
