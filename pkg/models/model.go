package models

// Tier is a named cost/quality bucket grouping one or more models.
type Tier string

const (
	TierEconomy  Tier = "economy"
	TierStandard Tier = "standard"
	TierPremium  Tier = "premium"
)

// Tiers lists all known tiers from cheapest to most capable.
var Tiers = []Tier{TierEconomy, TierStandard, TierPremium}

// Valid reports whether t is a known tier name.
func (t Tier) Valid() bool {
	switch t {
	case TierEconomy, TierStandard, TierPremium:
		return true
	}
	return false
}

// Below returns the next tier down, or "" when t is the lowest tier.
func (t Tier) Below() Tier {
	switch t {
	case TierPremium:
		return TierStandard
	case TierStandard:
		return TierEconomy
	}
	return ""
}

// Model describes one routable LLM backend with its pricing.
type Model struct {
	ID              string  `json:"id" yaml:"id"`
	Name            string  `json:"name" yaml:"name"`
	Provider        string  `json:"provider,omitempty" yaml:"provider,omitempty"`
	Tier            Tier    `json:"tier" yaml:"-"`
	InputCostPer1K  float64 `json:"input_cost_per_1k" yaml:"input_cost_per_1k"`
	OutputCostPer1K float64 `json:"output_cost_per_1k" yaml:"output_cost_per_1k"`
	QualityScore    float64 `json:"quality_score,omitempty" yaml:"quality_score,omitempty"`
}

// EstimateCost returns the cost of a call with the given token counts.
func (m Model) EstimateCost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)/1000*m.InputCostPer1K +
		float64(outputTokens)/1000*m.OutputCostPer1K
}
