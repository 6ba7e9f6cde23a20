package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tierline-ai/tierline/pkg/models"
)

// Config holds all tierline configuration.
type Config struct {
	DBPath     string                    `yaml:"db_path"`
	Tiers      map[string][]models.Model `yaml:"tiers"`
	Classifier ClassifierConfig          `yaml:"classifier"`
	Router     RouterConfig              `yaml:"router"`
	Budget     BudgetConfig              `yaml:"budget"`
}

// ClassifierConfig holds the complexity scoring thresholds and keyword lists.
type ClassifierConfig struct {
	// Score boundaries between tiers: score <= LowMax routes to economy,
	// score <= HighMax to standard, anything above to premium.
	LowMax  float64 `yaml:"low_max"`
	HighMax float64 `yaml:"high_max"`

	// Character-length buckets for the length signal.
	ShortTextMax  int `yaml:"short_text_max"`
	MediumTextMax int `yaml:"medium_text_max"`

	ComplexKeywords []string `yaml:"complex_keywords"`
	SimpleKeywords  []string `yaml:"simple_keywords"`
}

// RouterConfig controls cost estimation defaults.
type RouterConfig struct {
	// MinInputTokens floors the token estimate derived from request text.
	MinInputTokens int `yaml:"min_input_tokens"`
}

// BudgetConfig holds status thresholds and declared budgets.
type BudgetConfig struct {
	// Usage percentages at which status escalates. Exceeded is always 100.
	WarningPct  float64 `yaml:"warning_pct"`
	CriticalPct float64 `yaml:"critical_pct"`

	Budgets []models.Budget `yaml:"budgets"`
}

// Default returns a Config with sensible defaults and an empty registry.
func Default() *Config {
	return &Config{
		DBPath: "tierline.db",
		Classifier: ClassifierConfig{
			LowMax:        1.0,
			HighMax:       3.5,
			ShortTextMax:  100,
			MediumTextMax: 500,
			ComplexKeywords: []string{
				"analyze", "compare", "evaluate", "step by step", "comprehensive",
				"architecture", "optimize", "refactor", "trade-off", "in depth",
			},
			SimpleKeywords: []string{
				"what is", "who is", "define", "meaning of", "translate",
			},
		},
		Router: RouterConfig{
			MinInputTokens: 100,
		},
		Budget: BudgetConfig{
			WarningPct:  80,
			CriticalPct: 90,
		},
	}
}

// Load reads a YAML config file, expands environment variables, applies
// defaults, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks tier names, cost rates, thresholds, and declared budgets.
func (c *Config) Validate() error {
	for tierName, list := range c.Tiers {
		tier := models.Tier(tierName)
		if !tier.Valid() {
			return fmt.Errorf("config: unknown tier %q", tierName)
		}
		for _, m := range list {
			if m.ID == "" {
				return fmt.Errorf("config: tier %q has a model with no id", tierName)
			}
			if m.InputCostPer1K < 0 || m.OutputCostPer1K < 0 {
				return fmt.Errorf("config: model %q has a negative cost rate", m.ID)
			}
		}
	}

	cl := c.Classifier
	if cl.LowMax < 0 || cl.HighMax <= cl.LowMax {
		return fmt.Errorf("config: classifier thresholds must satisfy 0 <= low_max < high_max (got %v, %v)",
			cl.LowMax, cl.HighMax)
	}
	if cl.ShortTextMax <= 0 || cl.MediumTextMax <= cl.ShortTextMax {
		return fmt.Errorf("config: classifier text lengths must satisfy 0 < short_text_max < medium_text_max")
	}

	b := c.Budget
	if b.WarningPct <= 0 || b.CriticalPct <= b.WarningPct || b.CriticalPct > 100 {
		return fmt.Errorf("config: budget thresholds must satisfy 0 < warning_pct < critical_pct <= 100 (got %v, %v)",
			b.WarningPct, b.CriticalPct)
	}
	for _, budget := range b.Budgets {
		if budget.Entity == "" {
			return fmt.Errorf("config: budget with empty entity")
		}
		if budget.Limit <= 0 {
			return fmt.Errorf("config: budget for %q must have a positive limit", budget.Entity)
		}
		if budget.Period != "" && !budget.Period.Valid() {
			return fmt.Errorf("config: budget for %q has unknown period %q", budget.Entity, budget.Period)
		}
	}

	return nil
}

// Models flattens the tier table into declaration order (economy first),
// with each model's Tier field populated.
func (c *Config) Models() []models.Model {
	var out []models.Model
	for _, tier := range models.Tiers {
		for _, m := range c.Tiers[string(tier)] {
			m.Tier = tier
			out = append(out, m)
		}
	}
	return out
}
