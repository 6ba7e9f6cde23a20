// Package registry holds the immutable table of routable models.
//
// A Registry is constructed once from validated configuration and passed by
// reference into the router and analytics engines. Reloading means building
// a new Registry, never mutating an existing one.
package registry

import (
	"fmt"
	"sort"

	"github.com/tierline-ai/tierline/pkg/models"
)

// Registry indexes models by ID and by tier.
type Registry struct {
	byID   map[string]models.Model
	byTier map[models.Tier][]models.Model
	all    []models.Model
}

// New builds a Registry from models in declaration order. Each tier's
// candidate list is sorted by input cost, cheapest first; equal-cost models
// keep their declaration order, which makes routing reproducible.
func New(list []models.Model) (*Registry, error) {
	r := &Registry{
		byID:   make(map[string]models.Model, len(list)),
		byTier: make(map[models.Tier][]models.Model),
	}

	for _, m := range list {
		if m.ID == "" {
			return nil, fmt.Errorf("registry: model with empty id")
		}
		if !m.Tier.Valid() {
			return nil, fmt.Errorf("registry: model %q has unknown tier %q", m.ID, m.Tier)
		}
		if m.InputCostPer1K < 0 || m.OutputCostPer1K < 0 {
			return nil, fmt.Errorf("registry: model %q has a negative cost rate", m.ID)
		}
		if _, dup := r.byID[m.ID]; dup {
			return nil, fmt.Errorf("registry: duplicate model id %q", m.ID)
		}
		r.byID[m.ID] = m
		r.byTier[m.Tier] = append(r.byTier[m.Tier], m)
		r.all = append(r.all, m)
	}

	for tier := range r.byTier {
		sort.SliceStable(r.byTier[tier], func(i, j int) bool {
			return r.byTier[tier][i].InputCostPer1K < r.byTier[tier][j].InputCostPer1K
		})
	}

	return r, nil
}

// Get returns the model with the given ID.
func (r *Registry) Get(id string) (models.Model, bool) {
	m, ok := r.byID[id]
	return m, ok
}

// ByTier returns the models in a tier, cheapest input cost first.
// The returned slice must not be modified.
func (r *Registry) ByTier(tier models.Tier) []models.Model {
	return r.byTier[tier]
}

// All returns every registered model in declaration order.
func (r *Registry) All() []models.Model {
	return r.all
}

// Len returns the number of registered models.
func (r *Registry) Len() int {
	return len(r.all)
}

// MostExpensive returns the model with the highest output cost, used as the
// default baseline for savings counterfactuals. Ties keep declaration order.
func (r *Registry) MostExpensive() (models.Model, bool) {
	var best models.Model
	found := false
	for _, m := range r.all {
		if !found || m.OutputCostPer1K > best.OutputCostPer1K {
			best = m
			found = true
		}
	}
	return best, found
}
