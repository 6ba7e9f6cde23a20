// Package router selects a model for each request based on its classified
// complexity tier and the registry's pricing.
package router

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tierline-ai/tierline/pkg/classifier"
	"github.com/tierline-ai/tierline/pkg/config"
	"github.com/tierline-ai/tierline/pkg/models"
	"github.com/tierline-ai/tierline/pkg/registry"
)

// ErrNoAvailableModel is returned when no model can serve the resolved tier
// or any tier below it. The error is fatal to the routing call; the caller
// decides any fallback policy.
var ErrNoAvailableModel = errors.New("no available model")

// Options tune a single routing call. The zero value uses text-derived
// token estimates, no cost cap, and no tier floor.
type Options struct {
	// InputTokens and OutputTokens override the text-derived estimate
	// when positive.
	InputTokens  int
	OutputTokens int

	// MaxCost skips candidates whose estimated cost exceeds it. Zero
	// means no cap.
	MaxCost float64

	// MinTier raises the classified tier to at least this tier.
	MinTier models.Tier
}

// Router routes request text to a model. It is a pure function of its
// inputs and the registry, holds no mutable state, and never writes usage
// records itself.
type Router struct {
	registry   *registry.Registry
	classifier *classifier.Classifier
	cfg        config.RouterConfig
}

// New creates a Router over the given registry and classifier.
func New(reg *registry.Registry, cls *classifier.Classifier, cfg config.RouterConfig) *Router {
	return &Router{registry: reg, classifier: cls, cfg: cfg}
}

// Route classifies text and selects a model with default options.
func (r *Router) Route(text string) (models.RoutingDecision, error) {
	return r.RouteWithOptions(text, Options{})
}

// RouteWithOptions classifies text, resolves a tier, and selects the
// cheapest suitable model in that tier. An empty tier falls back to the
// next tier down; if no tier has a suitable model the call fails with
// ErrNoAvailableModel.
//
// Selection within a tier is deterministic: lowest input cost per 1K
// tokens first, then registry declaration order.
func (r *Router) RouteWithOptions(text string, opts Options) (models.RoutingDecision, error) {
	score, tier := r.classifier.Classify(text)
	if opts.MinTier != "" && tierRank(opts.MinTier) > tierRank(tier) {
		tier = opts.MinTier
	}

	in, out := r.tokenEstimate(text, opts)

	reasons := []string{fmt.Sprintf("complexity %.1f mapped to %s tier", score, tier)}

	for t := tier; t != ""; t = t.Below() {
		model, ok := r.pickModel(t, in, out, opts.MaxCost)
		if !ok {
			reasons = append(reasons, fmt.Sprintf("no suitable model in %s tier", t))
			continue
		}
		if t != tier {
			reasons = append(reasons, fmt.Sprintf("fell back to %s tier", t))
		}
		reasons = append(reasons, fmt.Sprintf("selected cheapest candidate %s", model.ID))

		return models.RoutingDecision{
			Model:         model,
			Tier:          model.Tier,
			Score:         score,
			InputTokens:   in,
			OutputTokens:  out,
			EstimatedCost: model.EstimateCost(in, out),
			Reason:        strings.Join(reasons, "; "),
		}, nil
	}

	return models.RoutingDecision{}, fmt.Errorf("%w for tier %s (max cost %v)",
		ErrNoAvailableModel, tier, opts.MaxCost)
}

// pickModel returns the first candidate in the tier's cheapest-first order
// whose estimated cost fits under maxCost (0 = no cap).
func (r *Router) pickModel(tier models.Tier, in, out int, maxCost float64) (models.Model, bool) {
	for _, m := range r.registry.ByTier(tier) {
		if maxCost > 0 && m.EstimateCost(in, out) > maxCost {
			continue
		}
		return m, true
	}
	return models.Model{}, false
}

// tokenEstimate resolves token counts for cost estimation: explicit options
// win; otherwise input is estimated as twice the word count, floored at the
// configured minimum, and output mirrors input.
func (r *Router) tokenEstimate(text string, opts Options) (in, out int) {
	in = opts.InputTokens
	if in <= 0 {
		in = 2 * len(strings.Fields(text))
		if floor := r.cfg.MinInputTokens; in < floor {
			in = floor
		}
	}
	out = opts.OutputTokens
	if out <= 0 {
		out = in
	}
	return in, out
}

func tierRank(t models.Tier) int {
	switch t {
	case models.TierPremium:
		return 2
	case models.TierStandard:
		return 1
	default:
		return 0
	}
}
