// Package budget governs spend against per-entity limits.
//
// Budget definitions live in memory and are owned by the Engine; the
// ledger is the single source of truth for consumption, queried fresh on
// every status check. Alerting and forecasting are computed synchronously
// on demand, never by a background loop.
package budget

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tierline-ai/tierline/pkg/ledger"
	"github.com/tierline-ai/tierline/pkg/models"
)

var (
	// ErrNoBudget is returned when an entity has no configured budget.
	ErrNoBudget = errors.New("no budget configured")
	// ErrInvalidLimit is returned for non-positive budget limits.
	ErrInvalidLimit = errors.New("budget limit must be positive")
)

// Thresholds are the usage percentages at which status escalates.
// The exceeded boundary is always 100.
type Thresholds struct {
	WarningPct  float64
	CriticalPct float64
}

// DefaultThresholds escalate at 80% (warning) and 90% (critical).
func DefaultThresholds() Thresholds {
	return Thresholds{WarningPct: 80, CriticalPct: 90}
}

// boundary is one row of the ordered status table.
type boundary struct {
	min   float64
	state models.BudgetState
}

// Engine maintains budgets and derives status, alerts, and forecasts from
// ledger consumption. Safe for concurrent use.
type Engine struct {
	mu      sync.RWMutex
	budgets map[string]models.Budget

	ledger ledger.Ledger
	table  []boundary

	now func() time.Time
}

// New creates an Engine over the given ledger.
func New(l ledger.Ledger, th Thresholds) *Engine {
	return &Engine{
		budgets: make(map[string]models.Budget),
		ledger:  l,
		table: []boundary{
			{100, models.StateExceeded},
			{th.CriticalPct, models.StateCritical},
			{th.WarningPct, models.StateWarning},
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

// stateFor classifies a usage percentage via the ordered boundary table.
func (e *Engine) stateFor(pct float64) models.BudgetState {
	for _, b := range e.table {
		if pct >= b.min {
			return b.state
		}
	}
	return models.StateOK
}

// Set creates or replaces the budget for an entity. An empty period
// defaults to monthly. The limit must be strictly positive.
func (e *Engine) Set(entity string, limit float64, period models.BudgetPeriod) (models.Budget, error) {
	if entity == "" {
		return models.Budget{}, fmt.Errorf("budget: empty entity")
	}
	if limit <= 0 {
		return models.Budget{}, fmt.Errorf("%w: got %v for %q", ErrInvalidLimit, limit, entity)
	}
	if period == "" {
		period = models.BudgetMonthly
	}
	if !period.Valid() {
		return models.Budget{}, fmt.Errorf("budget: unknown period %q", period)
	}

	b := models.Budget{Entity: entity, Limit: limit, Period: period}
	e.mu.Lock()
	e.budgets[entity] = b
	e.mu.Unlock()
	return b, nil
}

// Remove deletes the budget for an entity, reporting whether one existed.
func (e *Engine) Remove(entity string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.budgets[entity]; !ok {
		return false
	}
	delete(e.budgets, entity)
	return true
}

// Get returns the budget for an entity.
func (e *Engine) Get(entity string) (models.Budget, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	b, ok := e.budgets[entity]
	return b, ok
}

// All returns every budget, sorted by entity for deterministic iteration.
func (e *Engine) All() []models.Budget {
	e.mu.RLock()
	out := make([]models.Budget, 0, len(e.budgets))
	for _, b := range e.budgets {
		out = append(out, b)
	}
	e.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Entity < out[j].Entity })
	return out
}

// Check recomputes the status of an entity's budget against current ledger
// consumption. It never serves a cached status.
func (e *Engine) Check(ctx context.Context, entity string) (models.BudgetStatus, error) {
	b, ok := e.Get(entity)
	if !ok {
		return models.BudgetStatus{}, fmt.Errorf("%w for %q", ErrNoBudget, entity)
	}
	return e.status(ctx, b)
}

func (e *Engine) status(ctx context.Context, b models.Budget) (models.BudgetStatus, error) {
	start := b.Period.Start(e.now())
	consumed, err := e.ledger.EntitySpend(ctx, b.Entity, start)
	if err != nil {
		return models.BudgetStatus{}, fmt.Errorf("budget check %q: %w", b.Entity, err)
	}

	remaining := b.Limit - consumed
	if remaining < 0 {
		remaining = 0
	}
	pct := consumed / b.Limit * 100

	return models.BudgetStatus{
		Entity:    b.Entity,
		Limit:     b.Limit,
		Consumed:  consumed,
		Remaining: remaining,
		UsagePct:  pct,
		Period:    b.Period,
		State:     e.stateFor(pct),
	}, nil
}

// CheckAll returns statuses for every budget, ordered by entity.
func (e *Engine) CheckAll(ctx context.Context) ([]models.BudgetStatus, error) {
	budgets := e.All()
	out := make([]models.BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		s, err := e.status(ctx, b)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// GenerateAlerts emits one alert per budget whose status is warning or
// worse. It does not deduplicate: two calls over an unchanged ledger yield
// identical alert sets, and alert IDs are stable for a given
// (entity, state, period start) so consumers can deduplicate downstream.
func (e *Engine) GenerateAlerts(ctx context.Context) ([]models.Alert, error) {
	statuses, err := e.CheckAll(ctx)
	if err != nil {
		return nil, err
	}

	var alerts []models.Alert
	for _, s := range statuses {
		if s.State == models.StateOK {
			continue
		}
		alerts = append(alerts, e.alertFor(s))
	}
	return alerts, nil
}

func (e *Engine) alertFor(s models.BudgetStatus) models.Alert {
	severity := models.SeverityWarning
	if s.State == models.StateCritical || s.State == models.StateExceeded {
		severity = models.SeverityCritical
	}

	start := s.Period.Start(e.now())
	key := fmt.Sprintf("%s|%s|%s", s.Entity, s.State, start.Format(time.RFC3339))

	return models.Alert{
		ID:       uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String(),
		Entity:   s.Entity,
		State:    s.State,
		Severity: severity,
		Message: fmt.Sprintf("%s: %q has used %.1f%% of its $%.2f %s budget ($%.2f spent)",
			strings.ToUpper(string(severity)), s.Entity, s.UsagePct, s.Limit, s.Period, s.Consumed),
		CreatedAt: e.now(),
	}
}

// Forecast projects period spend for an entity with a linear burn rate:
// daily rate = consumed / elapsed days (floored at 1), projected spend =
// consumed + rate * daysAhead. With no consumption yet this period the
// result reports InsufficientData instead of a zero trend.
func (e *Engine) Forecast(ctx context.Context, entity string, daysAhead int) (models.ForecastResult, error) {
	b, ok := e.Get(entity)
	if !ok {
		return models.ForecastResult{}, fmt.Errorf("%w for %q", ErrNoBudget, entity)
	}
	if daysAhead < 0 {
		return models.ForecastResult{}, fmt.Errorf("budget forecast: negative days_ahead %d", daysAhead)
	}

	now := e.now()
	start := b.Period.Start(now)
	consumed, err := e.ledger.EntitySpend(ctx, entity, start)
	if err != nil {
		return models.ForecastResult{}, fmt.Errorf("budget forecast %q: %w", entity, err)
	}

	if consumed == 0 {
		return models.ForecastResult{
			Entity:           entity,
			DaysAhead:        daysAhead,
			Limit:            b.Limit,
			InsufficientData: true,
		}, nil
	}

	elapsed := int(now.Sub(start).Hours() / 24)
	if elapsed < 1 {
		elapsed = 1
	}
	rate := consumed / float64(elapsed)

	remainingDays := b.Period.Days() - elapsed
	if remainingDays < 0 {
		remainingDays = 0
	}
	endOfPeriod := consumed + rate*float64(remainingDays)

	return models.ForecastResult{
		Entity:               entity,
		DaysAhead:            daysAhead,
		Consumed:             consumed,
		DailyRate:            rate,
		Projected:            consumed + rate*float64(daysAhead),
		ProjectedEndOfPeriod: endOfPeriod,
		Limit:                b.Limit,
		WillExceed:           endOfPeriod > b.Limit,
	}, nil
}
