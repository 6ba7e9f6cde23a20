package models

import "time"

// BudgetPeriod defines the recurring accounting window for a budget.
type BudgetPeriod string

const (
	BudgetDaily   BudgetPeriod = "daily"
	BudgetWeekly  BudgetPeriod = "weekly"
	BudgetMonthly BudgetPeriod = "monthly"
)

// Valid reports whether p is a known period.
func (p BudgetPeriod) Valid() bool {
	switch p {
	case BudgetDaily, BudgetWeekly, BudgetMonthly:
		return true
	}
	return false
}

// Days returns the nominal length of the period in days, used for
// end-of-period projections.
func (p BudgetPeriod) Days() int {
	switch p {
	case BudgetDaily:
		return 1
	case BudgetWeekly:
		return 7
	default:
		return 30
	}
}

// Start returns the start of the period containing now, in UTC.
// Weeks start on Monday.
func (p BudgetPeriod) Start(now time.Time) time.Time {
	now = now.UTC()
	switch p {
	case BudgetDaily:
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	case BudgetWeekly:
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7 // Sunday belongs to the week started last Monday
		}
		day := now.AddDate(0, 0, -(weekday - 1))
		return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
}

// Budget is a spending limit for one accounting entity over a period.
type Budget struct {
	Entity string       `json:"entity" yaml:"entity"`
	Limit  float64      `json:"limit" yaml:"limit"`
	Period BudgetPeriod `json:"period" yaml:"period"`
}

// BudgetState labels consumption relative to a budget limit.
type BudgetState string

const (
	StateOK       BudgetState = "ok"
	StateWarning  BudgetState = "warning"
	StateCritical BudgetState = "critical"
	StateExceeded BudgetState = "exceeded"
)

// BudgetStatus is the derived, never-stored status of one budget.
type BudgetStatus struct {
	Entity    string       `json:"entity"`
	Limit     float64      `json:"limit"`
	Consumed  float64      `json:"consumed"`
	Remaining float64      `json:"remaining"`
	UsagePct  float64      `json:"usage_pct"`
	Period    BudgetPeriod `json:"period"`
	State     BudgetState  `json:"state"`
}

// AlertSeverity grades budget alerts.
type AlertSeverity string

const (
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

// Alert is a transient notification that a budget crossed a threshold.
// The ID is stable for a given (entity, state, period start), so downstream
// consumers can deduplicate across repeated generation runs.
type Alert struct {
	ID        string        `json:"id"`
	Entity    string        `json:"entity"`
	State     BudgetState   `json:"state"`
	Severity  AlertSeverity `json:"severity"`
	Message   string        `json:"message"`
	CreatedAt time.Time     `json:"created_at"`
}

// ForecastResult is a linear projection of period spend for one entity.
// When InsufficientData is set no usage exists for the current period and
// the projection fields are zero.
type ForecastResult struct {
	Entity               string  `json:"entity"`
	DaysAhead            int     `json:"days_ahead"`
	Consumed             float64 `json:"consumed"`
	DailyRate            float64 `json:"daily_rate"`
	Projected            float64 `json:"projected"`
	ProjectedEndOfPeriod float64 `json:"projected_end_of_period"`
	Limit                float64 `json:"limit"`
	WillExceed           bool    `json:"will_exceed"`
	InsufficientData     bool    `json:"insufficient_data"`
}
