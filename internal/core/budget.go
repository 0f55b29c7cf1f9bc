package core

import (
	"github.com/shopspring/decimal"
)

const (
	BudgetMonthly BudgetPeriod = "MONTHLY"
	BudgetYearly  BudgetPeriod = "YEARLY"
)

const (
	BudgetUnderLimit BudgetState = "UNDER_LIMIT"
	BudgetNearLimit  BudgetState = "NEAR_LIMIT"
	BudgetOverLimit  BudgetState = "OVER_LIMIT"
)

// nearLimitThreshold marks the spend percentage where a budget is flagged
// as approaching its limit.
var nearLimitThreshold = decimal.NewFromInt(80)

type (
	BudgetPeriod string
	BudgetState  string

	// Budget caps spending for one expense category over a rolling period.
	Budget struct {
		ID         int64           `json:"id"`
		CategoryID int64           `json:"category_id"`
		Amount     decimal.Decimal `json:"amount"`
		Period     BudgetPeriod    `json:"period"`
		StartDate  Date            `json:"start_date"`
		IsActive   bool            `json:"is_active"`
	}

	// BudgetStatus is a budget joined with its spend for the period
	// containing the reference date.
	BudgetStatus struct {
		Budget      Budget          `json:"budget"`
		PeriodStart Date            `json:"period_start"`
		PeriodEnd   Date            `json:"period_end"`
		Spent       decimal.Decimal `json:"spent"`
		Remaining   decimal.Decimal `json:"remaining"`
		Percentage  decimal.Decimal `json:"percentage"`
		State       BudgetState     `json:"state"`
	}
)

func (p BudgetPeriod) Valid() bool {
	return p == BudgetMonthly || p == BudgetYearly
}

func (b Budget) Validate() error {
	if b.CategoryID == 0 {
		return Validationf("budget requires a category")
	}
	if !b.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !b.Period.Valid() {
		return Validationf("invalid budget period %q", b.Period)
	}
	if b.StartDate.IsZero() {
		return Validationf("start date cannot be empty")
	}
	return nil
}

// PeriodContaining returns the budget period containing ref. Periods roll
// from the start date in whole months (MONTHLY) or years (YEARLY), keeping
// the start's day-of-month as the anchor, so spending dated before the start
// date never counts against the budget.
func (b Budget) PeriodContaining(ref Date) (start, end Date) {
	start = b.StartDate
	for {
		next := b.nextPeriodStart(start)
		if ref.Before(next) {
			return start, next.AddDays(-1)
		}
		start = next
	}
}

func (b Budget) nextPeriodStart(start Date) Date {
	day := b.StartDate.Day()
	if b.Period == BudgetYearly {
		return ClampedDate(start.Year()+1, start.Month(), day)
	}
	year, month := start.Year(), start.Month()+1
	if month > 12 {
		year, month = year+1, 1
	}
	return ClampedDate(year, month, day)
}

// StatusFor evaluates the budget against the amount spent in the period
// containing ref.
func (b Budget) StatusFor(ref Date, spent decimal.Decimal) BudgetStatus {
	start, end := b.PeriodContaining(ref)
	pct := Percentage(spent, b.Amount)
	state := BudgetUnderLimit
	switch {
	case spent.GreaterThan(b.Amount):
		state = BudgetOverLimit
	case pct.GreaterThanOrEqual(nearLimitThreshold):
		state = BudgetNearLimit
	}
	return BudgetStatus{
		Budget:      b,
		PeriodStart: start,
		PeriodEnd:   end,
		Spent:       spent,
		Remaining:   b.Amount.Sub(spent),
		Percentage:  pct,
		State:       state,
	}
}
