package core

import (
	"github.com/shopspring/decimal"
)

const (
	StatementOpen    StatementStatus = "OPEN"
	StatementPartial StatementStatus = "PARTIAL"
	StatementPaid    StatementStatus = "PAID"
	StatementOverdue StatementStatus = "OVERDUE"
)

// minimumPaymentFloor is the smallest minimum payment charged on a positive
// closing balance, capped at the balance itself.
var minimumPaymentFloor = decimal.NewFromInt(10)

// StatementStatus is the statement payment state machine. PAID is terminal;
// OVERDUE is entered when the due date passes with less than the minimum
// payment received and can still move to PARTIAL or PAID.
type StatementStatus string

func (s StatementStatus) Valid() bool {
	switch s {
	case StatementOpen, StatementPartial, StatementPaid, StatementOverdue:
		return true
	}
	return false
}

// Payable reports whether a settlement may still be allocated against a
// statement in this status.
func (s StatementStatus) Payable() bool {
	return s == StatementOpen || s == StatementPartial || s == StatementOverdue
}

// CanTransition reports whether the status may move to next.
func (s StatementStatus) CanTransition(next StatementStatus) bool {
	switch s {
	case StatementOpen:
		return next == StatementPartial || next == StatementPaid || next == StatementOverdue
	case StatementPartial:
		return next == StatementPaid || next == StatementOverdue
	case StatementOverdue:
		return next == StatementPartial || next == StatementPaid
	default:
		return false
	}
}

type (
	// CreditCardSettings configures billing for one LIABILITY account.
	// Statement and due days are restricted to 1..28 so every month has
	// both.
	CreditCardSettings struct {
		ID                       int64           `json:"id"`
		AccountID                int64           `json:"account_id"`
		CreditLimit              decimal.Decimal `json:"credit_limit"`
		StatementDay             int             `json:"statement_day"`
		PaymentDueDay            int             `json:"payment_due_day"`
		MinimumPaymentPercentage decimal.Decimal `json:"minimum_payment_percentage"`
		AutoSettlementEnabled    bool            `json:"auto_settlement_enabled"`
		SettlementAccountID      *int64          `json:"settlement_account_id,omitempty"`
	}

	// CreditCardStatement is the immutable record of one closed billing
	// cycle. Only the payment fields (status, paid amount, paid date)
	// change after generation.
	CreditCardStatement struct {
		ID             int64           `json:"id"`
		SettingsID     int64           `json:"settings_id"`
		StatementDate  Date            `json:"statement_date"`
		DueDate        Date            `json:"due_date"`
		CycleStartDate Date            `json:"cycle_start_date"`
		CycleEndDate   Date            `json:"cycle_end_date"`
		OpeningBalance decimal.Decimal `json:"opening_balance"`
		TotalCharges   decimal.Decimal `json:"total_charges"`
		TotalPayments  decimal.Decimal `json:"total_payments"`
		ClosingBalance decimal.Decimal `json:"closing_balance"`
		MinimumPayment decimal.Decimal `json:"minimum_payment"`
		Status         StatementStatus `json:"status"`
		PaidAmount     decimal.Decimal `json:"paid_amount"`
		PaidDate       *Date           `json:"paid_date,omitempty"`
	}

	// BillingCycle is the half-open-ended window [Start, End] a statement
	// covers, plus the payment due date that follows it.
	BillingCycle struct {
		Start   Date `json:"cycle_start_date"`
		End     Date `json:"cycle_end_date"`
		DueDate Date `json:"due_date"`
	}
)

func (s CreditCardSettings) Validate() error {
	if s.AccountID == 0 {
		return Validationf("credit card settings require an account")
	}
	if s.CreditLimit.IsNegative() {
		return Validationf("credit limit cannot be negative")
	}
	if s.StatementDay < 1 || s.StatementDay > 28 {
		return Validationf("statement day must be between 1 and 28")
	}
	if s.PaymentDueDay < 1 || s.PaymentDueDay > 28 {
		return Validationf("payment due day must be between 1 and 28")
	}
	if s.MinimumPaymentPercentage.IsNegative() || s.MinimumPaymentPercentage.GreaterThan(decimal.NewFromInt(100)) {
		return Validationf("minimum payment percentage must be between 0 and 100")
	}
	if s.SettlementAccountID != nil && *s.SettlementAccountID == s.AccountID {
		return Validationf("settlement account cannot be the credit card itself")
	}
	return nil
}

// CurrentCycle returns the billing cycle containing ref: the cycle ends at
// the next occurrence of the statement day on or after ref, and starts the
// day after the previous occurrence.
func (s CreditCardSettings) CurrentCycle(ref Date) BillingCycle {
	var start, end Date
	if ref.Day() <= s.StatementDay {
		end = NewDate(ref.Year(), ref.Month(), s.StatementDay)
		start = addMonths(end, -1).AddDays(1)
	} else {
		start = NewDate(ref.Year(), ref.Month(), s.StatementDay).AddDays(1)
		end = addMonths(NewDate(ref.Year(), ref.Month(), s.StatementDay), 1)
	}
	return BillingCycle{Start: start, End: end, DueDate: s.DueDateFor(end)}
}

// LastClosedCycle returns the most recent cycle whose end date is on or
// before ref; this is the cycle a statement can be generated for.
func (s CreditCardSettings) LastClosedCycle(ref Date) BillingCycle {
	cycle := s.CurrentCycle(ref)
	if cycle.End.After(ref) {
		end := addMonths(cycle.End, -1)
		start := addMonths(end, -1).AddDays(1)
		cycle = BillingCycle{Start: start, End: end, DueDate: s.DueDateFor(end)}
	}
	return cycle
}

// DueDateFor computes the payment due date for a cycle ending at cycleEnd.
// When the due day is later in the month than the statement day the due
// date lands in the statement month; otherwise it wraps to the following
// month, so it always falls strictly after the statement date.
func (s CreditCardSettings) DueDateFor(cycleEnd Date) Date {
	due := NewDate(cycleEnd.Year(), cycleEnd.Month(), s.PaymentDueDay)
	if s.PaymentDueDay <= s.StatementDay {
		due = addMonths(due, 1)
	}
	return due
}

// MinimumPaymentFor computes the minimum payment on a closing balance:
// zero for a non-positive balance, otherwise the percentage of the balance
// with a small floor, never exceeding the balance itself.
func (s CreditCardSettings) MinimumPaymentFor(closingBalance decimal.Decimal) decimal.Decimal {
	if !closingBalance.IsPositive() {
		return decimal.Zero
	}
	min := Round2(closingBalance.Mul(s.MinimumPaymentPercentage).Div(decimal.NewFromInt(100)))
	if min.LessThan(minimumPaymentFloor) {
		min = minimumPaymentFloor
	}
	if min.GreaterThan(closingBalance) {
		min = closingBalance
	}
	return min
}

// Utilization returns balance as a percentage of the credit limit.
func (s CreditCardSettings) Utilization(balance decimal.Decimal) decimal.Decimal {
	return Percentage(balance, s.CreditLimit)
}

// AvailableCredit returns limit minus balance, floored at zero for display.
func (s CreditCardSettings) AvailableCredit(balance decimal.Decimal) decimal.Decimal {
	avail := s.CreditLimit.Sub(balance)
	if avail.IsNegative() {
		return decimal.Zero
	}
	return avail
}

// Outstanding returns how much of the statement is still unpaid.
func (st CreditCardStatement) Outstanding() decimal.Decimal {
	return st.ClosingBalance.Sub(st.PaidAmount)
}

// RefreshStatus derives the statement's payment status as of today. It
// returns the new status and whether it changed.
func (st CreditCardStatement) RefreshStatus(today Date) (StatementStatus, bool) {
	next := st.Status
	switch {
	case st.PaidAmount.GreaterThanOrEqual(st.ClosingBalance):
		next = StatementPaid
	case st.DueDate.Before(today) && st.PaidAmount.LessThan(st.MinimumPayment):
		next = StatementOverdue
	case st.PaidAmount.IsPositive():
		next = StatementPartial
	}
	if next == st.Status || !st.Status.CanTransition(next) {
		return st.Status, false
	}
	return next, true
}

// addMonths shifts a date by whole months, clamping the day to the target
// month's length. Statement days never exceed 28, so clamping only matters
// for defensive callers.
func addMonths(d Date, months int) Date {
	year, month := d.Year(), d.Month()+months
	for month > 12 {
		year, month = year+1, month-12
	}
	for month < 1 {
		year, month = year-1, month+12
	}
	return ClampedDate(year, month, d.Day())
}
