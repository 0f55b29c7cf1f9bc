package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	PlanActive    PlanStatus = "ACTIVE"
	PlanCompleted PlanStatus = "COMPLETED"
	PlanCancelled PlanStatus = "CANCELLED"
)

// PlanStatus is the installment plan state machine:
// ACTIVE -> COMPLETED (final payment) and ACTIVE -> CANCELLED are the only
// legal moves; both targets are terminal.
type PlanStatus string

func (s PlanStatus) Valid() bool {
	switch s {
	case PlanActive, PlanCompleted, PlanCancelled:
		return true
	}
	return false
}

// Terminal reports whether the status permits deletion.
func (s PlanStatus) Terminal() bool {
	return s == PlanCompleted || s == PlanCancelled
}

// CanTransition reports whether the status may move to next.
func (s PlanStatus) CanTransition(next PlanStatus) bool {
	return s == PlanActive && (next == PlanCompleted || next == PlanCancelled)
}

type (
	// InstallmentPlan owns an ordered, immutable payment schedule computed
	// at creation. InstallmentsPaid and TotalPaid advance as payments are
	// processed.
	InstallmentPlan struct {
		ID                   int64           `json:"id"`
		Name                 string          `json:"name"`
		TotalAmount          decimal.Decimal `json:"total_amount"`
		NumInstallments      int             `json:"num_installments"`
		AmountPerInstallment decimal.Decimal `json:"amount_per_installment"`
		AccountID            int64           `json:"account_id"`
		CategoryID           int64           `json:"category_id"`
		StartDate            Date            `json:"start_date"`
		Frequency            Frequency       `json:"frequency"`
		IntervalDays         int             `json:"interval_days,omitempty"`
		Status               PlanStatus      `json:"status"`
		InstallmentsPaid     int             `json:"installments_paid"`
		TotalPaid            decimal.Decimal `json:"total_paid"`
		Memo                 string          `json:"memo,omitempty"`
	}

	// InstallmentPayment is one row of a plan's schedule. Amount and
	// DueDate are fixed at plan creation; PaidDate is set when the
	// installment is paid.
	InstallmentPayment struct {
		ID                int64           `json:"id"`
		PlanID            int64           `json:"plan_id"`
		TransactionID     *int64          `json:"transaction_id,omitempty"`
		InstallmentNumber int             `json:"installment_number"`
		Amount            decimal.Decimal `json:"amount"`
		DueDate           Date            `json:"due_date"`
		PaidDate          *Date           `json:"paid_date,omitempty"`
	}
)

func (p InstallmentPlan) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return Validationf("installment plan name cannot be empty")
	}
	if !p.TotalAmount.IsPositive() {
		return ErrInvalidAmount
	}
	if p.NumInstallments < 1 {
		return Validationf("number of installments must be at least 1")
	}
	if p.AccountID == 0 {
		return Validationf("installment plan requires an account")
	}
	if p.CategoryID == 0 {
		return Validationf("installment plan requires a category")
	}
	if p.StartDate.IsZero() {
		return Validationf("start date cannot be empty")
	}
	if !p.Frequency.Valid() {
		return Validationf("invalid frequency %q", p.Frequency)
	}
	if p.Frequency == Custom && p.IntervalDays < 1 {
		return Validationf("custom frequency requires interval_days >= 1")
	}
	return nil
}

// BuildSchedule computes the plan's full payment schedule up front: one row
// per installment, due dates generated by the plan's advance rule starting
// at StartDate, amounts split so the last row absorbs the rounding
// remainder.
func (p InstallmentPlan) BuildSchedule() ([]InstallmentPayment, error) {
	amounts, err := SplitInstallments(p.TotalAmount, p.NumInstallments)
	if err != nil {
		return nil, err
	}
	sched, err := NewSchedule(p.Frequency, p.IntervalDays, p.StartDate)
	if err != nil {
		return nil, err
	}
	payments := make([]InstallmentPayment, p.NumInstallments)
	for i := range payments {
		due, err := sched.NthFrom(p.StartDate, i+1)
		if err != nil {
			return nil, err
		}
		payments[i] = InstallmentPayment{
			InstallmentNumber: i + 1,
			Amount:            amounts[i],
			DueDate:           due,
		}
	}
	return payments, nil
}

// RemainingInstallments returns how many installments are still unpaid.
func (p InstallmentPlan) RemainingInstallments() int {
	return p.NumInstallments - p.InstallmentsPaid
}

// RemainingAmount returns the unpaid share of the total.
func (p InstallmentPlan) RemainingAmount() decimal.Decimal {
	return p.TotalAmount.Sub(p.TotalPaid)
}
