package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// RecurringTransaction is a template that materializes ledger transactions
// on a schedule. Pause (IsActive=false) is orthogonal to date progression:
// a paused definition does not auto-execute but its window and next date
// keep their meaning.
type RecurringTransaction struct {
	ID                int64           `json:"id"`
	Name              string          `json:"name"`
	Description       string          `json:"description,omitempty"`
	Type              TransactionType `json:"type"`
	Amount            decimal.Decimal `json:"amount"`
	AccountID         int64           `json:"account_id"`
	ToAccountID       *int64          `json:"to_account_id,omitempty"`
	CategoryID        *int64          `json:"category_id,omitempty"`
	Frequency         Frequency       `json:"frequency"`
	IntervalDays      int             `json:"interval_days,omitempty"`
	StartDate         Date            `json:"start_date"`
	EndDate           *Date           `json:"end_date,omitempty"`
	NextExecutionDate Date            `json:"next_execution_date"`
	IsActive          bool            `json:"is_active"`
	LastExecutedDate  *Date           `json:"last_executed_date,omitempty"`
	ExecutionCount    int64           `json:"execution_count"`
}

func (r RecurringTransaction) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return Validationf("recurring definition name cannot be empty")
	}
	if !r.Type.Valid() {
		return Validationf("invalid transaction type %q", r.Type)
	}
	if !r.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if r.AccountID == 0 {
		return Validationf("recurring definition requires an account")
	}
	if r.Type == Transfer {
		if r.ToAccountID == nil {
			return Validationf("transfer requires a destination account")
		}
		if *r.ToAccountID == r.AccountID {
			return Validationf("cannot transfer to the same account")
		}
	} else if r.CategoryID == nil {
		return Validationf("%s requires a category", r.Type)
	}
	if !r.Frequency.Valid() {
		return Validationf("invalid frequency %q", r.Frequency)
	}
	if r.Frequency == Custom && r.IntervalDays < 1 {
		return Validationf("custom frequency requires interval_days >= 1")
	}
	if r.StartDate.IsZero() {
		return Validationf("start date cannot be empty")
	}
	if r.EndDate != nil && !r.EndDate.After(r.StartDate) {
		return Validationf("end date must be after start date")
	}
	return nil
}

// Schedule derives the advance rule anchored at the definition's start date.
func (r RecurringTransaction) Schedule() (Schedule, error) {
	return NewSchedule(r.Frequency, r.IntervalDays, r.StartDate)
}

// Exhausted reports whether the definition has run past its end date. An
// exhausted definition produces no further occurrences regardless of
// IsActive.
func (r RecurringTransaction) Exhausted() bool {
	return r.EndDate != nil && r.NextExecutionDate.After(*r.EndDate)
}

// WindowContains reports whether day falls inside the definition's
// [start_date, end_date] execution window.
func (r RecurringTransaction) WindowContains(day Date) bool {
	if day.Before(r.StartDate) {
		return false
	}
	return r.EndDate == nil || !day.After(*r.EndDate)
}

// MaterializedTransaction builds the ledger transaction one execution of the
// definition produces. The transaction is dated at the occurrence date, not
// at the wall-clock day the execution happens.
func (r RecurringTransaction) MaterializedTransaction() Transaction {
	memo := r.Description
	if memo == "" {
		memo = r.Name
	}
	return Transaction{
		Date:        r.NextExecutionDate,
		Type:        r.Type,
		Amount:      r.Amount,
		AccountID:   r.AccountID,
		ToAccountID: r.ToAccountID,
		CategoryID:  r.CategoryID,
		Memo:        memo,
	}
}
