package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func testRecurring() RecurringTransaction {
	return RecurringTransaction{
		Name:              "Rent",
		Type:              Expense,
		Amount:            decimal.RequireFromString("850.00"),
		AccountID:         1,
		CategoryID:        int64Ptr(2),
		Frequency:         Monthly,
		StartDate:         NewDate(2025, 1, 1),
		NextExecutionDate: NewDate(2025, 1, 1),
		IsActive:          true,
	}
}

func TestRecurringValidate(t *testing.T) {
	if err := testRecurring().Validate(); err != nil {
		t.Fatalf("valid definition rejected: %v", err)
	}

	end := NewDate(2024, 12, 31)
	tests := []struct {
		name   string
		mutate func(*RecurringTransaction)
	}{
		{"empty name", func(r *RecurringTransaction) { r.Name = "" }},
		{"zero amount", func(r *RecurringTransaction) { r.Amount = decimal.Zero }},
		{"missing account", func(r *RecurringTransaction) { r.AccountID = 0 }},
		{"expense without category", func(r *RecurringTransaction) { r.CategoryID = nil }},
		{"bad frequency", func(r *RecurringTransaction) { r.Frequency = "FORTNIGHTLY" }},
		{"custom without interval", func(r *RecurringTransaction) { r.Frequency = Custom }},
		{"end before start", func(r *RecurringTransaction) { r.EndDate = &end }},
		{"transfer without destination", func(r *RecurringTransaction) {
			r.Type = Transfer
			r.CategoryID = nil
		}},
		{"transfer to same account", func(r *RecurringTransaction) {
			r.Type = Transfer
			r.CategoryID = nil
			r.ToAccountID = int64Ptr(1)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := testRecurring()
			tt.mutate(&r)
			if err := r.Validate(); KindOf(err) != KindValidation {
				t.Errorf("got %v, want validation error", err)
			}
		})
	}
}

func TestRecurringExhausted(t *testing.T) {
	r := testRecurring()
	if r.Exhausted() {
		t.Error("definition without end date can never be exhausted")
	}

	end := NewDate(2025, 3, 1)
	r.EndDate = &end

	r.NextExecutionDate = NewDate(2025, 3, 1)
	if r.Exhausted() {
		t.Error("next on the end date is still due")
	}

	r.NextExecutionDate = NewDate(2025, 3, 2)
	if !r.Exhausted() {
		t.Error("next past the end date must be exhausted")
	}

	// Pausing does not affect exhaustion.
	r.IsActive = false
	if !r.Exhausted() {
		t.Error("exhaustion must ignore IsActive")
	}
}

func TestMaterializedTransaction(t *testing.T) {
	r := testRecurring()
	r.NextExecutionDate = NewDate(2025, 2, 1)

	tx := r.MaterializedTransaction()
	if !tx.Date.Equal(NewDate(2025, 2, 1)) {
		t.Errorf("date: got %s, want the occurrence date", tx.Date)
	}
	if tx.Type != Expense || !tx.Amount.Equal(r.Amount) {
		t.Errorf("type/amount not carried over: %s %s", tx.Type, tx.Amount)
	}
	if tx.Memo != "Rent" {
		t.Errorf("memo: got %q, want definition name", tx.Memo)
	}
	if err := tx.Validate(); err != nil {
		t.Errorf("materialized transaction must be valid: %v", err)
	}

	r.Description = "Monthly rent"
	if got := r.MaterializedTransaction().Memo; got != "Monthly rent" {
		t.Errorf("memo: got %q, want description when set", got)
	}
}
