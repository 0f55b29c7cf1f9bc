package services_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Rajamiththiran/money-manager-sub000/internal/core"
	"github.com/Rajamiththiran/money-manager-sub000/internal/services"
)

func TestBudgetTracksCategoryAndChildren(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	budgets := services.NewBudgetService(f.store, f.store)

	groceries, err := f.ledger.CreateCategory(ctx, core.Category{
		Name: "Groceries", Type: core.CategoryExpense, ParentID: &f.food.ID,
	})
	if err != nil {
		t.Fatalf("create child category: %v", err)
	}

	budget, err := budgets.Create(ctx, core.Budget{
		CategoryID: f.food.ID,
		Amount:     decimal.NewFromInt(100),
		Period:     core.BudgetMonthly,
		StartDate:  core.NewDate(2025, 1, 1),
	})
	if err != nil {
		t.Fatalf("create budget: %v", err)
	}

	f.mustCreate(t, core.Transaction{
		Date: core.NewDate(2025, 3, 5), Type: core.Expense,
		Amount: decimal.NewFromInt(30), AccountID: f.checking.ID, CategoryID: &f.food.ID,
	})
	f.mustCreate(t, core.Transaction{
		Date: core.NewDate(2025, 3, 12), Type: core.Expense,
		Amount: decimal.NewFromInt(25), AccountID: f.checking.ID, CategoryID: &groceries.ID,
	})
	// Outside the March period.
	f.mustCreate(t, core.Transaction{
		Date: core.NewDate(2025, 4, 1), Type: core.Expense,
		Amount: decimal.NewFromInt(60), AccountID: f.checking.ID, CategoryID: &f.food.ID,
	})

	status, err := budgets.Status(ctx, budget.ID, core.NewDate(2025, 3, 15))
	if err != nil {
		t.Fatalf("budget status: %v", err)
	}
	if status.Spent.String() != "55" {
		t.Errorf("spent: got %s, want 55", status.Spent)
	}
	if status.Remaining.String() != "45" {
		t.Errorf("remaining: got %s, want 45", status.Remaining)
	}
	if status.State != core.BudgetUnderLimit {
		t.Errorf("state: got %s, want UNDER_LIMIT", status.State)
	}
	if !status.PeriodStart.Equal(core.NewDate(2025, 3, 1)) || !status.PeriodEnd.Equal(core.NewDate(2025, 3, 31)) {
		t.Errorf("period: got %s..%s", status.PeriodStart, status.PeriodEnd)
	}
}

func TestBudgetIgnoresSpendingBeforeStartDate(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	budgets := services.NewBudgetService(f.store, f.store)

	budget, err := budgets.Create(ctx, core.Budget{
		CategoryID: f.food.ID,
		Amount:     decimal.NewFromInt(100),
		Period:     core.BudgetMonthly,
		StartDate:  core.NewDate(2025, 1, 15),
	})
	if err != nil {
		t.Fatalf("create budget: %v", err)
	}

	// Spent before the budget existed.
	f.mustCreate(t, core.Transaction{
		Date: core.NewDate(2025, 1, 10), Type: core.Expense,
		Amount: decimal.NewFromInt(100), AccountID: f.checking.ID, CategoryID: &f.food.ID,
	})
	f.mustCreate(t, core.Transaction{
		Date: core.NewDate(2025, 1, 20), Type: core.Expense,
		Amount: decimal.NewFromInt(40), AccountID: f.checking.ID, CategoryID: &f.food.ID,
	})

	status, err := budgets.Status(ctx, budget.ID, core.NewDate(2025, 1, 20))
	if err != nil {
		t.Fatalf("budget status: %v", err)
	}
	if !status.PeriodStart.Equal(core.NewDate(2025, 1, 15)) || !status.PeriodEnd.Equal(core.NewDate(2025, 2, 14)) {
		t.Errorf("period: got %s..%s, want 2025-01-15..2025-02-14", status.PeriodStart, status.PeriodEnd)
	}
	if status.Spent.String() != "40" {
		t.Errorf("spent: got %s, want 40", status.Spent)
	}
}

func TestBudgetStates(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	budgets := services.NewBudgetService(f.store, f.store)

	budget, err := budgets.Create(ctx, core.Budget{
		CategoryID: f.food.ID,
		Amount:     decimal.NewFromInt(100),
		Period:     core.BudgetMonthly,
		StartDate:  core.NewDate(2025, 1, 1),
	})
	if err != nil {
		t.Fatalf("create budget: %v", err)
	}

	f.mustCreate(t, core.Transaction{
		Date: core.NewDate(2025, 5, 2), Type: core.Expense,
		Amount: decimal.NewFromInt(85), AccountID: f.checking.ID, CategoryID: &f.food.ID,
	})
	status, err := budgets.Status(ctx, budget.ID, core.NewDate(2025, 5, 15))
	if err != nil {
		t.Fatalf("budget status: %v", err)
	}
	if status.State != core.BudgetNearLimit {
		t.Errorf("state at 85%%: got %s, want NEAR_LIMIT", status.State)
	}

	f.mustCreate(t, core.Transaction{
		Date: core.NewDate(2025, 5, 20), Type: core.Expense,
		Amount: decimal.NewFromInt(30), AccountID: f.checking.ID, CategoryID: &f.food.ID,
	})
	status, err = budgets.Status(ctx, budget.ID, core.NewDate(2025, 5, 25))
	if err != nil {
		t.Fatalf("budget status: %v", err)
	}
	if status.State != core.BudgetOverLimit {
		t.Errorf("state at 115%%: got %s, want OVER_LIMIT", status.State)
	}
}

func TestBudgetCreateRules(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	budgets := services.NewBudgetService(f.store, f.store)

	// Budgets apply to expense categories only.
	if _, err := budgets.Create(ctx, core.Budget{
		CategoryID: f.salary.ID,
		Amount:     decimal.NewFromInt(100),
		Period:     core.BudgetMonthly,
		StartDate:  core.NewDate(2025, 1, 1),
	}); core.KindOf(err) != core.KindValidation {
		t.Errorf("income category budget: got %v, want validation error", err)
	}

	first := core.Budget{
		CategoryID: f.food.ID,
		Amount:     decimal.NewFromInt(100),
		Period:     core.BudgetMonthly,
		StartDate:  core.NewDate(2025, 1, 1),
	}
	if _, err := budgets.Create(ctx, first); err != nil {
		t.Fatalf("create budget: %v", err)
	}

	// One active budget per category and period length.
	if _, err := budgets.Create(ctx, first); core.KindOf(err) != core.KindConflict {
		t.Errorf("duplicate budget: got %v, want conflict error", err)
	}

	// A yearly budget on the same category is a different period length.
	yearly := first
	yearly.Period = core.BudgetYearly
	if _, err := budgets.Create(ctx, yearly); err != nil {
		t.Errorf("yearly budget alongside monthly: %v", err)
	}
}
