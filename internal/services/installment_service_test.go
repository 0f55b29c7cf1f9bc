package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Rajamiththiran/money-manager-sub000/internal/core"
	"github.com/Rajamiththiran/money-manager-sub000/internal/services"
)

type installmentFixture struct {
	*ledgerFixture
	installments *services.InstallmentService
}

func newInstallmentFixture(t *testing.T) *installmentFixture {
	t.Helper()
	lf := newLedgerFixture(t)
	return &installmentFixture{
		ledgerFixture: lf,
		installments:  services.NewInstallmentService(lf.store, lf.store, nil),
	}
}

func (f *installmentFixture) laptopPlan() core.InstallmentPlan {
	return core.InstallmentPlan{
		Name:            "Laptop",
		TotalAmount:     decimal.RequireFromString("100.00"),
		NumInstallments: 3,
		AccountID:       f.checking.ID,
		CategoryID:      f.food.ID,
		StartDate:       core.NewDate(2025, 1, 31),
		Frequency:       core.Monthly,
	}
}

func TestCreatePlanPrecomputesSchedule(t *testing.T) {
	f := newInstallmentFixture(t)
	ctx := context.Background()

	detail, err := f.installments.CreatePlan(ctx, f.laptopPlan())
	if err != nil {
		t.Fatalf("create plan: %v", err)
	}
	if detail.Plan.Status != core.PlanActive {
		t.Errorf("status: got %s, want ACTIVE", detail.Plan.Status)
	}
	if detail.Plan.AmountPerInstallment.String() != "33.33" {
		t.Errorf("amount per installment: got %s, want 33.33", detail.Plan.AmountPerInstallment)
	}
	if len(detail.Schedule) != 3 {
		t.Fatalf("schedule length: got %d, want 3", len(detail.Schedule))
	}
	if detail.Schedule[2].Amount.String() != "33.34" {
		t.Errorf("last installment: got %s, want 33.34", detail.Schedule[2].Amount)
	}
	if !detail.Schedule[1].DueDate.Equal(core.NewDate(2025, 2, 28)) {
		t.Errorf("second due date: got %s, want 2025-02-28", detail.Schedule[1].DueDate)
	}
}

func TestCreatePlanRejectsIncomeCategory(t *testing.T) {
	f := newInstallmentFixture(t)

	plan := f.laptopPlan()
	plan.CategoryID = f.salary.ID
	if _, err := f.installments.CreatePlan(context.Background(), plan); core.KindOf(err) != core.KindValidation {
		t.Errorf("got %v, want validation error", err)
	}
}

func TestPayNextWalksScheduleToCompletion(t *testing.T) {
	f := newInstallmentFixture(t)
	ctx := context.Background()

	detail, err := f.installments.CreatePlan(ctx, f.laptopPlan())
	if err != nil {
		t.Fatalf("create plan: %v", err)
	}
	planID := detail.Plan.ID

	wantAmounts := []string{"33.33", "33.33", "33.34"}
	for i, want := range wantAmounts {
		payDate := core.NewDate(2025, 1+i, 25)
		tx, err := f.installments.PayNext(ctx, planID, &payDate)
		if err != nil {
			t.Fatalf("pay installment %d: %v", i+1, err)
		}
		if tx.Amount.String() != want {
			t.Errorf("installment %d amount: got %s, want %s", i+1, tx.Amount, want)
		}
		if tx.Type != core.Expense || !tx.Date.Equal(payDate) {
			t.Errorf("installment %d transaction: type=%s date=%s", i+1, tx.Type, tx.Date)
		}
	}

	final, err := f.installments.GetPlan(ctx, planID)
	if err != nil {
		t.Fatalf("get plan: %v", err)
	}
	if final.Plan.Status != core.PlanCompleted {
		t.Errorf("status after last payment: got %s, want COMPLETED", final.Plan.Status)
	}
	if final.Plan.TotalPaid.String() != "100" {
		t.Errorf("total paid: got %s, want 100", final.Plan.TotalPaid)
	}
	if final.Plan.InstallmentsPaid != 3 {
		t.Errorf("installments paid: got %d, want 3", final.Plan.InstallmentsPaid)
	}
	for i, payment := range final.Schedule {
		if payment.PaidDate == nil || payment.TransactionID == nil {
			t.Errorf("installment %d not linked to its transaction", i+1)
		}
	}

	// A completed plan refuses further payments.
	if _, err := f.installments.PayNext(ctx, planID, nil); core.KindOf(err) != core.KindConflict {
		t.Errorf("pay after completion: got %v, want conflict error", err)
	}

	// The ledger balance reflects the full amortized total.
	balance, err := f.ledger.AccountBalance(ctx, f.checking.ID, nil)
	if err != nil {
		t.Fatalf("account balance: %v", err)
	}
	if balance.Balance.String() != "900" {
		t.Errorf("balance after plan completion: got %s, want 900", balance.Balance)
	}
}

func TestCancelAndDeletePlan(t *testing.T) {
	f := newInstallmentFixture(t)
	ctx := context.Background()

	detail, err := f.installments.CreatePlan(ctx, f.laptopPlan())
	if err != nil {
		t.Fatalf("create plan: %v", err)
	}
	planID := detail.Plan.ID

	if _, err := f.installments.PayNext(ctx, planID, nil); err != nil {
		t.Fatalf("pay first installment: %v", err)
	}

	// Active plans cannot be deleted.
	if err := f.installments.DeletePlan(ctx, planID); !errors.Is(err, core.ErrPlanActive) {
		t.Errorf("delete active plan: got %v, want ErrPlanActive", err)
	}

	cancelled, err := f.installments.CancelPlan(ctx, planID)
	if err != nil {
		t.Fatalf("cancel plan: %v", err)
	}
	if cancelled.Status != core.PlanCancelled {
		t.Errorf("status: got %s, want CANCELLED", cancelled.Status)
	}

	// Cancelling twice conflicts; terminal states are final.
	if _, err := f.installments.CancelPlan(ctx, planID); core.KindOf(err) != core.KindConflict {
		t.Errorf("cancel cancelled plan: got %v, want conflict error", err)
	}

	if err := f.installments.DeletePlan(ctx, planID); err != nil {
		t.Fatalf("delete cancelled plan: %v", err)
	}

	// The payment already made stays in the ledger.
	txs, err := f.ledger.ListTransactions(ctx, services.TransactionFilter{})
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(txs) != 1 {
		t.Errorf("transactions after plan deletion: got %d, want 1", len(txs))
	}
}

func TestUpcomingPaymentsWindow(t *testing.T) {
	f := newInstallmentFixture(t)
	ctx := context.Background()

	plan := f.laptopPlan()
	plan.StartDate = core.Today().AddDays(10)
	if _, err := f.installments.CreatePlan(ctx, plan); err != nil {
		t.Fatalf("create plan: %v", err)
	}

	within, err := f.installments.UpcomingPayments(ctx, 15)
	if err != nil {
		t.Fatalf("upcoming payments: %v", err)
	}
	if len(within) != 1 {
		t.Errorf("payments within 15 days: got %d, want 1", len(within))
	}

	outside, err := f.installments.UpcomingPayments(ctx, 5)
	if err != nil {
		t.Fatalf("upcoming payments: %v", err)
	}
	if len(outside) != 0 {
		t.Errorf("payments within 5 days: got %d, want 0", len(outside))
	}
}
