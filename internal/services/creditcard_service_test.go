package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Rajamiththiran/money-manager-sub000/internal/core"
	"github.com/Rajamiththiran/money-manager-sub000/internal/services"
)

type cardFixture struct {
	*ledgerFixture
	cards    *services.CreditCardService
	settings core.CreditCardSettings
}

// newCardFixture wires a card on the liability account: statement day 25,
// payment due on the 10th of the following month, 5% minimum payment.
func newCardFixture(t *testing.T) *cardFixture {
	t.Helper()
	lf := newLedgerFixture(t)
	cards := services.NewCreditCardService(lf.store, lf.store, nil)

	settings, err := cards.CreateSettings(context.Background(), core.CreditCardSettings{
		AccountID:                lf.card.ID,
		CreditLimit:              decimal.NewFromInt(2000),
		StatementDay:             25,
		PaymentDueDay:            10,
		MinimumPaymentPercentage: decimal.NewFromInt(5),
		SettlementAccountID:      &lf.checking.ID,
	})
	if err != nil {
		t.Fatalf("create card settings: %v", err)
	}
	return &cardFixture{ledgerFixture: lf, cards: cards, settings: settings}
}

func settleAmount(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func (f *cardFixture) charge(t *testing.T, date core.Date, amount string) {
	t.Helper()
	f.mustCreate(t, core.Transaction{
		Date: date, Type: core.Expense,
		Amount:     decimal.RequireFromString(amount),
		AccountID:  f.card.ID,
		CategoryID: &f.food.ID,
	})
}

func TestCreateSettingsRules(t *testing.T) {
	f := newCardFixture(t)
	ctx := context.Background()

	// One settings row per account.
	if _, err := f.cards.CreateSettings(ctx, core.CreditCardSettings{
		AccountID: f.card.ID, StatementDay: 15, PaymentDueDay: 5,
	}); core.KindOf(err) != core.KindConflict {
		t.Errorf("duplicate settings: got %v, want conflict error", err)
	}

	// The card account must be a liability.
	if _, err := f.cards.CreateSettings(ctx, core.CreditCardSettings{
		AccountID: f.checking.ID, StatementDay: 15, PaymentDueDay: 5,
	}); core.KindOf(err) != core.KindValidation {
		t.Errorf("asset card account: got %v, want validation error", err)
	}
}

func TestGenerateStatementClosesCycle(t *testing.T) {
	f := newCardFixture(t)
	ctx := context.Background()

	// Charges inside the 2025-02-26..2025-03-25 cycle, plus one after it.
	f.charge(t, core.NewDate(2025, 3, 1), "300.00")
	f.charge(t, core.NewDate(2025, 3, 20), "100.00")
	f.charge(t, core.NewDate(2025, 3, 26), "50.00")

	cycleEnd := core.NewDate(2025, 3, 25)
	st, err := f.cards.GenerateStatement(ctx, f.settings.ID, &cycleEnd)
	if err != nil {
		t.Fatalf("generate statement: %v", err)
	}

	if !st.CycleStartDate.Equal(core.NewDate(2025, 2, 26)) || !st.CycleEndDate.Equal(core.NewDate(2025, 3, 25)) {
		t.Errorf("cycle: got %s..%s, want 2025-02-26..2025-03-25", st.CycleStartDate, st.CycleEndDate)
	}
	if !st.DueDate.Equal(core.NewDate(2025, 4, 10)) {
		t.Errorf("due date: got %s, want 2025-04-10", st.DueDate)
	}
	if st.TotalCharges.String() != "400" {
		t.Errorf("charges: got %s, want 400", st.TotalCharges)
	}
	if st.ClosingBalance.String() != "400" {
		t.Errorf("closing balance: got %s, want 400", st.ClosingBalance)
	}
	if st.MinimumPayment.String() != "20" {
		t.Errorf("minimum payment: got %s, want 20", st.MinimumPayment)
	}

	// A cycle produces at most one statement.
	if _, err := f.cards.GenerateStatement(ctx, f.settings.ID, &cycleEnd); !errors.Is(err, core.ErrAlreadyGenerated) {
		t.Errorf("regenerate: got %v, want ErrAlreadyGenerated", err)
	}
}

func TestGenerateStatementRejectsOpenOrMisalignedCycle(t *testing.T) {
	f := newCardFixture(t)
	ctx := context.Background()

	future := core.Today().AddDays(40)
	futureEnd := core.NewDate(future.Year(), future.Month(), 25)
	if _, err := f.cards.GenerateStatement(ctx, f.settings.ID, &futureEnd); !errors.Is(err, core.ErrCycleNotClosed) {
		t.Errorf("future cycle: got %v, want ErrCycleNotClosed", err)
	}

	misaligned := core.NewDate(2025, 3, 24)
	if _, err := f.cards.GenerateStatement(ctx, f.settings.ID, &misaligned); core.KindOf(err) != core.KindValidation {
		t.Errorf("misaligned cycle end: got %v, want validation error", err)
	}
}

func TestSettleAllocatesOldestFirst(t *testing.T) {
	f := newCardFixture(t)
	ctx := context.Background()

	// Two consecutive cycles with 200 of charges each.
	f.charge(t, core.NewDate(2025, 3, 1), "200.00")
	f.charge(t, core.NewDate(2025, 4, 1), "200.00")

	first := core.NewDate(2025, 3, 25)
	second := core.NewDate(2025, 4, 25)
	st1, err := f.cards.GenerateStatement(ctx, f.settings.ID, &first)
	if err != nil {
		t.Fatalf("generate first statement: %v", err)
	}
	st2, err := f.cards.GenerateStatement(ctx, f.settings.ID, &second)
	if err != nil {
		t.Fatalf("generate second statement: %v", err)
	}
	if st2.OpeningBalance.String() != "200" || st2.ClosingBalance.String() != "400" {
		t.Fatalf("second statement balances: opening=%s closing=%s", st2.OpeningBalance, st2.ClosingBalance)
	}

	// 300 pays the first statement's 200 in full, then 100 of the second.
	payDate := core.NewDate(2025, 5, 1)
	result, err := f.cards.Settle(ctx, f.settings.ID, settleAmount("300.00"), &payDate, nil)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}

	if result.Transaction.Type != core.Transfer || result.Transaction.AccountID != f.checking.ID {
		t.Errorf("payment transaction: type=%s from=%d", result.Transaction.Type, result.Transaction.AccountID)
	}
	if len(result.Statements) != 2 {
		t.Fatalf("funded statements: got %d, want 2", len(result.Statements))
	}

	got1, err := f.cards.GetStatement(ctx, st1.ID)
	if err != nil {
		t.Fatalf("get first statement: %v", err)
	}
	if got1.Status != core.StatementPaid || got1.PaidAmount.String() != "200" || got1.PaidDate == nil {
		t.Errorf("first statement: status=%s paid=%s date=%v", got1.Status, got1.PaidAmount, got1.PaidDate)
	}

	got2, err := f.cards.GetStatement(ctx, st2.ID)
	if err != nil {
		t.Fatalf("get second statement: %v", err)
	}
	if got2.PaidAmount.String() != "100" {
		t.Errorf("second statement paid: got %s, want 100", got2.PaidAmount)
	}
	if got2.Status == core.StatementPaid {
		t.Errorf("second statement must not be fully paid")
	}
	if !result.Unallocated.IsZero() {
		t.Errorf("unallocated: got %s, want 0", result.Unallocated)
	}

	// The transfer reduces the card's derived debt.
	overview, err := f.cards.Overview(ctx, f.settings.ID, core.NewDate(2025, 5, 2))
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if overview.Balance.String() != "100" {
		t.Errorf("debt after settlement: got %s, want 100", overview.Balance)
	}
}

func TestSettleRejectsNonPositiveAmount(t *testing.T) {
	f := newCardFixture(t)
	ctx := context.Background()

	// Nothing charged, so even the pay-everything default has nothing to pay.
	if _, err := f.cards.Settle(ctx, f.settings.ID, nil, nil, nil); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("no debt: got %v, want ErrInvalidAmount", err)
	}

	// An explicit zero is not a pay-everything request.
	f.charge(t, core.NewDate(2025, 3, 1), "100.00")
	if _, err := f.cards.Settle(ctx, f.settings.ID, settleAmount("0"), nil, nil); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("zero amount: got %v, want ErrInvalidAmount", err)
	}
	if _, err := f.cards.Settle(ctx, f.settings.ID, settleAmount("-5"), nil, nil); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("negative amount: got %v, want ErrInvalidAmount", err)
	}
}

func TestSettleDefaultsToFullDebt(t *testing.T) {
	f := newCardFixture(t)
	ctx := context.Background()

	f.charge(t, core.NewDate(2025, 3, 1), "200.00")
	f.charge(t, core.NewDate(2025, 3, 26), "50.00")
	cycleEnd := core.NewDate(2025, 3, 25)
	st, err := f.cards.GenerateStatement(ctx, f.settings.ID, &cycleEnd)
	if err != nil {
		t.Fatalf("generate statement: %v", err)
	}

	// No amount given: the whole 250 debt is paid. 200 funds the statement;
	// the 50 charged after the cycle closed stays unallocated.
	payDate := core.NewDate(2025, 4, 5)
	result, err := f.cards.Settle(ctx, f.settings.ID, nil, &payDate, nil)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if result.Transaction.Amount.String() != "250" {
		t.Errorf("payment amount: got %s, want 250", result.Transaction.Amount)
	}
	if result.Unallocated.String() != "50" {
		t.Errorf("unallocated: got %s, want 50", result.Unallocated)
	}

	got, err := f.cards.GetStatement(ctx, st.ID)
	if err != nil {
		t.Fatalf("get statement: %v", err)
	}
	if got.Status != core.StatementPaid {
		t.Errorf("statement status: got %s, want PAID", got.Status)
	}

	overview, err := f.cards.Overview(ctx, f.settings.ID, payDate)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if !overview.Balance.IsZero() {
		t.Errorf("debt after full settlement: got %s, want 0", overview.Balance)
	}

	// Paying more than the debt is rejected.
	if _, err := f.cards.Settle(ctx, f.settings.ID, settleAmount("10.00"), &payDate, nil); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("overpay: got %v, want ErrInvalidAmount", err)
	}
}

func TestOverviewDerivesCycleAndUtilization(t *testing.T) {
	f := newCardFixture(t)
	ctx := context.Background()

	f.charge(t, core.NewDate(2025, 3, 10), "500.00")

	overview, err := f.cards.Overview(ctx, f.settings.ID, core.NewDate(2025, 3, 15))
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if !overview.Cycle.Start.Equal(core.NewDate(2025, 2, 26)) || !overview.Cycle.End.Equal(core.NewDate(2025, 3, 25)) {
		t.Errorf("cycle: got %s..%s", overview.Cycle.Start, overview.Cycle.End)
	}
	if overview.Balance.String() != "500" {
		t.Errorf("balance: got %s, want 500", overview.Balance)
	}
	if overview.CycleCharges.String() != "500" {
		t.Errorf("cycle charges: got %s, want 500", overview.CycleCharges)
	}
	if overview.Utilization.String() != "25" {
		t.Errorf("utilization: got %s, want 25", overview.Utilization)
	}
	if overview.AvailableCredit.String() != "1500" {
		t.Errorf("available credit: got %s, want 1500", overview.AvailableCredit)
	}
}

func TestStatementGoesOverdueWhenDuePasses(t *testing.T) {
	f := newCardFixture(t)
	ctx := context.Background()

	f.charge(t, core.NewDate(2025, 3, 1), "400.00")
	cycleEnd := core.NewDate(2025, 3, 25)
	st, err := f.cards.GenerateStatement(ctx, f.settings.ID, &cycleEnd)
	if err != nil {
		t.Fatalf("generate statement: %v", err)
	}

	// The due date 2025-04-10 is long past, so reading the statement
	// derives OVERDUE and stores it back.
	got, err := f.cards.GetStatement(ctx, st.ID)
	if err != nil {
		t.Fatalf("get statement: %v", err)
	}
	if got.Status != core.StatementOverdue {
		t.Errorf("status: got %s, want OVERDUE", got.Status)
	}

	// Paying it in full clears the overdue state.
	payDate := core.Today()
	if _, err := f.cards.Settle(ctx, f.settings.ID, settleAmount("400.00"), &payDate, nil); err != nil {
		t.Fatalf("settle: %v", err)
	}
	got, err = f.cards.GetStatement(ctx, st.ID)
	if err != nil {
		t.Fatalf("get statement after settle: %v", err)
	}
	if got.Status != core.StatementPaid {
		t.Errorf("status after full payment: got %s, want PAID", got.Status)
	}
}

func TestAutoSettlePaysDueStatements(t *testing.T) {
	f := newCardFixture(t)
	ctx := context.Background()

	settings := f.settings
	settings.AutoSettlementEnabled = true
	if err := f.cards.UpdateSettings(ctx, settings); err != nil {
		t.Fatalf("enable auto settlement: %v", err)
	}

	f.charge(t, core.NewDate(2025, 3, 1), "150.00")
	cycleEnd := core.NewDate(2025, 3, 25)
	st, err := f.cards.GenerateStatement(ctx, f.settings.ID, &cycleEnd)
	if err != nil {
		t.Fatalf("generate statement: %v", err)
	}

	settled, err := f.cards.AutoSettle(ctx, core.NewDate(2025, 4, 10))
	if err != nil {
		t.Fatalf("auto settle: %v", err)
	}
	if settled != 1 {
		t.Errorf("settled cards: got %d, want 1", settled)
	}

	got, err := f.cards.GetStatement(ctx, st.ID)
	if err != nil {
		t.Fatalf("get statement: %v", err)
	}
	if got.Status != core.StatementPaid || got.PaidAmount.String() != "150" {
		t.Errorf("statement after auto settle: status=%s paid=%s", got.Status, got.PaidAmount)
	}

	// Nothing left to pay on a second pass.
	settled, err = f.cards.AutoSettle(ctx, core.NewDate(2025, 4, 11))
	if err != nil {
		t.Fatalf("second auto settle: %v", err)
	}
	if settled != 0 {
		t.Errorf("second pass settled %d cards, want 0", settled)
	}
}
