package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Rajamiththiran/money-manager-sub000/internal/core"
	"github.com/Rajamiththiran/money-manager-sub000/internal/services"
)

type recurringFixture struct {
	*ledgerFixture
	recurring *services.RecurringService
}

func newRecurringFixture(t *testing.T) *recurringFixture {
	t.Helper()
	lf := newLedgerFixture(t)
	return &recurringFixture{
		ledgerFixture: lf,
		recurring:     services.NewRecurringService(lf.store, lf.store, nil),
	}
}

func (f *recurringFixture) mustCreateRecurring(t *testing.T, r core.RecurringTransaction) core.RecurringTransaction {
	t.Helper()
	created, err := f.recurring.Create(context.Background(), r)
	if err != nil {
		t.Fatalf("create recurring definition: %v", err)
	}
	return created
}

func monthEndRent(f *recurringFixture) core.RecurringTransaction {
	return core.RecurringTransaction{
		Name:       "Rent",
		Type:       core.Expense,
		Amount:     decimal.RequireFromString("850.00"),
		AccountID:  f.checking.ID,
		CategoryID: &f.food.ID,
		Frequency:  core.Monthly,
		StartDate:  core.NewDate(2025, 1, 31),
	}
}

func TestRecurringCreateStartsAtStartDate(t *testing.T) {
	f := newRecurringFixture(t)
	created := f.mustCreateRecurring(t, monthEndRent(f))

	if !created.NextExecutionDate.Equal(core.NewDate(2025, 1, 31)) {
		t.Errorf("next execution: got %s, want the start date", created.NextExecutionDate)
	}
	if !created.IsActive || created.ExecutionCount != 0 || created.LastExecutedDate != nil {
		t.Errorf("fresh definition has wrong bookkeeping: %+v", created)
	}
}

func TestExecuteMaterializesOneOccurrence(t *testing.T) {
	f := newRecurringFixture(t)
	ctx := context.Background()
	created := f.mustCreateRecurring(t, monthEndRent(f))

	tx, err := f.recurring.Execute(ctx, created.ID)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !tx.Date.Equal(core.NewDate(2025, 1, 31)) {
		t.Errorf("transaction date: got %s, want the occurrence date", tx.Date)
	}
	if tx.Memo != "Rent" || !tx.Amount.Equal(created.Amount) {
		t.Errorf("transaction fields: memo=%q amount=%s", tx.Memo, tx.Amount)
	}

	r, err := f.recurring.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !r.NextExecutionDate.Equal(core.NewDate(2025, 2, 28)) {
		t.Errorf("next execution after first run: got %s, want 2025-02-28", r.NextExecutionDate)
	}
	if r.ExecutionCount != 1 || r.LastExecutedDate == nil || !r.LastExecutedDate.Equal(core.NewDate(2025, 1, 31)) {
		t.Errorf("bookkeeping after first run: count=%d last=%v", r.ExecutionCount, r.LastExecutedDate)
	}

	// The second run lands back on the month-end anchor.
	tx2, err := f.recurring.Execute(ctx, created.ID)
	if err != nil {
		t.Fatalf("second execute: %v", err)
	}
	if !tx2.Date.Equal(core.NewDate(2025, 2, 28)) {
		t.Errorf("second transaction date: got %s, want 2025-02-28", tx2.Date)
	}
	r, _ = f.recurring.Get(ctx, created.ID)
	if !r.NextExecutionDate.Equal(core.NewDate(2025, 3, 31)) {
		t.Errorf("anchor lost after short month: got %s, want 2025-03-31", r.NextExecutionDate)
	}
}

func TestExecutePausedDefinitionFails(t *testing.T) {
	f := newRecurringFixture(t)
	ctx := context.Background()
	created := f.mustCreateRecurring(t, monthEndRent(f))

	if _, err := f.recurring.SetActive(ctx, created.ID, false); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if _, err := f.recurring.Execute(ctx, created.ID); !errors.Is(err, core.ErrNotActive) {
		t.Errorf("got %v, want ErrNotActive", err)
	}

	// Resuming makes it executable again.
	if _, err := f.recurring.SetActive(ctx, created.ID, true); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if _, err := f.recurring.Execute(ctx, created.ID); err != nil {
		t.Errorf("execute after resume: %v", err)
	}
}

func TestExecuteExhaustedDefinitionFails(t *testing.T) {
	f := newRecurringFixture(t)
	ctx := context.Background()

	def := monthEndRent(f)
	def.Frequency = core.Daily
	def.StartDate = core.Today().AddDays(-1)
	end := core.Today()
	def.EndDate = &end
	created := f.mustCreateRecurring(t, def)

	// Two occurrences fit the window: yesterday and today.
	for i := 0; i < 2; i++ {
		if _, err := f.recurring.Execute(ctx, created.ID); err != nil {
			t.Fatalf("execute %d: %v", i+1, err)
		}
	}
	if _, err := f.recurring.Execute(ctx, created.ID); !errors.Is(err, core.ErrOutOfWindow) {
		t.Errorf("got %v, want ErrOutOfWindow", err)
	}

	// The definition stays active; exhaustion is implied by the dates.
	r, err := f.recurring.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !r.IsActive {
		t.Error("exhaustion must not flip IsActive")
	}
}

func TestExecuteOutsideWindowFails(t *testing.T) {
	f := newRecurringFixture(t)
	ctx := context.Background()

	// Starts a month from now.
	future := monthEndRent(f)
	future.StartDate = core.Today().AddDays(30)
	created := f.mustCreateRecurring(t, future)
	if _, err := f.recurring.Execute(ctx, created.ID); !errors.Is(err, core.ErrOutOfWindow) {
		t.Errorf("before start date: got %v, want ErrOutOfWindow", err)
	}

	// Window closed long ago.
	lapsed := monthEndRent(f)
	lapsed.Name = "Old gym"
	end := core.NewDate(2025, 2, 28)
	lapsed.EndDate = &end
	created = f.mustCreateRecurring(t, lapsed)
	if _, err := f.recurring.Execute(ctx, created.ID); !errors.Is(err, core.ErrOutOfWindow) {
		t.Errorf("after end date: got %v, want ErrOutOfWindow", err)
	}

	// Neither refusal wrote to the ledger.
	txs, err := f.ledger.ListTransactions(ctx, services.TransactionFilter{})
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("out-of-window execute wrote %d transactions, want 0", len(txs))
	}
}

func TestSkipAdvancesWithoutTransaction(t *testing.T) {
	f := newRecurringFixture(t)
	ctx := context.Background()
	created := f.mustCreateRecurring(t, monthEndRent(f))

	skipped, err := f.recurring.Skip(ctx, created.ID)
	if err != nil {
		t.Fatalf("skip: %v", err)
	}
	if !skipped.NextExecutionDate.Equal(core.NewDate(2025, 2, 28)) {
		t.Errorf("next execution after skip: got %s, want 2025-02-28", skipped.NextExecutionDate)
	}
	if skipped.ExecutionCount != 0 || skipped.LastExecutedDate != nil {
		t.Errorf("skip must not count as execution: count=%d last=%v", skipped.ExecutionCount, skipped.LastExecutedDate)
	}

	txs, err := f.ledger.ListTransactions(ctx, services.TransactionFilter{})
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("skip wrote %d transactions, want 0", len(txs))
	}
}

func TestProcessorCatchesUpMissedOccurrences(t *testing.T) {
	f := newRecurringFixture(t)
	ctx := context.Background()
	created := f.mustCreateRecurring(t, monthEndRent(f))

	processor := services.NewRecurringProcessor(f.recurring, f.store)
	executed, err := processor.ProcessDue(ctx, core.NewDate(2025, 4, 15))
	if err != nil {
		t.Fatalf("process due: %v", err)
	}
	// 2025-01-31, 2025-02-28 and 2025-03-31 are due by mid April.
	if executed != 3 {
		t.Errorf("executed %d occurrences, want 3", executed)
	}

	r, err := f.recurring.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !r.NextExecutionDate.Equal(core.NewDate(2025, 4, 30)) {
		t.Errorf("next execution after catch-up: got %s, want 2025-04-30", r.NextExecutionDate)
	}
	if r.ExecutionCount != 3 {
		t.Errorf("execution count: got %d, want 3", r.ExecutionCount)
	}

	// A second pass finds nothing to do.
	executed, err = processor.ProcessDue(ctx, core.NewDate(2025, 4, 15))
	if err != nil {
		t.Fatalf("second process due: %v", err)
	}
	if executed != 0 {
		t.Errorf("second pass executed %d occurrences, want 0", executed)
	}
}

func TestProcessorSkipsPausedDefinitions(t *testing.T) {
	f := newRecurringFixture(t)
	ctx := context.Background()
	created := f.mustCreateRecurring(t, monthEndRent(f))
	if _, err := f.recurring.SetActive(ctx, created.ID, false); err != nil {
		t.Fatalf("pause: %v", err)
	}

	processor := services.NewRecurringProcessor(f.recurring, f.store)
	executed, err := processor.ProcessDue(ctx, core.NewDate(2025, 4, 15))
	if err != nil {
		t.Fatalf("process due: %v", err)
	}
	if executed != 0 {
		t.Errorf("paused definition executed %d times, want 0", executed)
	}
}
