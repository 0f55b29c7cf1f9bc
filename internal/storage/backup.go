package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Rajamiththiran/money-manager-sub000/internal/core"
	"github.com/Rajamiththiran/money-manager-sub000/internal/services"
)

// clearOrder deletes children before their parents so foreign keys never
// block a wipe.
var clearOrder = []string{
	"budgets",
	"credit_card_statements",
	"credit_card_settings",
	"installment_payments",
	"installment_plans",
	"recurring_transactions",
	"transactions",
	"accounts",
	"categories",
}

// Snapshot reads the complete engine state.
func (r *SQLiteRepository) Snapshot(ctx context.Context) (core.Snapshot, error) {
	var (
		snap core.Snapshot
		err  error
	)
	if snap.Accounts, err = r.ListAccounts(ctx); err != nil {
		return core.Snapshot{}, err
	}
	if snap.Categories, err = r.ListCategories(ctx); err != nil {
		return core.Snapshot{}, err
	}
	if snap.Transactions, err = r.ListTransactions(ctx, services.TransactionFilter{}); err != nil {
		return core.Snapshot{}, err
	}
	if snap.Recurring, err = r.ListRecurring(ctx, false); err != nil {
		return core.Snapshot{}, err
	}
	if snap.InstallmentPlans, err = r.ListPlans(ctx, nil); err != nil {
		return core.Snapshot{}, err
	}
	if snap.InstallmentPayments, err = r.listAllPayments(ctx); err != nil {
		return core.Snapshot{}, err
	}
	if snap.CreditCardSettings, err = r.ListCardSettings(ctx); err != nil {
		return core.Snapshot{}, err
	}
	if snap.CreditCardStatements, err = r.listAllStatements(ctx); err != nil {
		return core.Snapshot{}, err
	}
	if snap.Budgets, err = r.ListBudgets(ctx, false); err != nil {
		return core.Snapshot{}, err
	}
	return snap, nil
}

// Restore replaces the complete engine state with the snapshot in a single
// database transaction, keeping the snapshot's IDs.
func (r *SQLiteRepository) Restore(ctx context.Context, snap core.Snapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin restore: %w", err)
	}
	defer tx.Rollback()

	if err := clearTables(ctx, tx); err != nil {
		return err
	}

	for _, a := range snap.Accounts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO accounts (id, name, kind, currency, initial_balance, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			a.ID, a.Name, string(a.Kind), a.Currency, encodeDecimal(a.InitialBalance), encodeDate(a.CreatedAt)); err != nil {
			return fmt.Errorf("restore account %d: %w", a.ID, err)
		}
	}
	for _, c := range snap.Categories {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO categories (id, parent_id, name, type) VALUES (?, ?, ?, ?)`,
			c.ID, encodeInt64Ptr(c.ParentID), c.Name, string(c.Type)); err != nil {
			return fmt.Errorf("restore category %d: %w", c.ID, err)
		}
	}
	for _, t := range snap.Transactions {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO transactions (id, date, type, amount, account_id, to_account_id, category_id, memo, photo_ref)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, encodeDate(t.Date), string(t.Type), encodeDecimal(t.Amount), t.AccountID,
			encodeInt64Ptr(t.ToAccountID), encodeInt64Ptr(t.CategoryID), t.Memo, t.PhotoRef); err != nil {
			return fmt.Errorf("restore transaction %d: %w", t.ID, err)
		}
	}
	for _, rt := range snap.Recurring {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO recurring_transactions (id, name, description, type, amount, account_id, to_account_id, category_id, frequency, interval_days, start_date, end_date, next_execution_date, is_active, last_executed_date, execution_count)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rt.ID, rt.Name, rt.Description, string(rt.Type), encodeDecimal(rt.Amount), rt.AccountID,
			encodeInt64Ptr(rt.ToAccountID), encodeInt64Ptr(rt.CategoryID), string(rt.Frequency),
			rt.IntervalDays, encodeDate(rt.StartDate), encodeDatePtr(rt.EndDate),
			encodeDate(rt.NextExecutionDate), rt.IsActive, encodeDatePtr(rt.LastExecutedDate), rt.ExecutionCount); err != nil {
			return fmt.Errorf("restore recurring definition %d: %w", rt.ID, err)
		}
	}
	for _, p := range snap.InstallmentPlans {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO installment_plans (id, name, total_amount, num_installments, amount_per_installment, account_id, category_id, start_date, frequency, interval_days, status, installments_paid, total_paid, memo)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Name, encodeDecimal(p.TotalAmount), p.NumInstallments, encodeDecimal(p.AmountPerInstallment),
			p.AccountID, p.CategoryID, encodeDate(p.StartDate), string(p.Frequency), p.IntervalDays,
			string(p.Status), p.InstallmentsPaid, encodeDecimal(p.TotalPaid), p.Memo); err != nil {
			return fmt.Errorf("restore installment plan %d: %w", p.ID, err)
		}
	}
	for _, pay := range snap.InstallmentPayments {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO installment_payments (id, plan_id, transaction_id, installment_number, amount, due_date, paid_date)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			pay.ID, pay.PlanID, encodeInt64Ptr(pay.TransactionID), pay.InstallmentNumber,
			encodeDecimal(pay.Amount), encodeDate(pay.DueDate), encodeDatePtr(pay.PaidDate)); err != nil {
			return fmt.Errorf("restore installment %d: %w", pay.ID, err)
		}
	}
	for _, cs := range snap.CreditCardSettings {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO credit_card_settings (id, account_id, credit_limit, statement_day, payment_due_day, minimum_payment_percentage, auto_settlement_enabled, settlement_account_id)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			cs.ID, cs.AccountID, encodeDecimal(cs.CreditLimit), cs.StatementDay, cs.PaymentDueDay,
			encodeDecimal(cs.MinimumPaymentPercentage), cs.AutoSettlementEnabled, encodeInt64Ptr(cs.SettlementAccountID)); err != nil {
			return fmt.Errorf("restore card settings %d: %w", cs.ID, err)
		}
	}
	for _, st := range snap.CreditCardStatements {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO credit_card_statements (id, settings_id, statement_date, due_date, cycle_start_date, cycle_end_date, opening_balance, total_charges, total_payments, closing_balance, minimum_payment, status, paid_amount, paid_date)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			st.ID, st.SettingsID, encodeDate(st.StatementDate), encodeDate(st.DueDate),
			encodeDate(st.CycleStartDate), encodeDate(st.CycleEndDate),
			encodeDecimal(st.OpeningBalance), encodeDecimal(st.TotalCharges),
			encodeDecimal(st.TotalPayments), encodeDecimal(st.ClosingBalance),
			encodeDecimal(st.MinimumPayment), string(st.Status),
			encodeDecimal(st.PaidAmount), encodeDatePtr(st.PaidDate)); err != nil {
			return fmt.Errorf("restore statement %d: %w", st.ID, err)
		}
	}
	for _, b := range snap.Budgets {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO budgets (id, category_id, amount, period, start_date, is_active) VALUES (?, ?, ?, ?, ?, ?)`,
			b.ID, b.CategoryID, encodeDecimal(b.Amount), string(b.Period), encodeDate(b.StartDate), b.IsActive); err != nil {
			return fmt.Errorf("restore budget %d: %w", b.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit restore: %w", err)
	}
	return nil
}

// Clear wipes the complete engine state in a single database transaction.
func (r *SQLiteRepository) Clear(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin clear: %w", err)
	}
	defer tx.Rollback()

	if err := clearTables(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit clear: %w", err)
	}
	return nil
}

func clearTables(ctx context.Context, tx *sql.Tx) error {
	for _, table := range clearOrder {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
		// Reset the autoincrement counter so fresh inserts start at 1.
		if _, err := tx.ExecContext(ctx, "DELETE FROM sqlite_sequence WHERE name = ?", table); err != nil {
			return fmt.Errorf("reset %s sequence: %w", table, err)
		}
	}
	return nil
}

func (r *SQLiteRepository) listAllPayments(ctx context.Context) ([]core.InstallmentPayment, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+paymentColumns+" FROM installment_payments ORDER BY plan_id, installment_number")
	if err != nil {
		return nil, fmt.Errorf("list all installments: %w", err)
	}
	defer rows.Close()
	return collectPayments(rows)
}

func (r *SQLiteRepository) listAllStatements(ctx context.Context) ([]core.CreditCardStatement, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+statementColumns+" FROM credit_card_statements ORDER BY settings_id, cycle_end_date")
	if err != nil {
		return nil, fmt.Errorf("list all statements: %w", err)
	}
	defer rows.Close()

	var statements []core.CreditCardStatement
	for rows.Next() {
		st, err := scanStatement(rows)
		if err != nil {
			return nil, err
		}
		statements = append(statements, st)
	}
	return statements, rows.Err()
}
