package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Rajamiththiran/money-manager-sub000/internal/core"
)

const (
	planColumns    = "id, name, total_amount, num_installments, amount_per_installment, account_id, category_id, start_date, frequency, interval_days, status, installments_paid, total_paid, memo"
	paymentColumns = "id, plan_id, transaction_id, installment_number, amount, due_date, paid_date"
)

func scanPlan(s scanner) (core.InstallmentPlan, error) {
	var (
		p         core.InstallmentPlan
		total     string
		perInst   string
		startDate string
		frequency string
		status    string
		totalPaid string
	)
	if err := s.Scan(&p.ID, &p.Name, &total, &p.NumInstallments, &perInst, &p.AccountID,
		&p.CategoryID, &startDate, &frequency, &p.IntervalDays, &status,
		&p.InstallmentsPaid, &totalPaid, &p.Memo); err != nil {
		return core.InstallmentPlan{}, err
	}
	p.Frequency = core.Frequency(frequency)
	p.Status = core.PlanStatus(status)
	var err error
	if p.TotalAmount, err = decodeDecimal(total); err != nil {
		return core.InstallmentPlan{}, err
	}
	if p.AmountPerInstallment, err = decodeDecimal(perInst); err != nil {
		return core.InstallmentPlan{}, err
	}
	if p.StartDate, err = decodeDate(startDate); err != nil {
		return core.InstallmentPlan{}, err
	}
	if p.TotalPaid, err = decodeDecimal(totalPaid); err != nil {
		return core.InstallmentPlan{}, err
	}
	return p, nil
}

func scanPayment(s scanner) (core.InstallmentPayment, error) {
	var (
		pay           core.InstallmentPayment
		transactionID sql.NullInt64
		amount        string
		dueDate       string
		paidDate      sql.NullString
	)
	if err := s.Scan(&pay.ID, &pay.PlanID, &transactionID, &pay.InstallmentNumber,
		&amount, &dueDate, &paidDate); err != nil {
		return core.InstallmentPayment{}, err
	}
	pay.TransactionID = decodeInt64Ptr(transactionID)
	var err error
	if pay.Amount, err = decodeDecimal(amount); err != nil {
		return core.InstallmentPayment{}, err
	}
	if pay.DueDate, err = decodeDate(dueDate); err != nil {
		return core.InstallmentPayment{}, err
	}
	if pay.PaidDate, err = decodeDatePtr(paidDate); err != nil {
		return core.InstallmentPayment{}, err
	}
	return pay, nil
}

// CreatePlan persists the plan and its full schedule in a single database
// transaction.
func (r *SQLiteRepository) CreatePlan(ctx context.Context, p core.InstallmentPlan, schedule []core.InstallmentPayment) (core.InstallmentPlan, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.InstallmentPlan{}, fmt.Errorf("begin create plan: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO installment_plans (name, total_amount, num_installments, amount_per_installment, account_id, category_id, start_date, frequency, interval_days, status, installments_paid, total_paid, memo)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Name, encodeDecimal(p.TotalAmount), p.NumInstallments, encodeDecimal(p.AmountPerInstallment),
		p.AccountID, p.CategoryID, encodeDate(p.StartDate), string(p.Frequency), p.IntervalDays,
		string(p.Status), p.InstallmentsPaid, encodeDecimal(p.TotalPaid), p.Memo)
	if err != nil {
		return core.InstallmentPlan{}, fmt.Errorf("insert installment plan: %w", err)
	}
	if p.ID, err = res.LastInsertId(); err != nil {
		return core.InstallmentPlan{}, fmt.Errorf("installment plan id: %w", err)
	}

	for _, pay := range schedule {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO installment_payments (plan_id, transaction_id, installment_number, amount, due_date, paid_date)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			p.ID, encodeInt64Ptr(pay.TransactionID), pay.InstallmentNumber,
			encodeDecimal(pay.Amount), encodeDate(pay.DueDate), encodeDatePtr(pay.PaidDate)); err != nil {
			return core.InstallmentPlan{}, fmt.Errorf("insert installment %d: %w", pay.InstallmentNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return core.InstallmentPlan{}, fmt.Errorf("commit create plan: %w", err)
	}
	return p, nil
}

func (r *SQLiteRepository) GetPlan(ctx context.Context, id int64) (core.InstallmentPlan, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+planColumns+" FROM installment_plans WHERE id = ?", id)
	p, err := scanPlan(row)
	if err != nil {
		return core.InstallmentPlan{}, notFound(err, "installment plan %d not found", id)
	}
	return p, nil
}

func (r *SQLiteRepository) ListPlans(ctx context.Context, status *core.PlanStatus) ([]core.InstallmentPlan, error) {
	query := "SELECT " + planColumns + " FROM installment_plans"
	var args []any
	if status != nil {
		query += " WHERE status = ?"
		args = append(args, string(*status))
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list installment plans: %w", err)
	}
	defer rows.Close()

	var plans []core.InstallmentPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

func (r *SQLiteRepository) UpdatePlan(ctx context.Context, p core.InstallmentPlan) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE installment_plans SET name = ?, total_amount = ?, num_installments = ?, amount_per_installment = ?, account_id = ?, category_id = ?, start_date = ?, frequency = ?, interval_days = ?, status = ?, installments_paid = ?, total_paid = ?, memo = ?
		 WHERE id = ?`,
		p.Name, encodeDecimal(p.TotalAmount), p.NumInstallments, encodeDecimal(p.AmountPerInstallment),
		p.AccountID, p.CategoryID, encodeDate(p.StartDate), string(p.Frequency), p.IntervalDays,
		string(p.Status), p.InstallmentsPaid, encodeDecimal(p.TotalPaid), p.Memo, p.ID)
	if err != nil {
		return fmt.Errorf("update installment plan: %w", err)
	}
	return requireRow(res, "installment plan %d not found", p.ID)
}

// DeletePlan removes the plan; schedule rows go with it through the cascade.
func (r *SQLiteRepository) DeletePlan(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM installment_plans WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete installment plan: %w", err)
	}
	return requireRow(res, "installment plan %d not found", id)
}

func (r *SQLiteRepository) ListPayments(ctx context.Context, planID int64) ([]core.InstallmentPayment, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+paymentColumns+" FROM installment_payments WHERE plan_id = ? ORDER BY installment_number",
		planID)
	if err != nil {
		return nil, fmt.Errorf("list installments: %w", err)
	}
	defer rows.Close()
	return collectPayments(rows)
}

// ListPaymentsDue returns unpaid schedule rows of active plans due inside
// [from, to].
func (r *SQLiteRepository) ListPaymentsDue(ctx context.Context, from, to core.Date) ([]core.InstallmentPayment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+prefixedPaymentColumns+` FROM installment_payments ip
		 JOIN installment_plans p ON p.id = ip.plan_id
		 WHERE p.status = ? AND ip.paid_date IS NULL AND ip.due_date >= ? AND ip.due_date <= ?
		 ORDER BY ip.due_date, ip.plan_id, ip.installment_number`,
		string(core.PlanActive), encodeDate(from), encodeDate(to))
	if err != nil {
		return nil, fmt.Errorf("list due installments: %w", err)
	}
	defer rows.Close()
	return collectPayments(rows)
}

const prefixedPaymentColumns = "ip.id, ip.plan_id, ip.transaction_id, ip.installment_number, ip.amount, ip.due_date, ip.paid_date"

func collectPayments(rows *sql.Rows) ([]core.InstallmentPayment, error) {
	var payments []core.InstallmentPayment
	for rows.Next() {
		pay, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, pay)
	}
	return payments, rows.Err()
}

// RecordPayment writes the ledger transaction, marks the schedule row paid
// and stores the advanced plan in a single database transaction.
func (r *SQLiteRepository) RecordPayment(ctx context.Context, p core.InstallmentPlan, payment core.InstallmentPayment, t core.Transaction) (core.Transaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("begin record payment: %w", err)
	}
	defer tx.Rollback()

	if t, err = insertTransaction(ctx, tx, t); err != nil {
		return core.Transaction{}, err
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE installment_payments SET transaction_id = ?, paid_date = ? WHERE id = ?`,
		t.ID, encodeDatePtr(payment.PaidDate), payment.ID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("mark installment paid: %w", err)
	}
	if err := requireRow(res, "installment %d not found", payment.ID); err != nil {
		return core.Transaction{}, err
	}

	res, err = tx.ExecContext(ctx,
		`UPDATE installment_plans SET status = ?, installments_paid = ?, total_paid = ? WHERE id = ?`,
		string(p.Status), p.InstallmentsPaid, encodeDecimal(p.TotalPaid), p.ID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("advance installment plan: %w", err)
	}
	if err := requireRow(res, "installment plan %d not found", p.ID); err != nil {
		return core.Transaction{}, err
	}

	if err := tx.Commit(); err != nil {
		return core.Transaction{}, fmt.Errorf("commit record payment: %w", err)
	}
	return t, nil
}
