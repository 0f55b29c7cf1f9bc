package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Rajamiththiran/money-manager-sub000/internal/core"
)

const recurringColumns = "id, name, description, type, amount, account_id, to_account_id, category_id, frequency, interval_days, start_date, end_date, next_execution_date, is_active, last_executed_date, execution_count"

func scanRecurring(s scanner) (core.RecurringTransaction, error) {
	var (
		rt           core.RecurringTransaction
		ttype        string
		amount       string
		toAccountID  sql.NullInt64
		categoryID   sql.NullInt64
		frequency    string
		startDate    string
		endDate      sql.NullString
		nextDate     string
		lastExecuted sql.NullString
	)
	if err := s.Scan(&rt.ID, &rt.Name, &rt.Description, &ttype, &amount, &rt.AccountID,
		&toAccountID, &categoryID, &frequency, &rt.IntervalDays, &startDate, &endDate,
		&nextDate, &rt.IsActive, &lastExecuted, &rt.ExecutionCount); err != nil {
		return core.RecurringTransaction{}, err
	}
	rt.Type = core.TransactionType(ttype)
	rt.ToAccountID = decodeInt64Ptr(toAccountID)
	rt.CategoryID = decodeInt64Ptr(categoryID)
	rt.Frequency = core.Frequency(frequency)
	var err error
	if rt.Amount, err = decodeDecimal(amount); err != nil {
		return core.RecurringTransaction{}, err
	}
	if rt.StartDate, err = decodeDate(startDate); err != nil {
		return core.RecurringTransaction{}, err
	}
	if rt.EndDate, err = decodeDatePtr(endDate); err != nil {
		return core.RecurringTransaction{}, err
	}
	if rt.NextExecutionDate, err = decodeDate(nextDate); err != nil {
		return core.RecurringTransaction{}, err
	}
	if rt.LastExecutedDate, err = decodeDatePtr(lastExecuted); err != nil {
		return core.RecurringTransaction{}, err
	}
	return rt, nil
}

func (r *SQLiteRepository) CreateRecurring(ctx context.Context, rt core.RecurringTransaction) (core.RecurringTransaction, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO recurring_transactions (name, description, type, amount, account_id, to_account_id, category_id, frequency, interval_days, start_date, end_date, next_execution_date, is_active, last_executed_date, execution_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rt.Name, rt.Description, string(rt.Type), encodeDecimal(rt.Amount), rt.AccountID,
		encodeInt64Ptr(rt.ToAccountID), encodeInt64Ptr(rt.CategoryID), string(rt.Frequency),
		rt.IntervalDays, encodeDate(rt.StartDate), encodeDatePtr(rt.EndDate),
		encodeDate(rt.NextExecutionDate), rt.IsActive, encodeDatePtr(rt.LastExecutedDate), rt.ExecutionCount)
	if err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("insert recurring definition: %w", err)
	}
	if rt.ID, err = res.LastInsertId(); err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("recurring definition id: %w", err)
	}
	return rt, nil
}

func (r *SQLiteRepository) GetRecurring(ctx context.Context, id int64) (core.RecurringTransaction, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+recurringColumns+" FROM recurring_transactions WHERE id = ?", id)
	rt, err := scanRecurring(row)
	if err != nil {
		return core.RecurringTransaction{}, notFound(err, "recurring definition %d not found", id)
	}
	return rt, nil
}

func (r *SQLiteRepository) ListRecurring(ctx context.Context, onlyActive bool) ([]core.RecurringTransaction, error) {
	query := "SELECT " + recurringColumns + " FROM recurring_transactions"
	if onlyActive {
		query += " WHERE is_active = 1"
	}
	query += " ORDER BY next_execution_date, id"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list recurring definitions: %w", err)
	}
	defer rows.Close()
	return collectRecurring(rows)
}

func (r *SQLiteRepository) ListDueRecurring(ctx context.Context, asOf core.Date) ([]core.RecurringTransaction, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+recurringColumns+" FROM recurring_transactions WHERE is_active = 1 AND next_execution_date <= ? ORDER BY next_execution_date, id",
		encodeDate(asOf))
	if err != nil {
		return nil, fmt.Errorf("list due recurring definitions: %w", err)
	}
	defer rows.Close()
	return collectRecurring(rows)
}

func collectRecurring(rows *sql.Rows) ([]core.RecurringTransaction, error) {
	var defs []core.RecurringTransaction
	for rows.Next() {
		rt, err := scanRecurring(rows)
		if err != nil {
			return nil, err
		}
		defs = append(defs, rt)
	}
	return defs, rows.Err()
}

func (r *SQLiteRepository) UpdateRecurring(ctx context.Context, rt core.RecurringTransaction) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_transactions SET name = ?, description = ?, type = ?, amount = ?, account_id = ?, to_account_id = ?, category_id = ?, frequency = ?, interval_days = ?, start_date = ?, end_date = ?, next_execution_date = ?, is_active = ?, last_executed_date = ?, execution_count = ?
		 WHERE id = ?`,
		rt.Name, rt.Description, string(rt.Type), encodeDecimal(rt.Amount), rt.AccountID,
		encodeInt64Ptr(rt.ToAccountID), encodeInt64Ptr(rt.CategoryID), string(rt.Frequency),
		rt.IntervalDays, encodeDate(rt.StartDate), encodeDatePtr(rt.EndDate),
		encodeDate(rt.NextExecutionDate), rt.IsActive, encodeDatePtr(rt.LastExecutedDate),
		rt.ExecutionCount, rt.ID)
	if err != nil {
		return fmt.Errorf("update recurring definition: %w", err)
	}
	return requireRow(res, "recurring definition %d not found", rt.ID)
}

func (r *SQLiteRepository) DeleteRecurring(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM recurring_transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete recurring definition: %w", err)
	}
	return requireRow(res, "recurring definition %d not found", id)
}

// ExecuteRecurring writes the materialized transaction and the advanced
// definition in a single database transaction.
func (r *SQLiteRepository) ExecuteRecurring(ctx context.Context, rt core.RecurringTransaction, t core.Transaction) (core.Transaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("begin execute recurring: %w", err)
	}
	defer tx.Rollback()

	if t, err = insertTransaction(ctx, tx, t); err != nil {
		return core.Transaction{}, err
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE recurring_transactions SET next_execution_date = ?, last_executed_date = ?, execution_count = ? WHERE id = ?`,
		encodeDate(rt.NextExecutionDate), encodeDatePtr(rt.LastExecutedDate), rt.ExecutionCount, rt.ID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("advance recurring definition: %w", err)
	}
	if err := requireRow(res, "recurring definition %d not found", rt.ID); err != nil {
		return core.Transaction{}, err
	}

	if err := tx.Commit(); err != nil {
		return core.Transaction{}, fmt.Errorf("commit execute recurring: %w", err)
	}
	return t, nil
}
