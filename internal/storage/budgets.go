package storage

import (
	"context"
	"fmt"

	"github.com/Rajamiththiran/money-manager-sub000/internal/core"
)

const budgetColumns = "id, category_id, amount, period, start_date, is_active"

func scanBudget(s scanner) (core.Budget, error) {
	var (
		b         core.Budget
		amount    string
		period    string
		startDate string
	)
	if err := s.Scan(&b.ID, &b.CategoryID, &amount, &period, &startDate, &b.IsActive); err != nil {
		return core.Budget{}, err
	}
	b.Period = core.BudgetPeriod(period)
	var err error
	if b.Amount, err = decodeDecimal(amount); err != nil {
		return core.Budget{}, err
	}
	if b.StartDate, err = decodeDate(startDate); err != nil {
		return core.Budget{}, err
	}
	return b, nil
}

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (category_id, amount, period, start_date, is_active) VALUES (?, ?, ?, ?, ?)`,
		b.CategoryID, encodeDecimal(b.Amount), string(b.Period), encodeDate(b.StartDate), b.IsActive)
	if err != nil {
		return core.Budget{}, fmt.Errorf("insert budget: %w", err)
	}
	if b.ID, err = res.LastInsertId(); err != nil {
		return core.Budget{}, fmt.Errorf("budget id: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, id int64) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+budgetColumns+" FROM budgets WHERE id = ?", id)
	b, err := scanBudget(row)
	if err != nil {
		return core.Budget{}, notFound(err, "budget %d not found", id)
	}
	return b, nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, onlyActive bool) ([]core.Budget, error) {
	query := "SELECT " + budgetColumns + " FROM budgets"
	if onlyActive {
		query += " WHERE is_active = 1"
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func (r *SQLiteRepository) UpdateBudget(ctx context.Context, b core.Budget) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE budgets SET category_id = ?, amount = ?, period = ?, start_date = ?, is_active = ? WHERE id = ?`,
		b.CategoryID, encodeDecimal(b.Amount), string(b.Period), encodeDate(b.StartDate), b.IsActive, b.ID)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	return requireRow(res, "budget %d not found", b.ID)
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM budgets WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return requireRow(res, "budget %d not found", id)
}
