package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Rajamiththiran/money-manager-sub000/internal/core"
	"github.com/Rajamiththiran/money-manager-sub000/internal/services"
)

const transactionColumns = "id, date, type, amount, account_id, to_account_id, category_id, memo, photo_ref"

func scanTransaction(s scanner) (core.Transaction, error) {
	var (
		t           core.Transaction
		date        string
		ttype       string
		amount      string
		toAccountID sql.NullInt64
		categoryID  sql.NullInt64
	)
	if err := s.Scan(&t.ID, &date, &ttype, &amount, &t.AccountID, &toAccountID, &categoryID, &t.Memo, &t.PhotoRef); err != nil {
		return core.Transaction{}, err
	}
	t.Type = core.TransactionType(ttype)
	t.ToAccountID = decodeInt64Ptr(toAccountID)
	t.CategoryID = decodeInt64Ptr(categoryID)
	var err error
	if t.Date, err = decodeDate(date); err != nil {
		return core.Transaction{}, err
	}
	if t.Amount, err = decodeDecimal(amount); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

// insertTransaction writes a transaction inside an existing statement
// executor, so atomic engine operations can reuse it.
func insertTransaction(ctx context.Context, ex interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
}, t core.Transaction) (core.Transaction, error) {
	res, err := ex.ExecContext(ctx,
		`INSERT INTO transactions (date, type, amount, account_id, to_account_id, category_id, memo, photo_ref)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		encodeDate(t.Date), string(t.Type), encodeDecimal(t.Amount), t.AccountID,
		encodeInt64Ptr(t.ToAccountID), encodeInt64Ptr(t.CategoryID), t.Memo, t.PhotoRef)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	if t.ID, err = res.LastInsertId(); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction id: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	return insertTransaction(ctx, r.db, t)
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+transactionColumns+" FROM transactions WHERE id = ?", id)
	t, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, notFound(err, "transaction %d not found", id)
	}
	return t, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, f services.TransactionFilter) ([]core.Transaction, error) {
	var (
		where []string
		args  []any
	)
	if f.AccountID != nil {
		where = append(where, "(account_id = ? OR to_account_id = ?)")
		args = append(args, *f.AccountID, *f.AccountID)
	}
	if f.CategoryID != nil {
		where = append(where, "category_id = ?")
		args = append(args, *f.CategoryID)
	}
	if f.Type != nil {
		where = append(where, "type = ?")
		args = append(args, string(*f.Type))
	}
	if f.From != nil {
		where = append(where, "date >= ?")
		args = append(args, encodeDate(*f.From))
	}
	if f.To != nil {
		where = append(where, "date <= ?")
		args = append(args, encodeDate(*f.To))
	}

	query := "SELECT " + transactionColumns + " FROM transactions"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date, id"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
		if f.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, f.Offset)
		}
	} else if f.Offset > 0 {
		query += " LIMIT -1 OFFSET ?"
		args = append(args, f.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET date = ?, type = ?, amount = ?, account_id = ?, to_account_id = ?, category_id = ?, memo = ?, photo_ref = ?
		 WHERE id = ?`,
		encodeDate(t.Date), string(t.Type), encodeDecimal(t.Amount), t.AccountID,
		encodeInt64Ptr(t.ToAccountID), encodeInt64Ptr(t.CategoryID), t.Memo, t.PhotoRef, t.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return requireRow(res, "transaction %d not found", t.ID)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return requireRow(res, "transaction %d not found", id)
}
