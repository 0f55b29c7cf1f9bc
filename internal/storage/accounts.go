package storage

import (
	"context"
	"fmt"

	"github.com/Rajamiththiran/money-manager-sub000/internal/core"
)

const accountColumns = "id, name, kind, currency, initial_balance, created_at"

func scanAccount(s scanner) (core.Account, error) {
	var (
		a       core.Account
		kind    string
		balance string
		created string
	)
	if err := s.Scan(&a.ID, &a.Name, &kind, &a.Currency, &balance, &created); err != nil {
		return core.Account{}, err
	}
	a.Kind = core.AccountKind(kind)
	var err error
	if a.InitialBalance, err = decodeDecimal(balance); err != nil {
		return core.Account{}, err
	}
	if a.CreatedAt, err = decodeDate(created); err != nil {
		return core.Account{}, err
	}
	return a, nil
}

func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (name, kind, currency, initial_balance, created_at) VALUES (?, ?, ?, ?, ?)`,
		a.Name, string(a.Kind), a.Currency, encodeDecimal(a.InitialBalance), encodeDate(a.CreatedAt))
	if err != nil {
		return core.Account{}, fmt.Errorf("insert account: %w", err)
	}
	if a.ID, err = res.LastInsertId(); err != nil {
		return core.Account{}, fmt.Errorf("account id: %w", err)
	}
	return a, nil
}

func (r *SQLiteRepository) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+accountColumns+" FROM accounts WHERE id = ?", id)
	a, err := scanAccount(row)
	if err != nil {
		return core.Account{}, notFound(err, "account %d not found", id)
	}
	return a, nil
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+accountColumns+" FROM accounts ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *SQLiteRepository) UpdateAccount(ctx context.Context, a core.Account) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET name = ?, kind = ?, currency = ?, initial_balance = ? WHERE id = ?`,
		a.Name, string(a.Kind), a.Currency, encodeDecimal(a.InitialBalance), a.ID)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	return requireRow(res, "account %d not found", a.ID)
}

func (r *SQLiteRepository) DeleteAccount(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM accounts WHERE id = ?", id)
	if err != nil {
		return conflictOnConstraint(err, "account %d is still referenced", id)
	}
	return requireRow(res, "account %d not found", id)
}
