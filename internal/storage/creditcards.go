package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Rajamiththiran/money-manager-sub000/internal/core"
)

const (
	cardSettingsColumns = "id, account_id, credit_limit, statement_day, payment_due_day, minimum_payment_percentage, auto_settlement_enabled, settlement_account_id"
	statementColumns    = "id, settings_id, statement_date, due_date, cycle_start_date, cycle_end_date, opening_balance, total_charges, total_payments, closing_balance, minimum_payment, status, paid_amount, paid_date"
)

func scanCardSettings(s scanner) (core.CreditCardSettings, error) {
	var (
		cs                core.CreditCardSettings
		limit             string
		minPct            string
		settlementAccount sql.NullInt64
	)
	if err := s.Scan(&cs.ID, &cs.AccountID, &limit, &cs.StatementDay, &cs.PaymentDueDay,
		&minPct, &cs.AutoSettlementEnabled, &settlementAccount); err != nil {
		return core.CreditCardSettings{}, err
	}
	cs.SettlementAccountID = decodeInt64Ptr(settlementAccount)
	var err error
	if cs.CreditLimit, err = decodeDecimal(limit); err != nil {
		return core.CreditCardSettings{}, err
	}
	if cs.MinimumPaymentPercentage, err = decodeDecimal(minPct); err != nil {
		return core.CreditCardSettings{}, err
	}
	return cs, nil
}

func scanStatement(s scanner) (core.CreditCardStatement, error) {
	var (
		st            core.CreditCardStatement
		statementDate string
		dueDate       string
		cycleStart    string
		cycleEnd      string
		opening       string
		charges       string
		payments      string
		closing       string
		minimum       string
		status        string
		paidAmount    string
		paidDate      sql.NullString
	)
	if err := s.Scan(&st.ID, &st.SettingsID, &statementDate, &dueDate, &cycleStart, &cycleEnd,
		&opening, &charges, &payments, &closing, &minimum, &status, &paidAmount, &paidDate); err != nil {
		return core.CreditCardStatement{}, err
	}
	st.Status = core.StatementStatus(status)
	var err error
	if st.StatementDate, err = decodeDate(statementDate); err != nil {
		return core.CreditCardStatement{}, err
	}
	if st.DueDate, err = decodeDate(dueDate); err != nil {
		return core.CreditCardStatement{}, err
	}
	if st.CycleStartDate, err = decodeDate(cycleStart); err != nil {
		return core.CreditCardStatement{}, err
	}
	if st.CycleEndDate, err = decodeDate(cycleEnd); err != nil {
		return core.CreditCardStatement{}, err
	}
	if st.OpeningBalance, err = decodeDecimal(opening); err != nil {
		return core.CreditCardStatement{}, err
	}
	if st.TotalCharges, err = decodeDecimal(charges); err != nil {
		return core.CreditCardStatement{}, err
	}
	if st.TotalPayments, err = decodeDecimal(payments); err != nil {
		return core.CreditCardStatement{}, err
	}
	if st.ClosingBalance, err = decodeDecimal(closing); err != nil {
		return core.CreditCardStatement{}, err
	}
	if st.MinimumPayment, err = decodeDecimal(minimum); err != nil {
		return core.CreditCardStatement{}, err
	}
	if st.PaidAmount, err = decodeDecimal(paidAmount); err != nil {
		return core.CreditCardStatement{}, err
	}
	if st.PaidDate, err = decodeDatePtr(paidDate); err != nil {
		return core.CreditCardStatement{}, err
	}
	return st, nil
}

func (r *SQLiteRepository) CreateCardSettings(ctx context.Context, cs core.CreditCardSettings) (core.CreditCardSettings, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO credit_card_settings (account_id, credit_limit, statement_day, payment_due_day, minimum_payment_percentage, auto_settlement_enabled, settlement_account_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		cs.AccountID, encodeDecimal(cs.CreditLimit), cs.StatementDay, cs.PaymentDueDay,
		encodeDecimal(cs.MinimumPaymentPercentage), cs.AutoSettlementEnabled, encodeInt64Ptr(cs.SettlementAccountID))
	if err != nil {
		return core.CreditCardSettings{}, conflictOnConstraint(err, "account %d already has card settings", cs.AccountID)
	}
	if cs.ID, err = res.LastInsertId(); err != nil {
		return core.CreditCardSettings{}, fmt.Errorf("card settings id: %w", err)
	}
	return cs, nil
}

func (r *SQLiteRepository) GetCardSettings(ctx context.Context, id int64) (core.CreditCardSettings, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+cardSettingsColumns+" FROM credit_card_settings WHERE id = ?", id)
	cs, err := scanCardSettings(row)
	if err != nil {
		return core.CreditCardSettings{}, notFound(err, "card settings %d not found", id)
	}
	return cs, nil
}

func (r *SQLiteRepository) GetCardSettingsByAccount(ctx context.Context, accountID int64) (core.CreditCardSettings, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+cardSettingsColumns+" FROM credit_card_settings WHERE account_id = ?", accountID)
	cs, err := scanCardSettings(row)
	if err != nil {
		return core.CreditCardSettings{}, notFound(err, "account %d has no card settings", accountID)
	}
	return cs, nil
}

func (r *SQLiteRepository) ListCardSettings(ctx context.Context) ([]core.CreditCardSettings, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+cardSettingsColumns+" FROM credit_card_settings ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list card settings: %w", err)
	}
	defer rows.Close()

	var settings []core.CreditCardSettings
	for rows.Next() {
		cs, err := scanCardSettings(rows)
		if err != nil {
			return nil, err
		}
		settings = append(settings, cs)
	}
	return settings, rows.Err()
}

func (r *SQLiteRepository) UpdateCardSettings(ctx context.Context, cs core.CreditCardSettings) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE credit_card_settings SET account_id = ?, credit_limit = ?, statement_day = ?, payment_due_day = ?, minimum_payment_percentage = ?, auto_settlement_enabled = ?, settlement_account_id = ?
		 WHERE id = ?`,
		cs.AccountID, encodeDecimal(cs.CreditLimit), cs.StatementDay, cs.PaymentDueDay,
		encodeDecimal(cs.MinimumPaymentPercentage), cs.AutoSettlementEnabled,
		encodeInt64Ptr(cs.SettlementAccountID), cs.ID)
	if err != nil {
		return fmt.Errorf("update card settings: %w", err)
	}
	return requireRow(res, "card settings %d not found", cs.ID)
}

// DeleteCardSettings removes the settings; statements go with them through
// the cascade.
func (r *SQLiteRepository) DeleteCardSettings(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM credit_card_settings WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete card settings: %w", err)
	}
	return requireRow(res, "card settings %d not found", id)
}

func (r *SQLiteRepository) CreateStatement(ctx context.Context, st core.CreditCardStatement) (core.CreditCardStatement, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO credit_card_statements (settings_id, statement_date, due_date, cycle_start_date, cycle_end_date, opening_balance, total_charges, total_payments, closing_balance, minimum_payment, status, paid_amount, paid_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.SettingsID, encodeDate(st.StatementDate), encodeDate(st.DueDate),
		encodeDate(st.CycleStartDate), encodeDate(st.CycleEndDate),
		encodeDecimal(st.OpeningBalance), encodeDecimal(st.TotalCharges),
		encodeDecimal(st.TotalPayments), encodeDecimal(st.ClosingBalance),
		encodeDecimal(st.MinimumPayment), string(st.Status),
		encodeDecimal(st.PaidAmount), encodeDatePtr(st.PaidDate))
	if err != nil {
		return core.CreditCardStatement{}, conflictOnConstraint(err, "statement for cycle ending %s already exists", st.CycleEndDate)
	}
	if st.ID, err = res.LastInsertId(); err != nil {
		return core.CreditCardStatement{}, fmt.Errorf("statement id: %w", err)
	}
	return st, nil
}

func (r *SQLiteRepository) GetStatement(ctx context.Context, id int64) (core.CreditCardStatement, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+statementColumns+" FROM credit_card_statements WHERE id = ?", id)
	st, err := scanStatement(row)
	if err != nil {
		return core.CreditCardStatement{}, notFound(err, "statement %d not found", id)
	}
	return st, nil
}

func (r *SQLiteRepository) ListStatements(ctx context.Context, settingsID int64) ([]core.CreditCardStatement, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+statementColumns+" FROM credit_card_statements WHERE settings_id = ? ORDER BY cycle_end_date",
		settingsID)
	if err != nil {
		return nil, fmt.Errorf("list statements: %w", err)
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

func (r *SQLiteRepository) FindStatementForCycle(ctx context.Context, settingsID int64, cycleEnd core.Date) (core.CreditCardStatement, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+statementColumns+" FROM credit_card_statements WHERE settings_id = ? AND cycle_end_date = ?",
		settingsID, encodeDate(cycleEnd))
	st, err := scanStatement(row)
	if err != nil {
		return core.CreditCardStatement{}, notFound(err, "no statement for cycle ending %s", cycleEnd)
	}
	return st, nil
}

func (r *SQLiteRepository) UpdateStatement(ctx context.Context, st core.CreditCardStatement) error {
	return updateStatement(ctx, r.db, st)
}

func updateStatement(ctx context.Context, ex interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
}, st core.CreditCardStatement) error {
	res, err := ex.ExecContext(ctx,
		`UPDATE credit_card_statements SET status = ?, paid_amount = ?, paid_date = ? WHERE id = ?`,
		string(st.Status), encodeDecimal(st.PaidAmount), encodeDatePtr(st.PaidDate), st.ID)
	if err != nil {
		return fmt.Errorf("update statement: %w", err)
	}
	return requireRow(res, "statement %d not found", st.ID)
}

// SettleStatements writes the payment transaction and every funded statement
// in a single database transaction.
func (r *SQLiteRepository) SettleStatements(ctx context.Context, statements []core.CreditCardStatement, t core.Transaction) (core.Transaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("begin settle statements: %w", err)
	}
	defer tx.Rollback()

	if t, err = insertTransaction(ctx, tx, t); err != nil {
		return core.Transaction{}, err
	}
	for _, st := range statements {
		if err := updateStatement(ctx, tx, st); err != nil {
			return core.Transaction{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return core.Transaction{}, fmt.Errorf("commit settle statements: %w", err)
	}
	return t, nil
}
