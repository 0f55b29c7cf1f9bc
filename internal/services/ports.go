// Package services orchestrates the engines over storage and the event
// publisher: ledger writes, recurring execution, installment payments,
// credit card billing, budgets and backup.
package services

import (
	"context"

	"github.com/Rajamiththiran/money-manager-sub000/internal/core"
)

// TransactionFilter narrows a transaction listing. AccountID matches
// transactions touching the account on either side of a transfer.
type TransactionFilter struct {
	AccountID  *int64
	CategoryID *int64
	Type       *core.TransactionType
	From       *core.Date
	To         *core.Date
	Limit      int
	Offset     int
}

// LedgerStore is the persistence port of the ledger service.
type LedgerStore interface {
	CreateAccount(ctx context.Context, a core.Account) (core.Account, error)
	GetAccount(ctx context.Context, id int64) (core.Account, error)
	ListAccounts(ctx context.Context) ([]core.Account, error)
	UpdateAccount(ctx context.Context, a core.Account) error
	DeleteAccount(ctx context.Context, id int64) error

	CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
	GetCategory(ctx context.Context, id int64) (core.Category, error)
	ListCategories(ctx context.Context) ([]core.Category, error)
	UpdateCategory(ctx context.Context, c core.Category) error
	DeleteCategory(ctx context.Context, id int64) error

	CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	ListTransactions(ctx context.Context, f TransactionFilter) ([]core.Transaction, error)
	UpdateTransaction(ctx context.Context, t core.Transaction) error
	DeleteTransaction(ctx context.Context, id int64) error
}

// RecurringStore is the persistence port of the recurring service.
// ExecuteRecurring writes the materialized transaction and the advanced
// definition in one unit; partial execution never reaches the store.
type RecurringStore interface {
	CreateRecurring(ctx context.Context, r core.RecurringTransaction) (core.RecurringTransaction, error)
	GetRecurring(ctx context.Context, id int64) (core.RecurringTransaction, error)
	ListRecurring(ctx context.Context, onlyActive bool) ([]core.RecurringTransaction, error)
	ListDueRecurring(ctx context.Context, asOf core.Date) ([]core.RecurringTransaction, error)
	UpdateRecurring(ctx context.Context, r core.RecurringTransaction) error
	DeleteRecurring(ctx context.Context, id int64) error
	ExecuteRecurring(ctx context.Context, r core.RecurringTransaction, t core.Transaction) (core.Transaction, error)
}

// InstallmentStore is the persistence port of the installment service.
// CreatePlan persists the plan together with its precomputed schedule;
// RecordPayment persists the updated plan, the paid schedule row and the
// ledger transaction in one unit.
type InstallmentStore interface {
	CreatePlan(ctx context.Context, p core.InstallmentPlan, schedule []core.InstallmentPayment) (core.InstallmentPlan, error)
	GetPlan(ctx context.Context, id int64) (core.InstallmentPlan, error)
	ListPlans(ctx context.Context, status *core.PlanStatus) ([]core.InstallmentPlan, error)
	UpdatePlan(ctx context.Context, p core.InstallmentPlan) error
	DeletePlan(ctx context.Context, id int64) error
	ListPayments(ctx context.Context, planID int64) ([]core.InstallmentPayment, error)
	ListPaymentsDue(ctx context.Context, from, to core.Date) ([]core.InstallmentPayment, error)
	RecordPayment(ctx context.Context, p core.InstallmentPlan, payment core.InstallmentPayment, t core.Transaction) (core.Transaction, error)
}

// CreditCardStore is the persistence port of the credit card service.
// SettleStatements persists the payment transaction and the statement
// updates it funds in one unit.
type CreditCardStore interface {
	CreateCardSettings(ctx context.Context, s core.CreditCardSettings) (core.CreditCardSettings, error)
	GetCardSettings(ctx context.Context, id int64) (core.CreditCardSettings, error)
	GetCardSettingsByAccount(ctx context.Context, accountID int64) (core.CreditCardSettings, error)
	ListCardSettings(ctx context.Context) ([]core.CreditCardSettings, error)
	UpdateCardSettings(ctx context.Context, s core.CreditCardSettings) error
	DeleteCardSettings(ctx context.Context, id int64) error

	CreateStatement(ctx context.Context, st core.CreditCardStatement) (core.CreditCardStatement, error)
	GetStatement(ctx context.Context, id int64) (core.CreditCardStatement, error)
	ListStatements(ctx context.Context, settingsID int64) ([]core.CreditCardStatement, error)
	FindStatementForCycle(ctx context.Context, settingsID int64, cycleEnd core.Date) (core.CreditCardStatement, error)
	UpdateStatement(ctx context.Context, st core.CreditCardStatement) error
	SettleStatements(ctx context.Context, statements []core.CreditCardStatement, t core.Transaction) (core.Transaction, error)
}

// BudgetStore is the persistence port of the budget service.
type BudgetStore interface {
	CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
	GetBudget(ctx context.Context, id int64) (core.Budget, error)
	ListBudgets(ctx context.Context, onlyActive bool) ([]core.Budget, error)
	UpdateBudget(ctx context.Context, b core.Budget) error
	DeleteBudget(ctx context.Context, id int64) error
}

// BackupStore is the persistence port of the backup service.
type BackupStore interface {
	Snapshot(ctx context.Context) (core.Snapshot, error)
	Restore(ctx context.Context, snap core.Snapshot) error
	Clear(ctx context.Context) error
}

// Store is the full persistence surface; both the SQLite repository and the
// in-memory backend satisfy it.
type Store interface {
	LedgerStore
	RecurringStore
	InstallmentStore
	CreditCardStore
	BudgetStore
	BackupStore
}
