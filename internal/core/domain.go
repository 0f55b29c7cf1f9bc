package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	AccountAsset     AccountKind = "ASSET"
	AccountLiability AccountKind = "LIABILITY"
)

const (
	Income   TransactionType = "INCOME"
	Expense  TransactionType = "EXPENSE"
	Transfer TransactionType = "TRANSFER"
)

const (
	CategoryIncome  CategoryType = "INCOME"
	CategoryExpense CategoryType = "EXPENSE"
)

type (
	AccountKind     string
	TransactionType string
	CategoryType    string

	// Account is never mutated by ledger activity; its current balance is
	// always derived as initial balance plus the fold of transaction effects.
	Account struct {
		ID             int64           `json:"id"`
		Name           string          `json:"name"`
		Kind           AccountKind     `json:"kind"`
		Currency       string          `json:"currency"`
		InitialBalance decimal.Decimal `json:"initial_balance"`
		CreatedAt      Date            `json:"created_at"`
	}

	// Category supports one level of nesting: a category either has no
	// parent or its parent is a root category.
	Category struct {
		ID       int64        `json:"id"`
		ParentID *int64       `json:"parent_id,omitempty"`
		Name     string       `json:"name"`
		Type     CategoryType `json:"type"`
	}

	// Transaction is one entry in the append-only ledger. Amount is always
	// positive; the type decides the sign of the effect on each account.
	Transaction struct {
		ID          int64           `json:"id"`
		Date        Date            `json:"date"`
		Type        TransactionType `json:"type"`
		Amount      decimal.Decimal `json:"amount"`
		AccountID   int64           `json:"account_id"`
		ToAccountID *int64          `json:"to_account_id,omitempty"`
		CategoryID  *int64          `json:"category_id,omitempty"`
		Memo        string          `json:"memo,omitempty"`
		PhotoRef    string          `json:"photo_ref,omitempty"`
	}
)

func (k AccountKind) Valid() bool {
	return k == AccountAsset || k == AccountLiability
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense || t == Transfer
}

func (t CategoryType) Valid() bool {
	return t == CategoryIncome || t == CategoryExpense
}

// Matches reports whether a category of type c may be attached to a
// transaction of type t.
func (c CategoryType) Matches(t TransactionType) bool {
	switch t {
	case Income:
		return c == CategoryIncome
	case Expense:
		return c == CategoryExpense
	default:
		return false
	}
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return Validationf("account name cannot be empty")
	}
	if !a.Kind.Valid() {
		return Validationf("invalid account kind %q", a.Kind)
	}
	if a.Currency == "" {
		return Validationf("account currency cannot be empty")
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return Validationf("category name cannot be empty")
	}
	if !c.Type.Valid() {
		return Validationf("invalid category type %q", c.Type)
	}
	return nil
}

// Validate checks the transaction's internal consistency. Referential checks
// (account and category existence, category type match) happen in the
// service against the store.
func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return Validationf("invalid transaction type %q", t.Type)
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if t.Date.IsZero() {
		return Validationf("transaction date cannot be empty")
	}
	if t.AccountID == 0 {
		return Validationf("transaction requires an account")
	}
	switch t.Type {
	case Transfer:
		if t.ToAccountID == nil {
			return Validationf("transfer requires a destination account")
		}
		if *t.ToAccountID == t.AccountID {
			return Validationf("cannot transfer to the same account")
		}
		if t.CategoryID != nil {
			return Validationf("transfer cannot carry a category")
		}
	default:
		if t.ToAccountID != nil {
			return Validationf("%s cannot carry a destination account", t.Type)
		}
		if t.CategoryID == nil {
			return Validationf("%s requires a category", t.Type)
		}
	}
	return nil
}

// EffectOn returns the signed contribution of the transaction to the given
// account's balance: +amount for INCOME and incoming transfers, -amount for
// EXPENSE and outgoing transfers, zero for untouched accounts.
func (t Transaction) EffectOn(accountID int64) decimal.Decimal {
	switch {
	case t.Type == Income && t.AccountID == accountID:
		return t.Amount
	case t.Type == Expense && t.AccountID == accountID:
		return t.Amount.Neg()
	case t.Type == Transfer && t.AccountID == accountID:
		return t.Amount.Neg()
	case t.Type == Transfer && t.ToAccountID != nil && *t.ToAccountID == accountID:
		return t.Amount
	default:
		return decimal.Zero
	}
}

// Touches reports whether the transaction has any effect on the account.
func (t Transaction) Touches(accountID int64) bool {
	return t.AccountID == accountID || (t.ToAccountID != nil && *t.ToAccountID == accountID)
}
