package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Rajamiththiran/money-manager-sub000/internal/amqp"
	"github.com/Rajamiththiran/money-manager-sub000/internal/core"
)

// LedgerService orchestrates accounts, categories and the append-only
// transaction ledger. Balances are never stored; every read derives them
// from the initial balance plus the fold of transaction effects.
type LedgerService struct {
	store      LedgerStore
	amqpClient *amqp.Client
}

func NewLedgerService(store LedgerStore, amqpClient *amqp.Client) *LedgerService {
	return &LedgerService{
		store:      store,
		amqpClient: amqpClient,
	}
}

type (
	// AccountBalance is an account joined with its derived balance.
	AccountBalance struct {
		Account core.Account    `json:"account"`
		Balance decimal.Decimal `json:"balance"`
	}

	// NetWorth aggregates all account balances as of a date. Liabilities
	// is reported as positive debt.
	NetWorth struct {
		AsOf        core.Date       `json:"as_of"`
		Assets      decimal.Decimal `json:"assets"`
		Liabilities decimal.Decimal `json:"liabilities"`
		NetWorth    decimal.Decimal `json:"net_worth"`
	}

	// PeriodSummary totals income and expenses over a date range.
	// Transfers move money between accounts and count as neither.
	PeriodSummary struct {
		From    core.Date       `json:"from"`
		To      core.Date       `json:"to"`
		Income  decimal.Decimal `json:"income"`
		Expense decimal.Decimal `json:"expense"`
		Net     decimal.Decimal `json:"net"`
	}

	// CategorySpending is the expense total of one category over a range,
	// with its share of the range's total expenses.
	CategorySpending struct {
		Category   core.Category   `json:"category"`
		Amount     decimal.Decimal `json:"amount"`
		Percentage decimal.Decimal `json:"percentage"`
	}

	// DailySummary is the income and expense total of a single day.
	DailySummary struct {
		Date    core.Date       `json:"date"`
		Income  decimal.Decimal `json:"income"`
		Expense decimal.Decimal `json:"expense"`
	}
)

// CreateAccount validates and persists a new account.
func (s *LedgerService) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = core.Today()
	}

	created, err := s.store.CreateAccount(ctx, a)
	if err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}

	slog.InfoContext(ctx, "Account created", "id", created.ID, "name", created.Name, "kind", created.Kind)
	return created, nil
}

func (s *LedgerService) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	return s.store.GetAccount(ctx, id)
}

func (s *LedgerService) ListAccounts(ctx context.Context) ([]core.Account, error) {
	return s.store.ListAccounts(ctx)
}

// UpdateAccount replaces an account's mutable fields. The account kind and
// initial balance stay editable; balances are derived so no stored value
// goes stale.
func (s *LedgerService) UpdateAccount(ctx context.Context, a core.Account) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if _, err := s.store.GetAccount(ctx, a.ID); err != nil {
		return err
	}
	return s.store.UpdateAccount(ctx, a)
}

// DeleteAccount removes an account that has no ledger activity.
func (s *LedgerService) DeleteAccount(ctx context.Context, id int64) error {
	if _, err := s.store.GetAccount(ctx, id); err != nil {
		return err
	}
	txs, err := s.store.ListTransactions(ctx, TransactionFilter{AccountID: &id, Limit: 1})
	if err != nil {
		return fmt.Errorf("check account activity: %w", err)
	}
	if len(txs) > 0 {
		return core.Conflictf("account %d has transactions and cannot be deleted", id)
	}
	return s.store.DeleteAccount(ctx, id)
}

// CreateCategory validates and persists a category. Nesting is limited to
// one level and a child must share its parent's type.
func (s *LedgerService) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if err := s.validateParent(ctx, c); err != nil {
		return core.Category{}, err
	}

	created, err := s.store.CreateCategory(ctx, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	return created, nil
}

func (s *LedgerService) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	return s.store.GetCategory(ctx, id)
}

func (s *LedgerService) ListCategories(ctx context.Context) ([]core.Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *LedgerService) UpdateCategory(ctx context.Context, c core.Category) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if _, err := s.store.GetCategory(ctx, c.ID); err != nil {
		return err
	}
	if c.ParentID != nil && *c.ParentID == c.ID {
		return core.Validationf("category cannot be its own parent")
	}
	if err := s.validateParent(ctx, c); err != nil {
		return err
	}
	return s.store.UpdateCategory(ctx, c)
}

// DeleteCategory removes a category. The store rejects the delete when
// transactions, recurring definitions, plans or budgets still reference it.
func (s *LedgerService) DeleteCategory(ctx context.Context, id int64) error {
	if _, err := s.store.GetCategory(ctx, id); err != nil {
		return err
	}
	return s.store.DeleteCategory(ctx, id)
}

func (s *LedgerService) validateParent(ctx context.Context, c core.Category) error {
	if c.ParentID == nil {
		return nil
	}
	parent, err := s.store.GetCategory(ctx, *c.ParentID)
	if err != nil {
		if core.KindOf(err) == core.KindNotFound {
			return core.Validationf("parent category %d not found", *c.ParentID)
		}
		return err
	}
	if parent.ParentID != nil {
		return core.Validationf("categories nest at most one level deep")
	}
	if parent.Type != c.Type {
		return core.Validationf("child category type must match parent type %s", parent.Type)
	}
	return nil
}

// CreateTransaction validates a transaction against the referenced account
// and category, appends it to the ledger and publishes an event.
func (s *LedgerService) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.validateReferences(ctx, t); err != nil {
		return core.Transaction{}, err
	}

	created, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction created",
		"id", created.ID,
		"type", created.Type,
		"amount", created.Amount,
		"account_id", created.AccountID)

	if err := s.amqpClient.PublishTransactionCreated(ctx, created.ID, created.AccountID, string(created.Type), "api"); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event", "id", created.ID, "error", err)
		// The write succeeded; event delivery is best effort.
	}

	return created, nil
}

func (s *LedgerService) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, id)
}

func (s *LedgerService) ListTransactions(ctx context.Context, f TransactionFilter) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx, f)
}

// UpdateTransaction edits a transaction's date, amount, category and memo.
// The type and the accounts are fixed at creation; repointing money is a
// delete plus a new entry.
func (s *LedgerService) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	existing, err := s.store.GetTransaction(ctx, t.ID)
	if err != nil {
		return err
	}
	t.Type = existing.Type
	t.AccountID = existing.AccountID
	t.ToAccountID = existing.ToAccountID

	if err := t.Validate(); err != nil {
		return err
	}
	if err := s.validateReferences(ctx, t); err != nil {
		return err
	}
	return s.store.UpdateTransaction(ctx, t)
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, id int64) error {
	if _, err := s.store.GetTransaction(ctx, id); err != nil {
		return err
	}
	return s.store.DeleteTransaction(ctx, id)
}

func (s *LedgerService) validateReferences(ctx context.Context, t core.Transaction) error {
	return validateTransactionReferences(ctx, s.store, t)
}

// validateTransactionReferences checks that the accounts and category a
// transaction points at exist and that the category type matches the
// transaction type. Shared by every engine that writes to the ledger.
func validateTransactionReferences(ctx context.Context, store LedgerStore, t core.Transaction) error {
	if _, err := store.GetAccount(ctx, t.AccountID); err != nil {
		if core.KindOf(err) == core.KindNotFound {
			return core.Validationf("account %d not found", t.AccountID)
		}
		return err
	}
	if t.ToAccountID != nil {
		if _, err := store.GetAccount(ctx, *t.ToAccountID); err != nil {
			if core.KindOf(err) == core.KindNotFound {
				return core.Validationf("destination account %d not found", *t.ToAccountID)
			}
			return err
		}
	}
	if t.CategoryID != nil {
		cat, err := store.GetCategory(ctx, *t.CategoryID)
		if err != nil {
			if core.KindOf(err) == core.KindNotFound {
				return core.Validationf("category %d not found", *t.CategoryID)
			}
			return err
		}
		if !cat.Type.Matches(t.Type) {
			return core.Validationf("category %q is a %s category and cannot be used on a %s transaction", cat.Name, cat.Type, t.Type)
		}
	}
	return nil
}

// AccountBalance derives an account's balance as of a date (today when nil).
func (s *LedgerService) AccountBalance(ctx context.Context, id int64, asOf *core.Date) (AccountBalance, error) {
	account, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return AccountBalance{}, err
	}
	balance, err := s.balanceOf(ctx, account, asOf)
	if err != nil {
		return AccountBalance{}, err
	}
	return AccountBalance{Account: account, Balance: balance}, nil
}

// ListAccountBalances derives every account's balance as of a date.
func (s *LedgerService) ListAccountBalances(ctx context.Context, asOf *core.Date) ([]AccountBalance, error) {
	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	balances := make([]AccountBalance, len(accounts))
	for i, a := range accounts {
		balance, err := s.balanceOf(ctx, a, asOf)
		if err != nil {
			return nil, err
		}
		balances[i] = AccountBalance{Account: a, Balance: balance}
	}
	return balances, nil
}

// ComputeNetWorth sums all account balances as of a date. A liability
// account's negative balance is reported as positive debt.
func (s *LedgerService) ComputeNetWorth(ctx context.Context, asOf *core.Date) (NetWorth, error) {
	ref := core.Today()
	if asOf != nil {
		ref = *asOf
	}

	balances, err := s.ListAccountBalances(ctx, &ref)
	if err != nil {
		return NetWorth{}, err
	}

	assets, liabilities := decimal.Zero, decimal.Zero
	for _, ab := range balances {
		switch ab.Account.Kind {
		case core.AccountAsset:
			assets = assets.Add(ab.Balance)
		case core.AccountLiability:
			liabilities = liabilities.Add(ab.Balance.Neg())
		}
	}
	return NetWorth{
		AsOf:        ref,
		Assets:      assets,
		Liabilities: liabilities,
		NetWorth:    assets.Sub(liabilities),
	}, nil
}

// Summarize totals income and expenses over [from, to].
func (s *LedgerService) Summarize(ctx context.Context, from, to core.Date) (PeriodSummary, error) {
	if to.Before(from) {
		return PeriodSummary{}, core.Validationf("summary range end %s is before start %s", to, from)
	}
	txs, err := s.store.ListTransactions(ctx, TransactionFilter{From: &from, To: &to})
	if err != nil {
		return PeriodSummary{}, fmt.Errorf("list transactions: %w", err)
	}

	income, expense := decimal.Zero, decimal.Zero
	for _, t := range txs {
		switch t.Type {
		case core.Income:
			income = income.Add(t.Amount)
		case core.Expense:
			expense = expense.Add(t.Amount)
		}
	}
	return PeriodSummary{
		From:    from,
		To:      to,
		Income:  income,
		Expense: expense,
		Net:     income.Sub(expense),
	}, nil
}

// SpendingByCategory breaks down expenses over [from, to] per category,
// sorted by amount descending.
func (s *LedgerService) SpendingByCategory(ctx context.Context, from, to core.Date) ([]CategorySpending, error) {
	expenseType := core.Expense
	txs, err := s.store.ListTransactions(ctx, TransactionFilter{From: &from, To: &to, Type: &expenseType})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	totals := make(map[int64]decimal.Decimal)
	grandTotal := decimal.Zero
	for _, t := range txs {
		if t.CategoryID == nil {
			continue
		}
		totals[*t.CategoryID] = totals[*t.CategoryID].Add(t.Amount)
		grandTotal = grandTotal.Add(t.Amount)
	}

	spending := make([]CategorySpending, 0, len(totals))
	for id, amount := range totals {
		cat, err := s.store.GetCategory(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("resolve category %d: %w", id, err)
		}
		spending = append(spending, CategorySpending{
			Category:   cat,
			Amount:     amount,
			Percentage: core.Percentage(amount, grandTotal),
		})
	}
	sort.Slice(spending, func(i, j int) bool {
		return spending[i].Amount.GreaterThan(spending[j].Amount)
	})
	return spending, nil
}

// DailySummaries totals income and expenses per day over [from, to]. Days
// without activity are omitted.
func (s *LedgerService) DailySummaries(ctx context.Context, from, to core.Date) ([]DailySummary, error) {
	txs, err := s.store.ListTransactions(ctx, TransactionFilter{From: &from, To: &to})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	byDay := make(map[string]*DailySummary)
	for _, t := range txs {
		key := t.Date.String()
		day, ok := byDay[key]
		if !ok {
			day = &DailySummary{Date: t.Date}
			byDay[key] = day
		}
		switch t.Type {
		case core.Income:
			day.Income = day.Income.Add(t.Amount)
		case core.Expense:
			day.Expense = day.Expense.Add(t.Amount)
		}
	}

	days := make([]DailySummary, 0, len(byDay))
	for _, d := range byDay {
		days = append(days, *d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
	return days, nil
}

func (s *LedgerService) balanceOf(ctx context.Context, a core.Account, asOf *core.Date) (decimal.Decimal, error) {
	f := TransactionFilter{AccountID: &a.ID, To: asOf}
	txs, err := s.store.ListTransactions(ctx, f)
	if err != nil {
		return decimal.Zero, fmt.Errorf("list transactions for account %d: %w", a.ID, err)
	}
	balance := a.InitialBalance
	for _, t := range txs {
		balance = balance.Add(t.EffectOn(a.ID))
	}
	return balance, nil
}
