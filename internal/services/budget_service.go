package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/Rajamiththiran/money-manager-sub000/internal/core"
)

// BudgetService manages spending caps on expense categories. A budget on a
// parent category counts its child categories' spending too.
type BudgetService struct {
	store  BudgetStore
	ledger LedgerStore
}

func NewBudgetService(store BudgetStore, ledger LedgerStore) *BudgetService {
	return &BudgetService{
		store:  store,
		ledger: ledger,
	}
}

// Create validates and persists a budget. A category carries at most one
// active budget per period length.
func (s *BudgetService) Create(ctx context.Context, b core.Budget) (core.Budget, error) {
	b.IsActive = true
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if err := s.validateCategory(ctx, b.CategoryID); err != nil {
		return core.Budget{}, err
	}

	existing, err := s.store.ListBudgets(ctx, true)
	if err != nil {
		return core.Budget{}, fmt.Errorf("list budgets: %w", err)
	}
	for _, other := range existing {
		if other.CategoryID == b.CategoryID && other.Period == b.Period {
			return core.Budget{}, core.Conflictf("category %d already has an active %s budget", b.CategoryID, b.Period)
		}
	}

	created, err := s.store.CreateBudget(ctx, b)
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget created",
		"id", created.ID,
		"category_id", created.CategoryID,
		"amount", created.Amount,
		"period", created.Period)
	return created, nil
}

func (s *BudgetService) Get(ctx context.Context, id int64) (core.Budget, error) {
	return s.store.GetBudget(ctx, id)
}

func (s *BudgetService) List(ctx context.Context, onlyActive bool) ([]core.Budget, error) {
	return s.store.ListBudgets(ctx, onlyActive)
}

func (s *BudgetService) Update(ctx context.Context, b core.Budget) error {
	existing, err := s.store.GetBudget(ctx, b.ID)
	if err != nil {
		return err
	}
	// The category binding is fixed at creation.
	b.CategoryID = existing.CategoryID
	if err := b.Validate(); err != nil {
		return err
	}
	return s.store.UpdateBudget(ctx, b)
}

func (s *BudgetService) Delete(ctx context.Context, id int64) error {
	if _, err := s.store.GetBudget(ctx, id); err != nil {
		return err
	}
	return s.store.DeleteBudget(ctx, id)
}

// Statuses evaluates every active budget against the spending in its period
// containing ref.
func (s *BudgetService) Statuses(ctx context.Context, ref core.Date) ([]core.BudgetStatus, error) {
	budgets, err := s.store.ListBudgets(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	categories, err := s.ledger.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	statuses := make([]core.BudgetStatus, len(budgets))
	for i, b := range budgets {
		spent, err := s.spentInPeriod(ctx, b, ref, categories)
		if err != nil {
			return nil, err
		}
		statuses[i] = b.StatusFor(ref, spent)
	}
	return statuses, nil
}

// Status evaluates one budget against the spending in its period containing
// ref.
func (s *BudgetService) Status(ctx context.Context, id int64, ref core.Date) (core.BudgetStatus, error) {
	b, err := s.store.GetBudget(ctx, id)
	if err != nil {
		return core.BudgetStatus{}, err
	}
	categories, err := s.ledger.ListCategories(ctx)
	if err != nil {
		return core.BudgetStatus{}, fmt.Errorf("list categories: %w", err)
	}
	spent, err := s.spentInPeriod(ctx, b, ref, categories)
	if err != nil {
		return core.BudgetStatus{}, err
	}
	return b.StatusFor(ref, spent), nil
}

func (s *BudgetService) spentInPeriod(ctx context.Context, b core.Budget, ref core.Date, categories []core.Category) (decimal.Decimal, error) {
	tracked := map[int64]bool{b.CategoryID: true}
	for _, c := range categories {
		if c.ParentID != nil && *c.ParentID == b.CategoryID {
			tracked[c.ID] = true
		}
	}

	from, to := b.PeriodContaining(ref)
	expenseType := core.Expense
	txs, err := s.ledger.ListTransactions(ctx, TransactionFilter{From: &from, To: &to, Type: &expenseType})
	if err != nil {
		return decimal.Zero, fmt.Errorf("list period expenses: %w", err)
	}

	spent := decimal.Zero
	for _, t := range txs {
		if t.CategoryID != nil && tracked[*t.CategoryID] {
			spent = spent.Add(t.Amount)
		}
	}
	return spent, nil
}

func (s *BudgetService) validateCategory(ctx context.Context, id int64) error {
	cat, err := s.ledger.GetCategory(ctx, id)
	if err != nil {
		if core.KindOf(err) == core.KindNotFound {
			return core.Validationf("category %d not found", id)
		}
		return err
	}
	if cat.Type != core.CategoryExpense {
		return core.Validationf("budgets apply to %s categories only", core.CategoryExpense)
	}
	return nil
}
