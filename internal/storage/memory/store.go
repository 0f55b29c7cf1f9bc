// Package memory is an in-memory implementation of the full persistence
// surface. It backs tests and the memory data backend; nothing survives a
// restart.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Rajamiththiran/money-manager-sub000/internal/core"
	"github.com/Rajamiththiran/money-manager-sub000/internal/services"
)

// Store keeps all engine state in maps behind one mutex. IDs are assigned
// from a single sequence so they stay unique across entity kinds within a
// run, which keeps test failures readable.
type Store struct {
	mu     sync.Mutex
	nextID int64

	accounts     map[int64]core.Account
	categories   map[int64]core.Category
	transactions map[int64]core.Transaction
	recurring    map[int64]core.RecurringTransaction
	plans        map[int64]core.InstallmentPlan
	payments     map[int64]core.InstallmentPayment
	cardSettings map[int64]core.CreditCardSettings
	statements   map[int64]core.CreditCardStatement
	budgets      map[int64]core.Budget
}

var _ services.Store = (*Store)(nil)

func NewStore() *Store {
	s := &Store{}
	s.reset()
	return s
}

func (s *Store) reset() {
	s.nextID = 0
	s.accounts = make(map[int64]core.Account)
	s.categories = make(map[int64]core.Category)
	s.transactions = make(map[int64]core.Transaction)
	s.recurring = make(map[int64]core.RecurringTransaction)
	s.plans = make(map[int64]core.InstallmentPlan)
	s.payments = make(map[int64]core.InstallmentPayment)
	s.cardSettings = make(map[int64]core.CreditCardSettings)
	s.statements = make(map[int64]core.CreditCardStatement)
	s.budgets = make(map[int64]core.Budget)
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) Close() error { return nil }

// --- accounts ---

func (s *Store) CreateAccount(_ context.Context, a core.Account) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.id()
	s.accounts[a.ID] = a
	return a, nil
}

func (s *Store) GetAccount(_ context.Context, id int64) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return core.Account{}, core.NotFoundf("account %d not found", id)
	}
	return a, nil
}

func (s *Store) ListAccounts(_ context.Context) ([]core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	accounts := make([]core.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		accounts = append(accounts, a)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

func (s *Store) UpdateAccount(_ context.Context, a core.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[a.ID]; !ok {
		return core.NotFoundf("account %d not found", a.ID)
	}
	s.accounts[a.ID] = a
	return nil
}

func (s *Store) DeleteAccount(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[id]; !ok {
		return core.NotFoundf("account %d not found", id)
	}
	for _, t := range s.transactions {
		if t.Touches(id) {
			return core.Conflictf("account %d has transactions and cannot be deleted", id)
		}
	}
	for _, r := range s.recurring {
		if r.AccountID == id || (r.ToAccountID != nil && *r.ToAccountID == id) {
			return core.Conflictf("account %d is used by recurring definition %d", id, r.ID)
		}
	}
	for _, p := range s.plans {
		if p.AccountID == id {
			return core.Conflictf("account %d is used by installment plan %d", id, p.ID)
		}
	}
	for _, cs := range s.cardSettings {
		if cs.AccountID == id || (cs.SettlementAccountID != nil && *cs.SettlementAccountID == id) {
			return core.Conflictf("account %d is used by credit card settings %d", id, cs.ID)
		}
	}
	delete(s.accounts, id)
	return nil
}

// --- categories ---

func (s *Store) CreateCategory(_ context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.id()
	s.categories[c.ID] = c
	return c, nil
}

func (s *Store) GetCategory(_ context.Context, id int64) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return core.Category{}, core.NotFoundf("category %d not found", id)
	}
	return c, nil
}

func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	categories := make([]core.Category, 0, len(s.categories))
	for _, c := range s.categories {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].ID < categories[j].ID })
	return categories, nil
}

func (s *Store) UpdateCategory(_ context.Context, c core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[c.ID]; !ok {
		return core.NotFoundf("category %d not found", c.ID)
	}
	s.categories[c.ID] = c
	return nil
}

func (s *Store) DeleteCategory(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return core.NotFoundf("category %d not found", id)
	}
	for _, c := range s.categories {
		if c.ParentID != nil && *c.ParentID == id {
			return core.Conflictf("category %d has child categories", id)
		}
	}
	for _, t := range s.transactions {
		if t.CategoryID != nil && *t.CategoryID == id {
			return core.Conflictf("category %d is used by transactions", id)
		}
	}
	for _, r := range s.recurring {
		if r.CategoryID != nil && *r.CategoryID == id {
			return core.Conflictf("category %d is used by recurring definition %d", id, r.ID)
		}
	}
	for _, p := range s.plans {
		if p.CategoryID == id {
			return core.Conflictf("category %d is used by installment plan %d", id, p.ID)
		}
	}
	for _, b := range s.budgets {
		if b.CategoryID == id {
			return core.Conflictf("category %d is used by budget %d", id, b.ID)
		}
	}
	delete(s.categories, id)
	return nil
}

// --- transactions ---

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.id()
	s.transactions[t.ID] = t
	return t, nil
}

func (s *Store) GetTransaction(_ context.Context, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok {
		return core.Transaction{}, core.NotFoundf("transaction %d not found", id)
	}
	return t, nil
}

func (s *Store) ListTransactions(_ context.Context, f services.TransactionFilter) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var txs []core.Transaction
	for _, t := range s.transactions {
		if matchesFilter(t, f) {
			txs = append(txs, t)
		}
	}
	sort.Slice(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.Before(txs[j].Date)
		}
		return txs[i].ID < txs[j].ID
	})
	if f.Offset > 0 {
		if f.Offset >= len(txs) {
			return nil, nil
		}
		txs = txs[f.Offset:]
	}
	if f.Limit > 0 && len(txs) > f.Limit {
		txs = txs[:f.Limit]
	}
	return txs, nil
}

func matchesFilter(t core.Transaction, f services.TransactionFilter) bool {
	if f.AccountID != nil && !t.Touches(*f.AccountID) {
		return false
	}
	if f.CategoryID != nil && (t.CategoryID == nil || *t.CategoryID != *f.CategoryID) {
		return false
	}
	if f.Type != nil && t.Type != *f.Type {
		return false
	}
	if f.From != nil && t.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && t.Date.After(*f.To) {
		return false
	}
	return true
}

func (s *Store) UpdateTransaction(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[t.ID]; !ok {
		return core.NotFoundf("transaction %d not found", t.ID)
	}
	s.transactions[t.ID] = t
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[id]; !ok {
		return core.NotFoundf("transaction %d not found", id)
	}
	delete(s.transactions, id)
	return nil
}

// --- recurring ---

func (s *Store) CreateRecurring(_ context.Context, r core.RecurringTransaction) (core.RecurringTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.id()
	s.recurring[r.ID] = r
	return r, nil
}

func (s *Store) GetRecurring(_ context.Context, id int64) (core.RecurringTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recurring[id]
	if !ok {
		return core.RecurringTransaction{}, core.NotFoundf("recurring definition %d not found", id)
	}
	return r, nil
}

func (s *Store) ListRecurring(_ context.Context, onlyActive bool) ([]core.RecurringTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var defs []core.RecurringTransaction
	for _, r := range s.recurring {
		if onlyActive && !r.IsActive {
			continue
		}
		defs = append(defs, r)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	return defs, nil
}

func (s *Store) ListDueRecurring(_ context.Context, asOf core.Date) ([]core.RecurringTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var due []core.RecurringTransaction
	for _, r := range s.recurring {
		if r.IsActive && !r.NextExecutionDate.After(asOf) {
			due = append(due, r)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ID < due[j].ID })
	return due, nil
}

func (s *Store) UpdateRecurring(_ context.Context, r core.RecurringTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recurring[r.ID]; !ok {
		return core.NotFoundf("recurring definition %d not found", r.ID)
	}
	s.recurring[r.ID] = r
	return nil
}

func (s *Store) DeleteRecurring(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recurring[id]; !ok {
		return core.NotFoundf("recurring definition %d not found", id)
	}
	delete(s.recurring, id)
	return nil
}

func (s *Store) ExecuteRecurring(_ context.Context, r core.RecurringTransaction, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recurring[r.ID]; !ok {
		return core.Transaction{}, core.NotFoundf("recurring definition %d not found", r.ID)
	}
	t.ID = s.id()
	s.transactions[t.ID] = t
	s.recurring[r.ID] = r
	return t, nil
}

// --- installments ---

func (s *Store) CreatePlan(_ context.Context, p core.InstallmentPlan, schedule []core.InstallmentPayment) (core.InstallmentPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.id()
	s.plans[p.ID] = p
	for _, payment := range schedule {
		payment.ID = s.id()
		payment.PlanID = p.ID
		s.payments[payment.ID] = payment
	}
	return p, nil
}

func (s *Store) GetPlan(_ context.Context, id int64) (core.InstallmentPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plans[id]
	if !ok {
		return core.InstallmentPlan{}, core.NotFoundf("installment plan %d not found", id)
	}
	return p, nil
}

func (s *Store) ListPlans(_ context.Context, status *core.PlanStatus) ([]core.InstallmentPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var plans []core.InstallmentPlan
	for _, p := range s.plans {
		if status != nil && p.Status != *status {
			continue
		}
		plans = append(plans, p)
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].ID < plans[j].ID })
	return plans, nil
}

func (s *Store) UpdatePlan(_ context.Context, p core.InstallmentPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.plans[p.ID]; !ok {
		return core.NotFoundf("installment plan %d not found", p.ID)
	}
	s.plans[p.ID] = p
	return nil
}

func (s *Store) DeletePlan(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.plans[id]; !ok {
		return core.NotFoundf("installment plan %d not found", id)
	}
	for paymentID, payment := range s.payments {
		if payment.PlanID == id {
			delete(s.payments, paymentID)
		}
	}
	delete(s.plans, id)
	return nil
}

func (s *Store) ListPayments(_ context.Context, planID int64) ([]core.InstallmentPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var schedule []core.InstallmentPayment
	for _, payment := range s.payments {
		if payment.PlanID == planID {
			schedule = append(schedule, payment)
		}
	}
	sort.Slice(schedule, func(i, j int) bool {
		return schedule[i].InstallmentNumber < schedule[j].InstallmentNumber
	})
	return schedule, nil
}

func (s *Store) ListPaymentsDue(_ context.Context, from, to core.Date) ([]core.InstallmentPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var due []core.InstallmentPayment
	for _, payment := range s.payments {
		if payment.PaidDate != nil {
			continue
		}
		if payment.DueDate.Before(from) || payment.DueDate.After(to) {
			continue
		}
		plan, ok := s.plans[payment.PlanID]
		if !ok || plan.Status != core.PlanActive {
			continue
		}
		due = append(due, payment)
	}
	sort.Slice(due, func(i, j int) bool {
		if !due[i].DueDate.Equal(due[j].DueDate) {
			return due[i].DueDate.Before(due[j].DueDate)
		}
		return due[i].ID < due[j].ID
	})
	return due, nil
}

func (s *Store) RecordPayment(_ context.Context, p core.InstallmentPlan, payment core.InstallmentPayment, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.plans[p.ID]; !ok {
		return core.Transaction{}, core.NotFoundf("installment plan %d not found", p.ID)
	}
	if _, ok := s.payments[payment.ID]; !ok {
		return core.Transaction{}, core.NotFoundf("installment payment %d not found", payment.ID)
	}
	t.ID = s.id()
	s.transactions[t.ID] = t
	payment.TransactionID = &t.ID
	s.payments[payment.ID] = payment
	s.plans[p.ID] = p
	return t, nil
}

// --- credit cards ---

func (s *Store) CreateCardSettings(_ context.Context, settings core.CreditCardSettings) (core.CreditCardSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	settings.ID = s.id()
	s.cardSettings[settings.ID] = settings
	return settings, nil
}

func (s *Store) GetCardSettings(_ context.Context, id int64) (core.CreditCardSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	settings, ok := s.cardSettings[id]
	if !ok {
		return core.CreditCardSettings{}, core.NotFoundf("credit card settings %d not found", id)
	}
	return settings, nil
}

func (s *Store) GetCardSettingsByAccount(_ context.Context, accountID int64) (core.CreditCardSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, settings := range s.cardSettings {
		if settings.AccountID == accountID {
			return settings, nil
		}
	}
	return core.CreditCardSettings{}, core.NotFoundf("no credit card settings for account %d", accountID)
}

func (s *Store) ListCardSettings(_ context.Context) ([]core.CreditCardSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []core.CreditCardSettings
	for _, settings := range s.cardSettings {
		all = append(all, settings)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, nil
}

func (s *Store) UpdateCardSettings(_ context.Context, settings core.CreditCardSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cardSettings[settings.ID]; !ok {
		return core.NotFoundf("credit card settings %d not found", settings.ID)
	}
	s.cardSettings[settings.ID] = settings
	return nil
}

func (s *Store) DeleteCardSettings(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cardSettings[id]; !ok {
		return core.NotFoundf("credit card settings %d not found", id)
	}
	for stID, st := range s.statements {
		if st.SettingsID == id {
			delete(s.statements, stID)
		}
	}
	delete(s.cardSettings, id)
	return nil
}

func (s *Store) CreateStatement(_ context.Context, st core.CreditCardStatement) (core.CreditCardStatement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st.ID = s.id()
	s.statements[st.ID] = st
	return st, nil
}

func (s *Store) GetStatement(_ context.Context, id int64) (core.CreditCardStatement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.statements[id]
	if !ok {
		return core.CreditCardStatement{}, core.NotFoundf("statement %d not found", id)
	}
	return st, nil
}

func (s *Store) ListStatements(_ context.Context, settingsID int64) ([]core.CreditCardStatement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []core.CreditCardStatement
	for _, st := range s.statements {
		if st.SettingsID == settingsID {
			all = append(all, st)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, nil
}

func (s *Store) FindStatementForCycle(_ context.Context, settingsID int64, cycleEnd core.Date) (core.CreditCardStatement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.statements {
		if st.SettingsID == settingsID && st.CycleEndDate.Equal(cycleEnd) {
			return st, nil
		}
	}
	return core.CreditCardStatement{}, core.NotFoundf("no statement for cycle ending %s", cycleEnd)
}

func (s *Store) UpdateStatement(_ context.Context, st core.CreditCardStatement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.statements[st.ID]; !ok {
		return core.NotFoundf("statement %d not found", st.ID)
	}
	s.statements[st.ID] = st
	return nil
}

func (s *Store) SettleStatements(_ context.Context, statements []core.CreditCardStatement, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range statements {
		if _, ok := s.statements[st.ID]; !ok {
			return core.Transaction{}, core.NotFoundf("statement %d not found", st.ID)
		}
	}
	t.ID = s.id()
	s.transactions[t.ID] = t
	for _, st := range statements {
		s.statements[st.ID] = st
	}
	return t, nil
}

// --- budgets ---

func (s *Store) CreateBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = s.id()
	s.budgets[b.ID] = b
	return b, nil
}

func (s *Store) GetBudget(_ context.Context, id int64) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok {
		return core.Budget{}, core.NotFoundf("budget %d not found", id)
	}
	return b, nil
}

func (s *Store) ListBudgets(_ context.Context, onlyActive bool) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []core.Budget
	for _, b := range s.budgets {
		if onlyActive && !b.IsActive {
			continue
		}
		all = append(all, b)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, nil
}

func (s *Store) UpdateBudget(_ context.Context, b core.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.budgets[b.ID]; !ok {
		return core.NotFoundf("budget %d not found", b.ID)
	}
	s.budgets[b.ID] = b
	return nil
}

func (s *Store) DeleteBudget(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.budgets[id]; !ok {
		return core.NotFoundf("budget %d not found", id)
	}
	delete(s.budgets, id)
	return nil
}

// --- backup ---

func (s *Store) Snapshot(ctx context.Context) (core.Snapshot, error) {
	accounts, _ := s.ListAccounts(ctx)
	categories, _ := s.ListCategories(ctx)
	transactions, _ := s.ListTransactions(ctx, services.TransactionFilter{})
	recurring, _ := s.ListRecurring(ctx, false)
	plans, _ := s.ListPlans(ctx, nil)
	cardSettings, _ := s.ListCardSettings(ctx)
	budgets, _ := s.ListBudgets(ctx, false)

	s.mu.Lock()
	var payments []core.InstallmentPayment
	for _, payment := range s.payments {
		payments = append(payments, payment)
	}
	sort.Slice(payments, func(i, j int) bool { return payments[i].ID < payments[j].ID })
	var statements []core.CreditCardStatement
	for _, st := range s.statements {
		statements = append(statements, st)
	}
	sort.Slice(statements, func(i, j int) bool { return statements[i].ID < statements[j].ID })
	s.mu.Unlock()

	return core.Snapshot{
		Accounts:             accounts,
		Categories:           categories,
		Transactions:         transactions,
		Recurring:            recurring,
		InstallmentPlans:     plans,
		InstallmentPayments:  payments,
		CreditCardSettings:   cardSettings,
		CreditCardStatements: statements,
		Budgets:              budgets,
	}, nil
}

func (s *Store) Restore(_ context.Context, snap core.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	maxID := int64(0)
	track := func(id int64) {
		if id > maxID {
			maxID = id
		}
	}
	for _, a := range snap.Accounts {
		s.accounts[a.ID] = a
		track(a.ID)
	}
	for _, c := range snap.Categories {
		s.categories[c.ID] = c
		track(c.ID)
	}
	for _, t := range snap.Transactions {
		s.transactions[t.ID] = t
		track(t.ID)
	}
	for _, r := range snap.Recurring {
		s.recurring[r.ID] = r
		track(r.ID)
	}
	for _, p := range snap.InstallmentPlans {
		s.plans[p.ID] = p
		track(p.ID)
	}
	for _, payment := range snap.InstallmentPayments {
		s.payments[payment.ID] = payment
		track(payment.ID)
	}
	for _, settings := range snap.CreditCardSettings {
		s.cardSettings[settings.ID] = settings
		track(settings.ID)
	}
	for _, st := range snap.CreditCardStatements {
		s.statements[st.ID] = st
		track(st.ID)
	}
	for _, b := range snap.Budgets {
		s.budgets[b.ID] = b
		track(b.ID)
	}
	s.nextID = maxID
	return nil
}

func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	return nil
}
