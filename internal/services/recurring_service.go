package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Rajamiththiran/money-manager-sub000/internal/amqp"
	"github.com/Rajamiththiran/money-manager-sub000/internal/core"
)

// RecurringService manages recurring definitions and materializes ledger
// transactions from them. Executing moves one occurrence at a time: the
// transaction is dated at the occurrence, and the definition's next
// execution date advances by exactly one period.
type RecurringService struct {
	store      RecurringStore
	ledger     LedgerStore
	amqpClient *amqp.Client
}

func NewRecurringService(store RecurringStore, ledger LedgerStore, amqpClient *amqp.Client) *RecurringService {
	return &RecurringService{
		store:      store,
		ledger:     ledger,
		amqpClient: amqpClient,
	}
}

// Create validates and persists a recurring definition. The first occurrence
// is the start date itself.
func (s *RecurringService) Create(ctx context.Context, r core.RecurringTransaction) (core.RecurringTransaction, error) {
	if r.NextExecutionDate.IsZero() {
		r.NextExecutionDate = r.StartDate
	}
	r.IsActive = true
	r.LastExecutedDate = nil
	r.ExecutionCount = 0

	if err := r.Validate(); err != nil {
		return core.RecurringTransaction{}, err
	}
	if !r.NextExecutionDate.Equal(r.StartDate) {
		return core.RecurringTransaction{}, core.Validationf("next execution date must equal the start date on creation")
	}
	if err := validateTransactionReferences(ctx, s.ledger, r.MaterializedTransaction()); err != nil {
		return core.RecurringTransaction{}, err
	}

	created, err := s.store.CreateRecurring(ctx, r)
	if err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("create recurring definition: %w", err)
	}

	slog.InfoContext(ctx, "Recurring definition created",
		"id", created.ID,
		"name", created.Name,
		"frequency", created.Frequency,
		"next_execution", created.NextExecutionDate)
	return created, nil
}

func (s *RecurringService) Get(ctx context.Context, id int64) (core.RecurringTransaction, error) {
	return s.store.GetRecurring(ctx, id)
}

func (s *RecurringService) List(ctx context.Context, onlyActive bool) ([]core.RecurringTransaction, error) {
	return s.store.ListRecurring(ctx, onlyActive)
}

// Update replaces a definition's editable fields. The execution bookkeeping
// (next date, count, last executed) is owned by execute and skip and cannot
// be overwritten here.
func (s *RecurringService) Update(ctx context.Context, r core.RecurringTransaction) error {
	existing, err := s.store.GetRecurring(ctx, r.ID)
	if err != nil {
		return err
	}
	r.NextExecutionDate = existing.NextExecutionDate
	r.LastExecutedDate = existing.LastExecutedDate
	r.ExecutionCount = existing.ExecutionCount
	r.IsActive = existing.IsActive

	if err := r.Validate(); err != nil {
		return err
	}
	if err := validateTransactionReferences(ctx, s.ledger, r.MaterializedTransaction()); err != nil {
		return err
	}
	return s.store.UpdateRecurring(ctx, r)
}

// Delete removes a definition. Transactions it already materialized stay in
// the ledger.
func (s *RecurringService) Delete(ctx context.Context, id int64) error {
	if _, err := s.store.GetRecurring(ctx, id); err != nil {
		return err
	}
	return s.store.DeleteRecurring(ctx, id)
}

// SetActive pauses or resumes a definition without touching its dates.
func (s *RecurringService) SetActive(ctx context.Context, id int64, active bool) (core.RecurringTransaction, error) {
	r, err := s.store.GetRecurring(ctx, id)
	if err != nil {
		return core.RecurringTransaction{}, err
	}
	if r.IsActive == active {
		return r, nil
	}
	r.IsActive = active
	if err := s.store.UpdateRecurring(ctx, r); err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("toggle recurring definition: %w", err)
	}

	slog.InfoContext(ctx, "Recurring definition toggled", "id", id, "active", active)
	return r, nil
}

// Execute materializes exactly one occurrence of the definition: it writes a
// ledger transaction dated at the current next execution date and advances
// the definition by one period. A paused definition refuses, as does one
// whose window does not contain today or that is exhausted.
func (s *RecurringService) Execute(ctx context.Context, id int64) (core.Transaction, error) {
	r, err := s.store.GetRecurring(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}
	if !r.IsActive {
		return core.Transaction{}, core.ErrNotActive
	}
	if !r.WindowContains(core.Today()) || r.Exhausted() {
		return core.Transaction{}, core.ErrOutOfWindow
	}

	tx := r.MaterializedTransaction()
	if err := validateTransactionReferences(ctx, s.ledger, tx); err != nil {
		return core.Transaction{}, err
	}

	advanced, err := s.advance(r)
	if err != nil {
		return core.Transaction{}, err
	}

	created, err := s.store.ExecuteRecurring(ctx, advanced, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("execute recurring definition %d: %w", id, err)
	}

	slog.InfoContext(ctx, "Recurring definition executed",
		"id", id,
		"transaction_id", created.ID,
		"occurrence", created.Date,
		"next_execution", advanced.NextExecutionDate)

	if err := s.amqpClient.PublishTransactionCreated(ctx, created.ID, created.AccountID, string(created.Type), "recurring"); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event", "id", created.ID, "error", err)
	}

	return created, nil
}

// Skip advances the definition past its current occurrence without writing a
// transaction. An exhausted definition refuses.
func (s *RecurringService) Skip(ctx context.Context, id int64) (core.RecurringTransaction, error) {
	r, err := s.store.GetRecurring(ctx, id)
	if err != nil {
		return core.RecurringTransaction{}, err
	}
	if r.Exhausted() {
		return core.RecurringTransaction{}, core.ErrOutOfWindow
	}

	advanced, err := s.advance(r)
	if err != nil {
		return core.RecurringTransaction{}, err
	}
	// Skipping is not an execution: the occurrence is consumed but neither
	// the count nor the last executed date moves.
	advanced.LastExecutedDate = r.LastExecutedDate
	advanced.ExecutionCount = r.ExecutionCount

	if err := s.store.UpdateRecurring(ctx, advanced); err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("skip recurring definition %d: %w", id, err)
	}

	slog.InfoContext(ctx, "Recurring occurrence skipped",
		"id", id,
		"skipped", r.NextExecutionDate,
		"next_execution", advanced.NextExecutionDate)
	return advanced, nil
}

// Upcoming lists the active definitions whose next occurrence falls within
// the given number of days from today.
func (s *RecurringService) Upcoming(ctx context.Context, days int) ([]core.RecurringTransaction, error) {
	if days < 0 {
		return nil, core.Validationf("days must be non-negative, got %d", days)
	}
	horizon := core.Today().AddDays(days)
	due, err := s.store.ListDueRecurring(ctx, horizon)
	if err != nil {
		return nil, fmt.Errorf("list due definitions: %w", err)
	}
	upcoming := due[:0]
	for _, r := range due {
		if !r.Exhausted() {
			upcoming = append(upcoming, r)
		}
	}
	return upcoming, nil
}

func (s *RecurringService) advance(r core.RecurringTransaction) (core.RecurringTransaction, error) {
	sched, err := r.Schedule()
	if err != nil {
		return core.RecurringTransaction{}, err
	}
	next, err := sched.Next(r.NextExecutionDate)
	if err != nil {
		return core.RecurringTransaction{}, err
	}
	occurrence := r.NextExecutionDate
	r.LastExecutedDate = &occurrence
	r.ExecutionCount++
	r.NextExecutionDate = next
	return r, nil
}
