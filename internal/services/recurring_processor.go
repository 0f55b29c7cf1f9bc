package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Rajamiththiran/money-manager-sub000/internal/core"
)

// RecurringProcessor is the worker-side driver of the recurring engine. It
// catches definitions up to a reference date, materializing one transaction
// per missed occurrence.
type RecurringProcessor struct {
	recurring *RecurringService
	store     RecurringStore
}

func NewRecurringProcessor(recurring *RecurringService, store RecurringStore) *RecurringProcessor {
	return &RecurringProcessor{
		recurring: recurring,
		store:     store,
	}
}

// ProcessDue executes every occurrence due on or before asOf and returns the
// number of transactions written. A definition that fails is logged and
// skipped; the rest of the batch still runs.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, asOf core.Date) (int, error) {
	due, err := p.store.ListDueRecurring(ctx, asOf)
	if err != nil {
		return 0, fmt.Errorf("list due definitions: %w", err)
	}

	slog.InfoContext(ctx, "Processing due recurring definitions", "count", len(due), "as_of", asOf)

	executed := 0
	for _, r := range due {
		n, err := p.catchUp(ctx, r.ID, asOf)
		executed += n
		if err != nil {
			slog.ErrorContext(ctx, "Failed to process recurring definition",
				"id", r.ID,
				"name", r.Name,
				"executed", n,
				"error", err)
		}
	}

	if executed > 0 {
		slog.InfoContext(ctx, "Recurring processing completed", "executed", executed)
	}
	return executed, nil
}

// catchUp executes one definition occurrence by occurrence until its next
// execution date passes asOf. The definition is re-read between executions
// so the loop observes the advance it just made.
func (p *RecurringProcessor) catchUp(ctx context.Context, id int64, asOf core.Date) (int, error) {
	executed := 0
	for {
		r, err := p.store.GetRecurring(ctx, id)
		if err != nil {
			return executed, err
		}
		if !r.IsActive || !r.WindowContains(core.Today()) || r.Exhausted() || r.NextExecutionDate.After(asOf) {
			return executed, nil
		}

		if _, err := p.recurring.Execute(ctx, r.ID); err != nil {
			// A concurrent pause or delete between the read and the
			// execute is not a processing failure.
			if errors.Is(err, core.ErrNotActive) || core.KindOf(err) == core.KindNotFound {
				return executed, nil
			}
			return executed, err
		}
		executed++
	}
}
