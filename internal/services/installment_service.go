package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/Rajamiththiran/money-manager-sub000/internal/amqp"
	"github.com/Rajamiththiran/money-manager-sub000/internal/core"
)

// InstallmentService manages amortization plans. A plan's schedule is
// computed once at creation and never changes; payments walk the schedule
// in order and each one writes an expense to the ledger.
type InstallmentService struct {
	store      InstallmentStore
	ledger     LedgerStore
	amqpClient *amqp.Client
}

func NewInstallmentService(store InstallmentStore, ledger LedgerStore, amqpClient *amqp.Client) *InstallmentService {
	return &InstallmentService{
		store:      store,
		ledger:     ledger,
		amqpClient: amqpClient,
	}
}

// PlanDetail is a plan joined with its full schedule.
type PlanDetail struct {
	Plan     core.InstallmentPlan      `json:"plan"`
	Schedule []core.InstallmentPayment `json:"schedule"`
}

// CreatePlan validates a plan, computes its payment schedule and persists
// both.
func (s *InstallmentService) CreatePlan(ctx context.Context, p core.InstallmentPlan) (PlanDetail, error) {
	p.Status = core.PlanActive
	p.InstallmentsPaid = 0
	p.TotalPaid = decimal.Zero

	if err := p.Validate(); err != nil {
		return PlanDetail{}, err
	}

	schedule, err := p.BuildSchedule()
	if err != nil {
		return PlanDetail{}, err
	}
	p.AmountPerInstallment = schedule[0].Amount

	// The payments this plan will write are expenses against the plan's
	// account and category; reject the plan up front if they would not
	// validate.
	sample := core.Transaction{
		Date:       p.StartDate,
		Type:       core.Expense,
		Amount:     p.AmountPerInstallment,
		AccountID:  p.AccountID,
		CategoryID: &p.CategoryID,
	}
	if err := validateTransactionReferences(ctx, s.ledger, sample); err != nil {
		return PlanDetail{}, err
	}

	created, err := s.store.CreatePlan(ctx, p, schedule)
	if err != nil {
		return PlanDetail{}, fmt.Errorf("create installment plan: %w", err)
	}

	persisted, err := s.store.ListPayments(ctx, created.ID)
	if err != nil {
		return PlanDetail{}, fmt.Errorf("load plan schedule: %w", err)
	}

	slog.InfoContext(ctx, "Installment plan created",
		"id", created.ID,
		"name", created.Name,
		"total", created.TotalAmount,
		"installments", created.NumInstallments)
	return PlanDetail{Plan: created, Schedule: persisted}, nil
}

func (s *InstallmentService) GetPlan(ctx context.Context, id int64) (PlanDetail, error) {
	plan, err := s.store.GetPlan(ctx, id)
	if err != nil {
		return PlanDetail{}, err
	}
	schedule, err := s.store.ListPayments(ctx, id)
	if err != nil {
		return PlanDetail{}, fmt.Errorf("load plan schedule: %w", err)
	}
	return PlanDetail{Plan: plan, Schedule: schedule}, nil
}

func (s *InstallmentService) ListPlans(ctx context.Context, status *core.PlanStatus) ([]core.InstallmentPlan, error) {
	if status != nil && !status.Valid() {
		return nil, core.Validationf("invalid plan status %q", *status)
	}
	return s.store.ListPlans(ctx, status)
}

// PayNext pays the earliest unpaid installment of an active plan: it writes
// the expense, marks the schedule row paid and advances the plan's
// counters. Paying the last installment completes the plan.
func (s *InstallmentService) PayNext(ctx context.Context, planID int64, paidDate *core.Date) (core.Transaction, error) {
	plan, err := s.store.GetPlan(ctx, planID)
	if err != nil {
		return core.Transaction{}, err
	}
	if plan.Status != core.PlanActive {
		return core.Transaction{}, core.Conflictf("installment plan %d is %s, not active", planID, plan.Status)
	}

	schedule, err := s.store.ListPayments(ctx, planID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("load plan schedule: %w", err)
	}

	var next *core.InstallmentPayment
	for i := range schedule {
		if schedule[i].PaidDate == nil {
			next = &schedule[i]
			break
		}
	}
	if next == nil {
		return core.Transaction{}, core.ErrNoRemainingInstallments
	}

	date := core.Today()
	if paidDate != nil {
		date = *paidDate
	}

	tx := core.Transaction{
		Date:       date,
		Type:       core.Expense,
		Amount:     next.Amount,
		AccountID:  plan.AccountID,
		CategoryID: &plan.CategoryID,
		Memo:       fmt.Sprintf("%s (%d/%d)", plan.Name, next.InstallmentNumber, plan.NumInstallments),
	}
	if err := validateTransactionReferences(ctx, s.ledger, tx); err != nil {
		return core.Transaction{}, err
	}

	payment := *next
	payment.PaidDate = &date

	plan.InstallmentsPaid++
	plan.TotalPaid = plan.TotalPaid.Add(payment.Amount)
	if plan.InstallmentsPaid == plan.NumInstallments {
		plan.Status = core.PlanCompleted
	}

	created, err := s.store.RecordPayment(ctx, plan, payment, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("record installment payment: %w", err)
	}

	slog.InfoContext(ctx, "Installment paid",
		"plan_id", planID,
		"installment", payment.InstallmentNumber,
		"of", plan.NumInstallments,
		"amount", payment.Amount,
		"transaction_id", created.ID,
		"status", plan.Status)

	if err := s.amqpClient.PublishTransactionCreated(ctx, created.ID, created.AccountID, string(created.Type), "installment"); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event", "id", created.ID, "error", err)
	}

	return created, nil
}

// CancelPlan moves an active plan to CANCELLED. Payments already made stay
// in the ledger.
func (s *InstallmentService) CancelPlan(ctx context.Context, id int64) (core.InstallmentPlan, error) {
	plan, err := s.store.GetPlan(ctx, id)
	if err != nil {
		return core.InstallmentPlan{}, err
	}
	if !plan.Status.CanTransition(core.PlanCancelled) {
		return core.InstallmentPlan{}, core.Conflictf("installment plan %d is already %s", id, plan.Status)
	}
	plan.Status = core.PlanCancelled
	if err := s.store.UpdatePlan(ctx, plan); err != nil {
		return core.InstallmentPlan{}, fmt.Errorf("cancel installment plan: %w", err)
	}

	slog.InfoContext(ctx, "Installment plan cancelled", "id", id, "installments_paid", plan.InstallmentsPaid)
	return plan, nil
}

// DeletePlan removes a completed or cancelled plan and its schedule.
// Transactions the plan produced stay in the ledger.
func (s *InstallmentService) DeletePlan(ctx context.Context, id int64) error {
	plan, err := s.store.GetPlan(ctx, id)
	if err != nil {
		return err
	}
	if !plan.Status.Terminal() {
		return core.ErrPlanActive
	}
	return s.store.DeletePlan(ctx, id)
}

// UpcomingPayments lists unpaid installments across all active plans due
// within the given number of days from today.
func (s *InstallmentService) UpcomingPayments(ctx context.Context, days int) ([]core.InstallmentPayment, error) {
	if days < 0 {
		return nil, core.Validationf("days must be non-negative, got %d", days)
	}
	today := core.Today()
	return s.store.ListPaymentsDue(ctx, today, today.AddDays(days))
}
