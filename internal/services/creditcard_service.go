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

// CreditCardService manages billing settings, derives cycle windows from
// the ledger and settles statements oldest first. The card's debt is never
// stored; it is the negated derived balance of the LIABILITY account.
type CreditCardService struct {
	store      CreditCardStore
	ledger     LedgerStore
	amqpClient *amqp.Client
}

func NewCreditCardService(store CreditCardStore, ledger LedgerStore, amqpClient *amqp.Client) *CreditCardService {
	return &CreditCardService{
		store:      store,
		ledger:     ledger,
		amqpClient: amqpClient,
	}
}

type (
	// CardOverview is the live view of one card: its current cycle, the
	// activity inside it and the derived debt.
	CardOverview struct {
		Settings        core.CreditCardSettings `json:"settings"`
		Cycle           core.BillingCycle       `json:"cycle"`
		Balance         decimal.Decimal         `json:"balance"`
		CycleCharges    decimal.Decimal         `json:"cycle_charges"`
		CyclePayments   decimal.Decimal         `json:"cycle_payments"`
		AvailableCredit decimal.Decimal         `json:"available_credit"`
		Utilization     decimal.Decimal         `json:"utilization"`
	}

	// SettlementResult reports what a payment funded.
	SettlementResult struct {
		Transaction core.Transaction           `json:"transaction"`
		Statements  []core.CreditCardStatement `json:"statements"`
		Unallocated decimal.Decimal            `json:"unallocated"`
	}
)

// CreateSettings validates and persists billing settings for a liability
// account. One account carries at most one settings row.
func (s *CreditCardService) CreateSettings(ctx context.Context, settings core.CreditCardSettings) (core.CreditCardSettings, error) {
	if err := settings.Validate(); err != nil {
		return core.CreditCardSettings{}, err
	}
	if err := s.validateAccounts(ctx, settings); err != nil {
		return core.CreditCardSettings{}, err
	}
	if _, err := s.store.GetCardSettingsByAccount(ctx, settings.AccountID); err == nil {
		return core.CreditCardSettings{}, core.Conflictf("account %d already has credit card settings", settings.AccountID)
	} else if core.KindOf(err) != core.KindNotFound {
		return core.CreditCardSettings{}, err
	}

	created, err := s.store.CreateCardSettings(ctx, settings)
	if err != nil {
		return core.CreditCardSettings{}, fmt.Errorf("create credit card settings: %w", err)
	}

	slog.InfoContext(ctx, "Credit card settings created",
		"id", created.ID,
		"account_id", created.AccountID,
		"statement_day", created.StatementDay,
		"payment_due_day", created.PaymentDueDay)
	return created, nil
}

func (s *CreditCardService) GetSettings(ctx context.Context, id int64) (core.CreditCardSettings, error) {
	return s.store.GetCardSettings(ctx, id)
}

func (s *CreditCardService) ListSettings(ctx context.Context) ([]core.CreditCardSettings, error) {
	return s.store.ListCardSettings(ctx)
}

// ListOverviews derives the overview of every card as of ref (today when
// zero).
func (s *CreditCardService) ListOverviews(ctx context.Context, ref core.Date) ([]CardOverview, error) {
	cards, err := s.store.ListCardSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list credit card settings: %w", err)
	}
	overviews := make([]CardOverview, 0, len(cards))
	for _, settings := range cards {
		overview, err := s.Overview(ctx, settings.ID, ref)
		if err != nil {
			return nil, err
		}
		overviews = append(overviews, overview)
	}
	return overviews, nil
}

func (s *CreditCardService) UpdateSettings(ctx context.Context, settings core.CreditCardSettings) error {
	existing, err := s.store.GetCardSettings(ctx, settings.ID)
	if err != nil {
		return err
	}
	// The account binding is fixed at creation.
	settings.AccountID = existing.AccountID
	if err := settings.Validate(); err != nil {
		return err
	}
	if err := s.validateAccounts(ctx, settings); err != nil {
		return err
	}
	return s.store.UpdateCardSettings(ctx, settings)
}

// DeleteSettings removes the settings. Generated statements are financial
// records and block the delete; ledger activity on the card account is
// untouched either way.
func (s *CreditCardService) DeleteSettings(ctx context.Context, id int64) error {
	if _, err := s.store.GetCardSettings(ctx, id); err != nil {
		return err
	}
	statements, err := s.store.ListStatements(ctx, id)
	if err != nil {
		return fmt.Errorf("list statements: %w", err)
	}
	if len(statements) > 0 {
		return core.Conflictf("card settings %d still have statements", id)
	}
	return s.store.DeleteCardSettings(ctx, id)
}

// CycleTransactions lists the card account's ledger activity inside the
// billing cycle containing ref (today when zero).
func (s *CreditCardService) CycleTransactions(ctx context.Context, settingsID int64, ref core.Date) ([]core.Transaction, error) {
	settings, err := s.store.GetCardSettings(ctx, settingsID)
	if err != nil {
		return nil, err
	}
	if ref.IsZero() {
		ref = core.Today()
	}
	cycle := settings.CurrentCycle(ref)
	return s.ledger.ListTransactions(ctx, TransactionFilter{
		AccountID: &settings.AccountID,
		From:      &cycle.Start,
		To:        &cycle.End,
	})
}

// Overview derives the card's current cycle and debt as of ref (today when
// zero).
func (s *CreditCardService) Overview(ctx context.Context, settingsID int64, ref core.Date) (CardOverview, error) {
	settings, err := s.store.GetCardSettings(ctx, settingsID)
	if err != nil {
		return CardOverview{}, err
	}
	if ref.IsZero() {
		ref = core.Today()
	}

	cycle := settings.CurrentCycle(ref)
	balance, err := s.debtAsOf(ctx, settings.AccountID, ref)
	if err != nil {
		return CardOverview{}, err
	}
	charges, payments, err := s.cycleActivity(ctx, settings.AccountID, cycle.Start, cycle.End)
	if err != nil {
		return CardOverview{}, err
	}

	return CardOverview{
		Settings:        settings,
		Cycle:           cycle,
		Balance:         balance,
		CycleCharges:    charges,
		CyclePayments:   payments,
		AvailableCredit: settings.AvailableCredit(balance),
		Utilization:     settings.Utilization(balance),
	}, nil
}

// GenerateStatement closes a billing cycle into an immutable statement.
// Without an explicit cycle end it targets the most recent closed cycle;
// an explicit end must land on the statement day and must have passed.
// Each cycle produces at most one statement.
func (s *CreditCardService) GenerateStatement(ctx context.Context, settingsID int64, cycleEnd *core.Date) (core.CreditCardStatement, error) {
	settings, err := s.store.GetCardSettings(ctx, settingsID)
	if err != nil {
		return core.CreditCardStatement{}, err
	}

	today := core.Today()
	var cycle core.BillingCycle
	if cycleEnd == nil {
		cycle = settings.LastClosedCycle(today)
	} else {
		if cycleEnd.Day() != settings.StatementDay {
			return core.CreditCardStatement{}, core.Validationf("cycle end %s does not fall on statement day %d", cycleEnd, settings.StatementDay)
		}
		if cycleEnd.After(today) {
			return core.CreditCardStatement{}, core.ErrCycleNotClosed
		}
		cycle = settings.CurrentCycle(*cycleEnd)
	}

	if _, err := s.store.FindStatementForCycle(ctx, settingsID, cycle.End); err == nil {
		return core.CreditCardStatement{}, core.ErrAlreadyGenerated
	} else if core.KindOf(err) != core.KindNotFound {
		return core.CreditCardStatement{}, err
	}

	opening, err := s.debtAsOf(ctx, settings.AccountID, cycle.Start.AddDays(-1))
	if err != nil {
		return core.CreditCardStatement{}, err
	}
	charges, payments, err := s.cycleActivity(ctx, settings.AccountID, cycle.Start, cycle.End)
	if err != nil {
		return core.CreditCardStatement{}, err
	}
	closing := opening.Add(charges).Sub(payments)

	st := core.CreditCardStatement{
		SettingsID:     settingsID,
		StatementDate:  cycle.End,
		DueDate:        cycle.DueDate,
		CycleStartDate: cycle.Start,
		CycleEndDate:   cycle.End,
		OpeningBalance: opening,
		TotalCharges:   charges,
		TotalPayments:  payments,
		ClosingBalance: closing,
		MinimumPayment: settings.MinimumPaymentFor(closing),
		Status:         core.StatementOpen,
		PaidAmount:     decimal.Zero,
	}
	if next, changed := st.RefreshStatus(today); changed {
		st.Status = next
	}

	created, err := s.store.CreateStatement(ctx, st)
	if err != nil {
		return core.CreditCardStatement{}, fmt.Errorf("create statement: %w", err)
	}

	slog.InfoContext(ctx, "Statement generated",
		"id", created.ID,
		"settings_id", settingsID,
		"cycle_end", created.CycleEndDate,
		"closing_balance", created.ClosingBalance,
		"minimum_payment", created.MinimumPayment,
		"due_date", created.DueDate)

	if err := s.amqpClient.PublishStatementGenerated(ctx, created.ID, settingsID, string(created.Status)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish statement event", "id", created.ID, "error", err)
	}

	return created, nil
}

// GetStatement reads a statement, refreshing its overdue status first.
func (s *CreditCardService) GetStatement(ctx context.Context, id int64) (core.CreditCardStatement, error) {
	st, err := s.store.GetStatement(ctx, id)
	if err != nil {
		return core.CreditCardStatement{}, err
	}
	return s.refreshStatement(ctx, st)
}

// ListStatements reads a card's statements newest first, refreshing overdue
// statuses along the way.
func (s *CreditCardService) ListStatements(ctx context.Context, settingsID int64) ([]core.CreditCardStatement, error) {
	if _, err := s.store.GetCardSettings(ctx, settingsID); err != nil {
		return nil, err
	}
	statements, err := s.store.ListStatements(ctx, settingsID)
	if err != nil {
		return nil, fmt.Errorf("list statements: %w", err)
	}
	for i, st := range statements {
		refreshed, err := s.refreshStatement(ctx, st)
		if err != nil {
			return nil, err
		}
		statements[i] = refreshed
	}
	sort.Slice(statements, func(i, j int) bool {
		return statements[i].StatementDate.After(statements[j].StatementDate)
	})
	return statements, nil
}

// Settle pays down a card: it transfers money from the funding account to
// the card account and allocates it across unpaid statements oldest first.
// A nil amount pays the card's full debt as of the payment date. Money left
// after the oldest debts is reported as unallocated; it still reduces the
// card's derived balance through the transfer.
func (s *CreditCardService) Settle(ctx context.Context, settingsID int64, amount *decimal.Decimal, paymentDate *core.Date, fromAccountID *int64) (SettlementResult, error) {
	settings, err := s.store.GetCardSettings(ctx, settingsID)
	if err != nil {
		return SettlementResult{}, err
	}

	source := fromAccountID
	if source == nil {
		source = settings.SettlementAccountID
	}
	if source == nil {
		return SettlementResult{}, core.Validationf("no funding account given and no settlement account configured")
	}

	date := core.Today()
	if paymentDate != nil {
		date = *paymentDate
	}

	// Paying more than the card's debt is rejected, and a payment against a
	// debt-free card has nothing to fund.
	debt, err := s.debtAsOf(ctx, settings.AccountID, date)
	if err != nil {
		return SettlementResult{}, err
	}
	pay := debt
	if amount != nil {
		pay = *amount
	}
	if !pay.IsPositive() || pay.GreaterThan(debt) {
		return SettlementResult{}, core.ErrInvalidAmount
	}

	tx := core.Transaction{
		Date:        date,
		Type:        core.Transfer,
		Amount:      pay,
		AccountID:   *source,
		ToAccountID: &settings.AccountID,
		Memo:        "Credit card payment",
	}
	if err := validateTransactionReferences(ctx, s.ledger, tx); err != nil {
		return SettlementResult{}, err
	}

	statements, err := s.store.ListStatements(ctx, settingsID)
	if err != nil {
		return SettlementResult{}, fmt.Errorf("list statements: %w", err)
	}
	sort.Slice(statements, func(i, j int) bool {
		return statements[i].StatementDate.Before(statements[j].StatementDate)
	})

	remaining := pay
	var funded []core.CreditCardStatement
	for _, st := range statements {
		if remaining.IsZero() {
			break
		}
		if !st.Status.Payable() {
			continue
		}
		outstanding := st.Outstanding()
		if !outstanding.IsPositive() {
			continue
		}

		pay := decimal.Min(remaining, outstanding)
		st.PaidAmount = st.PaidAmount.Add(pay)
		remaining = remaining.Sub(pay)
		if next, changed := st.RefreshStatus(date); changed {
			st.Status = next
		}
		if st.Status == core.StatementPaid {
			paid := date
			st.PaidDate = &paid
		}
		funded = append(funded, st)
	}

	created, err := s.store.SettleStatements(ctx, funded, tx)
	if err != nil {
		return SettlementResult{}, fmt.Errorf("settle statements: %w", err)
	}

	slog.InfoContext(ctx, "Credit card settled",
		"settings_id", settingsID,
		"amount", pay,
		"statements_funded", len(funded),
		"unallocated", remaining,
		"transaction_id", created.ID)

	if err := s.amqpClient.PublishTransactionCreated(ctx, created.ID, created.AccountID, string(created.Type), "settlement"); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event", "id", created.ID, "error", err)
	}
	for _, st := range funded {
		if err := s.amqpClient.PublishStatementGenerated(ctx, st.ID, settingsID, string(st.Status)); err != nil {
			slog.ErrorContext(ctx, "Failed to publish statement event", "id", st.ID, "error", err)
		}
	}

	return SettlementResult{Transaction: created, Statements: funded, Unallocated: remaining}, nil
}

// AutoSettle pays, for every card with auto settlement enabled, the
// outstanding amount of statements due on or before asOf from the
// configured settlement account. Returns the number of payments made.
func (s *CreditCardService) AutoSettle(ctx context.Context, asOf core.Date) (int, error) {
	cards, err := s.store.ListCardSettings(ctx)
	if err != nil {
		return 0, fmt.Errorf("list credit card settings: %w", err)
	}

	settled := 0
	for _, settings := range cards {
		if !settings.AutoSettlementEnabled || settings.SettlementAccountID == nil {
			continue
		}
		statements, err := s.store.ListStatements(ctx, settings.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to list statements for auto settlement",
				"settings_id", settings.ID, "error", err)
			continue
		}

		due := decimal.Zero
		for _, st := range statements {
			if st.Status.Payable() && !st.DueDate.After(asOf) && st.Outstanding().IsPositive() {
				due = due.Add(st.Outstanding())
			}
		}
		if !due.IsPositive() {
			continue
		}

		// Statement closings carry prior unpaid balances forward, so the
		// summed outstandings can exceed the card's actual debt.
		debt, err := s.debtAsOf(ctx, settings.AccountID, asOf)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to derive card debt for auto settlement",
				"settings_id", settings.ID, "error", err)
			continue
		}
		due = decimal.Min(due, debt)
		if !due.IsPositive() {
			continue
		}

		if _, err := s.Settle(ctx, settings.ID, &due, &asOf, nil); err != nil {
			slog.ErrorContext(ctx, "Auto settlement failed",
				"settings_id", settings.ID,
				"amount", due,
				"error", err)
			continue
		}
		settled++
	}
	return settled, nil
}

func (s *CreditCardService) validateAccounts(ctx context.Context, settings core.CreditCardSettings) error {
	account, err := s.ledger.GetAccount(ctx, settings.AccountID)
	if err != nil {
		if core.KindOf(err) == core.KindNotFound {
			return core.Validationf("account %d not found", settings.AccountID)
		}
		return err
	}
	if account.Kind != core.AccountLiability {
		return core.Validationf("credit card account must be a %s account", core.AccountLiability)
	}
	if settings.SettlementAccountID != nil {
		funding, err := s.ledger.GetAccount(ctx, *settings.SettlementAccountID)
		if err != nil {
			if core.KindOf(err) == core.KindNotFound {
				return core.Validationf("settlement account %d not found", *settings.SettlementAccountID)
			}
			return err
		}
		if funding.Kind != core.AccountAsset {
			return core.Validationf("settlement account must be an %s account", core.AccountAsset)
		}
	}
	return nil
}

func (s *CreditCardService) refreshStatement(ctx context.Context, st core.CreditCardStatement) (core.CreditCardStatement, error) {
	next, changed := st.RefreshStatus(core.Today())
	if !changed {
		return st, nil
	}
	st.Status = next
	if err := s.store.UpdateStatement(ctx, st); err != nil {
		return core.CreditCardStatement{}, fmt.Errorf("refresh statement %d status: %w", st.ID, err)
	}
	slog.InfoContext(ctx, "Statement status refreshed", "id", st.ID, "status", next)
	return st, nil
}

// debtAsOf derives the card's positive debt from the ledger: the liability
// account's balance folds negative as charges accumulate.
func (s *CreditCardService) debtAsOf(ctx context.Context, accountID int64, asOf core.Date) (decimal.Decimal, error) {
	account, err := s.ledger.GetAccount(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	txs, err := s.ledger.ListTransactions(ctx, TransactionFilter{AccountID: &accountID, To: &asOf})
	if err != nil {
		return decimal.Zero, fmt.Errorf("list transactions for account %d: %w", accountID, err)
	}
	balance := account.InitialBalance
	for _, t := range txs {
		balance = balance.Add(t.EffectOn(accountID))
	}
	return balance.Neg(), nil
}

// cycleActivity sums the card account's charges and payments inside a cycle
// window by the sign of each transaction's effect on the account.
func (s *CreditCardService) cycleActivity(ctx context.Context, accountID int64, from, to core.Date) (charges, payments decimal.Decimal, err error) {
	txs, err := s.ledger.ListTransactions(ctx, TransactionFilter{AccountID: &accountID, From: &from, To: &to})
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("list cycle transactions: %w", err)
	}
	charges, payments = decimal.Zero, decimal.Zero
	for _, t := range txs {
		effect := t.EffectOn(accountID)
		switch {
		case effect.IsNegative():
			charges = charges.Add(effect.Neg())
		case effect.IsPositive():
			payments = payments.Add(effect)
		}
	}
	return charges, payments, nil
}
