package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func testSettings(statementDay, dueDay int) CreditCardSettings {
	return CreditCardSettings{
		ID:                       1,
		AccountID:                10,
		CreditLimit:              decimal.NewFromInt(5000),
		StatementDay:             statementDay,
		PaymentDueDay:            dueDay,
		MinimumPaymentPercentage: decimal.NewFromInt(5),
	}
}

func TestCurrentCycle(t *testing.T) {
	tests := []struct {
		name         string
		statementDay int
		ref          Date
		wantStart    Date
		wantEnd      Date
	}{
		{
			name:         "ref before statement day",
			statementDay: 25,
			ref:          NewDate(2025, 3, 10),
			wantStart:    NewDate(2025, 2, 26),
			wantEnd:      NewDate(2025, 3, 25),
		},
		{
			name:         "ref on statement day",
			statementDay: 25,
			ref:          NewDate(2025, 3, 25),
			wantStart:    NewDate(2025, 2, 26),
			wantEnd:      NewDate(2025, 3, 25),
		},
		{
			name:         "ref after statement day",
			statementDay: 25,
			ref:          NewDate(2025, 3, 26),
			wantStart:    NewDate(2025, 3, 26),
			wantEnd:      NewDate(2025, 4, 25),
		},
		{
			name:         "ref after statement day in december",
			statementDay: 15,
			ref:          NewDate(2024, 12, 20),
			wantStart:    NewDate(2024, 12, 16),
			wantEnd:      NewDate(2025, 1, 15),
		},
		{
			name:         "ref in january before statement day",
			statementDay: 15,
			ref:          NewDate(2025, 1, 10),
			wantStart:    NewDate(2024, 12, 16),
			wantEnd:      NewDate(2025, 1, 15),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testSettings(tt.statementDay, 10)
			cycle := s.CurrentCycle(tt.ref)
			if !cycle.Start.Equal(tt.wantStart) {
				t.Errorf("start: got %s, want %s", cycle.Start, tt.wantStart)
			}
			if !cycle.End.Equal(tt.wantEnd) {
				t.Errorf("end: got %s, want %s", cycle.End, tt.wantEnd)
			}
		})
	}
}

func TestCurrentCycleWindowsAreContiguous(t *testing.T) {
	s := testSettings(28, 10)
	prev := s.CurrentCycle(NewDate(2025, 1, 15))
	next := s.CurrentCycle(prev.End.AddDays(1))
	if !next.Start.Equal(prev.End.AddDays(1)) {
		t.Errorf("next cycle starts %s, want %s", next.Start, prev.End.AddDays(1))
	}
}

func TestLastClosedCycle(t *testing.T) {
	s := testSettings(25, 10)

	// Mid-cycle the current cycle has not ended yet; the generatable cycle
	// is the previous one.
	cycle := s.LastClosedCycle(NewDate(2025, 3, 10))
	if !cycle.Start.Equal(NewDate(2025, 1, 26)) || !cycle.End.Equal(NewDate(2025, 2, 25)) {
		t.Errorf("got %s..%s, want 2025-01-26..2025-02-25", cycle.Start, cycle.End)
	}

	// On the statement day itself the cycle just closed.
	cycle = s.LastClosedCycle(NewDate(2025, 3, 25))
	if !cycle.Start.Equal(NewDate(2025, 2, 26)) || !cycle.End.Equal(NewDate(2025, 3, 25)) {
		t.Errorf("got %s..%s, want 2025-02-26..2025-03-25", cycle.Start, cycle.End)
	}
}

func TestDueDateFor(t *testing.T) {
	tests := []struct {
		name         string
		statementDay int
		dueDay       int
		cycleEnd     Date
		want         Date
	}{
		{"due after statement same month", 15, 25, NewDate(2025, 3, 15), NewDate(2025, 3, 25)},
		{"due before statement next month", 25, 10, NewDate(2025, 3, 25), NewDate(2025, 4, 10)},
		{"due equals statement next month", 15, 15, NewDate(2025, 3, 15), NewDate(2025, 4, 15)},
		{"wraps year", 25, 10, NewDate(2024, 12, 25), NewDate(2025, 1, 10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testSettings(tt.statementDay, tt.dueDay)
			got := s.DueDateFor(tt.cycleEnd)
			if !got.Equal(tt.want) {
				t.Errorf("got %s, want %s", got, tt.want)
			}
			if !got.After(tt.cycleEnd) {
				t.Errorf("due date %s is not after cycle end %s", got, tt.cycleEnd)
			}
		})
	}
}

func TestMinimumPaymentFor(t *testing.T) {
	s := testSettings(25, 10)

	tests := []struct {
		name    string
		closing string
		want    string
	}{
		{"percentage of balance", "1000", "50"},
		{"floor applies", "100", "10"},
		{"capped at balance", "6", "6"},
		{"zero balance", "0", "0"},
		{"credit balance", "-50", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.MinimumPaymentFor(decimal.RequireFromString(tt.closing))
			if got.String() != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCreditCardSettingsValidate(t *testing.T) {
	base := testSettings(25, 10)
	if err := base.Validate(); err != nil {
		t.Fatalf("valid settings rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*CreditCardSettings)
	}{
		{"missing account", func(s *CreditCardSettings) { s.AccountID = 0 }},
		{"negative limit", func(s *CreditCardSettings) { s.CreditLimit = decimal.NewFromInt(-1) }},
		{"statement day zero", func(s *CreditCardSettings) { s.StatementDay = 0 }},
		{"statement day 29", func(s *CreditCardSettings) { s.StatementDay = 29 }},
		{"due day zero", func(s *CreditCardSettings) { s.PaymentDueDay = 0 }},
		{"due day 31", func(s *CreditCardSettings) { s.PaymentDueDay = 31 }},
		{"percentage over 100", func(s *CreditCardSettings) { s.MinimumPaymentPercentage = decimal.NewFromInt(101) }},
		{"settlement account is the card", func(s *CreditCardSettings) { s.SettlementAccountID = &s.AccountID }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base
			tt.mutate(&s)
			if err := s.Validate(); KindOf(err) != KindValidation {
				t.Errorf("got %v, want validation error", err)
			}
		})
	}
}

func TestStatementRefreshStatus(t *testing.T) {
	base := CreditCardStatement{
		DueDate:        NewDate(2025, 4, 10),
		ClosingBalance: decimal.NewFromInt(500),
		MinimumPayment: decimal.NewFromInt(25),
		Status:         StatementOpen,
	}

	tests := []struct {
		name        string
		paid        string
		today       Date
		want        StatementStatus
		wantChanged bool
	}{
		{"untouched before due", "0", NewDate(2025, 4, 1), StatementOpen, false},
		{"partial before due", "100", NewDate(2025, 4, 1), StatementPartial, true},
		{"paid in full", "500", NewDate(2025, 4, 1), StatementPaid, true},
		{"overpaid", "600", NewDate(2025, 4, 1), StatementPaid, true},
		{"past due below minimum", "10", NewDate(2025, 4, 11), StatementOverdue, true},
		{"past due minimum met", "25", NewDate(2025, 4, 11), StatementPartial, true},
		{"on due day not overdue", "0", NewDate(2025, 4, 10), StatementOpen, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := base
			st.PaidAmount = decimal.RequireFromString(tt.paid)
			got, changed := st.RefreshStatus(tt.today)
			if got != tt.want {
				t.Errorf("status: got %s, want %s", got, tt.want)
			}
			if changed != tt.wantChanged {
				t.Errorf("changed: got %v, want %v", changed, tt.wantChanged)
			}
		})
	}
}

func TestStatementStatusTransitions(t *testing.T) {
	if StatementPaid.CanTransition(StatementPartial) {
		t.Error("PAID must be terminal")
	}
	if !StatementOverdue.CanTransition(StatementPaid) {
		t.Error("OVERDUE must allow transition to PAID")
	}
	if !StatementOpen.CanTransition(StatementOverdue) {
		t.Error("OPEN must allow transition to OVERDUE")
	}
	if StatementPaid.Payable() {
		t.Error("PAID must not be payable")
	}
}
