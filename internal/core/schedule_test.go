package core

import (
	"testing"
)

func TestScheduleNextMonthlyKeepsAnchorDay(t *testing.T) {
	s, err := NewSchedule(Monthly, 0, NewDate(2024, 1, 31))
	if err != nil {
		t.Fatalf("NewSchedule: %v", err)
	}

	want := []Date{
		NewDate(2024, 2, 29),
		NewDate(2024, 3, 31),
		NewDate(2024, 4, 30),
		NewDate(2024, 5, 31),
	}
	current := NewDate(2024, 1, 31)
	for i, w := range want {
		next, err := s.Next(current)
		if err != nil {
			t.Fatalf("Next(%s): %v", current, err)
		}
		if !next.Equal(w) {
			t.Errorf("step %d: got %s, want %s", i+1, next, w)
		}
		current = next
	}
}

func TestScheduleNext(t *testing.T) {
	tests := []struct {
		name     string
		freq     Frequency
		interval int
		start    Date
		current  Date
		want     Date
	}{
		{"daily", Daily, 0, NewDate(2025, 1, 15), NewDate(2025, 1, 15), NewDate(2025, 1, 16)},
		{"daily across month end", Daily, 0, NewDate(2025, 1, 31), NewDate(2025, 1, 31), NewDate(2025, 2, 1)},
		{"weekly", Weekly, 0, NewDate(2025, 1, 15), NewDate(2025, 1, 15), NewDate(2025, 1, 22)},
		{"monthly plain", Monthly, 0, NewDate(2025, 1, 15), NewDate(2025, 1, 15), NewDate(2025, 2, 15)},
		{"monthly december wraps year", Monthly, 0, NewDate(2024, 12, 10), NewDate(2024, 12, 10), NewDate(2025, 1, 10)},
		{"monthly clamps to february", Monthly, 0, NewDate(2025, 1, 30), NewDate(2025, 1, 30), NewDate(2025, 2, 28)},
		{"yearly", Yearly, 0, NewDate(2024, 6, 15), NewDate(2024, 6, 15), NewDate(2025, 6, 15)},
		{"yearly leap day clamps", Yearly, 0, NewDate(2024, 2, 29), NewDate(2024, 2, 29), NewDate(2025, 2, 28)},
		{"custom interval", Custom, 10, NewDate(2025, 1, 1), NewDate(2025, 1, 1), NewDate(2025, 1, 11)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSchedule(tt.freq, tt.interval, tt.start)
			if err != nil {
				t.Fatalf("NewSchedule: %v", err)
			}
			got, err := s.Next(tt.current)
			if err != nil {
				t.Fatalf("Next: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestScheduleNextRecoversAnchorAfterShortMonth(t *testing.T) {
	// A schedule anchored on the 31st passes through February without
	// losing the anchor for later months.
	s, err := NewSchedule(Monthly, 0, NewDate(2025, 1, 31))
	if err != nil {
		t.Fatalf("NewSchedule: %v", err)
	}
	got, err := s.Next(NewDate(2025, 2, 28))
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if want := NewDate(2025, 3, 31); !got.Equal(want) {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestScheduleNthFrom(t *testing.T) {
	s, err := NewSchedule(Monthly, 0, NewDate(2025, 1, 31))
	if err != nil {
		t.Fatalf("NewSchedule: %v", err)
	}

	tests := []struct {
		n    int
		want Date
	}{
		{1, NewDate(2025, 1, 31)},
		{2, NewDate(2025, 2, 28)},
		{3, NewDate(2025, 3, 31)},
		{4, NewDate(2025, 4, 30)},
	}
	for _, tt := range tests {
		got, err := s.NthFrom(NewDate(2025, 1, 31), tt.n)
		if err != nil {
			t.Fatalf("NthFrom(%d): %v", tt.n, err)
		}
		if !got.Equal(tt.want) {
			t.Errorf("NthFrom(%d) = %s, want %s", tt.n, got, tt.want)
		}
	}

	if _, err := s.NthFrom(NewDate(2025, 1, 31), 0); err == nil {
		t.Error("expected error for n=0")
	}
}

func TestNewScheduleValidation(t *testing.T) {
	if _, err := NewSchedule("HOURLY", 0, NewDate(2025, 1, 1)); KindOf(err) != KindValidation {
		t.Errorf("invalid frequency: got %v, want validation error", err)
	}
	if _, err := NewSchedule(Custom, 0, NewDate(2025, 1, 1)); KindOf(err) != KindValidation {
		t.Errorf("custom without interval: got %v, want validation error", err)
	}
	if _, err := NewSchedule(Custom, 1, NewDate(2025, 1, 1)); err != nil {
		t.Errorf("custom with interval 1: unexpected error %v", err)
	}
}

func TestClampedDate(t *testing.T) {
	tests := []struct {
		year, month, day int
		want             Date
	}{
		{2025, 2, 31, NewDate(2025, 2, 28)},
		{2024, 2, 31, NewDate(2024, 2, 29)},
		{2025, 4, 31, NewDate(2025, 4, 30)},
		{2025, 1, 31, NewDate(2025, 1, 31)},
	}
	for _, tt := range tests {
		if got := ClampedDate(tt.year, tt.month, tt.day); !got.Equal(tt.want) {
			t.Errorf("ClampedDate(%d, %d, %d) = %s, want %s", tt.year, tt.month, tt.day, got, tt.want)
		}
	}
}
