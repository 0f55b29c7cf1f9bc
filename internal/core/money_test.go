package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestSplitInstallments(t *testing.T) {
	tests := []struct {
		name  string
		total string
		n     int
		want  []string
	}{
		{"remainder on last", "100.00", 3, []string{"33.33", "33.33", "33.34"}},
		{"even split", "100.00", 4, []string{"25", "25", "25", "25"}},
		{"single installment", "59.99", 1, []string{"59.99"}},
		{"remainder negative direction", "100.00", 6, []string{"16.67", "16.67", "16.67", "16.67", "16.67", "16.65"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total := decimal.RequireFromString(tt.total)
			parts, err := SplitInstallments(total, tt.n)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(parts) != tt.n {
				t.Fatalf("got %d parts, want %d", len(parts), tt.n)
			}
			sum := decimal.Zero
			for i, p := range parts {
				if p.String() != tt.want[i] {
					t.Errorf("part %d: got %s, want %s", i, p, tt.want[i])
				}
				sum = sum.Add(p)
			}
			if !sum.Equal(total) {
				t.Errorf("parts sum to %s, want %s", sum, total)
			}
		})
	}
}

func TestSplitInstallmentsRejectsBadInput(t *testing.T) {
	if _, err := SplitInstallments(decimal.NewFromInt(100), 0); err == nil {
		t.Error("expected error for zero installments")
	}
	if _, err := SplitInstallments(decimal.Zero, 3); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("zero total: got %v, want ErrInvalidAmount", err)
	}
	// 0.02 over 3 rounds per-installment to 0.01 and leaves 0.00 for the
	// last, which is not a valid payment.
	if _, err := SplitInstallments(decimal.RequireFromString("0.02"), 3); KindOf(err) != KindValidation {
		t.Errorf("tiny total: got %v, want validation error", err)
	}
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		part, whole string
		want        string
	}{
		{"50", "200", "25"},
		{"1", "3", "33.33"},
		{"150", "100", "150"},
		{"10", "0", "0"},
	}
	for _, tt := range tests {
		got := Percentage(decimal.RequireFromString(tt.part), decimal.RequireFromString(tt.whole))
		if got.String() != tt.want {
			t.Errorf("Percentage(%s, %s) = %s, want %s", tt.part, tt.whole, got, tt.want)
		}
	}
}
