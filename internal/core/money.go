// Package core holds the domain model of the ledger and schedule engine:
// accounts, categories, transactions, recurring definitions, installment
// plans, credit card settings and statements, plus the date and money
// arithmetic they share.
package core

import (
	"github.com/shopspring/decimal"
)

// Round2 rounds half-up to two fraction digits, the display precision of
// every stored monetary value.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// SplitInstallments divides total into n parts of round(total/n, 2) with the
// last part absorbing the rounding remainder, so the parts always sum back
// to total exactly. 100.00 over 3 yields [33.33, 33.33, 33.34].
func SplitInstallments(total decimal.Decimal, n int) ([]decimal.Decimal, error) {
	if n <= 0 {
		return nil, Invariantf("installment count must be positive, got %d", n)
	}
	if !total.IsPositive() {
		return nil, ErrInvalidAmount
	}
	per := Round2(total.Div(decimal.NewFromInt(int64(n))))
	parts := make([]decimal.Decimal, n)
	for i := 0; i < n-1; i++ {
		parts[i] = per
	}
	parts[n-1] = total.Sub(per.Mul(decimal.NewFromInt(int64(n - 1))))
	if !parts[n-1].IsPositive() {
		return nil, Validationf("amount %s is too small to split into %d installments", total, n)
	}
	return parts, nil
}

// Percentage returns part/whole as a percentage rounded to two fraction
// digits; zero when whole is not positive.
func Percentage(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return Round2(part.Div(whole).Mul(decimal.NewFromInt(100)))
}
