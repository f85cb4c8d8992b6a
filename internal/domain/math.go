package domain

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Allocation returns value/total, or zero when total is zero.
func Allocation(value, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return value.Div(total)
}

// AllocationDiff returns current minus target allocation.
func AllocationDiff(current, target decimal.Decimal) decimal.Decimal {
	return current.Sub(target)
}

// PercentToFraction converts a stored percentage (0-100) to a fraction.
func PercentToFraction(pct decimal.Decimal) decimal.Decimal {
	return pct.Div(hundred)
}

// FractionToPercent converts a fraction to a percentage.
func FractionToPercent(f decimal.Decimal) decimal.Decimal {
	return f.Mul(hundred)
}

// SafeParse parses a string into a decimal, returning zero for invalid or empty input.
func SafeParse(value string) decimal.Decimal {
	if value == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// WithinTolerance reports whether an allocation diff is small enough to be shown as on target.
func WithinTolerance(diff decimal.Decimal) bool {
	return diff.Abs().LessThan(decimal.RequireFromString("0.005"))
}
