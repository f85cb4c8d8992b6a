package domain

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when no currency setting is stored.
const DefaultCurrency = "BRL"

// FormatMoney renders amount in the given ISO currency, e.g. "R$1.234,56" style per currency rules.
// Unknown currency codes fall back to DefaultCurrency.
func FormatMoney(amount decimal.Decimal, currency string) string {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if money.GetCurrency(code) == nil {
		code = DefaultCurrency
	}
	cur := money.GetCurrency(code)
	minor := amount.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, code).Display()
}
