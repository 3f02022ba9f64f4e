// Package utils provides shared utility functions.
package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatAmount formats a money value with two decimal places and no grouping.
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// FormatGrouped formats a money value with two decimal places and thousands separators.
func FormatGrouped(amount decimal.Decimal) string {
	negative := amount.IsNegative()
	str := amount.Abs().StringFixed(2)
	parts := strings.SplitN(str, ".", 2)

	result := groupThousands(parts[0]) + "." + parts[1]
	if negative {
		result = "-" + result
	}
	return result
}

func groupThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	var b strings.Builder
	lead := n % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// FormatPercent formats a percentage with sign.
func FormatPercent(value decimal.Decimal) string {
	sign := ""
	if value.IsPositive() {
		sign = "+"
	}
	return sign + value.StringFixed(2) + "%"
}

// FormatPnL formats profit or loss with an explicit sign.
func FormatPnL(pnl decimal.Decimal) string {
	if pnl.IsPositive() {
		return "+" + FormatAmount(pnl)
	}
	return FormatAmount(pnl)
}

// FormatQuantity formats a quantity without trailing zeros.
func FormatQuantity(qty decimal.Decimal) string {
	return qty.String()
}
