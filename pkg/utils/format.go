// Package utils provides formatting, ticker and date helpers shared by the
// dashboard, the exporter and the CLI.
package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatUSD formats an amount as dollars with thousands separators, rounded
// half away from zero to the given number of decimals.
// e.g., FormatUSD(1234567.891, 0) → "$1,234,568", FormatUSD(-12.5, 2) → "-$12.50"
func FormatUSD(amount float64, decimals int32) string {
	return FormatMoney(amount, decimals, "USD")
}

// FormatMoney formats an amount in the given ISO currency. US dollars (or an
// unknown currency) get a "$" prefix, anything else its code.
// e.g., FormatMoney(1234.5, 2, "EUR") → "EUR 1,234.50", FormatMoney(-3, 0, "") → "-$3"
func FormatMoney(amount float64, decimals int32, currency string) string {
	s := FormatNumber(amount, decimals)
	if strings.HasPrefix(s, "-") {
		return "-" + currencyPrefix(currency) + s[1:]
	}
	return currencyPrefix(currency) + s
}

func currencyPrefix(currency string) string {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if code == "" || code == "USD" {
		return "$"
	}
	return code + " "
}

// FormatNumber formats a number with thousands separators and a fixed number
// of decimals.
// e.g., 15204137000 → "15,204,137,000"
func FormatNumber(n float64, decimals int32) string {
	d := decimal.NewFromFloat(n).Round(decimals)
	s := d.StringFixed(decimals)

	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, frac, hasFrac := strings.Cut(s, ".")
	out := groupThousands(intPart)
	if hasFrac {
		out += "." + frac
	}
	if negative && strings.Trim(out, "0.,") != "" {
		return "-" + out
	}
	return out
}

// FormatMultiple formats a valuation multiple with two decimals.
// e.g., 12.3456 → "12.35x"
func FormatMultiple(v float64) string {
	return decimal.NewFromFloat(v).Round(2).StringFixed(2) + "x"
}

// FormatPercent formats a ratio as a percentage with one decimal.
// e.g., 0.1234 → "12.3%", -0.05 → "-5.0%"
func FormatPercent(ratio float64) string {
	return decimal.NewFromFloat(ratio).Mul(decimal.NewFromInt(100)).Round(1).StringFixed(1) + "%"
}

// FormatCompact formats large amounts with a magnitude suffix in the given
// currency.
// e.g., (2.85e12, "USD") → "$2.85T", (391035000000, "EUR") → "EUR 391.04B", (950, "") → "$950.00"
func FormatCompact(amount float64, currency string) string {
	d := decimal.NewFromFloat(amount)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	prefix := sign + currencyPrefix(currency)
	units := []struct {
		div    decimal.Decimal
		suffix string
	}{
		{decimal.New(1, 12), "T"},
		{decimal.New(1, 9), "B"},
		{decimal.New(1, 6), "M"},
		{decimal.New(1, 3), "K"},
	}
	for _, u := range units {
		if d.GreaterThanOrEqual(u.div) {
			return prefix + d.Div(u.div).Round(2).StringFixed(2) + u.suffix
		}
	}
	return prefix + d.Round(2).StringFixed(2)
}

// groupThousands inserts commas every three digits from the right.
func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var sb strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		sb.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if sb.Len() > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(digits[i : i+3])
	}
	return sb.String()
}
