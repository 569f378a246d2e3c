package utils

import (
	"regexp"
	"strings"
)

var tickerPattern = regexp.MustCompile(`^\^?[A-Z0-9][A-Z0-9.\-=]{0,14}$`)

// NormalizeTicker normalizes user input to the canonical upper-case symbol.
// It trims whitespace and a leading $ (common when pasted from chat).
func NormalizeTicker(ticker string) string {
	ticker = strings.TrimSpace(strings.ToUpper(ticker))
	ticker = strings.TrimPrefix(ticker, "$")
	return strings.TrimSpace(ticker)
}

// IsValidTicker reports whether a normalized ticker looks like a symbol Yahoo
// Finance could know about.
func IsValidTicker(ticker string) bool {
	return tickerPattern.MatchString(ticker)
}

// ToYahooSymbol converts a share-class ticker to Yahoo's dash notation
// (BRK.B → BRK-B). Exchange suffixes such as .L or .TO are kept.
func ToYahooSymbol(ticker string) string {
	ticker = NormalizeTicker(ticker)
	base, suffix, ok := strings.Cut(ticker, ".")
	if !ok || strings.Contains(suffix, ".") {
		return ticker
	}
	switch suffix {
	case "A", "B", "C":
		if len(base) > 1 {
			return base + "-" + suffix
		}
	}
	return ticker
}
