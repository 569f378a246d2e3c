package metrics

import (
	"fmt"
	"strings"
)

// NoDataError means there is no price history, so nothing can be computed.
type NoDataError struct {
	Ticker string
}

func (e *NoDataError) Error() string {
	if e.Ticker == "" {
		return "no data available for this ticker"
	}
	return fmt.Sprintf("no data available for this ticker: %s", e.Ticker)
}

// PartialDataError lists the fields or rows that degraded to not available.
// It is always returned alongside a usable result.
type PartialDataError struct {
	Missing []string
}

func (e *PartialDataError) Error() string {
	return "partial data, not available: " + strings.Join(e.Missing, ", ")
}

// NotAvailable is the marker shown in place of a value that cannot be computed.
const NotAvailable = "N/A"
