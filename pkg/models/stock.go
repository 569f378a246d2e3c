// Package models defines the core data structures used throughout companydash.
package models

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/guregu/null/v6"
)

// PricePoint is one daily close.
type PricePoint struct {
	Date  time.Time `json:"date"` // calendar date, midnight UTC
	Close float64   `json:"close"`
}

// PriceSeries is an ascending daily close series with strictly increasing dates.
type PriceSeries []PricePoint

// NewPriceSeries sorts points by date, truncates them to calendar dates and
// drops non-finite closes and repeated dates (the first point for a date wins).
func NewPriceSeries(points []PricePoint) PriceSeries {
	clean := make([]PricePoint, 0, len(points))
	for _, p := range points {
		if math.IsNaN(p.Close) || math.IsInf(p.Close, 0) {
			continue
		}
		clean = append(clean, PricePoint{Date: CalendarDate(p.Date), Close: p.Close})
	}
	sort.SliceStable(clean, func(i, j int) bool {
		return clean[i].Date.Before(clean[j].Date)
	})

	series := make(PriceSeries, 0, len(clean))
	for _, p := range clean {
		if n := len(series); n > 0 && series[n-1].Date.Equal(p.Date) {
			continue
		}
		series = append(series, p)
	}
	return series
}

// Last returns the most recent point.
func (s PriceSeries) Last() (PricePoint, bool) {
	if len(s) == 0 {
		return PricePoint{}, false
	}
	return s[len(s)-1], true
}

// Closes returns the close prices in series order.
func (s PriceSeries) Closes() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Close
	}
	return out
}

// CalendarDate strips the clock and zone from t, keeping its calendar day.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CompanyFields is the point-in-time attribute record returned by the provider.
// Every numeric field may be absent.
type CompanyFields struct {
	Name              string     `json:"name,omitempty"`
	Currency          string     `json:"currency,omitempty"`
	SharesOutstanding null.Float `json:"shares_outstanding"`
	MarketCap         null.Float `json:"market_cap"`
	TotalDebt         null.Float `json:"total_debt"`
	TotalCash         null.Float `json:"total_cash"`
	ForwardPE         null.Float `json:"forward_pe"`
	ForwardEPS        null.Float `json:"forward_eps"`
	// EBITDA is the provider's own trailing figure, used when the statements
	// cannot produce one.
	EBITDA null.Float `json:"ebitda"`
}

// StatementSet groups the three statement kinds for one cadence.
type StatementSet struct {
	Income   Statement `json:"income"`
	CashFlow Statement `json:"cash_flow"`
	Balance  Statement `json:"balance"`
}

// NewStatementSet returns a set of empty statements for one cadence.
func NewStatementSet(period PeriodKind) StatementSet {
	return StatementSet{
		Income:   NewStatement(IncomeStatement, period),
		CashFlow: NewStatement(CashFlowStatement, period),
		Balance:  NewStatement(BalanceSheet, period),
	}
}

// ByKind returns the statement of the given kind.
func (s StatementSet) ByKind(kind StatementKind) Statement {
	switch kind {
	case CashFlowStatement:
		return s.CashFlow
	case BalanceSheet:
		return s.Balance
	default:
		return s.Income
	}
}

// MarketData is everything fetched from the provider for one ticker and range.
type MarketData struct {
	Ticker    string        `json:"ticker"`
	Fields    CompanyFields `json:"fields"`
	Prices    PriceSeries   `json:"prices"`
	Annual    StatementSet  `json:"annual"`
	Quarterly StatementSet  `json:"quarterly"`
	Warnings  []string      `json:"warnings,omitempty"`
	FetchedAt time.Time     `json:"fetched_at"`
}

// Statements returns the statement set for the given cadence.
func (m *MarketData) Statements(kind PeriodKind) StatementSet {
	if kind == Quarterly {
		return m.Quarterly
	}
	return m.Annual
}

// Range is the historical price window offered to the user.
type Range string

const (
	Range1Y  Range = "1y"
	Range5Y  Range = "5y"
	Range10Y Range = "10y"
	RangeMax Range = "max"
)

// AllRanges returns the selectable ranges in display order.
func AllRanges() []Range {
	return []Range{Range1Y, Range5Y, Range10Y, RangeMax}
}

// Label is the human-readable name of the range.
func (r Range) Label() string {
	switch r {
	case Range1Y:
		return "1 Year"
	case Range5Y:
		return "5 Years"
	case Range10Y:
		return "10 Years"
	case RangeMax:
		return "Max"
	}
	return string(r)
}

// ParseRange parses a range selector value.
func ParseRange(s string) (Range, error) {
	r := Range(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllRanges() {
		if r == known {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown range %q (want 1y, 5y, 10y or max)", s)
}

// PeriodKind is the annual/quarterly view toggle.
type PeriodKind string

const (
	Annual    PeriodKind = "annual"
	Quarterly PeriodKind = "quarterly"
)

// ParsePeriodKind parses a view toggle value.
func ParsePeriodKind(s string) (PeriodKind, error) {
	switch PeriodKind(strings.ToLower(strings.TrimSpace(s))) {
	case Annual:
		return Annual, nil
	case Quarterly:
		return Quarterly, nil
	}
	return "", fmt.Errorf("unknown view %q (want annual or quarterly)", s)
}
