package models

import (
	"fmt"
	"sort"
	"time"

	"github.com/guregu/null/v6"
)

// StatementKind identifies a financial statement.
type StatementKind string

const (
	IncomeStatement   StatementKind = "income"
	CashFlowStatement StatementKind = "cash_flow"
	BalanceSheet      StatementKind = "balance_sheet"
)

// Title is the display name of the statement kind.
func (k StatementKind) Title() string {
	switch k {
	case IncomeStatement:
		return "Income Statement"
	case CashFlowStatement:
		return "Cash Flow Statement"
	case BalanceSheet:
		return "Balance Sheet"
	}
	return string(k)
}

// LineItems maps a provider line-item name to its value. A missing key and an
// invalid value both mean the provider did not report the item.
type LineItems map[string]null.Float

// StatementPeriod is one reported period of a statement.
type StatementPeriod struct {
	End   time.Time `json:"end"`
	Items LineItems `json:"items"`
}

// Statement is a raw financial statement. Periods keep the order the provider
// returned them in.
type Statement struct {
	Kind    StatementKind     `json:"kind"`
	Period  PeriodKind        `json:"period"`
	Periods []StatementPeriod `json:"periods"`
}

// NewStatement returns an empty statement.
func NewStatement(kind StatementKind, period PeriodKind) Statement {
	return Statement{Kind: kind, Period: period}
}

// Add appends a period. A second period with the same end date is rejected.
func (s *Statement) Add(end time.Time, items LineItems) error {
	end = CalendarDate(end)
	for _, p := range s.Periods {
		if p.End.Equal(end) {
			return fmt.Errorf("duplicate %s period %s", s.Kind, end.Format(DateLayout))
		}
	}
	if items == nil {
		items = LineItems{}
	}
	s.Periods = append(s.Periods, StatementPeriod{End: end, Items: items})
	return nil
}

// Empty reports whether the statement has no periods.
func (s Statement) Empty() bool { return len(s.Periods) == 0 }

// Ascending returns a copy of the periods sorted oldest first.
func (s Statement) Ascending() []StatementPeriod {
	out := make([]StatementPeriod, len(s.Periods))
	copy(out, s.Periods)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].End.Before(out[j].End)
	})
	return out
}

// Latest returns a statement holding the n most recent periods, newest first.
func (s Statement) Latest(n int) Statement {
	asc := s.Ascending()
	if n >= 0 && len(asc) > n {
		asc = asc[len(asc)-n:]
	}
	out := Statement{Kind: s.Kind, Period: s.Period, Periods: make([]StatementPeriod, 0, len(asc))}
	for i := len(asc) - 1; i >= 0; i-- {
		out.Periods = append(out.Periods, asc[i])
	}
	return out
}

// ItemNames returns every line-item name in the statement, in first-seen
// order across periods and sorted by name within a period.
func (s Statement) ItemNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, p := range s.Periods {
		keys := make([]string, 0, len(p.Items))
		for k := range p.Items {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				names = append(names, k)
			}
		}
	}
	return names
}

// DateLayout is the plain calendar date format used for display and export.
const DateLayout = "2006-01-02"
