package metrics

import (
	"fmt"
	"sort"
	"time"

	"github.com/guregu/null/v6"

	"github.com/seenimoa/companydash/pkg/models"
)

// RowName names a row of the financial overview table.
type RowName string

const (
	RowRevenue           RowName = "Revenue"
	RowRevenueGrowth     RowName = "YoY Revenue Growth"
	RowGrossProfit       RowName = "Gross Profit"
	RowGrossMargin       RowName = "Gross Margin"
	RowEBITDA            RowName = "EBITDA"
	RowEBITDAMargin      RowName = "EBITDA Margin"
	RowNetIncome         RowName = "Net Income"
	RowNetIncomeMargin   RowName = "Net Income Margin"
	RowCapEx             RowName = "Capital Expenditures"
	RowOperatingCashFlow RowName = "Operating Cash Flow"
	RowLTMRevenue        RowName = "LTM Revenue"
	RowLTMEBITDA         RowName = "LTM EBITDA"
)

// OverviewRows returns the fixed row order of the overview table.
func OverviewRows() []RowName {
	return []RowName{
		RowRevenue, RowRevenueGrowth,
		RowGrossProfit, RowGrossMargin,
		RowEBITDA, RowEBITDAMargin,
		RowNetIncome, RowNetIncomeMargin,
		RowCapEx, RowOperatingCashFlow,
		RowLTMRevenue, RowLTMEBITDA,
	}
}

// Unit tells the presentation layer how to format a row.
type Unit string

const (
	UnitCurrency Unit = "currency"
	UnitPercent  Unit = "percent"
)

// LTMColumn is the label of the trailing-twelve-months column.
const LTMColumn = "LTM"

// OverviewRow is one metric across all columns of the table.
type OverviewRow struct {
	Name   RowName      `json:"name"`
	Unit   Unit         `json:"unit"`
	Values []null.Float `json:"values"`
}

// OverviewTable is the multi-period financial overview.
type OverviewTable struct {
	Kind    models.PeriodKind `json:"kind"`
	Columns []string          `json:"columns"`
	Rows    []OverviewRow     `json:"rows"`
	Missing []string          `json:"missing,omitempty"`
}

// Row returns the named row.
func (t *OverviewTable) Row(name RowName) (OverviewRow, bool) {
	for _, r := range t.Rows {
		if r.Name == name {
			return r, true
		}
	}
	return OverviewRow{}, false
}

// HasLTM reports whether the last column is the LTM column.
func (t *OverviewTable) HasLTM() bool {
	return len(t.Columns) > 0 && t.Columns[len(t.Columns)-1] == LTMColumn
}

// TrailingQuarters holds the quarterly statements used for the LTM column.
type TrailingQuarters struct {
	Income   models.Statement
	CashFlow models.Statement
}

// bucketValues holds the canonical items of one period bucket.
type bucketValues map[Item]null.Float

// BuildOverviewTable reshapes the income and cash-flow statements into the
// fixed-row overview table. Every row is present regardless of what the
// provider supplied; rows with no value in any column are reported through a
// *PartialDataError returned alongside the table.
func (e *Engine) BuildOverviewTable(stmt, cashFlow models.Statement, trailing TrailingQuarters, kind models.PeriodKind) (*OverviewTable, error) {
	income := e.bucketize(stmt, cashFlow, kind, ItemRevenue, ItemGrossProfit, ItemEBITDA, ItemNetIncome)
	cash := e.bucketize(cashFlow, models.Statement{}, kind, ItemCapEx, ItemOperatingCashFlow)

	labels := unionLabels(income, cash)
	cols := make([]bucketValues, 0, len(labels)+1)
	for _, l := range labels {
		merged := bucketValues{}
		for k, v := range income[l] {
			merged[k] = v
		}
		for k, v := range cash[l] {
			merged[k] = v
		}
		cols = append(cols, merged)
	}

	columns := append([]string{}, labels...)
	ltmIdx := -1
	if e.caps.IncludeLTM {
		ltm := bucketValues{
			ItemRevenue:           e.trailingSum(trailing.Income, trailing.CashFlow, ItemRevenue),
			ItemGrossProfit:       e.trailingSum(trailing.Income, trailing.CashFlow, ItemGrossProfit),
			ItemEBITDA:            e.trailingSum(trailing.Income, trailing.CashFlow, ItemEBITDA),
			ItemNetIncome:         e.trailingSum(trailing.Income, trailing.CashFlow, ItemNetIncome),
			ItemCapEx:             e.trailingSum(trailing.CashFlow, models.Statement{}, ItemCapEx),
			ItemOperatingCashFlow: e.trailingSum(trailing.CashFlow, models.Statement{}, ItemOperatingCashFlow),
		}
		cols = append(cols, ltm)
		columns = append(columns, LTMColumn)
		ltmIdx = len(cols) - 1
	}

	t := &OverviewTable{Kind: kind, Columns: columns}
	for _, name := range OverviewRows() {
		row := OverviewRow{Name: name, Unit: UnitCurrency, Values: make([]null.Float, len(cols))}
		for i, c := range cols {
			row.Values[i] = cellValue(name, i, ltmIdx, c, cols)
		}
		switch name {
		case RowRevenueGrowth, RowGrossMargin, RowEBITDAMargin, RowNetIncomeMargin:
			row.Unit = UnitPercent
		}
		if !anyValid(row.Values) {
			t.Missing = append(t.Missing, string(name))
		}
		t.Rows = append(t.Rows, row)
	}

	if len(t.Missing) > 0 {
		return t, &PartialDataError{Missing: t.Missing}
	}
	return t, nil
}

// cellValue computes one cell. i is the column index, ltmIdx the index of the
// LTM column or -1.
func cellValue(name RowName, i, ltmIdx int, c bucketValues, cols []bucketValues) null.Float {
	isLTM := i == ltmIdx
	switch name {
	case RowRevenue:
		return c[ItemRevenue]
	case RowRevenueGrowth:
		if isLTM || i == 0 {
			return null.Float{}
		}
		return Growth(c[ItemRevenue], cols[i-1][ItemRevenue])
	case RowGrossProfit:
		return c[ItemGrossProfit]
	case RowGrossMargin:
		return Ratio(c[ItemGrossProfit], c[ItemRevenue])
	case RowEBITDA:
		return c[ItemEBITDA]
	case RowEBITDAMargin:
		return Ratio(c[ItemEBITDA], c[ItemRevenue])
	case RowNetIncome:
		return c[ItemNetIncome]
	case RowNetIncomeMargin:
		return Ratio(c[ItemNetIncome], c[ItemRevenue])
	case RowCapEx:
		return c[ItemCapEx]
	case RowOperatingCashFlow:
		return c[ItemOperatingCashFlow]
	case RowLTMRevenue:
		if isLTM {
			return c[ItemRevenue]
		}
	case RowLTMEBITDA:
		if isLTM {
			return c[ItemEBITDA]
		}
	}
	return null.Float{}
}

// bucketize groups a statement's periods into year or quarter buckets. The
// first period encountered for a bucket wins; later ones for the same bucket
// are dropped. companion supplies same-date items for EBITDA derivation.
func (e *Engine) bucketize(stmt, companion models.Statement, kind models.PeriodKind, items ...Item) map[string]bucketValues {
	out := make(map[string]bucketValues)
	for _, p := range stmt.Periods {
		label := PeriodLabel(p.End, kind)
		if _, seen := out[label]; seen {
			continue
		}
		vals := make(bucketValues, len(items))
		for _, it := range items {
			vals[it] = e.itemValue(p.Items, itemsAt(companion, p.End), it)
		}
		out[label] = vals
	}
	return out
}

// PeriodLabel returns the bucket label of a period end: the year for annual
// data, year and calendar quarter for quarterly data. Labels sort
// chronologically as strings.
func PeriodLabel(end time.Time, kind models.PeriodKind) string {
	if kind == models.Quarterly {
		return fmt.Sprintf("%d-Q%d", end.Year(), (int(end.Month())-1)/3+1)
	}
	return fmt.Sprintf("%d", end.Year())
}

func unionLabels(sets ...map[string]bucketValues) []string {
	seen := make(map[string]bool)
	var out []string
	for _, set := range sets {
		for l := range set {
			if !seen[l] {
				seen[l] = true
				out = append(out, l)
			}
		}
	}
	sort.Strings(out)
	return out
}

func anyValid(vals []null.Float) bool {
	for _, v := range vals {
		if v.Valid {
			return true
		}
	}
	return false
}
