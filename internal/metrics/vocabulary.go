package metrics

import (
	"sort"
	"strings"
	"unicode"

	"github.com/guregu/null/v6"

	"github.com/seenimoa/companydash/pkg/models"
)

// Item is a canonical line item the engine knows how to look up.
type Item string

const (
	ItemRevenue           Item = "revenue"
	ItemGrossProfit       Item = "gross_profit"
	ItemEBITDA            Item = "ebitda"
	ItemEBIT              Item = "ebit"
	ItemNetIncome         Item = "net_income"
	ItemDepreciation      Item = "depreciation_amortization"
	ItemCapEx             Item = "capital_expenditures"
	ItemOperatingCashFlow Item = "operating_cash_flow"
)

// Vocabulary maps canonical items to the provider names they may appear under.
// Names are compared on lower-cased letters and digits only.
type Vocabulary map[Item][]string

// DefaultVocabulary covers Yahoo quoteSummary keys and the spelled-out names
// used by the fundamentals timeseries.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		ItemRevenue:           {"totalRevenue", "Total Revenue", "Operating Revenue", "revenue"},
		ItemGrossProfit:       {"grossProfit", "Gross Profit"},
		ItemEBITDA:            {"ebitda", "EBITDA", "Normalized EBITDA"},
		ItemEBIT:              {"ebit", "EBIT", "Operating Income", "operatingIncome"},
		ItemNetIncome:         {"netIncome", "Net Income", "Net Income Common Stockholders", "netIncomeApplicableToCommonShares"},
		ItemDepreciation:      {"depreciation", "Depreciation And Amortization", "Reconciled Depreciation"},
		ItemCapEx:             {"capitalExpenditures", "Capital Expenditure", "capex"},
		ItemOperatingCashFlow: {"totalCashFromOperatingActivities", "Operating Cash Flow", "Cash Flow From Continuing Operating Activities"},
	}
}

// Lookup returns the first valid value among the item's aliases. Exact names
// are tried first, in alias order. Only then are names compared normalized;
// when several provider names normalize alike, the lexically smallest one
// with a valid value wins.
func (v Vocabulary) Lookup(items models.LineItems, item Item) null.Float {
	if len(items) == 0 {
		return null.Float{}
	}
	for _, alias := range v[item] {
		if val, ok := items[alias]; ok && val.Valid {
			return val
		}
	}

	names := make([]string, 0, len(items))
	for name := range items {
		names = append(names, name)
	}
	sort.Strings(names)

	index := make(map[string]null.Float, len(items))
	for _, name := range names {
		val := items[name]
		key := normalizeName(name)
		if cur, ok := index[key]; ok && cur.Valid {
			continue
		}
		index[key] = val
	}
	for _, alias := range v[item] {
		if val, ok := index[normalizeName(alias)]; ok && val.Valid {
			return val
		}
	}
	return null.Float{}
}

func normalizeName(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(unicode.ToLower(r))
		}
	}
	return sb.String()
}
