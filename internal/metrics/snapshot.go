package metrics

import (
	"time"

	"github.com/guregu/null/v6"

	"github.com/seenimoa/companydash/pkg/models"
)

// Snapshot is the set of point-in-time valuation metrics for one request.
type Snapshot struct {
	LastPrice         float64    `json:"last_price"`
	LastPriceDate     time.Time  `json:"last_price_date"`
	SharesOutstanding null.Float `json:"shares_outstanding"`
	MarketCap         null.Float `json:"market_cap"`
	TotalDebt         float64    `json:"total_debt"`
	Cash              float64    `json:"cash"`
	EnterpriseValue   null.Float `json:"enterprise_value"`

	LTMRevenue   null.Float `json:"ltm_revenue"`
	LTMEBITDA    null.Float `json:"ltm_ebitda"`
	LTMNetIncome null.Float `json:"ltm_net_income"`

	PELTM       null.Float `json:"pe_ltm"`
	EVEBITDALTM null.Float `json:"ev_ebitda_ltm"`
	EVSalesLTM  null.Float `json:"ev_sales_ltm"`
	PENTM       null.Float `json:"pe_ntm"`

	// Four-quarter sums, only computed with IncludeLTM.
	TrailingRevenue   null.Float `json:"trailing_revenue"`
	TrailingEBITDA    null.Float `json:"trailing_ebitda"`
	TrailingNetIncome null.Float `json:"trailing_net_income"`

	Missing []string `json:"missing,omitempty"`
}

// ComputeSnapshot derives the snapshot from the price series, the income and
// cash-flow statements selected by the view toggle, the recent quarterly
// statements and the provider's company fields. The provider's own EBITDA is
// used only when the statements yield none.
//
// An empty series yields a *NoDataError and no snapshot. When some metrics
// cannot be computed the snapshot is still returned, together with a
// *PartialDataError naming them.
func (e *Engine) ComputeSnapshot(series models.PriceSeries, income, cashFlow models.Statement, trailing TrailingQuarters, fields models.CompanyFields) (*Snapshot, error) {
	last, ok := series.Last()
	if !ok {
		return nil, &NoDataError{}
	}

	s := &Snapshot{
		LastPrice:         last.Close,
		LastPriceDate:     last.Date,
		SharesOutstanding: nonZero(fields.SharesOutstanding),
		TotalDebt:         orZero(fields.TotalDebt),
		Cash:              orZero(fields.TotalCash),
	}

	switch {
	case s.SharesOutstanding.Valid:
		s.MarketCap = finite(s.SharesOutstanding.Float64 * last.Close)
	case fields.MarketCap.Valid:
		s.MarketCap = fields.MarketCap
	}
	if s.MarketCap.Valid {
		s.EnterpriseValue = null.FloatFrom(s.MarketCap.Float64 + s.TotalDebt - s.Cash)
	}

	s.LTMRevenue = e.latestValue(income, cashFlow, ItemRevenue)
	s.LTMEBITDA = e.latestValue(income, cashFlow, ItemEBITDA)
	if !s.LTMEBITDA.Valid {
		s.LTMEBITDA = fields.EBITDA
	}
	s.LTMNetIncome = e.latestValue(income, cashFlow, ItemNetIncome)

	s.PELTM = Ratio(s.MarketCap, s.LTMNetIncome)
	s.EVEBITDALTM = Ratio(s.EnterpriseValue, s.LTMEBITDA)
	s.EVSalesLTM = Ratio(s.EnterpriseValue, s.LTMRevenue)

	if e.caps.IncludeNTM {
		s.PENTM = forwardPE(s.MarketCap, s.SharesOutstanding, fields)
	}
	if e.caps.IncludeLTM {
		s.TrailingRevenue = e.trailingSum(trailing.Income, trailing.CashFlow, ItemRevenue)
		s.TrailingEBITDA = e.trailingSum(trailing.Income, trailing.CashFlow, ItemEBITDA)
		s.TrailingNetIncome = e.trailingSum(trailing.Income, trailing.CashFlow, ItemNetIncome)
	}

	s.Missing = s.missing(e.caps)
	if len(s.Missing) > 0 {
		return s, &PartialDataError{Missing: s.Missing}
	}
	return s, nil
}

// forwardPE prefers market cap over forward earnings and falls back to the
// provider's own forward P/E.
func forwardPE(marketCap, shares null.Float, fields models.CompanyFields) null.Float {
	eps := nonZero(fields.ForwardEPS)
	if eps.Valid && shares.Valid {
		if pe := Ratio(marketCap, null.FloatFrom(eps.Float64*shares.Float64)); pe.Valid {
			return pe
		}
	}
	if fields.ForwardPE.Valid {
		return fields.ForwardPE
	}
	return null.Float{}
}

func (s *Snapshot) missing(caps Capabilities) []string {
	checks := []struct {
		name string
		v    null.Float
	}{
		{"Shares Outstanding", s.SharesOutstanding},
		{"Market Cap", s.MarketCap},
		{"Enterprise Value", s.EnterpriseValue},
		{"Revenue", s.LTMRevenue},
		{"EBITDA", s.LTMEBITDA},
		{"Net Income", s.LTMNetIncome},
		{"P/E (LTM)", s.PELTM},
		{"EV/EBITDA (LTM)", s.EVEBITDALTM},
		{"EV/Revenue (LTM)", s.EVSalesLTM},
	}
	if caps.IncludeNTM {
		checks = append(checks, struct {
			name string
			v    null.Float
		}{"P/E (NTM)", s.PENTM})
	}

	var out []string
	for _, c := range checks {
		if !c.v.Valid {
			out = append(out, c.name)
		}
	}
	return out
}
