package yfinance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/guregu/null/v6"
	"github.com/tidwall/gjson"

	"github.com/seenimoa/companydash/internal/provider"
	"github.com/seenimoa/companydash/pkg/models"
)

// summaryModules is every quoteSummary module the dashboard reads, fetched in
// a single request.
var summaryModules = []string{
	"price",
	"summaryDetail",
	"defaultKeyStatistics",
	"financialData",
	"incomeStatementHistory",
	"incomeStatementHistoryQuarterly",
	"cashflowStatementHistory",
	"cashflowStatementHistoryQuarterly",
	"balanceSheetHistory",
	"balanceSheetHistoryQuarterly",
}

// statementPaths locates each statement list under quoteSummary.result.0.
var statementPaths = []struct {
	path   string
	kind   models.StatementKind
	period models.PeriodKind
}{
	{"incomeStatementHistory.incomeStatementHistory", models.IncomeStatement, models.Annual},
	{"incomeStatementHistoryQuarterly.incomeStatementHistory", models.IncomeStatement, models.Quarterly},
	{"cashflowStatementHistory.cashflowStatements", models.CashFlowStatement, models.Annual},
	{"cashflowStatementHistoryQuarterly.cashflowStatements", models.CashFlowStatement, models.Quarterly},
	{"balanceSheetHistory.balanceSheetStatements", models.BalanceSheet, models.Annual},
	{"balanceSheetHistoryQuarterly.balanceSheetStatements", models.BalanceSheet, models.Quarterly},
}

type fundamentals struct {
	annual    models.StatementSet
	quarterly models.StatementSet
	fields    models.CompanyFields
	warnings  []string
}

// fetchFundamentals requests all statement and key-statistic modules at once.
func (s *Source) fetchFundamentals(ctx context.Context, symbol string) (*fundamentals, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetPathParam("symbol", symbol).
		SetQueryParam("modules", strings.Join(summaryModules, ",")).
		Get("/v10/finance/quoteSummary/{symbol}")
	if err != nil {
		return nil, fmt.Errorf("quoteSummary request: %w", err)
	}
	if resp.IsError() {
		return nil, &provider.ErrHTTP{Status: resp.StatusCode(), URL: resp.Request.URL}
	}
	body := resp.Body()
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("parse quoteSummary: invalid JSON")
	}
	root := gjson.ParseBytes(body)
	if e := root.Get("quoteSummary.error"); e.Exists() && e.Type != gjson.Null {
		return nil, fmt.Errorf("quoteSummary error %s: %s", e.Get("code").String(), e.Get("description").String())
	}
	result := root.Get("quoteSummary.result.0")
	if !result.Exists() {
		return nil, fmt.Errorf("quoteSummary returned no result")
	}
	return parseFundamentals(result), nil
}

func parseFundamentals(result gjson.Result) *fundamentals {
	f := &fundamentals{
		annual:    models.NewStatementSet(models.Annual),
		quarterly: models.NewStatementSet(models.Quarterly),
		fields:    parseFields(result),
	}
	for _, sp := range statementPaths {
		stmt, dropped := parseStatement(result.Get(sp.path), sp.kind, sp.period)
		if dropped > 0 {
			f.warnings = append(f.warnings, fmt.Sprintf("%d duplicate %s %s period(s) ignored", dropped, sp.period, sp.kind.Title()))
		}
		set := &f.annual
		if sp.period == models.Quarterly {
			set = &f.quarterly
		}
		switch sp.kind {
		case models.IncomeStatement:
			set.Income = stmt
		case models.CashFlowStatement:
			set.CashFlow = stmt
		case models.BalanceSheet:
			set.Balance = stmt
		}
	}
	return f
}

// parseStatement converts a list of Yahoo statement objects into a Statement.
// Every key except maxAge and endDate becomes a line item; items without a
// numeric raw value are kept as unknown. Periods repeating an end date are
// dropped and counted.
func parseStatement(list gjson.Result, kind models.StatementKind, period models.PeriodKind) (models.Statement, int) {
	stmt := models.NewStatement(kind, period)
	dropped := 0
	list.ForEach(func(_, p gjson.Result) bool {
		end := p.Get("endDate.raw")
		if end.Type != gjson.Number {
			return true
		}
		items := models.LineItems{}
		p.ForEach(func(k, v gjson.Result) bool {
			name := k.String()
			if name == "maxAge" || name == "endDate" {
				return true
			}
			items[name] = rawValue(v)
			return true
		})
		if err := stmt.Add(time.Unix(end.Int(), 0).UTC(), items); err != nil {
			dropped++
		}
		return true
	})
	return stmt, dropped
}

func parseFields(r gjson.Result) models.CompanyFields {
	return models.CompanyFields{
		Name:              firstString(r, "price.longName", "price.shortName"),
		Currency:          firstString(r, "price.currency", "financialData.financialCurrency", "summaryDetail.currency"),
		SharesOutstanding: firstRaw(r, "defaultKeyStatistics.sharesOutstanding", "price.sharesOutstanding"),
		MarketCap:         firstRaw(r, "price.marketCap", "summaryDetail.marketCap"),
		TotalDebt:         firstRaw(r, "financialData.totalDebt"),
		TotalCash:         firstRaw(r, "financialData.totalCash"),
		ForwardPE:         firstRaw(r, "summaryDetail.forwardPE", "defaultKeyStatistics.forwardPE"),
		ForwardEPS:        firstRaw(r, "defaultKeyStatistics.forwardEps"),
		EBITDA:            firstRaw(r, "financialData.ebitda"),
	}
}

// rawValue reads Yahoo's {"raw": n, "fmt": "..."} shape. Bare numbers are
// accepted too; anything else is unknown.
func rawValue(v gjson.Result) null.Float {
	if v.Type == gjson.Number {
		return null.FloatFrom(v.Float())
	}
	if raw := v.Get("raw"); raw.Type == gjson.Number {
		return null.FloatFrom(raw.Float())
	}
	return null.Float{}
}

func firstRaw(r gjson.Result, paths ...string) null.Float {
	for _, p := range paths {
		if v := rawValue(r.Get(p)); v.Valid {
			return v
		}
	}
	return null.Float{}
}

func firstString(r gjson.Result, paths ...string) string {
	for _, p := range paths {
		if s := strings.TrimSpace(r.Get(p).String()); s != "" {
			return s
		}
	}
	return ""
}
