// Package export encodes a dashboard view as a multi-sheet .xlsx workbook.
package export

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/guregu/null/v6"
	"github.com/xuri/excelize/v2"

	"github.com/seenimoa/companydash/internal/metrics"
	"github.com/seenimoa/companydash/pkg/models"
)

// NotAvailable is written for every value the engine could not compute.
const NotAvailable = metrics.NotAvailable

// DefaultPeriods is the number of statement periods written per sheet.
const DefaultPeriods = 5

// maxSheetName is the Excel limit on sheet name length.
const maxSheetName = 31

// Sheet names in workbook order.
const (
	SheetSummary   = "Summary"
	SheetValuation = "Valuation"
	SheetPrices    = "Price History"
	SheetOverview  = "Financial Overview"
)

// Input is everything the encoder writes.
type Input struct {
	Ticker      string
	Fields      models.CompanyFields
	Snapshot    *metrics.Snapshot
	Prices      models.PriceSeries
	Overview    *metrics.OverviewTable
	Statements  models.StatementSet
	Periods     int // statement periods per sheet; DefaultPeriods when <= 0
	GeneratedAt time.Time
}

// ExportError reports a workbook that could not be produced.
type ExportError struct {
	Op  string
	Err error
}

func (e *ExportError) Error() string {
	if e.Err == nil {
		return "export: " + e.Op
	}
	return fmt.Sprintf("export: %s: %v", e.Op, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

// FileName returns the download name for a workbook built on the given day.
func FileName(ticker string, today time.Time) string {
	return fmt.Sprintf("%s_financials_%s.xlsx", strings.ToUpper(strings.TrimSpace(ticker)), today.Format(models.DateLayout))
}

// SheetNames returns the sheet names Encode writes, in order.
func SheetNames() []string {
	names := []string{SheetSummary, SheetValuation, SheetPrices, SheetOverview}
	for _, k := range statementKinds {
		names = append(names, sheetName(k.Title()))
	}
	return names
}

var statementKinds = []models.StatementKind{
	models.IncomeStatement,
	models.CashFlowStatement,
	models.BalanceSheet,
}

// Encode builds the workbook. It never returns bytes together with an error.
func Encode(in Input) ([]byte, error) {
	if in.Snapshot == nil {
		return nil, &ExportError{Op: "no snapshot to export"}
	}
	if in.Periods <= 0 {
		in.Periods = DefaultPeriods
	}

	f := excelize.NewFile()
	defer f.Close()

	w := &writer{f: f}
	w.props(in)
	w.summary(in)
	w.valuation(in.Snapshot)
	w.prices(in.Prices)
	w.overview(in.Overview)
	for _, k := range statementKinds {
		w.statement(in.Statements.ByKind(k).Latest(in.Periods))
	}
	if w.err != nil {
		return nil, w.err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, &ExportError{Op: "write workbook", Err: err}
	}
	return buf.Bytes(), nil
}

// writer accumulates the first excelize failure so the sheet builders stay flat.
type writer struct {
	f     *excelize.File
	err   error
	first bool
}

func (w *writer) fail(op string, err error) {
	if w.err == nil && err != nil {
		w.err = &ExportError{Op: op, Err: err}
	}
}

// sheet creates the next sheet. The workbook's default sheet is renamed for
// the first one so no empty sheet is left behind.
func (w *writer) sheet(name string) string {
	name = sheetName(name)
	if w.err != nil {
		return name
	}
	if !w.first {
		w.first = true
		w.fail("rename sheet "+name, w.f.SetSheetName(w.f.GetSheetName(0), name))
		return name
	}
	_, err := w.f.NewSheet(name)
	w.fail("create sheet "+name, err)
	return name
}

func (w *writer) row(sheet string, row int, values ...any) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		w.fail("address row", err)
		return
	}
	w.fail("write "+sheet+" "+cell, w.f.SetSheetRow(sheet, cell, &values))
}

func (w *writer) props(in Input) {
	created := in.GeneratedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	w.fail("set properties", w.f.SetDocProps(&excelize.DocProperties{
		Title:       strings.ToUpper(in.Ticker) + " financials",
		Creator:     "companydash",
		Created:     created.Format(time.RFC3339),
		Identifier:  uuid.NewString(),
		Description: "Company dashboard export",
	}))
}

func (w *writer) summary(in Input) {
	s := in.Snapshot
	sh := w.sheet(SheetSummary)
	rows := [][]any{
		{"Metric", "Value"},
		{"Ticker", strings.ToUpper(in.Ticker)},
		{"Company", text(in.Fields.Name)},
		{"Currency", text(in.Fields.Currency)},
		{"Share Price", s.LastPrice},
		{"Price Date", s.LastPriceDate.Format(models.DateLayout)},
		{"Shares Outstanding", cell(s.SharesOutstanding)},
		{"Market Cap", cell(s.MarketCap)},
		{"Total Debt", s.TotalDebt},
		{"Cash", s.Cash},
		{"Enterprise Value", cell(s.EnterpriseValue)},
		{"LTM Revenue", cell(s.LTMRevenue)},
		{"LTM EBITDA", cell(s.LTMEBITDA)},
		{"LTM Net Income", cell(s.LTMNetIncome)},
		{"Trailing 4Q Revenue", cell(s.TrailingRevenue)},
		{"Trailing 4Q EBITDA", cell(s.TrailingEBITDA)},
		{"Trailing 4Q Net Income", cell(s.TrailingNetIncome)},
	}
	for i, r := range rows {
		w.row(sh, i+1, r...)
	}
}

func (w *writer) valuation(s *metrics.Snapshot) {
	sh := w.sheet(SheetValuation)
	w.row(sh, 1, "Multiple", "Value")
	w.row(sh, 2, "P/E (LTM)", cell(s.PELTM))
	w.row(sh, 3, "EV/EBITDA (LTM)", cell(s.EVEBITDALTM))
	w.row(sh, 4, "EV/Revenue (LTM)", cell(s.EVSalesLTM))
	w.row(sh, 5, "P/E (NTM)", cell(s.PENTM))
}

// prices writes dates as YYYY-MM-DD text so spreadsheet locales cannot
// reinterpret them.
func (w *writer) prices(series models.PriceSeries) {
	sh := w.sheet(SheetPrices)
	w.row(sh, 1, "Date", "Close")
	for i, p := range series {
		w.row(sh, i+2, p.Date.Format(models.DateLayout), p.Close)
	}
}

func (w *writer) overview(t *metrics.OverviewTable) {
	sh := w.sheet(SheetOverview)
	if t == nil {
		w.row(sh, 1, "Metric")
		return
	}
	header := make([]any, 0, len(t.Columns)+1)
	header = append(header, "Metric")
	for _, c := range t.Columns {
		header = append(header, c)
	}
	w.row(sh, 1, header...)
	for i, r := range t.Rows {
		vals := make([]any, 0, len(r.Values)+1)
		vals = append(vals, string(r.Name))
		for _, v := range r.Values {
			vals = append(vals, cell(v))
		}
		w.row(sh, i+2, vals...)
	}
}

// statement writes one column per period (newest first) and one row per line
// item.
func (w *writer) statement(stmt models.Statement) {
	sh := w.sheet(stmt.Kind.Title())
	header := make([]any, 0, len(stmt.Periods)+1)
	header = append(header, "Line Item")
	for _, p := range stmt.Periods {
		header = append(header, p.End.Format(models.DateLayout))
	}
	w.row(sh, 1, header...)
	for i, name := range stmt.ItemNames() {
		vals := make([]any, 0, len(stmt.Periods)+1)
		vals = append(vals, name)
		for _, p := range stmt.Periods {
			vals = append(vals, cell(p.Items[name]))
		}
		w.row(sh, i+2, vals...)
	}
}

func cell(v null.Float) any {
	if !v.Valid {
		return NotAvailable
	}
	return v.Float64
}

func text(s string) string {
	if strings.TrimSpace(s) == "" {
		return NotAvailable
	}
	return s
}

func sheetName(name string) string {
	if utf8.RuneCountInString(name) <= maxSheetName {
		return name
	}
	return string([]rune(name)[:maxSheetName])
}
