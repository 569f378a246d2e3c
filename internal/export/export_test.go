package export

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/seenimoa/companydash/internal/metrics"
	"github.com/seenimoa/companydash/pkg/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sampleInput(t *testing.T) Input {
	t.Helper()

	income := models.NewStatement(models.IncomeStatement, models.Annual)
	for i := 0; i < 7; i++ {
		items := models.LineItems{"totalRevenue": null.FloatFrom(float64(100 + i))}
		if i == 6 {
			items["netIncome"] = null.Float{}
		}
		require.NoError(t, income.Add(day(2017+i, 12, 31), items))
	}

	return Input{
		Ticker: "aapl",
		Fields: models.CompanyFields{Name: "Apple Inc.", Currency: "USD"},
		Snapshot: &metrics.Snapshot{
			LastPrice:     10.2,
			LastPriceDate: day(2024, 1, 3),
			MarketCap:     null.FloatFrom(1020),
			PELTM:         null.FloatFrom(8.5),
		},
		Prices: models.PriceSeries{
			{Date: day(2024, 1, 2), Close: 10},
			{Date: day(2024, 1, 3), Close: 10.2},
		},
		Overview: &metrics.OverviewTable{
			Kind:    models.Annual,
			Columns: []string{"2023", metrics.LTMColumn},
			Rows: []metrics.OverviewRow{
				{Name: metrics.RowRevenue, Unit: metrics.UnitCurrency, Values: []null.Float{null.FloatFrom(106), {}}},
			},
		},
		Statements: models.StatementSet{
			Income:   income,
			CashFlow: models.NewStatement(models.CashFlowStatement, models.Annual),
			Balance:  models.NewStatement(models.BalanceSheet, models.Annual),
		},
		GeneratedAt: day(2024, 1, 4),
	}
}

func open(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func value(t *testing.T, f *excelize.File, sheet, cell string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	return v
}

func TestEncodeSheetOrder(t *testing.T) {
	t.Parallel()

	data, err := Encode(sampleInput(t))
	require.NoError(t, err)

	f := open(t, data)
	assert.Equal(t, []string{
		"Summary", "Valuation", "Price History", "Financial Overview",
		"Income Statement", "Cash Flow Statement", "Balance Sheet",
	}, f.GetSheetList())
	assert.Equal(t, SheetNames(), f.GetSheetList())
}

func TestEncodeValues(t *testing.T) {
	t.Parallel()

	data, err := Encode(sampleInput(t))
	require.NoError(t, err)
	f := open(t, data)

	// Summary
	assert.Equal(t, "AAPL", value(t, f, SheetSummary, "B2"))
	assert.Equal(t, "10.2", value(t, f, SheetSummary, "B5"))
	assert.Equal(t, "2024-01-03", value(t, f, SheetSummary, "B6"))
	assert.Equal(t, NotAvailable, value(t, f, SheetSummary, "B7"), "shares outstanding")
	assert.Equal(t, "1020", value(t, f, SheetSummary, "B8"))

	// Valuation
	assert.Equal(t, "P/E (LTM)", value(t, f, SheetValuation, "A2"))
	assert.Equal(t, "8.5", value(t, f, SheetValuation, "B2"))
	assert.Equal(t, NotAvailable, value(t, f, SheetValuation, "B5"))

	// Price history dates are text.
	assert.Equal(t, "2024-01-02", value(t, f, SheetPrices, "A2"))
	assert.Equal(t, "10", value(t, f, SheetPrices, "B2"))
	typ, err := f.GetCellType(SheetPrices, "A2")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeNumber, typ)

	// Overview
	assert.Equal(t, "LTM", value(t, f, SheetOverview, "C1"))
	assert.Equal(t, "Revenue", value(t, f, SheetOverview, "A2"))
	assert.Equal(t, "106", value(t, f, SheetOverview, "B2"))
	assert.Equal(t, NotAvailable, value(t, f, SheetOverview, "C2"))
}

func TestEncodeStatementKeepsLatestFivePeriods(t *testing.T) {
	t.Parallel()

	data, err := Encode(sampleInput(t))
	require.NoError(t, err)
	f := open(t, data)

	rows, err := f.GetRows("Income Statement", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.NotEmpty(t, rows)

	assert.Equal(t, []string{"Line Item", "2023-12-31", "2022-12-31", "2021-12-31", "2020-12-31", "2019-12-31"}, rows[0])
	// netIncome only appears in the newest period, with an invalid value.
	assert.Equal(t, "netIncome", value(t, f, "Income Statement", "A2"))
	assert.Equal(t, NotAvailable, value(t, f, "Income Statement", "B2"))
	assert.Equal(t, NotAvailable, value(t, f, "Income Statement", "C2"))
	assert.Equal(t, "totalRevenue", value(t, f, "Income Statement", "A3"))
	assert.Equal(t, "106", value(t, f, "Income Statement", "B3"))
	assert.Equal(t, "102", value(t, f, "Income Statement", "F3"))
}

func TestEncodeCustomPeriods(t *testing.T) {
	t.Parallel()

	in := sampleInput(t)
	in.Periods = 2
	data, err := Encode(in)
	require.NoError(t, err)

	rows, err := open(t, data).GetRows("Income Statement")
	require.NoError(t, err)
	assert.Len(t, rows[0], 3)
}

func TestEncodeEmptyStatements(t *testing.T) {
	t.Parallel()

	in := sampleInput(t)
	in.Statements = models.NewStatementSet(models.Quarterly)
	in.Overview = nil
	data, err := Encode(in)
	require.NoError(t, err)

	f := open(t, data)
	assert.Equal(t, "Line Item", value(t, f, "Balance Sheet", "A1"))
	assert.Equal(t, "", value(t, f, "Balance Sheet", "A2"))
	assert.Equal(t, "Metric", value(t, f, SheetOverview, "A1"))
}

func TestEncodeWithoutSnapshot(t *testing.T) {
	t.Parallel()

	in := sampleInput(t)
	in.Snapshot = nil
	data, err := Encode(in)

	require.Error(t, err)
	assert.Nil(t, data)
	var ee *ExportError
	assert.True(t, errors.As(err, &ee))
}

func TestFileName(t *testing.T) {
	t.Parallel()

	got := FileName(" brk-b ", day(2024, 3, 9))
	assert.Equal(t, "BRK-B_financials_2024-03-09.xlsx", got)
}

func TestSheetNameTruncation(t *testing.T) {
	t.Parallel()

	long := "A very long sheet name that exceeds the limit"
	assert.Len(t, []rune(sheetName(long)), maxSheetName)
	assert.Equal(t, "Balance Sheet", sheetName("Balance Sheet"))
}

func TestExportErrorUnwrap(t *testing.T) {
	t.Parallel()

	inner := errors.New("disk full")
	err := &ExportError{Op: "write workbook", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "export: write workbook: disk full", err.Error())
}
