package yfinance

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/seenimoa/companydash/internal/metrics"
	"github.com/seenimoa/companydash/internal/provider"
	"github.com/seenimoa/companydash/pkg/models"
)

const chartJSON = `{"chart":{"result":[{
  "meta":{"symbol":"AAPL","currency":"USD","gmtoffset":-14400,"exchangeTimezoneName":"America/New_York"},
  "timestamp":[1704205800,1704292200,1704378600],
  "indicators":{"quote":[{"close":[185.64,null,181.91]}]}
}],"error":null}}`

const summaryJSON = `{"quoteSummary":{"result":[{
  "price":{"longName":"Apple Inc.","currency":"USD","marketCap":{"raw":2850000000000,"fmt":"2.85T"}},
  "summaryDetail":{"forwardPE":{"raw":28.5,"fmt":"28.50"}},
  "defaultKeyStatistics":{"sharesOutstanding":{"raw":15204137000},"forwardEps":{"raw":7.1}},
  "financialData":{"totalDebt":{"raw":111088000000},"totalCash":{"raw":61555000000}},
  "incomeStatementHistory":{"incomeStatementHistory":[
    {"maxAge":1,"endDate":{"raw":1696032000,"fmt":"2023-09-30"},"totalRevenue":{"raw":383285000000},"netIncome":{"raw":96995000000},"ebit":{}},
    {"maxAge":1,"endDate":{"raw":1664496000,"fmt":"2022-09-30"},"totalRevenue":{"raw":394328000000},"netIncome":{"raw":99803000000}},
    {"maxAge":1,"endDate":{"raw":1664496000,"fmt":"2022-09-30"},"totalRevenue":{"raw":1}}
  ]},
  "incomeStatementHistoryQuarterly":{"incomeStatementHistory":[
    {"endDate":{"raw":1703894400},"totalRevenue":{"raw":119575000000}}
  ]},
  "cashflowStatementHistory":{"cashflowStatements":[
    {"endDate":{"raw":1696032000},"capitalExpenditures":{"raw":-10959000000}}
  ]},
  "balanceSheetHistory":{"balanceSheetStatements":[
    {"endDate":{"raw":1696032000},"totalAssets":{"raw":352583000000}}
  ]}
}],"error":null}}`

// newTestServer serves the chart and quoteSummary endpoints with the given
// handlers and returns a Source pointed at it.
func newTestServer(t *testing.T, chart, summary http.HandlerFunc) (*Source, *int) {
	t.Helper()
	calls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/v8/finance/chart/", func(w http.ResponseWriter, r *http.Request) {
		calls++
		chart(w, r)
	})
	mux.HandleFunc("/v10/finance/quoteSummary/", func(w http.ResponseWriter, r *http.Request) {
		calls++
		summary(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return New(Options{BaseURL: srv.URL, Timeout: 5 * time.Second}), &calls
}

func respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func request(ticker string) provider.Request {
	return provider.Request{Ticker: ticker, Range: models.Range1Y, View: models.Annual}
}

func TestSourceName(t *testing.T) {
	if got := New(Options{}).Name(); got != "yfinance" {
		t.Errorf("Name: got %q, want yfinance", got)
	}
}

func TestFetchParsesChartAndFundamentals(t *testing.T) {
	var gotRange, gotInterval, gotModules, gotPath string
	src, calls := newTestServer(t,
		func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotRange = r.URL.Query().Get("range")
			gotInterval = r.URL.Query().Get("interval")
			respond(http.StatusOK, chartJSON)(w, r)
		},
		func(w http.ResponseWriter, r *http.Request) {
			gotModules = r.URL.Query().Get("modules")
			respond(http.StatusOK, summaryJSON)(w, r)
		},
	)

	md, err := src.Fetch(context.Background(), request(" aapl "))
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if *calls != 2 {
		t.Errorf("HTTP calls: got %d, want 2", *calls)
	}
	if gotPath != "/v8/finance/chart/AAPL" || gotRange != "1y" || gotInterval != "1d" {
		t.Errorf("chart request: path=%q range=%q interval=%q", gotPath, gotRange, gotInterval)
	}
	for _, m := range []string{"incomeStatementHistoryQuarterly", "cashflowStatementHistory", "defaultKeyStatistics", "financialData"} {
		if !strings.Contains(gotModules, m) {
			t.Errorf("modules %q missing %s", gotModules, m)
		}
	}

	if md.Ticker != "AAPL" {
		t.Errorf("Ticker: got %q", md.Ticker)
	}
	if len(md.Prices) != 2 {
		t.Fatalf("Prices: got %d points, want 2 (null close skipped)", len(md.Prices))
	}
	if d := md.Prices[0].Date.Format(models.DateLayout); d != "2024-01-02" {
		t.Errorf("first price date: got %s, want 2024-01-02", d)
	}
	if md.Prices[1].Close != 181.91 {
		t.Errorf("last close: got %v", md.Prices[1].Close)
	}

	f := md.Fields
	if f.Name != "Apple Inc." || f.Currency != "USD" {
		t.Errorf("Fields name/currency: got %q/%q", f.Name, f.Currency)
	}
	if f.SharesOutstanding.Float64 != 15204137000 || f.MarketCap.Float64 != 2.85e12 {
		t.Errorf("Fields shares/cap: got %v/%v", f.SharesOutstanding, f.MarketCap)
	}
	if f.TotalDebt.Float64 != 111088000000 || f.TotalCash.Float64 != 61555000000 {
		t.Errorf("Fields debt/cash: got %v/%v", f.TotalDebt, f.TotalCash)
	}
	if f.ForwardPE.Float64 != 28.5 || f.ForwardEPS.Float64 != 7.1 {
		t.Errorf("Fields forward: got %v/%v", f.ForwardPE, f.ForwardEPS)
	}

	income := md.Annual.Income
	if len(income.Periods) != 2 {
		t.Fatalf("annual income periods: got %d, want 2 (duplicate date dropped)", len(income.Periods))
	}
	if v := income.Periods[1].Items["totalRevenue"]; v.Float64 != 394328000000 {
		t.Errorf("first-seen 2022 revenue kept: got %v", v)
	}
	if v, ok := income.Periods[0].Items["ebit"]; !ok || v.Valid {
		t.Errorf("empty ebit object should be present and unknown, got %v (present=%v)", v, ok)
	}
	if _, ok := income.Periods[0].Items["maxAge"]; ok {
		t.Error("maxAge should not be a line item")
	}
	if len(md.Quarterly.Income.Periods) != 1 || len(md.Annual.CashFlow.Periods) != 1 || len(md.Annual.Balance.Periods) != 1 {
		t.Error("quarterly income, cash flow and balance sheet should each have one period")
	}
	if md.Quarterly.CashFlow.Kind != models.CashFlowStatement || !md.Quarterly.CashFlow.Empty() {
		t.Error("missing quarterly cash flow should be an empty statement of the right kind")
	}
	if len(md.Warnings) != 1 || !strings.Contains(md.Warnings[0], "duplicate") {
		t.Errorf("Warnings: got %v, want one duplicate-period warning", md.Warnings)
	}
}

// ebitdaSummaryJSON follows Yahoo's layout: the income statement has ebit but
// no EBITDA or D&A line, and depreciation sits on the cash flow statement.
const ebitdaSummaryJSON = `{"quoteSummary":{"result":[{
  "price":{"longName":"Example Corp","currency":"USD"},
  "defaultKeyStatistics":{"sharesOutstanding":{"raw":10}},
  "financialData":{"ebitda":{"raw":250,"fmt":"250"}},
  "incomeStatementHistory":{"incomeStatementHistory":[
    {"maxAge":1,"endDate":{"raw":1703980800,"fmt":"2023-12-31"},"totalRevenue":{"raw":1000},"ebit":{"raw":200},"interestExpense":{"raw":-20},"netIncome":{"raw":120}}
  ]},
  "cashflowStatementHistory":{"cashflowStatements":[
    {"maxAge":1,"endDate":{"raw":1703980800,"fmt":"2023-12-31"},"netIncome":{"raw":120},"depreciation":{"raw":50},"capitalExpenditures":{"raw":-30}}
  ]}
}],"error":null}}`

func TestFetchedStatementsYieldEBITDA(t *testing.T) {
	tests := []struct {
		name    string
		summary string
	}{
		{"derived from ebit and cash flow depreciation", ebitdaSummaryJSON},
		{"provider figure when depreciation is absent", strings.Replace(ebitdaSummaryJSON, `"depreciation":{"raw":50},`, "", 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, _ := newTestServer(t, respond(http.StatusOK, chartJSON), respond(http.StatusOK, tt.summary))
			md, err := src.Fetch(context.Background(), request("EXM"))
			if err != nil {
				t.Fatalf("Fetch error: %v", err)
			}
			if md.Fields.EBITDA.Float64 != 250 {
				t.Errorf("Fields.EBITDA: got %v, want 250", md.Fields.EBITDA)
			}

			snap, _ := metrics.New(metrics.DefaultCapabilities()).ComputeSnapshot(
				md.Prices, md.Annual.Income, md.Annual.CashFlow,
				metrics.TrailingQuarters{Income: md.Quarterly.Income, CashFlow: md.Quarterly.CashFlow},
				md.Fields,
			)
			if snap == nil {
				t.Fatal("ComputeSnapshot returned no snapshot")
			}
			if !snap.LTMEBITDA.Valid || snap.LTMEBITDA.Float64 != 250 {
				t.Errorf("LTMEBITDA: got %v, want 250", snap.LTMEBITDA)
			}
			if !snap.EVEBITDALTM.Valid {
				t.Error("EV/EBITDA (LTM) should be available")
			}
			for _, m := range snap.Missing {
				if strings.Contains(m, "EBITDA") {
					t.Errorf("Missing should not name %q", m)
				}
			}
		})
	}
}

func TestFetchUnknownTicker(t *testing.T) {
	tests := []struct {
		name  string
		chart http.HandlerFunc
	}{
		{"404 with error payload", respond(http.StatusNotFound, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`)},
		{"bare 404", respond(http.StatusNotFound, `not found`)},
		{"empty result", respond(http.StatusOK, `{"chart":{"result":[],"error":null}}`)},
		{"no closes", respond(http.StatusOK, `{"chart":{"result":[{"meta":{"currency":"USD"},"timestamp":[1704205800],"indicators":{"quote":[{"close":[null]}]}}],"error":null}}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, calls := newTestServer(t, tt.chart, respond(http.StatusOK, summaryJSON))

			md, err := src.Fetch(context.Background(), request("ZZZZ"))
			if !errors.Is(err, provider.ErrTickerNotFound) {
				t.Fatalf("Fetch error: got %v, want ErrTickerNotFound", err)
			}
			if md != nil {
				t.Error("no data should be returned with an error")
			}
			if *calls != 1 {
				t.Errorf("HTTP calls: got %d, want 1 (no quoteSummary after a failed chart)", *calls)
			}
		})
	}
}

func TestFetchChartServerError(t *testing.T) {
	src, _ := newTestServer(t, respond(http.StatusServiceUnavailable, `{}`), respond(http.StatusOK, summaryJSON))

	_, err := src.Fetch(context.Background(), request("AAPL"))

	var httpErr *provider.ErrHTTP
	if !errors.As(err, &httpErr) {
		t.Fatalf("Fetch error: got %v, want *provider.ErrHTTP", err)
	}
	if httpErr.Status != http.StatusServiceUnavailable {
		t.Errorf("Status: got %d, want 503", httpErr.Status)
	}
}

func TestFetchDegradesWhenFundamentalsFail(t *testing.T) {
	src, _ := newTestServer(t, respond(http.StatusOK, chartJSON), respond(http.StatusUnauthorized, `{"finance":{"error":{"code":"Unauthorized"}}}`))

	md, err := src.Fetch(context.Background(), request("AAPL"))
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(md.Prices) != 2 {
		t.Errorf("Prices: got %d, want 2", len(md.Prices))
	}
	if !md.Annual.Income.Empty() || md.Annual.Income.Kind != models.IncomeStatement {
		t.Error("statements should be empty but typed")
	}
	if md.Fields.Currency != "USD" {
		t.Errorf("currency from chart meta: got %q", md.Fields.Currency)
	}
	if md.Fields.SharesOutstanding.Valid {
		t.Error("shares should be unknown")
	}
	if len(md.Warnings) != 1 {
		t.Errorf("Warnings: got %v, want one", md.Warnings)
	}
}

func TestFetchValidatesRequest(t *testing.T) {
	src, calls := newTestServer(t, respond(http.StatusOK, chartJSON), respond(http.StatusOK, summaryJSON))

	_, err := src.Fetch(context.Background(), provider.Request{Ticker: "", Range: models.Range1Y, View: models.Annual})

	var missing *provider.ErrMissingParam
	if !errors.As(err, &missing) {
		t.Fatalf("Fetch error: got %v, want *provider.ErrMissingParam", err)
	}
	if *calls != 0 {
		t.Errorf("HTTP calls: got %d, want 0", *calls)
	}
}

func TestFetchShareClassSymbol(t *testing.T) {
	var gotPath string
	src, _ := newTestServer(t,
		func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			respond(http.StatusOK, chartJSON)(w, r)
		},
		respond(http.StatusOK, summaryJSON),
	)

	md, err := src.Fetch(context.Background(), request("brk.b"))
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if gotPath != "/v8/finance/chart/BRK-B" {
		t.Errorf("chart path: got %q", gotPath)
	}
	if md.Ticker != "BRK.B" {
		t.Errorf("Ticker: got %q, want the user's normalized ticker", md.Ticker)
	}
}

func TestPing(t *testing.T) {
	src, _ := newTestServer(t, respond(http.StatusOK, chartJSON), respond(http.StatusOK, summaryJSON))
	if err := src.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}

	down, _ := newTestServer(t, respond(http.StatusBadGateway, ``), respond(http.StatusOK, summaryJSON))
	if err := down.Ping(context.Background()); err == nil {
		t.Error("Ping against failing server: want error")
	}
}
