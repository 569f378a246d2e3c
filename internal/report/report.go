package report

import (
	"fmt"
	"html/template"
	"io"
	"net/url"
	"time"

	"github.com/guregu/null/v6"

	"github.com/seenimoa/companydash/internal/dashboard"
	"github.com/seenimoa/companydash/internal/metrics"
	"github.com/seenimoa/companydash/pkg/models"
	"github.com/seenimoa/companydash/pkg/utils"
)

// ════════════════════════════════════════════════════════════════════
// Page Data (flattened for template rendering)
// ════════════════════════════════════════════════════════════════════

// Page is the template model of the dashboard page.
type Page struct {
	Title       string
	Ticker      string
	Range       string
	View        string
	Ranges      []Option
	Views       []Option
	Error       string
	GeneratedAt string

	Company  string
	Currency string
	AsOf     string
	Source   string

	Metrics   []Metric
	Multiples []Metric
	Chart     template.HTML
	Overview  *Table
	Details   []Table
	Headlines []models.Headline
	Warnings  []string

	Methodology template.HTML
	ExportURL   string
}

// Option is one choice of a selector.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

// Metric is a labelled scalar value.
type Metric struct {
	Label string
	Value string
}

// Table is a formatted table with a label column.
type Table struct {
	Title   string
	Columns []string
	Rows    []TableRow
}

// TableRow is one labelled row of formatted cells.
type TableRow struct {
	Label string
	Cells []string
}

// Selection is what the user asked for, echoed back into the form.
type Selection struct {
	Ticker string
	Range  models.Range
	View   models.PeriodKind
}

// ════════════════════════════════════════════════════════════════════
// Build Page
// ════════════════════════════════════════════════════════════════════

// NewPage returns a page with only the form filled in, used for the landing
// page and for error pages.
func NewPage(sel Selection) Page {
	p := Page{
		Title:       "Company Dashboard",
		Ticker:      sel.Ticker,
		Range:       string(sel.Range),
		View:        string(sel.View),
		GeneratedAt: time.Now().UTC().Format("02 Jan 2006, 15:04 MST"),
		Methodology: Methodology(),
	}
	for _, r := range models.AllRanges() {
		p.Ranges = append(p.Ranges, Option{Value: string(r), Label: r.Label(), Selected: r == sel.Range})
	}
	for _, v := range []models.PeriodKind{models.Annual, models.Quarterly} {
		p.Views = append(p.Views, Option{Value: string(v), Label: viewLabel(v), Selected: v == sel.View})
	}
	return p
}

// BuildPage flattens a dashboard view into a page.
func BuildPage(v *dashboard.View, chart ChartConfig) Page {
	p := NewPage(Selection{Ticker: v.Ticker, Range: v.Range, View: v.Kind})
	p.Title = fmt.Sprintf("%s | Company Dashboard", v.Ticker)
	p.Company = v.Name
	p.Currency = v.Currency
	p.Source = v.Source
	p.Headlines = v.Headlines
	p.Warnings = v.Warnings
	p.ExportURL = exportURL(v)

	if s := v.Snapshot; s != nil {
		p.AsOf = s.LastPriceDate.Format("Jan 2, 2006")
		p.Metrics = SnapshotMetrics(s, v.Currency, false)
		p.Multiples = MultipleMetrics(s)
	}

	chart.Title = fmt.Sprintf("%s Share Price (%s)", v.Ticker, v.Range.Label())
	chart.Currency = v.Currency
	p.Chart = template.HTML(PriceChart(v.Prices, chart))

	if v.Overview != nil {
		t := OverviewTable(v.Overview, v.Currency)
		p.Overview = &t
	}
	for _, stmt := range v.Details {
		p.Details = append(p.Details, StatementTable(stmt))
	}
	return p
}

// SnapshotMetrics returns the labelled scalar metrics in display order, with
// amounts in cur. Compact shortens the large amounts to a magnitude suffix.
func SnapshotMetrics(s *metrics.Snapshot, cur string, compact bool) []Metric {
	amount := func(v null.Float) string {
		if compact && v.Valid {
			return utils.FormatCompact(v.Float64, cur)
		}
		return money(v, cur)
	}
	return []Metric{
		{"Share Price", utils.FormatMoney(s.LastPrice, 2, cur)},
		{"Shares Outstanding", number(s.SharesOutstanding)},
		{"Market Cap", amount(s.MarketCap)},
		{"Cash", amount(null.FloatFrom(s.Cash))},
		{"Total Debt", amount(null.FloatFrom(s.TotalDebt))},
		{"Enterprise Value", amount(s.EnterpriseValue)},
	}
}

// MultipleMetrics returns the four valuation multiples.
func MultipleMetrics(s *metrics.Snapshot) []Metric {
	return []Metric{
		{"P/E (LTM)", multiple(s.PELTM)},
		{"EV/EBITDA (LTM)", multiple(s.EVEBITDALTM)},
		{"EV/Revenue (LTM)", multiple(s.EVSalesLTM)},
		{"P/E (NTM)", multiple(s.PENTM)},
	}
}

// OverviewTable formats the overview table: currency rows in cur, margin and
// growth rows as percentages.
func OverviewTable(t *metrics.OverviewTable, cur string) Table {
	out := Table{Title: "Financial Overview (" + viewLabel(t.Kind) + ")", Columns: t.Columns}
	for _, r := range t.Rows {
		row := TableRow{Label: string(r.Name), Cells: make([]string, len(r.Values))}
		for i, v := range r.Values {
			if r.Unit == metrics.UnitPercent {
				row.Cells[i] = percent(v)
			} else {
				row.Cells[i] = money(v, cur)
			}
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

// StatementTable formats a raw statement with one column per period.
func StatementTable(stmt models.Statement) Table {
	out := Table{Title: stmt.Kind.Title()}
	for _, p := range stmt.Periods {
		out.Columns = append(out.Columns, utils.FormatDate(p.End))
	}
	for _, name := range stmt.ItemNames() {
		row := TableRow{Label: name, Cells: make([]string, len(stmt.Periods))}
		for i, p := range stmt.Periods {
			row.Cells[i] = number(p.Items[name])
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

// ════════════════════════════════════════════════════════════════════
// Render
// ════════════════════════════════════════════════════════════════════

var pageTmpl = template.Must(template.New("page").Funcs(template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("Jan 2, 2006")
	},
}).Parse(PageTemplate))

// RenderHTML writes the page.
func RenderHTML(w io.Writer, p Page) error {
	if err := pageTmpl.Execute(w, p); err != nil {
		return fmt.Errorf("executing template: %w", err)
	}
	return nil
}

// ════════════════════════════════════════════════════════════════════
// Formatting
// ════════════════════════════════════════════════════════════════════

func money(v null.Float, cur string) string {
	if !v.Valid {
		return metrics.NotAvailable
	}
	return utils.FormatMoney(v.Float64, 0, cur)
}

func number(v null.Float) string {
	if !v.Valid {
		return metrics.NotAvailable
	}
	return utils.FormatNumber(v.Float64, 0)
}

func multiple(v null.Float) string {
	if !v.Valid {
		return metrics.NotAvailable
	}
	return utils.FormatMultiple(v.Float64)
}

func percent(v null.Float) string {
	if !v.Valid {
		return metrics.NotAvailable
	}
	return utils.FormatPercent(v.Float64)
}

func viewLabel(k models.PeriodKind) string {
	if k == models.Quarterly {
		return "Quarterly"
	}
	return "Annual"
}

func exportURL(v *dashboard.View) string {
	q := url.Values{}
	q.Set("ticker", v.Ticker)
	q.Set("range", string(v.Range))
	q.Set("view", string(v.Kind))
	return "/export?" + q.Encode()
}
