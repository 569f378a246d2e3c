package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/seenimoa/companydash/internal/dashboard"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245")).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	labelStyle   = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// TextOptions selects what RenderText includes.
type TextOptions struct {
	Details   bool // raw statements
	Headlines bool
}

// RenderText renders the view as lipgloss tables for the terminal.
func RenderText(v *dashboard.View, opts TextOptions) string {
	var sb strings.Builder

	heading := v.Ticker
	if v.Name != "" {
		heading = fmt.Sprintf("%s · %s", v.Ticker, v.Name)
	}
	sb.WriteString(titleStyle.Render(heading) + "\n")
	if s := v.Snapshot; s != nil {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("Last close %s · range %s · %s view",
			s.LastPriceDate.Format("Jan 2, 2006"), v.Range, v.Kind)) + "\n")
	}
	for _, w := range v.Warnings {
		sb.WriteString(warningStyle.Render("! "+w) + "\n")
	}
	sb.WriteString("\n")

	if s := v.Snapshot; s != nil {
		sb.WriteString(metricTable(append(SnapshotMetrics(s, v.Currency, true), MultipleMetrics(s)...)) + "\n\n")
	}
	if v.Overview != nil {
		sb.WriteString(renderTable(OverviewTable(v.Overview, v.Currency)) + "\n\n")
	}
	if opts.Details {
		for _, stmt := range v.Details {
			sb.WriteString(renderTable(StatementTable(stmt)) + "\n\n")
		}
	}
	if opts.Headlines && len(v.Headlines) > 0 {
		sb.WriteString(titleStyle.Render("Recent Headlines") + "\n")
		for _, h := range v.Headlines {
			sb.WriteString("  • " + h.Title + "\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n") + "\n"
}

func metricTable(ms []Metric) string {
	rows := make([][]string, len(ms))
	for i, m := range ms {
		rows[i] = []string{m.Label, m.Value}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Metric", "Value").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 0 {
				return labelStyle
			}
			return cellStyle.Align(lipgloss.Right)
		}).
		String()
}

func renderTable(t Table) string {
	headers := append([]string{""}, t.Columns...)
	rows := make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = append([]string{r.Label}, r.Cells...)
	}
	if len(rows) == 0 {
		return titleStyle.Render(t.Title) + "\n" + dimStyle.Render("Not available.")
	}
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(dimStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return labelStyle
			default:
				return cellStyle.Align(lipgloss.Right)
			}
		})
	return titleStyle.Render(t.Title) + "\n" + tbl.String()
}
