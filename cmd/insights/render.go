package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/finance-tracker/insights/internal/domain/entity"
	"github.com/finance-tracker/insights/internal/domain/ledger"
	"github.com/finance-tracker/insights/internal/domain/valueobject"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	totalStyle  = lipgloss.NewStyle().Bold(true)
	overStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

var hundred = decimal.NewFromInt(100)

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func percent(d decimal.Decimal) string {
	return d.StringFixed(1) + "%"
}

func monthList(months []entity.MonthKey) string {
	parts := make([]string, len(months))
	for i, m := range months {
		parts[i] = m.String()
	}
	return strings.Join(parts, ", ")
}

// table writes tab separated rows aligned in columns.
type table struct {
	w   *tabwriter.Writer
	err error
}

func newTable(out io.Writer, headers ...string) *table {
	t := &table{w: tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)}
	styled := make([]string, len(headers))
	rule := make([]string, len(headers))
	for i, h := range headers {
		styled[i] = headerStyle.Render(h)
		rule[i] = strings.Repeat("─", len(h))
	}
	t.row(styled...)
	t.row(rule...)
	return t
}

func (t *table) row(cells ...string) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintln(t.w, strings.Join(cells, "\t"))
}

func (t *table) flush() error {
	if t.err != nil {
		return fmt.Errorf("failed to write table: %w", t.err)
	}
	if err := t.w.Flush(); err != nil {
		return fmt.Errorf("failed to flush table writer: %w", err)
	}
	return nil
}

func renderReport(out io.Writer, q ledger.Query, focus entity.MonthKey, metric ledger.Metric, result *valueobject.Insights) error {
	if result == nil {
		return fmt.Errorf("no result")
	}
	fmt.Fprintln(out, titleStyle.Render("Insights for "+monthList(q.Months)+" ("+q.Scope.String()+")"))
	fmt.Fprintln(out)

	if err := renderSummary(out, result.Summary); err != nil {
		return err
	}
	fmt.Fprintln(out)
	if err := renderChart(out, result.Chart); err != nil {
		return err
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, titleStyle.Render("Balances for "+focus.String()))
	if err := renderBalances(out, result.Balances); err != nil {
		return err
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, titleStyle.Render("Cumulative "+string(metric)+" for "+focus.String()))
	return renderCumulative(out, result.Cumulative)
}

func renderSummary(out io.Writer, s valueobject.Summary) error {
	t := newTable(out, "Transactions", "Budget", "Spent", "Income", "Cash out", "Spent - payments", "Spent - income")
	t.row(
		fmt.Sprint(s.TransactionCount),
		money(s.TotalBudget),
		money(s.TotalSpent),
		money(s.Income),
		money(s.CashOut),
		money(s.SpendMinusPayments),
		money(s.SpendMinusIncome),
	)
	return t.flush()
}

func renderChart(out io.Writer, rows []valueobject.ChartData) error {
	if len(rows) == 0 {
		fmt.Fprintln(out, "No categories to chart.")
		return nil
	}
	t := newTable(out, "Category", "Budget", "Expenses", "Income", "Net", "Used", "Chart")
	for _, row := range rows {
		name := ""
		if row.Category != nil {
			name = row.Category.Title
		}
		if row.IsGroupTotal() {
			name = totalStyle.Render(row.Group.Title + " total")
		}
		used := percent(row.ActualPercent)
		if row.BudgetAmount.IsPositive() && row.ActualPercent.GreaterThan(hundred) {
			used = overStyle.Render(used)
		}
		t.row(
			name,
			money(row.BudgetAmount),
			money(row.Expenses),
			money(row.Income),
			money(row.ExpensesMinusIncome),
			used,
			bar(row.ChartPercent),
		)
	}
	return t.flush()
}

// bar draws a ten cell gauge of a percentage clamped to [0, 100].
func bar(p decimal.Decimal) string {
	filled := int(p.Div(decimal.NewFromInt(10)).IntPart())
	if filled < 0 {
		filled = 0
	}
	if filled > 10 {
		filled = 10
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", 10-filled)
}

func renderBalances(out io.Writer, balances []valueobject.DayBalance) error {
	t := newTable(out, "Date", "Balance")
	for _, b := range balances {
		t.row(b.Date.Format(time.DateOnly), money(b.Total))
	}
	return t.flush()
}

func renderCumulative(out io.Writer, totals []valueobject.CumulativeTotal) error {
	if len(totals) == 0 {
		fmt.Fprintln(out, "No activity.")
		return nil
	}
	t := newTable(out, "Date", "Running total")
	for _, ct := range totals {
		t.row(ct.Date.Format(time.DateOnly), money(ct.RunningTotal))
	}
	return t.flush()
}
