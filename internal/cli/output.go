package cli

import (
	"fmt"
	"io"

	"github.com/boddenberg/fintrack-bfa-go/internal/domain"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// PrintDashboard renders the dashboard as a set of tables.
func PrintDashboard(w io.Writer, d domain.Dashboard, c Currency) {
	fmt.Fprintf(w, "Dashboard for %s (%d-month window)\n\n", d.ReferenceDate, d.TrendMonths)

	printOverview(w, d, c)
	printCategories(w, d.Categories, c)
	printTrend(w, d.ExpenseTrend, d.DepositTrend, c)
	if d.Budget != nil {
		printBudget(w, *d.Budget, c)
	}

	if n := d.Expenses.Malformed + d.Deposits.Malformed; n > 0 {
		fmt.Fprintln(w, text.FgYellow.Sprintf("%d transaction(s) had unreadable amounts and were counted as zero", n))
	}
}

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(title)
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault
	return t
}

func printOverview(w io.Writer, d domain.Dashboard, c Currency) {
	t := newTable(w, "Overview")
	t.AppendHeader(table.Row{"", "Window", "This month", "Last month", "Change"})
	t.AppendRow(table.Row{"Expenses", c.Format(d.Expenses.Amount),
		c.Format(d.MonthExpenses.Current), c.Format(d.MonthExpenses.Previous), change(d.MonthExpenses.Change, true)})
	t.AppendRow(table.Row{"Deposits", c.Format(d.Deposits.Amount),
		c.Format(d.MonthDeposits.Current), c.Format(d.MonthDeposits.Previous), change(d.MonthDeposits.Change, false)})
	t.AppendSeparator()
	t.AppendRow(table.Row{"Net savings", signed(d.NetSavings, c), signed(d.MonthNetSavings, c), "", ""})
	t.AppendRow(table.Row{"Recurring", "", c.Format(d.RecurringExpenses), "", ""})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	t.Render()
	fmt.Fprintln(w)
}

// change colors a month-over-month percentage. Rising expenses are red,
// rising deposits green.
func change(p domain.Percent, expense bool) string {
	if p.Unbounded {
		return "new"
	}
	s := p.String() + "%"
	rising, falling := p.Value.IsPositive(), p.Value.IsNegative()
	switch {
	case rising && expense, falling && !expense:
		return text.FgRed.Sprint(s)
	case rising || falling:
		return text.FgGreen.Sprint(s)
	}
	return s
}

func signed(m domain.Money, c Currency) string {
	if m.Cents < 0 {
		return text.FgRed.Sprint(c.Format(m))
	}
	return c.Format(m)
}

func printCategories(w io.Writer, cats []domain.CategoryTotal, c Currency) {
	t := newTable(w, "Expenses by category (this month)")
	t.AppendHeader(table.Row{"Category", "Count", "Amount", "Share"})
	var total domain.Money
	count := 0
	for _, ct := range cats {
		t.AppendRow(table.Row{ct.Name, ct.Count, c.Format(ct.Amount), ct.Share.String() + "%"})
		total = total.Add(ct.Amount)
		count += ct.Count
	}
	t.AppendFooter(table.Row{text.Bold.Sprint("Total"), count, text.Bold.Sprint(c.Format(total)), ""})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	t.Render()
	fmt.Fprintln(w)
}

func printTrend(w io.Writer, expenses, deposits []domain.MonthlyTotal, c Currency) {
	byLabel := make(map[string]domain.Money, len(deposits))
	for _, m := range deposits {
		byLabel[m.Label] = m.Total
	}

	t := newTable(w, "Monthly trend")
	t.AppendHeader(table.Row{"Month", "Expenses", "Deposits", "Net"})
	for _, m := range expenses {
		dep := byLabel[m.Label]
		t.AppendRow(table.Row{m.Label, c.Format(m.Total), c.Format(dep), signed(dep.Sub(m.Total), c)})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	t.Render()
	fmt.Fprintln(w)
}

func printBudget(w io.Writer, u domain.BudgetUsage, c Currency) {
	status := string(u.Status)
	switch u.Status {
	case domain.BudgetOverBudget:
		status = text.FgRed.Sprint("OVER BUDGET")
	case domain.BudgetNearLimit:
		status = text.FgYellow.Sprint("NEAR LIMIT")
	case domain.BudgetOnTrack:
		status = text.FgGreen.Sprint("ON TRACK")
	}

	t := newTable(w, fmt.Sprintf("Budget %04d-%02d", u.Year, u.Month))
	t.AppendHeader(table.Row{"Limit", "Spent", "Remaining", "Used", "Status"})
	t.AppendRow(table.Row{c.Format(u.Limit), c.Format(u.Spent), signed(u.Remaining, c), u.Percent.String() + "%", status})
	t.Render()
	fmt.Fprintln(w)
}
