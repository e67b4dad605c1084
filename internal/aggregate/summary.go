package aggregate

import (
	"github.com/boddenberg/fintrack-bfa-go/internal/domain"
)

// Input is everything Summarize needs. Expenses and Deposits may cover a
// wider window than the trend; only the trend window is totalled.
type Input struct {
	Expenses      []domain.Transaction
	Deposits      []domain.Transaction
	Budget        *domain.Budget
	ReferenceDate domain.Date
	TrendMonths   int

	// CategoryKey groups expenses. Nil groups by category name.
	CategoryKey func(domain.Transaction) string
}

// Summarize builds the dashboard for in.ReferenceDate.
func Summarize(in Input) domain.Dashboard {
	ref := in.ReferenceDate
	prev := ref.AddMonths(-1)

	windowFrom, windowTo := ref.MonthStart(), ref.MonthEnd()
	if in.TrendMonths > 1 {
		windowFrom = ref.AddMonths(-(in.TrendMonths - 1)).MonthStart()
	}
	expenses := FilterByDateRange(in.Expenses, windowFrom, windowTo)
	deposits := FilterByDateRange(in.Deposits, windowFrom, windowTo)

	curExp := FilterByMonth(in.Expenses, ref.Month(), ref.Year())
	prevExp := FilterByMonth(in.Expenses, prev.Month(), prev.Year())
	curDep := FilterByMonth(in.Deposits, ref.Month(), ref.Year())
	prevDep := FilterByMonth(in.Deposits, prev.Month(), prev.Year())

	d := domain.Dashboard{
		ReferenceDate:     ref,
		TrendMonths:       max(in.TrendMonths, 0),
		Expenses:          Totals(expenses),
		Deposits:          Totals(deposits),
		MonthExpenses:     compareMonths(curExp, prevExp),
		MonthDeposits:     compareMonths(curDep, prevDep),
		RecurringExpenses: SumAmounts(Recurring(curExp)),
		Categories:        RankCategories(CategoryBreakdown(curExp, in.CategoryKey)),
		ExpenseTrend:      MonthlyTrend(in.Expenses, in.TrendMonths, ref),
		DepositTrend:      MonthlyTrend(in.Deposits, in.TrendMonths, ref),
	}
	d.NetSavings = NetSavings(d.Deposits.Amount, d.Expenses.Amount)
	d.MonthNetSavings = NetSavings(d.MonthDeposits.Current, d.MonthExpenses.Current)

	if in.Budget != nil {
		usage := BudgetUsageFor(*in.Budget)
		d.Budget = &usage
	}
	return d
}

func compareMonths(current, previous []domain.Transaction) domain.MonthComparison {
	c := domain.MonthComparison{
		Current:  SumAmounts(current),
		Previous: SumAmounts(previous),
	}
	c.Change = domain.PercentOf(PercentChange(c.Current, c.Previous))
	return c
}

// SummarizeRange totals one kind of transaction over [from, to].
func SummarizeRange(txs []domain.Transaction, kind domain.Kind, from, to domain.Date) domain.Summary {
	in := FilterByDateRange(txs, from, to)
	return domain.Summary{
		Kind:       kind,
		From:       from,
		To:         to,
		Totals:     Totals(in),
		Categories: RankCategories(CategoryBreakdown(in, ByCategory)),
	}
}

// ReportInput is the source data of a range report.
type ReportInput struct {
	Expenses []domain.Transaction
	Deposits []domain.Transaction
	From     domain.Date
	To       domain.Date
}

// BuildReport aggregates the transactions dated within [From, To]. The
// identity fields (ID, UserID, Name, GeneratedAt) are left for the caller.
func BuildReport(in ReportInput) domain.Report {
	expenses := FilterByDateRange(in.Expenses, in.From, in.To)
	deposits := FilterByDateRange(in.Deposits, in.From, in.To)
	months := MonthsBetween(in.From, in.To)

	r := domain.Report{
		From:              in.From,
		To:                in.To,
		Expenses:          Totals(expenses),
		Deposits:          Totals(deposits),
		RecurringExpenses: SumAmounts(Recurring(expenses)),
		Categories:        RankCategories(CategoryBreakdown(expenses, ByCategory)),
		DepositTypes:      RankCategories(CategoryBreakdown(deposits, ByCategory)),
		ExpenseTrend:      MonthlyTrend(expenses, months, in.To),
		DepositTrend:      MonthlyTrend(deposits, months, in.To),
	}
	r.NetSavings = NetSavings(r.Deposits.Amount, r.Expenses.Amount)
	return r
}
