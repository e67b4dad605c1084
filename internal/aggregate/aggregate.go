// Package aggregate computes the derived financial metrics behind the
// dashboards: totals, percentages, category breakdowns, monthly trends and
// budget usage.
//
// Every function is a pure function of its arguments. Inputs are never
// mutated, nothing is read from the clock, and no function returns an error:
// empty inputs, zero denominators and malformed amounts all degrade to
// defined values. Amounts are integer minor units throughout.
package aggregate

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/boddenberg/fintrack-bfa-go/internal/domain"

	"github.com/shopspring/decimal"
)

// UncategorizedLabel is the bucket for transactions without a category.
const UncategorizedLabel = "Uncategorized"

var hundred = decimal.NewFromInt(100)

// amountOf is the contribution of tx to any sum. Malformed and negative
// amounts contribute nothing.
func amountOf(tx domain.Transaction) int64 {
	if tx.AmountMalformed || tx.Amount.Cents < 0 {
		return 0
	}
	return tx.Amount.Cents
}

func isMalformed(tx domain.Transaction) bool {
	return tx.AmountMalformed || tx.Amount.Cents < 0
}

// SumAmounts adds up the amounts of txs. The result is independent of order
// and zero for an empty slice.
func SumAmounts(txs []domain.Transaction) domain.Money {
	var total int64
	for _, tx := range txs {
		total += amountOf(tx)
	}
	return domain.Money{Cents: total}
}

// Totals returns sum, count, malformed count and largest amount of txs.
func Totals(txs []domain.Transaction) domain.Totals {
	t := domain.Totals{Count: len(txs)}
	for _, tx := range txs {
		if isMalformed(tx) {
			t.Malformed++
			continue
		}
		t.Amount.Cents += tx.Amount.Cents
		if tx.Amount.Cents > t.Largest.Cents {
			t.Largest = tx.Amount
		}
	}
	return t
}

// NetSavings is deposits minus expenses. It may be negative.
func NetSavings(deposits, expenses domain.Money) domain.Money {
	return deposits.Sub(expenses)
}

// FilterByDateRange keeps transactions dated within [start, end], both ends
// inclusive. An inverted range yields an empty slice. Input order is kept.
func FilterByDateRange(txs []domain.Transaction, start, end domain.Date) []domain.Transaction {
	out := make([]domain.Transaction, 0)
	if start.After(end) {
		return out
	}
	for _, tx := range txs {
		if tx.Date.Before(start) || tx.Date.After(end) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// FilterByMonth keeps transactions dated in the given calendar month.
func FilterByMonth(txs []domain.Transaction, month time.Month, year int) []domain.Transaction {
	out := make([]domain.Transaction, 0)
	for _, tx := range txs {
		if tx.Date.IsZero() {
			continue
		}
		if tx.Date.Month() == month && tx.Date.Year() == year {
			out = append(out, tx)
		}
	}
	return out
}

// Recurring keeps the transactions flagged as recurring.
func Recurring(txs []domain.Transaction) []domain.Transaction {
	out := make([]domain.Transaction, 0)
	for _, tx := range txs {
		if tx.IsRecurring {
			out = append(out, tx)
		}
	}
	return out
}

// PercentOfLimit returns spent as a percentage of limit, rounded to two
// decimals. A zero limit yields 0 when nothing was spent and an unbounded
// percentage otherwise.
func PercentOfLimit(spent, limit domain.Money) domain.Percent {
	if limit.Cents == 0 {
		if spent.Cents == 0 {
			return domain.PercentOf(decimal.Zero)
		}
		return domain.UnboundedPercent()
	}
	v := decimal.NewFromInt(spent.Cents).
		Mul(hundred).
		Div(decimal.NewFromInt(limit.Cents)).
		Round(2)
	return domain.PercentOf(v)
}

// PercentChange is the change from previous to current in percent, rounded
// to two decimals. When previous is zero the result is 0 if current is also
// zero and is capped at 100 otherwise.
func PercentChange(current, previous domain.Money) decimal.Decimal {
	if previous.Cents == 0 {
		if current.Cents == 0 {
			return decimal.Zero
		}
		return hundred
	}
	return decimal.NewFromInt(current.Cents - previous.Cents).
		Mul(hundred).
		Div(decimal.NewFromInt(previous.Cents).Abs()).
		Round(2)
}

// ByCategory keys a transaction by its category name.
func ByCategory(tx domain.Transaction) string {
	return tx.Category
}

// CategoryBreakdown groups txs by key and totals each group. A blank key
// lands in UncategorizedLabel. A nil key groups by category.
func CategoryBreakdown(txs []domain.Transaction, key func(domain.Transaction) string) map[string]domain.CategoryTotal {
	if key == nil {
		key = ByCategory
	}
	out := make(map[string]domain.CategoryTotal)
	for _, tx := range txs {
		name := strings.TrimSpace(key(tx))
		if name == "" {
			name = UncategorizedLabel
		}
		entry := out[name]
		entry.Name = name
		entry.Amount.Cents += amountOf(tx)
		entry.Count++
		out[name] = entry
	}
	return out
}

// RankCategories orders a breakdown by amount descending, then by name, and
// fills in each entry's share of the grand total.
func RankCategories(breakdown map[string]domain.CategoryTotal) []domain.CategoryTotal {
	out := make([]domain.CategoryTotal, 0, len(breakdown))
	var total domain.Money
	for name, ct := range breakdown {
		ct.Name = name
		total = total.Add(ct.Amount)
		out = append(out, ct)
	}

	slices.SortFunc(out, func(a, b domain.CategoryTotal) int {
		if c := cmp.Compare(b.Amount.Cents, a.Amount.Cents); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})

	for i := range out {
		out[i].Share = PercentOfLimit(out[i].Amount, total)
	}
	return out
}

// MonthlyTrend returns exactly monthsBack monthly totals ending with ref's
// month, oldest first. Months without transactions are present with zero
// totals. monthsBack <= 0 yields an empty slice.
func MonthlyTrend(txs []domain.Transaction, monthsBack int, ref domain.Date) []domain.MonthlyTotal {
	if monthsBack <= 0 {
		return []domain.MonthlyTotal{}
	}

	out := make([]domain.MonthlyTotal, monthsBack)
	index := make(map[int]int, monthsBack)
	start := ref.AddMonths(-(monthsBack - 1))
	for i := range out {
		m := start.AddMonths(i)
		out[i] = domain.MonthlyTotal{
			Label: m.MonthLabel(),
			Year:  m.Year(),
			Month: m.Month(),
		}
		index[monthKey(m.Year(), m.Month())] = i
	}

	for _, tx := range txs {
		if tx.Date.IsZero() {
			continue
		}
		i, ok := index[monthKey(tx.Date.Year(), tx.Date.Month())]
		if !ok {
			continue
		}
		out[i].Total.Cents += amountOf(tx)
		out[i].Count++
	}
	return out
}

func monthKey(year int, month time.Month) int {
	return year*12 + int(month) - 1
}

// MonthsBetween counts the calendar months touched by [from, to], inclusive.
// It returns 0 for an inverted range.
func MonthsBetween(from, to domain.Date) int {
	if from.After(to) {
		return 0
	}
	return monthKey(to.Year(), to.Month()) - monthKey(from.Year(), from.Month()) + 1
}
