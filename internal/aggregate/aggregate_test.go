package aggregate_test

import (
	"encoding/json"
	"slices"
	"testing"
	"time"

	"github.com/boddenberg/fintrack-bfa-go/internal/aggregate"
	"github.com/boddenberg/fintrack-bfa-go/internal/domain"

	"github.com/shopspring/decimal"
)

func expense(id string, cents int64, date domain.Date, category string) domain.Transaction {
	return domain.Transaction{
		ID:       id,
		Kind:     domain.KindExpense,
		Amount:   domain.Cents(cents),
		Date:     date,
		Category: category,
	}
}

func day(y int, m time.Month, d int) domain.Date {
	return domain.NewDate(y, m, d)
}

func sample() []domain.Transaction {
	return []domain.Transaction{
		expense("1", 1000, day(2024, 1, 3), "Food"),
		expense("2", 2000, day(2024, 1, 20), "Food"),
		expense("3", 500, day(2024, 2, 1), ""),
		expense("4", 12000, day(2024, 3, 31), "Rent"),
		expense("5", 750, day(2023, 12, 31), "Transport"),
	}
}

func TestSumAmounts_Empty(t *testing.T) {
	if got := aggregate.SumAmounts(nil); got.Cents != 0 {
		t.Errorf("expected 0, got %d", got.Cents)
	}
	if got := aggregate.SumAmounts([]domain.Transaction{}); got.Cents != 0 {
		t.Errorf("expected 0, got %d", got.Cents)
	}
}

func TestSumAmounts_OrderIndependent(t *testing.T) {
	txs := sample()
	reversed := slices.Clone(txs)
	slices.Reverse(reversed)

	a, b := aggregate.SumAmounts(txs), aggregate.SumAmounts(reversed)
	if a != b {
		t.Errorf("expected equal sums, got %d and %d", a.Cents, b.Cents)
	}
	if a.Cents != 16250 {
		t.Errorf("expected 16250, got %d", a.Cents)
	}
}

func TestSumAmounts_MalformedCountsAsZero(t *testing.T) {
	txs := []domain.Transaction{
		expense("1", 1000, day(2024, 1, 1), "Food"),
		{ID: "2", Kind: domain.KindExpense, AmountMalformed: true},
		expense("3", -400, day(2024, 1, 2), "Food"),
	}

	if got := aggregate.SumAmounts(txs); got.Cents != 1000 {
		t.Errorf("expected 1000, got %d", got.Cents)
	}

	totals := aggregate.Totals(txs)
	if totals.Count != 3 || totals.Malformed != 2 {
		t.Errorf("expected count 3 and 2 malformed, got %d and %d", totals.Count, totals.Malformed)
	}
	if totals.Largest.Cents != 1000 {
		t.Errorf("expected largest 1000, got %d", totals.Largest.Cents)
	}
}

func TestFilterByDateRange_Inclusive(t *testing.T) {
	got := aggregate.FilterByDateRange(sample(), day(2024, 1, 3), day(2024, 2, 1))

	ids := make([]string, 0, len(got))
	for _, tx := range got {
		ids = append(ids, tx.ID)
	}
	if !slices.Equal(ids, []string{"1", "2", "3"}) {
		t.Errorf("expected [1 2 3], got %v", ids)
	}
}

func TestFilterByDateRange_InvertedIsEmpty(t *testing.T) {
	got := aggregate.FilterByDateRange(sample(), day(2024, 3, 1), day(2024, 1, 1))
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", got)
	}
}

func TestFilterByMonth(t *testing.T) {
	got := aggregate.FilterByMonth(sample(), time.January, 2024)
	if len(got) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(got))
	}

	if got := aggregate.FilterByMonth(sample(), time.December, 2024); len(got) != 0 {
		t.Errorf("expected year to be matched too, got %d", len(got))
	}
}

func TestPercentOfLimit(t *testing.T) {
	tests := []struct {
		name      string
		spent     int64
		limit     int64
		want      string
		unbounded bool
	}{
		{"half", 5000, 10000, "50", false},
		{"rounded", 1000, 3000, "33.33", false},
		{"over", 15000, 10000, "150", false},
		{"zero over zero", 0, 0, "0", false},
		{"positive over zero", 1, 0, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := aggregate.PercentOfLimit(domain.Cents(tt.spent), domain.Cents(tt.limit))
			if p.Unbounded != tt.unbounded {
				t.Fatalf("expected unbounded=%v, got %v", tt.unbounded, p.Unbounded)
			}
			if !tt.unbounded && !p.Value.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("expected %s, got %s", tt.want, p.Value)
			}
		})
	}
}

func TestPercentChange(t *testing.T) {
	tests := []struct {
		current, previous int64
		want              string
	}{
		{0, 0, "0"},
		{5, 0, "100"},
		{50000, 0, "100"},
		{50, 100, "-50"},
		{150, 100, "50"},
		{100, 300, "-66.67"},
	}

	for _, tt := range tests {
		got := aggregate.PercentChange(domain.Cents(tt.current), domain.Cents(tt.previous))
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("PercentChange(%d, %d) = %s, want %s", tt.current, tt.previous, got, tt.want)
		}
	}
}

func TestCategoryBreakdown_FoodAndUncategorized(t *testing.T) {
	txs := []domain.Transaction{
		expense("1", 10, day(2024, 1, 1), "Food"),
		expense("2", 5, day(2024, 1, 2), ""),
		expense("3", 20, day(2024, 1, 3), "Food"),
	}

	got := aggregate.CategoryBreakdown(txs, aggregate.ByCategory)
	if len(got) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(got))
	}
	if food := got["Food"]; food.Amount.Cents != 30 || food.Count != 2 {
		t.Errorf("expected Food {30, 2}, got {%d, %d}", food.Amount.Cents, food.Count)
	}
	if unc := got[aggregate.UncategorizedLabel]; unc.Amount.Cents != 5 || unc.Count != 1 {
		t.Errorf("expected Uncategorized {5, 1}, got {%d, %d}", unc.Amount.Cents, unc.Count)
	}

	ranked := aggregate.RankCategories(got)
	if ranked[0].Name != "Food" || ranked[1].Name != aggregate.UncategorizedLabel {
		t.Errorf("expected [Food Uncategorized], got [%s %s]", ranked[0].Name, ranked[1].Name)
	}
	if !ranked[0].Share.Value.Equal(decimal.RequireFromString("85.71")) {
		t.Errorf("expected Food share 85.71, got %s", ranked[0].Share)
	}
}

func TestCategoryBreakdown_CustomKey(t *testing.T) {
	txs := []domain.Transaction{
		expense("1", 100, day(2024, 1, 1), "Groceries"),
		expense("2", 200, day(2024, 1, 2), "Restaurants"),
	}
	byFirstLetter := func(tx domain.Transaction) string { return tx.Category[:1] }

	got := aggregate.CategoryBreakdown(txs, byFirstLetter)
	if got["G"].Amount.Cents != 100 || got["R"].Amount.Cents != 200 {
		t.Errorf("unexpected grouping: %+v", got)
	}
}

func TestRankCategories_TiesByName(t *testing.T) {
	breakdown := map[string]domain.CategoryTotal{
		"Transport": {Amount: domain.Cents(500), Count: 1},
		"Books":     {Amount: domain.Cents(500), Count: 2},
		"Rent":      {Amount: domain.Cents(9000), Count: 1},
		"Cinema":    {Amount: domain.Cents(500), Count: 1},
	}

	ranked := aggregate.RankCategories(breakdown)

	names := make([]string, 0, len(ranked))
	for _, ct := range ranked {
		names = append(names, ct.Name)
	}
	if !slices.Equal(names, []string{"Rent", "Books", "Cinema", "Transport"}) {
		t.Errorf("unexpected order %v", names)
	}
}

func TestRankCategories_ZeroTotal(t *testing.T) {
	ranked := aggregate.RankCategories(map[string]domain.CategoryTotal{"Food": {Count: 1}})
	if ranked[0].Share.Unbounded || !ranked[0].Share.Value.IsZero() {
		t.Errorf("expected zero share, got %s", ranked[0].Share)
	}
}

func TestMonthlyTrend_DenseSixMonths(t *testing.T) {
	ref := day(2024, 3, 15)

	trend := aggregate.MonthlyTrend(sample(), 6, ref)
	if len(trend) != 6 {
		t.Fatalf("expected 6 entries, got %d", len(trend))
	}

	wantLabels := []string{"2023-10", "2023-11", "2023-12", "2024-01", "2024-02", "2024-03"}
	wantTotals := []int64{0, 0, 750, 3000, 500, 12000}
	for i, m := range trend {
		if m.Label != wantLabels[i] {
			t.Errorf("entry %d: expected label %s, got %s", i, wantLabels[i], m.Label)
		}
		if m.Total.Cents != wantTotals[i] {
			t.Errorf("entry %d: expected total %d, got %d", i, wantTotals[i], m.Total.Cents)
		}
	}
}

func TestMonthlyTrend_SparseInput(t *testing.T) {
	for _, txs := range [][]domain.Transaction{nil, {expense("x", 1, day(2010, 1, 1), "")}} {
		trend := aggregate.MonthlyTrend(txs, 6, day(2024, 6, 1))
		if len(trend) != 6 {
			t.Fatalf("expected 6 entries, got %d", len(trend))
		}
		for _, m := range trend {
			if m.Total.Cents != 0 || m.Count != 0 {
				t.Errorf("expected zero month, got %+v", m)
			}
		}
	}
}

func TestMonthlyTrend_NonPositive(t *testing.T) {
	if got := aggregate.MonthlyTrend(sample(), 0, day(2024, 1, 1)); len(got) != 0 {
		t.Errorf("expected empty trend, got %d entries", len(got))
	}
	if got := aggregate.MonthlyTrend(sample(), -3, day(2024, 1, 1)); len(got) != 0 {
		t.Errorf("expected empty trend, got %d entries", len(got))
	}
}

func TestMonthsBetween(t *testing.T) {
	if got := aggregate.MonthsBetween(day(2023, 11, 20), day(2024, 2, 1)); got != 4 {
		t.Errorf("expected 4, got %d", got)
	}
	if got := aggregate.MonthsBetween(day(2024, 2, 1), day(2024, 1, 1)); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
}

func TestIdempotence(t *testing.T) {
	txs := sample()
	before := slices.Clone(txs)
	ref := day(2024, 3, 15)
	budget := &domain.Budget{ID: "b", Month: 3, Year: 2024, AmountLimit: domain.Cents(10000), SpentAmount: domain.Cents(8500), ThresholdPercentage: 80}

	run := func() []byte {
		out := struct {
			Sum       domain.Money
			Range     []domain.Transaction
			Month     []domain.Transaction
			Breakdown []domain.CategoryTotal
			Trend     []domain.MonthlyTotal
			Dashboard domain.Dashboard
		}{
			Sum:       aggregate.SumAmounts(txs),
			Range:     aggregate.FilterByDateRange(txs, day(2024, 1, 1), day(2024, 2, 28)),
			Month:     aggregate.FilterByMonth(txs, time.January, 2024),
			Breakdown: aggregate.RankCategories(aggregate.CategoryBreakdown(txs, nil)),
			Trend:     aggregate.MonthlyTrend(txs, 6, ref),
			Dashboard: aggregate.Summarize(aggregate.Input{Expenses: txs, Budget: budget, ReferenceDate: ref, TrendMonths: 6}),
		}
		data, err := json.Marshal(out)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		return data
	}

	first, second := run(), run()
	if string(first) != string(second) {
		t.Error("expected identical output on repeated calls")
	}
	if !slices.Equal(txs, before) {
		t.Error("expected input to be left untouched")
	}
}
