package domain

import (
	"bytes"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Percentages
// ============================================================

// Percent is a percentage rounded to two decimals. Unbounded marks a ratio
// against a zero denominator with a non-zero numerator, which has no finite
// value; it is encoded as the JSON string "unbounded".
type Percent struct {
	Value     decimal.Decimal
	Unbounded bool
}

const unboundedLiteral = "unbounded"

// PercentOf wraps a finite percentage.
func PercentOf(v decimal.Decimal) Percent {
	return Percent{Value: v}
}

// UnboundedPercent is the result of dividing a positive amount by zero.
func UnboundedPercent() Percent {
	return Percent{Unbounded: true}
}

func (p Percent) String() string {
	if p.Unbounded {
		return unboundedLiteral
	}
	return p.Value.StringFixed(2)
}

func (p Percent) MarshalJSON() ([]byte, error) {
	if p.Unbounded {
		return []byte(`"` + unboundedLiteral + `"`), nil
	}
	return []byte(p.Value.StringFixed(2)), nil
}

func (p *Percent) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte(`"`+unboundedLiteral+`"`)) {
		*p = UnboundedPercent()
		return nil
	}
	var v decimal.Decimal
	if err := v.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("percent: %w", err)
	}
	*p = PercentOf(v)
	return nil
}

// ============================================================
// Budget status
// ============================================================

// BudgetStatus classifies spending against a budget limit.
type BudgetStatus string

const (
	BudgetOnTrack    BudgetStatus = "on_track"
	BudgetNearLimit  BudgetStatus = "near_limit"
	BudgetOverBudget BudgetStatus = "over_budget"
)

// Alerting reports whether the status should notify the user.
func (s BudgetStatus) Alerting() bool {
	return s == BudgetNearLimit || s == BudgetOverBudget
}

// BudgetUsage is the computed view of one budget.
type BudgetUsage struct {
	BudgetID  string       `json:"budgetId"`
	Month     int          `json:"month"`
	Year      int          `json:"year"`
	Limit     Money        `json:"limit"`
	Spent     Money        `json:"spent"`
	Remaining Money        `json:"remaining"`
	Percent   Percent      `json:"percent"`
	Threshold int          `json:"thresholdPercentage"`
	Status    BudgetStatus `json:"status"`
}

// BudgetAlert is published when a budget crosses its threshold or limit.
type BudgetAlert struct {
	UserID     string       `json:"userId"`
	Month      int          `json:"month"`
	Year       int          `json:"year"`
	Status     BudgetStatus `json:"status"`
	Percent    Percent      `json:"percent"`
	Limit      Money        `json:"limit"`
	Spent      Money        `json:"spent"`
	OccurredAt time.Time    `json:"occurredAt"`
}

// ============================================================
// Aggregates
// ============================================================

// Totals summarises a set of transactions.
type Totals struct {
	Amount    Money `json:"amount"`
	Count     int   `json:"count"`
	Malformed int   `json:"malformedCount"`
	Largest   Money `json:"largest"`
}

// CategoryTotal is one bucket of a category breakdown. Share is only filled
// in ranked views.
type CategoryTotal struct {
	Name   string  `json:"name"`
	Amount Money   `json:"amount"`
	Count  int     `json:"count"`
	Share  Percent `json:"share"`
}

// MonthlyTotal is one point of a monthly trend series.
type MonthlyTotal struct {
	Label string     `json:"label"`
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Total Money      `json:"total"`
	Count int        `json:"count"`
}

// MonthComparison compares the reference month with the month before it.
type MonthComparison struct {
	Current  Money   `json:"current"`
	Previous Money   `json:"previous"`
	Change   Percent `json:"changePercent"`
}

// Dashboard is the payload behind GET /v1/dashboard.
type Dashboard struct {
	ReferenceDate     Date            `json:"referenceDate"`
	TrendMonths       int             `json:"trendMonths"`
	Expenses          Totals          `json:"expenses"`
	Deposits          Totals          `json:"deposits"`
	NetSavings        Money           `json:"netSavings"`
	MonthExpenses     MonthComparison `json:"monthExpenses"`
	MonthDeposits     MonthComparison `json:"monthDeposits"`
	MonthNetSavings   Money           `json:"monthNetSavings"`
	RecurringExpenses Money           `json:"recurringExpenses"`
	Categories        []CategoryTotal `json:"categories"`
	ExpenseTrend      []MonthlyTotal  `json:"expenseTrend"`
	DepositTrend      []MonthlyTotal  `json:"depositTrend"`
	Budget            *BudgetUsage    `json:"budget"`
}

// Summary is the range summary for one transaction kind.
type Summary struct {
	Kind       Kind            `json:"kind"`
	From       Date            `json:"from"`
	To         Date            `json:"to"`
	Totals     Totals          `json:"totals"`
	Categories []CategoryTotal `json:"categories"`
}

// ============================================================
// Reports
// ============================================================

// ReportRequest is the body of POST /v1/reports.
type ReportRequest struct {
	Name string `json:"name" validate:"required,max=120"`
	From string `json:"from" validate:"required,datetime=2006-01-02"`
	To   string `json:"to" validate:"required,datetime=2006-01-02"`
}

// Report is a persisted snapshot of the aggregates over a date range.
type Report struct {
	ID                string          `json:"id"`
	UserID            string          `json:"userId"`
	Name              string          `json:"name"`
	From              Date            `json:"from"`
	To                Date            `json:"to"`
	GeneratedAt       time.Time       `json:"generatedAt"`
	Expenses          Totals          `json:"expenses"`
	Deposits          Totals          `json:"deposits"`
	NetSavings        Money           `json:"netSavings"`
	RecurringExpenses Money           `json:"recurringExpenses"`
	Categories        []CategoryTotal `json:"categories"`
	DepositTypes      []CategoryTotal `json:"depositTypes"`
	ExpenseTrend      []MonthlyTotal  `json:"expenseTrend"`
	DepositTrend      []MonthlyTotal  `json:"depositTrend"`
}

// ReportInfo is the list view of a stored report.
type ReportInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	From        Date      `json:"from"`
	To          Date      `json:"to"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// Info returns the list view of r.
func (r *Report) Info() ReportInfo {
	return ReportInfo{ID: r.ID, Name: r.Name, From: r.From, To: r.To, GeneratedAt: r.GeneratedAt}
}
