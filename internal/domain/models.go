// Package domain defines the core entities of the finance tracker BFA.
// These models are independent of external services and represent the
// canonical data structures used throughout the service.
package domain

// ============================================================
// Transactions
// ============================================================

// Kind distinguishes outgoing from incoming money.
type Kind string

const (
	KindExpense Kind = "expense"
	KindDeposit Kind = "deposit"
)

// Valid reports whether k is a known transaction kind.
func (k Kind) Valid() bool {
	return k == KindExpense || k == KindDeposit
}

// Transaction is a single expense or deposit as returned by the finance API.
// Category carries the category name for expenses and the deposit type name
// for deposits. AmountMalformed is set when the wire amount could not be read
// and Amount was coerced to zero.
type Transaction struct {
	ID              string `json:"id"`
	Kind            Kind   `json:"kind"`
	Amount          Money  `json:"amount"`
	Date            Date   `json:"date"`
	Category        string `json:"category,omitempty"`
	Description     string `json:"description,omitempty"`
	IsRecurring     bool   `json:"isRecurring,omitempty"`
	AmountMalformed bool   `json:"-"`
}

// DateRange is an inclusive calendar range. A zero bound is open.
type DateRange struct {
	From Date
	To   Date
}

// Contains reports whether d falls inside the range.
func (r DateRange) Contains(d Date) bool {
	if !r.From.IsZero() && d.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && d.After(r.To) {
		return false
	}
	return true
}

// ============================================================
// Budgets
// ============================================================

// Budget is a monthly spending limit. There is at most one per
// (month, year) for a user; the finance API enforces that.
type Budget struct {
	ID                  string `json:"id"`
	Month               int    `json:"month"`
	Year                int    `json:"year"`
	AmountLimit         Money  `json:"amountLimit"`
	SpentAmount         Money  `json:"spentAmount"`
	ThresholdPercentage int    `json:"thresholdPercentage"`
}
