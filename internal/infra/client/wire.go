package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/boddenberg/fintrack-bfa-go/internal/domain"
)

// defaultThreshold applies to budgets stored without a threshold.
const defaultThreshold = 80

// ============================================================
// Wire formats of the finance API
// ============================================================

// Scalar fields stay raw and are coerced one by one, so a single record with
// an unexpected type cannot fail the whole list.
type wireTransaction struct {
	ID           json.RawMessage `json:"id"`
	Amount       json.RawMessage `json:"amount"`
	Date         json.RawMessage `json:"date"`
	Category     wireName        `json:"category"`
	CategoryName json.RawMessage `json:"categoryName"`
	Type         wireName        `json:"type"`
	TypeName     json.RawMessage `json:"typeName"`
	Description  json.RawMessage `json:"description"`
	IsRecurring  json.RawMessage `json:"isRecurring"`
}

type wireBudget struct {
	ID                  json.RawMessage `json:"id"`
	Month               json.RawMessage `json:"month"`
	Year                json.RawMessage `json:"year"`
	AmountLimit         json.RawMessage `json:"amountLimit"`
	SpentAmount         json.RawMessage `json:"spentAmount"`
	ThresholdPercentage json.RawMessage `json:"thresholdPercentage"`
}

// DecodeStats counts records the lenient decoder had to repair or drop.
type DecodeStats struct {
	// Coerced records had at least one field replaced by its zero value.
	// Unreadable transaction amounts are flagged on the transaction instead.
	Coerced int
	// Dropped records could not be used at all.
	Dropped int
}

func (s DecodeStats) add(o DecodeStats) DecodeStats {
	return DecodeStats{Coerced: s.Coerced + o.Coerced, Dropped: s.Dropped + o.Dropped}
}

// Zero reports whether nothing had to be repaired.
func (s DecodeStats) Zero() bool { return s.Coerced == 0 && s.Dropped == 0 }

func absent(raw json.RawMessage) bool {
	s := bytes.TrimSpace(raw)
	return len(s) == 0 || bytes.Equal(s, []byte("null"))
}

// coerceText accepts a string or a number. Absent is "" and fine; any other
// type is "" and not ok.
func coerceText(raw json.RawMessage) (string, bool) {
	if absent(raw) {
		return "", true
	}
	raw = bytes.TrimSpace(raw)
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return s, true
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", false
		}
		return n.String(), true
	}
	return "", false
}

// coerceBool accepts a JSON boolean, "true"/"false" in any case, and 1/0 as
// number or string. Absent is false and fine.
func coerceBool(raw json.RawMessage) (bool, bool) {
	if absent(raw) {
		return false, true
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, true
	}
	s, ok := coerceText(raw)
	if !ok {
		return false, false
	}
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return false, false
	}
	return b, true
}

// coerceInt accepts an integral number or numeric string. Absent is 0 and
// fine.
func coerceInt(raw json.RawMessage) (int, bool) {
	if absent(raw) {
		return 0, true
	}
	s, ok := coerceText(raw)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// wireName accepts either a plain name or an embedded {"name": ...} object.
// Anything else decodes to an empty name.
type wireName string

func (w *wireName) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err == nil {
			*w = wireName(s)
		}
	case '{':
		var obj struct {
			Name json.RawMessage `json:"name"`
		}
		if err := json.Unmarshal(data, &obj); err == nil {
			s, _ := coerceText(obj.Name)
			*w = wireName(s)
		}
	}
	return nil
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

// toDomain converts the record. coerced is true when a field other than the
// amount had to be replaced.
func (w wireTransaction) toDomain(kind domain.Kind, loc *time.Location) (tx domain.Transaction, coerced bool) {
	bad := false
	text := func(raw json.RawMessage) string {
		s, ok := coerceText(raw)
		bad = bad || !ok
		return s
	}

	amount, amountOK := domain.CoerceAmount(w.Amount)
	recurring, recurringOK := coerceBool(w.IsRecurring)
	bad = bad || !recurringOK

	tx = domain.Transaction{
		ID:              text(w.ID),
		Kind:            kind,
		Amount:          amount,
		Category:        firstNonBlank(string(w.Category), text(w.CategoryName), string(w.Type), text(w.TypeName)),
		Description:     text(w.Description),
		IsRecurring:     recurring && kind == domain.KindExpense,
		AmountMalformed: !amountOK,
	}

	if date, ok := coerceText(w.Date); !ok {
		bad = true
	} else if date = strings.TrimSpace(date); date != "" {
		if d, err := domain.ParseDateIn(date, loc); err == nil {
			tx.Date = d
		} else {
			bad = true
		}
	}
	return tx, bad
}

// toDomain converts the record. ok is false when the budget cannot be placed
// in a month.
func (w wireBudget) toDomain() (b domain.Budget, coerced, ok bool) {
	id, idOK := coerceText(w.ID)
	month, monthOK := coerceInt(w.Month)
	year, yearOK := coerceInt(w.Year)
	coerced = !idOK || !monthOK || !yearOK

	limit, limitOK := domain.CoerceAmount(w.AmountLimit)
	if !limitOK {
		coerced = true
	}
	spent, spentOK := domain.CoerceAmount(w.SpentAmount)
	if !spentOK && !absent(w.SpentAmount) {
		coerced = true
	}

	threshold := defaultThreshold
	if !absent(w.ThresholdPercentage) {
		if t, tOK := coerceInt(w.ThresholdPercentage); tOK && t > 0 {
			threshold = t
		} else {
			coerced = true
		}
	}

	b = domain.Budget{
		ID:                  id,
		Month:               month,
		Year:                year,
		AmountLimit:         limit,
		SpentAmount:         spent,
		ThresholdPercentage: threshold,
	}
	return b, coerced, validPeriod(month, year)
}

func validPeriod(month, year int) bool {
	return month >= 1 && month <= 12 && year > 0
}

// decodeList reads either a bare JSON array or a {"data": [...]} envelope and
// returns the raw elements.
func decodeList(data []byte) ([]json.RawMessage, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}
	if data[0] == '[' {
		var out []json.RawMessage
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	var env struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// decodeRecord unmarshals one list element. Elements that are not objects
// are reported as unusable.
func decodeRecord[T any](raw json.RawMessage) (T, bool) {
	var out T
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return out, false
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, false
	}
	return out, true
}

// DecodeTransactions parses a finance API transaction list. Timestamps are
// read as calendar dates in loc. Amounts that cannot be read become zero with
// AmountMalformed set; other unreadable fields take their zero value and
// elements that are not objects are dropped, both counted in the stats. Only
// a structurally invalid document is an error.
func DecodeTransactions(data []byte, kind domain.Kind, loc *time.Location) ([]domain.Transaction, DecodeStats, error) {
	var stats DecodeStats
	records, err := decodeList(data)
	if err != nil {
		return nil, stats, fmt.Errorf("decode %ss: %w", kind, err)
	}
	out := make([]domain.Transaction, 0, len(records))
	for _, raw := range records {
		w, ok := decodeRecord[wireTransaction](raw)
		if !ok {
			stats.Dropped++
			continue
		}
		tx, coerced := w.toDomain(kind, loc)
		if coerced {
			stats.Coerced++
		}
		out = append(out, tx)
	}
	return out, stats, nil
}

// DecodeBudgets parses a finance API budget list. Budgets without a usable
// month and year are dropped.
func DecodeBudgets(data []byte) ([]domain.Budget, DecodeStats, error) {
	var stats DecodeStats
	records, err := decodeList(data)
	if err != nil {
		return nil, stats, fmt.Errorf("decode budgets: %w", err)
	}
	out := make([]domain.Budget, 0, len(records))
	for _, raw := range records {
		w, ok := decodeRecord[wireBudget](raw)
		if !ok {
			stats.Dropped++
			continue
		}
		b, coerced, placed := w.toDomain()
		if coerced {
			stats.Coerced++
		}
		if !placed {
			stats.Dropped++
			continue
		}
		out = append(out, b)
	}
	return out, stats, nil
}

// decodeBudget parses a single budget fetched for month/year. The request
// decides the period when the record's own is unusable.
func decodeBudget(data []byte, month, year int) (*domain.Budget, DecodeStats, error) {
	var stats DecodeStats
	w, ok := decodeRecord[wireBudget](data)
	if !ok {
		return nil, stats, fmt.Errorf("decode budget: not a JSON object")
	}
	b, coerced, placed := w.toDomain()
	if coerced {
		stats.Coerced++
	}
	if !placed {
		b.Month, b.Year = month, year
	}
	return &b, stats, nil
}

// Export is an offline dump of a user's finance data.
type Export struct {
	Expenses []domain.Transaction
	Deposits []domain.Transaction
	Budgets  []domain.Budget
	Stats    DecodeStats
}

// DecodeExport parses {"expenses": [...], "deposits": [...], "budgets": [...]}
// with the same lenient rules as the live API, reading timestamps in loc.
func DecodeExport(data []byte, loc *time.Location) (*Export, error) {
	var raw struct {
		Expenses json.RawMessage `json:"expenses"`
		Deposits json.RawMessage `json:"deposits"`
		Budgets  json.RawMessage `json:"budgets"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode export: %w", err)
	}

	expenses, es, err := DecodeTransactions(raw.Expenses, domain.KindExpense, loc)
	if err != nil {
		return nil, err
	}
	deposits, ds, err := DecodeTransactions(raw.Deposits, domain.KindDeposit, loc)
	if err != nil {
		return nil, err
	}
	budgets, bs, err := DecodeBudgets(raw.Budgets)
	if err != nil {
		return nil, err
	}
	return &Export{
		Expenses: expenses,
		Deposits: deposits,
		Budgets:  budgets,
		Stats:    es.add(ds).add(bs),
	}, nil
}
