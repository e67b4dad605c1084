// Package export renders report snapshots as CSV or Excel workbooks.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/boddenberg/fintrack-bfa-go/internal/domain"

	"github.com/xuri/excelize/v2"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts "csv" and "xlsx", case-insensitively. Empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", &domain.ErrUnsupported{What: "export format", Value: s}
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Write renders r in format f.
func Write(w io.Writer, f Format, r *domain.Report) error {
	if f == FormatXLSX {
		return WriteXLSX(w, r)
	}
	return WriteCSV(w, r)
}

const (
	sheetSummary    = "Summary"
	sheetCategories = "Categories"
	sheetTrend      = "Trend"
)

// sheet is one table of the export, shared by the CSV and xlsx writers.
type sheet struct {
	name string
	rows [][]any
}

func sheets(r *domain.Report) []sheet {
	summary := [][]any{
		{"Field", "Value"},
		{"Name", safeText(r.Name)},
		{"From", r.From.String()},
		{"To", r.To.String()},
		{"Expenses", amount(r.Expenses.Amount)},
		{"Expense count", r.Expenses.Count},
		{"Deposits", amount(r.Deposits.Amount)},
		{"Deposit count", r.Deposits.Count},
		{"Net savings", amount(r.NetSavings)},
		{"Recurring expenses", amount(r.RecurringExpenses)},
	}

	categories := [][]any{{"Category", "Amount", "Count", "Share %"}}
	for _, c := range r.Categories {
		categories = append(categories, []any{safeText(c.Name), amount(c.Amount), c.Count, c.Share.String()})
	}

	trend := [][]any{{"Month", "Expenses", "Deposits"}}
	deposits := make(map[string]domain.Money, len(r.DepositTrend))
	for _, m := range r.DepositTrend {
		deposits[m.Label] = m.Total
	}
	for _, m := range r.ExpenseTrend {
		trend = append(trend, []any{m.Label, amount(m.Total), amount(deposits[m.Label])})
	}

	return []sheet{
		{name: sheetSummary, rows: summary},
		{name: sheetCategories, rows: categories},
		{name: sheetTrend, rows: trend},
	}
}

// safeText prefixes a quote to user-controlled text that a spreadsheet would
// read as a formula.
func safeText(s string) string {
	if s != "" && strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}
	return s
}

func amount(m domain.Money) float64 {
	return m.Decimal().InexactFloat64()
}

// WriteCSV writes the report tables one after another, each preceded by a
// "# <name>" line and separated by a blank record.
func WriteCSV(w io.Writer, r *domain.Report) error {
	cw := csv.NewWriter(w)
	for i, s := range sheets(r) {
		if i > 0 {
			if err := cw.Write(nil); err != nil {
				return err
			}
		}
		if err := cw.Write([]string{"# " + s.name}); err != nil {
			return err
		}
		for _, row := range s.rows {
			if err := cw.Write(csvRecord(row)); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRecord(row []any) []string {
	out := make([]string, len(row))
	for i, v := range row {
		switch v := v.(type) {
		case string:
			out[i] = v
		case int:
			out[i] = strconv.Itoa(v)
		case float64:
			out[i] = strconv.FormatFloat(v, 'f', 2, 64)
		default:
			out[i] = fmt.Sprint(v)
		}
	}
	return out
}

// WriteXLSX writes a workbook with Summary, Categories and Trend sheets.
func WriteXLSX(w io.Writer, r *domain.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for i, s := range sheets(r) {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), s.name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return fmt.Errorf("create sheet %s: %w", s.name, err)
		}

		for j, row := range s.rows {
			cell, err := excelize.CoordinatesToCellName(1, j+1)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(s.name, cell, &row); err != nil {
				return fmt.Errorf("write %s row %d: %w", s.name, j+1, err)
			}
		}

		last, _ := excelize.CoordinatesToCellName(len(s.rows[0]), 1)
		if err := f.SetCellStyle(s.name, "A1", last, header); err != nil {
			return fmt.Errorf("style %s header: %w", s.name, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
