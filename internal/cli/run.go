// Package cli implements fintrack-report, which recomputes the dashboard
// from an offline JSON export of a user's finance data.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/boddenberg/fintrack-bfa-go/internal/aggregate"
	"github.com/boddenberg/fintrack-bfa-go/internal/domain"
	"github.com/boddenberg/fintrack-bfa-go/internal/infra/client"
	"github.com/boddenberg/fintrack-bfa-go/internal/infra/export"
)

const (
	DefaultMonths   = 6
	DefaultCurrency = "BRL"
	maxMonths       = 36
)

// Options are the inputs of one fintrack-report run. Empty optional fields
// take their defaults.
type Options struct {
	ExportPath  string
	AsOf        string
	Months      int
	AliasesPath string
	Currency    string
	XLSXPath    string
	// Timezone is the IANA zone used to read timestamps and today's date.
	// Empty means the machine's local zone.
	Timezone string

	// Now supplies the reference date when AsOf is empty.
	Now func() time.Time
}

// Run loads the export, prints the dashboard to w and optionally writes an
// xlsx workbook of the same window.
func Run(w io.Writer, opts Options) error {
	loc := time.Local
	if opts.Timezone != "" {
		l, err := time.LoadLocation(opts.Timezone)
		if err != nil || opts.Timezone == "Local" {
			return &domain.ErrValidation{Field: "timezone", Message: "unknown time zone " + strconv.Quote(opts.Timezone)}
		}
		loc = l
	}
	asOf, err := referenceDate(opts, loc)
	if err != nil {
		return err
	}
	months := opts.Months
	if months == 0 {
		months = DefaultMonths
	}
	if months < 1 || months > maxMonths {
		return &domain.ErrValidation{Field: "months", Message: fmt.Sprintf("must be between 1 and %d", maxMonths)}
	}
	code := opts.Currency
	if code == "" {
		code = DefaultCurrency
	}
	cur, err := NewCurrency(code)
	if err != nil {
		return err
	}

	var aliases *Aliases
	if opts.AliasesPath != "" {
		if aliases, err = LoadAliases(opts.AliasesPath); err != nil {
			return err
		}
	}

	data, err := os.ReadFile(opts.ExportPath)
	if err != nil {
		return fmt.Errorf("reading export file: %w", err)
	}
	exp, err := client.DecodeExport(data, loc)
	if err != nil {
		return err
	}

	dash := aggregate.Summarize(aggregate.Input{
		Expenses:      exp.Expenses,
		Deposits:      exp.Deposits,
		Budget:        budgetFor(exp.Budgets, asOf),
		ReferenceDate: asOf,
		TrendMonths:   months,
		CategoryKey:   aliases.CategoryKey(),
	})
	fmt.Fprintf(w, "Loaded %d expenses, %d deposits, %d budgets from %s\n",
		len(exp.Expenses), len(exp.Deposits), len(exp.Budgets), filepath.Base(opts.ExportPath))
	if !exp.Stats.Zero() {
		fmt.Fprintf(w, "Repaired %d records and skipped %d unusable ones\n", exp.Stats.Coerced, exp.Stats.Dropped)
	}
	PrintDashboard(w, dash, cur)

	if opts.XLSXPath != "" {
		if err := writeWorkbook(opts.XLSXPath, exp, aliases, asOf, months); err != nil {
			return err
		}
		fmt.Fprintf(w, "Wrote %s\n", opts.XLSXPath)
	}
	return nil
}

func referenceDate(opts Options, loc *time.Location) (domain.Date, error) {
	if opts.AsOf == "" {
		now := time.Now
		if opts.Now != nil {
			now = opts.Now
		}
		return domain.DateOf(now().In(loc)), nil
	}
	d, err := domain.ParseDate(opts.AsOf)
	if err != nil {
		return domain.Date{}, &domain.ErrValidation{Field: "as-of", Message: "must be a date in YYYY-MM-DD format"}
	}
	return d, nil
}

func budgetFor(budgets []domain.Budget, asOf domain.Date) *domain.Budget {
	for i := range budgets {
		if budgets[i].Year == asOf.Year() && budgets[i].Month == int(asOf.Month()) {
			return &budgets[i]
		}
	}
	return nil
}

func writeWorkbook(path string, exp *client.Export, aliases *Aliases, asOf domain.Date, months int) error {
	from := asOf.AddMonths(-(months - 1)).MonthStart()
	to := asOf.MonthEnd()
	r := aggregate.BuildReport(aggregate.ReportInput{
		Expenses: aliases.Apply(exp.Expenses),
		Deposits: exp.Deposits,
		From:     from,
		To:       to,
	})
	r.Name = fmt.Sprintf("%s to %s", from, to)
	r.GeneratedAt = time.Now().UTC()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating workbook: %w", err)
	}
	if err := export.WriteXLSX(f, &r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
