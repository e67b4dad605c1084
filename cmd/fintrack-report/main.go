package main

import (
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/boddenberg/fintrack-bfa-go/internal/cli"

	"github.com/GiGurra/boa/pkg/boa"
)

type Params struct {
	File     string `descr:"Path to the JSON export ({expenses, deposits, budgets})" positional:"true"`
	AsOf     string `descr:"Reference date (YYYY-MM-DD), defaults to today" optional:"true"`
	Months   int    `descr:"Number of months in the trend window" default:"6"`
	Aliases  string `descr:"YAML file mapping category names to reported names" optional:"true"`
	Currency string `descr:"ISO 4217 currency code used for formatting" default:"BRL"`
	XLSX     string `descr:"Also write the window as an Excel workbook to this path" optional:"true"`
	Timezone string `descr:"IANA time zone for reading timestamps, defaults to the local zone" optional:"true"`
}

func main() {
	boa.NewCmdT[Params]("fintrack-report").
		WithShort("Recompute the finance dashboard from an offline export").
		WithLong("Loads an export of expenses, deposits and budgets, computes totals, month-over-month changes, category shares, the monthly trend and budget usage, and prints them as tables.").
		WithRunFunc(func(params *Params) {
			err := cli.Run(os.Stdout, cli.Options{
				ExportPath:  params.File,
				AsOf:        params.AsOf,
				Months:      params.Months,
				AliasesPath: params.Aliases,
				Currency:    params.Currency,
				XLSXPath:    params.XLSX,
				Timezone:    params.Timezone,
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}).
		Run()
}
