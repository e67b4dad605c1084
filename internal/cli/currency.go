package cli

import (
	"strings"
	"unicode/utf8"

	"github.com/boddenberg/fintrack-bfa-go/internal/domain"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Currency formats amounts for terminal output.
type Currency struct {
	Code    string
	unit    currency.Unit
	printer *message.Printer
	prefix  bool
}

// homeLocale is the formatting locale used for a currency's amounts.
var homeLocale = map[string]language.Tag{
	"BRL": language.BrazilianPortuguese,
	"USD": language.AmericanEnglish,
	"EUR": language.German,
	"GBP": language.BritishEnglish,
	"SEK": language.Swedish,
	"JPY": language.Japanese,
	"CHF": language.German,
	"MXN": language.LatinAmericanSpanish,
}

// prefixSymbol lists currencies whose symbol precedes the amount.
// x/text does not expose the CLDR symbol position.
var prefixSymbol = map[string]bool{
	"BRL": true, "USD": true, "GBP": true, "JPY": true, "MXN": true,
}

// NewCurrency returns the formatter for an ISO 4217 code. Unknown codes are
// rejected so typos do not silently print dollars.
func NewCurrency(code string) (Currency, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	unit, err := currency.ParseISO(code)
	if err != nil {
		return Currency{}, &domain.ErrUnsupported{What: "currency", Value: code}
	}
	tag, ok := homeLocale[code]
	if !ok {
		tag = language.English
	}
	return Currency{
		Code:    code,
		unit:    unit,
		printer: message.NewPrinter(tag),
		prefix:  prefixSymbol[code],
	}, nil
}

func (c Currency) symbol() string {
	return c.printer.Sprint(currency.NarrowSymbol(c.unit))
}

// Format renders m with two decimals, locale grouping and the currency symbol.
func (c Currency) Format(m domain.Money) string {
	v := m.Decimal().InexactFloat64()
	formatted := c.printer.Sprint(number.Decimal(v,
		number.MinFractionDigits(2), number.MaxFractionDigits(2)))
	if c.prefix {
		sym := c.symbol()
		if utf8.RuneCountInString(sym) > 1 {
			sym += " "
		}
		return sym + formatted
	}
	return formatted + " " + c.symbol()
}
