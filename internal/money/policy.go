package money

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Policy describes how amounts are rounded and displayed for one business.
type Policy struct {
	Currency currency.Unit
	Scale    int32
	Locale   language.Tag
}

// DefaultPolicy is used when a business has not configured its currency.
var DefaultPolicy = Policy{Currency: currency.USD, Scale: 2, Locale: language.AmericanEnglish}

// NewPolicy builds a policy from an ISO 4217 code and a BCP 47 locale tag.
func NewPolicy(code, locale string) (Policy, error) {
	unit, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		return Policy{}, fmt.Errorf("money: currency %q: %w", code, err)
	}
	tag := language.AmericanEnglish
	if strings.TrimSpace(locale) != "" {
		tag, err = language.Parse(locale)
		if err != nil {
			return Policy{}, fmt.Errorf("money: locale %q: %w", locale, err)
		}
	}
	scale, _ := currency.Standard.Rounding(unit)
	return Policy{Currency: unit, Scale: int32(scale), Locale: tag}, nil
}

// Code returns the ISO 4217 code.
func (p Policy) Code() string {
	return p.Currency.String()
}

// Round rounds d half away from zero to the currency scale.
func (p Policy) Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(p.Scale)
}

var maxGrouped = decimal.NewFromInt(math.MaxInt64)

// Format renders d prefixed with the currency code, using the locale's digits,
// grouping and decimal separator at the currency scale. The whole and
// fractional parts are printed as integers, so no precision is lost.
func (p Policy) Format(d decimal.Decimal) string {
	rounded := p.Round(d)
	abs := rounded.Abs()
	whole := abs.Truncate(0)
	if whole.GreaterThan(maxGrouped) {
		return p.Code() + " " + rounded.StringFixed(p.Scale)
	}
	printer := message.NewPrinter(p.Locale)
	out := printer.Sprint(number.Decimal(whole.IntPart()))
	if p.Scale > 0 {
		frac := abs.Sub(whole).Shift(p.Scale).IntPart()
		out += decimalSeparator(printer) +
			printer.Sprint(number.Decimal(frac, number.MinIntegerDigits(int(p.Scale)), number.NoSeparator()))
	}
	if rounded.IsNegative() {
		out = "-" + out
	}
	return p.Code() + " " + out
}

// decimalSeparator returns the separator the printer's locale places between
// the whole and fractional digits.
func decimalSeparator(printer *message.Printer) string {
	sample := []rune(printer.Sprint(number.Decimal(0.5, number.Scale(1))))
	if len(sample) < 3 {
		return "."
	}
	return string(sample[1 : len(sample)-1])
}

// OrDefault returns DefaultPolicy when p is the zero value.
func (p Policy) OrDefault() Policy {
	if p == (Policy{}) {
		return DefaultPolicy
	}
	return p
}
