// Package valueobject holds the money rules shared by pricing and reports:
// cents rounding and the "$1,234.56" rendering that the report readers parse
// back.
package valueobject

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// CentPlaces is the number of decimal places money is rounded to
const CentPlaces int32 = 2

var (
	// ErrEmptyCurrency is returned when a money cell holds nothing to parse
	ErrEmptyCurrency = errors.New("empty currency value")

	en = message.NewPrinter(language.English)

	stripCurrency = strings.NewReplacer("$", "", `"`, "", ",", "")
)

// RoundCents rounds half away from zero to cents
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(CentPlaces)
}

// FormatCurrency renders d as "$1,234.56", or "-$1,234.56" when negative.
// Amounts that round to zero render without a sign.
func FormatCurrency(d decimal.Decimal) string {
	d = RoundCents(d)
	if d.IsNegative() {
		return "-$" + FormatGrouped(d.Neg(), CentPlaces)
	}
	return "$" + FormatGrouped(d, CentPlaces)
}

// FormatGrouped renders d with English thousands separators and exactly
// places fraction digits, e.g. 1234.5 at 2 places is "1,234.50".
func FormatGrouped(d decimal.Decimal, places int32) string {
	fixed := d.StringFixed(places)
	sign, digits := "", fixed
	if strings.HasPrefix(fixed, "-") {
		sign, digits = "-", fixed[1:]
	}
	whole, frac, _ := strings.Cut(digits, ".")
	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return fixed
	}
	grouped := sign + en.Sprintf("%d", n)
	if frac == "" {
		return grouped
	}
	return grouped + "." + frac
}

// ParseCurrency reads a rendered money cell back. A dollar sign, quotes and
// thousands separators are ignored.
func ParseCurrency(s string) (decimal.Decimal, error) {
	cleaned := stripCurrency.Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return decimal.Zero, ErrEmptyCurrency
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid currency value %q: %w", s, err)
	}
	return d, nil
}
