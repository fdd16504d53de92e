package money

import (
	"github.com/shopspring/decimal"
)

// MinorUnitDecimals is the minor-unit precision of the document currency
// (2 for EUR).
const MinorUnitDecimals = 2

// Zero is decimal zero
var Zero = decimal.Zero

// MinorUnitStep is the epsilon used when cross-checking declared totals
// (0.01 for EUR).
var MinorUnitStep = decimal.New(1, -MinorUnitDecimals)

// FromString parses a decimal from string
func FromString(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}

// MustFromString parses a decimal from string, panics on error
func MustFromString(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Round rounds to the currency minor unit using round-half-up.
// Decimal.Round rounds half away from zero, which is half-up for the
// non-negative amounts the calculator accepts.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(MinorUnitDecimals)
}

// FormatAmount renders a monetary value with exactly two decimal digits,
// as required for every UBL amount element.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(MinorUnitDecimals)
}

// FormatQuantity renders a quantity with the precision actually present,
// no forced padding.
func FormatQuantity(d decimal.Decimal) string {
	return d.String()
}

// FormatPercent renders a VAT rate fraction as a percentage with two
// decimal digits (0.21 -> "21.00").
func FormatPercent(rate decimal.Decimal) string {
	return rate.Mul(decimal.NewFromInt(100)).StringFixed(MinorUnitDecimals)
}

// PercentToRate converts a UBL percent value to a rate fraction
// ("21.00" -> 0.21).
func PercentToRate(percent decimal.Decimal) decimal.Decimal {
	return percent.Div(decimal.NewFromInt(100))
}

// WithinStep reports whether a and b differ by at most the currency
// minor-unit step.
func WithinStep(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(MinorUnitStep)
}

// IsNonNegative returns true if decimal is >= zero
func IsNonNegative(d decimal.Decimal) bool {
	return d.GreaterThanOrEqual(Zero)
}
