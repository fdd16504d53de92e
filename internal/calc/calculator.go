// Package calc derives the monetary fields of an invoice: per-line net and
// VAT amounts, the VAT breakdown grouped by rate and category, and the
// document-level legal monetary totals.
//
// Rounding follows the Peppol round-at-aggregation rule: each line net is
// rounded half-up to the currency minor unit, but breakdown tax amounts are
// summed from the unrounded per-line VAT and rounded once per entry, so
// rounding drift never accumulates across lines.
package calc

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/rezonia/peppol-bookkeeping/internal/model"
	"github.com/rezonia/peppol-bookkeeping/internal/money"
)

var one = decimal.NewFromInt(1)

// Apply validates the invoice lines, recomputes every derived line field,
// and fills the VAT breakdown and totals on the invoice. Existing derived
// values are always overwritten.
func Apply(inv *model.Invoice) error {
	breakdown, totals, err := Compute(inv.Lines)
	if err != nil {
		return err
	}
	inv.VATBreakdown = breakdown
	inv.Totals = totals
	return nil
}

// Compute derives per-line amounts in place, then aggregates them into an
// ordered VAT breakdown and document totals. It fails with a
// ValidationError naming the offending line index when a quantity or unit
// price is negative, a VAT rate falls outside [0,1], or a category code is
// unknown.
func Compute(lines []model.InvoiceLine) ([]model.VATBreakdownEntry, model.Totals, error) {
	type groupKey struct {
		rate     string
		category model.VATCategory
	}
	type group struct {
		rate     decimal.Decimal
		category model.VATCategory
		taxable  decimal.Decimal
		tax      decimal.Decimal
	}

	groups := make(map[groupKey]*group)
	lineExtension := money.Zero

	for i := range lines {
		line := &lines[i]
		if err := validateLine(i, line); err != nil {
			return nil, model.Totals{}, err
		}
		if line.VATCategory == "" {
			// An empty category on a zero-rate line must not become
			// standard-rated at 0.00 percent; it is zero-rated.
			if line.VATRate.IsZero() {
				line.VATCategory = model.VATCategoryZero
			} else {
				line.VATCategory = model.VATCategoryStandard
			}
		}

		// exact quantity × price before minor-unit rounding; the VAT
		// contribution is taken from this value, not the rounded net
		exact := line.Quantity.Mul(line.UnitPrice)
		line.NetAmount = money.Round(exact)
		line.VATAmount = exact.Mul(line.VATRate)

		key := groupKey{rate: line.VATRate.String(), category: line.VATCategory}
		g, ok := groups[key]
		if !ok {
			g = &group{rate: line.VATRate, category: line.VATCategory, taxable: money.Zero, tax: money.Zero}
			groups[key] = g
		}
		g.taxable = g.taxable.Add(line.NetAmount)
		g.tax = g.tax.Add(line.VATAmount)

		lineExtension = lineExtension.Add(line.NetAmount)
	}

	// Stable breakdown order: rate ascending, then category. Zero-rate
	// groups stay present with a 0.00 tax amount.
	keys := make([]*group, 0, len(groups))
	for _, g := range groups {
		keys = append(keys, g)
	}
	sort.Slice(keys, func(a, b int) bool {
		if c := keys[a].rate.Cmp(keys[b].rate); c != 0 {
			return c < 0
		}
		return keys[a].category < keys[b].category
	})

	breakdown := make([]model.VATBreakdownEntry, 0, len(keys))
	taxTotal := money.Zero
	for _, g := range keys {
		entry := model.VATBreakdownEntry{
			Rate:          g.rate,
			Category:      g.category,
			TaxableAmount: g.taxable,
			TaxAmount:     money.Round(g.tax),
		}
		breakdown = append(breakdown, entry)
		taxTotal = taxTotal.Add(entry.TaxAmount)
	}

	totals := model.Totals{
		LineExtensionAmount: lineExtension,
		TaxExclusiveAmount:  lineExtension,
		TaxInclusiveAmount:  lineExtension.Add(taxTotal),
		PayableAmount:       lineExtension.Add(taxTotal),
	}
	return breakdown, totals, nil
}

// TaxTotal sums the tax amounts of an already-computed breakdown.
func TaxTotal(breakdown []model.VATBreakdownEntry) decimal.Decimal {
	total := money.Zero
	for _, entry := range breakdown {
		total = total.Add(entry.TaxAmount)
	}
	return total
}

func validateLine(i int, line *model.InvoiceLine) error {
	if !money.IsNonNegative(line.Quantity) {
		return model.NewValidationError(i, "quantity", line.Quantity.String(), "must not be negative")
	}
	if !money.IsNonNegative(line.UnitPrice) {
		return model.NewValidationError(i, "unit_price", line.UnitPrice.String(), "must not be negative")
	}
	if line.VATRate.IsNegative() || line.VATRate.GreaterThan(one) {
		return model.NewValidationError(i, "vat_rate", line.VATRate.String(), "must be a fraction in [0,1]")
	}
	if line.VATCategory != "" && !model.IsKnownVATCategory(line.VATCategory) {
		return model.NewValidationError(i, "vat_category", string(line.VATCategory), "unknown VAT category code")
	}
	return nil
}
