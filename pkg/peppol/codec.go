package peppol

import (
	"github.com/rezonia/peppol-bookkeeping/internal/calc"
	"github.com/rezonia/peppol-bookkeeping/internal/ubl"
)

// ComputeTotals fills the invoice's derived line amounts, VAT breakdown
// and monetary totals from its lines. Existing derived values are
// overwritten.
func ComputeTotals(inv *Invoice) error {
	return calc.Apply(inv)
}

// Serialize renders the invoice as a BIS Billing 3.0 UBL 2.1 XML
// document. The invoice must have its totals computed; serializing the
// same invoice twice yields byte-identical output.
func Serialize(inv *Invoice) ([]byte, error) {
	return ubl.Serialize(inv)
}

// Parse decodes a UBL 2.1 invoice document, recomputes its totals from
// the lines and cross-checks them against the declared values. On a
// totals mismatch the decoded invoice is returned together with a
// *TotalsMismatchError.
func Parse(data []byte) (*Invoice, error) {
	return ubl.Parse(data)
}
