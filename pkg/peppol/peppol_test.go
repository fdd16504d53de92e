package peppol_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/peppol-bookkeeping/pkg/peppol"
)

func TestEndToEnd(t *testing.T) {
	inv := &peppol.Invoice{
		ID:           "INV-2026-001",
		IssueDate:    time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		CurrencyCode: "EUR",
		Supplier: peppol.Party{
			PeppolID:    "0208:0123456789",
			Name:        "Acme BV",
			VATNumber:   "BE0123456789",
			Street:      "Main Street 1",
			City:        "Brussels",
			PostalCode:  "1000",
			CountryCode: "BE",
		},
		Buyer: peppol.Party{
			PeppolID:    "0208:0987654321",
			Name:        "Globex NV",
			Street:      "Harbor Road 7",
			City:        "Antwerp",
			PostalCode:  "2000",
			CountryCode: "BE",
		},
		Lines: []peppol.InvoiceLine{{
			Name:      "Consulting",
			Quantity:  decimal.NewFromInt(10),
			UnitPrice: decimal.RequireFromString("75.00"),
			VATRate:   decimal.RequireFromString("0.21"),
		}},
	}

	require.NoError(t, peppol.ComputeTotals(inv))
	assert.Equal(t, "750.00", inv.Totals.TaxExclusiveAmount.StringFixed(2))
	assert.Equal(t, "907.50", inv.Totals.PayableAmount.StringFixed(2))
	require.Len(t, inv.VATBreakdown, 1)
	assert.Equal(t, "157.50", inv.VATBreakdown[0].TaxAmount.StringFixed(2))

	xmlBytes, err := peppol.Serialize(inv)
	require.NoError(t, err)

	parsed, err := peppol.Parse(xmlBytes)
	require.NoError(t, err)
	assert.Equal(t, inv.ID, parsed.ID)
	assert.True(t, parsed.TotalsVerified)
	assert.True(t, parsed.Totals.PayableAmount.Equal(inv.Totals.PayableAmount))

	again, err := peppol.Serialize(parsed)
	require.NoError(t, err)
	assert.Equal(t, xmlBytes, again)
}

func TestVATCategoryCodes(t *testing.T) {
	// The full UNCL5305 set accepted by the document model is available
	// through the public API.
	expected := map[peppol.VATCategory]string{
		peppol.VATCategoryStandard:       "S",
		peppol.VATCategoryZero:           "Z",
		peppol.VATCategoryExempt:         "E",
		peppol.VATCategoryReverseCharge:  "AE",
		peppol.VATCategoryIntraCommunity: "K",
		peppol.VATCategoryExport:         "G",
		peppol.VATCategoryOutOfScope:     "O",
		peppol.VATCategoryCanaryIslands:  "L",
		peppol.VATCategoryCeutaMelilla:   "M",
	}
	for category, code := range expected {
		assert.Equal(t, peppol.VATCategory(code), category)
	}
}

func TestParseErrorTaxonomy(t *testing.T) {
	_, err := peppol.Parse([]byte("garbage"))
	var malformed *peppol.MalformedXMLError
	assert.ErrorAs(t, err, &malformed)

	_, err = peppol.Parse([]byte("<Receipt/>"))
	var schema *peppol.SchemaViolationError
	assert.ErrorAs(t, err, &schema)
}
