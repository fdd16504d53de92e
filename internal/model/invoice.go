package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Peppol BIS Billing 3.0 document identifiers
const (
	CustomizationID = "urn:cen.eu:en16931:2017#compliant#urn:fdc:peppol.eu:2017:poacc:billing:3.0"
	ProfileID       = "urn:fdc:peppol.eu:2017:poacc:billing:01:1.0"

	// InvoiceTypeCode 380 = commercial invoice (UNCL1001)
	InvoiceTypeCode = "380"
)

// VATCategory is a UNCL5305 tax category code
type VATCategory string

// VAT category codes accepted on invoice lines (Peppol subset of UNCL5305)
const (
	VATCategoryStandard       VATCategory = "S" // Standard rate
	VATCategoryZero           VATCategory = "Z" // Zero rated goods
	VATCategoryExempt         VATCategory = "E" // Exempt from tax
	VATCategoryReverseCharge  VATCategory = "AE"
	VATCategoryIntraCommunity VATCategory = "K"
	VATCategoryExport         VATCategory = "G"
	VATCategoryOutOfScope     VATCategory = "O"
	VATCategoryCanaryIslands  VATCategory = "L"
	VATCategoryCeutaMelilla   VATCategory = "M"
)

var knownVATCategories = map[VATCategory]bool{
	VATCategoryStandard:       true,
	VATCategoryZero:           true,
	VATCategoryExempt:         true,
	VATCategoryReverseCharge:  true,
	VATCategoryIntraCommunity: true,
	VATCategoryExport:         true,
	VATCategoryOutOfScope:     true,
	VATCategoryCanaryIslands:  true,
	VATCategoryCeutaMelilla:   true,
}

// IsKnownVATCategory reports whether code is in the accepted category list.
func IsKnownVATCategory(code VATCategory) bool {
	return knownVATCategories[code]
}

// Party is a legal entity participating in an invoice. Party values are
// copied into the document; they never reference storage records.
type Party struct {
	// PeppolID is the participant identifier as scheme:value,
	// e.g. "0208:BE0123456789".
	PeppolID    string
	Name        string
	VATNumber   string
	Street      string
	City        string
	PostalCode  string
	CountryCode string // 2-letter ISO 3166-1 alpha-2
}

// SplitPeppolID splits PeppolID into its scheme and value parts.
// The identifier must contain exactly one ":" separator.
func (p Party) SplitPeppolID() (scheme, value string, ok bool) {
	if strings.Count(p.PeppolID, ":") != 1 {
		return "", "", false
	}
	scheme, value, _ = strings.Cut(p.PeppolID, ":")
	if scheme == "" || value == "" {
		return "", "", false
	}
	return scheme, value, true
}

// InvoiceLine is one billable item. NetAmount and VATAmount are derived
// fields: the calculator overwrites them from Quantity, UnitPrice and
// VATRate, they are never set independently.
type InvoiceLine struct {
	Name        string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	// VATRate is a fraction in [0,1], e.g. 0.21 for 21%.
	VATRate     decimal.Decimal
	VATCategory VATCategory

	// NetAmount is quantity × unit price rounded half-up to the currency
	// minor unit.
	NetAmount decimal.Decimal
	// VATAmount is the unrounded quantity × unit price × rate. Breakdown
	// entries round once after summing these, so per-line rounding drift
	// can never accumulate.
	VATAmount decimal.Decimal
}

// VATBreakdownEntry aggregates lines sharing a (rate, category) key.
type VATBreakdownEntry struct {
	Rate          decimal.Decimal // fraction in [0,1]
	Category      VATCategory
	TaxableAmount decimal.Decimal
	TaxAmount     decimal.Decimal
}

// Totals are the document-level legal monetary totals.
type Totals struct {
	LineExtensionAmount decimal.Decimal
	TaxExclusiveAmount  decimal.Decimal
	TaxInclusiveAmount  decimal.Decimal
	PayableAmount       decimal.Decimal
}

// Invoice is the root aggregate of a Peppol BIS Billing 3.0 document.
// It owns its lines and VAT breakdown; it is built transiently per
// send/receive operation and is not persisted by the codec.
type Invoice struct {
	// ID is the caller-supplied invoice identifier, unique within the
	// sender's issuing system (cbc:ID).
	ID        string
	IssueDate time.Time
	// DueDate is optional; the serializer defaults it to IssueDate + 30 days.
	DueDate        time.Time
	CurrencyCode   string
	BuyerReference string

	Supplier Party
	Buyer    Party

	Lines []InvoiceLine

	// VATBreakdown is an ordered sequence (rate ascending, then category);
	// XML element order is externally observable, so this is never a map.
	VATBreakdown []VATBreakdownEntry
	Totals       Totals

	// TotalsVerified is set by the parser after the declared totals have
	// been cross-checked against recomputed values.
	TotalsVerified bool
}
