// Package peppol provides a public API for building, serializing and
// parsing Peppol BIS Billing 3.0 invoices (UBL 2.1).
//
// Example usage:
//
//	inv := &peppol.Invoice{
//	    ID:           "INV-2026-001",
//	    IssueDate:    time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
//	    CurrencyCode: "EUR",
//	    Supplier:     supplier,
//	    Buyer:        buyer,
//	    Lines:        lines,
//	}
//	if err := peppol.ComputeTotals(inv); err != nil {
//	    log.Fatal(err)
//	}
//	xmlBytes, err := peppol.Serialize(inv)
package peppol

import "github.com/rezonia/peppol-bookkeeping/internal/model"

// Re-export core types for public API
type (
	Invoice           = model.Invoice
	InvoiceLine       = model.InvoiceLine
	Party             = model.Party
	VATBreakdownEntry = model.VATBreakdownEntry
	Totals            = model.Totals
	VATCategory       = model.VATCategory
)

// Re-export VAT category codes (UNCL5305)
const (
	VATCategoryStandard       = model.VATCategoryStandard
	VATCategoryZero           = model.VATCategoryZero
	VATCategoryExempt         = model.VATCategoryExempt
	VATCategoryReverseCharge  = model.VATCategoryReverseCharge
	VATCategoryIntraCommunity = model.VATCategoryIntraCommunity
	VATCategoryExport         = model.VATCategoryExport
	VATCategoryOutOfScope     = model.VATCategoryOutOfScope
	VATCategoryCanaryIslands  = model.VATCategoryCanaryIslands
	VATCategoryCeutaMelilla   = model.VATCategoryCeutaMelilla
)

// Re-export document identifiers
const (
	CustomizationID = model.CustomizationID
	ProfileID       = model.ProfileID
	InvoiceTypeCode = model.InvoiceTypeCode
)

// Re-export error types
type (
	ValidationError         = model.ValidationError
	IncompleteDocumentError = model.IncompleteDocumentError
	MalformedXMLError       = model.MalformedXMLError
	SchemaViolationError    = model.SchemaViolationError
	UnsupportedVersionError = model.UnsupportedVersionError
	UnsupportedFeatureError = model.UnsupportedFeatureError
	TotalsMismatchError     = model.TotalsMismatchError
)
