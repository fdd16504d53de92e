package ubl

import (
	"encoding/xml"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rezonia/peppol-bookkeeping/internal/calc"
	"github.com/rezonia/peppol-bookkeeping/internal/model"
	"github.com/rezonia/peppol-bookkeeping/internal/money"
)

// Parse decodes received UBL invoice bytes into the document model. It is
// the approximate inverse of Serialize but tolerates element-order variance
// on input.
//
// Failure modes, checked in order: MalformedXMLError (not well-formed),
// SchemaViolationError (unknown root, missing mandatory element, value
// outside accepted code lists), UnsupportedVersionError (customization or
// profile identifier is not a supported BIS Billing 3.0 profile),
// UnsupportedFeatureError (embedded binary attachments).
//
// After decoding, the totals are recomputed from the lines and compared
// with the declared tax-inclusive total within the currency minor-unit
// step. On mismatch Parse returns the decoded invoice together with a
// TotalsMismatchError, so the caller can still inspect the document;
// Invoice.TotalsVerified records the outcome.
func Parse(data []byte) (*model.Invoice, error) {
	var doc ublInvoice
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, &model.MalformedXMLError{Cause: err}
	}

	if doc.XMLName.Local != "Invoice" {
		return nil, model.NewSchemaViolationError(doc.XMLName.Local, "unknown root element, expected Invoice")
	}

	// Check the stated customization/profile before trusting anything else.
	if !supportedVersion(doc.CustomizationID, doc.ProfileID) {
		return nil, &model.UnsupportedVersionError{
			CustomizationID: doc.CustomizationID,
			ProfileID:       doc.ProfileID,
		}
	}

	for _, ref := range doc.AdditionalDocumentReference {
		for _, att := range ref.Attachments {
			if att.EmbeddedBinaryObject != nil {
				return nil, &model.UnsupportedFeatureError{Feature: "embedded binary attachment (EmbeddedDocumentBinaryObject)"}
			}
		}
	}

	inv, err := convertInvoice(&doc)
	if err != nil {
		return nil, err
	}

	// Integrity cross-check: recompute from the lines and compare against
	// the declared total. Never silently corrected.
	recomputed := make([]model.InvoiceLine, len(inv.Lines))
	copy(recomputed, inv.Lines)
	_, totals, err := calc.Compute(recomputed)
	if err != nil {
		return nil, model.NewSchemaViolationError("InvoiceLine", err.Error())
	}
	inv.Lines = recomputed
	if !money.WithinStep(totals.TaxInclusiveAmount, inv.Totals.TaxInclusiveAmount) {
		return inv, &model.TotalsMismatchError{
			Declared:   inv.Totals.TaxInclusiveAmount,
			Recomputed: totals.TaxInclusiveAmount,
		}
	}

	inv.TotalsVerified = true
	return inv, nil
}

func supportedVersion(customizationID, profileID string) bool {
	return customizationID == model.CustomizationID && profileID == model.ProfileID
}

func convertInvoice(doc *ublInvoice) (*model.Invoice, error) {
	if doc.ID == "" {
		return nil, model.NewSchemaViolationError("cbc:ID", "missing invoice identifier")
	}
	if doc.DocumentCurrencyCode == "" {
		return nil, model.NewSchemaViolationError("cbc:DocumentCurrencyCode", "missing document currency")
	}

	issueDate, err := parseDate(doc.IssueDate, "cbc:IssueDate")
	if err != nil {
		return nil, err
	}

	var dueDate time.Time
	if doc.DueDate != "" {
		if dueDate, err = parseDate(doc.DueDate, "cbc:DueDate"); err != nil {
			return nil, err
		}
	}

	supplier, err := convertParty(doc.SupplierParty.Party, "cac:AccountingSupplierParty")
	if err != nil {
		return nil, err
	}
	buyer, err := convertParty(doc.CustomerParty.Party, "cac:AccountingCustomerParty")
	if err != nil {
		return nil, err
	}

	if len(doc.Lines) == 0 {
		return nil, model.NewSchemaViolationError("cac:InvoiceLine", "invoice has no lines")
	}

	// Line sequence is caller-visible and preserved exactly as encountered.
	lines := make([]model.InvoiceLine, 0, len(doc.Lines))
	for _, raw := range doc.Lines {
		line, err := convertLine(raw)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	breakdown, err := convertBreakdown(doc.TaxTotal)
	if err != nil {
		return nil, err
	}

	totals, err := convertTotals(doc.LegalMonetaryTotal)
	if err != nil {
		return nil, err
	}

	return &model.Invoice{
		ID:             doc.ID,
		IssueDate:      issueDate,
		DueDate:        dueDate,
		CurrencyCode:   doc.DocumentCurrencyCode,
		BuyerReference: doc.BuyerReference,
		Supplier:       supplier,
		Buyer:          buyer,
		Lines:          lines,
		VATBreakdown:   breakdown,
		Totals:         totals,
	}, nil
}

func convertParty(p ublParty, element string) (model.Party, error) {
	if p.EndpointID.Value == "" {
		return model.Party{}, model.NewSchemaViolationError(element, "missing endpoint identifier")
	}

	name := p.PartyName
	if name == "" {
		name = p.RegistrationName
	}
	if name == "" {
		return model.Party{}, model.NewSchemaViolationError(element, "missing party name")
	}

	var vat string
	for _, ts := range p.TaxSchemes {
		if ts.SchemeID == "" || ts.SchemeID == "VAT" {
			vat = ts.CompanyID
			break
		}
	}

	return model.Party{
		PeppolID:    peppolID(p.EndpointID),
		Name:        name,
		VATNumber:   vat,
		Street:      p.PostalAddress.StreetName,
		City:        p.PostalAddress.CityName,
		PostalCode:  p.PostalAddress.PostalZone,
		CountryCode: p.PostalAddress.CountryCode,
	}, nil
}

// peppolID reassembles the scheme:value participant identifier. Some
// senders put the full scheme-qualified id in the element text; in that
// case the text wins.
func peppolID(ep ublEndpointID) string {
	value := strings.TrimSpace(ep.Value)
	if strings.Contains(value, ":") || ep.SchemeID == "" {
		return value
	}
	return ep.SchemeID + ":" + value
}

func convertLine(raw ublInvoiceLine) (model.InvoiceLine, error) {
	if raw.Item.Name == "" {
		return model.InvoiceLine{}, model.NewSchemaViolationError("cac:Item", "missing item name")
	}

	quantity, err := parseDecimal(raw.InvoicedQuantity.Value, "cbc:InvoicedQuantity")
	if err != nil {
		return model.InvoiceLine{}, err
	}
	price, err := parseDecimal(raw.Price.PriceAmount.Value, "cbc:PriceAmount")
	if err != nil {
		return model.InvoiceLine{}, err
	}

	category := model.VATCategory(raw.Item.TaxCategory.ID)
	if !model.IsKnownVATCategory(category) {
		return model.InvoiceLine{}, model.NewSchemaViolationError("cac:ClassifiedTaxCategory", "unknown VAT category code "+raw.Item.TaxCategory.ID)
	}

	rate, err := parseRate(raw.Item.TaxCategory.Percent, "cac:ClassifiedTaxCategory")
	if err != nil {
		return model.InvoiceLine{}, err
	}

	return model.InvoiceLine{
		Name:        raw.Item.Name,
		Description: raw.Item.Description,
		Quantity:    quantity,
		UnitPrice:   price,
		VATRate:     rate,
		VATCategory: category,
	}, nil
}

func convertBreakdown(taxTotals []ublTaxTotal) ([]model.VATBreakdownEntry, error) {
	// A document may carry a second TaxTotal restating the tax in the tax
	// accounting currency; only the one with TaxSubtotal children holds the
	// breakdown, and it may appear in either position.
	var subtotals []ublTaxSubtotal
	for _, tt := range taxTotals {
		if len(tt.TaxSubtotal) > 0 {
			subtotals = tt.TaxSubtotal
			break
		}
	}
	if len(subtotals) == 0 {
		return nil, model.NewSchemaViolationError("cac:TaxTotal", "missing VAT breakdown")
	}
	breakdown := make([]model.VATBreakdownEntry, 0, len(subtotals))
	for _, sub := range subtotals {
		category := model.VATCategory(sub.TaxCategory.ID)
		if !model.IsKnownVATCategory(category) {
			return nil, model.NewSchemaViolationError("cac:TaxCategory", "unknown VAT category code "+sub.TaxCategory.ID)
		}
		rate, err := parseRate(sub.TaxCategory.Percent, "cac:TaxCategory")
		if err != nil {
			return nil, err
		}
		taxable, err := parseDecimal(sub.TaxableAmount.Value, "cbc:TaxableAmount")
		if err != nil {
			return nil, err
		}
		tax, err := parseDecimal(sub.TaxAmount.Value, "cbc:TaxAmount")
		if err != nil {
			return nil, err
		}
		breakdown = append(breakdown, model.VATBreakdownEntry{
			Rate:          rate,
			Category:      category,
			TaxableAmount: taxable,
			TaxAmount:     tax,
		})
	}
	return breakdown, nil
}

func convertTotals(raw ublMonetaryTotal) (model.Totals, error) {
	lineExtension, err := parseDecimal(raw.LineExtensionAmount.Value, "cbc:LineExtensionAmount")
	if err != nil {
		return model.Totals{}, err
	}
	taxExclusive, err := parseDecimal(raw.TaxExclusiveAmount.Value, "cbc:TaxExclusiveAmount")
	if err != nil {
		return model.Totals{}, err
	}
	taxInclusive, err := parseDecimal(raw.TaxInclusiveAmount.Value, "cbc:TaxInclusiveAmount")
	if err != nil {
		return model.Totals{}, err
	}
	payable, err := parseDecimal(raw.PayableAmount.Value, "cbc:PayableAmount")
	if err != nil {
		return model.Totals{}, err
	}
	return model.Totals{
		LineExtensionAmount: lineExtension,
		TaxExclusiveAmount:  taxExclusive,
		TaxInclusiveAmount:  taxInclusive,
		PayableAmount:       payable,
	}, nil
}

func parseDecimal(s, element string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, model.NewSchemaViolationError(element, "missing numeric value")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, model.NewSchemaViolationError(element, "invalid numeric value "+s)
	}
	return d, nil
}

func parseRate(percent, element string) (decimal.Decimal, error) {
	p, err := parseDecimal(percent, element)
	if err != nil {
		return decimal.Zero, err
	}
	return money.PercentToRate(p), nil
}

func parseDate(s, element string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, model.NewSchemaViolationError(element, "missing date")
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, model.NewSchemaViolationError(element, "invalid date "+s)
	}
	return t, nil
}
