// Package ubl encodes and decodes Peppol BIS Billing 3.0 invoice documents
// (UBL 2.1 Invoice syntax).
//
// Serialization is deterministic: the same Invoice value always produces
// byte-identical output, with a fixed element sequence and stable namespace
// prefixes. Parsing tolerates element-order variance; ordering is a
// serializer contract, not a parser requirement.
package ubl

import (
	"strconv"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	"github.com/rezonia/peppol-bookkeeping/internal/calc"
	"github.com/rezonia/peppol-bookkeeping/internal/model"
	"github.com/rezonia/peppol-bookkeeping/internal/money"
)

// UBL 2.1 namespaces
const (
	nsInvoice = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
	nsCBC     = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"
	nsCAC     = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
)

const (
	dateFormat = "2006-01-02"

	// UNECE Rec 20 unit code for "each"
	unitCodeEach = "EA"

	// UNCL4461: 31 = debit transfer
	paymentMeansCode = "31"

	defaultDueDays = 30
)

// Serialize encodes an invoice as namespace-qualified UBL XML bytes, UTF-8
// encoded, suitable for direct transmission to a send endpoint.
//
// The invoice must already carry its derived amounts (see calc.Apply);
// Serialize fails with IncompleteDocumentError when mandatory data is
// absent rather than emitting a partial document. It never mutates its
// input and is safe for concurrent use.
func Serialize(inv *model.Invoice) ([]byte, error) {
	if err := checkComplete(inv); err != nil {
		return nil, err
	}

	currency := inv.CurrencyCode
	dueDate := inv.DueDate
	if dueDate.IsZero() {
		dueDate = inv.IssueDate.AddDate(0, 0, defaultDueDays)
	}
	buyerRef := inv.BuyerReference
	if buyerRef == "" {
		buyerRef = inv.Buyer.Name
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("Invoice")
	root.CreateAttr("xmlns", nsInvoice)
	root.CreateAttr("xmlns:cbc", nsCBC)
	root.CreateAttr("xmlns:cac", nsCAC)

	// Document header. The element sequence below is a hard contract:
	// Peppol validators reject documents that deviate from the canonical
	// order even when schema-valid.
	text(root, "cbc:CustomizationID", model.CustomizationID)
	text(root, "cbc:ProfileID", model.ProfileID)
	text(root, "cbc:ID", inv.ID)
	text(root, "cbc:IssueDate", inv.IssueDate.Format(dateFormat))
	text(root, "cbc:DueDate", dueDate.Format(dateFormat))
	text(root, "cbc:InvoiceTypeCode", model.InvoiceTypeCode)
	text(root, "cbc:DocumentCurrencyCode", currency)
	text(root, "cbc:LineCountNumeric", strconv.Itoa(len(inv.Lines)))
	text(root, "cbc:BuyerReference", buyerRef)

	addParty(root, "cac:AccountingSupplierParty", inv.Supplier)
	addParty(root, "cac:AccountingCustomerParty", inv.Buyer)

	means := root.CreateElement("cac:PaymentMeans")
	text(means, "cbc:PaymentMeansCode", paymentMeansCode)
	text(means, "cbc:PaymentDueDate", dueDate.Format(dateFormat))

	terms := root.CreateElement("cac:PaymentTerms")
	text(terms, "cbc:Note", "Payment due by "+dueDate.Format(dateFormat))

	addTaxTotal(root, inv.VATBreakdown, currency)
	addMonetaryTotal(root, inv.Totals, currency)

	for i, line := range inv.Lines {
		addLine(root, i, line, currency)
	}

	doc.Indent(2)
	return doc.WriteToBytes()
}

// checkComplete collects every missing mandatory field so the caller can
// fix them in one pass.
func checkComplete(inv *model.Invoice) error {
	var missing []string

	if inv.ID == "" {
		missing = append(missing, "invoice id")
	}
	if inv.IssueDate.IsZero() {
		missing = append(missing, "issue date")
	}
	if inv.CurrencyCode == "" {
		missing = append(missing, "currency code")
	}
	if _, _, ok := inv.Supplier.SplitPeppolID(); !ok {
		missing = append(missing, "supplier peppol id")
	}
	if inv.Supplier.Name == "" {
		missing = append(missing, "supplier name")
	}
	if _, _, ok := inv.Buyer.SplitPeppolID(); !ok {
		missing = append(missing, "buyer peppol id")
	}
	if inv.Buyer.Name == "" {
		missing = append(missing, "buyer name")
	}
	if len(inv.Lines) == 0 {
		missing = append(missing, "invoice lines")
	}
	if len(inv.VATBreakdown) == 0 {
		missing = append(missing, "vat breakdown")
	}

	if len(missing) > 0 {
		return &model.IncompleteDocumentError{Missing: missing}
	}
	return nil
}

func text(parent *etree.Element, tag, value string) *etree.Element {
	e := parent.CreateElement(tag)
	e.SetText(value)
	return e
}

func amount(parent *etree.Element, tag string, value decimal.Decimal, currency string) {
	e := parent.CreateElement(tag)
	e.CreateAttr("currencyID", currency)
	e.SetText(money.FormatAmount(value))
}

func addParty(root *etree.Element, tag string, p model.Party) {
	scheme, value, _ := p.SplitPeppolID()

	wrapper := root.CreateElement(tag)
	party := wrapper.CreateElement("cac:Party")

	endpoint := text(party, "cbc:EndpointID", value)
	endpoint.CreateAttr("schemeID", scheme)

	name := party.CreateElement("cac:PartyName")
	text(name, "cbc:Name", p.Name)

	address := party.CreateElement("cac:PostalAddress")
	text(address, "cbc:StreetName", p.Street)
	text(address, "cbc:CityName", p.City)
	text(address, "cbc:PostalZone", p.PostalCode)
	country := address.CreateElement("cac:Country")
	text(country, "cbc:IdentificationCode", p.CountryCode)

	if p.VATNumber != "" {
		taxScheme := party.CreateElement("cac:PartyTaxScheme")
		text(taxScheme, "cbc:CompanyID", p.VATNumber)
		scheme := taxScheme.CreateElement("cac:TaxScheme")
		text(scheme, "cbc:ID", "VAT")
	}

	legal := party.CreateElement("cac:PartyLegalEntity")
	text(legal, "cbc:RegistrationName", p.Name)
}

func addTaxTotal(root *etree.Element, breakdown []model.VATBreakdownEntry, currency string) {
	taxTotal := root.CreateElement("cac:TaxTotal")
	amount(taxTotal, "cbc:TaxAmount", calc.TaxTotal(breakdown), currency)

	// breakdown is already an ordered sequence (rate asc, then category);
	// emitting it verbatim keeps the output reproducible
	for _, entry := range breakdown {
		subtotal := taxTotal.CreateElement("cac:TaxSubtotal")
		amount(subtotal, "cbc:TaxableAmount", entry.TaxableAmount, currency)
		amount(subtotal, "cbc:TaxAmount", entry.TaxAmount, currency)

		category := subtotal.CreateElement("cac:TaxCategory")
		text(category, "cbc:ID", string(entry.Category))
		text(category, "cbc:Percent", money.FormatPercent(entry.Rate))
		scheme := category.CreateElement("cac:TaxScheme")
		text(scheme, "cbc:ID", "VAT")
	}
}

func addMonetaryTotal(root *etree.Element, totals model.Totals, currency string) {
	monetary := root.CreateElement("cac:LegalMonetaryTotal")
	amount(monetary, "cbc:LineExtensionAmount", totals.LineExtensionAmount, currency)
	amount(monetary, "cbc:TaxExclusiveAmount", totals.TaxExclusiveAmount, currency)
	amount(monetary, "cbc:TaxInclusiveAmount", totals.TaxInclusiveAmount, currency)
	amount(monetary, "cbc:PayableAmount", totals.PayableAmount, currency)
}

func addLine(root *etree.Element, index int, line model.InvoiceLine, currency string) {
	e := root.CreateElement("cac:InvoiceLine")
	text(e, "cbc:ID", strconv.Itoa(index+1))

	qty := text(e, "cbc:InvoicedQuantity", money.FormatQuantity(line.Quantity))
	qty.CreateAttr("unitCode", unitCodeEach)

	amount(e, "cbc:LineExtensionAmount", line.NetAmount, currency)

	item := e.CreateElement("cac:Item")
	if line.Description != "" {
		text(item, "cbc:Description", line.Description)
	}
	text(item, "cbc:Name", line.Name)

	category := item.CreateElement("cac:ClassifiedTaxCategory")
	text(category, "cbc:ID", string(line.VATCategory))
	text(category, "cbc:Percent", money.FormatPercent(line.VATRate))
	scheme := category.CreateElement("cac:TaxScheme")
	text(scheme, "cbc:ID", "VAT")

	price := e.CreateElement("cac:Price")
	amount(price, "cbc:PriceAmount", line.UnitPrice, currency)
}
