package ubl

import "encoding/xml"

// Decode structures for received UBL invoices. Tags use local names only,
// so documents qualify elements with any prefix and any order; the
// serializer side owns the canonical sequence.

type ublInvoice struct {
	XMLName              xml.Name
	CustomizationID      string `xml:"CustomizationID"`
	ProfileID            string `xml:"ProfileID"`
	ID                   string `xml:"ID"`
	IssueDate            string `xml:"IssueDate"`
	DueDate              string `xml:"DueDate"`
	InvoiceTypeCode      string `xml:"InvoiceTypeCode"`
	DocumentCurrencyCode string `xml:"DocumentCurrencyCode"`
	BuyerReference       string `xml:"BuyerReference"`

	AdditionalDocumentReference []ublDocumentReference `xml:"AdditionalDocumentReference"`

	SupplierParty ublPartyWrapper `xml:"AccountingSupplierParty"`
	CustomerParty ublPartyWrapper `xml:"AccountingCustomerParty"`

	PaymentTermsNote []string `xml:"PaymentTerms>Note"`

	// A compliant document carries one TaxTotal in the document currency;
	// a second one may appear in the tax accounting currency.
	TaxTotal           []ublTaxTotal    `xml:"TaxTotal"`
	LegalMonetaryTotal ublMonetaryTotal `xml:"LegalMonetaryTotal"`
	Lines              []ublInvoiceLine `xml:"InvoiceLine"`
}

type ublDocumentReference struct {
	ID          string          `xml:"ID"`
	Attachments []ublAttachment `xml:"Attachment"`
}

type ublAttachment struct {
	EmbeddedBinaryObject *ublBinaryObject `xml:"EmbeddedDocumentBinaryObject"`
}

type ublBinaryObject struct {
	Value    string `xml:",chardata"`
	MimeCode string `xml:"mimeCode,attr"`
	Filename string `xml:"filename,attr"`
}

type ublPartyWrapper struct {
	Party ublParty `xml:"Party"`
}

type ublParty struct {
	EndpointID       ublEndpointID `xml:"EndpointID"`
	PartyName        string        `xml:"PartyName>Name"`
	PostalAddress    ublAddress    `xml:"PostalAddress"`
	TaxSchemes       []ublPartyTax `xml:"PartyTaxScheme"`
	RegistrationName string        `xml:"PartyLegalEntity>RegistrationName"`
}

type ublEndpointID struct {
	Value    string `xml:",chardata"`
	SchemeID string `xml:"schemeID,attr"`
}

type ublAddress struct {
	StreetName  string `xml:"StreetName"`
	CityName    string `xml:"CityName"`
	PostalZone  string `xml:"PostalZone"`
	CountryCode string `xml:"Country>IdentificationCode"`
}

type ublPartyTax struct {
	CompanyID string `xml:"CompanyID"`
	SchemeID  string `xml:"TaxScheme>ID"`
}

type ublTaxTotal struct {
	TaxAmount   ublAmount        `xml:"TaxAmount"`
	TaxSubtotal []ublTaxSubtotal `xml:"TaxSubtotal"`
}

type ublTaxSubtotal struct {
	TaxableAmount ublAmount      `xml:"TaxableAmount"`
	TaxAmount     ublAmount      `xml:"TaxAmount"`
	TaxCategory   ublTaxCategory `xml:"TaxCategory"`
}

type ublTaxCategory struct {
	ID      string `xml:"ID"`
	Percent string `xml:"Percent"`
}

type ublMonetaryTotal struct {
	LineExtensionAmount ublAmount `xml:"LineExtensionAmount"`
	TaxExclusiveAmount  ublAmount `xml:"TaxExclusiveAmount"`
	TaxInclusiveAmount  ublAmount `xml:"TaxInclusiveAmount"`
	PayableAmount       ublAmount `xml:"PayableAmount"`
}

type ublAmount struct {
	Value      string `xml:",chardata"`
	CurrencyID string `xml:"currencyID,attr"`
}

type ublInvoiceLine struct {
	ID                  string      `xml:"ID"`
	InvoicedQuantity    ublQuantity `xml:"InvoicedQuantity"`
	LineExtensionAmount ublAmount   `xml:"LineExtensionAmount"`
	Item                ublItem     `xml:"Item"`
	Price               ublPrice    `xml:"Price"`
}

type ublQuantity struct {
	Value    string `xml:",chardata"`
	UnitCode string `xml:"unitCode,attr"`
}

type ublItem struct {
	Description string         `xml:"Description"`
	Name        string         `xml:"Name"`
	TaxCategory ublTaxCategory `xml:"ClassifiedTaxCategory"`
}

type ublPrice struct {
	PriceAmount ublAmount `xml:"PriceAmount"`
}
