package server

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rezonia/peppol-bookkeeping/internal/model"
	"github.com/rezonia/peppol-bookkeeping/internal/money"
)

// PartyInput identifies one trading party in a build request.
type PartyInput struct {
	PeppolID    string `json:"peppol_id"`
	Name        string `json:"name"`
	VATNumber   string `json:"vat_number,omitempty"`
	Street      string `json:"street"`
	City        string `json:"city"`
	PostalCode  string `json:"postal_code"`
	CountryCode string `json:"country_code"`
}

// LineItemInput is one billable item in a build or send request. Amounts
// are decimal strings; vat_rate is a fraction ("0.21" for 21%).
type LineItemInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	VATRate     string `json:"vat_rate"`
	VATCategory string `json:"vat_category,omitempty"`
}

// BuildRequest is the request for the build endpoint.
type BuildRequest struct {
	InvoiceID string          `json:"invoice_id"`
	IssueDate string          `json:"issue_date"`
	DueDate   string          `json:"due_date,omitempty"`
	Currency  string          `json:"currency,omitempty"`
	Supplier  PartyInput      `json:"supplier"`
	Buyer     PartyInput      `json:"buyer"`
	Items     []LineItemInput `json:"items"`
}

// SendRequest is the request for the send endpoint. Parties are resolved
// from stored users by company name.
type SendRequest struct {
	SupplierCompany string          `json:"supplier_company"`
	BuyerCompany    string          `json:"buyer_company"`
	InvoiceID       string          `json:"invoice_id"`
	IssueDate       string          `json:"issue_date"`
	DueDate         string          `json:"due_date,omitempty"`
	Currency        string          `json:"currency,omitempty"`
	Items           []LineItemInput `json:"items"`
}

// SendResponse reports a transmitted invoice.
type SendResponse struct {
	InvoiceID       string `json:"invoice_id"`
	GatewayResponse string `json:"gateway_response"`
	TransactionID   string `json:"transaction_id"`
	InvoiceRecordID string `json:"invoice_record_id"`
}

// PartyOutput is a party in a parse response.
type PartyOutput struct {
	PeppolID    string `json:"peppol_id"`
	Name        string `json:"name"`
	VATNumber   string `json:"vat_number,omitempty"`
	Street      string `json:"street"`
	City        string `json:"city"`
	PostalCode  string `json:"postal_code"`
	CountryCode string `json:"country_code"`
}

// LineOutput is an invoice line in a parse response.
type LineOutput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	VATRate     string `json:"vat_rate"`
	VATCategory string `json:"vat_category"`
	NetAmount   string `json:"net_amount"`
}

// BreakdownOutput is one VAT breakdown entry in a parse response.
type BreakdownOutput struct {
	VATRate       string `json:"vat_rate"`
	VATCategory   string `json:"vat_category"`
	TaxableAmount string `json:"taxable_amount"`
	TaxAmount     string `json:"tax_amount"`
}

// TotalsOutput holds the document totals in a parse response.
type TotalsOutput struct {
	LineExtensionAmount string `json:"line_extension_amount"`
	TaxExclusiveAmount  string `json:"tax_exclusive_amount"`
	TaxInclusiveAmount  string `json:"tax_inclusive_amount"`
	PayableAmount       string `json:"payable_amount"`
}

// InvoiceResponse is the response for the parse endpoint.
type InvoiceResponse struct {
	InvoiceID      string            `json:"invoice_id"`
	IssueDate      string            `json:"issue_date"`
	DueDate        string            `json:"due_date,omitempty"`
	Currency       string            `json:"currency"`
	BuyerReference string            `json:"buyer_reference,omitempty"`
	Supplier       PartyOutput       `json:"supplier"`
	Buyer          PartyOutput       `json:"buyer"`
	Lines          []LineOutput      `json:"lines"`
	VATBreakdown   []BreakdownOutput `json:"vat_breakdown"`
	Totals         TotalsOutput      `json:"totals"`
	TotalsVerified bool              `json:"totals_verified"`
}

// ImportItemResponse reports one inbox message processed by the import
// endpoint.
type ImportItemResponse struct {
	MessageID string `json:"message_id"`
	InvoiceID string `json:"invoice_id,omitempty"`
	Supplier  string `json:"supplier,omitempty"`
	Buyer     string `json:"buyer,omitempty"`
	Total     string `json:"total,omitempty"`
	VAT       string `json:"vat,omitempty"`
	Skipped   bool   `json:"skipped,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ImportResponse is the response for the import endpoint.
type ImportResponse struct {
	Imported int                  `json:"imported"`
	Skipped  int                  `json:"skipped"`
	Failed   int                  `json:"failed"`
	Results  []ImportItemResponse `json:"results"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

const dateLayout = "2006-01-02"

func invoiceResponse(inv *model.Invoice) InvoiceResponse {
	resp := InvoiceResponse{
		InvoiceID:      inv.ID,
		IssueDate:      inv.IssueDate.Format(dateLayout),
		Currency:       inv.CurrencyCode,
		BuyerReference: inv.BuyerReference,
		Supplier:       partyOutput(inv.Supplier),
		Buyer:          partyOutput(inv.Buyer),
		Totals: TotalsOutput{
			LineExtensionAmount: money.FormatAmount(inv.Totals.LineExtensionAmount),
			TaxExclusiveAmount:  money.FormatAmount(inv.Totals.TaxExclusiveAmount),
			TaxInclusiveAmount:  money.FormatAmount(inv.Totals.TaxInclusiveAmount),
			PayableAmount:       money.FormatAmount(inv.Totals.PayableAmount),
		},
		TotalsVerified: inv.TotalsVerified,
	}
	if !inv.DueDate.IsZero() {
		resp.DueDate = inv.DueDate.Format(dateLayout)
	}
	for _, line := range inv.Lines {
		resp.Lines = append(resp.Lines, LineOutput{
			Name:        line.Name,
			Description: line.Description,
			Quantity:    money.FormatQuantity(line.Quantity),
			UnitPrice:   money.FormatAmount(line.UnitPrice),
			VATRate:     line.VATRate.String(),
			VATCategory: string(line.VATCategory),
			NetAmount:   money.FormatAmount(line.NetAmount),
		})
	}
	for _, entry := range inv.VATBreakdown {
		resp.VATBreakdown = append(resp.VATBreakdown, BreakdownOutput{
			VATRate:       entry.Rate.String(),
			VATCategory:   string(entry.Category),
			TaxableAmount: money.FormatAmount(entry.TaxableAmount),
			TaxAmount:     money.FormatAmount(entry.TaxAmount),
		})
	}
	return resp
}

func partyOutput(p model.Party) PartyOutput {
	return PartyOutput{
		PeppolID:    p.PeppolID,
		Name:        p.Name,
		VATNumber:   p.VATNumber,
		Street:      p.Street,
		City:        p.City,
		PostalCode:  p.PostalCode,
		CountryCode: p.CountryCode,
	}
}

func partyFromInput(in PartyInput) model.Party {
	return model.Party{
		PeppolID:    in.PeppolID,
		Name:        in.Name,
		VATNumber:   in.VATNumber,
		Street:      in.Street,
		City:        in.City,
		PostalCode:  in.PostalCode,
		CountryCode: in.CountryCode,
	}
}

func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, value)
}

func parseAmount(field, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, &fieldError{field: field, value: value}
	}
	return d, nil
}

type fieldError struct {
	field string
	value string
}

func (e *fieldError) Error() string {
	return "invalid decimal for " + e.field + ": " + e.value
}
