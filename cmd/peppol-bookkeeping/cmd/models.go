package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rezonia/peppol-bookkeeping/internal/bookkeeping"
	"github.com/rezonia/peppol-bookkeeping/internal/model"
	"github.com/rezonia/peppol-bookkeeping/internal/money"
)

const dateLayout = "2006-01-02"

// partyInput is a trading party in a JSON invoice description.
type partyInput struct {
	PeppolID    string `json:"peppol_id"`
	Name        string `json:"name"`
	VATNumber   string `json:"vat_number,omitempty"`
	Street      string `json:"street"`
	City        string `json:"city"`
	PostalCode  string `json:"postal_code"`
	CountryCode string `json:"country_code"`
}

// itemInput is one billable item in a JSON invoice description. Amounts
// are decimal strings; vat_rate is a fraction ("0.21" for 21%).
type itemInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	VATRate     string `json:"vat_rate"`
	VATCategory string `json:"vat_category,omitempty"`
}

// invoiceInput is the JSON invoice description consumed by generate and
// send. generate takes inline supplier/buyer parties; send takes company
// names resolved against the ledger.
type invoiceInput struct {
	InvoiceID       string      `json:"invoice_id"`
	IssueDate       string      `json:"issue_date"`
	DueDate         string      `json:"due_date,omitempty"`
	Currency        string      `json:"currency,omitempty"`
	Supplier        *partyInput `json:"supplier,omitempty"`
	Buyer           *partyInput `json:"buyer,omitempty"`
	SupplierCompany string      `json:"supplier_company,omitempty"`
	BuyerCompany    string      `json:"buyer_company,omitempty"`
	Items           []itemInput `json:"items"`
}

func readInvoiceInput(path string) (*invoiceInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var in invoiceInput
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &in, nil
}

func (in *invoiceInput) dates() (issue, due time.Time, err error) {
	if in.IssueDate != "" {
		issue, err = time.Parse(dateLayout, in.IssueDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("issue_date: %w", err)
		}
	}
	if in.DueDate != "" {
		due, err = time.Parse(dateLayout, in.DueDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("due_date: %w", err)
		}
	}
	return issue, due, nil
}

func (in *invoiceInput) lineInputs() ([]bookkeeping.LineInput, error) {
	items := make([]bookkeeping.LineInput, 0, len(in.Items))
	for i, item := range in.Items {
		qty, err := decimal.NewFromString(item.Quantity)
		if err != nil {
			return nil, fmt.Errorf("item %d: quantity %q: %w", i, item.Quantity, err)
		}
		price, err := decimal.NewFromString(item.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("item %d: unit_price %q: %w", i, item.UnitPrice, err)
		}
		rate, err := decimal.NewFromString(item.VATRate)
		if err != nil {
			return nil, fmt.Errorf("item %d: vat_rate %q: %w", i, item.VATRate, err)
		}
		items = append(items, bookkeeping.LineInput{
			Name:        item.Name,
			Description: item.Description,
			Quantity:    qty,
			UnitPrice:   price,
			VATRate:     rate,
			VATCategory: model.VATCategory(item.VATCategory),
		})
	}
	return items, nil
}

func (p *partyInput) party() model.Party {
	return model.Party{
		PeppolID:    p.PeppolID,
		Name:        p.Name,
		VATNumber:   p.VATNumber,
		Street:      p.Street,
		City:        p.City,
		PostalCode:  p.PostalCode,
		CountryCode: p.CountryCode,
	}
}

// invoiceOutput is the JSON shape parse prints.
type invoiceOutput struct {
	InvoiceID      string            `json:"invoice_id"`
	IssueDate      string            `json:"issue_date"`
	DueDate        string            `json:"due_date,omitempty"`
	Currency       string            `json:"currency"`
	Supplier       string            `json:"supplier"`
	SupplierID     string            `json:"supplier_peppol_id"`
	Buyer          string            `json:"buyer"`
	BuyerID        string            `json:"buyer_peppol_id"`
	Lines          []lineOutput      `json:"lines"`
	VATBreakdown   []breakdownOutput `json:"vat_breakdown"`
	NetTotal       string            `json:"net_total"`
	TaxTotal       string            `json:"tax_total"`
	PayableAmount  string            `json:"payable_amount"`
	TotalsVerified bool              `json:"totals_verified"`
}

type lineOutput struct {
	Name      string `json:"name"`
	Quantity  string `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	VATRate   string `json:"vat_rate"`
	NetAmount string `json:"net_amount"`
}

type breakdownOutput struct {
	VATRate       string `json:"vat_rate"`
	VATCategory   string `json:"vat_category"`
	TaxableAmount string `json:"taxable_amount"`
	TaxAmount     string `json:"tax_amount"`
}

func outputFromInvoice(inv *model.Invoice) invoiceOutput {
	out := invoiceOutput{
		InvoiceID:      inv.ID,
		IssueDate:      inv.IssueDate.Format(dateLayout),
		Currency:       inv.CurrencyCode,
		Supplier:       inv.Supplier.Name,
		SupplierID:     inv.Supplier.PeppolID,
		Buyer:          inv.Buyer.Name,
		BuyerID:        inv.Buyer.PeppolID,
		NetTotal:       money.FormatAmount(inv.Totals.TaxExclusiveAmount),
		PayableAmount:  money.FormatAmount(inv.Totals.PayableAmount),
		TotalsVerified: inv.TotalsVerified,
	}
	if !inv.DueDate.IsZero() {
		out.DueDate = inv.DueDate.Format(dateLayout)
	}
	out.TaxTotal = money.FormatAmount(inv.Totals.TaxInclusiveAmount.Sub(inv.Totals.TaxExclusiveAmount))
	for _, line := range inv.Lines {
		out.Lines = append(out.Lines, lineOutput{
			Name:      line.Name,
			Quantity:  money.FormatQuantity(line.Quantity),
			UnitPrice: money.FormatAmount(line.UnitPrice),
			VATRate:   line.VATRate.String(),
			NetAmount: money.FormatAmount(line.NetAmount),
		})
	}
	for _, entry := range inv.VATBreakdown {
		out.VATBreakdown = append(out.VATBreakdown, breakdownOutput{
			VATRate:       entry.Rate.String(),
			VATCategory:   string(entry.Category),
			TaxableAmount: money.FormatAmount(entry.TaxableAmount),
			TaxAmount:     money.FormatAmount(entry.TaxAmount),
		})
	}
	return out
}
