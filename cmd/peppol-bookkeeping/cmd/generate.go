package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rezonia/peppol-bookkeeping/internal/bookkeeping"
	"github.com/rezonia/peppol-bookkeeping/internal/ubl"
)

var generateOutput string

var generateCmd = &cobra.Command{
	Use:   "generate <invoice.json>",
	Short: "Generate a BIS Billing 3.0 invoice XML",
	Long: `Generate a UBL 2.1 invoice document from a JSON description.

The JSON file holds the invoice header, the supplier and buyer parties
and the line items. Line amounts, the VAT breakdown and the monetary
totals are computed, never taken from the input.

Example input:
  {
    "invoice_id": "INV-2026-001",
    "issue_date": "2026-01-15",
    "currency": "EUR",
    "supplier": {
      "peppol_id": "0208:0123456789",
      "name": "Acme BV",
      "vat_number": "BE0123456789",
      "street": "Main Street 1",
      "city": "Brussels",
      "postal_code": "1000",
      "country_code": "BE"
    },
    "buyer": { ... },
    "items": [
      {"name": "Consulting", "quantity": "10", "unit_price": "75.00", "vat_rate": "0.21"}
    ]
  }`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "Output file (default: stdout)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	in, err := readInvoiceInput(args[0])
	if err != nil {
		return err
	}
	if in.Supplier == nil || in.Buyer == nil {
		return fmt.Errorf("both supplier and buyer parties are required")
	}

	issueDate, dueDate, err := in.dates()
	if err != nil {
		return err
	}
	items, err := in.lineInputs()
	if err != nil {
		return err
	}

	inv, err := bookkeeping.BuildInvoice(in.Supplier.party(), in.Buyer.party(),
		in.InvoiceID, issueDate, dueDate, in.Currency, items)
	if err != nil {
		return err
	}

	xmlBytes, err := ubl.Serialize(inv)
	if err != nil {
		return err
	}

	printVerbose("Generated %s: %d lines, payable %s %s\n",
		inv.ID, len(inv.Lines), inv.Totals.PayableAmount.StringFixed(2), inv.CurrencyCode)

	if generateOutput == "" {
		_, err = os.Stdout.Write(xmlBytes)
		return err
	}
	return os.WriteFile(generateOutput, xmlBytes, 0o644)
}
