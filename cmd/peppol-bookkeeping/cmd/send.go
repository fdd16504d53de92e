package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezonia/peppol-bookkeeping/internal/bookkeeping"
)

var sendTimeout time.Duration

var sendCmd = &cobra.Command{
	Use:   "send <invoice.json>",
	Short: "Send an invoice through the access point",
	Long: `Build an invoice between two ledger users, transmit it through the
access point and record the transaction.

The JSON description names the parties by company (supplier_company,
buyer_company); both must already exist in the ledger. See
'peppol-bookkeeping users add'.

Examples:
  peppol-bookkeeping send invoice.json --api-key <key>
  peppol-bookkeeping send invoice.json --gateway-url https://api.peppyrus.be/`,
	Args: cobra.ExactArgs(1),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().DurationVar(&sendTimeout, "timeout", 30*time.Second, "Transmission timeout")
}

func runSend(cmd *cobra.Command, args []string) error {
	in, err := readInvoiceInput(args[0])
	if err != nil {
		return err
	}
	if in.SupplierCompany == "" || in.BuyerCompany == "" {
		return fmt.Errorf("supplier_company and buyer_company are required")
	}

	issueDate, dueDate, err := in.dates()
	if err != nil {
		return err
	}
	if issueDate.IsZero() {
		issueDate = time.Now()
	}
	items, err := in.lineInputs()
	if err != nil {
		return err
	}

	svc, cleanup, err := newService()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	result, err := svc.SendInvoice(ctx, bookkeeping.SendRequest{
		SupplierCompany: in.SupplierCompany,
		BuyerCompany:    in.BuyerCompany,
		InvoiceID:       in.InvoiceID,
		IssueDate:       issueDate,
		DueDate:         dueDate,
		Currency:        in.Currency,
		Items:           items,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Sent invoice %s (transaction %s)\n", result.InvoiceID, result.TransactionID)
	printVerbose("Gateway response: %s\n", result.GatewayResponse)
	return nil
}
