package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var invoicesCmd = &cobra.Command{
	Use:   "invoices",
	Short: "List invoices recorded in the ledger",
	Long: `List every sent and received invoice in the ledger, newest first.

Examples:
  peppol-bookkeeping invoices
  peppol-bookkeeping invoices --db ledger.db`,
	RunE: runInvoices,
}

func init() {
	rootCmd.AddCommand(invoicesCmd)
}

func runInvoices(cmd *cobra.Command, args []string) error {
	st, err := newStore()
	if err != nil {
		return err
	}
	defer st.Close()

	invoices, err := st.ListInvoices(context.Background())
	if err != nil {
		return err
	}

	if len(invoices) == 0 {
		fmt.Println("No invoices recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "INVOICE\tDATE\tTOTAL\tVAT\tCURRENCY\tMESSAGE")
	fmt.Fprintln(tw, "-------\t----\t-----\t---\t--------\t-------")
	for _, inv := range invoices {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			inv.ExternalID,
			inv.IssueDate.Format(dateLayout),
			inv.TotalAmount.StringFixed(2),
			inv.VATAmount.StringFixed(2),
			inv.Currency,
			inv.PeppolMessageID,
		)
	}
	return tw.Flush()
}
