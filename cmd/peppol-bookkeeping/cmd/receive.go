package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var receiveTimeout time.Duration

var receiveCmd = &cobra.Command{
	Use:   "receive",
	Short: "Import received invoices from the access point inbox",
	Long: `Fetch every document waiting in the access point inbox, parse and
cross-check it, and record it in the ledger.

Messages already imported are skipped. A document that fails to parse
or fails its totals cross-check is reported and left out of the ledger;
the rest of the batch still imports.

Examples:
  peppol-bookkeeping receive --api-key <key>`,
	RunE: runReceive,
}

func init() {
	rootCmd.AddCommand(receiveCmd)

	receiveCmd.Flags().DurationVar(&receiveTimeout, "timeout", 2*time.Minute, "Import timeout for the whole batch")
}

func runReceive(cmd *cobra.Command, args []string) error {
	svc, cleanup, err := newService()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), receiveTimeout)
	defer cancel()

	results, err := svc.ImportInbox(ctx)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Println("Inbox is empty.")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MESSAGE\tINVOICE\tSUPPLIER\tTOTAL\tSTATUS")
	fmt.Fprintln(tw, "-------\t-------\t--------\t-----\t------")

	var imported, skipped, failed int
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed++
			fmt.Fprintf(tw, "%s\t%s\t%s\t\tERROR: %v\n", r.MessageID, r.InvoiceID, r.Supplier, r.Err)
		case r.Skipped:
			skipped++
			fmt.Fprintf(tw, "%s\t\t\t\talready imported\n", r.MessageID)
		default:
			imported++
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\timported\n",
				r.MessageID, r.InvoiceID, r.Supplier, r.Total.StringFixed(2))
		}
	}
	tw.Flush()

	fmt.Printf("\n%d imported, %d skipped, %d failed\n", imported, skipped, failed)
	if failed > 0 {
		return fmt.Errorf("%d messages failed to import", failed)
	}
	return nil
}
