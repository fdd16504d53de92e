package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rezonia/peppol-bookkeeping/internal/store"
)

var (
	userName        string
	userVATNumber   string
	userCountryCode string
	userStreet      string
	userCity        string
	userPostalCode  string
	userPeppolID    string
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage ledger users",
}

var usersAddCmd = &cobra.Command{
	Use:   "add <company>",
	Short: "Register a company in the ledger",
	Long: `Register a company so it can appear as supplier or buyer on sent
invoices.

Examples:
  peppol-bookkeeping users add "Acme BV" \
    --vat-number BE0123456789 \
    --peppol-id 0208:0123456789 \
    --street "Main Street 1" --city Brussels --postal-code 1000`,
	Args: cobra.ExactArgs(1),
	RunE: runUsersAdd,
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersAddCmd)

	usersAddCmd.Flags().StringVar(&userName, "contact", "", "Contact person name")
	usersAddCmd.Flags().StringVar(&userVATNumber, "vat-number", "", "VAT number (e.g. BE0123456789)")
	usersAddCmd.Flags().StringVar(&userCountryCode, "country", "BE", "ISO 3166-1 alpha-2 country code")
	usersAddCmd.Flags().StringVar(&userStreet, "street", "", "Street and number")
	usersAddCmd.Flags().StringVar(&userCity, "city", "", "City")
	usersAddCmd.Flags().StringVar(&userPostalCode, "postal-code", "", "Postal code")
	usersAddCmd.Flags().StringVar(&userPeppolID, "peppol-id", "", "Peppol participant id (scheme:value)")
}

func runUsersAdd(cmd *cobra.Command, args []string) error {
	st, err := newStore()
	if err != nil {
		return err
	}
	defer st.Close()

	user := &store.User{
		Company:     args[0],
		Name:        userName,
		VATNumber:   userVATNumber,
		CountryCode: userCountryCode,
		Street:      userStreet,
		City:        userCity,
		PostalCode:  userPostalCode,
		PeppolID:    userPeppolID,
	}
	if err := st.CreateUser(context.Background(), user); err != nil {
		return err
	}

	fmt.Printf("Registered %s (%s)\n", user.Company, user.ID)
	return nil
}
