package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/rezonia/peppol-bookkeeping/internal/bookkeeping"
	"github.com/rezonia/peppol-bookkeeping/internal/logger"
	"github.com/rezonia/peppol-bookkeeping/internal/peppyrus"
	"github.com/rezonia/peppol-bookkeeping/internal/store"
	"github.com/rezonia/peppol-bookkeeping/internal/store/sqlite"
)

var (
	version = "1.0.0"

	// Global flags
	verbose    bool
	apiKey     string
	gatewayURL string
	dbPath     string
)

var rootCmd = &cobra.Command{
	Use:   "peppol-bookkeeping",
	Short: "Build, parse and exchange Peppol BIS Billing 3.0 invoices",
	Long: `peppol-bookkeeping is a CLI for UBL 2.1 invoices on the Peppol network.

It builds invoice documents with verified totals, parses and cross-checks
received documents, and talks to a Peppyrus access point for sending and
receiving, recording everything in a local ledger.

Examples:
  # Generate an invoice XML from a JSON description
  peppol-bookkeeping generate invoice.json -o invoice.xml

  # Parse and cross-check a received document
  peppol-bookkeeping parse invoice.xml

  # Send an invoice through the access point
  peppol-bookkeeping send invoice.json --api-key <key>

  # Import everything in the inbox
  peppol-bookkeeping receive`,
	Version: version,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Access point API key (env: PEPPOL_API_KEY)")
	rootCmd.PersistentFlags().StringVar(&gatewayURL, "gateway-url", "", "Access point base URL (env: PEPPOL_ENDPOINT)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Ledger database path (env: PEPPOL_DB)")

	// Load from environment variables if not set via flags
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// A .env file is optional.
	_ = godotenv.Load()

	if apiKey == "" {
		apiKey = os.Getenv("PEPPOL_API_KEY")
	}
	if gatewayURL == "" {
		gatewayURL = os.Getenv("PEPPOL_ENDPOINT")
	}
	if dbPath == "" {
		dbPath = os.Getenv("PEPPOL_DB")
	}
	if dbPath == "" {
		dbPath = "peppol-bookkeeping.db"
	}

	level := "info"
	if verbose {
		level = "debug"
	}
	_ = logger.Setup(logger.Config{Level: level, Format: "console", Output: os.Stderr})
}

// newService opens the ledger store and the gateway client. The returned
// cleanup closes the store.
func newService() (*bookkeeping.Service, func(), error) {
	if apiKey == "" {
		return nil, nil, fmt.Errorf("access point API key required (--api-key or PEPPOL_API_KEY)")
	}

	st, err := sqlite.New(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open ledger: %w", err)
	}

	var opts []peppyrus.Option
	if gatewayURL != "" {
		opts = append(opts, peppyrus.WithBaseURL(gatewayURL))
	}
	client := peppyrus.NewClient(apiKey, opts...)

	cleanup := func() { st.Close() }
	return bookkeeping.NewService(st, client), cleanup, nil
}

// newStore opens the ledger store alone, for commands that do not need
// the gateway.
func newStore() (store.Store, error) {
	return sqlite.New(dbPath)
}

func printVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}
