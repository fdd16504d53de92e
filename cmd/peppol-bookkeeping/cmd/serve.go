package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezonia/peppol-bookkeeping/internal/bookkeeping"
	"github.com/rezonia/peppol-bookkeeping/internal/server"
)

var (
	serverAddr   string
	serverDebug  bool
	readTimeout  time.Duration
	writeTimeout time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP API server around the invoice codec and the ledger.

The API provides endpoints for:
  - POST /api/v1/invoices        - Build an invoice XML from JSON
  - POST /api/v1/invoices/parse  - Parse and cross-check an invoice XML
  - POST /api/v1/invoices/send   - Send an invoice through the access point
  - POST /api/v1/inbox/import    - Import the access point inbox
  - GET  /health                 - Health check

Without an API key only the build and parse endpoints are available.

Examples:
  # Codec-only server
  peppol-bookkeeping serve

  # Full server with gateway and ledger
  peppol-bookkeeping serve --api-key <key> --db ledger.db

  # Start in debug mode
  peppol-bookkeeping serve --debug`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverAddr, "address", ":8080", "Server listen address")
	serveCmd.Flags().BoolVar(&serverDebug, "debug", false, "Enable debug mode")
	serveCmd.Flags().DurationVar(&readTimeout, "read-timeout", 30*time.Second, "HTTP read timeout")
	serveCmd.Flags().DurationVar(&writeTimeout, "write-timeout", 2*time.Minute, "HTTP write timeout")
}

func runServe(cmd *cobra.Command, args []string) error {
	config := &server.Config{
		Address:      serverAddr,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		Debug:        serverDebug,
	}

	var svc *bookkeeping.Service
	if apiKey != "" {
		var cleanup func()
		var err error
		svc, cleanup, err = newService()
		if err != nil {
			return err
		}
		defer cleanup()
	}

	srv := server.NewServer(config, svc)

	// Handle graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		fmt.Println("\nShutting down server...")
		os.Exit(0)
	}()

	fmt.Printf("Starting server on %s\n", serverAddr)
	if svc != nil {
		fmt.Println("Gateway endpoints enabled")
	} else {
		fmt.Println("Gateway endpoints disabled (no API key)")
	}

	return srv.Run()
}
