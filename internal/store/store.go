// Package store provides abstractions for the bookkeeping records an
// invoice is mapped into after sending or receiving. The codec itself never
// touches storage; Party values are copied into documents, not referenced.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// User is a company taking part in transactions, on either side.
type User struct {
	ID          string
	Company     string
	Name        string
	VATNumber   string
	CountryCode string
	Street      string
	City        string
	PostalCode  string
	PeppolID    string // e.g. "0208:BE0123456789"
}

// Transaction is one bookkeeping entry between two users.
type Transaction struct {
	ID          string
	Name        string
	FromUserID  string
	ToUserID    string
	Value       decimal.Decimal // amount excluding VAT
	VAT         decimal.Decimal
	VATRecovery decimal.Decimal
	Currency    string
	Start       time.Time
	End         *time.Time
	Intervat    bool
	Annotation  string
	Proof       string
}

// Invoice is the stored record of a sent or received Peppol invoice,
// linked to the transaction it was imported into.
type Invoice struct {
	ID              string
	ExternalID      string // UBL cbc:ID
	PeppolMessageID string
	SupplierID      string
	BuyerID         string
	IssueDate       time.Time
	Currency        string
	TotalAmount     decimal.Decimal
	VATAmount       decimal.Decimal
	TransactionID   string
}

// Store defines the bookkeeping persistence operations. The abstraction
// allows swapping storage backends without changing the service layer.
type Store interface {
	// CreateUser persists a new user; the ID field is populated if empty.
	CreateUser(ctx context.Context, user *User) error

	// GetUser retrieves a user by ID. Returns ErrNotFound if absent.
	GetUser(ctx context.Context, id string) (*User, error)

	// GetUserByCompany retrieves a user by company name.
	// Returns ErrNotFound if absent.
	GetUserByCompany(ctx context.Context, company string) (*User, error)

	// CreateTransaction persists a new transaction.
	CreateTransaction(ctx context.Context, tx *Transaction) error

	// CreateInvoice persists an invoice record.
	CreateInvoice(ctx context.Context, inv *Invoice) error

	// GetInvoiceByMessageID retrieves an invoice by its Peppol message id,
	// used to keep inbox imports idempotent. Returns ErrNotFound if absent.
	GetInvoiceByMessageID(ctx context.Context, messageID string) (*Invoice, error)

	// ListInvoices returns all stored invoice records, newest first.
	ListInvoices(ctx context.Context) ([]Invoice, error)

	// Close releases any resources held by the store.
	Close() error
}
