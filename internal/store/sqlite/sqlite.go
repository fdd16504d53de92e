// Package sqlite provides a SQLite-backed implementation of the store.Store
// interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/rezonia/peppol-bookkeeping/internal/store"
)

// Ensure SQLiteStore implements store.Store
var _ store.Store = (*SQLiteStore)(nil)

// SQLiteStore implements store.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// The pragma rides on the DSN so every pooled connection enforces
	// foreign keys, not just the first one.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateUser persists a new user to the database.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *store.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CountryCode == "" {
		user.CountryCode = "BE"
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, company, name, vat_number, country_code, street, city, postal_code, peppol_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Company, user.Name, user.VATNumber, user.CountryCode,
		user.Street, user.City, user.PostalCode, user.PeppolID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*store.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, company, name, vat_number, country_code, street, city, postal_code, peppol_id
		 FROM users WHERE id = ?`, id))
}

// GetUserByCompany retrieves a user by company name.
func (s *SQLiteStore) GetUserByCompany(ctx context.Context, company string) (*store.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, company, name, vat_number, country_code, street, city, postal_code, peppol_id
		 FROM users WHERE company = ?`, company))
}

func (s *SQLiteStore) scanUser(row *sql.Row) (*store.User, error) {
	user := &store.User{}
	err := row.Scan(&user.ID, &user.Company, &user.Name, &user.VATNumber,
		&user.CountryCode, &user.Street, &user.City, &user.PostalCode, &user.PeppolID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// CreateTransaction persists a new transaction to the database.
func (s *SQLiteStore) CreateTransaction(ctx context.Context, tx *store.Transaction) error {
	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	if tx.Currency == "" {
		tx.Currency = "EUR"
	}
	if tx.VATRecovery.IsZero() {
		tx.VATRecovery = decimal.NewFromInt(1)
	}

	var endAt *int64
	if tx.End != nil {
		v := tx.End.Unix()
		endAt = &v
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (id, name, from_user_id, to_user_id, value, vat, vat_recovery, currency, start_at, end_at, intervat, annotation, proof)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.Name, tx.FromUserID, tx.ToUserID,
		tx.Value.String(), tx.VAT.String(), tx.VATRecovery.String(), tx.Currency,
		tx.Start.Unix(), endAt, tx.Intervat, tx.Annotation, tx.Proof,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// CreateInvoice persists an invoice record to the database.
func (s *SQLiteStore) CreateInvoice(ctx context.Context, inv *store.Invoice) error {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO invoices (id, external_id, peppol_message_id, supplier_id, buyer_id, issue_date, currency, total_amount, vat_amount, transaction_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.ExternalID, inv.PeppolMessageID, inv.SupplierID, inv.BuyerID,
		inv.IssueDate.Unix(), inv.Currency, inv.TotalAmount.String(), inv.VATAmount.String(), inv.TransactionID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert invoice: %w", err)
	}
	return nil
}

// GetInvoiceByMessageID retrieves an invoice by its Peppol message id.
func (s *SQLiteStore) GetInvoiceByMessageID(ctx context.Context, messageID string) (*store.Invoice, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, external_id, peppol_message_id, supplier_id, buyer_id, issue_date, currency, total_amount, vat_amount, transaction_id
		 FROM invoices WHERE peppol_message_id = ?`, messageID)

	inv, err := scanInvoice(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return inv, nil
}

// ListInvoices returns all stored invoice records, newest first.
func (s *SQLiteStore) ListInvoices(ctx context.Context) ([]store.Invoice, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, external_id, peppol_message_id, supplier_id, buyer_id, issue_date, currency, total_amount, vat_amount, transaction_id
		 FROM invoices ORDER BY issue_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []store.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate invoices: %w", err)
	}
	return invoices, nil
}

func scanInvoice(scan func(dest ...any) error) (*store.Invoice, error) {
	inv := &store.Invoice{}
	var issueDate int64
	var total, vat string
	if err := scan(&inv.ID, &inv.ExternalID, &inv.PeppolMessageID, &inv.SupplierID,
		&inv.BuyerID, &issueDate, &inv.Currency, &total, &vat, &inv.TransactionID); err != nil {
		return nil, err
	}
	inv.IssueDate = time.Unix(issueDate, 0).UTC()

	var err error
	if inv.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("invalid total amount %q: %w", total, err)
	}
	if inv.VATAmount, err = decimal.NewFromString(vat); err != nil {
		return nil, fmt.Errorf("invalid vat amount %q: %w", vat, err)
	}
	return inv, nil
}
