// Package bookkeeping orchestrates the invoice codec, the gateway transport
// and the store: building and sending outgoing invoices, and importing
// received ones into users, transactions and invoice records.
package bookkeeping

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rezonia/peppol-bookkeeping/internal/calc"
	"github.com/rezonia/peppol-bookkeeping/internal/logger"
	"github.com/rezonia/peppol-bookkeeping/internal/model"
	"github.com/rezonia/peppol-bookkeeping/internal/peppyrus"
	"github.com/rezonia/peppol-bookkeeping/internal/store"
	"github.com/rezonia/peppol-bookkeeping/internal/ubl"
)

// Gateway is the access-point transport the service sends and receives
// through. *peppyrus.Client satisfies it.
type Gateway interface {
	Send(ctx context.Context, xmlBytes []byte) (string, error)
	ListInbox(ctx context.Context) ([]peppyrus.Message, error)
	GetDocument(ctx context.Context, messageID string) ([]byte, error)
}

// LineInput is one billable item as supplied by the caller. VATRate is a
// fraction (0.21 for 21%).
type LineInput struct {
	Name        string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	VATRate     decimal.Decimal
	VATCategory model.VATCategory
}

// SendRequest describes an outgoing invoice. Supplier and buyer are looked
// up in the store by company name.
type SendRequest struct {
	SupplierCompany string
	BuyerCompany    string
	InvoiceID       string
	IssueDate       time.Time
	DueDate         time.Time
	Currency        string
	Items           []LineInput
}

// SendResult reports a successfully transmitted invoice.
type SendResult struct {
	InvoiceID       string
	XML             []byte
	GatewayResponse string
	TransactionID   string
	InvoiceRecordID string
}

// ImportResult reports one inbox message processed by ImportInbox.
type ImportResult struct {
	MessageID       string
	InvoiceID       string
	Supplier        string
	Buyer           string
	IssueDate       time.Time
	Total           decimal.Decimal
	VAT             decimal.Decimal
	TransactionID   string
	InvoiceRecordID string
	Skipped         bool
	Err             error
}

// Service wires the codec to the store and the gateway.
type Service struct {
	store   store.Store
	gateway Gateway
	log     zerolog.Logger
}

// NewService creates a bookkeeping service.
func NewService(st store.Store, gw Gateway) *Service {
	return &Service{
		store:   st,
		gateway: gw,
		log:     logger.WithComponent("bookkeeping"),
	}
}

// BuildInvoice assembles a document model from two parties and line
// descriptors and fills its derived amounts.
func BuildInvoice(supplier, buyer model.Party, invoiceID string, issueDate, dueDate time.Time, currency string, items []LineInput) (*model.Invoice, error) {
	if currency == "" {
		currency = "EUR"
	}

	lines := make([]model.InvoiceLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, model.InvoiceLine{
			Name:        item.Name,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			VATRate:     item.VATRate,
			VATCategory: item.VATCategory,
		})
	}

	inv := &model.Invoice{
		ID:           invoiceID,
		IssueDate:    issueDate,
		DueDate:      dueDate,
		CurrencyCode: currency,
		Supplier:     supplier,
		Buyer:        buyer,
		Lines:        lines,
	}
	if err := calc.Apply(inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// SendInvoice builds, serializes and transmits an invoice between two
// stored users, then records the outgoing transaction and invoice.
func (s *Service) SendInvoice(ctx context.Context, req SendRequest) (*SendResult, error) {
	supplier, err := s.store.GetUserByCompany(ctx, req.SupplierCompany)
	if err != nil {
		return nil, fmt.Errorf("supplier %q: %w", req.SupplierCompany, err)
	}
	buyer, err := s.store.GetUserByCompany(ctx, req.BuyerCompany)
	if err != nil {
		return nil, fmt.Errorf("buyer %q: %w", req.BuyerCompany, err)
	}

	inv, err := BuildInvoice(partyFromUser(supplier), partyFromUser(buyer),
		req.InvoiceID, req.IssueDate, req.DueDate, req.Currency, req.Items)
	if err != nil {
		return nil, err
	}

	xmlBytes, err := ubl.Serialize(inv)
	if err != nil {
		return nil, err
	}

	response, err := s.gateway.Send(ctx, xmlBytes)
	if err != nil {
		return nil, err
	}

	vatTotal := calc.TaxTotal(inv.VATBreakdown)
	tx := &store.Transaction{
		Name:       "Invoice " + inv.ID,
		FromUserID: supplier.ID,
		ToUserID:   buyer.ID,
		Value:      inv.Totals.TaxExclusiveAmount,
		VAT:        vatTotal,
		Currency:   inv.CurrencyCode,
		Start:      inv.IssueDate,
		Annotation: "Sent via Peppol",
	}
	if err := s.store.CreateTransaction(ctx, tx); err != nil {
		return nil, err
	}

	record := &store.Invoice{
		ExternalID:    inv.ID,
		SupplierID:    supplier.ID,
		BuyerID:       buyer.ID,
		IssueDate:     inv.IssueDate,
		Currency:      inv.CurrencyCode,
		TotalAmount:   inv.Totals.PayableAmount,
		VATAmount:     vatTotal,
		TransactionID: tx.ID,
	}
	if err := s.store.CreateInvoice(ctx, record); err != nil {
		return nil, err
	}

	s.log.Info().Str("invoice_id", inv.ID).Str("buyer", buyer.Company).Msg("invoice sent and recorded")
	return &SendResult{
		InvoiceID:       inv.ID,
		XML:             xmlBytes,
		GatewayResponse: response,
		TransactionID:   tx.ID,
		InvoiceRecordID: record.ID,
	}, nil
}

// ImportInbox fetches and imports every inbox message. Failures are
// per-message: a document that fails to parse or fails its totals
// cross-check is reported in its ImportResult and never written to the
// store, and the batch continues.
func (s *Service) ImportInbox(ctx context.Context) ([]ImportResult, error) {
	messages, err := s.gateway.ListInbox(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]ImportResult, 0, len(messages))
	for _, msg := range messages {
		results = append(results, s.importMessage(ctx, msg))
	}
	return results, nil
}

func (s *Service) importMessage(ctx context.Context, msg peppyrus.Message) ImportResult {
	result := ImportResult{MessageID: msg.ID}

	// Idempotent: a message already imported is skipped, not duplicated.
	if _, err := s.store.GetInvoiceByMessageID(ctx, msg.ID); err == nil {
		result.Skipped = true
		return result
	} else if !errors.Is(err, store.ErrNotFound) {
		result.Err = err
		return result
	}

	raw, err := s.gateway.GetDocument(ctx, msg.ID)
	if err != nil {
		result.Err = err
		return result
	}

	inv, err := ubl.Parse(raw)
	if err != nil {
		result.Err = err
		return result
	}

	result.InvoiceID = inv.ID
	result.Supplier = inv.Supplier.Name
	result.Buyer = inv.Buyer.Name
	result.IssueDate = inv.IssueDate
	result.Total = inv.Totals.PayableAmount
	result.VAT = calc.TaxTotal(inv.VATBreakdown)

	supplier, err := s.findOrCreateUser(ctx, inv.Supplier)
	if err != nil {
		result.Err = err
		return result
	}
	buyer, err := s.findOrCreateUser(ctx, inv.Buyer)
	if err != nil {
		result.Err = err
		return result
	}

	tx := &store.Transaction{
		Name:       "Invoice " + inv.ID,
		FromUserID: supplier.ID,
		ToUserID:   buyer.ID,
		Value:      result.Total.Sub(result.VAT),
		VAT:        result.VAT,
		Currency:   inv.CurrencyCode,
		Start:      inv.IssueDate,
		Annotation: "Imported from Peppol message " + msg.ID,
	}
	if err := s.store.CreateTransaction(ctx, tx); err != nil {
		result.Err = err
		return result
	}
	result.TransactionID = tx.ID

	record := &store.Invoice{
		ExternalID:      inv.ID,
		PeppolMessageID: msg.ID,
		SupplierID:      supplier.ID,
		BuyerID:         buyer.ID,
		IssueDate:       inv.IssueDate,
		Currency:        inv.CurrencyCode,
		TotalAmount:     result.Total,
		VATAmount:       result.VAT,
		TransactionID:   tx.ID,
	}
	if err := s.store.CreateInvoice(ctx, record); err != nil {
		result.Err = err
		return result
	}
	result.InvoiceRecordID = record.ID

	s.log.Info().Str("message_id", msg.ID).Str("invoice_id", inv.ID).Msg("invoice imported")
	return result
}

func (s *Service) findOrCreateUser(ctx context.Context, p model.Party) (*store.User, error) {
	user, err := s.store.GetUserByCompany(ctx, p.Name)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	user = &store.User{
		Company:     p.Name,
		VATNumber:   p.VATNumber,
		CountryCode: p.CountryCode,
		Street:      p.Street,
		City:        p.City,
		PostalCode:  p.PostalCode,
		PeppolID:    p.PeppolID,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func partyFromUser(u *store.User) model.Party {
	return model.Party{
		PeppolID:    u.PeppolID,
		Name:        u.Company,
		VATNumber:   u.VATNumber,
		Street:      u.Street,
		City:        u.City,
		PostalCode:  u.PostalCode,
		CountryCode: u.CountryCode,
	}
}
