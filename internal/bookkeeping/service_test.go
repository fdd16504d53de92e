package bookkeeping_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/peppol-bookkeeping/internal/bookkeeping"
	"github.com/rezonia/peppol-bookkeeping/internal/calc"
	"github.com/rezonia/peppol-bookkeeping/internal/model"
	"github.com/rezonia/peppol-bookkeeping/internal/money"
	"github.com/rezonia/peppol-bookkeeping/internal/peppyrus"
	"github.com/rezonia/peppol-bookkeeping/internal/store"
	"github.com/rezonia/peppol-bookkeeping/internal/store/sqlite"
	"github.com/rezonia/peppol-bookkeeping/internal/ubl"
)

// fakeGateway records sends and serves a canned inbox.
type fakeGateway struct {
	sent      [][]byte
	inbox     []peppyrus.Message
	documents map[string][]byte
	sendErr   error
}

func (f *fakeGateway) Send(ctx context.Context, xmlBytes []byte) (string, error) {
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.sent = append(f.sent, xmlBytes)
	return `{"messageId":"out-1"}`, nil
}

func (f *fakeGateway) ListInbox(ctx context.Context) ([]peppyrus.Message, error) {
	return f.inbox, nil
}

func (f *fakeGateway) GetDocument(ctx context.Context, messageID string) ([]byte, error) {
	doc, ok := f.documents[messageID]
	if !ok {
		return nil, &peppyrus.APIError{StatusCode: 404, Body: "no such message"}
	}
	return doc, nil
}

func newTestService(t *testing.T) (*bookkeeping.Service, store.Store, *fakeGateway) {
	t.Helper()
	st, err := sqlite.New(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	gw := &fakeGateway{documents: map[string][]byte{}}
	return bookkeeping.NewService(st, gw), st, gw
}

func seedUsers(t *testing.T, st store.Store) (supplier, buyer *store.User) {
	t.Helper()
	ctx := context.Background()

	supplier = &store.User{
		Company:     "Acme BV",
		VATNumber:   "BE0123456789",
		Street:      "Main Street 1",
		City:        "Brussels",
		PostalCode:  "1000",
		CountryCode: "BE",
		PeppolID:    "0208:0123456789",
	}
	buyer = &store.User{
		Company:     "Globex NV",
		VATNumber:   "BE0987654321",
		Street:      "Harbor Road 7",
		City:        "Antwerp",
		PostalCode:  "2000",
		CountryCode: "BE",
		PeppolID:    "0208:0987654321",
	}
	require.NoError(t, st.CreateUser(ctx, supplier))
	require.NoError(t, st.CreateUser(ctx, buyer))
	return supplier, buyer
}

func consultingItems() []bookkeeping.LineInput {
	return []bookkeeping.LineInput{{
		Name:      "Consulting",
		Quantity:  money.MustFromString("10"),
		UnitPrice: money.MustFromString("75.00"),
		VATRate:   money.MustFromString("0.21"),
	}}
}

func TestBuildInvoice(t *testing.T) {
	supplier := model.Party{
		PeppolID: "0208:0123456789", Name: "Acme BV",
		Street: "Main Street 1", City: "Brussels", PostalCode: "1000", CountryCode: "BE",
	}
	buyer := model.Party{
		PeppolID: "0208:0987654321", Name: "Globex NV",
		Street: "Harbor Road 7", City: "Antwerp", PostalCode: "2000", CountryCode: "BE",
	}

	inv, err := bookkeeping.BuildInvoice(supplier, buyer, "INV-1",
		time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), time.Time{}, "", consultingItems())
	require.NoError(t, err)

	assert.Equal(t, "EUR", inv.CurrencyCode, "currency defaults")
	assert.Equal(t, "750.00", inv.Totals.TaxExclusiveAmount.StringFixed(2))
	assert.Equal(t, "157.50", calc.TaxTotal(inv.VATBreakdown).StringFixed(2))
	assert.Equal(t, "907.50", inv.Totals.PayableAmount.StringFixed(2))
}

func TestBuildInvoiceValidation(t *testing.T) {
	items := consultingItems()
	items[0].Quantity = money.MustFromString("-1")

	_, err := bookkeeping.BuildInvoice(model.Party{}, model.Party{}, "INV-1",
		time.Now(), time.Time{}, "EUR", items)
	var validationErr *model.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, 0, validationErr.Line)
}

func TestSendInvoice(t *testing.T) {
	svc, st, gw := newTestService(t)
	seedUsers(t, st)
	ctx := context.Background()

	result, err := svc.SendInvoice(ctx, bookkeeping.SendRequest{
		SupplierCompany: "Acme BV",
		BuyerCompany:    "Globex NV",
		InvoiceID:       "INV-2026-001",
		IssueDate:       time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		Items:           consultingItems(),
	})
	require.NoError(t, err)

	assert.Equal(t, "INV-2026-001", result.InvoiceID)
	assert.Contains(t, result.GatewayResponse, "out-1")
	assert.NotEmpty(t, result.TransactionID)
	assert.NotEmpty(t, result.InvoiceRecordID)

	// The transmitted bytes must be a valid document.
	require.Len(t, gw.sent, 1)
	parsed, err := ubl.Parse(gw.sent[0])
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-001", parsed.ID)
	assert.Equal(t, "907.50", parsed.Totals.PayableAmount.StringFixed(2))

	// The ledger records net value and VAT separately.
	invoices, err := st.ListInvoices(ctx)
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, "INV-2026-001", invoices[0].ExternalID)
	assert.Equal(t, "907.50", invoices[0].TotalAmount.StringFixed(2))
	assert.Equal(t, "157.50", invoices[0].VATAmount.StringFixed(2))
}

func TestSendInvoiceUnknownSupplier(t *testing.T) {
	svc, st, _ := newTestService(t)
	seedUsers(t, st)

	_, err := svc.SendInvoice(context.Background(), bookkeeping.SendRequest{
		SupplierCompany: "No Such Co",
		BuyerCompany:    "Globex NV",
		InvoiceID:       "INV-1",
		IssueDate:       time.Now(),
		Items:           consultingItems(),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Contains(t, err.Error(), "No Such Co")
}

func TestSendInvoiceGatewayFailure(t *testing.T) {
	svc, st, gw := newTestService(t)
	seedUsers(t, st)
	gw.sendErr = errors.New("gateway down")

	_, err := svc.SendInvoice(context.Background(), bookkeeping.SendRequest{
		SupplierCompany: "Acme BV",
		BuyerCompany:    "Globex NV",
		InvoiceID:       "INV-1",
		IssueDate:       time.Now(),
		Items:           consultingItems(),
	})
	require.Error(t, err)

	// Nothing is recorded when transmission fails.
	invoices, listErr := st.ListInvoices(context.Background())
	require.NoError(t, listErr)
	assert.Empty(t, invoices)
}

func inboxDocument(t *testing.T) []byte {
	t.Helper()
	inv, err := bookkeeping.BuildInvoice(
		model.Party{PeppolID: "0208:0555555555", Name: "Initech GmbH", Street: "Ring 9", City: "Cologne", PostalCode: "50667", CountryCode: "DE"},
		model.Party{PeppolID: "0208:0123456789", Name: "Acme BV", Street: "Main Street 1", City: "Brussels", PostalCode: "1000", CountryCode: "BE"},
		"IN-77", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), time.Time{}, "EUR",
		[]bookkeeping.LineInput{{
			Name:      "Licenses",
			Quantity:  money.MustFromString("4"),
			UnitPrice: money.MustFromString("25.00"),
			VATRate:   money.MustFromString("0.19"),
		}},
	)
	require.NoError(t, err)
	xmlBytes, err := ubl.Serialize(inv)
	require.NoError(t, err)
	return xmlBytes
}

func TestImportInbox(t *testing.T) {
	svc, st, gw := newTestService(t)
	ctx := context.Background()

	gw.inbox = []peppyrus.Message{{ID: "m-1", Sender: "0208:0555555555", Date: "2026-02-01"}}
	gw.documents["m-1"] = inboxDocument(t)

	results, err := svc.ImportInbox(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	require.NoError(t, r.Err)
	assert.False(t, r.Skipped)
	assert.Equal(t, "IN-77", r.InvoiceID)
	assert.Equal(t, "Initech GmbH", r.Supplier)
	assert.Equal(t, "119.00", r.Total.StringFixed(2))
	assert.Equal(t, "19.00", r.VAT.StringFixed(2))

	// Unknown parties are registered as users.
	supplier, err := st.GetUserByCompany(ctx, "Initech GmbH")
	require.NoError(t, err)
	assert.Equal(t, "DE", supplier.CountryCode)

	stored, err := st.GetInvoiceByMessageID(ctx, "m-1")
	require.NoError(t, err)
	assert.Equal(t, "IN-77", stored.ExternalID)
}

func TestImportInboxIdempotent(t *testing.T) {
	svc, st, gw := newTestService(t)
	ctx := context.Background()

	gw.inbox = []peppyrus.Message{{ID: "m-1"}}
	gw.documents["m-1"] = inboxDocument(t)

	first, err := svc.ImportInbox(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.NoError(t, first[0].Err)

	second, err := svc.ImportInbox(ctx)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.True(t, second[0].Skipped)

	invoices, err := st.ListInvoices(ctx)
	require.NoError(t, err)
	assert.Len(t, invoices, 1, "re-import must not duplicate")
}

func TestImportInboxBadDocument(t *testing.T) {
	svc, st, gw := newTestService(t)
	ctx := context.Background()

	tampered := strings.Replace(string(inboxDocument(t)),
		`<cbc:TaxInclusiveAmount currencyID="EUR">119.00</cbc:TaxInclusiveAmount>`,
		`<cbc:TaxInclusiveAmount currencyID="EUR">500.00</cbc:TaxInclusiveAmount>`, 1)

	gw.inbox = []peppyrus.Message{
		{ID: "m-bad"},
		{ID: "m-good"},
	}
	gw.documents["m-bad"] = []byte(tampered)
	gw.documents["m-good"] = inboxDocument(t)

	results, err := svc.ImportInbox(ctx)
	require.NoError(t, err)
	require.Len(t, results, 2)

	var mismatch *model.TotalsMismatchError
	assert.ErrorAs(t, results[0].Err, &mismatch)
	require.NoError(t, results[1].Err)

	// The failed document never reaches the ledger; the good one does.
	invoices, err := st.ListInvoices(ctx)
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, "m-good", invoices[0].PeppolMessageID)
}
