package server_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/peppol-bookkeeping/internal/server"
	"github.com/rezonia/peppol-bookkeeping/internal/ubl"
)

func newTestServer() *server.Server {
	config := &server.Config{
		Address: ":8080",
		Debug:   true,
	}
	return server.NewServer(config, nil)
}

func buildRequestBody() server.BuildRequest {
	return server.BuildRequest{
		InvoiceID: "INV-2026-001",
		IssueDate: "2026-01-15",
		Currency:  "EUR",
		Supplier: server.PartyInput{
			PeppolID:    "0208:0123456789",
			Name:        "Acme BV",
			VATNumber:   "BE0123456789",
			Street:      "Main Street 1",
			City:        "Brussels",
			PostalCode:  "1000",
			CountryCode: "BE",
		},
		Buyer: server.PartyInput{
			PeppolID:    "0208:0987654321",
			Name:        "Globex NV",
			Street:      "Harbor Road 7",
			City:        "Antwerp",
			PostalCode:  "2000",
			CountryCode: "BE",
		},
		Items: []server.LineItemInput{
			{Name: "Consulting", Quantity: "10", UnitPrice: "75.00", VATRate: "0.21"},
		},
	}
}

func postJSON(t *testing.T, srv *server.Server, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)

	assert.Equal(t, "ok", response["status"])
	assert.NotEmpty(t, response["time"])
}

func TestBuildEndpoint(t *testing.T) {
	srv := newTestServer()

	w := postJSON(t, srv, "/api/v1/invoices", buildRequestBody())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/xml", w.Header().Get("Content-Type"))

	out := w.Body.String()
	assert.Contains(t, out, "<cbc:ID>INV-2026-001</cbc:ID>")
	assert.Contains(t, out, `<cbc:PayableAmount currencyID="EUR">907.50</cbc:PayableAmount>`)

	// The produced document must parse and verify.
	parsed, err := ubl.Parse(w.Body.Bytes())
	require.NoError(t, err)
	assert.True(t, parsed.TotalsVerified)
}

func TestBuildEndpointValidation(t *testing.T) {
	srv := newTestServer()

	payload := buildRequestBody()
	payload.Items[0].Quantity = "-1"

	w := postJSON(t, srv, "/api/v1/invoices", payload)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var response server.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Contains(t, response.Error, "line 0")
}

func TestBuildEndpointBadDecimal(t *testing.T) {
	srv := newTestServer()

	payload := buildRequestBody()
	payload.Items[0].UnitPrice = "seventy-five"

	w := postJSON(t, srv, "/api/v1/invoices", payload)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBuildEndpointBadDate(t *testing.T) {
	srv := newTestServer()

	payload := buildRequestBody()
	payload.IssueDate = "15/01/2026"

	w := postJSON(t, srv, "/api/v1/invoices", payload)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParseEndpoint(t *testing.T) {
	srv := newTestServer()

	// Build a document first, then feed it back.
	built := postJSON(t, srv, "/api/v1/invoices", buildRequestBody())
	require.Equal(t, http.StatusOK, built.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/parse", bytes.NewReader(built.Body.Bytes()))
	req.Header.Set("Content-Type", "application/xml")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var response server.InvoiceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

	assert.Equal(t, "INV-2026-001", response.InvoiceID)
	assert.Equal(t, "Acme BV", response.Supplier.Name)
	assert.Equal(t, "907.50", response.Totals.PayableAmount)
	assert.True(t, response.TotalsVerified)
	require.Len(t, response.VATBreakdown, 1)
	assert.Equal(t, "157.50", response.VATBreakdown[0].TaxAmount)
}

func TestParseEndpointMalformed(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/parse", strings.NewReader("not xml"))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var response server.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Contains(t, response.Error, "malformed XML")
}

func TestParseEndpointEmptyBody(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/parse", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParseEndpointTotalsMismatch(t *testing.T) {
	srv := newTestServer()

	built := postJSON(t, srv, "/api/v1/invoices", buildRequestBody())
	require.Equal(t, http.StatusOK, built.Code)

	tampered := strings.Replace(built.Body.String(),
		`<cbc:TaxInclusiveAmount currencyID="EUR">907.50</cbc:TaxInclusiveAmount>`,
		`<cbc:TaxInclusiveAmount currencyID="EUR">999.99</cbc:TaxInclusiveAmount>`, 1)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/parse", strings.NewReader(tampered))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// The decoded invoice travels with the error for inspection.
	var response struct {
		Error   string                 `json:"error"`
		Invoice server.InvoiceResponse `json:"invoice"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Contains(t, response.Error, "999.99")
	assert.Equal(t, "INV-2026-001", response.Invoice.InvoiceID)
	assert.False(t, response.Invoice.TotalsVerified)
}

func TestSendEndpointUnavailableWithoutGateway(t *testing.T) {
	srv := newTestServer()

	w := postJSON(t, srv, "/api/v1/invoices/send", server.SendRequest{
		SupplierCompany: "Acme BV",
		BuyerCompany:    "Globex NV",
	})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestImportEndpointUnavailableWithoutGateway(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/inbox/import", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
