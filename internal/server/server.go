// Package server exposes the invoice codec and the bookkeeping service
// over HTTP.
package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rezonia/peppol-bookkeeping/internal/bookkeeping"
	"github.com/rezonia/peppol-bookkeeping/internal/model"
	"github.com/rezonia/peppol-bookkeeping/internal/peppyrus"
	"github.com/rezonia/peppol-bookkeeping/internal/store"
	"github.com/rezonia/peppol-bookkeeping/internal/ubl"
)

// Config holds server configuration
type Config struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Debug        bool
}

// Server represents the HTTP API server
type Server struct {
	config *Config
	router *gin.Engine
	svc    *bookkeeping.Service
}

// NewServer creates a new API server. svc may be nil, in which case the
// send and import endpoints answer 503 and only the stateless codec
// endpoints are usable.
func NewServer(config *Config, svc *bookkeeping.Service) *Server {
	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if config.Debug {
		router.Use(gin.Logger())
	}

	s := &Server{
		config: config,
		router: router,
		svc:    svc,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Health check
	s.router.GET("/health", s.handleHealth)

	// API v1
	v1 := s.router.Group("/api/v1")
	{
		// Stateless codec endpoints
		v1.POST("/invoices", s.handleBuild)
		v1.POST("/invoices/parse", s.handleParse)

		// Gateway endpoints
		v1.POST("/invoices/send", s.handleSend)
		v1.POST("/inbox/import", s.handleImport)
	}
}

// Run starts the HTTP server
func (s *Server) Run() error {
	srv := &http.Server{
		Addr:         s.config.Address,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	return srv.ListenAndServe()
}

// Handler returns the http.Handler for use with custom servers
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleBuild(c *gin.Context) {
	var req BuildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Details: err.Error()})
		return
	}

	issueDate, err := parseDate(req.IssueDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid issue_date", Details: err.Error()})
		return
	}
	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid due_date", Details: err.Error()})
		return
	}

	items, err := itemsFromInput(req.Items)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	inv, err := bookkeeping.BuildInvoice(partyFromInput(req.Supplier), partyFromInput(req.Buyer),
		req.InvoiceID, issueDate, dueDate, req.Currency, items)
	if err != nil {
		c.JSON(statusForError(err), ErrorResponse{Error: err.Error()})
		return
	}

	xmlBytes, err := ubl.Serialize(inv)
	if err != nil {
		c.JSON(statusForError(err), ErrorResponse{Error: err.Error()})
		return
	}

	c.Data(http.StatusOK, "application/xml", xmlBytes)
}

func (s *Server) handleParse(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "failed to read request body"})
		return
	}
	if len(body) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "empty request body"})
		return
	}

	inv, err := ubl.Parse(body)
	if err != nil {
		var mismatch *model.TotalsMismatchError
		if errors.As(err, &mismatch) && inv != nil {
			// The document decoded; only its declared totals disagree
			// with the recomputation. Return it with the error.
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   err.Error(),
				"invoice": invoiceResponse(inv),
			})
			return
		}
		c.JSON(statusForError(err), ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, invoiceResponse(inv))
}

func (s *Server) handleSend(c *gin.Context) {
	if s.svc == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "gateway not configured"})
		return
	}

	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Details: err.Error()})
		return
	}

	issueDate, err := parseDate(req.IssueDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid issue_date", Details: err.Error()})
		return
	}
	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid due_date", Details: err.Error()})
		return
	}

	items, err := itemsFromInput(req.Items)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	result, err := s.svc.SendInvoice(c.Request.Context(), bookkeeping.SendRequest{
		SupplierCompany: req.SupplierCompany,
		BuyerCompany:    req.BuyerCompany,
		InvoiceID:       req.InvoiceID,
		IssueDate:       issueDate,
		DueDate:         dueDate,
		Currency:        req.Currency,
		Items:           items,
	})
	if err != nil {
		c.JSON(statusForError(err), ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, SendResponse{
		InvoiceID:       result.InvoiceID,
		GatewayResponse: result.GatewayResponse,
		TransactionID:   result.TransactionID,
		InvoiceRecordID: result.InvoiceRecordID,
	})
}

func (s *Server) handleImport(c *gin.Context) {
	if s.svc == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "gateway not configured"})
		return
	}

	results, err := s.svc.ImportInbox(c.Request.Context())
	if err != nil {
		c.JSON(statusForError(err), ErrorResponse{Error: err.Error()})
		return
	}

	resp := ImportResponse{Results: make([]ImportItemResponse, 0, len(results))}
	for _, r := range results {
		item := ImportItemResponse{
			MessageID: r.MessageID,
			InvoiceID: r.InvoiceID,
			Supplier:  r.Supplier,
			Buyer:     r.Buyer,
			Skipped:   r.Skipped,
		}
		switch {
		case r.Err != nil:
			item.Error = r.Err.Error()
			resp.Failed++
		case r.Skipped:
			resp.Skipped++
		default:
			item.Total = r.Total.StringFixed(2)
			item.VAT = r.VAT.StringFixed(2)
			resp.Imported++
		}
		resp.Results = append(resp.Results, item)
	}

	c.JSON(http.StatusOK, resp)
}

func itemsFromInput(inputs []LineItemInput) ([]bookkeeping.LineInput, error) {
	items := make([]bookkeeping.LineInput, 0, len(inputs))
	for _, in := range inputs {
		qty, err := parseAmount("quantity", in.Quantity)
		if err != nil {
			return nil, err
		}
		price, err := parseAmount("unit_price", in.UnitPrice)
		if err != nil {
			return nil, err
		}
		rate, err := parseAmount("vat_rate", in.VATRate)
		if err != nil {
			return nil, err
		}
		items = append(items, bookkeeping.LineInput{
			Name:        in.Name,
			Description: in.Description,
			Quantity:    qty,
			UnitPrice:   price,
			VATRate:     rate,
			VATCategory: model.VATCategory(in.VATCategory),
		})
	}
	return items, nil
}

func statusForError(err error) int {
	var (
		validationErr *model.ValidationError
		incompleteErr *model.IncompleteDocumentError
		malformedErr  *model.MalformedXMLError
		schemaErr     *model.SchemaViolationError
		versionErr    *model.UnsupportedVersionError
		featureErr    *model.UnsupportedFeatureError
		totalsErr     *model.TotalsMismatchError
		gatewayErr    *peppyrus.APIError
	)
	switch {
	case errors.As(err, &validationErr),
		errors.As(err, &incompleteErr),
		errors.As(err, &malformedErr),
		errors.As(err, &schemaErr),
		errors.As(err, &versionErr),
		errors.As(err, &featureErr),
		errors.As(err, &totalsErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &gatewayErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
