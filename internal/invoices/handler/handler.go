// Package handler exposes the invoice HTTP endpoints.
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"scanpos_backend/internal/invoices/repository"
	"scanpos_backend/internal/invoices/service"
	"scanpos_backend/internal/invoices/transport"
	"scanpos_backend/platform/httpkit"
	"scanpos_backend/platform/validator"
)

// Handler handles invoice HTTP requests.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates an invoice handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// CreateInvoice handles POST /invoices.
func (h *Handler) CreateInvoice(c *gin.Context) {
	var req transport.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	lines := make([]service.LineInput, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, service.LineInput{ProductID: item.Product, Quantity: item.Quantity})
	}

	invoice, err := h.svc.CreateInvoice(c.Request.Context(), lines, nil)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, ToInvoiceResponse(invoice))
}

// ListInvoices handles GET /invoices.
func (h *Handler) ListInvoices(c *gin.Context) {
	invoices, err := h.svc.ListInvoices(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	items := make([]transport.InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		items = append(items, ToInvoiceResponse(inv))
	}
	httpkit.OK(c, transport.InvoiceListResponse{Items: items, Total: len(items)})
}

// GetInvoiceByID handles GET /invoices/:id.
func (h *Handler) GetInvoiceByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	invoice, err := h.svc.GetInvoice(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, ToInvoiceResponse(invoice))
}

// GetInvoiceQR handles GET /invoices/:id/qrcode, rendering a QR PNG of the
// invoice identifier for printed receipts.
func (h *Handler) GetInvoiceQR(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	invoice, err := h.svc.GetInvoice(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	png, err := qrcode.Encode(invoice.ID.String(), qrcode.Medium, 256)
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to render QR code", nil)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid invoice id", nil)
		return uuid.Nil, false
	}
	return id, true
}

// ToInvoiceResponse expands a stored invoice into its wire shape. Exported
// because the scanner finalize flow returns the same representation.
func ToInvoiceResponse(inv repository.InvoiceWithLines) transport.InvoiceResponse {
	items := make([]transport.InvoiceLineResponse, 0, len(inv.Lines))
	for _, line := range inv.Lines {
		items = append(items, transport.InvoiceLineResponse{
			Product: transport.ProductRecord{
				ID:          line.ProductID,
				Name:        line.ProductName,
				Barcode:     line.ProductBarcode,
				PriceCents:  line.ProductPriceCents,
				Description: line.ProductDescription,
			},
			Quantity: line.Quantity,
		})
	}
	return transport.InvoiceResponse{
		ID:         inv.ID,
		Items:      items,
		TotalCents: inv.TotalCents,
		CreatedAt:  inv.CreatedAt.UTC().Format(time.RFC3339),
	}
}
