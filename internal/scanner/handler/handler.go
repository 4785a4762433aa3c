// Package handler exposes the scan session HTTP endpoints.
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	invoicehandler "scanpos_backend/internal/invoices/handler"
	"scanpos_backend/internal/scanner/device"
	"scanpos_backend/internal/scanner/service"
	"scanpos_backend/internal/scanner/transport"
	"scanpos_backend/platform/httpkit"
	"scanpos_backend/platform/validator"
)

// Handler handles scan session HTTP requests.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a scan session handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// CreateSession handles POST /scan/sessions.
func (h *Handler) CreateSession(c *gin.Context) {
	var req transport.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	mode, err := service.ParseMode(req.Mode)
	if httpkit.HandleError(c, err) {
		return
	}

	snap, err := h.svc.StartSession(c.Request.Context(), mode)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, toSessionResponse(snap))
}

// StartScan handles POST /scan/sessions/:id/start.
func (h *Handler) StartScan(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.StartScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	mode, err := service.ParseMode(req.Mode)
	if httpkit.HandleError(c, err) {
		return
	}

	snap, err := h.svc.StartScanning(c.Request.Context(), id, mode)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toSessionResponse(snap))
}

// IngestDetection handles POST /scan/sessions/:id/detections.
func (h *Handler) IngestDetection(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.DetectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	source := device.SourceCamera
	if req.Source == string(device.SourceManual) {
		source = device.SourceManual
	}

	if err := h.svc.IngestDetection(c.Request.Context(), id, req.Code, source); httpkit.HandleError(c, err) {
		return
	}
	// Detections are processed asynchronously by the session's scan run.
	c.Status(http.StatusAccepted)
}

// AddItem handles POST /scan/sessions/:id/items.
func (h *Handler) AddItem(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	snap, err := h.svc.AddItem(c.Request.Context(), id, req.Barcode, req.Quantity)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toSessionResponse(snap))
}

// GetSession handles GET /scan/sessions/:id.
func (h *Handler) GetSession(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	snap, err := h.svc.GetSession(id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toSessionResponse(snap))
}

// ResetCart handles POST /scan/sessions/:id/reset.
func (h *Handler) ResetCart(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	snap, err := h.svc.ResetCart(id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toSessionResponse(snap))
}

// StopScan handles POST /scan/sessions/:id/stop.
func (h *Handler) StopScan(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	snap, err := h.svc.StopScanning(id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toSessionResponse(snap))
}

// Finalize handles POST /scan/sessions/:id/finalize. The response is the
// persisted invoice in the same shape as POST /invoices.
func (h *Handler) Finalize(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	invoice, err := h.svc.Finalize(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, invoicehandler.ToInvoiceResponse(invoice))
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid session id", nil)
		return uuid.Nil, false
	}
	return id, true
}

func toSessionResponse(snap service.Snapshot) transport.SessionResponse {
	items := make([]transport.CartLineResponse, 0, len(snap.Lines))
	for _, l := range snap.Lines {
		items = append(items, transport.CartLineResponse{
			ProductID:  l.ProductID,
			Name:       l.Name,
			Barcode:    l.Barcode,
			PriceCents: l.PriceCents,
			Quantity:   l.Quantity,
		})
	}
	return transport.SessionResponse{
		ID:         snap.ID,
		State:      string(snap.State),
		Mode:       string(snap.Mode),
		Items:      items,
		TotalCents: snap.TotalCents,
		CreatedAt:  snap.CreatedAt.UTC().Format(time.RFC3339),
	}
}
