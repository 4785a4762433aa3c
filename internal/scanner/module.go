// Package scanner provides the scan session bounded context module: the
// scanning state machine and the session carts, driven over HTTP.
package scanner

import (
	"context"

	"scanpos_backend/internal/events"
	apphttp "scanpos_backend/internal/http"
	"scanpos_backend/internal/scanner/device"
	"scanpos_backend/internal/scanner/handler"
	"scanpos_backend/internal/scanner/service"
	"scanpos_backend/platform/config"
	"scanpos_backend/platform/logger"
	"scanpos_backend/platform/validator"
)

// Module is the scan session bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the scanner module. The bridge is the one
// physical decoder; sessions contend for it through the gate.
func NewModule(bridge *device.Bridge, resolver service.CodeResolver, invoices service.InvoiceCreator, cfg config.ScannerConfig, val *validator.Validator, log *logger.Logger) *Module {
	gate := device.NewGate(bridge)
	ack := service.NewLogAcknowledger(log)
	svc := service.New(gate, bridge, resolver, invoices, ack, cfg.GetScanCooldown(), log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "scanner"
}

// RegisterRoutes mounts scan session routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	sessions := ctx.API.Group("/scan/sessions")
	sessions.POST("", m.handler.CreateSession)
	sessions.GET("/:id", m.handler.GetSession)
	sessions.POST("/:id/start", m.handler.StartScan)
	sessions.POST("/:id/detections", m.handler.IngestDetection)
	sessions.POST("/:id/items", m.handler.AddItem)
	sessions.POST("/:id/reset", m.handler.ResetCart)
	sessions.POST("/:id/stop", m.handler.StopScan)
	sessions.POST("/:id/finalize", m.handler.Finalize)
}

// RegisterHandlers subscribes the module to invoice events so a finalized
// session's cart is torn down once its invoice is committed.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.InvoiceCreated{}.EventName(), m)
}

// Handle processes subscribed events.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	if e, ok := event.(events.InvoiceCreated); ok && e.SessionID != nil {
		m.service.CompleteSession(*e.SessionID)
	}
	return nil
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
