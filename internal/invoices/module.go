// Package invoices provides the invoice bounded context module.
package invoices

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"scanpos_backend/internal/events"
	apphttp "scanpos_backend/internal/http"
	"scanpos_backend/internal/invoices/handler"
	"scanpos_backend/internal/invoices/repository"
	"scanpos_backend/internal/invoices/service"
	"scanpos_backend/platform/logger"
	"scanpos_backend/platform/validator"
)

// Module is the invoice bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the invoice module. The resolver is the
// catalog service; invoices never price lines from anything else.
func NewModule(pool *pgxpool.Pool, resolver service.ProductResolver, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, resolver, bus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "invoices"
}

// Service returns the service layer for external use (scan session finalize).
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts invoice routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	invoices := ctx.API.Group("/invoices")
	invoices.POST("", m.handler.CreateInvoice)
	invoices.GET("", m.handler.ListInvoices)
	invoices.GET("/:id", m.handler.GetInvoiceByID)
	invoices.GET("/:id/qrcode", m.handler.GetInvoiceQR)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
