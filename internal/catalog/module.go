// Package catalog provides the catalog bounded context module.
package catalog

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"scanpos_backend/internal/catalog/cache"
	"scanpos_backend/internal/catalog/handler"
	"scanpos_backend/internal/catalog/repository"
	"scanpos_backend/internal/catalog/service"
	"scanpos_backend/internal/events"
	apphttp "scanpos_backend/internal/http"
	"scanpos_backend/platform/config"
	"scanpos_backend/platform/logger"
	"scanpos_backend/platform/validator"
)

// Module is the catalog bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the catalog module. redisClient may be
// nil; the barcode cache is then skipped entirely.
func NewModule(pool *pgxpool.Pool, redisClient *redis.Client, bus events.Bus, cfg config.RedisConfig, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)

	var barcodeCache *cache.BarcodeCache
	if redisClient != nil && cfg.IsBarcodeCacheEnabled() {
		barcodeCache = cache.New(redisClient, cfg.GetBarcodeCacheTTL())
	}

	svc := service.New(repo, barcodeCache, bus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "catalog"
}

// Service returns the service layer for other modules (scanner resolution,
// invoice assembly).
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts catalog routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	products := ctx.API.Group("/products")
	products.POST("", m.handler.CreateProduct)
	products.GET("", m.handler.ListProducts)
	products.GET("/:id", m.handler.GetProductByID)
	products.PUT("/:id", m.handler.UpdateProduct)
	products.DELETE("/:id", m.handler.DeleteProduct)
	products.GET("/barcode/:code", m.handler.GetProductByBarcode)
}

// RegisterHandlers subscribes the module to catalog events so cached barcode
// lookups are invalidated when products change.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.ProductUpdated{}.EventName(), m)
	bus.Subscribe(events.ProductDeleted{}.EventName(), m)
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.ProductUpdated:
		return m.service.InvalidateBarcodes(ctx, e.Barcode, e.OldBarcode)
	case events.ProductDeleted:
		return m.service.InvalidateBarcodes(ctx, e.Barcode)
	default:
		return nil
	}
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
