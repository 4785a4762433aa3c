// Package service implements catalog operations, including the lookup
// contract the scanning and invoicing flows depend on.
package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"scanpos_backend/internal/catalog/cache"
	"scanpos_backend/internal/catalog/repository"
	"scanpos_backend/internal/events"
	"scanpos_backend/platform/apperr"
	"scanpos_backend/platform/logger"
)

// Service implements catalog business logic.
type Service struct {
	repo         repository.Repository
	barcodeCache *cache.BarcodeCache // nil when caching is disabled
	bus          events.Bus
	log          *logger.Logger
}

// New creates the catalog service. barcodeCache may be nil.
func New(repo repository.Repository, barcodeCache *cache.BarcodeCache, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:         repo,
		barcodeCache: barcodeCache,
		bus:          bus,
		log:          log,
	}
}

// CreateProduct adds a product to the catalog.
func (s *Service) CreateProduct(ctx context.Context, params repository.CreateProductParams) (repository.Product, error) {
	params.Name = strings.TrimSpace(params.Name)
	params.Barcode = strings.TrimSpace(params.Barcode)
	if params.Name == "" || params.Barcode == "" {
		return repository.Product{}, apperr.Validation("name and barcode are required")
	}
	if params.PriceCents < 0 {
		return repository.Product{}, apperr.Validation("price must not be negative")
	}
	return s.repo.Create(ctx, params)
}

// UpdateProduct modifies a product and notifies subscribers so stale lookup
// data (e.g. the barcode cache) is dropped.
func (s *Service) UpdateProduct(ctx context.Context, params repository.UpdateProductParams) (repository.Product, error) {
	if params.PriceCents != nil && *params.PriceCents < 0 {
		return repository.Product{}, apperr.Validation("price must not be negative")
	}

	prev, err := s.repo.GetByID(ctx, params.ID)
	if err != nil {
		return repository.Product{}, err
	}

	product, err := s.repo.Update(ctx, params)
	if err != nil {
		return repository.Product{}, err
	}

	s.bus.Publish(ctx, events.ProductUpdated{
		BaseEvent:  events.NewBaseEvent(),
		ProductID:  product.ID,
		Barcode:    product.Barcode,
		OldBarcode: prev.Barcode,
	})
	return product, nil
}

// DeleteProduct removes a product and notifies subscribers.
func (s *Service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}

	s.bus.Publish(ctx, events.ProductDeleted{
		BaseEvent: events.NewBaseEvent(),
		ProductID: deleted.ID,
		Barcode:   deleted.Barcode,
	})
	return nil
}

// GetProduct retrieves a product by ID.
func (s *Service) GetProduct(ctx context.Context, id uuid.UUID) (repository.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// ListProducts lists products with filters.
func (s *Service) ListProducts(ctx context.Context, params repository.ListProductsParams) ([]repository.Product, int, error) {
	return s.repo.List(ctx, params)
}

// ResolveByBarcode resolves a scanned code to a catalog product. This feeds
// the interactive scanning path, so it may serve a recently cached record;
// the cached price is display data only and is never used to price invoices.
func (s *Service) ResolveByBarcode(ctx context.Context, barcode string) (repository.Product, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return repository.Product{}, apperr.Validation("barcode is required")
	}

	if s.barcodeCache != nil {
		product, err := s.barcodeCache.Get(ctx, barcode)
		if err == nil {
			return product, nil
		}
		if !errors.Is(err, cache.ErrMiss) && s.log != nil {
			s.log.Warn("barcode cache unavailable", "error", err.Error())
		}
	}

	product, err := s.repo.GetByBarcode(ctx, barcode)
	if err != nil {
		return repository.Product{}, err
	}

	if s.barcodeCache != nil {
		if err := s.barcodeCache.Set(ctx, product); err != nil && s.log != nil {
			s.log.Warn("barcode cache store failed", "error", err.Error())
		}
	}
	return product, nil
}

// ResolveByID resolves a product reference against the live catalog. Invoice
// assembly uses this for its authoritative price reads, so it never consults
// the cache.
func (s *Service) ResolveByID(ctx context.Context, id uuid.UUID) (repository.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// InvalidateBarcodes drops cached lookup entries for the given barcodes.
func (s *Service) InvalidateBarcodes(ctx context.Context, barcodes ...string) error {
	if s.barcodeCache == nil {
		return nil
	}
	return s.barcodeCache.Invalidate(ctx, barcodes...)
}
