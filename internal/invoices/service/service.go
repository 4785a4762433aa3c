// Package service implements invoice assembly: validation, catalog
// re-resolution, total computation, and the atomic write.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	catalogrepo "scanpos_backend/internal/catalog/repository"
	"scanpos_backend/internal/events"
	"scanpos_backend/internal/invoices/repository"
	"scanpos_backend/platform/apperr"
	"scanpos_backend/platform/logger"
)

// ProductResolver is the catalog lookup port the assembler validates lines
// against. Implementations must return the current authoritative price.
type ProductResolver interface {
	ResolveByID(ctx context.Context, id uuid.UUID) (catalogrepo.Product, error)
}

// LineInput is one submitted invoice line: a product reference and a quantity.
type LineInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// Service implements invoice business logic.
type Service struct {
	repo     repository.Repository
	resolver ProductResolver
	bus      events.Bus
	log      *logger.Logger
	now      func() time.Time
}

// New creates the invoice service.
func New(repo repository.Repository, resolver ProductResolver, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		resolver: resolver,
		bus:      bus,
		log:      log,
		now:      time.Now,
	}
}

// CreateInvoice validates the submitted lines, re-resolves every product
// reference against the live catalog, computes the total from the prices
// read now (never from client-supplied data), and persists the invoice
// atomically. Resolution is sequential and fail-fast: the first unknown
// product aborts the whole operation and nothing is written.
//
// An empty line list is accepted and yields a zero-total invoice.
//
// sessionID, when set, ties the invoice to the scan session it was finalized
// from so the session's cart can be torn down.
func (s *Service) CreateInvoice(ctx context.Context, lines []LineInput, sessionID *uuid.UUID) (repository.InvoiceWithLines, error) {
	for _, line := range lines {
		if line.ProductID == uuid.Nil {
			return repository.InvoiceWithLines{}, apperr.Validation("every line must reference a product")
		}
		if line.Quantity < 1 {
			return repository.InvoiceWithLines{}, apperr.Validation("quantity must be a positive integer")
		}
	}

	invoice := repository.Invoice{
		ID:        uuid.New(),
		CreatedAt: s.now().UTC(),
	}

	items := make([]repository.InvoiceItem, 0, len(lines))
	expanded := make([]repository.LineWithProduct, 0, len(lines))
	var totalCents int64

	for i, line := range lines {
		product, err := s.resolver.ResolveByID(ctx, line.ProductID)
		if err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				return repository.InvoiceWithLines{}, apperr.NotFound(
					fmt.Sprintf("Product not found: %s", line.ProductID),
				)
			}
			return repository.InvoiceWithLines{}, fmt.Errorf("resolve line %d: %w", i, err)
		}

		totalCents += int64(line.Quantity) * product.PriceCents

		item := repository.InvoiceItem{
			ID:        uuid.New(),
			InvoiceID: invoice.ID,
			ProductID: product.ID,
			Quantity:  line.Quantity,
			SortOrder: i,
		}
		items = append(items, item)
		expanded = append(expanded, repository.LineWithProduct{
			InvoiceItem:        item,
			ProductName:        product.Name,
			ProductBarcode:     product.Barcode,
			ProductPriceCents:  product.PriceCents,
			ProductDescription: product.Description,
		})
	}

	invoice.TotalCents = totalCents

	if err := s.repo.CreateWithItems(ctx, invoice, items); err != nil {
		if s.log != nil {
			s.log.DatabaseError("create invoice", err)
		}
		return repository.InvoiceWithLines{}, apperr.Wrap(apperr.KindInternal, "failed to persist invoice", err)
	}

	s.bus.Publish(ctx, events.InvoiceCreated{
		BaseEvent:  events.NewBaseEvent(),
		InvoiceID:  invoice.ID,
		TotalCents: invoice.TotalCents,
		LineCount:  len(items),
		SessionID:  sessionID,
	})

	return repository.InvoiceWithLines{Invoice: invoice, Lines: expanded}, nil
}

// GetInvoice retrieves a persisted invoice with expanded lines.
func (s *Service) GetInvoice(ctx context.Context, id uuid.UUID) (repository.InvoiceWithLines, error) {
	return s.repo.GetByID(ctx, id)
}

// ListInvoices returns all persisted invoices with expanded lines.
func (s *Service) ListInvoices(ctx context.Context) ([]repository.InvoiceWithLines, error) {
	return s.repo.List(ctx)
}
