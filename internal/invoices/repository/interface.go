package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Invoice is a persisted, immutable invoice header.
type Invoice struct {
	ID         uuid.UUID `db:"id"`
	TotalCents int64     `db:"total_cents"`
	CreatedAt  time.Time `db:"created_at"`
}

// InvoiceItem is a persisted invoice line. Product data is not denormalized
// here; reads join against the catalog.
type InvoiceItem struct {
	ID        uuid.UUID `db:"id"`
	InvoiceID uuid.UUID `db:"invoice_id"`
	ProductID uuid.UUID `db:"product_id"`
	Quantity  int       `db:"quantity"`
	SortOrder int       `db:"sort_order"`
}

// LineWithProduct is an invoice line joined with its catalog record for
// display expansion.
type LineWithProduct struct {
	InvoiceItem
	ProductName        string  `db:"name"`
	ProductBarcode     string  `db:"barcode"`
	ProductPriceCents  int64   `db:"price_cents"`
	ProductDescription *string `db:"description"`
}

// InvoiceWithLines is an invoice header plus its expanded lines in
// submission order.
type InvoiceWithLines struct {
	Invoice
	Lines []LineWithProduct
}

// Repository defines invoice persistence operations. Invoices are written
// once, atomically, and never updated or deleted.
type Repository interface {
	// CreateWithItems persists the invoice header and all lines in a single
	// transaction; either everything commits or nothing does.
	CreateWithItems(ctx context.Context, invoice Invoice, items []InvoiceItem) error
	GetByID(ctx context.Context, id uuid.UUID) (InvoiceWithLines, error)
	List(ctx context.Context) ([]InvoiceWithLines, error)
}
