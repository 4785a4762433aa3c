package transport

import "github.com/google/uuid"

// CreateInvoiceRequest is the wire shape of POST /invoices. An absent or
// empty items list is accepted and produces a zero-total invoice.
type CreateInvoiceRequest struct {
	Items []InvoiceItemInput `json:"items" validate:"omitempty,dive"`
}

// InvoiceItemInput is one submitted line: a product reference and a quantity.
type InvoiceItemInput struct {
	Product  uuid.UUID `json:"product" validate:"required"`
	Quantity int       `json:"quantity" validate:"required,min=1"`
}

// ProductRecord is the catalog data an invoice line is expanded with.
type ProductRecord struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Barcode     string    `json:"barcode"`
	PriceCents  int64     `json:"priceCents"`
	Description *string   `json:"description,omitempty"`
}

// InvoiceLineResponse is one invoice line with its product expanded.
type InvoiceLineResponse struct {
	Product  ProductRecord `json:"product"`
	Quantity int           `json:"quantity"`
}

// InvoiceResponse is a persisted invoice.
type InvoiceResponse struct {
	ID         uuid.UUID             `json:"id"`
	Items      []InvoiceLineResponse `json:"items"`
	TotalCents int64                 `json:"totalCents"`
	CreatedAt  string                `json:"createdAt"`
}

// InvoiceListResponse wraps the full invoice listing.
type InvoiceListResponse struct {
	Items []InvoiceResponse `json:"items"`
	Total int               `json:"total"`
}
