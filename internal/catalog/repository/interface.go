package repository

import (
	"context"

	"github.com/google/uuid"
)

// Product represents a catalog product. Price is stored in integer cents.
type Product struct {
	ID          uuid.UUID `db:"id"`
	Name        string    `db:"name"`
	Barcode     string    `db:"barcode"`
	PriceCents  int64     `db:"price_cents"`
	Description *string   `db:"description"`
	CreatedAt   string    `db:"created_at"`
	UpdatedAt   string    `db:"updated_at"`
}

// CreateProductParams contains data for creating a product.
type CreateProductParams struct {
	Name        string
	Barcode     string
	PriceCents  int64
	Description *string
}

// UpdateProductParams contains data for updating a product.
// Nil fields are left unchanged.
type UpdateProductParams struct {
	ID          uuid.UUID
	Name        *string
	Barcode     *string
	PriceCents  *int64
	Description *string
}

// ListProductsParams defines filters for listing products.
type ListProductsParams struct {
	Search string
	Offset int
	Limit  int
}

// Repository defines catalog persistence operations.
type Repository interface {
	Create(ctx context.Context, params CreateProductParams) (Product, error)
	Update(ctx context.Context, params UpdateProductParams) (Product, error)
	Delete(ctx context.Context, id uuid.UUID) (Product, error)
	GetByID(ctx context.Context, id uuid.UUID) (Product, error)
	GetByBarcode(ctx context.Context, barcode string) (Product, error)
	List(ctx context.Context, params ListProductsParams) ([]Product, int, error)
}
