package transport

import "github.com/google/uuid"

type CreateProductRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=200"`
	Barcode     string  `json:"barcode" validate:"required,min=1,max=64"`
	PriceCents  *int64  `json:"priceCents" validate:"required,min=0"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1000"`
}

type UpdateProductRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Barcode     *string `json:"barcode,omitempty" validate:"omitempty,min=1,max=64"`
	PriceCents  *int64  `json:"priceCents,omitempty" validate:"omitempty,min=0"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1000"`
}

type ListProductsRequest struct {
	Search   string `form:"search" validate:"max=100"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

type ProductResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Barcode     string    `json:"barcode"`
	PriceCents  int64     `json:"priceCents"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   string    `json:"createdAt"`
	UpdatedAt   string    `json:"updatedAt"`
}

type ProductListResponse struct {
	Items      []ProductResponse `json:"items"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	TotalPages int               `json:"totalPages"`
}
