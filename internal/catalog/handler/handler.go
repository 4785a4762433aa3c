// Package handler exposes the catalog HTTP endpoints.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"scanpos_backend/internal/catalog/repository"
	"scanpos_backend/internal/catalog/service"
	"scanpos_backend/internal/catalog/transport"
	"scanpos_backend/platform/httpkit"
	"scanpos_backend/platform/validator"
)

// Handler handles catalog HTTP requests.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a catalog handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// CreateProduct handles POST /products.
func (h *Handler) CreateProduct(c *gin.Context) {
	var req transport.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	product, err := h.svc.CreateProduct(c.Request.Context(), repository.CreateProductParams{
		Name:        req.Name,
		Barcode:     req.Barcode,
		PriceCents:  *req.PriceCents,
		Description: req.Description,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, toProductResponse(product))
}

// UpdateProduct handles PUT /products/:id.
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	product, err := h.svc.UpdateProduct(c.Request.Context(), repository.UpdateProductParams{
		ID:          id,
		Name:        req.Name,
		Barcode:     req.Barcode,
		PriceCents:  req.PriceCents,
		Description: req.Description,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toProductResponse(product))
}

// DeleteProduct handles DELETE /products/:id.
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if httpkit.HandleError(c, h.svc.DeleteProduct(c.Request.Context(), id)) {
		return
	}
	c.Status(http.StatusNoContent)
}

// GetProductByID handles GET /products/:id.
func (h *Handler) GetProductByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	product, err := h.svc.GetProduct(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toProductResponse(product))
}

// GetProductByBarcode handles GET /products/barcode/:code, the lookup the
// scanning flow uses interactively.
func (h *Handler) GetProductByBarcode(c *gin.Context) {
	product, err := h.svc.ResolveByBarcode(c.Request.Context(), c.Param("code"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toProductResponse(product))
}

// ListProducts handles GET /products.
func (h *Handler) ListProducts(c *gin.Context) {
	var req transport.ListProductsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid query parameters", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = 50
	}

	products, total, err := h.svc.ListProducts(c.Request.Context(), repository.ListProductsParams{
		Search: req.Search,
		Offset: (page - 1) * pageSize,
		Limit:  pageSize,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	items := make([]transport.ProductResponse, 0, len(products))
	for _, p := range products {
		items = append(items, toProductResponse(p))
	}
	totalPages := (total + pageSize - 1) / pageSize

	httpkit.OK(c, transport.ProductListResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	})
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid product id", nil)
		return uuid.Nil, false
	}
	return id, true
}

func toProductResponse(p repository.Product) transport.ProductResponse {
	return transport.ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Barcode:     p.Barcode,
		PriceCents:  p.PriceCents,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
