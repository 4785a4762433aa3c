package transport

import "github.com/google/uuid"

// CreateSessionRequest starts a new scan session.
type CreateSessionRequest struct {
	Mode string `json:"mode" validate:"required,oneof=single continuous"`
}

// StartScanRequest restarts scanning on an existing session.
type StartScanRequest struct {
	Mode string `json:"mode" validate:"required,oneof=single continuous"`
}

// DetectionRequest is one decoded frame pushed by the hardware bridge, or a
// manually entered code when source is "manual".
type DetectionRequest struct {
	Code   string `json:"code" validate:"required"`
	Source string `json:"source" validate:"omitempty,oneof=camera manual"`
}

// AddItemRequest adds a barcode with an explicit quantity to the cart.
type AddItemRequest struct {
	Barcode  string `json:"barcode" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
}

// CartLineResponse is one working cart line. Name and price reflect the
// catalog at add-time and are display-only.
type CartLineResponse struct {
	ProductID  uuid.UUID `json:"productId"`
	Name       string    `json:"name"`
	Barcode    string    `json:"barcode"`
	PriceCents int64     `json:"priceCents"`
	Quantity   int       `json:"quantity"`
}

// SessionResponse is the observable state of a scan session.
type SessionResponse struct {
	ID         uuid.UUID          `json:"id"`
	State      string             `json:"state"`
	Mode       string             `json:"mode"`
	Items      []CartLineResponse `json:"items"`
	TotalCents int64              `json:"totalCents"`
	CreatedAt  string             `json:"createdAt"`
}
