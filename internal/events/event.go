// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"scanpos_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Catalog Domain Events
// =============================================================================

// ProductUpdated is published when a catalog product changes. The barcode
// cache subscribes to drop stale entries; OldBarcode differs from Barcode
// when the code itself was reassigned.
type ProductUpdated struct {
	BaseEvent
	ProductID  uuid.UUID `json:"productId"`
	Barcode    string    `json:"barcode"`
	OldBarcode string    `json:"oldBarcode,omitempty"`
}

func (e ProductUpdated) EventName() string { return "catalog.product.updated" }

// ProductDeleted is published when a catalog product is removed.
type ProductDeleted struct {
	BaseEvent
	ProductID uuid.UUID `json:"productId"`
	Barcode   string    `json:"barcode"`
}

func (e ProductDeleted) EventName() string { return "catalog.product.deleted" }

// =============================================================================
// Invoice Domain Events
// =============================================================================

// InvoiceCreated is published after an invoice has been committed.
// SessionID is set when the invoice originated from a scan session finalize,
// so the scanner module can tear the session's cart down.
type InvoiceCreated struct {
	BaseEvent
	InvoiceID  uuid.UUID  `json:"invoiceId"`
	TotalCents int64      `json:"totalCents"`
	LineCount  int        `json:"lineCount"`
	SessionID  *uuid.UUID `json:"sessionId,omitempty"`
}

func (e InvoiceCreated) EventName() string { return "invoices.invoice.created" }
