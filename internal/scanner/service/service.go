package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	catalogrepo "scanpos_backend/internal/catalog/repository"
	invoicerepo "scanpos_backend/internal/invoices/repository"
	invoicesvc "scanpos_backend/internal/invoices/service"
	"scanpos_backend/internal/scanner/device"
	"scanpos_backend/platform/apperr"
	"scanpos_backend/platform/logger"
)

// CodeResolver is the interactive catalog lookup used while scanning.
type CodeResolver interface {
	ResolveByBarcode(ctx context.Context, barcode string) (catalogrepo.Product, error)
}

// InvoiceCreator hands a finalized cart to the invoice assembler.
type InvoiceCreator interface {
	CreateInvoice(ctx context.Context, lines []invoicesvc.LineInput, sessionID *uuid.UUID) (invoicerepo.InvoiceWithLines, error)
}

// Acknowledger signals an accepted detection back to the operator, the
// counter's beep.
type Acknowledger interface {
	Detected(sessionID uuid.UUID, code string)
}

// Snapshot is the observable state of a session.
type Snapshot struct {
	ID         uuid.UUID
	State      State
	Mode       Mode
	Lines      []CartLine
	TotalCents int64
	CreatedAt  time.Time
}

// Service manages scan sessions. All sessions contend for the one decoder
// behind the gate, so at most one session is actively scanning at a time.
type Service struct {
	registry *Registry
	gate     *device.Gate
	injector device.Injector
	resolver CodeResolver
	invoices InvoiceCreator
	ack      Acknowledger
	cooldown time.Duration
	log      *logger.Logger
	now      func() time.Time
}

// New creates the scan session service. cooldown is the continuous-mode
// per-code debounce window.
func New(gate *device.Gate, injector device.Injector, resolver CodeResolver, invoices InvoiceCreator, ack Acknowledger, cooldown time.Duration, log *logger.Logger) *Service {
	return &Service{
		registry: NewRegistry(),
		gate:     gate,
		injector: injector,
		resolver: resolver,
		invoices: invoices,
		ack:      ack,
		cooldown: cooldown,
		log:      log,
		now:      time.Now,
	}
}

// StartSession creates a session and starts scanning in the given mode. When
// the decoder cannot be acquired no session is created.
func (s *Service) StartSession(ctx context.Context, mode Mode) (Snapshot, error) {
	sess := newSession(nil, mode, s.now().UTC())
	sess.controller = NewController(s.gate, s.cooldown, func(d device.Detection) {
		s.handleDetection(sess, d)
	})

	if err := sess.controller.Start(ctx, mode); err != nil {
		return Snapshot{}, err
	}

	s.registry.Add(sess)
	if s.log != nil {
		s.log.ScanEvent("session_started", sess.ID.String(), slog.String("mode", string(mode)))
	}
	return s.snapshot(sess), nil
}

// StartScanning begins a new scan run on an existing session, keeping its
// cart. An active run is stopped and restarted.
func (s *Service) StartScanning(ctx context.Context, id uuid.UUID, mode Mode) (Snapshot, error) {
	sess, err := s.registry.Get(id)
	if err != nil {
		return Snapshot{}, err
	}

	if err := sess.controller.Start(ctx, mode); err != nil {
		return Snapshot{}, err
	}
	sess.setMode(mode)

	if s.log != nil {
		s.log.ScanEvent("scan_restarted", sess.ID.String(), slog.String("mode", string(mode)))
	}
	return s.snapshot(sess), nil
}

// IngestDetection feeds one decoded frame into the session's scan run. The
// session must be actively scanning; frames that do not fit the stream
// buffer are dropped as decode noise.
func (s *Service) IngestDetection(ctx context.Context, id uuid.UUID, code string, source device.Source) error {
	sess, err := s.registry.Get(id)
	if err != nil {
		return err
	}
	if !sess.controller.Scanning() {
		return apperr.Conflict("session is not scanning")
	}

	s.injector.Inject(device.Detection{Code: code, Source: source, At: s.now()})
	return nil
}

// AddItem adds a barcode with an explicit quantity straight to the cart,
// independent of any scan run. Unknown barcodes are surfaced, not dropped.
func (s *Service) AddItem(ctx context.Context, id uuid.UUID, barcode string, quantity int) (Snapshot, error) {
	sess, err := s.registry.Get(id)
	if err != nil {
		return Snapshot{}, err
	}

	product, err := s.resolver.ResolveByBarcode(ctx, barcode)
	if err != nil {
		return Snapshot{}, err
	}

	sess.addToCart(product, quantity)
	return s.snapshot(sess), nil
}

// GetSession returns the session's current state and cart.
func (s *Service) GetSession(id uuid.UUID) (Snapshot, error) {
	sess, err := s.registry.Get(id)
	if err != nil {
		return Snapshot{}, err
	}
	return s.snapshot(sess), nil
}

// ResetCart clears the session's cart, used when toggling scan modes.
func (s *Service) ResetCart(id uuid.UUID) (Snapshot, error) {
	sess, err := s.registry.Get(id)
	if err != nil {
		return Snapshot{}, err
	}
	sess.resetCart()
	return s.snapshot(sess), nil
}

// StopScanning ends the session's scan run and releases the decoder. The
// cart is kept.
func (s *Service) StopScanning(id uuid.UUID) (Snapshot, error) {
	sess, err := s.registry.Get(id)
	if err != nil {
		return Snapshot{}, err
	}
	sess.controller.Stop()
	return s.snapshot(sess), nil
}

// Finalize stops scanning and hands the cart to the invoice assembler. The
// session itself is torn down by the invoice-created event round-trip, so a
// failed finalize leaves the cart intact for retry.
func (s *Service) Finalize(ctx context.Context, id uuid.UUID) (invoicerepo.InvoiceWithLines, error) {
	sess, err := s.registry.Get(id)
	if err != nil {
		return invoicerepo.InvoiceWithLines{}, err
	}

	sess.controller.Stop()

	cartLines := sess.cartLines()
	lines := make([]invoicesvc.LineInput, 0, len(cartLines))
	for _, l := range cartLines {
		lines = append(lines, invoicesvc.LineInput{ProductID: l.ProductID, Quantity: l.Quantity})
	}

	return s.invoices.CreateInvoice(ctx, lines, &sess.ID)
}

// CompleteSession destroys a finalized session: the run is stopped and the
// cart discarded.
func (s *Service) CompleteSession(id uuid.UUID) {
	sess := s.registry.Remove(id)
	if sess == nil {
		return
	}
	sess.controller.Stop()
	sess.resetCart()
	if s.log != nil {
		s.log.ScanEvent("session_completed", id.String())
	}
}

// handleDetection runs on the controller's consume goroutine for every
// accepted detection: resolve the code, merge into the cart, acknowledge.
// Unknown codes are dropped with a warning; the session continues.
func (s *Service) handleDetection(sess *Session, d device.Detection) {
	ctx := context.Background()

	product, err := s.resolver.ResolveByBarcode(ctx, d.Code)
	if err != nil {
		if s.log != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				s.log.ScanWarning("unknown barcode", sess.ID.String(), d.Code)
			} else {
				s.log.ScanWarning("barcode resolution failed", sess.ID.String(), d.Code)
			}
		}
		return
	}

	sess.addToCart(product, 1)
	if s.ack != nil {
		s.ack.Detected(sess.ID, d.Code)
	}
	if s.log != nil {
		s.log.ScanEvent("detection_accepted", sess.ID.String(),
			slog.String("code", d.Code),
			slog.String("source", string(d.Source)),
		)
	}
}

func (s *Service) snapshot(sess *Session) Snapshot {
	return Snapshot{
		ID:         sess.ID,
		State:      sess.controller.State(),
		Mode:       sess.Mode(),
		Lines:      sess.cartLines(),
		TotalCents: sess.cartTotalCents(),
		CreatedAt:  sess.CreatedAt,
	}
}
