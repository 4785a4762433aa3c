package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	catalogrepo "scanpos_backend/internal/catalog/repository"
	invoicerepo "scanpos_backend/internal/invoices/repository"
	invoicesvc "scanpos_backend/internal/invoices/service"
	"scanpos_backend/internal/scanner/device"
	"scanpos_backend/platform/apperr"
)

type fakeCatalog struct {
	mu        sync.Mutex
	byBarcode map[string]catalogrepo.Product
}

func (f *fakeCatalog) ResolveByBarcode(_ context.Context, barcode string) (catalogrepo.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byBarcode[barcode]
	if !ok {
		return catalogrepo.Product{}, apperr.NotFound("product not found")
	}
	return p, nil
}

type fakeInvoices struct {
	mu        sync.Mutex
	calls     int
	lines     []invoicesvc.LineInput
	sessionID *uuid.UUID
	failWith  error
}

func (f *fakeInvoices) CreateInvoice(_ context.Context, lines []invoicesvc.LineInput, sessionID *uuid.UUID) (invoicerepo.InvoiceWithLines, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return invoicerepo.InvoiceWithLines{}, f.failWith
	}
	f.calls++
	f.lines = lines
	f.sessionID = sessionID
	inv := invoicerepo.Invoice{ID: uuid.New(), CreatedAt: time.Now()}
	return invoicerepo.InvoiceWithLines{Invoice: inv}, nil
}

type recordingAck struct {
	mu    sync.Mutex
	codes []string
}

func (a *recordingAck) Detected(_ uuid.UUID, code string) {
	a.mu.Lock()
	a.codes = append(a.codes, code)
	a.mu.Unlock()
}

func (a *recordingAck) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.codes)
}

// fakeClock drives the service's timestamping so the debounce window can be
// crossed without sleeping.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	svc     *Service
	bridge  *device.Bridge
	gate    *device.Gate
	catalog *fakeCatalog
	inv     *fakeInvoices
	ack     *recordingAck
	clock   *fakeClock
}

func newFixture(products ...catalogrepo.Product) *fixture {
	byBarcode := make(map[string]catalogrepo.Product)
	for _, p := range products {
		byBarcode[p.Barcode] = p
	}

	bridge := device.NewBridge(16)
	gate := device.NewGate(bridge)
	catalog := &fakeCatalog{byBarcode: byBarcode}
	inv := &fakeInvoices{}
	ack := &recordingAck{}
	clock := &fakeClock{t: time.Unix(1700000000, 0)}

	svc := New(gate, bridge, catalog, inv, ack, 1500*time.Millisecond, nil)
	svc.now = clock.Now

	return &fixture{svc: svc, bridge: bridge, gate: gate, catalog: catalog, inv: inv, ack: ack, clock: clock}
}

func (f *fixture) waitForQuantity(t *testing.T, id, productID uuid.UUID, want int) {
	t.Helper()
	waitFor(t, "cart quantity", func() bool {
		snap, err := f.svc.GetSession(id)
		if err != nil {
			return false
		}
		for _, l := range snap.Lines {
			if l.ProductID == productID && l.Quantity == want {
				return true
			}
		}
		return false
	})
}

func TestContinuousScanMergesRepeatedCode(t *testing.T) {
	p1 := catalogrepo.Product{ID: uuid.New(), Name: "Coffee", Barcode: "B1", PriceCents: 1000}
	f := newFixture(p1)

	snap, err := f.svc.StartSession(context.Background(), ModeContinuous)
	if err != nil {
		t.Fatalf("start session failed: %v", err)
	}
	defer f.svc.CompleteSession(snap.ID)

	if err := f.svc.IngestDetection(context.Background(), snap.ID, "B1", device.SourceCamera); err != nil {
		t.Fatalf("first detection rejected: %v", err)
	}
	// Past the cool-down window the same code counts again.
	f.clock.Advance(2 * time.Second)
	if err := f.svc.IngestDetection(context.Background(), snap.ID, "B1", device.SourceCamera); err != nil {
		t.Fatalf("second detection rejected: %v", err)
	}

	f.waitForQuantity(t, snap.ID, p1.ID, 2)

	got, err := f.svc.GetSession(snap.ID)
	if err != nil {
		t.Fatalf("get session failed: %v", err)
	}
	if len(got.Lines) != 1 {
		t.Fatalf("repeated code must merge into one line, got %d", len(got.Lines))
	}
	if f.ack.count() != 2 {
		t.Fatalf("expected 2 acknowledgements, got %d", f.ack.count())
	}
}

func TestContinuousScanDebouncesHeldCode(t *testing.T) {
	p1 := catalogrepo.Product{ID: uuid.New(), Name: "Coffee", Barcode: "B1", PriceCents: 1000}
	marker := catalogrepo.Product{ID: uuid.New(), Name: "Tea", Barcode: "MARK", PriceCents: 100}
	f := newFixture(p1, marker)

	snap, err := f.svc.StartSession(context.Background(), ModeContinuous)
	if err != nil {
		t.Fatalf("start session failed: %v", err)
	}
	defer f.svc.CompleteSession(snap.ID)

	// Several decoded frames of the same held barcode within the window.
	for i := 0; i < 5; i++ {
		if err := f.svc.IngestDetection(context.Background(), snap.ID, "B1", device.SourceCamera); err != nil {
			t.Fatalf("detection %d rejected: %v", i, err)
		}
		f.clock.Advance(100 * time.Millisecond)
	}
	if err := f.svc.IngestDetection(context.Background(), snap.ID, "MARK", device.SourceCamera); err != nil {
		t.Fatalf("marker rejected: %v", err)
	}

	f.waitForQuantity(t, snap.ID, marker.ID, 1)

	got, err := f.svc.GetSession(snap.ID)
	if err != nil {
		t.Fatalf("get session failed: %v", err)
	}
	for _, l := range got.Lines {
		if l.ProductID == p1.ID && l.Quantity != 1 {
			t.Fatalf("held code must aggregate once, got quantity %d", l.Quantity)
		}
	}
}

func TestManualAddMergesWithScannedLine(t *testing.T) {
	p1 := catalogrepo.Product{ID: uuid.New(), Name: "Coffee", Barcode: "B1", PriceCents: 1000}
	f := newFixture(p1)

	snap, err := f.svc.StartSession(context.Background(), ModeContinuous)
	if err != nil {
		t.Fatalf("start session failed: %v", err)
	}
	defer f.svc.CompleteSession(snap.ID)

	if err := f.svc.IngestDetection(context.Background(), snap.ID, "B1", device.SourceCamera); err != nil {
		t.Fatalf("detection rejected: %v", err)
	}
	f.clock.Advance(2 * time.Second)
	if err := f.svc.IngestDetection(context.Background(), snap.ID, "B1", device.SourceCamera); err != nil {
		t.Fatalf("detection rejected: %v", err)
	}
	f.waitForQuantity(t, snap.ID, p1.ID, 2)

	got, err := f.svc.AddItem(context.Background(), snap.ID, "B1", 3)
	if err != nil {
		t.Fatalf("manual add failed: %v", err)
	}
	if len(got.Lines) != 1 || got.Lines[0].Quantity != 5 {
		t.Fatalf("expected one merged line qty 5, got %+v", got.Lines)
	}
}

func TestUnknownBarcodeIsDroppedAndSessionContinues(t *testing.T) {
	p1 := catalogrepo.Product{ID: uuid.New(), Name: "Coffee", Barcode: "B1", PriceCents: 1000}
	f := newFixture(p1)

	snap, err := f.svc.StartSession(context.Background(), ModeContinuous)
	if err != nil {
		t.Fatalf("start session failed: %v", err)
	}
	defer f.svc.CompleteSession(snap.ID)

	if err := f.svc.IngestDetection(context.Background(), snap.ID, "NOPE", device.SourceCamera); err != nil {
		t.Fatalf("unknown code must not fail ingestion: %v", err)
	}
	if err := f.svc.IngestDetection(context.Background(), snap.ID, "B1", device.SourceCamera); err != nil {
		t.Fatalf("detection rejected: %v", err)
	}

	f.waitForQuantity(t, snap.ID, p1.ID, 1)

	got, err := f.svc.GetSession(snap.ID)
	if err != nil {
		t.Fatalf("get session failed: %v", err)
	}
	if len(got.Lines) != 1 {
		t.Fatalf("unknown code must not produce a line, got %+v", got.Lines)
	}

	// Manual add surfaces the miss instead of dropping it.
	if _, err := f.svc.AddItem(context.Background(), snap.ID, "NOPE", 1); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found from manual add, got %v", err)
	}
}

func TestDetectionsRejectedWhenNotScanning(t *testing.T) {
	p1 := catalogrepo.Product{ID: uuid.New(), Name: "Coffee", Barcode: "B1", PriceCents: 1000}
	f := newFixture(p1)

	snap, err := f.svc.StartSession(context.Background(), ModeContinuous)
	if err != nil {
		t.Fatalf("start session failed: %v", err)
	}
	defer f.svc.CompleteSession(snap.ID)

	stopped, err := f.svc.StopScanning(snap.ID)
	if err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if stopped.State != StateIdle {
		t.Fatalf("expected idle after stop, got %s", stopped.State)
	}
	if f.gate.Held() {
		t.Fatal("device must be free after stop")
	}

	err = f.svc.IngestDetection(context.Background(), snap.ID, "B1", device.SourceCamera)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict on stopped session, got %v", err)
	}

	// A restart keeps the cart and accepts detections again.
	restarted, err := f.svc.StartScanning(context.Background(), snap.ID, ModeSingle)
	if err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	if restarted.State != StateScanningSingle {
		t.Fatalf("expected scanning_single, got %s", restarted.State)
	}
}

func TestSingleModeStopsAfterFirstDetection(t *testing.T) {
	p1 := catalogrepo.Product{ID: uuid.New(), Name: "Coffee", Barcode: "B1", PriceCents: 1000}
	f := newFixture(p1)

	snap, err := f.svc.StartSession(context.Background(), ModeSingle)
	if err != nil {
		t.Fatalf("start session failed: %v", err)
	}
	defer f.svc.CompleteSession(snap.ID)

	if err := f.svc.IngestDetection(context.Background(), snap.ID, "B1", device.SourceCamera); err != nil {
		t.Fatalf("detection rejected: %v", err)
	}

	f.waitForQuantity(t, snap.ID, p1.ID, 1)
	waitFor(t, "auto-stop", func() bool {
		got, err := f.svc.GetSession(snap.ID)
		return err == nil && got.State == StateIdle
	})
	if f.gate.Held() {
		t.Fatal("device must be free after single-shot completion")
	}
}

func TestSecondSessionCannotAcquireHeldDevice(t *testing.T) {
	f := newFixture()

	first, err := f.svc.StartSession(context.Background(), ModeContinuous)
	if err != nil {
		t.Fatalf("first session failed: %v", err)
	}
	defer f.svc.CompleteSession(first.ID)

	_, err = f.svc.StartSession(context.Background(), ModeContinuous)
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected unavailable while device held, got %v", err)
	}
}

func TestFinalizeHandsCartToInvoicesAndTeardownDestroysSession(t *testing.T) {
	p1 := catalogrepo.Product{ID: uuid.New(), Name: "Coffee", Barcode: "B1", PriceCents: 1000}
	f := newFixture(p1)

	snap, err := f.svc.StartSession(context.Background(), ModeContinuous)
	if err != nil {
		t.Fatalf("start session failed: %v", err)
	}

	if _, err := f.svc.AddItem(context.Background(), snap.ID, "B1", 2); err != nil {
		t.Fatalf("manual add failed: %v", err)
	}

	if _, err := f.svc.Finalize(context.Background(), snap.ID); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if f.gate.Held() {
		t.Fatal("finalize must stop scanning and release the device")
	}
	if f.inv.calls != 1 {
		t.Fatalf("expected one invoice creation, got %d", f.inv.calls)
	}
	if len(f.inv.lines) != 1 || f.inv.lines[0].ProductID != p1.ID || f.inv.lines[0].Quantity != 2 {
		t.Fatalf("unexpected finalized lines: %+v", f.inv.lines)
	}
	if f.inv.sessionID == nil || *f.inv.sessionID != snap.ID {
		t.Fatal("finalize must tag the invoice with its session")
	}

	// The cart survives until the invoice-created round-trip tears it down.
	if _, err := f.svc.GetSession(snap.ID); err != nil {
		t.Fatalf("session must survive finalize itself: %v", err)
	}
	f.svc.CompleteSession(snap.ID)
	if _, err := f.svc.GetSession(snap.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected session gone after completion, got %v", err)
	}
}

func TestFinalizeFailureKeepsCartForRetry(t *testing.T) {
	p1 := catalogrepo.Product{ID: uuid.New(), Name: "Coffee", Barcode: "B1", PriceCents: 1000}
	f := newFixture(p1)
	f.inv.failWith = apperr.Internal("failed to persist invoice")

	snap, err := f.svc.StartSession(context.Background(), ModeContinuous)
	if err != nil {
		t.Fatalf("start session failed: %v", err)
	}
	defer f.svc.CompleteSession(snap.ID)

	if _, err := f.svc.AddItem(context.Background(), snap.ID, "B1", 2); err != nil {
		t.Fatalf("manual add failed: %v", err)
	}

	if _, err := f.svc.Finalize(context.Background(), snap.ID); !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}

	got, err := f.svc.GetSession(snap.ID)
	if err != nil {
		t.Fatalf("session must survive a failed finalize: %v", err)
	}
	if len(got.Lines) != 1 || got.Lines[0].Quantity != 2 {
		t.Fatalf("cart must be intact for retry, got %+v", got.Lines)
	}
}

func TestResetClearsCartButKeepsScanning(t *testing.T) {
	p1 := catalogrepo.Product{ID: uuid.New(), Name: "Coffee", Barcode: "B1", PriceCents: 1000}
	f := newFixture(p1)

	snap, err := f.svc.StartSession(context.Background(), ModeContinuous)
	if err != nil {
		t.Fatalf("start session failed: %v", err)
	}
	defer f.svc.CompleteSession(snap.ID)

	if _, err := f.svc.AddItem(context.Background(), snap.ID, "B1", 2); err != nil {
		t.Fatalf("manual add failed: %v", err)
	}

	got, err := f.svc.ResetCart(snap.ID)
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if len(got.Lines) != 0 || got.TotalCents != 0 {
		t.Fatalf("reset must clear the cart, got %+v", got)
	}
	if got.State != StateScanningContinuous {
		t.Fatalf("reset must not stop the scan run, got %s", got.State)
	}
}
