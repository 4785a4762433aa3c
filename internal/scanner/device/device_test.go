package device

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeDecoder struct {
	opens    int
	closes   int
	failOpen error
	ch       chan Detection
}

func (f *fakeDecoder) Open(_ context.Context) (<-chan Detection, error) {
	if f.failOpen != nil {
		return nil, f.failOpen
	}
	f.opens++
	f.ch = make(chan Detection, 1)
	return f.ch, nil
}

func (f *fakeDecoder) Close() error {
	f.closes++
	close(f.ch)
	return nil
}

func TestGateExclusiveAcquisition(t *testing.T) {
	dec := &fakeDecoder{}
	gate := NewGate(dec)

	if _, err := gate.Acquire(context.Background()); err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}
	if _, err := gate.Acquire(context.Background()); !errors.Is(err, ErrDeviceHeld) {
		t.Fatalf("expected ErrDeviceHeld, got %v", err)
	}

	gate.Release()
	if _, err := gate.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire after release failed: %v", err)
	}
}

func TestGateReleaseAccounting(t *testing.T) {
	dec := &fakeDecoder{}
	gate := NewGate(dec)

	for i := 0; i < 3; i++ {
		if _, err := gate.Acquire(context.Background()); err != nil {
			t.Fatalf("acquire %d failed: %v", i, err)
		}
		gate.Release()
		// Release must be idempotent; a second call must not close twice.
		gate.Release()
	}

	if dec.opens != 3 || dec.closes != 3 {
		t.Fatalf("expected 3 opens and 3 closes, got %d/%d", dec.opens, dec.closes)
	}
	if gate.Held() {
		t.Fatal("gate must not be held after release")
	}
}

func TestGateOpenFailureLeavesGateFree(t *testing.T) {
	dec := &fakeDecoder{failOpen: errors.New("device busy")}
	gate := NewGate(dec)

	if _, err := gate.Acquire(context.Background()); err == nil {
		t.Fatal("expected open failure")
	}
	if gate.Held() {
		t.Fatal("failed acquire must not hold the gate")
	}

	dec.failOpen = nil
	if _, err := gate.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire after recovery failed: %v", err)
	}
}

func TestBridgeInjectRespectsBufferAndClose(t *testing.T) {
	bridge := NewBridge(2)

	if bridge.Inject(Detection{Code: "early"}) {
		t.Fatal("inject before open must be dropped")
	}

	detections, err := bridge.Open(context.Background())
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}

	for _, code := range []string{"a", "b"} {
		if !bridge.Inject(Detection{Code: code, Source: SourceCamera, At: time.Now()}) {
			t.Fatalf("inject %q dropped with free buffer", code)
		}
	}
	if bridge.Inject(Detection{Code: "c"}) {
		t.Fatal("inject into a full buffer must be dropped, not blocked")
	}

	if err := bridge.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if bridge.Inject(Detection{Code: "late"}) {
		t.Fatal("inject after close must be dropped")
	}

	// Buffered frames drain, then the stream ends.
	if d := <-detections; d.Code != "a" {
		t.Fatalf("expected first frame a, got %q", d.Code)
	}
	if d := <-detections; d.Code != "b" {
		t.Fatalf("expected second frame b, got %q", d.Code)
	}
	if _, ok := <-detections; ok {
		t.Fatal("stream must be closed after Close")
	}
}

func TestBridgeReopensAfterClose(t *testing.T) {
	bridge := NewBridge(1)

	if _, err := bridge.Open(context.Background()); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if _, err := bridge.Open(context.Background()); err == nil {
		t.Fatal("second open must fail while the stream is live")
	}
	if err := bridge.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if _, err := bridge.Open(context.Background()); err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
}
