// Package device models the barcode decoder hardware: the decoder port, the
// exclusive-acquisition gate in front of it, and the HTTP-fed bridge
// implementation.
package device

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Source tags where a detection came from.
type Source string

const (
	// SourceCamera marks detections decoded from camera frames.
	SourceCamera Source = "camera"
	// SourceManual marks detections typed in by the operator.
	SourceManual Source = "manual"
)

// Detection is a single successful barcode decode occurrence.
type Detection struct {
	Code   string
	Source Source
	At     time.Time
}

// Decoder is the port to the physical barcode decoder. Open starts a decode
// stream; the returned channel is closed by Close.
type Decoder interface {
	Open(ctx context.Context) (<-chan Detection, error)
	Close() error
}

// ErrDeviceHeld is returned when the decoder is already owned by a session.
var ErrDeviceHeld = errors.New("decoder device already held")

// Gate serializes ownership of the decoder. At most one holder at a time;
// Acquire fails while the device is held, Release is idempotent.
type Gate struct {
	mu   sync.Mutex
	dec  Decoder
	held bool
}

// NewGate creates a gate guarding the given decoder.
func NewGate(dec Decoder) *Gate {
	return &Gate{dec: dec}
}

// Acquire opens the decoder for exclusive use and returns its detection
// stream.
func (g *Gate) Acquire(ctx context.Context) (<-chan Detection, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.held {
		return nil, ErrDeviceHeld
	}

	detections, err := g.dec.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open decoder: %w", err)
	}

	g.held = true
	return detections, nil
}

// Release closes the decoder and frees the gate. Safe to call when not held.
func (g *Gate) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.held {
		return
	}
	_ = g.dec.Close()
	g.held = false
}

// Held reports whether the decoder is currently owned.
func (g *Gate) Held() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.held
}
