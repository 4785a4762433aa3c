package device

import (
	"context"
	"errors"
	"sync"
)

// Injector accepts decoded frames pushed from the outside.
type Injector interface {
	// Inject hands a detection to the open decode stream. It reports false
	// when the stream is closed or its buffer is full; dropped frames are
	// treated as decode noise, never as errors.
	Inject(d Detection) bool
}

// Bridge is a Decoder fed over HTTP by a hardware bridge instead of an
// in-process camera library. Open hands out a bounded channel; Inject pushes
// decoded frames into it without ever blocking the caller.
type Bridge struct {
	mu     sync.Mutex
	buffer int
	ch     chan Detection
}

// NewBridge creates a bridge whose decode stream buffers up to buffer frames.
func NewBridge(buffer int) *Bridge {
	return &Bridge{buffer: buffer}
}

// Open starts a decode stream.
func (b *Bridge) Open(_ context.Context) (<-chan Detection, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ch != nil {
		return nil, errors.New("bridge already open")
	}
	b.ch = make(chan Detection, b.buffer)
	return b.ch, nil
}

// Close ends the current decode stream. Safe to call when not open.
func (b *Bridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ch != nil {
		close(b.ch)
		b.ch = nil
	}
	return nil
}

// Inject pushes a decoded frame into the open stream.
func (b *Bridge) Inject(d Detection) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ch == nil {
		return false
	}
	select {
	case b.ch <- d:
		return true
	default:
		return false
	}
}

// Compile-time checks.
var (
	_ Decoder  = (*Bridge)(nil)
	_ Injector = (*Bridge)(nil)
)
