// Package service implements scan sessions: the scanning state machine, the
// session-local cart, and the orchestration around catalog resolution and
// invoice finalization.
package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"scanpos_backend/internal/scanner/device"
	"scanpos_backend/platform/apperr"
)

// State is the scanning state of a controller.
type State string

const (
	StateIdle               State = "idle"
	StateScanningSingle     State = "scanning_single"
	StateScanningContinuous State = "scanning_continuous"
	StateError              State = "error"
)

// Mode selects how a scan run behaves.
type Mode string

const (
	// ModeSingle stops after the first accepted detection.
	ModeSingle Mode = "single"
	// ModeContinuous keeps scanning until stopped, debouncing repeated codes.
	ModeContinuous Mode = "continuous"
)

// ParseMode validates a wire-level mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeSingle, ModeContinuous:
		return Mode(s), nil
	default:
		return "", apperr.Validation("mode must be single or continuous")
	}
}

// Sink consumes detections the controller has accepted.
type Sink func(d device.Detection)

// Controller runs the scanning state machine for one session. It owns the
// decoder for the duration of a run, acquired through the gate on Start and
// released on Stop, single-shot completion, or error.
type Controller struct {
	gate     *device.Gate
	cooldown time.Duration
	sink     Sink
	now      func() time.Time

	mu       sync.Mutex
	state    State
	cancel   context.CancelFunc
	done     chan struct{}
	lastSeen map[string]time.Time
}

// NewController creates an idle controller. cooldown is the per-code debounce
// window applied in continuous mode.
func NewController(gate *device.Gate, cooldown time.Duration, sink Sink) *Controller {
	return &Controller{
		gate:     gate,
		cooldown: cooldown,
		sink:     sink,
		now:      time.Now,
		state:    StateIdle,
	}
}

// State returns the current scanning state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Scanning reports whether a scan run is active.
func (c *Controller) Scanning() bool {
	s := c.State()
	return s == StateScanningSingle || s == StateScanningContinuous
}

// Start begins a scan run in the given mode. A run that is already active is
// stopped first; there is never a second concurrent run. If the decoder
// cannot be acquired the controller transitions to the error state and the
// run does not start.
func (c *Controller) Start(ctx context.Context, mode Mode) error {
	c.Stop()

	c.mu.Lock()
	defer c.mu.Unlock()

	detections, err := c.gate.Acquire(ctx)
	if err != nil {
		c.state = StateError
		return apperr.Wrap(apperr.KindUnavailable, "failed to initialize scanner device", err)
	}

	if mode == ModeSingle {
		c.state = StateScanningSingle
	} else {
		c.state = StateScanningContinuous
	}
	c.lastSeen = make(map[string]time.Time)

	// The run outlives the Start request; only Stop ends it.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.cancel = cancel
	c.done = make(chan struct{})

	go c.consume(runCtx, mode, detections, c.done)
	return nil
}

// Stop ends the active run and releases the decoder. It is idempotent and
// recovers the error state back to idle.
func (c *Controller) Stop() {
	c.mu.Lock()
	done := c.done
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.state == StateScanningSingle || c.state == StateScanningContinuous {
		c.gate.Release()
	}
	c.state = StateIdle
	c.done = nil
	c.mu.Unlock()

	if done != nil {
		<-done
	}
}

func (c *Controller) consume(ctx context.Context, mode Mode, detections <-chan device.Detection, done chan struct{}) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-detections:
			if !ok {
				return
			}
			if strings.TrimSpace(d.Code) == "" {
				// Unreadable frame, ignore.
				continue
			}
			if mode == ModeContinuous && !c.accept(d) {
				continue
			}

			c.sink(d)

			if mode == ModeSingle {
				c.completeSingle()
				return
			}
		}
	}
}

// accept applies the per-code cool-down: a code re-decoded within the window
// of its last accepted detection is suppressed, so a barcode held in frame
// aggregates once rather than once per frame.
func (c *Controller) accept(d device.Detection) bool {
	at := d.At
	if at.IsZero() {
		at = c.now()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if last, ok := c.lastSeen[d.Code]; ok && at.Sub(last) < c.cooldown {
		return false
	}
	c.lastSeen[d.Code] = at
	return true
}

// completeSingle is the single-shot auto-stop, run from the consume
// goroutine after the first accepted detection.
func (c *Controller) completeSingle() {
	c.mu.Lock()
	defer c.mu.Unlock()

	// An external Stop may have won the race; nothing left to release then.
	if c.state != StateScanningSingle {
		return
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.gate.Release()
	c.state = StateIdle
	c.done = nil
}
