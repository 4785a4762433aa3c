package service

import (
	"sync"
	"time"

	"github.com/google/uuid"

	catalogrepo "scanpos_backend/internal/catalog/repository"
	"scanpos_backend/platform/apperr"
)

// Session is one operator's scan-to-invoice run: a controller driving the
// decoder plus the cart being assembled. The session mutex serializes cart
// access between the detection goroutine and HTTP requests.
type Session struct {
	ID         uuid.UUID
	CreatedAt  time.Time
	controller *Controller

	mu   sync.Mutex
	mode Mode
	cart *Cart
}

func newSession(controller *Controller, mode Mode, now time.Time) *Session {
	return &Session{
		ID:         uuid.New(),
		CreatedAt:  now,
		controller: controller,
		mode:       mode,
		cart:       NewCart(),
	}
}

// Mode returns the mode of the most recent scan run.
func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

func (s *Session) setMode(mode Mode) {
	s.mu.Lock()
	s.mode = mode
	s.mu.Unlock()
}

func (s *Session) addToCart(p catalogrepo.Product, quantity int) {
	s.mu.Lock()
	s.cart.Add(p, quantity)
	s.mu.Unlock()
}

func (s *Session) cartLines() []CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Lines()
}

func (s *Session) cartTotalCents() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.TotalCents()
}

func (s *Session) resetCart() {
	s.mu.Lock()
	s.cart.Reset()
	s.mu.Unlock()
}

// Registry tracks live sessions by identifier.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[uuid.UUID]*Session)}
}

// Add registers a session.
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
}

// Get looks a session up by id.
func (r *Registry) Get(id uuid.UUID) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, apperr.NotFound("scan session not found")
	}
	return s, nil
}

// Remove drops a session. Returns the removed session, if any.
func (r *Registry) Remove(id uuid.UUID) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.sessions[id]
	delete(r.sessions, id)
	return s
}
