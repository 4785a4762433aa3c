package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	catalogrepo "scanpos_backend/internal/catalog/repository"
	"scanpos_backend/internal/events"
	"scanpos_backend/internal/invoices/repository"
	"scanpos_backend/internal/invoices/service"
	"scanpos_backend/platform/apperr"
	"scanpos_backend/platform/validator"
)

type stubResolver struct {
	products map[uuid.UUID]catalogrepo.Product
}

func (s *stubResolver) ResolveByID(_ context.Context, id uuid.UUID) (catalogrepo.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return catalogrepo.Product{}, apperr.NotFound("product not found")
	}
	return p, nil
}

type stubRepo struct {
	failWith error
	creates  int
}

func (s *stubRepo) CreateWithItems(_ context.Context, _ repository.Invoice, _ []repository.InvoiceItem) error {
	if s.failWith != nil {
		return s.failWith
	}
	s.creates++
	return nil
}

func (s *stubRepo) GetByID(_ context.Context, _ uuid.UUID) (repository.InvoiceWithLines, error) {
	return repository.InvoiceWithLines{}, nil
}

func (s *stubRepo) List(_ context.Context) ([]repository.InvoiceWithLines, error) {
	return nil, nil
}

type noopBus struct{}

func (noopBus) Publish(context.Context, events.Event)          {}
func (noopBus) PublishSync(context.Context, events.Event) error { return nil }
func (noopBus) Subscribe(string, events.Handler)                {}

func newTestRouter(repo *stubRepo, resolver *stubResolver) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := service.New(repo, resolver, noopBus{}, nil)
	h := New(svc, validator.New())

	r := gin.New()
	r.POST("/invoices", h.CreateInvoice)
	return r
}

func postInvoices(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/invoices", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCreateInvoiceRespondsCreated(t *testing.T) {
	p1 := catalogrepo.Product{ID: uuid.New(), Name: "Coffee", Barcode: "B1", PriceCents: 1000}
	repo := &stubRepo{}
	r := newTestRouter(repo, &stubResolver{products: map[uuid.UUID]catalogrepo.Product{p1.ID: p1}})

	rec := postInvoices(r, fmt.Sprintf(`{"items":[{"product":%q,"quantity":2}]}`, p1.ID))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		TotalCents int64 `json:"totalCents"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.TotalCents != 2000 {
		t.Fatalf("expected total 2000, got %d", resp.TotalCents)
	}
	if repo.creates != 1 {
		t.Fatalf("expected one persist call, got %d", repo.creates)
	}
}

func TestCreateInvoiceUnknownProductRespondsNotFound(t *testing.T) {
	missing := uuid.New()
	repo := &stubRepo{}
	r := newTestRouter(repo, &stubResolver{products: map[uuid.UUID]catalogrepo.Product{}})

	rec := postInvoices(r, fmt.Sprintf(`{"items":[{"product":%q,"quantity":1}]}`, missing))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
	want := fmt.Sprintf(`{"message":"Product not found: %s"}`, missing)
	if got := strings.TrimSpace(rec.Body.String()); got != want {
		t.Fatalf("expected body %s, got %s", want, got)
	}
	if repo.creates != 0 {
		t.Fatal("nothing may be persisted for an unknown product")
	}
}

func TestCreateInvoiceInvalidQuantityRespondsBadRequest(t *testing.T) {
	p1 := catalogrepo.Product{ID: uuid.New(), Name: "Coffee", Barcode: "B1", PriceCents: 1000}
	r := newTestRouter(&stubRepo{}, &stubResolver{products: map[uuid.UUID]catalogrepo.Product{p1.ID: p1}})

	rec := postInvoices(r, fmt.Sprintf(`{"items":[{"product":%q,"quantity":0}]}`, p1.ID))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.Message == "" {
		t.Fatal("validation failure must carry a message")
	}
}

func TestCreateInvoicePersistenceFailureRespondsInternal(t *testing.T) {
	p1 := catalogrepo.Product{ID: uuid.New(), Name: "Coffee", Barcode: "B1", PriceCents: 1000}
	repo := &stubRepo{failWith: errors.New("connection reset")}
	r := newTestRouter(repo, &stubResolver{products: map[uuid.UUID]catalogrepo.Product{p1.ID: p1}})

	rec := postInvoices(r, fmt.Sprintf(`{"items":[{"product":%q,"quantity":1}]}`, p1.ID))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.Message != "failed to persist invoice" {
		t.Fatalf("unexpected message %q", resp.Message)
	}
}
