package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"scanpos_backend/platform/apperr"
)

const invoiceNotFoundMessage = "invoice not found"

const insertInvoiceQuery = `
	INSERT INTO invoices (id, total_cents, created_at)
	VALUES ($1, $2, $3)`

const insertInvoiceItemQuery = `
	INSERT INTO invoice_items (id, invoice_id, product_id, quantity, sort_order)
	VALUES ($1, $2, $3, $4, $5)`

const selectInvoiceLinesQuery = `
	SELECT i.id, i.invoice_id, i.product_id, i.quantity, i.sort_order,
		p.name, p.barcode, p.price_cents, p.description
	FROM invoice_items i
	JOIN products p ON p.id = i.product_id
	WHERE i.invoice_id = ANY($1)
	ORDER BY i.invoice_id, i.sort_order ASC`

// Repo implements the invoice repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new invoice repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// CreateWithItems persists the invoice and its lines in one transaction.
func (r *Repo) CreateWithItems(ctx context.Context, invoice Invoice, items []InvoiceItem) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin invoice transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, insertInvoiceQuery, invoice.ID, invoice.TotalCents, invoice.CreatedAt); err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}

	for _, item := range items {
		if _, err := tx.Exec(ctx, insertInvoiceItemQuery,
			item.ID, item.InvoiceID, item.ProductID, item.Quantity, item.SortOrder,
		); err != nil {
			return fmt.Errorf("insert invoice item: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// GetByID retrieves an invoice with its lines expanded.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (InvoiceWithLines, error) {
	query := `SELECT id, total_cents, created_at FROM invoices WHERE id = $1`

	var inv Invoice
	if err := r.pool.QueryRow(ctx, query, id).Scan(&inv.ID, &inv.TotalCents, &inv.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return InvoiceWithLines{}, apperr.NotFound(invoiceNotFoundMessage)
		}
		return InvoiceWithLines{}, fmt.Errorf("get invoice: %w", err)
	}

	lines, err := r.linesForInvoices(ctx, []uuid.UUID{id})
	if err != nil {
		return InvoiceWithLines{}, err
	}

	return InvoiceWithLines{Invoice: inv, Lines: lines[id]}, nil
}

// List returns all invoices, newest first, with lines expanded.
func (r *Repo) List(ctx context.Context) ([]InvoiceWithLines, error) {
	query := `SELECT id, total_cents, created_at FROM invoices ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []InvoiceWithLines
	var ids []uuid.UUID
	for rows.Next() {
		var inv Invoice
		if err := rows.Scan(&inv.ID, &inv.TotalCents, &inv.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		invoices = append(invoices, InvoiceWithLines{Invoice: inv})
		ids = append(ids, inv.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}

	if len(ids) == 0 {
		return invoices, nil
	}

	lines, err := r.linesForInvoices(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range invoices {
		invoices[i].Lines = lines[invoices[i].ID]
	}

	return invoices, nil
}

func (r *Repo) linesForInvoices(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]LineWithProduct, error) {
	rows, err := r.pool.Query(ctx, selectInvoiceLinesQuery, ids)
	if err != nil {
		return nil, fmt.Errorf("list invoice lines: %w", err)
	}
	defer rows.Close()

	lines := make(map[uuid.UUID][]LineWithProduct)
	for rows.Next() {
		var l LineWithProduct
		if err := rows.Scan(
			&l.ID, &l.InvoiceID, &l.ProductID, &l.Quantity, &l.SortOrder,
			&l.ProductName, &l.ProductBarcode, &l.ProductPriceCents, &l.ProductDescription,
		); err != nil {
			return nil, fmt.Errorf("scan invoice line: %w", err)
		}
		lines[l.InvoiceID] = append(lines[l.InvoiceID], l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list invoice lines: %w", err)
	}

	return lines, nil
}
