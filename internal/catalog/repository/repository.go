package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"scanpos_backend/platform/apperr"
)

const (
	productNotFoundMessage  = "product not found"
	barcodeConflictMessage  = "a product with this barcode already exists"
	uniqueViolationSQLState = "23505"
)

const productColumns = "id, name, barcode, price_cents, description, created_at, updated_at"

// The id is generated app-side; the schema carries no column default.
const insertProductQuery = `
	INSERT INTO products (id, name, barcode, price_cents, description)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING ` + productColumns

// Repo implements the catalog repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new catalog repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// Create inserts a product.
func (r *Repo) Create(ctx context.Context, params CreateProductParams) (Product, error) {
	row := r.pool.QueryRow(ctx, insertProductQuery, uuid.New(), params.Name, params.Barcode, params.PriceCents, params.Description)
	product, err := scanProduct(row)
	if err != nil {
		if isUniqueViolation(err) {
			return Product{}, apperr.Conflict(barcodeConflictMessage)
		}
		return Product{}, fmt.Errorf("create product: %w", err)
	}
	return product, nil
}

// Update modifies a product; nil params leave columns unchanged.
func (r *Repo) Update(ctx context.Context, params UpdateProductParams) (Product, error) {
	query := `
		UPDATE products
		SET name = COALESCE($2, name),
			barcode = COALESCE($3, barcode),
			price_cents = COALESCE($4, price_cents),
			description = COALESCE($5, description),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + productColumns

	row := r.pool.QueryRow(ctx, query, params.ID, params.Name, params.Barcode, params.PriceCents, params.Description)
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, apperr.NotFound(productNotFoundMessage)
		}
		if isUniqueViolation(err) {
			return Product{}, apperr.Conflict(barcodeConflictMessage)
		}
		return Product{}, fmt.Errorf("update product: %w", err)
	}
	return product, nil
}

// Delete removes a product and returns the deleted row.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) (Product, error) {
	query := `DELETE FROM products WHERE id = $1 RETURNING ` + productColumns

	product, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, apperr.NotFound(productNotFoundMessage)
		}
		return Product{}, fmt.Errorf("delete product: %w", err)
	}
	return product, nil
}

// GetByID retrieves a product by ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, apperr.NotFound(productNotFoundMessage)
		}
		return Product{}, fmt.Errorf("get product by id: %w", err)
	}
	return product, nil
}

// GetByBarcode retrieves a product by its unique barcode.
func (r *Repo) GetByBarcode(ctx context.Context, barcode string) (Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE barcode = $1`

	product, err := scanProduct(r.pool.QueryRow(ctx, query, barcode))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, apperr.NotFound(productNotFoundMessage)
		}
		return Product{}, fmt.Errorf("get product by barcode: %w", err)
	}
	return product, nil
}

// List returns products matching the filters plus the total count.
func (r *Repo) List(ctx context.Context, params ListProductsParams) ([]Product, int, error) {
	where := "TRUE"
	args := []interface{}{}
	if params.Search != "" {
		where = "(name ILIKE $1 OR barcode ILIKE $1)"
		args = append(args, "%"+params.Search+"%")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM products WHERE %s", where)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(
		"SELECT %s FROM products WHERE %s ORDER BY name ASC LIMIT $%d OFFSET $%d",
		productColumns, where, len(args)+1, len(args)+2,
	)
	args = append(args, limit, params.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}

	return products, total, nil
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	var createdAt, updatedAt time.Time
	if err := row.Scan(&p.ID, &p.Name, &p.Barcode, &p.PriceCents, &p.Description, &createdAt, &updatedAt); err != nil {
		return Product{}, err
	}
	p.CreatedAt = createdAt.Format(time.RFC3339)
	p.UpdatedAt = updatedAt.Format(time.RFC3339)
	return p, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationSQLState
}
