package repository

import (
	"strings"
	"testing"
)

func TestInsertProductBindsGeneratedID(t *testing.T) {
	query := strings.ToLower(insertProductQuery)

	if !strings.Contains(query, "insert into products (id, name, barcode, price_cents, description)") {
		t.Fatal("product insert must bind the id explicitly; the schema has no column default")
	}
	if !strings.Contains(query, "values ($1, $2, $3, $4, $5)") {
		t.Fatal("product insert must bind all five columns")
	}
	if !strings.Contains(query, "returning "+strings.ToLower(productColumns)) {
		t.Fatal("product insert must return the full row")
	}
}
