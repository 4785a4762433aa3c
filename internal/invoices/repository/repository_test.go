package repository

import (
	"strings"
	"testing"
)

func TestInsertQueriesBindAllColumns(t *testing.T) {
	if !strings.Contains(insertInvoiceQuery, "VALUES ($1, $2, $3)") {
		t.Fatal("invoice insert must bind id, total and timestamp")
	}
	if !strings.Contains(insertInvoiceItemQuery, "VALUES ($1, $2, $3, $4, $5)") {
		t.Fatal("item insert must bind id, invoice, product, quantity and sort order")
	}
}

func TestLineQueryExpandsProductsInStoredOrder(t *testing.T) {
	query := strings.ToLower(selectInvoiceLinesQuery)

	for _, fragment := range []string{
		"join products p on p.id = i.product_id",
		"where i.invoice_id = any($1)",
		"order by i.invoice_id, i.sort_order asc",
	} {
		if !strings.Contains(query, fragment) {
			t.Fatalf("expected line query fragment %q to be present", fragment)
		}
	}
}
