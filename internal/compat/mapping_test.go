package compat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/quotations"
)

func TestQuotationMappingRenamesFields(t *testing.T) {
	pid := int64(7)
	cid := int64(1)
	q := quotations.Quotation{
		ID:            42,
		DocNumber:     "QT-MOK2503-0001",
		ClientID:      &cid,
		ClientName:    "Mokoena Holdings",
		ClientEmail:   "accounts@mokoena.example",
		SubTotal:      90000,
		VATAmount:     13500,
		GrandTotal:    103500,
		Status:        quotations.StatusWon,
		QuotationDate: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		Currency:      "ZAR",
		CreatedBy:     10,
		Items: []quotations.QuotationItem{
			{ID: 1, QuotationID: 42, ProductID: &pid, Description: "Consulting retainer",
				Quantity: 3, UnitPrice: 30000, LineTotal: 90000, LineOrder: 1},
		},
	}

	doc, err := Document(&q)
	require.NoError(t, err)
	legacy := QuotationMapping.ToLegacy(doc)

	assert.Equal(t, "QT-MOK2503-0001", legacy["docNumber"])
	assert.Equal(t, 103500.0, legacy["grandTotal"])
	assert.Equal(t, 13500.0, legacy["vatAmount"])
	assert.NotContains(t, legacy, "doc_number")
	assert.NotContains(t, legacy, "grand_total")
	assert.Contains(t, legacy, "quotationDate")
	assert.Equal(t, "Won", legacy["status"], "unmapped single-word keys pass through")

	items, ok := legacy["items"].([]any)
	require.True(t, ok)
	item, ok := items[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 90000.0, item["lineTotal"])
	assert.Equal(t, 30000.0, item["unitPrice"])
	assert.NotContains(t, item, "line_total")
}

func TestMappingRoundTripIsLossless(t *testing.T) {
	native := map[string]any{
		"id":             float64(42),
		"doc_number":     "QT-MOK2503-0001",
		"client_id":      float64(1),
		"sub_total":      90000.0,
		"discount":       0.0,
		"vat_amount":     13500.0,
		"grand_total":    103500.0,
		"status":         "Won",
		"quotation_date": "2025-03-10T00:00:00Z",
		"currency":       "ZAR",
		"notes":          nil,
		"created_by":     float64(10),
		"items": []any{
			map[string]any{
				"id":          float64(1),
				"description": "Consulting retainer",
				"quantity":    3.0,
				"unit_price":  30000.0,
				"line_total":  90000.0,
				"line_order":  float64(1),
			},
		},
	}

	back := QuotationMapping.ToNative(QuotationMapping.ToLegacy(native))
	assert.Equal(t, native, back)
}

func TestMappingPassesUnknownFieldsThrough(t *testing.T) {
	native := map[string]any{
		"doc_number":   "INV-0001",
		"custom_field": "kept as-is",
	}
	legacy := InvoiceMapping.ToLegacy(native)
	assert.Equal(t, "INV-0001", legacy["docNumber"])
	assert.Equal(t, "kept as-is", legacy["custom_field"])

	back := InvoiceMapping.ToNative(legacy)
	assert.Equal(t, native, back)
}

func TestAllEntityMappingsRoundTrip(t *testing.T) {
	samples := map[*Mapping]map[string]any{
		ClientMapping: {
			"id": float64(1), "name": "Mokoena Holdings", "email": "a@b.c",
			"registration_no": "2019/123456/07", "company_id": float64(3),
		},
		ProductMapping: {
			"id": float64(7), "name": "Widget", "type": "Physical",
			"unit_price": 10.0, "min_order_qty": float64(2), "inventory": float64(5),
		},
		ReceiptMapping: {
			"id": float64(9), "doc_number": "RCP-0001", "invoice_id": float64(7),
			"invoice_number": "INV-0001", "amount": 50000.0, "payment_date": "2025-03-10",
		},
		StatementMapping: {
			"id": float64(3), "doc_number": "STM-0001", "closing_balance": 63850.0,
			"period_start": "2025-03-01", "period_end": "2025-03-31",
			"lines": []any{
				map[string]any{"invoice_id": float64(1), "grand_total": 103500.0, "balance": 53500.0},
			},
		},
	}
	for mapping, native := range samples {
		back := mapping.ToNative(mapping.ToLegacy(native))
		assert.Equal(t, native, back)
	}
}
