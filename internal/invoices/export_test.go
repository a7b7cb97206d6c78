package invoices

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildWorkbook(t *testing.T) {
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	book, err := BuildWorkbook([]Invoice{
		{
			DocNumber:   "INV-MOK2503-0001",
			ClientName:  "Mokoena Holdings",
			Status:      StatusPartlyPaid,
			InvoiceDate: date,
			DueDate:     date.AddDate(0, 0, PaymentTermDays),
			SubTotal:    90000,
			VATAmount:   13500,
			GrandTotal:  103500,
			TotalPaid:   50000,
			Currency:    "ZAR",
		},
	})
	require.NoError(t, err)
	defer book.Close()

	heading, err := book.GetCellValue("Invoices", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Doc Number", heading)

	doc, err := book.GetCellValue("Invoices", "A2")
	require.NoError(t, err)
	assert.Equal(t, "INV-MOK2503-0001", doc)

	status, err := book.GetCellValue("Invoices", "C2")
	require.NoError(t, err)
	assert.Equal(t, "Partly Paid", status)

	balance, err := book.GetCellValue("Invoices", "K2")
	require.NoError(t, err)
	assert.Equal(t, "53500", balance)

	due, err := book.GetCellValue("Invoices", "E2")
	require.NoError(t, err)
	assert.Equal(t, "2025-04-09", due)
}
