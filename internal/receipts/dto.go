package receipts

import (
	"time"

	"github.com/ledgerline/ledgerline/internal/invoices"
)

type RegisterPaymentRequest struct {
	InvoiceID   int64      `json:"invoice_id" validate:"required,gt=0"`
	Amount      float64    `json:"amount" validate:"required,gt=0"`
	Method      string     `json:"method" validate:"required"`
	PaymentDate *time.Time `json:"payment_date,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
}

// PaymentResult pairs the new receipt with the invoice state after the
// payment was applied.
type PaymentResult struct {
	Receipt *Receipt          `json:"receipt"`
	Invoice *invoices.Invoice `json:"invoice"`
}

type ListReceiptsRequest struct {
	InvoiceID *int64     `json:"invoice_id,omitempty"`
	DateFrom  *time.Time `json:"date_from,omitempty"`
	DateTo    *time.Time `json:"date_to,omitempty"`
	Limit     int        `json:"limit" validate:"gte=0,lte=1000"`
	Offset    int        `json:"offset" validate:"gte=0"`
}
