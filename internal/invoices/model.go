package invoices

import "time"

type InvoiceStatus string

const (
	StatusToSend     InvoiceStatus = "To Send"
	StatusSent       InvoiceStatus = "Sent"
	StatusPartlyPaid InvoiceStatus = "Partly Paid"
	StatusFullyPaid  InvoiceStatus = "Fully Paid"
)

func (s InvoiceStatus) Valid() bool {
	switch s {
	case StatusToSend, StatusSent, StatusPartlyPaid, StatusFullyPaid:
		return true
	}
	return false
}

// PaidStatus derives the payment status purely from the balance. The explicit
// To Send / Sent states only survive while nothing has been paid.
func PaidStatus(totalPaid, grandTotal float64, current InvoiceStatus) InvoiceStatus {
	switch {
	case totalPaid >= grandTotal && grandTotal > 0:
		return StatusFullyPaid
	case totalPaid > 0:
		return StatusPartlyPaid
	default:
		if current == StatusSent {
			return StatusSent
		}
		return StatusToSend
	}
}

// Invoice is a billing obligation, usually generated from a won quotation.
// Client fields are a denormalized snapshot taken at generation time.
type Invoice struct {
	ID            int64         `json:"id" db:"id"`
	DocNumber     string        `json:"doc_number" db:"doc_number"`
	QuotationID   *int64        `json:"quotation_id,omitempty" db:"quotation_id"`
	ClientID      *int64        `json:"client_id,omitempty" db:"client_id"`
	ClientName    string        `json:"client_name" db:"client_name"`
	ClientEmail   string        `json:"client_email" db:"client_email"`
	ClientCompany *string       `json:"client_company,omitempty" db:"client_company"`
	ClientPhone   *string       `json:"client_phone,omitempty" db:"client_phone"`
	ClientAddress *string       `json:"client_address,omitempty" db:"client_address"`
	SubTotal      float64       `json:"sub_total" db:"sub_total"`
	Discount      float64       `json:"discount" db:"discount"`
	VATAmount     float64       `json:"vat_amount" db:"vat_amount"`
	GrandTotal    float64       `json:"grand_total" db:"grand_total"`
	TotalPaid     float64       `json:"total_paid" db:"total_paid"`
	Status        InvoiceStatus `json:"status" db:"status"`
	InvoiceDate   time.Time     `json:"invoice_date" db:"invoice_date"`
	DueDate       time.Time     `json:"due_date" db:"due_date"`
	Currency      string        `json:"currency" db:"currency"`
	Notes         *string       `json:"notes,omitempty" db:"notes"`
	CompanyID     *int64        `json:"company_id,omitempty" db:"company_id"`
	CreatedBy     int64         `json:"created_by" db:"created_by"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
	Items         []InvoiceItem `json:"items,omitempty" db:"-"`
}

// Balance returns the outstanding amount. Over-payment yields zero, never a
// negative balance.
func (i Invoice) Balance() float64 {
	if i.TotalPaid >= i.GrandTotal {
		return 0
	}
	return i.GrandTotal - i.TotalPaid
}

type InvoiceItem struct {
	ID          int64   `json:"id" db:"id"`
	InvoiceID   int64   `json:"invoice_id" db:"invoice_id"`
	ProductID   *int64  `json:"product_id,omitempty" db:"product_id"`
	Description string  `json:"description" db:"description"`
	Quantity    float64 `json:"quantity" db:"quantity"`
	UnitPrice   float64 `json:"unit_price" db:"unit_price"`
	LineTotal   float64 `json:"line_total" db:"line_total"`
	LineOrder   int     `json:"line_order" db:"line_order"`
}
