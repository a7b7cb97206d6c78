package receipts

import "time"

type PaymentMethod string

const (
	MethodEFT    PaymentMethod = "EFT"
	MethodCash   PaymentMethod = "Cash"
	MethodCard   PaymentMethod = "Card"
	MethodCheque PaymentMethod = "Cheque"
	MethodOther  PaymentMethod = "Other"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodEFT, MethodCash, MethodCard, MethodCheque, MethodOther:
		return true
	}
	return false
}

// Receipt records a payment applied to an invoice. The invoice number and
// client name are snapshotted so the receipt stays readable if the invoice
// is later removed.
type Receipt struct {
	ID            int64         `json:"id" db:"id"`
	DocNumber     string        `json:"doc_number" db:"doc_number"`
	InvoiceID     int64         `json:"invoice_id" db:"invoice_id"`
	InvoiceNumber string        `json:"invoice_number" db:"invoice_number"`
	ClientName    string        `json:"client_name" db:"client_name"`
	Amount        float64       `json:"amount" db:"amount"`
	Method        PaymentMethod `json:"method" db:"method"`
	PaymentDate   time.Time     `json:"payment_date" db:"payment_date"`
	Notes         *string       `json:"notes,omitempty" db:"notes"`
	CompanyID     *int64        `json:"company_id,omitempty" db:"company_id"`
	CreatedBy     int64         `json:"created_by" db:"created_by"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
}
