package quotations

import "time"

type QuotationStatus string

// Any status may transition to any other via explicit user action; there is
// no terminal state. Landing on Won triggers one-time invoice generation.
const (
	StatusToSend   QuotationStatus = "To Send"
	StatusSent     QuotationStatus = "Sent"
	StatusWon      QuotationStatus = "Won"
	StatusLost     QuotationStatus = "Lost"
	StatusRejected QuotationStatus = "Rejected"
)

func (s QuotationStatus) Valid() bool {
	switch s {
	case StatusToSend, StatusSent, StatusWon, StatusLost, StatusRejected:
		return true
	}
	return false
}

// Quotation is a proposed sale. Client fields are a snapshot taken at
// creation time so later client edits do not rewrite issued documents.
type Quotation struct {
	ID            int64           `json:"id" db:"id"`
	DocNumber     string          `json:"doc_number" db:"doc_number"`
	ClientID      *int64          `json:"client_id,omitempty" db:"client_id"`
	ClientName    string          `json:"client_name" db:"client_name"`
	ClientEmail   string          `json:"client_email" db:"client_email"`
	ClientCompany *string         `json:"client_company,omitempty" db:"client_company"`
	ClientPhone   *string         `json:"client_phone,omitempty" db:"client_phone"`
	ClientAddress *string         `json:"client_address,omitempty" db:"client_address"`
	SubTotal      float64         `json:"sub_total" db:"sub_total"`
	Discount      float64         `json:"discount" db:"discount"`
	VATAmount     float64         `json:"vat_amount" db:"vat_amount"`
	GrandTotal    float64         `json:"grand_total" db:"grand_total"`
	Status        QuotationStatus `json:"status" db:"status"`
	QuotationDate time.Time       `json:"quotation_date" db:"quotation_date"`
	Currency      string          `json:"currency" db:"currency"`
	Notes         *string         `json:"notes,omitempty" db:"notes"`
	CompanyID     *int64          `json:"company_id,omitempty" db:"company_id"`
	CreatedBy     int64           `json:"created_by" db:"created_by"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
	Items         []QuotationItem `json:"items,omitempty" db:"-"`
}

type QuotationItem struct {
	ID          int64   `json:"id" db:"id"`
	QuotationID int64   `json:"quotation_id" db:"quotation_id"`
	ProductID   *int64  `json:"product_id,omitempty" db:"product_id"`
	Description string  `json:"description" db:"description"`
	Quantity    float64 `json:"quantity" db:"quantity"`
	UnitPrice   float64 `json:"unit_price" db:"unit_price"`
	LineTotal   float64 `json:"line_total" db:"line_total"`
	LineOrder   int     `json:"line_order" db:"line_order"`
}
