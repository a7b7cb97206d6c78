package statements

import "time"

type StatementStatus string

const (
	StatusDraft StatementStatus = "Draft"
	StatusSent  StatementStatus = "Sent"
)

func (s StatementStatus) Valid() bool {
	return s == StatusDraft || s == StatusSent
}

// Statement summarizes a client's outstanding invoices over a period. Lines
// are frozen at build time; rebuilding after further payments produces a new
// statement rather than mutating an old one.
type Statement struct {
	ID             int64           `json:"id" db:"id"`
	DocNumber      string          `json:"doc_number" db:"doc_number"`
	ClientID       int64           `json:"client_id" db:"client_id"`
	ClientName     string          `json:"client_name" db:"client_name"`
	ClientEmail    string          `json:"client_email" db:"client_email"`
	PeriodStart    time.Time       `json:"period_start" db:"period_start"`
	PeriodEnd      time.Time       `json:"period_end" db:"period_end"`
	TotalInvoiced  float64         `json:"total_invoiced" db:"total_invoiced"`
	TotalPaid      float64         `json:"total_paid" db:"total_paid"`
	ClosingBalance float64         `json:"closing_balance" db:"closing_balance"`
	Status         StatementStatus `json:"status" db:"status"`
	Currency       string          `json:"currency" db:"currency"`
	CompanyID      *int64          `json:"company_id,omitempty" db:"company_id"`
	CreatedBy      int64           `json:"created_by" db:"created_by"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
	Lines          []StatementLine `json:"lines,omitempty" db:"-"`
}

type StatementLine struct {
	ID            int64     `json:"id" db:"id"`
	StatementID   int64     `json:"statement_id" db:"statement_id"`
	InvoiceID     int64     `json:"invoice_id" db:"invoice_id"`
	InvoiceNumber string    `json:"invoice_number" db:"invoice_number"`
	InvoiceDate   time.Time `json:"invoice_date" db:"invoice_date"`
	DueDate       time.Time `json:"due_date" db:"due_date"`
	GrandTotal    float64   `json:"grand_total" db:"grand_total"`
	TotalPaid     float64   `json:"total_paid" db:"total_paid"`
	Balance       float64   `json:"balance" db:"balance"`
}
