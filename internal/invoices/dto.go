package invoices

import "time"

type CreateInvoiceRequest struct {
	ClientID    int64                  `json:"client_id" validate:"required,gt=0"`
	InvoiceDate *time.Time             `json:"invoice_date,omitempty"`
	Currency    string                 `json:"currency" validate:"required,len=3"`
	Discount    float64                `json:"discount" validate:"gte=0"`
	Notes       *string                `json:"notes,omitempty"`
	Items       []CreateInvoiceItemReq `json:"items" validate:"required,min=1,dive"`
}

type CreateInvoiceItemReq struct {
	ProductID   *int64  `json:"product_id,omitempty" validate:"omitempty,gt=0"`
	Description string  `json:"description" validate:"required,max=500"`
	Quantity    float64 `json:"quantity" validate:"required,gte=1"`
	UnitPrice   float64 `json:"unit_price" validate:"gte=0"`
	LineOrder   int     `json:"line_order" validate:"gte=0"`
}

type UpdateInvoiceRequest struct {
	Status *string `json:"status,omitempty"`
	Notes  *string `json:"notes,omitempty"`
}

type ListInvoicesRequest struct {
	Status   string     `json:"status" validate:"omitempty"`
	ClientID *int64     `json:"client_id,omitempty"`
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`
	Limit    int        `json:"limit" validate:"gte=0,lte=1000"`
	Offset   int        `json:"offset" validate:"gte=0"`
}
