package quotations

import "time"

type CreateQuotationRequest struct {
	ClientID      int64                    `json:"client_id" validate:"required,gt=0"`
	QuotationDate *time.Time               `json:"quotation_date,omitempty"`
	Currency      string                   `json:"currency" validate:"required,len=3"`
	Discount      float64                  `json:"discount" validate:"gte=0"`
	Status        *string                  `json:"status,omitempty"`
	Notes         *string                  `json:"notes,omitempty"`
	Items         []CreateQuotationItemReq `json:"items" validate:"required,min=1,dive"`
}

type CreateQuotationItemReq struct {
	ProductID   *int64  `json:"product_id,omitempty" validate:"omitempty,gt=0"`
	Description string  `json:"description" validate:"required,max=500"`
	Quantity    float64 `json:"quantity" validate:"required,gte=1"`
	UnitPrice   float64 `json:"unit_price" validate:"gte=0"`
	LineOrder   int     `json:"line_order" validate:"gte=0"`
}

type UpdateQuotationRequest struct {
	Discount *float64                  `json:"discount,omitempty" validate:"omitempty,gte=0"`
	Notes    *string                   `json:"notes,omitempty"`
	Items    *[]CreateQuotationItemReq `json:"items,omitempty" validate:"omitempty,min=1,dive"`
}

type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// StatusChangeResult reports the status update and the invoice side effect
// independently: a failed generation never masks a successful transition.
type StatusChangeResult struct {
	Quotation        *Quotation `json:"quotation"`
	InvoiceGenerated bool       `json:"invoice_generated"`
	InvoiceID        *int64     `json:"invoice_id,omitempty"`
	InvoiceError     string     `json:"invoice_error,omitempty"`
}

type ListQuotationsRequest struct {
	Status   string     `json:"status" validate:"omitempty"`
	ClientID *int64     `json:"client_id,omitempty"`
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`
	Limit    int        `json:"limit" validate:"gte=0,lte=1000"`
	Offset   int        `json:"offset" validate:"gte=0"`
}
