package statements

import "time"

type BuildStatementRequest struct {
	ClientID    int64     `json:"client_id" validate:"required,gt=0"`
	PeriodStart time.Time `json:"period_start" validate:"required"`
	PeriodEnd   time.Time `json:"period_end" validate:"required"`
}

type ListStatementsRequest struct {
	ClientID *int64 `json:"client_id,omitempty"`
	Status   string `json:"status" validate:"omitempty"`
	Limit    int    `json:"limit" validate:"gte=0,lte=1000"`
	Offset   int    `json:"offset" validate:"gte=0"`
}
