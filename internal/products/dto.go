package products

type CreateProductRequest struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Type        string  `json:"type" validate:"required"`
	Description *string `json:"description,omitempty"`
	UnitPrice   float64 `json:"unit_price" validate:"gte=0"`
	BulkPrice   float64 `json:"bulk_price" validate:"gte=0"`
	MinOrderQty int     `json:"min_order_qty" validate:"gte=0"`
	Inventory   int     `json:"inventory" validate:"gte=0"`
}

type UpdateProductRequest struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,max=200"`
	Description *string  `json:"description,omitempty"`
	UnitPrice   *float64 `json:"unit_price,omitempty" validate:"omitempty,gte=0"`
	BulkPrice   *float64 `json:"bulk_price,omitempty" validate:"omitempty,gte=0"`
	MinOrderQty *int     `json:"min_order_qty,omitempty" validate:"omitempty,gte=0"`
	Inventory   *int     `json:"inventory,omitempty" validate:"omitempty,gte=0"`
}

type ListProductsRequest struct {
	Search string `json:"search" validate:"omitempty,max=200"`
	Type   string `json:"type" validate:"omitempty"`
	Limit  int    `json:"limit" validate:"gte=0,lte=1000"`
	Offset int    `json:"offset" validate:"gte=0"`
}
