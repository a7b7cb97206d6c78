package products

import "time"

type ProductType string

const (
	TypePhysical ProductType = "Physical"
	TypeService  ProductType = "Service"
	TypeDigital  ProductType = "Digital Download"
)

func (t ProductType) Valid() bool {
	switch t {
	case TypePhysical, TypeService, TypeDigital:
		return true
	}
	return false
}

type Product struct {
	ID          int64       `json:"id" db:"id"`
	Name        string      `json:"name" db:"name"`
	Type        ProductType `json:"type" db:"type"`
	Description *string     `json:"description,omitempty" db:"description"`
	UnitPrice   float64     `json:"unit_price" db:"unit_price"`
	BulkPrice   float64     `json:"bulk_price" db:"bulk_price"`
	MinOrderQty int         `json:"min_order_qty" db:"min_order_qty"`
	Inventory   int         `json:"inventory" db:"inventory"`
	CompanyID   *int64      `json:"company_id,omitempty" db:"company_id"`
	CreatedBy   int64       `json:"created_by" db:"created_by"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}

// Available reports whether qty units can currently be sold. Services and
// digital downloads are unlimited; only physical stock depletes.
func (p Product) Available(qty int) bool {
	if p.Type != TypePhysical {
		return true
	}
	return p.Inventory >= qty
}
