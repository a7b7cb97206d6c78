package clients

import "time"

// Client is a customer record owned by the company that created it.
type Client struct {
	ID             int64     `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	Email          string    `json:"email" db:"email"`
	Company        *string   `json:"company,omitempty" db:"company"`
	Phone          *string   `json:"phone,omitempty" db:"phone"`
	Address        *string   `json:"address,omitempty" db:"address"`
	RegistrationNo *string   `json:"registration_no,omitempty" db:"registration_no"`
	CompanyID      *int64    `json:"company_id,omitempty" db:"company_id"`
	CreatedBy      int64     `json:"created_by" db:"created_by"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}
