package users

import (
	"time"

	"github.com/ledgerline/ledgerline/internal/shared"
)

// User is an account holder. Business fields are filled during onboarding and
// flow onto the documents the user issues.
type User struct {
	ID              int64       `json:"id" db:"id"`
	Name            string      `json:"name" db:"name"`
	Email           string      `json:"email" db:"email"`
	PasswordHash    string      `json:"-" db:"password_hash"`
	Role            shared.Role `json:"role" db:"role"`
	CompanyID       *int64      `json:"company_id,omitempty" db:"company_id"`
	Onboarded       bool        `json:"onboarded" db:"onboarded"`
	BusinessName    *string     `json:"business_name,omitempty" db:"business_name"`
	BusinessAddress *string     `json:"business_address,omitempty" db:"business_address"`
	VATNumber       *string     `json:"vat_number,omitempty" db:"vat_number"`
	IsActive        bool        `json:"is_active" db:"is_active"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at" db:"updated_at"`
}

// Scope converts the account into the authorization scope applied to every
// data access.
func (u *User) Scope() shared.Scope {
	return shared.Scope{UserID: u.ID, Role: u.Role, CompanyID: u.CompanyID}
}
