package users

type CreateUserRequest struct {
	Name      string `json:"name" validate:"required,max=200"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	Role      string `json:"role" validate:"required"`
	CompanyID *int64 `json:"company_id,omitempty" validate:"omitempty,gt=0"`
}

type UpdateUserRequest struct {
	Name      *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Role      *string `json:"role,omitempty"`
	CompanyID *int64  `json:"company_id,omitempty" validate:"omitempty,gt=0"`
	IsActive  *bool   `json:"is_active,omitempty"`
}

// OnboardRequest records the business details captured on first login.
type OnboardRequest struct {
	BusinessName    string  `json:"business_name" validate:"required,max=200"`
	BusinessAddress *string `json:"business_address,omitempty"`
	VATNumber       *string `json:"vat_number,omitempty" validate:"omitempty,max=50"`
}

type ListUsersRequest struct {
	Search string `json:"search" validate:"omitempty,max=200"`
	Limit  int    `json:"limit" validate:"gte=0,lte=1000"`
	Offset int    `json:"offset" validate:"gte=0"`
}
