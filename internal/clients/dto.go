package clients

type CreateClientRequest struct {
	Name           string  `json:"name" validate:"required,max=200"`
	Email          string  `json:"email" validate:"required,email"`
	Company        *string `json:"company,omitempty" validate:"omitempty,max=200"`
	Phone          *string `json:"phone,omitempty" validate:"omitempty,max=40"`
	Address        *string `json:"address,omitempty"`
	RegistrationNo *string `json:"registration_no,omitempty" validate:"omitempty,max=60"`
}

type UpdateClientRequest struct {
	Name           *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Email          *string `json:"email,omitempty" validate:"omitempty,email"`
	Company        *string `json:"company,omitempty" validate:"omitempty,max=200"`
	Phone          *string `json:"phone,omitempty" validate:"omitempty,max=40"`
	Address        *string `json:"address,omitempty"`
	RegistrationNo *string `json:"registration_no,omitempty" validate:"omitempty,max=60"`
}

type ListClientsRequest struct {
	Search string `json:"search" validate:"omitempty,max=200"`
	Limit  int    `json:"limit" validate:"gte=0,lte=1000"`
	Offset int    `json:"offset" validate:"gte=0"`
}
