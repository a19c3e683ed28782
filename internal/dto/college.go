package dto

// RegisterCollegeRequest creates a tenant together with its first administrator.
type RegisterCollegeRequest struct {
	Name          string  `json:"name" validate:"required,min=2,max=200"`
	Code          string  `json:"code" validate:"required,alphanum,min=2,max=20"`
	Address       string  `json:"address" validate:"max=500"`
	City          string  `json:"city" validate:"max=100"`
	State         string  `json:"state" validate:"max=100"`
	Pincode       string  `json:"pincode" validate:"omitempty,numeric,max=10"`
	Phone         string  `json:"phone" validate:"max=32"`
	Email         string  `json:"email" validate:"omitempty,email"`
	Website       *string `json:"website" validate:"omitempty,url"`
	LogoURL       *string `json:"logo_url" validate:"omitempty,url"`
	AdminEmail    string  `json:"admin_email" validate:"required,email"`
	AdminPassword string  `json:"admin_password" validate:"required,min=8"`
	AdminFullName string  `json:"admin_full_name" validate:"max=120"`
}
