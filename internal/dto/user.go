package dto

// CreateUserRequest provisions an identity holding one role in the caller's college.
type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"full_name" validate:"omitempty,max=120"`
	Role     string `json:"role" validate:"required,oneof=admin staff student"`
}

// AssignRoleRequest replaces the role a user holds in the caller's college.
type AssignRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

// UserListQuery is bound from the user listing query string.
type UserListQuery struct {
	Role     string `form:"role"`
	Search   string `form:"search"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}
