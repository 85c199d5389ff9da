package users

import "github.com/dacweb/dac/pkg/models"

type CreateUserPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type UpdateUserPayload struct {
	Email    *string `json:"email" validate:"omitempty,email"`
	IsActive *bool   `json:"is_active"`
}

type ResetPasswordPayload struct {
	CurrentPassword *string `json:"current_password"` // required when resetting your own password
	NewPassword     string  `json:"new_password" validate:"required,min=8"`
}

type ListUsersQuery struct {
	Limit           int  `query:"limit" json:"limit" default:"50" validate:"max=200"`
	Offset          int  `query:"offset" json:"offset" validate:"min=0"`
	IncludeInactive bool `query:"include_inactive" json:"include_inactive"`
}

type ListUsersResponse struct {
	Users []*models.User `json:"users"`
	Total int            `json:"total"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
