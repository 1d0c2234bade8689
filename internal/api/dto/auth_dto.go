package dto

import (
	"time"

	"github.com/spec-kit/storefront-auth/internal/domain"
)

// LoginRequest payload for both login endpoints.
type LoginRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email,max=254"`
	Password string `json:"password" form:"password" validate:"required,max=512"`
}

// UserSummary is the account view returned to clients.
type UserSummary struct {
	ID        string      `json:"id"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Name      string      `json:"name"`
	IsActive  bool        `json:"isActive"`
}

// NewUserSummary projects an identity for responses.
func NewUserSummary(id *domain.Identity) UserSummary {
	return UserSummary{
		ID:        id.ID,
		Email:     id.Email,
		Role:      id.Role,
		FirstName: id.FirstName,
		LastName:  id.LastName,
		Name:      id.DisplayName,
		IsActive:  id.IsActive,
	}
}

// LoginResponse is returned by POST /api/auth/login.
type LoginResponse struct {
	Message   string      `json:"message"`
	User      UserSummary `json:"user"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// AdminLoginResponse is returned by POST /api/auth/admin-login.
type AdminLoginResponse struct {
	Success bool        `json:"success"`
	User    UserSummary `json:"user"`
}

// CheckResponse reports whether the caller holds a valid session.
type CheckResponse struct {
	Authenticated bool         `json:"authenticated"`
	User          *UserSummary `json:"user,omitempty"`
}
