package domain

// Identity is the resolved caller for a request. It is built from a live
// User record when one is available, otherwise from token claims alone.
type Identity struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Role        Role   `json:"role"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	DisplayName string `json:"displayName"`
	IsActive    bool   `json:"isActive"`
}

// IsAdmin reports whether the identity carries the admin role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

// IdentityFromUser projects a persisted user onto an Identity.
func IdentityFromUser(u *User) *Identity {
	return &Identity{
		ID:          u.ID,
		Email:       u.Email,
		Role:        u.Role,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		DisplayName: u.FullName(),
		IsActive:    u.IsActive,
	}
}
