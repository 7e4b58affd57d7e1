package domain

import "time"

// Role enumerates the access levels a user account can hold.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

// User mirrors the persisted representation in the users table.
// PasswordHash and TwoFactorSecret never leave the service; use Public for responses.
type User struct {
	ID               string
	Name             string
	Email            string
	PasswordHash     string
	Role             Role
	IsEmailVerified  bool
	TwoFactorEnabled bool
	TwoFactorSecret  *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HasTwoFactorSecret reports whether an enrollment secret (pending or confirmed) is stored.
func (u User) HasTwoFactorSecret() bool {
	return u.TwoFactorSecret != nil && *u.TwoFactorSecret != ""
}

// Public returns the externally visible subset of the user record.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
}

// Identity returns the request identity resolved for this user.
func (u User) Identity() Identity {
	return Identity{
		UserID: u.ID,
		Email:  u.Email,
		Role:   u.Role,
	}
}

// PublicUser is the only user shape returned to API clients.
type PublicUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Identity is the authenticated principal attached to a request.
type Identity struct {
	UserID string
	Email  string
	Role   Role
}

// HasRole reports whether the identity holds any of the supplied roles.
func (i Identity) HasRole(roles ...Role) bool {
	for _, role := range roles {
		if i.Role == role {
			return true
		}
	}
	return false
}
