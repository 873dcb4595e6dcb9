package domain

import "time"

// Role is the closed set of user roles. Authorization logic matches on
// these constants, never on raw strings from the wire.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleDeveloper Role = "developer"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDeveloper:
		return true
	}
	return false
}

// User is the domain entity for a user account. Accounts are deactivated,
// never deleted.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Identity is the authenticated caller for the current request, resolved
// fresh from the users table. The role here comes from the live row, not
// from the token, so a role change or deactivation takes effect on the
// very next request.
type Identity struct {
	ID       int64
	Username string
	Email    string
	Role     Role
}
