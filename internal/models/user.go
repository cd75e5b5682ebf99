package models

import "time"

// Role is the access tier assigned to a user. It gates endpoint visibility.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Permits reports whether a user holding the role passes a guard
// requiring the given role. Admins pass user-level guards.
func (r Role) Permits(required Role) bool {
	switch required {
	case "":
		return true
	case RoleUser:
		return r == RoleUser || r == RoleAdmin
	case RoleAdmin:
		return r == RoleAdmin
	default:
		return false
	}
}

// User represents a registered account.
type User struct {
	ID int64
	// Email is unique across all users and doubles as the login identifier.
	Email string
	// PasswordHash is the bcrypt hash of the user's credential.
	PasswordHash string
	// Name is the display name.
	Name string
	// BirthDate is optional.
	BirthDate *time.Time
	Role      Role
	// RegistrationDate is the timestamp indicating when the account was created.
	RegistrationDate time.Time
}
