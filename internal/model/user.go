package model

import "fmt"

// User is a staff account. Password holds a bcrypt hash; records imported
// from older installs may still hold plain text until the next login.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Roles.
const (
	RoleAdmin     = "admin"
	RoleVolunteer = "volunteer"
)

// RoleGuest is recorded as the role of log entries made without a session.
const RoleGuest = "Class"

// RoleAtLeast checks if role meets or exceeds the minimum required role.
// An empty minimum admits everyone, including guests.
func RoleAtLeast(role, minimum string) bool {
	levels := map[string]int{
		RoleAdmin:     2,
		RoleVolunteer: 1,
	}
	if minimum == "" {
		return true
	}
	return levels[role] > 0 && levels[role] >= levels[minimum]
}

// IsRole reports whether r is a known staff role.
func IsRole(r string) bool {
	return r == RoleAdmin || r == RoleVolunteer
}

// MaxPasswordLength is the longest password bcrypt accepts.
const MaxPasswordLength = 72

// ValidatePassword checks that a new password can be stored.
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password required")
	}
	if len(password) > MaxPasswordLength {
		return fmt.Errorf("password must be at most %d bytes", MaxPasswordLength)
	}
	return nil
}

// DefaultUsers returns the accounts seeded into an empty install. Their
// passwords are plain text and get hashed on first login.
func DefaultUsers() []User {
	return []User{
		{ID: "u1", Name: "Admin", Role: RoleAdmin, Username: "admin", Password: "123"},
		{ID: "u2", Name: "Volunteer", Role: RoleVolunteer, Username: "volunteer", Password: "123"},
	}
}

// Actor identifies who performs a transaction. The zero value is a guest.
type Actor struct {
	UserID string
	Name   string
	Role   string
}

// IsGuest reports whether the actor has no staff session.
func (a Actor) IsGuest() bool {
	return a.Role == ""
}
