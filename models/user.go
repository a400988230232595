package models

import "time"

const (
	// RoleUser is the default role for registered accounts.
	RoleUser = "user"
	// RoleAdmin grants access to report triage endpoints.
	RoleAdmin = "admin"
)

// User models a registered account. Password material never lives on this
// struct; credential hashes stay inside the persistence layer.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
