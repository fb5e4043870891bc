package domain

import (
	"strings"
	"time"
)

// Role enumerates dashboard roles.
type Role string

const (
	RoleUser    Role = "user"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// User is an employee, manager or administrator of the dashboard.
type User struct {
	ID           string
	Email        string
	Name         string
	Role         Role
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NormalizeEmail lowercases and trims an email for comparisons and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SameEmail compares two emails ignoring case and surrounding space.
func SameEmail(a, b string) bool {
	return NormalizeEmail(a) != "" && NormalizeEmail(a) == NormalizeEmail(b)
}
