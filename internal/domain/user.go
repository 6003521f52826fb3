package domain

import (
	"strings"
	"time"
)

// User is an account able to sign in and own activities.
type User struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	CreatedAt    time.Time
}

// DisplayName joins the first and last name.
func (u User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// SignUpInput captures the registration form.
type SignUpInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// normalizeEmail lowercases and trims an address for storage and lookup.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
