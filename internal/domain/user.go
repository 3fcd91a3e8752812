// Package domain contains core business types and interfaces.
//
// This file defines the User domain type and related types for authentication.
// These types are separate from the repository models to allow for business
// logic enrichment and to decouple the domain layer from the database layer.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered student of the Lodestar platform.
//
// This is the domain representation of a user, designed for use in business
// logic. It differs from repository.User in that it uses proper Go types
// instead of sql.Null* types where appropriate.
type User struct {
	ID                  uuid.UUID
	Email               string
	PasswordHash        string // Never expose this in API responses
	FullName            string
	OnboardingCompleted bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// DisplayName returns the user's full name or email if the name is empty.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}

// RegisterParams contains the input for creating a new user account.
type RegisterParams struct {
	Email    string
	Password string
	FullName string
}

// AuthResult is returned by Register, Login, and Refresh. The raw token is
// handed to the client exactly once; the server never stores it.
type AuthResult struct {
	User      *User
	Token     string
	ExpiresAt time.Time
}
