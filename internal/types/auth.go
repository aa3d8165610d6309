// Package types provides the request and response shapes of the cleanops REST API.
package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// CreateUserRequest registers a business owner. BusinessName is shown on reports
// when no report configuration overrides it.
type CreateUserRequest struct {
	Name         string `json:"name" validate:"required,max=200"`
	Email        string `json:"email" validate:"required,email,max=254"`
	Password     string `json:"password" validate:"required,min=8"`
	Phone        string `json:"phone,omitempty" validate:"max=50"`
	BusinessName string `json:"business_name,omitempty" validate:"max=200"`
}

// Normalize trims the free-text fields and lowercases the email. The password is
// left untouched.
func (r *CreateUserRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = NormalizeEmail(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	r.BusinessName = strings.TrimSpace(r.BusinessName)
}

func (r *CreateUserRequest) Validate() error {
	return validate.Struct(r)
}

// LoginRequest is matched against the stored, normalized email.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Normalize() {
	r.Email = NormalizeEmail(r.Email)
}

func (r *LoginRequest) Validate() error {
	return validate.Struct(r)
}

// UpdatePasswordRequest changes the caller's password after checking the current one.
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

func (r *UpdatePasswordRequest) Validate() error {
	return validate.Struct(r)
}

// NormalizeEmail is the canonical form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// User is the owner profile returned by the API. It never carries the password hash.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	BusinessName string    `json:"business_name,omitempty"`
	PasswordSet  bool      `json:"password_set"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// LoginResponse is returned by register and login.
type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}
