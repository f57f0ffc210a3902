package models

import (
	"time"
)

// User is the signed-in customer as returned by /users/profile
type User struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Phone         string    `json:"phone"`
	Email         string    `json:"email,omitempty"`
	Role          string    `json:"role,omitempty"`
	PhoneVerified bool      `json:"phoneVerified"`
	CreatedAt     time.Time `json:"createdAt,omitempty"`
}

func (u *User) IsAdmin() bool {
	return u.Role == "admin"
}

// RegisterInput represents the sign-up form; the backend answers by sending an OTP.
type RegisterInput struct {
	Name  string `json:"name" validate:"required,min=2,max=50"`
	Phone string `json:"phone" validate:"required,mobile"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}

type VerifyPhoneInput struct {
	Phone string `json:"phone" validate:"required,mobile"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

type ResendOTPInput struct {
	Phone string `json:"phone" validate:"required,mobile"`
}

type ProfileUpdate struct {
	Name  string `json:"name,omitempty" validate:"omitempty,min=2,max=50"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}

// AuthResult carries the bearer token issued after phone verification.
type AuthResult struct {
	Token string `json:"token"`
	User  *User  `json:"user,omitempty"`
}

type ExistsResult struct {
	Exists bool `json:"exists"`
}
