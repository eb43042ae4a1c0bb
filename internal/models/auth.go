package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ClientInfo identifies where a request came from. It is recorded with
// sessions and audit entries and never read from a request body.
type ClientInfo struct {
	IP        string
	UserAgent string
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
	ClientInfo `json:"-"`
}

// RegisterRequest is the body of POST /auth/register. Self-registered
// accounts are always students.
type RegisterRequest struct {
	Identifier string `json:"identifier" validate:"required,max=64"`
	FullName   string `json:"full_name" validate:"required,max=255"`
	Email      string `json:"email" validate:"omitempty,email"`
	Password   string `json:"password" validate:"required,min=6"`
	ClientInfo `json:"-"`
}

// LoginResponse carries a fresh token pair.
type LoginResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	User         UserInfo  `json:"user"`
	IssuedAt     time.Time `json:"issued_at"`
}

// RefreshTokenRequest is the body of POST /auth/refresh.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
	ClientInfo   `json:"-"`
}

// RefreshTokenResponse carries the rotated token pair. The presented
// refresh token is revoked.
type RefreshTokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	IssuedAt     time.Time `json:"issued_at"`
}

// ChangePasswordRequest is the body of POST /auth/change-password.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6,nefield=OldPassword"`
}

// UserInfo is the public view of an account.
type UserInfo struct {
	ID         string   `json:"id"`
	Identifier string   `json:"identifier"`
	Email      string   `json:"email,omitempty"`
	FullName   string   `json:"full_name"`
	Role       UserRole `json:"role"`
}

// CurrentUser is returned by /auth/me.
type CurrentUser struct {
	UserInfo
	Active  bool     `json:"active"`
	Profile *Profile `json:"profile,omitempty"`
}

// JWTClaims is the access token payload.
type JWTClaims struct {
	UserID     string   `json:"user_id"`
	Identifier string   `json:"identifier"`
	Role       UserRole `json:"role"`
	FullName   string   `json:"full_name"`
	jwt.RegisteredClaims
}
