package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	IdentityNumber string `json:"identity_number" validate:"required"`
	Password       string `json:"password" validate:"required"`
	IP             string `json:"-"`
	UserAgent      string `json:"-"`
}

// LoginResponse returns the issued token and user info.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	User        UserInfo  `json:"user"`
	IssuedAt    time.Time `json:"issued_at"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID             string     `json:"id"`
	IdentityNumber string     `json:"identity_number"`
	FullName       string     `json:"full_name"`
	Roles          []UserRole `json:"roles"`
	DepartmentID   *string    `json:"department_id,omitempty"`
	Cohort         *string    `json:"cohort,omitempty"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID         string     `json:"user_id"`
	IdentityNumber string     `json:"identity_number"`
	FullName       string     `json:"full_name"`
	Roles          []UserRole `json:"roles"`
	DepartmentID   *string    `json:"department_id,omitempty"`
	Cohort         *string    `json:"cohort,omitempty"`
	jwt.RegisteredClaims
}

// HasRole reports whether the token holder carries role.
func (c *JWTClaims) HasRole(role UserRole) bool {
	if c == nil {
		return false
	}
	return HasRole(c.Roles, role)
}
