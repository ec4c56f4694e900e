package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AdminUser is a dashboard operator stored in the admins collection. The
// password is only ever persisted as a bcrypt hash.
type AdminUser struct {
	ID           string     `bson:"_id" json:"id"`
	Email        string     `bson:"email" json:"email"`
	FullName     string     `bson:"fullName" json:"fullName"`
	PasswordHash string     `bson:"passwordHash" json:"-"`
	CreatedAt    time.Time  `bson:"createdAt" json:"createdAt"`
	LastLoginAt  *time.Time `bson:"lastLoginAt" json:"lastLoginAt"`
}

// JWTClaims is the access token payload for admin sessions.
type JWTClaims struct {
	AdminID string `json:"adminId"`
	Email   string `json:"email"`
	jwt.RegisteredClaims
}

// LoginRequest carries admin credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is returned on successful authentication.
type LoginResponse struct {
	AccessToken string    `json:"accessToken"`
	ExpiresIn   int64     `json:"expiresIn"`
	IssuedAt    time.Time `json:"issuedAt"`
	Email       string    `json:"email"`
	FullName    string    `json:"fullName"`
}

// Pagination describes the listing window returned alongside results.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
