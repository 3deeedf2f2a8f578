package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// User is an account that exclusively owns a subtree of nodes.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"-"`
}

// SessionClaims are the JWT claims minted at sign-in. Subject carries the
// owner id; everything downstream treats it as an opaque string.
type SessionClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}
