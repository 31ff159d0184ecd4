package models

import "github.com/golang-jwt/jwt/v5"

// UserClaims carries the authenticated identity produced by the identity
// provider. The ledger core only ever reads UserID from it.
type UserClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}
