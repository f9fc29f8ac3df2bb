package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims carries the identity embedded in access tokens issued by the
// account service. This API only validates tokens; it never issues them.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}
