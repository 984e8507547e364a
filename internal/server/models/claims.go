package models

import "github.com/golang-jwt/jwt/v5"

// AccessClaims are carried by a signed access token. ExpiresAt and
// IssuedAt come from the embedded registered claims.
type AccessClaims struct {
	jwt.RegisteredClaims
	UserID   int64  `json:"user_id"`
	UserName string `json:"username"`
}

// RefreshClaims are carried by a signed refresh token. There is no exp
// claim: refresh lifetime is tracked by the stored record. ID (jti) is a
// random nonce so that two tokens issued for the same user never collide.
type RefreshClaims struct {
	jwt.RegisteredClaims
	UserID   int64  `json:"user_id"`
	UserName string `json:"username"`
}
