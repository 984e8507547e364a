package models

import "time"

// RefreshToken is the persisted record of an outstanding refresh token.
// The token string is its primary key.
type RefreshToken struct {
	Token     string
	UserID    int64
	ExpiresAt time.Time
}
