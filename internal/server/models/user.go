// Package models defines server-side data models shared by the
// repositories, services and transports.
package models

import "time"

// User is a registered account. PasswordHash is the bcrypt hash of the
// password and is never serialized.
type User struct {
	ID           int64     `json:"id"`
	UserName     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// CurrentUser identifies the caller of an authenticated request. It is
// derived from a validated access token and lives only for that request.
type CurrentUser struct {
	UserID   int64
	UserName string
}
