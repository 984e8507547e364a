// Package refreshtokens declares the server-side repository contract for
// managing refresh tokens in persistent storage.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// Repository defines operations for issuing, retrieving, and revoking refresh tokens.
type Repository interface {
	// Upsert stores token for userID expiring at expiresAt. An existing row
	// with the same token is overwritten.
	Upsert(ctx context.Context, token string, userID int64, expiresAt time.Time) error

	// Find returns the row matching both token and userID, locking it for
	// the rest of the surrounding transaction. A missing row yields
	// common.ErrorNotFound.
	Find(ctx context.Context, token string, userID int64) (*models.RefreshToken, error)

	// Delete removes a refresh token by its token string and reports how
	// many rows were removed.
	Delete(ctx context.Context, token string) (int64, error)

	// DeleteExpired removes every row that expired at or before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)

	// DeleteAllForUser removes every refresh token of userID.
	DeleteAllForUser(ctx context.Context, userID int64) (int64, error)
}
