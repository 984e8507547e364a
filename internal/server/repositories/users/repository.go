// Package users declares the account repository contract and its
// PostgreSQL implementation.
package users

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// Repository defines the persistence operations on user accounts.
type Repository interface {
	// Create inserts the user and fills in ID and CreatedAt. A taken
	// username yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetUserByLogin returns common.ErrorNotFound for an unknown username.
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)

	// GetUserByID returns common.ErrorNotFound for an unknown id.
	GetUserByID(ctx context.Context, id int64) (*models.User, error)

	// Find lists users matching every condition of q, ordered by id.
	Find(ctx context.Context, q *Query) ([]*models.User, error)

	// Update overwrites username and password hash of the user with user.ID.
	Update(ctx context.Context, user *models.User) (*models.User, error)

	// Delete removes the user; its refresh tokens go with it.
	Delete(ctx context.Context, id int64) error
}
