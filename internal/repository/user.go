package repository

import (
	"context"

	"docauth/internal/model"
)

// UserRepository defines data access for accounts.
type UserRepository interface {
	// Create inserts a user. A taken username returns ErrConflict.
	Create(ctx context.Context, u *model.User) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	// List returns users ordered by username.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.User], error)
	// Update overwrites the mutable fields of an existing user.
	Update(ctx context.Context, u *model.User) (*model.User, error)
}
