package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/go-user-accounts/internal/domain/entity"
)

// ErrDuplicateEmail is returned by Create and UpdateByID when the email is
// already taken. The unique constraint lives in the store itself.
var ErrDuplicateEmail = errors.New("email already registered")

// UserRepository defines the interface for user-related database operations.
// Lookups return a nil user and a nil error when nothing matches; a malformed
// identifier is treated the same way.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	FindByID(ctx context.Context, id string) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindAll(ctx context.Context) ([]entity.User, error)
	FindByFilter(ctx context.Context, f entity.UserFilter) ([]entity.User, error)
	SearchByNameOrEmail(ctx context.Context, q string) ([]entity.User, error)
	UpdateByID(ctx context.Context, id string, patch entity.UserPatch) (*entity.User, error)
	DeleteByID(ctx context.Context, id string) (bool, error)
	Ping(ctx context.Context) error
}
