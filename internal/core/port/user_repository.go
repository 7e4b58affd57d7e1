package port

import (
	"context"

	"github.com/arklim/account-auth/internal/core/domain"
)

// UserRepository exposes persistence behavior for user accounts.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	MarkEmailVerified(ctx context.Context, id string) error
	// SetTwoFactor stores the enrollment state; a nil secret clears it.
	SetTwoFactor(ctx context.Context, id string, enabled bool, secret *string) error
}
