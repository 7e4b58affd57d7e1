package port

import (
	"context"

	"github.com/arklim/account-auth/internal/core/domain"
)

// EventPublisher publishes domain events to the message bus.
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, event domain.UserRegisteredEvent) error
	PublishEmailVerified(ctx context.Context, event domain.EmailVerifiedEvent) error
	PublishTwoFactorChanged(ctx context.Context, event domain.TwoFactorChangedEvent) error
}
