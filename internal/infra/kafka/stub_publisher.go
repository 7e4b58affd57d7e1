package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/arklim/account-auth/internal/core/domain"
	"github.com/arklim/account-auth/internal/core/port"
	"github.com/arklim/account-auth/internal/infra/logger"
)

// StubPublisher logs events instead of sending them to Kafka. It is selected
// when no brokers are configured.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType, userID string, at time.Time, fields ...zap.Field) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	base := []zap.Field{
		zap.String("event_type", eventType),
		zap.String("user_id", userID),
		zap.Time("timestamp", at.UTC()),
	}
	p.logger.Info("stub event published", append(base, fields...)...)
}

// PublishUserRegistered logs user.registered events.
func (p *StubPublisher) PublishUserRegistered(_ context.Context, event domain.UserRegisteredEvent) error {
	p.logEvent(EventUserRegistered, event.UserID, event.RegisteredAt,
		zap.String("email", logger.MaskEmail(event.Email)),
		zap.String("role", string(event.Role)),
	)
	return nil
}

// PublishEmailVerified logs user.email_verified events.
func (p *StubPublisher) PublishEmailVerified(_ context.Context, event domain.EmailVerifiedEvent) error {
	p.logEvent(EventEmailVerified, event.UserID, event.VerifiedAt)
	return nil
}

// PublishTwoFactorChanged logs two-factor state changes.
func (p *StubPublisher) PublishTwoFactorChanged(_ context.Context, event domain.TwoFactorChangedEvent) error {
	p.logEvent(twoFactorEventType(event.Enabled), event.UserID, event.ChangedAt)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
