package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arklim/account-auth/internal/core/domain"
	"github.com/arklim/account-auth/internal/core/port"
	"github.com/arklim/account-auth/internal/infra/config"
	"github.com/arklim/account-auth/internal/infra/logger"
)

const schemaVersion = "1.0"

// Event types. The configured topic prefix is prepended to form the topic.
const (
	EventUserRegistered    = "user.registered"
	EventEmailVerified     = "user.email_verified"
	EventTwoFactorEnabled  = "user.two_factor_enabled"
	EventTwoFactorDisabled = "user.two_factor_disabled"
)

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type eventEnvelope struct {
	EventID   string            `json:"event_id"`
	EventType string            `json:"event_type"`
	UserID    string            `json:"user_id,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Payload   any               `json:"payload"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType, userID string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	if eventID == "" {
		eventID = uuid.NewString()
	}

	metadata := map[string]string{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}
	if requestID := logger.RequestIDFromContext(ctx); requestID != "" {
		metadata["request_id"] = requestID
	}

	bytes, err := json.Marshal(eventEnvelope{
		EventID:   eventID,
		EventType: eventType,
		UserID:    userID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata:  metadata,
	})
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Key:   sarama.StringEncoder(userID),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishUserRegistered publishes user.registered events.
func (p *EventPublisher) PublishUserRegistered(ctx context.Context, event domain.UserRegisteredEvent) error {
	payload := struct {
		UserID       string    `json:"user_id"`
		Name         string    `json:"name"`
		Email        string    `json:"email"`
		Role         string    `json:"role"`
		RegisteredAt time.Time `json:"registered_at"`
	}{
		UserID:       event.UserID,
		Name:         event.Name,
		Email:        event.Email,
		Role:         string(event.Role),
		RegisteredAt: event.RegisteredAt.UTC(),
	}

	return p.publish(ctx, event.EventID, EventUserRegistered, event.UserID, event.RegisteredAt, payload)
}

// PublishEmailVerified publishes user.email_verified events.
func (p *EventPublisher) PublishEmailVerified(ctx context.Context, event domain.EmailVerifiedEvent) error {
	payload := struct {
		UserID     string    `json:"user_id"`
		VerifiedAt time.Time `json:"verified_at"`
	}{
		UserID:     event.UserID,
		VerifiedAt: event.VerifiedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, EventEmailVerified, event.UserID, event.VerifiedAt, payload)
}

// PublishTwoFactorChanged publishes user.two_factor_enabled or user.two_factor_disabled events.
func (p *EventPublisher) PublishTwoFactorChanged(ctx context.Context, event domain.TwoFactorChangedEvent) error {
	payload := struct {
		UserID    string    `json:"user_id"`
		Enabled   bool      `json:"enabled"`
		ChangedAt time.Time `json:"changed_at"`
	}{
		UserID:    event.UserID,
		Enabled:   event.Enabled,
		ChangedAt: event.ChangedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, twoFactorEventType(event.Enabled), event.UserID, event.ChangedAt, payload)
}

func twoFactorEventType(enabled bool) string {
	if enabled {
		return EventTwoFactorEnabled
	}
	return EventTwoFactorDisabled
}

var _ port.EventPublisher = (*EventPublisher)(nil)
