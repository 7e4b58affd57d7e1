package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arklim/account-auth/internal/core/domain"
	"github.com/arklim/account-auth/internal/core/port"
	"github.com/arklim/account-auth/internal/infra/logger"
	"github.com/arklim/account-auth/internal/repository"
)

const (
	verificationSubject = "Verify your email address"
	verificationSent    = "Verification email sent. Please check your inbox."
)

// SignupInput carries the fields a new account is created from.
type SignupInput struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// SignupResult describes the account created by Signup.
type SignupResult struct {
	User    domain.PublicUser
	Message string
}

// Signup creates an unverified account and emails a verification link.
// It never logs the user in.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (SignupResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if err := ValidateSignup(in, s.policy); err != nil {
		return SignupResult{}, err
	}

	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return SignupResult{}, ErrDuplicateEmail
	} else if !errors.Is(err, repository.ErrNotFound) {
		return SignupResult{}, fmt.Errorf("check existing email: %w", err)
	}

	passwordHash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return SignupResult{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := domain.User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: passwordHash,
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return SignupResult{}, ErrDuplicateEmail
		}
		return SignupResult{}, fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.IssueVerification(user.ID, user.PasswordHash)
	if err != nil {
		return SignupResult{}, fmt.Errorf("issue verification token: %w", err)
	}

	msg := port.MailMessage{
		To:      user.Email,
		Subject: verificationSubject,
		Body:    verificationBody(user.Name, s.verificationLink(token)),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.log(ctx).Error("verification email failed",
			zap.String("user_id", user.ID),
			zap.String("email", logger.MaskEmail(user.Email)),
			zap.Error(err),
		)
		return SignupResult{}, fmt.Errorf("send verification email: %w", err)
	}

	s.log(ctx).Info("user registered",
		zap.String("user_id", user.ID),
		zap.String("email", logger.MaskEmail(user.Email)),
	)

	s.publish(ctx, "user registered", func(events port.EventPublisher) error {
		return events.PublishUserRegistered(ctx, domain.UserRegisteredEvent{
			EventID:      uuid.NewString(),
			UserID:       user.ID,
			Name:         user.Name,
			Email:        user.Email,
			Role:         user.Role,
			RegisteredAt: now,
		})
	})

	return SignupResult{User: user.Public(), Message: verificationSent}, nil
}

// VerifyEmail consumes a verification token. The token is checked against the
// user's current password hash, so a password change since issuance makes it stale.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	claims := s.tokens.DecodeUnsafe(token)
	if claims == nil {
		return ErrInvalidToken
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidToken
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	if _, err := s.tokens.VerifyEmailToken(token, user.PasswordHash); err != nil {
		return ErrInvalidToken
	}

	if user.IsEmailVerified {
		return ErrAlreadyVerified
	}

	if err := s.users.MarkEmailVerified(ctx, user.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidToken
		}
		return fmt.Errorf("mark email verified: %w", err)
	}

	s.log(ctx).Info("email verified", zap.String("user_id", user.ID))

	s.publish(ctx, "email verified", func(events port.EventPublisher) error {
		return events.PublishEmailVerified(ctx, domain.EmailVerifiedEvent{
			EventID:    uuid.NewString(),
			UserID:     user.ID,
			VerifiedAt: s.now(),
		})
	})

	return nil
}

func (s *AuthService) verificationLink(token string) string {
	return s.frontendURL + "/verify-email?token=" + url.QueryEscape(token)
}

func verificationBody(name, link string) string {
	return fmt.Sprintf("Hi %s,\n\nPlease confirm your email address by opening the link below. It expires in 24 hours.\n\n%s\n", name, link)
}

// publish hands an event to the publisher; failures are logged and swallowed.
func (s *AuthService) publish(ctx context.Context, what string, send func(port.EventPublisher) error) {
	if s.events == nil {
		return
	}
	if err := send(s.events); err != nil {
		s.log(ctx).Warn("publish event failed", zap.String("event", what), zap.Error(err))
	}
}
