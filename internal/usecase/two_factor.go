package usecase

import (
	"context"
	"errors"
	"fmt"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arklim/account-auth/internal/core/domain"
	"github.com/arklim/account-auth/internal/core/port"
	"github.com/arklim/account-auth/internal/repository"
)

// replayWindowSteps covers the current step and one step of skew either side.
const replayWindowSteps = 3

// TwoFactorSetup is the provisioning material returned by SetupTwoFactor.
type TwoFactorSetup struct {
	Secret     string
	OTPAuthURL string
}

// VerifyTwoFactorInput completes a login that returned a step-up token.
type VerifyTwoFactorInput struct {
	TempToken string `json:"tempToken" validate:"required"`
	Code      string `json:"code" validate:"required,len=6,number"`
}

// SetupTwoFactor stores a new pending secret. 2FA stays disabled until ConfirmTwoFactor.
func (s *AuthService) SetupTwoFactor(ctx context.Context, identity domain.Identity) (TwoFactorSetup, error) {
	user, err := s.loadUser(ctx, identity.UserID)
	if err != nil {
		return TwoFactorSetup{}, err
	}
	if user.TwoFactorEnabled {
		return TwoFactorSetup{}, ErrTwoFactorAlreadyEnabled
	}

	key, err := s.totp.GenerateSecret(user.Email)
	if err != nil {
		return TwoFactorSetup{}, fmt.Errorf("generate totp secret: %w", err)
	}

	if err := s.users.SetTwoFactor(ctx, user.ID, false, &key.Secret); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return TwoFactorSetup{}, ErrUserNotFound
		}
		return TwoFactorSetup{}, fmt.Errorf("store pending totp secret: %w", err)
	}

	return TwoFactorSetup{Secret: key.Secret, OTPAuthURL: key.URL}, nil
}

// ConfirmTwoFactor enables 2FA once the user proves possession of the pending secret.
func (s *AuthService) ConfirmTwoFactor(ctx context.Context, identity domain.Identity, code string) error {
	if err := ValidateCode(code); err != nil {
		return err
	}

	user, err := s.loadUser(ctx, identity.UserID)
	if err != nil {
		return err
	}
	if user.TwoFactorEnabled {
		return ErrTwoFactorAlreadyEnabled
	}
	if !user.HasTwoFactorSecret() {
		return ErrTwoFactorNotSetup
	}

	if err := s.checkCode(ctx, user.ID, *user.TwoFactorSecret, code); err != nil {
		return err
	}

	if err := s.users.SetTwoFactor(ctx, user.ID, true, user.TwoFactorSecret); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("enable two factor: %w", err)
	}

	s.log(ctx).Info("two-factor authentication enabled", zap.String("user_id", user.ID))
	s.publishTwoFactorChanged(ctx, user.ID, true)
	return nil
}

// VerifyTwoFactor exchanges a step-up token and a valid code for a session.
func (s *AuthService) VerifyTwoFactor(ctx context.Context, in VerifyTwoFactorInput) (LoginResult, error) {
	if err := ValidateVerifyTwoFactor(in); err != nil {
		return LoginResult{}, err
	}

	claims, err := s.tokens.VerifyStepUp(in.TempToken)
	if err != nil {
		return LoginResult{}, ErrInvalidToken
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return LoginResult{}, ErrInvalidToken
		}
		return LoginResult{}, fmt.Errorf("lookup user: %w", err)
	}
	if !user.TwoFactorEnabled || !user.HasTwoFactorSecret() {
		return LoginResult{}, ErrInvalidToken
	}

	if err := s.checkCode(ctx, user.ID, *user.TwoFactorSecret, in.Code); err != nil {
		return LoginResult{}, err
	}

	return s.completeLogin(user)
}

// DisableTwoFactor turns 2FA off and discards the secret.
func (s *AuthService) DisableTwoFactor(ctx context.Context, identity domain.Identity) error {
	user, err := s.loadUser(ctx, identity.UserID)
	if err != nil {
		return err
	}
	if !user.TwoFactorEnabled {
		return ErrTwoFactorNotEnabled
	}

	if err := s.users.SetTwoFactor(ctx, user.ID, false, nil); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("disable two factor: %w", err)
	}

	s.log(ctx).Info("two-factor authentication disabled", zap.String("user_id", user.ID))
	s.publishTwoFactorChanged(ctx, user.ID, false)
	return nil
}

// checkCode verifies code and, when a replay guard is configured, rejects a
// code already accepted for this user within the window.
func (s *AuthService) checkCode(ctx context.Context, userID, secret, code string) error {
	if !s.totp.VerifyCodeAt(secret, code, s.now()) {
		return ErrInvalidCode
	}
	if s.replay == nil {
		return nil
	}

	fresh, err := s.replay.MarkUsed(ctx, userID, code, replayWindowSteps*s.totp.Period())
	if err != nil {
		return fmt.Errorf("record totp code: %w", err)
	}
	if !fresh {
		return ErrInvalidCode
	}
	return nil
}

func (s *AuthService) publishTwoFactorChanged(ctx context.Context, userID string, enabled bool) {
	s.publish(ctx, "two-factor changed", func(events port.EventPublisher) error {
		return events.PublishTwoFactorChanged(ctx, domain.TwoFactorChangedEvent{
			EventID:   uuid.NewString(),
			UserID:    userID,
			Enabled:   enabled,
			ChangedAt: s.now(),
		})
	})
}
