package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/arklim/account-auth/internal/core/domain"
	"github.com/arklim/account-auth/internal/core/port"
	"github.com/arklim/account-auth/internal/infra/logger"
	"github.com/arklim/account-auth/internal/infra/security"
	"github.com/arklim/account-auth/internal/repository"
)

// AuthDependencies wires the collaborators AuthService needs.
// Events and ReplayGuard are optional.
type AuthDependencies struct {
	Users       port.UserRepository
	Hasher      port.PasswordHasher
	Policy      port.PasswordPolicyValidator
	Tokens      *security.TokenService
	TOTP        *security.TOTPService
	Mailer      port.Mailer
	Events      port.EventPublisher
	ReplayGuard port.TOTPReplayGuard
	FrontendURL string
	Logger      *zap.Logger
}

// AuthService coordinates signup, email verification, login, two-factor
// authentication and per-request identity resolution.
type AuthService struct {
	users       port.UserRepository
	hasher      port.PasswordHasher
	policy      port.PasswordPolicyValidator
	tokens      *security.TokenService
	totp        *security.TOTPService
	mailer      port.Mailer
	events      port.EventPublisher
	replay      port.TOTPReplayGuard
	frontendURL string
	logger      *zap.Logger
	now         func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(deps AuthDependencies) (*AuthService, error) {
	switch {
	case deps.Users == nil:
		return nil, fmt.Errorf("auth service: user repository is required")
	case deps.Hasher == nil:
		return nil, fmt.Errorf("auth service: password hasher is required")
	case deps.Tokens == nil:
		return nil, fmt.Errorf("auth service: token service is required")
	case deps.TOTP == nil:
		return nil, fmt.Errorf("auth service: totp service is required")
	case deps.Mailer == nil:
		return nil, fmt.Errorf("auth service: mailer is required")
	}

	lg := deps.Logger
	if lg == nil {
		lg = zap.NewNop()
	}

	return &AuthService{
		users:       deps.Users,
		hasher:      deps.Hasher,
		policy:      deps.Policy,
		tokens:      deps.Tokens,
		totp:        deps.TOTP,
		mailer:      deps.Mailer,
		events:      deps.Events,
		replay:      deps.ReplayGuard,
		frontendURL: strings.TrimRight(strings.TrimSpace(deps.FrontendURL), "/"),
		logger:      lg,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

// LoginInput carries the credentials presented at login.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResult is either a completed login (SessionToken and User set) or a
// pending 2FA challenge (TwoFactorRequired and StepUpToken set), never both.
type LoginResult struct {
	SessionToken      string
	User              domain.PublicUser
	TwoFactorRequired bool
	StepUpToken       string
}

// Login validates credentials. Accounts with 2FA enabled receive a step-up
// token instead of a session.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (LoginResult, error) {
	in.Email = normalizeEmail(in.Email)
	if err := ValidateLogin(in); err != nil {
		return LoginResult{}, err
	}

	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("lookup user: %w", err)
	}

	ok, err := s.hasher.Verify(in.Password, user.PasswordHash)
	if err != nil {
		return LoginResult{}, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return LoginResult{}, ErrInvalidCredentials
	}

	if !user.IsEmailVerified {
		return LoginResult{}, ErrEmailNotVerified
	}

	if user.TwoFactorEnabled {
		stepUp, err := s.tokens.IssueStepUp(user.ID)
		if err != nil {
			return LoginResult{}, fmt.Errorf("issue step-up token: %w", err)
		}
		return LoginResult{TwoFactorRequired: true, StepUpToken: stepUp}, nil
	}

	return s.completeLogin(user)
}

func (s *AuthService) completeLogin(user *domain.User) (LoginResult, error) {
	token, err := s.tokens.IssueSession(user.ID)
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue session token: %w", err)
	}
	return LoginResult{SessionToken: token, User: user.Public()}, nil
}

// Authenticate resolves a session token to the identity of a user that still exists.
func (s *AuthService) Authenticate(ctx context.Context, token string) (domain.Identity, error) {
	if strings.TrimSpace(token) == "" {
		return domain.Identity{}, ErrUnauthorized
	}

	claims, err := s.tokens.VerifySession(token)
	if err != nil {
		return domain.Identity{}, ErrUnauthorized
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Identity{}, ErrUnauthorized
		}
		return domain.Identity{}, fmt.Errorf("lookup session user: %w", err)
	}

	return user.Identity(), nil
}

// Authorize reports ErrForbidden unless identity holds one of allowed.
func (s *AuthService) Authorize(identity domain.Identity, allowed ...domain.Role) error {
	if !identity.HasRole(allowed...) {
		return ErrForbidden
	}
	return nil
}

// loadUser maps a missing record to ErrUserNotFound.
func (s *AuthService) loadUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}

func (s *AuthService) log(ctx context.Context) *zap.Logger {
	if id := logger.RequestIDFromContext(ctx); id != "" {
		return s.logger.With(zap.String("request_id", id))
	}
	return s.logger
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
