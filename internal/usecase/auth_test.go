package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/arklim/account-auth/internal/core/domain"
	"github.com/arklim/account-auth/internal/infra/security"
)

func TestNewAuthService_RequiresCollaborators(t *testing.T) {
	if _, err := NewAuthService(AuthDependencies{}); err == nil {
		t.Fatalf("expected error without collaborators")
	}
}

func TestLogin_InvalidCredentialsAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	env.verifiedUser(t, "ann@example.com", "longpass1")

	_, wrongPassword := env.svc.Login(context.Background(), LoginInput{Email: "ann@example.com", Password: "wrong-pass"})
	_, unknownEmail := env.svc.Login(context.Background(), LoginInput{Email: "nobody@example.com", Password: "longpass1"})

	if !errors.Is(wrongPassword, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", wrongPassword)
	}
	if !errors.Is(unknownEmail, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", unknownEmail)
	}
	if wrongPassword.Error() != unknownEmail.Error() {
		t.Fatalf("expected identical messages, got %q and %q", wrongPassword, unknownEmail)
	}
}

func TestLogin_Validation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Login(context.Background(), LoginInput{Email: "bad", Password: ""})
	assertValidationField(t, err, "email")
	assertValidationField(t, err, "password")
}

func TestLogin_EmailNotVerified(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "Ann", "ann@example.com", "longpass1")

	if _, err := env.svc.Login(context.Background(), LoginInput{Email: "ann@example.com", Password: "longpass1"}); !errors.Is(err, ErrEmailNotVerified) {
		t.Fatalf("expected ErrEmailNotVerified, got %v", err)
	}
}

func TestLogin_IssuesSessionWithPublicUser(t *testing.T) {
	env := newTestEnv(t)
	id := env.verifiedUser(t, "ann@example.com", "longpass1")

	result, err := env.svc.Login(context.Background(), LoginInput{Email: "ANN@example.com ", Password: "longpass1"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.TwoFactorRequired || result.StepUpToken != "" {
		t.Fatalf("expected direct login, got %+v", result)
	}
	if result.User.ID != id || result.User.Email != "ann@example.com" || result.User.Role != domain.RoleUser {
		t.Fatalf("unexpected public user %+v", result.User)
	}

	claims, err := env.tokens.VerifySession(result.SessionToken)
	if err != nil || claims.UserID != id {
		t.Fatalf("expected session token for %s, got %v", id, err)
	}
}

func TestLogin_TwoFactorReturnsStepUpOnly(t *testing.T) {
	env := newTestEnv(t)
	id := env.verifiedUser(t, "ann@example.com", "longpass1")
	env.enableTwoFactor(t, id)

	result, err := env.svc.Login(context.Background(), LoginInput{Email: "ann@example.com", Password: "longpass1"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !result.TwoFactorRequired || result.StepUpToken == "" {
		t.Fatalf("expected step-up challenge, got %+v", result)
	}
	if result.SessionToken != "" || result.User.ID != "" {
		t.Fatalf("expected no session or user on step-up, got %+v", result)
	}
	if _, err := env.tokens.VerifySession(result.StepUpToken); err == nil {
		t.Fatalf("step-up token must not be usable as a session")
	}
	if _, err := env.svc.Authenticate(context.Background(), result.StepUpToken); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected step-up token rejected by Authenticate, got %v", err)
	}

	claims, err := env.tokens.VerifyStepUp(result.StepUpToken)
	if err != nil || claims.UserID != id {
		t.Fatalf("expected step-up token for %s, got %v", id, err)
	}
	if ttl := claims.ExpiresAt.Sub(claims.IssuedAt.Time); ttl != security.StepUpTTL {
		t.Fatalf("expected step-up ttl %s, got %s", security.StepUpTTL, ttl)
	}
}

func TestLogin_StoreErrorIsInternal(t *testing.T) {
	env := newTestEnv(t)
	storeErr := errors.New("db down")
	env.users.failGet = storeErr

	_, err := env.svc.Login(context.Background(), LoginInput{Email: "ann@example.com", Password: "longpass1"})
	if !errors.Is(err, storeErr) || errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	id := env.verifiedUser(t, "ann@example.com", "longpass1")

	valid, err := env.tokens.IssueSession(id)
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}

	identity, err := env.svc.Authenticate(context.Background(), valid)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if identity.UserID != id || identity.Role != domain.RoleUser || identity.Email != "ann@example.com" {
		t.Fatalf("unexpected identity %+v", identity)
	}

	past := env.tokens.WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })
	expired, err := past.IssueSession(id)
	if err != nil {
		t.Fatalf("issue expired session: %v", err)
	}

	forger, err := security.NewTokenService(security.TokenConfig{Secret: "attacker", Issuer: "account-auth-test"})
	if err != nil {
		t.Fatalf("new token service: %v", err)
	}
	tampered, err := forger.IssueSession(id)
	if err != nil {
		t.Fatalf("issue tampered session: %v", err)
	}

	cases := map[string]string{
		"missing":  "",
		"expired":  expired,
		"tampered": tampered,
		"garbage":  "abc.def.ghi",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := env.svc.Authenticate(context.Background(), token); !errors.Is(err, ErrUnauthorized) {
				t.Fatalf("expected ErrUnauthorized, got %v", err)
			}
		})
	}

	t.Run("deleted user", func(t *testing.T) {
		env.users.delete(id)
		if _, err := env.svc.Authenticate(context.Background(), valid); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestAuthorize(t *testing.T) {
	env := newTestEnv(t)

	admin := domain.Identity{UserID: "1", Role: domain.RoleAdmin}
	user := domain.Identity{UserID: "2", Role: domain.RoleUser}

	if err := env.svc.Authorize(admin, domain.RoleAdmin); err != nil {
		t.Fatalf("expected admin allowed, got %v", err)
	}
	if err := env.svc.Authorize(user, domain.RoleAdmin); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := env.svc.Authorize(user, domain.RoleUser, domain.RoleAdmin); err != nil {
		t.Fatalf("expected user allowed by multi-role set, got %v", err)
	}
	if err := env.svc.Authorize(admin); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected empty role set to deny, got %v", err)
	}
}

func TestGetUser(t *testing.T) {
	env := newTestEnv(t)
	id := env.verifiedUser(t, "ann@example.com", "longpass1")

	user, err := env.svc.GetUser(context.Background(), id)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.ID != id || user.Email != "ann@example.com" {
		t.Fatalf("unexpected user %+v", user)
	}

	if _, err := env.svc.GetUser(context.Background(), "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestAnnSignupVerifyLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.svc.Signup(ctx, SignupInput{Name: "Ann", Email: "a@x.com", Password: "longpass1"}); err != nil {
		t.Fatalf("signup: %v", err)
	}

	if _, err := env.svc.Login(ctx, LoginInput{Email: "a@x.com", Password: "longpass1"}); !errors.Is(err, ErrEmailNotVerified) {
		t.Fatalf("expected ErrEmailNotVerified before verification, got %v", err)
	}

	if err := env.svc.VerifyEmail(ctx, tokenFromMail(t, env.mailer.last(t))); err != nil {
		t.Fatalf("verify email: %v", err)
	}

	result, err := env.svc.Login(ctx, LoginInput{Email: "a@x.com", Password: "longpass1"})
	if err != nil {
		t.Fatalf("login after verification: %v", err)
	}
	if result.SessionToken == "" || result.User.Name != "Ann" {
		t.Fatalf("expected session for Ann, got %+v", result)
	}
}
