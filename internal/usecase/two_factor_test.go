package usecase

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/arklim/account-auth/internal/core/domain"
)

func TestSetupTwoFactor_StoresPendingSecret(t *testing.T) {
	env := newTestEnv(t)
	id := env.verifiedUser(t, "ann@example.com", "longpass1")
	identity := env.users.get(t, id).Identity()

	setup, err := env.svc.SetupTwoFactor(context.Background(), identity)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if setup.Secret == "" {
		t.Fatalf("expected secret")
	}
	parsed, err := url.Parse(setup.OTPAuthURL)
	if err != nil || parsed.Scheme != "otpauth" {
		t.Fatalf("expected otpauth url, got %q", setup.OTPAuthURL)
	}

	stored := env.users.get(t, id)
	if stored.TwoFactorEnabled {
		t.Fatalf("expected 2FA to remain disabled until confirmed")
	}
	if stored.TwoFactorSecret == nil || *stored.TwoFactorSecret != setup.Secret {
		t.Fatalf("expected pending secret stored")
	}
}

func TestConfirmTwoFactor_Lifecycle(t *testing.T) {
	env := newTestEnv(t)
	id := env.verifiedUser(t, "ann@example.com", "longpass1")
	identity := env.users.get(t, id).Identity()
	ctx := context.Background()

	setup, err := env.svc.SetupTwoFactor(ctx, identity)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	if err := env.svc.ConfirmTwoFactor(ctx, identity, wrongCode(t, setup.Secret)); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode, got %v", err)
	}
	if env.users.get(t, id).TwoFactorEnabled {
		t.Fatalf("expected 2FA still disabled after wrong code")
	}

	if err := env.svc.ConfirmTwoFactor(ctx, identity, currentCode(t, setup.Secret)); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	stored := env.users.get(t, id)
	if !stored.TwoFactorEnabled || stored.TwoFactorSecret == nil || *stored.TwoFactorSecret != setup.Secret {
		t.Fatalf("expected 2FA enabled with confirmed secret, got %+v", stored)
	}

	if err := env.svc.ConfirmTwoFactor(ctx, identity, currentCode(t, setup.Secret)); !errors.Is(err, ErrTwoFactorAlreadyEnabled) {
		t.Fatalf("expected second confirm rejected, got %v", err)
	}
	if _, err := env.svc.SetupTwoFactor(ctx, identity); !errors.Is(err, ErrTwoFactorAlreadyEnabled) {
		t.Fatalf("expected ErrTwoFactorAlreadyEnabled, got %v", err)
	}

	if len(env.events.twoFactor) != 1 || !env.events.twoFactor[0].Enabled {
		t.Fatalf("expected one enabled event, got %+v", env.events.twoFactor)
	}
}

func TestConfirmTwoFactor_Preconditions(t *testing.T) {
	env := newTestEnv(t)
	id := env.verifiedUser(t, "ann@example.com", "longpass1")
	identity := env.users.get(t, id).Identity()
	ctx := context.Background()

	if err := env.svc.ConfirmTwoFactor(ctx, identity, "123456"); !errors.Is(err, ErrTwoFactorNotSetup) {
		t.Fatalf("expected ErrTwoFactorNotSetup, got %v", err)
	}

	for _, code := range []string{"", "12345", "1234567", "12a456"} {
		var verr *ValidationError
		if err := env.svc.ConfirmTwoFactor(ctx, identity, code); !errors.As(err, &verr) {
			t.Fatalf("expected ValidationError for %q, got %v", code, err)
		}
	}

	missing := domain.Identity{UserID: "missing"}
	if err := env.svc.ConfirmTwoFactor(ctx, missing, "123456"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := env.svc.SetupTwoFactor(ctx, missing); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound from setup, got %v", err)
	}
	if err := env.svc.DisableTwoFactor(ctx, missing); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound from disable, got %v", err)
	}
}

func TestVerifyTwoFactor_CompletesLogin(t *testing.T) {
	env := newTestEnv(t)
	id := env.verifiedUser(t, "ann@example.com", "longpass1")
	secret := env.enableTwoFactor(t, id)
	ctx := context.Background()

	login, err := env.svc.Login(ctx, LoginInput{Email: "ann@example.com", Password: "longpass1"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, err := env.svc.VerifyTwoFactor(ctx, VerifyTwoFactorInput{TempToken: login.StepUpToken, Code: wrongCode(t, secret)}); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode, got %v", err)
	}

	result, err := env.svc.VerifyTwoFactor(ctx, VerifyTwoFactorInput{TempToken: login.StepUpToken, Code: currentCode(t, secret)})
	if err != nil {
		t.Fatalf("verify two factor: %v", err)
	}
	if result.User.ID != id || result.TwoFactorRequired {
		t.Fatalf("unexpected result %+v", result)
	}
	if claims, err := env.tokens.VerifySession(result.SessionToken); err != nil || claims.UserID != id {
		t.Fatalf("expected session token for %s, got %v", id, err)
	}
}

func TestVerifyTwoFactor_RejectsBadStepUpTokens(t *testing.T) {
	env := newTestEnv(t)
	id := env.verifiedUser(t, "ann@example.com", "longpass1")
	secret := env.enableTwoFactor(t, id)
	ctx := context.Background()

	session, err := env.tokens.IssueSession(id)
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}
	past := env.tokens.WithClock(func() time.Time { return time.Now().Add(-10 * time.Minute) })
	expired, err := past.IssueStepUp(id)
	if err != nil {
		t.Fatalf("issue expired step-up: %v", err)
	}
	orphan, err := env.tokens.IssueStepUp("missing")
	if err != nil {
		t.Fatalf("issue orphan step-up: %v", err)
	}

	cases := map[string]string{
		"session token": session,
		"expired":       expired,
		"unknown user":  orphan,
		"garbage":       "x.y.z",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := env.svc.VerifyTwoFactor(ctx, VerifyTwoFactorInput{TempToken: token, Code: currentCode(t, secret)})
			if !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}

	_, err = env.svc.VerifyTwoFactor(ctx, VerifyTwoFactorInput{Code: "123456"})
	assertValidationField(t, err, "tempToken")
}

func TestDisableTwoFactor_ClearsSecretAndBlocksStepUp(t *testing.T) {
	env := newTestEnv(t)
	id := env.verifiedUser(t, "ann@example.com", "longpass1")
	secret := env.enableTwoFactor(t, id)
	identity := env.users.get(t, id).Identity()
	ctx := context.Background()

	login, err := env.svc.Login(ctx, LoginInput{Email: "ann@example.com", Password: "longpass1"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := env.svc.DisableTwoFactor(ctx, identity); err != nil {
		t.Fatalf("disable: %v", err)
	}
	stored := env.users.get(t, id)
	if stored.TwoFactorEnabled || stored.TwoFactorSecret != nil {
		t.Fatalf("expected flag and secret cleared, got %+v", stored)
	}

	if _, err := env.svc.VerifyTwoFactor(ctx, VerifyTwoFactorInput{TempToken: login.StepUpToken, Code: currentCode(t, secret)}); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after disable, got %v", err)
	}

	if err := env.svc.DisableTwoFactor(ctx, identity); !errors.Is(err, ErrTwoFactorNotEnabled) {
		t.Fatalf("expected ErrTwoFactorNotEnabled, got %v", err)
	}

	direct, err := env.svc.Login(ctx, LoginInput{Email: "ann@example.com", Password: "longpass1"})
	if err != nil || direct.TwoFactorRequired || direct.SessionToken == "" {
		t.Fatalf("expected direct login after disable, got %+v %v", direct, err)
	}

	last := env.events.twoFactor[len(env.events.twoFactor)-1]
	if last.Enabled {
		t.Fatalf("expected disabled event last, got %+v", last)
	}
}

func TestTwoFactor_CodeReuseAllowedWithoutGuard(t *testing.T) {
	env := newTestEnv(t)
	id := env.verifiedUser(t, "ann@example.com", "longpass1")
	secret := env.enableTwoFactor(t, id)
	ctx := context.Background()

	code := currentCode(t, secret)
	for i := 0; i < 2; i++ {
		login, err := env.svc.Login(ctx, LoginInput{Email: "ann@example.com", Password: "longpass1"})
		if err != nil {
			t.Fatalf("login: %v", err)
		}
		if _, err := env.svc.VerifyTwoFactor(ctx, VerifyTwoFactorInput{TempToken: login.StepUpToken, Code: code}); err != nil {
			t.Fatalf("attempt %d: expected code accepted, got %v", i, err)
		}
	}
}

func TestTwoFactor_ReplayGuardRejectsReuse(t *testing.T) {
	guard := &testReplayGuard{}
	env := newTestEnv(t, withReplayGuard(guard))
	id := env.verifiedUser(t, "ann@example.com", "longpass1")
	identity := env.users.get(t, id).Identity()
	ctx := context.Background()

	setup, err := env.svc.SetupTwoFactor(ctx, identity)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	code := currentCode(t, setup.Secret)
	if err := env.svc.ConfirmTwoFactor(ctx, identity, code); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	login, err := env.svc.Login(ctx, LoginInput{Email: "ann@example.com", Password: "longpass1"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := env.svc.VerifyTwoFactor(ctx, VerifyTwoFactorInput{TempToken: login.StepUpToken, Code: code}); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected replayed code rejected, got %v", err)
	}

	if len(guard.ttls) == 0 || guard.ttls[0] != 90*time.Second {
		t.Fatalf("expected replay ttl of three periods, got %v", guard.ttls)
	}
}
