package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"go.uber.org/zap/zaptest"

	"github.com/arklim/account-auth/internal/core/domain"
	"github.com/arklim/account-auth/internal/core/port"
	"github.com/arklim/account-auth/internal/infra/security"
	"github.com/arklim/account-auth/internal/repository"
)

const testSecret = "usecase-test-secret"

type testUserRepo struct {
	mu      sync.Mutex
	users   map[string]domain.User
	failGet error
}

func newTestUserRepo() *testUserRepo {
	return &testUserRepo{users: make(map[string]domain.User)}
}

func (r *testUserRepo) Create(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	r.users[user.ID] = user
	return nil
}

func (r *testUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failGet != nil {
		return nil, r.failGet
	}
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (r *testUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failGet != nil {
		return nil, r.failGet
	}
	for _, user := range r.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *testUserRepo) MarkEmailVerified(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.IsEmailVerified = true
	r.users[id] = user
	return nil
}

func (r *testUserRepo) SetTwoFactor(_ context.Context, id string, enabled bool, secret *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.TwoFactorEnabled = enabled
	if secret == nil {
		user.TwoFactorSecret = nil
	} else {
		value := *secret
		user.TwoFactorSecret = &value
	}
	r.users[id] = user
	return nil
}

func (r *testUserRepo) get(t *testing.T, id string) domain.User {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		t.Fatalf("user %s not stored", id)
	}
	return user
}

func (r *testUserRepo) update(id string, fn func(*domain.User)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user := r.users[id]
	fn(&user)
	r.users[id] = user
}

func (r *testUserRepo) delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
}

type testMailer struct {
	mu   sync.Mutex
	sent []port.MailMessage
	err  error
}

func (m *testMailer) Send(_ context.Context, msg port.MailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *testMailer) last(t *testing.T) port.MailMessage {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		t.Fatalf("expected an email to be sent")
	}
	return m.sent[len(m.sent)-1]
}

type testEvents struct {
	mu         sync.Mutex
	registered []domain.UserRegisteredEvent
	verified   []domain.EmailVerifiedEvent
	twoFactor  []domain.TwoFactorChangedEvent
	err        error
}

func (e *testEvents) PublishUserRegistered(_ context.Context, event domain.UserRegisteredEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.registered = append(e.registered, event)
	return e.err
}

func (e *testEvents) PublishEmailVerified(_ context.Context, event domain.EmailVerifiedEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.verified = append(e.verified, event)
	return e.err
}

func (e *testEvents) PublishTwoFactorChanged(_ context.Context, event domain.TwoFactorChangedEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.twoFactor = append(e.twoFactor, event)
	return e.err
}

type testReplayGuard struct {
	mu   sync.Mutex
	seen map[string]bool
	ttls []time.Duration
}

func (g *testReplayGuard) MarkUsed(_ context.Context, userID, code string, ttl time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.seen == nil {
		g.seen = make(map[string]bool)
	}
	g.ttls = append(g.ttls, ttl)
	key := userID + ":" + code
	if g.seen[key] {
		return false, nil
	}
	g.seen[key] = true
	return true, nil
}

type testEnv struct {
	svc    *AuthService
	users  *testUserRepo
	mailer *testMailer
	events *testEvents
	tokens *security.TokenService
	hasher *security.Argon2Hasher
}

type envOption func(*AuthDependencies)

func withReplayGuard(g port.TOTPReplayGuard) envOption {
	return func(d *AuthDependencies) { d.ReplayGuard = g }
}

func withPolicy(p port.PasswordPolicyValidator) envOption {
	return func(d *AuthDependencies) { d.Policy = p }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	hasher, err := security.NewArgon2Hasher(security.Argon2Config{
		Memory:      8 * 1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("new hasher: %v", err)
	}

	tokens, err := security.NewTokenService(security.TokenConfig{
		Secret:     testSecret,
		Issuer:     "account-auth-test",
		SessionTTL: time.Hour,
	})
	if err != nil {
		t.Fatalf("new token service: %v", err)
	}

	totpSvc, err := security.NewTOTPService("account-auth-test")
	if err != nil {
		t.Fatalf("new totp service: %v", err)
	}

	env := &testEnv{
		users:  newTestUserRepo(),
		mailer: &testMailer{},
		events: &testEvents{},
		tokens: tokens,
		hasher: hasher,
	}

	deps := AuthDependencies{
		Users:       env.users,
		Hasher:      hasher,
		Tokens:      tokens,
		TOTP:        totpSvc,
		Mailer:      env.mailer,
		Events:      env.events,
		FrontendURL: "http://frontend.test/",
		Logger:      zaptest.NewLogger(t),
	}
	for _, opt := range opts {
		opt(&deps)
	}

	svc, err := NewAuthService(deps)
	if err != nil {
		t.Fatalf("new auth service: %v", err)
	}
	env.svc = svc
	return env
}

// signup registers a user and returns its id and the emailed verification token.
func (e *testEnv) signup(t *testing.T, name, email, password string) (string, string) {
	t.Helper()

	result, err := e.svc.Signup(context.Background(), SignupInput{Name: name, Email: email, Password: password})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	return result.User.ID, tokenFromMail(t, e.mailer.last(t))
}

// verifiedUser registers and verifies a user, returning its id.
func (e *testEnv) verifiedUser(t *testing.T, email, password string) string {
	t.Helper()

	id, token := e.signup(t, "Test User", email, password)
	if err := e.svc.VerifyEmail(context.Background(), token); err != nil {
		t.Fatalf("verify email: %v", err)
	}
	return id
}

// enableTwoFactor runs setup and confirm, returning the shared secret.
func (e *testEnv) enableTwoFactor(t *testing.T, userID string) string {
	t.Helper()

	identity := e.users.get(t, userID).Identity()
	setup, err := e.svc.SetupTwoFactor(context.Background(), identity)
	if err != nil {
		t.Fatalf("setup two factor: %v", err)
	}
	if err := e.svc.ConfirmTwoFactor(context.Background(), identity, currentCode(t, setup.Secret)); err != nil {
		t.Fatalf("confirm two factor: %v", err)
	}
	return setup.Secret
}

func tokenFromMail(t *testing.T, msg port.MailMessage) string {
	t.Helper()

	idx := strings.Index(msg.Body, "http")
	if idx < 0 {
		t.Fatalf("no link in mail body %q", msg.Body)
	}
	raw := strings.Fields(msg.Body[idx:])[0]
	link, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse verification link: %v", err)
	}
	token := link.Query().Get("token")
	if token == "" {
		t.Fatalf("no token in verification link %s", raw)
	}
	return token
}

func currentCode(t *testing.T, secret string) string {
	t.Helper()

	code, err := totp.GenerateCode(secret, time.Now())
	if err != nil {
		t.Fatalf("generate code: %v", err)
	}
	return code
}

// wrongCode returns a six digit code outside the accepted window for secret.
func wrongCode(t *testing.T, secret string) string {
	t.Helper()

	now := time.Now()
	valid := map[string]bool{}
	for _, offset := range []time.Duration{-60 * time.Second, -30 * time.Second, 0, 30 * time.Second, 60 * time.Second} {
		code, err := totp.GenerateCode(secret, now.Add(offset))
		if err != nil {
			t.Fatalf("generate code: %v", err)
		}
		valid[code] = true
	}
	for i := 0; i < 1_000_000; i++ {
		candidate := fmt.Sprintf("%06d", i)
		if !valid[candidate] {
			return candidate
		}
	}
	t.Fatalf("no wrong code available")
	return ""
}

func assertValidationField(t *testing.T, err error, field string) {
	t.Helper()

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, f := range verr.Fields {
		if f.Field == field {
			return
		}
	}
	t.Fatalf("expected field %s in %+v", field, verr.Fields)
}
