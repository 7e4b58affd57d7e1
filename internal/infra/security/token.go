package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	uuid "github.com/google/uuid"
)

// TokenPurpose distinguishes the flows a signed token may be presented to.
type TokenPurpose string

const (
	PurposeSession           TokenPurpose = "session"
	PurposeStepUp            TokenPurpose = "stepup"
	PurposeEmailVerification TokenPurpose = "verify-email"
)

const (
	// EmailVerificationTTL bounds how long a signup verification link stays valid.
	EmailVerificationTTL = 24 * time.Hour
	// StepUpTTL bounds the window between password check and 2FA code entry.
	StepUpTTL = 5 * time.Minute

	defaultSessionTTL = 90 * 24 * time.Hour
)

var (
	// ErrInvalidToken indicates a malformed token, a bad signature, or a token issued for another flow.
	ErrInvalidToken = errors.New("token: invalid")
	// ErrTokenExpired indicates a well-formed token whose lifetime elapsed.
	ErrTokenExpired = errors.New("token: expired")
)

// Claims is the payload carried by every token the service issues.
type Claims struct {
	UserID  string       `json:"id"`
	Purpose TokenPurpose `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenConfig configures TokenService.
type TokenConfig struct {
	Secret     string
	Issuer     string
	SessionTTL time.Duration
}

// TokenService issues and verifies HS256 tokens. Session and step-up tokens
// are keyed with the primary secret; email verification tokens are keyed with
// the primary secret followed by the user's password hash at issuance, so a
// password change invalidates every outstanding verification link.
type TokenService struct {
	secret     []byte
	issuer     string
	sessionTTL time.Duration
	now        func() time.Time
}

// NewTokenService constructs a TokenService.
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, fmt.Errorf("token: signing secret is required")
	}
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &TokenService{
		secret:     []byte(cfg.Secret),
		issuer:     strings.TrimSpace(cfg.Issuer),
		sessionTTL: ttl,
		now:        time.Now,
	}, nil
}

// WithClock returns a copy of the service that reads time from now.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	clone := *s
	clone.now = now
	return &clone
}

// SessionTTL returns the configured session token lifetime.
func (s *TokenService) SessionTTL() time.Duration {
	return s.sessionTTL
}

// IssueSession signs a session token for the user.
func (s *TokenService) IssueSession(userID string) (string, error) {
	return s.issue(userID, PurposeSession, s.secret, s.sessionTTL)
}

// IssueStepUp signs the short-lived token returned by a password login when 2FA is pending.
func (s *TokenService) IssueStepUp(userID string) (string, error) {
	return s.issue(userID, PurposeStepUp, s.secret, StepUpTTL)
}

// IssueVerification signs an email verification token bound to passwordHash.
func (s *TokenService) IssueVerification(userID, passwordHash string) (string, error) {
	return s.issue(userID, PurposeEmailVerification, s.verificationKey(passwordHash), EmailVerificationTTL)
}

// VerifySession validates a session token.
func (s *TokenService) VerifySession(token string) (*Claims, error) {
	return s.Verify(token, s.secret, PurposeSession)
}

// VerifyStepUp validates a step-up token.
func (s *TokenService) VerifyStepUp(token string) (*Claims, error) {
	return s.Verify(token, s.secret, PurposeStepUp)
}

// VerifyEmailToken validates a verification token against the user's current password hash.
func (s *TokenService) VerifyEmailToken(token, passwordHash string) (*Claims, error) {
	return s.Verify(token, s.verificationKey(passwordHash), PurposeEmailVerification)
}

// Verify checks signature, expiry and purpose in one pass. No claims are
// returned unless every check passes.
func (s *TokenService) Verify(token string, key []byte, purpose TokenPurpose) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" || len(key) == 0 {
		return nil, ErrInvalidToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.NewParser(opts...).ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if parsed == nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Purpose != purpose || strings.TrimSpace(claims.UserID) == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// DecodeUnsafe extracts claims without checking the signature. It exists only
// to find the user whose password hash completes the verification key; the
// result must never be trusted on its own.
func (s *TokenService) DecodeUnsafe(token string) *Claims {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}

	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}
	if strings.TrimSpace(claims.UserID) == "" {
		return nil
	}
	return claims
}

func (s *TokenService) verificationKey(passwordHash string) []byte {
	key := make([]byte, 0, len(s.secret)+len(passwordHash))
	key = append(key, s.secret...)
	return append(key, passwordHash...)
}

func (s *TokenService) issue(userID string, purpose TokenPurpose, key []byte, ttl time.Duration) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", fmt.Errorf("token: user id is required")
	}

	now := s.now().UTC()
	claims := Claims{
		UserID:  userID,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("token: sign %s token: %w", purpose, err)
	}
	return signed, nil
}
