package security

import (
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	totpPeriod     = 30
	totpSkew       = 1
	totpSecretSize = 20
)

// TOTPKey is a freshly generated shared secret and its provisioning URL.
type TOTPKey struct {
	Secret string
	URL    string
}

// TOTPService generates shared secrets and verifies 6-digit RFC 6238 codes.
// Codes from the current step and one step either side are accepted.
// Accepted codes are not remembered here; see port.TOTPReplayGuard.
type TOTPService struct {
	issuer string
	opts   totp.ValidateOpts
	now    func() time.Time
}

// NewTOTPService constructs a TOTPService labelling secrets with issuer.
func NewTOTPService(issuer string) (*TOTPService, error) {
	issuer = strings.TrimSpace(issuer)
	if issuer == "" {
		return nil, fmt.Errorf("totp: issuer is required")
	}
	return &TOTPService{
		issuer: issuer,
		opts: totp.ValidateOpts{
			Period:    totpPeriod,
			Skew:      totpSkew,
			Digits:    otp.DigitsSix,
			Algorithm: otp.AlgorithmSHA1,
		},
		now: time.Now,
	}, nil
}

// Period returns the length of one time step.
func (s *TOTPService) Period() time.Duration {
	return time.Duration(s.opts.Period) * time.Second
}

// GenerateSecret creates a new base32 secret labelled "<issuer>:<accountName>".
func (s *TOTPService) GenerateSecret(accountName string) (TOTPKey, error) {
	accountName = strings.TrimSpace(accountName)
	if accountName == "" {
		return TOTPKey{}, fmt.Errorf("totp: account name is required")
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: accountName,
		Period:      s.opts.Period,
		SecretSize:  totpSecretSize,
		Digits:      s.opts.Digits,
		Algorithm:   s.opts.Algorithm,
	})
	if err != nil {
		return TOTPKey{}, fmt.Errorf("totp: generate secret: %w", err)
	}

	return TOTPKey{Secret: key.Secret(), URL: key.URL()}, nil
}

// VerifyCode checks code against secret at the current time.
func (s *TOTPService) VerifyCode(secret, code string) bool {
	return s.VerifyCodeAt(secret, code, s.now())
}

// VerifyCodeAt checks code against secret at the supplied instant.
func (s *TOTPService) VerifyCodeAt(secret, code string, at time.Time) bool {
	code = strings.TrimSpace(code)
	if secret == "" || len(code) != int(s.opts.Digits) {
		return false
	}

	ok, err := totp.ValidateCustom(code, secret, at.UTC(), s.opts)
	return err == nil && ok
}
