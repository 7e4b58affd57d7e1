package usecase

import "errors"

var (
	// ErrInvalidCredentials covers both an unknown email and a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailNotVerified indicates the account exists but its email was never confirmed.
	ErrEmailNotVerified = errors.New("email not verified")
	// ErrInvalidToken indicates a verification or step-up token that is malformed, expired, stale or unknown.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrInvalidCode indicates a TOTP code that does not match the stored secret.
	ErrInvalidCode = errors.New("invalid two-factor code")
	// ErrDuplicateEmail indicates the email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrAlreadyVerified indicates the email was confirmed earlier.
	ErrAlreadyVerified = errors.New("email already verified")
	// ErrTwoFactorAlreadyEnabled indicates 2FA is already active for the account.
	ErrTwoFactorAlreadyEnabled = errors.New("two-factor authentication already enabled")
	// ErrTwoFactorNotEnabled indicates 2FA is not active for the account.
	ErrTwoFactorNotEnabled = errors.New("two-factor authentication not enabled")
	// ErrTwoFactorNotSetup indicates confirmation was attempted without a pending secret.
	ErrTwoFactorNotSetup = errors.New("two-factor authentication not set up")
	// ErrUserNotFound indicates the authenticated user no longer exists.
	ErrUserNotFound = errors.New("user not found")
	// ErrUnauthorized indicates a missing or unusable session token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates the identity lacks the required role.
	ErrForbidden = errors.New("forbidden")
)
