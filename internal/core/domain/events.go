package domain

import "time"

// UserRegisteredEvent represents the payload for auth.user.registered messages.
type UserRegisteredEvent struct {
	EventID      string
	UserID       string
	Name         string
	Email        string
	Role         Role
	RegisteredAt time.Time
}

// EmailVerifiedEvent represents the payload for auth.user.email_verified messages.
type EmailVerifiedEvent struct {
	EventID    string
	UserID     string
	VerifiedAt time.Time
}

// TwoFactorChangedEvent represents the payload for auth.user.two_factor_enabled
// and auth.user.two_factor_disabled messages.
type TwoFactorChangedEvent struct {
	EventID   string
	UserID    string
	Enabled   bool
	ChangedAt time.Time
}
