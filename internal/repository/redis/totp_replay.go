package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/arklim/account-auth/internal/core/port"
)

const defaultTOTPReplayPrefix = "auth:totp_used"

// TOTPReplayGuard records accepted TOTP codes with SET NX so each code is
// accepted at most once per user while it remains inside the skew window.
type TOTPReplayGuard struct {
	client *red.Client
	prefix string
}

// NewTOTPReplayGuard constructs a guard storing keys under keyPrefix.
func NewTOTPReplayGuard(client *red.Client, keyPrefix string) *TOTPReplayGuard {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultTOTPReplayPrefix
	}
	return &TOTPReplayGuard{client: client, prefix: prefix}
}

// MarkUsed returns true the first time a code is seen for the user and false afterwards.
func (g *TOTPReplayGuard) MarkUsed(ctx context.Context, userID, code string, ttl time.Duration) (bool, error) {
	userID = strings.TrimSpace(userID)
	code = strings.TrimSpace(code)
	if userID == "" || code == "" {
		return false, fmt.Errorf("totp replay guard: user id and code are required")
	}
	if ttl <= 0 {
		return false, fmt.Errorf("totp replay guard: ttl must be positive")
	}

	fresh, err := g.client.SetNX(ctx, g.key(userID, code), 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("totp replay guard: set used code: %w", err)
	}
	return fresh, nil
}

func (g *TOTPReplayGuard) key(userID, code string) string {
	return fmt.Sprintf("%s:%s:%s", g.prefix, userID, code)
}

var _ port.TOTPReplayGuard = (*TOTPReplayGuard)(nil)
