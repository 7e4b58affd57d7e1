package port

import (
	"context"
	"time"
)

// TOTPReplayGuard remembers accepted one-time codes so they cannot be presented twice.
type TOTPReplayGuard interface {
	// MarkUsed records the code for the user and reports false when it was already recorded.
	MarkUsed(ctx context.Context, userID, code string, ttl time.Duration) (bool, error)
}
