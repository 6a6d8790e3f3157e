package redis

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"game-admin-server/internal/client"
	"game-admin-server/internal/util"
)

const attemptPrefix = "otp_attempts:"

// AttemptCache counts OTP verification attempts per (mobile_no, session_token)
// with a single Redis INCR, so the limit holds across concurrent requests and
// across server processes sharing one Redis. The counter is never reset for a
// session; a new login produces a new session token and therefore a new key.
type AttemptCache struct {
	client *client.RedisClient
	ttl    time.Duration
}

// NewAttemptCache creates the tracker. sessionTTL is the OTP session lifetime;
// counters are kept for twice that so an attempt burst against an expired
// session still reports RATE_LIMIT_EXCEEDED rather than OTP_EXPIRED.
func NewAttemptCache(client *client.RedisClient, sessionTTL time.Duration, logger *zap.Logger) *AttemptCache {
	return &AttemptCache{client: client, ttl: 2 * sessionTTL}
}

func attemptKey(mobileNo, sessionToken string) string {
	return attemptPrefix + mobileNo + ":" + sessionToken
}

// Increment bumps the attempt counter and returns the new count, counting the
// call being made. Callers increment before performing any validity check.
func (c *AttemptCache) Increment(ctx context.Context, mobileNo, sessionToken string) (int64, error) {
	key := attemptKey(mobileNo, sessionToken)

	count, err := c.client.IncrWithExpire(ctx, key, c.ttl)
	if err != nil {
		util.Error("Failed to increment OTP attempts",
			zap.String("mobile_no", mobileNo),
			zap.Error(err))
		return 0, fmt.Errorf("failed to increment OTP attempts: %w", err)
	}

	util.Debug("OTP attempt recorded",
		zap.String("mobile_no", mobileNo),
		zap.Int64("count", count))

	return count, nil
}
