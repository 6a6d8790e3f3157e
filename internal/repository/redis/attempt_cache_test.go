package redis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAttemptCounterOutlivesSession(t *testing.T) {
	cache := NewAttemptCache(nil, 30*time.Minute, nil)

	assert.Equal(t, 60*time.Minute, cache.ttl,
		"attempt counters must outlive the session they guard")
}

func TestAttemptKeyIsScopedPerSession(t *testing.T) {
	key := attemptKey("9876543210", "tok-abc")

	assert.Equal(t, "otp_attempts:9876543210:tok-abc", key)
	assert.NotEqual(t, key, attemptKey("9876543210", "tok-def"),
		"a fresh session token must start a fresh counter")
}
