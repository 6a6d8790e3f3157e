package service

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMobile = "9876543210"

func newTestOTPService(t *testing.T) (*OTPService, *memSessions, *memUsers, *memAttempts) {
	t.Helper()
	sessions := newMemSessions()
	users := newMemUsers()
	attempts := newMemAttempts()
	userService := NewUserService(users, nil)
	svc := NewOTPService(sessions, userService, attempts, 30*time.Minute, 5, nil)
	return svc, sessions, users, attempts
}

func issue(t *testing.T, svc *OTPService) *IssueResult {
	t.Helper()
	result, err := svc.Issue(context.Background(), IssueRequest{
		MobileNo:  testMobile,
		DeviceID:  "device-abc-123",
		PushToken: "push-token",
	})
	require.NoError(t, err)
	return result
}

func TestIssueCreatesSession(t *testing.T) {
	svc, sessions, _, _ := newTestOTPService(t)

	result := issue(t, svc)

	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), result.OTP)
	assert.NotEmpty(t, result.SessionToken)
	assert.True(t, result.IsNewUser)

	stored := sessions.get(testMobile, result.SessionToken)
	require.NotNil(t, stored)
	assert.Equal(t, result.OTP, stored.OTP)
	assert.False(t, stored.Consumed)
	assert.WithinDuration(t, stored.CreatedAt.Add(30*time.Minute), stored.ExpiresAt, time.Second)
}

func TestIssueSupersedesPriorSessions(t *testing.T) {
	svc, sessions, _, _ := newTestOTPService(t)

	first := issue(t, svc)
	second := issue(t, svc)

	assert.True(t, sessions.get(testMobile, first.SessionToken).Superseded)
	assert.False(t, sessions.get(testMobile, second.SessionToken).Superseded)
}

func TestVerifySuccessCreatesUser(t *testing.T) {
	svc, sessions, users, _ := newTestOTPService(t)
	issued := issue(t, svc)

	result, err := svc.Verify(context.Background(), VerifyRequest{
		MobileNo:     testMobile,
		SessionToken: issued.SessionToken,
		OTP:          issued.OTP,
	})
	require.NoError(t, err)

	assert.Equal(t, VerifySuccess, result.Status)
	assert.Equal(t, int64(1), result.Attempts)
	assert.True(t, result.IsNewUser)
	assert.NotEmpty(t, result.UserID)
	assert.Equal(t, uint64(1), result.UserNumber)

	assert.True(t, sessions.get(testMobile, issued.SessionToken).Consumed)

	user, err := users.FindByMobile(context.Background(), testMobile)
	require.NoError(t, err)
	assert.Equal(t, result.UserID, user.UserID)
}

func TestVerifyWrongOtp(t *testing.T) {
	svc, _, _, _ := newTestOTPService(t)
	issued := issue(t, svc)

	wrong := "000000"
	if issued.OTP == wrong {
		wrong = "000001"
	}

	result, err := svc.Verify(context.Background(), VerifyRequest{
		MobileNo:     testMobile,
		SessionToken: issued.SessionToken,
		OTP:          wrong,
	})
	require.NoError(t, err)
	assert.Equal(t, VerifyInvalid, result.Status)
	assert.Equal(t, int64(1), result.Attempts)
}

func TestVerifyReplayFailsAfterConsumption(t *testing.T) {
	svc, _, _, _ := newTestOTPService(t)
	issued := issue(t, svc)

	req := VerifyRequest{MobileNo: testMobile, SessionToken: issued.SessionToken, OTP: issued.OTP}

	first, err := svc.Verify(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, VerifySuccess, first.Status)

	replay, err := svc.Verify(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, VerifyNotFound, replay.Status)
}

func TestVerifyUnknownSession(t *testing.T) {
	svc, _, _, _ := newTestOTPService(t)
	issue(t, svc)

	result, err := svc.Verify(context.Background(), VerifyRequest{
		MobileNo:     testMobile,
		SessionToken: "no-such-token",
		OTP:          "123456",
	})
	require.NoError(t, err)
	assert.Equal(t, VerifyNotFound, result.Status)
}

func TestVerifyExactSessionMatch(t *testing.T) {
	svc, _, _, _ := newTestOTPService(t)

	first := issue(t, svc)
	second := issue(t, svc)

	// The first session's OTP does not open the second session and vice
	// versa, even though both belong to the same mobile number.
	result, err := svc.Verify(context.Background(), VerifyRequest{
		MobileNo:     testMobile,
		SessionToken: second.SessionToken,
		OTP:          first.OTP,
	})
	require.NoError(t, err)
	if first.OTP != second.OTP {
		assert.Equal(t, VerifyInvalid, result.Status)
	}

	// The superseded first session is still verifiable by its own pair.
	result, err = svc.Verify(context.Background(), VerifyRequest{
		MobileNo:     testMobile,
		SessionToken: first.SessionToken,
		OTP:          first.OTP,
	})
	require.NoError(t, err)
	assert.Equal(t, VerifySuccess, result.Status)
}

func TestVerifyExpiryBoundary(t *testing.T) {
	svc, _, _, _ := newTestOTPService(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	issued := issue(t, svc)

	req := VerifyRequest{MobileNo: testMobile, SessionToken: issued.SessionToken, OTP: issued.OTP}

	// One second before expiry the session is still live.
	svc.now = func() time.Time { return base.Add(30*time.Minute - time.Second) }
	result, err := svc.Verify(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, VerifySuccess, result.Status)

	// One second past expiry a fresh session reports Expired.
	svc.now = func() time.Time { return base }
	issued = issue(t, svc)
	svc.now = func() time.Time { return base.Add(30*time.Minute + time.Second) }
	result, err = svc.Verify(context.Background(), VerifyRequest{
		MobileNo:     testMobile,
		SessionToken: issued.SessionToken,
		OTP:          issued.OTP,
	})
	require.NoError(t, err)
	assert.Equal(t, VerifyExpired, result.Status)
}

func TestVerifyRateLimitOnSixthAttempt(t *testing.T) {
	svc, _, _, _ := newTestOTPService(t)
	issued := issue(t, svc)

	wrong := "000000"
	if issued.OTP == wrong {
		wrong = "000001"
	}

	for i := 1; i <= 5; i++ {
		result, err := svc.Verify(context.Background(), VerifyRequest{
			MobileNo:     testMobile,
			SessionToken: issued.SessionToken,
			OTP:          wrong,
		})
		require.NoError(t, err)
		assert.Equal(t, VerifyInvalid, result.Status, "attempt %d", i)
		assert.Equal(t, int64(i), result.Attempts)
	}

	// The sixth attempt is rejected before the OTP is even looked at,
	// so even the correct code no longer works.
	result, err := svc.Verify(context.Background(), VerifyRequest{
		MobileNo:     testMobile,
		SessionToken: issued.SessionToken,
		OTP:          issued.OTP,
	})
	require.NoError(t, err)
	assert.Equal(t, VerifyRateLimited, result.Status)
	assert.Equal(t, int64(6), result.Attempts)
}

func TestVerifyConcurrentSingleWinner(t *testing.T) {
	svc, _, _, _ := newTestOTPService(t)
	// Attempt limit above the concurrency so the race is decided by
	// session consumption, not by the rate limiter.
	svc.maxAttempts = 100
	issued := issue(t, svc)

	const n = 10
	results := make([]VerifyStatus, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := svc.Verify(context.Background(), VerifyRequest{
				MobileNo:     testMobile,
				SessionToken: issued.SessionToken,
				OTP:          issued.OTP,
			})
			if err == nil {
				results[i] = result.Status
			}
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, status := range results {
		if status == VerifySuccess {
			winners++
		}
	}
	assert.Equal(t, 1, winners, "exactly one concurrent verification may succeed")
}

func TestVerifyConcurrentRateLimitNotBypassed(t *testing.T) {
	svc, _, _, _ := newTestOTPService(t)
	issued := issue(t, svc)

	wrong := "000000"
	if issued.OTP == wrong {
		wrong = "000001"
	}

	const n = 20
	var limited int64
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := svc.Verify(context.Background(), VerifyRequest{
				MobileNo:     testMobile,
				SessionToken: issued.SessionToken,
				OTP:          wrong,
			})
			if err == nil && result.Status == VerifyRateLimited {
				mu.Lock()
				limited++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// 20 parallel attempts against a limit of 5: exactly 15 must be
	// turned away by the counter regardless of interleaving.
	assert.Equal(t, int64(n-5), limited)
}
