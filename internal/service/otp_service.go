package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"game-admin-server/internal/models"
	mongorepo "game-admin-server/internal/repository/mongo"
	"game-admin-server/internal/util"
)

var (
	// ErrStorage wraps backing-store failures. It fails the request, never
	// the connection.
	ErrStorage = errors.New("storage failure")
)

// AttemptTracker counts verification attempts per (mobile_no, session_token).
// The increment must be a single atomic read-modify-write in the backing
// store; an in-process counter cannot enforce the limit across server
// instances.
type AttemptTracker interface {
	Increment(ctx context.Context, mobileNo, sessionToken string) (int64, error)
}

// VerifyStatus is the closed set of OTP verification outcomes. Every caller
// handles all five; there is no implicit success default.
type VerifyStatus int

const (
	VerifySuccess VerifyStatus = iota
	VerifyInvalid
	VerifyExpired
	VerifyNotFound
	VerifyRateLimited
)

func (s VerifyStatus) String() string {
	switch s {
	case VerifySuccess:
		return "success"
	case VerifyInvalid:
		return "invalid"
	case VerifyExpired:
		return "expired"
	case VerifyNotFound:
		return "not_found"
	case VerifyRateLimited:
		return "rate_limited"
	default:
		return "unknown"
	}
}

type IssueRequest struct {
	MobileNo  string
	DeviceID  string
	PushToken string
	Email     string
}

type IssueResult struct {
	SessionToken string
	OTP          string
	IsNewUser    bool
	ExpiresAt    time.Time
}

type VerifyRequest struct {
	MobileNo     string
	SessionToken string
	OTP          string
}

type VerifyResult struct {
	Status     VerifyStatus
	Attempts   int64
	UserID     string
	UserNumber uint64
	IsNewUser  bool
}

// OTPService issues OTP login sessions and verifies submitted codes. It owns
// no mutable state of its own; all coordination happens through atomic store
// operations so concurrent verifications of one session resolve correctly.
type OTPService struct {
	sessions    mongorepo.SessionRepository
	users       *UserService
	attempts    AttemptTracker
	sessionTTL  time.Duration
	maxAttempts int64
	now         func() time.Time
}

func NewOTPService(
	sessions mongorepo.SessionRepository,
	users *UserService,
	attempts AttemptTracker,
	sessionTTL time.Duration,
	maxAttempts int,
	logger *zap.Logger,
) *OTPService {
	return &OTPService{
		sessions:    sessions,
		users:       users,
		attempts:    attempts,
		sessionTTL:  sessionTTL,
		maxAttempts: int64(maxAttempts),
		now:         time.Now,
	}
}

// MaxAttempts reports the configured verification attempt limit.
func (s *OTPService) MaxAttempts() int64 {
	return s.maxAttempts
}

// Issue generates a 6-digit OTP and an opaque session token, flags prior
// active sessions for the mobile number as superseded, and persists a new
// session with the configured expiry. The OTP is returned synchronously;
// out-of-band delivery is the caller's concern.
func (s *OTPService) Issue(ctx context.Context, req IssueRequest) (*IssueResult, error) {
	otp, err := generateOTP()
	if err != nil {
		return nil, fmt.Errorf("failed to generate OTP: %w", err)
	}

	sessionToken, err := generateSessionToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	isNewUser, err := s.users.IsNewMobile(ctx, req.MobileNo)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	if err := s.sessions.SupersedePrior(ctx, req.MobileNo); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	now := s.now().UTC()
	session := &models.LoginSession{
		MobileNo:     req.MobileNo,
		DeviceID:     req.DeviceID,
		PushToken:    req.PushToken,
		Email:        req.Email,
		SessionToken: sessionToken,
		OTP:          otp,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.sessionTTL),
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	util.Info("OTP session issued",
		zap.String("mobile_no", req.MobileNo),
		zap.Bool("is_new_user", isNewUser),
		zap.Time("expires_at", session.ExpiresAt))

	return &IssueResult{
		SessionToken: sessionToken,
		OTP:          otp,
		IsNewUser:    isNewUser,
		ExpiresAt:    session.ExpiresAt,
	}, nil
}

// Verify runs the strict verification protocol. The attempt counter is
// incremented before anything else so the rate limit cannot be bypassed by
// failing early, and the session is consumed with an atomic flip so at most
// one of N concurrent calls succeeds.
func (s *OTPService) Verify(ctx context.Context, req VerifyRequest) (*VerifyResult, error) {
	count, err := s.attempts.Increment(ctx, req.MobileNo, req.SessionToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	result := &VerifyResult{Attempts: count}

	if count > s.maxAttempts {
		util.Warn("OTP verification rate limit exceeded",
			zap.String("mobile_no", req.MobileNo),
			zap.Int64("attempts", count))
		result.Status = VerifyRateLimited
		return result, nil
	}

	session, err := s.sessions.FindByMobileAndToken(ctx, req.MobileNo, req.SessionToken)
	if err != nil {
		if errors.Is(err, mongorepo.ErrNotFound) {
			result.Status = VerifyNotFound
			return result, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	if session.Expired(s.now().UTC()) {
		result.Status = VerifyExpired
		return result, nil
	}

	// A consumed session is indistinguishable from an absent one, which is
	// what makes a replayed verification fail.
	if session.Consumed {
		result.Status = VerifyNotFound
		return result, nil
	}

	if subtle.ConstantTimeCompare([]byte(session.OTP), []byte(req.OTP)) != 1 {
		result.Status = VerifyInvalid
		return result, nil
	}

	consumed, err := s.sessions.ConsumeSession(ctx, req.MobileNo, req.SessionToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if !consumed {
		// Lost the race to a concurrent verification of the same session.
		result.Status = VerifyNotFound
		return result, nil
	}

	user, isNew, err := s.users.GetOrCreate(ctx, session.MobileNo, session.DeviceID, session.PushToken, session.Email)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	util.Info("OTP verified",
		zap.String("mobile_no", req.MobileNo),
		zap.String("user_id", user.UserID),
		zap.Uint64("user_number", user.UserNumber),
		zap.Bool("is_new_user", isNew))

	result.Status = VerifySuccess
	result.UserID = user.UserID
	result.UserNumber = user.UserNumber
	result.IsNewUser = isNew
	return result, nil
}

// generateOTP returns a uniformly random 6-digit code; leading zeros allowed.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// generateSessionToken returns 32 random bytes, base64url-encoded.
func generateSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
