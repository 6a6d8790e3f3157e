package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"game-admin-server/internal/models"
	"game-admin-server/internal/util"
)

var (
	ErrTokenMalformed   = errors.New("credential is malformed")
	ErrSignatureInvalid = errors.New("credential signature is invalid")
	ErrTokenExpired     = errors.New("credential has expired")
	// ErrDeviceMismatch is returned when a structurally valid credential is
	// presented from a different device or mobile number than it was issued
	// for. This is what stops a stolen token from working elsewhere.
	ErrDeviceMismatch = errors.New("credential device binding mismatch")
)

// CredentialClaims are the signed claims of a device-bound bearer token.
// Validity is signature + expiry + exact device/mobile match; the claims are
// never treated as the identity source of truth.
type CredentialClaims struct {
	UserNumber uint64 `json:"user_number"`
	MobileNo   string `json:"mobile_no"`
	DeviceID   string `json:"device_id"`
	PushToken  string `json:"push_token"`
	jwt.RegisteredClaims
}

// TokenService issues and validates HMAC-signed bearer credentials.
type TokenService struct {
	secret      []byte
	tokenExpiry time.Duration
	now         func() time.Time
}

func NewTokenService(secret string, tokenExpiry time.Duration, logger *zap.Logger) *TokenService {
	return &TokenService{
		secret:      []byte(secret),
		tokenExpiry: tokenExpiry,
		now:         time.Now,
	}
}

// Issue signs a credential bound to the user's current device fingerprint.
// Claims are immutable once issued; staleness is bounded only by the expiry.
func (s *TokenService) Issue(user *models.User) (string, int64, error) {
	now := s.now()
	expiresAt := now.Add(s.tokenExpiry)

	jti, err := uuid.NewV7()
	if err != nil {
		return "", 0, fmt.Errorf("failed to generate token id: %w", err)
	}

	claims := &CredentialClaims{
		UserNumber: user.UserNumber,
		MobileNo:   user.MobileNo,
		DeviceID:   user.DeviceID,
		PushToken:  user.PushToken,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        jti.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", 0, fmt.Errorf("failed to sign credential: %w", err)
	}

	util.Info("Credential issued",
		zap.String("user_id", user.UserID),
		zap.Uint64("user_number", user.UserNumber),
		zap.Time("expires_at", expiresAt))

	return signed, int64(s.tokenExpiry.Seconds()), nil
}

// Verify checks signature and expiry, then enforces the device binding.
// Exactly one of ErrTokenMalformed, ErrSignatureInvalid, ErrTokenExpired, or
// ErrDeviceMismatch is returned on failure.
func (s *TokenService) Verify(tokenString, expectedDeviceID, expectedMobileNo string) (*CredentialClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CredentialClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrSignatureInvalid
		default:
			return nil, ErrTokenMalformed
		}
	}

	claims, ok := token.Claims.(*CredentialClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenMalformed
	}

	if claims.DeviceID != expectedDeviceID || claims.MobileNo != expectedMobileNo {
		util.Warn("Credential presented with mismatched device binding",
			zap.String("user_id", claims.Subject),
			zap.String("claimed_device", claims.DeviceID),
			zap.String("expected_device", expectedDeviceID))
		return nil, ErrDeviceMismatch
	}

	return claims, nil
}
