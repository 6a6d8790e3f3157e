package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"game-admin-server/internal/models"
	mongorepo "game-admin-server/internal/repository/mongo"
	"game-admin-server/internal/util"
)

var (
	ErrUserNotFound = errors.New("user not found")
	// ErrProfileRequired is returned when set:language arrives before the
	// user has completed set:profile. The onboarding workflow is linear.
	ErrProfileRequired = errors.New("profile must be set before language")
)

const referralCodeAttempts = 10

// UserService resolves and creates user identities. New identities get a
// time-ordered UUID and the next value of the shared user-number sequence;
// existing identities get their device binding and login bookkeeping
// refreshed on every successful verification.
type UserService struct {
	users mongorepo.UserRepository
}

func NewUserService(users mongorepo.UserRepository, logger *zap.Logger) *UserService {
	return &UserService{users: users}
}

// IsNewMobile reports whether no user exists yet for the mobile number.
func (s *UserService) IsNewMobile(ctx context.Context, mobileNo string) (bool, error) {
	_, err := s.users.FindByMobile(ctx, mobileNo)
	if err != nil {
		if errors.Is(err, mongorepo.ErrNotFound) {
			return true, nil
		}
		return false, err
	}
	return false, nil
}

// GetByMobile returns the user for the mobile number.
func (s *UserService) GetByMobile(ctx context.Context, mobileNo string) (*models.User, error) {
	user, err := s.users.FindByMobile(ctx, mobileNo)
	if err != nil {
		if errors.Is(err, mongorepo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// GetOrCreate returns the user for the mobile number, creating it on first
// successful verification. Creation draws the user number from the store's
// atomic counter before inserting; if a concurrent registration wins the
// insert race the drawn number is abandoned (gaps are fine, duplicates are
// not) and the existing record is refreshed instead.
func (s *UserService) GetOrCreate(ctx context.Context, mobileNo, deviceID, pushToken, email string) (*models.User, bool, error) {
	now := time.Now().UTC()

	if _, err := s.users.FindByMobile(ctx, mobileNo); err == nil {
		user, err := s.users.RefreshLogin(ctx, mobileNo, deviceID, pushToken, now)
		if err != nil {
			return nil, false, err
		}
		return user, false, nil
	} else if !errors.Is(err, mongorepo.ErrNotFound) {
		return nil, false, err
	}

	number, err := s.users.NextUserNumber(ctx)
	if err != nil {
		return nil, false, err
	}

	userID, err := uuid.NewV7()
	if err != nil {
		return nil, false, fmt.Errorf("failed to generate user id: %w", err)
	}

	referralCode, err := s.generateReferralCode(ctx)
	if err != nil {
		return nil, false, err
	}

	user := &models.User{
		UserID:          userID.String(),
		UserNumber:      number,
		MobileNo:        mobileNo,
		DeviceID:        deviceID,
		PushToken:       pushToken,
		Email:           email,
		ReferralCode:    referralCode,
		OnboardingState: models.OnboardingRegistered,
		IsActive:        true,
		LoginCount:      1,
		CreatedAt:       now,
		UpdatedAt:       now,
		LastLogin:       &now,
	}

	if err := s.users.InsertUser(ctx, user); err != nil {
		if errors.Is(err, mongorepo.ErrDuplicate) {
			// Concurrent registration for the same mobile number won.
			refreshed, rerr := s.users.RefreshLogin(ctx, mobileNo, deviceID, pushToken, now)
			if rerr != nil {
				return nil, false, rerr
			}
			return refreshed, false, nil
		}
		return nil, false, err
	}

	util.Info("New user created",
		zap.String("user_id", user.UserID),
		zap.Uint64("user_number", user.UserNumber),
		zap.String("mobile_no", mobileNo))

	return user, true, nil
}

// SetProfile records the user's profile and advances onboarding to
// profile_set. Returns the updated user.
func (s *UserService) SetProfile(ctx context.Context, mobileNo string, profile mongorepo.ProfileUpdate) (*models.User, error) {
	matched, err := s.users.SetProfile(ctx, mobileNo, profile)
	if err != nil {
		return nil, err
	}
	if !matched {
		// No legal transition matched: either the user does not exist or the
		// workflow state disallows it. Profile is always legal for a known
		// user, so this is a missing user.
		return nil, ErrUserNotFound
	}

	user, err := s.users.FindByMobile(ctx, mobileNo)
	if err != nil {
		if errors.Is(err, mongorepo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// SetLanguage records language and region preferences. Rejected with
// ErrProfileRequired when the profile step has not happened yet.
func (s *UserService) SetLanguage(ctx context.Context, mobileNo string, lang mongorepo.LanguageUpdate) (*models.User, error) {
	matched, err := s.users.SetLanguage(ctx, mobileNo, lang)
	if err != nil {
		return nil, err
	}
	if matched {
		user, err := s.users.FindByMobile(ctx, mobileNo)
		if err != nil {
			if errors.Is(err, mongorepo.ErrNotFound) {
				return nil, ErrUserNotFound
			}
			return nil, err
		}
		return user, nil
	}

	// Distinguish a missing user from an out-of-order request.
	if _, err := s.users.FindByMobile(ctx, mobileNo); err != nil {
		if errors.Is(err, mongorepo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return nil, ErrProfileRequired
}

func (s *UserService) generateReferralCode(ctx context.Context) (string, error) {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	for attempt := 0; attempt < referralCodeAttempts; attempt++ {
		code := make([]byte, 6)
		for i := range code {
			n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
			if err != nil {
				return "", fmt.Errorf("failed to generate referral code: %w", err)
			}
			code[i] = alphabet[n.Int64()]
		}

		exists, err := s.users.ReferralCodeExists(ctx, string(code))
		if err != nil {
			return "", err
		}
		if !exists {
			return string(code), nil
		}
	}

	return "", fmt.Errorf("failed to generate unique referral code after %d attempts", referralCodeAttempts)
}
