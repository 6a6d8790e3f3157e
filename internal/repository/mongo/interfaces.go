package mongo

import (
	"context"
	"errors"
	"time"

	"game-admin-server/internal/models"
)

var (
	// ErrNotFound is returned when a lookup matches no document.
	ErrNotFound = errors.New("document not found")
	// ErrDuplicate is returned when an insert violates a unique index.
	ErrDuplicate = errors.New("duplicate document")
)

// SessionRepository persists OTP login sessions.
type SessionRepository interface {
	CreateSession(ctx context.Context, session *models.LoginSession) error
	FindByMobileAndToken(ctx context.Context, mobileNo, sessionToken string) (*models.LoginSession, error)
	// ConsumeSession atomically flips consumed=false to true for the exact
	// (mobile_no, session_token) pair. It reports false when the session was
	// already consumed or never existed, which is how exactly one of N
	// concurrent verifications wins.
	ConsumeSession(ctx context.Context, mobileNo, sessionToken string) (bool, error)
	// SupersedePrior flags all unconsumed sessions for the mobile number.
	// Sessions are never deleted; the audit trail is append-only.
	SupersedePrior(ctx context.Context, mobileNo string) error
}

// UserRepository persists registered users and the user-number counter.
type UserRepository interface {
	FindByMobile(ctx context.Context, mobileNo string) (*models.User, error)
	// NextUserNumber draws the next value from the shared counter with a
	// single findAndModify. Numbers are monotonic and duplicate-free across
	// processes; gaps are acceptable.
	NextUserNumber(ctx context.Context) (uint64, error)
	InsertUser(ctx context.Context, user *models.User) error
	// RefreshLogin updates device binding and login bookkeeping on an
	// existing user and returns the updated record.
	RefreshLogin(ctx context.Context, mobileNo, deviceID, pushToken string, now time.Time) (*models.User, error)
	// SetProfile advances the onboarding workflow to profile_set. The update
	// is conditional on the current workflow state; matched reports whether
	// the transition was legal.
	SetProfile(ctx context.Context, mobileNo string, profile ProfileUpdate) (matched bool, err error)
	// SetLanguage advances the onboarding workflow to language_set. Rejected
	// (matched=false) unless a profile has been set first.
	SetLanguage(ctx context.Context, mobileNo string, lang LanguageUpdate) (matched bool, err error)
	ReferralCodeExists(ctx context.Context, code string) (bool, error)
}

// ProfileUpdate carries the set:profile fields.
type ProfileUpdate struct {
	FullName     string
	State        string
	ReferralCode string
	ReferredBy   string
}

// LanguageUpdate carries the set:language fields.
type LanguageUpdate struct {
	LanguageCode    string
	LanguageName    string
	RegionCode      string
	Timezone        string
	UserPreferences map[string]interface{}
}

// EventRepository appends audit event records.
type EventRepository interface {
	StoreConnectEvent(ctx context.Context, event *models.ConnectEvent) error
	StoreDeviceInfoEvent(ctx context.Context, event *models.DeviceInfoEvent) error
	StoreLoginEvent(ctx context.Context, event *models.LoginEvent) error
	StoreLoginSuccessEvent(ctx context.Context, event *models.LoginSuccessEvent) error
	StoreOtpVerificationEvent(ctx context.Context, event *models.OtpVerificationEvent) error
	StoreUserRegistrationEvent(ctx context.Context, event *models.UserRegistrationEvent) error
	StoreUserProfileEvent(ctx context.Context, event *models.UserProfileEvent) error
	StoreLanguageSettingEvent(ctx context.Context, event *models.LanguageSettingEvent) error
	StoreConnectionErrorEvent(ctx context.Context, event *models.ConnectionErrorEvent) error
}
