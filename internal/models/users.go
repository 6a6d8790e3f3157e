package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Onboarding workflow states. The workflow is linear: a user sets a profile
// first, then a language. Out-of-order requests are rejected, not reordered.
const (
	OnboardingRegistered  = "registered"
	OnboardingProfileSet  = "profile_set"
	OnboardingLanguageSet = "language_set"
)

// User is the registered identity for a mobile number. UserID is a
// time-ordered UUID (v7); UserNumber is a globally monotonic sequence drawn
// from the counters collection.
type User struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	UserID       string        `bson:"user_id"`
	UserNumber   uint64        `bson:"user_number"`
	MobileNo     string        `bson:"mobile_no"`
	DeviceID     string        `bson:"device_id"`
	PushToken    string        `bson:"push_token"`
	Email        string        `bson:"email,omitempty"`
	FullName     string        `bson:"full_name,omitempty"`
	State        string        `bson:"state,omitempty"`
	ReferralCode string        `bson:"referral_code,omitempty"`
	ReferredBy   string        `bson:"referred_by,omitempty"`

	LanguageCode    string   `bson:"language_code,omitempty"`
	LanguageName    string   `bson:"language_name,omitempty"`
	RegionCode      string   `bson:"region_code,omitempty"`
	Timezone        string   `bson:"timezone,omitempty"`
	UserPreferences bson.M   `bson:"user_preferences,omitempty"`

	OnboardingState string     `bson:"onboarding_state"`
	IsActive        bool       `bson:"is_active"`
	LoginCount      int64      `bson:"login_count"`
	CreatedAt       time.Time  `bson:"created_at"`
	UpdatedAt       time.Time  `bson:"updated_at"`
	LastLogin       *time.Time `bson:"last_login,omitempty"`
}

// Counter backs the atomic user-number sequence. A single document per
// counter name is incremented with findAndModify so multiple server
// processes sharing the store never hand out duplicates.
type Counter struct {
	Name  string `bson:"_id"`
	Value uint64 `bson:"value"`
}
