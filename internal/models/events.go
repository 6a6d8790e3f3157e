package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Audit event records. One collection per event family, append-only; nothing
// here is ever read back on the hot path.

type ConnectEvent struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	ConnectionID string        `bson:"connection_id"`
	Timestamp    time.Time     `bson:"timestamp"`
	Token        int           `bson:"token"`
	Message      string        `bson:"message"`
	Status       string        `bson:"status"`
}

type DeviceInfoEvent struct {
	ID              bson.ObjectID `bson:"_id,omitempty"`
	ConnectionID    string        `bson:"connection_id"`
	Timestamp       time.Time     `bson:"timestamp"`
	DeviceID        string        `bson:"device_id"`
	DeviceType      string        `bson:"device_type"`
	Manufacturer    string        `bson:"manufacturer,omitempty"`
	Model           string        `bson:"model,omitempty"`
	FirmwareVersion string        `bson:"firmware_version,omitempty"`
	Capabilities    []string      `bson:"capabilities,omitempty"`
}

type LoginEvent struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	ConnectionID string        `bson:"connection_id"`
	Timestamp    time.Time     `bson:"timestamp"`
	MobileNo     string        `bson:"mobile_no"`
	DeviceID     string        `bson:"device_id"`
	PushToken    string        `bson:"push_token"`
	Email        string        `bson:"email,omitempty"`
}

type LoginSuccessEvent struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	ConnectionID string        `bson:"connection_id"`
	Timestamp    time.Time     `bson:"timestamp"`
	MobileNo     string        `bson:"mobile_no"`
	DeviceID     string        `bson:"device_id"`
	SessionToken string        `bson:"session_token"`
	OTP          string        `bson:"otp"`
	ExpiresAt    time.Time     `bson:"expires_at"`
}

type OtpVerificationEvent struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	ConnectionID string        `bson:"connection_id"`
	Timestamp    time.Time     `bson:"timestamp"`
	MobileNo     string        `bson:"mobile_no"`
	SessionToken string        `bson:"session_token"`
	OTP          string        `bson:"otp"`
	IsSuccess    bool          `bson:"is_success"`
	Outcome      string        `bson:"outcome"`
	Attempts     int64         `bson:"attempts"`
	UserID       string        `bson:"user_id,omitempty"`
	UserNumber   uint64        `bson:"user_number,omitempty"`
}

type UserRegistrationEvent struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	ConnectionID string        `bson:"connection_id"`
	Timestamp    time.Time     `bson:"timestamp"`
	UserID       string        `bson:"user_id"`
	UserNumber   uint64        `bson:"user_number"`
	MobileNo     string        `bson:"mobile_no"`
	DeviceID     string        `bson:"device_id"`
	PushToken    string        `bson:"push_token"`
	Email        string        `bson:"email,omitempty"`
}

type UserProfileEvent struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	ConnectionID string        `bson:"connection_id"`
	Timestamp    time.Time     `bson:"timestamp"`
	UserID       string        `bson:"user_id"`
	UserNumber   uint64        `bson:"user_number"`
	MobileNo     string        `bson:"mobile_no"`
	FullName     string        `bson:"full_name"`
}

type LanguageSettingEvent struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	ConnectionID string        `bson:"connection_id"`
	Timestamp    time.Time     `bson:"timestamp"`
	UserID       string        `bson:"user_id"`
	UserNumber   uint64        `bson:"user_number"`
	MobileNo     string        `bson:"mobile_no"`
	LanguageCode string        `bson:"language_code"`
	LanguageName string        `bson:"language_name"`
	RegionCode   string        `bson:"region_code,omitempty"`
	Timezone     string        `bson:"timezone,omitempty"`
}

type ConnectionErrorEvent struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	ConnectionID string        `bson:"connection_id"`
	Timestamp    time.Time     `bson:"timestamp"`
	Status       string        `bson:"status"`
	ErrorCode    string        `bson:"error_code"`
	ErrorType    string        `bson:"error_type"`
	Field        string        `bson:"field,omitempty"`
	Message      string        `bson:"message"`
	Event        string        `bson:"event"`
	Details      bson.M        `bson:"details,omitempty"`
}
