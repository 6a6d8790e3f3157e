package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// LoginSession is one OTP login attempt. Sessions are append-only: a new
// login supersedes earlier sessions for the same mobile number but never
// deletes them, and verification always matches the exact
// (mobile_no, session_token) pair.
type LoginSession struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	MobileNo     string        `bson:"mobile_no"`
	DeviceID     string        `bson:"device_id"`
	PushToken    string        `bson:"push_token"`
	Email        string        `bson:"email,omitempty"`
	SessionToken string        `bson:"session_token"`
	OTP          string        `bson:"otp"`
	CreatedAt    time.Time     `bson:"created_at"`
	ExpiresAt    time.Time     `bson:"expires_at"`
	Consumed     bool          `bson:"consumed"`
	Superseded   bool          `bson:"superseded"`
}

// Expired reports whether the session's OTP window has closed at the given instant.
func (s *LoginSession) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
