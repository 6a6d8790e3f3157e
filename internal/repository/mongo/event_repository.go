package mongo

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"game-admin-server/internal/client"
	"game-admin-server/internal/models"
	"game-admin-server/internal/util"
)

// Audit collections, one per event family.
const (
	connectEventCollection         = "connect_events"
	deviceInfoEventCollection      = "device_info_events"
	loginEventCollection           = "login_events"
	loginSuccessEventCollection    = "login_success_events"
	otpVerificationEventCollection = "otp_verification_events"
	userRegistrationCollection     = "user_registration_events"
	userProfileEventCollection     = "user_profile_events"
	languageSettingEventCollection = "language_setting_events"
	connectionErrorEventCollection = "connection_error_events"
)

type MongoEventRepository struct {
	client *client.MongoClient
}

func NewEventRepository(client *client.MongoClient, logger *zap.Logger) *MongoEventRepository {
	return &MongoEventRepository{client: client}
}

func (r *MongoEventRepository) insert(ctx context.Context, collection string, document interface{}) error {
	coll := r.client.Database.Collection(collection)
	if _, err := coll.InsertOne(ctx, document); err != nil {
		util.Error("Failed to store audit event",
			zap.String("collection", collection),
			zap.Error(err))
		return fmt.Errorf("failed to store %s event: %w", collection, err)
	}
	return nil
}

func (r *MongoEventRepository) StoreConnectEvent(ctx context.Context, event *models.ConnectEvent) error {
	stampNow(&event.Timestamp)
	return r.insert(ctx, connectEventCollection, event)
}

func (r *MongoEventRepository) StoreDeviceInfoEvent(ctx context.Context, event *models.DeviceInfoEvent) error {
	stampNow(&event.Timestamp)
	return r.insert(ctx, deviceInfoEventCollection, event)
}

func (r *MongoEventRepository) StoreLoginEvent(ctx context.Context, event *models.LoginEvent) error {
	stampNow(&event.Timestamp)
	return r.insert(ctx, loginEventCollection, event)
}

func (r *MongoEventRepository) StoreLoginSuccessEvent(ctx context.Context, event *models.LoginSuccessEvent) error {
	stampNow(&event.Timestamp)
	return r.insert(ctx, loginSuccessEventCollection, event)
}

func (r *MongoEventRepository) StoreOtpVerificationEvent(ctx context.Context, event *models.OtpVerificationEvent) error {
	stampNow(&event.Timestamp)
	return r.insert(ctx, otpVerificationEventCollection, event)
}

func (r *MongoEventRepository) StoreUserRegistrationEvent(ctx context.Context, event *models.UserRegistrationEvent) error {
	stampNow(&event.Timestamp)
	return r.insert(ctx, userRegistrationCollection, event)
}

func (r *MongoEventRepository) StoreUserProfileEvent(ctx context.Context, event *models.UserProfileEvent) error {
	stampNow(&event.Timestamp)
	return r.insert(ctx, userProfileEventCollection, event)
}

func (r *MongoEventRepository) StoreLanguageSettingEvent(ctx context.Context, event *models.LanguageSettingEvent) error {
	stampNow(&event.Timestamp)
	return r.insert(ctx, languageSettingEventCollection, event)
}

func (r *MongoEventRepository) StoreConnectionErrorEvent(ctx context.Context, event *models.ConnectionErrorEvent) error {
	stampNow(&event.Timestamp)
	return r.insert(ctx, connectionErrorEventCollection, event)
}

func stampNow(t *time.Time) {
	if t.IsZero() {
		*t = time.Now().UTC()
	}
}
