package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"

	"game-admin-server/internal/client"
	"game-admin-server/internal/models"
	"game-admin-server/internal/util"
)

const (
	userCollection    = "users"
	counterCollection = "counters"
	userNumberCounter = "user_number"
)

type MongoUserRepository struct {
	client *client.MongoClient
}

func NewUserRepository(client *client.MongoClient, logger *zap.Logger) *MongoUserRepository {
	return &MongoUserRepository{client: client}
}

func (r *MongoUserRepository) users() *mongo.Collection {
	return r.client.Database.Collection(userCollection)
}

func (r *MongoUserRepository) counters() *mongo.Collection {
	return r.client.Database.Collection(counterCollection)
}

func (r *MongoUserRepository) FindByMobile(ctx context.Context, mobileNo string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"mobile_no": mobileNo})
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	err := r.users().FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		util.Error("Failed to find user", zap.Any("filter", filter), zap.Error(err))
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

// NextUserNumber increments the shared counter document and returns the new
// value. The increment happens inside MongoDB, so multiple server processes
// drawing numbers concurrently never receive the same one.
func (r *MongoUserRepository) NextUserNumber(ctx context.Context) (uint64, error) {
	filter := bson.M{"_id": userNumberCounter}
	update := bson.M{"$inc": bson.M{"value": 1}}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var counter models.Counter
	if err := r.counters().FindOneAndUpdate(ctx, filter, update, opts).Decode(&counter); err != nil {
		util.Error("Failed to increment user number counter", zap.Error(err))
		return 0, fmt.Errorf("failed to increment user number counter: %w", err)
	}

	return counter.Value, nil
}

func (r *MongoUserRepository) InsertUser(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	if _, err := r.users().InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("user %s: %w", user.MobileNo, ErrDuplicate)
		}
		util.Error("Failed to insert user",
			zap.String("mobile_no", user.MobileNo),
			zap.Error(err))
		return fmt.Errorf("failed to insert user: %w", err)
	}

	util.Info("User registered",
		zap.String("user_id", user.UserID),
		zap.Uint64("user_number", user.UserNumber),
		zap.String("mobile_no", user.MobileNo))

	return nil
}

func (r *MongoUserRepository) RefreshLogin(ctx context.Context, mobileNo, deviceID, pushToken string, now time.Time) (*models.User, error) {
	filter := bson.M{"mobile_no": mobileNo}
	update := bson.M{
		"$set": bson.M{
			"device_id":  deviceID,
			"push_token": pushToken,
			"last_login": now,
			"updated_at": now,
		},
		"$inc": bson.M{"login_count": 1},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user models.User
	err := r.users().FindOneAndUpdate(ctx, filter, update, opts).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		util.Error("Failed to refresh user login",
			zap.String("mobile_no", mobileNo),
			zap.Error(err))
		return nil, fmt.Errorf("failed to refresh user login: %w", err)
	}

	return &user, nil
}

// SetProfile is conditional on the onboarding workflow: legal from the
// registered state (first set) or profile_set (profile correction).
func (r *MongoUserRepository) SetProfile(ctx context.Context, mobileNo string, profile ProfileUpdate) (bool, error) {
	set := bson.M{
		"full_name":        profile.FullName,
		"onboarding_state": models.OnboardingProfileSet,
		"updated_at":       time.Now().UTC(),
	}
	if profile.State != "" {
		set["state"] = profile.State
	}
	if profile.ReferralCode != "" {
		set["referral_code"] = profile.ReferralCode
	}
	if profile.ReferredBy != "" {
		set["referred_by"] = profile.ReferredBy
	}

	filter := bson.M{
		"mobile_no": mobileNo,
		"onboarding_state": bson.M{
			"$in": []string{models.OnboardingRegistered, models.OnboardingProfileSet},
		},
	}

	result, err := r.users().UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		util.Error("Failed to set user profile",
			zap.String("mobile_no", mobileNo),
			zap.Error(err))
		return false, fmt.Errorf("failed to set user profile: %w", err)
	}

	return result.MatchedCount > 0, nil
}

// SetLanguage requires a profile first; the filter rejects users still in the
// registered state so the workflow stays linear.
func (r *MongoUserRepository) SetLanguage(ctx context.Context, mobileNo string, lang LanguageUpdate) (bool, error) {
	set := bson.M{
		"language_code":    lang.LanguageCode,
		"language_name":    lang.LanguageName,
		"onboarding_state": models.OnboardingLanguageSet,
		"updated_at":       time.Now().UTC(),
	}
	if lang.RegionCode != "" {
		set["region_code"] = lang.RegionCode
	}
	if lang.Timezone != "" {
		set["timezone"] = lang.Timezone
	}
	if len(lang.UserPreferences) > 0 {
		set["user_preferences"] = lang.UserPreferences
	}

	filter := bson.M{
		"mobile_no": mobileNo,
		"onboarding_state": bson.M{
			"$in": []string{models.OnboardingProfileSet, models.OnboardingLanguageSet},
		},
	}

	result, err := r.users().UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		util.Error("Failed to set user language",
			zap.String("mobile_no", mobileNo),
			zap.Error(err))
		return false, fmt.Errorf("failed to set user language: %w", err)
	}

	return result.MatchedCount > 0, nil
}

func (r *MongoUserRepository) ReferralCodeExists(ctx context.Context, code string) (bool, error) {
	count, err := r.users().CountDocuments(ctx, bson.M{"referral_code": code}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check referral code: %w", err)
	}
	return count > 0, nil
}
