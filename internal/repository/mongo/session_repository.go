package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.uber.org/zap"

	"game-admin-server/internal/client"
	"game-admin-server/internal/models"
	"game-admin-server/internal/util"
)

const sessionCollection = "login_sessions"

type MongoSessionRepository struct {
	client *client.MongoClient
}

func NewSessionRepository(client *client.MongoClient, logger *zap.Logger) *MongoSessionRepository {
	return &MongoSessionRepository{client: client}
}

func (r *MongoSessionRepository) collection() *mongo.Collection {
	return r.client.Database.Collection(sessionCollection)
}

func (r *MongoSessionRepository) CreateSession(ctx context.Context, session *models.LoginSession) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}

	if _, err := r.collection().InsertOne(ctx, session); err != nil {
		util.Error("Failed to create login session",
			zap.String("mobile_no", session.MobileNo),
			zap.Error(err))
		return fmt.Errorf("failed to create login session: %w", err)
	}

	util.Info("Login session created",
		zap.String("mobile_no", session.MobileNo),
		zap.Time("expires_at", session.ExpiresAt))

	return nil
}

func (r *MongoSessionRepository) FindByMobileAndToken(ctx context.Context, mobileNo, sessionToken string) (*models.LoginSession, error) {
	filter := bson.M{
		"mobile_no":     mobileNo,
		"session_token": sessionToken,
	}

	var session models.LoginSession
	err := r.collection().FindOne(ctx, filter).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		util.Error("Failed to find login session",
			zap.String("mobile_no", mobileNo),
			zap.Error(err))
		return nil, fmt.Errorf("failed to find login session: %w", err)
	}

	return &session, nil
}

// ConsumeSession is a single findAndModify so two concurrent verifications of
// the same session cannot both observe consumed=false.
func (r *MongoSessionRepository) ConsumeSession(ctx context.Context, mobileNo, sessionToken string) (bool, error) {
	filter := bson.M{
		"mobile_no":     mobileNo,
		"session_token": sessionToken,
		"consumed":      false,
	}
	update := bson.M{
		"$set": bson.M{"consumed": true},
	}

	err := r.collection().FindOneAndUpdate(ctx, filter, update).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		util.Error("Failed to consume login session",
			zap.String("mobile_no", mobileNo),
			zap.Error(err))
		return false, fmt.Errorf("failed to consume login session: %w", err)
	}

	return true, nil
}

func (r *MongoSessionRepository) SupersedePrior(ctx context.Context, mobileNo string) error {
	filter := bson.M{
		"mobile_no":  mobileNo,
		"consumed":   false,
		"superseded": false,
	}
	update := bson.M{
		"$set": bson.M{"superseded": true},
	}

	result, err := r.collection().UpdateMany(ctx, filter, update)
	if err != nil {
		util.Error("Failed to supersede prior sessions",
			zap.String("mobile_no", mobileNo),
			zap.Error(err))
		return fmt.Errorf("failed to supersede prior sessions: %w", err)
	}

	if result.ModifiedCount > 0 {
		util.Info("Superseded prior login sessions",
			zap.String("mobile_no", mobileNo),
			zap.Int64("count", result.ModifiedCount))
	}

	return nil
}
