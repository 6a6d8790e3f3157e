package client

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"

	"game-admin-server/internal/config"
	"game-admin-server/internal/util"
)

type MongoClient struct {
	Client   *mongo.Client
	Database *mongo.Database
	config   *config.MongoConfig
}

// NewMongoClient connects to MongoDB, verifies the connection, and ensures
// the indexes the auth flow relies on.
func NewMongoClient(cfg *config.Config, logger *zap.Logger) (*MongoClient, error) {
	mongoConfig := cfg.Mongo

	opts := options.Client().
		ApplyURI(mongoConfig.URI).
		SetConnectTimeout(mongoConfig.Timeout).
		SetServerSelectionTimeout(mongoConfig.Timeout)

	mc, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create MongoDB client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), mongoConfig.Timeout)
	defer cancel()

	if err := mc.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	db := mc.Database(mongoConfig.Database)

	client := &MongoClient{
		Client:   mc,
		Database: db,
		config:   &mongoConfig,
	}

	if err := client.ensureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure indexes: %w", err)
	}

	util.Info("MongoDB client initialized",
		zap.String("database", mongoConfig.Database))

	return client, nil
}

// ensureIndexes creates the lookup and uniqueness indexes. mobile_no on users
// is unique so concurrent first-time registrations cannot create two records;
// (mobile_no, session_token) backs the exact-match session lookup.
func (m *MongoClient) ensureIndexes(ctx context.Context) error {
	users := m.Database.Collection("users")
	_, err := users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "mobile_no", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "user_number", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("users indexes: %w", err)
	}

	sessions := m.Database.Collection("login_sessions")
	_, err = sessions.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "mobile_no", Value: 1}, {Key: "session_token", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "expires_at", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("login_sessions indexes: %w", err)
	}

	return nil
}

func (m *MongoClient) HealthCheck(ctx context.Context) error {
	if err := m.Client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("mongodb ping failed: %w", err)
	}
	return nil
}

func (m *MongoClient) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := m.Client.Disconnect(ctx); err != nil {
		util.Error("failed to close MongoDB client", zap.Error(err))
		return err
	}
	util.Info("MongoDB client closed")
	return nil
}
