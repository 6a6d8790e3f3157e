package factory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"game-admin-server/internal/client"
	"game-admin-server/internal/config"
	"game-admin-server/internal/gateway"
	mongorepo "game-admin-server/internal/repository/mongo"
	redisrepo "game-admin-server/internal/repository/redis"
	"game-admin-server/internal/service"
	"game-admin-server/internal/tls"
	"game-admin-server/internal/util"
)

// Factory manages the lifecycle of all application dependencies
type Factory struct {
	config     *config.Config
	tlsManager *tls.TLSManager

	// Clients
	mongoClient   *client.MongoClient
	redisClient   *client.RedisClient
	kafkaProducer *client.KafkaProducer

	// Repositories
	sessionRepository mongorepo.SessionRepository
	userRepository    mongorepo.UserRepository
	eventRepository   mongorepo.EventRepository
	attemptCache      *redisrepo.AttemptCache

	serviceFactory *service.ServiceFactory

	// Gateway
	registry *gateway.ConnectionRegistry
	guard    *gateway.ConnectionGuard
	router   *gateway.EventRouter
	wsServer *gateway.Server

	closeOnce sync.Once
	closed    chan struct{}
}

// NewFactory creates and initializes all application dependencies
func NewFactory() (*Factory, error) {
	cfg := config.LoadConfig()

	util.Init(cfg.Environment, cfg.Logging.Level, cfg.Logging.Format)

	factory := &Factory{
		config: cfg,
		closed: make(chan struct{}),
	}

	if cfg.Server.EnableTLS {
		tlsConfig := &tls.TLSConfig{
			EnableTLS:   cfg.Server.EnableTLS,
			AutoCert:    cfg.Server.AutoCert,
			Domain:      cfg.Server.Domain,
			CertFile:    cfg.Server.CertFile,
			KeyFile:     cfg.Server.KeyFile,
			AutoCertDir: cfg.Server.AutoCertDir,
			Email:       cfg.Server.Email,
			Environment: cfg.Environment,
		}
		factory.tlsManager = tls.NewTLSManager(tlsConfig)
	}

	if err := factory.initializeClients(); err != nil {
		return nil, fmt.Errorf("failed to initialize clients: %w", err)
	}

	factory.initializeGateway()

	util.Info("Factory initialized successfully",
		util.String("environment", cfg.Environment),
		util.Bool("tls_enabled", cfg.Server.EnableTLS),
		util.Bool("kafka_enabled", cfg.Kafka.Enabled),
	)

	return factory, nil
}

// initializeClients initializes all external service clients with health checks
func (f *Factory) initializeClients() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var initErrors []error

	// MongoDB
	if mongoClient, err := client.NewMongoClient(f.config, util.Get()); err != nil {
		initErrors = append(initErrors, fmt.Errorf("mongo: %w", err))
	} else {
		f.mongoClient = mongoClient
		if err := f.mongoClient.HealthCheck(ctx); err != nil {
			initErrors = append(initErrors, fmt.Errorf("mongo health check: %w", err))
		} else {
			util.Info("MongoDB client initialized and healthy")
		}
	}

	// Redis
	if redisClient, err := client.NewRedisClient(f.config, util.Get()); err != nil {
		initErrors = append(initErrors, fmt.Errorf("redis: %w", err))
	} else {
		f.redisClient = redisClient
		if err := f.redisClient.HealthCheck(ctx); err != nil {
			initErrors = append(initErrors, fmt.Errorf("redis health check: %w", err))
		} else {
			util.Info("Redis client initialized and healthy")
		}
	}

	// Kafka is optional; audit events fall back to store-only recording
	if f.config.Kafka.Enabled {
		if producer, err := client.NewKafkaProducer(f.config, util.Get()); err != nil {
			util.Warn("Kafka producer initialization failed - proceeding without Kafka", util.ErrorField(err))
		} else {
			f.kafkaProducer = producer
			util.Info("Kafka producer initialized")
		}
	}

	if len(initErrors) > 0 {
		if f.config.IsProduction() {
			return fmt.Errorf("critical service initialization failed: %v", initErrors)
		}
		for _, err := range initErrors {
			util.Warn("Service initialization warning", util.ErrorField(err))
		}
	}

	return nil
}

// initializeGateway wires the connection registry, guard, and event router
func (f *Factory) initializeGateway() {
	f.registry = gateway.NewConnectionRegistry()
	f.guard = gateway.NewConnectionGuard(f.registry)
	f.router = gateway.NewEventRouter(f.registry, f.guard, f.ServiceFactory())
	f.wsServer = gateway.NewServer(f.registry, f.guard, f.router, f.ServiceFactory().AuditService())

	util.Info("Gateway initialized successfully")
}

// ==============================
// Repository Initialization
// ==============================

func (f *Factory) SessionRepository() mongorepo.SessionRepository {
	if f.sessionRepository == nil {
		f.sessionRepository = mongorepo.NewSessionRepository(f.mongoClient, util.Get())
	}
	return f.sessionRepository
}

func (f *Factory) UserRepository() mongorepo.UserRepository {
	if f.userRepository == nil {
		f.userRepository = mongorepo.NewUserRepository(f.mongoClient, util.Get())
	}
	return f.userRepository
}

func (f *Factory) EventRepository() mongorepo.EventRepository {
	if f.eventRepository == nil {
		f.eventRepository = mongorepo.NewEventRepository(f.mongoClient, util.Get())
	}
	return f.eventRepository
}

func (f *Factory) AttemptCache() *redisrepo.AttemptCache {
	if f.attemptCache == nil {
		f.attemptCache = redisrepo.NewAttemptCache(f.redisClient, f.config.OTP.SessionTTL, util.Get())
	}
	return f.attemptCache
}

// ==============================
// Service Factory
// ==============================

func (f *Factory) ServiceFactory() *service.ServiceFactory {
	if f.serviceFactory == nil {
		f.serviceFactory = service.NewServiceFactory(
			f.config,
			f.SessionRepository(),
			f.UserRepository(),
			f.EventRepository(),
			f.AttemptCache(),
			f.kafkaProducer,
			util.Get(),
		)
	}
	return f.serviceFactory
}

// ==============================
// Health Checks
// ==============================

func (f *Factory) HealthCheck(ctx context.Context) map[string]error {
	healthErrors := make(map[string]error)

	if f.mongoClient != nil {
		if err := f.mongoClient.HealthCheck(ctx); err != nil {
			healthErrors["mongo"] = err
		}
	} else {
		healthErrors["mongo"] = fmt.Errorf("mongo client not initialized")
	}

	if f.redisClient != nil {
		if err := f.redisClient.HealthCheck(ctx); err != nil {
			healthErrors["redis"] = err
		}
	} else {
		healthErrors["redis"] = fmt.Errorf("redis client not initialized")
	}

	if f.kafkaProducer != nil {
		if err := f.kafkaProducer.HealthCheck(ctx); err != nil {
			healthErrors["kafka"] = err
		}
	}

	return healthErrors
}

func (f *Factory) IsHealthy(ctx context.Context) bool {
	healthErrors := f.HealthCheck(ctx)
	delete(healthErrors, "kafka")
	return len(healthErrors) == 0
}

func (f *Factory) Close() error {
	f.closeOnce.Do(func() {
		close(f.closed)
		util.Info("Shutting down factory...")

		if f.registry != nil {
			f.registry.CloseAll()
			util.Info("Active connections closed")
		}

		if f.kafkaProducer != nil {
			if err := f.kafkaProducer.Close(); err != nil {
				util.Error("Failed to close Kafka producer", util.ErrorField(err))
			} else {
				util.Info("Kafka producer closed")
			}
		}

		if f.redisClient != nil {
			if err := f.redisClient.Close(); err != nil {
				util.Error("Failed to close Redis client", util.ErrorField(err))
			} else {
				util.Info("Redis client closed")
			}
		}

		if f.mongoClient != nil {
			if err := f.mongoClient.Close(); err != nil {
				util.Error("Failed to close MongoDB client", util.ErrorField(err))
			} else {
				util.Info("MongoDB client closed")
			}
		}

		util.Sync()
		util.Info("Factory shutdown completed")
	})

	return nil
}

func (f *Factory) WaitForClose() {
	<-f.closed
}

// ==============================
// Other Utility Methods
// ==============================

func (f *Factory) Config() *config.Config {
	return f.config
}

func (f *Factory) TLSManager() *tls.TLSManager {
	return f.tlsManager
}

func (f *Factory) Guard() *gateway.ConnectionGuard {
	return f.guard
}

func (f *Factory) WSServer() *gateway.Server {
	return f.wsServer
}
