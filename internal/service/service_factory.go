package service

import (
	"go.uber.org/zap"

	"game-admin-server/internal/client"
	"game-admin-server/internal/config"
	mongorepo "game-admin-server/internal/repository/mongo"
)

// ServiceFactory creates and manages service instances
type ServiceFactory struct {
	cfg      *config.Config
	sessions mongorepo.SessionRepository
	users    mongorepo.UserRepository
	events   mongorepo.EventRepository
	attempts AttemptTracker
	producer *client.KafkaProducer
	logger   *zap.Logger

	userService  *UserService
	otpService   *OTPService
	tokenService *TokenService
	auditService *AuditService
}

func NewServiceFactory(
	cfg *config.Config,
	sessions mongorepo.SessionRepository,
	users mongorepo.UserRepository,
	events mongorepo.EventRepository,
	attempts AttemptTracker,
	producer *client.KafkaProducer,
	logger *zap.Logger,
) *ServiceFactory {
	return &ServiceFactory{
		cfg:      cfg,
		sessions: sessions,
		users:    users,
		events:   events,
		attempts: attempts,
		producer: producer,
		logger:   logger,
	}
}

// UserService returns the user service instance (singleton)
func (f *ServiceFactory) UserService() *UserService {
	if f.userService == nil {
		f.userService = NewUserService(f.users, f.logger)
	}
	return f.userService
}

// OTPService returns the OTP service instance (singleton)
func (f *ServiceFactory) OTPService() *OTPService {
	if f.otpService == nil {
		f.otpService = NewOTPService(
			f.sessions,
			f.UserService(),
			f.attempts,
			f.cfg.OTP.SessionTTL,
			f.cfg.OTP.MaxAttempts,
			f.logger,
		)
	}
	return f.otpService
}

// TokenService returns the credential service instance (singleton)
func (f *ServiceFactory) TokenService() *TokenService {
	if f.tokenService == nil {
		f.tokenService = NewTokenService(f.cfg.JWT.Secret, f.cfg.JWT.TokenExpiry, f.logger)
	}
	return f.tokenService
}

// AuditService returns the audit service instance (singleton)
func (f *ServiceFactory) AuditService() *AuditService {
	if f.auditService == nil {
		f.auditService = NewAuditService(f.events, f.producer, f.logger)
	}
	return f.auditService
}
