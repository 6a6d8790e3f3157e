package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"game-admin-server/internal/client"
	"game-admin-server/internal/models"
	mongorepo "game-admin-server/internal/repository/mongo"
	"game-admin-server/internal/util"
)

// AuditService appends event records to the audit collections and, when a
// producer is configured, mirrors them onto the Kafka audit topic. Everything
// here is best-effort: a failed audit write is logged, never surfaced to the
// request that triggered it.
type AuditService struct {
	events   mongorepo.EventRepository
	producer *client.KafkaProducer
}

func NewAuditService(events mongorepo.EventRepository, producer *client.KafkaProducer, logger *zap.Logger) *AuditService {
	return &AuditService{
		events:   events,
		producer: producer,
	}
}

func (s *AuditService) RecordConnect(ctx context.Context, event *models.ConnectEvent) {
	if err := s.events.StoreConnectEvent(ctx, event); err != nil {
		util.Warn("Failed to record connect event", zap.Error(err))
	}
	s.publish(ctx, "connect", event.ConnectionID, event)
}

func (s *AuditService) RecordDeviceInfo(ctx context.Context, event *models.DeviceInfoEvent) {
	if err := s.events.StoreDeviceInfoEvent(ctx, event); err != nil {
		util.Warn("Failed to record device info event", zap.Error(err))
	}
	s.publish(ctx, "device:info", event.ConnectionID, event)
}

func (s *AuditService) RecordLogin(ctx context.Context, event *models.LoginEvent) {
	if err := s.events.StoreLoginEvent(ctx, event); err != nil {
		util.Warn("Failed to record login event", zap.Error(err))
	}
	s.publish(ctx, "login", event.MobileNo, event)
}

func (s *AuditService) RecordLoginSuccess(ctx context.Context, event *models.LoginSuccessEvent) {
	if err := s.events.StoreLoginSuccessEvent(ctx, event); err != nil {
		util.Warn("Failed to record login success event", zap.Error(err))
	}
	s.publish(ctx, "login:success", event.MobileNo, event)
}

func (s *AuditService) RecordVerification(ctx context.Context, event *models.OtpVerificationEvent) {
	if err := s.events.StoreOtpVerificationEvent(ctx, event); err != nil {
		util.Warn("Failed to record OTP verification event", zap.Error(err))
	}
	s.publish(ctx, "verify:otp", event.MobileNo, event)
}

func (s *AuditService) RecordRegistration(ctx context.Context, event *models.UserRegistrationEvent) {
	if err := s.events.StoreUserRegistrationEvent(ctx, event); err != nil {
		util.Warn("Failed to record user registration event", zap.Error(err))
	}
	s.publish(ctx, "user:registered", event.MobileNo, event)
}

func (s *AuditService) RecordProfile(ctx context.Context, event *models.UserProfileEvent) {
	if err := s.events.StoreUserProfileEvent(ctx, event); err != nil {
		util.Warn("Failed to record profile event", zap.Error(err))
	}
	s.publish(ctx, "set:profile", event.MobileNo, event)
}

func (s *AuditService) RecordLanguage(ctx context.Context, event *models.LanguageSettingEvent) {
	if err := s.events.StoreLanguageSettingEvent(ctx, event); err != nil {
		util.Warn("Failed to record language event", zap.Error(err))
	}
	s.publish(ctx, "set:language", event.MobileNo, event)
}

func (s *AuditService) RecordConnectionError(ctx context.Context, event *models.ConnectionErrorEvent) {
	if err := s.events.StoreConnectionErrorEvent(ctx, event); err != nil {
		util.Warn("Failed to record connection error event", zap.Error(err))
	}
	s.publish(ctx, "connection_error", event.ConnectionID, event)
}

type auditEnvelope struct {
	Event     string      `json:"event"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

func (s *AuditService) publish(ctx context.Context, event, key string, payload interface{}) {
	if s.producer == nil {
		return
	}

	value, err := json.Marshal(auditEnvelope{
		Event:     event,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
	if err != nil {
		util.Warn("Failed to marshal audit envelope", zap.String("event", event), zap.Error(err))
		return
	}

	if err := s.producer.Publish(ctx, key, value); err != nil {
		util.Warn("Failed to publish audit event", zap.String("event", event), zap.Error(err))
	}
}
