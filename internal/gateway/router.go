package gateway

import (
	"context"
	"fmt"
	"time"

	"game-admin-server/internal/models"
	"game-admin-server/internal/service"
	"game-admin-server/internal/util"
	"game-admin-server/internal/validation"
)

// Handler-level error codes carried on the unified error event.
const (
	codeInvalidOTP        = "INVALID_OTP"
	codeOtpExpired        = "OTP_EXPIRED"
	codeSessionNotFound   = "SESSION_NOT_FOUND"
	codeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	codeUnknownEvent      = "UNKNOWN_EVENT"
	codeNotAuthenticated  = "NOT_AUTHENTICATED"
	codeProfileRequired   = "PROFILE_REQUIRED"
	codeStorageError      = "STORAGE_ERROR"
)

const (
	typeVerificationError = "VERIFICATION_ERROR"
	typeRateLimitError    = "RATE_LIMIT_ERROR"
	typeEventError        = "EVENT_ERROR"
	typeAuthError         = "AUTH_ERROR"
	typeStorageError      = "STORAGE_ERROR"
)

type eventHandler func(ctx context.Context, conn *Conn, data interface{})

// EventRouter dispatches inbound named events to their handlers and
// funnels every failure into one outbound error event. Handlers never
// let an error escape past the router.
type EventRouter struct {
	registry *ConnectionRegistry
	guard    *ConnectionGuard

	otp    *service.OTPService
	users  *service.UserService
	tokens *service.TokenService
	audit  *service.AuditService

	handlers map[string]eventHandler
	now      func() time.Time
}

func NewEventRouter(
	registry *ConnectionRegistry,
	guard *ConnectionGuard,
	factory *service.ServiceFactory,
) *EventRouter {
	r := &EventRouter{
		registry: registry,
		guard:    guard,
		otp:      factory.OTPService(),
		users:    factory.UserService(),
		tokens:   factory.TokenService(),
		audit:    factory.AuditService(),
		now:      time.Now,
	}
	r.handlers = map[string]eventHandler{
		"login":        r.handleLogin,
		"verify:otp":   r.handleVerifyOtp,
		"set:profile":  r.handleSetProfile,
		"set:language": r.handleSetLanguage,
		"device:info":  r.handleDeviceInfo,
	}
	return r
}

// Dispatch routes one inbound event. Only routable connections get
// events: a problematic or disconnected connection is skipped.
func (r *EventRouter) Dispatch(ctx context.Context, conn *Conn, msg inboundEvent) {
	switch conn.State() {
	case StateProblematic, StateDisconnected:
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.guard.Report(Fault{
				ConnectionID: conn.ID,
				Cause:        fmt.Errorf("handler panic on %q: %v", msg.Event, rec),
			})
		}
	}()

	handler, ok := r.handlers[msg.Event]
	if !ok {
		r.emitError(ctx, conn, msg.Event, &validation.ValidationError{
			Code:    codeUnknownEvent,
			Type:    typeEventError,
			Message: fmt.Sprintf("unknown event: %s", msg.Event),
			Details: map[string]interface{}{"received_event": msg.Event},
		})
		return
	}
	handler(ctx, conn, msg.Data)
}

// emitError sends the unified error event and records it for audit.
func (r *EventRouter) emitError(ctx context.Context, conn *Conn, event string, verr *validation.ValidationError) {
	ts := r.now().UTC().Format(time.RFC3339)
	details := verr.Details
	if details == nil {
		details = map[string]interface{}{}
	}
	payload := map[string]interface{}{
		"status":        "error",
		"error_code":    verr.Code,
		"error_type":    verr.Type,
		"message":       verr.Message,
		"details":       details,
		"timestamp":     ts,
		"connection_id": conn.ID,
		"event":         event,
	}
	if verr.Field != "" {
		payload["field"] = verr.Field
	}

	if err := conn.Emit("connection_error", payload); err != nil {
		util.Get().Warn("error event not delivered",
			util.String("connection_id", conn.ID),
			util.String("event", event),
			util.ErrorField(err))
	}

	r.audit.RecordConnectionError(ctx, &models.ConnectionErrorEvent{
		ConnectionID: conn.ID,
		Status:       "error",
		Event:        event,
		ErrorCode:    verr.Code,
		ErrorType:    verr.Type,
		Field:        verr.Field,
		Message:      verr.Message,
	})
}

func handlerError(code, errType, message string, details map[string]interface{}) *validation.ValidationError {
	if details == nil {
		details = map[string]interface{}{}
	}
	return &validation.ValidationError{Code: code, Type: errType, Message: message, Details: details}
}
