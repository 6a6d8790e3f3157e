package gateway

import (
	"context"
	"errors"
	"time"

	"game-admin-server/internal/models"
	mongorepo "game-admin-server/internal/repository/mongo"
	"game-admin-server/internal/service"
	"game-admin-server/internal/util"
	"game-admin-server/internal/validation"
)

func (r *EventRouter) handleLogin(ctx context.Context, conn *Conn, data interface{}) {
	payload, verr := validation.ValidateLogin(data)
	if verr != nil {
		r.emitError(ctx, conn, "login", verr)
		return
	}

	conn.transition(StateAuthenticating)

	result, err := r.otp.Issue(ctx, service.IssueRequest{
		MobileNo:  payload.MobileNo,
		DeviceID:  payload.DeviceID,
		PushToken: payload.PushToken,
		Email:     payload.Email,
	})
	if err != nil {
		util.Error("otp issue failed",
			util.String("connection_id", conn.ID),
			util.String("mobile_no", payload.MobileNo),
			util.ErrorField(err))
		r.emitError(ctx, conn, "login", handlerError(
			codeStorageError, typeStorageError,
			"unable to create a login session, please retry", nil))
		return
	}

	conn.BindSession(payload.MobileNo, result.SessionToken)

	r.audit.RecordLogin(ctx, &models.LoginEvent{
		ConnectionID: conn.ID,
		MobileNo:     payload.MobileNo,
		DeviceID:     payload.DeviceID,
		PushToken:    payload.PushToken,
		Email:        payload.Email,
	})
	r.audit.RecordLoginSuccess(ctx, &models.LoginSuccessEvent{
		ConnectionID: conn.ID,
		MobileNo:     payload.MobileNo,
		DeviceID:     payload.DeviceID,
		SessionToken: result.SessionToken,
		OTP:          result.OTP,
		ExpiresAt:    result.ExpiresAt.UTC(),
	})

	if err := conn.Emit("login:success", map[string]interface{}{
		"status":        "success",
		"mobile_no":     payload.MobileNo,
		"session_token": result.SessionToken,
		"otp":           result.OTP,
		"is_new_user":   result.IsNewUser,
		"expires_at":    result.ExpiresAt.UTC().Format(time.RFC3339),
		"timestamp":     r.now().UTC().Format(time.RFC3339),
	}); err != nil {
		r.guard.Report(Fault{ConnectionID: conn.ID, Cause: err})
	}
}

func (r *EventRouter) handleVerifyOtp(ctx context.Context, conn *Conn, data interface{}) {
	payload, verr := validation.ValidateOtp(data)
	if verr != nil {
		r.emitError(ctx, conn, "verify:otp", verr)
		return
	}

	result, err := r.otp.Verify(ctx, service.VerifyRequest{
		MobileNo:     payload.MobileNo,
		SessionToken: payload.SessionToken,
		OTP:          payload.OTP,
	})
	if err != nil {
		util.Error("otp verification failed",
			util.String("connection_id", conn.ID),
			util.String("mobile_no", payload.MobileNo),
			util.ErrorField(err))
		r.emitError(ctx, conn, "verify:otp", handlerError(
			codeStorageError, typeStorageError,
			"unable to verify the code, please retry", nil))
		return
	}

	r.audit.RecordVerification(ctx, &models.OtpVerificationEvent{
		ConnectionID: conn.ID,
		MobileNo:     payload.MobileNo,
		SessionToken: payload.SessionToken,
		OTP:          payload.OTP,
		IsSuccess:    result.Status == service.VerifySuccess,
		Outcome:      result.Status.String(),
		Attempts:     result.Attempts,
		UserID:       result.UserID,
		UserNumber:   result.UserNumber,
	})

	switch result.Status {
	case service.VerifySuccess:
	case service.VerifyRateLimited:
		r.emitError(ctx, conn, "verify:otp", handlerError(
			codeRateLimitExceeded, typeRateLimitError,
			"too many verification attempts, request a new code",
			map[string]interface{}{"attempts": result.Attempts, "max_attempts": r.otp.MaxAttempts()}))
		return
	case service.VerifyExpired:
		r.emitError(ctx, conn, "verify:otp", handlerError(
			codeOtpExpired, typeVerificationError,
			"the code has expired, request a new one", nil))
		return
	case service.VerifyNotFound:
		r.emitError(ctx, conn, "verify:otp", handlerError(
			codeSessionNotFound, typeVerificationError,
			"no matching login session was found", nil))
		return
	default:
		r.emitError(ctx, conn, "verify:otp", handlerError(
			codeInvalidOTP, typeVerificationError,
			"the code is incorrect",
			map[string]interface{}{"attempts": result.Attempts, "max_attempts": r.otp.MaxAttempts()}))
		return
	}

	user, err := r.users.GetByMobile(ctx, payload.MobileNo)
	if err != nil {
		r.emitError(ctx, conn, "verify:otp", handlerError(
			codeStorageError, typeStorageError,
			"verification succeeded but the account could not be loaded", nil))
		return
	}

	token, expiresIn, err := r.tokens.Issue(user)
	if err != nil {
		util.Error("credential issuance failed",
			util.String("connection_id", conn.ID),
			util.String("user_id", user.UserID),
			util.ErrorField(err))
		r.emitError(ctx, conn, "verify:otp", handlerError(
			codeStorageError, typeStorageError,
			"verification succeeded but no credential could be issued", nil))
		return
	}

	conn.BindUser(user.UserID, payload.MobileNo)
	conn.transition(StateAuthenticated)

	userStatus := "existing_user"
	if result.IsNewUser {
		userStatus = "new_user"
		r.audit.RecordRegistration(ctx, &models.UserRegistrationEvent{
			ConnectionID: conn.ID,
			UserID:       user.UserID,
			UserNumber:   user.UserNumber,
			MobileNo:     user.MobileNo,
			DeviceID:     user.DeviceID,
			PushToken:    user.PushToken,
			Email:        user.Email,
		})
	}
	if err := conn.Emit("otp:verified", map[string]interface{}{
		"status":           "success",
		"user_id":          user.UserID,
		"user_number":      user.UserNumber,
		"user_status":      userStatus,
		"onboarding_state": user.OnboardingState,
		"credential_token": token,
		"token_type":       "Bearer",
		"expires_in":       expiresIn,
		"timestamp":        r.now().UTC().Format(time.RFC3339),
	}); err != nil {
		r.guard.Report(Fault{ConnectionID: conn.ID, Cause: err})
	}
}

func (r *EventRouter) handleSetProfile(ctx context.Context, conn *Conn, data interface{}) {
	payload, verr := validation.ValidateProfile(data)
	if verr != nil {
		r.emitError(ctx, conn, "set:profile", verr)
		return
	}
	if !conn.Authenticated() {
		r.emitError(ctx, conn, "set:profile", handlerError(
			codeNotAuthenticated, typeAuthError,
			"verify your mobile number before setting a profile", nil))
		return
	}

	user, err := r.users.SetProfile(ctx, payload.MobileNo, mongorepo.ProfileUpdate{
		FullName:     payload.FullName,
		State:        payload.State,
		ReferralCode: payload.ReferralCode,
		ReferredBy:   payload.ReferredBy,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			r.emitError(ctx, conn, "set:profile", handlerError(
				codeNotAuthenticated, typeAuthError,
				"no account exists for this mobile number", nil))
		default:
			util.Error("profile update failed",
				util.String("connection_id", conn.ID),
				util.String("mobile_no", payload.MobileNo),
				util.ErrorField(err))
			r.emitError(ctx, conn, "set:profile", handlerError(
				codeStorageError, typeStorageError,
				"unable to save the profile, please retry", nil))
		}
		return
	}

	r.audit.RecordProfile(ctx, &models.UserProfileEvent{
		ConnectionID: conn.ID,
		UserID:       user.UserID,
		UserNumber:   user.UserNumber,
		MobileNo:     user.MobileNo,
		FullName:     user.FullName,
	})

	if err := conn.Emit("profile:set", map[string]interface{}{
		"status":           "success",
		"user_id":          user.UserID,
		"full_name":        user.FullName,
		"state":            user.State,
		"onboarding_state": user.OnboardingState,
		"timestamp":        r.now().UTC().Format(time.RFC3339),
	}); err != nil {
		r.guard.Report(Fault{ConnectionID: conn.ID, Cause: err})
	}
}

func (r *EventRouter) handleSetLanguage(ctx context.Context, conn *Conn, data interface{}) {
	payload, verr := validation.ValidateLanguage(data)
	if verr != nil {
		r.emitError(ctx, conn, "set:language", verr)
		return
	}
	if !conn.Authenticated() {
		r.emitError(ctx, conn, "set:language", handlerError(
			codeNotAuthenticated, typeAuthError,
			"verify your mobile number before setting a language", nil))
		return
	}

	user, err := r.users.SetLanguage(ctx, payload.MobileNo, mongorepo.LanguageUpdate{
		LanguageCode:    payload.LanguageCode,
		LanguageName:    payload.LanguageName,
		RegionCode:      payload.RegionCode,
		Timezone:        payload.Timezone,
		UserPreferences: payload.UserPreferences,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProfileRequired):
			r.emitError(ctx, conn, "set:language", handlerError(
				codeProfileRequired, typeAuthError,
				"set a profile before choosing a language", nil))
		case errors.Is(err, service.ErrUserNotFound):
			r.emitError(ctx, conn, "set:language", handlerError(
				codeNotAuthenticated, typeAuthError,
				"no account exists for this mobile number", nil))
		default:
			util.Error("language update failed",
				util.String("connection_id", conn.ID),
				util.String("mobile_no", payload.MobileNo),
				util.ErrorField(err))
			r.emitError(ctx, conn, "set:language", handlerError(
				codeStorageError, typeStorageError,
				"unable to save the language setting, please retry", nil))
		}
		return
	}

	r.audit.RecordLanguage(ctx, &models.LanguageSettingEvent{
		ConnectionID: conn.ID,
		UserID:       user.UserID,
		UserNumber:   user.UserNumber,
		MobileNo:     user.MobileNo,
		LanguageCode: user.LanguageCode,
		LanguageName: user.LanguageName,
		RegionCode:   user.RegionCode,
		Timezone:     user.Timezone,
	})

	if err := conn.Emit("language:set", map[string]interface{}{
		"status":           "success",
		"user_id":          user.UserID,
		"language_code":    user.LanguageCode,
		"language_name":    user.LanguageName,
		"onboarding_state": user.OnboardingState,
		"timestamp":        r.now().UTC().Format(time.RFC3339),
	}); err != nil {
		r.guard.Report(Fault{ConnectionID: conn.ID, Cause: err})
	}
}

func (r *EventRouter) handleDeviceInfo(ctx context.Context, conn *Conn, data interface{}) {
	payload, verr := validation.ValidateDeviceInfo(data)
	if verr != nil {
		r.emitError(ctx, conn, "device:info", verr)
		return
	}

	r.audit.RecordDeviceInfo(ctx, &models.DeviceInfoEvent{
		ConnectionID:    conn.ID,
		DeviceID:        payload.DeviceID,
		DeviceType:      payload.DeviceType,
		Manufacturer:    payload.Manufacturer,
		Model:           payload.Model,
		FirmwareVersion: payload.FirmwareVersion,
		Capabilities:    payload.Capabilities,
	})

	if err := conn.Emit("device:info:ack", map[string]interface{}{
		"status":    "success",
		"device_id": payload.DeviceID,
		"message":   "device info recorded",
		"timestamp": r.now().UTC().Format(time.RFC3339),
	}); err != nil {
		r.guard.Report(Fault{ConnectionID: conn.ID, Cause: err})
	}
}
