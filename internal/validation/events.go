package validation

import "strings"

// LoginPayload is the validated body of a "login" event.
type LoginPayload struct {
	MobileNo  string
	DeviceID  string
	PushToken string
	Email     string
	Timestamp string
}

// OtpPayload is the validated body of a "verify:otp" event.
type OtpPayload struct {
	MobileNo     string
	OTP          string
	SessionToken string
	Timestamp    string
}

// ProfilePayload is the validated body of a "set:profile" event.
type ProfilePayload struct {
	MobileNo     string
	FullName     string
	State        string
	ReferralCode string
	ReferredBy   string
	Timestamp    string
}

// LanguagePayload is the validated body of a "set:language" event.
type LanguagePayload struct {
	MobileNo        string
	LanguageCode    string
	LanguageName    string
	RegionCode      string
	Timezone        string
	UserPreferences map[string]interface{}
	Timestamp       string
}

// DeviceInfoPayload is the validated body of a "device:info" event.
type DeviceInfoPayload struct {
	DeviceID        string
	DeviceType      string
	Manufacturer    string
	Model           string
	FirmwareVersion string
	Capabilities    []string
	Timestamp       string
}

func validateMobileNo(obj map[string]interface{}) (string, *ValidationError) {
	mobile, verr := requireString(obj, "mobile_no")
	if verr != nil {
		return "", verr
	}
	if !allDigits(mobile) {
		return "", badFormat("mobile_no", "mobile_no must contain only digits", "0-9", mobile)
	}
	if len(mobile) < 10 || len(mobile) > 15 {
		return "", badLength("mobile_no", 10, 15, len(mobile))
	}
	return mobile, nil
}

func validateDeviceID(obj map[string]interface{}) (string, *ValidationError) {
	deviceID, verr := requireString(obj, "device_id")
	if verr != nil {
		return "", verr
	}
	if len(deviceID) < 3 || len(deviceID) > 50 {
		return "", badLength("device_id", 3, 50, len(deviceID))
	}
	if !deviceIDChars(deviceID) {
		return "", badFormat("device_id", "device_id contains invalid characters", "a-z A-Z 0-9 _ -", deviceID)
	}
	return deviceID, nil
}

func validateOptionalTimestamp(obj map[string]interface{}) (string, *ValidationError) {
	ts, present, verr := optionalString(obj, "timestamp")
	if verr != nil {
		return "", verr
	}
	if !present {
		return "", nil
	}
	if verr := validateTimestamp(ts, false); verr != nil {
		return "", verr
	}
	return ts, nil
}

// ValidateLogin checks a "login" event body.
func ValidateLogin(data interface{}) (*LoginPayload, *ValidationError) {
	obj, ok := data.(map[string]interface{})
	if !ok {
		return nil, notAnObject("login", data)
	}
	out := &LoginPayload{}
	var verr *ValidationError

	if out.MobileNo, verr = validateMobileNo(obj); verr != nil {
		return nil, verr
	}
	if out.DeviceID, verr = validateDeviceID(obj); verr != nil {
		return nil, verr
	}
	push, verr := requireString(obj, "push_token")
	if verr != nil {
		return nil, verr
	}
	if len(push) < 100 || len(push) > 500 {
		return nil, badLength("push_token", 100, 500, len(push))
	}
	out.PushToken = push

	email, present, verr := optionalString(obj, "email")
	if verr != nil {
		return nil, verr
	}
	if present {
		if !strings.Contains(email, "@") || !strings.Contains(email, ".") {
			return nil, badFormat("email", "email must be a valid email address", "user@example.com", email)
		}
		out.Email = email
	}
	if out.Timestamp, verr = validateOptionalTimestamp(obj); verr != nil {
		return nil, verr
	}
	return out, nil
}

// ValidateOtp checks a "verify:otp" event body.
func ValidateOtp(data interface{}) (*OtpPayload, *ValidationError) {
	obj, ok := data.(map[string]interface{})
	if !ok {
		return nil, notAnObject("verify:otp", data)
	}
	out := &OtpPayload{}
	var verr *ValidationError

	if out.MobileNo, verr = validateMobileNo(obj); verr != nil {
		return nil, verr
	}
	otp, verr := requireString(obj, "otp")
	if verr != nil {
		return nil, verr
	}
	if len(otp) != 6 {
		return nil, badExactLength("otp", 6, len(otp))
	}
	if !allDigits(otp) {
		return nil, badFormat("otp", "otp must contain only digits", "0-9", otp)
	}
	out.OTP = otp

	token, verr := requireString(obj, "session_token")
	if verr != nil {
		return nil, verr
	}
	out.SessionToken = token

	if out.Timestamp, verr = validateOptionalTimestamp(obj); verr != nil {
		return nil, verr
	}
	return out, nil
}

// ValidateProfile checks a "set:profile" event body.
func ValidateProfile(data interface{}) (*ProfilePayload, *ValidationError) {
	obj, ok := data.(map[string]interface{})
	if !ok {
		return nil, notAnObject("set:profile", data)
	}
	out := &ProfilePayload{}
	var verr *ValidationError

	if out.MobileNo, verr = validateMobileNo(obj); verr != nil {
		return nil, verr
	}
	name, verr := requireString(obj, "full_name")
	if verr != nil {
		return nil, verr
	}
	if len(name) < 2 || len(name) > 100 {
		return nil, badLength("full_name", 2, 100, len(name))
	}
	out.FullName = name

	state, verr := requireString(obj, "state")
	if verr != nil {
		return nil, verr
	}
	if len(state) < 2 || len(state) > 50 {
		return nil, badLength("state", 2, 50, len(state))
	}
	out.State = state

	for _, field := range []string{"referral_code", "referred_by"} {
		value, present, verr := optionalString(obj, field)
		if verr != nil {
			return nil, verr
		}
		if present {
			if len(value) < 4 || len(value) > 20 {
				return nil, badLength(field, 4, 20, len(value))
			}
			if field == "referral_code" {
				out.ReferralCode = value
			} else {
				out.ReferredBy = value
			}
		}
	}
	if out.Timestamp, verr = validateOptionalTimestamp(obj); verr != nil {
		return nil, verr
	}
	return out, nil
}

// ValidateLanguage checks a "set:language" event body.
func ValidateLanguage(data interface{}) (*LanguagePayload, *ValidationError) {
	obj, ok := data.(map[string]interface{})
	if !ok {
		return nil, notAnObject("set:language", data)
	}
	out := &LanguagePayload{}
	var verr *ValidationError

	if out.MobileNo, verr = validateMobileNo(obj); verr != nil {
		return nil, verr
	}
	code, verr := requireString(obj, "language_code")
	if verr != nil {
		return nil, verr
	}
	if len(code) != 2 {
		return nil, badExactLength("language_code", 2, len(code))
	}
	out.LanguageCode = code

	name, verr := requireString(obj, "language_name")
	if verr != nil {
		return nil, verr
	}
	if len(name) < 2 || len(name) > 50 {
		return nil, badLength("language_name", 2, 50, len(name))
	}
	out.LanguageName = name

	region, present, verr := optionalString(obj, "region_code")
	if verr != nil {
		return nil, verr
	}
	if present {
		if len(region) != 2 {
			return nil, badExactLength("region_code", 2, len(region))
		}
		out.RegionCode = region
	}

	tz, present, verr := optionalString(obj, "timezone")
	if verr != nil {
		return nil, verr
	}
	if present {
		if len(tz) < 3 || len(tz) > 50 {
			return nil, badLength("timezone", 3, 50, len(tz))
		}
		out.Timezone = tz
	}

	if raw, ok := obj["user_preferences"]; ok {
		prefs, isObj := raw.(map[string]interface{})
		if !isObj {
			return nil, &ValidationError{
				Code:    CodeInvalidType,
				Type:    TypeTypeError,
				Field:   "user_preferences",
				Message: "user_preferences must be an object",
				Details: map[string]interface{}{
					"expected_type": "object",
					"received_type": jsonTypeName(raw),
					"required":      false,
				},
			}
		}
		out.UserPreferences = prefs
	}

	if out.Timestamp, verr = validateOptionalTimestamp(obj); verr != nil {
		return nil, verr
	}
	return out, nil
}

// ValidateDeviceInfo checks a "device:info" event body.
func ValidateDeviceInfo(data interface{}) (*DeviceInfoPayload, *ValidationError) {
	obj, ok := data.(map[string]interface{})
	if !ok {
		return nil, notAnObject("device:info", data)
	}
	out := &DeviceInfoPayload{}
	var verr *ValidationError

	if out.DeviceID, verr = validateDeviceID(obj); verr != nil {
		return nil, verr
	}
	deviceType, verr := requireString(obj, "device_type")
	if verr != nil {
		return nil, verr
	}
	if len(deviceType) < 2 || len(deviceType) > 30 {
		return nil, badLength("device_type", 2, 30, len(deviceType))
	}
	out.DeviceType = deviceType

	for _, opt := range []struct {
		field string
		dst   *string
		min   int
		max   int
	}{
		{"manufacturer", &out.Manufacturer, 2, 50},
		{"model", &out.Model, 1, 50},
		{"firmware_version", &out.FirmwareVersion, 1, 30},
	} {
		value, present, verr := optionalString(obj, opt.field)
		if verr != nil {
			return nil, verr
		}
		if present {
			if len(value) < opt.min || len(value) > opt.max {
				return nil, badLength(opt.field, opt.min, opt.max, len(value))
			}
			*opt.dst = value
		}
	}

	if raw, ok := obj["capabilities"]; ok {
		items, isArray := raw.([]interface{})
		if !isArray {
			return nil, &ValidationError{
				Code:    CodeInvalidType,
				Type:    TypeTypeError,
				Field:   "capabilities",
				Message: "capabilities must be an array of strings",
				Details: map[string]interface{}{
					"expected_type": "array",
					"received_type": jsonTypeName(raw),
					"required":      false,
				},
			}
		}
		caps := make([]string, 0, len(items))
		for _, item := range items {
			s, isString := item.(string)
			if !isString || s == "" {
				return nil, &ValidationError{
					Code:    CodeInvalidValue,
					Type:    TypeValueError,
					Field:   "capabilities",
					Message: "capabilities entries must be non-empty strings",
					Details: map[string]interface{}{"received_type": jsonTypeName(item)},
				}
			}
			caps = append(caps, s)
		}
		out.Capabilities = caps
	}

	// Unlike the other events, device:info requires a client timestamp.
	ts, verr := requireString(obj, "timestamp")
	if verr != nil {
		return nil, verr
	}
	if verr := validateTimestamp(ts, true); verr != nil {
		return nil, verr
	}
	out.Timestamp = ts
	return out, nil
}
