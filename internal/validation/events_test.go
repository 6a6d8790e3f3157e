package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validLoginBody() map[string]interface{} {
	return map[string]interface{}{
		"mobile_no":  "9876543210",
		"device_id":  "device-abc-123",
		"push_token": strings.Repeat("t", 150),
	}
}

func TestValidateLogin(t *testing.T) {
	payload, verr := ValidateLogin(validLoginBody())
	require.Nil(t, verr)
	assert.Equal(t, "9876543210", payload.MobileNo)
	assert.Equal(t, "device-abc-123", payload.DeviceID)
}

func TestValidateLoginFailures(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(map[string]interface{})
		wantCode  string
		wantType  string
		wantField string
	}{
		{
			name:      "missing mobile",
			mutate:    func(b map[string]interface{}) { delete(b, "mobile_no") },
			wantCode:  CodeMissingField,
			wantType:  TypeFieldError,
			wantField: "mobile_no",
		},
		{
			name:      "empty mobile",
			mutate:    func(b map[string]interface{}) { b["mobile_no"] = "" },
			wantCode:  CodeEmptyField,
			wantType:  TypeValueError,
			wantField: "mobile_no",
		},
		{
			name:      "non-numeric mobile",
			mutate:    func(b map[string]interface{}) { b["mobile_no"] = "98765abcde" },
			wantCode:  CodeInvalidFormat,
			wantType:  TypeFormatError,
			wantField: "mobile_no",
		},
		{
			name:      "mobile too short",
			mutate:    func(b map[string]interface{}) { b["mobile_no"] = "12345" },
			wantCode:  CodeInvalidLength,
			wantType:  TypeLengthError,
			wantField: "mobile_no",
		},
		{
			name:      "mobile too long",
			mutate:    func(b map[string]interface{}) { b["mobile_no"] = "1234567890123456" },
			wantCode:  CodeInvalidLength,
			wantType:  TypeLengthError,
			wantField: "mobile_no",
		},
		{
			name:      "mobile wrong type",
			mutate:    func(b map[string]interface{}) { b["mobile_no"] = float64(9876543210) },
			wantCode:  CodeMissingField,
			wantType:  TypeFieldError,
			wantField: "mobile_no",
		},
		{
			name:      "device id bad characters",
			mutate:    func(b map[string]interface{}) { b["device_id"] = "device id!" },
			wantCode:  CodeInvalidFormat,
			wantType:  TypeFormatError,
			wantField: "device_id",
		},
		{
			name:      "device id too short",
			mutate:    func(b map[string]interface{}) { b["device_id"] = "ab" },
			wantCode:  CodeInvalidLength,
			wantType:  TypeLengthError,
			wantField: "device_id",
		},
		{
			name:      "push token too short",
			mutate:    func(b map[string]interface{}) { b["push_token"] = "short" },
			wantCode:  CodeInvalidLength,
			wantType:  TypeLengthError,
			wantField: "push_token",
		},
		{
			name:      "bad email",
			mutate:    func(b map[string]interface{}) { b["email"] = "not-an-email" },
			wantCode:  CodeInvalidFormat,
			wantType:  TypeFormatError,
			wantField: "email",
		},
		{
			name:      "bad timestamp",
			mutate:    func(b map[string]interface{}) { b["timestamp"] = "15-01-2024" },
			wantCode:  CodeInvalidFormat,
			wantType:  TypeFormatError,
			wantField: "timestamp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := validLoginBody()
			tt.mutate(body)
			_, verr := ValidateLogin(body)
			require.NotNil(t, verr)
			assert.Equal(t, tt.wantCode, verr.Code)
			assert.Equal(t, tt.wantType, verr.Type)
			assert.Equal(t, tt.wantField, verr.Field)
			assert.NotEmpty(t, verr.Message)
		})
	}
}

func TestValidateLoginRootNotObject(t *testing.T) {
	for _, data := range []interface{}{nil, "text", float64(1), []interface{}{}} {
		_, verr := ValidateLogin(data)
		require.NotNil(t, verr)
		assert.Equal(t, CodeInvalidFormat, verr.Code)
		assert.Equal(t, "root", verr.Field)
	}
}

func TestValidateOtp(t *testing.T) {
	body := map[string]interface{}{
		"mobile_no":     "9876543210",
		"otp":           "123456",
		"session_token": "abc123token",
	}
	payload, verr := ValidateOtp(body)
	require.Nil(t, verr)
	assert.Equal(t, "123456", payload.OTP)

	body["otp"] = "12345"
	_, verr = ValidateOtp(body)
	require.NotNil(t, verr)
	assert.Equal(t, CodeInvalidLength, verr.Code)
	assert.Equal(t, "otp", verr.Field)

	body["otp"] = "12345a"
	_, verr = ValidateOtp(body)
	require.NotNil(t, verr)
	assert.Equal(t, CodeInvalidFormat, verr.Code)

	delete(body, "session_token")
	body["otp"] = "123456"
	_, verr = ValidateOtp(body)
	require.NotNil(t, verr)
	assert.Equal(t, CodeMissingField, verr.Code)
	assert.Equal(t, "session_token", verr.Field)
}

func TestValidateProfile(t *testing.T) {
	body := map[string]interface{}{
		"mobile_no": "9876543210",
		"full_name": "Asha Rao",
		"state":     "Karnataka",
	}
	payload, verr := ValidateProfile(body)
	require.Nil(t, verr)
	assert.Equal(t, "Asha Rao", payload.FullName)

	body["full_name"] = "A"
	_, verr = ValidateProfile(body)
	require.NotNil(t, verr)
	assert.Equal(t, CodeInvalidLength, verr.Code)
	assert.Equal(t, "full_name", verr.Field)

	body["full_name"] = "Asha Rao"
	body["referral_code"] = "ab"
	_, verr = ValidateProfile(body)
	require.NotNil(t, verr)
	assert.Equal(t, CodeInvalidLength, verr.Code)
	assert.Equal(t, "referral_code", verr.Field)

	body["referral_code"] = "FRIEND42"
	payload, verr = ValidateProfile(body)
	require.Nil(t, verr)
	assert.Equal(t, "FRIEND42", payload.ReferralCode)
}

func TestValidateLanguage(t *testing.T) {
	body := map[string]interface{}{
		"mobile_no":     "9876543210",
		"language_code": "kn",
		"language_name": "Kannada",
	}
	payload, verr := ValidateLanguage(body)
	require.Nil(t, verr)
	assert.Equal(t, "kn", payload.LanguageCode)

	body["language_code"] = "kan"
	_, verr = ValidateLanguage(body)
	require.NotNil(t, verr)
	assert.Equal(t, CodeInvalidLength, verr.Code)
	assert.Equal(t, "language_code", verr.Field)

	body["language_code"] = "kn"
	body["region_code"] = "IND"
	_, verr = ValidateLanguage(body)
	require.NotNil(t, verr)
	assert.Equal(t, "region_code", verr.Field)

	body["region_code"] = "IN"
	body["user_preferences"] = "not an object"
	_, verr = ValidateLanguage(body)
	require.NotNil(t, verr)
	assert.Equal(t, CodeInvalidType, verr.Code)
	assert.Equal(t, TypeTypeError, verr.Type)

	body["user_preferences"] = map[string]interface{}{"sound": true}
	payload, verr = ValidateLanguage(body)
	require.Nil(t, verr)
	assert.Equal(t, true, payload.UserPreferences["sound"])
}

func TestValidateDeviceInfo(t *testing.T) {
	body := map[string]interface{}{
		"device_id":   "device-abc-123",
		"device_type": "android",
		"timestamp":   "2024-01-15T10:30:00Z",
	}
	payload, verr := ValidateDeviceInfo(body)
	require.Nil(t, verr)
	assert.Equal(t, "android", payload.DeviceType)
	assert.Equal(t, "2024-01-15T10:30:00Z", payload.Timestamp)

	body["capabilities"] = []interface{}{"push", "haptics"}
	payload, verr = ValidateDeviceInfo(body)
	require.Nil(t, verr)
	assert.Equal(t, []string{"push", "haptics"}, payload.Capabilities)

	body["capabilities"] = []interface{}{"push", float64(3)}
	_, verr = ValidateDeviceInfo(body)
	require.NotNil(t, verr)
	assert.Equal(t, CodeInvalidValue, verr.Code)

	delete(body, "capabilities")
	delete(body, "device_type")
	_, verr = ValidateDeviceInfo(body)
	require.NotNil(t, verr)
	assert.Equal(t, CodeMissingField, verr.Code)
	assert.Equal(t, "device_type", verr.Field)
}

func TestValidateDeviceInfoTimestampRequired(t *testing.T) {
	body := map[string]interface{}{
		"device_id":   "device-abc-123",
		"device_type": "android",
	}
	_, verr := ValidateDeviceInfo(body)
	require.NotNil(t, verr)
	assert.Equal(t, CodeMissingField, verr.Code)
	assert.Equal(t, TypeFieldError, verr.Type)
	assert.Equal(t, "timestamp", verr.Field)

	body["timestamp"] = "15-01-2024 10:30"
	_, verr = ValidateDeviceInfo(body)
	require.NotNil(t, verr)
	assert.Equal(t, CodeInvalidFormat, verr.Code)
	assert.Equal(t, "timestamp", verr.Field)
}
