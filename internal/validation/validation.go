package validation

import "fmt"

// Error codes carried on the unified error event.
const (
	CodeMissingField  = "MISSING_FIELD"
	CodeEmptyField    = "EMPTY_FIELD"
	CodeInvalidFormat = "INVALID_FORMAT"
	CodeInvalidLength = "INVALID_LENGTH"
	CodeInvalidType   = "INVALID_TYPE"
	CodeInvalidValue  = "INVALID_VALUE"
)

// Error type categories.
const (
	TypeFieldError  = "FIELD_ERROR"
	TypeValueError  = "VALUE_ERROR"
	TypeFormatError = "FORMAT_ERROR"
	TypeLengthError = "LENGTH_ERROR"
	TypeTypeError   = "TYPE_ERROR"
)

// ValidationError describes exactly one rejected field of an inbound event.
type ValidationError struct {
	Code    string
	Type    string
	Field   string
	Message string
	Details map[string]interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s (%s): %s", e.Code, e.Field, e.Message)
}

func missingField(field string) *ValidationError {
	return &ValidationError{
		Code:    CodeMissingField,
		Type:    TypeFieldError,
		Field:   field,
		Message: field + " is required and must be a string",
		Details: map[string]interface{}{"field_type": "string", "required": true},
	}
}

func emptyField(field string, required bool) *ValidationError {
	msg := field + " cannot be empty"
	if !required {
		msg = field + " cannot be empty if provided"
	}
	return &ValidationError{
		Code:    CodeEmptyField,
		Type:    TypeValueError,
		Field:   field,
		Message: msg,
		Details: map[string]interface{}{"min_length": 1, "received_length": 0, "required": required},
	}
}

func notAnObject(event string, data interface{}) *ValidationError {
	return &ValidationError{
		Code:    CodeInvalidFormat,
		Type:    TypeFormatError,
		Field:   "root",
		Message: event + " data must be a JSON object",
		Details: map[string]interface{}{"received_type": jsonTypeName(data)},
	}
}

func badLength(field string, min, max, got int) *ValidationError {
	return &ValidationError{
		Code:    CodeInvalidLength,
		Type:    TypeLengthError,
		Field:   field,
		Message: fmt.Sprintf("%s must be between %d and %d characters", field, min, max),
		Details: map[string]interface{}{
			"min_length":      min,
			"max_length":      max,
			"received_length": got,
			"required":        true,
		},
	}
}

func badExactLength(field string, want, got int) *ValidationError {
	return &ValidationError{
		Code:    CodeInvalidLength,
		Type:    TypeLengthError,
		Field:   field,
		Message: fmt.Sprintf("%s must be exactly %d characters", field, want),
		Details: map[string]interface{}{
			"expected_length": want,
			"received_length": got,
			"required":        true,
		},
	}
}

func badFormat(field, message, allowed string, received interface{}) *ValidationError {
	return &ValidationError{
		Code:    CodeInvalidFormat,
		Type:    TypeFormatError,
		Field:   field,
		Message: message,
		Details: map[string]interface{}{
			"allowed_characters": allowed,
			"received_value":     received,
			"required":           true,
		},
	}
}

// requireString extracts a mandatory non-empty string field.
func requireString(obj map[string]interface{}, field string) (string, *ValidationError) {
	raw, ok := obj[field]
	if !ok {
		return "", missingField(field)
	}
	value, ok := raw.(string)
	if !ok {
		return "", missingField(field)
	}
	if value == "" {
		return "", emptyField(field, true)
	}
	return value, nil
}

// optionalString extracts an optional string field; present-but-empty is an error.
func optionalString(obj map[string]interface{}, field string) (string, bool, *ValidationError) {
	raw, ok := obj[field]
	if !ok {
		return "", false, nil
	}
	value, isString := raw.(string)
	if !isString {
		return "", false, &ValidationError{
			Code:    CodeInvalidType,
			Type:    TypeTypeError,
			Field:   field,
			Message: field + " must be a string",
			Details: map[string]interface{}{
				"expected_type": "string",
				"received_type": jsonTypeName(raw),
				"required":      false,
			},
		}
	}
	if value == "" {
		return "", false, emptyField(field, false)
	}
	return value, true, nil
}

func allDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func deviceIDChars(s string) bool {
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '_' || c == '-':
		default:
			return false
		}
	}
	return true
}

// validateTimestamp does a basic ISO-8601 shape check on an optional field.
func validateTimestamp(value string, required bool) *ValidationError {
	for _, c := range value {
		if c == 'T' {
			for _, z := range value {
				if z == 'Z' {
					return nil
				}
			}
			break
		}
	}
	return &ValidationError{
		Code:    CodeInvalidFormat,
		Type:    TypeFormatError,
		Field:   "timestamp",
		Message: "timestamp must be in ISO format (e.g., 2024-01-15T10:30:00Z)",
		Details: map[string]interface{}{
			"expected_format": "ISO 8601",
			"example":         "2024-01-15T10:30:00Z",
			"received_value":  value,
			"required":        required,
		},
	}
}

func jsonTypeName(v interface{}) string {
	switch v.(type) {
	case map[string]interface{}:
		return "object"
	case []interface{}:
		return "array"
	case string:
		return "string"
	case float64, int, int64:
		return "number"
	case bool:
		return "boolean"
	default:
		return "null"
	}
}
