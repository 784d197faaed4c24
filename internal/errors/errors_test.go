package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorCodes(t *testing.T) {
	codes := []ErrorCode{
		CodeUnknown,
		CodeValidation,
		CodeConfiguration,
		CodeCanceled,
		CodeNotFound,
		CodeConflict,
		CodeUnauthorized,
		CodeUnknownScanType,
		CodeInvalidPortState,
		CodeInvalidSpeed,
		CodePlaybackActive,
		CodeInvalidScenario,
		CodeDatabaseConnection,
		CodeDatabaseQuery,
	}

	for _, code := range codes {
		if string(code) == "" {
			t.Errorf("Error code %v should not be empty", code)
		}
	}
}

func TestPlaybackError(t *testing.T) {
	t.Run("unknown scan type", func(t *testing.T) {
		err := ErrUnknownScanType("ack")
		expected := "[UNKNOWN_SCAN_TYPE] Unknown scan type (scan: ack)"
		if err.Error() != expected {
			t.Errorf("Expected error message '%s', got '%s'", expected, err.Error())
		}
	})

	t.Run("without scan type", func(t *testing.T) {
		err := ErrPlaybackActive("set speed")
		expected := "[PLAYBACK_ACTIVE] Action not allowed during playback"
		if err.Error() != expected {
			t.Errorf("Expected error message '%s', got '%s'", expected, err.Error())
		}
		if err.Context["action"] != "set speed" {
			t.Errorf("Expected action context, got %v", err.Context)
		}
	})

	t.Run("wrapped", func(t *testing.T) {
		cause := fmt.Errorf("context canceled")
		err := WrapPlaybackError(CodeCanceled, "playback canceled", cause)
		if err.Unwrap() != cause {
			t.Error("Wrapped error should be unwrappable")
		}
	})
}

func TestDatabaseError(t *testing.T) {
	cause := fmt.Errorf("dial tcp: refused")
	err := ErrDatabaseConnection(cause)
	if err.Code != CodeDatabaseConnection {
		t.Errorf("Expected code %s, got %s", CodeDatabaseConnection, err.Code)
	}
	expected := "[DATABASE_CONNECTION] Failed to connect to database (operation: connect)"
	if err.Error() != expected {
		t.Errorf("Expected '%s', got '%s'", expected, err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the cause")
	}
}

func TestConfigError(t *testing.T) {
	err := ErrConfigInvalid("playback.speed", -1)
	expected := "[VALIDATION] Invalid configuration value (field: playback.speed)"
	if err.Error() != expected {
		t.Errorf("Expected '%s', got '%s'", expected, err.Error())
	}
}

func TestGetCodeAndIsCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"playback", ErrInvalidSpeed("abc"), CodeInvalidSpeed},
		{"database", NewDatabaseError(CodeDatabaseQuery, "boom"), CodeDatabaseQuery},
		{"config", ErrConfigInvalid("x", 1), CodeValidation},
		{"wrapped with fmt", fmt.Errorf("outer: %w", ErrNotFound("scan")), CodeNotFound},
		{"plain", errors.New("plain"), CodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.want {
				t.Errorf("GetCode() = %s, want %s", got, tt.want)
			}
			if !IsCode(tt.err, tt.want) {
				t.Errorf("IsCode(%s) should be true", tt.want)
			}
		})
	}

	if IsCode(nil, CodeUnknown) {
		t.Error("IsCode(nil) should be false")
	}
}
