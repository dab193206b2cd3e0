package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "nil error", err: nil, expected: ""},
		{name: "app error uses message", err: NewRemoteError(ErrCodeRemoteFailed, "Failed to score resume", nil), expected: "Failed to score resume"},
		{name: "wrapped app error", err: fmt.Errorf("stage failed: %w", NewAuthError(ErrCodeNoActiveSession, "Not authenticated", nil)), expected: "Not authenticated"},
		{name: "plain error", err: fmt.Errorf("boom"), expected: "boom"},
		{name: "app error without message", err: NewInternalError(ErrCodeUnexpected, "", nil), expected: "UNEXPECTED: "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, UserMessage(tt.err))
		})
	}
}

func TestIsType(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewValidationError(ErrCodeResumeTooShort, "too short", nil))

	assert.True(t, IsType(err, ErrorTypeValidation))
	assert.False(t, IsType(err, ErrorTypeRemote))
	assert.False(t, IsType(fmt.Errorf("plain"), ErrorTypeValidation))
}

func TestAppErrorFormatting(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := NewNetworkError(ErrCodeNetworkTimeout, "request failed", cause).WithContext("operation", "score")

	assert.Equal(t, "NETWORK_TIMEOUT: request failed (caused by: connection refused)", err.Error())
	assert.Equal(t, cause, err.Unwrap())
	assert.Equal(t, "score", err.Context["operation"])
}

func TestLoggerLogError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, slog.LevelDebug)

	logger.LogError(NewRemoteError(ErrCodeRemoteFailed, "Failed to score resume", nil).WithContext("status", 500), "score failed", "session_id", "abc")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "score failed", entry["msg"])
	assert.Equal(t, "remote", entry["error_type"])
	assert.Equal(t, ErrCodeRemoteFailed, entry["error_code"])
	assert.Equal(t, float64(500), entry["status"])
	assert.Equal(t, "abc", entry["session_id"])
}

func TestNewLogLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		logger, err := New(level)
		require.NoError(t, err, level)
		assert.NotNil(t, logger)
	}

	_, err := New("verbose")
	assert.Error(t, err)
}
