package logger

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestInitializeLogger(t *testing.T) {
	originalLog := log // Keep track of original logger to restore

	tests := []struct {
		name          string
		isDevelopment bool
		logLevelEnv   string
		expectedLevel zapcore.Level
	}{
		{
			name:          "Development Mode",
			isDevelopment: true,
			expectedLevel: zapcore.DebugLevel,
		},
		{
			name:          "Production Mode",
			isDevelopment: false,
			expectedLevel: zapcore.InfoLevel,
		},
		{
			name:          "Production Mode with DEBUG Env Var",
			isDevelopment: false,
			logLevelEnv:   "debug",
			expectedLevel: zapcore.DebugLevel,
		},
		{
			name:          "Production Mode with WARN Env Var",
			isDevelopment: false,
			logLevelEnv:   "warn",
			expectedLevel: zapcore.WarnLevel,
		},
		{
			name:          "Production Mode with Invalid Env Var",
			isDevelopment: false,
			logLevelEnv:   "invalid",
			expectedLevel: zapcore.InfoLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log = nil

			if tt.logLevelEnv != "" {
				os.Setenv("LOG_LEVEL", tt.logLevelEnv)
				defer os.Unsetenv("LOG_LEVEL")
			} else {
				os.Unsetenv("LOG_LEVEL")
			}

			err := InitializeLogger(tt.isDevelopment)

			assert.NoError(t, err)
			require.NotNil(t, log, "Logger should not be nil after successful initialization")
			assert.True(t, log.Core().Enabled(tt.expectedLevel), "Expected level %s to be enabled", tt.expectedLevel)
		})
	}

	// Restore original logger state after all tests
	log = originalLog
	if log == nil {
		InitializeLogger(false)
	}
}
