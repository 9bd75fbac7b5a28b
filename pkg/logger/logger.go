package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log *zap.Logger

func init() {
	// Default to production logger
	err := InitializeLogger(false)
	if err != nil {
		if log != nil {
			zap.NewStdLog(log).Fatalf("Failed to initialize logger: %v", err)
		} else {
			os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		}
	}
}

// InitializeLogger sets up the global zap logger.
// isDevelopment determines if the logger should use development-friendly settings.
func InitializeLogger(isDevelopment bool) error {
	var config zap.Config
	if isDevelopment {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
		config.Encoding = "json"
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		config.EncoderConfig.MessageKey = "message"
		config.EncoderConfig.LevelKey = "level"
		config.EncoderConfig.CallerKey = "caller"
		config.EncoderConfig.StacktraceKey = "stacktrace"
	}

	// Level comes from the environment when set, default is Info
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel != "" {
		var level zapcore.Level
		if err := level.Set(logLevel); err == nil {
			config.Level.SetLevel(level)
		} else {
			if log != nil {
				zap.NewStdLog(log).Printf("Invalid LOG_LEVEL '%s', using default Info level", logLevel)
			}
		}
	} else {
		config.Level.SetLevel(zap.InfoLevel)
	}

	var err error
	log, err = config.Build(zap.AddCallerSkip(1))
	if err != nil {
		log = zap.NewNop()
		return err
	}

	// Redirect standard log package to Zap
	zap.RedirectStdLog(log)

	return nil
}

// L returns the global logger instance.
func L() *zap.Logger {
	return log
}

// Sync flushes any buffered log entries.
func Sync() error {
	if log != nil {
		return log.Sync()
	}
	return nil
}
