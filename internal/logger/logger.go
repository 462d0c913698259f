package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "patient-registration"

// Logger is a no-op until Init runs, so packages and tests can log freely.
var Logger = zap.NewNop()

// New builds JSON output at info level for production and colored console
// output at debug level otherwise.
func New(environment string) (*zap.Logger, error) {
	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if environment == "production" {
		config = zap.NewProductionConfig()
	}

	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.MessageKey = "message"

	return config.Build(
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(zap.String("service", serviceName)),
	)
}

func Init(environment string) error {
	built, err := New(environment)
	if err != nil {
		return err
	}

	Logger = built
	zap.ReplaceGlobals(Logger)
	return nil
}

func Sync() {
	_ = Logger.Sync()
}

// WithRequestID returns a logger for direct use, so the helper caller skip
// is undone.
func WithRequestID(requestID string) *zap.Logger {
	return Logger.WithOptions(zap.AddCallerSkip(-1)).With(zap.String("request_id", requestID))
}

func Debug(msg string, fields ...zap.Field) { Logger.Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { Logger.Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { Logger.Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { Logger.Error(msg, fields...) }
