package global

import "go.uber.org/zap"

func NewLogger(env Environment) (*zap.Logger, error) {
	if env == Production {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// LoggerOrNop lets components accept an optional logger.
func LoggerOrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
