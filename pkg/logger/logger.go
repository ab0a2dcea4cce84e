package logger

import (
	"go.uber.org/zap"
)

// NewLogger builds the process-wide production logger.
func NewLogger() *zap.Logger {
	l, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	return l
}
