package logging

import (
	"go.uber.org/zap"
)

// New returns a development logger when debug is set and a production JSON
// logger otherwise.
func New(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// Must is like New but falls back to a no-op logger when construction fails.
func Must(debug bool) *zap.Logger {
	logger, err := New(debug)
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
