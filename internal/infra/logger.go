package infra

import "go.uber.org/zap"

// NewLogger builds the process logger: human-readable in dev, JSON otherwise.
func NewLogger(env string) (*zap.Logger, error) {
	if env == "dev" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
