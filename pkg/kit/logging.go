package kit

import (
	"fmt"

	"go.uber.org/zap"
)

// NewLogger builds the service logger. An empty level means info.
func NewLogger(service, level string, development bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}

	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, fmt.Errorf("log level %q: %w", level, err)
		}
		cfg.Level = lvl
	}

	cfg.InitialFields = map[string]any{"service": service}
	return cfg.Build()
}
