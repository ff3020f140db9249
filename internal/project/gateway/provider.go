package gateway

import (
	"github.com/sprintdeck/sprintdeck/internal/common/config"
	"github.com/sprintdeck/sprintdeck/internal/common/logger"
)

// Provide builds the configured gateway wrapped in bounded retry. An empty
// database host selects the in-memory gateway.
func Provide(cfg *config.Config, log *logger.Logger) (Gateway, func() error, error) {
	retryCfg := RetryConfig{
		Attempts: cfg.Retry.Attempts,
		Delay:    cfg.Retry.Delay(),
	}

	if cfg.Database.Host == "" {
		gw := NewRetrying(NewMemoryGateway(), retryCfg, log)
		return gw, gw.Close, nil
	}

	pg, err := NewPostgresGateway(cfg.Database.DSN(), cfg.Database.MaxConns, cfg.Database.MinConns)
	if err != nil {
		return nil, nil, err
	}
	gw := NewRetrying(pg, retryCfg, log)
	return gw, gw.Close, nil
}
