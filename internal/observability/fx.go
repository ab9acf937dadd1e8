package observability

import (
	"github.com/smallbiznis/affinity/internal/observability/logger"
	"github.com/smallbiznis/affinity/internal/observability/metrics"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	fx.Provide(
		LoadConfig,
		provideLoggerConfig,
		logger.New,
	),
	fx.Invoke(ensureEngineMetrics),
)

func provideLoggerConfig(cfg Config) logger.Config {
	return logger.Config{
		ServiceName:         cfg.ServiceName,
		Environment:         cfg.Environment,
		Version:             cfg.Version,
		Level:               cfg.LogLevel,
		Format:              cfg.LogFormat,
		Debug:               cfg.Debug(),
		IncludeCaller:       true,
		IncludeStackOnError: cfg.Debug(),
	}
}

func ensureEngineMetrics(cfg Config) {
	metrics.EngineWithConfig(metrics.Config{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
	})
}
