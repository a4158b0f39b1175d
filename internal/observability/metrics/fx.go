package metrics

import (
	"github.com/stackfreight/billing/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("observability.metrics",
	fx.Provide(
		provideConfig,
		NewProvider,
		New,
	),
)

func provideConfig(cfg config.Config) Config {
	return Config{
		Enabled:          cfg.MetricsEnabled,
		ExporterEndpoint: cfg.MetricsEndpoint,
		ExporterProtocol: cfg.MetricsExporter,
		ServiceName:      cfg.AppName,
	}
}
